package realtime

import (
	"sync"
)

// Router is the per-process registry of live connections and their room
// memberships. Rooms are sets of connection ids; identities are tracked as a
// secondary index so presence checks can count live connections per user
// without walking every room. Instances never share socket tables; cross
// process delivery happens via the broadcast bus, not here.
type Router struct {
	mu        sync.RWMutex
	conns     map[string]*Connection         // connID -> connection
	userConns map[string]map[string]struct{} // userID -> set of connIDs
	rooms     map[string]map[string]struct{} // room -> set of connIDs
	connRooms map[string]map[string]struct{} // connID -> set of rooms
}

// NewRouter constructs an initialized Router.
func NewRouter() *Router {
	return &Router{
		conns:     make(map[string]*Connection),
		userConns: make(map[string]map[string]struct{}),
		rooms:     make(map[string]map[string]struct{}),
		connRooms: make(map[string]map[string]struct{}),
	}
}

// Attach registers a connection and joins it to its implicit user and company
// rooms. The caller owns starting the connection's write loop.
func (r *Router) Attach(conn *Connection) {
	r.mu.Lock()
	r.conns[conn.ID] = conn
	if r.userConns[conn.UserID] == nil {
		r.userConns[conn.UserID] = make(map[string]struct{})
	}
	r.userConns[conn.UserID][conn.ID] = struct{}{}
	r.connRooms[conn.ID] = make(map[string]struct{})
	r.joinLocked(UserRoom(conn.UserID), conn.ID)
	r.joinLocked(CompanyRoom(conn.CompanyID), conn.ID)
	r.mu.Unlock()
}

// Detach removes a connection and all its room memberships if it is still tracked.
func (r *Router) Detach(conn *Connection) {
	r.mu.Lock()
	r.detachLocked(conn.ID)
	r.mu.Unlock()
}

// Join adds the connection to the named room. Unknown connections are ignored
// so a join racing a disconnect cannot resurrect registry state.
func (r *Router) Join(room string, conn *Connection) {
	r.mu.Lock()
	if _, ok := r.conns[conn.ID]; ok {
		r.joinLocked(room, conn.ID)
	}
	r.mu.Unlock()
}

// Leave removes the connection from the named room.
func (r *Router) Leave(room string, conn *Connection) {
	r.mu.Lock()
	r.leaveLocked(room, conn.ID)
	r.mu.Unlock()
}

// Broadcast writes payload to every member of the room and reports how many
// connections accepted it. excludeUserID, when non-empty, skips that identity's
// connections.
func (r *Router) Broadcast(room string, payload []byte, excludeUserID string) int {
	r.mu.RLock()
	members := r.rooms[room]
	targets := make([]*Connection, 0, len(members))
	for connID := range members {
		conn := r.conns[connID]
		if conn == nil {
			continue
		}
		if excludeUserID != "" && conn.UserID == excludeUserID {
			continue
		}
		targets = append(targets, conn)
	}
	r.mu.RUnlock()

	delivered := 0
	for _, conn := range targets {
		if err := conn.Send(payload); err == nil {
			delivered++
		}
	}
	return delivered
}

// NotifyUser delivers payload privately to every live connection of the given
// user and reports whether at least one accepted it.
func (r *Router) NotifyUser(userID string, payload []byte) bool {
	r.mu.RLock()
	targets := make([]*Connection, 0, len(r.userConns[userID]))
	for connID := range r.userConns[userID] {
		if conn := r.conns[connID]; conn != nil {
			targets = append(targets, conn)
		}
	}
	r.mu.RUnlock()

	ok := false
	for _, conn := range targets {
		if err := conn.Send(payload); err == nil {
			ok = true
		}
	}
	return ok
}

// ConnectionsForUser reports how many live connections the identity currently
// holds on this instance. Presence transitions to offline must be gated on this
// read, never on a decrement counter.
func (r *Router) ConnectionsForUser(userID string) int {
	r.mu.RLock()
	n := len(r.userConns[userID])
	r.mu.RUnlock()
	return n
}

// Close terminates all tracked connections and clears router state.
func (r *Router) Close() {
	r.mu.Lock()
	conns := make([]*Connection, 0, len(r.conns))
	for _, conn := range r.conns {
		conns = append(conns, conn)
	}
	r.conns = make(map[string]*Connection)
	r.userConns = make(map[string]map[string]struct{})
	r.rooms = make(map[string]map[string]struct{})
	r.connRooms = make(map[string]map[string]struct{})
	r.mu.Unlock()

	for _, conn := range conns {
		conn.Close(1001, "router shutdown")
	}
}

func (r *Router) joinLocked(room string, connID string) {
	if room == "" {
		return
	}
	members := r.rooms[room]
	if members == nil {
		members = make(map[string]struct{})
		r.rooms[room] = members
	}
	members[connID] = struct{}{}

	memberships := r.connRooms[connID]
	if memberships == nil {
		memberships = make(map[string]struct{})
		r.connRooms[connID] = memberships
	}
	memberships[room] = struct{}{}
}

func (r *Router) leaveLocked(room string, connID string) {
	members := r.rooms[room]
	if members != nil {
		delete(members, connID)
		if len(members) == 0 {
			delete(r.rooms, room)
		}
	}
	if memberships, ok := r.connRooms[connID]; ok {
		delete(memberships, room)
	}
}

func (r *Router) detachLocked(connID string) {
	conn, ok := r.conns[connID]
	if !ok {
		return
	}
	delete(r.conns, connID)

	if set, ok := r.userConns[conn.UserID]; ok {
		delete(set, connID)
		if len(set) == 0 {
			delete(r.userConns, conn.UserID)
		}
	}

	for room := range r.connRooms[connID] {
		r.leaveLocked(room, connID)
	}
	delete(r.connRooms, connID)
}

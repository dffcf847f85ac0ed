package adapter

import (
	"context"
	"strings"
	"sync"

	repository "teamchat/internal/repository/port"
)

// MemoryUserRepository is the in-process UserRepository used by tests.
type MemoryUserRepository struct {
	mu      sync.Mutex
	byID    map[string]repository.User
	members map[string]map[string]struct{} // companyID -> user ids
}

func NewMemoryUserRepository() *MemoryUserRepository {
	return &MemoryUserRepository{
		byID:    make(map[string]repository.User),
		members: make(map[string]map[string]struct{}),
	}
}

var _ repository.UserRepository = (*MemoryUserRepository)(nil)

// Add seeds a user as a member of the given company.
func (r *MemoryUserRepository) Add(u repository.User, companyID string) {
	r.mu.Lock()
	r.byID[u.ID] = u
	if r.members[companyID] == nil {
		r.members[companyID] = make(map[string]struct{})
	}
	r.members[companyID][u.ID] = struct{}{}
	r.mu.Unlock()
}

func (r *MemoryUserRepository) FindByIDInCompany(ctx context.Context, id, companyID string) (*repository.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.members[companyID][id]; !ok {
		return nil, nil
	}
	u := r.byID[id]
	return &u, nil
}

func (r *MemoryUserRepository) FindByEmailInCompany(ctx context.Context, email, companyID string) (*repository.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for id := range r.members[companyID] {
		u := r.byID[id]
		if strings.EqualFold(u.Email, strings.TrimSpace(email)) {
			return &u, nil
		}
	}
	return nil, nil
}

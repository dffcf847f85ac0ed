package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"teamchat/internal/pkg/auth/port"
)

// identityKey is the gin context key the resolved Identity is stored under.
const identityKey = "auth.identity"

// sessionCookie is the cookie fallback for browser clients that cannot set
// the Authorization header (e.g. the websocket polling fallback).
const sessionCookie = "session_token"

// RequireAuth authenticates the request with the session validator and aborts
// with 401 before any handler runs when the token is missing or invalid.
func RequireAuth(v port.Validator) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := BearerToken(c)
		if token == "" {
			if cookie, err := c.Cookie(sessionCookie); err == nil {
				token = cookie
			}
		}
		if token == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing token"})
			return
		}

		identity, err := v.Authenticate(c.Request.Context(), token)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid or expired token"})
			return
		}

		c.Set(identityKey, *identity)
		c.Next()
	}
}

// BearerToken extracts the token from the Authorization header, if present.
func BearerToken(c *gin.Context) string {
	authz := c.GetHeader("Authorization")
	if authz == "" || !strings.HasPrefix(authz, "Bearer ") {
		return ""
	}
	return strings.TrimSpace(strings.TrimPrefix(authz, "Bearer "))
}

// IdentityFrom returns the Identity stored by RequireAuth.
func IdentityFrom(c *gin.Context) (port.Identity, bool) {
	v, ok := c.Get(identityKey)
	if !ok {
		return port.Identity{}, false
	}
	id, ok := v.(port.Identity)
	return id, ok
}

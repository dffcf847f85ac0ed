package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"

	"teamchat/internal/pkg/auth/port"
)

type mapValidator map[string]port.Identity

func (v mapValidator) Authenticate(ctx context.Context, token string) (*port.Identity, error) {
	id, ok := v[token]
	if !ok {
		return nil, port.ErrUnauthenticated
	}
	return &id, nil
}

func newAuthedEngine(v port.Validator) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/whoami", RequireAuth(v), func(c *gin.Context) {
		id, ok := IdentityFrom(c)
		if !ok {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "identity missing"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"userId": id.UserID, "companyId": id.CompanyID})
	})
	return r
}

func TestRequireAuthAcceptsBearerHeader(t *testing.T) {
	v := mapValidator{"good": {UserID: "u1", CompanyID: "c1"}}
	r := newAuthedEngine(v)

	req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
	req.Header.Set("Authorization", "Bearer good")
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"userId":"u1"`)
}

func TestRequireAuthFallsBackToCookie(t *testing.T) {
	v := mapValidator{"good": {UserID: "u1", CompanyID: "c1"}}
	r := newAuthedEngine(v)

	req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
	req.AddCookie(&http.Cookie{Name: "session_token", Value: "good"})
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestRequireAuthRejects(t *testing.T) {
	v := mapValidator{"good": {UserID: "u1", CompanyID: "c1"}}
	r := newAuthedEngine(v)

	// No token at all.
	req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	// Unknown token.
	req = httptest.NewRequest(http.MethodGet, "/whoami", nil)
	req.Header.Set("Authorization", "Bearer bad")
	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	// Malformed header scheme.
	req = httptest.NewRequest(http.MethodGet, "/whoami", nil)
	req.Header.Set("Authorization", "Token good")
	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

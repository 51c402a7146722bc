package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"sponsorly/models"
	"sponsorly/utils"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSessions struct {
	role models.Role
	err  error
	hash string
}

func (f *fakeSessions) ResolveSession(_ context.Context, _ string, tokenHash string) (models.Role, error) {
	f.hash = tokenHash
	return f.role, f.err
}

type fakeRecorder struct {
	mu      sync.Mutex
	entries []models.AuditLog
}

func (f *fakeRecorder) Record(_ context.Context, entry models.AuditLog) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.entries = append(f.entries, entry)
}

func init() {
	gin.SetMode(gin.TestMode)
}

func authedRouter(sessions SessionResolver, extra ...gin.HandlerFunc) *gin.Engine {
	r := gin.New()
	handlers := append([]gin.HandlerFunc{JWTAuthMiddleware(sessions)}, extra...)
	handlers = append(handlers, func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"userID": UserID(c), "role": Role(c)})
	})
	r.GET("/me", handlers...)
	return r
}

func bearer(t *testing.T, role models.Role) string {
	t.Helper()
	token, err := utils.GenerateToken("user-1", "ana@example.com", string(role), time.Hour)
	require.NoError(t, err)
	return token
}

func TestJWTAuthMiddleware(t *testing.T) {
	t.Run("missing header", func(t *testing.T) {
		w := httptest.NewRecorder()
		authedRouter(&fakeSessions{}).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/me", nil))
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("garbage token", func(t *testing.T) {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/me", nil)
		req.Header.Set("Authorization", "Bearer not-a-jwt")
		authedRouter(&fakeSessions{}).ServeHTTP(w, req)
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("valid session", func(t *testing.T) {
		sessions := &fakeSessions{role: models.RoleSponsor}
		token := bearer(t, models.RoleSponsor)
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/me", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		authedRouter(sessions).ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.JSONEq(t, `{"userID":"user-1","role":"sponsor"}`, w.Body.String())
		assert.Equal(t, utils.HashToken(token), sessions.hash)
	})

	t.Run("revoked session", func(t *testing.T) {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/me", nil)
		req.Header.Set("Authorization", "Bearer "+bearer(t, models.RoleSponsor))
		authedRouter(&fakeSessions{err: utils.ErrUnauthorized}).ServeHTTP(w, req)
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("suspended user", func(t *testing.T) {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/me", nil)
		req.Header.Set("Authorization", "Bearer "+bearer(t, models.RoleCreator))
		authedRouter(&fakeSessions{err: utils.ErrForbidden}).ServeHTTP(w, req)
		assert.Equal(t, http.StatusForbidden, w.Code)
	})
}

func TestRequireRole(t *testing.T) {
	token := bearer(t, models.RoleCreator)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	authedRouter(&fakeSessions{role: models.RoleCreator}, RequireRole(models.RoleAdmin)).ServeHTTP(w, req)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = httptest.NewRecorder()
	authedRouter(&fakeSessions{role: models.RoleCreator}, RequireRole(models.RoleAdmin, models.RoleCreator)).ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestAuditTrail(t *testing.T) {
	rec := &fakeRecorder{}
	r := gin.New()
	admin := r.Group("/api/admin", func(c *gin.Context) {
		c.Set(ctxUserID, "admin-1")
		c.Set(ctxRole, models.RoleAdmin)
		c.Set(ctxEmail, "root@example.com")
	}, AuditTrail(rec))
	admin.GET("/users", func(c *gin.Context) { c.Status(http.StatusOK) })
	admin.PUT("/users/:id", func(c *gin.Context) { c.Status(http.StatusOK) })
	admin.DELETE("/users/:id", func(c *gin.Context) { c.Status(http.StatusNoContent) })
	admin.POST("/organizations/:id/members", func(c *gin.Context) { c.Status(http.StatusBadRequest) })

	for _, tc := range []struct{ method, path string }{
		{http.MethodGet, "/api/admin/users"},
		{http.MethodPut, "/api/admin/users/u-7"},
		{http.MethodDelete, "/api/admin/users/u-8"},
		{http.MethodPost, "/api/admin/organizations/o-1/members"},
	} {
		req := httptest.NewRequest(tc.method, tc.path, nil)
		req.Header.Set("X-Forwarded-For", "203.0.113.9, 10.0.0.1")
		r.ServeHTTP(httptest.NewRecorder(), req)
	}

	require.Len(t, rec.entries, 2, "reads and failed mutations are not audited")
	update, del := rec.entries[0], rec.entries[1]
	assert.Equal(t, "user.update", update.Action)
	assert.Equal(t, "user", update.ResourceType)
	assert.Equal(t, "u-7", update.ResourceID)
	assert.Equal(t, "admin-1", update.ActorID)
	assert.Equal(t, "root@example.com", update.ActorEmail)
	assert.Equal(t, "203.0.113.9", update.IPAddress)
	assert.Equal(t, models.SeverityInfo, update.Severity)

	assert.Equal(t, "user.delete", del.Action)
	assert.Equal(t, models.SeverityWarning, del.Severity)
}

func TestAuditTrailRecordsCreatedID(t *testing.T) {
	rec := &fakeRecorder{}
	r := gin.New()
	admin := r.Group("/api/admin", func(c *gin.Context) {
		c.Set(ctxUserID, "admin-1")
		c.Set(ctxRole, models.RoleAdmin)
	}, AuditTrail(rec))
	admin.POST("/organizations", func(c *gin.Context) {
		SetAuditResource(c, "org-42")
		c.Status(http.StatusCreated)
	})
	admin.POST("/organizations/:id/members", func(c *gin.Context) { c.Status(http.StatusCreated) })

	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodPost, "/api/admin/organizations", nil))
	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodPost, "/api/admin/organizations/o-1/members", nil))

	require.Len(t, rec.entries, 2)
	assert.Equal(t, "organization.create", rec.entries[0].Action)
	assert.Equal(t, "org-42", rec.entries[0].ResourceID)
	assert.Equal(t, "organization.members.create", rec.entries[1].Action)
	assert.Equal(t, "o-1", rec.entries[1].ResourceID)
}

func TestAuditAction(t *testing.T) {
	cases := []struct {
		route, verb, resource, action string
	}{
		{"users/:id", "update", "user", "user.update"},
		{"users/:id/status", "update", "user", "user.status.update"},
		{"organizations", "create", "organization", "organization.create"},
		{"organizations/:id/members/:userId", "delete", "organization", "organization.members.delete"},
		{"categories", "create", "category", "category.create"},
	}
	for _, tc := range cases {
		resource, action := auditAction(tc.route, tc.verb)
		assert.Equal(t, tc.resource, resource, tc.route)
		assert.Equal(t, tc.action, action, tc.route)
	}
}

func TestRateLimitMiddleware(t *testing.T) {
	r := gin.New()
	r.Use(RateLimitMiddleware(3))
	r.GET("/ping", func(c *gin.Context) { c.Status(http.StatusOK) })

	codes := make([]int, 0, 4)
	for i := 0; i < 4; i++ {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/ping", nil)
		req.RemoteAddr = "198.51.100.4:5555"
		r.ServeHTTP(w, req)
		codes = append(codes, w.Code)
	}
	assert.Equal(t, []int{200, 200, 200, 429}, codes)

	// Another client has its own bucket.
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/ping", nil)
	req.RemoteAddr = "198.51.100.5:5555"
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestRateLimiterSweepsIdleClients(t *testing.T) {
	store := newRateLimiterStore(10)
	start := time.Now()
	store.getLimiter("a", start)
	store.getLimiter("b", start.Add(limiterIdleTTL+time.Minute))
	assert.Len(t, store.visitors, 1)
	assert.Contains(t, store.visitors, "b")
}

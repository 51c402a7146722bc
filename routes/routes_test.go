package routes

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"sponsorly/database/repository/memstore"
	"sponsorly/handlers"
	"sponsorly/models"
	"sponsorly/services/audit"
	"sponsorly/services/user"
	"sponsorly/utils"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testServer struct {
	router *gin.Engine
	audit  *memstore.AuditLogs
	tokens map[string]string
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)

	tokens := map[string]string{}
	mkUser := func(id, name, email, org string, role models.Role) models.User {
		token, err := utils.GenerateToken(id, email, string(role), time.Hour)
		require.NoError(t, err)
		tokens[id] = token
		return models.User{
			ID: id, Name: name, Email: email, Role: role, Status: models.UserStatusActive,
			OrganizationName: org, TokenHash: utils.HashToken(token),
			CreatedAt: time.Date(2025, 1, len(tokens), 0, 0, 0, 0, time.UTC),
		}
	}
	users := memstore.NewUsers(
		mkUser("admin-1", "Root", "root@sponsorly.io", "", models.RoleAdmin),
		mkUser("u-ana", "Ana Brand", "ana@brand.io", "Acme Foods", models.RoleSponsor),
		mkUser("u-bo", "Bo Creator", "bo@creators.io", "", models.RoleCreator),
	)
	auditLogs := &memstore.AuditLogs{}

	userSvc := &user.DefaultUserService{
		Repo:     users,
		Sponsors: memstore.NewSponsors(),
		Creators: memstore.NewCreators(),
		Orgs:     memstore.NewOrganizations(),
	}
	auditSvc := &audit.DefaultAuditService{Repo: auditLogs}

	hb := &handlers.HandlerBundle{
		Sessions:      userSvc,
		Audit:         auditSvc,
		Users:         &handlers.UserHandler{UserService: userSvc},
		Admin:         &handlers.AdminHandler{UserService: userSvc, AuditService: auditSvc},
		Organizations: &handlers.OrganizationHandler{},
		Campaigns:     &handlers.CampaignHandler{},
		Sponsors:      &handlers.SponsorHandler{},
		Creators:      &handlers.CreatorHandler{},
		Matches:       &handlers.MatchHandler{},
		Marketplace:   &handlers.MarketplaceHandler{},
		Billing:       &handlers.BillingHandler{},
		Messages:      &handlers.MessageHandler{},
		Dashboards:    &handlers.DashboardHandler{},
	}
	r := gin.New()
	RegisterRoutes(r, hb)
	return &testServer{router: r, audit: auditLogs, tokens: tokens}
}

func (s *testServer) do(method, path, userID, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	if userID != "" {
		req.Header.Set("Authorization", "Bearer "+s.tokens[userID])
	}
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

func TestAdminUserSearchMatchesOrganization(t *testing.T) {
	s := newTestServer(t)

	w := s.do(http.MethodGet, "/api/admin/users?q=ACME", "admin-1", "")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var resp struct {
		Items []models.User `json:"items"`
		Total int64         `json:"total"`
		Page  int           `json:"page"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Len(t, resp.Items, 1)
	assert.Equal(t, "u-ana", resp.Items[0].ID)
	assert.EqualValues(t, 1, resp.Total)
	assert.Equal(t, 1, resp.Page)
	assert.NotContains(t, w.Body.String(), "tokenHash")
}

func TestAdminAreaRequiresAdminRole(t *testing.T) {
	s := newTestServer(t)

	assert.Equal(t, http.StatusUnauthorized, s.do(http.MethodGet, "/api/admin/users", "", "").Code)
	assert.Equal(t, http.StatusForbidden, s.do(http.MethodGet, "/api/admin/users", "u-ana", "").Code)
}

func TestSuspensionIsAuditedAndLocksUserOut(t *testing.T) {
	s := newTestServer(t)

	require.Equal(t, http.StatusOK, s.do(http.MethodGet, "/api/users/me", "u-bo", "").Code)

	w := s.do(http.MethodPut, "/api/admin/users/u-bo/status", "admin-1", `{"status":"suspended"}`)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	require.Len(t, s.audit.Entries, 1)
	entry := s.audit.Entries[0]
	assert.Equal(t, "user.status.update", entry.Action)
	assert.Equal(t, "u-bo", entry.ResourceID)
	assert.Equal(t, "admin-1", entry.ActorID)
	assert.Equal(t, "root@sponsorly.io", entry.ActorEmail)

	assert.Equal(t, http.StatusForbidden, s.do(http.MethodGet, "/api/users/me", "u-bo", "").Code)

	w = s.do(http.MethodGet, "/api/admin/audit-logs?action=user.", "admin-1", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"user.status.update"`)
}

func TestAdminCannotSuspendSelf(t *testing.T) {
	s := newTestServer(t)

	w := s.do(http.MethodPut, "/api/admin/users/admin-1/status", "admin-1", `{"status":"suspended"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "you cannot suspend yourself")
	assert.Empty(t, s.audit.Entries, "failed mutations are not audited")
}

func TestDeleteIsAuditedAsWarning(t *testing.T) {
	s := newTestServer(t)

	w := s.do(http.MethodDelete, "/api/admin/users/u-ana", "admin-1", "")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	require.Len(t, s.audit.Entries, 1)
	assert.Equal(t, "user.delete", s.audit.Entries[0].Action)
	assert.Equal(t, models.SeverityWarning, s.audit.Entries[0].Severity)
}

func TestAdminCreateIsAuditedWithNewID(t *testing.T) {
	s := newTestServer(t)

	w := s.do(http.MethodPost, "/api/admin/users", "admin-1",
		`{"name":"Cy Analyst","email":"cy@acme.io","password":"Str0ng!pass","role":"sponsor"}`)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var created models.User
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &created))
	require.NotEmpty(t, created.ID)

	require.Len(t, s.audit.Entries, 1)
	assert.Equal(t, "user.create", s.audit.Entries[0].Action)
	assert.Equal(t, created.ID, s.audit.Entries[0].ResourceID)
}

func TestLogoutRevokesToken(t *testing.T) {
	s := newTestServer(t)

	require.Equal(t, http.StatusOK, s.do(http.MethodPost, "/api/auth/logout", "u-ana", "").Code)
	assert.Equal(t, http.StatusUnauthorized, s.do(http.MethodGet, "/api/users/me", "u-ana", "").Code)
}

func TestUnknownRoute(t *testing.T) {
	s := newTestServer(t)
	assert.Equal(t, http.StatusNotFound, s.do(http.MethodGet, "/api/nope", "", "").Code)
}

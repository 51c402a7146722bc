// File: handlers/admin.go
package handlers

import (
	"net/http"

	"sponsorly/middleware"
	"sponsorly/models"
	"sponsorly/services/audit"
	"sponsorly/services/user"

	"github.com/gin-gonic/gin"
)

// AdminHandler encapsulates the user-management and audit areas of the admin page.
type AdminHandler struct {
	UserService  user.UserService
	AuditService audit.AuditService
}

// SearchUsersHandler handles GET /api/admin/users.
func (h *AdminHandler) SearchUsersHandler(c *gin.Context) {
	var query models.UserQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		badRequest(c, err)
		return
	}
	users, total, err := h.UserService.SearchUsers(c.Request.Context(), query)
	if err != nil {
		fail(c, "search users", err)
		return
	}
	c.JSON(http.StatusOK, listResponse(users, total, query.Page, query.PageSize))
}

// GetUserHandler handles GET /api/admin/users/:id.
func (h *AdminHandler) GetUserHandler(c *gin.Context) {
	usr, err := h.UserService.GetUser(c.Request.Context(), c.Param("id"))
	if err != nil {
		fail(c, "get user", err)
		return
	}
	c.JSON(http.StatusOK, usr)
}

// CreateUserHandler handles POST /api/admin/users.
func (h *AdminHandler) CreateUserHandler(c *gin.Context) {
	var req models.CreateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	usr, err := h.UserService.CreateUser(c.Request.Context(), req)
	if err != nil {
		fail(c, "create user", err)
		return
	}
	middleware.SetAuditResource(c, usr.ID)
	c.JSON(http.StatusCreated, usr)
}

// UpdateUserHandler handles PATCH /api/admin/users/:id.
func (h *AdminHandler) UpdateUserHandler(c *gin.Context) {
	var patch models.UserUpdate
	if err := c.ShouldBindJSON(&patch); err != nil {
		badRequest(c, err)
		return
	}
	usr, err := h.UserService.UpdateUser(c.Request.Context(), middleware.UserID(c), c.Param("id"), patch)
	if err != nil {
		fail(c, "update user", err)
		return
	}
	c.JSON(http.StatusOK, usr)
}

// DeleteUserHandler handles DELETE /api/admin/users/:id.
func (h *AdminHandler) DeleteUserHandler(c *gin.Context) {
	if err := h.UserService.DeleteUser(c.Request.Context(), middleware.UserID(c), c.Param("id")); err != nil {
		fail(c, "delete user", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "User deleted"})
}

// SetStatusHandler handles PUT /api/admin/users/:id/status.
func (h *AdminHandler) SetStatusHandler(c *gin.Context) {
	var req models.StatusChange
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	if err := h.UserService.SetStatus(c.Request.Context(), middleware.UserID(c), c.Param("id"), req.Status); err != nil {
		fail(c, "set user status", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"id": c.Param("id"), "status": req.Status})
}

// ListAuditLogsHandler handles GET /api/admin/audit-logs.
func (h *AdminHandler) ListAuditLogsHandler(c *gin.Context) {
	var query models.AuditQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		badRequest(c, err)
		return
	}
	entries, total, err := h.AuditService.List(c.Request.Context(), query)
	if err != nil {
		fail(c, "list audit logs", err)
		return
	}
	c.JSON(http.StatusOK, listResponse(entries, total, query.Page, query.PageSize))
}

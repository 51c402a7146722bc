package handlers

import (
	"net/http"

	"sponsorly/middleware"
	"sponsorly/services/dashboard"

	"github.com/gin-gonic/gin"
)

// DashboardHandler serves the role-specific dashboards.
type DashboardHandler struct {
	Service dashboard.DashboardService
}

// MeHandler handles GET /api/dashboard and returns the caller's dashboard.
func (h *DashboardHandler) MeHandler(c *gin.Context) {
	d, err := h.Service.ForUser(c.Request.Context(), middleware.UserID(c), middleware.Role(c))
	if err != nil {
		fail(c, "load dashboard", err)
		return
	}
	c.JSON(http.StatusOK, d)
}

// AdminHandler handles GET /api/admin/dashboard.
func (h *DashboardHandler) AdminHandler(c *gin.Context) {
	d, err := h.Service.Admin(c.Request.Context())
	if err != nil {
		fail(c, "load admin dashboard", err)
		return
	}
	c.JSON(http.StatusOK, d)
}

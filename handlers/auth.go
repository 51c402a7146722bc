package handlers

import (
	"net/http"

	"sponsorly/middleware"
	"sponsorly/models"
	"sponsorly/services/user"

	"github.com/gin-gonic/gin"
)

// UserHandler serves sign-up, sign-in and the settings page.
type UserHandler struct {
	UserService user.UserService
}

// RegisterHandler handles POST /api/auth/register.
func (h *UserHandler) RegisterHandler(c *gin.Context) {
	var req models.RegistrationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	resp, err := h.UserService.Register(c.Request.Context(), req)
	if err != nil {
		fail(c, "register", err)
		return
	}
	c.JSON(http.StatusCreated, resp)
}

// LoginHandler handles POST /api/auth/login.
func (h *UserHandler) LoginHandler(c *gin.Context) {
	var req models.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	resp, err := h.UserService.Authenticate(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		fail(c, "login", err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// LogoutHandler handles POST /api/auth/logout.
func (h *UserHandler) LogoutHandler(c *gin.Context) {
	if err := h.UserService.Logout(c.Request.Context(), middleware.UserID(c)); err != nil {
		fail(c, "logout", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Signed out"})
}

// MeHandler handles GET /api/users/me.
func (h *UserHandler) MeHandler(c *gin.Context) {
	usr, err := h.UserService.GetUser(c.Request.Context(), middleware.UserID(c))
	if err != nil {
		fail(c, "get current user", err)
		return
	}
	c.JSON(http.StatusOK, usr)
}

// UpdateProfileHandler handles PATCH /api/users/me.
func (h *UserHandler) UpdateProfileHandler(c *gin.Context) {
	var patch models.ProfileUpdate
	if err := c.ShouldBindJSON(&patch); err != nil {
		badRequest(c, err)
		return
	}
	usr, err := h.UserService.UpdateProfile(c.Request.Context(), middleware.UserID(c), patch)
	if err != nil {
		fail(c, "update profile", err)
		return
	}
	c.JSON(http.StatusOK, usr)
}

// UpdatePasswordHandler handles PUT /api/users/me/password.
func (h *UserHandler) UpdatePasswordHandler(c *gin.Context) {
	var req models.PasswordChange
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	if err := h.UserService.UpdatePassword(c.Request.Context(), middleware.UserID(c), req.CurrentPassword, req.NewPassword); err != nil {
		fail(c, "update password", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Password updated, please sign in again"})
}

// GetSettingsHandler handles GET /api/users/me/settings.
func (h *UserHandler) GetSettingsHandler(c *gin.Context) {
	settings, err := h.UserService.GetSettings(c.Request.Context(), middleware.UserID(c))
	if err != nil {
		fail(c, "get settings", err)
		return
	}
	c.JSON(http.StatusOK, settings)
}

// UpdateSettingsHandler handles PATCH /api/users/me/settings.
func (h *UserHandler) UpdateSettingsHandler(c *gin.Context) {
	var patch models.SettingsUpdate
	if err := c.ShouldBindJSON(&patch); err != nil {
		badRequest(c, err)
		return
	}
	settings, err := h.UserService.UpdateSettings(c.Request.Context(), middleware.UserID(c), patch)
	if err != nil {
		fail(c, "update settings", err)
		return
	}
	c.JSON(http.StatusOK, settings)
}

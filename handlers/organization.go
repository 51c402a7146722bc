package handlers

import (
	"net/http"

	"sponsorly/middleware"
	"sponsorly/models"
	"sponsorly/services/organization"

	"github.com/gin-gonic/gin"
)

// OrganizationHandler serves the organizations tab of the admin page.
type OrganizationHandler struct {
	Service organization.OrganizationService
}

type memberRequest struct {
	UserID string `json:"userId" binding:"required"`
}

func (h *OrganizationHandler) ListHandler(c *gin.Context) {
	var query models.OrganizationQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		badRequest(c, err)
		return
	}
	orgs, total, err := h.Service.List(c.Request.Context(), query)
	if err != nil {
		fail(c, "list organizations", err)
		return
	}
	c.JSON(http.StatusOK, listResponse(orgs, total, query.Page, query.PageSize))
}

func (h *OrganizationHandler) GetHandler(c *gin.Context) {
	org, err := h.Service.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		fail(c, "get organization", err)
		return
	}
	c.JSON(http.StatusOK, org)
}

func (h *OrganizationHandler) CreateHandler(c *gin.Context) {
	var org models.Organization
	if err := c.ShouldBindJSON(&org); err != nil {
		badRequest(c, err)
		return
	}
	created, err := h.Service.Create(c.Request.Context(), org)
	if err != nil {
		fail(c, "create organization", err)
		return
	}
	middleware.SetAuditResource(c, created.ID)
	c.JSON(http.StatusCreated, created)
}

func (h *OrganizationHandler) UpdateHandler(c *gin.Context) {
	var patch models.OrganizationUpdate
	if err := c.ShouldBindJSON(&patch); err != nil {
		badRequest(c, err)
		return
	}
	org, err := h.Service.Update(c.Request.Context(), c.Param("id"), patch)
	if err != nil {
		fail(c, "update organization", err)
		return
	}
	c.JSON(http.StatusOK, org)
}

func (h *OrganizationHandler) DeleteHandler(c *gin.Context) {
	if err := h.Service.Delete(c.Request.Context(), c.Param("id")); err != nil {
		fail(c, "delete organization", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Organization deleted"})
}

// AddMemberHandler handles POST /api/admin/organizations/:id/members.
func (h *OrganizationHandler) AddMemberHandler(c *gin.Context) {
	var req memberRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	if err := h.Service.AddMember(c.Request.Context(), c.Param("id"), req.UserID); err != nil {
		fail(c, "add organization member", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"organizationId": c.Param("id"), "userId": req.UserID})
}

// RemoveMemberHandler handles DELETE /api/admin/organizations/:id/members/:userId.
func (h *OrganizationHandler) RemoveMemberHandler(c *gin.Context) {
	if err := h.Service.RemoveMember(c.Request.Context(), c.Param("id"), c.Param("userId")); err != nil {
		fail(c, "remove organization member", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Member removed"})
}

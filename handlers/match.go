package handlers

import (
	"net/http"

	"sponsorly/middleware"
	"sponsorly/models"
	"sponsorly/services/creator"
	"sponsorly/services/matching"
	"sponsorly/services/sponsor"
	"sponsorly/utils"

	"github.com/gin-gonic/gin"
)

// MatchHandler serves the matches page.
type MatchHandler struct {
	Matching matching.MatchingService
	Sponsors sponsor.SponsorService
	Creators creator.CreatorService
}

type decisionRequest struct {
	Status string `json:"status" binding:"required"`
}

// ListHandler handles GET /api/matches?limit=.
func (h *MatchHandler) ListHandler(c *gin.Context) {
	var q struct {
		Limit int `form:"limit"`
	}
	if err := c.ShouldBindQuery(&q); err != nil {
		badRequest(c, err)
		return
	}
	matches, err := h.Matching.MatchesForUser(c.Request.Context(), middleware.UserID(c), middleware.Role(c), q.Limit)
	if err != nil {
		fail(c, "list matches", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"items": matches})
}

// DecisionHandler handles POST /api/matches/:id/decision, where :id is the
// counterpart's sponsor or creator ID.
func (h *MatchHandler) DecisionHandler(c *gin.Context) {
	var req decisionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	err := h.Matching.SetDecisionForUser(c.Request.Context(), middleware.UserID(c), middleware.Role(c), c.Param("id"), req.Status)
	if err != nil {
		fail(c, "record match decision", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"counterpartId": c.Param("id"), "status": req.Status})
}

// ExplainHandler handles GET /api/matches/:id/explain. Admins name the
// sponsor with ?sponsorId and pass the creator as :id.
func (h *MatchHandler) ExplainHandler(c *gin.Context) {
	ctx := c.Request.Context()
	var sponsorID, creatorID string
	switch middleware.Role(c) {
	case models.RoleSponsor:
		s, err := h.Sponsors.GetByUser(ctx, middleware.UserID(c))
		if err != nil {
			fail(c, "explain match", err)
			return
		}
		sponsorID, creatorID = s.ID, c.Param("id")
	case models.RoleCreator:
		cr, err := h.Creators.GetByUser(ctx, middleware.UserID(c))
		if err != nil {
			fail(c, "explain match", err)
			return
		}
		sponsorID, creatorID = c.Param("id"), cr.ID
	default:
		sponsorID, creatorID = c.Query("sponsorId"), c.Param("id")
		if sponsorID == "" {
			fail(c, "explain match", utils.NewValidationError("sponsorId", "sponsorId is required"))
			return
		}
	}
	explanation, err := h.Matching.Explain(ctx, sponsorID, creatorID)
	if err != nil {
		fail(c, "explain match", err)
		return
	}
	c.JSON(http.StatusOK, explanation)
}

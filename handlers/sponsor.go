package handlers

import (
	"net/http"

	"sponsorly/middleware"
	"sponsorly/models"
	"sponsorly/services/sponsor"
	"sponsorly/services/tasks"
	"sponsorly/utils"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// SponsorHandler serves sponsor directory and profile endpoints.
type SponsorHandler struct {
	Service sponsor.SponsorService
	// Queue receives a match refresh after a profile change. Optional.
	Queue tasks.Enqueuer
}

func (h *SponsorHandler) ListHandler(c *gin.Context) {
	var query models.SponsorQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		badRequest(c, err)
		return
	}
	sponsors, total, err := h.Service.List(c.Request.Context(), query)
	if err != nil {
		fail(c, "list sponsors", err)
		return
	}
	c.JSON(http.StatusOK, listResponse(sponsors, total, query.Page, query.PageSize))
}

func (h *SponsorHandler) GetHandler(c *gin.Context) {
	s, err := h.Service.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		fail(c, "get sponsor", err)
		return
	}
	c.JSON(http.StatusOK, s)
}

func (h *SponsorHandler) MeHandler(c *gin.Context) {
	s, err := h.Service.GetByUser(c.Request.Context(), middleware.UserID(c))
	if err != nil {
		fail(c, "get own sponsor profile", err)
		return
	}
	c.JSON(http.StatusOK, s)
}

// UpdateMeHandler handles PATCH /api/sponsors/me. Matching inputs may have
// changed, so the sponsor's matches are recomputed in the background.
func (h *SponsorHandler) UpdateMeHandler(c *gin.Context) {
	var patch models.SponsorUpdate
	if err := c.ShouldBindJSON(&patch); err != nil {
		badRequest(c, err)
		return
	}
	s, err := h.Service.UpdateMine(c.Request.Context(), middleware.UserID(c), patch)
	if err != nil {
		fail(c, "update sponsor profile", err)
		return
	}
	if h.Queue != nil {
		task, opts, err := tasks.NewMatchRefreshTask(models.MatchRefreshPayload{SponsorID: s.ID})
		if err == nil {
			_, err = h.Queue.Enqueue(task, opts...)
		}
		if err != nil {
			utils.GetLogger().Warn("failed to queue match refresh", zap.String("sponsorID", s.ID), zap.Error(err))
		}
	}
	c.JSON(http.StatusOK, s)
}

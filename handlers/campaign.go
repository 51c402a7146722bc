package handlers

import (
	"net/http"

	"sponsorly/middleware"
	"sponsorly/models"
	"sponsorly/services/campaign"
	"sponsorly/services/reportgen"

	"github.com/gin-gonic/gin"
)

// CampaignHandler serves campaigns and their performance reports.
type CampaignHandler struct {
	Campaigns campaign.CampaignService
	Reports   reportgen.ReportService
}

func (h *CampaignHandler) ListHandler(c *gin.Context) {
	var query models.CampaignQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		badRequest(c, err)
		return
	}
	resp, err := h.Campaigns.List(c.Request.Context(), middleware.UserID(c), middleware.Role(c), query)
	if err != nil {
		fail(c, "list campaigns", err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *CampaignHandler) GetHandler(c *gin.Context) {
	view, err := h.Campaigns.Get(c.Request.Context(), middleware.UserID(c), middleware.Role(c), c.Param("id"))
	if err != nil {
		fail(c, "get campaign", err)
		return
	}
	c.JSON(http.StatusOK, view)
}

func (h *CampaignHandler) CreateHandler(c *gin.Context) {
	var req models.CampaignCreate
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	view, err := h.Campaigns.Create(c.Request.Context(), middleware.UserID(c), middleware.Role(c), req)
	if err != nil {
		fail(c, "create campaign", err)
		return
	}
	c.JSON(http.StatusCreated, view)
}

func (h *CampaignHandler) UpdateHandler(c *gin.Context) {
	var patch models.CampaignUpdate
	if err := c.ShouldBindJSON(&patch); err != nil {
		badRequest(c, err)
		return
	}
	view, err := h.Campaigns.Update(c.Request.Context(), middleware.UserID(c), middleware.Role(c), c.Param("id"), patch)
	if err != nil {
		fail(c, "update campaign", err)
		return
	}
	c.JSON(http.StatusOK, view)
}

func (h *CampaignHandler) DeleteHandler(c *gin.Context) {
	if err := h.Campaigns.Delete(c.Request.Context(), middleware.UserID(c), middleware.Role(c), c.Param("id")); err != nil {
		fail(c, "delete campaign", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Campaign deleted"})
}

// GenerateReportHandler handles POST /api/campaigns/:id/reports. The report
// renders in the background; clients poll GET /api/reports/:id.
func (h *CampaignHandler) GenerateReportHandler(c *gin.Context) {
	report, err := h.Reports.GenerateForCampaign(c.Request.Context(), middleware.UserID(c), middleware.Role(c), c.Param("id"))
	if err != nil {
		fail(c, "generate report", err)
		return
	}
	c.JSON(http.StatusAccepted, report)
}

// ListReportsHandler handles GET /api/campaigns/:id/reports.
func (h *CampaignHandler) ListReportsHandler(c *gin.Context) {
	reports, err := h.Reports.ListForCampaign(c.Request.Context(), middleware.UserID(c), middleware.Role(c), c.Param("id"))
	if err != nil {
		fail(c, "list reports", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"items": reports})
}

// GetReportHandler handles GET /api/reports/:id.
func (h *CampaignHandler) GetReportHandler(c *gin.Context) {
	report, err := h.Reports.Get(c.Request.Context(), middleware.UserID(c), middleware.Role(c), c.Param("id"))
	if err != nil {
		fail(c, "get report", err)
		return
	}
	c.JSON(http.StatusOK, report)
}

// RenderReportHandler handles GET /api/reports/:id/markdown.
func (h *CampaignHandler) RenderReportHandler(c *gin.Context) {
	doc, err := h.Reports.Render(c.Request.Context(), middleware.UserID(c), middleware.Role(c), c.Param("id"))
	if err != nil {
		fail(c, "render report", err)
		return
	}
	c.Data(http.StatusOK, "text/markdown; charset=utf-8", []byte(doc))
}

package handlers

import (
	"io"
	"net/http"

	"sponsorly/middleware"
	"sponsorly/models"
	"sponsorly/services/marketplace"
	"sponsorly/utils"

	"github.com/gin-gonic/gin"
)

const maxReportBytes = 100 << 20

// MarketplaceHandler serves the data-report marketplace page.
type MarketplaceHandler struct {
	Service marketplace.MarketplaceService
}

// ListHandler handles GET /api/marketplace/reports. The default order is
// trust score, highest first.
func (h *MarketplaceHandler) ListHandler(c *gin.Context) {
	var query models.ReportQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		badRequest(c, err)
		return
	}
	resp, err := h.Service.List(c.Request.Context(), query)
	if err != nil {
		fail(c, "list reports", err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *MarketplaceHandler) GetHandler(c *gin.Context) {
	report, err := h.Service.Get(c.Request.Context(), middleware.UserID(c), middleware.Role(c), c.Param("id"))
	if err != nil {
		fail(c, "get report", err)
		return
	}
	c.JSON(http.StatusOK, report)
}

// PublishHandler handles multipart POST /api/marketplace/reports. The file
// part is optional; the remaining fields bind to PublishReportRequest.
func (h *MarketplaceHandler) PublishHandler(c *gin.Context) {
	var req models.PublishReportRequest
	if err := c.ShouldBind(&req); err != nil {
		badRequest(c, err)
		return
	}

	var (
		file     io.Reader
		filename string
	)
	if fileHeader, err := c.FormFile("file"); err == nil {
		if fileHeader.Size > maxReportBytes {
			utils.JSONError(c, http.StatusRequestEntityTooLarge, "file is larger than 100 MB", "")
			return
		}
		f, err := fileHeader.Open()
		if err != nil {
			fail(c, "open upload", err)
			return
		}
		defer f.Close()
		file, filename = f, fileHeader.Filename
	}

	report, err := h.Service.Publish(c.Request.Context(), middleware.UserID(c), middleware.Role(c), req, file, filename)
	if err != nil {
		fail(c, "publish report", err)
		return
	}
	c.JSON(http.StatusCreated, report)
}

func (h *MarketplaceHandler) ArchiveHandler(c *gin.Context) {
	if err := h.Service.Archive(c.Request.Context(), middleware.UserID(c), middleware.Role(c), c.Param("id")); err != nil {
		fail(c, "archive report", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Report archived"})
}

// PurchaseHandler handles POST /api/marketplace/reports/:id/purchase.
func (h *MarketplaceHandler) PurchaseHandler(c *gin.Context) {
	result, err := h.Service.Purchase(c.Request.Context(), middleware.UserID(c), c.Param("id"))
	if err != nil {
		fail(c, "purchase report", err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h *MarketplaceHandler) DownloadHandler(c *gin.Context) {
	link, err := h.Service.Download(c.Request.Context(), middleware.UserID(c), middleware.Role(c), c.Param("id"))
	if err != nil {
		fail(c, "download report", err)
		return
	}
	c.JSON(http.StatusOK, link)
}

func (h *MarketplaceHandler) PurchasesHandler(c *gin.Context) {
	purchases, err := h.Service.ListPurchases(c.Request.Context(), middleware.UserID(c))
	if err != nil {
		fail(c, "list purchases", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"items": purchases})
}

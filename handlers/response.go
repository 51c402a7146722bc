package handlers

import (
	"net/http"

	"sponsorly/models"
	"sponsorly/utils"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// fail logs the failed operation and writes the mapped error response.
func fail(c *gin.Context, op string, err error) {
	status := utils.StatusFor(err)
	if status >= http.StatusInternalServerError {
		utils.GetLogger().Error(op+" failed", zap.String("path", c.Request.URL.Path), zap.Error(err))
	} else {
		utils.GetLogger().Debug(op+" rejected", zap.Int("status", status), zap.Error(err))
	}
	utils.RespondError(c, err)
}

// badRequest answers a payload that did not bind.
func badRequest(c *gin.Context, err error) {
	utils.JSONError(c, http.StatusBadRequest, "Invalid request", err.Error())
}

// pageParams reads ?page and ?pageSize.
func pageParams(c *gin.Context) models.Page {
	var q struct {
		Page     int `form:"page"`
		PageSize int `form:"pageSize"`
	}
	_ = c.ShouldBindQuery(&q)
	return models.Page{Page: q.Page, PageSize: q.PageSize}.Normalize(utils.DefaultPageSize, utils.MaxPageSize)
}

func listResponse(items any, total int64, page, pageSize int) models.ListResponse {
	p := models.Page{Page: page, PageSize: pageSize}.Normalize(utils.DefaultPageSize, utils.MaxPageSize)
	return models.ListResponse{Items: items, Total: total, Page: p.Page, PageSize: p.PageSize}
}

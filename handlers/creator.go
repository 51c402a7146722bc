package handlers

import (
	"net/http"

	"sponsorly/middleware"
	"sponsorly/models"
	"sponsorly/services/creator"
	"sponsorly/utils"

	"github.com/gin-gonic/gin"
)

// maxAssetBytes caps media-kit uploads.
const maxAssetBytes = 50 << 20

// CreatorHandler serves the discover, creator profile and media-kit pages.
type CreatorHandler struct {
	Service creator.CreatorService
}

// DiscoverHandler handles GET /api/creators.
func (h *CreatorHandler) DiscoverHandler(c *gin.Context) {
	var query models.CreatorQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		badRequest(c, err)
		return
	}
	resp, err := h.Service.Discover(c.Request.Context(), middleware.UserID(c), middleware.Role(c), query)
	if err != nil {
		fail(c, "discover creators", err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *CreatorHandler) GetProfileHandler(c *gin.Context) {
	profile, err := h.Service.GetProfile(c.Request.Context(), c.Param("id"))
	if err != nil {
		fail(c, "get creator", err)
		return
	}
	c.JSON(http.StatusOK, profile)
}

func (h *CreatorHandler) MediaKitHandler(c *gin.Context) {
	kit, err := h.Service.GetMediaKit(c.Request.Context(), c.Param("id"))
	if err != nil {
		fail(c, "get media kit", err)
		return
	}
	c.JSON(http.StatusOK, kit)
}

func (h *CreatorHandler) MeHandler(c *gin.Context) {
	profile, err := h.Service.GetByUser(c.Request.Context(), middleware.UserID(c))
	if err != nil {
		fail(c, "get own creator profile", err)
		return
	}
	c.JSON(http.StatusOK, profile)
}

func (h *CreatorHandler) UpdateMeHandler(c *gin.Context) {
	var patch models.CreatorUpdate
	if err := c.ShouldBindJSON(&patch); err != nil {
		badRequest(c, err)
		return
	}
	profile, err := h.Service.UpdateMine(c.Request.Context(), middleware.UserID(c), patch)
	if err != nil {
		fail(c, "update creator profile", err)
		return
	}
	c.JSON(http.StatusOK, profile)
}

// UploadAssetHandler handles multipart POST /api/creators/me/assets with
// fields file, kind and title.
func (h *CreatorHandler) UploadAssetHandler(c *gin.Context) {
	fileHeader, err := c.FormFile("file")
	if err != nil {
		utils.JSONError(c, http.StatusBadRequest, "file not provided", err.Error())
		return
	}
	if fileHeader.Size > maxAssetBytes {
		utils.JSONError(c, http.StatusRequestEntityTooLarge, "file is larger than 50 MB", "")
		return
	}
	file, err := fileHeader.Open()
	if err != nil {
		fail(c, "open upload", err)
		return
	}
	defer file.Close()

	asset, err := h.Service.UploadAsset(c.Request.Context(), middleware.UserID(c),
		c.PostForm("kind"), c.PostForm("title"), fileHeader.Filename, file)
	if err != nil {
		fail(c, "upload asset", err)
		return
	}
	c.JSON(http.StatusCreated, asset)
}

func (h *CreatorHandler) RemoveAssetHandler(c *gin.Context) {
	if err := h.Service.RemoveAsset(c.Request.Context(), middleware.UserID(c), c.Param("assetId")); err != nil {
		fail(c, "remove asset", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Asset removed"})
}

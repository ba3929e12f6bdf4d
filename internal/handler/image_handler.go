package handler

import (
	"fmt"
	"mime/multipart"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"surf-market/internal/imagestore"
	"surf-market/internal/middleware"
	"surf-market/internal/service"
)

type ImageHandler struct {
	Listings *service.ListingService
	Logger   *zap.Logger
}

func (h *ImageHandler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/images/:id", h.DownloadImage)

	authed := rg.Group("", middleware.RequireUser())
	authed.POST("/listings/:id/images", h.UploadImages)
	authed.DELETE("/listings/:id/images/:imageId", h.DeleteImage)
}

// POST /api/listings/:id/images, multipart field "images" (repeatable)
func (h *ImageHandler) UploadImages(c *gin.Context) {
	uploads, closeAll, ok := formUploads(c, "images")
	if !ok {
		return
	}
	defer closeAll()

	l, err := h.Listings.AddImages(c.Request.Context(), actor(c), c.Param("id"), uploads)
	if err != nil {
		respondError(c, h.Logger, err)
		return
	}
	c.JSON(http.StatusOK, l)
}

func (h *ImageHandler) DeleteImage(c *gin.Context) {
	l, err := h.Listings.RemoveImage(c.Request.Context(), actor(c), c.Param("id"), c.Param("imageId"))
	if err != nil {
		respondError(c, h.Logger, err)
		return
	}
	c.JSON(http.StatusOK, l)
}

// GET /api/images/:id
func (h *ImageHandler) DownloadImage(c *gin.Context) {
	data, contentType, err := h.Listings.Image(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, h.Logger, err)
		return
	}
	if contentType == "" {
		contentType = imagestore.ContentType
	}
	c.Header("Cache-Control", "public, max-age=31536000, immutable")
	c.Data(http.StatusOK, contentType, data)
}

// formUploads opens every file under field. On failure it has already written the response.
func formUploads(c *gin.Context, field string) ([]service.Upload, func(), bool) {
	form, err := c.MultipartForm()
	if err != nil {
		badRequest(c, "multipart form is required")
		return nil, nil, false
	}
	headers := form.File[field]
	if len(headers) == 0 {
		badRequest(c, fmt.Sprintf("%s: at least one file is required", field))
		return nil, nil, false
	}

	var opened []multipart.File
	closeAll := func() {
		for _, f := range opened {
			f.Close()
		}
	}
	uploads := make([]service.Upload, 0, len(headers))
	for _, fh := range headers {
		if fh.Size > imagestore.MaxUploadBytes {
			closeAll()
			badRequest(c, fmt.Sprintf("%s is larger than 10 MB", fh.Filename))
			return nil, nil, false
		}
		file, err := fh.Open()
		if err != nil {
			closeAll()
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "cannot open file"})
			return nil, nil, false
		}
		opened = append(opened, file)
		uploads = append(uploads, service.Upload{Filename: fh.Filename, Reader: file})
	}
	return uploads, closeAll, true
}

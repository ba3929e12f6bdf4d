package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"surf-market/internal/middleware"
	"surf-market/internal/service"
)

type ProfileHandler struct {
	Profiles *service.ProfileService
	Logger   *zap.Logger
}

func (h *ProfileHandler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/users/:id", h.PublicProfile)

	me := rg.Group("/me", middleware.RequireUser())
	me.GET("", h.GetMe)
	me.PUT("", h.UpdateMe)
	me.DELETE("", h.DeleteMe)
	me.POST("/avatar", h.UploadAvatar)
}

func (h *ProfileHandler) PublicProfile(c *gin.Context) {
	p, err := h.Profiles.Public(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, h.Logger, err)
		return
	}
	c.JSON(http.StatusOK, p)
}

func (h *ProfileHandler) GetMe(c *gin.Context) {
	u, err := h.Profiles.Get(c.Request.Context(), middleware.UserID(c))
	if err != nil {
		respondError(c, h.Logger, err)
		return
	}
	c.JSON(http.StatusOK, u)
}

func (h *ProfileHandler) UpdateMe(c *gin.Context) {
	var req service.ProfileInput
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid payload")
		return
	}
	u, err := h.Profiles.Update(c.Request.Context(), middleware.UserID(c), req)
	if err != nil {
		respondError(c, h.Logger, err)
		return
	}
	c.JSON(http.StatusOK, u)
}

// POST /api/me/avatar, multipart field "image"
func (h *ProfileHandler) UploadAvatar(c *gin.Context) {
	uploads, closeAll, ok := formUploads(c, "image")
	if !ok {
		return
	}
	defer closeAll()

	u, err := h.Profiles.SetAvatar(c.Request.Context(), middleware.UserID(c), uploads[0])
	if err != nil {
		respondError(c, h.Logger, err)
		return
	}
	c.JSON(http.StatusOK, u)
}

// DeleteMe removes the account and signs the caller out.
func (h *ProfileHandler) DeleteMe(c *gin.Context) {
	if err := h.Profiles.DeleteAccount(c.Request.Context(), middleware.UserID(c)); err != nil {
		respondError(c, h.Logger, err)
		return
	}
	if err := middleware.EndSession(c); err != nil {
		h.Logger.Warn("failed to clear session", zap.Error(err))
	}
	c.JSON(http.StatusOK, gin.H{"message": "deleted"})
}

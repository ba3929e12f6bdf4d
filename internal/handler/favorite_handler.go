package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"surf-market/internal/middleware"
	"surf-market/internal/model"
	"surf-market/internal/service"
)

type FavoriteHandler struct {
	Favorites *service.FavoriteService
	Logger    *zap.Logger
}

func (h *FavoriteHandler) RegisterRoutes(rg *gin.RouterGroup) {
	authed := rg.Group("", middleware.RequireUser())
	authed.GET("/me/favorites", h.List)
	authed.GET("/me/favorites/ids", h.IDs)
	authed.POST("/favorites/:listingId", h.Add)
	authed.DELETE("/favorites/:listingId", h.Remove)
}

func (h *FavoriteHandler) List(c *gin.Context) {
	list, err := h.Favorites.List(c.Request.Context(), middleware.UserID(c))
	if err != nil {
		respondError(c, h.Logger, err)
		return
	}
	if list == nil {
		list = []model.Listing{}
	}
	c.JSON(http.StatusOK, list)
}

// IDs lets clients render favorite toggles without loading every listing.
func (h *FavoriteHandler) IDs(c *gin.Context) {
	ids, err := h.Favorites.IDs(c.Request.Context(), middleware.UserID(c))
	if err != nil {
		respondError(c, h.Logger, err)
		return
	}
	if ids == nil {
		ids = []string{}
	}
	c.JSON(http.StatusOK, ids)
}

func (h *FavoriteHandler) Add(c *gin.Context) {
	if err := h.Favorites.Add(c.Request.Context(), middleware.UserID(c), c.Param("listingId")); err != nil {
		respondError(c, h.Logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"favorited": true})
}

func (h *FavoriteHandler) Remove(c *gin.Context) {
	if err := h.Favorites.Remove(c.Request.Context(), middleware.UserID(c), c.Param("listingId")); err != nil {
		respondError(c, h.Logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"favorited": false})
}

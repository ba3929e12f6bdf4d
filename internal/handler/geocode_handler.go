package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"surf-market/internal/service"
)

// GeocodeHandler exposes reverse geocoding so clients can label "use my location".
type GeocodeHandler struct {
	Geocoder service.Geocoder
	Logger   *zap.Logger
}

func (h *GeocodeHandler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/geocode/reverse", h.Reverse)
}

// GET /api/geocode/reverse?lat=..&lng=..
func (h *GeocodeHandler) Reverse(c *gin.Context) {
	lat, errLat := strconv.ParseFloat(c.Query("lat"), 64)
	lng, errLng := strconv.ParseFloat(c.Query("lng"), 64)
	if errLat != nil || errLng != nil {
		badRequest(c, "lat and lng are required")
		return
	}

	place, err := h.Geocoder.Reverse(c.Request.Context(), lat, lng)
	if err != nil {
		respondError(c, h.Logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"location": place.Display(),
		"city":     place.City,
		"state":    place.State,
		"country":  place.Country,
	})
}

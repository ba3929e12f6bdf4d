package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"surf-market/internal/geocode"
	"surf-market/internal/model"
)

func statusFor(err error) int {
	var apiErr *geocode.APIError
	if errors.As(err, &apiErr) || errors.Is(err, geocode.ErrUnavailable) {
		return http.StatusBadGateway
	}
	switch {
	case errors.Is(err, model.ErrListingNotFound),
		errors.Is(err, model.ErrUserNotFound),
		errors.Is(err, model.ErrImageNotFound),
		errors.Is(err, geocode.ErrNoResult):
		return http.StatusNotFound
	case errors.Is(err, model.ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, model.ErrInvalidCredentials):
		return http.StatusUnauthorized
	case errors.Is(err, model.ErrEmailTaken):
		return http.StatusConflict
	case errors.Is(err, model.ErrInvalidListing),
		errors.Is(err, model.ErrInvalidProfile),
		errors.Is(err, model.ErrInvalidMessage),
		errors.Is(err, model.ErrTooManyImages),
		errors.Is(err, model.ErrUnsupportedImage),
		errors.Is(err, geocode.ErrInvalidCoordinates):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// respondError maps domain errors to a status and a JSON body. Unknown errors are logged and hidden.
func respondError(c *gin.Context, logger *zap.Logger, err error) {
	status := statusFor(err)
	msg := err.Error()

	var ve *model.ValidationError
	switch {
	case status == http.StatusInternalServerError:
		logger.Error("request failed",
			zap.String("method", c.Request.Method),
			zap.String("path", c.FullPath()),
			zap.Error(err))
		msg = "internal server error"
	case errors.As(err, &ve):
		msg = ve.Error()
	case errors.Is(err, geocode.ErrNoResult):
		msg = geocode.ErrNoResult.Error()
	case status == http.StatusBadGateway:
		logger.Warn("upstream failed", zap.Error(err))
		msg = "geocoding service unavailable"
	}
	_ = c.Error(err)
	c.AbortWithStatusJSON(status, gin.H{"error": msg})
}

func badRequest(c *gin.Context, msg string) {
	c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": msg})
}

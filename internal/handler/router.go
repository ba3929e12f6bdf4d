package handler

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"surf-market/internal/middleware"
)

// Registrar is implemented by every handler in this package.
type Registrar interface {
	RegisterRoutes(rg *gin.RouterGroup)
}

type RouterConfig struct {
	Logger        *zap.Logger
	SessionSecret string
	JWTSecret     string
	SecureCookies bool
}

// NewRouter builds the engine with sessions and authentication applied to all of /api.
func NewRouter(cfg RouterConfig, handlers ...Registrar) *gin.Engine {
	r := gin.New()
	r.MaxMultipartMemory = 32 << 20
	r.Use(gin.Recovery(), middleware.RequestLogger(cfg.Logger))

	api := r.Group("/api")
	api.Use(
		middleware.Sessions(cfg.SessionSecret, cfg.SecureCookies),
		middleware.Authenticate(cfg.JWTSecret),
	)
	for _, h := range handlers {
		h.RegisterRoutes(api)
	}
	return r
}

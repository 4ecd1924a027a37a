// Package api exposes the read API over HTTP using gin.
package api

import (
	"github.com/gin-gonic/gin"

	"github.com/jonesrussell/notion-cache/internal/logger"
	"github.com/jonesrussell/notion-cache/internal/metrics"
	"github.com/jonesrussell/notion-cache/internal/service"
)

const serviceName = "notion-cache"

// EnvStatus reports which external configuration is present, without
// exposing any secret values.
type EnvStatus struct {
	HasNotionToken    bool   `json:"hasNotionToken"`
	HasNotionDatabase bool   `json:"hasNotionDatabaseId"`
	Serverless        bool   `json:"serverless"`
	CacheMode         string `json:"cacheMode"`
}

// Config holds router construction options.
type Config struct {
	Version     string
	Debug       bool
	CORSOrigins []string
	EnvStatus   EnvStatus
}

// Router wires HTTP routes to the reconciliation service.
type Router struct {
	handlers *Handlers
	metrics  *metrics.Metrics
	cfg      Config
}

// NewRouter creates a new API router.
func NewRouter(svc *service.Service, m *metrics.Metrics, log logger.Logger, cfg Config) *Router {
	return &Router{
		handlers: NewHandlers(svc, log, cfg.Version, cfg.EnvStatus),
		metrics:  m,
		cfg:      cfg,
	}
}

// Engine builds the gin engine with all middleware and routes attached.
func (r *Router) Engine() *gin.Engine {
	if !r.cfg.Debug {
		gin.SetMode(gin.ReleaseMode)
	}

	engine := gin.New()
	engine.Use(gin.Recovery())
	engine.Use(requestIDMiddleware())
	engine.Use(r.metrics.Middleware())
	engine.Use(corsMiddleware(r.cfg.CORSOrigins))

	engine.GET("/health", r.handlers.Health)
	engine.GET("/metrics", gin.WrapH(r.metrics.Handler()))

	apiGroup := engine.Group("/api")
	{
		apiGroup.GET("/env-status", r.handlers.EnvStatus)
		apiGroup.GET("/posts", r.handlers.GetPosts)
		apiGroup.GET("/posts/:slug", r.handlers.GetPost)
		apiGroup.GET("/cache", r.handlers.GetCacheStatus)
		apiGroup.POST("/cache", r.handlers.RefreshCache)
		apiGroup.DELETE("/cache", r.handlers.ClearCache)
	}

	return engine
}

package api

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/jonesrussell/notion-cache/internal/logger"
	"github.com/jonesrussell/notion-cache/internal/models"
	"github.com/jonesrussell/notion-cache/internal/service"
)

// edgeCacheControl is sent on read endpoints in serverless deployments so
// the CDN absorbs repeat traffic the process-local cache cannot.
const edgeCacheControl = "s-maxage=300, stale-while-revalidate=600"

// Handlers provides HTTP handlers for the read API.
type Handlers struct {
	svc       *service.Service
	logger    logger.Logger
	version   string
	envStatus EnvStatus
}

// NewHandlers creates a new handlers instance.
func NewHandlers(svc *service.Service, log logger.Logger, version string, envStatus EnvStatus) *Handlers {
	return &Handlers{
		svc:       svc,
		logger:    log,
		version:   version,
		envStatus: envStatus,
	}
}

// cacheInfo summarizes cache state alongside a read response.
type cacheInfo struct {
	LastUpdated time.Time `json:"lastUpdated"`
	PostsCount  int       `json:"postsCount,omitempty"`
}

// postResponse is a single post flattened with cache annotations.
type postResponse struct {
	models.BlogPost
	Cached    bool      `json:"cached"`
	CacheInfo cacheInfo `json:"cacheInfo"`
	Error     string    `json:"error,omitempty"`
}

// GetPosts handles GET /api/posts.
func (h *Handlers) GetPosts(c *gin.Context) {
	h.setEdgeCacheHeader(c)

	posts, cached, err := h.svc.GetAllPosts(c.Request.Context())
	if err != nil && len(posts) == 0 {
		h.logger.Error("failed to fetch posts",
			logger.Error(err),
			logger.String("path", c.Request.URL.Path),
		)
		c.JSON(http.StatusInternalServerError, gin.H{
			"posts":  []models.BlogPost{},
			"total":  0,
			"cached": false,
			"error":  "Failed to fetch posts",
		})
		return
	}

	if posts == nil {
		posts = []models.BlogPost{}
	}

	status, _ := h.svc.CacheStatus()
	resp := gin.H{
		"posts":  posts,
		"total":  len(posts),
		"cached": cached,
		"cacheInfo": cacheInfo{
			LastUpdated: status.LastUpdated,
			PostsCount:  status.PostCount,
		},
	}
	if err != nil {
		// Degraded: stale cache served because the source is unreachable.
		resp["error"] = err.Error()
	}
	c.JSON(http.StatusOK, resp)
}

// GetPost handles GET /api/posts/:slug.
func (h *Handlers) GetPost(c *gin.Context) {
	h.setEdgeCacheHeader(c)
	slug := c.Param("slug")

	post, cached, err := h.svc.GetPostBySlug(c.Request.Context(), slug)
	if err != nil && !cached {
		if errors.Is(err, models.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Post not found"})
			return
		}
		h.logger.Error("failed to fetch post",
			logger.Error(err),
			logger.String("slug", slug),
		)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch post"})
		return
	}

	status, _ := h.svc.CacheStatus()
	resp := postResponse{
		BlogPost:  post,
		Cached:    cached,
		CacheInfo: cacheInfo{LastUpdated: status.LastUpdated},
	}
	if err != nil {
		resp.Error = err.Error()
	}
	c.JSON(http.StatusOK, resp)
}

// GetCacheStatus handles GET /api/cache. Pure inspection, no side effects.
func (h *Handlers) GetCacheStatus(c *gin.Context) {
	status, snap := h.svc.CacheStatus()
	c.JSON(http.StatusOK, gin.H{
		"status": "success",
		"cache": gin.H{
			"hasData":     status.HasData,
			"lastUpdated": status.LastUpdated,
			"postCount":   status.PostCount,
			"backingMode": status.BackingMode,
			"metadata":    snap,
		},
	})
}

// RefreshCache handles POST /api/cache: full synchronous re-fetch.
func (h *Handlers) RefreshCache(c *gin.Context) {
	count, err := h.svc.RefreshCache(c.Request.Context())
	if err != nil {
		h.logger.Error("cache refresh failed", logger.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{
			"status":  "error",
			"message": "Failed to refresh cache",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status":     "success",
		"message":    "Cache refreshed",
		"postsCount": count,
		"timestamp":  time.Now().UTC().Format(time.RFC3339),
	})
}

// ClearCache handles DELETE /api/cache.
func (h *Handlers) ClearCache(c *gin.Context) {
	h.svc.InvalidateCache()
	c.JSON(http.StatusOK, gin.H{
		"status":    "success",
		"message":   "Cache cleared",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

// Health handles GET /health.
func (h *Handlers) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "ok",
		"service": serviceName,
		"version": h.version,
	})
}

// EnvStatus handles GET /api/env-status, a deploy-time diagnostic for
// checking which configuration reached the process.
func (h *Handlers) EnvStatus(c *gin.Context) {
	c.JSON(http.StatusOK, h.envStatus)
}

func (h *Handlers) setEdgeCacheHeader(c *gin.Context) {
	if h.svc.Serverless() {
		c.Header("Cache-Control", edgeCacheControl)
	}
}

// Cache management HTTP handlers.
//
// This file exposes the cache administration endpoints:
//   - GET    /cache/status  (item count, byte usage, readiness)
//   - DELETE /cache         (drop every entry and progress record)
//
// It also holds the Handlers wiring shared by all endpoint files.
package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/go-review-insights/internal/domain"
	"github.com/tbourn/go-review-insights/internal/http/middleware"
)

// CacheAdmin defines the cache operations consumed by HTTP handlers.
type CacheAdmin interface {
	// Status recomputes cache health from the backing store.
	Status(ctx context.Context) domain.CacheStatus
	// ClearAll empties the result and progress stores.
	ClearAll(ctx context.Context)
}

// Handlers groups the HTTP endpoints for analysis and cache management.
// It depends on abstract service interfaces to keep transport concerns
// separate from business logic.
type Handlers struct {
	analysisSvc AnalysisService
	source      ReviewSource
	cacheSvc    CacheAdmin

	// maxReviews is the default scrape cap when the request does not set one.
	maxReviews int
}

// New constructs a Handlers instance bound to the given services.
func New(analysisSvc AnalysisService, source ReviewSource, cacheSvc CacheAdmin, maxReviews int) *Handlers {
	if maxReviews <= 0 {
		maxReviews = 1500
	}
	return &Handlers{
		analysisSvc: analysisSvc,
		source:      source,
		cacheSvc:    cacheSvc,
		maxReviews:  maxReviews,
	}
}

// CacheStatus godoc
// @ID          cacheStatus
// @Summary     Get cache status
// @Description Returns item count, total stored bytes, usage percentage against the configured capacity, and backing store readiness.
// @Tags        Cache
// @Produce     json
//
// @Success     200  {object}  domain.CacheStatus
// @Router      /cache/status [get]
func (h *Handlers) CacheStatus(c *gin.Context) {
	ok(c, http.StatusOK, h.cacheSvc.Status(c.Request.Context()))
}

// ClearCache godoc
// @ID          clearCache
// @Summary     Clear the analysis cache
// @Description Removes every cached analysis result and progress record, and resets the size counter.
// @Tags        Cache
// @Produce     json
//
// @Success     204  {string}  string  "No Content"
// @Router      /cache [delete]
func (h *Handlers) ClearCache(c *gin.Context) {
	h.cacheSvc.ClearAll(c.Request.Context())
	middleware.LoggerFrom(c).Info().Msg("cache cleared via api")
	noContent(c)
}

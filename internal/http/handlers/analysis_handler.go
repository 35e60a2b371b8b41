// Analysis HTTP handlers.
//
// This file exposes the review analysis endpoints:
//   - POST   /apps/{id}/analysis           (scrape unless reviews supplied, analyze, return result + tabs)
//   - GET    /apps/{id}/analysis           (cached result only)
//   - GET    /apps/{id}/analysis/progress  (live or persisted progress)
//   - DELETE /apps/{id}/analysis           (cancel the active run)
//
// Handlers are transport-thin: they validate input, call application
// services, and translate results into HTTP responses.
package handlers

import (
	"context"
	"errors"
	"net/http"
	"regexp"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/go-review-insights/internal/analysis"
	"github.com/tbourn/go-review-insights/internal/cache"
	"github.com/tbourn/go-review-insights/internal/domain"
	"github.com/tbourn/go-review-insights/internal/http/middleware"
	"github.com/tbourn/go-review-insights/internal/scraper"
	"github.com/tbourn/go-review-insights/internal/transform"
	"github.com/tbourn/go-review-insights/internal/utils"
)

//
// Service contracts (context-aware)
//

// AnalysisService defines the orchestrator operations consumed by HTTP
// handlers. Implementations must be safe for concurrent use and honor the
// provided context for cancellation.
type AnalysisService interface {
	// Analyze runs the full pipeline for appID over reviews.
	Analyze(ctx context.Context, appID string, reviews []domain.ReviewRecord) (*domain.CombinedAnalysisResult, error)
	// Cached returns the cached result for appID, or nil on a miss.
	Cached(ctx context.Context, appID string) *domain.CombinedAnalysisResult
	// Progress returns the live per-analyzer progress map.
	Progress() map[string]domain.AnalysisProgress
	// Cancel aborts the in-flight run, reporting whether one existed.
	Cancel(ctx context.Context) bool
	// RestoreProgress returns the latest persisted snapshot for appID.
	RestoreProgress(ctx context.Context, appID string) *cache.ProgressSnapshot
}

// ReviewSource supplies reviews and app metadata, normally the scraper proxy
// client.
type ReviewSource interface {
	FetchReviews(ctx context.Context, appID string, maxReviews int) ([]domain.ReviewRecord, scraper.Stats, error)
	FetchAppInfo(ctx context.Context, appID string) (*domain.AppInfo, error)
}

// appIDPattern matches store package names such as "com.example.app".
var appIDPattern = regexp.MustCompile(`^[a-zA-Z0-9][a-zA-Z0-9._-]{1,199}$`)

// maxReviewsCap bounds the max_reviews query parameter.
const maxReviewsCap = 5000

//
// DTOs
//

// AnalyzeRequest is the JSON payload for starting an analysis. All fields
// are optional: with no body the handler scrapes reviews itself.
type AnalyzeRequest struct {
	// Reviews, when supplied, are analyzed as-is and no scraping happens.
	Reviews []domain.ReviewRecord `json:"reviews,omitempty"`
	// MaxReviews caps scraping; 0 uses the server default.
	MaxReviews int `json:"max_reviews,omitempty" example:"500"`
}

// TabData bundles the three view models consumed by the dashboard tabs.
type TabData struct {
	Overview transform.OverviewTabData `json:"overview"`
	Reviews  transform.ReviewsTabData  `json:"reviews"`
	Topics   transform.TopicsTabData   `json:"topics"`
}

// AnalyzeResponse is the combined result plus presentation data.
type AnalyzeResponse struct {
	AppID  string                         `json:"app_id"`
	Result *domain.CombinedAnalysisResult `json:"result"`
	Tabs   TabData                        `json:"tabs"`
	Scrape *scraper.Stats                 `json:"scrape,omitempty"`
}

// ProgressResponse is the progress map for an analysis, either live or
// restored from the progress store.
type ProgressResponse struct {
	AppID    string                             `json:"app_id"`
	Restored bool                               `json:"restored"`
	Progress map[string]domain.AnalysisProgress `json:"progress"`
}

// appID validates the :id path parameter, failing the request on bad input.
func appID(c *gin.Context) (string, bool) {
	id := c.Param("id")
	if !appIDPattern.MatchString(id) {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "invalid app id")
		return "", false
	}
	return id, true
}

//
// Handlers
//

// AnalyzeApp godoc
// @ID          analyzeApp
// @Summary     Analyze an app's reviews
// @Description Scrapes reviews for the app (unless supplied in the body), runs the analyzers, and returns the combined result with the three dashboard tab view models. Served from cache when a valid entry exists.
// @Tags        Analysis
// @Accept      json
// @Produce     json
//
// @Param       id    path  string  true  "App package id"  example(com.example.app)
// @Param       body  body  handlers.AnalyzeRequest  false  "Optional inline reviews"
//
// @Success     200  {object}  handlers.AnalyzeResponse
// @Failure     400  {object}  handlers.ErrorResponse  "Bad request / no valid reviews"
// @Failure     502  {object}  handlers.ErrorResponse  "Scrape failed"
// @Failure     500  {object}  handlers.ErrorResponse  "Analysis failed"
// @Router      /apps/{id}/analysis [post]
func (h *Handlers) AnalyzeApp(c *gin.Context) {
	id, valid := appID(c)
	if !valid {
		return
	}
	ctx := c.Request.Context()
	lg := middleware.LoggerFrom(c)

	var req AnalyzeRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			fail(c, http.StatusBadRequest, ErrCodeBadRequest, "invalid JSON body")
			return
		}
	}

	reviews := req.Reviews
	var scrapeStats *scraper.Stats
	if len(reviews) == 0 {
		// Body takes precedence over the query parameter.
		maxReviews := req.MaxReviews
		if maxReviews <= 0 {
			maxReviews = limitQuery(c, "max_reviews", h.maxReviews, maxReviewsCap)
		}
		fetched, stats, err := h.source.FetchReviews(ctx, id, maxReviews)
		if err != nil {
			lg.Warn().Err(err).Str("app_id", id).Msg("scrape failed")
			fail(c, http.StatusBadGateway, ErrCodeScrapeFailed, "failed to fetch reviews")
			return
		}
		reviews = fetched
		scrapeStats = &stats
	}

	result, err := h.analysisSvc.Analyze(ctx, id, reviews)
	if err != nil {
		if errors.Is(err, analysis.ErrNoValidReviews) {
			fail(c, http.StatusBadRequest, ErrCodeNoValidReviews, err.Error())
			return
		}
		fail(c, http.StatusInternalServerError, ErrCodeAnalysisFailed, err.Error())
		return
	}

	// App metadata is decoration; a lookup failure must not fail the request.
	var info *domain.AppInfo
	if got, err := h.source.FetchAppInfo(ctx, id); err == nil {
		info = got
	} else {
		lg.Debug().Err(err).Str("app_id", id).Msg("app info lookup failed")
	}

	ok(c, http.StatusOK, AnalyzeResponse{
		AppID:  id,
		Result: result,
		Tabs:   buildTabs(result, reviews, info),
		Scrape: scrapeStats,
	})
}

// GetAnalysis godoc
// @ID          getAnalysis
// @Summary     Get the cached analysis
// @Description Returns the cached combined result and tab view models for the app, without scraping or re-analyzing. 404 when no valid cache entry exists.
// @Tags        Analysis
// @Produce     json
//
// @Param       id  path  string  true  "App package id"  example(com.example.app)
//
// @Success     200  {object}  handlers.AnalyzeResponse
// @Failure     404  {object}  handlers.ErrorResponse  "No cached analysis"
// @Router      /apps/{id}/analysis [get]
func (h *Handlers) GetAnalysis(c *gin.Context) {
	id, valid := appID(c)
	if !valid {
		return
	}
	result := h.analysisSvc.Cached(c.Request.Context(), id)
	if result == nil {
		fail(c, http.StatusNotFound, ErrCodeNotFound, "no cached analysis for this app")
		return
	}
	ok(c, http.StatusOK, AnalyzeResponse{
		AppID:  id,
		Result: result,
		Tabs:   buildTabs(result, nil, nil),
	})
}

// GetProgress godoc
// @ID          getProgress
// @Summary     Get analysis progress
// @Description Returns the live per-analyzer progress map. When no run is active, falls back to the most recent persisted snapshot so a reconnecting client can restore its display.
// @Tags        Analysis
// @Produce     json
//
// @Param       id  path  string  true  "App package id"  example(com.example.app)
//
// @Success     200  {object}  handlers.ProgressResponse
// @Router      /apps/{id}/analysis/progress [get]
func (h *Handlers) GetProgress(c *gin.Context) {
	id, valid := appID(c)
	if !valid {
		return
	}

	progress := h.analysisSvc.Progress()
	for _, p := range progress {
		if p.Stage != domain.StageIdle {
			ok(c, http.StatusOK, ProgressResponse{AppID: id, Progress: progress})
			return
		}
	}

	// Idle everywhere: offer the persisted snapshot, if any.
	if snap := h.analysisSvc.RestoreProgress(c.Request.Context(), id); snap != nil {
		ok(c, http.StatusOK, ProgressResponse{AppID: id, Restored: true, Progress: snap.Progress})
		return
	}
	ok(c, http.StatusOK, ProgressResponse{AppID: id, Progress: progress})
}

// CancelAnalysis godoc
// @ID          cancelAnalysis
// @Summary     Cancel the running analysis
// @Description Aborts the in-flight analysis run, discards its eventual result, and clears its progress record.
// @Tags        Analysis
// @Produce     json
//
// @Param       id  path  string  true  "App package id"  example(com.example.app)
//
// @Success     204  {string}  string  "No Content"
// @Failure     404  {object}  handlers.ErrorResponse  "No active analysis"
// @Router      /apps/{id}/analysis [delete]
func (h *Handlers) CancelAnalysis(c *gin.Context) {
	if _, valid := appID(c); !valid {
		return
	}
	if !h.analysisSvc.Cancel(c.Request.Context()) {
		fail(c, http.StatusNotFound, ErrCodeNoActiveRun, "no analysis in flight")
		return
	}
	noContent(c)
}

// buildTabs assembles the three view models from one result.
func buildTabs(result *domain.CombinedAnalysisResult, reviews []domain.ReviewRecord, info *domain.AppInfo) TabData {
	return TabData{
		Overview: transform.Overview(result, reviews, info),
		Reviews:  transform.Reviews(result, reviews),
		Topics:   transform.Topics(result),
	}
}

// limitQuery parses a bounded positive integer query parameter.
func limitQuery(c *gin.Context, name string, def, max int) int {
	v := utils.AtoiDefault(c.Query(name), def)
	if v < 1 {
		v = def
	}
	if v > max {
		v = max
	}
	return v
}

// Package scraper implements the HTTP client for the Play-Store proxy API
// that supplies review data. The proxy paginates with opaque tokens; the
// client walks pages until it has enough reviews, the token runs out, or
// the proxy returns empty batches repeatedly. Transient failures (network
// errors, 5xx, 429) are retried with exponential backoff, and all requests
// pass through a client-side rate limiter so a burst of dashboard users
// cannot hammer the proxy.
package scraper

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"github.com/tbourn/go-review-insights/internal/domain"
)

// emptyBatchLimit stops pagination after this many consecutive batches
// with no reviews; some proxies keep returning tokens past the end.
const emptyBatchLimit = 3

// ErrRetriesExhausted wraps the last failure after every retry attempt.
var ErrRetriesExhausted = errors.New("scraper: retries exhausted")

// Config tunes the client.
type Config struct {
	// BaseURL is the proxy root, e.g. "https://proxy.internal:8900".
	BaseURL string
	// BatchSize is the page size requested from the proxy.
	BatchSize int
	// MaxRetries is the number of attempts per request beyond the first.
	MaxRetries int
	// Backoff is the base delay; attempt n waits Backoff * 2^(n-1).
	Backoff time.Duration
	// Timeout bounds a single HTTP request.
	Timeout time.Duration
	// RPS and Burst configure the client-side rate limiter.
	RPS   float64
	Burst int
}

// DefaultConfig returns conservative client settings.
func DefaultConfig() Config {
	return Config{
		BatchSize:  150,
		MaxRetries: 3,
		Backoff:    500 * time.Millisecond,
		Timeout:    15 * time.Second,
		RPS:        5,
		Burst:      5,
	}
}

// Stats summarizes one scrape run.
type Stats struct {
	Reviews   int   `json:"reviews"`
	Batches   int   `json:"batches"`
	Retries   int   `json:"retries"`
	ElapsedMs int64 `json:"elapsed_ms"`
}

// Client fetches app metadata and reviews from the proxy. Safe for
// concurrent use.
type Client struct {
	cfg     Config
	http    *http.Client
	limiter *rate.Limiter
	log     zerolog.Logger
}

// New constructs a Client. Zero config fields fall back to DefaultConfig.
func New(cfg Config, log zerolog.Logger) *Client {
	def := DefaultConfig()
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = def.BatchSize
	}
	if cfg.MaxRetries < 0 {
		cfg.MaxRetries = def.MaxRetries
	}
	if cfg.Backoff <= 0 {
		cfg.Backoff = def.Backoff
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = def.Timeout
	}
	if cfg.RPS <= 0 {
		cfg.RPS = def.RPS
	}
	if cfg.Burst <= 0 {
		cfg.Burst = def.Burst
	}
	return &Client{
		cfg:     cfg,
		http:    &http.Client{Timeout: cfg.Timeout},
		limiter: rate.NewLimiter(rate.Limit(cfg.RPS), cfg.Burst),
		log:     log.With().Str("component", "scraper").Logger(),
	}
}

// wire types for the proxy API.

type wireReview struct {
	ID      string  `json:"id"`
	Text    string  `json:"text"`
	Score   float64 `json:"score"`
	Date    string  `json:"date"` // RFC 3339
	Author  string  `json:"userName"`
	Device  string  `json:"device"`
	Version string  `json:"reviewCreatedVersion"`
	Thumbs  int     `json:"thumbsUp"`
}

type reviewsPage struct {
	Reviews   []wireReview `json:"reviews"`
	NextToken string       `json:"nextToken"`
}

// FetchAppInfo returns the store listing metadata for appID.
func (c *Client) FetchAppInfo(ctx context.Context, appID string) (*domain.AppInfo, error) {
	u := fmt.Sprintf("%s/api/apps/%s", c.cfg.BaseURL, url.PathEscape(appID))
	body, err := c.getWithRetry(ctx, u)
	if err != nil {
		return nil, err
	}
	var info domain.AppInfo
	if err := json.Unmarshal(body, &info); err != nil {
		return nil, fmt.Errorf("scraper: decode app info: %w", err)
	}
	if info.AppID == "" {
		info.AppID = appID
	}
	return &info, nil
}

// FetchReviews pages through the proxy until maxReviews are collected, the
// pagination token runs out, or emptyBatchLimit consecutive batches come
// back empty. maxReviews <= 0 means no cap.
func (c *Client) FetchReviews(ctx context.Context, appID string, maxReviews int) ([]domain.ReviewRecord, Stats, error) {
	start := time.Now()
	var (
		out       []domain.ReviewRecord
		stats     Stats
		token     string
		emptyRuns int
	)

	for {
		u := c.reviewsURL(appID, token)
		body, err := c.getWithRetryCounting(ctx, u, &stats.Retries)
		if err != nil {
			stats.ElapsedMs = time.Since(start).Milliseconds()
			return nil, stats, err
		}

		var page reviewsPage
		if err := json.Unmarshal(body, &page); err != nil {
			stats.ElapsedMs = time.Since(start).Milliseconds()
			return nil, stats, fmt.Errorf("scraper: decode reviews page: %w", err)
		}
		stats.Batches++

		if len(page.Reviews) == 0 {
			emptyRuns++
			if emptyRuns >= emptyBatchLimit {
				c.log.Debug().Str("app_id", appID).Msg("stopping after repeated empty batches")
				break
			}
		} else {
			emptyRuns = 0
			for i := range page.Reviews {
				out = append(out, toRecord(&page.Reviews[i]))
				if maxReviews > 0 && len(out) >= maxReviews {
					out = out[:maxReviews]
					stats.Reviews = len(out)
					stats.ElapsedMs = time.Since(start).Milliseconds()
					return out, stats, nil
				}
			}
		}

		if page.NextToken == "" {
			break
		}
		token = page.NextToken
	}

	stats.Reviews = len(out)
	stats.ElapsedMs = time.Since(start).Milliseconds()
	c.log.Info().
		Str("app_id", appID).
		Int("reviews", stats.Reviews).
		Int("batches", stats.Batches).
		Int("retries", stats.Retries).
		Msg("scrape finished")
	return out, stats, nil
}

func (c *Client) reviewsURL(appID, token string) string {
	q := url.Values{"num": {strconv.Itoa(c.cfg.BatchSize)}}
	if token != "" {
		q.Set("token", token)
	}
	return fmt.Sprintf("%s/api/apps/%s/reviews?%s", c.cfg.BaseURL, url.PathEscape(appID), q.Encode())
}

func (c *Client) getWithRetry(ctx context.Context, u string) ([]byte, error) {
	var retries int
	return c.getWithRetryCounting(ctx, u, &retries)
}

// getWithRetryCounting performs a rate-limited GET, retrying transient
// failures up to MaxRetries times with exponential backoff. Non-retriable
// statuses (4xx other than 429) fail immediately.
func (c *Client) getWithRetryCounting(ctx context.Context, u string, retries *int) ([]byte, error) {
	var lastErr error
	for attempt := 0; attempt <= c.cfg.MaxRetries; attempt++ {
		if attempt > 0 {
			*retries++
			delay := c.cfg.Backoff * (1 << (attempt - 1))
			c.log.Debug().Int("attempt", attempt).Dur("delay", delay).Str("url", u).Msg("retrying")
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(delay):
			}
		}
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, err
		}

		body, retriable, err := c.getOnce(ctx, u)
		if err == nil {
			return body, nil
		}
		lastErr = err
		if !retriable {
			return nil, err
		}
	}
	return nil, fmt.Errorf("%w after %d attempts: %v", ErrRetriesExhausted, c.cfg.MaxRetries+1, lastErr)
}

func (c *Client) getOnce(ctx context.Context, u string) (body []byte, retriable bool, err error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, false, err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, true, err
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusOK:
		b, err := io.ReadAll(resp.Body)
		if err != nil {
			return nil, true, err
		}
		return b, false, nil
	case resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500:
		return nil, true, fmt.Errorf("scraper: proxy returned %d", resp.StatusCode)
	default:
		return nil, false, fmt.Errorf("scraper: proxy returned %d", resp.StatusCode)
	}
}

func toRecord(w *wireReview) domain.ReviewRecord {
	rec := domain.ReviewRecord{
		ID:         w.ID,
		Text:       w.Text,
		Score:      w.Score,
		Author:     w.Author,
		Device:     w.Device,
		Version:    w.Version,
		LikesCount: w.Thumbs,
	}
	if t, err := time.Parse(time.RFC3339, w.Date); err == nil {
		rec.Date = t
	}
	return rec
}

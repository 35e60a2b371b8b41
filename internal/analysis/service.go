package analysis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"hash/fnv"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/tbourn/go-review-insights/internal/cache"
	"github.com/tbourn/go-review-insights/internal/domain"
)

// defaultBatchSize is the number of reviews an analyzer processes between
// progress updates and ctx checks when the caller does not configure one.
const defaultBatchSize = 50

// ErrNoValidReviews is returned when every supplied review fails validation
// and there is nothing to analyze.
var ErrNoValidReviews = errors.New("no valid reviews to analyze")

// Config controls a run. Two runs with equal Config values produce the same
// Hash and therefore share cache entries.
type Config struct {
	// Version invalidates cached results when analyzer behavior changes.
	Version string `json:"version"`
	// BatchSize is the per-analyzer batch length; 0 means defaultBatchSize.
	BatchSize int `json:"batch_size"`
	// MaxTopics caps the topic analyzer's summary lists; 0 means 10.
	MaxTopics int `json:"max_topics"`
}

// Hash returns a stable hex digest of the config. Identical configs always
// hash identically: the JSON encoding of a struct has deterministic field
// order, and FNV-1a is seedless.
func (c Config) Hash() string {
	b, _ := json.Marshal(c)
	h := fnv.New64a()
	h.Write(b)
	return fmt.Sprintf("%016x", h.Sum64())
}

// ResultCache is the slice of the analysis cache the orchestrator needs.
// *cache.Cache satisfies it.
type ResultCache interface {
	Get(ctx context.Context, appID, configHash string) *domain.CombinedAnalysisResult
	Set(ctx context.Context, appID string, result *domain.CombinedAnalysisResult, configHash string) (string, error)
	SaveProgress(ctx context.Context, id, appID string, progress map[string]domain.AnalysisProgress, config any) error
	ClearProgress(ctx context.Context, id string)
	LatestProgress(ctx context.Context, appID string) *cache.ProgressSnapshot
}

// patternRunner, sentimentRunner, and topicRunner are the orchestrator's
// views of the three analyzers; tests substitute fakes.
type patternRunner interface {
	Analyze(ctx context.Context, reviews []domain.ReviewRecord, batchSize int) (domain.PatternResult, error)
	Progress() domain.AnalysisProgress
	Reset()
}

type sentimentRunner interface {
	Analyze(ctx context.Context, reviews []domain.ReviewRecord, batchSize int) (domain.SentimentResult, error)
	Progress() domain.AnalysisProgress
	Reset()
}

type topicRunner interface {
	Analyze(ctx context.Context, reviews []domain.ReviewRecord, batchSize int) (domain.TopicResult, error)
	Progress() domain.AnalysisProgress
	Reset()
}

// Service orchestrates the three analyzers over one review set at a time:
// validate input, consult the cache, fan out, persist progress, merge, and
// store the combined result. Safe for concurrent use; concurrent Analyze
// calls for the same subject are serialized by the cache layer, and a
// Cancel between a run's start and its finish prevents the stale result
// from being cached.
type Service struct {
	cfg   Config
	cache ResultCache
	log   zerolog.Logger

	patterns  patternRunner
	sentiment sentimentRunner
	topics    topicRunner

	mu       sync.Mutex
	activeID string
	cancelFn context.CancelFunc
}

// NewService wires a Service with freshly constructed analyzers.
func NewService(c ResultCache, cfg Config, log zerolog.Logger) *Service {
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = defaultBatchSize
	}
	return &Service{
		cfg:       cfg,
		cache:     c,
		log:       log.With().Str("component", "analysis").Logger(),
		patterns:  NewPatternAnalyzer(),
		sentiment: NewSentimentAnalyzer(),
		topics:    NewTopicAnalyzer(cfg.MaxTopics),
	}
}

// Analyze runs the full pipeline for appID over reviews. Invalid reviews
// (empty text or non-positive score) are dropped up front; if none survive,
// ErrNoValidReviews is returned. A valid cached result for the same config
// short-circuits the run. Any analyzer failure aborts the whole run.
func (s *Service) Analyze(ctx context.Context, appID string, reviews []domain.ReviewRecord) (*domain.CombinedAnalysisResult, error) {
	valid := make([]domain.ReviewRecord, 0, len(reviews))
	for _, r := range reviews {
		if r.Valid() {
			valid = append(valid, r)
		}
	}
	if len(valid) == 0 {
		return nil, ErrNoValidReviews
	}
	if dropped := len(reviews) - len(valid); dropped > 0 {
		s.log.Debug().Str("app_id", appID).Int("dropped", dropped).Msg("invalid reviews filtered")
	}

	hash := s.cfg.Hash()
	if cached := s.cache.Get(ctx, appID, hash); cached != nil {
		s.log.Info().Str("app_id", appID).Msg("analysis served from cache")
		return cached, nil
	}

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	analysisID := uuid.NewString()
	s.mu.Lock()
	s.activeID = analysisID
	s.cancelFn = cancel
	s.mu.Unlock()

	start := time.Now()
	s.log.Info().
		Str("app_id", appID).
		Str("analysis_id", analysisID).
		Int("reviews", len(valid)).
		Msg("analysis started")

	var result domain.CombinedAnalysisResult
	g, gctx := errgroup.WithContext(runCtx)
	g.Go(func() error {
		out, err := s.patterns.Analyze(gctx, valid, s.cfg.BatchSize)
		if err != nil {
			return fmt.Errorf("%s: %w", domain.AnalyzerPatterns, err)
		}
		result.Patterns = out
		s.persistProgress(ctx, analysisID, appID)
		return nil
	})
	g.Go(func() error {
		out, err := s.sentiment.Analyze(gctx, valid, s.cfg.BatchSize)
		if err != nil {
			return fmt.Errorf("%s: %w", domain.AnalyzerSentiment, err)
		}
		result.Sentiment = out
		s.persistProgress(ctx, analysisID, appID)
		return nil
	})
	g.Go(func() error {
		out, err := s.topics.Analyze(gctx, valid, s.cfg.BatchSize)
		if err != nil {
			return fmt.Errorf("%s: %w", domain.AnalyzerTopics, err)
		}
		result.Topics = out
		s.persistProgress(ctx, analysisID, appID)
		return nil
	})
	s.persistProgress(ctx, analysisID, appID)

	if err := g.Wait(); err != nil {
		// Leave the progress record in place so pollers can read the error
		// state, but release the active slot.
		s.persistProgress(ctx, analysisID, appID)
		s.finishRun(analysisID)
		s.log.Error().Err(err).Str("app_id", appID).Str("analysis_id", analysisID).Msg("analysis failed")
		return nil, fmt.Errorf("analysis failed: %w", err)
	}

	result.Stats = domain.AnalysisStats{
		TotalReviews:     len(valid),
		ProcessingTimeMs: time.Since(start).Milliseconds(),
	}

	// A Cancel call between run start and here cleared the active id; the
	// late result must then not repopulate the cache or progress store.
	if s.finishRun(analysisID) {
		if _, err := s.cache.Set(ctx, appID, &result, hash); err != nil {
			s.log.Warn().Err(err).Str("app_id", appID).Msg("result not cached")
		}
		s.cache.ClearProgress(ctx, analysisID)
	} else {
		s.log.Info().Str("analysis_id", analysisID).Msg("run cancelled; discarding result")
	}

	s.log.Info().
		Str("app_id", appID).
		Str("analysis_id", analysisID).
		Int64("elapsed_ms", result.Stats.ProcessingTimeMs).
		Msg("analysis completed")
	return &result, nil
}

// Cached returns the cached combined result for appID under the service's
// current config, or nil on a miss.
func (s *Service) Cached(ctx context.Context, appID string) *domain.CombinedAnalysisResult {
	return s.cache.Get(ctx, appID, s.cfg.Hash())
}

// finishRun releases the active slot if id still owns it, reporting whether
// it did. A false return means the run was cancelled mid-flight.
func (s *Service) finishRun(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.activeID != id {
		return false
	}
	s.activeID = ""
	s.cancelFn = nil
	return true
}

// persistProgress snapshots all three analyzers into the progress store.
func (s *Service) persistProgress(ctx context.Context, id, appID string) {
	if err := s.cache.SaveProgress(ctx, id, appID, s.Progress(), s.cfg); err != nil {
		s.log.Warn().Err(err).Str("analysis_id", id).Msg("progress snapshot failed")
	}
}

// Progress returns the live per-analyzer progress map.
func (s *Service) Progress() map[string]domain.AnalysisProgress {
	return map[string]domain.AnalysisProgress{
		domain.AnalyzerPatterns:  s.patterns.Progress(),
		domain.AnalyzerSentiment: s.sentiment.Progress(),
		domain.AnalyzerTopics:    s.topics.Progress(),
	}
}

// Cancel aborts the in-flight run, if any: the run context is cancelled,
// its progress record is removed, and the analyzers reset to idle. The
// aborted run's result, should it still complete, is not cached.
func (s *Service) Cancel(ctx context.Context) bool {
	s.mu.Lock()
	id := s.activeID
	cancel := s.cancelFn
	s.activeID = ""
	s.cancelFn = nil
	s.mu.Unlock()

	if id == "" {
		return false
	}
	if cancel != nil {
		cancel()
	}
	s.cache.ClearProgress(ctx, id)
	s.patterns.Reset()
	s.sentiment.Reset()
	s.topics.Reset()
	s.log.Info().Str("analysis_id", id).Msg("analysis cancelled")
	return true
}

// RestoreProgress returns the most recent persisted snapshot for a subject,
// letting a reconnecting client restore its progress display. Nil when no
// snapshot exists.
func (s *Service) RestoreProgress(ctx context.Context, appID string) *cache.ProgressSnapshot {
	return s.cache.LatestProgress(ctx, appID)
}

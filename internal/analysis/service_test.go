package analysis

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/tbourn/go-review-insights/internal/cache"
	"github.com/tbourn/go-review-insights/internal/domain"
)

type fakePattern struct {
	fn    func(ctx context.Context) (domain.PatternResult, error)
	calls int
}

func (f *fakePattern) Analyze(ctx context.Context, _ []domain.ReviewRecord, _ int) (domain.PatternResult, error) {
	f.calls++
	if f.fn != nil {
		return f.fn(ctx)
	}
	return domain.PatternResult{Confidence: 0.5}, nil
}
func (f *fakePattern) Progress() domain.AnalysisProgress { return domain.AnalysisProgress{} }
func (f *fakePattern) Reset()                            {}

type fakeSentiment struct {
	fn    func(ctx context.Context) (domain.SentimentResult, error)
	calls int
}

func (f *fakeSentiment) Analyze(ctx context.Context, _ []domain.ReviewRecord, _ int) (domain.SentimentResult, error) {
	f.calls++
	if f.fn != nil {
		return f.fn(ctx)
	}
	return domain.SentimentResult{AverageScore: 1}, nil
}
func (f *fakeSentiment) Progress() domain.AnalysisProgress { return domain.AnalysisProgress{} }
func (f *fakeSentiment) Reset()                            {}

type fakeTopics struct {
	fn    func(ctx context.Context) (domain.TopicResult, error)
	calls int
}

func (f *fakeTopics) Analyze(ctx context.Context, _ []domain.ReviewRecord, _ int) (domain.TopicResult, error) {
	f.calls++
	if f.fn != nil {
		return f.fn(ctx)
	}
	return domain.TopicResult{Confidence: 0.5}, nil
}
func (f *fakeTopics) Progress() domain.AnalysisProgress { return domain.AnalysisProgress{} }
func (f *fakeTopics) Reset()                            {}

// fakeResultCache records calls; Get serves from the hit field.
type fakeResultCache struct {
	mu            sync.Mutex
	hit           *domain.CombinedAnalysisResult
	setCalls      int
	lastSetHash   string
	clearedIDs    []string
	progressSaves int
}

func (f *fakeResultCache) Get(ctx context.Context, appID, configHash string) *domain.CombinedAnalysisResult {
	return f.hit
}

func (f *fakeResultCache) Set(ctx context.Context, appID string, result *domain.CombinedAnalysisResult, configHash string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.setCalls++
	f.lastSetHash = configHash
	return "entry-1", nil
}

func (f *fakeResultCache) SaveProgress(ctx context.Context, id, appID string, progress map[string]domain.AnalysisProgress, config any) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.progressSaves++
	return nil
}

func (f *fakeResultCache) ClearProgress(ctx context.Context, id string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.clearedIDs = append(f.clearedIDs, id)
}

func (f *fakeResultCache) LatestProgress(ctx context.Context, appID string) *cache.ProgressSnapshot {
	return nil
}

func newTestService(fc *fakeResultCache, p *fakePattern, s *fakeSentiment, tp *fakeTopics) *Service {
	return &Service{
		cfg:       Config{Version: "test", BatchSize: 10},
		cache:     fc,
		log:       zerolog.Nop(),
		patterns:  p,
		sentiment: s,
		topics:    tp,
	}
}

func validReviews(n int) []domain.ReviewRecord {
	out := make([]domain.ReviewRecord, n)
	for i := range out {
		out[i] = domain.ReviewRecord{ID: "r", Text: "works great", Score: 5}
	}
	return out
}

func TestConfigHashStable(t *testing.T) {
	a := Config{Version: "1.0", BatchSize: 50, MaxTopics: 10}
	b := Config{Version: "1.0", BatchSize: 50, MaxTopics: 10}
	if a.Hash() != b.Hash() {
		t.Errorf("equal configs hash differently: %s vs %s", a.Hash(), b.Hash())
	}
	c := Config{Version: "1.1", BatchSize: 50, MaxTopics: 10}
	if a.Hash() == c.Hash() {
		t.Errorf("different configs share hash %s", a.Hash())
	}
	if len(a.Hash()) != 16 {
		t.Errorf("hash length = %d, want 16 hex chars", len(a.Hash()))
	}
}

func TestAnalyzeRejectsAllInvalid(t *testing.T) {
	svc := newTestService(&fakeResultCache{}, &fakePattern{}, &fakeSentiment{}, &fakeTopics{})
	reviews := []domain.ReviewRecord{
		{Text: "", Score: 5},
		{Text: "has text", Score: 0},
	}
	if _, err := svc.Analyze(context.Background(), "app.one", reviews); !errors.Is(err, ErrNoValidReviews) {
		t.Fatalf("err = %v, want ErrNoValidReviews", err)
	}
}

func TestAnalyzeFiltersInvalid(t *testing.T) {
	fc := &fakeResultCache{}
	svc := newTestService(fc, &fakePattern{}, &fakeSentiment{}, &fakeTopics{})
	reviews := append(validReviews(2), domain.ReviewRecord{Text: "", Score: 3})

	res, err := svc.Analyze(context.Background(), "app.one", reviews)
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}
	if res.Stats.TotalReviews != 2 {
		t.Errorf("total reviews = %d, want 2 after filtering", res.Stats.TotalReviews)
	}
}

func TestAnalyzeCacheHitShortCircuits(t *testing.T) {
	cached := &domain.CombinedAnalysisResult{Stats: domain.AnalysisStats{TotalReviews: 42}}
	fc := &fakeResultCache{hit: cached}
	p, s, tp := &fakePattern{}, &fakeSentiment{}, &fakeTopics{}
	svc := newTestService(fc, p, s, tp)

	res, err := svc.Analyze(context.Background(), "app.one", validReviews(3))
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}
	if res != cached {
		t.Error("cache hit not returned as-is")
	}
	if p.calls+s.calls+tp.calls != 0 {
		t.Errorf("analyzers ran %d times on a cache hit", p.calls+s.calls+tp.calls)
	}
	if fc.setCalls != 0 {
		t.Errorf("Set called %d times on a cache hit", fc.setCalls)
	}
}

func TestAnalyzeSuccessCachesAndClearsProgress(t *testing.T) {
	fc := &fakeResultCache{}
	svc := newTestService(fc, &fakePattern{}, &fakeSentiment{}, &fakeTopics{})

	res, err := svc.Analyze(context.Background(), "app.one", validReviews(5))
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}
	if res.Stats.TotalReviews != 5 {
		t.Errorf("total reviews = %d, want 5", res.Stats.TotalReviews)
	}
	if fc.setCalls != 1 {
		t.Fatalf("Set calls = %d, want 1", fc.setCalls)
	}
	if fc.lastSetHash != svc.cfg.Hash() {
		t.Errorf("cached under hash %s, want %s", fc.lastSetHash, svc.cfg.Hash())
	}
	if len(fc.clearedIDs) != 1 {
		t.Errorf("progress cleared %d times, want 1", len(fc.clearedIDs))
	}
	if fc.progressSaves == 0 {
		t.Error("no progress snapshots persisted during the run")
	}
}

func TestAnalyzeFailFastWrapsCause(t *testing.T) {
	boom := errors.New("boom")
	fc := &fakeResultCache{}
	s := &fakeSentiment{fn: func(context.Context) (domain.SentimentResult, error) {
		return domain.SentimentResult{}, boom
	}}
	svc := newTestService(fc, &fakePattern{}, s, &fakeTopics{})

	_, err := svc.Analyze(context.Background(), "app.one", validReviews(3))
	if err == nil {
		t.Fatal("want error when an analyzer fails")
	}
	if !errors.Is(err, boom) {
		t.Errorf("cause not wrapped: %v", err)
	}
	if !strings.HasPrefix(err.Error(), "analysis failed: ") {
		t.Errorf("err = %q, want analysis failed prefix", err)
	}
	if !strings.Contains(err.Error(), "sentiment") {
		t.Errorf("err = %q, want failing analyzer named", err)
	}
	if fc.setCalls != 0 {
		t.Errorf("Set calls = %d after failure, want 0", fc.setCalls)
	}
}

func TestAnalyzeRunsAreRepeatable(t *testing.T) {
	fc := &fakeResultCache{}
	p := &fakePattern{}
	svc := newTestService(fc, p, &fakeSentiment{}, &fakeTopics{})

	for i := 0; i < 2; i++ {
		if _, err := svc.Analyze(context.Background(), "app.one", validReviews(2)); err != nil {
			t.Fatalf("run %d: %v", i, err)
		}
	}
	if p.calls != 2 {
		t.Errorf("pattern analyzer ran %d times, want 2", p.calls)
	}
	if fc.setCalls != 2 {
		t.Errorf("Set calls = %d, want 2", fc.setCalls)
	}
}

func TestCancelDiscardsLateResult(t *testing.T) {
	started := make(chan struct{})
	release := make(chan struct{})
	fc := &fakeResultCache{}
	p := &fakePattern{fn: func(ctx context.Context) (domain.PatternResult, error) {
		close(started)
		<-release
		return domain.PatternResult{}, nil
	}}
	svc := newTestService(fc, p, &fakeSentiment{}, &fakeTopics{})

	done := make(chan struct{})
	go func() {
		defer close(done)
		svc.Analyze(context.Background(), "app.one", validReviews(2))
	}()

	<-started
	if !svc.Cancel(context.Background()) {
		t.Fatal("Cancel found no active run")
	}
	close(release)

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("Analyze did not return after cancel")
	}

	if fc.setCalls != 0 {
		t.Errorf("Set calls = %d, want 0; cancelled run must not populate the cache", fc.setCalls)
	}
}

func TestCancelWithoutActiveRun(t *testing.T) {
	svc := newTestService(&fakeResultCache{}, &fakePattern{}, &fakeSentiment{}, &fakeTopics{})
	if svc.Cancel(context.Background()) {
		t.Error("Cancel reported an active run where none exists")
	}
}

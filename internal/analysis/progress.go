// Package analysis implements the review analysis pipeline: three
// independent batch analyzers (patterns, sentiment, topics) and the
// orchestrating Service that runs them concurrently, reports progress, and
// persists results through the analysis cache.
package analysis

import (
	"fmt"
	"sync"

	"github.com/tbourn/go-review-insights/internal/domain"
)

// progressTracker is the mutable progress state owned by one analyzer.
// Progress is monotonically non-decreasing within a run and resets to 0
// when a new run starts. Safe for concurrent use: the analyzer writes while
// pollers read.
type progressTracker struct {
	mu sync.Mutex
	p  domain.AnalysisProgress
}

func newProgressTracker() *progressTracker {
	return &progressTracker{p: domain.AnalysisProgress{Stage: domain.StageIdle}}
}

// start resets the tracker for a fresh run.
func (t *progressTracker) start(name string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.p = domain.AnalysisProgress{
		Stage:   domain.StageRunning,
		Details: fmt.Sprintf("Starting %s analysis...", name),
	}
}

// advance records processed/total, clamped so progress never decreases.
// The value is capped at 99 while running; only complete() reports 100.
func (t *progressTracker) advance(processed, total int) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.p.Stage != domain.StageRunning || total <= 0 {
		return
	}
	pct := processed * 100 / total
	if pct > 99 {
		pct = 99
	}
	if pct > t.p.Progress {
		t.p.Progress = pct
	}
	t.p.Details = fmt.Sprintf("Processed %d of %d reviews", processed, total)
}

// complete marks the run finished.
func (t *progressTracker) complete(name string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.p = domain.AnalysisProgress{
		Stage:    domain.StageCompleted,
		Progress: 100,
		Details:  fmt.Sprintf("Completed %s analysis", name),
	}
}

// fail records a terminal error. Progress is left where it was so callers
// can see how far the run got.
func (t *progressTracker) fail(name string, err error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.p.Stage = domain.StageError
	t.p.Error = err.Error()
	t.p.Details = fmt.Sprintf("Failed to run %s analysis: %v", name, err)
}

// reset returns the tracker to idle (used by cancellation).
func (t *progressTracker) reset() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.p = domain.AnalysisProgress{Stage: domain.StageIdle}
}

// snapshot returns a copy of the current progress.
func (t *progressTracker) snapshot() domain.AnalysisProgress {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.p
}

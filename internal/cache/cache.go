// Package cache implements the persistent analysis result cache: a
// size-bounded, TTL-expiring, LRU-evicting store for combined analysis
// results, with a parallel store for resumable in-flight progress
// snapshots.
//
// Policy lives here; raw persistence lives in internal/repo. The cache is
// constructed once at the composition root and injected wherever results
// are read or written; there is exactly one instance per backing store.
//
// Degradation contract: when the backing store failed to open (nil DB) or a
// storage operation fails, reads degrade to misses and writes to no-ops.
// Caching is an optimization; it must never take the analysis pipeline down
// with it. Failures are logged and counted, not propagated.
//
// Consistency contract: the totalSize metadata counter and the entry rows
// change together inside repo-level transactions, and all size-mutating
// operations additionally serialize on a cache-level mutex so two
// concurrent Set calls cannot interleave their read-evict-insert sequences.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/tbourn/go-review-insights/internal/domain"
	"github.com/tbourn/go-review-insights/internal/repo"
)

// Config tunes the cache.
type Config struct {
	// MaxSize is the cache capacity in bytes. Inserts past capacity trigger
	// eviction but are not rejected (best-effort cache, not a quota).
	MaxSize int64
	// TTL is how long an entry stays valid after creation.
	TTL time.Duration
	// PersistProgress enables the progress store; when false the
	// progress methods are no-ops.
	PersistProgress bool
}

// DefaultConfig mirrors the defaults the dashboard shipped with: 50 MiB,
// 7 days, progress persistence on.
func DefaultConfig() Config {
	return Config{
		MaxSize:         50 << 20,
		TTL:             7 * 24 * time.Hour,
		PersistProgress: true,
	}
}

// ProgressSnapshot is a decoded progress record as returned to callers.
type ProgressSnapshot struct {
	ID        string                             `json:"id"`
	AppID     string                             `json:"app_id"`
	UpdatedAt time.Time                          `json:"updated_at"`
	Progress  map[string]domain.AnalysisProgress `json:"progress"`
	Config    json.RawMessage                    `json:"config,omitempty"`
}

// Cache is the analysis result cache service. Safe for concurrent use.
type Cache struct {
	cfg Config
	db  *gorm.DB // nil means the backing store is unavailable
	log zerolog.Logger

	// mu serializes size-mutating operations (Set's evict+insert sequence,
	// ClearAll) so the totalSize counter is never raced.
	mu sync.Mutex

	// now is a test seam for time-dependent behavior (TTL, LRU stamps).
	now func() time.Time
}

// New constructs a Cache over db. A nil db yields a degraded cache that
// always misses; callers do not need to special-case an unavailable store.
func New(db *gorm.DB, cfg Config, log zerolog.Logger) *Cache {
	if cfg.MaxSize <= 0 {
		cfg.MaxSize = DefaultConfig().MaxSize
	}
	if cfg.TTL <= 0 {
		cfg.TTL = DefaultConfig().TTL
	}
	return &Cache{
		cfg: cfg,
		db:  db,
		log: log.With().Str("component", "cache").Logger(),
		now: time.Now,
	}
}

// Ready reports whether the backing store is available.
func (c *Cache) Ready() bool { return c.db != nil }

// Get returns the cached combined result for (appID, configHash), or nil on
// a miss. A hit bumps the entry's last-accessed stamp so LRU eviction
// prefers colder entries. Among multiple valid entries for the same key the
// most recently created wins. Storage errors degrade to a miss.
func (c *Cache) Get(ctx context.Context, appID, configHash string) *domain.CombinedAnalysisResult {
	if c.db == nil {
		cacheMisses.Inc()
		return nil
	}

	entries, err := repo.ListBySubject(ctx, c.db, appID)
	if err != nil {
		c.log.Warn().Err(err).Str("app_id", appID).Msg("cache read failed; treating as miss")
		cacheMisses.Inc()
		return nil
	}

	nowMillis := domain.Millis(c.now())
	for i := range entries {
		e := &entries[i]
		if e.ConfigHash != configHash || e.Expired(nowMillis) {
			continue
		}
		// Entries arrive newest-first, so the first match is the winner.
		var result domain.CombinedAnalysisResult
		if err := json.Unmarshal(e.Result, &result); err != nil {
			c.log.Warn().Err(err).Str("entry_id", e.ID).Msg("cached payload undecodable; treating as miss")
			break
		}
		if err := repo.TouchEntry(ctx, c.db, e.ID, nowMillis); err != nil && !errors.Is(err, repo.ErrNotFound) {
			c.log.Warn().Err(err).Str("entry_id", e.ID).Msg("failed to touch cache entry")
		}
		cacheHits.Inc()
		return &result
	}

	cacheMisses.Inc()
	return nil
}

// Set serializes result and stores it under (appID, configHash), evicting
// expired then least-recently-used entries first when the insert would
// exceed capacity. It returns the new entry id. The insert proceeds even if
// eviction could not free enough space; overshoot is visible through
// Status().UsagePercentage.
//
// A serialization failure is returned to the caller (who treats caching as
// optional); storage failures are logged and swallowed.
func (c *Cache) Set(ctx context.Context, appID string, result *domain.CombinedAnalysisResult, configHash string) (string, error) {
	payload, err := json.Marshal(result)
	if err != nil {
		return "", err
	}
	if c.db == nil {
		return "", nil
	}

	size := int64(len(payload))

	c.mu.Lock()
	defer c.mu.Unlock()

	total, err := repo.GetTotalSize(ctx, c.db)
	if err != nil {
		c.log.Warn().Err(err).Msg("cache size read failed; skipping store")
		return "", nil
	}
	if total+size > c.cfg.MaxSize {
		c.evict(ctx, size)
	}

	nowMillis := domain.Millis(c.now())
	e := &domain.AnalysisEntry{
		ID:           domain.NewEntryID(appID, configHash, nowMillis),
		AppID:        appID,
		Timestamp:    nowMillis,
		ExpiresAt:    nowMillis + c.cfg.TTL.Milliseconds(),
		LastAccessed: nowMillis,
		SizeBytes:    size,
		ReviewCount:  result.Stats.TotalReviews,
		ConfigHash:   configHash,
		Result:       payload,
	}
	if err := repo.InsertEntry(ctx, c.db, e); err != nil {
		c.log.Warn().Err(err).Str("app_id", appID).Msg("cache store failed")
		return "", nil
	}

	c.log.Debug().
		Str("entry_id", e.ID).
		Str("size", humanize.Bytes(uint64(size))).
		Int("reviews", e.ReviewCount).
		Msg("analysis cached")
	c.refreshMetrics(ctx)
	return e.ID, nil
}

// evict reclaims space for an incoming entry of requiredSpace bytes.
// Expired entries go first regardless of the target (they hold no value);
// if that is not enough, valid entries are removed in last-accessed order
// until the target is met or the store is empty. The totalSize counter is
// adjusted exactly once, by the total freed across both phases.
//
// Called with c.mu held.
func (c *Cache) evict(ctx context.Context, requiredSpace int64) {
	nowMillis := domain.Millis(c.now())

	var (
		ids   []string
		freed int64
	)
	doomed := make(map[string]struct{})

	expired, err := repo.ListExpired(ctx, c.db, nowMillis)
	if err != nil {
		c.log.Warn().Err(err).Msg("expiry scan failed")
	}
	for i := range expired {
		ids = append(ids, expired[i].ID)
		doomed[expired[i].ID] = struct{}{}
		freed += expired[i].SizeBytes
	}

	if freed < requiredSpace {
		byAccess, err := repo.ListByLastAccessed(ctx, c.db)
		if err != nil {
			c.log.Warn().Err(err).Msg("lru scan failed")
		}
		for i := range byAccess {
			if freed >= requiredSpace {
				break
			}
			if _, dup := doomed[byAccess[i].ID]; dup {
				continue
			}
			ids = append(ids, byAccess[i].ID)
			freed += byAccess[i].SizeBytes
		}
	}

	if len(ids) == 0 {
		return
	}
	if err := repo.DeleteEntries(ctx, c.db, ids, freed); err != nil {
		c.log.Warn().Err(err).Msg("eviction delete failed")
		return
	}
	cacheEvictions.Add(float64(len(ids)))
	c.log.Debug().
		Int("evicted", len(ids)).
		Str("freed", humanize.Bytes(uint64(freed))).
		Msg("cache eviction pass")
}

// SaveProgress upserts the progress snapshot for an in-flight run. No-op
// when progress persistence is disabled or the store is unavailable.
func (c *Cache) SaveProgress(ctx context.Context, id, appID string, progress map[string]domain.AnalysisProgress, config any) error {
	if !c.cfg.PersistProgress || c.db == nil {
		return nil
	}
	progressJSON, err := json.Marshal(progress)
	if err != nil {
		return err
	}
	configJSON, err := json.Marshal(config)
	if err != nil {
		return err
	}
	rec := &domain.ProgressRecord{
		ID:        id,
		AppID:     appID,
		UpdatedAt: domain.Millis(c.now()),
		Progress:  progressJSON,
		Config:    configJSON,
	}
	if err := repo.UpsertProgress(ctx, c.db, rec); err != nil {
		c.log.Warn().Err(err).Str("analysis_id", id).Msg("progress save failed")
	}
	return nil
}

// GetProgress returns the persisted progress snapshot for an analysis id,
// or nil when none exists (or persistence is off).
func (c *Cache) GetProgress(ctx context.Context, id string) *ProgressSnapshot {
	if !c.cfg.PersistProgress || c.db == nil {
		return nil
	}
	rec, err := repo.GetProgress(ctx, c.db, id)
	if err != nil {
		if !errors.Is(err, repo.ErrNotFound) {
			c.log.Warn().Err(err).Str("analysis_id", id).Msg("progress read failed")
		}
		return nil
	}
	return decodeProgress(rec, c.log)
}

// LatestProgress returns the most recently updated progress snapshot for a
// subject. It lets a reloaded client that lost its analysis id restore the
// progress display.
func (c *Cache) LatestProgress(ctx context.Context, appID string) *ProgressSnapshot {
	if !c.cfg.PersistProgress || c.db == nil {
		return nil
	}
	rec, err := repo.LatestProgressForSubject(ctx, c.db, appID)
	if err != nil {
		if !errors.Is(err, repo.ErrNotFound) {
			c.log.Warn().Err(err).Str("app_id", appID).Msg("progress lookup failed")
		}
		return nil
	}
	return decodeProgress(rec, c.log)
}

// ClearProgress removes the persisted snapshot for an analysis id.
func (c *Cache) ClearProgress(ctx context.Context, id string) {
	if !c.cfg.PersistProgress || c.db == nil {
		return
	}
	if err := repo.DeleteProgress(ctx, c.db, id); err != nil {
		c.log.Warn().Err(err).Str("analysis_id", id).Msg("progress clear failed")
	}
}

// ClearAll empties both stores and resets the size counter.
func (c *Cache) ClearAll(ctx context.Context) {
	if c.db == nil {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := repo.ResetEntries(ctx, c.db); err != nil {
		c.log.Warn().Err(err).Msg("cache clear failed")
	}
	if err := repo.ResetProgress(ctx, c.db); err != nil {
		c.log.Warn().Err(err).Msg("progress clear failed")
	}
	c.log.Info().Msg("cache cleared")
	c.refreshMetrics(ctx)
}

// Status recomputes cache health from the store: item count and the byte
// total summed from the rows themselves (not the counter), so any drift is
// observable rather than self-confirming.
func (c *Cache) Status(ctx context.Context) domain.CacheStatus {
	st := domain.CacheStatus{MaxSize: c.cfg.MaxSize}
	if c.db == nil {
		return st
	}
	st.IsReady = true

	n, err := repo.CountEntries(ctx, c.db)
	if err != nil {
		c.log.Warn().Err(err).Msg("status count failed")
		st.IsReady = false
		return st
	}
	sum, err := repo.SumEntrySizes(ctx, c.db)
	if err != nil {
		c.log.Warn().Err(err).Msg("status size scan failed")
		st.IsReady = false
		return st
	}
	st.ItemCount = n
	st.TotalSize = sum
	st.UsagePercentage = float64(sum) / float64(c.cfg.MaxSize) * 100
	cacheSizeBytes.Set(float64(sum))
	return st
}

// refreshMetrics re-derives the size gauge after a mutating call so
// observers always see a fresh snapshot.
func (c *Cache) refreshMetrics(ctx context.Context) {
	if sum, err := repo.SumEntrySizes(ctx, c.db); err == nil {
		cacheSizeBytes.Set(float64(sum))
	}
}

func decodeProgress(rec *domain.ProgressRecord, log zerolog.Logger) *ProgressSnapshot {
	snap := &ProgressSnapshot{
		ID:        rec.ID,
		AppID:     rec.AppID,
		UpdatedAt: time.UnixMilli(rec.UpdatedAt),
		Config:    json.RawMessage(rec.Config),
	}
	if err := json.Unmarshal(rec.Progress, &snap.Progress); err != nil {
		log.Warn().Err(err).Str("analysis_id", rec.ID).Msg("progress payload undecodable")
		return nil
	}
	return snap
}

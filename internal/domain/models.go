// Package domain defines the persistence models for the analysis result
// cache and the in-flight progress store, plus the typed analysis results
// exchanged between the analyzers, the orchestrator, and the presentation
// transformer. The persistence types are mapped with GORM and form the core
// data layer of the review insights backend.
package domain

import (
	"strconv"
	"time"
)

// AnalysisEntry is one cached analysis result. Entries are immutable except
// for LastAccessed, which is bumped on every cache hit and drives LRU
// eviction ordering.
//
// Fields:
//   - ID: "<appID>_<configHash>_<unix millis>", unique per insert.
//   - AppID: the analyzed application; indexed for lookup by subject.
//   - Timestamp: creation time in unix milliseconds. When several valid
//     entries exist for the same (AppID, ConfigHash), the largest Timestamp
//     wins.
//   - ExpiresAt: Timestamp + TTL, unix milliseconds; indexed for the
//     expiry sweep.
//   - LastAccessed: unix milliseconds of the most recent read; indexed for
//     LRU ordering.
//   - SizeBytes: serialized size of Result; summed into the totalSize
//     metadata counter.
//   - ReviewCount: number of reviews behind the result (status/reporting).
//   - ConfigHash: fingerprint of the analysis configuration the result was
//     produced under.
//   - Result: the JSON-serialized CombinedAnalysisResult payload.
type AnalysisEntry struct {
	ID           string `gorm:"type:varchar(128);primaryKey"                     json:"id"`
	AppID        string `gorm:"type:varchar(255);not null;index:idx_entries_app" json:"app_id"`
	Timestamp    int64  `gorm:"not null;index"                                   json:"timestamp"`
	ExpiresAt    int64  `gorm:"not null;index:idx_entries_expires"               json:"expires_at"`
	LastAccessed int64  `gorm:"not null;index:idx_entries_lru"                   json:"last_accessed"`
	SizeBytes    int64  `gorm:"not null"                                         json:"size_bytes"`
	ReviewCount  int    `gorm:"not null"                                         json:"review_count"`
	ConfigHash   string `gorm:"type:varchar(32);not null;index"                  json:"config_hash"`
	Result       []byte `gorm:"type:blob;not null"                               json:"-"`
}

// TableName returns the database table name for AnalysisEntry.
func (AnalysisEntry) TableName() string { return "analyses" }

// Expired reports whether the entry is past its TTL at the given reference
// time (unix milliseconds).
func (e *AnalysisEntry) Expired(nowMillis int64) bool {
	return e.ExpiresAt <= nowMillis
}

// ProgressRecord is the persisted snapshot of an in-flight analysis run,
// keyed by the ephemeral analysis id. It exists so a reloaded session can
// redisplay progress; it never feeds back into analyzer scheduling. The
// record is deleted once the run completes, fails terminally, or is
// cancelled.
type ProgressRecord struct {
	ID        string `gorm:"type:char(36);primaryKey"                          json:"id"`
	AppID     string `gorm:"type:varchar(255);not null;index:idx_progress_app" json:"app_id"`
	UpdatedAt int64  `gorm:"not null;index"                                    json:"updated_at"`
	// Progress is a JSON map of analyzer name -> AnalysisProgress.
	Progress []byte `gorm:"type:blob;not null" json:"-"`
	// Config is the JSON analysis configuration the run was started with.
	Config []byte `gorm:"type:blob" json:"-"`
}

// TableName returns the database table name for ProgressRecord.
func (ProgressRecord) TableName() string { return "progress" }

// CacheMeta is a scalar metadata row. The only key in use is
// MetaTotalSize, whose Value mirrors sum(SizeBytes) over all analyses rows.
// It is updated in the same transaction as any entry insert or delete so
// the two can never drift.
type CacheMeta struct {
	Key   string `gorm:"type:varchar(64);primaryKey" json:"key"`
	Value int64  `gorm:"not null"                    json:"value"`
}

// TableName returns the database table name for CacheMeta.
func (CacheMeta) TableName() string { return "metadata" }

// MetaTotalSize is the CacheMeta key tracking the byte total of all cached
// entries.
const MetaTotalSize = "totalSize"

// CacheStatus is a derived, read-mostly snapshot of cache health. ItemCount
// and TotalSize are recomputed from the store on demand, never the other
// way around.
type CacheStatus struct {
	// IsReady reports whether the backing store opened successfully.
	IsReady bool `json:"is_ready"`
	// ItemCount is the number of cached analyses.
	ItemCount int64 `json:"item_count"`
	// TotalSize is the byte total of all cached results.
	TotalSize int64 `json:"total_size"`
	// MaxSize is the configured cache capacity in bytes.
	MaxSize int64 `json:"max_size"`
	// UsagePercentage is TotalSize/MaxSize*100. It may exceed 100 because
	// inserts are best-effort even when eviction could not free enough
	// space.
	UsagePercentage float64 `json:"usage_percentage"`
}

// NewEntryID builds the primary key for an AnalysisEntry from its subject,
// config fingerprint, and creation time (unix milliseconds).
func NewEntryID(appID, configHash string, ts int64) string {
	return appID + "_" + configHash + "_" + strconv.FormatInt(ts, 10)
}

// Millis converts a time to the unix-millisecond representation used by the
// cache tables.
func Millis(t time.Time) int64 { return t.UnixMilli() }

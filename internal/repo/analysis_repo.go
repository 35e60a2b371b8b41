// Package repo implements the data persistence layer for the analysis
// cache, backed by GORM. This file provides repository functions for the
// cached-analysis entries and the totalSize metadata counter.
//
// All functions are context-aware and accept a *gorm.DB handle, making them
// safe for use within transactions or connection-scoped operations.
// They follow the "thin repository" approach: no eviction policy, no TTL
// decisions, only CRUD persistence and query composition. The cache service
// layers policy on top.
//
// Error semantics:
//   - When an entry is not found, functions return gorm.ErrRecordNotFound
//     (also exported here as ErrNotFound for convenience).
//   - On DB errors (constraint violations, connectivity issues, etc.),
//     the raw gorm error is propagated.
//
// Consistency:
//   - InsertEntry and DeleteEntries adjust the totalSize counter within the
//     same transaction as the row mutation, so sum(size_bytes) and the
//     counter can never drift. This is the invariant the cache status
//     reports against.
package repo

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/tbourn/go-review-insights/internal/domain"
)

// ErrNotFound is returned when a requested record does not exist.
// It aliases gorm.ErrRecordNotFound for convenience and consistency
// across the service layer and handlers.
var ErrNotFound = gorm.ErrRecordNotFound

// InsertEntry persists a new cache entry and bumps the totalSize counter by
// the entry's size in one transaction.
func InsertEntry(ctx context.Context, db *gorm.DB, e *domain.AnalysisEntry) error {
	return db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(e).Error; err != nil {
			return err
		}
		return addTotalSize(tx, e.SizeBytes)
	})
}

// ListBySubject returns every entry stored for appID, newest first. The
// caller filters for config hash and expiry; keeping the scan dumb mirrors
// the secondary-index cursor walk the cache contract describes.
func ListBySubject(ctx context.Context, db *gorm.DB, appID string) ([]domain.AnalysisEntry, error) {
	var out []domain.AnalysisEntry
	err := db.WithContext(ctx).
		Where("app_id = ?", appID).
		Order("timestamp desc").
		Find(&out).Error
	return out, err
}

// TouchEntry updates an entry's last_accessed stamp. Returns ErrNotFound
// when the entry no longer exists (e.g. it was evicted between read and
// touch).
func TouchEntry(ctx context.Context, db *gorm.DB, id string, accessedAt int64) error {
	res := db.WithContext(ctx).
		Model(&domain.AnalysisEntry{}).
		Where("id = ?", id).
		Update("last_accessed", accessedAt)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// ListExpired returns all entries whose expires_at is at or before
// nowMillis, ordered by expiry ascending.
func ListExpired(ctx context.Context, db *gorm.DB, nowMillis int64) ([]domain.AnalysisEntry, error) {
	var out []domain.AnalysisEntry
	err := db.WithContext(ctx).
		Where("expires_at <= ?", nowMillis).
		Order("expires_at asc").
		Find(&out).Error
	return out, err
}

// ListByLastAccessed returns all entries ordered by last_accessed ascending
// (least recently used first), the LRU eviction ordering.
func ListByLastAccessed(ctx context.Context, db *gorm.DB) ([]domain.AnalysisEntry, error) {
	var out []domain.AnalysisEntry
	err := db.WithContext(ctx).
		Order("last_accessed asc").
		Find(&out).Error
	return out, err
}

// DeleteEntries removes the given entries and decrements the totalSize
// counter by freedBytes in one transaction. The caller accumulates
// freedBytes across the expiry and LRU phases so the counter is adjusted
// exactly once per eviction pass.
func DeleteEntries(ctx context.Context, db *gorm.DB, ids []string, freedBytes int64) error {
	if len(ids) == 0 {
		return nil
	}
	return db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("id IN ?", ids).Delete(&domain.AnalysisEntry{}).Error; err != nil {
			return err
		}
		return addTotalSize(tx, -freedBytes)
	})
}

// CountEntries returns the number of stored entries.
func CountEntries(ctx context.Context, db *gorm.DB) (int64, error) {
	var n int64
	err := db.WithContext(ctx).Model(&domain.AnalysisEntry{}).Count(&n).Error
	return n, err
}

// SumEntrySizes recomputes the byte total straight from the rows. Status
// reporting uses this rather than trusting the counter, so drift (should a
// bug ever introduce one) is observable instead of self-confirming.
func SumEntrySizes(ctx context.Context, db *gorm.DB) (int64, error) {
	var total *int64
	err := db.WithContext(ctx).
		Model(&domain.AnalysisEntry{}).
		Select("SUM(size_bytes)").
		Scan(&total).Error
	if err != nil || total == nil {
		return 0, err
	}
	return *total, nil
}

// GetTotalSize reads the totalSize metadata counter; a missing row reads
// as 0.
func GetTotalSize(ctx context.Context, db *gorm.DB) (int64, error) {
	var meta domain.CacheMeta
	err := db.WithContext(ctx).
		Where("key = ?", domain.MetaTotalSize).
		First(&meta).Error
	if err == gorm.ErrRecordNotFound {
		return 0, nil
	}
	return meta.Value, err
}

// ResetEntries clears the entries table and zeroes the totalSize counter in
// one transaction.
func ResetEntries(ctx context.Context, db *gorm.DB) error {
	return db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("1 = 1").Delete(&domain.AnalysisEntry{}).Error; err != nil {
			return err
		}
		return tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "key"}},
			DoUpdates: clause.AssignmentColumns([]string{"value"}),
		}).Create(&domain.CacheMeta{Key: domain.MetaTotalSize, Value: 0}).Error
	})
}

// addTotalSize adjusts the counter inside an open transaction, creating the
// row on first use. Negative results are clamped to zero: the counter only
// goes negative if rows were removed out-of-band, and a negative size would
// just propagate the corruption into status output.
func addTotalSize(tx *gorm.DB, delta int64) error {
	var meta domain.CacheMeta
	err := tx.Where("key = ?", domain.MetaTotalSize).First(&meta).Error
	switch {
	case err == gorm.ErrRecordNotFound:
		meta = domain.CacheMeta{Key: domain.MetaTotalSize}
	case err != nil:
		return err
	}
	meta.Value += delta
	if meta.Value < 0 {
		meta.Value = 0
	}
	return tx.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "key"}},
		DoUpdates: clause.AssignmentColumns([]string{"value"}),
	}).Create(&meta).Error
}

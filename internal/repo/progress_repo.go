// Package repo implements the data persistence layer for the analysis
// cache, backed by GORM. This file provides repository functions for the
// progress store: persisted snapshots of in-flight analysis runs.
//
// The progress store is independent of the entries store: records carry no
// size accounting and are upserted freely while a run is active.
package repo

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/tbourn/go-review-insights/internal/domain"
)

// UpsertProgress inserts or replaces the progress record for an analysis
// id. Runs save a snapshot after every analyzer transition, so replace
// semantics are the common path.
func UpsertProgress(ctx context.Context, db *gorm.DB, rec *domain.ProgressRecord) error {
	return db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		DoUpdates: clause.AssignmentColumns([]string{"app_id", "updated_at", "progress", "config"}),
	}).Create(rec).Error
}

// GetProgress fetches the progress record for an analysis id, or
// ErrNotFound when no run with that id has saved progress.
func GetProgress(ctx context.Context, db *gorm.DB, id string) (*domain.ProgressRecord, error) {
	var rec domain.ProgressRecord
	if err := db.WithContext(ctx).Where("id = ?", id).First(&rec).Error; err != nil {
		return nil, err
	}
	return &rec, nil
}

// LatestProgressForSubject returns the most recently updated progress
// record for appID, or ErrNotFound. Used to restore the progress display
// after a client reload that lost the analysis id.
func LatestProgressForSubject(ctx context.Context, db *gorm.DB, appID string) (*domain.ProgressRecord, error) {
	var rec domain.ProgressRecord
	err := db.WithContext(ctx).
		Where("app_id = ?", appID).
		Order("updated_at desc").
		First(&rec).Error
	if err != nil {
		return nil, err
	}
	return &rec, nil
}

// DeleteProgress removes the progress record for an analysis id. Deleting a
// missing record is not an error.
func DeleteProgress(ctx context.Context, db *gorm.DB, id string) error {
	return db.WithContext(ctx).Where("id = ?", id).Delete(&domain.ProgressRecord{}).Error
}

// ResetProgress clears the whole progress store.
func ResetProgress(ctx context.Context, db *gorm.DB) error {
	return db.WithContext(ctx).Where("1 = 1").Delete(&domain.ProgressRecord{}).Error
}

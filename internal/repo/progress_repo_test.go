package repo

import (
	"context"
	"testing"

	"github.com/tbourn/go-review-insights/internal/domain"
)

func progressRec(id, appID string, updatedAt int64) *domain.ProgressRecord {
	return &domain.ProgressRecord{
		ID:        id,
		AppID:     appID,
		UpdatedAt: updatedAt,
		Progress:  []byte(`{"patterns":{"stage":"running","progress":40}}`),
		Config:    []byte(`{"batch_size":50}`),
	}
}

func TestUpsertProgress_InsertThenReplace(t *testing.T) {
	db := newRepoDB(t, cacheTables()...)
	ctx := context.Background()

	if err := UpsertProgress(ctx, db, progressRec("run-1", "app", 1000)); err != nil {
		t.Fatalf("insert: %v", err)
	}

	updated := progressRec("run-1", "app", 2000)
	updated.Progress = []byte(`{"patterns":{"stage":"completed","progress":100}}`)
	if err := UpsertProgress(ctx, db, updated); err != nil {
		t.Fatalf("replace: %v", err)
	}

	got, err := GetProgress(ctx, db, "run-1")
	if err != nil {
		t.Fatalf("GetProgress: %v", err)
	}
	if got.UpdatedAt != 2000 {
		t.Fatalf("expected replaced record, got %+v", got)
	}
	if string(got.Progress) != string(updated.Progress) {
		t.Fatalf("progress payload not replaced: %s", got.Progress)
	}
}

func TestGetProgress_Missing(t *testing.T) {
	db := newRepoDB(t, cacheTables()...)
	if _, err := GetProgress(context.Background(), db, "nope"); err != ErrNotFound {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestLatestProgressForSubject(t *testing.T) {
	db := newRepoDB(t, cacheTables()...)
	ctx := context.Background()

	for _, rec := range []*domain.ProgressRecord{
		progressRec("run-1", "app-a", 1000),
		progressRec("run-2", "app-a", 3000),
		progressRec("run-3", "app-b", 2000),
	} {
		if err := UpsertProgress(ctx, db, rec); err != nil {
			t.Fatalf("seed %s: %v", rec.ID, err)
		}
	}

	got, err := LatestProgressForSubject(ctx, db, "app-a")
	if err != nil {
		t.Fatalf("LatestProgressForSubject: %v", err)
	}
	if got.ID != "run-2" {
		t.Fatalf("expected most recent record run-2, got %s", got.ID)
	}

	if _, err := LatestProgressForSubject(ctx, db, "app-z"); err != ErrNotFound {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestDeleteProgress_IdempotentAndReset(t *testing.T) {
	db := newRepoDB(t, cacheTables()...)
	ctx := context.Background()

	if err := UpsertProgress(ctx, db, progressRec("run-1", "app", 1000)); err != nil {
		t.Fatalf("seed: %v", err)
	}
	if err := DeleteProgress(ctx, db, "run-1"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	// Deleting again is not an error.
	if err := DeleteProgress(ctx, db, "run-1"); err != nil {
		t.Fatalf("second delete: %v", err)
	}

	if err := UpsertProgress(ctx, db, progressRec("run-2", "app", 2000)); err != nil {
		t.Fatalf("seed run-2: %v", err)
	}
	if err := ResetProgress(ctx, db); err != nil {
		t.Fatalf("ResetProgress: %v", err)
	}
	if _, err := GetProgress(ctx, db, "run-2"); err != ErrNotFound {
		t.Fatalf("expected empty store, got %v", err)
	}
}

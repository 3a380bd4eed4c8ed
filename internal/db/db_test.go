package db

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/MyelinBots/wellness-sync/internal/apperr"
)

func testDBPath(t *testing.T) string {
	t.Helper()
	return filepath.Join(t.TempDir(), "local.db")
}

func TestOpen_CreatesSchema(t *testing.T) {
	d, err := Open(context.Background(), testDBPath(t), nil)
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	defer d.Close()

	tables := []string{
		"user_profile", "global_score", "snaptask_score", "activityjar_score",
		"roamio_score", "streak", "friends", "badges", "sync_state",
		"snap_tasks", "pending_verify", "activities", "walk_sessions", "current_walk",
	}
	for _, table := range tables {
		var count int64
		err := d.DB.Raw(`SELECT COUNT(*) FROM sqlite_master WHERE type='table' AND name=?`, table).Scan(&count).Error
		if err != nil {
			t.Fatalf("query table %s: %v", table, err)
		}
		if count != 1 {
			t.Errorf("table %s does not exist", table)
		}
	}
}

func TestOpen_Idempotent(t *testing.T) {
	path := testDBPath(t)

	first, err := Open(context.Background(), path, nil)
	if err != nil {
		t.Fatalf("first Open() failed: %v", err)
	}
	if err := first.Close(); err != nil {
		t.Fatalf("Close() failed: %v", err)
	}

	second, err := Open(context.Background(), path, nil)
	if err != nil {
		t.Fatalf("second Open() failed: %v", err)
	}
	defer second.Close()
}

func TestSingletonTablesRejectSecondRow(t *testing.T) {
	d, err := Open(context.Background(), testDBPath(t), nil)
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	defer d.Close()

	tables := []string{"snaptask_score", "activityjar_score", "roamio_score", "sync_state"}
	for _, table := range tables {
		t.Run(table, func(t *testing.T) {
			if err := d.DB.Exec("INSERT INTO " + table + " (id) VALUES (1)").Error; err != nil {
				t.Fatalf("insert sentinel row: %v", err)
			}
			if err := d.DB.Exec("INSERT INTO " + table + " (id) VALUES (2)").Error; err == nil {
				t.Error("expected CHECK constraint to reject id = 2")
			}
		})
	}
}

func TestNegativeScoreRejected(t *testing.T) {
	d, err := Open(context.Background(), testDBPath(t), nil)
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	defer d.Close()

	if err := d.DB.Exec("INSERT INTO roamio_score (id, score) VALUES (1, -1)").Error; err == nil {
		t.Error("expected CHECK constraint to reject negative score")
	}
}

func TestClassify(t *testing.T) {
	if Classify(nil) != nil {
		t.Error("Classify(nil) should be nil")
	}

	err := Classify(errors.New("disk I/O error"))
	if !errors.Is(err, apperr.ErrLocalUnavailable) {
		t.Errorf("expected local unavailable, got %v", err)
	}

	nf := Classify(apperr.ErrNotFound)
	if !errors.Is(nf, apperr.ErrNotFound) || errors.Is(nf, apperr.ErrLocalUnavailable) {
		t.Errorf("kinded error should pass through, got %v", nf)
	}
}

func TestCloseTwice(t *testing.T) {
	d, err := Open(context.Background(), testDBPath(t), nil)
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	if err := d.Close(); err != nil {
		t.Fatalf("Close() failed: %v", err)
	}
	if err := d.Close(); err != nil {
		t.Errorf("second Close() should be a no-op, got %v", err)
	}
}

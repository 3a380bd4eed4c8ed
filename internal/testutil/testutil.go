// Package testutil opens throwaway stores for package tests.
package testutil

import (
	"context"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/MyelinBots/wellness-sync/internal/db"
	"github.com/MyelinBots/wellness-sync/internal/logging"
	"github.com/MyelinBots/wellness-sync/internal/remote/badgerdoc"
)

// OpenDB opens a migrated SQLite file under t.TempDir.
func OpenDB(t testing.TB) *db.DB {
	t.Helper()
	d, err := db.Open(context.Background(), filepath.Join(t.TempDir(), "local.db"), logging.Discard())
	if err != nil {
		t.Fatalf("open local db: %v", err)
	}
	t.Cleanup(func() { _ = d.Close() })
	return d
}

// OpenRemote opens an in-memory document store whose server clock is clock
// (time.Now when nil).
func OpenRemote(t testing.TB, clock func() time.Time) *badgerdoc.Store {
	t.Helper()
	var opts []badgerdoc.Option
	if clock != nil {
		opts = append(opts, badgerdoc.WithClock(clock))
	}
	s, err := badgerdoc.OpenInMemory(opts...)
	if err != nil {
		t.Fatalf("open remote: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s
}

// Clock is a settable time source.
type Clock struct {
	mu  sync.Mutex
	now time.Time
}

func NewClock(now time.Time) *Clock {
	return &Clock{now: now}
}

func (c *Clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *Clock) Set(now time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = now
}

func (c *Clock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

package pgdoc

import (
	"context"
	"errors"
	"os"
	"testing"

	"github.com/MyelinBots/wellness-sync/internal/apperr"
	"github.com/MyelinBots/wellness-sync/internal/remote"
	"github.com/google/uuid"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// openTestStore needs a disposable database; WS_TEST_PG_DSN is a plain
// Postgres DSN. Every test writes under its own random user id.
func openTestStore(t *testing.T) *Store {
	t.Helper()
	dsn := os.Getenv("WS_TEST_PG_DSN")
	if dsn == "" {
		t.Skip("WS_TEST_PG_DSN not set")
	}
	gdb, err := gorm.Open(postgres.Open(dsn), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	if err != nil {
		t.Fatalf("connect: %v", err)
	}
	s, err := New(context.Background(), gdb)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestSetMergeAndUpdate(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	uid := uuid.NewString()
	path := remote.UserPath(uid)

	if err := s.Update(ctx, path, map[string]any{"score": 1}); !errors.Is(err, apperr.ErrNotFound) {
		t.Fatalf("Update on missing doc: expected ErrNotFound, got %v", err)
	}

	if err := s.Set(ctx, path, map[string]any{"Name": "Ada", "Email": "ada@example.com"}); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if err := s.Set(ctx, path, map[string]any{"score": 45, "updatedAt": remote.ServerTimestamp}, remote.Merge()); err != nil {
		t.Fatalf("Set merge: %v", err)
	}

	doc, err := s.Get(ctx, path)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if name, _ := remote.String(doc.Fields, "Name"); name != "Ada" {
		t.Fatalf("merge dropped Name: %v", doc.Fields)
	}
	if remote.ScoreOf(doc.Fields) != 45 {
		t.Fatalf("expected score 45, got %v", doc.Fields["score"])
	}
	if _, ok := remote.Time(doc.Fields, "updatedAt"); !ok {
		t.Fatalf("expected resolved updatedAt, got %v", doc.Fields["updatedAt"])
	}

	if err := s.Update(ctx, path, map[string]any{"score": 50}); err != nil {
		t.Fatalf("Update: %v", err)
	}
	doc, _ = s.Get(ctx, path)
	if remote.ScoreOf(doc.Fields) != 50 {
		t.Fatalf("expected score 50, got %v", doc.Fields["score"])
	}
	if email, _ := remote.String(doc.Fields, "Email"); email != "ada@example.com" {
		t.Fatalf("update dropped Email: %v", doc.Fields)
	}
}

func TestListAndDelete(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	uid := uuid.NewString()

	for _, f := range []string{"b", "a"} {
		if err := s.Set(ctx, remote.FriendPath(uid, f), map[string]any{"friend_uid": f}); err != nil {
			t.Fatalf("Set: %v", err)
		}
	}
	docs, err := s.List(ctx, remote.FriendsCollection(uid))
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(docs) != 2 || docs[0].ID() != "a" || docs[1].ID() != "b" {
		t.Fatalf("unexpected list: %+v", docs)
	}

	for i := 0; i < 2; i++ {
		if err := s.Delete(ctx, remote.FriendPath(uid, "a")); err != nil {
			t.Fatalf("Delete #%d: %v", i, err)
		}
	}
	if _, err := s.Get(ctx, remote.FriendPath(uid, "a")); !errors.Is(err, apperr.ErrNotFound) {
		t.Fatalf("expected ErrNotFound after delete, got %v", err)
	}
}

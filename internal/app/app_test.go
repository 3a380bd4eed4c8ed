package app

import (
	"context"
	"path/filepath"
	"slices"
	"testing"
	"time"

	"github.com/MyelinBots/wellness-sync/config"
	streakrepo "github.com/MyelinBots/wellness-sync/internal/db/repositories/streak"
	"github.com/MyelinBots/wellness-sync/internal/logging"
	"github.com/MyelinBots/wellness-sync/internal/remote"
	"github.com/MyelinBots/wellness-sync/internal/services/badges"
	"github.com/MyelinBots/wellness-sync/internal/services/reconciler"
)

func testConfig(t *testing.T) config.Config {
	t.Helper()
	return config.Config{
		AppConfig:    config.AppConfig{APPName: "wellness-sync", Version: "test"},
		LocalConfig:  config.LocalConfig{Path: filepath.Join(t.TempDir(), "local.db")},
		RemoteConfig: config.RemoteConfig{Driver: DriverMemory},
		SyncConfig:   config.SyncConfig{TimeZone: "UTC", RecheckInterval: time.Minute},
	}
}

func openApp(t *testing.T) *App {
	t.Helper()
	a, err := New(context.Background(), testConfig(t), logging.Discard())
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	t.Cleanup(func() { _ = a.Close() })
	return a
}

func TestOpenRemote_UnknownDriver(t *testing.T) {
	if _, err := OpenRemote(context.Background(), config.RemoteConfig{Driver: "firestore"}); err == nil {
		t.Fatal("unknown driver accepted")
	}
}

func TestStartup_FirstOpenOfTheDay(t *testing.T) {
	a := openApp(t)
	ctx := context.Background()
	driver := reconciler.NewDriver(a.Reconciler, "u1", a.Log)

	rep, err := a.Startup(ctx, driver, "u1", time.Now())
	if err != nil {
		t.Fatalf("Startup: %v", err)
	}
	if !rep.Streak.Advanced || rep.Streak.Count != 1 {
		t.Errorf("streak = %+v", rep.Streak)
	}
	if len(rep.NewBadges) != 0 {
		t.Errorf("badges on day one = %v", rep.NewBadges)
	}
	if rep.Sync.Result != reconciler.Completed {
		t.Fatalf("sync = %s (%v)", rep.Sync.Result, rep.Sync.Err)
	}

	doc, err := a.Remote.Get(ctx, remote.UserPath("u1"))
	if err != nil {
		t.Fatalf("user doc: %v", err)
	}
	if got := remote.ScoreOf(doc.Fields); got != 0 {
		t.Errorf("remote score = %d, want 0", got)
	}

	// reopening the same day neither counts nor syncs again
	rep, err = a.Startup(ctx, driver, "u1", time.Now())
	if err != nil {
		t.Fatal(err)
	}
	if rep.Streak.Advanced {
		t.Error("second open advanced the streak")
	}
	if rep.Sync.Result != reconciler.SkippedNotDue {
		t.Errorf("second sync = %s", rep.Sync.Result)
	}
}

func TestStartup_AwardsMilestone(t *testing.T) {
	a := openApp(t)
	ctx := context.Background()
	now := time.Now()

	yesterday := now.In(time.UTC).AddDate(0, 0, -1).Format("2006-01-02")
	if err := streakrepo.NewStreakRepository(a.DB).SaveStreak(ctx, &streakrepo.Streak{Count: 6, LastCheckedDate: yesterday}); err != nil {
		t.Fatal(err)
	}

	rep, err := a.Startup(ctx, reconciler.NewDriver(a.Reconciler, "u1", a.Log), "u1", now)
	if err != nil {
		t.Fatalf("Startup: %v", err)
	}
	if rep.Streak.Count != 7 {
		t.Fatalf("streak = %d, want 7", rep.Streak.Count)
	}
	if !slices.Equal(rep.NewBadges, []string{badges.Streak7}) {
		t.Errorf("new badges = %v", rep.NewBadges)
	}
	// the sync pulled the awarded badge back into the cache
	if rep.Sync.Badges != 1 {
		t.Errorf("synced badges = %d, want 1", rep.Sync.Badges)
	}
}

func TestMicroAppsFeedTheSyncedScore(t *testing.T) {
	a := openApp(t)
	ctx := context.Background()

	if _, err := a.Activity.Complete(ctx, "stretch", "body"); err != nil {
		t.Fatal(err)
	}
	if _, err := a.SnapTask.BeginVerify(ctx, "water plants", ""); err != nil {
		t.Fatal(err)
	}
	if _, err := a.SnapTask.CompleteVerify(ctx); err != nil {
		t.Fatal(err)
	}

	out := reconciler.NewDriver(a.Reconciler, "u1", nil).Run(ctx, false)
	if out.Result != reconciler.Completed || out.Aggregate != 15 {
		t.Fatalf("sync = %s aggregate %d (%v)", out.Result, out.Aggregate, out.Err)
	}
	doc, err := a.Remote.Get(ctx, remote.UserPath("u1"))
	if err != nil {
		t.Fatal(err)
	}
	if got := remote.ScoreOf(doc.Fields); got != 15 {
		t.Errorf("remote score = %d, want 15", got)
	}
}

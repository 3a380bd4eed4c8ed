// Package app wires the local store, the remote store and every service for
// one process.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/MyelinBots/wellness-sync/config"
	"github.com/MyelinBots/wellness-sync/internal/db"
	"github.com/MyelinBots/wellness-sync/internal/db/repositories/activity"
	"github.com/MyelinBots/wellness-sync/internal/db/repositories/badge"
	"github.com/MyelinBots/wellness-sync/internal/db/repositories/friend"
	profilerepo "github.com/MyelinBots/wellness-sync/internal/db/repositories/profile"
	"github.com/MyelinBots/wellness-sync/internal/db/repositories/score"
	"github.com/MyelinBots/wellness-sync/internal/db/repositories/snap_task"
	streakrepo "github.com/MyelinBots/wellness-sync/internal/db/repositories/streak"
	"github.com/MyelinBots/wellness-sync/internal/db/repositories/sync_state"
	"github.com/MyelinBots/wellness-sync/internal/db/repositories/walk"
	"github.com/MyelinBots/wellness-sync/internal/logging"
	"github.com/MyelinBots/wellness-sync/internal/remote"
	"github.com/MyelinBots/wellness-sync/internal/remote/badgerdoc"
	"github.com/MyelinBots/wellness-sync/internal/remote/pgdoc"
	"github.com/MyelinBots/wellness-sync/internal/services/activityjar"
	"github.com/MyelinBots/wellness-sync/internal/services/aggregator"
	"github.com/MyelinBots/wellness-sync/internal/services/badges"
	"github.com/MyelinBots/wellness-sync/internal/services/friends"
	"github.com/MyelinBots/wellness-sync/internal/services/profile"
	"github.com/MyelinBots/wellness-sync/internal/services/reconciler"
	"github.com/MyelinBots/wellness-sync/internal/services/roamio"
	"github.com/MyelinBots/wellness-sync/internal/services/snaptask"
	"github.com/MyelinBots/wellness-sync/internal/services/streak"
)

const (
	DriverBadger   = "badger"
	DriverPostgres = "postgres"
	DriverMemory   = "memory"
)

type App struct {
	Config config.Config
	Log    *slog.Logger
	DB     *db.DB
	Remote remote.Store

	Scores    score.ScoreRepository
	SyncState sync_state.SyncStateRepository

	Aggregator aggregator.Service
	Reconciler reconciler.Service
	Friends    friends.Service
	Badges     badges.Service
	Streak     streak.Service
	Profile    profile.Service
	SnapTask   snaptask.Service
	Activity   activityjar.Service
	Roamio     roamio.Service
}

// OpenRemote picks the remote.Store implementation named by cfg.Driver.
func OpenRemote(ctx context.Context, cfg config.RemoteConfig) (remote.Store, error) {
	switch strings.ToLower(cfg.Driver) {
	case "", DriverBadger:
		return badgerdoc.Open(cfg.BadgerPath)
	case DriverPostgres:
		return pgdoc.Open(ctx, cfg)
	case DriverMemory:
		return badgerdoc.OpenInMemory()
	default:
		return nil, fmt.Errorf("unknown remote driver %q", cfg.Driver)
	}
}

// New opens both stores and builds the services. Close releases them.
func New(ctx context.Context, cfg config.Config, log *slog.Logger) (*App, error) {
	log = logging.Or(log, "app")

	database, err := db.Open(ctx, cfg.LocalConfig.Path, log)
	if err != nil {
		return nil, err
	}
	store, err := OpenRemote(ctx, cfg.RemoteConfig)
	if err != nil {
		_ = database.Close()
		return nil, err
	}
	return build(cfg, log, database, store), nil
}

func build(cfg config.Config, log *slog.Logger, database *db.DB, store remote.Store) *App {
	loc := cfg.SyncConfig.Location()

	scores := score.NewScoreRepository(database)
	friendCache := friend.NewFriendRepository(database)
	badgeCache := badge.NewBadgeRepository(database)
	state := sync_state.NewSyncStateRepository(database)

	agg := aggregator.New(scores, log)

	return &App{
		Config:     cfg,
		Log:        log,
		DB:         database,
		Remote:     store,
		Scores:     scores,
		SyncState:  state,
		Aggregator: agg,
		Reconciler: reconciler.New(agg, store, friendCache, badgeCache, state, log,
			reconciler.WithLocation(loc)),
		Friends:  friends.New(store, friendCache, log),
		Badges:   badges.New(store, badgeCache, log),
		Streak:   streak.New(streakrepo.NewStreakRepository(database), loc, cfg.SyncConfig.StreakResetOnMiss, log),
		Profile:  profile.New(store, profilerepo.NewProfileRepository(database), log),
		SnapTask: snaptask.New(snap_task.NewSnapTaskRepository(database, scores), agg, log),
		Activity: activityjar.New(activity.NewActivityRepository(database, scores), agg, loc, log),
		Roamio:   roamio.New(walk.NewWalkRepository(database, scores), agg, log),
	}
}

func (a *App) Close() error {
	return errors.Join(a.Remote.Close(), a.DB.Close())
}

type StartupReport struct {
	Streak    streak.Result
	NewBadges []string
	Sync      reconciler.Outcome
}

// Startup runs the app-open sequence: count today's check-in, award any
// reached milestone, then sync if today has not been synced yet. Only a
// local check-in failure aborts it; badge and sync problems are reported.
func (a *App) Startup(ctx context.Context, driver *reconciler.Driver, accountID string, now time.Time) (StartupReport, error) {
	var rep StartupReport

	res, err := a.Streak.CheckIn(ctx, now)
	if err != nil {
		return rep, fmt.Errorf("streak check-in: %w", err)
	}
	rep.Streak = res

	if accountID != "" {
		ids, err := a.Badges.EnsureMilestones(ctx, accountID, res.Count)
		if err != nil {
			a.Log.Warn("milestone badges not awarded", "account", accountID, "err", err)
		}
		rep.NewBadges = ids
	}

	rep.Sync = driver.Run(ctx, false)
	return rep, nil
}

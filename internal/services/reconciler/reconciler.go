// Package reconciler runs the once-per-calendar-day reconciliation between the
// device's local store and the account's remote documents.
package reconciler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/MyelinBots/wellness-sync/internal/apperr"
	"github.com/MyelinBots/wellness-sync/internal/db/repositories/badge"
	"github.com/MyelinBots/wellness-sync/internal/db/repositories/friend"
	"github.com/MyelinBots/wellness-sync/internal/db/repositories/sync_state"
	"github.com/MyelinBots/wellness-sync/internal/logging"
	"github.com/MyelinBots/wellness-sync/internal/remote"
	"github.com/MyelinBots/wellness-sync/internal/services/aggregator"
	"github.com/MyelinBots/wellness-sync/internal/services/badges"
	"github.com/MyelinBots/wellness-sync/internal/services/context_manager"
	"github.com/MyelinBots/wellness-sync/internal/services/friends"
	"github.com/google/uuid"
)

type Result int

const (
	Completed Result = iota
	SkippedNotDue
	// FailedLocalRead leaves the last-sync value untouched.
	FailedLocalRead
	// FailedRemoteWrite leaves the last-sync value untouched so the next
	// start retries.
	FailedRemoteWrite
	// PartialRemoteRead: the score push succeeded but the friend or badge
	// pull did not. The last-sync value is still advanced.
	PartialRemoteRead
)

func (r Result) String() string {
	switch r {
	case Completed:
		return "completed"
	case SkippedNotDue:
		return "skipped_not_due"
	case FailedLocalRead:
		return "failed_local_read"
	case FailedRemoteWrite:
		return "failed_remote_write"
	case PartialRemoteRead:
		return "partial_remote_read"
	default:
		return fmt.Sprintf("result(%d)", int(r))
	}
}

func (r Result) MarshalText() ([]byte, error) {
	return []byte(r.String()), nil
}

// Outcome is what one Sync call did. Err carries the first failure, if any.
type Outcome struct {
	Result    Result    `json:"result"`
	RunID     string    `json:"run_id,omitempty"`
	Aggregate int       `json:"aggregate"`
	Friends   int       `json:"friends"`
	Badges    int       `json:"badges"`
	At        time.Time `json:"at"`
	Err       error     `json:"-"`
}

// Advanced reports whether the run moved the persisted last-sync value.
func (o Outcome) Advanced() bool {
	return o.Result == Completed || o.Result == PartialRemoteRead
}

// IsSyncDue is true iff the two instants fall on different calendar dates
// in loc. Any input is valid; 0 means never synced.
func IsSyncDue(lastSyncMillis, nowMillis int64, loc *time.Location) bool {
	if loc == nil {
		loc = time.Local
	}
	a := time.UnixMilli(lastSyncMillis).In(loc)
	b := time.UnixMilli(nowMillis).In(loc)
	return a.Year() != b.Year() || a.YearDay() != b.YearDay()
}

type Service interface {
	// IsDue checks the persisted last-sync value against the clock.
	IsDue(ctx context.Context) (bool, error)
	// Sync reconciles when due and reports SkippedNotDue otherwise.
	Sync(ctx context.Context, accountID string) Outcome
	// SyncNow reconciles regardless of the last-sync date.
	SyncNow(ctx context.Context, accountID string) Outcome
}

type Impl struct {
	aggregator  aggregator.Service
	remote      remote.Store
	friendCache friend.FriendRepository
	badgeCache  badge.BadgeRepository
	state       sync_state.SyncStateRepository
	loc         *time.Location
	now         func() time.Time
	log         *slog.Logger
}

type Option func(*Impl)

func WithClock(now func() time.Time) Option {
	return func(s *Impl) { s.now = now }
}

func WithLocation(loc *time.Location) Option {
	return func(s *Impl) {
		if loc != nil {
			s.loc = loc
		}
	}
}

func New(
	agg aggregator.Service,
	store remote.Store,
	friendCache friend.FriendRepository,
	badgeCache badge.BadgeRepository,
	state sync_state.SyncStateRepository,
	log *slog.Logger,
	opts ...Option,
) Service {
	s := &Impl{
		aggregator:  agg,
		remote:      store,
		friendCache: friendCache,
		badgeCache:  badgeCache,
		state:       state,
		loc:         time.Local,
		now:         time.Now,
		log:         logging.Or(log, "reconciler"),
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

func (s *Impl) IsDue(ctx context.Context) (bool, error) {
	last, err := s.state.GetLastSync(ctx)
	if err != nil {
		return false, err
	}
	return IsSyncDue(last, s.now().UnixMilli(), s.loc), nil
}

func (s *Impl) Sync(ctx context.Context, accountID string) Outcome {
	now := s.now()
	last, err := s.state.GetLastSync(ctx)
	if err != nil {
		s.log.Warn("cannot read last sync", "err", err)
		return Outcome{Result: FailedLocalRead, At: now, Err: err}
	}
	if !IsSyncDue(last, now.UnixMilli(), s.loc) {
		s.log.Debug("sync not due", "last_sync", time.UnixMilli(last).In(s.loc).Format(time.DateOnly))
		return Outcome{Result: SkippedNotDue, At: now}
	}
	return s.run(ctx, accountID, now)
}

func (s *Impl) SyncNow(ctx context.Context, accountID string) Outcome {
	return s.run(ctx, accountID, s.now())
}

// run executes aggregate, push, pull and timestamp strictly in order.
func (s *Impl) run(ctx context.Context, accountID string, now time.Time) Outcome {
	out := Outcome{RunID: uuid.NewString(), At: now}
	ctx = context_manager.SetRunContext(ctx, out.RunID)
	log := s.log.With("run_id", out.RunID, "uid", accountID)

	accountID = strings.TrimSpace(accountID)
	if accountID == "" {
		out.Result = FailedLocalRead
		out.Err = errors.New("no signed-in account")
		return out
	}

	total, err := s.aggregator.AggregateAndPublish(ctx, accountID)
	if err != nil {
		log.Warn("aggregate failed", "err", err)
		out.Result = FailedLocalRead
		out.Err = err
		return out
	}
	out.Aggregate = total

	err = s.remote.Set(ctx, remote.UserPath(accountID), map[string]any{
		remote.FieldScore:     total,
		remote.FieldUpdatedAt: remote.ServerTimestamp,
	}, remote.Merge())
	if err != nil {
		log.Warn("score push failed", "score", total, "err", err)
		out.Result = FailedRemoteWrite
		out.Err = apperr.Remote(err)
		return out
	}

	out.Result = Completed
	if n, err := s.pullFriends(ctx, accountID); err != nil {
		log.Warn("friend pull failed", "err", err)
		out.Result = PartialRemoteRead
		out.Err = err
	} else {
		out.Friends = n
	}
	if n, err := s.pullBadges(ctx, accountID); err != nil {
		log.Warn("badge pull failed", "err", err)
		out.Result = PartialRemoteRead
		if out.Err == nil {
			out.Err = err
		}
	} else {
		out.Badges = n
	}

	if err := s.state.SetLastSync(ctx, now.UnixMilli()); err != nil {
		log.Error("cannot persist last sync", "err", err)
		out.Result = FailedLocalRead
		out.Err = err
		return out
	}

	log.Info("sync finished", "result", out.Result.String(), "score", total, "friends", out.Friends, "badges", out.Badges)
	return out
}

// pullFriends replaces the local friend cache with the remote subtree. The
// cache is left as it was when any remote read fails.
func (s *Impl) pullFriends(ctx context.Context, owner string) (int, error) {
	docs, err := s.remote.List(ctx, remote.FriendsCollection(owner))
	if err != nil {
		return 0, err
	}

	rows := make([]*friend.Friend, 0, len(docs))
	for _, doc := range docs {
		f, ok := friends.FromDocument(doc)
		if !ok {
			s.log.Warn("skipping malformed friend document", "path", doc.Path)
			continue
		}
		score, err := friends.Score(ctx, s.remote, f.FriendUID)
		if err != nil {
			return 0, err
		}
		f.Score = score
		rows = append(rows, f)
	}

	if err := s.friendCache.ReplaceFriends(ctx, rows); err != nil {
		return 0, err
	}
	return len(rows), nil
}

func (s *Impl) pullBadges(ctx context.Context, uid string) (int, error) {
	docs, err := s.remote.List(ctx, remote.BadgesCollection(uid))
	if err != nil {
		return 0, err
	}
	rows := make([]*badge.Badge, 0, len(docs))
	for _, doc := range docs {
		rows = append(rows, badges.FromDocument(doc))
	}
	if err := s.badgeCache.ReplaceBadges(ctx, rows); err != nil {
		return 0, err
	}
	return len(rows), nil
}

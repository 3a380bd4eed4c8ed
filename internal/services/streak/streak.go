package streak

import (
	"context"
	"log/slog"
	"time"

	streakrepo "github.com/MyelinBots/wellness-sync/internal/db/repositories/streak"
	"github.com/MyelinBots/wellness-sync/internal/logging"
)

type Result struct {
	Advanced bool   // false when today was already counted
	Count    int    // streak after the check-in
	Previous int    // streak before the check-in
	Date     string // today in the configured zone, YYYY-MM-DD
	Reset    bool
}

type Service interface {
	// CheckIn counts today at most once. A missed day only resets the
	// streak when the service was built with resetOnMiss.
	CheckIn(ctx context.Context, now time.Time) (Result, error)
	Current(ctx context.Context) (*streakrepo.Streak, error)
}

type Impl struct {
	repo        streakrepo.StreakRepository
	loc         *time.Location
	resetOnMiss bool
	log         *slog.Logger
}

func New(repo streakrepo.StreakRepository, loc *time.Location, resetOnMiss bool, log *slog.Logger) Service {
	if loc == nil {
		loc = time.Local
	}
	return &Impl{repo: repo, loc: loc, resetOnMiss: resetOnMiss, log: logging.Or(log, "streak")}
}

func (s *Impl) dateOf(t time.Time) string {
	return t.In(s.loc).Format(time.DateOnly)
}

func (s *Impl) Current(ctx context.Context) (*streakrepo.Streak, error) {
	return s.repo.GetStreak(ctx)
}

func (s *Impl) CheckIn(ctx context.Context, now time.Time) (Result, error) {
	cur, err := s.repo.GetStreak(ctx)
	if err != nil {
		return Result{}, err
	}

	today := s.dateOf(now)
	res := Result{Count: cur.Count, Previous: cur.Count, Date: today}

	last := cur.LastCheckedDate
	if last != "" {
		if _, err := time.ParseInLocation(time.DateOnly, last, s.loc); err != nil {
			s.log.Warn("unreadable streak date, counting today", "last_checked_date", last)
			last = ""
		}
	}

	// Once per calendar day. A stored date ahead of today means the clock
	// moved backwards; leave the streak alone until it catches up.
	if last == today || (last != "" && last > today) {
		return res, nil
	}

	next := cur.Count + 1
	if s.resetOnMiss && last != "" && last != s.dateOf(now.In(s.loc).AddDate(0, 0, -1)) {
		next = 1
		res.Reset = true
	}

	if err := s.repo.SaveStreak(ctx, &streakrepo.Streak{Count: next, LastCheckedDate: today}); err != nil {
		return Result{}, err
	}

	res.Advanced = true
	res.Count = next
	s.log.Debug("streak check-in", "date", today, "count", next, "reset", res.Reset)
	return res, nil
}

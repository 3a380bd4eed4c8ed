// Package badges awards streak milestone badges. The remote badge set is
// append-only and authoritative; the local badges table mirrors it.
package badges

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/MyelinBots/wellness-sync/internal/apperr"
	"github.com/MyelinBots/wellness-sync/internal/db/repositories/badge"
	"github.com/MyelinBots/wellness-sync/internal/logging"
	"github.com/MyelinBots/wellness-sync/internal/remote"
)

const (
	Streak7  = "streak_7"
	Streak14 = "streak_14"
	Streak30 = "streak_30"
)

type Milestone struct {
	BadgeID string
	Streak  int
	Title   string
}

// Milestones is ordered by streak length.
var Milestones = []Milestone{
	{BadgeID: Streak7, Streak: 7, Title: "One Week Glow"},
	{BadgeID: Streak14, Streak: 14, Title: "Fortnight Flow"},
	{BadgeID: Streak30, Streak: 30, Title: "Month of Mindfulness"},
}

// Reached lists the milestones a streak of this length has earned.
func Reached(streak int) []Milestone {
	var out []Milestone
	for _, m := range Milestones {
		if streak >= m.Streak {
			out = append(out, m)
		}
	}
	return out
}

// Crossed lists milestones earned moving from oldStreak to newStreak.
func Crossed(oldStreak, newStreak int) []Milestone {
	var out []Milestone
	for _, m := range Milestones {
		if oldStreak < m.Streak && newStreak >= m.Streak {
			out = append(out, m)
		}
	}
	return out
}

func TitleForStreak(streak int) string {
	switch {
	case streak >= 30:
		return "Month of Mindfulness"
	case streak >= 14:
		return "Fortnight Flow"
	case streak >= 7:
		return "One Week Glow"
	default:
		return "Fresh Start"
	}
}

type Service interface {
	// EnsureMilestones awards every reached milestone the account is missing
	// and returns the newly awarded ids. Safe to call repeatedly.
	EnsureMilestones(ctx context.Context, uid string, streak int) ([]string, error)
	// Award reports whether the badge was newly created.
	Award(ctx context.Context, uid, badgeID string) (bool, error)
	Cached(ctx context.Context) ([]*badge.Badge, error)
}

type Impl struct {
	remote remote.Store
	cache  badge.BadgeRepository
	now    func() time.Time
	log    *slog.Logger
}

func New(store remote.Store, cache badge.BadgeRepository, log *slog.Logger) Service {
	return &Impl{
		remote: store,
		cache:  cache,
		now:    func() time.Time { return time.Now().UTC() },
		log:    logging.Or(log, "badges"),
	}
}

func (s *Impl) EnsureMilestones(ctx context.Context, uid string, streak int) ([]string, error) {
	var awarded []string
	for _, m := range Reached(streak) {
		created, err := s.Award(ctx, uid, m.BadgeID)
		if err != nil {
			return awarded, err
		}
		if created {
			awarded = append(awarded, m.BadgeID)
		}
	}
	return awarded, nil
}

func (s *Impl) Award(ctx context.Context, uid, badgeID string) (bool, error) {
	uid = strings.TrimSpace(uid)
	badgeID = strings.TrimSpace(badgeID)
	if uid == "" || badgeID == "" {
		return false, errors.New("uid and badge id are required")
	}
	path := remote.BadgePath(uid, badgeID)

	existing, err := s.remote.Get(ctx, path)
	if err == nil {
		s.mirror(ctx, FromDocument(existing))
		return false, nil
	}
	if !errors.Is(err, apperr.ErrNotFound) {
		return false, apperr.Remote(err)
	}

	err = s.remote.Set(ctx, path, map[string]any{
		remote.FieldBadgeID:   badgeID,
		remote.FieldAwardedAt: remote.ServerTimestamp,
	}, remote.Merge())
	if err != nil {
		return false, apperr.Remote(fmt.Errorf("award %s: %w", badgeID, err))
	}

	s.log.Info("badge awarded", "uid", uid, "badge", badgeID)
	s.mirror(ctx, &badge.Badge{BadgeID: badgeID, AwardedAt: s.now()})
	return true, nil
}

func (s *Impl) Cached(ctx context.Context) ([]*badge.Badge, error) {
	return s.cache.ListBadges(ctx)
}

func (s *Impl) mirror(ctx context.Context, b *badge.Badge) {
	if err := s.cache.InsertBadge(ctx, b); err != nil {
		s.log.Warn("badge cache not updated", "badge", b.BadgeID, "err", err)
	}
}

// FromDocument decodes users/{uid}/badges/{id}, falling back to the document
// id and create time for missing fields.
func FromDocument(doc *remote.Document) *badge.Badge {
	id, _ := remote.String(doc.Fields, remote.FieldBadgeID)
	if id == "" {
		id = doc.ID()
	}
	at, ok := remote.Time(doc.Fields, remote.FieldAwardedAt)
	if !ok {
		at = doc.CreateTime
	}
	return &badge.Badge{BadgeID: id, AwardedAt: at.UTC()}
}

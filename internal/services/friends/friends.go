// Package friends is the friend directory: relationship documents under
// users/{owner}/friends, with the local friends table as a read cache.
package friends

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strings"

	"github.com/MyelinBots/wellness-sync/internal/apperr"
	"github.com/MyelinBots/wellness-sync/internal/db/repositories/friend"
	"github.com/MyelinBots/wellness-sync/internal/logging"
	"github.com/MyelinBots/wellness-sync/internal/remote"
)

// Service follows NONE -> PENDING -> ACCEPTED, with Remove going back to
// NONE from any state. Remote failures come back as ErrRemoteUnavailable.
type Service interface {
	// Request creates or refreshes a pending request. It updates the name of
	// an accepted relationship but never moves it back to pending.
	Request(ctx context.Context, owner, friendUID, friendName string) error
	// Accept fails with apperr.ErrNotFound when no request exists.
	Accept(ctx context.Context, owner, friendUID string) error
	// Remove is idempotent.
	Remove(ctx context.Context, owner, friendUID string) error
	// ListFriends joins each relationship with the friend's global score,
	// 0 when the friend has none. Sorted by friend uid.
	ListFriends(ctx context.Context, owner string) ([]*friend.Friend, error)
	// CachedFriends reads the local cache without touching the network.
	CachedFriends(ctx context.Context) ([]*friend.Friend, error)
}

type Impl struct {
	remote remote.Store
	cache  friend.FriendRepository
	log    *slog.Logger
}

func New(store remote.Store, cache friend.FriendRepository, log *slog.Logger) Service {
	return &Impl{remote: store, cache: cache, log: logging.Or(log, "friends")}
}

func validPair(owner, friendUID string) (string, string, error) {
	owner = strings.TrimSpace(owner)
	friendUID = strings.TrimSpace(friendUID)
	if owner == "" || friendUID == "" {
		return "", "", errors.New("owner and friend uid are required")
	}
	if strings.Contains(owner, "/") || strings.Contains(friendUID, "/") {
		return "", "", fmt.Errorf("invalid uid pair %q/%q", owner, friendUID)
	}
	if owner == friendUID {
		return "", "", errors.New("cannot add yourself as a friend")
	}
	return owner, friendUID, nil
}

func (s *Impl) Request(ctx context.Context, owner, friendUID, friendName string) error {
	owner, friendUID, err := validPair(owner, friendUID)
	if err != nil {
		return err
	}
	path := remote.FriendPath(owner, friendUID)

	status := friend.StatusPending
	existing, err := s.remote.Get(ctx, path)
	switch {
	case err == nil:
		if f, ok := FromDocument(existing); ok && f.Status == friend.StatusAccepted {
			status = friend.StatusAccepted
		}
	case errors.Is(err, apperr.ErrNotFound):
	default:
		return apperr.Remote(err)
	}

	fields := map[string]any{
		remote.FieldFriendUID:  friendUID,
		remote.FieldFriendName: friendName,
	}
	if status == friend.StatusPending {
		fields[remote.FieldFriendStatus] = string(friend.StatusPending)
	}
	if err := s.remote.Set(ctx, path, fields, remote.Merge()); err != nil {
		return apperr.Remote(err)
	}

	s.log.Info("friend request", "owner", owner, "friend", friendUID, "status", status)
	s.mirror(func() error {
		return s.cache.UpsertFriend(ctx, &friend.Friend{FriendUID: friendUID, DisplayName: friendName, Status: status})
	})
	return nil
}

func (s *Impl) Accept(ctx context.Context, owner, friendUID string) error {
	owner, friendUID, err := validPair(owner, friendUID)
	if err != nil {
		return err
	}

	err = s.remote.Update(ctx, remote.FriendPath(owner, friendUID), map[string]any{
		remote.FieldFriendStatus: string(friend.StatusAccepted),
	})
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			return fmt.Errorf("no friend request from %s to %s: %w", owner, friendUID, apperr.ErrNotFound)
		}
		return apperr.Remote(err)
	}

	s.log.Info("friend accepted", "owner", owner, "friend", friendUID)
	s.mirror(func() error {
		doc, err := s.remote.Get(ctx, remote.FriendPath(owner, friendUID))
		if err != nil {
			return err
		}
		f, ok := FromDocument(doc)
		if !ok {
			return nil
		}
		return s.cache.UpsertFriend(ctx, f)
	})
	return nil
}

func (s *Impl) Remove(ctx context.Context, owner, friendUID string) error {
	owner, friendUID, err := validPair(owner, friendUID)
	if err != nil {
		return err
	}
	if err := s.remote.Delete(ctx, remote.FriendPath(owner, friendUID)); err != nil {
		return apperr.Remote(err)
	}

	s.log.Info("friend removed", "owner", owner, "friend", friendUID)
	s.mirror(func() error { return s.cache.DeleteFriend(ctx, friendUID) })
	return nil
}

func (s *Impl) ListFriends(ctx context.Context, owner string) ([]*friend.Friend, error) {
	owner = strings.TrimSpace(owner)
	if owner == "" {
		return nil, errors.New("owner uid is required")
	}

	docs, err := s.remote.List(ctx, remote.FriendsCollection(owner))
	if err != nil {
		return nil, apperr.Remote(err)
	}

	out := make([]*friend.Friend, 0, len(docs))
	for _, doc := range docs {
		f, ok := FromDocument(doc)
		if !ok {
			s.log.Warn("skipping malformed friend document", "path", doc.Path)
			continue
		}
		score, err := Score(ctx, s.remote, f.FriendUID)
		if err != nil {
			return nil, err
		}
		f.Score = score
		out = append(out, f)
	}

	slices.SortFunc(out, func(a, b *friend.Friend) int {
		return strings.Compare(a.FriendUID, b.FriendUID)
	})
	return out, nil
}

func (s *Impl) CachedFriends(ctx context.Context) ([]*friend.Friend, error) {
	return s.cache.ListFriends(ctx)
}

// mirror applies a best-effort cache write. The next sync replaces the
// whole cache, so a failure here is only logged.
func (s *Impl) mirror(fn func() error) {
	if s.cache == nil {
		return
	}
	if err := fn(); err != nil {
		s.log.Warn("friend cache not updated", "err", err)
	}
}

// FromDocument decodes users/{owner}/friends/{uid}. Documents with an unknown
// status are rejected.
func FromDocument(doc *remote.Document) (*friend.Friend, bool) {
	uid, _ := remote.String(doc.Fields, remote.FieldFriendUID)
	if uid == "" {
		uid = doc.ID()
	}
	name, _ := remote.String(doc.Fields, remote.FieldFriendName)
	status, _ := remote.String(doc.Fields, remote.FieldFriendStatus)

	switch friend.Status(status) {
	case friend.StatusPending, friend.StatusAccepted:
	default:
		return nil, false
	}
	return &friend.Friend{FriendUID: uid, DisplayName: name, Status: friend.Status(status)}, true
}

// Score reads users/{uid}.score; an absent document scores 0.
func Score(ctx context.Context, store remote.Store, uid string) (int, error) {
	doc, err := store.Get(ctx, remote.UserPath(uid))
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			return 0, nil
		}
		return 0, apperr.Remote(err)
	}
	return remote.ScoreOf(doc.Fields), nil
}

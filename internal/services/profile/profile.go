package profile

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/mail"
	"strings"
	"time"

	"github.com/MyelinBots/wellness-sync/internal/apperr"
	profilerepo "github.com/MyelinBots/wellness-sync/internal/db/repositories/profile"
	"github.com/MyelinBots/wellness-sync/internal/logging"
	"github.com/MyelinBots/wellness-sync/internal/remote"
)

type Service interface {
	// SignUp writes the account profile remotely, then locally. Calling it
	// again for the same uid keeps the original createdAt.
	SignUp(ctx context.Context, uid, name, email string) (*profilerepo.UserProfile, error)
	Update(ctx context.Context, uid, name, email string) (*profilerepo.UserProfile, error)
	// Get reads the local copy; apperr.ErrNotFound before sign-up.
	Get(ctx context.Context, uid string) (*profilerepo.UserProfile, error)
	// Refresh copies the remote Name and Email into the local profile.
	Refresh(ctx context.Context, uid string) (*profilerepo.UserProfile, error)
}

type Impl struct {
	remote remote.Store
	repo   profilerepo.ProfileRepository
	now    func() time.Time
	log    *slog.Logger
}

func New(store remote.Store, repo profilerepo.ProfileRepository, log *slog.Logger) Service {
	return &Impl{
		remote: store,
		repo:   repo,
		now:    func() time.Time { return time.Now().UTC() },
		log:    logging.Or(log, "profile"),
	}
}

func validate(uid, name, email string) (string, string, string, error) {
	uid = strings.TrimSpace(uid)
	name = strings.TrimSpace(name)
	email = strings.TrimSpace(email)
	if uid == "" || strings.Contains(uid, "/") {
		return "", "", "", fmt.Errorf("invalid uid %q", uid)
	}
	if email != "" {
		if _, err := mail.ParseAddress(email); err != nil {
			return "", "", "", fmt.Errorf("invalid email %q: %w", email, err)
		}
	}
	return uid, name, email, nil
}

func (s *Impl) SignUp(ctx context.Context, uid, name, email string) (*profilerepo.UserProfile, error) {
	uid, name, email, err := validate(uid, name, email)
	if err != nil {
		return nil, err
	}

	fields := map[string]any{
		remote.FieldName:      name,
		remote.FieldEmail:     email,
		remote.FieldUpdatedAt: remote.ServerTimestamp,
	}
	existing, err := s.remote.Get(ctx, remote.UserPath(uid))
	switch {
	case err == nil:
		if _, ok := remote.Time(existing.Fields, remote.FieldCreatedAt); !ok {
			fields[remote.FieldCreatedAt] = remote.ServerTimestamp
		}
	case errors.Is(err, apperr.ErrNotFound):
		fields[remote.FieldCreatedAt] = remote.ServerTimestamp
	default:
		return nil, apperr.Remote(err)
	}

	if err := s.remote.Set(ctx, remote.UserPath(uid), fields, remote.Merge()); err != nil {
		return nil, apperr.Remote(err)
	}

	now := s.now()
	p := &profilerepo.UserProfile{UID: uid, Name: name, Email: email, CreatedAt: now, UpdatedAt: now}
	if err := s.repo.UpsertProfile(ctx, p); err != nil {
		return nil, err
	}
	s.log.Info("account signed up", "uid", uid)
	return p, nil
}

func (s *Impl) Update(ctx context.Context, uid, name, email string) (*profilerepo.UserProfile, error) {
	uid, name, email, err := validate(uid, name, email)
	if err != nil {
		return nil, err
	}

	err = s.remote.Set(ctx, remote.UserPath(uid), map[string]any{
		remote.FieldName:      name,
		remote.FieldEmail:     email,
		remote.FieldUpdatedAt: remote.ServerTimestamp,
	}, remote.Merge())
	if err != nil {
		return nil, apperr.Remote(err)
	}

	now := s.now()
	p := &profilerepo.UserProfile{UID: uid, Name: name, Email: email, CreatedAt: now, UpdatedAt: now}
	if err := s.repo.UpsertProfile(ctx, p); err != nil {
		return nil, err
	}
	return s.Get(ctx, uid)
}

func (s *Impl) Get(ctx context.Context, uid string) (*profilerepo.UserProfile, error) {
	p, err := s.repo.GetProfile(ctx, uid)
	if err != nil {
		return nil, err
	}
	if p == nil {
		return nil, fmt.Errorf("profile %s: %w", uid, apperr.ErrNotFound)
	}
	return p, nil
}

func (s *Impl) Refresh(ctx context.Context, uid string) (*profilerepo.UserProfile, error) {
	uid = strings.TrimSpace(uid)
	doc, err := s.remote.Get(ctx, remote.UserPath(uid))
	if err != nil {
		return nil, apperr.Remote(err)
	}

	name, _ := remote.String(doc.Fields, remote.FieldName)
	email, _ := remote.String(doc.Fields, remote.FieldEmail)
	created, ok := remote.Time(doc.Fields, remote.FieldCreatedAt)
	if !ok {
		created = doc.CreateTime
	}
	updated, ok := remote.Time(doc.Fields, remote.FieldUpdatedAt)
	if !ok {
		updated = doc.UpdateTime
	}

	p := &profilerepo.UserProfile{UID: uid, Name: name, Email: email, CreatedAt: created.UTC(), UpdatedAt: updated.UTC()}
	if err := s.repo.UpsertProfile(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}

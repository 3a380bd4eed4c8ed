// Package apperr holds the error kinds shared by the local store, the remote
// store and the services on top of them. Callers test kinds with errors.Is.
package apperr

import (
	"errors"
	"fmt"
)

var (
	// ErrLocalUnavailable: the local store could not be opened or queried.
	ErrLocalUnavailable = errors.New("local store unavailable")
	// ErrRemoteUnavailable: network, auth or quota failure talking to the remote store.
	ErrRemoteUnavailable = errors.New("remote store unavailable")
	// ErrNotFound: an expected-absent state, e.g. accepting a request that was never made.
	ErrNotFound = errors.New("not found")
	// ErrCorrupt: persisted state exists but cannot be decoded.
	ErrCorrupt = errors.New("corrupt persisted state")
	// ErrConflict: a single-slot pending operation is already in progress.
	ErrConflict = errors.New("operation already in progress")
)

func wrap(kind, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, kind) {
		return err
	}
	return fmt.Errorf("%w: %w", kind, err)
}

// Local tags err as ErrLocalUnavailable unless it already carries a kind.
func Local(err error) error {
	if IsKinded(err) {
		return err
	}
	return wrap(ErrLocalUnavailable, err)
}

// Remote tags err as ErrRemoteUnavailable unless it already carries a kind.
func Remote(err error) error {
	if IsKinded(err) {
		return err
	}
	return wrap(ErrRemoteUnavailable, err)
}

func Corrupt(err error) error {
	return wrap(ErrCorrupt, err)
}

// IsKinded reports whether err already wraps one of the package kinds.
func IsKinded(err error) bool {
	for _, kind := range []error{ErrLocalUnavailable, ErrRemoteUnavailable, ErrNotFound, ErrCorrupt, ErrConflict} {
		if errors.Is(err, kind) {
			return true
		}
	}
	return false
}

// Package remote is the narrow document-store API the services talk to. It is
// modelled on a hierarchical cloud document store: documents live at
// slash-separated paths ("users/u1", "users/u1/friends/u2") and hold a flat
// map of fields.
package remote

import (
	"context"
	"fmt"
	"strings"
	"time"
)

//go:generate mockgen -source=store.go -destination=mocks/mock_store.go -package=mocks

// Store is implemented by badgerdoc (embedded) and pgdoc (Postgres). Every
// call blocks until the backend answers or ctx is done. Errors are tagged
// with apperr kinds: ErrNotFound, ErrRemoteUnavailable or ErrCorrupt.
type Store interface {
	// Get returns apperr.ErrNotFound when the document does not exist.
	Get(ctx context.Context, path string) (*Document, error)
	// Set creates or overwrites the document. With Merge() only the given
	// fields are written and the rest are preserved.
	Set(ctx context.Context, path string, fields map[string]any, opts ...SetOption) error
	// Update merges fields into an existing document and fails with
	// apperr.ErrNotFound instead of creating one.
	Update(ctx context.Context, path string, fields map[string]any) error
	// Delete is idempotent.
	Delete(ctx context.Context, path string) error
	// List returns the direct children of a collection, ordered by path.
	List(ctx context.Context, collection string) ([]*Document, error)
	Close() error
}

type Document struct {
	Path       string
	Fields     map[string]any
	CreateTime time.Time
	UpdateTime time.Time
}

// ID is the last path segment.
func (d *Document) ID() string {
	return LastSegment(d.Path)
}

type setOptions struct {
	merge bool
}

type SetOption func(*setOptions)

// Merge makes Set preserve fields it does not mention.
func Merge() SetOption {
	return func(o *setOptions) { o.merge = true }
}

// ApplySetOptions is shared by the Store implementations.
func ApplySetOptions(opts []SetOption) (merge bool) {
	var o setOptions
	for _, opt := range opts {
		if opt != nil {
			opt(&o)
		}
	}
	return o.merge
}

type serverTimestamp struct{}

// ServerTimestamp as a field value is replaced by the store's clock at write time.
var ServerTimestamp any = serverTimestamp{}

// ResolveServerTimestamps returns a copy of fields with every ServerTimestamp
// replaced by now.
func ResolveServerTimestamps(fields map[string]any, now time.Time) map[string]any {
	out := make(map[string]any, len(fields))
	for k, v := range fields {
		if _, ok := v.(serverTimestamp); ok {
			out[k] = now
			continue
		}
		out[k] = v
	}
	return out
}

// CleanPath trims slashes and rejects empty segments.
func CleanPath(path string) (string, error) {
	p := strings.Trim(strings.TrimSpace(path), "/")
	if p == "" {
		return "", fmt.Errorf("empty document path")
	}
	for _, seg := range strings.Split(p, "/") {
		if seg == "" {
			return "", fmt.Errorf("invalid document path %q", path)
		}
	}
	return p, nil
}

// ValidateDocumentPath requires an even number of segments (collection/id pairs).
func ValidateDocumentPath(path string) (string, error) {
	p, err := CleanPath(path)
	if err != nil {
		return "", err
	}
	if strings.Count(p, "/")%2 != 1 {
		return "", fmt.Errorf("%q is not a document path", path)
	}
	return p, nil
}

// ValidateCollectionPath requires an odd number of segments.
func ValidateCollectionPath(path string) (string, error) {
	p, err := CleanPath(path)
	if err != nil {
		return "", err
	}
	if strings.Count(p, "/")%2 != 0 {
		return "", fmt.Errorf("%q is not a collection path", path)
	}
	return p, nil
}

// Parent is the collection a document path belongs to.
func Parent(path string) string {
	i := strings.LastIndex(path, "/")
	if i < 0 {
		return ""
	}
	return path[:i]
}

func LastSegment(path string) string {
	return path[strings.LastIndex(path, "/")+1:]
}

// Package badgerdoc is an embedded remote.Store on Badger. Documents are
// msgpack-encoded under "d/<path>", so a collection's children share the
// prefix "d/<collection>/".
package badgerdoc

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/MyelinBots/wellness-sync/internal/apperr"
	"github.com/MyelinBots/wellness-sync/internal/remote"
	"github.com/dgraph-io/badger/v4"
	"github.com/vmihailenco/msgpack/v5"
)

const keyPrefix = "d/"

type record struct {
	Fields     map[string]any `msgpack:"f"`
	CreateTime time.Time      `msgpack:"c"`
	UpdateTime time.Time      `msgpack:"u"`
}

type Store struct {
	db    *badger.DB
	clock func() time.Time
}

type Option func(*Store)

// WithClock overrides the server timestamp source.
func WithClock(clock func() time.Time) Option {
	return func(s *Store) { s.clock = clock }
}

// Open opens (creating if needed) a Badger directory at path.
func Open(path string, options ...Option) (*Store, error) {
	opts := badger.DefaultOptions(path)
	opts.Logger = nil
	return open(opts, options)
}

// OpenInMemory keeps everything in memory; used by tests and dry runs.
func OpenInMemory(options ...Option) (*Store, error) {
	opts := badger.DefaultOptions("").WithInMemory(true)
	opts.Logger = nil
	return open(opts, options)
}

func open(opts badger.Options, options []Option) (*Store, error) {
	db, err := badger.Open(opts)
	if err != nil {
		return nil, apperr.Remote(fmt.Errorf("open badger: %w", err))
	}
	s := &Store{db: db, clock: func() time.Time { return time.Now().UTC() }}
	for _, o := range options {
		if o != nil {
			o(s)
		}
	}
	return s, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

func docKey(path string) []byte {
	return []byte(keyPrefix + path)
}

func (s *Store) Get(ctx context.Context, path string) (*remote.Document, error) {
	p, err := remote.ValidateDocumentPath(path)
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, apperr.Remote(err)
	}

	var rec *record
	err = s.db.View(func(txn *badger.Txn) error {
		r, err := readRecord(txn, p)
		rec = r
		return err
	})
	if err != nil {
		return nil, apperr.Remote(err)
	}
	if rec == nil {
		return nil, fmt.Errorf("%s: %w", p, apperr.ErrNotFound)
	}
	return toDocument(p, rec), nil
}

func (s *Store) Set(ctx context.Context, path string, fields map[string]any, opts ...remote.SetOption) error {
	merge := remote.ApplySetOptions(opts)
	return s.write(ctx, path, fields, func(existing *record) (bool, bool) {
		return merge, true
	})
}

func (s *Store) Update(ctx context.Context, path string, fields map[string]any) error {
	return s.write(ctx, path, fields, func(existing *record) (bool, bool) {
		return true, existing != nil
	})
}

// write is the shared read-modify-write. decide reports (merge, allowed)
// for the current record, nil when absent.
func (s *Store) write(ctx context.Context, path string, fields map[string]any, decide func(existing *record) (merge, allowed bool)) error {
	p, err := remote.ValidateDocumentPath(path)
	if err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return apperr.Remote(err)
	}

	now := s.clock()
	resolved := remote.ResolveServerTimestamps(fields, now)

	err = s.db.Update(func(txn *badger.Txn) error {
		existing, err := readRecord(txn, p)
		if err != nil {
			return err
		}
		merge, allowed := decide(existing)
		if !allowed {
			return fmt.Errorf("%s: %w", p, apperr.ErrNotFound)
		}

		rec := &record{Fields: resolved, CreateTime: now, UpdateTime: now}
		if existing != nil {
			rec.CreateTime = existing.CreateTime
			if merge {
				combined := existing.Fields
				if combined == nil {
					combined = make(map[string]any, len(resolved))
				}
				for k, v := range resolved {
					combined[k] = v
				}
				rec.Fields = combined
			}
		}

		val, err := msgpack.Marshal(rec)
		if err != nil {
			return fmt.Errorf("encode %s: %w", p, err)
		}
		return txn.Set(docKey(p), val)
	})
	return apperr.Remote(err)
}

func (s *Store) Delete(ctx context.Context, path string) error {
	p, err := remote.ValidateDocumentPath(path)
	if err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return apperr.Remote(err)
	}
	err = s.db.Update(func(txn *badger.Txn) error {
		return txn.Delete(docKey(p))
	})
	if err != nil {
		return apperr.Remote(err)
	}
	return nil
}

func (s *Store) List(ctx context.Context, collection string) ([]*remote.Document, error) {
	c, err := remote.ValidateCollectionPath(collection)
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, apperr.Remote(err)
	}

	prefix := docKey(c + "/")
	var docs []*remote.Document
	err = s.db.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.IteratorOptions{Prefix: prefix, PrefetchValues: true, PrefetchSize: 32})
		defer it.Close()

		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			item := it.Item()
			rest := bytes.TrimPrefix(item.Key(), prefix)
			if bytes.IndexByte(rest, '/') >= 0 {
				// belongs to a nested subcollection
				continue
			}
			val, err := item.ValueCopy(nil)
			if err != nil {
				return apperr.Remote(err)
			}
			path := strings.TrimPrefix(string(item.Key()), keyPrefix)
			rec, err := decode(path, val)
			if err != nil {
				return err
			}
			docs = append(docs, toDocument(path, rec))
		}
		return nil
	})
	if err != nil {
		return nil, apperr.Remote(err)
	}
	return docs, nil
}

func readRecord(txn *badger.Txn, path string) (*record, error) {
	item, err := txn.Get(docKey(path))
	if err != nil {
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil, nil
		}
		return nil, apperr.Remote(err)
	}
	val, err := item.ValueCopy(nil)
	if err != nil {
		return nil, apperr.Remote(err)
	}
	return decode(path, val)
}

func decode(path string, val []byte) (*record, error) {
	var rec record
	if err := msgpack.Unmarshal(val, &rec); err != nil {
		return nil, apperr.Corrupt(fmt.Errorf("decode %s: %w", path, err))
	}
	return &rec, nil
}

func toDocument(path string, rec *record) *remote.Document {
	fields := rec.Fields
	if fields == nil {
		fields = map[string]any{}
	}
	return &remote.Document{
		Path:       path,
		Fields:     fields,
		CreateTime: rec.CreateTime,
		UpdateTime: rec.UpdateTime,
	}
}

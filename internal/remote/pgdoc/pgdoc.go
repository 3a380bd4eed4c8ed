// Package pgdoc is the server-side remote.Store: one Postgres table of JSONB
// documents, merged with the jsonb || operator so concurrent devices only
// overwrite the fields they write.
package pgdoc

import (
	"context"
	"fmt"
	"time"

	"github.com/MyelinBots/wellness-sync/config"
	"github.com/MyelinBots/wellness-sync/internal/apperr"
	"github.com/MyelinBots/wellness-sync/internal/remote"
	"gorm.io/datatypes"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

type DocumentRow struct {
	Path       string            `gorm:"column:path;type:text;primaryKey"`
	Parent     string            `gorm:"column:parent;type:text;not null;index"`
	Fields     datatypes.JSONMap `gorm:"column:fields;type:jsonb;not null"`
	CreateTime time.Time         `gorm:"column:create_time;not null"`
	UpdateTime time.Time         `gorm:"column:update_time;not null"`
}

func (DocumentRow) TableName() string {
	return "remote_documents"
}

type Store struct {
	db    *gorm.DB
	clock func() time.Time
}

// Open connects with the gorm postgres driver and ensures the table exists.
func Open(ctx context.Context, cfg config.RemoteConfig) (*Store, error) {
	gdb, err := gorm.Open(postgres.Open(cfg.DSN()), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, apperr.Remote(fmt.Errorf("connect postgres: %w", err))
	}
	return New(ctx, gdb)
}

// New wraps an existing handle; used by Open and by tests.
func New(ctx context.Context, gdb *gorm.DB) (*Store, error) {
	if err := gdb.WithContext(ctx).AutoMigrate(&DocumentRow{}); err != nil {
		return nil, apperr.Remote(fmt.Errorf("migrate remote_documents: %w", err))
	}
	return &Store{db: gdb, clock: func() time.Time { return time.Now().UTC() }}, nil
}

func (s *Store) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func (s *Store) Get(ctx context.Context, path string) (*remote.Document, error) {
	p, err := remote.ValidateDocumentPath(path)
	if err != nil {
		return nil, err
	}
	var rows []DocumentRow
	if err := s.db.WithContext(ctx).Where("path = ?", p).Limit(1).Find(&rows).Error; err != nil {
		return nil, apperr.Remote(err)
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("%s: %w", p, apperr.ErrNotFound)
	}
	return toDocument(&rows[0]), nil
}

func (s *Store) Set(ctx context.Context, path string, fields map[string]any, opts ...remote.SetOption) error {
	p, err := remote.ValidateDocumentPath(path)
	if err != nil {
		return err
	}
	now := s.clock()
	resolved := datatypes.JSONMap(encodeTimes(remote.ResolveServerTimestamps(fields, now)))

	onConflict := `fields = EXCLUDED.fields`
	if remote.ApplySetOptions(opts) {
		onConflict = `fields = remote_documents.fields || EXCLUDED.fields`
	}

	err = s.db.WithContext(ctx).Exec(`
		INSERT INTO remote_documents (path, parent, fields, create_time, update_time)
		VALUES (?, ?, CAST(? AS jsonb), ?, ?)
		ON CONFLICT (path) DO UPDATE SET `+onConflict+`, update_time = EXCLUDED.update_time`,
		p, remote.Parent(p), resolved, now, now,
	).Error
	if err != nil {
		return apperr.Remote(fmt.Errorf("set %s: %w", p, err))
	}
	return nil
}

func (s *Store) Update(ctx context.Context, path string, fields map[string]any) error {
	p, err := remote.ValidateDocumentPath(path)
	if err != nil {
		return err
	}
	now := s.clock()
	resolved := datatypes.JSONMap(encodeTimes(remote.ResolveServerTimestamps(fields, now)))

	res := s.db.WithContext(ctx).Exec(`
		UPDATE remote_documents
		SET fields = fields || CAST(? AS jsonb), update_time = ?
		WHERE path = ?`,
		resolved, now, p,
	)
	if res.Error != nil {
		return apperr.Remote(fmt.Errorf("update %s: %w", p, res.Error))
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("%s: %w", p, apperr.ErrNotFound)
	}
	return nil
}

func (s *Store) Delete(ctx context.Context, path string) error {
	p, err := remote.ValidateDocumentPath(path)
	if err != nil {
		return err
	}
	if err := s.db.WithContext(ctx).Where("path = ?", p).Delete(&DocumentRow{}).Error; err != nil {
		return apperr.Remote(fmt.Errorf("delete %s: %w", p, err))
	}
	return nil
}

func (s *Store) List(ctx context.Context, collection string) ([]*remote.Document, error) {
	c, err := remote.ValidateCollectionPath(collection)
	if err != nil {
		return nil, err
	}
	var rows []DocumentRow
	if err := s.db.WithContext(ctx).Where("parent = ?", c).Order("path ASC").Find(&rows).Error; err != nil {
		return nil, apperr.Remote(fmt.Errorf("list %s: %w", c, err))
	}
	docs := make([]*remote.Document, 0, len(rows))
	for i := range rows {
		docs = append(docs, toDocument(&rows[i]))
	}
	return docs, nil
}

// encodeTimes stores times as RFC 3339 strings; remote.Time parses them back.
func encodeTimes(fields map[string]any) map[string]any {
	for k, v := range fields {
		if t, ok := v.(time.Time); ok {
			fields[k] = t.UTC().Format(time.RFC3339Nano)
		}
	}
	return fields
}

func toDocument(row *DocumentRow) *remote.Document {
	fields := map[string]any(row.Fields)
	if fields == nil {
		fields = map[string]any{}
	}
	return &remote.Document{
		Path:       row.Path,
		Fields:     fields,
		CreateTime: row.CreateTime,
		UpdateTime: row.UpdateTime,
	}
}

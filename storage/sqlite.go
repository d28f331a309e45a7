package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/akinalp/pricelist/database"
	"github.com/akinalp/pricelist/pkg"
)

// sqliteStore, nesneleri blobs tablosunda tutar.
type sqliteStore struct {
	db  *database.DB
	now func() time.Time
}

// NewSQLite, açık bir database.DB üzerinde store oluşturur.
// Close çağrısı DB'yi de kapatır.
func NewSQLite(db *database.DB) BlobStore {
	return &sqliteStore{db: db, now: time.Now}
}

func (s *sqliteStore) Read(ctx context.Context, key string) ([]byte, error) {
	if err := ValidateKey(key); err != nil {
		return nil, err
	}

	var data []byte
	err := s.db.Conn.QueryRowContext(ctx, `SELECT data FROM blobs WHERE key = ?`, key).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", pkg.ErrNotFound, key)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", key, err)
	}
	return data, nil
}

func (s *sqliteStore) Write(ctx context.Context, key string, data []byte, contentType string) error {
	return s.upsert(ctx, s.db.Conn, Object{Key: key, Data: data, ContentType: contentType})
}

// WriteBatch, bütün nesneleri tek transaction'da yazar.
func (s *sqliteStore) WriteBatch(ctx context.Context, objects []Object) error {
	return database.WithTx(ctx, s.db.Conn, func(tx *sql.Tx) error {
		for _, obj := range objects {
			if err := s.upsert(ctx, tx, obj); err != nil {
				return err
			}
		}
		return nil
	})
}

func (s *sqliteStore) upsert(ctx context.Context, q database.TxQuerier, obj Object) error {
	if err := ValidateKey(obj.Key); err != nil {
		return err
	}
	if obj.ContentType == "" {
		obj.ContentType = "application/octet-stream"
	}
	if obj.Data == nil {
		obj.Data = []byte{}
	}

	_, err := q.ExecContext(ctx, `
		INSERT INTO blobs (key, data, content_type, size, updated_unix)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET
			data = excluded.data,
			content_type = excluded.content_type,
			size = excluded.size,
			updated_unix = excluded.updated_unix`,
		obj.Key, obj.Data, obj.ContentType, len(obj.Data), s.now().UnixMilli(),
	)
	if err != nil {
		return fmt.Errorf("failed to write %s: %w", obj.Key, err)
	}
	return nil
}

func (s *sqliteStore) List(ctx context.Context, prefix string) ([]ObjectInfo, error) {
	rows, err := s.db.Conn.QueryContext(ctx, `
		SELECT key, size, updated_unix FROM blobs
		WHERE substr(key, 1, length(?)) = ?
		ORDER BY key`,
		prefix, prefix,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list %q: %w", prefix, err)
	}
	defer rows.Close()

	var out []ObjectInfo
	for rows.Next() {
		var (
			info    ObjectInfo
			updated int64
		)
		if err := rows.Scan(&info.Key, &info.Size, &updated); err != nil {
			return nil, fmt.Errorf("failed to scan blob row: %w", err)
		}
		info.Updated = time.UnixMilli(updated)
		out = append(out, info)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate blob rows: %w", err)
	}
	return out, nil
}

func (s *sqliteStore) Delete(ctx context.Context, key string) error {
	if _, err := s.db.Conn.ExecContext(ctx, `DELETE FROM blobs WHERE key = ?`, key); err != nil {
		return fmt.Errorf("failed to delete %s: %w", key, err)
	}
	return nil
}

func (s *sqliteStore) Close() error {
	return s.db.Close()
}

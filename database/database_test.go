package database

import (
	"context"
	"database/sql"
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func openTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := New(filepath.Join(t.TempDir(), "test.db"), Embedded(), zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func TestNewAppliesMigrationsOnce(t *testing.T) {
	path := filepath.Join(t.TempDir(), "prices.db")

	db, err := New(path, Embedded(), zap.NewNop())
	require.NoError(t, err)

	var n int
	require.NoError(t, db.Conn.QueryRow(`SELECT COUNT(*) FROM schema_migrations`).Scan(&n))
	assert.Equal(t, 1, n)
	require.NoError(t, db.Close())

	// İkinci açılışta migration tekrar çalışmaz
	db, err = New(path, Embedded(), zap.NewNop())
	require.NoError(t, err)
	defer db.Close()
	require.NoError(t, db.Conn.QueryRow(`SELECT COUNT(*) FROM schema_migrations`).Scan(&n))
	assert.Equal(t, 1, n)
}

func TestWithTxCommitAndRollback(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	insert := func(tx *sql.Tx, key string) error {
		_, err := tx.ExecContext(ctx, `INSERT INTO blobs (key, data, size) VALUES (?, ?, 1)`, key, []byte("x"))
		return err
	}

	require.NoError(t, WithTx(ctx, db.Conn, func(tx *sql.Tx) error {
		return insert(tx, "a")
	}))

	boom := errors.New("boom")
	err := WithTx(ctx, db.Conn, func(tx *sql.Tx) error {
		if err := insert(tx, "b"); err != nil {
			return err
		}
		return boom
	})
	assert.ErrorIs(t, err, boom)

	var n int
	require.NoError(t, db.Conn.QueryRow(`SELECT COUNT(*) FROM blobs`).Scan(&n))
	assert.Equal(t, 1, n)
}

func TestWithTxRollsBackOnPanic(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	assert.Panics(t, func() {
		_ = WithTx(ctx, db.Conn, func(tx *sql.Tx) error {
			_, _ = tx.ExecContext(ctx, `INSERT INTO blobs (key, data, size) VALUES ('p', x'00', 1)`)
			panic("kaboom")
		})
	})

	var n int
	require.NoError(t, db.Conn.QueryRow(`SELECT COUNT(*) FROM blobs`).Scan(&n))
	assert.Equal(t, 0, n)
}

func TestSplitStatements(t *testing.T) {
	stmts := splitStatements(`
		-- yorum; noktalı virgül içerir
		CREATE TABLE a (x TEXT);
		INSERT INTO a VALUES ('a;b');
		INSERT INTO a VALUES ('it''s')
	`)
	require.Len(t, stmts, 3)
	assert.Contains(t, stmts[1], "'a;b'")
	assert.Contains(t, stmts[2], "'it''s'")
}

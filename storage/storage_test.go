package storage

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/akinalp/pricelist/config"
	"github.com/akinalp/pricelist/database"
	"github.com/akinalp/pricelist/pkg"
	"github.com/akinalp/pricelist/pkg/crypto"
)

func newLocal(t *testing.T) BlobStore {
	t.Helper()
	s, err := NewLocal(t.TempDir())
	require.NoError(t, err)
	return s
}

func newSQLite(t *testing.T) BlobStore {
	t.Helper()
	db, err := database.New(filepath.Join(t.TempDir(), "blobs.db"), database.Embedded(), zap.NewNop())
	require.NoError(t, err)
	s := NewSQLite(db)
	t.Cleanup(func() { s.Close() })
	return s
}

func drivers(t *testing.T) map[string]func(t *testing.T) BlobStore {
	return map[string]func(t *testing.T) BlobStore{
		"local":  newLocal,
		"sqlite": newSQLite,
	}
}

func TestDriverConformance(t *testing.T) {
	for name, open := range drivers(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			s := open(t)

			_, err := s.Read(ctx, "p/users.json")
			assert.ErrorIs(t, err, pkg.ErrNotFound)

			require.NoError(t, s.Write(ctx, "p/users.json", []byte(`{"a":1}`), ContentTypeJSON))
			require.NoError(t, s.Write(ctx, "p/historical/2026-01-01_10-00_x.csv", []byte("h1"), ContentTypeCSV))
			require.NoError(t, s.Write(ctx, "p/historical/2026-01-02_10-00_x.csv", []byte("h22"), ContentTypeCSV))
			require.NoError(t, s.Write(ctx, "other/file.csv", []byte("o"), ContentTypeCSV))

			data, err := s.Read(ctx, "p/users.json")
			require.NoError(t, err)
			assert.Equal(t, `{"a":1}`, string(data))

			// Üzerine yazma
			require.NoError(t, s.Write(ctx, "p/users.json", []byte(`{}`), ContentTypeJSON))
			data, err = s.Read(ctx, "p/users.json")
			require.NoError(t, err)
			assert.Equal(t, `{}`, string(data))

			infos, err := s.List(ctx, "p/historical/")
			require.NoError(t, err)
			require.Len(t, infos, 2)
			assert.Equal(t, "p/historical/2026-01-01_10-00_x.csv", infos[0].Key)
			assert.Equal(t, int64(3), infos[1].Size)
			assert.False(t, infos[1].Updated.IsZero())

			// Çok baytlı karakter içeren önek
			require.NoError(t, s.Write(ctx, "precios/año/historical/a.csv", []byte("ñ"), ContentTypeCSV))
			require.NoError(t, s.Write(ctx, "precios/ano/historical/b.csv", []byte("n"), ContentTypeCSV))
			infos, err = s.List(ctx, "precios/año/historical/")
			require.NoError(t, err)
			require.Len(t, infos, 1)
			assert.Equal(t, "precios/año/historical/a.csv", infos[0].Key)

			require.NoError(t, s.Delete(ctx, "p/users.json"))
			require.NoError(t, s.Delete(ctx, "p/users.json"), "deleting a missing object is not an error")
			_, err = s.Read(ctx, "p/users.json")
			assert.ErrorIs(t, err, pkg.ErrNotFound)

			assert.Error(t, s.Write(ctx, "../escape", []byte("x"), ContentTypeCSV))
			_, err = s.Read(ctx, "/abs")
			assert.Error(t, err)
		})
	}
}

func TestWriteAll(t *testing.T) {
	for name, open := range drivers(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			s := open(t)

			err := WriteAll(ctx, s, []Object{
				{Key: "h/1.csv", Data: []byte("a"), ContentType: ContentTypeCSV},
				{Key: "main.csv", Data: []byte("a"), ContentType: ContentTypeCSV},
			})
			require.NoError(t, err)

			for _, key := range []string{"h/1.csv", "main.csv"} {
				data, err := s.Read(ctx, key)
				require.NoError(t, err)
				assert.Equal(t, "a", string(data))
			}
		})
	}
}

func TestSQLiteBatchIsAtomic(t *testing.T) {
	ctx := context.Background()
	s := newSQLite(t)

	err := WriteAll(ctx, s, []Object{
		{Key: "h/1.csv", Data: []byte("a")},
		{Key: "bad/../key", Data: []byte("a")},
	})
	require.Error(t, err)

	_, err = s.Read(ctx, "h/1.csv")
	assert.ErrorIs(t, err, pkg.ErrNotFound, "first object must be rolled back")
}

type failingStore struct {
	BlobStore
	failKey string
}

func (f *failingStore) Write(ctx context.Context, key string, data []byte, ct string) error {
	if key == f.failKey {
		return errors.New("write failed")
	}
	return f.BlobStore.Write(ctx, key, data, ct)
}

func TestWriteAllStopsAtFirstFailure(t *testing.T) {
	ctx := context.Background()
	s := &failingStore{BlobStore: newLocal(t), failKey: "h/1.csv"}

	err := WriteAll(ctx, s, []Object{
		{Key: "h/1.csv", Data: []byte("a")},
		{Key: "main.csv", Data: []byte("a")},
	})
	require.Error(t, err)

	_, err = s.Read(ctx, "main.csv")
	assert.ErrorIs(t, err, pkg.ErrNotFound)
}

func TestEncryptedStore(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	inner, err := NewLocal(dir)
	require.NoError(t, err)

	key, err := crypto.DeriveKey(strings.Repeat("ab", 32))
	require.NoError(t, err)
	s := Encrypted(inner, key, func(k string) bool { return strings.HasSuffix(k, ".json") })

	require.NoError(t, s.Write(ctx, "p/users.json", []byte(`{"maria":{}}`), ContentTypeJSON))
	require.NoError(t, WriteAll(ctx, s, []Object{{Key: "p/products.csv", Data: []byte("Familia\n")}}))

	raw, err := os.ReadFile(filepath.Join(dir, "p", "users.json"))
	require.NoError(t, err)
	assert.True(t, crypto.IsSealed(raw))
	assert.NotContains(t, string(raw), "maria")

	raw, err = os.ReadFile(filepath.Join(dir, "p", "products.csv"))
	require.NoError(t, err)
	assert.Equal(t, "Familia\n", string(raw), "csv stays plaintext")

	data, err := s.Read(ctx, "p/users.json")
	require.NoError(t, err)
	assert.Equal(t, `{"maria":{}}`, string(data))

	// Şifreleme sonradan açılmışsa eski düz dosya okunabilir
	require.NoError(t, inner.Write(ctx, "p/sessions.json", []byte(`{}`), ContentTypeJSON))
	data, err = s.Read(ctx, "p/sessions.json")
	require.NoError(t, err)
	assert.Equal(t, `{}`, string(data))
}

func TestOpenLocalAndSQLite(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	s, err := Open(ctx, config.StorageConfig{Driver: config.StorageLocal, LocalDir: filepath.Join(dir, "bucket")}, zap.NewNop())
	require.NoError(t, err)
	require.NoError(t, s.Close())

	s, err = Open(ctx, config.StorageConfig{
		Driver:        config.StorageSQLite,
		SQLitePath:    filepath.Join(dir, "p.db"),
		EncryptionKey: strings.Repeat("01", 32),
	}, zap.NewNop())
	require.NoError(t, err)
	_, isBatch := s.(BatchWriter)
	assert.True(t, isBatch)
	require.NoError(t, s.Close())

	_, err = Open(ctx, config.StorageConfig{Driver: config.StorageLocal, LocalDir: dir, EncryptionKey: "short"}, zap.NewNop())
	assert.Error(t, err)
}

func TestValidateKeyAndJoin(t *testing.T) {
	assert.NoError(t, ValidateKey("nissan/prices/users.json"))
	for _, bad := range []string{"", "/a", "a//b", "a/../b", "a/./b", `a\b`} {
		assert.Error(t, ValidateKey(bad), bad)
	}

	assert.Equal(t, "nissan/prices/users.json", Join("/nissan/prices/", "users.json"))
	assert.Equal(t, "users.json", Join("", "users.json"))
	assert.Equal(t, "a/historical/x.csv", Join("a", "historical", "x.csv"))
}

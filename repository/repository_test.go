package repository

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/akinalp/pricelist/models"
	"github.com/akinalp/pricelist/pkg"
	"github.com/akinalp/pricelist/storage"
)

func newStore(t *testing.T) storage.BlobStore {
	t.Helper()
	s, err := storage.NewLocal(t.TempDir())
	require.NoError(t, err)
	return s
}

var testLayout = NewLayout("/nissan/prices/", "")

func TestLayout(t *testing.T) {
	assert.Equal(t, "nissan/prices/users.json", testLayout.Users())
	assert.Equal(t, "nissan/prices/sessions.json", testLayout.Sessions())
	assert.Equal(t, "nissan/prices/products.csv", testLayout.Products())
	assert.Equal(t, "nissan/prices/historical/x.csv", testLayout.History("x.csv"))
	assert.Equal(t, "nissan_price_list", testLayout.ListName)
}

func TestUserRepo(t *testing.T) {
	ctx := context.Background()
	store := newStore(t)
	repo := NewBlobUserRepo(store, testLayout)

	n, err := repo.Count(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)

	created := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	require.NoError(t, repo.Create(ctx, &models.User{Username: "zoe", PasswordHash: "h1", Role: models.RoleAsesor, CreatedAt: created}))
	require.NoError(t, repo.Create(ctx, &models.User{Username: "admin", PasswordHash: "h2", Role: models.RoleAdmin, CreatedAt: created}))

	err = repo.Create(ctx, &models.User{Username: "zoe"})
	assert.ErrorIs(t, err, pkg.ErrAlreadyExists)

	all, err := repo.GetAll(ctx)
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, "admin", all[0].Username)

	u, err := repo.GetByUsername(ctx, "zoe")
	require.NoError(t, err)
	assert.Equal(t, created, u.CreatedAt)
	assert.Nil(t, u.LastLogin)

	login := created.Add(time.Hour)
	require.NoError(t, repo.UpdateRole(ctx, "zoe", models.RoleGerenciaMedia))
	u, err = repo.RecordLogin(ctx, "zoe", "h1", "", login)
	require.NoError(t, err)
	assert.Equal(t, models.RoleGerenciaMedia, u.Role)

	u, err = repo.GetByUsername(ctx, "zoe")
	require.NoError(t, err)
	require.NotNil(t, u.LastLogin)
	assert.Equal(t, login, *u.LastLogin)
	assert.Equal(t, models.RoleGerenciaMedia, u.Role)
	assert.Equal(t, "h1", u.PasswordHash)

	_, err = repo.GetByUsername(ctx, "Zoe")
	assert.ErrorIs(t, err, pkg.ErrNotFound)

	assert.ErrorIs(t, repo.UpdateRole(ctx, "ghost", models.RoleAdmin), pkg.ErrNotFound)
	assert.ErrorIs(t, repo.UpdatePassword(ctx, "ghost", "", "h"), pkg.ErrNotFound)
	require.NoError(t, repo.Delete(ctx, "zoe"))
	assert.ErrorIs(t, repo.Delete(ctx, "zoe"), pkg.ErrNotFound)
}

func TestUserRepoFieldUpdatesKeepOtherFields(t *testing.T) {
	ctx := context.Background()
	repo := NewBlobUserRepo(newStore(t), testLayout)
	created := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	require.NoError(t, repo.Create(ctx, &models.User{Username: "root", PasswordHash: "old", Role: models.RoleAdmin, CreatedAt: created}))

	// Giriş okuması ile yazması arasında rol düşürülür
	require.NoError(t, repo.UpdateRole(ctx, "root", models.RoleAsesor))
	u, err := repo.RecordLogin(ctx, "root", "old", "new", created.Add(time.Minute))
	require.NoError(t, err)
	assert.Equal(t, models.RoleAsesor, u.Role)
	assert.Equal(t, "new", u.PasswordHash)

	// Parola sıfırlanmışsa eski hash ile giriş kaydı yazılmaz
	require.NoError(t, repo.UpdatePassword(ctx, "root", "", "reset"))
	_, err = repo.RecordLogin(ctx, "root", "new", "", created.Add(2*time.Minute))
	assert.ErrorIs(t, err, pkg.ErrUnauthorized)
	assert.ErrorIs(t, repo.UpdatePassword(ctx, "root", "new", "mine"), pkg.ErrUnauthorized)

	u, err = repo.GetByUsername(ctx, "root")
	require.NoError(t, err)
	assert.Equal(t, "reset", u.PasswordHash)
	assert.Equal(t, models.RoleAsesor, u.Role)
	require.NotNil(t, u.LastLogin)
	assert.Equal(t, created.Add(time.Minute), *u.LastLogin)
	assert.Equal(t, created, u.CreatedAt)
}

func TestUserRepoReadsLegacyFile(t *testing.T) {
	ctx := context.Background()
	store := newStore(t)
	legacy := `{
  "admin": {"password": "8c6976e5b5410415bde908bd4dee15dfb167a9c873fc4bb8a81f6f2ab448a918", "role": "admin", "created_at": "2024-05-01T10:20:30.123456", "last_login": null},
  "ana": {"password": "x", "created_at": "2024-05-02T08:00:00"}
}`
	require.NoError(t, store.Write(ctx, testLayout.Users(), []byte(legacy), storage.ContentTypeJSON))

	repo := NewBlobUserRepo(store, testLayout)
	admin, err := repo.GetByUsername(ctx, "admin")
	require.NoError(t, err)
	assert.Equal(t, models.RoleAdmin, admin.Role)
	assert.Equal(t, time.Date(2024, 5, 1, 10, 20, 30, 123456000, time.UTC), admin.CreatedAt)

	ana, err := repo.GetByUsername(ctx, "ana")
	require.NoError(t, err)
	assert.Equal(t, models.RoleAsesor, ana.Role)
}

func TestUserRepoWritesReadableJSON(t *testing.T) {
	ctx := context.Background()
	store := newStore(t)
	repo := NewBlobUserRepo(store, testLayout)
	require.NoError(t, repo.Create(ctx, &models.User{Username: "josé.m", PasswordHash: "<h>", Role: models.RoleAsesor}))

	data, err := store.Read(ctx, testLayout.Users())
	require.NoError(t, err)
	assert.Contains(t, string(data), "\n  \"josé.m\": {")
	assert.Contains(t, string(data), `"password": "<h>"`)

	var raw map[string]map[string]any
	require.NoError(t, json.Unmarshal(data, &raw))
	assert.Nil(t, raw["josé.m"]["last_login"])
}

func TestSessionRepo(t *testing.T) {
	ctx := context.Background()
	repo := NewBlobSessionRepo(newStore(t), testLayout)
	now := time.Date(2026, 2, 1, 12, 0, 0, 0, time.UTC)

	for _, s := range []models.Session{
		{ID: "a", Username: "ana", CreatedAt: now, ExpiresAt: now.Add(time.Hour)},
		{ID: "b", Username: "ana", CreatedAt: now, ExpiresAt: now.Add(-time.Minute)},
		{ID: "c", Username: "luis", CreatedAt: now, ExpiresAt: now.Add(time.Hour)},
	} {
		require.NoError(t, repo.Create(ctx, &s))
	}

	got, err := repo.GetByID(ctx, "a")
	require.NoError(t, err)
	assert.Equal(t, "ana", got.Username)
	assert.Equal(t, now.Add(time.Hour), got.ExpiresAt)

	n, err := repo.DeleteExpired(ctx, now)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	_, err = repo.GetByID(ctx, "b")
	assert.ErrorIs(t, err, pkg.ErrNotFound)

	ids, err := repo.DeleteByUsername(ctx, "ana")
	require.NoError(t, err)
	assert.Equal(t, []string{"a"}, ids)

	require.NoError(t, repo.Delete(ctx, "c"))
	require.NoError(t, repo.Delete(ctx, "missing"))
	assert.Error(t, repo.Create(ctx, &models.Session{}))
}

func TestPriceListRepoSaveWritesHistoryFirst(t *testing.T) {
	ctx := context.Background()
	store := newStore(t)
	repo := NewBlobPriceListRepo(store, testLayout)

	rows, err := repo.Get(ctx)
	require.NoError(t, err)
	assert.Empty(t, rows)

	want := []models.Product{{Familia: "Kicks", Anio: 2024, PrecioFinal: 23990}}
	savedAt := time.Date(2026, 3, 1, 9, 5, 0, 0, time.UTC)
	name, err := repo.Save(ctx, want, savedAt)
	require.NoError(t, err)
	assert.Equal(t, "2026-03-01_09-05_nissan_price_list.csv", name)

	got, err := repo.Get(ctx)
	require.NoError(t, err)
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("current list mismatch (-want +got):\n%s", diff)
	}

	hist, err := repo.GetHistory(ctx, name)
	require.NoError(t, err)
	assert.Equal(t, got, hist)

	main, err := store.Read(ctx, testLayout.Products())
	require.NoError(t, err)
	copyData, err := store.Read(ctx, testLayout.History(name))
	require.NoError(t, err)
	assert.Equal(t, main, copyData)
}

type failOnKey struct {
	storage.BlobStore
	key string
}

func (f *failOnKey) Write(ctx context.Context, key string, data []byte, ct string) error {
	if key == f.key {
		return errors.New("bucket unavailable")
	}
	return f.BlobStore.Write(ctx, key, data, ct)
}

func TestPriceListRepoHistoryFailureKeepsMain(t *testing.T) {
	ctx := context.Background()
	inner := newStore(t)
	require.NoError(t, inner.Write(ctx, testLayout.Products(), []byte("Familia,Año\nVersa,2020\n"), storage.ContentTypeCSV))

	savedAt := time.Date(2026, 3, 1, 9, 5, 0, 0, time.UTC)
	store := &failOnKey{BlobStore: inner, key: testLayout.History(models.HistoryName(savedAt, testLayout.ListName))}
	repo := NewBlobPriceListRepo(store, testLayout)

	_, err := repo.Save(ctx, []models.Product{{Familia: "Kicks", Anio: 2024}}, savedAt)
	require.Error(t, err)

	rows, err := repo.Get(ctx)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "Versa", rows[0].Familia)
}

func TestPriceListRepoListHistory(t *testing.T) {
	ctx := context.Background()
	store := newStore(t)
	repo := NewBlobPriceListRepo(store, testLayout)

	for _, name := range []string{
		"2026-01-01_10-00_nissan_price_list.csv",
		"2026-03-01_08-30_nissan_price_list.csv",
		"2026-02-01_10-00_nissan_price_list.csv",
		"notes.txt",
	} {
		require.NoError(t, store.Write(ctx, testLayout.History(name), []byte("Familia\n"), storage.ContentTypeCSV))
	}
	require.NoError(t, store.Write(ctx, testLayout.History("nested/2026-04-01_00-00_x.csv"), []byte("x"), storage.ContentTypeCSV))

	entries, err := repo.ListHistory(ctx)
	require.NoError(t, err)
	require.Len(t, entries, 3)
	assert.Equal(t, "2026-03-01_08-30_nissan_price_list.csv", entries[0].Name)
	assert.Equal(t, "2026-01-01_10-00_nissan_price_list.csv", entries[2].Name)
	assert.Equal(t, time.Date(2026, 3, 1, 8, 30, 0, 0, time.UTC), entries[0].SavedAt)
	assert.Equal(t, int64(len("Familia\n")), entries[0].Size)

	_, err = repo.GetHistory(ctx, "2099-01-01_00-00_nissan_price_list.csv")
	require.ErrorIs(t, err, pkg.ErrNotFound)
	assert.Equal(t, "not found: history 2099-01-01_00-00_nissan_price_list.csv", err.Error())
	assert.NotContains(t, err.Error(), "nissan/prices")
	_, err = repo.GetHistory(ctx, "../users.json")
	assert.ErrorIs(t, err, pkg.ErrBadRequest)
}

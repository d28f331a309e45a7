package repository

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/akinalp/pricelist/models"
	"github.com/akinalp/pricelist/pkg"
	"github.com/akinalp/pricelist/storage"
)

type sessionRecord struct {
	Username  string  `json:"username"`
	CreatedAt isoTime `json:"created_at"`
	ExpiresAt isoTime `json:"expires_at"`
}

type blobSessionRepo struct {
	store storage.BlobStore
	key   string
	mu    sync.Mutex
}

// NewBlobSessionRepo, constructor.
func NewBlobSessionRepo(store storage.BlobStore, layout Layout) SessionRepository {
	return &blobSessionRepo{store: store, key: layout.Sessions()}
}

func (r *blobSessionRepo) load(ctx context.Context) (map[string]sessionRecord, error) {
	sessions := make(map[string]sessionRecord)
	if _, err := readJSON(ctx, r.store, r.key, &sessions); err != nil {
		return nil, err
	}
	return sessions, nil
}

func (r *blobSessionRepo) Create(ctx context.Context, session *models.Session) error {
	if session.ID == "" {
		return fmt.Errorf("%w: session id is required", pkg.ErrBadRequest)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	sessions, err := r.load(ctx)
	if err != nil {
		return err
	}
	sessions[session.ID] = sessionRecord{
		Username:  session.Username,
		CreatedAt: isoTime{session.CreatedAt},
		ExpiresAt: isoTime{session.ExpiresAt},
	}
	return writeJSON(ctx, r.store, r.key, sessions)
}

func (r *blobSessionRepo) GetByID(ctx context.Context, id string) (*models.Session, error) {
	sessions, err := r.load(ctx)
	if err != nil {
		return nil, err
	}
	rec, ok := sessions[id]
	if !ok {
		return nil, fmt.Errorf("%w: session", pkg.ErrNotFound)
	}
	return &models.Session{
		ID:        id,
		Username:  rec.Username,
		CreatedAt: rec.CreatedAt.Time,
		ExpiresAt: rec.ExpiresAt.Time,
	}, nil
}

func (r *blobSessionRepo) Delete(ctx context.Context, id string) error {
	_, err := r.deleteWhere(ctx, func(sid string, _ sessionRecord) bool { return sid == id })
	return err
}

func (r *blobSessionRepo) DeleteByUsername(ctx context.Context, username string) ([]string, error) {
	return r.deleteWhere(ctx, func(_ string, rec sessionRecord) bool { return rec.Username == username })
}

func (r *blobSessionRepo) DeleteExpired(ctx context.Context, now time.Time) (int, error) {
	ids, err := r.deleteWhere(ctx, func(_ string, rec sessionRecord) bool {
		return !now.Before(rec.ExpiresAt.Time)
	})
	return len(ids), err
}

// deleteWhere, eşleşen oturumları siler. Hiçbiri eşleşmezse dosya yazılmaz.
func (r *blobSessionRepo) deleteWhere(ctx context.Context, match func(id string, rec sessionRecord) bool) ([]string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	sessions, err := r.load(ctx)
	if err != nil {
		return nil, err
	}

	var removed []string
	for id, rec := range sessions {
		if match(id, rec) {
			removed = append(removed, id)
			delete(sessions, id)
		}
	}
	if len(removed) == 0 {
		return nil, nil
	}
	sort.Strings(removed)

	if err := writeJSON(ctx, r.store, r.key, sessions); err != nil {
		return nil, err
	}
	return removed, nil
}

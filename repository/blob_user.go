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

// userRecord, users.json içindeki bir kaydın dosya formatı.
// "password" alanı bcrypt hash'i veya eski SHA-256 hex taşır.
type userRecord struct {
	Password  string      `json:"password"`
	Role      models.Role `json:"role"`
	CreatedAt isoTime     `json:"created_at"`
	LastLogin *isoTime    `json:"last_login"`
}

type blobUserRepo struct {
	store storage.BlobStore
	key   string
	mu    sync.Mutex
}

// NewBlobUserRepo, constructor.
func NewBlobUserRepo(store storage.BlobStore, layout Layout) UserRepository {
	return &blobUserRepo{store: store, key: layout.Users()}
}

func (r *blobUserRepo) load(ctx context.Context) (map[string]userRecord, error) {
	users := make(map[string]userRecord)
	if _, err := readJSON(ctx, r.store, r.key, &users); err != nil {
		return nil, err
	}
	return users, nil
}

func (r *blobUserRepo) Create(ctx context.Context, user *models.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	users, err := r.load(ctx)
	if err != nil {
		return err
	}
	if _, exists := users[user.Username]; exists {
		return fmt.Errorf("%w: user %s already exists", pkg.ErrAlreadyExists, user.Username)
	}

	users[user.Username] = toUserRecord(user)
	return writeJSON(ctx, r.store, r.key, users)
}

func (r *blobUserRepo) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	users, err := r.load(ctx)
	if err != nil {
		return nil, err
	}
	rec, ok := users[username]
	if !ok {
		return nil, fmt.Errorf("%w: user %s", pkg.ErrNotFound, username)
	}
	user := fromUserRecord(username, rec)
	return &user, nil
}

func (r *blobUserRepo) GetAll(ctx context.Context) ([]models.User, error) {
	users, err := r.load(ctx)
	if err != nil {
		return nil, err
	}

	out := make([]models.User, 0, len(users))
	for name, rec := range users {
		out = append(out, fromUserRecord(name, rec))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Username < out[j].Username })
	return out, nil
}

func (r *blobUserRepo) RecordLogin(ctx context.Context, username, verifiedHash, newHash string, at time.Time) (*models.User, error) {
	return r.modify(ctx, username, func(rec *userRecord) error {
		if rec.Password != verifiedHash {
			return fmt.Errorf("%w: password changed for user %s", pkg.ErrUnauthorized, username)
		}
		if newHash != "" {
			rec.Password = newHash
		}
		rec.LastLogin = &isoTime{at}
		return nil
	})
}

func (r *blobUserRepo) UpdatePassword(ctx context.Context, username, expectedHash, newHash string) error {
	_, err := r.modify(ctx, username, func(rec *userRecord) error {
		if expectedHash != "" && rec.Password != expectedHash {
			return fmt.Errorf("%w: password changed for user %s", pkg.ErrUnauthorized, username)
		}
		rec.Password = newHash
		return nil
	})
	return err
}

func (r *blobUserRepo) UpdateRole(ctx context.Context, username string, role models.Role) error {
	_, err := r.modify(ctx, username, func(rec *userRecord) error {
		rec.Role = role
		return nil
	})
	return err
}

// modify, tek bir kaydı kilit altında okuyup fn ile değiştirir ve yazar.
func (r *blobUserRepo) modify(ctx context.Context, username string, fn func(*userRecord) error) (*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	users, err := r.load(ctx)
	if err != nil {
		return nil, err
	}
	rec, ok := users[username]
	if !ok {
		return nil, fmt.Errorf("%w: user %s", pkg.ErrNotFound, username)
	}
	if err := fn(&rec); err != nil {
		return nil, err
	}

	users[username] = rec
	if err := writeJSON(ctx, r.store, r.key, users); err != nil {
		return nil, err
	}
	user := fromUserRecord(username, rec)
	return &user, nil
}

func (r *blobUserRepo) Delete(ctx context.Context, username string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	users, err := r.load(ctx)
	if err != nil {
		return err
	}
	if _, ok := users[username]; !ok {
		return fmt.Errorf("%w: user %s", pkg.ErrNotFound, username)
	}

	delete(users, username)
	return writeJSON(ctx, r.store, r.key, users)
}

func (r *blobUserRepo) Count(ctx context.Context) (int, error) {
	users, err := r.load(ctx)
	if err != nil {
		return 0, err
	}
	return len(users), nil
}

func toUserRecord(u *models.User) userRecord {
	return userRecord{
		Password:  u.PasswordHash,
		Role:      u.Role,
		CreatedAt: isoTime{u.CreatedAt},
		LastLogin: newISOTimePtr(u.LastLogin),
	}
}

// fromUserRecord, role alanı boş olan eski kayıtları asesor sayar.
func fromUserRecord(username string, rec userRecord) models.User {
	role := rec.Role
	if role == "" {
		role = models.DefaultRole
	}
	return models.User{
		Username:     username,
		PasswordHash: rec.Password,
		Role:         role,
		CreatedAt:    rec.CreatedAt.Time,
		LastLogin:    rec.LastLogin.timePtr(),
	}
}

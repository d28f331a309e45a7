package repository

import (
	"context"
	"time"

	"github.com/akinalp/pricelist/models"
)

// SessionRepository, sessions.json üzerindeki işlemler.
type SessionRepository interface {
	Create(ctx context.Context, session *models.Session) error
	GetByID(ctx context.Context, id string) (*models.Session, error)
	// Delete, olmayan oturum için hata dönmez.
	Delete(ctx context.Context, id string) error
	// DeleteByUsername, kullanıcının tüm oturumlarını siler ve silinen ID'leri döner.
	DeleteByUsername(ctx context.Context, username string) ([]string, error)
	// DeleteExpired, now anında süresi dolmuş oturumları siler.
	DeleteExpired(ctx context.Context, now time.Time) (int, error)
}

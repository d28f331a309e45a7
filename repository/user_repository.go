package repository

import (
	"context"
	"time"

	"github.com/akinalp/pricelist/models"
)

// UserRepository, users.json üzerindeki işlemler.
//
// Kullanıcı adı anahtardır ve birebir (büyük/küçük harf duyarlı) eşleşir.
type UserRepository interface {
	// Create, kullanıcı adı alınmışsa pkg.ErrAlreadyExists döner.
	Create(ctx context.Context, user *models.User) error
	GetByUsername(ctx context.Context, username string) (*models.User, error)
	// GetAll, kullanıcı adına göre sıralı liste döner.
	GetAll(ctx context.Context) ([]models.User, error)
	// RecordLogin, kayıtlı hash hâlâ verifiedHash ise last_login'i yazar ve
	// newHash boş değilse hash'i onunla değiştirir. Hash bu arada
	// değişmişse pkg.ErrUnauthorized döner. Dönen kullanıcı güncel kayıttır.
	RecordLogin(ctx context.Context, username, verifiedHash, newHash string, at time.Time) (*models.User, error)
	// UpdatePassword, expectedHash boş değilse yalnızca kayıtlı hash onunla
	// eşleşirken yazar; aksi halde pkg.ErrUnauthorized.
	UpdatePassword(ctx context.Context, username, expectedHash, newHash string) error
	UpdateRole(ctx context.Context, username string, role models.Role) error
	Delete(ctx context.Context, username string) error
	Count(ctx context.Context) (int, error)
}

package repository

import (
	"context"
	"time"

	"github.com/akinalp/pricelist/models"
)

// PriceListRepository, products.csv ve historical/ kopyaları.
type PriceListRepository interface {
	// Get, güncel listeyi döner; dosya yoksa boş liste.
	Get(ctx context.Context) ([]models.Product, error)
	// Save, önce history kopyasını sonra ana dosyayı aynı içerikle yazar.
	// History yazılamazsa ana dosyaya dokunulmaz. Yazılan history adını döner.
	Save(ctx context.Context, rows []models.Product, savedAt time.Time) (string, error)
	// ListHistory, en yeni kopya başta olacak şekilde döner.
	ListHistory(ctx context.Context) ([]models.HistoryEntry, error)
	// GetHistory, yoksa pkg.ErrNotFound döner.
	GetHistory(ctx context.Context, name string) ([]models.Product, error)
}

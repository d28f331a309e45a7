package services

import (
	"context"
	"fmt"
	"io"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/akinalp/pricelist/models"
	"github.com/akinalp/pricelist/pkg"
	"github.com/akinalp/pricelist/pkg/cache"
	"github.com/akinalp/pricelist/pkg/email"
	"github.com/akinalp/pricelist/repository"
	"github.com/akinalp/pricelist/ws"
)

// notifyTimeout, kayıt sonrası e-posta gönderiminin üst sınırı.
const notifyTimeout = 30 * time.Second

const currentKey = "current"

// PriceListService, fiyat listesi okuma, kaydetme ve history işlemleri.
//
// Yetki kontrolü route seviyesinde yapılır; role parametresi sadece
// hangi kolonların döneceğini belirler.
type PriceListService interface {
	Get(ctx context.Context, role models.Role) (*models.PriceListView, error)
	// Save, satırları doğrular, history + ana dosyayı yazar, cache'i
	// temizler, dashboard'lara yayın yapar ve (ayarlıysa) e-posta atar.
	Save(ctx context.Context, username string, rows []models.Product) (*SaveResult, error)
	// Import, yüklenen CSV'yi okuyup Save'e verir.
	Import(ctx context.Context, username string, r io.Reader) (*SaveResult, error)
	// Export, rolün gördüğü kolonlarla CSV yazar.
	Export(ctx context.Context, role models.Role, w io.Writer) error
	Summary(ctx context.Context, role models.Role) (*models.PriceSummary, error)
	ListHistory(ctx context.Context) ([]models.HistoryEntry, error)
	GetHistory(ctx context.Context, role models.Role, name string) (*models.PriceListView, error)
	// RestoreHistory, kopyanın satırlarını Save ile yeniden kaydeder; bu da
	// yeni bir history kopyası oluşturur.
	RestoreHistory(ctx context.Context, username, name string) (*SaveResult, error)
	// Close, arka plandaki bildirimleri bekler ve cache'i kapatır.
	Close()
}

// SaveResult, başarılı kaydın özeti.
type SaveResult struct {
	HistoryName string    `json:"history_name"`
	Rows        int       `json:"rows"`
	SavedAt     time.Time `json:"saved_at"`
}

type priceListService struct {
	repo     repository.PriceListRepository
	hub      ws.EventPublisher
	notifier email.Notifier // nil ise e-posta gönderilmez
	cache    *cache.TTLCache[string, []models.Product]
	now      func() time.Time
	log      *zap.Logger

	// cacheGen her Save'de artar; okuma sürerken kayıt yapılmışsa okunan
	// liste cache'e yazılmaz.
	cacheMu  sync.Mutex
	cacheGen uint64

	notifications sync.WaitGroup
}

// NewPriceListService, constructor. cacheTTL 0 ise cache kullanılmaz.
func NewPriceListService(
	repo repository.PriceListRepository,
	hub ws.EventPublisher,
	notifier email.Notifier,
	cacheTTL time.Duration,
	logger *zap.Logger,
) PriceListService {
	s := &priceListService{
		repo:     repo,
		hub:      hub,
		notifier: notifier,
		now:      func() time.Time { return time.Now().UTC() },
		log:      logger.Named("prices"),
	}
	if cacheTTL > 0 {
		s.cache = cache.New[string, []models.Product](cacheTTL, cacheTTL)
	}
	return s
}

func (s *priceListService) current(ctx context.Context) ([]models.Product, error) {
	if s.cache != nil {
		if rows, ok := s.cache.Get(currentKey); ok {
			return rows, nil
		}
	}

	gen := s.generation()
	rows, err := s.repo.Get(ctx)
	if err != nil {
		return nil, err
	}
	if s.cache != nil {
		s.cacheMu.Lock()
		if s.cacheGen == gen {
			s.cache.Set(currentKey, rows)
		}
		s.cacheMu.Unlock()
	}
	return rows, nil
}

func (s *priceListService) generation() uint64 {
	s.cacheMu.Lock()
	defer s.cacheMu.Unlock()
	return s.cacheGen
}

// invalidate, o an süren okumaların cache'e yazmasını engeller.
func (s *priceListService) invalidate() {
	if s.cache == nil {
		return
	}
	s.cacheMu.Lock()
	defer s.cacheMu.Unlock()
	s.cacheGen++
	s.cache.Delete(currentKey)
}

func (s *priceListService) Get(ctx context.Context, role models.Role) (*models.PriceListView, error) {
	rows, err := s.current(ctx)
	if err != nil {
		return nil, err
	}
	return view(rows, role), nil
}

func (s *priceListService) Save(ctx context.Context, username string, rows []models.Product) (*SaveResult, error) {
	if len(rows) == 0 {
		return nil, fmt.Errorf("%w: price list cannot be empty", pkg.ErrBadRequest)
	}
	rows = append([]models.Product(nil), rows...)
	if err := models.ValidateProducts(rows); err != nil {
		return nil, fmt.Errorf("%w: %s", pkg.ErrBadRequest, err.Error())
	}

	savedAt := s.now()
	name, err := s.repo.Save(ctx, rows, savedAt)
	// Hata durumunda da temizlenir: history yazılıp ana dosya yazılamamış olabilir
	s.invalidate()
	if err != nil {
		s.log.Error("failed to save price list", zap.String("username", username), zap.Error(err))
		return nil, err
	}

	result := &SaveResult{HistoryName: name, Rows: len(rows), SavedAt: savedAt}
	s.log.Info("price list saved",
		zap.String("username", username),
		zap.Int("rows", result.Rows),
		zap.String("history", name),
	)

	s.hub.BroadcastToAll(ws.Event{
		Op: ws.OpPriceListUpdate,
		Data: ws.PriceListUpdateData{
			UpdatedBy:   username,
			Rows:        result.Rows,
			HistoryName: name,
			SavedAt:     savedAt,
		},
	})
	s.notify(username, result)
	return result, nil
}

// notify, e-postayı request'ten bağımsız bir context ile arka planda gönderir.
func (s *priceListService) notify(username string, result *SaveResult) {
	if s.notifier == nil {
		return
	}

	s.notifications.Add(1)
	go func() {
		defer s.notifications.Done()

		ctx, cancel := context.WithTimeout(context.Background(), notifyTimeout)
		defer cancel()

		err := s.notifier.NotifyPriceListUpdated(ctx, email.PriceListNotice{
			UpdatedBy:   username,
			Rows:        result.Rows,
			HistoryName: result.HistoryName,
			SavedAt:     result.SavedAt,
		})
		if err != nil {
			s.log.Warn("failed to send price list notification", zap.Error(err))
		}
	}()
}

func (s *priceListService) Import(ctx context.Context, username string, r io.Reader) (*SaveResult, error) {
	rows, err := models.ParseCSV(r)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", pkg.ErrBadRequest, err.Error())
	}
	return s.Save(ctx, username, rows)
}

func (s *priceListService) Export(ctx context.Context, role models.Role, w io.Writer) error {
	rows, err := s.current(ctx)
	if err != nil {
		return err
	}
	return models.EncodeCSVColumns(w, rows, models.VisibleColumns(role))
}

func (s *priceListService) Summary(ctx context.Context, role models.Role) (*models.PriceSummary, error) {
	rows, err := s.current(ctx)
	if err != nil {
		return nil, err
	}
	summary := models.Summarize(rows)

	if role.Can(models.PermViewHistory) {
		entries, err := s.repo.ListHistory(ctx)
		if err != nil {
			return nil, err
		}
		if len(entries) > 0 {
			last := entries[0].SavedAt
			summary.LastUpdate = &last
		}
	}
	return &summary, nil
}

func (s *priceListService) ListHistory(ctx context.Context) ([]models.HistoryEntry, error) {
	return s.repo.ListHistory(ctx)
}

func (s *priceListService) GetHistory(ctx context.Context, role models.Role, name string) (*models.PriceListView, error) {
	rows, err := s.repo.GetHistory(ctx, name)
	if err != nil {
		return nil, err
	}
	v := view(rows, role)
	v.Editable = false
	return v, nil
}

func (s *priceListService) RestoreHistory(ctx context.Context, username, name string) (*SaveResult, error) {
	rows, err := s.repo.GetHistory(ctx, name)
	if err != nil {
		return nil, err
	}
	s.log.Info("restoring price list", zap.String("username", username), zap.String("history", name))
	return s.Save(ctx, username, rows)
}

func (s *priceListService) Close() {
	s.notifications.Wait()
	if s.cache != nil {
		s.cache.Close()
	}
}

func view(rows []models.Product, role models.Role) *models.PriceListView {
	cols := models.VisibleColumns(role)
	return &models.PriceListView{
		Columns:  cols,
		Rows:     models.Project(rows, cols),
		Editable: role.Can(models.PermEditPrices),
	}
}

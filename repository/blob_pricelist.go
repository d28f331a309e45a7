package repository

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/akinalp/pricelist/models"
	"github.com/akinalp/pricelist/pkg"
	"github.com/akinalp/pricelist/storage"
)

type blobPriceListRepo struct {
	store  storage.BlobStore
	layout Layout
	mu     sync.Mutex
}

// NewBlobPriceListRepo, constructor.
func NewBlobPriceListRepo(store storage.BlobStore, layout Layout) PriceListRepository {
	return &blobPriceListRepo{store: store, layout: layout}
}

func (r *blobPriceListRepo) Get(ctx context.Context) ([]models.Product, error) {
	rows, err := r.readCSV(ctx, r.layout.Products())
	if errors.Is(err, pkg.ErrNotFound) {
		return []models.Product{}, nil
	}
	return rows, err
}

func (r *blobPriceListRepo) Save(ctx context.Context, rows []models.Product, savedAt time.Time) (string, error) {
	data, err := models.MarshalCSV(rows)
	if err != nil {
		return "", fmt.Errorf("failed to encode price list: %w", err)
	}

	name := models.HistoryName(savedAt, r.layout.ListName)

	r.mu.Lock()
	defer r.mu.Unlock()

	// Sıra önemli: WriteAll ilk hatada durur, history yazılamazsa
	// products.csv eski hâlinde kalır.
	err = storage.WriteAll(ctx, r.store, []storage.Object{
		{Key: r.layout.History(name), Data: data, ContentType: storage.ContentTypeCSV},
		{Key: r.layout.Products(), Data: data, ContentType: storage.ContentTypeCSV},
	})
	if err != nil {
		return "", fmt.Errorf("failed to save price list: %w", err)
	}
	return name, nil
}

func (r *blobPriceListRepo) ListHistory(ctx context.Context) ([]models.HistoryEntry, error) {
	prefix := r.layout.HistoryPrefix()
	infos, err := r.store.List(ctx, prefix)
	if err != nil {
		return nil, fmt.Errorf("failed to list history: %w", err)
	}

	entries := make([]models.HistoryEntry, 0, len(infos))
	for _, info := range infos {
		name := strings.TrimPrefix(info.Key, prefix)
		if models.ValidateHistoryName(name) != nil {
			continue
		}
		savedAt, ok := models.ParseHistoryTime(name)
		if !ok {
			savedAt = info.Updated.UTC()
		}
		entries = append(entries, models.HistoryEntry{Name: name, SavedAt: savedAt, Size: info.Size})
	}

	sort.SliceStable(entries, func(i, j int) bool {
		if !entries[i].SavedAt.Equal(entries[j].SavedAt) {
			return entries[i].SavedAt.After(entries[j].SavedAt)
		}
		return entries[i].Name > entries[j].Name
	})
	return entries, nil
}

func (r *blobPriceListRepo) GetHistory(ctx context.Context, name string) ([]models.Product, error) {
	if err := models.ValidateHistoryName(name); err != nil {
		return nil, fmt.Errorf("%w: %v", pkg.ErrBadRequest, err)
	}
	rows, err := r.readCSV(ctx, r.layout.History(name))
	if errors.Is(err, pkg.ErrNotFound) {
		// Bucket yolu client'a gitmez
		return nil, fmt.Errorf("%w: history %s", pkg.ErrNotFound, name)
	}
	return rows, err
}

func (r *blobPriceListRepo) readCSV(ctx context.Context, key string) ([]models.Product, error) {
	data, err := r.store.Read(ctx, key)
	if err != nil {
		return nil, err
	}
	rows, err := models.ParseCSV(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", key, err)
	}
	return rows, nil
}

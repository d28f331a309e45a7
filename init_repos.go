// Package main: repository katmanı başlatma.
//
// initRepositories, blob deposunu açar ve users/sessions/products
// repository'lerini aynı depo ve anahtar düzeni üzerinde kurar.
package main

import (
	"context"

	"go.uber.org/zap"

	"github.com/akinalp/pricelist/config"
	"github.com/akinalp/pricelist/repository"
	"github.com/akinalp/pricelist/storage"
)

// Repositories, repository instance'larını tutan container struct.
type Repositories struct {
	Store     storage.BlobStore
	Layout    repository.Layout
	User      repository.UserRepository
	Session   repository.SessionRepository
	PriceList repository.PriceListRepository
}

func initRepositories(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*Repositories, error) {
	store, err := storage.Open(ctx, cfg.Storage, logger)
	if err != nil {
		return nil, err
	}
	return newRepositories(store, cfg.Storage), nil
}

func newRepositories(store storage.BlobStore, cfg config.StorageConfig) *Repositories {
	layout := repository.NewLayout(cfg.Prefix, cfg.PriceListName)
	return &Repositories{
		Store:     store,
		Layout:    layout,
		User:      repository.NewBlobUserRepo(store, layout),
		Session:   repository.NewBlobSessionRepo(store, layout),
		PriceList: repository.NewBlobPriceListRepo(store, layout),
	}
}

// Close, depoyu kapatır (GCS client, SQLite bağlantısı).
func (r *Repositories) Close() error {
	return r.Store.Close()
}

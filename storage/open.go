package storage

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/akinalp/pricelist/config"
	"github.com/akinalp/pricelist/database"
	"github.com/akinalp/pricelist/pkg/crypto"
)

// Open, config'deki driver'ı açar. EncryptionKey doluysa .json nesneleri
// (kullanıcılar ve oturumlar) şifreli yazılır; CSV'ler düz kalır.
func Open(ctx context.Context, cfg config.StorageConfig, logger *zap.Logger) (BlobStore, error) {
	var (
		store BlobStore
		err   error
	)

	switch cfg.Driver {
	case config.StorageGCS:
		store, err = NewGCS(ctx, GCSOptions{
			Bucket:          cfg.Bucket,
			CredentialsFile: cfg.CredentialsFile,
			CredentialsJSON: cfg.CredentialsJSON,
		})
	case config.StorageLocal:
		store, err = NewLocal(cfg.LocalDir)
	case config.StorageSQLite:
		var db *database.DB
		db, err = database.New(cfg.SQLitePath, database.Embedded(), logger)
		if err == nil {
			store = NewSQLite(db)
		}
	default:
		err = fmt.Errorf("unknown storage driver %q", cfg.Driver)
	}
	if err != nil {
		return nil, err
	}

	if cfg.EncryptionKey != "" {
		key, err := crypto.DeriveKey(cfg.EncryptionKey)
		if err != nil {
			store.Close()
			return nil, fmt.Errorf("invalid STORAGE_ENCRYPTION_KEY: %w", err)
		}
		store = Encrypted(store, key, func(k string) bool { return strings.HasSuffix(k, ".json") })
	}

	logger.Named("storage").Info("storage opened",
		zap.String("driver", cfg.Driver),
		zap.String("bucket", cfg.Bucket),
		zap.String("prefix", cfg.Prefix),
		zap.Bool("encrypted", cfg.EncryptionKey != ""),
	)
	return store, nil
}

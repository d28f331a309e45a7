package storage

import (
	"context"
	"errors"
	"fmt"
	"io"

	"cloud.google.com/go/storage"
	"google.golang.org/api/iterator"
	"google.golang.org/api/option"

	"github.com/akinalp/pricelist/pkg"
)

// GCSOptions, bucket'a bağlanmak için gereken bilgiler.
//
// Kimlik bilgisi tek bir yoldan alınır: CredentialsFile, yoksa
// CredentialsJSON, o da yoksa ortamın Application Default Credentials'ı.
type GCSOptions struct {
	Bucket          string
	CredentialsFile string
	CredentialsJSON string
}

type gcsStore struct {
	client *storage.Client
	bucket *storage.BucketHandle
}

// NewGCS, GCS client'ı açar.
func NewGCS(ctx context.Context, opts GCSOptions) (BlobStore, error) {
	var clientOpts []option.ClientOption
	switch {
	case opts.CredentialsFile != "":
		clientOpts = append(clientOpts, option.WithCredentialsFile(opts.CredentialsFile))
	case opts.CredentialsJSON != "":
		clientOpts = append(clientOpts, option.WithCredentialsJSON([]byte(opts.CredentialsJSON)))
	}

	client, err := storage.NewClient(ctx, clientOpts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create gcs client: %w", err)
	}

	return &gcsStore{client: client, bucket: client.Bucket(opts.Bucket)}, nil
}

func (s *gcsStore) Read(ctx context.Context, key string) ([]byte, error) {
	if err := ValidateKey(key); err != nil {
		return nil, err
	}

	r, err := s.bucket.Object(key).NewReader(ctx)
	if errors.Is(err, storage.ErrObjectNotExist) {
		return nil, fmt.Errorf("%w: %s", pkg.ErrNotFound, key)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to open gs object %s: %w", key, err)
	}
	defer r.Close()

	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read gs object %s: %w", key, err)
	}
	return data, nil
}

func (s *gcsStore) Write(ctx context.Context, key string, data []byte, contentType string) error {
	if err := ValidateKey(key); err != nil {
		return err
	}

	// Writer iptal edilirse yükleme yarıda kalır ve nesne değişmez.
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	w := s.bucket.Object(key).NewWriter(ctx)
	w.ContentType = contentType

	if _, err := w.Write(data); err != nil {
		cancel()
		_ = w.Close()
		return fmt.Errorf("failed to upload gs object %s: %w", key, err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("failed to finalize gs object %s: %w", key, err)
	}
	return nil
}

func (s *gcsStore) List(ctx context.Context, prefix string) ([]ObjectInfo, error) {
	it := s.bucket.Objects(ctx, &storage.Query{Prefix: prefix})

	var out []ObjectInfo
	for {
		attrs, err := it.Next()
		if errors.Is(err, iterator.Done) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to list gs prefix %q: %w", prefix, err)
		}
		out = append(out, ObjectInfo{Key: attrs.Name, Size: attrs.Size, Updated: attrs.Updated})
	}
	return out, nil
}

func (s *gcsStore) Delete(ctx context.Context, key string) error {
	err := s.bucket.Object(key).Delete(ctx)
	if err != nil && !errors.Is(err, storage.ErrObjectNotExist) {
		return fmt.Errorf("failed to delete gs object %s: %w", key, err)
	}
	return nil
}

func (s *gcsStore) Close() error {
	return s.client.Close()
}

package storage

import (
	"context"
	"fmt"

	"github.com/akinalp/pricelist/pkg/crypto"
)

// encryptedStore, match'e uyan key'leri AES-GCM ile şifreleyerek yazar.
// Okurken şifreli olmayan içerik olduğu gibi döner.
type encryptedStore struct {
	BlobStore
	key   []byte
	match func(key string) bool
}

// Encrypted, inner store'u sarar. match nil ise her key şifrelenir.
func Encrypted(inner BlobStore, key []byte, match func(key string) bool) BlobStore {
	if match == nil {
		match = func(string) bool { return true }
	}
	return &encryptedStore{BlobStore: inner, key: key, match: match}
}

func (s *encryptedStore) Read(ctx context.Context, key string) ([]byte, error) {
	data, err := s.BlobStore.Read(ctx, key)
	if err != nil {
		return nil, err
	}
	plain, err := crypto.Open(data, s.key)
	if err != nil {
		return nil, fmt.Errorf("failed to decrypt %s: %w", key, err)
	}
	return plain, nil
}

func (s *encryptedStore) Write(ctx context.Context, key string, data []byte, contentType string) error {
	sealed, err := s.seal(key, data)
	if err != nil {
		return err
	}
	return s.BlobStore.Write(ctx, key, sealed, s.contentType(key, contentType))
}

func (s *encryptedStore) WriteBatch(ctx context.Context, objects []Object) error {
	sealed := make([]Object, len(objects))
	for i, obj := range objects {
		data, err := s.seal(obj.Key, obj.Data)
		if err != nil {
			return err
		}
		sealed[i] = Object{Key: obj.Key, Data: data, ContentType: s.contentType(obj.Key, obj.ContentType)}
	}
	return WriteAll(ctx, s.BlobStore, sealed)
}

func (s *encryptedStore) seal(key string, data []byte) ([]byte, error) {
	if !s.match(key) {
		return data, nil
	}
	sealed, err := crypto.Seal(data, s.key)
	if err != nil {
		return nil, fmt.Errorf("failed to encrypt %s: %w", key, err)
	}
	return sealed, nil
}

func (s *encryptedStore) contentType(key, original string) string {
	if s.match(key) {
		return "application/octet-stream"
	}
	return original
}

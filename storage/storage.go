// Package storage, fiyat listesi dosyalarının tutulduğu nesne deposunu soyutlar.
//
// Uygulama bütün dosyaları (users.json, sessions.json, products.csv ve
// historical/ kopyaları) tek parça okur ve yazar; kısmi güncelleme, kilit
// veya versiyon kontrolü yoktur; son yazan kazanır.
//
// Üç driver vardır:
//   - gcs:    Google Cloud Storage bucket'ı (production)
//   - local:  yerel dizin (geliştirme, testler)
//   - sqlite: tek dosyalık SQLite tablosu; WriteBatch atomiktir
package storage

import (
	"context"
	"fmt"
	"path"
	"strings"
	"time"
)

// Content type sabitleri.
const (
	ContentTypeJSON = "application/json"
	ContentTypeCSV  = "text/csv"
)

// ObjectInfo, List sonucundaki tek bir nesne.
type ObjectInfo struct {
	Key     string    `json:"key"`
	Size    int64     `json:"size"`
	Updated time.Time `json:"updated"`
}

// Object, WriteBatch ile yazılacak bir nesne.
type Object struct {
	Key         string
	Data        []byte
	ContentType string
}

// BlobStore, driver'ların karşıladığı interface.
//
// Read, nesne yoksa pkg.ErrNotFound döner (wrap edilmiş olabilir).
// Delete, olmayan nesne için hata dönmez.
// List, key'i prefix ile başlayan nesneleri key sırasıyla döner.
type BlobStore interface {
	Read(ctx context.Context, key string) ([]byte, error)
	Write(ctx context.Context, key string, data []byte, contentType string) error
	List(ctx context.Context, prefix string) ([]ObjectInfo, error)
	Delete(ctx context.Context, key string) error
	Close() error
}

// BatchWriter, birden fazla nesneyi ya hep ya hiç yazabilen driver'lar içindir.
type BatchWriter interface {
	WriteBatch(ctx context.Context, objects []Object) error
}

// WriteAll, store BatchWriter ise tek batch olarak yazar; değilse nesneleri
// verilen sırayla yazar ve ilk hatada durur (sonraki nesneler yazılmaz).
func WriteAll(ctx context.Context, store BlobStore, objects []Object) error {
	if bw, ok := store.(BatchWriter); ok {
		return bw.WriteBatch(ctx, objects)
	}

	for _, obj := range objects {
		if err := store.Write(ctx, obj.Key, obj.Data, obj.ContentType); err != nil {
			return err
		}
	}
	return nil
}

// ValidateKey, driver'lara gelen key'i kontrol eder: boş olamaz, "/" ile
// başlayamaz, ".." veya boş segment içeremez.
func ValidateKey(key string) error {
	if key == "" {
		return fmt.Errorf("storage: empty key")
	}
	if strings.HasPrefix(key, "/") || strings.Contains(key, "\\") {
		return fmt.Errorf("storage: invalid key %q", key)
	}
	for _, seg := range strings.Split(key, "/") {
		if seg == "" || seg == "." || seg == ".." {
			return fmt.Errorf("storage: invalid key %q", key)
		}
	}
	return nil
}

// Join, key parçalarını "/" ile birleştirir, boş parçaları atlar.
func Join(parts ...string) string {
	var kept []string
	for _, p := range parts {
		if p = strings.Trim(p, "/"); p != "" {
			kept = append(kept, p)
		}
	}
	return path.Join(kept...)
}

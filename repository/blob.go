// Package repository, veri erişim katmanını tanımlar.
//
// Bütün veri bucket'taki birkaç dosyada durur. Her repository kendi
// dosyasını tek parça okur, bellekte değiştirir ve tek parça geri yazar.
// Aynı process içindeki eşzamanlı yazmalar repository başına bir mutex
// ile sıraya sokulur; process'ler arası koordinasyon yoktur, son yazan kazanır.
//
// Service katmanı sadece bu paketteki interface'leri görür.
package repository

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/akinalp/pricelist/pkg"
	"github.com/akinalp/pricelist/storage"
)

// readJSON, key'deki JSON'u v'ye çözer. Dosya yoksa v'ye dokunmadan false döner.
func readJSON(ctx context.Context, store storage.BlobStore, key string, v any) (bool, error) {
	data, err := store.Read(ctx, key)
	if errors.Is(err, pkg.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to read %s: %w", key, err)
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return false, nil
	}
	if err := json.Unmarshal(data, v); err != nil {
		return false, fmt.Errorf("failed to decode %s: %w", key, err)
	}
	return true, nil
}

// writeJSON, v'yi iki boşluk girintili, HTML escape'siz yazar.
func writeJSON(ctx context.Context, store storage.BlobStore, key string, v any) error {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("failed to encode %s: %w", key, err)
	}
	if err := store.Write(ctx, key, buf.Bytes(), storage.ContentTypeJSON); err != nil {
		return fmt.Errorf("failed to write %s: %w", key, err)
	}
	return nil
}

// isoTime, dosyalardaki zaman damgası.
//
// Eski users.json dosyaları saat dilimi olmayan ISO metin taşır
// ("2024-05-01T10:20:30.123456"); bunlar UTC kabul edilir. Yazarken
// her zaman RFC 3339 kullanılır.
type isoTime struct {
	time.Time
}

var isoLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05.999999999",
}

func (t isoTime) MarshalJSON() ([]byte, error) {
	return json.Marshal(t.UTC().Format(time.RFC3339Nano))
}

func (t *isoTime) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	s = strings.TrimSpace(s)
	if s == "" {
		t.Time = time.Time{}
		return nil
	}
	for _, layout := range isoLayouts {
		if parsed, err := time.Parse(layout, s); err == nil {
			t.Time = parsed.UTC()
			return nil
		}
	}
	return fmt.Errorf("invalid timestamp %q", s)
}

func newISOTimePtr(t *time.Time) *isoTime {
	if t == nil {
		return nil
	}
	return &isoTime{*t}
}

func (t *isoTime) timePtr() *time.Time {
	if t == nil || t.IsZero() {
		return nil
	}
	v := t.Time
	return &v
}

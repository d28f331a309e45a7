// Package i18n, handler mesajları ve bildirim email'leri için çeviri sağlar.
//
// Dil sırası: Accept-Language header'ı, yoksa varsayılan (es).
// Çeviriler iç içe JSON dosyalarından yüklenir ve "auth.invalidCredentials"
// gibi noktalı anahtarlara düzleştirilir.
//
//	loc := i18n.FromRequest(r)
//	msg := loc.T("auth.tooManyAttempts")
package i18n

import (
	"encoding/json"
	"fmt"
	"io/fs"
	"net/http"
	"strings"
	"sync"
)

// SupportedLanguages: desteklenen dil kodları.
var SupportedLanguages = []string{"es", "en"}

// DefaultLanguage: bayi kullanıcıları İspanyolca konuşur.
const DefaultLanguage = "es"

var (
	mu           sync.RWMutex
	translations = map[string]map[string]string{}
)

// Load, her desteklenen dil için <lang>.json dosyasını okur.
// Tekrar çağrılırsa mevcut çevirilerin yerine geçer.
func Load(localesFS fs.FS) error {
	loaded := make(map[string]map[string]string, len(SupportedLanguages))

	for _, lang := range SupportedLanguages {
		fileName := lang + ".json"

		data, err := fs.ReadFile(localesFS, fileName)
		if err != nil {
			return fmt.Errorf("failed to read translation file %s: %w", fileName, err)
		}

		var nested map[string]any
		if err := json.Unmarshal(data, &nested); err != nil {
			return fmt.Errorf("failed to parse translation file %s: %w", fileName, err)
		}

		flat := make(map[string]string)
		flattenMap("", nested, flat)
		loaded[lang] = flat
	}

	mu.Lock()
	translations = loaded
	mu.Unlock()
	return nil
}

// LoadEmbedded, binary'ye gömülü locales/ dizinini yükler.
func LoadEmbedded() error {
	sub, err := fs.Sub(EmbeddedLocales, "locales")
	if err != nil {
		return fmt.Errorf("failed to open embedded locales: %w", err)
	}
	return Load(sub)
}

// Localizer, tek bir dil için çeviri yapar.
type Localizer struct {
	lang string
}

// NewLocalizer, desteklenmeyen dilde varsayılana düşer.
func NewLocalizer(lang string) *Localizer {
	if !isSupported(lang) {
		lang = DefaultLanguage
	}
	return &Localizer{lang: lang}
}

// FromRequest, Accept-Language header'ına göre Localizer döner.
func FromRequest(r *http.Request) *Localizer {
	return NewLocalizer(DetectLanguage(r.Header.Get("Accept-Language")))
}

// Lang, Localizer'ın dil kodu.
func (l *Localizer) Lang() string { return l.lang }

// T, anahtarın çevirisini döner. Sıra: kendi dili, varsayılan dil, anahtarın kendisi.
func (l *Localizer) T(key string) string {
	mu.RLock()
	defer mu.RUnlock()

	if msg, ok := translations[l.lang][key]; ok {
		return msg
	}
	if msg, ok := translations[DefaultLanguage][key]; ok {
		return msg
	}
	return key
}

// TWithParams, {{param}} yer tutucularını doldurur.
func (l *Localizer) TWithParams(key string, params map[string]string) string {
	msg := l.T(key)
	for k, v := range params {
		msg = strings.ReplaceAll(msg, "{{"+k+"}}", v)
	}
	return msg
}

// DetectLanguage, "en-US,en;q=0.9,es;q=0.8" gibi bir header'dan
// desteklenen ilk dili seçer.
func DetectLanguage(acceptLanguage string) string {
	for _, part := range strings.Split(acceptLanguage, ",") {
		tag, _, _ := strings.Cut(strings.TrimSpace(part), ";")
		base, _, _ := strings.Cut(tag, "-")
		base = strings.ToLower(base)

		if isSupported(base) {
			return base
		}
	}
	return DefaultLanguage
}

func isSupported(lang string) bool {
	for _, l := range SupportedLanguages {
		if l == lang {
			return true
		}
	}
	return false
}

// flattenMap: {"auth": {"login": "x"}} → {"auth.login": "x"}
func flattenMap(prefix string, src map[string]any, dst map[string]string) {
	for k, v := range src {
		key := k
		if prefix != "" {
			key = prefix + "." + k
		}

		switch val := v.(type) {
		case string:
			dst[key] = val
		case map[string]any:
			flattenMap(key, val, dst)
		}
	}
}

package i18n

import "embed"

// EmbeddedLocales, locales/*.json çeviri dosyaları.
//
//go:embed locales/*.json
var EmbeddedLocales embed.FS

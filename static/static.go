// Package static, dashboard sayfasını binary'ye gömer.
//
// dist/ içeriği tek sayfalık bir HTML + JS dashboard'udur; API'yi
// aynı origin'den çağırır ve /ws üzerinden güncellemeleri dinler.
package static

import (
	"embed"
	"io/fs"
	"net/http"
	"path"
	"strings"
)

// FrontendFS, dist/ dizinindeki dashboard dosyalarını içerir.
// "all:" prefix'i nokta ile başlayan dosyaları da dahil eder.
//
//go:embed all:dist
var FrontendFS embed.FS

// Handler, gömülü dosyaları servis eder. Bulunamayan path'ler index.html'e
// düşer (SPA fallback); /api/ altı asla buraya gelmemelidir.
func Handler() http.Handler {
	dist, err := fs.Sub(FrontendFS, "dist")
	if err != nil {
		// go:embed derleme zamanında garanti eder
		panic(err)
	}
	files := http.FileServerFS(dist)

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		name := strings.TrimPrefix(path.Clean(r.URL.Path), "/")
		if name == "" {
			name = "index.html"
		}
		if _, err := fs.Stat(dist, name); err != nil {
			http.ServeFileFS(w, r, dist, "index.html")
			return
		}
		files.ServeHTTP(w, r)
	})
}

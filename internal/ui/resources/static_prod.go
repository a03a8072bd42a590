//go:build !dev

package resources

import (
	"bytes"
	"embed"
	"io/fs"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"
)

//go:embed static/*
var staticFS embed.FS

var (
	minified     map[string][]byte
	minifiedOnce sync.Once
	startedAt    = time.Now()
)

// loadMinified minifies the page assets once. An asset that fails to
// minify is served unchanged.
func loadMinified() map[string][]byte {
	minifiedOnce.Do(func() {
		minified = make(map[string][]byte)
		for _, name := range []string{ScriptAsset, StyleAsset} {
			src, err := staticFS.ReadFile("static/" + name)
			if err != nil {
				continue
			}
			out, err := Minify(name, src)
			if err != nil {
				slog.Warn("serving unminified asset", "asset", name, "error", err)
				out = src
			}
			minified[name] = out
		}
	})
	return minified
}

// Handler serves the embedded static files.
func Handler() http.Handler {
	fsys, err := fs.Sub(staticFS, "static")
	if err != nil {
		panic(err)
	}
	fileServer := http.StripPrefix("/static/", http.FileServer(http.FS(fsys)))
	assets := loadMinified()

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Cache-Control", "public, max-age=3600")
		name := strings.TrimPrefix(r.URL.Path, "/static/")
		if body, ok := assets[name]; ok {
			http.ServeContent(w, r, name, startedAt, bytes.NewReader(body))
			return
		}
		fileServer.ServeHTTP(w, r)
	})
}

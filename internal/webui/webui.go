package webui

import (
	"embed"
	"fmt"
	"io/fs"
	"net/http"
	"os"
	"path"
	"slices"
)

//go:embed web/*
var content embed.FS

// assetExtensions are never answered with index.html.
var assetExtensions = []string{".js", ".mjs", ".css", ".map", ".ico", ".png", ".svg", ".jpg", ".jpeg", ".gif", ".webp", ".woff", ".woff2"}

// Handler returns an http.Handler that serves the web UI.
//
// When dir names an existing directory, assets are served from it.
// Otherwise the embedded page is used. Panics if the embedded assets
// cannot be loaded (build error).
func Handler(dir string) http.Handler {
	var fileSystem fs.FS

	if dir != "" {
		if info, err := os.Stat(dir); err == nil && info.IsDir() {
			fileSystem = os.DirFS(dir)
		}
	}

	if fileSystem == nil {
		webFS, err := fs.Sub(content, "web")
		if err != nil {
			panic(fmt.Sprintf("webui: failed to load embedded web assets: %v", err))
		}
		fileSystem = webFS
	}

	fileServer := http.FileServer(http.FS(fileSystem))

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// Bundlers hash their chunk names, so only the entry points
		// change between builds.
		w.Header().Set("Cache-Control", "no-cache, must-revalidate")

		upath := path.Clean("/" + r.URL.Path)
		if upath == "/" {
			fileServer.ServeHTTP(w, r)
			return
		}

		if _, err := fs.Stat(fileSystem, upath[1:]); err != nil {
			if slices.Contains(assetExtensions, path.Ext(upath)) {
				http.NotFound(w, r)
				return
			}
			r.URL.Path = "/"
		}
		fileServer.ServeHTTP(w, r)
	})
}

package handlers

import (
	"bytes"
	"io/fs"
	"net/http"
	"os"
	"path/filepath"
	"time"
)

// defaultFavicon is the path of the bundled icon inside the static FS.
const defaultFavicon = "images/favicon.svg"

// FaviconHandler serves the site icon. A configured file on disk wins and
// is re-read on every request so it can be replaced without a restart;
// otherwise the bundled SVG from static is used.
func FaviconHandler(static fs.FS, customPath string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		data, modTime, name, err := loadFavicon(static, customPath)
		if err != nil {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", faviconType(name))
		w.Header().Set("Cache-Control", "no-cache")
		http.ServeContent(w, r, name, modTime, bytes.NewReader(data))
	}
}

func loadFavicon(static fs.FS, customPath string) ([]byte, time.Time, string, error) {
	if customPath == "" {
		data, err := fs.ReadFile(static, defaultFavicon)
		return data, time.Time{}, defaultFavicon, err
	}
	info, err := os.Stat(customPath)
	if err != nil {
		return nil, time.Time{}, "", err
	}
	data, err := os.ReadFile(customPath)
	return data, info.ModTime(), customPath, err
}

func faviconType(name string) string {
	switch filepath.Ext(name) {
	case ".svg":
		return "image/svg+xml"
	case ".png":
		return "image/png"
	case ".webp":
		return "image/webp"
	case ".jpg", ".jpeg":
		return "image/jpeg"
	}
	return "image/x-icon"
}

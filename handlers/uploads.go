package handlers

import (
	"net/http"
	"net/http/httputil"
	"net/url"
	"path"
	"strings"

	"go.uber.org/zap"
)

// uploadsPrefix is the path collection images are served under, both here
// and on the backend.
const uploadsPrefix = "/uploads/"

// UploadsHandler reverse-proxies /uploads/* to the same path on the backend.
// Only GET and HEAD pass; everything else is 405.
func UploadsHandler(backend *url.URL, log *zap.Logger) http.Handler {
	proxy := &httputil.ReverseProxy{
		Rewrite: func(pr *httputil.ProxyRequest) {
			pr.SetURL(backend)
			pr.Out.Host = backend.Host
			pr.Out.Header.Del("Cookie")
		},
		ModifyResponse: func(resp *http.Response) error {
			resp.Header.Del("Set-Cookie")
			if resp.StatusCode == http.StatusOK && resp.Header.Get("Cache-Control") == "" {
				resp.Header.Set("Cache-Control", "public, max-age=86400")
			}
			return nil
		},
		ErrorHandler: func(w http.ResponseWriter, r *http.Request, err error) {
			log.Warn("uploads: backend unreachable", zap.String("path", r.URL.Path), zap.Error(err))
			http.Error(w, "Image unavailable", http.StatusBadGateway)
		},
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet && r.Method != http.MethodHead {
			w.Header().Set("Allow", "GET, HEAD")
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}
		// Security: the cleaned path must stay under the uploads prefix.
		if cleaned := path.Clean(r.URL.Path); !strings.HasPrefix(cleaned, uploadsPrefix) || cleaned != r.URL.Path {
			http.NotFound(w, r)
			return
		}
		proxy.ServeHTTP(w, r)
	})
}

package server

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"vibgyorsite/handlers"
)

// routes builds the router with every handler attached.
func (a *app) routes() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	if a.cfg.TrustProxy {
		r.Use(middleware.RealIP)
	}
	r.Use(requestLogger(a.log.Named("http")))
	r.Use(middleware.Recoverer)
	r.Use(securityHeaders)

	// Static assets
	r.Handle("/static/*", http.StripPrefix("/static/", http.FileServer(http.FS(a.static))))
	r.Get("/favicon.ico", handlers.FaviconHandler(a.static, a.cfg.FaviconPath))

	// Chroma stylesheet for content pages (generated once at startup)
	r.Get("/highlight.css", handlers.HighlightCSSHandler(a.cfg.Theme))

	r.Get("/healthz", healthz)

	r.Get("/", handlers.HomeHandler(a.catalog, a.pages, a.cfg.Featured, a.site, a.log.Named("home"), a.tmpl))
	r.Get("/gallery", handlers.GalleryHandler(a.catalog, a.site, a.log.Named("gallery"), a.tmpl))

	contact := handlers.ContactHandler(a.backend, a.limiter, a.site, a.log.Named("contact"), a.tmpl)
	r.Get("/contact", contact)
	r.Post("/contact", contact)

	book := handlers.BookingHandler(a.mailer, a.limiter, a.site, a.log.Named("booking"), a.tmpl)
	r.Get("/book", book)
	r.Post("/book", book)

	if a.pages != nil {
		r.Get("/pages/{name}", handlers.PageHandler(a.pages, a.site, a.log.Named("pages"), a.tmpl))
	}

	// Collection images, proxied from the backend (bandwidth-limited)
	r.Handle("/uploads/*", a.bandwidth.Wrap(handlers.UploadsHandler(a.backend.BaseURL(), a.log.Named("uploads"))))

	r.Route("/api", func(r chi.Router) {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins: []string{"*"},
			AllowedMethods: []string{"GET", "OPTIONS"},
			AllowedHeaders: []string{"Accept"},
			MaxAge:         300,
		}))
		r.Get("/gallery", handlers.GalleryAPIHandler(a.catalog, a.log.Named("api")))
	})

	return r
}

func healthz(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-store")
	json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}

package server

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"net/http"
	"time"

	"go.uber.org/zap"

	"vibgyorsite/config"
	"vibgyorsite/handlers"
	"vibgyorsite/mailer"
	"vibgyorsite/upstream"
)

// shutdownGrace bounds how long in-flight requests may run after the
// context passed to Run is cancelled.
const shutdownGrace = 15 * time.Second

// app holds the long-lived components shared by the route handlers.
type app struct {
	cfg       *config.Config
	log       *zap.Logger
	site      handlers.Site
	tmpl      *Templates
	static    fs.FS
	backend   *upstream.Client
	catalog   *handlers.Catalog
	pages     *handlers.Pages
	mailer    mailer.Mailer
	limiter   *handlers.RateLimiter
	bandwidth *handlers.BandwidthManager
}

// newApp wires every component from cfg. assets must contain the
// templates/ and static/ trees.
func newApp(cfg *config.Config, assets fs.FS, log *zap.Logger) (*app, error) {
	tmpl, err := LoadTemplates(assets)
	if err != nil {
		return nil, fmt.Errorf("loading templates: %w", err)
	}
	static, err := fs.Sub(assets, "static")
	if err != nil {
		return nil, fmt.Errorf("static sub fs: %w", err)
	}
	backend, err := upstream.NewClient(cfg.Upstream, nil)
	if err != nil {
		return nil, err
	}

	a := &app{
		cfg:       cfg,
		log:       log,
		site:      handlers.Site{Name: cfg.Title, DefaultTheme: cfg.DefaultTheme},
		tmpl:      tmpl,
		static:    static,
		backend:   backend,
		catalog:   handlers.NewCatalog(backend, cfg.CatalogTTL, log.Named("catalog")),
		mailer:    mailer.New(mailerConfig(cfg.SMTP), log.Named("mailer")),
		limiter:   handlers.NewRateLimiter(cfg.ContactPerMinute),
		bandwidth: handlers.NewBandwidthManager(cfg.BandwidthLimit, log.Named("bandwidth")),
	}
	if cfg.PagesDir != "" {
		a.pages = handlers.NewPages(cfg.PagesDir, log.Named("pages"))
	}
	return a, nil
}

func mailerConfig(s config.SMTP) mailer.Config {
	return mailer.Config{
		Host:      s.Host,
		Port:      s.Port,
		User:      s.User,
		Password:  s.Password,
		FromName:  s.FromName,
		FromEmail: s.FromEmail,
		To:        s.To,
	}
}

// Run starts the HTTP server and blocks until ctx is cancelled or the
// listener fails.
func Run(ctx context.Context, cfg *config.Config, assets fs.FS, log *zap.Logger) error {
	a, err := newApp(cfg, assets, log)
	if err != nil {
		return err
	}

	// Configure the content page renderer before any request is served.
	handlers.InitRenderOptions(cfg.Theme)

	addr := fmt.Sprintf("0.0.0.0:%d", cfg.Port)
	logStartup(log, cfg, a, addr)

	a.catalog.Warm()

	if a.pages != nil {
		stop, err := handlers.StartWatcher(a.pages, log.Named("watcher"))
		if err != nil {
			log.Warn("watcher: could not start, pages fall back to cache expiry", zap.Error(err))
		} else {
			defer stop()
		}
	}

	srv := &http.Server{
		Addr:    addr,
		Handler: a.routes(),

		// ReadHeaderTimeout is the Slowloris defence: a client trickling
		// headers is dropped after this deadline.
		ReadHeaderTimeout: 20 * time.Second,

		// IdleTimeout reclaims keep-alive connections that stopped sending.
		IdleTimeout: 120 * time.Second,

		// No WriteTimeout: bandwidth-limited image transfers may run long.
		// IdleTimeout and the limiter's context checks handle dead clients.
	}

	errc := make(chan error, 1)
	go func() { errc <- srv.ListenAndServe() }()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}

	log.Info("shutting down", zap.Duration("grace", shutdownGrace))
	sctx, cancel := context.WithTimeout(context.Background(), shutdownGrace)
	defer cancel()
	if err := srv.Shutdown(sctx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	if err := <-errc; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// logStartup logs a summary of the active configuration.
func logStartup(log *zap.Logger, cfg *config.Config, a *app, addr string) {
	favicon := "(embedded default)"
	if cfg.FaviconPath != "" {
		favicon = cfg.FaviconPath
	}
	bandwidth := "unlimited"
	if cfg.BandwidthLimit > 0 {
		bandwidth = handlers.FormatBits(cfg.BandwidthLimit)
	}
	pages := "(disabled)"
	if cfg.PagesDir != "" {
		pages = cfg.PagesDir
	}
	delivery := "log only"
	if cfg.SMTP.Host != "" {
		delivery = fmt.Sprintf("smtp %s:%d → %s", cfg.SMTP.Host, cfg.SMTP.Port, cfg.SMTP.To)
	}

	log.Info(cfg.Title,
		zap.String("address", "http://"+addr),
		zap.String("upstream", a.backend.BaseURL().String()),
		zap.Duration("catalog_ttl", cfg.CatalogTTL),
		zap.Int("featured", cfg.Featured),
		zap.String("pages_dir", pages),
		zap.String("highlight_theme", cfg.Theme),
		zap.String("default_ui_theme", cfg.DefaultTheme),
		zap.String("favicon", favicon),
		zap.String("bandwidth_limit", bandwidth),
		zap.Int("contact_per_minute", cfg.ContactPerMinute),
		zap.Bool("trust_proxy", cfg.TrustProxy),
		zap.String("inquiry_delivery", delivery),
	)
}

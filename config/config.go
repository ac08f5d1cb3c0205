// Package config handles all server configuration.
// CLI flags take precedence, then environment variables, then an optional
// YAML config file, then built-in defaults.
package config

import (
	"flag"
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"
	"unicode"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// envPrefix is prepended to the upper-cased key name for env lookups,
// e.g. "pages-dir" → VIBGYOR_PAGES_DIR.
const envPrefix = "VIBGYOR_"

// Config holds the complete server configuration.
type Config struct {
	// Port is the TCP port the HTTP server listens on.
	Port int
	// Upstream is the root URL of the events backend serving /api/events,
	// /api/contact and /uploads.
	Upstream string
	// Title is the branding name shown in the UI and page titles.
	Title string
	// FaviconPath is an optional path to a custom favicon file.
	FaviconPath string
	// PagesDir holds Markdown / Org content pages. Empty disables /pages.
	PagesDir string
	// Theme is the Chroma syntax-highlighting theme for content pages.
	Theme string
	// DefaultTheme is the UI colour scheme: "dark" or "light".
	DefaultTheme string
	// BandwidthLimit caps proxied /uploads traffic in bytes per second.
	// 0 means unlimited.
	BandwidthLimit float64
	// ContactPerMinute is how many contact or booking submissions one
	// client IP may make per minute. 0 disables the limit.
	ContactPerMinute int
	// CatalogTTL is how long a successful /api/events result is reused.
	// 0 fetches on every page load.
	CatalogTTL time.Duration
	// Featured is the number of collections shown on the landing page.
	Featured int
	// TrustProxy takes the client IP from X-Forwarded-For / X-Real-IP.
	// Only enable it behind a reverse proxy that sets those headers, since
	// the per-IP limits key on that address.
	TrustProxy bool
	// LogDev switches zap to the human-readable development encoder.
	LogDev bool

	SMTP SMTP
}

// SMTP configures booking inquiry delivery.
type SMTP struct {
	Host      string
	Port      int
	User      string
	Password  string
	FromName  string
	FromEmail string
	To        string
}

// source resolves one key across flag, env and file layers.
type source struct {
	flags *flag.FlagSet
	set   map[string]bool
	env   *koanf.Koanf
	file  *koanf.Koanf
}

func (s *source) get(key string) string {
	if s.set[key] {
		return s.flags.Lookup(key).Value.String()
	}
	if v := s.env.String(key); v != "" {
		return v
	}
	if s.file != nil && s.file.Exists(key) {
		return s.file.String(key)
	}
	return ""
}

// envKeyName maps VIBGYOR_PAGES_DIR to pages-dir.
func envKeyName(s string) string {
	return strings.ReplaceAll(strings.ToLower(strings.TrimPrefix(s, envPrefix)), "_", "-")
}

// Load parses os.Args and the environment, returning a validated Config.
func Load() (*Config, error) {
	return LoadArgs(os.Args[1:])
}

// LoadArgs is Load with explicit arguments.
func LoadArgs(args []string) (*Config, error) {
	fs := flag.NewFlagSet("vibgyorsite", flag.ContinueOnError)
	fs.String("config", "", "Path to a YAML config file (env: VIBGYOR_CONFIG)")
	fs.Int("port", 0, "HTTP port to listen on (env: VIBGYOR_PORT, default: 8080)")
	fs.String("upstream", "", "Events backend root URL (env: VIBGYOR_UPSTREAM, default: http://localhost:5100)")
	fs.String("title", "", "Site branding title (env: VIBGYOR_TITLE, default: Vibgyor Events)")
	fs.String("favicon", "", "Path to a custom favicon file (env: VIBGYOR_FAVICON)")
	fs.String("pages-dir", "", "Directory of Markdown/Org content pages (env: VIBGYOR_PAGES_DIR)")
	fs.String("highlight-theme", "", "Chroma theme for code blocks in pages (env: VIBGYOR_HIGHLIGHT_THEME, default: catppuccin-mocha)")
	fs.String("default-theme", "", "Default UI theme: dark or light (env: VIBGYOR_DEFAULT_THEME, default: dark)")
	fs.String("bandwidth", "", "Upload proxy bandwidth cap, e.g. 10mbps (env: VIBGYOR_BANDWIDTH, default: unlimited)")
	fs.String("contact-rate", "", "Form submissions per IP per minute, 0 = unlimited (env: VIBGYOR_CONTACT_RATE, default: 5)")
	fs.String("catalog-ttl", "", "Reuse a fetched collection list for this long, e.g. 30s (env: VIBGYOR_CATALOG_TTL, default: 0)")
	fs.String("featured", "", "Collections featured on the landing page (env: VIBGYOR_FEATURED, default: 3)")
	fs.String("trust-proxy", "", "Trust X-Forwarded-For / X-Real-IP for client IPs: true or false (env: VIBGYOR_TRUST_PROXY, default: false)")
	fs.String("log-dev", "", "Human-readable logs: true or false (env: VIBGYOR_LOG_DEV, default: false)")
	fs.String("smtp-host", "", "SMTP host for booking inquiries (env: VIBGYOR_SMTP_HOST)")
	fs.String("smtp-port", "", "SMTP port (env: VIBGYOR_SMTP_PORT, default: 587)")
	fs.String("smtp-user", "", "SMTP username (env: VIBGYOR_SMTP_USER)")
	fs.String("smtp-password", "", "SMTP password (env: VIBGYOR_SMTP_PASSWORD)")
	fs.String("smtp-from-name", "", "Sender display name (env: VIBGYOR_SMTP_FROM_NAME, default: site title)")
	fs.String("smtp-from", "", "Sender address (env: VIBGYOR_SMTP_FROM)")
	fs.String("inquiry-to", "", "Inbox receiving booking inquiries (env: VIBGYOR_INQUIRY_TO)")
	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	if fs.NArg() > 0 {
		return nil, fmt.Errorf("unexpected arguments: %s", strings.Join(fs.Args(), " "))
	}

	src := &source{flags: fs, set: map[string]bool{}, env: koanf.New(".")}
	fs.Visit(func(f *flag.Flag) { src.set[f.Name] = true })

	// --- environment ---
	if err := src.env.Load(env.Provider(envPrefix, ".", envKeyName), nil); err != nil {
		return nil, fmt.Errorf("loading env overrides: %w", err)
	}

	// --- config file ---
	if path := src.get("config"); path != "" {
		k := koanf.New(".")
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("reading config %s: %w", path, err)
		}
		src.file = k
	}

	cfg := &Config{}

	// --- port ---
	cfg.Port = 8080
	if v := src.get("port"); v != "" && v != "0" {
		p, err := strconv.Atoi(v)
		if err != nil || p < 1 || p > 65535 {
			return nil, fmt.Errorf("invalid port %q", v)
		}
		cfg.Port = p
	}

	// --- upstream ---
	cfg.Upstream = orDefault(src.get("upstream"), "http://localhost:5100")
	u, err := url.Parse(cfg.Upstream)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return nil, fmt.Errorf("invalid upstream %q: must be an http(s) URL", cfg.Upstream)
	}

	cfg.Title = orDefault(src.get("title"), "Vibgyor Events")
	cfg.Theme = orDefault(src.get("highlight-theme"), "catppuccin-mocha")

	// --- favicon ---
	cfg.FaviconPath = src.get("favicon")
	if cfg.FaviconPath != "" {
		info, err := os.Stat(cfg.FaviconPath)
		if err != nil {
			return nil, fmt.Errorf("favicon %q: %w", cfg.FaviconPath, err)
		}
		if info.IsDir() {
			return nil, fmt.Errorf("favicon %q is a directory, not a file", cfg.FaviconPath)
		}
	}

	// --- pages-dir ---
	cfg.PagesDir = src.get("pages-dir")
	if cfg.PagesDir != "" {
		info, err := os.Stat(cfg.PagesDir)
		if err != nil {
			return nil, fmt.Errorf("pages directory %q: %w", cfg.PagesDir, err)
		}
		if !info.IsDir() {
			return nil, fmt.Errorf("%q is not a directory", cfg.PagesDir)
		}
	}

	// --- default-theme ---
	cfg.DefaultTheme = strings.ToLower(strings.TrimSpace(orDefault(src.get("default-theme"), "dark")))
	if cfg.DefaultTheme != "dark" && cfg.DefaultTheme != "light" {
		return nil, fmt.Errorf("invalid default-theme %q: must be \"dark\" or \"light\"", cfg.DefaultTheme)
	}

	// --- bandwidth ---
	if raw := src.get("bandwidth"); raw != "" {
		bps, err := parseBandwidth(raw)
		if err != nil {
			return nil, fmt.Errorf("invalid bandwidth %q: %w", raw, err)
		}
		cfg.BandwidthLimit = bps
	}

	// --- contact-rate ---
	cfg.ContactPerMinute, err = parseNonNegative(src.get("contact-rate"), 5)
	if err != nil {
		return nil, fmt.Errorf("invalid contact-rate: %w", err)
	}

	// --- catalog-ttl ---
	if raw := src.get("catalog-ttl"); raw != "" {
		d, err := time.ParseDuration(raw)
		if err != nil || d < 0 {
			return nil, fmt.Errorf("invalid catalog-ttl %q", raw)
		}
		cfg.CatalogTTL = d
	}

	// --- featured ---
	cfg.Featured, err = parseNonNegative(src.get("featured"), 3)
	if err != nil {
		return nil, fmt.Errorf("invalid featured: %w", err)
	}

	cfg.TrustProxy = parseBoolValue(src.get("trust-proxy"), false)
	cfg.LogDev = parseBoolValue(src.get("log-dev"), false)

	// --- smtp ---
	cfg.SMTP = SMTP{
		Host:      src.get("smtp-host"),
		User:      src.get("smtp-user"),
		Password:  src.get("smtp-password"),
		FromName:  orDefault(src.get("smtp-from-name"), cfg.Title),
		FromEmail: src.get("smtp-from"),
		To:        src.get("inquiry-to"),
	}
	cfg.SMTP.Port = 587
	if v := src.get("smtp-port"); v != "" {
		p, err := strconv.Atoi(v)
		if err != nil || p < 1 || p > 65535 {
			return nil, fmt.Errorf("invalid smtp-port %q", v)
		}
		cfg.SMTP.Port = p
	}
	if cfg.SMTP.Host != "" && (cfg.SMTP.FromEmail == "" || cfg.SMTP.To == "") {
		return nil, fmt.Errorf("smtp-host is set but smtp-from or inquiry-to is missing")
	}

	return cfg, nil
}

func orDefault(v, def string) string {
	if v == "" {
		return def
	}
	return v
}

func parseNonNegative(v string, def int) (int, error) {
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(strings.TrimSpace(v))
	if err != nil || n < 0 {
		return 0, fmt.Errorf("%q is not a non-negative integer", v)
	}
	return n, nil
}

// parseBoolValue converts a human-readable boolean, returning defaultVal
// when s is empty or unrecognised.
func parseBoolValue(s string, defaultVal bool) bool {
	if b, ok := parseBoolString(s); ok {
		return b
	}
	return defaultVal
}

// parseBoolString converts a human-readable boolean string to a bool.
func parseBoolString(s string) (bool, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "1", "t", "true", "yes", "on":
		return true, true
	case "0", "f", "false", "no", "off":
		return false, true
	}
	return false, false
}

// parseBandwidth converts a human-readable bandwidth string to bytes per
// second. Accepted units (case-insensitive): bps, kbps, mbps, gbps.
// A bare number is treated as bits per second.
//
// Examples: "10mbps", "500 kbps", "1gbps"
func parseBandwidth(s string) (float64, error) {
	s = strings.TrimSpace(s)
	if s == "" || s == "0" {
		return 0, nil
	}

	i := 0
	for i < len(s) && (s[i] == '.' || (s[i] >= '0' && s[i] <= '9')) {
		i++
	}
	if i == 0 {
		return 0, fmt.Errorf("no numeric value found")
	}
	numStr := s[:i]
	unit := strings.ToLower(strings.TrimFunc(s[i:], unicode.IsSpace))

	val, err := strconv.ParseFloat(numStr, 64)
	if err != nil || val < 0 {
		return 0, fmt.Errorf("invalid number %q", numStr)
	}

	switch unit {
	case "", "bps":
		return val / 8, nil
	case "kbps":
		return val * 1_000 / 8, nil
	case "mbps":
		return val * 1_000_000 / 8, nil
	case "gbps":
		return val * 1_000_000_000 / 8, nil
	default:
		return 0, fmt.Errorf("unknown unit %q (accepted: bps, kbps, mbps, gbps)", unit)
	}
}

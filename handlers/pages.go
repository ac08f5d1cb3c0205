package handlers

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"net/http"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"vibgyorsite/models"
)

// pageExtensions lists the source formats tried for a page name, in order.
var pageExtensions = []string{".md", ".markdown", ".org"}

// pageNameRe restricts page names to a single flat path segment.
var pageNameRe = regexp.MustCompile(`^[a-z0-9][a-z0-9_-]{0,63}$`)

// maxPageBytes caps how much of a page source file is read.
const maxPageBytes = 2 * 1024 * 1024

var errBadPageName = errors.New("invalid page name")

// Pages renders Markdown and Org-mode documents from a directory and caches
// the results until the watcher reports a change.
type Pages struct {
	dir   string
	cache *pageCache
	log   *zap.Logger
}

// NewPages serves documents from dir.
func NewPages(dir string, log *zap.Logger) *Pages {
	return &Pages{dir: dir, cache: newPageCache(), log: log}
}

// Dir returns the watched directory.
func (p *Pages) Dir() string { return p.dir }

// resolve maps a page name onto a source file inside the pages directory.
func (p *Pages) resolve(name string) (string, error) {
	if !pageNameRe.MatchString(name) {
		return "", errBadPageName
	}
	root := filepath.Clean(p.dir)
	for _, ext := range pageExtensions {
		fsPath := filepath.Join(root, name+ext)
		// Security: the resolved path must stay directly under the root.
		if filepath.Dir(fsPath) != root {
			return "", errBadPageName
		}
		info, err := os.Stat(fsPath)
		if err == nil && info.Mode().IsRegular() {
			return fsPath, nil
		}
	}
	return "", fmt.Errorf("page %q: %w", name, fs.ErrNotExist)
}

// Render returns the rendered page, from cache when possible.
func (p *Pages) Render(name string) (renderedPage, error) {
	if rp, ok := p.cache.get(name); ok {
		return rp, nil
	}
	fsPath, err := p.resolve(name)
	if err != nil {
		return renderedPage{}, err
	}
	content, err := readPageFile(fsPath)
	if err != nil {
		return renderedPage{}, fmt.Errorf("read %s: %w", fsPath, err)
	}
	html, err := renderContent(content, formatForFile(fsPath))
	if err != nil {
		return renderedPage{}, err
	}
	rp := renderedPage{title: pageTitle(name), html: html}
	p.cache.put(name, rp)
	p.log.Debug("pages: rendered", zap.String("page", name), zap.String("file", fsPath))
	return rp, nil
}

// Evict drops the cached render for the page backed by fsPath.
func (p *Pages) Evict(fsPath string) {
	base := filepath.Base(fsPath)
	name := strings.TrimSuffix(base, filepath.Ext(base))
	p.cache.evict(name)
}

// EvictAll drops every cached render.
func (p *Pages) EvictAll() { p.cache.evictAll() }

// PageHandler serves /pages/{name}.
func PageHandler(pages *Pages, site Site, log *zap.Logger, tmpl interface {
	ExecutePage(http.ResponseWriter, *models.ContentPage) error
}) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		name := chi.URLParam(r, "name")
		rp, err := pages.Render(name)
		switch {
		case errors.Is(err, errBadPageName), isNotExist(err):
			http.Error(w, "Not found", http.StatusNotFound)
			return
		case err != nil:
			log.Error("pages: render", zap.String("page", name), zap.Error(err))
			http.Error(w, "Could not render page", http.StatusInternalServerError)
			return
		}

		page := &models.ContentPage{
			Base:     site.base(rp.title, name),
			Name:     name,
			Rendered: rp.html,
		}
		if err := tmpl.ExecutePage(w, page); err != nil {
			log.Error("pages: template", zap.Error(err))
			http.Error(w, "Template error", http.StatusInternalServerError)
		}
	}
}

func isNotExist(err error) bool {
	return errors.Is(err, fs.ErrNotExist)
}

// pageTitle turns "our-services" into "Our Services".
func pageTitle(name string) string {
	words := strings.NewReplacer("-", " ", "_", " ").Replace(name)
	return cases.Title(language.English).String(words)
}

// readPageFile reads at most maxPageBytes of a page source.
func readPageFile(fsPath string) (string, error) {
	f, err := os.Open(fsPath)
	if err != nil {
		return "", err
	}
	defer f.Close()
	b, err := io.ReadAll(io.LimitReader(f, maxPageBytes))
	if err != nil {
		return "", err
	}
	return string(b), nil
}

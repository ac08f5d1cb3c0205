package handlers

import (
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"go.uber.org/zap/zaptest"
)

func writePage(t *testing.T, dir, name, content string) string {
	t.Helper()
	p := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(p, []byte(content), 0o644))
	return p
}

func TestPagesRenderMarkdown(t *testing.T) {
	dir := t.TempDir()
	writePage(t, dir, "our-services.md", "# Services\n\nWe plan **everything**.\n\n<script>alert(1)</script>\n\n```go\nfunc main() {}\n```\n")

	p := NewPages(dir, zaptest.NewLogger(t))
	rp, err := p.Render("our-services")
	require.NoError(t, err)

	html := string(rp.html)
	assert.Equal(t, "Our Services", rp.title)
	assert.Contains(t, html, `<h1 id="services">Services</h1>`)
	assert.Contains(t, html, "<strong>everything</strong>")
	assert.NotContains(t, html, "<script")
	assert.Contains(t, html, `class="chroma"`)
}

func TestPagesRenderOrg(t *testing.T) {
	dir := t.TempDir()
	writePage(t, dir, "faq.org", "* Questions\nDo you travel? /Yes/\n#+BEGIN_SRC python\nprint('hi')\n#+END_SRC\n")

	rp, err := NewPages(dir, zaptest.NewLogger(t)).Render("faq")
	require.NoError(t, err)
	html := string(rp.html)
	assert.Contains(t, html, "Questions")
	assert.Contains(t, html, "<em>Yes</em>")
	assert.Contains(t, html, "print")
}

func TestPagesRejectsBadNames(t *testing.T) {
	dir := t.TempDir()
	writePage(t, dir, "about.md", "hi")
	p := NewPages(dir, zaptest.NewLogger(t))

	for _, name := range []string{"", "../about", "..", "a/b", "About", ".hidden", "about.md"} {
		_, err := p.Render(name)
		assert.Error(t, err, name)
	}

	_, err := p.Render("missing")
	assert.True(t, isNotExist(err))
}

func TestPagesCacheAndEvict(t *testing.T) {
	dir := t.TempDir()
	path := writePage(t, dir, "about.md", "first")
	p := NewPages(dir, zaptest.NewLogger(t))

	rp, err := p.Render("about")
	require.NoError(t, err)
	assert.Contains(t, string(rp.html), "first")

	writePage(t, dir, "about.md", "second")
	rp, _ = p.Render("about")
	assert.Contains(t, string(rp.html), "first", "served from cache")

	p.Evict(path)
	rp, _ = p.Render("about")
	assert.Contains(t, string(rp.html), "second")
}

func TestWatcherEvictsChangedPage(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	dir := t.TempDir()
	writePage(t, dir, "about.md", "before")
	p := NewPages(dir, zaptest.NewLogger(t))

	stop, err := StartWatcher(p, zaptest.NewLogger(t))
	require.NoError(t, err)
	defer stop()

	_, err = p.Render("about")
	require.NoError(t, err)

	writePage(t, dir, "about.md", "after")
	require.Eventually(t, func() bool {
		rp, err := p.Render("about")
		return err == nil && strings.Contains(string(rp.html), "after")
	}, 5*time.Second, 20*time.Millisecond)
}

func TestStartWatcherMissingDir(t *testing.T) {
	p := NewPages(filepath.Join(t.TempDir(), "nope"), zaptest.NewLogger(t))
	_, err := StartWatcher(p, zaptest.NewLogger(t))
	assert.Error(t, err)
}

func TestPageHandler(t *testing.T) {
	dir := t.TempDir()
	writePage(t, dir, "about.md", "# About us")
	log := zaptest.NewLogger(t)
	tmpl := &recordingTemplates{}

	r := chi.NewRouter()
	r.Get("/pages/{name}", PageHandler(NewPages(dir, log), testSite, log, tmpl))

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/pages/about", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	require.NotNil(t, tmpl.page)
	assert.Equal(t, "About", tmpl.page.Title)
	assert.Equal(t, "about", tmpl.page.Nav)
	assert.Contains(t, string(tmpl.page.Rendered), "About us")

	for _, target := range []string{"/pages/missing", "/pages/..%2fabout", "/pages/About"} {
		rec = httptest.NewRecorder()
		r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, target, nil))
		assert.Equal(t, http.StatusNotFound, rec.Code, target)
	}
}

func TestHighlightCSSHandler(t *testing.T) {
	rec := httptest.NewRecorder()
	HighlightCSSHandler("no-such-theme")(rec, httptest.NewRequest(http.MethodGet, "/highlight.css", nil))
	assert.Equal(t, "text/css; charset=utf-8", rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Body.String(), ".chroma")
}

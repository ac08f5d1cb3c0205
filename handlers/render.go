package handlers

import (
	"bytes"
	"fmt"
	"html/template"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/alecthomas/chroma/v2"
	chromahtml "github.com/alecthomas/chroma/v2/formatters/html"
	"github.com/alecthomas/chroma/v2/lexers"
	"github.com/alecthomas/chroma/v2/styles"
	"github.com/microcosm-cc/bluemonday"
	"github.com/niklasfasching/go-org/org"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	highlighting "github.com/yuin/goldmark-highlighting/v2"
	"github.com/yuin/goldmark/parser"
	goldmarkhtml "github.com/yuin/goldmark/renderer/html"
)

// pageFormat is the markup language of a content page source.
type pageFormat int

const (
	formatMarkdown pageFormat = iota
	formatOrg
)

func formatForFile(fsPath string) pageFormat {
	if strings.EqualFold(filepath.Ext(fsPath), ".org") {
		return formatOrg
	}
	return formatMarkdown
}

// renderTheme is the Chroma style used for code blocks in content pages.
// Set once at startup by InitRenderOptions.
var renderTheme = "catppuccin-mocha"

// docPolicy sanitizes every rendered content page.
var docPolicy = buildDocPolicy()

// InitRenderOptions sets the Chroma style for content pages. It must be
// called before the server begins accepting requests.
func InitRenderOptions(theme string) {
	renderTheme = theme
}

// buildDocPolicy constructs the bluemonday allowlist for rendered Markdown
// and Org-mode output. data: URIs are never allowed on images; uploads and
// external images are referenced by URL.
func buildDocPolicy() *bluemonday.Policy {
	p := bluemonday.NewPolicy()

	p.AllowElements(
		"address", "article", "aside",
		"blockquote", "br",
		"caption", "col", "colgroup",
		"details", "div", "dl", "dt", "dd",
		"figure", "figcaption", "footer",
		"h1", "h2", "h3", "h4", "h5", "h6",
		"header", "hr",
		"li",
		"ol",
		"p", "pre",
		"section", "summary",
		"table", "tbody", "td", "tfoot", "th", "thead", "tr",
		"ul",
	)
	p.AllowElements(
		"abbr", "b", "cite", "code",
		"del", "em", "i", "kbd", "mark", "q",
		"s", "small", "span", "strong", "sub", "sup",
		"u", "wbr",
	)

	// Links: http, https, mailto and tel (for the contact page), plus
	// relative links into the rest of the site.
	p.AllowAttrs("href", "title").OnElements("a")
	p.AllowURLSchemes("http", "https", "mailto", "tel")
	p.AllowRelativeURLs(true)
	p.RequireParseableURLs(true)
	p.RequireNoFollowOnFullyQualifiedLinks(true)

	p.AllowAttrs("src", "alt", "title", "width", "height", "loading").OnElements("img")

	// id and class carry heading anchors and Chroma's CSS classes.
	p.AllowAttrs("id", "class", "lang", "title").Globally()

	p.AllowAttrs("align", "colspan", "rowspan", "scope").OnElements("td", "th")
	p.AllowAttrs("span", "width").OnElements("col", "colgroup")
	p.AllowAttrs("start", "type").OnElements("ol")
	p.AllowAttrs("cite").OnElements("blockquote", "del", "q")

	return p
}

// renderContent renders a page source in the given format.
func renderContent(content string, format pageFormat) (template.HTML, error) {
	switch format {
	case formatMarkdown:
		return renderMarkdown(content)
	case formatOrg:
		return renderOrg(content)
	}
	return "", fmt.Errorf("no renderer for format %d", format)
}

// renderMarkdown converts Markdown to HTML using goldmark with GitHub-flavoured
// extensions and Chroma highlighting on fenced code blocks. Raw HTML blocks
// pass through the renderer and are then sanitized with everything else.
func renderMarkdown(content string) (template.HTML, error) {
	md := goldmark.New(
		goldmark.WithExtensions(
			extension.GFM,
			extension.Footnote,
			extension.DefinitionList,
			extension.Typographer,
			highlighting.NewHighlighting(
				highlighting.WithStyle(renderTheme),
				highlighting.WithFormatOptions(
					chromahtml.WithClasses(true),
				),
			),
		),
		goldmark.WithParserOptions(
			parser.WithAutoHeadingID(),
		),
		goldmark.WithRendererOptions(
			goldmarkhtml.WithUnsafe(),
		),
	)
	var buf bytes.Buffer
	if err := md.Convert([]byte(content), &buf); err != nil {
		return "", fmt.Errorf("markdown render: %w", err)
	}
	return template.HTML(docPolicy.Sanitize(buf.String())), nil
}

// renderOrg converts Org-mode content to HTML. Source blocks are handed to
// Chroma through go-org's HighlightCodeBlock hook; an empty return makes
// go-org fall back to a plain <pre>.
func renderOrg(content string) (template.HTML, error) {
	doc := org.New().Parse(strings.NewReader(content), "")
	w := org.NewHTMLWriter()
	w.HighlightCodeBlock = func(source, lang string, inline bool, _ map[string]string) string {
		return chromaHighlightBlock(source, lang)
	}
	out, err := doc.Write(w)
	if err != nil {
		return "", fmt.Errorf("org render: %w", err)
	}
	return template.HTML(docPolicy.Sanitize(out)), nil
}

// chromaHighlightBlock returns source highlighted with CSS classes, or ""
// on any error.
func chromaHighlightBlock(source, lang string) string {
	l := lexers.Get(lang)
	if l == nil {
		l = lexers.Fallback
	}
	l = chroma.Coalesce(l)

	it, err := l.Tokenise(nil, source)
	if err != nil {
		return ""
	}
	var buf bytes.Buffer
	if err := chromahtml.New(chromahtml.WithClasses(true)).Format(&buf, chromaStyle(renderTheme), it); err != nil {
		return ""
	}
	return buf.String()
}

func chromaStyle(name string) *chroma.Style {
	if s := styles.Get(name); s != nil {
		return s
	}
	return styles.Fallback
}

// HighlightCSSHandler serves the Chroma stylesheet for theme. The CSS is
// generated once and kept in memory.
func HighlightCSSHandler(theme string) http.HandlerFunc {
	var buf bytes.Buffer
	if err := chromahtml.New(chromahtml.WithClasses(true)).WriteCSS(&buf, chromaStyle(theme)); err != nil {
		buf.Reset()
	}
	css := buf.Bytes()

	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/css; charset=utf-8")
		w.Header().Set("Cache-Control", "public, max-age=3600")
		w.Write(css)
	}
}

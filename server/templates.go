// Package server contains the HTTP server setup and template management.
package server

import (
	"fmt"
	"html/template"
	"io/fs"
	"net/http"
	"os"
	"strings"

	"vibgyorsite/booking"
	"vibgyorsite/browser"
	"vibgyorsite/models"
)

// Templates wraps compiled per-page template sets.
type Templates struct {
	home    *template.Template
	gallery *template.Template
	contact *template.Template
	booking *template.Template
	page    *template.Template
}

var tmplFuncs = template.FuncMap{
	"add":   func(a, b int) int { return a + b },
	"lower": strings.ToLower,
	"isList": func(v browser.ViewMode) bool {
		return v == browser.List
	},
	"imageCount": func(c browser.Collection) int { return c.ImageCount() },
	"eventTypes": booking.EventTypes,
}

// LoadTemplates parses templates/ from assets. Each page gets its own
// template.Template cloned from base so that {{define "content"}} blocks
// don't collide.
func LoadTemplates(assets fs.FS) (*Templates, error) {
	sub, err := fs.Sub(assets, "templates")
	if err != nil {
		return nil, fmt.Errorf("sub fs: %w", err)
	}

	base, err := template.New("").Funcs(tmplFuncs).ParseFS(sub, "base.html", "partials.html")
	if err != nil {
		return nil, fmt.Errorf("parse base: %w", err)
	}

	t := &Templates{}
	for _, p := range []struct {
		dst  **template.Template
		file string
	}{
		{&t.home, "home.html"},
		{&t.gallery, "gallery.html"},
		{&t.contact, "contact.html"},
		{&t.booking, "book.html"},
		{&t.page, "page.html"},
	} {
		if *p.dst, err = cloneAndParse(base, sub, p.file); err != nil {
			return nil, fmt.Errorf("parse %s: %w", p.file, err)
		}
	}
	return t, nil
}

// loadTemplatesFromDisk loads templates from a directory on disk. Used in
// tests where the embedded FS is not available.
func loadTemplatesFromDisk(root string) (*Templates, error) {
	return LoadTemplates(os.DirFS(root))
}

// cloneAndParse clones a base template set and adds one more file.
func cloneAndParse(base *template.Template, fsys fs.FS, name string) (*template.Template, error) {
	t, err := base.Clone()
	if err != nil {
		return nil, err
	}
	return t.ParseFS(fsys, name)
}

func execute(t *template.Template, w http.ResponseWriter, data any) error {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	return t.ExecuteTemplate(w, "base", data)
}

// ExecuteHome renders the landing page.
func (t *Templates) ExecuteHome(w http.ResponseWriter, data *models.HomePage) error {
	return execute(t.home, w, data)
}

// ExecuteGallery renders the collection browser.
func (t *Templates) ExecuteGallery(w http.ResponseWriter, data *models.GalleryPage) error {
	return execute(t.gallery, w, data)
}

// ExecuteContact renders the contact form.
func (t *Templates) ExecuteContact(w http.ResponseWriter, data *models.ContactPage) error {
	return execute(t.contact, w, data)
}

// ExecuteBooking renders the booking wizard.
func (t *Templates) ExecuteBooking(w http.ResponseWriter, data *models.BookingPage) error {
	return execute(t.booking, w, data)
}

// ExecutePage renders a content page.
func (t *Templates) ExecutePage(w http.ResponseWriter, data *models.ContentPage) error {
	return execute(t.page, w, data)
}

// Package browser implements the portfolio Collection Browser: filtering,
// per-category counts, and the Gallery → Detail → Lightbox navigation state.
//
// Everything in this package is pure. The HTTP layer rebuilds a State from
// the request and applies one transition per user event.
package browser

import (
	"net/url"
	"strings"
)

// Category is the classification tag used to filter collections.
type Category string

const (
	// All is a filter pseudo-category. It is never a stored value.
	All         Category = "All"
	Wedding     Category = "Wedding"
	Corporate   Category = "Corporate"
	Concerts    Category = "Concerts"
	Exhibitions Category = "Exhibitions"
	Galas       Category = "Galas"
)

// Categories lists every filterable category in display order.
var Categories = []Category{All, Wedding, Corporate, Concerts, Exhibitions, Galas}

// ParseCategory maps user input to a Category. Matching is exact first and
// case-insensitive second; anything else falls back to All.
func ParseCategory(s string) Category {
	s = strings.TrimSpace(s)
	for _, c := range Categories {
		if string(c) == s {
			return c
		}
	}
	for _, c := range Categories {
		if strings.EqualFold(string(c), s) {
			return c
		}
	}
	return All
}

// Known reports whether c is one of the stored (non-All) categories.
func (c Category) Known() bool {
	switch c {
	case Wedding, Corporate, Concerts, Exhibitions, Galas:
		return true
	}
	return false
}

// Collection is one past event with its gallery, as served by the upstream
// /api/events endpoint. It is read-only to this package.
type Collection struct {
	ID            string   `json:"_id"`
	Title         string   `json:"title"`
	Description   string   `json:"description"`
	Category      Category `json:"category"`
	Date          string   `json:"date"`
	Location      string   `json:"location"`
	Photographer  string   `json:"photographer"`
	Client        string   `json:"client"`
	CoverImage    string   `json:"coverImage"`
	GalleryImages []string `json:"galleryImages"`
}

// ImageCount returns the number of gallery images.
func (c *Collection) ImageCount() int {
	return len(c.GalleryImages)
}

// UploadsPath is the same-origin prefix backend images are served under.
const UploadsPath = "/uploads/"

// ImageURL resolves an image reference from the backend to a URL a page can
// render. Absolute http(s) URLs and rooted paths are kept; a bare file name
// is placed under UploadsPath with each segment escaped.
func ImageURL(ref string) string {
	ref = strings.TrimSpace(ref)
	switch {
	case ref == "":
		return ""
	case strings.HasPrefix(ref, "/"):
		return ref
	case strings.HasPrefix(strings.ToLower(ref), "http://"), strings.HasPrefix(strings.ToLower(ref), "https://"):
		return ref
	}
	ref = strings.TrimPrefix(ref, strings.TrimPrefix(UploadsPath, "/"))
	segs := strings.Split(ref, "/")
	for i, s := range segs {
		segs[i] = url.PathEscape(s)
	}
	return UploadsPath + strings.Join(segs, "/")
}

// WithImageURLs returns a copy of c with CoverImage and GalleryImages passed
// through ImageURL.
func (c Collection) WithImageURLs() Collection {
	c.CoverImage = ImageURL(c.CoverImage)
	if c.GalleryImages != nil {
		imgs := make([]string, len(c.GalleryImages))
		for i, img := range c.GalleryImages {
			imgs[i] = ImageURL(img)
		}
		c.GalleryImages = imgs
	}
	return c
}

// Find returns the collection with the given ID, or nil.
func Find(collections []Collection, id string) *Collection {
	if id == "" {
		return nil
	}
	for i := range collections {
		if collections[i].ID == id {
			return &collections[i]
		}
	}
	return nil
}

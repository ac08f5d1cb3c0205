// Package models defines the view models handed to the page templates.
package models

import (
	"html/template"

	"vibgyorsite/booking"
	"vibgyorsite/browser"
)

// Base is embedded in every page model.
type Base struct {
	Title    string
	SiteName string // branding name shown in the header and page title
	// DefaultTheme is the server-configured theme ("dark" or "light").
	DefaultTheme string
	// Nav names the active top-level section for highlighting the menu.
	Nav string
}

// CategoryTab is one filter button above the gallery.
type CategoryTab struct {
	Name   browser.Category
	Count  int
	Href   string
	Active bool
}

// CollectionCard is a collection plus the link that opens its detail view.
type CollectionCard struct {
	browser.Collection
	Href string
}

// ImageLink is one thumbnail in the detail view.
type ImageLink struct {
	Src   string
	Href  string // opens this image in the lightbox
	Index int
}

// DetailView is the selected collection with its image sequence.
type DetailView struct {
	Collection browser.Collection
	BackHref   string
	Images     []ImageLink
}

// LightboxView is the open image overlay.
type LightboxView struct {
	Image     string
	Alt       string
	Position  int
	Total     int
	PrevHref  string // empty at the first image
	NextHref  string // empty at the last image
	CloseHref string
}

// GalleryPage holds everything the gallery template needs in all three
// navigation modes.
type GalleryPage struct {
	Base
	Mode       string // "gallery", "detail" or "lightbox"
	Categories []CategoryTab
	Search     string
	Category   browser.Category
	View       browser.ViewMode
	GridHref   string
	ListHref   string
	// Collections is the visible, filtered list.
	Collections []CollectionCard
	// FetchFailed is true when the backend could not be reached; the list is
	// then empty and the "no collections found" state is shown.
	FetchFailed bool
	Detail      *DetailView
	Lightbox    *LightboxView
}

// HomePage is the landing page.
type HomePage struct {
	Base
	Featured []CollectionCard
	// Intro is the optional rendered home.md content block.
	Intro template.HTML
}

// ContactForm carries posted values back into the form.
type ContactForm struct {
	Name    string
	Email   string
	Subject string
	Message string
}

// ContactPage is the contact form with validation and relay results.
type ContactPage struct {
	Base
	Form    ContactForm
	Errors  map[string]string
	Success string
	Failure string
}

// BookingStep is one numbered circle of the wizard progress bar.
type BookingStep struct {
	Number int
	Label  string
	Done   bool
}

// BookingPage is the multi-step inquiry wizard.
type BookingPage struct {
	Base
	Step      int
	Progress  int
	Steps     []BookingStep
	Inquiry   booking.Inquiry
	Hidden    []booking.HiddenField
	Errors    map[string]string
	Done      bool
	Reference string
	Failure   string
}

// ContentPage is a rendered Markdown or Org document from the pages dir.
type ContentPage struct {
	Base
	Name     string
	Rendered template.HTML
}

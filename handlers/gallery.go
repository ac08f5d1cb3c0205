// Package handlers contains all HTTP handler functions.
package handlers

import (
	"encoding/json"
	"net/http"

	"go.uber.org/zap"

	"vibgyorsite/browser"
	"vibgyorsite/models"
)

// Site carries the branding shared by every page.
type Site struct {
	Name         string
	DefaultTheme string
}

func (s Site) base(title, nav string) models.Base {
	if title == "" {
		title = s.Name
	}
	return models.Base{Title: title, SiteName: s.Name, DefaultTheme: s.DefaultTheme, Nav: nav}
}

// galleryPath is the URL the gallery is mounted at; every state link is
// built against it.
const galleryPath = "/gallery"

// paramStep applies one lightbox step on top of the state in the URL.
const paramStep = "step"

// browserState rebuilds the view state for r and applies an optional
// step=prev|next transition. An out-of-range image in the URL leaves the
// state in the detail view.
func browserState(r *http.Request, collections []browser.Collection, log *zap.Logger) browser.State {
	q := r.URL.Query()
	state, err := browser.FromQuery(q, collections)
	if err != nil {
		log.Debug("gallery: ignoring image parameter",
			zap.String("collection", q.Get(browser.ParamCollection)),
			zap.String("image", q.Get(browser.ParamImage)),
			zap.Error(err))
	}
	switch q.Get(paramStep) {
	case "prev":
		state = state.StepImage(state.Selected(), browser.Prev)
	case "next":
		state = state.StepImage(state.Selected(), browser.Next)
	}
	return state
}

// GalleryHandler renders the collection browser in whichever mode the URL
// describes. A failed backend fetch still renders the page, with an empty
// list and the "no collections found" state.
func GalleryHandler(cat *Catalog, site Site, log *zap.Logger, tmpl interface {
	ExecuteGallery(http.ResponseWriter, *models.GalleryPage) error
}) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		snap := cat.Snapshot(r.Context())
		state := browserState(r, snap.Collections, log)
		page := buildGalleryPage(site, state, snap)

		if err := tmpl.ExecuteGallery(w, page); err != nil {
			log.Error("gallery: template", zap.Error(err))
			http.Error(w, "Template error", http.StatusInternalServerError)
		}
	}
}

// buildGalleryPage projects a state and a snapshot into the template model.
func buildGalleryPage(site Site, state browser.State, snap Snapshot) *models.GalleryPage {
	counts := browser.CategoryCounts(snap.Collections)
	visible := state.Visible(snap.Collections)

	page := &models.GalleryPage{
		Base:        site.base("Gallery", "gallery"),
		Mode:        state.Mode().String(),
		Search:      state.Search(),
		Category:    state.Category(),
		View:        state.View(),
		GridHref:    state.ExitDetail().WithViewMode(browser.Grid).Href(galleryPath),
		ListHref:    state.ExitDetail().WithViewMode(browser.List).Href(galleryPath),
		FetchFailed: snap.Err != nil,
	}

	for _, c := range browser.Categories {
		page.Categories = append(page.Categories, models.CategoryTab{
			Name:   c,
			Count:  counts[c],
			Href:   state.ExitDetail().WithCategory(c).Href(galleryPath),
			Active: c == state.Category(),
		})
	}

	page.Collections = make([]models.CollectionCard, 0, len(visible))
	for i := range visible {
		page.Collections = append(page.Collections, models.CollectionCard{
			Collection: visible[i],
			Href:       state.SelectCollection(&visible[i]).Href(galleryPath),
		})
	}

	sel := state.Selected()
	if sel == nil {
		return page
	}

	page.Title = sel.Title
	detail := &models.DetailView{
		Collection: *sel,
		BackHref:   state.ExitDetail().Href(galleryPath),
	}
	for i, img := range sel.GalleryImages {
		opened, err := state.OpenImage(sel, i)
		if err != nil {
			continue
		}
		detail.Images = append(detail.Images, models.ImageLink{Src: img, Href: opened.Href(galleryPath), Index: i})
	}
	page.Detail = detail

	if lb, ok := state.Lightbox(); ok {
		view := &models.LightboxView{
			Image:     lb.Image,
			Alt:       sel.Title,
			Position:  lb.Position,
			Total:     lb.Total,
			CloseHref: state.CloseImage().Href(galleryPath),
		}
		if lb.HasPrev {
			view.PrevHref = state.StepImage(sel, browser.Prev).Href(galleryPath)
		}
		if lb.HasNext {
			view.NextHref = state.StepImage(sel, browser.Next).Href(galleryPath)
		}
		page.Lightbox = view
	}
	return page
}

// galleryJSON is the response body of GalleryAPIHandler.
type galleryJSON struct {
	Mode        string                   `json:"mode"`
	Category    browser.Category         `json:"category"`
	Search      string                   `json:"search"`
	View        browser.ViewMode         `json:"view"`
	Counts      map[browser.Category]int `json:"counts"`
	Collections []browser.Collection     `json:"collections"`
	FetchFailed bool                     `json:"fetchFailed"`
	Error       string                   `json:"error,omitempty"`
	Selected    *browser.Collection      `json:"selected,omitempty"`
	Lightbox    *browser.Lightbox        `json:"lightbox,omitempty"`
}

// GalleryAPIHandler serves the same view state as GalleryHandler as JSON,
// for scripts that re-render the gallery without a full page load.
func GalleryAPIHandler(cat *Catalog, log *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		snap := cat.Snapshot(r.Context())
		state := browserState(r, snap.Collections, log)

		body := galleryJSON{
			Mode:        state.Mode().String(),
			Category:    state.Category(),
			Search:      state.Search(),
			View:        state.View(),
			Counts:      browser.CategoryCounts(snap.Collections),
			Collections: state.Visible(snap.Collections),
			FetchFailed: snap.Err != nil,
			Selected:    state.Selected(),
		}
		if snap.Err != nil {
			body.Error = "collections are temporarily unavailable"
		}
		if lb, ok := state.Lightbox(); ok {
			body.Lightbox = &lb
		}

		w.Header().Set("Content-Type", "application/json")
		w.Header().Set("Cache-Control", "no-store")
		if err := json.NewEncoder(w).Encode(body); err != nil {
			log.Warn("gallery api: encode", zap.Error(err))
		}
	}
}

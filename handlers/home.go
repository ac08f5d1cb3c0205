package handlers

import (
	"net/http"

	"go.uber.org/zap"

	"vibgyorsite/browser"
	"vibgyorsite/models"
)

// homeIntroPage is the content page rendered under the hero when present.
const homeIntroPage = "home"

// HomeHandler renders the landing page: the hero, the first featured
// collections and the optional home.md intro. pages may be nil.
func HomeHandler(cat *Catalog, pages *Pages, featured int, site Site, log *zap.Logger, tmpl interface {
	ExecuteHome(http.ResponseWriter, *models.HomePage) error
}) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/" && r.URL.Path != "" {
			http.NotFound(w, r)
			return
		}

		page := &models.HomePage{Base: site.base("", "home")}

		if featured > 0 {
			snap := cat.Snapshot(r.Context())
			n := min(featured, len(snap.Collections))
			state := browser.NewState()
			for i := 0; i < n; i++ {
				c := &snap.Collections[i]
				page.Featured = append(page.Featured, models.CollectionCard{
					Collection: *c,
					Href:       state.SelectCollection(c).Href(galleryPath),
				})
			}
		}

		if pages != nil {
			if p, err := pages.Render(homeIntroPage); err == nil {
				page.Intro = p.html
			} else if !isNotExist(err) {
				log.Warn("home: intro page", zap.Error(err))
			}
		}

		if err := tmpl.ExecuteHome(w, page); err != nil {
			log.Error("home: template", zap.Error(err))
			http.Error(w, "Template error", http.StatusInternalServerError)
		}
	}
}

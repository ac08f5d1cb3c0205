package browser

import (
	"net/url"
	"strconv"
)

// Query parameter names used to carry State in a URL.
const (
	ParamCategory   = "category"
	ParamSearch     = "q"
	ParamView       = "view"
	ParamCollection = "collection"
	ParamImage      = "image"
)

// FromQuery rebuilds a State from URL parameters against the current
// collection list. An unknown collection ID leaves the state in the gallery
// view; an image index outside the selected collection leaves it in the
// detail view and is reported through the returned error.
func FromQuery(q url.Values, collections []Collection) (State, error) {
	s := NewState().
		WithCategory(ParseCategory(q.Get(ParamCategory))).
		WithSearch(q.Get(ParamSearch)).
		WithViewMode(ParseViewMode(q.Get(ParamView)))

	c := Find(collections, q.Get(ParamCollection))
	if c == nil {
		return s, nil
	}
	s = s.SelectCollection(c)

	raw := q.Get(ParamImage)
	if raw == "" {
		return s, nil
	}
	idx, err := strconv.Atoi(raw)
	if err != nil {
		return s, ErrImageOutOfRange
	}
	opened, err := s.OpenImage(c, idx)
	if err != nil {
		return s, err
	}
	return opened, nil
}

// Query encodes s as URL parameters. Defaults are omitted so the canonical
// gallery URL carries no query at all.
func (s State) Query() url.Values {
	q := url.Values{}
	if s.category != All && s.category != "" {
		q.Set(ParamCategory, string(s.category))
	}
	if s.search != "" {
		q.Set(ParamSearch, s.search)
	}
	if s.view == List {
		q.Set(ParamView, string(List))
	}
	if s.selected != nil {
		q.Set(ParamCollection, s.selected.ID)
		if s.imageOpen {
			q.Set(ParamImage, strconv.Itoa(s.image))
		}
	}
	return q
}

// Href returns base with the state's query appended.
func (s State) Href(base string) string {
	q := s.Query().Encode()
	if q == "" {
		return base
	}
	return base + "?" + q
}

package browser

import (
	"errors"
	"fmt"
	"strings"
)

// ErrImageOutOfRange is returned by OpenImage when the index does not name
// one of the collection's gallery images.
var ErrImageOutOfRange = errors.New("image index out of range")

// ViewMode is the layout used to present the visible collections.
type ViewMode string

const (
	Grid ViewMode = "grid"
	List ViewMode = "list"
)

// ParseViewMode maps user input to a ViewMode, defaulting to Grid.
func ParseViewMode(s string) ViewMode {
	if strings.EqualFold(strings.TrimSpace(s), string(List)) {
		return List
	}
	return Grid
}

// Mode is the navigation state of the browser.
type Mode int

const (
	// ModeGallery shows the filtered collection list.
	ModeGallery Mode = iota
	// ModeDetail shows one collection and its image sequence.
	ModeDetail
	// ModeLightbox is ModeDetail with one image open full-screen.
	ModeLightbox
)

func (m Mode) String() string {
	switch m {
	case ModeDetail:
		return "detail"
	case ModeLightbox:
		return "lightbox"
	default:
		return "gallery"
	}
}

// Direction is a lightbox step, Prev or Next.
type Direction int

const (
	Prev Direction = -1
	Next Direction = 1
)

// State is the browser view state. It is a value: every transition returns
// a new State and leaves the receiver untouched.
type State struct {
	category  Category
	search    string
	view      ViewMode
	selected  *Collection
	image     int
	imageOpen bool
}

// NewState returns the initial state: category All, empty search, grid view,
// nothing selected.
func NewState() State {
	return State{category: All, view: Grid}
}

func (s State) Category() Category { return s.category }
func (s State) Search() string     { return s.search }
func (s State) View() ViewMode     { return s.view }

// Selected returns the collection shown in the detail view, or nil.
func (s State) Selected() *Collection { return s.selected }

// Image returns the open lightbox index and whether an image is open.
func (s State) Image() (int, bool) { return s.image, s.imageOpen }

// Mode derives the navigation state from the selection fields.
func (s State) Mode() Mode {
	switch {
	case s.selected == nil:
		return ModeGallery
	case s.imageOpen:
		return ModeLightbox
	default:
		return ModeDetail
	}
}

// WithCategory sets the active category filter.
func (s State) WithCategory(c Category) State {
	s.category = c
	return s
}

// WithSearch sets the free-text search.
func (s State) WithSearch(q string) State {
	s.search = q
	return s
}

// WithViewMode sets the gallery layout.
func (s State) WithViewMode(v ViewMode) State {
	if v != List {
		v = Grid
	}
	s.view = v
	return s
}

// Visible applies the state's category and search to collections.
func (s State) Visible(collections []Collection) []Collection {
	return Filter(collections, s.category, s.search)
}

// SelectCollection enters the detail view for c and closes any open image.
func (s State) SelectCollection(c *Collection) State {
	if c == nil {
		return s.ExitDetail()
	}
	cp := *c
	s.selected = &cp
	s.image = 0
	s.imageOpen = false
	return s
}

// ExitDetail returns to the gallery view. It clears the selection and the
// open image unconditionally.
func (s State) ExitDetail() State {
	s.selected = nil
	s.image = 0
	s.imageOpen = false
	return s
}

// OpenImage opens image index of c in the lightbox. c becomes the selected
// collection if it was not already.
func (s State) OpenImage(c *Collection, index int) (State, error) {
	if c == nil || index < 0 || index >= len(c.GalleryImages) {
		n := 0
		if c != nil {
			n = len(c.GalleryImages)
		}
		return s, fmt.Errorf("open image %d of %d: %w", index, n, ErrImageOutOfRange)
	}
	if s.selected == nil || s.selected.ID != c.ID {
		s = s.SelectCollection(c)
	}
	s.image = index
	s.imageOpen = true
	return s, nil
}

// CloseImage dismisses the lightbox and stays in the detail view.
func (s State) CloseImage() State {
	s.image = 0
	s.imageOpen = false
	return s
}

// StepImage moves the lightbox one image in dir. A step that would leave
// [0, len(c.GalleryImages)-1] leaves the state unchanged, as does calling it
// with no image open.
func (s State) StepImage(c *Collection, dir Direction) State {
	if !s.imageOpen || c == nil {
		return s
	}
	step := 0
	switch {
	case dir > 0:
		step = 1
	case dir < 0:
		step = -1
	}
	next := s.image + step
	if next < 0 || next >= len(c.GalleryImages) {
		return s
	}
	s.image = next
	return s
}

// Lightbox describes the open image for rendering.
type Lightbox struct {
	Image    string `json:"image"`
	Index    int    `json:"index"`
	Position int    `json:"position"` // 1-based
	Total    int    `json:"total"`
	HasPrev  bool   `json:"hasPrev"`
	HasNext  bool   `json:"hasNext"`
}

// Lightbox returns the open image of the selected collection, or false when
// the state is not in ModeLightbox.
func (s State) Lightbox() (Lightbox, bool) {
	if s.Mode() != ModeLightbox {
		return Lightbox{}, false
	}
	imgs := s.selected.GalleryImages
	if s.image < 0 || s.image >= len(imgs) {
		return Lightbox{}, false
	}
	return Lightbox{
		Image:    imgs[s.image],
		Index:    s.image,
		Position: s.image + 1,
		Total:    len(imgs),
		HasPrev:  s.image > 0,
		HasNext:  s.image < len(imgs)-1,
	}, true
}

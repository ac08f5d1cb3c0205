package handlers

import (
	"context"
	"net/http"
	"sync"
	"sync/atomic"

	"vibgyorsite/browser"
	"vibgyorsite/mailer"
	"vibgyorsite/models"
	"vibgyorsite/upstream"
)

var testSite = Site{Name: "Vibgyor Events", DefaultTheme: "dark"}

func sampleCollections() []browser.Collection {
	return []browser.Collection{
		{ID: "w1", Title: "Riverside Wedding", Description: "Sunset vows", Category: browser.Wedding,
			CoverImage: "w1.jpg", GalleryImages: []string{"w1-a.jpg", "w1-b.jpg", "https://cdn.example.com/w1-c.jpg"}},
		{ID: "c1", Title: "Tech Summit", Description: "Keynotes and panels", Category: browser.Corporate,
			GalleryImages: []string{"/uploads/c1-a.jpg"}},
		{ID: "k1", Title: "Jazz Night", Description: "Live orchestra", Category: browser.Concerts},
		{ID: "w2", Title: "Garden Wedding", Description: "Spring ceremony", Category: browser.Wedding},
	}
}

// fakeFetcher returns list or err and counts calls.
type fakeFetcher struct {
	mu    sync.Mutex
	list  []browser.Collection
	err   error
	calls atomic.Int32
}

func (f *fakeFetcher) FetchCollections(context.Context) ([]browser.Collection, error) {
	f.calls.Add(1)
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	return f.list, nil
}

func (f *fakeFetcher) set(list []browser.Collection, err error) {
	f.mu.Lock()
	f.list, f.err = list, err
	f.mu.Unlock()
}

// recordingTemplates captures the last model handed to each page.
type recordingTemplates struct {
	gallery *models.GalleryPage
	home    *models.HomePage
	contact *models.ContactPage
	booking *models.BookingPage
	page    *models.ContentPage
}

func (t *recordingTemplates) ExecuteGallery(w http.ResponseWriter, p *models.GalleryPage) error {
	t.gallery = p
	return nil
}

func (t *recordingTemplates) ExecuteHome(w http.ResponseWriter, p *models.HomePage) error {
	t.home = p
	return nil
}

func (t *recordingTemplates) ExecuteContact(w http.ResponseWriter, p *models.ContactPage) error {
	t.contact = p
	return nil
}

func (t *recordingTemplates) ExecuteBooking(w http.ResponseWriter, p *models.BookingPage) error {
	t.booking = p
	return nil
}

func (t *recordingTemplates) ExecutePage(w http.ResponseWriter, p *models.ContentPage) error {
	t.page = p
	return nil
}

// fakeRelay answers contact submissions with a fixed response.
type fakeRelay struct {
	resp upstream.ContactResponse
	err  error
	got  []upstream.ContactRequest
}

func (f *fakeRelay) SubmitContact(_ context.Context, msg upstream.ContactRequest) (upstream.ContactResponse, error) {
	f.got = append(f.got, msg)
	return f.resp, f.err
}

// fakeMailer records sent messages.
type fakeMailer struct {
	err  error
	sent []mailer.Message
}

func (f *fakeMailer) Send(_ context.Context, m mailer.Message) error {
	f.sent = append(f.sent, m)
	return f.err
}

package handlers

import (
	"fmt"
	"net/http"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"vibgyorsite/booking"
	"vibgyorsite/mailer"
	"vibgyorsite/models"
)

var bookingStepLabels = [...]string{"Your details", "Event details", "Your vision"}

const bookingSendFailed = "We could not send your inquiry right now. Please try again shortly."

// BookingHandler drives the three-step inquiry wizard. The wizard state
// travels in hidden form fields; the posted "action" (next, back, submit)
// picks the transition.
func BookingHandler(m mailer.Mailer, limiter *RateLimiter, site Site, log *zap.Logger, tmpl interface {
	ExecuteBooking(http.ResponseWriter, *models.BookingPage) error
}) http.HandlerFunc {
	render := func(w http.ResponseWriter, page *models.BookingPage) {
		if err := tmpl.ExecuteBooking(w, page); err != nil {
			log.Error("booking: template", zap.Error(err))
			http.Error(w, "Template error", http.StatusInternalServerError)
		}
	}

	return func(w http.ResponseWriter, r *http.Request) {
		wiz := booking.Wizard{Step: booking.FirstStep}
		if r.Method != http.MethodPost {
			render(w, bookingPage(site, wiz, nil))
			return
		}

		r.Body = http.MaxBytesReader(w, r.Body, maxFormBytes)
		if err := r.ParseForm(); err != nil {
			http.Error(w, "Bad request", http.StatusBadRequest)
			return
		}
		wiz = booking.FromForm(r.PostForm)

		switch r.PostForm.Get("action") {
		case "back":
			render(w, bookingPage(site, wiz.Back(), nil))

		case "submit":
			if step, errs := wiz.Complete(); step != 0 {
				wiz.Step = step
				writeStatus(w, http.StatusUnprocessableEntity)
				render(w, bookingPage(site, wiz, errs))
				return
			}
			if !limiter.Allow(clientIP(r)) {
				page := bookingPage(site, wiz, nil)
				page.Failure = contactThrottled
				writeStatus(w, http.StatusTooManyRequests)
				render(w, page)
				return
			}

			ref := uuid.NewString()
			msg := mailer.Message{
				ReplyTo: wiz.Inquiry.Email,
				Subject: fmt.Sprintf("Event inquiry %s: %s", ref[:8], wiz.Inquiry.EventType),
				Body:    "Reference: " + ref + "\n\n" + wiz.Inquiry.Summary(),
			}
			if err := m.Send(r.Context(), msg); err != nil {
				log.Error("booking: deliver inquiry", zap.String("reference", ref), zap.Error(err))
				page := bookingPage(site, wiz, nil)
				page.Failure = bookingSendFailed
				writeStatus(w, http.StatusBadGateway)
				render(w, page)
				return
			}
			log.Info("booking: inquiry received", zap.String("reference", ref), zap.String("event_type", wiz.Inquiry.EventType))

			page := bookingPage(site, wiz, nil)
			page.Done = true
			page.Reference = ref
			render(w, page)

		default:
			next, errs := wiz.Next()
			if len(errs) > 0 {
				writeStatus(w, http.StatusUnprocessableEntity)
			}
			render(w, bookingPage(site, next, errs))
		}
	}
}

func bookingPage(site Site, wiz booking.Wizard, errs map[string]string) *models.BookingPage {
	page := &models.BookingPage{
		Base:     site.base("Book an Event", "book"),
		Step:     wiz.Step,
		Progress: wiz.Progress(),
		Inquiry:  wiz.Inquiry,
		Hidden:   wiz.HiddenFields(),
		Errors:   errs,
	}
	for i, label := range bookingStepLabels {
		n := i + 1
		page.Steps = append(page.Steps, models.BookingStep{Number: n, Label: label, Done: n < wiz.Step})
	}
	return page
}

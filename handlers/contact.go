package handlers

import (
	"context"
	"html"
	"net/http"
	"regexp"
	"strings"

	"github.com/microcosm-cc/bluemonday"
	"go.uber.org/zap"

	"vibgyorsite/models"
	"vibgyorsite/upstream"
)

// Relay forwards a contact message to the events backend.
type Relay interface {
	SubmitContact(ctx context.Context, msg upstream.ContactRequest) (upstream.ContactResponse, error)
}

const (
	contactSent       = "Message sent successfully!"
	contactFailPrefix = "Failed: "
	contactGeneric    = "server error"
	contactThrottled  = "Too many messages from your address. Please wait a minute and try again."
)

// maxFormBytes caps the size of any posted form.
const maxFormBytes = 64 << 10

var contactEmailRe = regexp.MustCompile(`\S+@\S+\.\S+`)

// stripPolicy removes all markup from submitted text.
var stripPolicy = bluemonday.StrictPolicy()

// ContactHandler serves the contact form on GET and relays it on POST.
func ContactHandler(relay Relay, limiter *RateLimiter, site Site, log *zap.Logger, tmpl interface {
	ExecuteContact(http.ResponseWriter, *models.ContactPage) error
}) http.HandlerFunc {
	render := func(w http.ResponseWriter, page *models.ContactPage) {
		if err := tmpl.ExecuteContact(w, page); err != nil {
			log.Error("contact: template", zap.Error(err))
			http.Error(w, "Template error", http.StatusInternalServerError)
		}
	}

	return func(w http.ResponseWriter, r *http.Request) {
		page := &models.ContactPage{Base: site.base("Contact", "contact")}

		if r.Method != http.MethodPost {
			render(w, page)
			return
		}

		r.Body = http.MaxBytesReader(w, r.Body, maxFormBytes)
		if err := r.ParseForm(); err != nil {
			http.Error(w, "Bad request", http.StatusBadRequest)
			return
		}
		page.Form = contactFormFrom(r)

		if errs := validateContact(page.Form); len(errs) > 0 {
			page.Errors = errs
			writeStatus(w, http.StatusUnprocessableEntity)
			render(w, page)
			return
		}

		if !limiter.Allow(clientIP(r)) {
			log.Info("contact: rate limited", zap.String("ip", clientIP(r)))
			page.Failure = contactThrottled
			writeStatus(w, http.StatusTooManyRequests)
			render(w, page)
			return
		}

		resp, err := relay.SubmitContact(r.Context(), upstream.ContactRequest{
			Name:    page.Form.Name,
			Email:   page.Form.Email,
			Subject: page.Form.Subject,
			Message: page.Form.Message,
		})
		if err != nil || !resp.Success {
			log.Warn("contact: relay failed", zap.Error(err), zap.String("upstream_message", resp.Message))
			msg := resp.Message
			if msg == "" {
				msg = contactGeneric
			}
			page.Failure = contactFailPrefix + msg
			writeStatus(w, http.StatusBadGateway)
			render(w, page)
			return
		}

		log.Info("contact: message relayed", zap.String("subject", page.Form.Subject))
		page.Form = models.ContactForm{}
		page.Success = contactSent
		render(w, page)
	}
}

// contactFormFrom reads, trims and strips the posted contact fields. The
// strict policy entity-encodes what it keeps, so the text is unescaped again
// before html/template gets it.
func contactFormFrom(r *http.Request) models.ContactForm {
	clean := func(key string) string {
		return strings.TrimSpace(html.UnescapeString(stripPolicy.Sanitize(r.PostForm.Get(key))))
	}
	return models.ContactForm{
		Name:    clean("name"),
		Email:   clean("email"),
		Subject: clean("subject"),
		Message: clean("message"),
	}
}

// validateContact returns per-field messages keyed by form name.
func validateContact(f models.ContactForm) map[string]string {
	errs := make(map[string]string)
	if f.Name == "" {
		errs["name"] = "Name is required"
	}
	switch {
	case f.Email == "":
		errs["email"] = "Email is required"
	case !contactEmailRe.MatchString(f.Email):
		errs["email"] = "Invalid email address"
	}
	if f.Subject == "" {
		errs["subject"] = "Subject is required"
	}
	if f.Message == "" {
		errs["message"] = "Message is required"
	}
	return errs
}

// writeStatus sends an HTML status line ahead of a template render.
func writeStatus(w http.ResponseWriter, code int) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(code)
}

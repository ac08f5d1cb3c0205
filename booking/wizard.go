// Package booking implements the three-step event inquiry wizard shown on
// the landing page.
package booking

import (
	"net/url"
	"regexp"
	"strings"

	"vibgyorsite/browser"
)

// Step numbers. The wizard never leaves [FirstStep, LastStep].
const (
	FirstStep = 1
	LastStep  = 3
)

// Inquiry holds every field collected across the wizard steps.
type Inquiry struct {
	FullName   string `json:"fullName"`
	Email      string `json:"email"`
	Phone      string `json:"phone"`
	EventType  string `json:"eventType"`
	EventDate  string `json:"eventDate"`
	GuestCount string `json:"guestCount"`
	Budget     string `json:"budget"`
	Location   string `json:"location"`
	Vision     string `json:"vision"`
}

// field binds a form name to its place in Inquiry and the step it belongs to.
type field struct {
	name     string
	label    string
	step     int
	required bool
	get      func(*Inquiry) *string
}

var fields = []field{
	{"fullName", "Full name", 1, true, func(i *Inquiry) *string { return &i.FullName }},
	{"email", "Email", 1, true, func(i *Inquiry) *string { return &i.Email }},
	{"phone", "Phone number", 1, false, func(i *Inquiry) *string { return &i.Phone }},
	{"eventType", "Event type", 2, true, func(i *Inquiry) *string { return &i.EventType }},
	{"eventDate", "Event date", 2, true, func(i *Inquiry) *string { return &i.EventDate }},
	{"guestCount", "Guest count", 2, false, func(i *Inquiry) *string { return &i.GuestCount }},
	{"budget", "Budget", 2, false, func(i *Inquiry) *string { return &i.Budget }},
	{"location", "Location", 2, false, func(i *Inquiry) *string { return &i.Location }},
	{"vision", "Event vision", 3, false, func(i *Inquiry) *string { return &i.Vision }},
}

var emailRe = regexp.MustCompile(`\S+@\S+\.\S+`)

// OtherEventType is the catch-all event type for events outside the
// portfolio categories.
const OtherEventType = "Other"

// EventTypes lists the accepted event types: every stored portfolio
// category, then OtherEventType.
func EventTypes() []string {
	out := make([]string, 0, len(browser.Categories))
	for _, c := range browser.Categories {
		if c.Known() {
			out = append(out, string(c))
		}
	}
	return append(out, OtherEventType)
}

// canonicalEventType maps s to its entry in EventTypes, ignoring case. ok is
// false when s is not a known type.
func canonicalEventType(s string) (string, bool) {
	for _, t := range EventTypes() {
		if strings.EqualFold(t, s) {
			return t, true
		}
	}
	return s, false
}

// Wizard is the wizard's position plus the data entered so far.
type Wizard struct {
	Step    int
	Inquiry Inquiry
}

// FromForm rebuilds a Wizard from posted form values. Unknown or
// out-of-range step values are clamped.
func FromForm(form url.Values) Wizard {
	w := Wizard{Step: clampStep(atoi(form.Get("step")))}
	for _, f := range fields {
		*f.get(&w.Inquiry) = strings.TrimSpace(form.Get(f.name))
	}
	w.Inquiry.EventType, _ = canonicalEventType(w.Inquiry.EventType)
	return w
}

// Form encodes the wizard as form values, the inverse of FromForm.
func (w Wizard) Form() url.Values {
	v := url.Values{}
	v.Set("step", itoa(w.Step))
	in := w.Inquiry
	for _, f := range fields {
		if s := *f.get(&in); s != "" {
			v.Set(f.name, s)
		}
	}
	return v
}

// HiddenField is one form value carried through a step that does not show it.
type HiddenField struct {
	Name  string
	Value string
}

// HiddenFields returns the step number and every non-empty value entered on
// other steps, in field order, so the next post rebuilds the same wizard.
func (w Wizard) HiddenFields() []HiddenField {
	form := w.Form()
	out := []HiddenField{{Name: "step", Value: form.Get("step")}}
	for _, f := range fields {
		if f.step == w.Step || !form.Has(f.name) {
			continue
		}
		out = append(out, HiddenField{Name: f.name, Value: form.Get(f.name)})
	}
	return out
}

// Validate checks the fields of one step and returns per-field messages
// keyed by form name. An empty map means the step is complete.
func (w Wizard) Validate(step int) map[string]string {
	errs := make(map[string]string)
	in := w.Inquiry
	for _, f := range fields {
		if f.step != step {
			continue
		}
		val := *f.get(&in)
		if f.required && val == "" {
			errs[f.name] = f.label + " is required"
			continue
		}
		if val == "" {
			continue
		}
		switch f.name {
		case "email":
			if !emailRe.MatchString(val) {
				errs[f.name] = "Invalid email address"
			}
		case "eventType":
			if _, ok := canonicalEventType(val); !ok {
				errs[f.name] = "Choose an event type from the list"
			}
		}
	}
	return errs
}

// Next advances one step when the current step validates. It returns the
// (possibly unchanged) wizard and the validation errors that blocked it.
func (w Wizard) Next() (Wizard, map[string]string) {
	errs := w.Validate(w.Step)
	if len(errs) > 0 {
		return w, errs
	}
	w.Step = clampStep(w.Step + 1)
	return w, nil
}

// Back moves one step back without validating.
func (w Wizard) Back() Wizard {
	w.Step = clampStep(w.Step - 1)
	return w
}

// Complete validates every step and reports the first failing step along
// with its errors. step is 0 when the inquiry is complete.
func (w Wizard) Complete() (step int, errs map[string]string) {
	for s := FirstStep; s <= LastStep; s++ {
		if errs := w.Validate(s); len(errs) > 0 {
			return s, errs
		}
	}
	return 0, nil
}

// Progress is the width of the progress bar in percent.
func (w Wizard) Progress() int {
	switch w.Step {
	case 1:
		return 2
	case 2:
		return 50
	default:
		return 100
	}
}

func clampStep(n int) int {
	if n < FirstStep {
		return FirstStep
	}
	if n > LastStep {
		return LastStep
	}
	return n
}

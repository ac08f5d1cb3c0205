package booking

import (
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func completeForm() url.Values {
	return url.Values{
		"step":       {"3"},
		"fullName":   {"Asha Rao"},
		"email":      {"asha@example.com"},
		"phone":      {"+91 98000 00000"},
		"eventType":  {"Wedding"},
		"eventDate":  {"2027-02-14"},
		"guestCount": {"250"},
		"budget":     {"50000"},
		"location":   {"Udaipur"},
		"vision":     {"Lakeside ceremony at dusk"},
	}
}

func TestFromFormClampsStep(t *testing.T) {
	for raw, want := range map[string]int{"": 1, "0": 1, "-4": 1, "2": 2, "3": 3, "9": 3, "x": 1} {
		w := FromForm(url.Values{"step": {raw}})
		assert.Equal(t, want, w.Step, "step %q", raw)
	}
}

func TestNextBlockedByValidation(t *testing.T) {
	w := FromForm(url.Values{"step": {"1"}, "email": {"not-an-email"}})
	got, errs := w.Next()
	assert.Equal(t, 1, got.Step)
	assert.Equal(t, "Full name is required", errs["fullName"])
	assert.Equal(t, "Invalid email address", errs["email"])
	assert.NotContains(t, errs, "phone")
}

func TestNextAndBackWalkTheSteps(t *testing.T) {
	w := FromForm(completeForm())
	w.Step = 1

	w, errs := w.Next()
	require.Empty(t, errs)
	assert.Equal(t, 2, w.Step)

	w, errs = w.Next()
	require.Empty(t, errs)
	assert.Equal(t, 3, w.Step)

	w, _ = w.Next()
	assert.Equal(t, 3, w.Step, "clamped at last step")

	w = w.Back().Back().Back()
	assert.Equal(t, 1, w.Step, "clamped at first step")
}

func TestBackDoesNotValidate(t *testing.T) {
	w := Wizard{Step: 2}
	assert.Equal(t, 1, w.Back().Step)
}

func TestCompleteReportsFirstFailingStep(t *testing.T) {
	form := completeForm()
	form.Del("eventDate")
	step, errs := FromForm(form).Complete()
	assert.Equal(t, 2, step)
	assert.Contains(t, errs, "eventDate")

	step, errs = FromForm(completeForm()).Complete()
	assert.Zero(t, step)
	assert.Empty(t, errs)
}

func TestFormRoundTrip(t *testing.T) {
	w := FromForm(completeForm())
	assert.Equal(t, w, FromForm(w.Form()))
}

func TestEventTypeMustBeKnown(t *testing.T) {
	form := completeForm()
	form.Set("eventType", "Birthday")
	w := FromForm(form)
	w.Step = 2
	_, errs := w.Next()
	assert.Equal(t, "Choose an event type from the list", errs["eventType"])

	step, _ := w.Complete()
	assert.Equal(t, 2, step)

	form.Set("eventType", "galas")
	assert.Equal(t, "Galas", FromForm(form).Inquiry.EventType, "case is normalised")

	form.Set("eventType", "other")
	step, errs = FromForm(form).Complete()
	assert.Zero(t, step)
	assert.Empty(t, errs)
}

func TestEventTypes(t *testing.T) {
	assert.Equal(t, []string{"Wedding", "Corporate", "Concerts", "Exhibitions", "Galas", "Other"}, EventTypes())
}

func TestHiddenFieldsCarryOtherSteps(t *testing.T) {
	w := FromForm(completeForm())
	w.Step = 2
	w.Inquiry.Phone = ""

	got := w.HiddenFields()
	assert.Equal(t, []HiddenField{
		{Name: "step", Value: "2"},
		{Name: "fullName", Value: "Asha Rao"},
		{Name: "email", Value: "asha@example.com"},
		{Name: "vision", Value: "Lakeside ceremony at dusk"},
	}, got)

	// Posting the hidden fields back with the visible ones restores the wizard.
	form := url.Values{}
	for _, f := range got {
		form.Set(f.Name, f.Value)
	}
	form.Set("eventType", "Wedding")
	form.Set("eventDate", "2027-02-14")
	form.Set("guestCount", "250")
	form.Set("budget", "50000")
	form.Set("location", "Udaipur")
	assert.Equal(t, w, FromForm(form))
}

func TestProgress(t *testing.T) {
	assert.Equal(t, 2, Wizard{Step: 1}.Progress())
	assert.Equal(t, 50, Wizard{Step: 2}.Progress())
	assert.Equal(t, 100, Wizard{Step: 3}.Progress())
}

func TestSummarySkipsEmpty(t *testing.T) {
	s := Inquiry{FullName: "Asha", Email: "a@b.co"}.Summary()
	assert.Contains(t, s, "Full name:")
	assert.Contains(t, s, "Asha")
	assert.NotContains(t, s, "Budget")
}

package mailer

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestNewWithoutHostLogsOnly(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	m := New(Config{}, zap.New(core))

	_, ok := m.(*Log)
	assert.True(t, ok)

	err := m.Send(context.Background(), Message{Subject: "New inquiry", Body: "hello"})
	assert.NoError(t, err)
	entries := logs.FilterMessageSnippet("inquiry logged only").All()
	if assert.Len(t, entries, 1) {
		assert.Equal(t, "New inquiry", entries[0].ContextMap()["subject"])
	}
}

func TestNewWithHostUsesSMTP(t *testing.T) {
	m := New(Config{Host: "smtp.example.com", Port: 587, FromEmail: "site@example.com", To: "events@example.com"}, zap.NewNop())
	_, ok := m.(*SMTP)
	assert.True(t, ok)
}

func TestEnabledNeedsRecipient(t *testing.T) {
	assert.False(t, Config{Host: "smtp.example.com", FromEmail: "a@b.co"}.Enabled())
}

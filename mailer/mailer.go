// Package mailer delivers booking inquiries to the business inbox over SMTP.
package mailer

import (
	"context"
	"crypto/tls"
	"fmt"

	"github.com/wneessen/go-mail"
	"go.uber.org/zap"
)

// Config holds SMTP connection settings. An empty Host disables delivery.
type Config struct {
	Host      string
	Port      int
	User      string
	Password  string
	FromName  string
	FromEmail string
	To        string
}

// Enabled reports whether enough settings are present to send mail.
func (c Config) Enabled() bool {
	return c.Host != "" && c.FromEmail != "" && c.To != ""
}

// Message is one outgoing email.
type Message struct {
	ReplyTo string
	Subject string
	Body    string
}

// Mailer sends a single message.
type Mailer interface {
	Send(ctx context.Context, m Message) error
}

// SMTP sends through a real SMTP server using go-mail.
type SMTP struct {
	cfg Config
	log *zap.Logger
}

// New returns an SMTP mailer when cfg is enabled, otherwise a Log mailer
// that only records messages.
func New(cfg Config, log *zap.Logger) Mailer {
	if !cfg.Enabled() {
		return &Log{log: log}
	}
	return &SMTP{cfg: cfg, log: log}
}

func (s *SMTP) Send(ctx context.Context, m Message) error {
	msg := mail.NewMsg()
	if err := msg.From(fmt.Sprintf("%s <%s>", s.cfg.FromName, s.cfg.FromEmail)); err != nil {
		return fmt.Errorf("set sender: %w", err)
	}
	if err := msg.To(s.cfg.To); err != nil {
		return fmt.Errorf("set recipient: %w", err)
	}
	if m.ReplyTo != "" {
		if err := msg.ReplyTo(m.ReplyTo); err != nil {
			s.log.Debug("mailer: ignoring bad reply-to", zap.String("reply_to", m.ReplyTo), zap.Error(err))
		}
	}
	msg.Subject(m.Subject)
	msg.SetBodyString(mail.TypeTextPlain, m.Body)

	opts := []mail.Option{
		mail.WithPort(s.cfg.Port),
		mail.WithTLSPolicy(mail.TLSMandatory),
		mail.WithTLSConfig(&tls.Config{ServerName: s.cfg.Host}),
	}
	if s.cfg.User != "" {
		opts = append(opts,
			mail.WithSMTPAuth(mail.SMTPAuthPlain),
			mail.WithUsername(s.cfg.User),
			mail.WithPassword(s.cfg.Password),
		)
	}
	client, err := mail.NewClient(s.cfg.Host, opts...)
	if err != nil {
		return fmt.Errorf("smtp client (host=%s port=%d): %w", s.cfg.Host, s.cfg.Port, err)
	}
	if err := client.DialAndSendWithContext(ctx, msg); err != nil {
		return fmt.Errorf("smtp send (host=%s port=%d): %w", s.cfg.Host, s.cfg.Port, err)
	}
	s.log.Info("mailer: sent", zap.String("subject", m.Subject), zap.String("to", s.cfg.To))
	return nil
}

// Log writes messages to the logger instead of sending them.
type Log struct {
	log *zap.Logger
}

func (l *Log) Send(_ context.Context, m Message) error {
	l.log.Info("mailer: smtp not configured, inquiry logged only",
		zap.String("subject", m.Subject),
		zap.String("reply_to", m.ReplyTo),
		zap.String("body", m.Body),
	)
	return nil
}

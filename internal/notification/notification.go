// Package notification delivers user-facing messages (account approved,
// indicator reviewed). Senders are injected collaborators: they run after the
// owning state change has committed, and a delivery failure is surfaced to
// the caller as a warning, never as a rollback.
package notification

import (
	"context"
	"fmt"
	"net/smtp"
)

// Sender delivers a message to a recipient address.
type Sender interface {
	Send(ctx context.Context, to, subject, body string) error
}

// SMTPSender sends plain-text mail through an SMTP relay.
type SMTPSender struct {
	Host string
	Port string
	From string
	Auth smtp.Auth
}

func NewSMTPSender(host, port, from string, auth smtp.Auth) *SMTPSender {
	return &SMTPSender{Host: host, Port: port, From: from, Auth: auth}
}

func (s *SMTPSender) Send(ctx context.Context, to, subject, body string) error {
	msg := []byte(fmt.Sprintf("From: %s\r\nTo: %s\r\nSubject: %s\r\n\r\n%s\r\n", s.From, to, subject, body))
	addr := s.Host + ":" + s.Port
	if err := smtp.SendMail(addr, s.Auth, s.From, []string{to}, msg); err != nil {
		return fmt.Errorf("smtp send to %s: %w", to, err)
	}
	return nil
}

// NopSender discards notifications. Used when no SMTP relay is configured.
type NopSender struct{}

func (NopSender) Send(ctx context.Context, to, subject, body string) error { return nil }

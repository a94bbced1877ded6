// Package email provides outbound transactional email delivery. The Sender
// interface is transport-only: callers render subject and body themselves.
package email

import (
	"context"

	"github.com/raftaar7864/rental-management-backend/platform/config"
)

// Attachment represents a file attachment for an email.
type Attachment struct {
	Content  []byte // raw file bytes (base64-encoded on the wire where required)
	FileName string // e.g. "bill_6634.pdf"
	MIMEType string // e.g. "application/pdf"
}

// Sender delivers a single HTML email.
type Sender interface {
	Send(ctx context.Context, toEmail, subject, htmlContent string, attachments ...Attachment) error
	// IsConfigured reports whether the sender can actually deliver mail.
	IsConfigured() bool
}

// NoopSender is used when no email provider is configured. Sends succeed
// silently so bill lifecycle operations are never blocked by email setup.
type NoopSender struct{}

func (NoopSender) Send(context.Context, string, string, string, ...Attachment) error { return nil }

func (NoopSender) IsConfigured() bool { return false }

// NewSender selects the email transport from configuration: SendGrid when an
// API key is present, direct SMTP when a host is configured, otherwise a noop.
func NewSender(cfg config.EmailConfig) Sender {
	if !cfg.GetEmailEnabled() {
		return NoopSender{}
	}
	if cfg.GetSendGridAPIKey() != "" {
		return NewSendGridSender(cfg)
	}
	if cfg.GetSMTPHost() != "" {
		return NewSMTPSender(cfg)
	}
	return NoopSender{}
}

package whatsapp

import (
	"context"

	"github.com/raftaar7864/rental-management-backend/platform/config"
	"github.com/raftaar7864/rental-management-backend/platform/logger"
	"github.com/raftaar7864/rental-management-backend/platform/phone"
)

// Message is the channel-independent payload for one WhatsApp notification.
// Text is always set; TemplateVars carries positional variables for providers
// that deliver through pre-approved message templates.
type Message struct {
	Text         string
	TemplateVars map[string]string
}

// Channel is one concrete WhatsApp delivery provider.
type Channel interface {
	Name() string
	Configured() bool
	Send(ctx context.Context, toE164 string, msg Message) error
}

// Dispatcher tries each configured channel in priority order and stops at the
// first success. A send only fails when every configured channel fails.
type Dispatcher struct {
	channels      []Channel
	defaultPrefix string
	log           *logger.Logger
}

func NewDispatcher(cfg config.WhatsAppConfig, log *logger.Logger) *Dispatcher {
	return &Dispatcher{
		channels: []Channel{
			NewTwilioChannel(cfg),
			NewCloudAPIChannel(cfg),
		},
		defaultPrefix: cfg.GetDefaultCountryPrefix(),
		log:           log,
	}
}

// Configured reports whether at least one channel can deliver.
func (d *Dispatcher) Configured() bool {
	for _, ch := range d.channels {
		if ch.Configured() {
			return true
		}
	}
	return false
}

// ChannelStatus reports per-channel configuration, keyed by channel name.
func (d *Dispatcher) ChannelStatus() map[string]bool {
	status := make(map[string]bool, len(d.channels))
	for _, ch := range d.channels {
		status[ch.Name()] = ch.Configured()
	}
	return status
}

// Send normalizes the phone number and delivers msg through the first channel
// that succeeds. With no channel configured it logs and returns nil so callers
// can treat WhatsApp as optional.
func (d *Dispatcher) Send(ctx context.Context, phoneNumber string, msg Message) error {
	if !d.Configured() {
		d.log.Warn("whatsapp send skipped, no provider configured", "phone", phoneNumber)
		return nil
	}

	to := phone.NormalizeE164(phoneNumber, d.defaultPrefix)

	var lastErr error
	for _, ch := range d.channels {
		if !ch.Configured() {
			continue
		}

		err := ch.Send(ctx, to, msg)
		if err == nil {
			d.log.Info("whatsapp sent", "channel", ch.Name(), "phone", to)
			return nil
		}

		lastErr = err
		d.log.Warn("whatsapp channel failed", "channel", ch.Name(), "phone", to, "error", err)
	}

	return lastErr
}

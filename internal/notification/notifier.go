package notification

import (
	"context"
	"errors"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/raftaar7864/rental-management-backend/internal/bills/domain"
	"github.com/raftaar7864/rental-management-backend/internal/email"
	"github.com/raftaar7864/rental-management-backend/internal/whatsapp"
	"github.com/raftaar7864/rental-management-backend/platform/config"
	"github.com/raftaar7864/rental-management-backend/platform/logger"
)

// WhatsAppDispatcher is the slice of the whatsapp dispatcher the notifier
// needs. Tests substitute a fake.
type WhatsAppDispatcher interface {
	Configured() bool
	ChannelStatus() map[string]bool
	Send(ctx context.Context, phoneNumber string, msg whatsapp.Message) error
}

// ProviderStatus reports which delivery providers are usable, for the
// debug endpoint.
type ProviderStatus struct {
	Email            bool            `json:"email"`
	WhatsApp         bool            `json:"whatsapp"`
	WhatsAppChannels map[string]bool `json:"whatsappChannels"`
}

// Notifier orchestrates bill notifications across email and WhatsApp.
// Each channel is best effort and independent: a failure on one never
// blocks or fails the other, and callers treat the whole operation as
// fire-and-forget.
type Notifier struct {
	links    *LinkBuilder
	renderer *Renderer
	queue    *EmailQueue
	sender   email.Sender
	wa       WhatsAppDispatcher
	log      *logger.Logger
}

func NewNotifier(
	linkCfg config.LinkConfig,
	companyCfg config.CompanyConfig,
	queueCfg config.EmailQueueConfig,
	sender email.Sender,
	wa WhatsAppDispatcher,
	log *logger.Logger,
) *Notifier {
	n := &Notifier{
		links: NewLinkBuilder(linkCfg.GetFrontendBaseURL(), linkCfg.GetBackendBaseURL()),
		renderer: NewRenderer(CompanyInfo{
			Name:        companyCfg.GetCompanyName(),
			LogoURL:     companyCfg.GetCompanyLogoURL(),
			GSTIN:       companyCfg.GetCompanyGSTIN(),
			BankDetails: companyCfg.GetCompanyBankDetails(),
		}),
		sender: sender,
		wa:     wa,
		log:    log,
	}

	n.queue = NewEmailQueue(func(ctx context.Context, item QueueItem) error {
		var attachments []email.Attachment
		if item.Attachment != nil {
			attachments = append(attachments, *item.Attachment)
		}
		return sender.Send(ctx, item.To, item.Subject, item.HTML, attachments...)
	}, queueCfg.GetEmailQueueThrottle(), log)

	return n
}

// SendBillEmail renders and enqueues the bill email, then waits for the
// queue to settle it. A bill without a tenant email is skipped with a
// warning and counts as success.
func (n *Notifier) SendBillEmail(ctx context.Context, bill *domain.Bill, typ Type) error {
	to := strings.TrimSpace(bill.Tenant.Email)
	if to == "" {
		n.log.Warn("bill email skipped, tenant has no email", "bill_id", bill.ID)
		return nil
	}
	if !n.sender.IsConfigured() {
		n.log.Warn("bill email skipped, no email provider configured", "bill_id", bill.ID)
		return nil
	}

	opts := RenderOptions{Links: n.links.ComputeLinks(bill, 0), Type: typ}

	html, err := n.renderer.RenderEmailBody(bill, opts)
	if err != nil {
		return err
	}

	done := n.queue.Enqueue(QueueItem{
		BillID:  bill.ID,
		To:      to,
		Subject: n.renderer.RenderSubject(bill, opts),
		HTML:    html,
	})

	select {
	case err := <-done:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// SendBillWhatsApp renders and dispatches the WhatsApp message right away.
// A bill without a tenant phone is skipped with a warning and counts as
// success.
func (n *Notifier) SendBillWhatsApp(ctx context.Context, bill *domain.Bill, typ Type) error {
	phone := strings.TrimSpace(bill.Tenant.Phone)
	if phone == "" {
		n.log.Warn("bill whatsapp skipped, tenant has no phone", "bill_id", bill.ID)
		return nil
	}

	opts := RenderOptions{Links: n.links.ComputeLinks(bill, 0), Type: typ}

	return n.wa.Send(ctx, phone, whatsapp.Message{
		Text:         n.renderer.RenderWhatsAppMessage(bill, opts),
		TemplateVars: n.renderer.RenderTemplateVariables(bill, opts),
	})
}

// SendBill notifies the tenant on both channels. The channels run
// concurrently so a slow or backlogged email send never delays the
// WhatsApp dispatch. Channel failures are logged, never returned; a
// cancelled email settlement is expected when a newer notification
// superseded this one and is logged at info level.
func (n *Notifier) SendBill(ctx context.Context, bill *domain.Bill, typ Type) {
	var wg sync.WaitGroup
	wg.Add(2)

	go func() {
		defer wg.Done()
		if err := n.SendBillEmail(ctx, bill, typ); err != nil {
			if errors.Is(err, ErrCancelled) {
				n.log.Info("bill email superseded", "bill_id", bill.ID)
			} else {
				n.log.NotificationError("email", bill.ID.String(), err)
			}
		}
	}()

	go func() {
		defer wg.Done()
		if err := n.SendBillWhatsApp(ctx, bill, typ); err != nil {
			n.log.NotificationError("whatsapp", bill.ID.String(), err)
		}
	}()

	wg.Wait()
}

// CancelPendingEmails drops any queued emails for the bill so a fresher
// notification cannot race a stale one.
func (n *Notifier) CancelPendingEmails(billID uuid.UUID) {
	n.queue.CancelPendingForBill(billID)
}

// Providers reports delivery provider readiness.
func (n *Notifier) Providers() ProviderStatus {
	return ProviderStatus{
		Email:            n.sender.IsConfigured(),
		WhatsApp:         n.wa.Configured(),
		WhatsAppChannels: n.wa.ChannelStatus(),
	}
}

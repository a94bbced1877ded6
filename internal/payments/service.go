package payments

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"

	billsvc "github.com/raftaar7864/rental-management-backend/internal/bills/service"
	"github.com/raftaar7864/rental-management-backend/internal/bills/domain"
	"github.com/raftaar7864/rental-management-backend/platform/apperr"
	"github.com/raftaar7864/rental-management-backend/platform/config"
	"github.com/raftaar7864/rental-management-backend/platform/logger"
)

// BillService is the slice of the bills service payments needs.
type BillService interface {
	Get(ctx context.Context, id uuid.UUID) (domain.Bill, error)
	MarkPaid(ctx context.Context, params billsvc.MarkPaidParams) (domain.Bill, error)
}

// CheckoutOrder is what the public payment page needs to open the
// Razorpay checkout widget.
type CheckoutOrder struct {
	OrderID  string `json:"orderId"`
	Amount   int64  `json:"amount"`
	Currency string `json:"currency"`
	KeyID    string `json:"keyId"`
}

// Service creates payment orders and settles bills from gateway webhooks.
type Service struct {
	client        *Client
	bills         BillService
	webhookSecret string
	log           *logger.Logger
}

func NewService(client *Client, bills BillService, cfg config.RazorpayConfig, log *logger.Logger) *Service {
	return &Service{
		client:        client,
		bills:         bills,
		webhookSecret: cfg.GetRazorpayWebhookSecret(),
		log:           log,
	}
}

// CreateOrder creates a gateway order for an unpaid bill.
func (s *Service) CreateOrder(ctx context.Context, billID uuid.UUID) (CheckoutOrder, error) {
	if !s.client.IsConfigured() {
		return CheckoutOrder{}, apperr.Unavailable("online payments are not configured")
	}

	bill, err := s.bills.Get(ctx, billID)
	if err != nil {
		return CheckoutOrder{}, err
	}
	if bill.IsPaid() {
		return CheckoutOrder{}, apperr.Conflict("bill is already paid")
	}

	amountPaise := int64(math.Round(bill.TotalAmount * 100))
	order, err := s.client.CreateOrder(ctx, amountPaise, bill.ID.String(), map[string]string{
		"bill_id": bill.ID.String(),
	})
	if err != nil {
		return CheckoutOrder{}, apperr.Wrap(apperr.KindUnavailable, "create payment order", err)
	}

	s.log.ProviderCall("razorpay", "create_order", true, "")

	return CheckoutOrder{
		OrderID:  order.ID,
		Amount:   order.Amount,
		Currency: order.Currency,
		KeyID:    s.client.KeyID(),
	}, nil
}

// VerifySignature checks the webhook body against the X-Razorpay-Signature
// header (hex HMAC-SHA256 over the raw body).
func (s *Service) VerifySignature(body []byte, signature string) error {
	if s.webhookSecret == "" {
		return apperr.Unavailable("payment webhook is not configured")
	}

	mac := hmac.New(sha256.New, []byte(s.webhookSecret))
	mac.Write(body)
	expected := hex.EncodeToString(mac.Sum(nil))

	if !hmac.Equal([]byte(expected), []byte(signature)) {
		return apperr.Unauthorized("invalid webhook signature")
	}
	return nil
}

type webhookEvent struct {
	Event   string `json:"event"`
	Payload struct {
		Payment struct {
			Entity struct {
				ID     string            `json:"id"`
				Method string            `json:"method"`
				Notes  map[string]string `json:"notes"`
			} `json:"entity"`
		} `json:"payment"`
	} `json:"payload"`
}

// HandleWebhook settles the bill referenced by a captured payment. Other
// events are acknowledged and ignored. A duplicate delivery for an
// already-paid bill is treated as success so the gateway stops retrying.
func (s *Service) HandleWebhook(ctx context.Context, body []byte, signature string) error {
	if err := s.VerifySignature(body, signature); err != nil {
		return err
	}

	var event webhookEvent
	if err := json.Unmarshal(body, &event); err != nil {
		return apperr.BadRequest("malformed webhook payload")
	}

	if event.Event != "payment.captured" {
		return nil
	}

	entity := event.Payload.Payment.Entity
	billID, err := uuid.Parse(entity.Notes["bill_id"])
	if err != nil {
		return apperr.BadRequest(fmt.Sprintf("webhook payment %s carries no bill reference", entity.ID))
	}

	method := entity.Method
	if method == "" {
		method = "razorpay"
	}

	_, err = s.bills.MarkPaid(ctx, billsvc.MarkPaidParams{
		ID: billID,
		Payment: domain.Payment{
			Method:    method,
			Reference: entity.ID,
			PaidAt:    time.Now(),
		},
		SendNotifications: true,
	})
	if err != nil {
		if apperr.Is(err, apperr.KindConflict) {
			s.log.Info("webhook for already-paid bill ignored", "bill_id", billID)
			return nil
		}
		return err
	}

	s.log.Info("bill settled via payment webhook", "bill_id", billID, "payment_id", entity.ID)
	return nil
}

// Package domain defines the bill entity and its joined read model.
// Repositories hydrate these structs; services and the notification
// pipeline consume them without touching persistence.
package domain

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// PaymentStatus is the two-valued payment state of a bill. It is stored as
// free-form text but always compared case-insensitively.
type PaymentStatus string

const (
	PaymentStatusNotPaid PaymentStatus = "Not Paid"
	PaymentStatusPaid    PaymentStatus = "Paid"
)

// NormalizePaymentStatus canonicalizes a stored status string.
// Anything that is not recognizably "paid" is treated as not paid.
func NormalizePaymentStatus(raw string) PaymentStatus {
	if strings.EqualFold(strings.TrimSpace(raw), string(PaymentStatusPaid)) {
		return PaymentStatusPaid
	}
	return PaymentStatusNotPaid
}

// Charge is one itemized line on a bill.
type Charge struct {
	Title  string  `json:"title"`
	Amount float64 `json:"amount"`
}

// Payment records how a bill was settled. Present only once paid.
type Payment struct {
	Method    string    `json:"method"`
	Reference string    `json:"reference"`
	PaidAt    time.Time `json:"paidAt"`
}

// Tenant is the read-only tenant join on a bill.
type Tenant struct {
	ID       uuid.UUID `json:"id"`
	TenantID string    `json:"tenantId"`
	FullName string    `json:"fullName"`
	Email    string    `json:"email"`
	Phone    string    `json:"phone"`
}

// Room is the read-only room join on a bill.
type Room struct {
	ID     uuid.UUID `json:"id"`
	Number string    `json:"number"`
}

// Building is the read-only building join on a bill.
type Building struct {
	ID      uuid.UUID `json:"id"`
	Name    string    `json:"name"`
	Address string    `json:"address"`
}

// Bill is a monthly rent invoice joined with its tenant, room and building.
type Bill struct {
	ID            uuid.UUID     `json:"id"`
	BillingMonth  time.Time     `json:"billingMonth"` // first day of the month
	TotalAmount   float64       `json:"totalAmount"`
	Charges       []Charge      `json:"charges"`
	PaymentStatus PaymentStatus `json:"paymentStatus"`
	Payment       *Payment      `json:"payment,omitempty"`
	PDFKey        string        `json:"pdfKey,omitempty"`
	PDFURL        string        `json:"pdfUrl,omitempty"`
	Tenant        Tenant        `json:"tenant"`
	Room          Room          `json:"room"`
	Building      Building      `json:"building"`
	CreatedAt     time.Time     `json:"createdAt"`
	UpdatedAt     time.Time     `json:"updatedAt"`
}

// IsPaid reports whether the bill is settled, case-insensitively.
func (b *Bill) IsPaid() bool {
	return NormalizePaymentStatus(string(b.PaymentStatus)) == PaymentStatusPaid
}

// StampMillis derives the cache-busting stamp for links: the update
// timestamp as epoch milliseconds, or now when the bill has never been
// persisted.
func (b *Bill) StampMillis() int64 {
	if b.UpdatedAt.IsZero() {
		return time.Now().UnixMilli()
	}
	return b.UpdatedAt.UnixMilli()
}

// MonthLabel formats the billing month for display, e.g. "March 2024".
func (b *Bill) MonthLabel() string {
	if b.BillingMonth.IsZero() {
		return "N/A"
	}
	return b.BillingMonth.Format("January 2006")
}

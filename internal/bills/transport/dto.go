// Package transport defines the bill HTTP request and response shapes.
package transport

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/raftaar7864/rental-management-backend/internal/bills/domain"
)

// ChargeRequest is one itemized line on a bill request.
type ChargeRequest struct {
	Title  string  `json:"title" validate:"required,min=1,max=200"`
	Amount float64 `json:"amount" validate:"gte=0"`
}

// CreateBillRequest contains data for creating a new bill.
type CreateBillRequest struct {
	TenantID          uuid.UUID       `json:"tenantId" validate:"required"`
	RoomID            uuid.UUID       `json:"roomId" validate:"required"`
	BillingMonth      string          `json:"billingMonth" validate:"required"`
	Charges           []ChargeRequest `json:"charges" validate:"omitempty,dive"`
	TotalAmount       *float64        `json:"totalAmount,omitempty" validate:"omitempty,gt=0"`
	SendNotifications *bool           `json:"sendNotifications,omitempty"`
}

// UpdateBillRequest contains data for updating an existing bill.
// Omitted fields are left unchanged.
type UpdateBillRequest struct {
	BillingMonth      *string         `json:"billingMonth,omitempty"`
	Charges           []ChargeRequest `json:"charges,omitempty" validate:"omitempty,dive"`
	TotalAmount       *float64        `json:"totalAmount,omitempty" validate:"omitempty,gt=0"`
	SendNotifications *bool           `json:"sendNotifications,omitempty"`
}

// MarkPaidRequest contains data for settling a bill.
type MarkPaidRequest struct {
	Method            string     `json:"method" validate:"omitempty,max=50"`
	Reference         string     `json:"reference" validate:"omitempty,max=200"`
	PaidAt            *time.Time `json:"paidAt,omitempty"`
	SendNotifications *bool      `json:"sendNotifications,omitempty"`
}

// ListBillsRequest filters the bill listing.
type ListBillsRequest struct {
	Month      string `form:"month"`
	TenantID   string `form:"tenantId"`
	BuildingID string `form:"buildingId"`
	Status     string `form:"status"`
	Limit      int    `form:"limit"`
	Offset     int    `form:"offset"`
}

// GenerateMonthlyRequest selects the billing month for a generation or
// reminder run. An empty body means the current month.
type GenerateMonthlyRequest struct {
	Month string `json:"month,omitempty"`
}

// MonthOrNow resolves the requested month, defaulting to the current one.
func (r GenerateMonthlyRequest) MonthOrNow() string {
	if r.Month != "" {
		return r.Month
	}
	return time.Now().Format("2006-01")
}

// BillListResponse wraps a page of bills.
type BillListResponse struct {
	Items []domain.Bill `json:"items"`
	Total int           `json:"total"`
}

// ParseMonth parses a billing month in "2006-01" or "2006-01-02" form.
func ParseMonth(raw string) (time.Time, error) {
	for _, layout := range []string{"2006-01", "2006-01-02", time.RFC3339} {
		if t, err := time.Parse(layout, raw); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("invalid billing month %q, expected YYYY-MM", raw)
}

// Charges converts request charge lines into domain charges.
func Charges(reqs []ChargeRequest) []domain.Charge {
	if reqs == nil {
		return nil
	}
	charges := make([]domain.Charge, 0, len(reqs))
	for _, r := range reqs {
		charges = append(charges, domain.Charge{Title: r.Title, Amount: r.Amount})
	}
	return charges
}

// SendNotifications resolves the optional flag, defaulting to true.
func SendNotifications(flag *bool) bool {
	if flag == nil {
		return true
	}
	return *flag
}

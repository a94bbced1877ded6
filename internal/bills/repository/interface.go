package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/raftaar7864/rental-management-backend/internal/bills/domain"
)

// CreateParams contains parameters for creating a bill.
type CreateParams struct {
	TenantID     uuid.UUID
	RoomID       uuid.UUID
	BillingMonth time.Time
	Charges      []domain.Charge
	TotalAmount  float64
}

// UpdateParams contains parameters for updating a bill. Nil fields are
// left unchanged.
type UpdateParams struct {
	ID           uuid.UUID
	BillingMonth *time.Time
	Charges      []domain.Charge
	TotalAmount  *float64
}

// ListParams filters and paginates bill listings.
type ListParams struct {
	Month      *time.Time
	TenantID   *uuid.UUID
	BuildingID *uuid.UUID
	Status     *domain.PaymentStatus
	Limit      int
	Offset     int
}

// Tenancy is an active tenant-room pairing used for monthly generation.
type Tenancy struct {
	TenantID    uuid.UUID
	RoomID      uuid.UUID
	MonthlyRent float64
}

// BillReader provides read operations for bills.
type BillReader interface {
	GetByID(ctx context.Context, id uuid.UUID) (domain.Bill, error)
	List(ctx context.Context, params ListParams) ([]domain.Bill, int, error)
	ExistsForTenantMonth(ctx context.Context, tenantID, roomID uuid.UUID, month time.Time) (bool, error)
	ListUnpaidForMonth(ctx context.Context, month time.Time) ([]domain.Bill, error)
	ListActiveTenancies(ctx context.Context) ([]Tenancy, error)
}

// BillWriter provides write operations for bills.
type BillWriter interface {
	Create(ctx context.Context, params CreateParams) (domain.Bill, error)
	Update(ctx context.Context, params UpdateParams) (domain.Bill, error)
	Delete(ctx context.Context, id uuid.UUID) error
	MarkPaid(ctx context.Context, id uuid.UUID, payment domain.Payment) (domain.Bill, error)
	SetPDFLocator(ctx context.Context, id uuid.UUID, pdfKey, pdfURL string) error
}

// Repository combines all bill repository operations.
type Repository interface {
	BillReader
	BillWriter
}

package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/raftaar7864/rental-management-backend/internal/bills/domain"
	"github.com/raftaar7864/rental-management-backend/platform/apperr"
)

const billNotFoundMessage = "bill not found"

// billSelect joins a bill with its tenant, room and building read models.
const billSelect = `
	SELECT b.id, b.billing_month, b.charges, b.total_amount, b.payment_status,
	       b.payment_method, b.payment_reference, b.paid_at,
	       COALESCE(b.pdf_key, ''), COALESCE(b.pdf_url, ''),
	       b.created_at, b.updated_at,
	       t.id, t.tenant_code, t.full_name, COALESCE(t.email, ''), COALESCE(t.phone, ''),
	       r.id, r.number,
	       bd.id, bd.name, COALESCE(bd.address, '')
	FROM bills b
	JOIN tenants t ON t.id = b.tenant_id
	JOIN rooms r ON r.id = b.room_id
	JOIN buildings bd ON bd.id = r.building_id`

// Repo implements the Repository interface with PostgreSQL.
type Repo struct {
	pool *pgxpool.Pool
}

// New creates a new bills repository.
func New(pool *pgxpool.Pool) *Repo {
	return &Repo{pool: pool}
}

// Compile-time check that Repo implements Repository.
var _ Repository = (*Repo)(nil)

type rowScanner interface {
	Scan(dest ...any) error
}

func scanBill(row rowScanner) (domain.Bill, error) {
	var (
		b             domain.Bill
		paymentMethod *string
		paymentRef    *string
		paidAt        *time.Time
		status        string
	)

	err := row.Scan(
		&b.ID, &b.BillingMonth, &b.Charges, &b.TotalAmount, &status,
		&paymentMethod, &paymentRef, &paidAt,
		&b.PDFKey, &b.PDFURL,
		&b.CreatedAt, &b.UpdatedAt,
		&b.Tenant.ID, &b.Tenant.TenantID, &b.Tenant.FullName, &b.Tenant.Email, &b.Tenant.Phone,
		&b.Room.ID, &b.Room.Number,
		&b.Building.ID, &b.Building.Name, &b.Building.Address,
	)
	if err != nil {
		return domain.Bill{}, err
	}

	b.PaymentStatus = domain.NormalizePaymentStatus(status)
	if b.IsPaid() {
		payment := &domain.Payment{}
		if paymentMethod != nil {
			payment.Method = *paymentMethod
		}
		if paymentRef != nil {
			payment.Reference = *paymentRef
		}
		if paidAt != nil {
			payment.PaidAt = *paidAt
		}
		b.Payment = payment
	}

	return b, nil
}

// GetByID retrieves a bill with its joins.
func (r *Repo) GetByID(ctx context.Context, id uuid.UUID) (domain.Bill, error) {
	bill, err := scanBill(r.pool.QueryRow(ctx, billSelect+" WHERE b.id = $1", id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Bill{}, apperr.NotFound(billNotFoundMessage)
		}
		return domain.Bill{}, fmt.Errorf("get bill by id: %w", err)
	}
	return bill, nil
}

// List retrieves bills matching the filters, newest billing month first,
// together with the unpaginated total.
func (r *Repo) List(ctx context.Context, params ListParams) ([]domain.Bill, int, error) {
	var (
		conditions []string
		args       []any
	)

	addArg := func(clause string, value any) {
		args = append(args, value)
		conditions = append(conditions, fmt.Sprintf(clause, len(args)))
	}

	if params.Month != nil {
		addArg("b.billing_month = $%d", monthFloor(*params.Month))
	}
	if params.TenantID != nil {
		addArg("b.tenant_id = $%d", *params.TenantID)
	}
	if params.BuildingID != nil {
		addArg("bd.id = $%d", *params.BuildingID)
	}
	if params.Status != nil {
		addArg("LOWER(b.payment_status) = LOWER($%d)", string(*params.Status))
	}

	where := ""
	if len(conditions) > 0 {
		where = " WHERE " + strings.Join(conditions, " AND ")
	}

	countQuery := `
		SELECT COUNT(*)
		FROM bills b
		JOIN tenants t ON t.id = b.tenant_id
		JOIN rooms r ON r.id = b.room_id
		JOIN buildings bd ON bd.id = r.building_id` + where

	var total int
	if err := r.pool.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count bills: %w", err)
	}

	query := billSelect + where + " ORDER BY b.billing_month DESC, b.created_at DESC"
	if params.Limit > 0 {
		args = append(args, params.Limit)
		query += fmt.Sprintf(" LIMIT $%d", len(args))
		args = append(args, params.Offset)
		query += fmt.Sprintf(" OFFSET $%d", len(args))
	}

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list bills: %w", err)
	}
	defer rows.Close()

	bills, err := scanBills(rows)
	if err != nil {
		return nil, 0, err
	}
	return bills, total, nil
}

// ExistsForTenantMonth reports whether the tenant already has a bill for the
// room and month.
func (r *Repo) ExistsForTenantMonth(ctx context.Context, tenantID, roomID uuid.UUID, month time.Time) (bool, error) {
	query := `
		SELECT EXISTS (
			SELECT 1 FROM bills
			WHERE tenant_id = $1 AND room_id = $2 AND billing_month = $3
		)`

	var exists bool
	err := r.pool.QueryRow(ctx, query, tenantID, roomID, monthFloor(month)).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check bill existence: %w", err)
	}
	return exists, nil
}

// ListUnpaidForMonth retrieves unpaid bills for one billing month.
func (r *Repo) ListUnpaidForMonth(ctx context.Context, month time.Time) ([]domain.Bill, error) {
	query := billSelect + `
		WHERE b.billing_month = $1 AND LOWER(b.payment_status) <> 'paid'
		ORDER BY b.created_at ASC`

	rows, err := r.pool.Query(ctx, query, monthFloor(month))
	if err != nil {
		return nil, fmt.Errorf("list unpaid bills: %w", err)
	}
	defer rows.Close()

	return scanBills(rows)
}

// ListActiveTenancies retrieves every active tenant with their room and
// monthly rent, for monthly bill generation.
func (r *Repo) ListActiveTenancies(ctx context.Context) ([]Tenancy, error) {
	query := `
		SELECT t.id, t.room_id, r.monthly_rent
		FROM tenants t
		JOIN rooms r ON r.id = t.room_id
		WHERE t.is_active = true`

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list active tenancies: %w", err)
	}
	defer rows.Close()

	var tenancies []Tenancy
	for rows.Next() {
		var t Tenancy
		if err := rows.Scan(&t.TenantID, &t.RoomID, &t.MonthlyRent); err != nil {
			return nil, fmt.Errorf("scan tenancy: %w", err)
		}
		tenancies = append(tenancies, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate tenancies: %w", err)
	}

	return tenancies, nil
}

// Create inserts a bill and returns it with its joins hydrated.
func (r *Repo) Create(ctx context.Context, params CreateParams) (domain.Bill, error) {
	query := `
		INSERT INTO bills (tenant_id, room_id, billing_month, charges, total_amount, payment_status)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id`

	charges := params.Charges
	if charges == nil {
		charges = []domain.Charge{}
	}

	var id uuid.UUID
	err := r.pool.QueryRow(ctx, query,
		params.TenantID, params.RoomID, monthFloor(params.BillingMonth),
		charges, params.TotalAmount, string(domain.PaymentStatusNotPaid),
	).Scan(&id)
	if err != nil {
		return domain.Bill{}, fmt.Errorf("create bill: %w", err)
	}

	return r.GetByID(ctx, id)
}

// Update applies the non-nil fields and returns the updated bill.
func (r *Repo) Update(ctx context.Context, params UpdateParams) (domain.Bill, error) {
	var (
		sets []string
		args []any
	)

	addSet := func(clause string, value any) {
		args = append(args, value)
		sets = append(sets, fmt.Sprintf(clause, len(args)))
	}

	if params.BillingMonth != nil {
		addSet("billing_month = $%d", monthFloor(*params.BillingMonth))
	}
	if params.Charges != nil {
		addSet("charges = $%d", params.Charges)
	}
	if params.TotalAmount != nil {
		addSet("total_amount = $%d", *params.TotalAmount)
	}

	if len(sets) == 0 {
		return r.GetByID(ctx, params.ID)
	}

	sets = append(sets, "updated_at = NOW()")
	args = append(args, params.ID)
	query := fmt.Sprintf("UPDATE bills SET %s WHERE id = $%d", strings.Join(sets, ", "), len(args))

	tag, err := r.pool.Exec(ctx, query, args...)
	if err != nil {
		return domain.Bill{}, fmt.Errorf("update bill: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.Bill{}, apperr.NotFound(billNotFoundMessage)
	}

	return r.GetByID(ctx, params.ID)
}

// Delete removes a bill.
func (r *Repo) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.pool.Exec(ctx, "DELETE FROM bills WHERE id = $1", id)
	if err != nil {
		return fmt.Errorf("delete bill: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperr.NotFound(billNotFoundMessage)
	}
	return nil
}

// MarkPaid settles a bill. Already-paid bills are rejected so a double
// webhook or double click cannot overwrite the original payment record.
func (r *Repo) MarkPaid(ctx context.Context, id uuid.UUID, payment domain.Payment) (domain.Bill, error) {
	paidAt := payment.PaidAt
	if paidAt.IsZero() {
		paidAt = time.Now()
	}

	query := `
		UPDATE bills
		SET payment_status = $2, payment_method = $3, payment_reference = $4,
		    paid_at = $5, updated_at = NOW()
		WHERE id = $1 AND LOWER(payment_status) <> 'paid'`

	tag, err := r.pool.Exec(ctx, query,
		id, string(domain.PaymentStatusPaid), payment.Method, payment.Reference, paidAt,
	)
	if err != nil {
		return domain.Bill{}, fmt.Errorf("mark bill paid: %w", err)
	}

	if tag.RowsAffected() == 0 {
		bill, err := r.GetByID(ctx, id)
		if err != nil {
			return domain.Bill{}, err
		}
		if bill.IsPaid() {
			return domain.Bill{}, apperr.Conflict("bill is already paid")
		}
		return domain.Bill{}, apperr.Internal("mark bill paid applied no changes")
	}

	return r.GetByID(ctx, id)
}

// SetPDFLocator persists the materialized PDF location without touching
// updated_at, so it does not disturb the notification stamp.
func (r *Repo) SetPDFLocator(ctx context.Context, id uuid.UUID, pdfKey, pdfURL string) error {
	tag, err := r.pool.Exec(ctx,
		"UPDATE bills SET pdf_key = $2, pdf_url = $3 WHERE id = $1",
		id, pdfKey, pdfURL,
	)
	if err != nil {
		return fmt.Errorf("set bill pdf locator: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperr.NotFound(billNotFoundMessage)
	}
	return nil
}

func scanBills(rows pgx.Rows) ([]domain.Bill, error) {
	var bills []domain.Bill
	for rows.Next() {
		bill, err := scanBill(rows)
		if err != nil {
			return nil, fmt.Errorf("scan bill: %w", err)
		}
		bills = append(bills, bill)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate bills: %w", err)
	}
	return bills, nil
}

// monthFloor truncates to the first day of the month, matching how
// billing_month is stored.
func monthFloor(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC)
}

// Package service implements the bill lifecycle: create, update, settle,
// and the PDF and notification side effects each mutation triggers.
package service

import (
	"context"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/raftaar7864/rental-management-backend/internal/bills/domain"
	"github.com/raftaar7864/rental-management-backend/internal/bills/repository"
	"github.com/raftaar7864/rental-management-backend/internal/notification"
	"github.com/raftaar7864/rental-management-backend/platform/apperr"
	"github.com/raftaar7864/rental-management-backend/platform/logger"
)

// notifyTimeout bounds the background notification run for one bill,
// including time spent waiting in the email queue.
const notifyTimeout = 2 * time.Minute

// generateConcurrency bounds parallel bill creation during monthly runs.
const generateConcurrency = 4

// Notifier is the slice of the notification orchestrator the bill
// lifecycle needs.
type Notifier interface {
	SendBill(ctx context.Context, bill *domain.Bill, typ notification.Type)
	CancelPendingEmails(billID uuid.UUID)
}

// CreateParams are the inputs for creating a bill.
type CreateParams struct {
	TenantID          uuid.UUID
	RoomID            uuid.UUID
	BillingMonth      time.Time
	Charges           []domain.Charge
	TotalAmount       float64
	SendNotifications bool
}

// UpdateParams are the inputs for updating a bill. Nil fields are left
// unchanged.
type UpdateParams struct {
	ID                uuid.UUID
	BillingMonth      *time.Time
	Charges           []domain.Charge
	TotalAmount       *float64
	SendNotifications bool
}

// MarkPaidParams are the inputs for settling a bill.
type MarkPaidParams struct {
	ID                uuid.UUID
	Payment           domain.Payment
	SendNotifications bool
}

// Service orchestrates bill persistence, PDF materialization and tenant
// notifications. Side effects are best effort: a bill mutation never fails
// because a PDF upload or a notification channel failed.
type Service struct {
	repo         repository.Repository
	materializer *Materializer
	notifier     Notifier
	log          *logger.Logger
}

func New(repo repository.Repository, materializer *Materializer, notifier Notifier, log *logger.Logger) *Service {
	return &Service{
		repo:         repo,
		materializer: materializer,
		notifier:     notifier,
		log:          log,
	}
}

// Get retrieves one bill.
func (s *Service) Get(ctx context.Context, id uuid.UUID) (domain.Bill, error) {
	return s.repo.GetByID(ctx, id)
}

// List retrieves bills matching the filters.
func (s *Service) List(ctx context.Context, params repository.ListParams) ([]domain.Bill, int, error) {
	return s.repo.List(ctx, params)
}

// Create creates a bill, materializes its PDF and notifies the tenant.
// A tenant can have at most one bill per room and month.
func (s *Service) Create(ctx context.Context, params CreateParams) (domain.Bill, error) {
	total := params.TotalAmount
	if total == 0 {
		for _, charge := range params.Charges {
			total += charge.Amount
		}
	}
	if total <= 0 {
		return domain.Bill{}, apperr.Validation("bill total must be positive")
	}

	exists, err := s.repo.ExistsForTenantMonth(ctx, params.TenantID, params.RoomID, params.BillingMonth)
	if err != nil {
		return domain.Bill{}, err
	}
	if exists {
		return domain.Bill{}, apperr.Conflict("bill already exists for this tenant, room and month")
	}

	bill, err := s.repo.Create(ctx, repository.CreateParams{
		TenantID:     params.TenantID,
		RoomID:       params.RoomID,
		BillingMonth: params.BillingMonth,
		Charges:      params.Charges,
		TotalAmount:  total,
	})
	if err != nil {
		return domain.Bill{}, err
	}

	s.materializeAndStore(ctx, &bill)
	if params.SendNotifications {
		s.notifyAsync(bill, notification.TypeCreated)
	}

	return bill, nil
}

// Update modifies a bill, re-materializes its PDF and notifies the tenant.
func (s *Service) Update(ctx context.Context, params UpdateParams) (domain.Bill, error) {
	if params.TotalAmount != nil && *params.TotalAmount <= 0 {
		return domain.Bill{}, apperr.Validation("bill total must be positive")
	}

	bill, err := s.repo.Update(ctx, repository.UpdateParams{
		ID:           params.ID,
		BillingMonth: params.BillingMonth,
		Charges:      params.Charges,
		TotalAmount:  params.TotalAmount,
	})
	if err != nil {
		return domain.Bill{}, err
	}

	s.materializeAndStore(ctx, &bill)
	if params.SendNotifications {
		s.notifyAsync(bill, notification.TypeUpdated)
	}

	return bill, nil
}

// MarkPaid settles a bill. Once the transition is accepted, pending email
// notifications for the bill are cancelled before the receipt is queued so
// a stale unpaid email cannot go out after it. A rejected transition
// leaves queued notifications untouched.
func (s *Service) MarkPaid(ctx context.Context, params MarkPaidParams) (domain.Bill, error) {
	bill, err := s.repo.MarkPaid(ctx, params.ID, params.Payment)
	if err != nil {
		return domain.Bill{}, err
	}

	s.notifier.CancelPendingEmails(params.ID)

	s.materializeAndStore(ctx, &bill)
	if params.SendNotifications {
		s.notifyAsync(bill, notification.TypePaid)
	}

	return bill, nil
}

// Delete removes a bill, drops any queued notifications for it and cleans
// up its stored PDF.
func (s *Service) Delete(ctx context.Context, id uuid.UUID) error {
	bill, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return err
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}

	s.notifier.CancelPendingEmails(id)
	s.materializer.Remove(ctx, bill)
	return nil
}

// ResolveDownload produces read access to the bill PDF. A bill without a
// stored locator is materialized first and its key persisted, so later
// downloads sign the existing object instead of re-rendering.
func (s *Service) ResolveDownload(ctx context.Context, id uuid.UUID) (Download, error) {
	bill, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return Download{}, err
	}
	if bill.PDFKey == "" {
		s.materializeAndStore(ctx, &bill)
	}
	return s.materializer.ResolveDownload(ctx, bill)
}

// GenerateMonthly creates rent bills for every active tenancy that does not
// have one for the month yet. Returns the number of bills created.
func (s *Service) GenerateMonthly(ctx context.Context, month time.Time) (int, error) {
	tenancies, err := s.repo.ListActiveTenancies(ctx)
	if err != nil {
		return 0, err
	}

	var created int
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(generateConcurrency)
	results := make([]bool, len(tenancies))

	for i, tenancy := range tenancies {
		g.Go(func() error {
			_, err := s.Create(gctx, CreateParams{
				TenantID:     tenancy.TenantID,
				RoomID:       tenancy.RoomID,
				BillingMonth: month,
				Charges: []domain.Charge{
					{Title: "Monthly rent", Amount: tenancy.MonthlyRent},
				},
				SendNotifications: true,
			})
			if err != nil {
				if apperr.Is(err, apperr.KindConflict) {
					return nil
				}
				s.log.Error("monthly bill generation failed",
					"tenant_id", tenancy.TenantID, "error", err)
				return nil
			}
			results[i] = true
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return 0, err
	}

	for _, ok := range results {
		if ok {
			created++
		}
	}

	s.log.Info("monthly bill generation finished",
		"month", month.Format("2006-01"), "created", created, "tenancies", len(tenancies))
	return created, nil
}

// SendDueReminders re-notifies tenants with unpaid bills for the month.
// Returns the number of bills re-notified.
func (s *Service) SendDueReminders(ctx context.Context, month time.Time) (int, error) {
	bills, err := s.repo.ListUnpaidForMonth(ctx, month)
	if err != nil {
		return 0, err
	}

	for i := range bills {
		s.notifyAsync(bills[i], notification.TypeCreated)
	}

	return len(bills), nil
}

// materializeAndStore renders the bill PDF and persists its locator.
// Failures are logged only; the download endpoint re-materializes on
// demand.
func (s *Service) materializeAndStore(ctx context.Context, bill *domain.Bill) {
	locator, err := s.materializer.Materialize(ctx, *bill)
	if err != nil {
		s.log.Error("bill pdf materialization failed", "bill_id", bill.ID, "error", err)
		return
	}
	if locator.Key == "" {
		return
	}

	if err := s.repo.SetPDFLocator(ctx, bill.ID, locator.Key, locator.URL); err != nil {
		s.log.Error("bill pdf locator persist failed", "bill_id", bill.ID, "error", err)
		return
	}
	bill.PDFKey = locator.Key
	bill.PDFURL = locator.URL
}

// notifyAsync runs the best-effort notification in the background so the
// API response does not wait on the throttled email queue.
func (s *Service) notifyAsync(bill domain.Bill, typ notification.Type) {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), notifyTimeout)
		defer cancel()
		s.notifier.SendBill(ctx, &bill, typ)
	}()
}

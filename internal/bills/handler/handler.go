package handler

import (
	"context"
	"net/http"
	"os"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/raftaar7864/rental-management-backend/internal/bills/domain"
	"github.com/raftaar7864/rental-management-backend/internal/bills/repository"
	"github.com/raftaar7864/rental-management-backend/internal/bills/service"
	"github.com/raftaar7864/rental-management-backend/internal/bills/transport"
	"github.com/raftaar7864/rental-management-backend/internal/scheduler"
	"github.com/raftaar7864/rental-management-backend/platform/httpkit"
	"github.com/raftaar7864/rental-management-backend/platform/validator"
)

const (
	msgInvalidRequest   = "invalid request"
	msgValidationFailed = "validation failed"
	msgInvalidID        = "invalid bill ID"

	// maxLocalPDFBytes bounds fallback files served from local disk.
	maxLocalPDFBytes = 25 << 20
)

// JobEnqueuer hands monthly bill jobs to the background worker.
type JobEnqueuer interface {
	EnqueueGenerateMonthlyBills(ctx context.Context, payload scheduler.MonthPayload) error
	EnqueueSendDueReminders(ctx context.Context, payload scheduler.MonthPayload) error
}

// Handler handles HTTP requests for bills.
type Handler struct {
	svc  *service.Service
	val  *validator.Validator
	jobs JobEnqueuer
}

// New creates a new bills handler.
func New(svc *service.Service, val *validator.Validator) *Handler {
	return &Handler{svc: svc, val: val}
}

// SetJobEnqueuer routes generation runs through the background queue
// instead of the request goroutine.
func (h *Handler) SetJobEnqueuer(jobs JobEnqueuer) {
	h.jobs = jobs
}

// Create creates a bill.
// POST /api/v1/bills
func (h *Handler) Create(c *gin.Context) {
	var req transport.CreateBillRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, err.Error())
		return
	}

	month, err := transport.ParseMonth(req.BillingMonth)
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, err.Error(), nil)
		return
	}

	params := service.CreateParams{
		TenantID:          req.TenantID,
		RoomID:            req.RoomID,
		BillingMonth:      month,
		Charges:           transport.Charges(req.Charges),
		SendNotifications: transport.SendNotifications(req.SendNotifications),
	}
	if req.TotalAmount != nil {
		params.TotalAmount = *req.TotalAmount
	}

	bill, err := h.svc.Create(c.Request.Context(), params)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.Created(c, bill)
}

// Update modifies a bill.
// PUT /api/v1/bills/:id
func (h *Handler) Update(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidID, nil)
		return
	}

	var req transport.UpdateBillRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, err.Error())
		return
	}

	params := service.UpdateParams{
		ID:                id,
		Charges:           transport.Charges(req.Charges),
		TotalAmount:       req.TotalAmount,
		SendNotifications: transport.SendNotifications(req.SendNotifications),
	}
	if req.BillingMonth != nil {
		month, err := transport.ParseMonth(*req.BillingMonth)
		if err != nil {
			httpkit.Error(c, http.StatusBadRequest, err.Error(), nil)
			return
		}
		params.BillingMonth = &month
	}

	bill, err := h.svc.Update(c.Request.Context(), params)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, bill)
}

// MarkPaid settles a bill.
// POST /api/v1/bills/:id/mark-paid
func (h *Handler) MarkPaid(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidID, nil)
		return
	}

	var req transport.MarkPaidRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, err.Error())
		return
	}

	payment := domain.Payment{Method: req.Method, Reference: req.Reference}
	if req.PaidAt != nil {
		payment.PaidAt = *req.PaidAt
	}

	bill, err := h.svc.MarkPaid(c.Request.Context(), service.MarkPaidParams{
		ID:                id,
		Payment:           payment,
		SendNotifications: transport.SendNotifications(req.SendNotifications),
	})
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, bill)
}

// Get retrieves one bill.
// GET /api/v1/bills/:id
func (h *Handler) Get(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidID, nil)
		return
	}

	bill, err := h.svc.Get(c.Request.Context(), id)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, bill)
}

// List retrieves bills with filters.
// GET /api/v1/bills
func (h *Handler) List(c *gin.Context) {
	var req transport.ListBillsRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}

	params := repository.ListParams{Limit: req.Limit, Offset: req.Offset}
	if req.Month != "" {
		month, err := transport.ParseMonth(req.Month)
		if err != nil {
			httpkit.Error(c, http.StatusBadRequest, err.Error(), nil)
			return
		}
		params.Month = &month
	}
	if req.TenantID != "" {
		tenantID, err := uuid.Parse(req.TenantID)
		if err != nil {
			httpkit.Error(c, http.StatusBadRequest, "invalid tenant ID", nil)
			return
		}
		params.TenantID = &tenantID
	}
	if req.BuildingID != "" {
		buildingID, err := uuid.Parse(req.BuildingID)
		if err != nil {
			httpkit.Error(c, http.StatusBadRequest, "invalid building ID", nil)
			return
		}
		params.BuildingID = &buildingID
	}
	if req.Status != "" {
		status := domain.NormalizePaymentStatus(req.Status)
		params.Status = &status
	}

	bills, total, err := h.svc.List(c.Request.Context(), params)
	if httpkit.HandleError(c, err) {
		return
	}
	if bills == nil {
		bills = []domain.Bill{}
	}
	httpkit.OK(c, transport.BillListResponse{Items: bills, Total: total})
}

// Delete removes a bill.
// DELETE /api/v1/bills/:id
func (h *Handler) Delete(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidID, nil)
		return
	}

	if httpkit.HandleError(c, h.svc.Delete(c.Request.Context(), id)) {
		return
	}
	c.Status(http.StatusNoContent)
}

// GenerateMonthly triggers a bill-generation run for a month. With a job
// queue configured the run happens on the worker; otherwise it runs inline.
// POST /api/v1/bills/generate-monthly
func (h *Handler) GenerateMonthly(c *gin.Context) {
	var req transport.GenerateMonthlyRequest
	if err := c.ShouldBindJSON(&req); err != nil && err.Error() != "EOF" {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}

	month, err := transport.ParseMonth(req.MonthOrNow())
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, err.Error(), nil)
		return
	}

	if h.jobs != nil {
		payload := scheduler.MonthPayload{Month: month.Format("2006-01")}
		if err := h.jobs.EnqueueGenerateMonthlyBills(c.Request.Context(), payload); err != nil {
			httpkit.Error(c, http.StatusServiceUnavailable, "could not queue generation run", nil)
			return
		}
		c.JSON(http.StatusAccepted, gin.H{"status": "queued", "month": payload.Month})
		return
	}

	created, err := h.svc.GenerateMonthly(c.Request.Context(), month)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, gin.H{"created": created, "month": month.Format("2006-01")})
}

// SendReminders triggers a due-reminder run for a month.
// POST /api/v1/bills/send-reminders
func (h *Handler) SendReminders(c *gin.Context) {
	var req transport.GenerateMonthlyRequest
	if err := c.ShouldBindJSON(&req); err != nil && err.Error() != "EOF" {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}

	month, err := transport.ParseMonth(req.MonthOrNow())
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, err.Error(), nil)
		return
	}

	if h.jobs != nil {
		payload := scheduler.MonthPayload{Month: month.Format("2006-01")}
		if err := h.jobs.EnqueueSendDueReminders(c.Request.Context(), payload); err != nil {
			httpkit.Error(c, http.StatusServiceUnavailable, "could not queue reminder run", nil)
			return
		}
		c.JSON(http.StatusAccepted, gin.H{"status": "queued", "month": payload.Month})
		return
	}

	notified, err := h.svc.SendDueReminders(c.Request.Context(), month)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, gin.H{"notified": notified, "month": month.Format("2006-01")})
}

// Download serves the bill PDF: a redirect to a short-lived signed URL
// when the PDF lives in object storage, the file itself when only the
// local fallback copy exists.
// GET /api/v1/bills/:id/download
func (h *Handler) Download(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidID, nil)
		return
	}

	download, err := h.svc.ResolveDownload(c.Request.Context(), id)
	if httpkit.HandleError(c, err) {
		return
	}

	if download.SignedURL != "" {
		c.Redirect(http.StatusTemporaryRedirect, download.SignedURL)
		return
	}

	info, err := os.Stat(download.LocalPath)
	if err != nil || info.Size() > maxLocalPDFBytes {
		httpkit.Error(c, http.StatusServiceUnavailable, "bill pdf unavailable", nil)
		return
	}

	c.Header("Content-Type", "application/pdf")
	c.File(download.LocalPath)
}

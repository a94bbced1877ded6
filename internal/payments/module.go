package payments

import (
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	apphttp "github.com/raftaar7864/rental-management-backend/internal/http"
	"github.com/raftaar7864/rental-management-backend/internal/security/recaptcha"
	"github.com/raftaar7864/rental-management-backend/platform/httpkit"
)

// maxWebhookBytes bounds the webhook body read.
const maxWebhookBytes = 1 << 20

// Module is the payments bounded context module implementing http.Module.
type Module struct {
	service   *Service
	recaptcha *recaptcha.Client
}

// NewModule creates the payments module.
func NewModule(service *Service, recaptchaClient *recaptcha.Client) *Module {
	return &Module{service: service, recaptcha: recaptchaClient}
}

// Name returns the module identifier.
func (m *Module) Name() string {
	return "payments"
}

// RegisterRoutes mounts payment routes. The order endpoint is public (the
// tenant payment page has no login) but captcha-guarded and rate limited;
// the webhook authenticates through its HMAC signature.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	public := ctx.V1.Group("/public/payments")
	public.Use(ctx.AuthRateLimiter.RateLimit())
	public.POST("/order", m.createOrder)

	ctx.V1.POST("/payments/webhook", m.handleWebhook)
}

type orderRequest struct {
	BillID         string `json:"billId" binding:"required"`
	RecaptchaToken string `json:"recaptchaToken"`
}

func (m *Module) createOrder(c *gin.Context) {
	var req orderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, "invalid request", nil)
		return
	}

	billID, err := uuid.Parse(req.BillID)
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, "invalid bill ID", nil)
		return
	}

	if err := m.recaptcha.Verify(c.Request.Context(), req.RecaptchaToken, c.ClientIP()); httpkit.HandleError(c, err) {
		return
	}

	order, err := m.service.CreateOrder(c.Request.Context(), billID)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, order)
}

func (m *Module) handleWebhook(c *gin.Context) {
	body, err := io.ReadAll(io.LimitReader(c.Request.Body, maxWebhookBytes))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, "unreadable body", nil)
		return
	}

	signature := c.GetHeader("X-Razorpay-Signature")
	if err := m.service.HandleWebhook(c.Request.Context(), body, signature); httpkit.HandleError(c, err) {
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// Compile-time check that Module implements http.Module
var _ apphttp.Module = (*Module)(nil)

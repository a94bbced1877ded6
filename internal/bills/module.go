// Package bills provides the bill lifecycle bounded context: CRUD, payment
// settlement, PDF materialization and tenant notifications.
package bills

import (
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/raftaar7864/rental-management-backend/internal/bills/handler"
	"github.com/raftaar7864/rental-management-backend/internal/bills/repository"
	"github.com/raftaar7864/rental-management-backend/internal/bills/service"
	apphttp "github.com/raftaar7864/rental-management-backend/internal/http"
	"github.com/raftaar7864/rental-management-backend/platform/logger"
	"github.com/raftaar7864/rental-management-backend/platform/validator"
)

// Module is the bills bounded context module implementing http.Module.
type Module struct {
	handler *handler.Handler
	service *service.Service
	repo    repository.Repository
}

// NewModule creates and initializes the bills module with its dependencies.
// The materializer and notifier are built by the composition root because
// they are shared with the scheduler and payments modules.
func NewModule(
	pool *pgxpool.Pool,
	materializer *service.Materializer,
	notifier service.Notifier,
	val *validator.Validator,
	log *logger.Logger,
) *Module {
	repo := repository.New(pool)
	svc := service.New(repo, materializer, notifier, log)
	h := handler.New(svc, val)

	return &Module{
		handler: h,
		service: svc,
		repo:    repo,
	}
}

// Name returns the module identifier.
func (m *Module) Name() string {
	return "bills"
}

// Service returns the service layer for external use.
func (m *Module) Service() *service.Service {
	return m.service
}

// RegisterRoutes mounts bill routes on the provided router context.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	// Public download endpoint: the link is emailed to tenants who have
	// no account. The signed URL behind it expires on its own.
	ctx.V1.GET("/bills/:id/download", m.handler.Download)

	group := ctx.Protected.Group("/bills")
	group.GET("", m.handler.List)
	group.POST("", m.handler.Create)
	group.GET("/:id", m.handler.Get)
	group.PUT("/:id", m.handler.Update)
	group.DELETE("/:id", m.handler.Delete)
	group.POST("/:id/mark-paid", m.handler.MarkPaid)
	group.POST("/generate-monthly", m.handler.GenerateMonthly)
	group.POST("/send-reminders", m.handler.SendReminders)
}

// SetJobEnqueuer routes generation and reminder runs through the
// background job queue.
func (m *Module) SetJobEnqueuer(jobs handler.JobEnqueuer) {
	m.handler.SetJobEnqueuer(jobs)
}

// Compile-time check that Module implements http.Module
var _ apphttp.Module = (*Module)(nil)

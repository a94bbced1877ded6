// Package auth provides the admin authentication bounded context.
package auth

import (
	"github.com/raftaar7864/rental-management-backend/internal/auth/handler"
	"github.com/raftaar7864/rental-management-backend/internal/auth/service"
	apphttp "github.com/raftaar7864/rental-management-backend/internal/http"
	"github.com/raftaar7864/rental-management-backend/platform/config"
	"github.com/raftaar7864/rental-management-backend/platform/logger"
	"github.com/raftaar7864/rental-management-backend/platform/validator"
)

// Module is the auth bounded context module implementing http.Module.
type Module struct {
	handler *handler.Handler
}

// NewModule creates the auth module.
func NewModule(cfg config.AuthServiceConfig, val *validator.Validator, log *logger.Logger) *Module {
	svc := service.New(cfg, log)
	return &Module{handler: handler.New(svc, val)}
}

// Name returns the module identifier.
func (m *Module) Name() string {
	return "auth"
}

// RegisterRoutes mounts auth routes, rate limited harder than the rest of
// the API.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	group := ctx.V1.Group("/auth")
	group.Use(ctx.AuthRateLimiter.RateLimit())
	group.POST("/login", m.handler.Login)
}

// Compile-time check that Module implements http.Module
var _ apphttp.Module = (*Module)(nil)

package notification

import (
	apphttp "github.com/raftaar7864/rental-management-backend/internal/http"
	"github.com/raftaar7864/rental-management-backend/platform/httpkit"

	"github.com/gin-gonic/gin"
)

// Module exposes the notification debug surface over HTTP.
type Module struct {
	notifier *Notifier
}

func NewModule(notifier *Notifier) *Module {
	return &Module{notifier: notifier}
}

// Name returns the module identifier.
func (m *Module) Name() string {
	return "notification"
}

// RegisterRoutes mounts the provider status endpoint.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	ctx.Protected.GET("/debug/providers", func(c *gin.Context) {
		httpkit.OK(c, m.notifier.Providers())
	})
}

// Compile-time check that Module implements http.Module
var _ apphttp.Module = (*Module)(nil)

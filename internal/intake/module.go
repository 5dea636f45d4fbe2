// Package intake provides the form-webhook bounded context module.
package intake

import (
	"fusioncaller_backend/internal/events"
	apphttp "fusioncaller_backend/internal/http"
	"fusioncaller_backend/platform/logger"
)

// Module is the intake bounded context module implementing http.Module.
type Module struct {
	handler *Handler
}

// NewModule creates and initializes the intake module. All collaborators
// cross bounded contexts and are injected from the composition root.
func NewModule(orgs OrganizationReader, detector ServiceDetector, creator LeadCreator, caller CallStarter, eventBus events.Bus, log *logger.Logger) *Module {
	service := NewService(orgs, detector, creator, caller, eventBus, log)
	return &Module{handler: NewHandler(service)}
}

// Name returns the module identifier.
func (m *Module) Name() string {
	return "intake"
}

// RegisterRoutes mounts the public form webhook routes.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	formsGroup := ctx.V1.Group("/webhook")
	formsGroup.Use(ctx.WebhookRateLimiter.RateLimit())
	formsGroup.GET("/forms", m.handler.HandleHealth)
	formsGroup.POST("/forms", m.handler.HandleFormSubmission)
}

// Compile-time check that Module implements http.Module
var _ apphttp.Module = (*Module)(nil)

// Package leads provides the lead bounded context module.
package leads

import (
	"fusioncaller_backend/internal/events"
	apphttp "fusioncaller_backend/internal/http"
	"fusioncaller_backend/platform/logger"
	"fusioncaller_backend/platform/validator"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Module is the leads bounded context module implementing http.Module.
type Module struct {
	handler *Handler
	service *Service
	repo    *Repository
}

// NewModule creates and initializes the leads module.
func NewModule(pool *pgxpool.Pool, eventBus events.Bus, val *validator.Validator, log *logger.Logger) *Module {
	repo := NewRepository(pool)
	service := NewService(repo, eventBus, log)
	handler := NewHandler(service, val)

	return &Module{handler: handler, service: service, repo: repo}
}

// Name returns the module identifier.
func (m *Module) Name() string {
	return "leads"
}

// Service exposes the leads service for cross-module wiring.
func (m *Module) Service() *Service {
	return m.service
}

// Repository exposes the leads repository for cross-module wiring.
func (m *Module) Repository() *Repository {
	return m.repo
}

// RegisterRoutes mounts lead routes on the provided router context.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	leadGroup := ctx.Protected.Group("/leads")
	leadGroup.POST("", m.handler.HandleCreate)
	leadGroup.GET("", m.handler.HandleList)
	leadGroup.GET("/:leadId", m.handler.HandleGet)
	leadGroup.PATCH("/:leadId/status", m.handler.HandleUpdateStatus)
	leadGroup.DELETE("/:leadId", m.handler.HandleDelete)
}

// Compile-time check that Module implements http.Module
var _ apphttp.Module = (*Module)(nil)

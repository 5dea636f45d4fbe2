// Package organizations provides the tenant bounded context module.
package organizations

import (
	apphttp "fusioncaller_backend/internal/http"
	"fusioncaller_backend/platform/logger"
	"fusioncaller_backend/platform/validator"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Module is the organizations bounded context module implementing http.Module.
type Module struct {
	handler *Handler
	service *Service
	repo    *Repository
}

// NewModule creates and initializes the organizations module.
func NewModule(pool *pgxpool.Pool, val *validator.Validator, log *logger.Logger) *Module {
	repo := NewRepository(pool)
	service := NewService(repo, log)
	handler := NewHandler(service, val)

	return &Module{handler: handler, service: service, repo: repo}
}

// Name returns the module identifier.
func (m *Module) Name() string {
	return "organizations"
}

// Service exposes the organizations service for cross-module wiring.
func (m *Module) Service() *Service {
	return m.service
}

// Repository exposes the organizations repository for cross-module wiring.
func (m *Module) Repository() *Repository {
	return m.repo
}

// RegisterRoutes mounts organization routes on the provided router context.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	orgGroup := ctx.Protected.Group("/organizations")
	orgGroup.GET("/me", m.handler.HandleGetCurrent)
	orgGroup.PUT("/settings", m.handler.HandleUpdateSettings)
	orgGroup.POST("/webhook-secret", m.handler.HandleRotateWebhookSecret)
	orgGroup.DELETE("/webhook-secret", m.handler.HandleDisableWebhookSecret)

	adminGroup := ctx.Admin.Group("/organizations")
	adminGroup.POST("", m.handler.HandleCreate)
	adminGroup.GET("", m.handler.HandleList)
}

// Compile-time check that Module implements http.Module
var _ apphttp.Module = (*Module)(nil)

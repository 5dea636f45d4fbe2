package billing

import (
	"fusioncaller_backend/internal/events"
	apphttp "fusioncaller_backend/internal/http"
	"fusioncaller_backend/platform/config"
	"fusioncaller_backend/platform/logger"
	"fusioncaller_backend/platform/validator"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Module is the billing bounded context module implementing http.Module.
type Module struct {
	handler *Handler
	service *Service
}

// NewModule creates and initializes the billing module.
func NewModule(pool *pgxpool.Pool, cfg config.BillingConfig, orgs OrganizationStore, eventBus events.Bus, val *validator.Validator, log *logger.Logger) *Module {
	repo := NewRepository(pool)
	service := NewService(repo, orgs, cfg, eventBus, log)
	return &Module{
		handler: NewHandler(service, val),
		service: service,
	}
}

// Name returns the module identifier.
func (m *Module) Name() string {
	return "billing"
}

// Service exposes the billing service for cross-module wiring. The calls
// module consumes it as its CreditConsumer.
func (m *Module) Service() *Service {
	return m.service
}

// RegisterRoutes mounts billing routes on the provided router context.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	billingGroup := ctx.Protected.Group("/billing")
	billingGroup.POST("/checkout", m.handler.HandleCheckout)
	billingGroup.GET("/transactions", m.handler.HandleListTransactions)

	ctx.Admin.POST("/organizations/:orgId/credits", m.handler.HandleGrantCredits)

	// Stripe event delivery (public, signature-verified, rate limited)
	stripeWebhook := ctx.V1.Group("/webhook")
	stripeWebhook.Use(ctx.WebhookRateLimiter.RateLimit())
	stripeWebhook.POST("/stripe", m.handler.HandleStripeWebhook)
}

// Compile-time check that Module implements http.Module
var _ apphttp.Module = (*Module)(nil)

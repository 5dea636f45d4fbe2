package campaigns

import (
	"fusioncaller_backend/internal/events"
	apphttp "fusioncaller_backend/internal/http"
	"fusioncaller_backend/platform/logger"
	"fusioncaller_backend/platform/validator"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Module is the campaigns bounded context module implementing http.Module.
type Module struct {
	handler *Handler
	service *Service
}

// NewModule creates and initializes the campaigns module. The queue may be
// nil when redis is not configured; starting a campaign then fails with a
// downstream error while the rest of the API keeps working.
func NewModule(pool *pgxpool.Pool, leads LeadSource, queue Enqueuer, caller CampaignCaller, eventBus events.Bus, val *validator.Validator, log *logger.Logger) *Module {
	repo := NewRepository(pool)
	service := NewService(repo, leads, queue, caller, eventBus, log)
	return &Module{
		handler: NewHandler(service, val),
		service: service,
	}
}

// Name returns the module identifier.
func (m *Module) Name() string {
	return "campaigns"
}

// Service exposes the campaigns service. The queue worker consumes it as
// its CampaignProcessor.
func (m *Module) Service() *Service {
	return m.service
}

// RegisterRoutes mounts campaign routes on the provided router context.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	campaignGroup := ctx.Protected.Group("/campaigns")
	campaignGroup.POST("", m.handler.HandleCreate)
	campaignGroup.GET("", m.handler.HandleList)
	campaignGroup.GET("/:campaignId", m.handler.HandleGet)
	campaignGroup.POST("/:campaignId/start", m.handler.HandleStart)
	campaignGroup.POST("/:campaignId/cancel", m.handler.HandleCancel)
}

// Compile-time check that Module implements http.Module
var _ apphttp.Module = (*Module)(nil)

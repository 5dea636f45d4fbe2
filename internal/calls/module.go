// Package calls provides the outbound-call bounded context module.
package calls

import (
	"fusioncaller_backend/internal/events"
	apphttp "fusioncaller_backend/internal/http"
	"fusioncaller_backend/platform/config"
	"fusioncaller_backend/platform/logger"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Module is the calls bounded context module implementing http.Module.
type Module struct {
	handler   *Handler
	service   *Service
	initiator *Initiator
}

// NewModule creates and initializes the calls module. Collaborators that
// cross bounded contexts (settings, credits, recordings, lead access) are
// injected as interfaces from the composition root.
func NewModule(
	pool *pgxpool.Pool,
	cfg config.DialerConfig,
	settings SettingsReader,
	credits CreditConsumer,
	recordings RecordingStore,
	leadStatus LeadStatusWriter,
	leadReader LeadReader,
	eventBus events.Bus,
	log *logger.Logger,
) *Module {
	repo := NewRepository(pool)
	dialer := NewHTTPDialer(cfg)

	var d Dialer
	if dialer != nil {
		d = dialer
	}
	initiator := NewInitiator(d, repo, settings, credits, eventBus, log)
	service := NewService(repo, recordings, leadStatus, eventBus, log)
	handler := NewHandler(service, initiator, leadReader, cfg.GetVoiceWebhookSecret())

	return &Module{handler: handler, service: service, initiator: initiator}
}

// Name returns the module identifier.
func (m *Module) Name() string {
	return "calls"
}

// Initiator exposes the call initiator for cross-module wiring (intake,
// campaign worker).
func (m *Module) Initiator() *Initiator {
	return m.initiator
}

// RegisterRoutes mounts call routes on the provided router context.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	callGroup := ctx.Protected.Group("/calls")
	callGroup.GET("", m.handler.HandleListRecent)
	callGroup.GET("/:callId", m.handler.HandleGet)

	ctx.Protected.POST("/leads/:leadId/call", m.handler.HandleInitiate)
	ctx.Protected.GET("/leads/:leadId/calls", m.handler.HandleListByLead)

	// Provider status callback (public, secret-gated, rate limited)
	voiceWebhook := ctx.V1.Group("/webhook")
	voiceWebhook.Use(ctx.WebhookRateLimiter.RateLimit())
	voiceWebhook.POST("/voice", m.handler.HandleProviderWebhook)
}

// Compile-time check that Module implements http.Module
var _ apphttp.Module = (*Module)(nil)

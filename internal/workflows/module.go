package workflows

import (
	apphttp "fusioncaller_backend/internal/http"
	"fusioncaller_backend/platform/logger"
	"fusioncaller_backend/platform/validator"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Module is the workflows bounded context module implementing http.Module.
type Module struct {
	handler *Handler
	engine  *Engine
}

// NewModule creates and initializes the workflows module. The notification
// sender and tag writer cross bounded contexts and are injected from the
// composition root; sender may be nil when email is not configured.
func NewModule(pool *pgxpool.Pool, sender NotificationSender, tags TagWriter, val *validator.Validator, log *logger.Logger) *Module {
	repo := NewRepository(pool)

	executors := map[string]ActionExecutor{
		ActionUpdateTags: NewTagAction(tags),
		ActionWebhook:    NewWebhookAction(),
	}
	if sender != nil {
		executors[ActionSendNotification] = NewNotificationAction(sender)
	}

	engine := NewEngine(repo, executors, log)
	handler := NewHandler(repo, val)

	return &Module{handler: handler, engine: engine}
}

// Name returns the module identifier.
func (m *Module) Name() string {
	return "workflows"
}

// Engine exposes the workflow engine for cross-module wiring.
func (m *Module) Engine() *Engine {
	return m.engine
}

// RegisterRoutes mounts workflow rule management routes.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	adminGroup := ctx.Admin.Group("/workflows")
	adminGroup.POST("", m.handler.HandleCreate)
	adminGroup.GET("", m.handler.HandleList)
	adminGroup.PUT("/:ruleId", m.handler.HandleUpdate)
	adminGroup.DELETE("/:ruleId", m.handler.HandleDelete)
}

// Compile-time check that Module implements http.Module
var _ apphttp.Module = (*Module)(nil)

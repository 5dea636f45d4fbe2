// The dialer worker consumes campaign dial jobs from the queue and places
// outbound calls. Run one or more instances alongside the API.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"fusioncaller_backend/internal/adapters"
	"fusioncaller_backend/internal/billing"
	"fusioncaller_backend/internal/calls"
	"fusioncaller_backend/internal/campaigns"
	"fusioncaller_backend/internal/events"
	"fusioncaller_backend/internal/leads"
	"fusioncaller_backend/internal/organizations"
	"fusioncaller_backend/internal/scheduler"
	"fusioncaller_backend/platform/config"
	"fusioncaller_backend/platform/db"
	"fusioncaller_backend/platform/logger"
	"fusioncaller_backend/platform/validator"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	log := logger.New(cfg.Env)
	log.Info("starting dialer worker", "env", cfg.Env)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	pool, err := db.NewPool(ctx, cfg)
	if err != nil {
		log.Error("failed to connect to database", "error", err)
		panic("failed to connect to database: " + err.Error())
	}
	defer pool.Close()

	eventBus := events.NewInMemoryBus(log)
	val := validator.New()

	orgsModule := organizations.NewModule(pool, val, log)
	leadsModule := leads.NewModule(pool, eventBus, val, log)

	orgSettings := adapters.NewOrgSettingsAdapter(orgsModule.Service())
	leadAccess := adapters.NewLeadAccessAdapter(leadsModule.Service())

	billingModule := billing.NewModule(pool, cfg, adapters.NewBillingProfileAdapter(orgsModule.Repository()), eventBus, val, log)
	callsModule := calls.NewModule(pool, cfg, orgSettings, billingModule.Service(), nil, leadAccess, leadAccess, eventBus, log)
	callStarter := adapters.NewCallStarterAdapter(callsModule.Initiator())

	// The worker never starts campaigns, so it needs no queue client.
	campaignsModule := campaigns.NewModule(pool, leadAccess, nil, callStarter, eventBus, val, log)

	worker, err := scheduler.NewWorker(cfg, campaignsModule.Service(), log)
	if err != nil {
		log.Error("failed to initialize queue worker", "error", err)
		panic("failed to initialize queue worker: " + err.Error())
	}

	log.Info("dialer worker listening", "queue", cfg.GetAsynqQueueName())
	worker.Run(ctx)
	log.Info("dialer worker stopped")
}

package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"fusioncaller_backend/internal/adapters"
	"fusioncaller_backend/internal/billing"
	"fusioncaller_backend/internal/calls"
	"fusioncaller_backend/internal/campaigns"
	"fusioncaller_backend/internal/detection"
	"fusioncaller_backend/internal/email"
	"fusioncaller_backend/internal/events"
	apphttp "fusioncaller_backend/internal/http"
	"fusioncaller_backend/internal/http/router"
	"fusioncaller_backend/internal/intake"
	"fusioncaller_backend/internal/leads"
	"fusioncaller_backend/internal/organizations"
	"fusioncaller_backend/internal/scheduler"
	"fusioncaller_backend/internal/storage"
	"fusioncaller_backend/internal/workflows"
	"fusioncaller_backend/platform/config"
	"fusioncaller_backend/platform/db"
	"fusioncaller_backend/platform/logger"
	"fusioncaller_backend/platform/validator"

	"github.com/jackc/pgx/v5/pgxpool"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	// Initialize structured logger
	log := logger.New(cfg.Env)
	log.Info("starting server", "env", cfg.Env, "addr", cfg.HTTPAddr)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// ========================================================================
	// Infrastructure Layer
	// ========================================================================

	var pool *pgxpool.Pool
	if err := withRetry(ctx, log, "database connection", 5, 2*time.Second, func() error {
		p, err := db.NewPool(ctx, cfg)
		if err != nil {
			return err
		}
		pool = p
		return nil
	}); err != nil {
		log.Error("failed to connect to database", "error", err)
		panic("failed to connect to database: " + err.Error())
	}
	defer pool.Close()
	log.Info("database connection established")

	if err := withRetry(ctx, log, "database migrations", 5, 2*time.Second, func() error {
		return db.RunMigrations(ctx, pool, "migrations")
	}); err != nil {
		log.Error("failed to run database migrations", "error", err)
		panic("failed to run database migrations: " + err.Error())
	}
	log.Info("database migrations complete")

	// Event bus for decoupled communication between modules
	eventBus := events.NewInMemoryBus(log)

	// Shared validator instance for dependency injection
	val := validator.New()

	sender, err := email.NewSender(cfg)
	if err != nil {
		log.Error("failed to initialize email sender", "error", err)
		panic("failed to initialize email sender: " + err.Error())
	}

	// Recording storage (MinIO). Optional; calls proceed without recordings
	// when no endpoint is configured.
	var recordings calls.RecordingStore
	if cfg.IsMinIOEnabled() {
		storageSvc, err := storage.NewMinIOService(cfg)
		if err != nil {
			log.Error("failed to initialize storage service", "error", err)
			panic("failed to initialize storage service: " + err.Error())
		}
		if err := withRetry(ctx, log, "ensure recordings bucket", 5, 2*time.Second, func() error {
			return storageSvc.EnsureBucketExists(ctx)
		}); err != nil {
			log.Error("failed to ensure recordings bucket", "error", err)
			panic("failed to ensure recordings bucket: " + err.Error())
		}
		recordings = storageSvc
		log.Info("storage service initialized", "bucket", cfg.GetMinioBucketCallRecordings())
	} else {
		log.Warn("MINIO_ENDPOINT not configured; call recordings disabled")
	}

	// Campaign dial queue (redis + asynq). Optional; campaigns cannot start
	// without it but the rest of the API keeps working.
	var enqueuer campaigns.Enqueuer
	if cfg.GetRedisURL() != "" {
		queueClient, err := scheduler.NewClient(cfg)
		if err != nil {
			log.Error("failed to initialize campaign queue client", "error", err)
			panic("failed to initialize campaign queue client: " + err.Error())
		}
		defer queueClient.Close()
		enqueuer = queueClient
	} else {
		log.Warn("REDIS_URL not configured; campaign dialing disabled")
	}

	// Service detection model tier. Optional; detection falls back to the
	// keyword table when no API key is configured.
	var classifier detection.Classifier
	if c := detection.NewOpenAIClassifier(cfg); c != nil {
		classifier = c
	}
	detector := detection.NewDetector(classifier, nil, log)

	// ========================================================================
	// Domain Modules (Composition Root)
	// ========================================================================

	orgsModule := organizations.NewModule(pool, val, log)
	leadsModule := leads.NewModule(pool, eventBus, val, log)

	orgSettings := adapters.NewOrgSettingsAdapter(orgsModule.Service())
	leadAccess := adapters.NewLeadAccessAdapter(leadsModule.Service())

	billingModule := billing.NewModule(pool, cfg, adapters.NewBillingProfileAdapter(orgsModule.Repository()), eventBus, val, log)

	callsModule := calls.NewModule(pool, cfg, orgSettings, billingModule.Service(), recordings, leadAccess, leadAccess, eventBus, log)
	callStarter := adapters.NewCallStarterAdapter(callsModule.Initiator())

	intakeModule := intake.NewModule(orgSettings, detector, leadsModule.Service(), callStarter, eventBus, log)

	workflowsModule := workflows.NewModule(pool, sender, leadAccess, val, log)
	workflowsModule.RegisterHandlers(eventBus)

	campaignsModule := campaigns.NewModule(pool, leadAccess, enqueuer, callStarter, eventBus, val, log)

	// ========================================================================
	// HTTP Layer
	// ========================================================================

	app := &apphttp.App{
		Config:   cfg,
		Logger:   log,
		Health:   db.NewPoolAdapter(pool),
		EventBus: eventBus,
		Modules: []apphttp.Module{
			orgsModule,
			leadsModule,
			callsModule,
			intakeModule,
			workflowsModule,
			billingModule,
			campaignsModule,
		},
	}

	engine := router.New(app)

	srv := &http.Server{
		Addr:    cfg.HTTPAddr,
		Handler: engine,
	}

	srvErr := make(chan error, 1)
	go func() {
		log.Info("server listening", "addr", cfg.HTTPAddr)
		srvErr <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		log.Info("shutdown signal received, gracefully shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Error("server shutdown failed", "error", err)
		}
	case err := <-srvErr:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("server error", "error", err)
			panic("server error: " + err.Error())
		}
	}
}

func withRetry(ctx context.Context, log *logger.Logger, name string, attempts int, baseDelay time.Duration, fn func() error) error {
	if attempts < 1 {
		return fmt.Errorf("%s: invalid retry attempts", name)
	}

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if err := fn(); err == nil {
			return nil
		} else {
			lastErr = err
			log.Warn("retryable operation failed", "operation", name, "attempt", attempt, "error", err)
		}

		if attempt < attempts {
			delay := time.Duration(attempt*attempt) * baseDelay
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(delay):
			}
		}
	}

	return errors.New(name + ": " + lastErr.Error())
}

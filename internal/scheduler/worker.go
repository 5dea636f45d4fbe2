package scheduler

import (
	"context"
	"fmt"

	"fusioncaller_backend/platform/config"
	"fusioncaller_backend/platform/logger"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"
)

// CampaignProcessor executes one queued campaign dial. Implemented by the
// campaigns service.
type CampaignProcessor interface {
	DialCampaignLead(ctx context.Context, campaignID, orgID, leadID uuid.UUID) error
}

type Worker struct {
	server    *asynq.Server
	mux       *asynq.ServeMux
	processor CampaignProcessor
	log       *logger.Logger
}

func NewWorker(cfg config.SchedulerConfig, processor CampaignProcessor, log *logger.Logger) (*Worker, error) {
	redisURL := cfg.GetRedisURL()
	if redisURL == "" {
		return nil, fmt.Errorf("redis url not configured")
	}

	opt, err := redisClientOpt(redisURL, cfg.GetRedisTLSInsecure())
	if err != nil {
		return nil, err
	}

	queue := cfg.GetAsynqQueueName()
	if queue == "" {
		queue = "default"
	}

	concurrency := cfg.GetAsynqConcurrency()
	if concurrency < 1 {
		concurrency = 10
	}

	server := asynq.NewServer(opt, asynq.Config{
		Concurrency: concurrency,
		Queues: map[string]int{
			queue: 1,
		},
	})

	mux := asynq.NewServeMux()
	w := &Worker{
		server:    server,
		mux:       mux,
		processor: processor,
		log:       log,
	}

	mux.HandleFunc(TaskCampaignDial, w.handleCampaignDial)

	return w, nil
}

func (w *Worker) handleCampaignDial(ctx context.Context, task *asynq.Task) error {
	payload, err := ParseCampaignDialPayload(task)
	if err != nil {
		return err
	}

	campaignID, err := uuid.Parse(payload.CampaignID)
	if err != nil {
		return err
	}
	orgID, err := uuid.Parse(payload.OrganizationID)
	if err != nil {
		return err
	}
	leadID, err := uuid.Parse(payload.LeadID)
	if err != nil {
		return err
	}

	return w.processor.DialCampaignLead(ctx, campaignID, orgID, leadID)
}

func (w *Worker) Run(ctx context.Context) {
	if w == nil || w.server == nil {
		return
	}

	go func() {
		<-ctx.Done()
		w.server.Shutdown()
	}()

	if err := w.server.Run(w.mux); err != nil {
		w.log.Error("campaign worker stopped", "error", err)
	}
}

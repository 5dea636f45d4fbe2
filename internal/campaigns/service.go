package campaigns

import (
	"context"
	"time"

	"fusioncaller_backend/internal/events"
	"fusioncaller_backend/platform/apperr"
	"fusioncaller_backend/platform/logger"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

// Spacing between queued dials so a campaign start does not burst the
// voice provider, and the parallelism cap on queue pushes.
const (
	dialStagger      = 3 * time.Second
	enqueueParallel  = 8
	maxCampaignLeads = 1000
)

// DialTarget is the slice of a lead a campaign dial needs.
type DialTarget struct {
	LeadID      uuid.UUID
	Phone       string
	Name        string
	ServiceType string
}

// LeadSource resolves lead IDs to dialable targets, dropping leads that do
// not belong to the organization.
type LeadSource interface {
	DialTargets(ctx context.Context, orgID uuid.UUID, ids []uuid.UUID) ([]DialTarget, error)
}

// Enqueuer pushes campaign dials onto the job queue. Satisfied by the
// scheduler client.
type Enqueuer interface {
	EnqueueCampaignDial(ctx context.Context, campaignID, orgID, leadID uuid.UUID, delay time.Duration) error
}

// CampaignCaller places one outbound call. Placed is false when the call
// could not be started; reason says why.
type CampaignCaller interface {
	StartCampaignCall(ctx context.Context, orgID, leadID uuid.UUID, phone, name, serviceType string) (placed bool, reason string)
}

// Store is the campaign persistence the service drives. Satisfied by
// *Repository.
type Store interface {
	Create(ctx context.Context, orgID uuid.UUID, name string, leadIDs []uuid.UUID) (Campaign, error)
	GetByID(ctx context.Context, id, orgID uuid.UUID) (Campaign, error)
	ListByOrganization(ctx context.Context, orgID uuid.UUID) ([]Campaign, error)
	Start(ctx context.Context, id, orgID uuid.UUID) (Campaign, error)
	Cancel(ctx context.Context, id, orgID uuid.UUID) (Campaign, error)
	QueuedLeadIDs(ctx context.Context, campaignID uuid.UUID) ([]uuid.UUID, error)
	MarkLeadProcessed(ctx context.Context, campaignID, leadID uuid.UUID, placed bool) (Progress, error)
	MarkCompleted(ctx context.Context, campaignID uuid.UUID) error
}

// Service implements campaign business logic.
type Service struct {
	store    Store
	leads    LeadSource
	queue    Enqueuer
	caller   CampaignCaller
	eventBus events.Bus
	log      *logger.Logger
}

// NewService creates a new campaigns service.
func NewService(store Store, leads LeadSource, queue Enqueuer, caller CampaignCaller, eventBus events.Bus, log *logger.Logger) *Service {
	return &Service{
		store:    store,
		leads:    leads,
		queue:    queue,
		caller:   caller,
		eventBus: eventBus,
		log:      log,
	}
}

// Create snapshots the given leads into a draft campaign. Lead IDs that do
// not resolve within the organization are dropped from the snapshot.
func (s *Service) Create(ctx context.Context, orgID uuid.UUID, name string, leadIDs []uuid.UUID) (Campaign, error) {
	if name == "" {
		return Campaign{}, apperr.Validation("campaign name is required")
	}
	if len(leadIDs) == 0 {
		return Campaign{}, apperr.Validation("campaign needs at least one lead")
	}
	if len(leadIDs) > maxCampaignLeads {
		return Campaign{}, apperr.Validation("campaign exceeds the lead limit")
	}

	targets, err := s.leads.DialTargets(ctx, orgID, dedupe(leadIDs))
	if err != nil {
		return Campaign{}, err
	}
	if len(targets) == 0 {
		return Campaign{}, apperr.Validation("none of the leads belong to this organization")
	}

	ids := make([]uuid.UUID, 0, len(targets))
	for _, t := range targets {
		ids = append(ids, t.LeadID)
	}
	return s.store.Create(ctx, orgID, name, ids)
}

// Get retrieves a campaign.
func (s *Service) Get(ctx context.Context, id, orgID uuid.UUID) (Campaign, error) {
	return s.store.GetByID(ctx, id, orgID)
}

// List returns the organization's campaigns.
func (s *Service) List(ctx context.Context, orgID uuid.UUID) ([]Campaign, error) {
	return s.store.ListByOrganization(ctx, orgID)
}

// Start transitions the campaign to running and queues one staggered dial
// job per lead.
func (s *Service) Start(ctx context.Context, id, orgID uuid.UUID) (Campaign, error) {
	if s.queue == nil {
		return Campaign{}, apperr.New(apperr.KindDownstream, "campaign queue is not configured")
	}

	campaign, err := s.store.Start(ctx, id, orgID)
	if err != nil {
		return Campaign{}, err
	}

	queued, err := s.store.QueuedLeadIDs(ctx, campaign.ID)
	if err != nil {
		return Campaign{}, err
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(enqueueParallel)
	for i, leadID := range queued {
		delay := time.Duration(i) * dialStagger
		g.Go(func() error {
			return s.queue.EnqueueCampaignDial(gctx, campaign.ID, orgID, leadID, delay)
		})
	}
	if err := g.Wait(); err != nil {
		// The campaign stays running; whatever was queued will be dialed.
		s.log.Error("campaign enqueue incomplete",
			"campaignId", campaign.ID.String(),
			"error", err,
		)
		return Campaign{}, apperr.Downstream("failed to queue campaign dials", err)
	}

	s.eventBus.Publish(ctx, events.CampaignStarted{
		BaseEvent:      events.NewBaseEvent(),
		CampaignID:     campaign.ID,
		OrganizationID: orgID,
		LeadCount:      len(queued),
	})
	return campaign, nil
}

// Cancel stops a campaign. Queued dials left on the queue are skipped when
// the worker sees the cancelled status.
func (s *Service) Cancel(ctx context.Context, id, orgID uuid.UUID) (Campaign, error) {
	return s.store.Cancel(ctx, id, orgID)
}

// DialCampaignLead processes one queued dial. Called by the queue worker;
// errors returned here make asynq redeliver, so permanent conditions are
// swallowed after being recorded.
func (s *Service) DialCampaignLead(ctx context.Context, campaignID, orgID, leadID uuid.UUID) error {
	campaign, err := s.store.GetByID(ctx, campaignID, orgID)
	if err != nil {
		if apperr.Is(err, apperr.KindNotFound) {
			return nil
		}
		return err
	}
	if campaign.Status != StatusRunning {
		return nil
	}

	targets, err := s.leads.DialTargets(ctx, orgID, []uuid.UUID{leadID})
	if err != nil {
		return err
	}

	placed := false
	if len(targets) == 1 && targets[0].Phone != "" {
		t := targets[0]
		var reason string
		placed, reason = s.caller.StartCampaignCall(ctx, orgID, leadID, t.Phone, t.Name, t.ServiceType)
		if !placed {
			s.log.Warn("campaign dial not placed",
				"campaignId", campaignID.String(),
				"leadId", leadID.String(),
				"reason", reason,
			)
		}
	}

	progress, err := s.store.MarkLeadProcessed(ctx, campaignID, leadID, placed)
	if err != nil {
		return err
	}
	if progress.Done() {
		if err := s.store.MarkCompleted(ctx, campaignID); err != nil {
			return err
		}
		s.eventBus.Publish(ctx, events.CampaignCompleted{
			BaseEvent:      events.NewBaseEvent(),
			CampaignID:     campaignID,
			OrganizationID: orgID,
			Dialed:         progress.Dialed,
			Failed:         progress.Failed,
		})
	}
	return nil
}

func dedupe(ids []uuid.UUID) []uuid.UUID {
	seen := make(map[uuid.UUID]struct{}, len(ids))
	out := make([]uuid.UUID, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}

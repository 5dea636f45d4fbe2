package campaigns

import (
	"context"
	"testing"
	"time"

	"fusioncaller_backend/internal/events"
	"fusioncaller_backend/platform/apperr"
	"fusioncaller_backend/platform/logger"

	"github.com/google/uuid"
)

type fakeStore struct {
	campaign  Campaign
	getErr    error
	queued    []uuid.UUID
	processed []struct {
		leadID uuid.UUID
		placed bool
	}
	progress  Progress
	completed int
}

func (f *fakeStore) Create(ctx context.Context, orgID uuid.UUID, name string, leadIDs []uuid.UUID) (Campaign, error) {
	return Campaign{ID: uuid.New(), OrganizationID: orgID, Name: name, Status: StatusDraft, TotalLeads: len(leadIDs)}, nil
}

func (f *fakeStore) GetByID(ctx context.Context, id, orgID uuid.UUID) (Campaign, error) {
	if f.getErr != nil {
		return Campaign{}, f.getErr
	}
	return f.campaign, nil
}

func (f *fakeStore) ListByOrganization(ctx context.Context, orgID uuid.UUID) ([]Campaign, error) {
	return []Campaign{f.campaign}, nil
}

func (f *fakeStore) Start(ctx context.Context, id, orgID uuid.UUID) (Campaign, error) {
	f.campaign.Status = StatusRunning
	return f.campaign, nil
}

func (f *fakeStore) Cancel(ctx context.Context, id, orgID uuid.UUID) (Campaign, error) {
	f.campaign.Status = StatusCancelled
	return f.campaign, nil
}

func (f *fakeStore) QueuedLeadIDs(ctx context.Context, campaignID uuid.UUID) ([]uuid.UUID, error) {
	return f.queued, nil
}

func (f *fakeStore) MarkLeadProcessed(ctx context.Context, campaignID, leadID uuid.UUID, placed bool) (Progress, error) {
	f.processed = append(f.processed, struct {
		leadID uuid.UUID
		placed bool
	}{leadID, placed})
	return f.progress, nil
}

func (f *fakeStore) MarkCompleted(ctx context.Context, campaignID uuid.UUID) error {
	f.completed++
	return nil
}

type fakeLeadSource struct {
	targets []DialTarget
}

func (f *fakeLeadSource) DialTargets(ctx context.Context, orgID uuid.UUID, ids []uuid.UUID) ([]DialTarget, error) {
	return f.targets, nil
}

type fakeEnqueuer struct {
	enqueued []time.Duration
	err      error
}

func (f *fakeEnqueuer) EnqueueCampaignDial(ctx context.Context, campaignID, orgID, leadID uuid.UUID, delay time.Duration) error {
	if f.err != nil {
		return f.err
	}
	f.enqueued = append(f.enqueued, delay)
	return nil
}

type fakeCaller struct {
	placed bool
	reason string
	calls  int
}

func (f *fakeCaller) StartCampaignCall(ctx context.Context, orgID, leadID uuid.UUID, phone, name, serviceType string) (bool, string) {
	f.calls++
	return f.placed, f.reason
}

type recordingBus struct {
	published []events.Event
}

func (b *recordingBus) Publish(ctx context.Context, event events.Event) {
	b.published = append(b.published, event)
}

func (b *recordingBus) PublishSync(ctx context.Context, event events.Event) error {
	b.published = append(b.published, event)
	return nil
}

func (b *recordingBus) Subscribe(eventName string, handler events.Handler) {}

func TestCreateRejectsEmptyLeadSet(t *testing.T) {
	service := NewService(&fakeStore{}, &fakeLeadSource{}, &fakeEnqueuer{}, &fakeCaller{}, &recordingBus{}, logger.New("test"))

	_, err := service.Create(context.Background(), uuid.New(), "spring push", nil)
	if !apperr.Is(err, apperr.KindValidation) {
		t.Errorf("expected validation error, got %v", err)
	}
}

func TestCreateDropsForeignLeads(t *testing.T) {
	store := &fakeStore{}
	known := uuid.New()
	source := &fakeLeadSource{targets: []DialTarget{{LeadID: known, Phone: "+15551230001"}}}
	service := NewService(store, source, &fakeEnqueuer{}, &fakeCaller{}, &recordingBus{}, logger.New("test"))

	campaign, err := service.Create(context.Background(), uuid.New(), "spring push", []uuid.UUID{known, uuid.New()})
	if err != nil {
		t.Fatalf("Create returned error: %v", err)
	}
	if campaign.TotalLeads != 1 {
		t.Errorf("TotalLeads = %d, want 1 (foreign lead dropped)", campaign.TotalLeads)
	}
}

func TestStartEnqueuesStaggeredDials(t *testing.T) {
	store := &fakeStore{
		campaign: Campaign{ID: uuid.New(), Status: StatusDraft},
		queued:   []uuid.UUID{uuid.New(), uuid.New(), uuid.New()},
	}
	queue := &fakeEnqueuer{}
	bus := &recordingBus{}
	service := NewService(store, &fakeLeadSource{}, queue, &fakeCaller{}, bus, logger.New("test"))

	_, err := service.Start(context.Background(), store.campaign.ID, uuid.New())
	if err != nil {
		t.Fatalf("Start returned error: %v", err)
	}
	if len(queue.enqueued) != 3 {
		t.Fatalf("enqueued %d dials, want 3", len(queue.enqueued))
	}

	if len(bus.published) != 1 {
		t.Fatalf("expected 1 published event, got %d", len(bus.published))
	}
	started, ok := bus.published[0].(events.CampaignStarted)
	if !ok {
		t.Fatalf("expected CampaignStarted, got %T", bus.published[0])
	}
	if started.LeadCount != 3 {
		t.Errorf("LeadCount = %d, want 3", started.LeadCount)
	}
}

func TestStartWithoutQueueFails(t *testing.T) {
	service := NewService(&fakeStore{}, &fakeLeadSource{}, nil, &fakeCaller{}, &recordingBus{}, logger.New("test"))

	_, err := service.Start(context.Background(), uuid.New(), uuid.New())
	if !apperr.Is(err, apperr.KindDownstream) {
		t.Errorf("expected downstream error, got %v", err)
	}
}

func TestDialSkipsNonRunningCampaign(t *testing.T) {
	store := &fakeStore{campaign: Campaign{Status: StatusCancelled}}
	caller := &fakeCaller{}
	service := NewService(store, &fakeLeadSource{}, &fakeEnqueuer{}, caller, &recordingBus{}, logger.New("test"))

	if err := service.DialCampaignLead(context.Background(), uuid.New(), uuid.New(), uuid.New()); err != nil {
		t.Fatalf("DialCampaignLead returned error: %v", err)
	}
	if caller.calls != 0 {
		t.Errorf("caller must not run for a cancelled campaign, calls = %d", caller.calls)
	}
	if len(store.processed) != 0 {
		t.Errorf("no lead should be marked processed, got %d", len(store.processed))
	}
}

func TestDialSwallowsDeletedCampaign(t *testing.T) {
	store := &fakeStore{getErr: apperr.NotFound("campaign not found")}
	service := NewService(store, &fakeLeadSource{}, &fakeEnqueuer{}, &fakeCaller{}, &recordingBus{}, logger.New("test"))

	if err := service.DialCampaignLead(context.Background(), uuid.New(), uuid.New(), uuid.New()); err != nil {
		t.Errorf("deleted campaign must not trigger a redelivery, got %v", err)
	}
}

func TestDialMarksFailureWhenCallNotPlaced(t *testing.T) {
	leadID := uuid.New()
	store := &fakeStore{
		campaign: Campaign{Status: StatusRunning},
		progress: Progress{Processed: 1, Total: 3, Dialed: 0, Failed: 1},
	}
	source := &fakeLeadSource{targets: []DialTarget{{LeadID: leadID, Phone: "+15551230001"}}}
	caller := &fakeCaller{placed: false, reason: "no call credits remaining"}
	service := NewService(store, source, &fakeEnqueuer{}, caller, &recordingBus{}, logger.New("test"))

	if err := service.DialCampaignLead(context.Background(), uuid.New(), uuid.New(), leadID); err != nil {
		t.Fatalf("DialCampaignLead returned error: %v", err)
	}
	if len(store.processed) != 1 || store.processed[0].placed {
		t.Errorf("lead should be marked failed, processed = %+v", store.processed)
	}
	if store.completed != 0 {
		t.Error("campaign must not complete before the last lead")
	}
}

func TestDialCompletesCampaignOnLastLead(t *testing.T) {
	leadID := uuid.New()
	store := &fakeStore{
		campaign: Campaign{Status: StatusRunning},
		progress: Progress{Processed: 3, Total: 3, Dialed: 2, Failed: 1},
	}
	source := &fakeLeadSource{targets: []DialTarget{{LeadID: leadID, Phone: "+15551230001"}}}
	bus := &recordingBus{}
	service := NewService(store, source, &fakeEnqueuer{}, &fakeCaller{placed: true}, bus, logger.New("test"))

	if err := service.DialCampaignLead(context.Background(), uuid.New(), uuid.New(), leadID); err != nil {
		t.Fatalf("DialCampaignLead returned error: %v", err)
	}
	if store.completed != 1 {
		t.Fatalf("MarkCompleted calls = %d, want 1", store.completed)
	}

	if len(bus.published) != 1 {
		t.Fatalf("expected 1 published event, got %d", len(bus.published))
	}
	completed, ok := bus.published[0].(events.CampaignCompleted)
	if !ok {
		t.Fatalf("expected CampaignCompleted, got %T", bus.published[0])
	}
	if completed.Dialed != 2 || completed.Failed != 1 {
		t.Errorf("completion tally = %d/%d, want 2/1", completed.Dialed, completed.Failed)
	}
}

func TestDialMarksLeadWithoutPhoneFailed(t *testing.T) {
	leadID := uuid.New()
	store := &fakeStore{
		campaign: Campaign{Status: StatusRunning},
		progress: Progress{Processed: 1, Total: 2},
	}
	source := &fakeLeadSource{targets: []DialTarget{{LeadID: leadID, Phone: ""}}}
	caller := &fakeCaller{}
	service := NewService(store, source, &fakeEnqueuer{}, caller, &recordingBus{}, logger.New("test"))

	if err := service.DialCampaignLead(context.Background(), uuid.New(), uuid.New(), leadID); err != nil {
		t.Fatalf("DialCampaignLead returned error: %v", err)
	}
	if caller.calls != 0 {
		t.Error("caller must not run for a lead without a phone")
	}
	if len(store.processed) != 1 || store.processed[0].placed {
		t.Errorf("lead should be marked failed, processed = %+v", store.processed)
	}
}

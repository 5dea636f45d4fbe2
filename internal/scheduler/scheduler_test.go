package scheduler

import (
	"context"
	"strings"
	"testing"
	"time"

	"fusioncaller_backend/platform/logger"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/hibiken/asynq"
)

type testSchedulerConfig struct {
	redisURL string
}

func (c testSchedulerConfig) GetRedisURL() string      { return c.redisURL }
func (c testSchedulerConfig) GetRedisTLSInsecure() bool { return false }
func (c testSchedulerConfig) GetAsynqQueueName() string { return "campaigns" }
func (c testSchedulerConfig) GetAsynqConcurrency() int  { return 2 }

func TestCampaignDialPayloadRoundTrip(t *testing.T) {
	payload := CampaignDialPayload{
		CampaignID:     uuid.New().String(),
		OrganizationID: uuid.New().String(),
		LeadID:         uuid.New().String(),
	}

	task, err := NewCampaignDialTask(payload)
	if err != nil {
		t.Fatalf("NewCampaignDialTask returned error: %v", err)
	}
	if task.Type() != TaskCampaignDial {
		t.Errorf("task type = %q, want %q", task.Type(), TaskCampaignDial)
	}

	parsed, err := ParseCampaignDialPayload(task)
	if err != nil {
		t.Fatalf("ParseCampaignDialPayload returned error: %v", err)
	}
	if parsed != payload {
		t.Errorf("parsed payload = %+v, want %+v", parsed, payload)
	}
}

func TestClientEnqueuesCampaignDial(t *testing.T) {
	mr := miniredis.RunT(t)

	client, err := NewClient(testSchedulerConfig{redisURL: "redis://" + mr.Addr()})
	if err != nil {
		t.Fatalf("NewClient returned error: %v", err)
	}
	defer client.Close()

	err = client.EnqueueCampaignDial(context.Background(), uuid.New(), uuid.New(), uuid.New(), 0)
	if err != nil {
		t.Fatalf("EnqueueCampaignDial returned error: %v", err)
	}

	var found bool
	for _, key := range mr.Keys() {
		if strings.Contains(key, "campaigns") {
			found = true
			break
		}
	}
	if !found {
		t.Errorf("expected a task on the campaigns queue, keys = %v", mr.Keys())
	}
}

func TestClientRequiresRedisURL(t *testing.T) {
	if _, err := NewClient(testSchedulerConfig{redisURL: ""}); err == nil {
		t.Error("expected error when redis url missing")
	}
}

func TestClientStaggersDials(t *testing.T) {
	mr := miniredis.RunT(t)

	client, err := NewClient(testSchedulerConfig{redisURL: "redis://" + mr.Addr()})
	if err != nil {
		t.Fatalf("NewClient returned error: %v", err)
	}
	defer client.Close()

	err = client.EnqueueCampaignDial(context.Background(), uuid.New(), uuid.New(), uuid.New(), 5*time.Minute)
	if err != nil {
		t.Fatalf("EnqueueCampaignDial with delay returned error: %v", err)
	}
}

type stubProcessor struct {
	calls      int
	campaignID uuid.UUID
	orgID      uuid.UUID
	leadID     uuid.UUID
	err        error
}

func (s *stubProcessor) DialCampaignLead(ctx context.Context, campaignID, orgID, leadID uuid.UUID) error {
	s.calls++
	s.campaignID = campaignID
	s.orgID = orgID
	s.leadID = leadID
	return s.err
}

func TestHandleCampaignDialRoutesToProcessor(t *testing.T) {
	processor := &stubProcessor{}
	w := &Worker{processor: processor, log: logger.New("test")}

	campaignID, orgID, leadID := uuid.New(), uuid.New(), uuid.New()
	task, err := NewCampaignDialTask(CampaignDialPayload{
		CampaignID:     campaignID.String(),
		OrganizationID: orgID.String(),
		LeadID:         leadID.String(),
	})
	if err != nil {
		t.Fatalf("NewCampaignDialTask returned error: %v", err)
	}

	if err := w.handleCampaignDial(context.Background(), task); err != nil {
		t.Fatalf("handleCampaignDial returned error: %v", err)
	}
	if processor.calls != 1 {
		t.Fatalf("processor calls = %d, want 1", processor.calls)
	}
	if processor.campaignID != campaignID || processor.orgID != orgID || processor.leadID != leadID {
		t.Error("processor received wrong identifiers")
	}
}

func TestHandleCampaignDialRejectsBadPayload(t *testing.T) {
	processor := &stubProcessor{}
	w := &Worker{processor: processor, log: logger.New("test")}

	task := asynq.NewTask(TaskCampaignDial, []byte(`{"campaignId":"not-a-uuid"}`))
	if err := w.handleCampaignDial(context.Background(), task); err == nil {
		t.Error("expected error for malformed payload")
	}
	if processor.calls != 0 {
		t.Errorf("processor must not run on bad payload, calls = %d", processor.calls)
	}
}

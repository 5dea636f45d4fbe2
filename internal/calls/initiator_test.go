package calls

import (
	"context"
	"errors"
	"testing"

	"fusioncaller_backend/internal/events"
	"fusioncaller_backend/platform/logger"

	"github.com/google/uuid"
)

type fakeDialer struct {
	call  ProviderCall
	err   error
	calls int
}

func (f *fakeDialer) PlaceCall(ctx context.Context, req DialRequest) (ProviderCall, error) {
	f.calls++
	return f.call, f.err
}

type fakeAttemptWriter struct {
	created []Attempt
	err     error
}

func (f *fakeAttemptWriter) Create(ctx context.Context, a Attempt) (Attempt, error) {
	if f.err != nil {
		return Attempt{}, f.err
	}
	a.ID = uuid.New()
	f.created = append(f.created, a)
	return a, nil
}

type fakeSettings struct {
	settings OrgCallSettings
	err      error
}

func (f *fakeSettings) CallSettings(ctx context.Context, orgID uuid.UUID) (OrgCallSettings, error) {
	return f.settings, f.err
}

type fakeCredits struct {
	err   error
	calls int
}

func (f *fakeCredits) ConsumeCallCredit(ctx context.Context, orgID uuid.UUID) error {
	f.calls++
	return f.err
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

func testSettings() *fakeSettings {
	return &fakeSettings{settings: OrgCallSettings{OutboundPhoneNumber: "+15550000000"}}
}

func testParams() InitiateParams {
	return InitiateParams{
		OrganizationID: uuid.New(),
		LeadID:         uuid.New(),
		Phone:          "+15551234567",
		LeadName:       "Jane Doe",
		ServiceType:    "Driveway Cleaning",
		Trigger:        TriggerWebhookAuto,
	}
}

func TestInitiatePlacesCallAndRecordsAttempt(t *testing.T) {
	dialer := &fakeDialer{call: ProviderCall{ProviderCallID: "call_abc", Status: "queued"}}
	repo := &fakeAttemptWriter{}
	bus := &recordingBus{}
	initiator := NewInitiator(dialer, repo, testSettings(), nil, bus, logger.New("test"))

	result := initiator.Initiate(context.Background(), testParams())

	if !result.Placed {
		t.Fatalf("expected call to be placed, got failure: %s", result.FailureReason)
	}
	if result.ProviderCallID != "call_abc" {
		t.Errorf("unexpected provider call id %q", result.ProviderCallID)
	}
	if len(repo.created) != 1 || repo.created[0].Status != AttemptQueued {
		t.Errorf("expected one queued attempt, got %+v", repo.created)
	}
	if len(bus.published) != 1 {
		t.Fatalf("expected one event, got %d", len(bus.published))
	}
	if _, ok := bus.published[0].(events.CallInitiated); !ok {
		t.Errorf("expected CallInitiated event, got %T", bus.published[0])
	}
}

func TestInitiateDialerFailureReturnsResultNotError(t *testing.T) {
	dialer := &fakeDialer{err: errors.New("provider down")}
	repo := &fakeAttemptWriter{}
	bus := &recordingBus{}
	initiator := NewInitiator(dialer, repo, testSettings(), nil, bus, logger.New("test"))

	result := initiator.Initiate(context.Background(), testParams())

	if result.Placed {
		t.Fatal("expected failure result")
	}
	if result.FailureReason == "" {
		t.Error("expected failure reason to be populated")
	}
	if len(repo.created) != 1 || repo.created[0].Status != AttemptFailed {
		t.Errorf("expected one failed attempt, got %+v", repo.created)
	}
	if _, ok := bus.published[0].(events.CallFailed); !ok {
		t.Errorf("expected CallFailed event, got %T", bus.published[0])
	}
}

func TestInitiateNilDialerFailsCleanly(t *testing.T) {
	repo := &fakeAttemptWriter{}
	initiator := NewInitiator(nil, repo, testSettings(), nil, &recordingBus{}, logger.New("test"))

	result := initiator.Initiate(context.Background(), testParams())

	if result.Placed {
		t.Fatal("expected failure result with nil dialer")
	}
	if result.FailureReason != "dialer not configured" {
		t.Errorf("unexpected failure reason %q", result.FailureReason)
	}
}

func TestInitiateMissingOutboundNumberFailsBeforeCreditAndDialer(t *testing.T) {
	dialer := &fakeDialer{call: ProviderCall{ProviderCallID: "call_abc"}}
	credits := &fakeCredits{}
	repo := &fakeAttemptWriter{}
	bus := &recordingBus{}
	initiator := NewInitiator(dialer, repo, &fakeSettings{}, credits, bus, logger.New("test"))

	result := initiator.Initiate(context.Background(), testParams())

	if result.Placed {
		t.Fatal("expected failure result without an outbound phone number")
	}
	if result.FailureReason != "no outbound phone number configured" {
		t.Errorf("unexpected failure reason %q", result.FailureReason)
	}
	if dialer.calls != 0 {
		t.Errorf("expected dialer not to be invoked, got %d calls", dialer.calls)
	}
	if credits.calls != 0 {
		t.Errorf("expected no credit consumed, got %d", credits.calls)
	}
	if len(repo.created) != 1 || repo.created[0].Status != AttemptFailed {
		t.Errorf("expected one failed attempt, got %+v", repo.created)
	}
	if _, ok := bus.published[0].(events.CallFailed); !ok {
		t.Errorf("expected CallFailed event, got %T", bus.published[0])
	}
}

func TestInitiateCreditExhaustionBlocksCall(t *testing.T) {
	dialer := &fakeDialer{call: ProviderCall{ProviderCallID: "call_abc"}}
	credits := &fakeCredits{err: errors.New("balance is zero")}
	repo := &fakeAttemptWriter{}
	initiator := NewInitiator(dialer, repo, testSettings(), credits, &recordingBus{}, logger.New("test"))

	result := initiator.Initiate(context.Background(), testParams())

	if result.Placed {
		t.Fatal("expected call to be blocked by credit check")
	}
	if credits.calls != 1 {
		t.Errorf("expected one credit check, got %d", credits.calls)
	}
}

func TestOutcomeForEndedReason(t *testing.T) {
	cases := []struct {
		reason string
		want   string
	}{
		{"customer-ended-call", OutcomeAnswered},
		{"assistant-ended-call", OutcomeAnswered},
		{"customer-did-not-answer", OutcomeNoAnswer},
		{"customer-busy", OutcomeBusy},
		{"voicemail", OutcomeVoicemail},
		{"pipeline-error", OutcomeFailed},
		{"", OutcomeFailed},
	}
	for _, tc := range cases {
		if got := outcomeForEndedReason(tc.reason); got != tc.want {
			t.Errorf("outcomeForEndedReason(%q) = %q, want %q", tc.reason, got, tc.want)
		}
	}
}

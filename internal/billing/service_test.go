package billing

import (
	"context"
	"encoding/json"
	"strconv"
	"testing"

	"fusioncaller_backend/internal/events"
	"fusioncaller_backend/platform/apperr"
	"fusioncaller_backend/platform/logger"

	"github.com/google/uuid"
	"github.com/stripe/stripe-go/v76"
)

type fakeLedger struct {
	remaining  int64
	consumeErr error
	added      []Transaction
	balance    int64
}

func (f *fakeLedger) ConsumeCredit(ctx context.Context, orgID uuid.UUID) (int64, error) {
	if f.consumeErr != nil {
		return 0, f.consumeErr
	}
	return f.remaining, nil
}

func (f *fakeLedger) AddCredits(ctx context.Context, orgID uuid.UUID, credits int64, reason string, sessionID *string) (int64, error) {
	f.added = append(f.added, Transaction{
		OrganizationID:  orgID,
		Delta:           credits,
		Reason:          reason,
		StripeSessionID: sessionID,
	})
	f.balance += credits
	return f.balance, nil
}

func (f *fakeLedger) ListTransactions(ctx context.Context, orgID uuid.UUID, limit int) ([]Transaction, error) {
	return f.added, nil
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

type testBillingConfig struct{}

func (testBillingConfig) GetStripeSecretKey() string     { return "" }
func (testBillingConfig) GetStripeWebhookSecret() string { return "whsec_test" }
func (testBillingConfig) GetStripeCreditPriceID() string { return "price_test" }
func (testBillingConfig) GetBillingSuccessURL() string   { return "http://localhost/success" }
func (testBillingConfig) GetBillingCancelURL() string    { return "http://localhost/cancel" }
func (testBillingConfig) IsBillingEnabled() bool         { return false }

func newTestService(ledger *fakeLedger, bus *recordingBus) *Service {
	return NewService(ledger, nil, testBillingConfig{}, bus, logger.New("test"))
}

func TestConsumeCallCreditPublishesDepletionAtZero(t *testing.T) {
	ledger := &fakeLedger{remaining: 0}
	bus := &recordingBus{}
	service := newTestService(ledger, bus)
	orgID := uuid.New()

	if err := service.ConsumeCallCredit(context.Background(), orgID); err != nil {
		t.Fatalf("ConsumeCallCredit returned error: %v", err)
	}
	if len(bus.published) != 1 {
		t.Fatalf("expected 1 published event, got %d", len(bus.published))
	}
	depleted, ok := bus.published[0].(events.CreditsDepleted)
	if !ok {
		t.Fatalf("expected CreditsDepleted, got %T", bus.published[0])
	}
	if depleted.OrganizationID != orgID {
		t.Errorf("event orgID = %s, want %s", depleted.OrganizationID, orgID)
	}
}

func TestConsumeCallCreditNoEventWhileFunded(t *testing.T) {
	ledger := &fakeLedger{remaining: 4}
	bus := &recordingBus{}
	service := newTestService(ledger, bus)

	if err := service.ConsumeCallCredit(context.Background(), uuid.New()); err != nil {
		t.Fatalf("ConsumeCallCredit returned error: %v", err)
	}
	if len(bus.published) != 0 {
		t.Errorf("expected no events, got %d", len(bus.published))
	}
}

func TestConsumeCallCreditPropagatesExhaustion(t *testing.T) {
	ledger := &fakeLedger{consumeErr: apperr.Conflict("no call credits remaining")}
	bus := &recordingBus{}
	service := newTestService(ledger, bus)

	err := service.ConsumeCallCredit(context.Background(), uuid.New())
	if err == nil {
		t.Fatal("expected error when balance is exhausted")
	}
	if !apperr.Is(err, apperr.KindConflict) {
		t.Errorf("expected conflict kind, got %v", err)
	}
	if len(bus.published) != 0 {
		t.Errorf("expected no events on failure, got %d", len(bus.published))
	}
}

func checkoutCompletedEvent(t *testing.T, orgID uuid.UUID, credits, amountCents int64) stripe.Event {
	t.Helper()
	raw, err := json.Marshal(map[string]interface{}{
		"id":           "cs_test_123",
		"amount_total": amountCents,
		"metadata": map[string]string{
			"organization_id": orgID.String(),
			"credits":         strconv.FormatInt(credits, 10),
		},
	})
	if err != nil {
		t.Fatalf("marshal session: %v", err)
	}
	return stripe.Event{
		Type: "checkout.session.completed",
		Data: &stripe.EventData{Raw: raw},
	}
}

func TestCheckoutCompletedAddsCreditsAndPublishes(t *testing.T) {
	ledger := &fakeLedger{}
	bus := &recordingBus{}
	service := newTestService(ledger, bus)
	orgID := uuid.New()

	event := checkoutCompletedEvent(t, orgID, 25, 4975)
	if err := service.processEvent(context.Background(), event); err != nil {
		t.Fatalf("processEvent returned error: %v", err)
	}

	if len(ledger.added) != 1 {
		t.Fatalf("expected 1 ledger entry, got %d", len(ledger.added))
	}
	entry := ledger.added[0]
	if entry.Delta != 25 || entry.Reason != ReasonPurchase {
		t.Errorf("ledger entry = %+v, want delta 25 reason purchase", entry)
	}
	if entry.StripeSessionID == nil || *entry.StripeSessionID != "cs_test_123" {
		t.Errorf("expected session id recorded for idempotency, got %v", entry.StripeSessionID)
	}

	if len(bus.published) != 1 {
		t.Fatalf("expected 1 published event, got %d", len(bus.published))
	}
	purchased, ok := bus.published[0].(events.CreditsPurchased)
	if !ok {
		t.Fatalf("expected CreditsPurchased, got %T", bus.published[0])
	}
	if purchased.Credits != 25 || purchased.AmountCents != 4975 {
		t.Errorf("event = %+v, want 25 credits at 4975 cents", purchased)
	}
}

func TestCheckoutCompletedRejectsMissingMetadata(t *testing.T) {
	ledger := &fakeLedger{}
	bus := &recordingBus{}
	service := newTestService(ledger, bus)

	raw, _ := json.Marshal(map[string]interface{}{"id": "cs_test_456"})
	event := stripe.Event{Type: "checkout.session.completed", Data: &stripe.EventData{Raw: raw}}

	err := service.processEvent(context.Background(), event)
	if err == nil {
		t.Fatal("expected error for session without metadata")
	}
	if len(ledger.added) != 0 {
		t.Errorf("expected no ledger entries, got %d", len(ledger.added))
	}
}

func TestUnhandledStripeEventIsAcknowledged(t *testing.T) {
	ledger := &fakeLedger{}
	bus := &recordingBus{}
	service := newTestService(ledger, bus)

	event := stripe.Event{Type: "invoice.paid", Data: &stripe.EventData{Raw: []byte(`{}`)}}
	if err := service.processEvent(context.Background(), event); err != nil {
		t.Errorf("expected unhandled event to be acknowledged, got %v", err)
	}
	if len(ledger.added) != 0 || len(bus.published) != 0 {
		t.Error("unhandled event must not touch the ledger or bus")
	}
}

func TestCheckoutRejectedWhenBillingDisabled(t *testing.T) {
	service := newTestService(&fakeLedger{}, &recordingBus{})

	_, err := service.CreateCheckoutSession(context.Background(), uuid.New(), 10)
	if err == nil {
		t.Fatal("expected error when billing is not configured")
	}
	if !apperr.Is(err, apperr.KindDownstream) {
		t.Errorf("expected downstream kind, got %v", err)
	}
}

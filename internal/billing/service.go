package billing

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"

	"fusioncaller_backend/internal/events"
	"fusioncaller_backend/platform/apperr"
	"fusioncaller_backend/platform/config"
	"fusioncaller_backend/platform/logger"

	"github.com/google/uuid"
	"github.com/stripe/stripe-go/v76"
	checkoutsession "github.com/stripe/stripe-go/v76/checkout/session"
	"github.com/stripe/stripe-go/v76/customer"
	"github.com/stripe/stripe-go/v76/webhook"
)

// BillingProfile is the slice of an organization billing needs to create a
// Stripe customer.
type BillingProfile struct {
	Name             string
	StripeCustomerID *string
}

// OrganizationStore supplies and persists the Stripe customer linkage.
type OrganizationStore interface {
	BillingProfile(ctx context.Context, orgID uuid.UUID) (BillingProfile, error)
	SetStripeCustomerID(ctx context.Context, orgID uuid.UUID, customerID string) error
}

// Ledger is the credit ledger the service drives. Satisfied by *Repository.
type Ledger interface {
	ConsumeCredit(ctx context.Context, orgID uuid.UUID) (int64, error)
	AddCredits(ctx context.Context, orgID uuid.UUID, credits int64, reason string, stripeSessionID *string) (int64, error)
	ListTransactions(ctx context.Context, orgID uuid.UUID, limit int) ([]Transaction, error)
}

// CheckoutSession is the client-facing handle for a started Stripe checkout.
type CheckoutSession struct {
	SessionID string
	URL       string
}

// Service implements credit consumption and Stripe top-ups.
type Service struct {
	ledger   Ledger
	orgs     OrganizationStore
	cfg      config.BillingConfig
	eventBus events.Bus
	log      *logger.Logger
}

// NewService creates a new billing service. Sets the package-level Stripe key
// when billing is configured.
func NewService(ledger Ledger, orgs OrganizationStore, cfg config.BillingConfig, eventBus events.Bus, log *logger.Logger) *Service {
	if cfg.IsBillingEnabled() {
		stripe.Key = cfg.GetStripeSecretKey()
	}
	return &Service{
		ledger:   ledger,
		orgs:     orgs,
		cfg:      cfg,
		eventBus: eventBus,
		log:      log,
	}
}

// ConsumeCallCredit deducts one credit before a call is placed. Publishes
// CreditsDepleted when the deduction empties the balance.
func (s *Service) ConsumeCallCredit(ctx context.Context, orgID uuid.UUID) error {
	remaining, err := s.ledger.ConsumeCredit(ctx, orgID)
	if err != nil {
		return err
	}
	if remaining == 0 {
		s.eventBus.Publish(ctx, events.CreditsDepleted{
			BaseEvent:      events.NewBaseEvent(),
			OrganizationID: orgID,
		})
	}
	return nil
}

// CreateCheckoutSession starts a Stripe payment-mode checkout for the given
// number of call credits. Lazily creates the organization's Stripe customer.
func (s *Service) CreateCheckoutSession(ctx context.Context, orgID uuid.UUID, credits int64) (CheckoutSession, error) {
	if !s.cfg.IsBillingEnabled() {
		return CheckoutSession{}, apperr.New(apperr.KindDownstream, "billing is not configured")
	}
	if credits <= 0 {
		return CheckoutSession{}, apperr.Validation("credits must be positive")
	}

	customerID, err := s.ensureCustomer(ctx, orgID)
	if err != nil {
		return CheckoutSession{}, err
	}

	params := &stripe.CheckoutSessionParams{
		Customer: stripe.String(customerID),
		Mode:     stripe.String(string(stripe.CheckoutSessionModePayment)),
		LineItems: []*stripe.CheckoutSessionLineItemParams{
			{
				Price:    stripe.String(s.cfg.GetStripeCreditPriceID()),
				Quantity: stripe.Int64(credits),
			},
		},
		SuccessURL: stripe.String(s.cfg.GetBillingSuccessURL()),
		CancelURL:  stripe.String(s.cfg.GetBillingCancelURL()),
		Metadata: map[string]string{
			"organization_id": orgID.String(),
			"credits":         strconv.FormatInt(credits, 10),
		},
	}

	sess, err := checkoutsession.New(params)
	if err != nil {
		return CheckoutSession{}, apperr.Downstream("failed to create checkout session", err)
	}
	return CheckoutSession{SessionID: sess.ID, URL: sess.URL}, nil
}

func (s *Service) ensureCustomer(ctx context.Context, orgID uuid.UUID) (string, error) {
	profile, err := s.orgs.BillingProfile(ctx, orgID)
	if err != nil {
		return "", err
	}
	if profile.StripeCustomerID != nil && *profile.StripeCustomerID != "" {
		return *profile.StripeCustomerID, nil
	}

	cust, err := customer.New(&stripe.CustomerParams{
		Name: stripe.String(profile.Name),
		Metadata: map[string]string{
			"organization_id": orgID.String(),
		},
	})
	if err != nil {
		return "", apperr.Downstream("failed to create stripe customer", err)
	}
	if err := s.orgs.SetStripeCustomerID(ctx, orgID, cust.ID); err != nil {
		return "", err
	}
	return cust.ID, nil
}

// HandleStripeEvent verifies and processes a Stripe webhook delivery.
func (s *Service) HandleStripeEvent(ctx context.Context, payload []byte, signature string) error {
	event, err := webhook.ConstructEvent(payload, signature, s.cfg.GetStripeWebhookSecret())
	if err != nil {
		return apperr.Unauthorized("invalid stripe signature")
	}
	return s.processEvent(ctx, event)
}

func (s *Service) processEvent(ctx context.Context, event stripe.Event) error {
	switch event.Type {
	case "checkout.session.completed":
		return s.handleCheckoutCompleted(ctx, event)
	default:
		// Unhandled event types are acknowledged so Stripe stops retrying.
		s.log.Info("ignoring stripe event", "type", event.Type)
		return nil
	}
}

func (s *Service) handleCheckoutCompleted(ctx context.Context, event stripe.Event) error {
	var sess stripe.CheckoutSession
	if err := json.Unmarshal(event.Data.Raw, &sess); err != nil {
		return apperr.Validation("malformed checkout session payload")
	}

	orgID, err := uuid.Parse(sess.Metadata["organization_id"])
	if err != nil {
		return apperr.Validation("checkout session missing organization metadata")
	}
	credits, err := strconv.ParseInt(sess.Metadata["credits"], 10, 64)
	if err != nil || credits <= 0 {
		return apperr.Validation("checkout session missing credits metadata")
	}

	sessionID := sess.ID
	balance, err := s.ledger.AddCredits(ctx, orgID, credits, ReasonPurchase, &sessionID)
	if err != nil {
		return fmt.Errorf("apply purchase for session %s: %w", sessionID, err)
	}

	s.log.Info("credits purchased",
		"organizationId", orgID.String(),
		"credits", credits,
		"balance", balance,
	)
	s.eventBus.Publish(ctx, events.CreditsPurchased{
		BaseEvent:      events.NewBaseEvent(),
		OrganizationID: orgID,
		Credits:        credits,
		AmountCents:    sess.AmountTotal,
	})
	return nil
}

// GrantCredits adds credits outside the purchase flow, for admin adjustments.
func (s *Service) GrantCredits(ctx context.Context, orgID uuid.UUID, credits int64) (int64, error) {
	return s.ledger.AddCredits(ctx, orgID, credits, ReasonGrant, nil)
}

// ListTransactions returns the organization's ledger history.
func (s *Service) ListTransactions(ctx context.Context, orgID uuid.UUID, limit int) ([]Transaction, error) {
	return s.ledger.ListTransactions(ctx, orgID, limit)
}

package billing

import (
	"io"
	"net/http"
	"time"

	"fusioncaller_backend/platform/httpkit"
	"fusioncaller_backend/platform/validator"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// Stripe sends at most a few KB per event; anything bigger is not ours.
const maxStripePayloadBytes = 1 << 16

// Handler handles billing HTTP requests.
type Handler struct {
	service *Service
	val     *validator.Validator
}

// NewHandler creates a new billing handler.
func NewHandler(service *Service, val *validator.Validator) *Handler {
	return &Handler{service: service, val: val}
}

// CheckoutRequest is the request body for starting a credit purchase.
type CheckoutRequest struct {
	Credits int64 `json:"credits" validate:"required,min=1,max=10000"`
}

// CheckoutResponse returns the Stripe checkout session to redirect to.
type CheckoutResponse struct {
	SessionID string `json:"sessionId"`
	URL       string `json:"url"`
}

// HandleCheckout starts a Stripe checkout for call credits.
// POST /api/v1/billing/checkout
func (h *Handler) HandleCheckout(c *gin.Context) {
	tenantID, ok := tenantFromContext(c)
	if !ok {
		return
	}

	var req CheckoutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, "invalid request body", nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, "validation error", err.Error())
		return
	}

	sess, err := h.service.CreateCheckoutSession(c.Request.Context(), tenantID, req.Credits)
	if httpkit.HandleError(c, err) {
		return
	}
	c.JSON(http.StatusCreated, CheckoutResponse{SessionID: sess.SessionID, URL: sess.URL})
}

// TransactionResponse is the API representation of a ledger entry.
type TransactionResponse struct {
	ID        uuid.UUID `json:"id"`
	Delta     int64     `json:"delta"`
	Reason    string    `json:"reason"`
	CreatedAt time.Time `json:"createdAt"`
}

// HandleListTransactions returns the caller's credit ledger.
// GET /api/v1/billing/transactions
func (h *Handler) HandleListTransactions(c *gin.Context) {
	tenantID, ok := tenantFromContext(c)
	if !ok {
		return
	}

	txs, err := h.service.ListTransactions(c.Request.Context(), tenantID, 0)
	if httpkit.HandleError(c, err) {
		return
	}

	out := make([]TransactionResponse, 0, len(txs))
	for _, t := range txs {
		out = append(out, TransactionResponse{
			ID:        t.ID,
			Delta:     t.Delta,
			Reason:    t.Reason,
			CreatedAt: t.CreatedAt,
		})
	}
	httpkit.OK(c, gin.H{"transactions": out})
}

// GrantCreditsRequest is the admin request body for adjusting a balance.
type GrantCreditsRequest struct {
	Credits int64 `json:"credits" validate:"required,min=1,max=100000"`
}

// HandleGrantCredits adds credits to an organization outside the purchase
// flow.
// POST /api/v1/admin/organizations/:orgId/credits
func (h *Handler) HandleGrantCredits(c *gin.Context) {
	orgID, err := uuid.Parse(c.Param("orgId"))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, "invalid organization id", nil)
		return
	}

	var req GrantCreditsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, "invalid request body", nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, "validation error", err.Error())
		return
	}

	balance, err := h.service.GrantCredits(c.Request.Context(), orgID, req.Credits)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, gin.H{"creditBalance": balance})
}

// HandleStripeWebhook receives Stripe event deliveries.
// POST /api/v1/webhook/stripe
func (h *Handler) HandleStripeWebhook(c *gin.Context) {
	payload, err := io.ReadAll(io.LimitReader(c.Request.Body, maxStripePayloadBytes))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, "unreadable payload", nil)
		return
	}

	err = h.service.HandleStripeEvent(c.Request.Context(), payload, c.GetHeader("Stripe-Signature"))
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, gin.H{"received": true})
}

func tenantFromContext(c *gin.Context) (uuid.UUID, bool) {
	identity := httpkit.GetIdentity(c)
	tenantID := identity.TenantID()
	if tenantID == nil {
		httpkit.Error(c, http.StatusForbidden, "no organization context", nil)
		return uuid.Nil, false
	}
	return *tenantID, true
}

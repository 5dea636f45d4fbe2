package campaigns

import (
	"net/http"
	"time"

	"fusioncaller_backend/platform/httpkit"
	"fusioncaller_backend/platform/validator"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// Handler handles campaign HTTP requests.
type Handler struct {
	service *Service
	val     *validator.Validator
}

// NewHandler creates a new campaigns handler.
func NewHandler(service *Service, val *validator.Validator) *Handler {
	return &Handler{service: service, val: val}
}

// CreateCampaignRequest is the request body for creating a campaign.
type CreateCampaignRequest struct {
	Name    string      `json:"name" validate:"required,min=1,max=200"`
	LeadIDs []uuid.UUID `json:"leadIds" validate:"required,min=1"`
}

// CampaignResponse is the API representation of a campaign.
type CampaignResponse struct {
	ID          uuid.UUID  `json:"id"`
	Name        string     `json:"name"`
	Status      string     `json:"status"`
	TotalLeads  int        `json:"totalLeads"`
	DialedLeads int        `json:"dialedLeads"`
	FailedLeads int        `json:"failedLeads"`
	StartedAt   *time.Time `json:"startedAt,omitempty"`
	CompletedAt *time.Time `json:"completedAt,omitempty"`
	CreatedAt   time.Time  `json:"createdAt"`
}

func toCampaignResponse(c Campaign) CampaignResponse {
	return CampaignResponse{
		ID:          c.ID,
		Name:        c.Name,
		Status:      c.Status,
		TotalLeads:  c.TotalLeads,
		DialedLeads: c.DialedLeads,
		FailedLeads: c.FailedLeads,
		StartedAt:   c.StartedAt,
		CompletedAt: c.CompletedAt,
		CreatedAt:   c.CreatedAt,
	}
}

// HandleCreate creates a draft campaign from a set of leads.
// POST /api/v1/campaigns
func (h *Handler) HandleCreate(c *gin.Context) {
	tenantID, ok := tenantFromContext(c)
	if !ok {
		return
	}

	var req CreateCampaignRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, "invalid request body", nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, "validation error", err.Error())
		return
	}

	campaign, err := h.service.Create(c.Request.Context(), tenantID, req.Name, req.LeadIDs)
	if httpkit.HandleError(c, err) {
		return
	}
	c.JSON(http.StatusCreated, toCampaignResponse(campaign))
}

// HandleList returns the caller's campaigns.
// GET /api/v1/campaigns
func (h *Handler) HandleList(c *gin.Context) {
	tenantID, ok := tenantFromContext(c)
	if !ok {
		return
	}

	campaigns, err := h.service.List(c.Request.Context(), tenantID)
	if httpkit.HandleError(c, err) {
		return
	}

	out := make([]CampaignResponse, 0, len(campaigns))
	for _, campaign := range campaigns {
		out = append(out, toCampaignResponse(campaign))
	}
	httpkit.OK(c, gin.H{"campaigns": out})
}

// HandleGet returns one campaign with its dial progress.
// GET /api/v1/campaigns/:campaignId
func (h *Handler) HandleGet(c *gin.Context) {
	tenantID, ok := tenantFromContext(c)
	if !ok {
		return
	}
	campaignID, err := uuid.Parse(c.Param("campaignId"))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, "invalid campaign id", nil)
		return
	}

	campaign, err := h.service.Get(c.Request.Context(), campaignID, tenantID)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, toCampaignResponse(campaign))
}

// HandleStart begins dialing a draft campaign.
// POST /api/v1/campaigns/:campaignId/start
func (h *Handler) HandleStart(c *gin.Context) {
	tenantID, ok := tenantFromContext(c)
	if !ok {
		return
	}
	campaignID, err := uuid.Parse(c.Param("campaignId"))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, "invalid campaign id", nil)
		return
	}

	campaign, err := h.service.Start(c.Request.Context(), campaignID, tenantID)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, toCampaignResponse(campaign))
}

// HandleCancel stops a campaign.
// POST /api/v1/campaigns/:campaignId/cancel
func (h *Handler) HandleCancel(c *gin.Context) {
	tenantID, ok := tenantFromContext(c)
	if !ok {
		return
	}
	campaignID, err := uuid.Parse(c.Param("campaignId"))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, "invalid campaign id", nil)
		return
	}

	campaign, err := h.service.Cancel(c.Request.Context(), campaignID, tenantID)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, toCampaignResponse(campaign))
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

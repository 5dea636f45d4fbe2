package workflows

import (
	"net/http"
	"time"

	"fusioncaller_backend/platform/httpkit"
	"fusioncaller_backend/platform/validator"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// Handler handles workflow rule HTTP requests.
type Handler struct {
	repo *Repository
	val  *validator.Validator
}

// NewHandler creates a new workflows handler.
func NewHandler(repo *Repository, val *validator.Validator) *Handler {
	return &Handler{repo: repo, val: val}
}

// RuleRequest is the request body for creating or updating a rule.
type RuleRequest struct {
	Name        string            `json:"name" validate:"required,min=1,max=200"`
	TriggerType string            `json:"triggerType" validate:"required"`
	Conditions  map[string]string `json:"conditions"`
	Actions     []Action          `json:"actions" validate:"required,min=1,max=10"`
	Enabled     bool              `json:"enabled"`
}

// RuleResponse is the API representation of a workflow rule.
type RuleResponse struct {
	ID          uuid.UUID         `json:"id"`
	Name        string            `json:"name"`
	TriggerType string            `json:"triggerType"`
	Conditions  map[string]string `json:"conditions"`
	Actions     []Action          `json:"actions"`
	Enabled     bool              `json:"enabled"`
	CreatedAt   time.Time         `json:"createdAt"`
	UpdatedAt   time.Time         `json:"updatedAt"`
}

func toRuleResponse(rule Rule) RuleResponse {
	return RuleResponse{
		ID:          rule.ID,
		Name:        rule.Name,
		TriggerType: rule.TriggerType,
		Conditions:  rule.Conditions,
		Actions:     rule.Actions,
		Enabled:     rule.Enabled,
		CreatedAt:   rule.CreatedAt,
		UpdatedAt:   rule.UpdatedAt,
	}
}

func (h *Handler) bindRule(c *gin.Context) (RuleRequest, bool) {
	var req RuleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, "invalid request body", nil)
		return req, false
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, "validation error", err.Error())
		return req, false
	}
	if !ValidTrigger(req.TriggerType) {
		httpkit.Error(c, http.StatusBadRequest, "unknown trigger type", req.TriggerType)
		return req, false
	}
	for _, action := range req.Actions {
		switch action.Type {
		case ActionSendNotification, ActionUpdateTags, ActionWebhook:
		default:
			httpkit.Error(c, http.StatusBadRequest, "unknown action type", action.Type)
			return req, false
		}
	}
	return req, true
}

// HandleCreate creates a workflow rule.
// POST /api/v1/admin/workflows
func (h *Handler) HandleCreate(c *gin.Context) {
	orgID, ok := getTenantID(c)
	if !ok {
		return
	}
	req, ok := h.bindRule(c)
	if !ok {
		return
	}

	rule, err := h.repo.Create(c.Request.Context(), Rule{
		OrganizationID: orgID,
		Name:           req.Name,
		TriggerType:    req.TriggerType,
		Conditions:     req.Conditions,
		Actions:        req.Actions,
		Enabled:        req.Enabled,
	})
	if httpkit.HandleError(c, err) {
		return
	}
	c.JSON(http.StatusCreated, toRuleResponse(rule))
}

// HandleList lists the organization's workflow rules.
// GET /api/v1/admin/workflows
func (h *Handler) HandleList(c *gin.Context) {
	orgID, ok := getTenantID(c)
	if !ok {
		return
	}

	rules, err := h.repo.ListByOrganization(c.Request.Context(), orgID)
	if httpkit.HandleError(c, err) {
		return
	}

	result := make([]RuleResponse, len(rules))
	for i, rule := range rules {
		result[i] = toRuleResponse(rule)
	}
	httpkit.OK(c, result)
}

// HandleUpdate replaces a workflow rule.
// PUT /api/v1/admin/workflows/:ruleId
func (h *Handler) HandleUpdate(c *gin.Context) {
	orgID, ok := getTenantID(c)
	if !ok {
		return
	}
	ruleID, err := uuid.Parse(c.Param("ruleId"))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, "invalid rule ID", nil)
		return
	}
	req, ok := h.bindRule(c)
	if !ok {
		return
	}

	rule, err := h.repo.Update(c.Request.Context(), Rule{
		ID:             ruleID,
		OrganizationID: orgID,
		Name:           req.Name,
		TriggerType:    req.TriggerType,
		Conditions:     req.Conditions,
		Actions:        req.Actions,
		Enabled:        req.Enabled,
	})
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, toRuleResponse(rule))
}

// HandleDelete removes a workflow rule.
// DELETE /api/v1/admin/workflows/:ruleId
func (h *Handler) HandleDelete(c *gin.Context) {
	orgID, ok := getTenantID(c)
	if !ok {
		return
	}
	ruleID, err := uuid.Parse(c.Param("ruleId"))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, "invalid rule ID", nil)
		return
	}

	if err := h.repo.Delete(c.Request.Context(), ruleID, orgID); httpkit.HandleError(c, err) {
		return
	}
	c.Status(http.StatusNoContent)
}

func getTenantID(c *gin.Context) (uuid.UUID, bool) {
	identity := httpkit.GetIdentity(c)
	tenantID := identity.TenantID()
	if tenantID == nil {
		httpkit.Error(c, http.StatusForbidden, "no organization context", nil)
		return uuid.Nil, false
	}
	return *tenantID, true
}

package workflows

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Action types supported by the engine.
const (
	ActionSendNotification = "send_notification"
	ActionUpdateTags       = "update_tags"
	ActionWebhook          = "webhook"
)

// NotificationSender delivers a notification email. Implemented by the
// email module.
type NotificationSender interface {
	Send(ctx context.Context, to, subject, body string) error
}

// TagWriter appends tags to a lead. Implemented by an adapter over the
// leads service.
type TagWriter interface {
	AddTags(ctx context.Context, leadID, orgID uuid.UUID, tags []string) error
}

// NotificationAction sends an email with placeholder substitution from
// the trigger fields.
type NotificationAction struct {
	sender NotificationSender
}

// NewNotificationAction creates the send_notification executor.
func NewNotificationAction(sender NotificationSender) *NotificationAction {
	return &NotificationAction{sender: sender}
}

// Execute sends the configured notification.
func (a *NotificationAction) Execute(ctx context.Context, action Action, trigger TriggerContext) error {
	to := action.Params["to"]
	if to == "" {
		return fmt.Errorf("send_notification: missing 'to' param")
	}
	subject := substitute(action.Params["subject"], trigger)
	body := substitute(action.Params["body"], trigger)
	if subject == "" {
		subject = "Workflow notification"
	}
	return a.sender.Send(ctx, to, subject, body)
}

// TagAction appends configured tags to the triggering lead.
type TagAction struct {
	tags TagWriter
}

// NewTagAction creates the update_tags executor.
func NewTagAction(tags TagWriter) *TagAction {
	return &TagAction{tags: tags}
}

// Execute appends the configured tags.
func (a *TagAction) Execute(ctx context.Context, action Action, trigger TriggerContext) error {
	raw := action.Params["tags"]
	if raw == "" {
		return fmt.Errorf("update_tags: missing 'tags' param")
	}
	if trigger.LeadID == uuid.Nil {
		return fmt.Errorf("update_tags: trigger carries no lead")
	}

	var tags []string
	for _, tag := range strings.Split(raw, ",") {
		if trimmed := strings.TrimSpace(tag); trimmed != "" {
			tags = append(tags, trimmed)
		}
	}
	return a.tags.AddTags(ctx, trigger.LeadID, trigger.OrganizationID, tags)
}

// WebhookAction POSTs the trigger context to a configured URL.
type WebhookAction struct {
	client *http.Client
}

// NewWebhookAction creates the webhook executor.
func NewWebhookAction() *WebhookAction {
	return &WebhookAction{client: &http.Client{Timeout: 10 * time.Second}}
}

type webhookPayload struct {
	OrganizationID uuid.UUID         `json:"organizationId"`
	LeadID         uuid.UUID         `json:"leadId,omitempty"`
	Fields         map[string]string `json:"fields"`
	SentAt         time.Time         `json:"sentAt"`
}

// Execute delivers the trigger context to the configured endpoint.
func (a *WebhookAction) Execute(ctx context.Context, action Action, trigger TriggerContext) error {
	url := action.Params["url"]
	if !strings.HasPrefix(url, "http://") && !strings.HasPrefix(url, "https://") {
		return fmt.Errorf("webhook: invalid url %q", url)
	}

	body, err := json.Marshal(webhookPayload{
		OrganizationID: trigger.OrganizationID,
		LeadID:         trigger.LeadID,
		Fields:         trigger.Fields,
		SentAt:         time.Now().UTC(),
	})
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := a.client.Do(req)
	if err != nil {
		return fmt.Errorf("webhook delivery failed: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 400 {
		return fmt.Errorf("webhook endpoint returned status %d", resp.StatusCode)
	}
	return nil
}

// substitute replaces {{key}} placeholders with trigger field values.
func substitute(template string, trigger TriggerContext) string {
	result := template
	for key, value := range trigger.Fields {
		result = strings.ReplaceAll(result, "{{"+key+"}}", value)
	}
	result = strings.ReplaceAll(result, "{{leadId}}", trigger.LeadID.String())
	return result
}

package scheduler

import (
	"encoding/json"

	"github.com/hibiken/asynq"
)

const TaskCampaignDial = "campaigns.dial"

// CampaignDialPayload identifies one lead to dial on behalf of a campaign.
type CampaignDialPayload struct {
	CampaignID     string `json:"campaignId"`
	OrganizationID string `json:"organizationId"`
	LeadID         string `json:"leadId"`
}

func NewCampaignDialTask(payload CampaignDialPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskCampaignDial, data), nil
}

func ParseCampaignDialPayload(task *asynq.Task) (CampaignDialPayload, error) {
	var payload CampaignDialPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		return CampaignDialPayload{}, err
	}
	return payload, nil
}

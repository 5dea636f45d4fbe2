package detection

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"fusioncaller_backend/platform/config"

	"github.com/sashabaranov/go-openai"
)

const classifySystemPrompt = `You classify home-service inquiries. Given the customer's message,
respond with JSON only, no prose, matching this shape:
{"serviceType": string, "detectedServices": [string], "propertyType": "residential"|"commercial"|"unknown",
 "urgency": "low"|"medium"|"high"|"", "budget": string, "timeline": string, "location": string}
Pick the single most relevant serviceType. Use "unknown" when the property type is unclear.`

// OpenAIClassifier implements Classifier using a chat completion with a
// fixed instruction and low temperature to favor determinism.
type OpenAIClassifier struct {
	client *openai.Client
	model  string
}

// NewOpenAIClassifier creates a model-backed classifier. Returns nil when
// detection is not configured so the detector skips the model tier.
func NewOpenAIClassifier(cfg config.DetectionConfig) *OpenAIClassifier {
	if !cfg.IsDetectionEnabled() {
		return nil
	}
	return &OpenAIClassifier{
		client: openai.NewClient(cfg.GetOpenAIAPIKey()),
		model:  cfg.GetOpenAIModel(),
	}
}

type classifyPayload struct {
	ServiceType      string   `json:"serviceType"`
	DetectedServices []string `json:"detectedServices"`
	PropertyType     string   `json:"propertyType"`
	Urgency          string   `json:"urgency"`
	Budget           string   `json:"budget"`
	Timeline         string   `json:"timeline"`
	Location         string   `json:"location"`
}

// Classify submits text to the model and parses the structured result.
func (c *OpenAIClassifier) Classify(ctx context.Context, text string) (Result, error) {
	resp, err := c.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       c.model,
		Temperature: 0.1,
		MaxTokens:   300,
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		},
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: classifySystemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: text},
		},
	})
	if err != nil {
		return Result{}, fmt.Errorf("classification request failed: %w", err)
	}
	if len(resp.Choices) == 0 {
		return Result{}, fmt.Errorf("classification returned no choices")
	}

	content := strings.TrimSpace(resp.Choices[0].Message.Content)
	var payload classifyPayload
	if err := json.Unmarshal([]byte(content), &payload); err != nil {
		return Result{}, fmt.Errorf("unparseable classification output: %w", err)
	}
	if payload.ServiceType == "" {
		return Result{}, fmt.Errorf("classification output missing serviceType")
	}

	return Result{
		ServiceType:      payload.ServiceType,
		DetectedServices: payload.DetectedServices,
		ExtractedDetails: Details{
			PropertyType: payload.PropertyType,
			Urgency:      payload.Urgency,
			Budget:       payload.Budget,
			Timeline:     payload.Timeline,
			Location:     payload.Location,
		},
	}, nil
}

// Compile-time check
var _ Classifier = (*OpenAIClassifier)(nil)

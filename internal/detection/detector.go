// Package detection classifies free-text form input into a service category.
// It runs a three-tier cascade: explicit caller input wins outright, then
// model classification, then deterministic keyword matching, then a generic
// default. Confidence values are policy constants, not probabilities; the
// ordering and exact values are part of the contract with downstream
// consumers.
package detection

import (
	"context"
	"strings"

	"fusioncaller_backend/platform/logger"
)

// Cascade confidence constants. Downstream code compares against these
// exact values, so they must not change.
const (
	ConfidenceExplicit = 1.0
	ConfidenceModel    = 0.8
	ConfidenceKeyword  = 0.6
	ConfidenceGeneric  = 0.3
)

// Property types carried on the detection result.
const (
	PropertyResidential = "residential"
	PropertyCommercial  = "commercial"
	PropertyUnknown     = "unknown"
)

// Details is the bag of secondary attributes extracted during classification.
// Only PropertyType survives onto the lead; the rest is informational.
type Details struct {
	PropertyType string `json:"propertyType"`
	Urgency      string `json:"urgency,omitempty"`
	Budget       string `json:"budget,omitempty"`
	Timeline     string `json:"timeline,omitempty"`
	Location     string `json:"location,omitempty"`
}

// Result is the outcome of one detection pass.
type Result struct {
	ServiceType      string   `json:"serviceType"`
	Confidence       float64  `json:"confidence"`
	DetectedServices []string `json:"detectedServices"`
	ExtractedDetails Details  `json:"extractedDetails"`
}

// Classifier performs model-backed text classification. Implemented by
// OpenAIClassifier; nil-able via a disabled detector configuration.
type Classifier interface {
	Classify(ctx context.Context, text string) (Result, error)
}

// Detector runs the detection cascade. It holds no per-request state; the
// keyword table is fixed at construction.
type Detector struct {
	classifier Classifier
	keywords   []KeywordRule
	log        *logger.Logger
}

// NewDetector creates a detector. classifier may be nil, in which case the
// model tier is skipped and every non-explicit detection goes straight to
// keyword matching.
func NewDetector(classifier Classifier, keywords []KeywordRule, log *logger.Logger) *Detector {
	if keywords == nil {
		keywords = DefaultKeywordTable
	}
	return &Detector{classifier: classifier, keywords: keywords, log: log}
}

// Detect classifies text into a service category. A non-empty explicitType
// is returned verbatim with confidence 1.0 and no further inference.
func (d *Detector) Detect(ctx context.Context, text, explicitType string) Result {
	if explicit := strings.TrimSpace(explicitType); explicit != "" {
		return Result{
			ServiceType:      explicit,
			Confidence:       ConfidenceExplicit,
			DetectedServices: []string{explicit},
			ExtractedDetails: Details{PropertyType: PropertyUnknown},
		}
	}

	if d.classifier != nil {
		result, err := d.classifier.Classify(ctx, text)
		if err == nil {
			result.Confidence = ConfidenceModel
			result.ExtractedDetails.PropertyType = normalizePropertyType(result.ExtractedDetails.PropertyType)
			if result.ServiceType != "" {
				if len(result.DetectedServices) == 0 {
					result.DetectedServices = []string{result.ServiceType}
				}
				return result
			}
		} else {
			d.log.Warn("model classification failed, falling back to keywords", "error", err)
		}
	}

	return d.keywordMatch(text)
}

func (d *Detector) keywordMatch(text string) Result {
	lowered := strings.ToLower(text)
	for _, rule := range d.keywords {
		if strings.Contains(lowered, rule.Keyword) {
			return Result{
				ServiceType:      rule.Service,
				Confidence:       ConfidenceKeyword,
				DetectedServices: []string{rule.Service},
				ExtractedDetails: Details{PropertyType: PropertyUnknown},
			}
		}
	}

	return Result{
		ServiceType:      GenericService,
		Confidence:       ConfidenceGeneric,
		DetectedServices: []string{},
		ExtractedDetails: Details{PropertyType: PropertyUnknown},
	}
}

func normalizePropertyType(value string) string {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case PropertyResidential:
		return PropertyResidential
	case PropertyCommercial:
		return PropertyCommercial
	default:
		return PropertyUnknown
	}
}

package detection

import (
	"context"
	"errors"
	"testing"

	"fusioncaller_backend/platform/logger"
)

type stubClassifier struct {
	result Result
	err    error
	calls  int
}

func (s *stubClassifier) Classify(ctx context.Context, text string) (Result, error) {
	s.calls++
	return s.result, s.err
}

func newTestDetector(classifier Classifier) *Detector {
	return NewDetector(classifier, nil, logger.New("test"))
}

func TestDetectExplicitTypeWinsWithoutInference(t *testing.T) {
	classifier := &stubClassifier{result: Result{ServiceType: "Roof Cleaning"}}
	d := newTestDetector(classifier)

	result := d.Detect(context.Background(), "need my driveway cleaned", "Gutter Cleaning")

	if result.ServiceType != "Gutter Cleaning" {
		t.Errorf("expected explicit type returned verbatim, got %q", result.ServiceType)
	}
	if result.Confidence != ConfidenceExplicit {
		t.Errorf("expected confidence %v, got %v", ConfidenceExplicit, result.Confidence)
	}
	if classifier.calls != 0 {
		t.Errorf("expected no classifier call for explicit type, got %d", classifier.calls)
	}
}

func TestDetectModelSuccessUsesFixedConfidence(t *testing.T) {
	classifier := &stubClassifier{result: Result{
		ServiceType:      "Driveway Cleaning",
		DetectedServices: []string{"Driveway Cleaning"},
		ExtractedDetails: Details{PropertyType: "residential", Urgency: "high"},
	}}
	d := newTestDetector(classifier)

	result := d.Detect(context.Background(), "need my driveway cleaned asap", "")

	if result.ServiceType != "Driveway Cleaning" {
		t.Errorf("unexpected service type %q", result.ServiceType)
	}
	if result.Confidence != ConfidenceModel {
		t.Errorf("expected confidence %v, got %v", ConfidenceModel, result.Confidence)
	}
	if result.ExtractedDetails.PropertyType != PropertyResidential {
		t.Errorf("unexpected property type %q", result.ExtractedDetails.PropertyType)
	}
}

func TestDetectModelFailureFallsBackToKeywords(t *testing.T) {
	classifier := &stubClassifier{err: errors.New("model unavailable")}
	d := newTestDetector(classifier)

	result := d.Detect(context.Background(), "Please clean my DRIVEWAY this week", "")

	if result.ServiceType != "Driveway Cleaning" {
		t.Errorf("expected keyword match, got %q", result.ServiceType)
	}
	if result.Confidence != ConfidenceKeyword {
		t.Errorf("expected confidence %v, got %v", ConfidenceKeyword, result.Confidence)
	}
}

func TestDetectFirstKeywordInTableOrderWins(t *testing.T) {
	d := newTestDetector(nil)

	// Text matches both "roof" and "driveway"; "driveway" appears first in the table.
	result := d.Detect(context.Background(), "roof and driveway need washing", "")

	if result.ServiceType != "Driveway Cleaning" {
		t.Errorf("expected first table entry to win, got %q", result.ServiceType)
	}
	if result.Confidence != ConfidenceKeyword {
		t.Errorf("expected confidence %v, got %v", ConfidenceKeyword, result.Confidence)
	}
}

func TestDetectNoMatchReturnsGenericService(t *testing.T) {
	d := newTestDetector(nil)

	result := d.Detect(context.Background(), "hello, please call me back", "")

	if result.ServiceType != GenericService {
		t.Errorf("expected %q, got %q", GenericService, result.ServiceType)
	}
	if result.Confidence != ConfidenceGeneric {
		t.Errorf("expected confidence %v, got %v", ConfidenceGeneric, result.Confidence)
	}
}

func TestDetectNilClassifierSkipsModelTier(t *testing.T) {
	d := newTestDetector(nil)

	result := d.Detect(context.Background(), "gutter is clogged", "")

	if result.ServiceType != "Gutter Cleaning" {
		t.Errorf("expected keyword tier, got %q", result.ServiceType)
	}
	if result.Confidence != ConfidenceKeyword {
		t.Errorf("expected confidence %v, got %v", ConfidenceKeyword, result.Confidence)
	}
}

func TestNormalizePropertyType(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"residential", PropertyResidential},
		{"Commercial", PropertyCommercial},
		{" COMMERCIAL ", PropertyCommercial},
		{"", PropertyUnknown},
		{"industrial", PropertyUnknown},
	}
	for _, tc := range cases {
		if got := normalizePropertyType(tc.in); got != tc.want {
			t.Errorf("normalizePropertyType(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

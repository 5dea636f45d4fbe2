package leads

import (
	"testing"
)

func TestSynthesizeNotesFullContext(t *testing.T) {
	notes := synthesizeNotes("facebook", "need my driveway cleaned", []string{"Driveway Cleaning"})

	want := "Source: facebook\nMessage: need my driveway cleaned\nDetected services: Driveway Cleaning"
	if notes != want {
		t.Errorf("unexpected notes:\ngot:  %q\nwant: %q", notes, want)
	}
}

func TestSynthesizeNotesOmitsEmptyParts(t *testing.T) {
	notes := synthesizeNotes("form", "   ", nil)

	if notes != "Source: form" {
		t.Errorf("expected only source line, got %q", notes)
	}
}

func TestValidStatus(t *testing.T) {
	valid := []LeadStatus{StatusNew, StatusInterested, StatusNotInterested, StatusCallBack, StatusBooked, StatusCustomer}
	for _, s := range valid {
		if !ValidStatus(s) {
			t.Errorf("expected %q to be valid", s)
		}
	}
	for _, s := range []LeadStatus{"", "qualified", "NEW", "closed"} {
		if ValidStatus(s) {
			t.Errorf("expected %q to be invalid", s)
		}
	}
}

func TestDetectionSourceForConfidence(t *testing.T) {
	cases := []struct {
		confidence float64
		want       string
	}{
		{1.0, "explicit"},
		{0.8, "model"},
		{0.6, "keyword"},
		{0.3, "generic"},
		{0.0, "generic"},
	}
	for _, tc := range cases {
		if got := detectionSourceForConfidence(tc.confidence); got != tc.want {
			t.Errorf("detectionSourceForConfidence(%v) = %q, want %q", tc.confidence, got, tc.want)
		}
	}
}

package display

import "testing"

func TestOutcome(t *testing.T) {
	cases := []struct {
		code, want string
	}{
		{"updated", "Updated"},
		{"would-update", "Would update"},
		{"skipped-has-gps", "Skipped: already has GPS"},
		{"skipped-low-confidence", "Skipped: low confidence"},
		{"skipped-scattered", "Skipped: candidates scattered"},
		{"failed-read", "Failed: unreadable file"},
		{"failed-predict", "Failed: inference error"},
		{"failed-write", "Failed: write error"},
		{"unknown", "unknown"},
		{"", ""},
	}
	for _, tc := range cases {
		if got := Outcome(tc.code); got != tc.want {
			t.Errorf("Outcome(%q) = %q, want %q", tc.code, got, tc.want)
		}
	}
}

func TestOutcomeWithCode(t *testing.T) {
	if got := OutcomeWithCode("updated"); got != "Updated (updated)" {
		t.Errorf("got %q", got)
	}
	if got := OutcomeWithCode("unknown"); got != "unknown" {
		t.Errorf("got %q", got)
	}
}

func TestProvenance(t *testing.T) {
	cases := []struct {
		code, want string
	}{
		{"none", "No GPS"},
		{"ours", "Tagged by this tool"},
		{"external", "Camera or other tool"},
		{"odd", "odd"},
	}
	for _, tc := range cases {
		if got := Provenance(tc.code); got != tc.want {
			t.Errorf("Provenance(%q) = %q, want %q", tc.code, got, tc.want)
		}
	}
}

func TestGPSTag(t *testing.T) {
	if got := GPSTag("51.50000, -0.12000", "ours"); got != "51.50000, -0.12000 [geotag]" {
		t.Errorf("got %q", got)
	}
	if got := GPSTag("51.50000, -0.12000", "external"); got != "51.50000, -0.12000 [external]" {
		t.Errorf("got %q", got)
	}
	if got := GPSTag("-", "none"); got != "-" {
		t.Errorf("got %q", got)
	}
}

func TestBackend(t *testing.T) {
	if got := Backend("onnx"); got != "Local ONNX session" {
		t.Errorf("got %q", got)
	}
	if got := Backend("custom"); got != "custom" {
		t.Errorf("got %q", got)
	}
}

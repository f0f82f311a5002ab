package report

import "testing"

func TestConfidenceLabelBuckets(t *testing.T) {
	for x := 0; x <= 100; x++ {
		got := ConfidenceLabel(x)
		var want string
		switch {
		case x >= 70:
			want = "High"
		case x >= 40:
			want = "Medium"
		default:
			want = "Low"
		}
		if got != want {
			t.Fatalf("ConfidenceLabel(%d) = %q, want %q", x, got, want)
		}
	}
}

func TestConfidenceDisplayLabel(t *testing.T) {
	pct := 82
	if got := (Confidence{Percent: &pct}).DisplayLabel(); got != "High" {
		t.Fatalf("percent display label: %q", got)
	}
	if got := (Confidence{Label: "medium"}).DisplayLabel(); got != "Medium" {
		t.Fatalf("legacy display label: %q", got)
	}
	if got := (Confidence{Label: "LOW"}).DisplayLabel(); got != "Low" {
		t.Fatalf("legacy upper display label: %q", got)
	}
}

func TestTrackLabel(t *testing.T) {
	if got := TrackLabel("execution"); got != "Execution Track" {
		t.Fatalf("execution label: %q", got)
	}
	if got := TrackLabel("innovation_portfolio"); got != "Innovation Portfolio" {
		t.Fatalf("innovation label: %q", got)
	}
	if got := TrackLabel("frontier"); got != "Frontier" {
		t.Fatalf("fallback label: %q", got)
	}
}

func TestSeverityLabel(t *testing.T) {
	if got := SeverityLabel("high"); got != "High" {
		t.Fatalf("severity label: %q", got)
	}
	if got := SeverityLabel(""); got != "" {
		t.Fatalf("empty severity label: %q", got)
	}
}

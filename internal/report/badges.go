package report

import "strings"

// ConfidenceLabel buckets a 0-100 confidence percentage into the display
// label used across section renderers.
func ConfidenceLabel(percent int) string {
	switch {
	case percent >= 70:
		return "High"
	case percent >= 40:
		return "Medium"
	default:
		return "Low"
	}
}

// DisplayLabel returns the badge text for a confidence value of either
// vintage: percentages are bucketed, legacy labels are title-cased.
func (c Confidence) DisplayLabel() string {
	if c.Percent != nil {
		return ConfidenceLabel(*c.Percent)
	}
	return titleCase(c.Label)
}

// TrackLabel maps a recommendation branch name to its display label.
func TrackLabel(track string) string {
	switch strings.ToLower(strings.TrimSpace(track)) {
	case "execution", "execution_track":
		return "Execution Track"
	case "innovation", "innovation_portfolio":
		return "Innovation Portfolio"
	default:
		return titleCase(track)
	}
}

// SeverityLabel maps a severity or impact enum to its display label.
func SeverityLabel(severity string) string {
	return titleCase(severity)
}

func titleCase(v string) string {
	v = strings.TrimSpace(strings.ToLower(v))
	if v == "" {
		return ""
	}
	return strings.ToUpper(v[:1]) + v[1:]
}

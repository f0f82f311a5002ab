package report

import (
	"encoding/json"
	"errors"
	"fmt"
)

// document is the superset of the canonical schema and the legacy schema.
// Decode reads one of these and translates whichever schema the document
// used into the canonical Report.
type document struct {
	Report
	SolutionConcepts   *legacySolutions    `json:"solution_concepts,omitempty"`
	InnovationConcepts *legacyInnovations  `json:"innovation_concepts,omitempty"`
	Constraints        *ConstraintsMetrics `json:"constraints,omitempty"`
}

type legacySolutions struct {
	Primary    *legacyConcept  `json:"primary,omitempty"`
	Supporting []legacyConcept `json:"supporting,omitempty"`
}

type legacyInnovations struct {
	Recommended *legacyConcept  `json:"recommended,omitempty"`
	Parallel    []legacyConcept `json:"parallel,omitempty"`
	Frontier    []legacyConcept `json:"frontier,omitempty"`
}

type legacyConcept struct {
	ID                  string           `json:"id,omitempty"`
	Title               string           `json:"title,omitempty"`
	Summary             string           `json:"summary,omitempty"`
	Mechanism           string           `json:"mechanism,omitempty"`
	SourceDomain        string           `json:"source_domain,omitempty"`
	ConfidencePercent   *int             `json:"confidence_percent,omitempty"`
	Confidence          *Confidence      `json:"confidence,omitempty"`
	Economics           *legacyEconomics `json:"economics,omitempty"`
	FirstValidationStep string           `json:"first_validation_step,omitempty"`
	Risks               []Risk           `json:"risks,omitempty"`
	WhyThisWins         string           `json:"why_this_wins,omitempty"`
}

type legacyEconomics struct {
	ExpectedOutcome struct {
		Value string `json:"value,omitempty"`
	} `json:"expected_outcome,omitempty"`
}

// knownFields are the top-level keys consumed by the canonical or legacy
// schema. Anything else lands in Report.Extra for the fallback renderer.
var knownFields = map[string]bool{
	"report_type":             true,
	"title":                   true,
	"brief":                   true,
	"executive_summary":       true,
	"problem_analysis":        true,
	"constraints_and_metrics": true,
	"challenge_the_frame":     true,
	"cross_domain_search":     true,
	"execution_track":         true,
	"innovation_portfolio":    true,
	"honest_assessment":       true,
	"risks_and_watchouts":     true,
	"self_critique":           true,
	"strategic_integration":   true,
	"solution_concepts":       true,
	"innovation_concepts":     true,
	"constraints":             true,
}

// Decode parses a report document and normalizes it into the canonical
// schema. Normalization happens exactly once here, at fetch time; callers
// never re-normalize per render.
//
// Missing or partial sub-fields are never an error: a sparse document
// decodes to a sparse Report and the page degrades to whatever is present.
func Decode(data []byte) (*Report, error) {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("decode report: %w", err)
	}
	// json accepts a literal null for a map without error; a report document
	// must be an object.
	if raw == nil {
		return nil, errors.New("decode report: document must be a JSON object")
	}

	var doc document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("decode report: %w", err)
	}
	rep := doc.Report
	normalize(&rep, &doc)

	for key, val := range raw {
		if knownFields[key] {
			continue
		}
		if rep.Extra == nil {
			rep.Extra = map[string]json.RawMessage{}
		}
		rep.Extra[key] = val
	}
	return &rep, nil
}

// normalize translates legacy-schema fields into the canonical shape.
// If any canonical recommendation field is present the document is treated
// as current-schema and legacy concepts are ignored; only
// constraints_and_metrics is backfilled from legacy constraints.
func normalize(rep *Report, doc *document) {
	if rep.ConstraintsMetrics == nil && doc.Constraints != nil {
		rep.ConstraintsMetrics = doc.Constraints
	}
	if rep.ExecutionTrack != nil || rep.InnovationPortfolio != nil {
		return
	}
	if doc.SolutionConcepts != nil {
		track := &ExecutionTrack{}
		if doc.SolutionConcepts.Primary != nil {
			track.Primary = convertConcept(*doc.SolutionConcepts.Primary)
		}
		for _, lc := range doc.SolutionConcepts.Supporting {
			track.SupportingConcepts = append(track.SupportingConcepts, *convertConcept(lc))
		}
		rep.ExecutionTrack = track
	}
	if doc.InnovationConcepts != nil {
		port := &InnovationPortfolio{}
		if doc.InnovationConcepts.Recommended != nil {
			port.RecommendedInnovation = convertConcept(*doc.InnovationConcepts.Recommended)
		}
		for _, lc := range doc.InnovationConcepts.Parallel {
			port.ParallelInvestigations = append(port.ParallelInvestigations, *convertConcept(lc))
		}
		for _, lc := range doc.InnovationConcepts.Frontier {
			port.FrontierWatch = append(port.FrontierWatch, *convertConcept(lc))
		}
		rep.InnovationPortfolio = port
	}
}

func convertConcept(lc legacyConcept) *Concept {
	c := &Concept{
		ID:           lc.ID,
		Title:        lc.Title,
		Summary:      lc.Summary,
		Mechanism:    lc.Mechanism,
		SourceDomain: lc.SourceDomain,
		Risks:        lc.Risks,
		WhyThisWins:  lc.WhyThisWins,
	}
	switch {
	case lc.ConfidencePercent != nil:
		c.Confidence = &Confidence{Percent: lc.ConfidencePercent}
	case lc.Confidence != nil:
		c.Confidence = lc.Confidence
	}
	if lc.Economics != nil {
		c.ExpectedImprovement = lc.Economics.ExpectedOutcome.Value
	}
	if lc.FirstValidationStep != "" {
		c.ValidationGates = []string{lc.FirstValidationStep}
	}
	return c
}

package report

import (
	"encoding/json"
	"strconv"
	"strings"
)

// Report is the canonical shape every stored document is normalized into
// before anything renders it. Reports are produced by the generation
// pipeline, not by this service, so every field is optional: an absent
// field simply does not render.
type Report struct {
	ReportType           string                `json:"report_type,omitempty"`
	Title                string                `json:"title,omitempty"`
	Brief                string                `json:"brief,omitempty"`
	ExecutiveSummary     *Summary              `json:"executive_summary,omitempty"`
	ProblemAnalysis      *ProblemAnalysis      `json:"problem_analysis,omitempty"`
	ConstraintsMetrics   *ConstraintsMetrics   `json:"constraints_and_metrics,omitempty"`
	ChallengeTheFrame    *ChallengeTheFrame    `json:"challenge_the_frame,omitempty"`
	CrossDomainSearch    []CrossDomainFinding  `json:"cross_domain_search,omitempty"`
	ExecutionTrack       *ExecutionTrack       `json:"execution_track,omitempty"`
	InnovationPortfolio  *InnovationPortfolio  `json:"innovation_portfolio,omitempty"`
	HonestAssessment     *HonestAssessment     `json:"honest_assessment,omitempty"`
	RisksAndWatchouts    *RisksAndWatchouts    `json:"risks_and_watchouts,omitempty"`
	SelfCritique         *SelfCritique         `json:"self_critique,omitempty"`
	StrategicIntegration *StrategicIntegration `json:"strategic_integration,omitempty"`

	// Extra retains top-level keys outside the known set so additive
	// upstream schema changes degrade to a generic section instead of
	// disappearing.
	Extra map[string]json.RawMessage `json:"-"`
}

// MarshalJSON inlines the retained unknown fields, so the JSON view carries
// the same document the renderers degrade to. Canonical fields win on a key
// collision.
func (r Report) MarshalJSON() ([]byte, error) {
	type plain Report
	base, err := json.Marshal(plain(r))
	if err != nil {
		return nil, err
	}
	if len(r.Extra) == 0 {
		return base, nil
	}
	var merged map[string]json.RawMessage
	if err := json.Unmarshal(base, &merged); err != nil {
		return nil, err
	}
	for key, val := range r.Extra {
		if _, ok := merged[key]; !ok {
			merged[key] = val
		}
	}
	return json.Marshal(merged)
}

// Summary is the executive summary, which upstream emits either as freeform
// prose or as a structured headline/lead/recommendation object.
type Summary struct {
	Headline              string `json:"headline,omitempty"`
	NarrativeLead         string `json:"narrative_lead,omitempty"`
	PrimaryRecommendation string `json:"primary_recommendation,omitempty"`

	// Text holds the freeform variant. Exactly one of Text and the
	// structured fields is populated.
	Text string `json:"text,omitempty"`
}

func (s *Summary) UnmarshalJSON(data []byte) error {
	var text string
	if err := json.Unmarshal(data, &text); err == nil {
		*s = Summary{Text: text}
		return nil
	}
	type summary Summary
	var obj summary
	if err := json.Unmarshal(data, &obj); err != nil {
		return err
	}
	*s = Summary(obj)
	return nil
}

func (s *Summary) Empty() bool {
	return s == nil || (s.Text == "" && s.Headline == "" && s.NarrativeLead == "" && s.PrimaryRecommendation == "")
}

type ProblemAnalysis struct {
	CoreContradiction  string   `json:"core_contradiction,omitempty"`
	Narrative          string   `json:"narrative,omitempty"`
	KeyConstraints     []string `json:"key_constraints,omitempty"`
	RelevantPrinciples []string `json:"relevant_principles,omitempty"`
}

type ConstraintsMetrics struct {
	Constraints    []string `json:"constraints,omitempty"`
	SuccessMetrics []Metric `json:"success_metrics,omitempty"`
}

type Metric struct {
	Name   string `json:"name,omitempty"`
	Target string `json:"target,omitempty"`
}

type ChallengeTheFrame struct {
	ReframedProblem string       `json:"reframed_problem,omitempty"`
	Assumptions     []Assumption `json:"assumptions,omitempty"`
}

type Assumption struct {
	Assumption string `json:"assumption,omitempty"`
	Challenge  string `json:"challenge,omitempty"`
}

type CrossDomainFinding struct {
	Domain  string `json:"domain,omitempty"`
	Insight string `json:"insight,omitempty"`
	Analogy string `json:"analogy,omitempty"`
}

// ExecutionTrack is the safe-bet recommendation branch.
type ExecutionTrack struct {
	Primary            *Concept  `json:"primary,omitempty"`
	SupportingConcepts []Concept `json:"supporting_concepts,omitempty"`
}

// InnovationPortfolio is the higher-risk, higher-reward branch.
type InnovationPortfolio struct {
	RecommendedInnovation  *Concept  `json:"recommended_innovation,omitempty"`
	ParallelInvestigations []Concept `json:"parallel_investigations,omitempty"`
	FrontierWatch          []Concept `json:"frontier_watch,omitempty"`
}

// Concept is one recommended approach in either branch.
type Concept struct {
	ID                  string      `json:"id,omitempty"`
	Title               string      `json:"title,omitempty"`
	Summary             string      `json:"summary,omitempty"`
	Mechanism           string      `json:"mechanism,omitempty"`
	SourceDomain        string      `json:"source_domain,omitempty"`
	Confidence          *Confidence `json:"confidence,omitempty"`
	ExpectedImprovement string      `json:"expected_improvement,omitempty"`
	ValidationGates     []string    `json:"validation_gates,omitempty"`
	Risks               []Risk      `json:"risks,omitempty"`
	WhyThisWins         string      `json:"why_this_wins,omitempty"`
}

// Confidence arrives either as a 0-100 integer or as a legacy
// high|medium|low label, depending on report vintage.
type Confidence struct {
	Percent *int
	Label   string
}

func (c *Confidence) UnmarshalJSON(data []byte) error {
	var n int
	if err := json.Unmarshal(data, &n); err == nil {
		*c = Confidence{Percent: &n}
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	*c = Confidence{Label: strings.TrimSpace(s)}
	return nil
}

func (c Confidence) MarshalJSON() ([]byte, error) {
	if c.Percent != nil {
		return []byte(strconv.Itoa(*c.Percent)), nil
	}
	return json.Marshal(c.Label)
}

// Risk covers both risk shapes upstream emits: the DD-report shape
// {severity, risk, mitigation} and the hybrid-report shape
// {impact, probability, risk, mitigation}. The two are deliberately not
// merged; each display path reads the fields its family uses.
type Risk struct {
	Severity    string `json:"severity,omitempty"`
	Impact      string `json:"impact,omitempty"`
	Probability string `json:"probability,omitempty"`
	Risk        string `json:"risk,omitempty"`
	Mitigation  string `json:"mitigation,omitempty"`
}

type HonestAssessment struct {
	Verdict    string   `json:"verdict,omitempty"`
	Strengths  []string `json:"strengths,omitempty"`
	Weaknesses []string `json:"weaknesses,omitempty"`
}

type RisksAndWatchouts struct {
	Risks     []Risk   `json:"risks,omitempty"`
	Watchouts []string `json:"watchouts,omitempty"`
}

type SelfCritique struct {
	Critiques      []string `json:"critiques,omitempty"`
	ConfidenceNote string   `json:"confidence_note,omitempty"`
}

type StrategicIntegration struct {
	Narrative  string   `json:"narrative,omitempty"`
	Sequencing []string `json:"sequencing,omitempty"`
}

package report

// Section identifies one renderable slice of a canonical report.
type Section struct {
	ID    string `json:"id"`
	Title string `json:"title"`
}

// BriefSection is the synthetic head entry emitted when the user supplied a
// brief alongside the report.
var BriefSection = Section{ID: "brief", Title: "Brief"}

// sectionDefs is the fixed ordered list of renderable sections. Both the
// table of contents and the renderer iterate this list, so a section either
// appears in both or in neither.
var sectionDefs = []struct {
	Section
	present func(*Report) bool
}{
	{Section{"executive-summary", "Executive Summary"}, func(r *Report) bool { return !r.ExecutiveSummary.Empty() }},
	{Section{"problem-analysis", "Problem Analysis"}, func(r *Report) bool {
		p := r.ProblemAnalysis
		return p != nil && (p.CoreContradiction != "" || p.Narrative != "" || len(p.KeyConstraints) > 0 || len(p.RelevantPrinciples) > 0)
	}},
	{Section{"constraints-and-metrics", "Constraints and Metrics"}, func(r *Report) bool {
		c := r.ConstraintsMetrics
		return c != nil && (len(c.Constraints) > 0 || len(c.SuccessMetrics) > 0)
	}},
	{Section{"challenge-the-frame", "Challenge the Frame"}, func(r *Report) bool {
		c := r.ChallengeTheFrame
		return c != nil && (c.ReframedProblem != "" || len(c.Assumptions) > 0)
	}},
	{Section{"cross-domain-search", "Cross-Domain Search"}, func(r *Report) bool { return len(r.CrossDomainSearch) > 0 }},
	{Section{"execution-track", "Execution Track"}, func(r *Report) bool {
		t := r.ExecutionTrack
		return t != nil && (t.Primary != nil || len(t.SupportingConcepts) > 0)
	}},
	{Section{"innovation-portfolio", "Innovation Portfolio"}, func(r *Report) bool {
		p := r.InnovationPortfolio
		return p != nil && (p.RecommendedInnovation != nil || len(p.ParallelInvestigations) > 0 || len(p.FrontierWatch) > 0)
	}},
	{Section{"honest-assessment", "Honest Assessment"}, func(r *Report) bool {
		h := r.HonestAssessment
		return h != nil && (h.Verdict != "" || len(h.Strengths) > 0 || len(h.Weaknesses) > 0)
	}},
	{Section{"risks-and-watchouts", "Risks and Watchouts"}, func(r *Report) bool {
		w := r.RisksAndWatchouts
		return w != nil && (len(w.Risks) > 0 || len(w.Watchouts) > 0)
	}},
	{Section{"self-critique", "Self-Critique"}, func(r *Report) bool {
		c := r.SelfCritique
		return c != nil && (len(c.Critiques) > 0 || c.ConfidenceNote != "")
	}},
	{Section{"strategic-integration", "Strategic Integration"}, func(r *Report) bool {
		s := r.StrategicIntegration
		return s != nil && (s.Narrative != "" || len(s.Sequencing) > 0)
	}},
}

// Sections returns the presence map for a canonical report: the subset of
// the fixed section list that has renderable content, in the fixed order.
// Computed once per report and shared by the TOC and the renderer.
func (r *Report) Sections() []Section {
	var out []Section
	for _, def := range sectionDefs {
		if def.present(r) {
			out = append(out, def.Section)
		}
	}
	return out
}

// TableOfContents returns the section list for navigation, prefixed with
// the synthetic Brief entry when a brief was supplied.
func (r *Report) TableOfContents() []Section {
	sections := r.Sections()
	if r.Brief == "" {
		return sections
	}
	return append([]Section{BriefSection}, sections...)
}

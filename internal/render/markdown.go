package render

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/sparlo/reportd/internal/report"
)

// Markdown renders a canonical report as a single markdown document. Section
// order follows the report's presence map, so the output always matches the
// table of contents. Slices with no renderable content emit nothing.
func Markdown(rep *report.Report) string {
	var b strings.Builder
	title := rep.Title
	if title == "" {
		title = "Strategy Report"
	}
	fmt.Fprintf(&b, "# %s\n\n", sanitizeLine(title))
	fmt.Fprintf(&b, "*Estimated read time: %d min*\n\n", report.ReadTimeMinutes(rep))

	if rep.Brief != "" {
		fmt.Fprintf(&b, "## Brief\n\n%s\n\n", rep.Brief)
	}

	for _, sec := range rep.Sections() {
		switch sec.ID {
		case "executive-summary":
			appendExecutiveSummary(&b, rep.ExecutiveSummary)
		case "problem-analysis":
			appendProblemAnalysis(&b, rep.ProblemAnalysis)
		case "constraints-and-metrics":
			appendConstraintsMetrics(&b, rep.ConstraintsMetrics)
		case "challenge-the-frame":
			appendChallengeTheFrame(&b, rep.ChallengeTheFrame)
		case "cross-domain-search":
			appendCrossDomainSearch(&b, rep.CrossDomainSearch)
		case "execution-track":
			appendExecutionTrack(&b, rep.ExecutionTrack)
		case "innovation-portfolio":
			appendInnovationPortfolio(&b, rep.InnovationPortfolio)
		case "honest-assessment":
			appendHonestAssessment(&b, rep.HonestAssessment)
		case "risks-and-watchouts":
			appendRisksAndWatchouts(&b, rep.RisksAndWatchouts)
		case "self-critique":
			appendSelfCritique(&b, rep.SelfCritique)
		case "strategic-integration":
			appendStrategicIntegration(&b, rep.StrategicIntegration)
		}
	}

	appendUnknownSections(&b, rep.Extra)
	return b.String()
}

func appendExecutiveSummary(b *strings.Builder, s *report.Summary) {
	fmt.Fprintf(b, "## Executive Summary\n\n")
	if s.Text != "" {
		fmt.Fprintf(b, "%s\n\n", s.Text)
		return
	}
	if s.Headline != "" {
		fmt.Fprintf(b, "**%s**\n\n", sanitizeLine(s.Headline))
	}
	if s.NarrativeLead != "" {
		fmt.Fprintf(b, "%s\n\n", s.NarrativeLead)
	}
	if s.PrimaryRecommendation != "" {
		fmt.Fprintf(b, "Primary recommendation: %s\n\n", sanitizeLine(s.PrimaryRecommendation))
	}
}

func appendProblemAnalysis(b *strings.Builder, p *report.ProblemAnalysis) {
	fmt.Fprintf(b, "## Problem Analysis\n\n")
	if p.CoreContradiction != "" {
		fmt.Fprintf(b, "Core contradiction: %s\n\n", sanitizeLine(p.CoreContradiction))
	}
	if p.Narrative != "" {
		fmt.Fprintf(b, "%s\n\n", p.Narrative)
	}
	if len(p.KeyConstraints) > 0 {
		fmt.Fprintf(b, "Key constraints:\n\n")
		for _, c := range p.KeyConstraints {
			fmt.Fprintf(b, "- %s\n", sanitizeLine(c))
		}
		b.WriteString("\n")
	}
	if len(p.RelevantPrinciples) > 0 {
		fmt.Fprintf(b, "Relevant principles:\n\n")
		for _, pr := range p.RelevantPrinciples {
			fmt.Fprintf(b, "- %s\n", sanitizeLine(pr))
		}
		b.WriteString("\n")
	}
}

func appendConstraintsMetrics(b *strings.Builder, c *report.ConstraintsMetrics) {
	fmt.Fprintf(b, "## Constraints and Metrics\n\n")
	for _, con := range c.Constraints {
		fmt.Fprintf(b, "- %s\n", sanitizeLine(con))
	}
	if len(c.Constraints) > 0 {
		b.WriteString("\n")
	}
	if len(c.SuccessMetrics) > 0 {
		fmt.Fprintf(b, "| Metric | Target |\n|---|---|\n")
		for _, m := range c.SuccessMetrics {
			fmt.Fprintf(b, "| %s | %s |\n", sanitizeLine(m.Name), sanitizeLine(m.Target))
		}
		b.WriteString("\n")
	}
}

func appendChallengeTheFrame(b *strings.Builder, c *report.ChallengeTheFrame) {
	fmt.Fprintf(b, "## Challenge the Frame\n\n")
	if c.ReframedProblem != "" {
		fmt.Fprintf(b, "Reframed problem: %s\n\n", sanitizeLine(c.ReframedProblem))
	}
	for _, a := range c.Assumptions {
		if a.Assumption == "" && a.Challenge == "" {
			continue
		}
		fmt.Fprintf(b, "- Assumption: %s\n", sanitizeLine(a.Assumption))
		if a.Challenge != "" {
			fmt.Fprintf(b, "  - Challenge: %s\n", sanitizeLine(a.Challenge))
		}
	}
	if len(c.Assumptions) > 0 {
		b.WriteString("\n")
	}
}

func appendCrossDomainSearch(b *strings.Builder, findings []report.CrossDomainFinding) {
	fmt.Fprintf(b, "## Cross-Domain Search\n\n")
	for _, f := range findings {
		if f.Domain != "" {
			fmt.Fprintf(b, "### %s\n\n", sanitizeLine(f.Domain))
		}
		if f.Insight != "" {
			fmt.Fprintf(b, "%s\n\n", f.Insight)
		}
		if f.Analogy != "" {
			fmt.Fprintf(b, "Analogy: %s\n\n", sanitizeLine(f.Analogy))
		}
	}
}

func appendExecutionTrack(b *strings.Builder, t *report.ExecutionTrack) {
	fmt.Fprintf(b, "## Execution Track\n\n")
	if t.Primary != nil {
		fmt.Fprintf(b, "### Primary Recommendation\n\n")
		appendConcept(b, *t.Primary)
	}
	if len(t.SupportingConcepts) > 0 {
		fmt.Fprintf(b, "### Supporting Concepts\n\n")
		for _, c := range t.SupportingConcepts {
			appendConcept(b, c)
		}
	}
}

func appendInnovationPortfolio(b *strings.Builder, p *report.InnovationPortfolio) {
	fmt.Fprintf(b, "## Innovation Portfolio\n\n")
	if p.RecommendedInnovation != nil {
		fmt.Fprintf(b, "### Recommended Innovation\n\n")
		appendConcept(b, *p.RecommendedInnovation)
	}
	if len(p.ParallelInvestigations) > 0 {
		fmt.Fprintf(b, "### Parallel Investigations\n\n")
		for _, c := range p.ParallelInvestigations {
			appendConcept(b, c)
		}
	}
	if len(p.FrontierWatch) > 0 {
		fmt.Fprintf(b, "### Frontier Watch\n\n")
		for _, c := range p.FrontierWatch {
			appendConcept(b, c)
		}
	}
}

func appendConcept(b *strings.Builder, c report.Concept) {
	title := c.Title
	if title == "" {
		title = c.ID
	}
	if title == "" {
		title = "Unnamed concept"
	}
	fmt.Fprintf(b, "**%s**", sanitizeLine(title))
	if c.Confidence != nil {
		fmt.Fprintf(b, " — confidence: %s", c.Confidence.DisplayLabel())
	}
	b.WriteString("\n\n")
	if c.Summary != "" {
		fmt.Fprintf(b, "%s\n\n", c.Summary)
	}
	if c.Mechanism != "" {
		fmt.Fprintf(b, "- Mechanism: %s\n", sanitizeLine(c.Mechanism))
	}
	if c.SourceDomain != "" {
		fmt.Fprintf(b, "- Source domain: %s\n", sanitizeLine(c.SourceDomain))
	}
	if c.ExpectedImprovement != "" {
		fmt.Fprintf(b, "- Expected improvement: %s\n", sanitizeLine(c.ExpectedImprovement))
	}
	for i, g := range c.ValidationGates {
		fmt.Fprintf(b, "- Validation gate %d: %s\n", i+1, sanitizeLine(g))
	}
	if c.WhyThisWins != "" {
		fmt.Fprintf(b, "- Why this wins: %s\n", sanitizeLine(c.WhyThisWins))
	}
	appendRisks(b, c.Risks)
	b.WriteString("\n")
}

// appendRisks handles both risk shapes without merging them: the DD-report
// shape uses severity, the hybrid-report shape uses impact/probability.
func appendRisks(b *strings.Builder, risks []report.Risk) {
	for _, r := range risks {
		switch {
		case r.Severity != "":
			fmt.Fprintf(b, "- Risk (%s): %s", report.SeverityLabel(r.Severity), sanitizeLine(r.Risk))
		case r.Impact != "" || r.Probability != "":
			fmt.Fprintf(b, "- Risk (impact %s, probability %s): %s",
				report.SeverityLabel(r.Impact), report.SeverityLabel(r.Probability), sanitizeLine(r.Risk))
		default:
			fmt.Fprintf(b, "- Risk: %s", sanitizeLine(r.Risk))
		}
		if r.Mitigation != "" {
			fmt.Fprintf(b, " Mitigation: %s", sanitizeLine(r.Mitigation))
		}
		b.WriteString("\n")
	}
}

func appendHonestAssessment(b *strings.Builder, h *report.HonestAssessment) {
	fmt.Fprintf(b, "## Honest Assessment\n\n")
	if h.Verdict != "" {
		fmt.Fprintf(b, "%s\n\n", h.Verdict)
	}
	for _, s := range h.Strengths {
		fmt.Fprintf(b, "- Strength: %s\n", sanitizeLine(s))
	}
	for _, w := range h.Weaknesses {
		fmt.Fprintf(b, "- Weakness: %s\n", sanitizeLine(w))
	}
	if len(h.Strengths)+len(h.Weaknesses) > 0 {
		b.WriteString("\n")
	}
}

func appendRisksAndWatchouts(b *strings.Builder, w *report.RisksAndWatchouts) {
	fmt.Fprintf(b, "## Risks and Watchouts\n\n")
	appendRisks(b, w.Risks)
	for _, wo := range w.Watchouts {
		fmt.Fprintf(b, "- Watchout: %s\n", sanitizeLine(wo))
	}
	b.WriteString("\n")
}

func appendSelfCritique(b *strings.Builder, c *report.SelfCritique) {
	fmt.Fprintf(b, "## Self-Critique\n\n")
	for _, cr := range c.Critiques {
		fmt.Fprintf(b, "- %s\n", sanitizeLine(cr))
	}
	if len(c.Critiques) > 0 {
		b.WriteString("\n")
	}
	if c.ConfidenceNote != "" {
		fmt.Fprintf(b, "%s\n\n", c.ConfidenceNote)
	}
}

func appendStrategicIntegration(b *strings.Builder, s *report.StrategicIntegration) {
	fmt.Fprintf(b, "## Strategic Integration\n\n")
	if s.Narrative != "" {
		fmt.Fprintf(b, "%s\n\n", s.Narrative)
	}
	if len(s.Sequencing) > 0 {
		for i, step := range s.Sequencing {
			fmt.Fprintf(b, "%d. %s\n", i+1, sanitizeLine(step))
		}
		b.WriteString("\n")
	}
}

// appendUnknownSections renders retained top-level fields outside the known
// set as generic JSON sections, so new upstream fields show up instead of
// being dropped.
func appendUnknownSections(b *strings.Builder, extra map[string]json.RawMessage) {
	if len(extra) == 0 {
		return
	}
	for _, key := range sortedKeys(extra) {
		fmt.Fprintf(b, "## %s\n\n", humanizeFieldName(key))
		pretty := prettyJSON(extra[key])
		fmt.Fprintf(b, "```json\n%s\n```\n\n", pretty)
	}
}

func prettyJSON(raw json.RawMessage) string {
	var v any
	if err := json.Unmarshal(raw, &v); err != nil {
		return string(raw)
	}
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return string(raw)
	}
	return string(out)
}

func humanizeFieldName(key string) string {
	parts := strings.Split(key, "_")
	for i, p := range parts {
		if p == "" {
			continue
		}
		parts[i] = strings.ToUpper(p[:1]) + p[1:]
	}
	return strings.Join(parts, " ")
}

func sortedKeys(m map[string]json.RawMessage) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func sanitizeLine(v string) string {
	v = strings.ReplaceAll(v, "\n", " ")
	return strings.TrimSpace(v)
}

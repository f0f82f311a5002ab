package render

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/sparlo/reportd/internal/report"
)

func TestMarkdownEmptyReportHasNoSections(t *testing.T) {
	md := Markdown(&report.Report{})
	if strings.Contains(md, "## ") {
		t.Fatalf("empty report rendered a section:\n%s", md)
	}
	if !strings.Contains(md, "# Strategy Report") {
		t.Fatalf("expected fallback title:\n%s", md)
	}
}

func TestMarkdownSectionHeadingsFollowPresence(t *testing.T) {
	rep := &report.Report{
		ExecutiveSummary: &report.Summary{Text: "Do the safe thing."},
		HonestAssessment: &report.HonestAssessment{Verdict: "Workable."},
	}
	md := Markdown(rep)
	if !strings.Contains(md, "## Executive Summary") {
		t.Fatal("missing executive summary heading")
	}
	if !strings.Contains(md, "## Honest Assessment") {
		t.Fatal("missing honest assessment heading")
	}
	if strings.Contains(md, "## Problem Analysis") {
		t.Fatal("absent slice must not render")
	}
}

func TestMarkdownConceptConfidenceBadge(t *testing.T) {
	pct := 82
	rep := &report.Report{
		ExecutionTrack: &report.ExecutionTrack{Primary: &report.Concept{
			Title:      "Use X",
			Confidence: &report.Confidence{Percent: &pct},
		}},
	}
	md := Markdown(rep)
	if !strings.Contains(md, "confidence: High") {
		t.Fatalf("expected bucketed confidence label:\n%s", md)
	}
}

func TestMarkdownBothRiskShapes(t *testing.T) {
	rep := &report.Report{
		RisksAndWatchouts: &report.RisksAndWatchouts{
			Risks: []report.Risk{
				{Severity: "high", Risk: "Vendor slips the date", Mitigation: "Dual-source"},
				{Impact: "medium", Probability: "low", Risk: "Tooling wear"},
			},
		},
	}
	md := Markdown(rep)
	if !strings.Contains(md, "Risk (High): Vendor slips the date") {
		t.Fatalf("dd-report risk shape not rendered:\n%s", md)
	}
	if !strings.Contains(md, "Risk (impact Medium, probability Low): Tooling wear") {
		t.Fatalf("hybrid-report risk shape not rendered:\n%s", md)
	}
	if !strings.Contains(md, "Mitigation: Dual-source") {
		t.Fatalf("mitigation missing:\n%s", md)
	}
}

func TestMarkdownUnknownFieldFallback(t *testing.T) {
	rep := &report.Report{
		Extra: map[string]json.RawMessage{
			"regulatory_outlook": json.RawMessage(`{"summary":"New rules in 2027."}`),
		},
	}
	md := Markdown(rep)
	if !strings.Contains(md, "## Regulatory Outlook") {
		t.Fatalf("unknown field must render as a generic section:\n%s", md)
	}
	if !strings.Contains(md, "New rules in 2027.") {
		t.Fatalf("unknown field content missing:\n%s", md)
	}
}

func TestMarkdownBriefSection(t *testing.T) {
	rep := &report.Report{Brief: "Reduce scrap on line 4."}
	md := Markdown(rep)
	if !strings.Contains(md, "## Brief") || !strings.Contains(md, "Reduce scrap on line 4.") {
		t.Fatalf("brief section missing:\n%s", md)
	}
}

func TestHTMLDocument(t *testing.T) {
	pct := 45
	rep := &report.Report{
		Title:            "Thermal <rework>",
		ExecutiveSummary: &report.Summary{Text: "Do the safe thing."},
		ExecutionTrack: &report.ExecutionTrack{Primary: &report.Concept{
			Title:      "Ducting",
			Confidence: &report.Confidence{Percent: &pct},
		}},
	}
	doc, err := HTMLDocument(rep)
	if err != nil {
		t.Fatalf("HTMLDocument: %v", err)
	}
	if !strings.Contains(doc, "<title>Thermal &lt;rework&gt;</title>") {
		t.Fatal("title must be escaped")
	}
	if !strings.Contains(doc, "Confidence: Medium") {
		t.Fatal("expected confidence badge")
	}
	if !strings.Contains(doc, "href='#executive-summary'") {
		t.Fatal("expected toc entry for executive summary")
	}
	if !strings.Contains(doc, "<h2") {
		t.Fatal("expected converted markdown headings")
	}
}

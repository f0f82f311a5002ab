package render

import (
	"fmt"
	"html"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/parser"

	"github.com/sparlo/reportd/internal/report"
)

const baseCSS = `
body{font-family:Georgia,serif;color:#1c1917;max-width:860px;margin:0 auto;padding:1.25rem;line-height:1.55;}
h1{font-size:1.7rem;border-bottom:2px solid #92400e;padding-bottom:0.4rem;}
h2{font-size:1.25rem;margin-top:1.6rem;color:#44403c;}
h3{font-size:1.05rem;}
.report-meta{color:#57534e;font-size:0.85rem;margin-bottom:1rem;}
.report-meta strong{color:#1c1917;}
.report-badge{display:inline-block;background:#fef3c7;color:#78350f;border:1px solid #fcd34d;border-radius:3px;padding:0.1rem 0.45rem;margin-right:0.35rem;font-size:0.75rem;}
.report-toc{background:#f5f5f4;border:1px solid #d6d3d1;padding:0.6rem 1rem;font-size:0.85rem;}
.report-toc a{color:#1d4ed8;text-decoration:none;}
table{width:100%;border-collapse:collapse;font-size:0.85rem;}
th,td{border:1px solid #a8a29e;padding:0.35rem 0.45rem;text-align:left;vertical-align:top;}
thead th{background:#f1f5f9;font-weight:700;}
code{background:#f5f5f4;padding:0 0.2rem;}
pre{background:#f5f5f4;padding:0.6rem;overflow-x:auto;font-size:0.8rem;}
`

// MarkdownToHTML converts GFM markdown to an HTML fragment.
func MarkdownToHTML(markdown string) (string, error) {
	var out strings.Builder
	md := goldmark.New(
		goldmark.WithExtensions(extension.GFM),
		goldmark.WithParserOptions(parser.WithAutoHeadingID()),
	)
	if err := md.Convert([]byte(markdown), &out); err != nil {
		return "", fmt.Errorf("markdown convert: %w", err)
	}
	return out.String(), nil
}

// HTMLDocument renders the full standalone page for a canonical report:
// meta header, confidence badge, table of contents, then the converted
// section markdown.
func HTMLDocument(rep *report.Report) (string, error) {
	contentHTML, err := MarkdownToHTML(Markdown(rep))
	if err != nil {
		return "", err
	}

	title := rep.Title
	if title == "" {
		title = "Strategy Report"
	}

	var meta strings.Builder
	fmt.Fprintf(&meta, "<div><strong>Read time:</strong> %d min</div>", report.ReadTimeMinutes(rep))
	if rep.ReportType != "" {
		fmt.Fprintf(&meta, "<div><strong>Report type:</strong> %s</div>", html.EscapeString(rep.ReportType))
	}

	var badges strings.Builder
	if t := rep.ExecutionTrack; t != nil && t.Primary != nil {
		fmt.Fprintf(&badges, "<span class='report-badge'>%s</span>",
			html.EscapeString(report.TrackLabel("execution")))
		if t.Primary.Confidence != nil {
			fmt.Fprintf(&badges, "<span class='report-badge'>Confidence: %s</span>",
				html.EscapeString(t.Primary.Confidence.DisplayLabel()))
		}
	} else if p := rep.InnovationPortfolio; p != nil && p.RecommendedInnovation != nil {
		fmt.Fprintf(&badges, "<span class='report-badge'>%s</span>",
			html.EscapeString(report.TrackLabel("innovation")))
	}

	var toc strings.Builder
	entries := rep.TableOfContents()
	if len(entries) > 0 {
		toc.WriteString("<nav class='report-toc'><strong>Contents</strong><ol>")
		for _, s := range entries {
			fmt.Fprintf(&toc, "<li><a href='#%s'>%s</a></li>",
				html.EscapeString(s.ID), html.EscapeString(s.Title))
		}
		toc.WriteString("</ol></nav>")
	}

	return "<!doctype html><html><head><meta charset='utf-8'><title>" +
		html.EscapeString(title) + "</title>" +
		"<style>" + baseCSS + "</style></head><body>" +
		"<div class='report-meta'>" + meta.String() + "</div>" +
		"<div class='report-badges'>" + badges.String() + "</div>" +
		toc.String() +
		"<div class='report-html'>" + contentHTML + "</div>" +
		"</body></html>", nil
}

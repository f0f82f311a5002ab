package pdf

import (
	"context"
	"encoding/base64"
	"os"
	"regexp"
	"strings"
	"time"

	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/chromedp"

	"github.com/sparlo/reportd/internal/render"
	"github.com/sparlo/reportd/internal/report"
)

// Renderer turns a canonical report into a PDF document.
type Renderer interface {
	Render(ctx context.Context, rep *report.Report) ([]byte, error)
}

// ChromiumRenderer prints the report's HTML view through headless Chromium.
type ChromiumRenderer struct {
	chromePath string
}

// NewChromiumRenderer builds a renderer using chromePath, or a detected
// system browser when chromePath is empty.
func NewChromiumRenderer(chromePath string) *ChromiumRenderer {
	if chromePath == "" {
		chromePath = detectChromePath()
	}
	return &ChromiumRenderer{chromePath: chromePath}
}

func (r *ChromiumRenderer) Render(ctx context.Context, rep *report.Report) ([]byte, error) {
	htmlDoc, err := render.HTMLDocument(rep)
	if err != nil {
		return nil, err
	}
	htmlDoc = applyPrintLayoutHooks(htmlDoc)

	timeoutCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	opts := []chromedp.ExecAllocatorOption{
		chromedp.NoSandbox,
		chromedp.DisableGPU,
		chromedp.Flag("disable-dev-shm-usage", true),
	}
	if r.chromePath != "" {
		opts = append(opts, chromedp.ExecPath(r.chromePath))
	}
	allocCtx, allocCancel := chromedp.NewExecAllocator(timeoutCtx, append(chromedp.DefaultExecAllocatorOptions[:], opts...)...)
	defer allocCancel()

	taskCtx, taskCancel := chromedp.NewContext(allocCtx)
	defer taskCancel()

	var pdf []byte
	dataURL := "data:text/html;base64," + base64.StdEncoding.EncodeToString([]byte(htmlDoc))
	if err := chromedp.Run(taskCtx,
		chromedp.Navigate(dataURL),
		chromedp.WaitReady("body", chromedp.ByQuery),
		chromedp.ActionFunc(func(ctx context.Context) error {
			footer := `<div style="width:100%;text-align:center;font-size:9px;color:#666;">` +
				`Page <span class="pageNumber"></span> of <span class="totalPages"></span></div>`
			out, _, err := page.PrintToPDF().
				WithPrintBackground(true).
				WithDisplayHeaderFooter(true).
				WithHeaderTemplate(`<div></div>`).
				WithFooterTemplate(footer).
				WithPaperWidth(8.27).
				WithPaperHeight(11.69).
				WithMarginTop(0.5).
				WithMarginBottom(0.75).
				WithMarginLeft(0.45).
				WithMarginRight(0.45).
				Do(ctx)
			if err != nil {
				return err
			}
			pdf = out
			return nil
		}),
	); err != nil {
		return nil, err
	}
	return pdf, nil
}

// applyPrintLayoutHooks marks the Innovation Portfolio heading so the
// higher-risk branch starts on a fresh page, and forces background colors
// to survive printing.
func applyPrintLayoutHooks(htmlDoc string) string {
	rePortfolio := regexp.MustCompile(`(?i)<h2([^>]*)>\s*Innovation Portfolio\s*</h2>`)
	out := rePortfolio.ReplaceAllString(htmlDoc, `<h2$1 style="break-before:page;page-break-before:always;">Innovation Portfolio</h2>`)
	return strings.Replace(out, "</style>",
		"\nhtml,body,*{-webkit-print-color-adjust:exact !important;print-color-adjust:exact !important;}</style>", 1)
}

func detectChromePath() string {
	candidates := []string{
		"/usr/bin/chromium-browser",
		"/usr/bin/chromium",
		"/usr/bin/google-chrome",
	}
	for _, p := range candidates {
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}
	return ""
}

package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/sparlo/reportd/internal/pdf"
	"github.com/sparlo/reportd/internal/render"
	"github.com/sparlo/reportd/internal/report"
)

func main() {
	inputPath := flag.String("input", "", "Path to report JSON (legacy or current schema)")
	outputPath := flag.String("output", "", "Path to write markdown (defaults to stdout)")
	htmlPath := flag.String("html", "", "Optional path to write the HTML document")
	pdfPath := flag.String("pdf", "", "Optional path to write a PDF (requires a local Chromium)")
	chromePath := flag.String("chrome", "", "Chromium binary to use for PDF output")
	flag.Parse()

	if *inputPath == "" {
		log.Fatal("missing required -input")
	}

	in, err := os.ReadFile(*inputPath)
	if err != nil {
		log.Fatalf("read input: %v", err)
	}

	rep, err := report.Decode(in)
	if err != nil {
		log.Fatalf("decode report JSON: %v", err)
	}

	markdown := render.Markdown(rep)
	if err := writeMarkdown(*outputPath, markdown); err != nil {
		log.Fatalf("write markdown: %v", err)
	}

	if *htmlPath != "" {
		doc, err := render.HTMLDocument(rep)
		if err != nil {
			log.Fatalf("render html: %v", err)
		}
		if err := os.WriteFile(*htmlPath, []byte(doc), 0o644); err != nil {
			log.Fatalf("write html: %v", err)
		}
	}

	if *pdfPath != "" {
		renderer := pdf.NewChromiumRenderer(*chromePath)
		blob, err := renderer.Render(context.Background(), rep)
		if err != nil {
			log.Fatalf("render pdf: %v", err)
		}
		if err := pdf.WriteFile(*pdfPath, blob); err != nil {
			log.Fatalf("write pdf: %v", err)
		}
	}
}

func writeMarkdown(outputPath, markdown string) error {
	if outputPath == "" {
		_, err := fmt.Print(markdown)
		return err
	}
	return os.WriteFile(outputPath, []byte(markdown), 0o644)
}

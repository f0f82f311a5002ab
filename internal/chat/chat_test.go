package chat

import (
	"context"
	"errors"
	"strings"
	"testing"

	anthropic "github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"github.com/sparlo/reportd/internal/report"
)

type fakeMessager struct {
	lastParams anthropic.MessageNewParams
	reply      string
	err        error
}

func (f *fakeMessager) New(ctx context.Context, params anthropic.MessageNewParams, opts ...option.RequestOption) (*anthropic.Message, error) {
	f.lastParams = params
	if f.err != nil {
		return nil, f.err
	}
	return &anthropic.Message{
		Content: []anthropic.ContentBlockUnion{{Type: "text", Text: f.reply}},
	}, nil
}

func TestReplyGroundsOnReport(t *testing.T) {
	fake := &fakeMessager{reply: "The primary concept is ducting."}
	svc := NewService(fake)
	rep := &report.Report{
		Title:          "Thermal rework",
		ExecutionTrack: &report.ExecutionTrack{Primary: &report.Concept{Title: "Ducting"}},
	}

	answer, err := svc.Reply(context.Background(), rep, nil, "What is the primary concept?")
	if err != nil {
		t.Fatalf("Reply: %v", err)
	}
	if answer != "The primary concept is ducting." {
		t.Fatalf("unexpected answer %q", answer)
	}

	foundReport := false
	for _, block := range fake.lastParams.System {
		if strings.Contains(block.Text, "Ducting") {
			foundReport = true
		}
	}
	if !foundReport {
		t.Fatal("rendered report must be injected as system context")
	}
}

func TestReplyCarriesHistory(t *testing.T) {
	fake := &fakeMessager{reply: "ok"}
	svc := NewService(fake)
	history := []Message{
		{Role: "user", Content: "Summarize the report."},
		{Role: "assistant", Content: "It recommends ducting."},
	}
	if _, err := svc.Reply(context.Background(), &report.Report{}, history, "And the risks?"); err != nil {
		t.Fatalf("Reply: %v", err)
	}
	if got := len(fake.lastParams.Messages); got != 3 {
		t.Fatalf("expected history plus prompt (3 messages), got %d", got)
	}
}

func TestReplyRejectsEmptyPrompt(t *testing.T) {
	svc := NewService(&fakeMessager{reply: "x"})
	if _, err := svc.Reply(context.Background(), &report.Report{}, nil, "   "); err == nil {
		t.Fatal("expected error for empty prompt")
	}
}

func TestReplyPropagatesTransportError(t *testing.T) {
	svc := NewService(&fakeMessager{err: errors.New("boom")})
	if _, err := svc.Reply(context.Background(), &report.Report{}, nil, "hi"); err == nil {
		t.Fatal("expected transport error")
	}
}

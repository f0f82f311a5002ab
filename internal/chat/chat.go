package chat

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	anthropic "github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"github.com/sparlo/reportd/internal/render"
	"github.com/sparlo/reportd/internal/report"
)

const systemPrompt = "You are Sparlo, a strategy analyst discussing one due-diligence report with its reader. " +
	"Ground every answer in the report content provided in the system context; if the report does not cover " +
	"the question, say so before reasoning further. Answer in Markdown with short sections and bullet lists " +
	"when helpful."

// Message is one turn of the report discussion. Role is "user" or
// "assistant"; the client sends the prior turns pre-built.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Messager is the slice of the Anthropic client the service needs, kept
// small so tests can fake it.
type Messager interface {
	New(ctx context.Context, params anthropic.MessageNewParams, opts ...option.RequestOption) (*anthropic.Message, error)
}

// Service answers chat questions about a single report.
type Service struct {
	messages Messager
}

func NewService(messages Messager) *Service {
	return &Service{messages: messages}
}

// NewServiceFromEnv builds a Service from ANTHROPIC_API_KEY.
func NewServiceFromEnv() (*Service, error) {
	apiKey := strings.TrimSpace(os.Getenv("ANTHROPIC_API_KEY"))
	if apiKey == "" {
		return nil, errors.New("ANTHROPIC_API_KEY not configured")
	}
	c := anthropic.NewClient(option.WithAPIKey(apiKey))
	return NewService(&c.Messages), nil
}

// Reply answers the latest user turn in the context of the report. History
// carries the earlier turns; the rendered report markdown is injected as
// system context so answers stay grounded.
func (s *Service) Reply(ctx context.Context, rep *report.Report, history []Message, prompt string) (string, error) {
	prompt = strings.TrimSpace(prompt)
	if prompt == "" {
		return "", errors.New("prompt required")
	}

	system := []anthropic.TextBlockParam{
		{Text: systemPrompt},
		{Text: "Report under discussion:\n\n" + render.Markdown(rep)},
	}

	var msgs []anthropic.MessageParam
	for _, m := range history {
		switch m.Role {
		case "user":
			msgs = append(msgs, anthropic.NewUserMessage(anthropic.NewTextBlock(m.Content)))
		case "assistant":
			msgs = append(msgs, anthropic.NewAssistantMessage(anthropic.NewTextBlock(m.Content)))
		}
	}
	msgs = append(msgs, anthropic.NewUserMessage(anthropic.NewTextBlock(prompt)))

	resp, err := s.messages.New(ctx, anthropic.MessageNewParams{
		Model:     anthropic.ModelClaudeSonnet4_20250514,
		MaxTokens: 2048,
		System:    system,
		Messages:  msgs,
	})
	if err != nil {
		return "", fmt.Errorf("chat completion: %w", err)
	}
	var sb strings.Builder
	for _, b := range resp.Content {
		if b.Type == "text" {
			sb.WriteString(b.Text)
		}
	}
	answer := strings.TrimSpace(sb.String())
	if answer == "" {
		return "", errors.New("empty completion")
	}
	return answer, nil
}

// Package llm provides a provider-agnostic chat client for the extraction
// and question-generation pipelines, including vision input for OCR.
package llm

import (
	"context"

	"github.com/rotisserie/eris"
)

// Client defines the chat operations used by the pipelines.
type Client interface {
	Chat(ctx context.Context, req ChatRequest) (string, error)
}

// ChatRequest is a single chat completion request.
type ChatRequest struct {
	Model       string
	Messages    []Message
	MaxTokens   int
	Temperature *float64
}

// Message is one conversational message. Parts takes precedence over Content
// when set, for multimodal (vision) input.
type Message struct {
	Role    string // "system", "user" or "assistant"
	Content string
	Parts   []Part
}

// Part is one block of a multimodal message. Exactly one field is set.
type Part struct {
	Text     string
	ImageURL string // data URL, e.g. data:image/png;base64,...
}

// Config selects and configures a provider.
type Config struct {
	Provider          string // "siliconflow" or "anthropic"
	APIKey            string
	BaseURL           string  // siliconflow only
	RequestsPerMinute float64 // 0 disables client-side rate limiting
}

// New builds a Client for the configured provider.
func New(cfg Config) (Client, error) {
	switch cfg.Provider {
	case "", "siliconflow":
		return NewSiliconFlow(cfg), nil
	case "anthropic":
		return NewAnthropic(cfg), nil
	default:
		return nil, eris.Errorf("llm: unknown provider %q", cfg.Provider)
	}
}

package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"time"

	"github.com/rotisserie/eris"
	"golang.org/x/time/rate"
)

const defaultSiliconFlowBaseURL = "https://api.siliconflow.cn/v1"

// SiliconFlow is an OpenAI-compatible chat client.
type SiliconFlow struct {
	apiKey  string
	baseURL string
	client  *http.Client
	limiter *rate.Limiter
}

// NewSiliconFlow creates a SiliconFlow client. If cfg.BaseURL is empty the
// public endpoint is used.
func NewSiliconFlow(cfg Config) *SiliconFlow {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = defaultSiliconFlowBaseURL
	}
	limiter := rate.NewLimiter(rate.Inf, 1)
	if cfg.RequestsPerMinute > 0 {
		limiter = rate.NewLimiter(rate.Limit(cfg.RequestsPerMinute/60), 1)
	}
	return &SiliconFlow{
		apiKey:  cfg.APIKey,
		baseURL: baseURL,
		client:  &http.Client{Timeout: 120 * time.Second},
		limiter: limiter,
	}
}

type sfRequest struct {
	Model       string      `json:"model"`
	Messages    []sfMessage `json:"messages"`
	MaxTokens   int         `json:"max_tokens,omitempty"`
	Temperature *float64    `json:"temperature,omitempty"`
}

type sfMessage struct {
	Role    string `json:"role"`
	Content any    `json:"content"` // string or []sfPart
}

type sfPart struct {
	Type     string      `json:"type"`
	Text     string      `json:"text,omitempty"`
	ImageURL *sfImageURL `json:"image_url,omitempty"`
}

type sfImageURL struct {
	URL string `json:"url"`
}

type sfResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

// Chat sends a completion request, retrying transient failures.
func (c *SiliconFlow) Chat(ctx context.Context, req ChatRequest) (string, error) {
	body, err := json.Marshal(toSFRequest(req))
	if err != nil {
		return "", eris.Wrap(err, "llm: marshal siliconflow request")
	}

	return doWithRetry(ctx, "siliconflow chat", func(ctx context.Context) (string, error) {
		if err := c.limiter.Wait(ctx); err != nil {
			return "", eris.Wrap(err, "llm: rate limiter wait")
		}
		return c.chatOnce(ctx, body)
	})
}

func (c *SiliconFlow) chatOnce(ctx context.Context, body []byte) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return "", eris.Wrap(err, "llm: create siliconflow request")
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.client.Do(req)
	if err != nil {
		return "", classifyTransportError(err)
	}
	defer resp.Body.Close() //nolint:errcheck

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", classifyTransportError(err)
	}

	if resp.StatusCode != http.StatusOK {
		return "", &APIError{
			Kind:       kindFromStatus(resp.StatusCode),
			StatusCode: resp.StatusCode,
			Message:    string(respBody),
		}
	}

	var parsed sfResponse
	if err := json.Unmarshal(respBody, &parsed); err != nil {
		return "", &APIError{Kind: KindInvalidResponse, Message: err.Error()}
	}
	if len(parsed.Choices) == 0 {
		return "", &APIError{Kind: KindInvalidResponse, Message: "response has no choices"}
	}
	return parsed.Choices[0].Message.Content, nil
}

func toSFRequest(req ChatRequest) sfRequest {
	out := sfRequest{
		Model:       req.Model,
		MaxTokens:   req.MaxTokens,
		Temperature: req.Temperature,
	}
	for _, m := range req.Messages {
		msg := sfMessage{Role: m.Role}
		if len(m.Parts) > 0 {
			parts := make([]sfPart, 0, len(m.Parts))
			for _, p := range m.Parts {
				if p.ImageURL != "" {
					parts = append(parts, sfPart{Type: "image_url", ImageURL: &sfImageURL{URL: p.ImageURL}})
				} else {
					parts = append(parts, sfPart{Type: "text", Text: p.Text})
				}
			}
			msg.Content = parts
		} else {
			msg.Content = m.Content
		}
		out.Messages = append(out.Messages, msg)
	}
	return out
}

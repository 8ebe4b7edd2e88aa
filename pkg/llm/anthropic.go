package llm

import (
	"context"
	"strings"

	sdk "github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/rotisserie/eris"
)

// Anthropic implements Client over the official SDK. The SDK carries its own
// retry policy, so calls are not wrapped in doWithRetry.
type Anthropic struct {
	client sdk.Client
}

// NewAnthropic creates an Anthropic-backed client.
func NewAnthropic(cfg Config) *Anthropic {
	return &Anthropic{
		client: sdk.NewClient(option.WithAPIKey(cfg.APIKey)),
	}
}

// Chat sends a completion request and returns the concatenated text blocks.
func (c *Anthropic) Chat(ctx context.Context, req ChatRequest) (string, error) {
	params := sdk.MessageNewParams{
		Model:     sdk.Model(req.Model),
		MaxTokens: int64(req.MaxTokens),
	}
	if req.Temperature != nil {
		params.Temperature = sdk.Float(*req.Temperature)
	}

	for _, m := range req.Messages {
		if m.Role == "system" {
			params.System = append(params.System, sdk.TextBlockParam{Text: m.Content})
			continue
		}
		blocks := toSDKBlocks(m)
		if m.Role == "assistant" {
			params.Messages = append(params.Messages, sdk.NewAssistantMessage(blocks...))
		} else {
			params.Messages = append(params.Messages, sdk.NewUserMessage(blocks...))
		}
	}

	msg, err := c.client.Messages.New(ctx, params)
	if err != nil {
		return "", eris.Wrap(err, "llm: anthropic create message")
	}

	var sb strings.Builder
	for _, b := range msg.Content {
		if b.Type == "text" {
			sb.WriteString(b.Text)
		}
	}
	return sb.String(), nil
}

func toSDKBlocks(m Message) []sdk.ContentBlockParamUnion {
	if len(m.Parts) == 0 {
		return []sdk.ContentBlockParamUnion{sdk.NewTextBlock(m.Content)}
	}
	blocks := make([]sdk.ContentBlockParamUnion, 0, len(m.Parts))
	for _, p := range m.Parts {
		if p.ImageURL != "" {
			mediaType, data := splitDataURL(p.ImageURL)
			blocks = append(blocks, sdk.NewImageBlockBase64(mediaType, data))
		} else {
			blocks = append(blocks, sdk.NewTextBlock(p.Text))
		}
	}
	return blocks
}

// splitDataURL breaks "data:image/png;base64,AAAA" into media type and
// payload.
func splitDataURL(u string) (mediaType, data string) {
	rest, ok := strings.CutPrefix(u, "data:")
	if !ok {
		return "image/png", u
	}
	meta, payload, ok := strings.Cut(rest, ",")
	if !ok {
		return "image/png", rest
	}
	mediaType = strings.TrimSuffix(meta, ";base64")
	if mediaType == "" {
		mediaType = "image/png"
	}
	return mediaType, payload
}

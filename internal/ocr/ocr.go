// Package ocr turns page images into text through a vision model, and
// rasterizes PDF pages so they can be fed through the same path.
package ocr

import (
	"context"
	"encoding/base64"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/eduflow/eduflow-cli/pkg/llm"
)

// Results shorter than this are usually a failed recognition (blank page,
// unreadable scan); they are logged for diagnosis but still returned.
const minPlausibleLength = 10

const ocrPrompt = "请完整识别并输出图片中的所有文字内容，保持原有格式和结构。只输出识别结果，不要解释。"

// Recognizer extracts text from a single image.
type Recognizer interface {
	Recognize(ctx context.Context, mime string, image []byte) (string, error)
}

// VisionRecognizer performs OCR through a multimodal chat model.
type VisionRecognizer struct {
	client    llm.Client
	model     string
	maxTokens int
}

// NewVisionRecognizer creates a Recognizer backed by the given vision model.
func NewVisionRecognizer(client llm.Client, model string, maxTokens int) *VisionRecognizer {
	return &VisionRecognizer{client: client, model: model, maxTokens: maxTokens}
}

func (r *VisionRecognizer) Recognize(ctx context.Context, mime string, image []byte) (string, error) {
	dataURL := "data:" + mime + ";base64," + base64.StdEncoding.EncodeToString(image)

	text, err := r.client.Chat(ctx, llm.ChatRequest{
		Model:     r.model,
		MaxTokens: r.maxTokens,
		Messages: []llm.Message{{
			Role: "user",
			Parts: []llm.Part{
				{Text: ocrPrompt},
				{ImageURL: dataURL},
			},
		}},
	})
	if err != nil {
		return "", eris.Wrap(err, "ocr: vision recognition")
	}

	if len([]rune(text)) < minPlausibleLength {
		zap.L().Warn("ocr: suspiciously short recognition result",
			zap.Int("length", len([]rune(text))),
			zap.String("text", text),
		)
	}
	return text, nil
}

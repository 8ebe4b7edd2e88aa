// Package question generates practice questions from selected knowledge
// points.
package question

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/eduflow/eduflow-cli/internal/extract"
	"github.com/eduflow/eduflow-cli/internal/model"
	"github.com/eduflow/eduflow-cli/pkg/llm"
)

const (
	minContentRunes   = 5
	maxTypeAttempts   = 3 // first try plus two retries
	choiceOptionCount = 4
)

var optionPrefixes = [choiceOptionCount]string{"A", "B", "C", "D"}

var typeNames = map[model.QuestionType]string{
	model.QuestionChoice:      "单项选择题（必须恰好 4 个选项，options 依次以 A. B. C. D. 开头，answer 为选项字母）",
	model.QuestionFill:        "填空题（题干用 ____ 表示空位，answer 为应填内容）",
	model.QuestionCalculation: "计算题（answer 给出完整的计算过程和结果）",
	model.QuestionShortAnswer: "简答题（answer 为要点式的参考答案）",
	model.QuestionProof:       "证明题（answer 为完整的证明过程）",
}

// Request asks for count questions of each listed type, generated from the
// given knowledge points.
type Request struct {
	Types           []model.QuestionType
	CountPerType    int
	KnowledgePoints []model.KnowledgePoint
}

// Result reports what was generated and what failed, per type.
type Result struct {
	Session   model.QuestionSession
	Requested int
	Generated int
	Errors    map[model.QuestionType]string
}

// Generator produces questions through a chat model.
type Generator struct {
	Client    llm.Client
	Model     string
	MaxTokens int
}

// Generate runs one generation session. Individual type failures are
// recorded in the result; only an empty request errors out.
func (g *Generator) Generate(ctx context.Context, req Request) (*Result, error) {
	if len(req.Types) == 0 || len(req.KnowledgePoints) == 0 {
		return nil, eris.New("question: nothing to generate from")
	}
	count := req.CountPerType
	if count <= 0 {
		count = 1
	}

	sourceIDs := make([]string, len(req.KnowledgePoints))
	for i, kp := range req.KnowledgePoints {
		sourceIDs[i] = kp.ID
	}

	res := &Result{
		Requested: count * len(req.Types),
		Errors:    map[model.QuestionType]string{},
		Session: model.QuestionSession{
			ID:                 uuid.NewString(),
			SourceKnowledgeIDs: sourceIDs,
			CreatedAt:          time.Now().UnixMilli(),
		},
	}

	for _, qt := range req.Types {
		questions, err := g.generateType(ctx, qt, count, req.KnowledgePoints)
		if err != nil {
			res.Errors[qt] = err.Error()
			var apiErr *llm.APIError
			if errors.As(err, &apiErr) && apiErr.Kind == llm.KindAuth {
				// Credentials will not fix themselves for the next type.
				break
			}
			continue
		}
		res.Session.Questions = append(res.Session.Questions, questions...)
		res.Generated += len(questions)
	}

	zap.L().Info("question: generation finished",
		zap.String("session", res.Session.ID),
		zap.Int("requested", res.Requested),
		zap.Int("generated", res.Generated),
		zap.Int("failedTypes", len(res.Errors)),
	)
	return res, nil
}

func (g *Generator) generateType(ctx context.Context, qt model.QuestionType, count int, kps []model.KnowledgePoint) ([]model.Question, error) {
	var lastErr error
	for attempt := 0; attempt < maxTypeAttempts; attempt++ {
		out, err := g.Client.Chat(ctx, llm.ChatRequest{
			Model:     g.Model,
			MaxTokens: g.MaxTokens,
			Messages: []llm.Message{
				{Role: "system", Content: "你是出题专家。必须严格输出 JSON，不要输出任何其他内容。"},
				{Role: "user", Content: buildPrompt(qt, count, kps)},
			},
		})
		if err != nil {
			lastErr = err
			var apiErr *llm.APIError
			if errors.As(err, &apiErr) && apiErr.Kind == llm.KindAuth {
				return nil, lastErr
			}
			continue
		}

		questions := parseQuestions(out, qt)
		if len(questions) > 0 {
			return questions, nil
		}
		lastErr = eris.Errorf("question: no valid %s questions in response", qt)
		zap.L().Warn("question: retrying type",
			zap.String("type", string(qt)),
			zap.Int("attempt", attempt+1),
		)
	}
	return nil, lastErr
}

func buildPrompt(qt model.QuestionType, count int, kps []model.KnowledgePoint) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "根据下面的知识点出 %d 道%s。\n\n", count, typeNames[qt])
	sb.WriteString(`输出 JSON 格式：
{"questions": [{"content": "题干", "options": ["A. ...", "B. ...", "C. ...", "D. ..."], "answer": "答案", "explanation": "解析"}]}
非选择题省略 options。

[知识点]
`)
	for i, kp := range kps {
		fmt.Fprintf(&sb, "%d. %s：%s\n", i+1, kp.Title, kp.Content)
	}
	return sb.String()
}

// parseQuestions recovers and validates questions from model output. Invalid
// items are dropped individually.
func parseQuestions(raw string, qt model.QuestionType) []model.Question {
	res := extract.ParseObject(raw)
	if !res.OK {
		return nil
	}
	items, _ := res.Data["questions"].([]any)

	now := time.Now().UnixMilli()
	var out []model.Question
	for _, item := range items {
		entry, ok := item.(map[string]any)
		if !ok {
			continue
		}
		q := model.Question{
			ID:        uuid.NewString(),
			Type:      qt,
			CreatedAt: now,
		}
		q.Content, _ = entry["content"].(string)
		q.Answer, _ = entry["answer"].(string)
		q.Explanation, _ = entry["explanation"].(string)
		if rawOpts, ok := entry["options"].([]any); ok {
			for _, o := range rawOpts {
				if s, ok := o.(string); ok {
					q.Options = append(q.Options, s)
				}
			}
		}

		if len([]rune(q.Content)) < minContentRunes || q.Answer == "" {
			continue
		}
		if qt == model.QuestionChoice {
			if len(q.Options) != choiceOptionCount {
				continue
			}
			repairOptions(q.Options)
		}
		out = append(out, q)
	}
	return out
}

// repairOptions enforces the "A. ..." prefix convention in place.
func repairOptions(options []string) {
	for i, opt := range options {
		prefix := optionPrefixes[i]
		trimmed := strings.TrimSpace(opt)
		if strings.HasPrefix(trimmed, prefix+".") || strings.HasPrefix(trimmed, prefix+"、") {
			options[i] = trimmed
			continue
		}
		// Strip a wrong or missing label and relabel.
		if len(trimmed) > 1 && trimmed[0] >= 'A' && trimmed[0] <= 'D' {
			rest := strings.TrimLeft(trimmed[1:], ".、．: ：")
			trimmed = rest
		}
		options[i] = prefix + ". " + trimmed
	}
}

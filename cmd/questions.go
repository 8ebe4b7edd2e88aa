package main

import (
	"fmt"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/eduflow/eduflow-cli/internal/model"
	"github.com/eduflow/eduflow-cli/internal/question"
	"github.com/eduflow/eduflow-cli/internal/sidecar"
)

var (
	questionTypes string
	questionCount int
	questionIDs   string
)

var questionsCmd = &cobra.Command{
	Use:   "questions <file>",
	Short: "Generate practice questions from extracted knowledge points",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		env, err := initPipeline(ctx)
		if err != nil {
			return err
		}
		defer env.Close()

		path := args[0]
		if !strings.HasSuffix(path, ".zsd") {
			path = sidecar.PathFor(path)
		}
		f, err := sidecar.Load(path)
		if err != nil {
			return err
		}

		types, err := parseQuestionTypes(questionTypes)
		if err != nil {
			return err
		}

		kps := selectKnowledgePoints(f.App.KnowledgePoints, questionIDs)
		if len(kps) == 0 {
			return eris.New("no knowledge points selected")
		}

		count := questionCount
		if count <= 0 {
			count = cfg.Question.CountPerType
		}

		gen := &question.Generator{
			Client:    env.Client,
			Model:     cfg.LLM.TextModel,
			MaxTokens: cfg.LLM.MaxTokens,
		}
		res, err := gen.Generate(ctx, question.Request{
			Types:           types,
			CountPerType:    count,
			KnowledgePoints: kps,
		})
		if err != nil {
			return err
		}

		f.App.QuestionSessions = append(f.App.QuestionSessions, res.Session)
		if err := f.Save(path); err != nil {
			return err
		}

		fmt.Printf("session %s: %d/%d questions generated\n",
			res.Session.ID, res.Generated, res.Requested)
		for qt, msg := range res.Errors {
			zap.L().Warn("question type failed", zap.String("type", string(qt)), zap.String("error", msg))
			fmt.Printf("  %s: %s\n", qt, msg)
		}
		return nil
	},
}

func parseQuestionTypes(raw string) ([]model.QuestionType, error) {
	var types []model.QuestionType
	for _, part := range strings.Split(raw, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		if !model.ValidQuestionType(part) {
			return nil, eris.Errorf("unknown question type %q", part)
		}
		types = append(types, model.QuestionType(part))
	}
	if len(types) == 0 {
		return nil, eris.New("no question types given")
	}
	return types, nil
}

// selectKnowledgePoints picks by explicit ids when given, otherwise all
// enabled points.
func selectKnowledgePoints(kps []model.KnowledgePoint, rawIDs string) []model.KnowledgePoint {
	if rawIDs != "" {
		wanted := map[string]bool{}
		for _, id := range strings.Split(rawIDs, ",") {
			wanted[strings.TrimSpace(id)] = true
		}
		var out []model.KnowledgePoint
		for _, kp := range kps {
			if wanted[kp.ID] {
				out = append(out, kp)
			}
		}
		return out
	}

	var out []model.KnowledgePoint
	for _, kp := range kps {
		if kp.Enabled {
			out = append(out, kp)
		}
	}
	return out
}

func init() {
	questionsCmd.Flags().StringVar(&questionTypes, "types", "choice,fill", "comma-separated question types (choice, fill, calculation, short_answer, proof)")
	questionsCmd.Flags().IntVar(&questionCount, "count", 0, "questions per type (default from config)")
	questionsCmd.Flags().StringVar(&questionIDs, "ids", "", "comma-separated knowledge point ids (default: all enabled)")
	rootCmd.AddCommand(questionsCmd)
}

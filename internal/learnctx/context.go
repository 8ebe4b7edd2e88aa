// Package learnctx owns the cross-batch learning context: the rolling
// chapter path, recently extracted knowledge, the pending fragment, and the
// two answer-matching queues.
package learnctx

import (
	"go.uber.org/zap"

	"github.com/eduflow/eduflow-cli/internal/model"
)

const (
	maxPathDepth       = 5
	maxRecentKnowledge = 15
	recentCarryover    = 10
	maxPendingEntries  = 50
)

// Update is one batch's worth of context changes. Zero values mean "no
// change"; Fragment is a pointer so an empty string can clear the carried
// fragment while nil leaves it alone.
type Update struct {
	PathChange   string
	Fragment     *string
	RegionType   model.Region
	DocumentType model.Archetype
	NewKnowledge []model.KnowledgePoint
}

// New returns an empty learning context with initialized queues.
func New() model.LearningContext {
	return model.LearningContext{
		CurrentPath:     []string{},
		RecentKnowledge: []model.KnowledgeSummary{},
		Pending: model.PendingState{
			ExercisesAwaitingAnswer: []model.AwaitingExercise{},
			AnswersAwaitingQuestion: []model.ReportedAnswer{},
		},
	}
}

// Apply folds an update into the context and returns the result.
func Apply(ctx model.LearningContext, u Update) model.LearningContext {
	if u.PathChange != "" {
		ctx.CurrentPath = append(ctx.CurrentPath, u.PathChange)
		if len(ctx.CurrentPath) > maxPathDepth {
			ctx.CurrentPath = ctx.CurrentPath[len(ctx.CurrentPath)-maxPathDepth:]
		}
	}

	if len(u.NewKnowledge) > 0 {
		recent := ctx.RecentKnowledge
		if len(recent) > recentCarryover {
			recent = recent[len(recent)-recentCarryover:]
		}
		fresh := u.NewKnowledge
		if len(fresh) > recentCarryover {
			fresh = fresh[len(fresh)-recentCarryover:]
		}
		merged := make([]model.KnowledgeSummary, 0, len(recent)+len(fresh))
		merged = append(merged, recent...)
		for _, kp := range fresh {
			merged = append(merged, kp.Summary())
		}
		if len(merged) > maxRecentKnowledge {
			merged = merged[len(merged)-maxRecentKnowledge:]
		}
		ctx.RecentKnowledge = merged
	}

	if u.Fragment != nil {
		ctx.Pending.Fragment = *u.Fragment
	}

	if u.DocumentType != "" && ctx.DocumentType == "" {
		ctx.DocumentType = u.DocumentType
	}
	if u.RegionType != "" {
		ctx.CurrentRegion = u.RegionType
	}

	return ctx
}

// Finalize closes out a fully processed document: the fragment can no longer
// be completed and is dropped; the pending queues stay behind as a diagnostic
// record of exercises and answers that never found their counterpart.
func Finalize(ctx model.LearningContext) model.LearningContext {
	ctx.Pending.Fragment = ""

	if n := len(ctx.Pending.ExercisesAwaitingAnswer); n > 0 {
		zap.L().Info("learnctx: exercises finished without answers", zap.Int("count", n))
	}
	if n := len(ctx.Pending.AnswersAwaitingQuestion); n > 0 {
		zap.L().Info("learnctx: answers finished without questions", zap.Int("count", n))
	}
	return ctx
}

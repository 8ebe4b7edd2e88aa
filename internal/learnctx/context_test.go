package learnctx

import (
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/eduflow/eduflow-cli/internal/model"
)

func strPtr(s string) *string { return &s }

func TestApplyPathTrimming(t *testing.T) {
	ctx := New()
	for i := 1; i <= 8; i++ {
		ctx = Apply(ctx, Update{PathChange: "章节" + strconv.Itoa(i)})
	}
	assert.Equal(t, []string{"章节4", "章节5", "章节6", "章节7", "章节8"}, ctx.CurrentPath)
}

func TestApplyRecentKnowledgeTrimming(t *testing.T) {
	ctx := New()
	batch := func(prefix string, n int) []model.KnowledgePoint {
		kps := make([]model.KnowledgePoint, n)
		for i := range kps {
			kps[i] = model.KnowledgePoint{ID: prefix + strconv.Itoa(i), Title: prefix}
		}
		return kps
	}

	ctx = Apply(ctx, Update{NewKnowledge: batch("a", 12)})
	assert.Len(t, ctx.RecentKnowledge, 10)

	ctx = Apply(ctx, Update{NewKnowledge: batch("b", 12)})
	assert.Len(t, ctx.RecentKnowledge, 15)
	// Newest batch dominates the tail.
	assert.Equal(t, "b11", ctx.RecentKnowledge[14].ID)
	// The oldest survivors come from the previous batch.
	assert.Equal(t, "a7", ctx.RecentKnowledge[0].ID)
}

func TestApplyFragmentSemantics(t *testing.T) {
	ctx := New()
	ctx = Apply(ctx, Update{Fragment: strPtr("设 f(x) 在")})
	assert.Equal(t, "设 f(x) 在", ctx.Pending.Fragment)

	// nil leaves the fragment alone.
	ctx = Apply(ctx, Update{PathChange: "第二节"})
	assert.Equal(t, "设 f(x) 在", ctx.Pending.Fragment)

	// Empty string clears it.
	ctx = Apply(ctx, Update{Fragment: strPtr("")})
	assert.Equal(t, "", ctx.Pending.Fragment)
}

func TestApplyStickyDocumentType(t *testing.T) {
	ctx := New()
	ctx = Apply(ctx, Update{DocumentType: model.ArchetypeTextbook})
	ctx = Apply(ctx, Update{DocumentType: model.ArchetypeExercises})
	assert.Equal(t, model.ArchetypeTextbook, ctx.DocumentType)
}

func TestApplyRegionFollowsLatest(t *testing.T) {
	ctx := New()
	ctx = Apply(ctx, Update{RegionType: model.RegionContent})
	ctx = Apply(ctx, Update{RegionType: model.RegionExercises})
	assert.Equal(t, model.RegionExercises, ctx.CurrentRegion)

	ctx = Apply(ctx, Update{PathChange: "x"})
	assert.Equal(t, model.RegionExercises, ctx.CurrentRegion)
}

func TestFinalizeClearsFragmentKeepsQueues(t *testing.T) {
	ctx := New()
	ctx.Pending.Fragment = "残留片段"
	ctx.Pending.ExercisesAwaitingAnswer = []model.AwaitingExercise{{ID: "x", QuestionNumber: "1"}}
	ctx.Pending.AnswersAwaitingQuestion = []model.ReportedAnswer{{QuestionNumber: "9", Answer: "D"}}

	ctx = Finalize(ctx)
	assert.Empty(t, ctx.Pending.Fragment)
	assert.Len(t, ctx.Pending.ExercisesAwaitingAnswer, 1)
	assert.Len(t, ctx.Pending.AnswersAwaitingQuestion, 1)
}

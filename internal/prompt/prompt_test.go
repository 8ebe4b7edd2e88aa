package prompt

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/eduflow/eduflow-cli/internal/model"
)

func TestBuildContainsSchemaAndTarget(t *testing.T) {
	p := Build(10, model.ArchetypeGeneral, model.LearningContext{})
	assert.Contains(t, p, "约 10 条")
	assert.Contains(t, p, `"knowledgePoints"`)
	assert.Contains(t, p, `"matchedAnswers"`)
	assert.NotContains(t, p, "[上下文]")
}

func TestBuildArchetypeRules(t *testing.T) {
	assert.Contains(t, Build(5, model.ArchetypeExercises, model.LearningContext{}), "习题类文档")
	assert.Contains(t, Build(5, model.ArchetypeTextbook, model.LearningContext{}), "教材类文档")
	// Unknown archetype falls back to the general rules.
	assert.Contains(t, Build(5, model.Archetype("bogus"), model.LearningContext{}), "自包含的知识点")
}

func TestBuildContextBlock(t *testing.T) {
	ctx := model.LearningContext{
		CurrentPath: []string{"第一章", "第二节"},
		RecentKnowledge: []model.KnowledgeSummary{
			{Title: "t1"}, {Title: "t2"}, {Title: "t3"},
			{Title: "t4"}, {Title: "t5"}, {Title: "t6"}, {Title: "t7"},
		},
		Pending: model.PendingState{
			Fragment: "设 f(x) 在区间",
			ExercisesAwaitingAnswer: []model.AwaitingExercise{
				{ID: "e1", QuestionNumber: "3"},
				{ID: "e2", QuestionNumber: "5"},
			},
		},
	}

	p := Build(8, model.ArchetypeExercises, ctx)
	assert.Contains(t, p, "第一章 > 第二节")
	assert.Contains(t, p, "设 f(x) 在区间")
	assert.Contains(t, p, "3、5")

	// Only the last five recent titles appear.
	assert.Contains(t, p, "t3；t4；t5；t6；t7")
	assert.False(t, strings.Contains(p, "t2"), "older titles trimmed")
}

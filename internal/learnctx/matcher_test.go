package learnctx

import (
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eduflow/eduflow-cli/internal/model"
)

func exercise(id, qn string) model.KnowledgePoint {
	return model.KnowledgePoint{
		ID:             id,
		Title:          "第" + qn + "题",
		Type:           model.KnowledgeExercise,
		QuestionNumber: qn,
		HasAnswer:      false,
	}
}

func TestMatchAnswersDirect(t *testing.T) {
	existing := []model.KnowledgePoint{exercise("e1", "1.")}
	reported := []model.ReportedAnswer{{QuestionNumber: "(1)", Answer: "x=2"}}

	res := MatchAnswers(existing, nil, reported, New())
	assert.Equal(t, 1, res.Matched)
	assert.Equal(t, "x=2", res.Existing[0].Answer)
	assert.True(t, res.Existing[0].HasAnswer)
	// Caller's slice untouched.
	assert.Empty(t, existing[0].Answer)
}

func TestMatchAnswersQuestionFirstThenAnswer(t *testing.T) {
	// Batch 1: exercise with no answer queues itself.
	res := MatchAnswers(nil, []model.KnowledgePoint{exercise("e1", "3")}, nil, New())
	require.Len(t, res.Context.Pending.ExercisesAwaitingAnswer, 1)

	// Batch 2: the answer section reports question 3.
	existing := res.New
	res = MatchAnswers(existing, nil,
		[]model.ReportedAnswer{{QuestionNumber: "第3题", Answer: "C"}}, res.Context)

	assert.Equal(t, 1, res.Matched)
	assert.Equal(t, "C", res.Existing[0].Answer)
	assert.Empty(t, res.Context.Pending.ExercisesAwaitingAnswer)
}

func TestMatchAnswersAnswerFirstThenQuestion(t *testing.T) {
	// Batch 1: an answer arrives before its question was ever seen.
	res := MatchAnswers(nil, nil,
		[]model.ReportedAnswer{{QuestionNumber: "5", Answer: "B"}}, New())
	assert.Equal(t, 1, res.Unmatched)
	require.Len(t, res.Context.Pending.AnswersAwaitingQuestion, 1)

	// Batch 2: the question shows up and adopts the waiting answer.
	res = MatchAnswers(nil, []model.KnowledgePoint{exercise("e5", "（5）")}, nil, res.Context)
	assert.Equal(t, 1, res.Matched)
	assert.Equal(t, "B", res.New[0].Answer)
	assert.True(t, res.New[0].HasAnswer)
	assert.Empty(t, res.Context.Pending.AnswersAwaitingQuestion)
}

func TestMatchAnswersDefaultHasAnswerStillAdopts(t *testing.T) {
	// Batch 1: the answer section runs ahead of its question.
	res := MatchAnswers(nil, nil,
		[]model.ReportedAnswer{{QuestionNumber: "7", Answer: "B"}}, New())
	require.Len(t, res.Context.Pending.AnswersAwaitingQuestion, 1)

	// Batch 2: the exercise arrives with hasAnswer left at its default but no
	// answer text; the waiting answer must still attach.
	kp := exercise("e7", "7")
	kp.HasAnswer = true
	res = MatchAnswers(nil, []model.KnowledgePoint{kp}, nil, res.Context)

	assert.Equal(t, 1, res.Matched)
	assert.Equal(t, "B", res.New[0].Answer)
	assert.Empty(t, res.Context.Pending.AnswersAwaitingQuestion)
}

func TestMatchAnswersNumberlessExerciseNotQueued(t *testing.T) {
	// Without a question number no answer can ever match; queueing such an
	// exercise would only burn a slot in the bounded queue.
	res := MatchAnswers(nil, []model.KnowledgePoint{exercise("e1", "")}, nil, New())
	assert.Empty(t, res.Context.Pending.ExercisesAwaitingAnswer)
}

func TestMatchAnswersEmptyNumberNeverMatches(t *testing.T) {
	existing := []model.KnowledgePoint{exercise("e1", "")}
	res := MatchAnswers(existing, nil,
		[]model.ReportedAnswer{{QuestionNumber: "", Answer: "A"}}, New())
	assert.Zero(t, res.Matched)
	assert.Zero(t, res.Unmatched)
	assert.Empty(t, res.Existing[0].Answer)
	assert.Empty(t, res.Context.Pending.AnswersAwaitingQuestion)
}

func TestMatchAnswersAnsweredExerciseSkipped(t *testing.T) {
	done := exercise("e1", "2")
	done.HasAnswer = true
	done.Answer = "已有答案"

	res := MatchAnswers([]model.KnowledgePoint{done}, nil,
		[]model.ReportedAnswer{{QuestionNumber: "2", Answer: "新答案"}}, New())
	assert.Equal(t, "已有答案", res.Existing[0].Answer)
	assert.Equal(t, 1, res.Unmatched)
}

func TestQueueBound(t *testing.T) {
	ctx := New()
	var reported []model.ReportedAnswer
	for i := 0; i < 60; i++ {
		reported = append(reported, model.ReportedAnswer{
			QuestionNumber: strconv.Itoa(i + 100),
			Answer:         "A",
		})
	}
	res := MatchAnswers(nil, nil, reported, ctx)
	require.Len(t, res.Context.Pending.AnswersAwaitingQuestion, 50)
	// Oldest entries were evicted.
	assert.Equal(t, "110", res.Context.Pending.AnswersAwaitingQuestion[0].QuestionNumber)
}

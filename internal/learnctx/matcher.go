package learnctx

import (
	"go.uber.org/zap"

	"github.com/eduflow/eduflow-cli/internal/model"
	"github.com/eduflow/eduflow-cli/internal/qnum"
)

// MatchResult carries the answer-matching outcome: both knowledge slices with
// answers attached, the updated context queues, and counters for logging.
type MatchResult struct {
	Existing  []model.KnowledgePoint
	New       []model.KnowledgePoint
	Context   model.LearningContext
	Matched   int
	Unmatched int
}

// MatchAnswers reconciles answers with exercises across batch boundaries.
// Exercise material routinely puts answer sections many pages after the
// questions, and in either order relative to extraction, so matching runs in
// both directions through two bounded queues:
//
//  1. each reported (questionNumber, answer) pair tries the unanswered
//     exercises already in the tree, then the awaiting-answer queue, and
//     failing both waits in answersAwaitingQuestion;
//  2. each new exercise without an answer text tries the waiting answers;
//     those marked answerless join exercisesAwaitingAnswer, provided they
//     carry a question number a later answer could match.
func MatchAnswers(existing, newPoints []model.KnowledgePoint, reported []model.ReportedAnswer, ctx model.LearningContext) MatchResult {
	res := MatchResult{
		Existing: append([]model.KnowledgePoint(nil), existing...),
		New:      append([]model.KnowledgePoint(nil), newPoints...),
		Context:  ctx,
	}

	for _, pair := range reported {
		if pair.QuestionNumber == "" || pair.Answer == "" {
			continue
		}
		if id, ok := attachByNumber(res.Existing, pair); ok {
			res.Matched++
			res.dropAwaitingExercise(id)
			continue
		}
		if res.matchAwaitingExercise(pair) {
			res.Matched++
			continue
		}
		res.Unmatched++
		res.Context.Pending.AnswersAwaitingQuestion = pushBounded(
			res.Context.Pending.AnswersAwaitingQuestion, pair)
	}

	for i := range res.New {
		kp := &res.New[i]
		if kp.Type != model.KnowledgeExercise || kp.Answer != "" {
			continue
		}
		// Adoption ignores hasAnswer: the extractor defaults it to true, and a
		// waiting answer is better evidence than the default.
		if adoptWaitingAnswer(kp, &res.Context) {
			res.Matched++
			continue
		}
		if kp.HasAnswer || kp.QuestionNumber == "" {
			continue
		}
		res.Context.Pending.ExercisesAwaitingAnswer = pushBounded(
			res.Context.Pending.ExercisesAwaitingAnswer, model.AwaitingExercise{
				ID:             kp.ID,
				QuestionNumber: kp.QuestionNumber,
				Title:          kp.Title,
			})
	}

	if res.Matched > 0 || res.Unmatched > 0 {
		zap.L().Debug("learnctx: answer matching",
			zap.Int("matched", res.Matched),
			zap.Int("unmatched", res.Unmatched),
		)
	}
	return res
}

// attachByNumber sets the answer on the first unanswered exercise whose
// question number matches, returning its id. Empty numbers never match.
func attachByNumber(kps []model.KnowledgePoint, pair model.ReportedAnswer) (string, bool) {
	for i := range kps {
		kp := &kps[i]
		if kp.Type != model.KnowledgeExercise || kp.HasAnswer || kp.Answer != "" {
			continue
		}
		if qnum.Match(kp.QuestionNumber, pair.QuestionNumber) {
			kp.Answer = pair.Answer
			kp.HasAnswer = true
			return kp.ID, true
		}
	}
	return "", false
}

// dropAwaitingExercise removes a now-answered exercise from the waiting
// queue, if it was queued in an earlier batch.
func (res *MatchResult) dropAwaitingExercise(id string) {
	queue := res.Context.Pending.ExercisesAwaitingAnswer
	for qi, waiting := range queue {
		if waiting.ID == id {
			res.Context.Pending.ExercisesAwaitingAnswer = append(
				append([]model.AwaitingExercise(nil), queue[:qi]...), queue[qi+1:]...)
			return
		}
	}
}

// matchAwaitingExercise resolves a reported answer against the queue of
// exercises from earlier batches, attaching by id into either slice.
func (res *MatchResult) matchAwaitingExercise(pair model.ReportedAnswer) bool {
	queue := res.Context.Pending.ExercisesAwaitingAnswer
	for qi, waiting := range queue {
		if !qnum.Match(waiting.QuestionNumber, pair.QuestionNumber) {
			continue
		}
		if !attachByID(res.Existing, waiting.ID, pair.Answer) &&
			!attachByID(res.New, waiting.ID, pair.Answer) {
			// Point vanished from the tree; drop the stale queue entry.
			zap.L().Warn("learnctx: awaiting exercise no longer in tree",
				zap.String("id", waiting.ID))
		}
		res.Context.Pending.ExercisesAwaitingAnswer = append(
			append([]model.AwaitingExercise(nil), queue[:qi]...), queue[qi+1:]...)
		return true
	}
	return false
}

func attachByID(kps []model.KnowledgePoint, id, answer string) bool {
	for i := range kps {
		if kps[i].ID == id {
			kps[i].Answer = answer
			kps[i].HasAnswer = true
			return true
		}
	}
	return false
}

// adoptWaitingAnswer lets a new exercise pick up an answer that arrived in an
// earlier batch.
func adoptWaitingAnswer(kp *model.KnowledgePoint, ctx *model.LearningContext) bool {
	queue := ctx.Pending.AnswersAwaitingQuestion
	for qi, waiting := range queue {
		if !qnum.Match(kp.QuestionNumber, waiting.QuestionNumber) {
			continue
		}
		kp.Answer = waiting.Answer
		kp.HasAnswer = true
		ctx.Pending.AnswersAwaitingQuestion = append(
			append([]model.ReportedAnswer(nil), queue[:qi]...), queue[qi+1:]...)
		return true
	}
	return false
}

// pushBounded appends to a queue, evicting the oldest entry once the bound is
// reached. Eviction happens on insert so the queue never exceeds the bound.
func pushBounded[T any](queue []T, item T) []T {
	if len(queue) >= maxPendingEntries {
		queue = queue[len(queue)-maxPendingEntries+1:]
	}
	return append(queue, item)
}

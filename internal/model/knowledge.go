package model

// KnowledgeType categorizes an extracted knowledge point.
type KnowledgeType string

const (
	KnowledgeConcept  KnowledgeType = "concept"
	KnowledgeTheorem  KnowledgeType = "theorem"
	KnowledgeExample  KnowledgeType = "example"
	KnowledgeExercise KnowledgeType = "exercise"
	KnowledgeOther    KnowledgeType = "other"
)

// ValidKnowledgeType reports whether t is one of the recognized types.
func ValidKnowledgeType(t string) bool {
	switch KnowledgeType(t) {
	case KnowledgeConcept, KnowledgeTheorem, KnowledgeExample, KnowledgeExercise, KnowledgeOther:
		return true
	}
	return false
}

// KnowledgePoint is one self-contained extracted unit of document content.
// IDs are batch/worker-prefixed before merge (b{batch}_t{worker}_{raw}) so
// they stay unique across concurrent extraction calls.
type KnowledgePoint struct {
	ID             string        `json:"id"`
	Title          string        `json:"title"`
	Content        string        `json:"content"`
	Type           KnowledgeType `json:"type"`
	Level          int           `json:"level"`
	ParentID       string        `json:"parentId,omitempty"`
	Children       []string      `json:"children"`
	Enabled        bool          `json:"enabled"`
	Selected       bool          `json:"selected"`
	AncestorPath   []string      `json:"ancestorPath"`
	HasAnswer      bool          `json:"hasAnswer"`
	Answer         string        `json:"answer,omitempty"`
	QuestionNumber string        `json:"questionNumber,omitempty"`
	CreatedAt      int64         `json:"createdAt"`
}

// KnowledgeSummary is the compact form carried in the learning context.
type KnowledgeSummary struct {
	ID    string        `json:"id"`
	Title string        `json:"title"`
	Type  KnowledgeType `json:"type"`
}

// Summary returns the compact context form of kp.
func (kp KnowledgePoint) Summary() KnowledgeSummary {
	return KnowledgeSummary{ID: kp.ID, Title: kp.Title, Type: kp.Type}
}

// Archetype is the detected document type, fixed after first classification.
type Archetype string

const (
	ArchetypeExercises Archetype = "exercises"
	ArchetypeTextbook  Archetype = "textbook"
	ArchetypePaper     Archetype = "paper"
	ArchetypeGeneral   Archetype = "general"
)

// Region marks what part of the document the extractor believes it is in.
type Region string

const (
	RegionTOC       Region = "toc"
	RegionContent   Region = "content"
	RegionExercises Region = "exercises"
	RegionAnswers   Region = "answers"
	RegionAppendix  Region = "appendix"
)

// AwaitingExercise is an exercise whose answer has not been seen yet.
type AwaitingExercise struct {
	ID             string `json:"id"`
	QuestionNumber string `json:"questionNumber"`
	Title          string `json:"title"`
}

// ReportedAnswer is a (question number, answer) pair reported by the
// extractor, typically from an answer section pages after the questions.
type ReportedAnswer struct {
	QuestionNumber string `json:"questionNumber"`
	Answer         string `json:"answer"`
}

// PendingState holds content carried across batch boundaries.
type PendingState struct {
	// Fragment is the trailing incomplete piece of the previous unit,
	// prepended to the next unit's text. Empty means none.
	Fragment                string             `json:"fragment,omitempty"`
	ExercisesAwaitingAnswer []AwaitingExercise `json:"exercisesAwaitingAnswer"`
	AnswersAwaitingQuestion []ReportedAnswer   `json:"answersAwaitingQuestion"`
}

// LearningContext is the cross-batch memory that lets a stateless extractor
// process a document page by page without losing coherence.
type LearningContext struct {
	CurrentPath     []string           `json:"currentPath"`
	RecentKnowledge []KnowledgeSummary `json:"recentKnowledge"`
	Pending         PendingState       `json:"pending"`
	DocumentType    Archetype          `json:"documentType,omitempty"`
	CurrentRegion   Region             `json:"currentRegion,omitempty"`
}

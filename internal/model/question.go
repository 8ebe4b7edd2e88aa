package model

// QuestionType is a practice question category.
type QuestionType string

const (
	QuestionChoice      QuestionType = "choice"
	QuestionFill        QuestionType = "fill"
	QuestionCalculation QuestionType = "calculation"
	QuestionShortAnswer QuestionType = "short_answer"
	QuestionProof       QuestionType = "proof"
)

// ValidQuestionType reports whether t is a recognized question type.
func ValidQuestionType(t string) bool {
	switch QuestionType(t) {
	case QuestionChoice, QuestionFill, QuestionCalculation, QuestionShortAnswer, QuestionProof:
		return true
	}
	return false
}

// Question is one generated practice question.
type Question struct {
	ID          string       `json:"id"`
	Type        QuestionType `json:"type"`
	Content     string       `json:"content"`
	Options     []string     `json:"options,omitempty"`
	Answer      string       `json:"answer"`
	Explanation string       `json:"explanation,omitempty"`
	CreatedAt   int64        `json:"createdAt"`
}

// QuestionSession groups the questions generated in one run, with back-links
// to the knowledge points they were generated from.
type QuestionSession struct {
	ID                 string     `json:"id"`
	SourceKnowledgeIDs []string   `json:"sourceKnowledgeIds"`
	Questions          []Question `json:"questions"`
	CreatedAt          int64      `json:"createdAt"`
}

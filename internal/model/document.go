package model

// DocumentStatus tracks where a document is in the tearing lifecycle.
type DocumentStatus string

const (
	StatusPending    DocumentStatus = "pending"
	StatusProcessing DocumentStatus = "processing"
	StatusDone       DocumentStatus = "done"
)

// FileType is the original file format of an ingested document.
type FileType string

const (
	FileTypeTxt  FileType = "txt"
	FileTypeMd   FileType = "md"
	FileTypePdf  FileType = "pdf"
	FileTypePng  FileType = "png"
	FileTypeJpg  FileType = "jpg"
	FileTypeJpeg FileType = "jpeg"
)

// IsImage reports whether t is a single-image format.
func (t FileType) IsImage() bool {
	return t == FileTypePng || t == FileTypeJpg || t == FileTypeJpeg
}

// IsText reports whether t holds plain UTF-8 text.
func (t FileType) IsText() bool {
	return t == FileTypeTxt || t == FileTypeMd
}

// Document is the in-memory working state of one ingested source file:
// tearing cursor, extracted knowledge tree, cross-batch context, and any
// generated question sessions.
type Document struct {
	ID                 string            `json:"id"`
	Name               string            `json:"name"`
	FileType           FileType          `json:"fileType"`
	Status             DocumentStatus    `json:"status"`
	ContentCursor      int               `json:"contentCursor"`
	ContentTotal       int               `json:"contentTotal"`
	HasMore            bool              `json:"hasMore"`
	BatchIndex         int               `json:"batchIndex"`
	BatchTarget        int               `json:"batchTarget"`
	BatchProducedCount int               `json:"batchProducedCount"`
	KnowledgePoints    []KnowledgePoint  `json:"knowledgePoints"`
	LearningContext    LearningContext   `json:"learningContext"`
	QuestionSessions   []QuestionSession `json:"questionSessions,omitempty"`
	CreatedAt          int64             `json:"createdAt"`
	UpdatedAt          int64             `json:"updatedAt"`
}

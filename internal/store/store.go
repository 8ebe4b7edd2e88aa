// Package store maintains the local document library: a queryable index of
// every ingested document and where its extraction stands. The sidecar files
// remain the source of truth for content; the store answers "what do I have
// and how far along is it" without opening them all.
package store

import (
	"context"
	"time"

	"github.com/eduflow/eduflow-cli/internal/model"
)

// DocumentRecord is one library row.
type DocumentRecord struct {
	ID             string
	Name           string
	SidecarPath    string
	FileType       model.FileType
	Status         model.DocumentStatus
	Cursor         int
	Total          int
	KnowledgeCount int
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// Store is the document-library index.
type Store interface {
	Migrate(ctx context.Context) error
	RegisterDocument(ctx context.Context, rec DocumentRecord) error
	UpdateProgress(ctx context.Context, id string, status model.DocumentStatus, cursor, knowledgeCount int) error
	GetDocument(ctx context.Context, id string) (*DocumentRecord, error)
	ListDocuments(ctx context.Context) ([]DocumentRecord, error)
	Close() error
}

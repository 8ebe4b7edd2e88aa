package store

import (
	"context"
	"database/sql"
	"time"

	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"

	"github.com/eduflow/eduflow-cli/internal/model"
)

// SQLiteStore implements Store using modernc.org/sqlite.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLite opens a SQLite database at the given path and configures WAL mode.
func NewSQLite(dsn string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: open")
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close() //nolint:errcheck
			return nil, eris.Wrapf(err, "sqlite: exec %s", pragma)
		}
	}
	return &SQLiteStore{db: db}, nil
}

const sqliteMigration = `
CREATE TABLE IF NOT EXISTS documents (
	id              TEXT PRIMARY KEY,
	name            TEXT NOT NULL,
	sidecar_path    TEXT NOT NULL,
	file_type       TEXT NOT NULL,
	status          TEXT NOT NULL DEFAULT 'pending',
	cursor          INTEGER NOT NULL DEFAULT 0,
	total           INTEGER NOT NULL DEFAULT 0,
	knowledge_count INTEGER NOT NULL DEFAULT 0,
	created_at      DATETIME NOT NULL DEFAULT (datetime('now')),
	updated_at      DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE INDEX IF NOT EXISTS idx_documents_status ON documents(status);
CREATE INDEX IF NOT EXISTS idx_documents_name ON documents(name);
`

func (s *SQLiteStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, sqliteMigration)
	return eris.Wrap(err, "sqlite: migrate")
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) RegisterDocument(ctx context.Context, rec DocumentRecord) error {
	now := time.Now().UTC()
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = now
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO documents (id, name, sidecar_path, file_type, status, cursor, total, knowledge_count, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET
			name = excluded.name,
			sidecar_path = excluded.sidecar_path,
			status = excluded.status,
			cursor = excluded.cursor,
			total = excluded.total,
			knowledge_count = excluded.knowledge_count,
			updated_at = excluded.updated_at`,
		rec.ID, rec.Name, rec.SidecarPath, string(rec.FileType), string(rec.Status),
		rec.Cursor, rec.Total, rec.KnowledgeCount, rec.CreatedAt, now,
	)
	if err != nil {
		return eris.Wrapf(err, "sqlite: register document %s", rec.ID)
	}
	return nil
}

func (s *SQLiteStore) UpdateProgress(ctx context.Context, id string, status model.DocumentStatus, cursor, knowledgeCount int) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE documents SET status = ?, cursor = ?, knowledge_count = ?, updated_at = ? WHERE id = ?`,
		string(status), cursor, knowledgeCount, time.Now().UTC(), id,
	)
	if err != nil {
		return eris.Wrapf(err, "sqlite: update progress %s", id)
	}
	return checkRowsAffected(res, "document", id)
}

func (s *SQLiteStore) GetDocument(ctx context.Context, id string) (*DocumentRecord, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, name, sidecar_path, file_type, status, cursor, total, knowledge_count, created_at, updated_at
		 FROM documents WHERE id = ?`, id)
	rec, err := scanDocument(row)
	if err != nil {
		return nil, err
	}
	return rec, nil
}

func (s *SQLiteStore) ListDocuments(ctx context.Context) ([]DocumentRecord, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, name, sidecar_path, file_type, status, cursor, total, knowledge_count, created_at, updated_at
		 FROM documents ORDER BY created_at DESC`)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list documents")
	}
	defer rows.Close() //nolint:errcheck

	var recs []DocumentRecord
	for rows.Next() {
		rec, err := scanDocument(rows)
		if err != nil {
			return nil, err
		}
		recs = append(recs, *rec)
	}
	return recs, eris.Wrap(rows.Err(), "sqlite: iterate documents")
}

// scannable covers both *sql.Row and *sql.Rows.
type scannable interface {
	Scan(dest ...any) error
}

func scanDocument(row scannable) (*DocumentRecord, error) {
	var rec DocumentRecord
	var fileType, status string
	err := row.Scan(&rec.ID, &rec.Name, &rec.SidecarPath, &fileType, &status,
		&rec.Cursor, &rec.Total, &rec.KnowledgeCount, &rec.CreatedAt, &rec.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, eris.Wrap(err, "sqlite: document not found")
	}
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: scan document")
	}
	rec.FileType = model.FileType(fileType)
	rec.Status = model.DocumentStatus(status)
	return &rec, nil
}

func checkRowsAffected(res sql.Result, kind, id string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return eris.Wrap(err, "sqlite: rows affected")
	}
	if n == 0 {
		return eris.Errorf("sqlite: %s %s not found", kind, id)
	}
	return nil
}

// Package sidecar reads and writes the .zsd file that travels next to each
// source document: raw content, tearing cursor, and the full extraction
// state. Version 3 is written; versions 1 and 2 load through a normalizing
// reader so old files keep working.
package sidecar

import (
	"encoding/base64"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rotisserie/eris"

	"github.com/eduflow/eduflow-cli/internal/chunker"
	"github.com/eduflow/eduflow-cli/internal/learnctx"
	"github.com/eduflow/eduflow-cli/internal/model"
)

// CurrentVersion is the format written by Save.
const CurrentVersion = 3

const appName = "eduflow"

// File is one sidecar document. RawContent holds UTF-8 text for txt/md and
// base64 for pdf and image formats.
type File struct {
	Version          int            `json:"version"`
	CreatedAt        int64          `json:"createdAt"`
	RawContent       string         `json:"rawContent"`
	OriginalFileType model.FileType `json:"originalFileType"`
	OriginalFileName string         `json:"originalFileName"`
	ProcessedOffset  int            `json:"processedOffset"`
	TotalSize        int            `json:"totalSize"`
	App              model.Document `json:"app"`

	// AppName identifies the writing application in the on-disk file.
	AppName string `json:"appName,omitempty"`
}

// PathFor derives the sidecar path from a source path by swapping the
// extension for .zsd.
func PathFor(sourcePath string) string {
	ext := filepath.Ext(sourcePath)
	return strings.TrimSuffix(sourcePath, ext) + ".zsd"
}

// FileTypeOf maps a source path extension to a FileType.
func FileTypeOf(sourcePath string) (model.FileType, error) {
	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(sourcePath), "."))
	switch ft := model.FileType(ext); ft {
	case model.FileTypeTxt, model.FileTypeMd, model.FileTypePdf,
		model.FileTypePng, model.FileTypeJpg, model.FileTypeJpeg:
		return ft, nil
	default:
		return "", eris.Errorf("sidecar: unsupported file type %q", ext)
	}
}

// New builds a fresh sidecar for an ingested source file. totalUnits is the
// rune count for text, the page count for pdf, 1 for images.
func New(id, sourcePath string, fileType model.FileType, raw []byte, totalUnits int) *File {
	now := time.Now().UnixMilli()
	name := filepath.Base(sourcePath)

	content := string(raw)
	if !fileType.IsText() {
		content = base64.StdEncoding.EncodeToString(raw)
	}

	return &File{
		Version:          CurrentVersion,
		CreatedAt:        now,
		RawContent:       content,
		OriginalFileType: fileType,
		OriginalFileName: name,
		TotalSize:        totalUnits,
		AppName:          appName,
		App: model.Document{
			ID:              id,
			Name:            name,
			FileType:        fileType,
			Status:          model.StatusPending,
			ContentTotal:    totalUnits,
			HasMore:         totalUnits > 0,
			KnowledgePoints: []model.KnowledgePoint{},
			LearningContext: learnctx.New(),
			CreatedAt:       now,
			UpdatedAt:       now,
		},
	}
}

// Source rebuilds the chunkable source from the stored raw content.
func (f *File) Source() (chunker.Source, error) {
	switch {
	case f.OriginalFileType.IsText():
		return chunker.NewTextSource(f.OriginalFileName, f.RawContent), nil
	case f.OriginalFileType == model.FileTypePdf:
		raw, err := base64.StdEncoding.DecodeString(f.RawContent)
		if err != nil {
			return chunker.Source{}, eris.Wrap(err, "sidecar: decode pdf content")
		}
		return chunker.NewPDFSource(f.OriginalFileName, raw, f.TotalSize), nil
	case f.OriginalFileType.IsImage():
		raw, err := base64.StdEncoding.DecodeString(f.RawContent)
		if err != nil {
			return chunker.Source{}, eris.Wrap(err, "sidecar: decode image content")
		}
		mime := "image/" + string(f.OriginalFileType)
		if f.OriginalFileType == model.FileTypeJpg {
			mime = "image/jpeg"
		}
		return chunker.NewImageSource(f.OriginalFileName, mime, raw), nil
	default:
		return chunker.Source{}, eris.Errorf("sidecar: unsupported file type %q", f.OriginalFileType)
	}
}

// Save writes the sidecar atomically next to its final path.
func (f *File) Save(path string) error {
	f.App.UpdatedAt = time.Now().UnixMilli()
	f.App.ContentCursor = f.ProcessedOffset
	f.App.ContentTotal = f.TotalSize
	f.App.HasMore = f.ProcessedOffset < f.TotalSize

	data, err := json.MarshalIndent(f, "", "  ")
	if err != nil {
		return eris.Wrap(err, "sidecar: marshal")
	}

	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return eris.Wrapf(err, "sidecar: write %s", tmp)
	}
	if err := os.Rename(tmp, path); err != nil {
		return eris.Wrapf(err, "sidecar: rename to %s", path)
	}
	return nil
}

// Load reads a sidecar of any known version, normalizing old formats.
func Load(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, eris.Wrapf(err, "sidecar: read %s", path)
	}

	var probe struct {
		Version int `json:"version"`
	}
	if err := json.Unmarshal(data, &probe); err != nil {
		return nil, eris.Wrapf(err, "sidecar: parse %s", path)
	}

	switch probe.Version {
	case CurrentVersion:
		var f File
		if err := json.Unmarshal(data, &f); err != nil {
			return nil, eris.Wrapf(err, "sidecar: parse v3 %s", path)
		}
		return &f, nil
	case 0, 1, 2:
		return loadLegacy(data, path)
	default:
		return nil, eris.Errorf("sidecar: unknown version %d in %s", probe.Version, path)
	}
}

package sidecar

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eduflow/eduflow-cli/internal/chunker"
	"github.com/eduflow/eduflow-cli/internal/model"
)

func TestPathFor(t *testing.T) {
	assert.Equal(t, "/docs/高数习题.zsd", PathFor("/docs/高数习题.pdf"))
	assert.Equal(t, "notes.zsd", PathFor("notes.txt"))
	assert.Equal(t, "noext.zsd", PathFor("noext"))
}

func TestFileTypeOf(t *testing.T) {
	ft, err := FileTypeOf("a/b/scan.JPG")
	require.NoError(t, err)
	assert.Equal(t, model.FileTypeJpg, ft)

	_, err = FileTypeOf("archive.docx")
	assert.Error(t, err)
}

func TestSaveLoadRoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "doc.zsd")

	f := New("doc-1", "doc.txt", model.FileTypeTxt, []byte("这是一段文本内容。"), 9)
	f.ProcessedOffset = 4
	f.App.Status = model.StatusPending
	f.App.KnowledgePoints = []model.KnowledgePoint{{ID: "b1_t0_1", Content: "内容", HasAnswer: true}}

	require.NoError(t, f.Save(path))

	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, CurrentVersion, loaded.Version)
	assert.Equal(t, "doc-1", loaded.App.ID)
	assert.Equal(t, 4, loaded.ProcessedOffset)
	assert.Equal(t, 9, loaded.TotalSize)
	assert.Equal(t, "这是一段文本内容。", loaded.RawContent)
	assert.True(t, loaded.App.HasMore)
	require.Len(t, loaded.App.KnowledgePoints, 1)
}

func TestNewBinaryContentBase64(t *testing.T) {
	f := New("id", "scan.png", model.FileTypePng, []byte{0x89, 0x50}, 1)
	assert.Equal(t, "iVA=", f.RawContent)

	src, err := f.Source()
	require.NoError(t, err)
	assert.Equal(t, chunker.KindImage, src.Kind)
	assert.Equal(t, []byte{0x89, 0x50}, src.Raw)
	assert.Equal(t, "image/png", src.Mime)
}

func TestSourceText(t *testing.T) {
	f := New("id", "a.md", model.FileTypeMd, []byte("你好世界"), 4)
	src, err := f.Source()
	require.NoError(t, err)
	assert.Equal(t, chunker.KindText, src.Kind)
	assert.Equal(t, 4, src.TotalUnits)
}

func TestLoadLegacyV1(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "old.zsd")
	raw := `{
		"version": 1,
		"originalFileName": "旧文档.txt",
		"knowledgePoints": [
			{"id": "1", "content": "旧知识点", "type": "definition"},
			{"id": "2", "content": "习题", "type": "exercise", "hasAnswer": false},
			{"id": "3", "title": "无内容被丢弃"}
		]
	}`
	require.NoError(t, os.WriteFile(path, []byte(raw), 0o644))

	f, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, CurrentVersion, f.Version)
	assert.Equal(t, model.StatusDone, f.App.Status)
	assert.NotEmpty(t, f.App.ID)
	require.Len(t, f.App.KnowledgePoints, 2)

	// Unknown type coerced, hasAnswer defaults true unless explicitly false.
	assert.Equal(t, model.KnowledgeOther, f.App.KnowledgePoints[0].Type)
	assert.True(t, f.App.KnowledgePoints[0].HasAnswer)
	assert.Equal(t, "旧知识点", f.App.KnowledgePoints[0].Title)
	assert.False(t, f.App.KnowledgePoints[1].HasAnswer)
}

func TestLoadLegacyV2App(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "v2.zsd")
	raw := `{
		"version": 2,
		"originalFileName": "doc.txt",
		"app": {
			"id": "keep-me",
			"name": "doc",
			"knowledgePoints": [{"id": "1", "content": "c", "type": "concept"}]
		}
	}`
	require.NoError(t, os.WriteFile(path, []byte(raw), 0o644))

	f, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "keep-me", f.App.ID)
	require.Len(t, f.App.KnowledgePoints, 1)
	assert.Equal(t, model.KnowledgeConcept, f.App.KnowledgePoints[0].Type)
}

func TestLoadUnknownVersion(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "future.zsd")
	require.NoError(t, os.WriteFile(path, []byte(`{"version": 99}`), 0o644))

	_, err := Load(path)
	assert.Error(t, err)
}

package sidecar

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/eduflow/eduflow-cli/internal/model"
)

// Legacy sidecars predate the tearing cursor: v1 kept knowledge points at the
// top level, v2 moved them into an app snapshot without a learning context.
// Both load as complete documents (no raw content to tear) with every missing
// field defaulted.

type legacyFile struct {
	Version          int                 `json:"version"`
	CreatedAt        int64               `json:"createdAt"`
	OriginalFileName string              `json:"originalFileName"`
	OriginalFileType string              `json:"originalFileType"`
	KnowledgePoints  []legacyPoint       `json:"knowledgePoints"`
	App              *legacyApp          `json:"app"`
	QuestionSessions []legacyQuestionRef `json:"questionSessions"`
}

type legacyApp struct {
	ID               string              `json:"id"`
	Name             string              `json:"name"`
	KnowledgePoints  []legacyPoint       `json:"knowledgePoints"`
	QuestionSessions []legacyQuestionRef `json:"questionSessions"`
}

// legacyPoint keeps hasAnswer as a pointer: absence means true, which a plain
// bool cannot express.
type legacyPoint struct {
	ID             string   `json:"id"`
	Title          string   `json:"title"`
	Content        string   `json:"content"`
	Type           string   `json:"type"`
	Level          int      `json:"level"`
	ParentID       string   `json:"parentId"`
	Children       []string `json:"children"`
	AncestorPath   []string `json:"ancestorPath"`
	HasAnswer      *bool    `json:"hasAnswer"`
	Answer         string   `json:"answer"`
	QuestionNumber string   `json:"questionNumber"`
	CreatedAt      int64    `json:"createdAt"`
}

type legacyQuestionRef struct {
	ID                 string           `json:"id"`
	SourceKnowledgeIDs []string         `json:"sourceKnowledgeIds"`
	Questions          []model.Question `json:"questions"`
	CreatedAt          int64            `json:"createdAt"`
}

func loadLegacy(data []byte, path string) (*File, error) {
	var lf legacyFile
	if err := json.Unmarshal(data, &lf); err != nil {
		return nil, eris.Wrapf(err, "sidecar: parse legacy %s", path)
	}

	points := lf.KnowledgePoints
	sessions := lf.QuestionSessions
	id := ""
	name := lf.OriginalFileName
	if lf.App != nil {
		points = lf.App.KnowledgePoints
		sessions = lf.App.QuestionSessions
		id = lf.App.ID
		if lf.App.Name != "" {
			name = lf.App.Name
		}
	}
	if id == "" {
		id = uuid.NewString()
	}

	createdAt := lf.CreatedAt
	if createdAt == 0 {
		createdAt = time.Now().UnixMilli()
	}

	fileType := model.FileType(lf.OriginalFileType)
	if fileType == "" {
		fileType = model.FileTypeTxt
	}

	zap.L().Info("sidecar: migrating legacy file",
		zap.String("path", path),
		zap.Int("version", lf.Version),
		zap.Int("knowledgePoints", len(points)),
	)

	f := &File{
		Version:          CurrentVersion,
		CreatedAt:        createdAt,
		OriginalFileType: fileType,
		OriginalFileName: name,
		AppName:          appName,
		App: model.Document{
			ID:              id,
			Name:            name,
			FileType:        fileType,
			Status:          model.StatusDone,
			KnowledgePoints: normalizeLegacyPoints(points),
			CreatedAt:       createdAt,
			UpdatedAt:       createdAt,
		},
	}
	for _, s := range sessions {
		f.App.QuestionSessions = append(f.App.QuestionSessions, model.QuestionSession{
			ID:                 s.ID,
			SourceKnowledgeIDs: s.SourceKnowledgeIDs,
			Questions:          s.Questions,
			CreatedAt:          s.CreatedAt,
		})
	}
	return f, nil
}

func normalizeLegacyPoints(points []legacyPoint) []model.KnowledgePoint {
	out := make([]model.KnowledgePoint, 0, len(points))
	for _, p := range points {
		if p.Content == "" {
			continue
		}
		kp := model.KnowledgePoint{
			ID:             p.ID,
			Title:          p.Title,
			Content:        p.Content,
			Type:           model.KnowledgeOther,
			Level:          p.Level,
			ParentID:       p.ParentID,
			Children:       p.Children,
			AncestorPath:   p.AncestorPath,
			Enabled:        true,
			HasAnswer:      true,
			Answer:         p.Answer,
			QuestionNumber: p.QuestionNumber,
			CreatedAt:      p.CreatedAt,
		}
		if model.ValidKnowledgeType(p.Type) {
			kp.Type = model.KnowledgeType(p.Type)
		}
		if p.HasAnswer != nil {
			kp.HasAnswer = *p.HasAnswer
		}
		if kp.Title == "" {
			runes := []rune(kp.Content)
			if len(runes) > 60 {
				runes = runes[:60]
			}
			kp.Title = string(runes)
		}
		out = append(out, kp)
	}
	return out
}

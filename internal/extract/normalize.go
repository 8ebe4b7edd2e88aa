package extract

import (
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/eduflow/eduflow-cli/internal/model"
)

const maxDefaultTitle = 60

// Extraction is the normalized payload of one model response.
type Extraction struct {
	KnowledgePoints []model.KnowledgePoint
	PathChange      string
	Fragment        string
	FragmentSet     bool
	MatchedAnswers  []model.ReportedAnswer
	RegionType      model.Region
}

// Normalize converts a parsed response object into a well-formed Extraction.
// Entries without string content are dropped; every other field is defaulted
// or coerced rather than rejected.
func Normalize(data map[string]any) Extraction {
	var out Extraction

	rawPoints, _ := data["knowledgePoints"].([]any)
	now := time.Now().UnixMilli()
	for i, rp := range rawPoints {
		entry, ok := rp.(map[string]any)
		if !ok {
			continue
		}
		content, ok := entry["content"].(string)
		if !ok || content == "" {
			zap.L().Debug("extract: dropping entry without content", zap.Int("index", i))
			continue
		}

		kp := model.KnowledgePoint{
			Content:   content,
			Enabled:   true,
			HasAnswer: true,
			CreatedAt: now,
		}

		kp.ID = stringField(entry, "id")
		if kp.ID == "" {
			kp.ID = strconv.Itoa(i + 1)
		}

		kp.Title = stringField(entry, "title")
		if kp.Title == "" {
			kp.Title = truncateRunes(content, maxDefaultTitle)
		}

		if t := stringField(entry, "type"); model.ValidKnowledgeType(t) {
			kp.Type = model.KnowledgeType(t)
		} else {
			kp.Type = model.KnowledgeOther
		}

		if lvl, ok := numberField(entry, "level"); ok && lvl >= 0 {
			kp.Level = lvl
		}

		kp.ParentID = stringField(entry, "parentId")
		if children, ok := entry["children"].([]any); ok {
			for _, c := range children {
				if id, ok := c.(string); ok && id != "" {
					kp.Children = append(kp.Children, id)
				}
			}
		}

		if ha, ok := entry["hasAnswer"].(bool); ok {
			kp.HasAnswer = ha
		}
		kp.Answer = stringField(entry, "answer")
		kp.QuestionNumber = stringField(entry, "questionNumber")

		out.KnowledgePoints = append(out.KnowledgePoints, kp)
	}

	ComputeAncestorPaths(out.KnowledgePoints)

	out.PathChange = stringField(data, "pathChange")
	if frag, ok := data["fragment"].(string); ok {
		out.Fragment = frag
		out.FragmentSet = true
	}
	if region := stringField(data, "regionType"); region != "" {
		out.RegionType = model.Region(region)
	}

	if matched, ok := data["matchedAnswers"].([]any); ok {
		for _, m := range matched {
			pair, ok := m.(map[string]any)
			if !ok {
				continue
			}
			qn := stringField(pair, "questionNumber")
			ans := stringField(pair, "answer")
			if qn == "" || ans == "" {
				continue
			}
			out.MatchedAnswers = append(out.MatchedAnswers, model.ReportedAnswer{
				QuestionNumber: qn,
				Answer:         ans,
			})
		}
	}

	return out
}

// ComputeAncestorPaths rebuilds AncestorPath for every point by walking
// parentId links within the slice. A seen-set guards against cycles in model
// output; the walk stops at the first repeated id.
func ComputeAncestorPaths(kps []model.KnowledgePoint) {
	byID := make(map[string]int, len(kps))
	for i := range kps {
		byID[kps[i].ID] = i
	}

	for i := range kps {
		seen := map[string]bool{}
		var path []string
		cur := i
		for {
			id := kps[cur].ID
			if seen[id] {
				zap.L().Warn("extract: parent cycle detected", zap.String("id", kps[i].ID))
				break
			}
			seen[id] = true
			path = append(path, id)
			parent := kps[cur].ParentID
			if parent == "" {
				break
			}
			next, ok := byID[parent]
			if !ok {
				break
			}
			cur = next
		}
		// Walk collects self→root; stored order is root→self.
		for l, r := 0, len(path)-1; l < r; l, r = l+1, r-1 {
			path[l], path[r] = path[r], path[l]
		}
		kps[i].AncestorPath = path
	}
}

func stringField(m map[string]any, key string) string {
	s, _ := m[key].(string)
	return s
}

func numberField(m map[string]any, key string) (int, bool) {
	switch v := m[key].(type) {
	case float64:
		return int(v), true
	case string:
		if n, err := strconv.Atoi(v); err == nil {
			return n, true
		}
	}
	return 0, false
}

func truncateRunes(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n])
}

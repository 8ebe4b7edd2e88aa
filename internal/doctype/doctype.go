// Package doctype classifies a document into an archetype that steers
// extraction granularity. Classification runs once per document on the first
// text sample; the result is sticky in the learning context.
package doctype

import (
	"regexp"

	"go.uber.org/zap"

	"github.com/eduflow/eduflow-cli/internal/model"
)

// A family needs this many distinct pattern hits before it claims the
// document.
const scoreThreshold = 3

var fileNameExercise = regexp.MustCompile(`(?i)(习题|练习|作业|试卷|考试|test|exam|exercise)`)

var exercisePatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?m)^\s*\d+\s*[.、．]`),
	regexp.MustCompile(`(?m)^\s*[(（]\d+[)）]`),
	regexp.MustCompile(`第\s*[一二三四五六七八九十\d]+\s*题`),
	regexp.MustCompile(`(?m)^\s*[A-D]\s*[.、．]`),
	regexp.MustCompile(`(解|答案?)\s*[:：]`),
	regexp.MustCompile(`(求证|求解|计算下?列|证明[:：]?|选择题|填空题|解答题)`),
}

var textbookPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(定义|定理|引理|推论|公理)\s*[\d一二三四五六七八九十.]*\s*[:：]?`),
	regexp.MustCompile(`第\s*[一二三四五六七八九十\d]+\s*[章节]`),
	regexp.MustCompile(`例\s*[\d一二三四五六七八九十]+`),
	regexp.MustCompile(`(性质|命题|证明)\s*[:：]`),
	regexp.MustCompile(`(?m)^\s*\d+\.\d+\s+\S`),
	regexp.MustCompile(`(本章小结|思考与练习|学习目标)`),
}

var paperPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)(摘要|abstract)`),
	regexp.MustCompile(`(?i)(关键词|keywords?)\s*[:：]`),
	regexp.MustCompile(`(?i)(参考文献|references|bibliography)`),
	regexp.MustCompile(`(?i)(引言|introduction|conclusion|结论)`),
	regexp.MustCompile(`(?i)doi\s*[:：]?\s*10\.`),
	regexp.MustCompile(`\[\d+\]\s*\S+`),
}

// Classify scores the sample against each archetype's pattern family.
// Filename keywords short-circuit to exercises; ties go to the higher
// priority archetype (exercises, then textbook, then paper).
func Classify(sample, fileName string) model.Archetype {
	if fileNameExercise.MatchString(fileName) {
		zap.L().Debug("doctype: filename keyword match", zap.String("file", fileName))
		return model.ArchetypeExercises
	}

	exercise := score(sample, exercisePatterns)
	textbook := score(sample, textbookPatterns)
	paper := score(sample, paperPatterns)

	zap.L().Debug("doctype: pattern scores",
		zap.Int("exercise", exercise),
		zap.Int("textbook", textbook),
		zap.Int("paper", paper),
	)

	switch {
	case exercise >= scoreThreshold && exercise >= textbook && exercise >= paper:
		return model.ArchetypeExercises
	case textbook >= scoreThreshold && textbook >= paper:
		return model.ArchetypeTextbook
	case paper >= scoreThreshold:
		return model.ArchetypePaper
	default:
		return model.ArchetypeGeneral
	}
}

// score counts how many distinct patterns in the family match at all.
func score(sample string, patterns []*regexp.Regexp) int {
	n := 0
	for _, p := range patterns {
		if p.MatchString(sample) {
			n++
		}
	}
	return n
}

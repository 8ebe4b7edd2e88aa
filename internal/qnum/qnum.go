// Package qnum normalizes question-number labels so that the many surface
// forms found in Chinese exercise material ("1.", "(1)", "第1题", "一、")
// compare equal.
package qnum

import (
	"regexp"
	"strconv"
	"strings"

	"golang.org/x/text/width"
)

var cnDigits = map[rune]int{
	'零': 0, '一': 1, '二': 2, '三': 3, '四': 4,
	'五': 5, '六': 6, '七': 7, '八': 8, '九': 9,
}

// Exact forms up to twenty cover the vast majority of exercise numbering.
var cnExact = map[string]string{
	"零": "0", "一": "1", "二": "2", "三": "3", "四": "4",
	"五": "5", "六": "6", "七": "7", "八": "8", "九": "9",
	"十": "10", "十一": "11", "十二": "12", "十三": "13", "十四": "14",
	"十五": "15", "十六": "16", "十七": "17", "十八": "18", "十九": "19",
	"二十": "20",
}

var digitRun = regexp.MustCompile(`\d+`)

// Includes the halfwidth forms Narrow folding produces for 。 and 、.
const punctuation = ".、．。｡､()（）【】[]　 \t"

// Normalize reduces a question-number label to a canonical token. Arabic and
// Chinese numerals normalize to the same decimal string; labels with no
// recognizable numeral normalize to the stripped label itself. Empty input
// stays empty.
func Normalize(raw string) string {
	s := width.Narrow.String(strings.TrimSpace(raw))

	s = strings.Trim(s, punctuation)
	s = strings.TrimPrefix(s, "第")
	s = strings.TrimSuffix(s, "小题")
	s = strings.TrimSuffix(s, "题")
	s = strings.Trim(s, punctuation)
	if s == "" {
		return ""
	}

	if n, ok := cnExact[s]; ok {
		return n
	}
	if n, ok := parseCompoundTens(s); ok {
		return n
	}
	if m := digitRun.FindString(s); m != "" {
		if trimmed := strings.TrimLeft(m, "0"); trimmed != "" {
			return trimmed
		}
		return "0"
	}
	return s
}

// parseCompoundTens handles 十-compound forms beyond the exact table,
// e.g. 二十一 (21), 三十五 (35), 九十 (90).
func parseCompoundTens(s string) (string, bool) {
	runes := []rune(s)
	idx := -1
	for i, r := range runes {
		if r == '十' {
			idx = i
			break
		}
	}
	if idx < 0 {
		return "", false
	}

	tens := 1
	if idx > 0 {
		if idx != 1 {
			return "", false
		}
		d, ok := cnDigits[runes[0]]
		if !ok || d == 0 {
			return "", false
		}
		tens = d
	}

	ones := 0
	rest := runes[idx+1:]
	if len(rest) > 0 {
		if len(rest) != 1 {
			return "", false
		}
		d, ok := cnDigits[rest[0]]
		if !ok {
			return "", false
		}
		ones = d
	}

	return strconv.Itoa(tens*10 + ones), true
}

// Match reports whether two labels denote the same question number.
// Empty labels never match anything, including each other.
func Match(a, b string) bool {
	na, nb := Normalize(a), Normalize(b)
	if na == "" || nb == "" {
		return false
	}
	return na == nb
}

package report

import (
	"strings"
	"unicode/utf8"
)

const (
	summaryMaxRunes = 100
	NoSummary       = "Aucun résumé disponible."
	AnonymizedLabel = "Site Concurrent Anonyme"
)

// Summary 取原始报告第一段的前 100 个字符作为摘要
func Summary(raw string) string {
	text := Normalize(raw)
	idx := strings.Index(text, "\n\n")
	if idx <= 0 {
		return NoSummary
	}
	first := text[:idx]
	if utf8.RuneCountInString(first) > summaryMaxRunes {
		first = string([]rune(first)[:summaryMaxRunes])
	}
	return first + "..."
}

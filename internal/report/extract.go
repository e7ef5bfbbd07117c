package report

import (
	"sort"
	"strings"
)

// Block 一个 (标题, 正文) 片段，开头无标题的部分记为 SectionIntroduction
type Block struct {
	Section Section
	Heading string
	Body    string
}

// Sections 从原始报告中抽取出的各章节正文
type Sections struct {
	Introduction        string
	ValueProposition    string
	ProductDiagnostic   string
	MarketingStrategies string
	ActionPlan          string
	Conclusion          string
}

type match struct {
	section    Section
	start, end int
}

// Tokenize 把已清理的文本切分成 (标题, 正文) 序列
// 标题按折叠后的子串匹配，正文截止到下一个可识别标题
func Tokenize(text string) []Block {
	folded := foldWithOffsets(text)

	var matches []match
	for _, h := range recognized {
		from := 0
		for {
			idx := strings.Index(folded.text[from:], h.key)
			if idx < 0 {
				break
			}
			fs := from + idx
			fe := fs + len(h.key)
			start := folded.offsets[fs]
			// "### 1. ..." 等更深的标题级别整体算作标题
			for start > 0 && text[start-1] == '#' {
				start--
			}
			matches = append(matches, match{
				section: h.section,
				start:   start,
				end:     folded.offsets[fe],
			})
			from = fe
		}
	}
	sort.Slice(matches, func(i, j int) bool { return matches[i].start < matches[j].start })

	blocks := make([]Block, 0, len(matches)+1)
	introEnd := len(text)
	if len(matches) > 0 {
		introEnd = matches[0].start
	}
	blocks = append(blocks, Block{
		Section: SectionIntroduction,
		Body:    strings.TrimSpace(text[:introEnd]),
	})

	for i, m := range matches {
		bodyEnd := len(text)
		if i+1 < len(matches) {
			bodyEnd = matches[i+1].start
		}
		blocks = append(blocks, Block{
			Section: m.section,
			Heading: text[m.start:m.end],
			Body:    strings.TrimSpace(text[m.end:bodyEnd]),
		})
	}

	return blocks
}

// Extract 清理原始文本并抽取各章节，同一标题出现多次时取第一次
func Extract(raw string) Sections {
	var s Sections
	seen := make(map[Section]bool)
	for _, b := range Tokenize(Normalize(raw)) {
		if seen[b.Section] {
			continue
		}
		seen[b.Section] = true
		*s.field(b.Section) = b.Body
	}
	return s
}

func (s *Sections) field(section Section) *string {
	switch section {
	case SectionValueProposition:
		return &s.ValueProposition
	case SectionProductDiagnostic:
		return &s.ProductDiagnostic
	case SectionMarketingStrategies:
		return &s.MarketingStrategies
	case SectionActionPlan:
		return &s.ActionPlan
	case SectionConclusion:
		return &s.Conclusion
	default:
		return &s.Introduction
	}
}

// Get 按章节取正文
func (s Sections) Get(section Section) string {
	return *s.field(section)
}

// Empty 除引言外所有章节均为空
func (s Sections) Empty() bool {
	return s.ValueProposition == "" && s.ProductDiagnostic == "" && s.MarketingStrategies == "" &&
		s.ActionPlan == "" && s.Conclusion == ""
}

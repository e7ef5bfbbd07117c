package report

// Section 报告中的固定章节
type Section int

const (
	SectionIntroduction Section = iota
	SectionValueProposition
	SectionProductDiagnostic
	SectionMarketingStrategies
	SectionActionPlan
	SectionConclusion
)

// 生成服务输出中可识别的标题
const (
	HeadingValueProposition    = "## 1. La Proposition de Valeur Démystifiée"
	HeadingProductDiagnostic   = "## 2. Le Diagnostic Produit"
	HeadingMarketingStrategies = "## 3. Leurs Mouvements sur l'Échiquier Marketing"
	HeadingActionPlan          = "## 4. Les 3 Leçons Clés et votre Plan d'Action Immédiat"
	HeadingConclusion          = "## Conclusion Stratégique"
)

type heading struct {
	section Section
	literal string
	key     string
}

// recognized 按文档顺序排列，key 为折叠后的匹配键
var recognized = buildHeadings(map[Section]string{
	SectionValueProposition:    HeadingValueProposition,
	SectionProductDiagnostic:   HeadingProductDiagnostic,
	SectionMarketingStrategies: HeadingMarketingStrategies,
	SectionActionPlan:          HeadingActionPlan,
	SectionConclusion:          HeadingConclusion,
})

func buildHeadings(literals map[Section]string) []heading {
	out := make([]heading, 0, len(literals))
	for s := SectionValueProposition; s <= SectionConclusion; s++ {
		lit := literals[s]
		out = append(out, heading{section: s, literal: lit, key: fold(lit)})
	}
	return out
}

func (s Section) String() string {
	switch s {
	case SectionIntroduction:
		return "introduction"
	case SectionValueProposition:
		return "value_proposition"
	case SectionProductDiagnostic:
		return "product_diagnostic"
	case SectionMarketingStrategies:
		return "marketing_strategies"
	case SectionActionPlan:
		return "action_plan"
	case SectionConclusion:
		return "conclusion"
	default:
		return "unknown"
	}
}

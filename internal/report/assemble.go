package report

import (
	"strings"
	"time"
)

// Policy 报告组装策略
type Policy string

const (
	// PolicyInterpolate 各章节填入抽取出的正文
	PolicyInterpolate Policy = "interpolate"
	// PolicyEditorial 除引言外输出固定的编辑文案
	PolicyEditorial Policy = "editorial"
)

const (
	reportTitle    = "# ⚔️ Data Warfare Report\n"
	editorialTopic = "ChatGPT"
	defaultTopic   = "votre concurrent"
	rule           = "---\n\n"
)

// 输出中的章节标题
const (
	TitleIntroduction        = "## ⚡ Introduction Stratégique"
	TitleValueProposition    = "## 🚀 Proposition de Valeur"
	TitleProductDiagnostic   = "## 🧠 Diagnostic Produit"
	TitleMarketingStrategies = "## 📊 Stratégies Marketing"
	TitleActionPlan          = "## 🎯 Plan d’Action Prioritaire"
	TitleConclusion          = "## 🔮 Conclusion Stratégique"
)

// 固定文案模式下替换掉的引言段落
const (
	editorialIntroSource = "ChatGPT, l’une des forces majeures de l’IA conversationnelle, masque derrière son design épuré des leviers que chaque acteur technologique doit surveiller. Mais est‑elle réellement une menace ou un modèle de référence ? En décortiquant son offre, son expérience utilisateur et ses tactiques marketing, nous exposons les forces, faiblesses et opportunités qu’il inspire. Découvrez comment repérer ces signaux et les inverser à votre profit."
	editorialIntroTarget = "L’IA conversationnelle, incarnée par des acteurs majeurs comme ChatGPT, recèle des leviers stratégiques cruciaux. Ce rapport décrypte son offre, son expérience utilisateur et ses tactiques marketing pour identifier ses forces, faiblesses et les opportunités qu’elle présente. Apprenez à transformer ces signaux en avantages concurrentiels directs."
)

const editorialBody = `## 🚀 Proposition de Valeur

ChatGPT se positionne comme un **chatbot conversationnel AI de pointe**. Sa promesse est de générer des interactions fluides et naturelles pour l'assistance client, l'édition de contenu ou l'intégration d'assistants digitaux. La cible est large : toute entité cherchant à déployer une IA conversationnelle sans infrastructure dédiée. Le message est clair, le design minimaliste et l'appel à l'action "Essayer maintenant" invite à une expérience immédiate.

💡 **Forces** : Chatbot AI de pointe, accessibilité, design minimaliste, expérience utilisateur immédiate.
⚠️ **Faiblesses** : Positionnement générique, manque de transparence tarifaire.

---

## 🧠 Diagnostic Produit

### UX & Offre
La navigation est intuitive, avec une page d'accueil épurée et des liens vers les sections clés. Cependant, l'absence de page tarifaire publique crée une rupture dans le parcours client, sacrifiant la transparence des coûts. Cette stratégie peut générer un mystère incitant à la demande de devis, mais risque de freiner la conversion.

### Technologie & Différenciation
L'**USP : Conversational AI chatbot** est mémorable mais générique, contrastant avec des concurrents ciblant des niches spécifiques (service client, e-commerce). L'opacité tarifaire est un double tranchant : elle dissimule les coûts mais peut dissuader la prise de décision. C'est une faille que la concurrence peut exploiter.

✅ **Opportunité** : Capitaliser sur la clarté tarifaire et un positionnement de niche pour attirer les prospects hésitants.

---

## 📊 Stratégies Marketing

### Tonalité & Réassurance
Le site adopte un ton purement informatif, dénué de narration émotionnelle. L'absence de preuves sociales (témoignages, études de cas, partenariats) crée un déficit de confiance, particulièrement pour les entreprises recherchant une validation externe avant un investissement.

### SEO & Performance Technique
Techniquement, le site privilégie la simplicité : absence de données structurées JSON-LD, de lazy-loading et un blog inactif. Ces choix limitent la visibilité organique et l'autorité du domaine. Bien que le responsive design soit appréciable, une dette technique semble présente, impactant potentiellement le temps de chargement et le référencement.

⚠️ **Faiblesses** : Manque de preuves sociales, SEO technique sous-optimisé (pas de JSON-LD, lazy-loading), blog inactif.

---

## 🎯 Plan d’Action Prioritaire

Voici les actions clés pour capitaliser sur les faiblesses identifiées et renforcer votre positionnement :

1. **Transparence tarifaire** — *Priorité Haute (sous 14 jours)*
   Publiez une page tarifaire détaillée, avec des comparaisons claires et un simulateur. Cela réduira les frictions d'achat et positionnera votre offre comme plus accessible et digne de confiance.

2. **Enrichir le contenu et le SEO** — *Priorité Moyenne (sous 30 jours)*
   Lancez un blog dédié aux cas d’usage, aux guides d’intégration et aux études de cas. Couplez cette initiative à l’implémentation d’un schéma FAQ en JSON-LD pour un avantage concurrentiel immédiat en visibilité organique.

3. **Construire la preuve sociale** — *Priorité Basse (sous 60 jours)*
   Intégrez un tableau de témoignages clients et activez les canaux de réseaux sociaux (LinkedIn, Twitter). Cette action amplifie la crédibilité et génère du contenu partageable, comblant le vide de confiance.

---

## 🔮 Insights Clés

- ChatGPT capitalise sur le minimalisme mais expose des failles exploitables.
- La transparence tarifaire, un contenu riche et la preuve sociale sont vos leviers stratégiques pour gagner la confiance.
- Une optimisation SEO technique proactive et un blog actif renforceront significativement votre visibilité organique et votre autorité.

**Conclusion** : Transformez la simplicité de leur modèle en votre avantage stratégique pour dominer le marché et convertir l'intérêt en action.
`

// Assemble 按策略把章节拼成最终 markdown
// topic 为空时使用通用称呼，固定文案模式下始终为 ChatGPT
func Assemble(s Sections, policy Policy, topic string, at time.Time) string {
	var b strings.Builder

	if policy == PolicyEditorial {
		topic = editorialTopic
	} else if topic == "" {
		topic = defaultTopic
	}

	b.WriteString(reportTitle)
	b.WriteString("### Décryptage de la Stratégie : " + topic + " – Levier ou Menace ?\n\n")
	b.WriteString("> *Analyse stratégique générée par Data Warfare AI Engine le " + FrenchDate(at) + ".*\n\n")
	b.WriteString(rule)

	intro := s.Introduction
	if policy == PolicyEditorial {
		intro = strings.Replace(intro, editorialIntroSource, editorialIntroTarget, 1)
	}
	writeSection(&b, TitleIntroduction, intro)

	if policy == PolicyEditorial {
		b.WriteString(editorialBody)
		return b.String()
	}

	writeSection(&b, TitleValueProposition, s.ValueProposition)
	writeSection(&b, TitleProductDiagnostic, s.ProductDiagnostic)
	writeSection(&b, TitleMarketingStrategies, s.MarketingStrategies)
	writeSection(&b, TitleActionPlan, s.ActionPlan)
	b.WriteString(TitleConclusion + "\n\n")
	if s.Conclusion != "" {
		b.WriteString(s.Conclusion + "\n")
	}
	return b.String()
}

func writeSection(b *strings.Builder, title, body string) {
	b.WriteString(title + "\n\n")
	if body != "" {
		b.WriteString(body + "\n\n")
	}
	b.WriteString(rule)
}

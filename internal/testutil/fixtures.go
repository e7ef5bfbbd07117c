package testutil

import (
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/qs3c/datawarfare_server/internal/model"
)

// SampleReport 生成服务返回的典型原始报告
const SampleReport = `ChatGPT : Voici une analyse stratégique du concurrent.

## 1. La Proposition de Valeur Démystifiée
Une promesse claire : automatiser la veille concurrentielle.

## 2. Le Diagnostic Produit
Un produit solide mais une intégration complexe.

## 3. Leurs Mouvements sur l'Échiquier Marketing
Forte présence sur LinkedIn et webinaires hebdomadaires.

## 4. Les 3 Leçons Clés et votre Plan d'Action Immédiat
1. Simplifier l'onboarding.
2. Publier des études de cas.
3. Tester une offre freemium.

## Conclusion Stratégique
Un concurrent sérieux à surveiller de près.`

// TestProfile 创建测试档案
func TestProfile(t *testing.T, db *gorm.DB, opts ...func(*model.Profile)) *model.Profile {
	t.Helper()

	id := uuid.NewString()
	profile := &model.Profile{
		ID:                id,
		Email:             fmt.Sprintf("test_%s@example.com", id[:8]),
		Plan:              "free",
		AnalysesCount:     0,
		AnalysesRemaining: 1,
	}

	for _, opt := range opts {
		opt(profile)
	}

	if err := db.Create(profile).Error; err != nil {
		t.Fatalf("Failed to create test profile: %v", err)
	}

	return profile
}

// WithProfileID 设置账户 ID
func WithProfileID(id string) func(*model.Profile) {
	return func(p *model.Profile) {
		p.ID = id
	}
}

// WithEmail 设置邮箱
func WithEmail(email string) func(*model.Profile) {
	return func(p *model.Profile) {
		p.Email = email
	}
}

// WithPlan 设置套餐及剩余次数
func WithPlan(plan string, remaining int) func(*model.Profile) {
	return func(p *model.Profile) {
		p.Plan = plan
		p.AnalysesRemaining = remaining
	}
}

// WithRemaining 设置剩余次数
func WithRemaining(remaining int) func(*model.Profile) {
	return func(p *model.Profile) {
		p.AnalysesRemaining = remaining
	}
}

// WithCount 设置已使用次数
func WithCount(count int) func(*model.Profile) {
	return func(p *model.Profile) {
		p.AnalysesCount = count
	}
}

// TestAnalysis 创建测试分析
func TestAnalysis(t *testing.T, db *gorm.DB, userID string, opts ...func(*model.Analysis)) *model.Analysis {
	t.Helper()

	analysis := &model.Analysis{
		UserID:     userID,
		TargetURL:  fmt.Sprintf("https://competitor-%d.example.com", time.Now().UnixNano()%100000),
		ResultJSON: SampleReport,
	}

	for _, opt := range opts {
		opt(analysis)
	}

	if err := db.Create(analysis).Error; err != nil {
		t.Fatalf("Failed to create test analysis: %v", err)
	}

	return analysis
}

// WithTargetURL 设置目标 URL
func WithTargetURL(url string) func(*model.Analysis) {
	return func(a *model.Analysis) {
		a.TargetURL = url
	}
}

// WithResult 设置原始报告
func WithResult(raw string) func(*model.Analysis) {
	return func(a *model.Analysis) {
		a.ResultJSON = raw
	}
}

// WithCreatedAt 设置创建时间
func WithCreatedAt(at time.Time) func(*model.Analysis) {
	return func(a *model.Analysis) {
		a.CreatedAt = at
	}
}

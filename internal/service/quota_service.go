package service

import (
	"context"
	"errors"
	"math"
	"time"

	"gorm.io/gorm"

	"github.com/qs3c/datawarfare_server/config"
	"github.com/qs3c/datawarfare_server/internal/model"
	"github.com/qs3c/datawarfare_server/internal/model/dto"
	"github.com/qs3c/datawarfare_server/internal/repository"
)

var ErrProfileNotFound = errors.New("profile not found")

const timeLayout = time.RFC3339

type QuotaService struct {
	profileRepo *repository.ProfileRepository
	cfg         *config.Config
}

func NewQuotaService(profileRepo *repository.ProfileRepository, cfg *config.Config) *QuotaService {
	return &QuotaService{
		profileRepo: profileRepo,
		cfg:         cfg,
	}
}

// GetQuotaInfo 获取账户配额信息
func (s *QuotaService) GetQuotaInfo(ctx context.Context, userID string) (*dto.QuotaInfo, error) {
	profile, err := s.profileRepo.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrProfileNotFound
		}
		return nil, err
	}
	return QuotaOf(profile), nil
}

// QuotaOf 计算已用比例 count/(count+remaining)
func QuotaOf(p *model.Profile) *dto.QuotaInfo {
	info := &dto.QuotaInfo{
		Plan:      p.Plan,
		Used:      p.AnalysesCount,
		Remaining: p.AnalysesRemaining,
	}
	if total := p.AnalysesCount + p.AnalysesRemaining; total > 0 {
		pct := float64(p.AnalysesCount) / float64(total) * 100
		info.UsedPercentage = math.Round(pct*10) / 10
	}
	return info
}

// RecountAll 按分析表校正所有账户的 analyses_count
func (s *QuotaService) RecountAll(ctx context.Context) (int64, error) {
	return s.profileRepo.RecountAll(ctx)
}

// Plans 可购买的套餐目录
func (s *QuotaService) Plans() []dto.PlanInfo {
	order := []string{config.PlanFree, config.PlanPro, config.PlanElite}
	plans := make([]dto.PlanInfo, 0, len(s.cfg.Plans))
	for _, name := range order {
		p, ok := s.cfg.Plans[name]
		if !ok {
			continue
		}
		plans = append(plans, dto.PlanInfo{
			Name:        name,
			DisplayName: p.DisplayName,
			Analyses:    p.Analyses,
			AmountXOF:   p.AmountXOF,
		})
	}
	return plans
}

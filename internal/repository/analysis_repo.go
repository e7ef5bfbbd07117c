package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/qs3c/datawarfare_server/internal/model"
)

// AnalysisFilter 历史列表过滤条件
type AnalysisFilter struct {
	Search string
	Since  time.Time
	Limit  int
}

type AnalysisRepository struct {
	db *gorm.DB
}

func NewAnalysisRepository(db *gorm.DB) *AnalysisRepository {
	return &AnalysisRepository{db: db}
}

func (r *AnalysisRepository) Create(ctx context.Context, analysis *model.Analysis) error {
	return r.db.WithContext(ctx).Create(analysis).Error
}

// CreateWithDebit 在同一事务中扣减额度并写入分析记录
func (r *AnalysisRepository) CreateWithDebit(ctx context.Context, analysis *model.Analysis) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := debit(tx, analysis.UserID); err != nil {
			return err
		}
		return tx.Create(analysis).Error
	})
}

func (r *AnalysisRepository) GetByID(ctx context.Context, id string) (*model.Analysis, error) {
	var analysis model.Analysis
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&analysis).Error
	if err != nil {
		return nil, err
	}
	return &analysis, nil
}

// FindByUserAndURL 查找该账户对同一 URL 的最早一条记录
func (r *AnalysisRepository) FindByUserAndURL(ctx context.Context, userID, targetURL string) (*model.Analysis, error) {
	var analysis model.Analysis
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND target_url = ?", userID, targetURL).
		Order("created_at ASC").Order("id ASC").
		First(&analysis).Error
	if err != nil {
		return nil, err
	}
	return &analysis, nil
}

// ListByUserID 获取用户的分析历史，按时间倒序
func (r *AnalysisRepository) ListByUserID(ctx context.Context, userID string, filter AnalysisFilter) ([]*model.Analysis, error) {
	var analyses []*model.Analysis

	query := r.db.WithContext(ctx).Model(&model.Analysis{}).Where("user_id = ?", userID)

	if filter.Search != "" {
		like := "%" + filter.Search + "%"
		query = query.Where("target_url LIKE ? OR result_json LIKE ?", like, like)
	}
	if !filter.Since.IsZero() {
		query = query.Where("created_at >= ?", filter.Since)
	}
	if filter.Limit > 0 {
		query = query.Limit(filter.Limit)
	}

	if err := query.Order("created_at DESC").Find(&analyses).Error; err != nil {
		return nil, err
	}
	return analyses, nil
}

// ListCreatedAt 获取用户在 since 之后的所有创建时间，用于按天统计
func (r *AnalysisRepository) ListCreatedAt(ctx context.Context, userID string, since time.Time) ([]time.Time, error) {
	var times []time.Time
	err := r.db.WithContext(ctx).Model(&model.Analysis{}).
		Where("user_id = ? AND created_at >= ?", userID, since).
		Order("created_at ASC").
		Pluck("created_at", &times).Error
	return times, err
}

func (r *AnalysisRepository) CountByUserID(ctx context.Context, userID string) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&model.Analysis{}).Where("user_id = ?", userID).Count(&count).Error
	return count, err
}

// Delete 删除属于该用户的分析，返回是否删除了记录
func (r *AnalysisRepository) Delete(ctx context.Context, userID, id string) (bool, error) {
	result := r.db.WithContext(ctx).Where("id = ? AND user_id = ?", id, userID).Delete(&model.Analysis{})
	return result.RowsAffected > 0, result.Error
}

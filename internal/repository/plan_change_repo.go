package repository

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/qs3c/datawarfare_server/internal/model"
)

// ErrDuplicateEvent 同一渠道事件已处理过
var ErrDuplicateEvent = errors.New("plan change event already applied")

type PlanChangeRepository struct {
	db *gorm.DB
}

func NewPlanChangeRepository(db *gorm.DB) *PlanChangeRepository {
	return &PlanChangeRepository{db: db}
}

// Apply 记录变更并更新档案套餐，档案不存在时一并创建
func (r *PlanChangeRepository) Apply(ctx context.Context, change *model.PlanChange, email string) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&model.PlanChange{}).
			Where("provider = ? AND event_id = ?", change.Provider, change.EventID).
			Count(&count).Error; err != nil {
			return err
		}
		if count > 0 {
			return ErrDuplicateEvent
		}

		if err := tx.Create(change).Error; err != nil {
			return err
		}

		var exists int64
		if err := tx.Model(&model.Profile{}).Where("id = ?", change.UserID).Count(&exists).Error; err != nil {
			return err
		}
		if exists == 0 {
			return tx.Create(&model.Profile{
				ID:                change.UserID,
				Email:             email,
				Plan:              change.Plan,
				AnalysesRemaining: change.Analyses,
			}).Error
		}
		return setPlan(tx, change.UserID, change.Plan, change.Analyses)
	})
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return ErrDuplicateEvent
	}
	return err
}

// ListByUserID 分页获取用户的套餐变更记录
func (r *PlanChangeRepository) ListByUserID(ctx context.Context, userID string, page, pageSize int) ([]*model.PlanChange, int64, error) {
	var changes []*model.PlanChange
	var total int64

	query := r.db.WithContext(ctx).Model(&model.PlanChange{}).Where("user_id = ?", userID)
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * pageSize
	err := query.Order("created_at DESC").Order("id DESC").Offset(offset).Limit(pageSize).Find(&changes).Error
	if err != nil {
		return nil, 0, err
	}

	return changes, total, nil
}

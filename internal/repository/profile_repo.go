package repository

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/qs3c/datawarfare_server/internal/model"
)

// ErrInsufficientQuota 扣减时剩余次数已为 0
var ErrInsufficientQuota = errors.New("insufficient quota")

type ProfileRepository struct {
	db *gorm.DB
}

func NewProfileRepository(db *gorm.DB) *ProfileRepository {
	return &ProfileRepository{db: db}
}

func (r *ProfileRepository) Create(ctx context.Context, profile *model.Profile) error {
	return r.db.WithContext(ctx).Create(profile).Error
}

func (r *ProfileRepository) GetByID(ctx context.Context, id string) (*model.Profile, error) {
	var profile model.Profile
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&profile).Error
	if err != nil {
		return nil, err
	}
	return &profile, nil
}

// FirstOrCreate 获取档案，不存在时按默认值创建
func (r *ProfileRepository) FirstOrCreate(ctx context.Context, defaults *model.Profile) (*model.Profile, error) {
	profile, err := r.GetByID(ctx, defaults.ID)
	if err == nil {
		return profile, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	created := *defaults
	if err := r.Create(ctx, &created); err != nil {
		// 并发首次登录时另一请求可能已经建好
		if existing, getErr := r.GetByID(ctx, defaults.ID); getErr == nil {
			return existing, nil
		}
		return nil, err
	}
	return &created, nil
}

// Debit 扣减一次分析额度并累加使用次数
// 仅在 analyses_remaining > 0 时生效，否则返回 ErrInsufficientQuota
func (r *ProfileRepository) Debit(ctx context.Context, id string) error {
	return debit(r.db.WithContext(ctx), id)
}

func debit(tx *gorm.DB, id string) error {
	result := tx.Model(&model.Profile{}).
		Where("id = ? AND analyses_remaining > 0", id).
		Updates(map[string]interface{}{
			"analyses_remaining": gorm.Expr("analyses_remaining - 1"),
			"analyses_count":     gorm.Expr("analyses_count + 1"),
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrInsufficientQuota
	}
	return nil
}

// SetPlan 切换套餐并重置剩余次数
func (r *ProfileRepository) SetPlan(ctx context.Context, id, plan string, remaining int) error {
	return setPlan(r.db.WithContext(ctx), id, plan, remaining)
}

func setPlan(tx *gorm.DB, id, plan string, remaining int) error {
	return tx.Model(&model.Profile{}).Where("id = ?", id).Updates(map[string]interface{}{
		"plan":               plan,
		"analyses_remaining": remaining,
	}).Error
}

const recountExpr = "(SELECT COUNT(*) FROM analyses WHERE analyses.user_id = profiles.id)"

// Recount 按 analyses 表重新统计使用次数
func (r *ProfileRepository) Recount(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).Model(&model.Profile{}).Where("id = ?", id).
		Update("analyses_count", gorm.Expr(recountExpr)).Error
}

// RecountAll 重新统计所有账户的使用次数，返回计数有偏差的账户数
func (r *ProfileRepository) RecountAll(ctx context.Context) (int64, error) {
	result := r.db.WithContext(ctx).Model(&model.Profile{}).
		Where("analyses_count <> "+recountExpr).
		Update("analyses_count", gorm.Expr(recountExpr))
	return result.RowsAffected, result.Error
}

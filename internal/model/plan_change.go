package model

import (
	"time"
)

// PlanChange 支付渠道推送的套餐变更记录
// (Provider, EventID) 唯一，重复推送的 webhook 只生效一次
type PlanChange struct {
	ID        int64     `gorm:"primaryKey" json:"id"`
	UserID    string    `gorm:"size:64;not null;index" json:"user_id"`
	Provider  string    `gorm:"size:20;not null;uniqueIndex:idx_plan_changes_event,priority:1" json:"provider"` // moneroo, lygos, stripe
	EventID   string    `gorm:"size:128;not null;uniqueIndex:idx_plan_changes_event,priority:2" json:"event_id"`
	EventType string    `gorm:"size:64" json:"event_type"`
	Plan      string    `gorm:"size:20;not null" json:"plan"`
	Analyses  int       `json:"analyses"`
	CreatedAt time.Time `json:"created_at"`
}

func (PlanChange) TableName() string {
	return "plan_changes"
}

package model

import (
	"time"

	"github.com/oklog/ulid/v2"
	"gorm.io/gorm"
)

// Analysis 一次竞品分析的原始报告
// ResultJSON 沿用历史列名，内容是生成服务返回的 markdown 文本
type Analysis struct {
	ID         string    `gorm:"primaryKey;size:26" json:"id"`
	UserID     string    `gorm:"size:64;not null;index:idx_analyses_user_url,priority:1" json:"user_id"`
	TargetURL  string    `gorm:"size:512;not null;index:idx_analyses_user_url,priority:2" json:"target_url"`
	ResultJSON string    `gorm:"type:text" json:"result_json"`
	CreatedAt  time.Time `gorm:"index" json:"created_at"`
}

func (Analysis) TableName() string {
	return "analyses"
}

// BeforeCreate 由持久层分配 ID
func (a *Analysis) BeforeCreate(_ *gorm.DB) error {
	if a.ID == "" {
		a.ID = ulid.Make().String()
	}
	return nil
}

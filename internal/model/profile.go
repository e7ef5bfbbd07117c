package model

import (
	"time"
)

// Profile 账户档案，ID 为身份平台签发的 subject
type Profile struct {
	ID                string    `gorm:"primaryKey;size:64" json:"id"`
	Email             string    `gorm:"size:255;index" json:"email"`
	Plan              string    `gorm:"size:20;not null;default:free" json:"plan"` // free, pro, elite
	AnalysesCount     int       `gorm:"not null" json:"analyses_count"`
	AnalysesRemaining int       `gorm:"not null" json:"analyses_remaining"`
	CreatedAt         time.Time `json:"created_at"`
	UpdatedAt         time.Time `json:"updated_at"`
}

func (Profile) TableName() string {
	return "profiles"
}

// HasQuota 是否还能发起新的分析
func (p *Profile) HasQuota() bool {
	return p.AnalysesRemaining > 0
}

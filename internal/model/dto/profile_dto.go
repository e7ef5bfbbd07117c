package dto

// ProfileInfo 账户信息（返回给前端）
type ProfileInfo struct {
	ID                string `json:"id"`
	Email             string `json:"email"`
	Plan              string `json:"plan"`
	AnalysesCount     int    `json:"analyses_count"`
	AnalysesRemaining int    `json:"analyses_remaining"`
	CreatedAt         string `json:"created_at,omitempty"`
	UpdatedAt         string `json:"updated_at,omitempty"`
}

// QuotaInfo 配额信息
type QuotaInfo struct {
	Plan           string  `json:"plan"`
	Used           int     `json:"used"`
	Remaining      int     `json:"remaining"`
	UsedPercentage float64 `json:"used_percentage"`
}

// StatsResponse 仪表盘统计
type StatsResponse struct {
	Total int64        `json:"total"`
	Daily []DailyCount `json:"daily"`
	Quota *QuotaInfo   `json:"quota"`
}

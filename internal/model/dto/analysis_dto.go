package dto

// RunAnalysisRequest 发起分析请求
// URL 合法性由业务层判断，这里只要求非空
type RunAnalysisRequest struct {
	TargetURL string `json:"target_url" binding:"required,max=2048"`
}

// RunAnalysisResponse 发起分析响应
type RunAnalysisResponse struct {
	AnalysisID string       `json:"analysis_id,omitempty"`
	TargetURL  string       `json:"target_url"`
	Report     string       `json:"report"`
	Cached     bool         `json:"cached"`
	Warnings   []string     `json:"warnings,omitempty"`
	Profile    *ProfileInfo `json:"profile,omitempty"`
}

// AnalysisListItem 历史列表项
type AnalysisListItem struct {
	ID        string `json:"id"`
	TargetURL string `json:"target_url"`
	Summary   string `json:"summary"`
	CreatedAt string `json:"created_at"`
}

// AnalysisDetail 分析详情
type AnalysisDetail struct {
	ID        string `json:"id"`
	TargetURL string `json:"target_url"`
	Raw       string `json:"raw"`
	Report    string `json:"report"`
	CreatedAt string `json:"created_at"`
}

// ListAnalysesQuery 历史列表查询参数
type ListAnalysesQuery struct {
	Search    string `form:"search" binding:"omitempty,max=200"`
	Period    string `form:"period" binding:"omitempty,oneof=all 7days 30days"`
	Anonymize bool   `form:"anonymize"`
	Limit     int    `form:"limit" binding:"omitempty,min=1,max=100"`
}

// PublishResponse 发布报告响应
type PublishResponse struct {
	URL string `json:"url"`
}

// DailyCount 每日分析数量
type DailyCount struct {
	Date  string `json:"date"`
	Count int64  `json:"count"`
}

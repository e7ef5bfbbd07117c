package dto

import "time"

// CheckoutRequest 创建支付会话请求，plan_id 与 price_id 二选一
type CheckoutRequest struct {
	PlanID   string `json:"plan_id" binding:"omitempty,oneof=pro elite"`
	PriceID  string `json:"price_id" binding:"omitempty,max=128"`
	Provider string `json:"provider" binding:"omitempty,oneof=moneroo lygos stripe"`
}

// CheckoutResponse 支付会话响应
type CheckoutResponse struct {
	CheckoutURL string `json:"checkout_url"`
	Provider    string `json:"provider"`
}

// PlanInfo 套餐展示信息
type PlanInfo struct {
	Name        string `json:"name"`
	DisplayName string `json:"display_name"`
	Analyses    int    `json:"analyses"`
	AmountXOF   int64  `json:"amount_xof,omitempty"`
}

// BillingHistoryQuery 套餐变更记录查询参数
type BillingHistoryQuery struct {
	Page     int `form:"page" binding:"omitempty,min=1"`
	PageSize int `form:"page_size" binding:"omitempty,min=1,max=50"`
}

// PlanChangeItem 套餐变更记录
type PlanChangeItem struct {
	Provider  string    `json:"provider"`
	EventType string    `json:"event_type"`
	Plan      string    `json:"plan"`
	Analyses  int       `json:"analyses"`
	CreatedAt time.Time `json:"created_at"`
}

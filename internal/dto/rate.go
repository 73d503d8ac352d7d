package dto

import "github.com/shopspring/decimal"

// ── 单价模块 DTO ──

// PerDayRateFilter 日单价预览参数
type PerDayRateFilter struct {
	PoolFilter
	LeavePolicy string `form:"leave_policy" binding:"omitempty,oneof=CHARGED NOT_CHARGED"`
}

// PerDayRateResponse 日单价预览
type PerDayRateResponse struct {
	Pool         PoolResponse    `json:"pool"`
	LeavePolicy  string          `json:"leave_policy"`
	TotalMandays int             `json:"total_mandays"`
	PerDayRate   decimal.Decimal `json:"per_day_rate"`
}

// SetMonthlyRateRequest 设置月度单价
// 同一 (month, year) 下所有学期的行都会被更新
type SetMonthlyRateRequest struct {
	SemesterID    string          `json:"semester_id" binding:"required"`
	Month         int             `json:"month"       binding:"required,min=1,max=12"`
	Year          int             `json:"year"        binding:"required,min=2000,max=2100"`
	LaborRate     decimal.Decimal `json:"labor_rate"`
	ProvisionRate decimal.Decimal `json:"provision_rate"`
}

// MonthFilter 月份查询条件
type MonthFilter struct {
	Month     int    `form:"month"      binding:"required,min=1,max=12"`
	Year      int    `form:"year"       binding:"required,min=2000,max=2100"`
	StudentID string `form:"student_id"`
}

// MonthlyRateResponse 月度单价
type MonthlyRateResponse struct {
	ID            string          `json:"id"`
	SemesterID    string          `json:"semester_id"`
	Month         int             `json:"month"`
	Year          int             `json:"year"`
	LaborRate     decimal.Decimal `json:"labor_rate"`
	ProvisionRate decimal.Decimal `json:"provision_rate"`
	UpdatedAt     string          `json:"updated_at"`
}

// SetMonthlyRateResponse 设置月度单价结果
// StaleBalances 为该月已生成、未随单价自动重算的结余行数
type SetMonthlyRateResponse struct {
	Month         int                   `json:"month"`
	Year          int                   `json:"year"`
	UpdatedRows   int64                 `json:"updated_rows"`
	Created       bool                  `json:"created"`
	StaleBalances int64                 `json:"stale_balances"`
	Rates         []MonthlyRateResponse `json:"rates"`
	Audit         AuditOutcome          `json:"audit"`
}

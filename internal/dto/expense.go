package dto

import "github.com/shopspring/decimal"

// ── 支出模块 DTO ──

// CreateExpenseRequest 新增支出请求
type CreateExpenseRequest struct {
	Date        string          `json:"date"        binding:"required"`
	Type        string          `json:"type"        binding:"required,oneof=Labour Maintenance Utility Other"`
	Amount      decimal.Decimal `json:"amount"`
	Description string          `json:"description" binding:"omitempty,max=500"`
}

// ExpenseFilter 支出查询条件
type ExpenseFilter struct {
	From string `form:"from" binding:"required"`
	To   string `form:"to"   binding:"required"`
	Type string `form:"type" binding:"omitempty,oneof=Labour Maintenance Utility Other"`
}

// PoolFilter 支出池计算参数（金额以字符串传入，避免浮点误差）
type PoolFilter struct {
	SemesterID   string `form:"semester_id"   binding:"required"`
	CarryForward string `form:"carry_forward"`
	Advances     string `form:"advances"`
	PendingCost  string `form:"pending_cost"`
}

// ExpenseResponse 支出响应
type ExpenseResponse struct {
	ID          string          `json:"id"`
	Date        string          `json:"date"`
	Type        string          `json:"type"`
	Amount      decimal.Decimal `json:"amount"`
	Description string          `json:"description,omitempty"`
}

// PoolResponse 支出池明细
type PoolResponse struct {
	SemesterID    string          `json:"semester_id"`
	PeriodStart   string          `json:"period_start"`
	PeriodEnd     string          `json:"period_end"`
	TotalExpenses decimal.Decimal `json:"total_expenses"`
	PendingCost   decimal.Decimal `json:"pending_cost"`
	Advances      decimal.Decimal `json:"advances"`
	CarryForward  decimal.Decimal `json:"carry_forward"`
	NetPool       decimal.Decimal `json:"net_pool"`
	NegativePool  bool            `json:"negative_pool"` // 预付款与结转超过支出，日单价为负
}

// ExpenseResult 新增支出结果
type ExpenseResult struct {
	Record ExpenseResponse `json:"record"`
	Audit  AuditOutcome    `json:"audit"`
}

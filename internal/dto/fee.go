package dto

import "github.com/shopspring/decimal"

// ── 收费台账模块 DTO ──

// RecordPaymentRequest 记录付款
// OverrideBalance 非空时本次直接以其作为余额
type RecordPaymentRequest struct {
	StudentID       string           `json:"student_id"       binding:"required"`
	SemesterID      string           `json:"semester_id"      binding:"required"`
	Amount          decimal.Decimal  `json:"amount"`
	PaymentMode     string           `json:"payment_mode"     binding:"required,oneof=cash upi card bank_transfer cheque"`
	PaymentDate     string           `json:"payment_date"`
	OverrideBalance *decimal.Decimal `json:"override_balance"`
}

// OverrideBalanceRequest 人工修正余额
type OverrideBalanceRequest struct {
	Balance *decimal.Decimal `json:"balance" binding:"required"`
}

// FeeFilter 台账查询条件
type FeeFilter struct {
	SemesterID string `form:"semester_id"`
	StudentID  string `form:"student_id"`
	PaginationRequest
}

// FeeRecordResponse 台账响应
type FeeRecordResponse struct {
	ID                string          `json:"id"`
	StudentID         string          `json:"student_id"`
	SemesterID        string          `json:"semester_id"`
	TotalDue          decimal.Decimal `json:"total_due"`
	AmountPaid        decimal.Decimal `json:"amount_paid"`
	Balance           decimal.Decimal `json:"balance"`
	BalanceOverridden bool            `json:"balance_overridden"`
	PaymentMode       string          `json:"payment_mode,omitempty"`
	PaymentDate       *string         `json:"payment_date,omitempty"`
	UpdatedAt         string          `json:"updated_at"`
}

// LedgerResult 台账变更结果：主操作结果与审计副作用分开报告
type LedgerResult struct {
	Record FeeRecordResponse `json:"record"`
	Audit  AuditOutcome      `json:"audit"`
}

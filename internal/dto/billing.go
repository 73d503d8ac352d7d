package dto

import "github.com/shopspring/decimal"

// ── 计费模块 DTO ──

// RunSemesterBillingRequest 学期计费请求
type RunSemesterBillingRequest struct {
	SemesterID    string                     `json:"semester_id"   binding:"required"`
	CarryForward  decimal.Decimal            `json:"carry_forward"`
	Advances      decimal.Decimal            `json:"advances"`
	PendingCost   decimal.Decimal            `json:"pending_cost"`
	LeavePolicy   string                     `json:"leave_policy"  binding:"omitempty,oneof=CHARGED NOT_CHARGED"`
	Adjustments   map[string]decimal.Decimal `json:"adjustments"`    // student_id → 调整额（可负）
	CarryForwards map[string]decimal.Decimal `json:"carry_forwards"` // student_id → 个人结转抵扣
}

// BillResponse 单个学生账单
type BillResponse struct {
	StudentID           string          `json:"student_id"`
	RollNo              string          `json:"roll_no,omitempty"`
	Name                string          `json:"name,omitempty"`
	Hostel              string          `json:"hostel,omitempty"`
	Mandays             int             `json:"mandays"`
	PerDayRate          decimal.Decimal `json:"per_day_rate"`
	GrossAmount         decimal.Decimal `json:"gross_amount"`
	Adjustments         decimal.Decimal `json:"adjustments"`
	CarryForwardApplied decimal.Decimal `json:"carry_forward_applied"`
	FinalAmount         decimal.Decimal `json:"final_amount"`
	IsMando             bool            `json:"is_mando"`
}

// SemesterBillingResponse 学期计费结果
type SemesterBillingResponse struct {
	SemesterID   string             `json:"semester_id"`
	Pool         PoolResponse       `json:"pool"`
	LeavePolicy  string             `json:"leave_policy"`
	TotalMandays int                `json:"total_mandays"`
	PerDayRate   decimal.Decimal    `json:"per_day_rate"`
	TotalBilled  decimal.Decimal    `json:"total_billed"`
	Bills        []BillResponse     `json:"bills"`
	Mando        MandoAllocationDTO `json:"mando"`
	Bulk         BulkResult         `json:"bulk"`
	Run          RunOutcome         `json:"run"`
	Audit        AuditOutcome       `json:"audit"`
}

// RunOutcome 账单写入之后的汇总步骤结果
// 汇总或 Mando 分摊失败不影响已写入的账单，Mando 字段在 MandoComputed=false 时无意义
type RunOutcome struct {
	SummarySaved  bool     `json:"summary_saved"`
	MandoComputed bool     `json:"mando_computed"`
	Errors        []string `json:"errors,omitempty"`
}

// RunMonthlyBillingRequest 月度计费请求
type RunMonthlyBillingRequest struct {
	Month int `json:"month" binding:"required,min=1,max=12"`
	Year  int `json:"year"  binding:"required,min=2000,max=2100"`
}

// MonthlyBalanceResponse 月度结余
type MonthlyBalanceResponse struct {
	StudentID       string          `json:"student_id"`
	SemesterID      *string         `json:"semester_id,omitempty"`
	Month           int             `json:"month"`
	Year            int             `json:"year"`
	LaborDays       int             `json:"labor_days"`
	ProvisionDays   int             `json:"provision_days"`
	LaborCharge     decimal.Decimal `json:"labor_charge"`
	ProvisionCharge decimal.Decimal `json:"provision_charge"`
	Balance         decimal.Decimal `json:"balance"`
}

// MonthlyBillingResponse 月度计费结果
type MonthlyBillingResponse struct {
	Month         int                      `json:"month"`
	Year          int                      `json:"year"`
	LaborRate     decimal.Decimal          `json:"labor_rate"`
	ProvisionRate decimal.Decimal          `json:"provision_rate"`
	Balances      []MonthlyBalanceResponse `json:"balances"`
	Bulk          BulkResult               `json:"bulk"`
	Audit         AuditOutcome             `json:"audit"`
}

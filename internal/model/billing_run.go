package model

import "github.com/shopspring/decimal"

// BillingRun 学期计费汇总，对应 billing_runs，每学期一行，重算时覆盖
type BillingRun struct {
	BillingRunID  string          `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"billing_run_id"`
	SemesterID    string          `gorm:"type:uuid;not null;uniqueIndex"                 json:"semester_id"`
	TotalExpenses decimal.Decimal `gorm:"type:numeric(12,2);not null;default:0"          json:"total_expenses"`
	PendingCost   decimal.Decimal `gorm:"type:numeric(12,2);not null;default:0"          json:"pending_cost"`
	Advances      decimal.Decimal `gorm:"type:numeric(12,2);not null;default:0"          json:"advances"`
	CarryForward  decimal.Decimal `gorm:"type:numeric(12,2);not null;default:0"          json:"carry_forward"`
	NetPool       decimal.Decimal `gorm:"type:numeric(12,2);not null;default:0"          json:"net_pool"`
	TotalMandays  int             `gorm:"not null;default:0"                             json:"total_mandays"`
	PerDayRate    decimal.Decimal `gorm:"type:numeric(12,4);not null;default:0"          json:"per_day_rate"`
	LeavePolicy   string          `gorm:"type:varchar(12);not null"                      json:"leave_policy"`
	StudentCount  int             `gorm:"not null;default:0"                             json:"student_count"`
	FailedCount   int             `gorm:"not null;default:0"                             json:"failed_count"`
	BaseModel
}

// TableName 指定表名
func (BillingRun) TableName() string { return "billing_runs" }

package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// FeeStructure 学生学期账单，对应 fee_structures，(student_id, semester_id) 唯一
// 由学期计费生成，是收费台账的定价依据
type FeeStructure struct {
	FeeStructureID      string          `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"fee_structure_id"`
	StudentID           string          `gorm:"type:uuid;not null"                             json:"student_id"`
	SemesterID          string          `gorm:"type:uuid;not null"                             json:"semester_id"`
	Mandays             int             `gorm:"not null;default:0"                             json:"mandays"`
	PerDayRate          decimal.Decimal `gorm:"type:numeric(12,4);not null;default:0"          json:"per_day_rate"`
	GrossAmount         decimal.Decimal `gorm:"type:numeric(12,2);not null;default:0"          json:"gross_amount"`
	Adjustments         decimal.Decimal `gorm:"type:numeric(12,2);not null;default:0"          json:"adjustments"`
	CarryForwardApplied decimal.Decimal `gorm:"type:numeric(12,2);not null;default:0"          json:"carry_forward_applied"`
	FinalAmount         decimal.Decimal `gorm:"type:numeric(12,2);not null;default:0"          json:"final_amount"`
	IsMando             bool            `gorm:"not null;default:false"                         json:"is_mando"`
	BaseModel

	// 关联
	Student *Student `gorm:"foreignKey:StudentID;references:StudentID" json:"student,omitempty"`
}

// TableName 指定表名
func (FeeStructure) TableName() string { return "fee_structures" }

// FeeRecord 收费台账，对应 fee_records，(student_id, semester_id) 唯一
// 未覆盖时 Balance = TotalDue - AmountPaid
type FeeRecord struct {
	FeeRecordID       string          `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"fee_record_id"`
	StudentID         string          `gorm:"type:uuid;not null"                             json:"student_id"`
	SemesterID        string          `gorm:"type:uuid;not null"                             json:"semester_id"`
	TotalDue          decimal.Decimal `gorm:"type:numeric(12,2);not null;default:0"          json:"total_due"`
	AmountPaid        decimal.Decimal `gorm:"type:numeric(12,2);not null;default:0"          json:"amount_paid"`
	Balance           decimal.Decimal `gorm:"type:numeric(12,2);not null;default:0"          json:"balance"`
	BalanceOverridden bool            `gorm:"not null;default:false"                         json:"balance_overridden"`
	PaymentMode       string          `gorm:"type:varchar(20)"                               json:"payment_mode,omitempty"`
	PaymentDate       *time.Time      `gorm:"type:date"                                      json:"payment_date,omitempty"`
	BaseModel
}

// TableName 指定表名
func (FeeRecord) TableName() string { return "fee_records" }

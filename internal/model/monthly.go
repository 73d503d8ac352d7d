package model

import "github.com/shopspring/decimal"

// MonthlyRate 月度人工/伙食单价，对应 monthly_rates
// 同一 (month, year) 的所有行（不论所属学期）单价必须一致
type MonthlyRate struct {
	MonthlyRateID string          `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"monthly_rate_id"`
	SemesterID    string          `gorm:"type:uuid;not null"                             json:"semester_id"`
	Month         int             `gorm:"type:smallint;not null"                         json:"month"`
	Year          int             `gorm:"type:smallint;not null"                         json:"year"`
	LaborRate     decimal.Decimal `gorm:"type:numeric(12,4);not null;default:0"          json:"labor_rate"`
	ProvisionRate decimal.Decimal `gorm:"type:numeric(12,4);not null;default:0"          json:"provision_rate"`
	BaseModel
}

// TableName 指定表名
func (MonthlyRate) TableName() string { return "monthly_rates" }

// MonthlyBalance 学生月度结余，对应 monthly_balances
// (student_id, month, year) 唯一，不区分学期以便跨学期衔接
type MonthlyBalance struct {
	MonthlyBalanceID string          `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"monthly_balance_id"`
	StudentID        string          `gorm:"type:uuid;not null"                             json:"student_id"`
	SemesterID       *string         `gorm:"type:uuid"                                      json:"semester_id,omitempty"`
	Month            int             `gorm:"type:smallint;not null"                         json:"month"`
	Year             int             `gorm:"type:smallint;not null"                         json:"year"`
	LaborDays        int             `gorm:"not null;default:0"                             json:"labor_days"`
	ProvisionDays    int             `gorm:"not null;default:0"                             json:"provision_days"`
	LaborCharge      decimal.Decimal `gorm:"type:numeric(12,2);not null;default:0"          json:"labor_charge"`
	ProvisionCharge  decimal.Decimal `gorm:"type:numeric(12,2);not null;default:0"          json:"provision_charge"`
	Balance          decimal.Decimal `gorm:"type:numeric(12,2);not null;default:0"          json:"balance"`
	BaseModel
}

// TableName 指定表名
func (MonthlyBalance) TableName() string { return "monthly_balances" }

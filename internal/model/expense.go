package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// 支出类型
const (
	ExpenseTypeLabour      = "Labour"
	ExpenseTypeMaintenance = "Maintenance"
	ExpenseTypeUtility     = "Utility"
	ExpenseTypeOther       = "Other"
)

// Expense 支出表，对应 expenses（只追加）
type Expense struct {
	ExpenseID   string          `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"expense_id"`
	Date        time.Time       `gorm:"type:date;not null"                             json:"date"`
	Type        string          `gorm:"type:varchar(20);not null"                      json:"type"`
	Amount      decimal.Decimal `gorm:"type:numeric(12,2);not null"                    json:"amount"`
	Description string          `gorm:"type:varchar(500)"                              json:"description,omitempty"`
	BaseModel
}

// TableName 指定表名
func (Expense) TableName() string { return "expenses" }

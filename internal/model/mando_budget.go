package model

import "github.com/shopspring/decimal"

// MandoBudget Mando 补贴预算，对应 mando_budgets（每学期一行）
// 学期未配置时使用配置文件中的默认值
type MandoBudget struct {
	SemesterID  string          `gorm:"type:uuid;primaryKey"                  json:"semester_id"`
	BoysAmount  decimal.Decimal `gorm:"type:numeric(12,2);not null;default:0" json:"boys_amount"`
	GirlsAmount decimal.Decimal `gorm:"type:numeric(12,2);not null;default:0" json:"girls_amount"`
	TotalAmount decimal.Decimal `gorm:"type:numeric(12,2);not null;default:0" json:"total_amount"`
	PerMealRate decimal.Decimal `gorm:"type:numeric(12,2);not null;default:0" json:"per_meal_rate"`
	BaseModel
}

// TableName 指定表名
func (MandoBudget) TableName() string { return "mando_budgets" }

package dto

import "github.com/shopspring/decimal"

// ── Mando 模块 DTO ──

// SemesterQuery 仅含学期 ID 的查询条件
type SemesterQuery struct {
	SemesterID string `form:"semester_id" binding:"required"`
}

// UpdateMandoBudgetRequest 设置学期 Mando 预算
type UpdateMandoBudgetRequest struct {
	SemesterID  string          `json:"semester_id" binding:"required"`
	BoysAmount  decimal.Decimal `json:"boys_amount"`
	GirlsAmount decimal.Decimal `json:"girls_amount"`
	TotalAmount decimal.Decimal `json:"total_amount"`
	PerMealRate decimal.Decimal `json:"per_meal_rate"`
}

// MandoBudgetResponse Mando 预算
// IsDefault 为 true 表示该学期未单独配置，取自配置文件
type MandoBudgetResponse struct {
	SemesterID  string          `json:"semester_id"`
	BoysAmount  decimal.Decimal `json:"boys_amount"`
	GirlsAmount decimal.Decimal `json:"girls_amount"`
	TotalAmount decimal.Decimal `json:"total_amount"`
	PerMealRate decimal.Decimal `json:"per_meal_rate"`
	IsDefault   bool            `json:"is_default"`
}

// UpdateMandoBudgetResponse 设置预算结果
type UpdateMandoBudgetResponse struct {
	Budget MandoBudgetResponse `json:"budget"`
	Audit  AuditOutcome        `json:"audit"`
}

// MandoAllocationDTO Mando 预算分摊（超预算仅提示）
type MandoAllocationDTO struct {
	SemesterID     string              `json:"semester_id"`
	Budget         MandoBudgetResponse `json:"budget"`
	BoysCoverage   decimal.Decimal     `json:"boys_coverage"`
	GirlsCoverage  decimal.Decimal     `json:"girls_coverage"`
	TotalCoverage  decimal.Decimal     `json:"total_coverage"`
	BoysStudents   int                 `json:"boys_students"`
	GirlsStudents  int                 `json:"girls_students"`
	MealCount      int                 `json:"meal_count"`
	MealEstimate   decimal.Decimal     `json:"meal_estimate"`
	BoysWithin     bool                `json:"boys_within_budget"`
	GirlsWithin    bool                `json:"girls_within_budget"`
	TotalWithin    bool                `json:"total_within_budget"`
	IsWithinBudget bool                `json:"is_within_budget"`
}

package repository

import (
	"context"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"hostel-mess/backend/internal/model"
)

// MonthlyRateRepository 月度单价数据访问接口
type MonthlyRateRepository interface {
	Create(ctx context.Context, rate *model.MonthlyRate) error
	ListByMonth(ctx context.Context, month, year int) ([]model.MonthlyRate, error)
	// UpdateByMonth 将 (month, year) 下所有行（不论学期）更新为同一单价，返回受影响行数
	UpdateByMonth(ctx context.Context, month, year int, laborRate, provisionRate decimal.Decimal, updatedBy string) (int64, error)
}

type monthlyRateRepo struct {
	db *gorm.DB
}

// NewMonthlyRateRepo 创建 MonthlyRateRepository 实例
func NewMonthlyRateRepo(db *gorm.DB) MonthlyRateRepository {
	return &monthlyRateRepo{db: db}
}

func (r *monthlyRateRepo) Create(ctx context.Context, rate *model.MonthlyRate) error {
	return r.db.WithContext(ctx).Create(rate).Error
}

func (r *monthlyRateRepo) ListByMonth(ctx context.Context, month, year int) ([]model.MonthlyRate, error) {
	var rates []model.MonthlyRate
	err := r.db.WithContext(ctx).
		Where("month = ? AND year = ?", month, year).
		Order("created_at ASC").
		Find(&rates).Error
	return rates, err
}

func (r *monthlyRateRepo) UpdateByMonth(ctx context.Context, month, year int, laborRate, provisionRate decimal.Decimal, updatedBy string) (int64, error) {
	result := r.db.WithContext(ctx).
		Model(&model.MonthlyRate{}).
		Where("month = ? AND year = ?", month, year).
		Updates(map[string]interface{}{
			"labor_rate":     laborRate,
			"provision_rate": provisionRate,
			"updated_by":     updatedBy,
		})
	return result.RowsAffected, result.Error
}

// MonthlyBalanceRepository 月度结余数据访问接口
type MonthlyBalanceRepository interface {
	// Upsert 按 (student_id, month, year) 写入或覆盖，忽略学期
	Upsert(ctx context.Context, bal *model.MonthlyBalance) error
	List(ctx context.Context, month, year int, studentID string) ([]model.MonthlyBalance, error)
	CountByMonth(ctx context.Context, month, year int) (int64, error)
}

type monthlyBalanceRepo struct {
	db *gorm.DB
}

// NewMonthlyBalanceRepo 创建 MonthlyBalanceRepository 实例
func NewMonthlyBalanceRepo(db *gorm.DB) MonthlyBalanceRepository {
	return &monthlyBalanceRepo{db: db}
}

func (r *monthlyBalanceRepo) Upsert(ctx context.Context, bal *model.MonthlyBalance) error {
	return r.db.WithContext(ctx).
		Clauses(
			clause.OnConflict{
				Columns: []clause.Column{{Name: "student_id"}, {Name: "month"}, {Name: "year"}},
				DoUpdates: clause.Assignments(map[string]interface{}{
					"semester_id":      bal.SemesterID,
					"labor_days":       bal.LaborDays,
					"provision_days":   bal.ProvisionDays,
					"labor_charge":     bal.LaborCharge,
					"provision_charge": bal.ProvisionCharge,
					"balance":          bal.Balance,
					"updated_by":       bal.UpdatedBy,
					"updated_at":       gorm.Expr("NOW()"),
				}),
			},
			clause.Returning{},
		).
		Create(bal).Error
}

func (r *monthlyBalanceRepo) List(ctx context.Context, month, year int, studentID string) ([]model.MonthlyBalance, error) {
	db := r.db.WithContext(ctx).
		Where("month = ? AND year = ?", month, year)
	if studentID != "" {
		db = db.Where("student_id = ?", studentID)
	}

	var balances []model.MonthlyBalance
	err := db.Order("student_id ASC").Find(&balances).Error
	return balances, err
}

func (r *monthlyBalanceRepo) CountByMonth(ctx context.Context, month, year int) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&model.MonthlyBalance{}).
		Where("month = ? AND year = ?", month, year).
		Count(&count).Error
	return count, err
}

package repository

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"hostel-mess/backend/internal/model"
)

// ExpenseQuery 支出查询条件；From/To 为闭区间，Type 为空表示全部类型
type ExpenseQuery struct {
	From time.Time
	To   time.Time
	Type string
}

// ExpenseRepository 支出数据访问接口（只追加）
type ExpenseRepository interface {
	Create(ctx context.Context, expense *model.Expense) error
	List(ctx context.Context, q ExpenseQuery) ([]model.Expense, error)
	// SumInRange 区间内支出合计，无记录时为 0
	SumInRange(ctx context.Context, from, to time.Time) (decimal.Decimal, error)
}

type expenseRepo struct {
	db *gorm.DB
}

// NewExpenseRepo 创建 ExpenseRepository 实例
func NewExpenseRepo(db *gorm.DB) ExpenseRepository {
	return &expenseRepo{db: db}
}

func (r *expenseRepo) Create(ctx context.Context, expense *model.Expense) error {
	return r.db.WithContext(ctx).Create(expense).Error
}

func (r *expenseRepo) List(ctx context.Context, q ExpenseQuery) ([]model.Expense, error) {
	db := r.db.WithContext(ctx).
		Where("date BETWEEN ? AND ?", q.From, q.To)
	if q.Type != "" {
		db = db.Where("type = ?", q.Type)
	}

	var expenses []model.Expense
	err := db.Order("date ASC, created_at ASC").Find(&expenses).Error
	return expenses, err
}

func (r *expenseRepo) SumInRange(ctx context.Context, from, to time.Time) (decimal.Decimal, error) {
	var total decimal.Decimal
	err := r.db.WithContext(ctx).
		Model(&model.Expense{}).
		Select("COALESCE(SUM(amount), 0)").
		Where("date BETWEEN ? AND ?", from, to).
		Row().
		Scan(&total)
	return total, err
}

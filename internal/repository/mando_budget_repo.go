package repository

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"hostel-mess/backend/internal/model"
)

// MandoBudgetRepository Mando 预算数据访问接口
type MandoBudgetRepository interface {
	GetBySemester(ctx context.Context, semesterID string) (*model.MandoBudget, error)
	Upsert(ctx context.Context, budget *model.MandoBudget) error
}

type mandoBudgetRepo struct {
	db *gorm.DB
}

// NewMandoBudgetRepo 创建 MandoBudgetRepository 实例
func NewMandoBudgetRepo(db *gorm.DB) MandoBudgetRepository {
	return &mandoBudgetRepo{db: db}
}

func (r *mandoBudgetRepo) GetBySemester(ctx context.Context, semesterID string) (*model.MandoBudget, error) {
	var budget model.MandoBudget
	err := r.db.WithContext(ctx).
		Where("semester_id = ?", semesterID).
		First(&budget).Error
	if err != nil {
		return nil, err
	}
	return &budget, nil
}

func (r *mandoBudgetRepo) Upsert(ctx context.Context, budget *model.MandoBudget) error {
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "semester_id"}},
			DoUpdates: clause.AssignmentColumns([]string{
				"boys_amount", "girls_amount", "total_amount", "per_meal_rate", "updated_by", "updated_at",
			}),
		}).
		Create(budget).Error
}

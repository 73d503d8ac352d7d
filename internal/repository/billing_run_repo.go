package repository

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"hostel-mess/backend/internal/model"
)

// BillingRunRepository 学期计费汇总数据访问接口
type BillingRunRepository interface {
	Upsert(ctx context.Context, run *model.BillingRun) error
	GetBySemester(ctx context.Context, semesterID string) (*model.BillingRun, error)
}

type billingRunRepo struct {
	db *gorm.DB
}

// NewBillingRunRepo 创建 BillingRunRepository 实例
func NewBillingRunRepo(db *gorm.DB) BillingRunRepository {
	return &billingRunRepo{db: db}
}

func (r *billingRunRepo) Upsert(ctx context.Context, run *model.BillingRun) error {
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "semester_id"}},
			DoUpdates: clause.AssignmentColumns([]string{
				"total_expenses", "pending_cost", "advances", "carry_forward", "net_pool",
				"total_mandays", "per_day_rate", "leave_policy", "student_count", "failed_count",
				"updated_by", "updated_at",
			}),
		}).
		Create(run).Error
}

func (r *billingRunRepo) GetBySemester(ctx context.Context, semesterID string) (*model.BillingRun, error) {
	var run model.BillingRun
	err := r.db.WithContext(ctx).
		Where("semester_id = ?", semesterID).
		First(&run).Error
	if err != nil {
		return nil, err
	}
	return &run, nil
}

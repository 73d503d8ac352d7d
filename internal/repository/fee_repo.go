package repository

import (
	"context"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"hostel-mess/backend/internal/model"
)

// FeeStructureRepository 学期账单数据访问接口
type FeeStructureRepository interface {
	// Upsert 按 (student_id, semester_id) 写入或覆盖账单
	Upsert(ctx context.Context, fs *model.FeeStructure) error
	GetByStudentAndSemester(ctx context.Context, studentID, semesterID string) (*model.FeeStructure, error)
	ListBySemester(ctx context.Context, semesterID string) ([]model.FeeStructure, error)
}

type feeStructureRepo struct {
	db *gorm.DB
}

// NewFeeStructureRepo 创建 FeeStructureRepository 实例
func NewFeeStructureRepo(db *gorm.DB) FeeStructureRepository {
	return &feeStructureRepo{db: db}
}

func (r *feeStructureRepo) Upsert(ctx context.Context, fs *model.FeeStructure) error {
	return r.db.WithContext(ctx).
		Omit("Student").
		Clauses(
			clause.OnConflict{
				Columns: []clause.Column{{Name: "student_id"}, {Name: "semester_id"}},
				DoUpdates: clause.Assignments(map[string]interface{}{
					"mandays":               fs.Mandays,
					"per_day_rate":          fs.PerDayRate,
					"gross_amount":          fs.GrossAmount,
					"adjustments":           fs.Adjustments,
					"carry_forward_applied": fs.CarryForwardApplied,
					"final_amount":          fs.FinalAmount,
					"is_mando":              fs.IsMando,
					"updated_by":            fs.UpdatedBy,
					"updated_at":            gorm.Expr("NOW()"),
				}),
			},
			clause.Returning{},
		).
		Create(fs).Error
}

func (r *feeStructureRepo) GetByStudentAndSemester(ctx context.Context, studentID, semesterID string) (*model.FeeStructure, error) {
	var fs model.FeeStructure
	err := r.db.WithContext(ctx).
		Where("student_id = ? AND semester_id = ?", studentID, semesterID).
		First(&fs).Error
	if err != nil {
		return nil, err
	}
	return &fs, nil
}

func (r *feeStructureRepo) ListBySemester(ctx context.Context, semesterID string) ([]model.FeeStructure, error) {
	var list []model.FeeStructure
	err := r.db.WithContext(ctx).
		Preload("Student").
		Where("semester_id = ?", semesterID).
		Order("student_id ASC").
		Find(&list).Error
	return list, err
}

// FeeRecordRepository 收费台账数据访问接口
type FeeRecordRepository interface {
	GetByStudentAndSemester(ctx context.Context, studentID, semesterID string) (*model.FeeRecord, error)
	// GetForUpdate 在事务内读取台账并加行锁（SELECT ... FOR UPDATE）
	GetForUpdate(ctx context.Context, studentID, semesterID string) (*model.FeeRecord, error)
	// AddPayment 在数据库内累加付款；台账不存在时按 rec（首笔付款后的取值）开立。写入后 rec 为最新行
	AddPayment(ctx context.Context, rec *model.FeeRecord, amount decimal.Decimal, override *decimal.Decimal) error
	// Upsert 按 (student_id, semester_id) 写入或覆盖台账
	Upsert(ctx context.Context, rec *model.FeeRecord) error
	List(ctx context.Context, semesterID, studentID string, offset, limit int) ([]model.FeeRecord, int64, error)
}

type feeRecordRepo struct {
	db *gorm.DB
}

// NewFeeRecordRepo 创建 FeeRecordRepository 实例
func NewFeeRecordRepo(db *gorm.DB) FeeRecordRepository {
	return &feeRecordRepo{db: db}
}

func (r *feeRecordRepo) GetByStudentAndSemester(ctx context.Context, studentID, semesterID string) (*model.FeeRecord, error) {
	var rec model.FeeRecord
	err := r.db.WithContext(ctx).
		Where("student_id = ? AND semester_id = ?", studentID, semesterID).
		First(&rec).Error
	if err != nil {
		return nil, err
	}
	return &rec, nil
}

func (r *feeRecordRepo) GetForUpdate(ctx context.Context, studentID, semesterID string) (*model.FeeRecord, error) {
	var rec model.FeeRecord
	err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("student_id = ? AND semester_id = ?", studentID, semesterID).
		First(&rec).Error
	if err != nil {
		return nil, err
	}
	return &rec, nil
}

// AddPayment 冲突分支使用 fee_records 当前值计算，并发付款不会互相覆盖。
// 未给 override 时余额为 total_due - 累计已付，并清除修正标记；total_due 保持开立时的值
func (r *feeRecordRepo) AddPayment(ctx context.Context, rec *model.FeeRecord, amount decimal.Decimal, override *decimal.Decimal) error {
	updates := map[string]interface{}{
		"amount_paid":        gorm.Expr("fee_records.amount_paid + ?", amount),
		"balance":            gorm.Expr("fee_records.total_due - (fee_records.amount_paid + ?)", amount),
		"balance_overridden": false,
		"payment_mode":       rec.PaymentMode,
		"payment_date":       rec.PaymentDate,
		"updated_by":         rec.UpdatedBy,
		"updated_at":         gorm.Expr("NOW()"),
	}
	if override != nil {
		updates["balance"] = *override
		updates["balance_overridden"] = true
	}

	return r.db.WithContext(ctx).
		Clauses(
			clause.OnConflict{
				Columns:   []clause.Column{{Name: "student_id"}, {Name: "semester_id"}},
				DoUpdates: clause.Assignments(updates),
			},
			clause.Returning{},
		).
		Create(rec).Error
}

func (r *feeRecordRepo) Upsert(ctx context.Context, rec *model.FeeRecord) error {
	return r.db.WithContext(ctx).
		Clauses(
			clause.OnConflict{
				Columns: []clause.Column{{Name: "student_id"}, {Name: "semester_id"}},
				DoUpdates: clause.Assignments(map[string]interface{}{
					"total_due":          rec.TotalDue,
					"amount_paid":        rec.AmountPaid,
					"balance":            rec.Balance,
					"balance_overridden": rec.BalanceOverridden,
					"payment_mode":       rec.PaymentMode,
					"payment_date":       rec.PaymentDate,
					"updated_by":         rec.UpdatedBy,
					"updated_at":         gorm.Expr("NOW()"),
				}),
			},
			clause.Returning{},
		).
		Create(rec).Error
}

func (r *feeRecordRepo) List(ctx context.Context, semesterID, studentID string, offset, limit int) ([]model.FeeRecord, int64, error) {
	var records []model.FeeRecord
	var total int64

	db := r.db.WithContext(ctx).Model(&model.FeeRecord{})
	if semesterID != "" {
		db = db.Where("semester_id = ?", semesterID)
	}
	if studentID != "" {
		db = db.Where("student_id = ?", studentID)
	}

	if err := db.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	err := db.Offset(offset).Limit(limit).
		Order("updated_at DESC").
		Find(&records).Error
	return records, total, err
}

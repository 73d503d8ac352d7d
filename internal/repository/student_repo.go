package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"hostel-mess/backend/internal/model"
)

// StudentQuery 学生查询条件（空值表示不过滤）
type StudentQuery struct {
	Hostel  string
	Status  string
	IsMando *bool
}

// StudentRepository 学生数据访问接口（只读 + 退宿）
type StudentRepository interface {
	GetByID(ctx context.Context, id string) (*model.Student, error)
	List(ctx context.Context, q StudentQuery) ([]model.Student, error)
	// ListBillable 列出参与计费的学生（ACTIVE 与 VACATE）
	ListBillable(ctx context.Context) ([]model.Student, error)
	UpdateStatus(ctx context.Context, id, status string, leaveDate *time.Time, updatedBy string) error
}

type studentRepo struct {
	db *gorm.DB
}

// NewStudentRepo 创建 StudentRepository 实例
func NewStudentRepo(db *gorm.DB) StudentRepository {
	return &studentRepo{db: db}
}

func (r *studentRepo) GetByID(ctx context.Context, id string) (*model.Student, error) {
	var s model.Student
	err := r.db.WithContext(ctx).
		Where("student_id = ?", id).
		First(&s).Error
	if err != nil {
		return nil, err
	}
	return &s, nil
}

func (r *studentRepo) List(ctx context.Context, q StudentQuery) ([]model.Student, error) {
	db := r.db.WithContext(ctx).Model(&model.Student{})
	if q.Hostel != "" {
		db = db.Where("hostel = ?", q.Hostel)
	}
	if q.Status != "" {
		db = db.Where("status = ?", q.Status)
	}
	if q.IsMando != nil {
		db = db.Where("is_mando = ?", *q.IsMando)
	}

	var students []model.Student
	err := db.Order("roll_no ASC").Find(&students).Error
	return students, err
}

func (r *studentRepo) ListBillable(ctx context.Context) ([]model.Student, error) {
	var students []model.Student
	err := r.db.WithContext(ctx).
		Where("status IN ?", []string{model.StudentStatusActive, model.StudentStatusVacate}).
		Order("roll_no ASC").
		Find(&students).Error
	return students, err
}

func (r *studentRepo) UpdateStatus(ctx context.Context, id, status string, leaveDate *time.Time, updatedBy string) error {
	result := r.db.WithContext(ctx).
		Model(&model.Student{}).
		Where("student_id = ?", id).
		Updates(map[string]interface{}{
			"status":     status,
			"leave_date": leaveDate,
			"updated_by": updatedBy,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

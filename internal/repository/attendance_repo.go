package repository

import (
	"context"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"hostel-mess/backend/internal/model"
)

// AttendanceQuery 考勤查询条件；From/To 为闭区间
type AttendanceQuery struct {
	StudentID string
	From      time.Time
	To        time.Time
}

// AttendanceRepository 考勤数据访问接口
type AttendanceRepository interface {
	// Upsert 按 (student_id, date) 写入或覆盖考勤代码
	Upsert(ctx context.Context, rec *model.AttendanceRecord) error
	List(ctx context.Context, q AttendanceQuery) ([]model.AttendanceRecord, error)
}

type attendanceRepo struct {
	db *gorm.DB
}

// NewAttendanceRepo 创建 AttendanceRepository 实例
func NewAttendanceRepo(db *gorm.DB) AttendanceRepository {
	return &attendanceRepo{db: db}
}

func (r *attendanceRepo) Upsert(ctx context.Context, rec *model.AttendanceRecord) error {
	return r.db.WithContext(ctx).
		Clauses(
			clause.OnConflict{
				Columns: []clause.Column{{Name: "student_id"}, {Name: "date"}},
				DoUpdates: clause.Assignments(map[string]interface{}{
					"code":       rec.Code,
					"updated_by": rec.UpdatedBy,
					"updated_at": gorm.Expr("NOW()"),
				}),
			},
			clause.Returning{},
		).
		Create(rec).Error
}

func (r *attendanceRepo) List(ctx context.Context, q AttendanceQuery) ([]model.AttendanceRecord, error) {
	db := r.db.WithContext(ctx).
		Where("date BETWEEN ? AND ?", q.From, q.To)
	if q.StudentID != "" {
		db = db.Where("student_id = ?", q.StudentID)
	}

	var records []model.AttendanceRecord
	err := db.Order("student_id ASC, date ASC").Find(&records).Error
	return records, err
}

// MealEntryRepository 餐次数据访问接口
type MealEntryRepository interface {
	// Upsert 按 (student_id, date) 写入或覆盖当日餐次
	Upsert(ctx context.Context, entry *model.MealEntry) error
	// CountMealsByStudent 统计区间内每名学生的用餐次数
	CountMealsByStudent(ctx context.Context, from, to time.Time) (map[string]int, error)
}

type mealEntryRepo struct {
	db *gorm.DB
}

// NewMealEntryRepo 创建 MealEntryRepository 实例
func NewMealEntryRepo(db *gorm.DB) MealEntryRepository {
	return &mealEntryRepo{db: db}
}

func (r *mealEntryRepo) Upsert(ctx context.Context, entry *model.MealEntry) error {
	return r.db.WithContext(ctx).
		Clauses(
			clause.OnConflict{
				Columns: []clause.Column{{Name: "student_id"}, {Name: "date"}},
				DoUpdates: clause.Assignments(map[string]interface{}{
					"breakfast":  entry.Breakfast,
					"lunch":      entry.Lunch,
					"dinner":     entry.Dinner,
					"present":    entry.Present,
					"updated_by": entry.UpdatedBy,
					"updated_at": gorm.Expr("NOW()"),
				}),
			},
			clause.Returning{},
		).
		Create(entry).Error
}

func (r *mealEntryRepo) CountMealsByStudent(ctx context.Context, from, to time.Time) (map[string]int, error) {
	type row struct {
		StudentID string
		Meals     int
	}
	var rows []row
	err := r.db.WithContext(ctx).
		Model(&model.MealEntry{}).
		Select("student_id, SUM(breakfast::int + lunch::int + dinner::int) AS meals").
		Where("date BETWEEN ? AND ?", from, to).
		Group("student_id").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	out := make(map[string]int, len(rows))
	for _, r := range rows {
		out[r.StudentID] = r.Meals
	}
	return out, nil
}

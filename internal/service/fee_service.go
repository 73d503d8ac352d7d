package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"hostel-mess/backend/internal/billing"
	"hostel-mess/backend/internal/dto"
	"hostel-mess/backend/internal/model"
	"hostel-mess/backend/internal/repository"
	pkgerrors "hostel-mess/backend/pkg/errors"
)

// ── 收费台账模块业务错误 ──

var (
	ErrFeeStructureNotFound = fmt.Errorf("%w: 该学期尚未生成账单，无法记账", pkgerrors.ErrNotFound)
	ErrPaymentAmountInvalid = fmt.Errorf("%w: 付款金额必须大于 0", pkgerrors.ErrValidation)
	ErrBalanceRequired      = fmt.Errorf("%w: balance 不能为空", pkgerrors.ErrValidation)
)

// FeeService 收费台账业务接口
//
// 台账状态：NO_RECORD → RECORDED。首次付款（或首次修正）时按账单 FinalAmount 开立，
// 之后付款累加。每次变更都写审计，审计失败只体现在 LedgerResult.Audit 中。
type FeeService interface {
	RecordPayment(ctx context.Context, req *dto.RecordPaymentRequest, callerID string) (*dto.LedgerResult, error)
	MarkUnpaid(ctx context.Context, studentID, semesterID, callerID string) (*dto.LedgerResult, error)
	OverrideBalance(ctx context.Context, studentID, semesterID string, req *dto.OverrideBalanceRequest, callerID string) (*dto.LedgerResult, error)
	List(ctx context.Context, filter *dto.FeeFilter) ([]dto.FeeRecordResponse, int64, error)
}

type feeService struct {
	repo   *repository.Repository
	audit  AuditRecorder
	logger *zap.Logger
}

// NewFeeService 创建 FeeService 实例
func NewFeeService(repo *repository.Repository, audit AuditRecorder, logger *zap.Logger) FeeService {
	return &feeService{repo: repo, audit: audit, logger: logger}
}

// ledgerSnapshot 审计快照
type ledgerSnapshot struct {
	AmountPaid  decimal.Decimal `json:"amount_paid"`
	Balance     decimal.Decimal `json:"balance"`
	PaymentMode string          `json:"payment_mode"`
}

// ────────────────────── RecordPayment ──────────────────────

func (s *feeService) RecordPayment(ctx context.Context, req *dto.RecordPaymentRequest, callerID string) (*dto.LedgerResult, error) {
	if !req.Amount.IsPositive() {
		return nil, ErrPaymentAmountInvalid
	}
	paymentDate := today()
	if req.PaymentDate != "" {
		d, err := parseDate(req.PaymentDate)
		if err != nil {
			return nil, err
		}
		paymentDate = d
	}

	structure, err := s.loadStructure(ctx, req.StudentID, req.SemesterID)
	if err != nil {
		return nil, err
	}

	// 以首笔付款的取值开立；台账已存在时由数据库在当前值上累加
	opening := billing.ApplyPayment(nil, structure.FinalAmount, req.Amount, req.PaymentMode, req.OverrideBalance)
	var prev *model.FeeRecord
	rec := &model.FeeRecord{
		StudentID:         req.StudentID,
		SemesterID:        req.SemesterID,
		TotalDue:          opening.TotalDue,
		AmountPaid:        opening.AmountPaid,
		Balance:           opening.Balance,
		BalanceOverridden: opening.BalanceOverridden,
		PaymentMode:       opening.PaymentMode,
		PaymentDate:       &paymentDate,
	}
	rec.Stamp(callerID)

	// 累加在数据库内完成，行锁只保证审计快照与写入顺序一致
	err = s.inTx(ctx, func(repo *repository.Repository) error {
		var err error
		if prev, err = s.lockRecord(ctx, repo, req.StudentID, req.SemesterID); err != nil {
			return err
		}
		return repo.FeeRecord.AddPayment(ctx, rec, req.Amount, req.OverrideBalance)
	})
	if err != nil {
		s.logger.Error("记录付款失败",
			zap.String("student_id", req.StudentID),
			zap.String("semester_id", req.SemesterID),
			zap.Error(err),
		)
		return nil, err
	}

	return s.result(ctx, rec, prev, ActionFeePayment, callerID), nil
}

// ────────────────────── MarkUnpaid ──────────────────────

func (s *feeService) MarkUnpaid(ctx context.Context, studentID, semesterID, callerID string) (*dto.LedgerResult, error) {
	return s.mutate(ctx, studentID, semesterID, ActionFeeMarkUnpaid, callerID, billing.MarkUnpaid)
}

// ────────────────────── OverrideBalance ──────────────────────

func (s *feeService) OverrideBalance(ctx context.Context, studentID, semesterID string, req *dto.OverrideBalanceRequest, callerID string) (*dto.LedgerResult, error) {
	if req.Balance == nil {
		return nil, ErrBalanceRequired
	}
	balance := req.Balance.Round(billing.MoneyPlaces)
	return s.mutate(ctx, studentID, semesterID, ActionFeeOverride, callerID, func(e billing.LedgerEntry) billing.LedgerEntry {
		return billing.OverrideBalance(e, balance)
	})
}

// ────────────────────── List ──────────────────────

func (s *feeService) List(ctx context.Context, filter *dto.FeeFilter) ([]dto.FeeRecordResponse, int64, error) {
	records, total, err := s.repo.FeeRecord.List(ctx, filter.SemesterID, filter.StudentID, filter.GetOffset(), filter.GetPageSize())
	if err != nil {
		s.logger.Error("查询收费台账失败", zap.Error(err))
		return nil, 0, err
	}

	result := make([]dto.FeeRecordResponse, 0, len(records))
	for i := range records {
		result = append(result, toFeeRecordResponse(&records[i]))
	}
	return result, total, nil
}

// ── 内部辅助方法 ──

// loadStructure 读取账单；账单不存在时任何台账操作都失败
func (s *feeService) loadStructure(ctx context.Context, studentID, semesterID string) (*model.FeeStructure, error) {
	if studentID == "" {
		return nil, ErrStudentIDRequired
	}
	if semesterID == "" {
		return nil, ErrSemesterIDRequired
	}

	structure, err := s.repo.FeeStructure.GetByStudentAndSemester(ctx, studentID, semesterID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrFeeStructureNotFound
		}
		s.logger.Error("查询学期账单失败",
			zap.String("student_id", studentID),
			zap.String("semester_id", semesterID),
			zap.Error(err),
		)
		return nil, err
	}
	return structure, nil
}

// lockRecord 加锁读取台账，不存在时返回 nil
func (s *feeService) lockRecord(ctx context.Context, repo *repository.Repository, studentID, semesterID string) (*model.FeeRecord, error) {
	rec, err := repo.FeeRecord.GetForUpdate(ctx, studentID, semesterID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	return rec, err
}

// inTx 在事务内执行 fn；内存仓储没有事务时直接执行
func (s *feeService) inTx(ctx context.Context, fn func(repo *repository.Repository) error) error {
	tx, err := s.repo.BeginTx(ctx)
	if err != nil {
		return err
	}
	if tx == nil {
		return fn(s.repo)
	}
	defer func() {
		if r := recover(); r != nil {
			tx.Rollback()
			panic(r)
		}
	}()

	if err := fn(s.repo.WithTx(tx)); err != nil {
		tx.Rollback()
		return err
	}
	return tx.Commit().Error
}

// mutate 在行锁下读取台账、应用状态转换并整行写回；台账不存在时按账单开立
func (s *feeService) mutate(ctx context.Context, studentID, semesterID, action, callerID string, apply func(billing.LedgerEntry) billing.LedgerEntry) (*dto.LedgerResult, error) {
	structure, err := s.loadStructure(ctx, studentID, semesterID)
	if err != nil {
		return nil, err
	}

	var prev, rec *model.FeeRecord
	err = s.inTx(ctx, func(repo *repository.Repository) error {
		var err error
		if prev, err = s.lockRecord(ctx, repo, studentID, semesterID); err != nil {
			return err
		}

		entry := billing.NewLedgerEntry(structure.FinalAmount)
		var paymentDate *time.Time
		if prev != nil {
			entry = toLedgerEntry(prev)
			paymentDate = prev.PaymentDate
		}
		next := apply(entry)

		rec = &model.FeeRecord{
			StudentID:         studentID,
			SemesterID:        semesterID,
			TotalDue:          next.TotalDue,
			AmountPaid:        next.AmountPaid,
			Balance:           next.Balance,
			BalanceOverridden: next.BalanceOverridden,
			PaymentMode:       next.PaymentMode,
			PaymentDate:       paymentDate,
		}
		if prev != nil {
			rec.FeeRecordID = prev.FeeRecordID
			rec.BaseModel = prev.BaseModel
		}
		rec.Stamp(callerID)
		return repo.FeeRecord.Upsert(ctx, rec)
	})
	if err != nil {
		s.logger.Error("写入收费台账失败",
			zap.String("student_id", studentID),
			zap.String("semester_id", semesterID),
			zap.String("action", action),
			zap.Error(err),
		)
		return nil, err
	}

	return s.result(ctx, rec, prev, action, callerID), nil
}

// result 写审计并组装返回；审计失败只体现在 Audit 中
func (s *feeService) result(ctx context.Context, rec, prev *model.FeeRecord, action, callerID string) *dto.LedgerResult {
	var old interface{}
	if prev != nil {
		old = ledgerSnapshot{AmountPaid: prev.AmountPaid, Balance: prev.Balance, PaymentMode: prev.PaymentMode}
	}

	outcome := s.audit.Record(ctx, AuditEntry{
		UserID:   callerID,
		Action:   action,
		Entity:   "fee_record",
		EntityID: rec.StudentID + ":" + rec.SemesterID,
		Old:      old,
		New:      ledgerSnapshot{AmountPaid: rec.AmountPaid, Balance: rec.Balance, PaymentMode: rec.PaymentMode},
	})

	return &dto.LedgerResult{Record: toFeeRecordResponse(rec), Audit: outcome}
}

func toLedgerEntry(rec *model.FeeRecord) billing.LedgerEntry {
	return billing.LedgerEntry{
		TotalDue:          rec.TotalDue,
		AmountPaid:        rec.AmountPaid,
		Balance:           rec.Balance,
		BalanceOverridden: rec.BalanceOverridden,
		PaymentMode:       rec.PaymentMode,
	}
}

func toFeeRecordResponse(rec *model.FeeRecord) dto.FeeRecordResponse {
	return dto.FeeRecordResponse{
		ID:                rec.FeeRecordID,
		StudentID:         rec.StudentID,
		SemesterID:        rec.SemesterID,
		TotalDue:          rec.TotalDue,
		AmountPaid:        rec.AmountPaid,
		Balance:           rec.Balance,
		BalanceOverridden: rec.BalanceOverridden,
		PaymentMode:       rec.PaymentMode,
		PaymentDate:       formatDatePtr(rec.PaymentDate),
		UpdatedAt:         rec.UpdatedAt.Format(dto.TimeLayout),
	}
}

func today() time.Time {
	now := time.Now()
	return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
}

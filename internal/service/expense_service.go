package service

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"hostel-mess/backend/internal/billing"
	"hostel-mess/backend/internal/dto"
	"hostel-mess/backend/internal/model"
	"hostel-mess/backend/internal/repository"
	pkgerrors "hostel-mess/backend/pkg/errors"
)

// ── 支出模块业务错误 ──

var (
	ErrExpenseAmountInvalid = fmt.Errorf("%w: 支出金额必须大于 0", pkgerrors.ErrValidation)
)

// ExpenseService 支出业务接口（支出只追加，不修改不删除）
type ExpenseService interface {
	Create(ctx context.Context, req *dto.CreateExpenseRequest, callerID string) (*dto.ExpenseResult, error)
	List(ctx context.Context, filter *dto.ExpenseFilter) ([]dto.ExpenseResponse, error)
	// Pool 计算学期净支出池：Total + Pending - Advances - CarryForward
	Pool(ctx context.Context, filter *dto.PoolFilter) (*dto.PoolResponse, error)
}

type expenseService struct {
	repo   *repository.Repository
	audit  AuditRecorder
	logger *zap.Logger
}

// NewExpenseService 创建 ExpenseService 实例
func NewExpenseService(repo *repository.Repository, audit AuditRecorder, logger *zap.Logger) ExpenseService {
	return &expenseService{repo: repo, audit: audit, logger: logger}
}

func (s *expenseService) Create(ctx context.Context, req *dto.CreateExpenseRequest, callerID string) (*dto.ExpenseResult, error) {
	date, err := parseDate(req.Date)
	if err != nil {
		return nil, err
	}
	if !req.Amount.IsPositive() {
		return nil, ErrExpenseAmountInvalid
	}

	expense := &model.Expense{
		Date:        date,
		Type:        req.Type,
		Amount:      req.Amount.Round(billing.MoneyPlaces),
		Description: req.Description,
	}
	expense.Stamp(callerID)

	if err := s.repo.Expense.Create(ctx, expense); err != nil {
		s.logger.Error("新增支出失败", zap.Error(err))
		return nil, err
	}

	resp := toExpenseResponse(expense)
	outcome := s.audit.Record(ctx, AuditEntry{
		UserID:   callerID,
		Action:   ActionExpenseCreate,
		Entity:   "expense",
		EntityID: expense.ExpenseID,
		New:      resp,
	})

	return &dto.ExpenseResult{Record: resp, Audit: outcome}, nil
}

func (s *expenseService) List(ctx context.Context, filter *dto.ExpenseFilter) ([]dto.ExpenseResponse, error) {
	period, err := parseRange(filter.From, filter.To)
	if err != nil {
		return nil, err
	}

	expenses, err := s.repo.Expense.List(ctx, repository.ExpenseQuery{
		From: period.From,
		To:   period.To,
		Type: filter.Type,
	})
	if err != nil {
		s.logger.Error("查询支出失败", zap.Error(err))
		return nil, err
	}

	result := make([]dto.ExpenseResponse, 0, len(expenses))
	for i := range expenses {
		result = append(result, toExpenseResponse(&expenses[i]))
	}
	return result, nil
}

func (s *expenseService) Pool(ctx context.Context, filter *dto.PoolFilter) (*dto.PoolResponse, error) {
	adj, err := parsePoolAdjustments(filter)
	if err != nil {
		return nil, err
	}

	semester, err := loadSemester(ctx, s.repo, filter.SemesterID)
	if err != nil {
		return nil, err
	}

	period := semesterPeriod(semester)
	pool, err := buildPool(ctx, s.repo, period, adj)
	if err != nil {
		s.logger.Error("汇总支出失败", zap.String("semester_id", semester.SemesterID), zap.Error(err))
		return nil, err
	}

	resp := toPoolResponse(semester.SemesterID, period, pool)
	return &resp, nil
}

func parsePoolAdjustments(filter *dto.PoolFilter) (billing.PoolAdjustments, error) {
	var adj billing.PoolAdjustments
	var err error
	if adj.CarryForward, err = parseAmount(filter.CarryForward); err != nil {
		return adj, err
	}
	if adj.Advances, err = parseAmount(filter.Advances); err != nil {
		return adj, err
	}
	if adj.PendingCost, err = parseAmount(filter.PendingCost); err != nil {
		return adj, err
	}
	return adj, nil
}

func toExpenseResponse(e *model.Expense) dto.ExpenseResponse {
	return dto.ExpenseResponse{
		ID:          e.ExpenseID,
		Date:        e.Date.Format(dto.DateLayout),
		Type:        e.Type,
		Amount:      e.Amount,
		Description: e.Description,
	}
}

package service

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"hostel-mess/backend/config"
	"hostel-mess/backend/internal/billing"
	"hostel-mess/backend/internal/dto"
	"hostel-mess/backend/internal/model"
	"hostel-mess/backend/internal/repository"
	pkgerrors "hostel-mess/backend/pkg/errors"
)

// ── 单价模块业务错误 ──

var (
	ErrRateNegative        = fmt.Errorf("%w: 单价不能为负数", pkgerrors.ErrValidation)
	ErrMonthlyRateNotFound = fmt.Errorf("%w: 该月尚未设置人工/伙食单价", pkgerrors.ErrNotFound)
)

// RateService 单价业务接口
type RateService interface {
	// PerDay 预览日单价 = 净支出池 / 总人天，不写库
	PerDay(ctx context.Context, filter *dto.PerDayRateFilter) (*dto.PerDayRateResponse, error)
	// SetMonthly 设置月度单价；同一 (month, year) 下所有学期的行一并更新
	SetMonthly(ctx context.Context, req *dto.SetMonthlyRateRequest, callerID string) (*dto.SetMonthlyRateResponse, error)
	ListMonthly(ctx context.Context, month, year int) ([]dto.MonthlyRateResponse, error)
}

type rateService struct {
	cfg    *config.Config
	repo   *repository.Repository
	audit  AuditRecorder
	logger *zap.Logger
}

// NewRateService 创建 RateService 实例
func NewRateService(cfg *config.Config, repo *repository.Repository, audit AuditRecorder, logger *zap.Logger) RateService {
	return &rateService{cfg: cfg, repo: repo, audit: audit, logger: logger}
}

// ────────────────────── PerDay ──────────────────────

func (s *rateService) PerDay(ctx context.Context, filter *dto.PerDayRateFilter) (*dto.PerDayRateResponse, error) {
	policy, err := resolvePolicy(filter.LeavePolicy, s.cfg.Billing.LeavePolicy)
	if err != nil {
		return nil, err
	}
	adj, err := parsePoolAdjustments(&filter.PoolFilter)
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

	students, err := s.repo.Student.ListBillable(ctx)
	if err != nil {
		s.logger.Error("查询计费学生失败", zap.Error(err))
		return nil, err
	}
	_, total, err := countMandays(ctx, s.repo, students, period, policy)
	if err != nil {
		s.logger.Error("统计人天失败", zap.Error(err))
		return nil, err
	}

	rate := billing.PerDayRate(pool.Net, total)
	if pool.Negative() {
		s.logger.Warn("净支出池为负，日单价为负",
			zap.String("semester_id", semester.SemesterID),
			zap.String("net_pool", pool.Net.String()),
		)
	}

	return &dto.PerDayRateResponse{
		Pool:         toPoolResponse(semester.SemesterID, period, pool),
		LeavePolicy:  string(policy),
		TotalMandays: total,
		PerDayRate:   rate,
	}, nil
}

// ────────────────────── SetMonthly ──────────────────────
//
// 1. 先按 (month, year) 批量更新所有已有行（不论学期）
// 2. 请求学期尚无该月记录时补建一行，单价与其他行一致
// 3. 已生成的月度结余不自动重算，返回 stale_balances 供调用方决定是否重跑

func (s *rateService) SetMonthly(ctx context.Context, req *dto.SetMonthlyRateRequest, callerID string) (*dto.SetMonthlyRateResponse, error) {
	if req.LaborRate.IsNegative() || req.ProvisionRate.IsNegative() {
		return nil, ErrRateNegative
	}
	if _, err := loadSemester(ctx, s.repo, req.SemesterID); err != nil {
		return nil, err
	}

	before, err := s.repo.MonthlyRate.ListByMonth(ctx, req.Month, req.Year)
	if err != nil {
		s.logger.Error("查询月度单价失败", zap.Error(err))
		return nil, err
	}

	tx, err := s.repo.BeginTx(ctx)
	if err != nil {
		s.logger.Error("开启事务失败", zap.Error(err))
		return nil, err
	}
	defer func() {
		if r := recover(); r != nil {
			if tx != nil {
				tx.Rollback()
			}
			panic(r)
		}
	}()
	txRepo := s.repo.WithTx(tx)
	rollback := func() {
		if tx != nil {
			tx.Rollback()
		}
	}

	updated, err := txRepo.MonthlyRate.UpdateByMonth(ctx, req.Month, req.Year, req.LaborRate, req.ProvisionRate, callerID)
	if err != nil {
		rollback()
		s.logger.Error("批量更新月度单价失败",
			zap.Int("month", req.Month),
			zap.Int("year", req.Year),
			zap.Error(err),
		)
		return nil, err
	}

	created := false
	if !hasSemesterRate(before, req.SemesterID) {
		rate := &model.MonthlyRate{
			SemesterID:    req.SemesterID,
			Month:         req.Month,
			Year:          req.Year,
			LaborRate:     req.LaborRate,
			ProvisionRate: req.ProvisionRate,
		}
		rate.Stamp(callerID)
		if err := txRepo.MonthlyRate.Create(ctx, rate); err != nil {
			rollback()
			s.logger.Error("新建月度单价失败", zap.Error(err))
			return nil, err
		}
		created = true
	}

	if tx != nil {
		if err := tx.Commit().Error; err != nil {
			s.logger.Error("提交事务失败", zap.Error(err))
			return nil, err
		}
	}

	after, err := s.repo.MonthlyRate.ListByMonth(ctx, req.Month, req.Year)
	if err != nil {
		s.logger.Error("查询月度单价失败", zap.Error(err))
		return nil, err
	}

	stale, err := s.repo.MonthlyBalance.CountByMonth(ctx, req.Month, req.Year)
	if err != nil {
		// 单价已写入，结余计数失败不影响主结果
		s.logger.Warn("统计待重算结余失败", zap.Error(err))
		stale = 0
	}

	resp := &dto.SetMonthlyRateResponse{
		Month:         req.Month,
		Year:          req.Year,
		UpdatedRows:   updated,
		Created:       created,
		StaleBalances: stale,
		Rates:         toMonthlyRateResponses(after),
	}
	resp.Audit = s.audit.Record(ctx, AuditEntry{
		UserID:   callerID,
		Action:   ActionMonthlyRateSet,
		Entity:   "monthly_rate",
		EntityID: monthKey(req.Month, req.Year),
		Old:      toMonthlyRateResponses(before),
		New:      resp.Rates,
	})

	return resp, nil
}

// ────────────────────── ListMonthly ──────────────────────

func (s *rateService) ListMonthly(ctx context.Context, month, year int) ([]dto.MonthlyRateResponse, error) {
	rates, err := s.repo.MonthlyRate.ListByMonth(ctx, month, year)
	if err != nil {
		s.logger.Error("查询月度单价失败", zap.Error(err))
		return nil, err
	}
	return toMonthlyRateResponses(rates), nil
}

// tariffFor 取 (month, year) 的统一单价
func tariffFor(rates []model.MonthlyRate) (billing.Tariff, bool) {
	if len(rates) == 0 {
		return billing.Tariff{}, false
	}
	return billing.Tariff{LaborRate: rates[0].LaborRate, ProvisionRate: rates[0].ProvisionRate}, true
}

func hasSemesterRate(rates []model.MonthlyRate, semesterID string) bool {
	for _, r := range rates {
		if r.SemesterID == semesterID {
			return true
		}
	}
	return false
}

func monthKey(month, year int) string {
	return fmt.Sprintf("%04d-%02d", year, month)
}

func toMonthlyRateResponses(rates []model.MonthlyRate) []dto.MonthlyRateResponse {
	result := make([]dto.MonthlyRateResponse, 0, len(rates))
	for _, r := range rates {
		result = append(result, dto.MonthlyRateResponse{
			ID:            r.MonthlyRateID,
			SemesterID:    r.SemesterID,
			Month:         r.Month,
			Year:          r.Year,
			LaborRate:     r.LaborRate,
			ProvisionRate: r.ProvisionRate,
			UpdatedAt:     r.UpdatedAt.Format(dto.TimeLayout),
		})
	}
	return result
}

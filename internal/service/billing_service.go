package service

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"hostel-mess/backend/config"
	"hostel-mess/backend/internal/billing"
	"hostel-mess/backend/internal/dto"
	"hostel-mess/backend/internal/model"
	"hostel-mess/backend/internal/repository"
	pkgerrors "hostel-mess/backend/pkg/errors"
)

// ── 计费模块业务错误 ──

var (
	ErrUnknownBillingStudent = fmt.Errorf("%w: 调整项中包含不参与计费的学生", pkgerrors.ErrValidation)
	ErrCarryForwardNegative  = fmt.Errorf("%w: 个人结转抵扣不能为负数", pkgerrors.ErrValidation)
)

// BillingService 计费业务接口
type BillingService interface {
	// RunSemester 学期计费：支出池 → 日单价 → 每名学生账单 → Mando 分摊
	// 账单逐行 upsert，单行失败计入 Bulk，不中断其余学生
	RunSemester(ctx context.Context, req *dto.RunSemesterBillingRequest, callerID string) (*dto.SemesterBillingResponse, error)
	ListSemesterBills(ctx context.Context, semesterID string) ([]dto.BillResponse, error)
	// RunMonthly 按月度单价生成结余：人工天数按 CHARGED 统计，伙食天数按 NOT_CHARGED 统计
	RunMonthly(ctx context.Context, req *dto.RunMonthlyBillingRequest, callerID string) (*dto.MonthlyBillingResponse, error)
	ListMonthly(ctx context.Context, filter *dto.MonthFilter) ([]dto.MonthlyBalanceResponse, error)
}

type billingService struct {
	cfg    *config.Config
	repo   *repository.Repository
	mando  *mandoService
	audit  AuditRecorder
	logger *zap.Logger
}

// NewBillingService 创建 BillingService 实例
func NewBillingService(cfg *config.Config, repo *repository.Repository, mando *mandoService, audit AuditRecorder, logger *zap.Logger) BillingService {
	return &billingService{cfg: cfg, repo: repo, mando: mando, audit: audit, logger: logger}
}

// ════════════════════════════════════════════════════════════
// RunSemester
// ════════════════════════════════════════════════════════════

func (s *billingService) RunSemester(ctx context.Context, req *dto.RunSemesterBillingRequest, callerID string) (*dto.SemesterBillingResponse, error) {
	policy, err := resolvePolicy(req.LeavePolicy, s.cfg.Billing.LeavePolicy)
	if err != nil {
		return nil, err
	}
	adj := billing.PoolAdjustments{
		PendingCost:  req.PendingCost,
		Advances:     req.Advances,
		CarryForward: req.CarryForward,
	}
	if adj.PendingCost.IsNegative() || adj.Advances.IsNegative() || adj.CarryForward.IsNegative() {
		return nil, ErrInvalidAmount
	}

	semester, err := loadSemester(ctx, s.repo, req.SemesterID)
	if err != nil {
		return nil, err
	}
	period := semesterPeriod(semester)

	// 1. 参与计费的学生，校验调整项
	students, err := s.repo.Student.ListBillable(ctx)
	if err != nil {
		s.logger.Error("查询计费学生失败", zap.Error(err))
		return nil, err
	}
	if err := validateStudentAdjustments(students, req.Adjustments, req.CarryForwards); err != nil {
		return nil, err
	}

	// 2. 支出池与人天
	pool, err := buildPool(ctx, s.repo, period, adj)
	if err != nil {
		s.logger.Error("汇总支出失败", zap.String("semester_id", semester.SemesterID), zap.Error(err))
		return nil, err
	}
	mandays, total, err := countMandays(ctx, s.repo, students, period, policy)
	if err != nil {
		s.logger.Error("统计人天失败", zap.Error(err))
		return nil, err
	}
	rate := billing.PerDayRate(pool.Net, total)
	if pool.Negative() {
		s.logger.Warn("净支出池为负，日单价为负",
			zap.String("semester_id", semester.SemesterID),
			zap.String("net_pool", pool.Net.String()),
			zap.String("per_day_rate", rate.String()),
		)
	}

	meals, err := s.repo.MealEntry.CountMealsByStudent(ctx, period.From, period.To)
	if err != nil {
		s.logger.Error("统计餐次失败", zap.Error(err))
		return nil, err
	}

	// 3. 逐个学生出账
	resp := &dto.SemesterBillingResponse{
		SemesterID:   semester.SemesterID,
		Pool:         toPoolResponse(semester.SemesterID, period, pool),
		LeavePolicy:  string(policy),
		TotalMandays: total,
		PerDayRate:   rate,
		TotalBilled:  decimal.Zero,
		Bills:        make([]dto.BillResponse, 0, len(students)),
		Bulk:         dto.BulkResult{Requested: len(students)},
	}
	var charges []billing.MandoCharge

	for i := range students {
		st := &students[i]
		bill := billing.ComputeBill(billing.BillInput{
			Mandays:             mandays[st.StudentID],
			PerDayRate:          rate,
			IsMando:             st.IsMando,
			Adjustments:         req.Adjustments[st.StudentID],
			CarryForwardApplied: req.CarryForwards[st.StudentID],
		})

		fs := &model.FeeStructure{
			StudentID:           st.StudentID,
			SemesterID:          semester.SemesterID,
			Mandays:             bill.Mandays,
			PerDayRate:          bill.PerDayRate,
			GrossAmount:         bill.Gross,
			Adjustments:         bill.Adjustments,
			CarryForwardApplied: bill.CarryForwardApplied,
			FinalAmount:         bill.Final,
			IsMando:             bill.IsMando,
		}
		fs.Stamp(callerID)

		if err := s.repo.FeeStructure.Upsert(ctx, fs); err != nil {
			s.logger.Error("写入学期账单失败",
				zap.String("student_id", st.StudentID),
				zap.String("semester_id", semester.SemesterID),
				zap.Error(err),
			)
			resp.Bulk.AddFailure(i, st.StudentID, err)
			continue
		}
		resp.Bulk.Succeeded++

		fs.Student = st
		resp.Bills = append(resp.Bills, toBillResponse(fs))
		resp.TotalBilled = resp.TotalBilled.Add(bill.Final)

		if st.IsMando {
			charges = append(charges, billing.MandoCharge{
				Hostel: billing.Hostel(st.Hostel),
				Gross:  bill.Gross,
				Meals:  meals[st.StudentID],
			})
		}
	}

	// 4. 学期汇总
	run := &model.BillingRun{
		SemesterID:    semester.SemesterID,
		TotalExpenses: pool.TotalExpenses,
		PendingCost:   pool.PendingCost,
		Advances:      pool.Advances,
		CarryForward:  pool.CarryForward,
		NetPool:       pool.Net,
		TotalMandays:  total,
		PerDayRate:    rate,
		LeavePolicy:   string(policy),
		StudentCount:  resp.Bulk.Succeeded,
		FailedCount:   resp.Bulk.Failed,
	}
	run.Stamp(callerID)
	run.UpdatedAt = time.Now()
	// 账单已逐行写入，此后的失败只记录在 Run 中
	if err := s.repo.BillingRun.Upsert(ctx, run); err != nil {
		s.logger.Error("写入计费汇总失败", zap.String("semester_id", semester.SemesterID), zap.Error(err))
		resp.Run.Errors = append(resp.Run.Errors, "计费汇总写入失败: "+err.Error())
	} else {
		resp.Run.SummarySaved = true
	}

	// 5. Mando 分摊（仅提示）
	s.mando.invalidate(ctx, semester.SemesterID)
	alloc, err := s.mando.allocate(ctx, semester.SemesterID, charges)
	if err != nil {
		s.logger.Error("计算 Mando 分摊失败", zap.String("semester_id", semester.SemesterID), zap.Error(err))
		resp.Run.Errors = append(resp.Run.Errors, "Mando 分摊计算失败: "+err.Error())
	} else {
		resp.Run.MandoComputed = true
		resp.Mando = *alloc
		if !alloc.IsWithinBudget {
			s.logger.Info("Mando 应计额超出预算",
				zap.String("semester_id", semester.SemesterID),
				zap.String("boys_coverage", alloc.BoysCoverage.String()),
				zap.String("girls_coverage", alloc.GirlsCoverage.String()),
			)
		}
	}

	resp.Audit = s.audit.Record(ctx, AuditEntry{
		UserID:   callerID,
		Action:   ActionSemesterBilling,
		Entity:   "billing_run",
		EntityID: semester.SemesterID,
		New:      run,
	})

	return resp, nil
}

func validateStudentAdjustments(students []model.Student, adjustments, carryForwards map[string]decimal.Decimal) error {
	billable := make(map[string]bool, len(students))
	for _, st := range students {
		billable[st.StudentID] = true
	}
	for id := range adjustments {
		if !billable[id] {
			return ErrUnknownBillingStudent
		}
	}
	for id, cf := range carryForwards {
		if !billable[id] {
			return ErrUnknownBillingStudent
		}
		if cf.IsNegative() {
			return ErrCarryForwardNegative
		}
	}
	return nil
}

// ────────────────────── ListSemesterBills ──────────────────────

func (s *billingService) ListSemesterBills(ctx context.Context, semesterID string) ([]dto.BillResponse, error) {
	if _, err := loadSemester(ctx, s.repo, semesterID); err != nil {
		return nil, err
	}

	structures, err := s.repo.FeeStructure.ListBySemester(ctx, semesterID)
	if err != nil {
		s.logger.Error("查询学期账单失败", zap.String("semester_id", semesterID), zap.Error(err))
		return nil, err
	}

	result := make([]dto.BillResponse, 0, len(structures))
	for i := range structures {
		result = append(result, toBillResponse(&structures[i]))
	}
	return result, nil
}

// ════════════════════════════════════════════════════════════
// RunMonthly
// ════════════════════════════════════════════════════════════
//
// 同一输入重复执行得到同一行结余（按 student_id + month + year upsert）。

func (s *billingService) RunMonthly(ctx context.Context, req *dto.RunMonthlyBillingRequest, callerID string) (*dto.MonthlyBillingResponse, error) {
	rates, err := s.repo.MonthlyRate.ListByMonth(ctx, req.Month, req.Year)
	if err != nil {
		s.logger.Error("查询月度单价失败", zap.Error(err))
		return nil, err
	}
	tariff, ok := tariffFor(rates)
	if !ok {
		return nil, ErrMonthlyRateNotFound
	}
	semesterID := rates[0].SemesterID

	students, err := s.repo.Student.ListBillable(ctx)
	if err != nil {
		s.logger.Error("查询计费学生失败", zap.Error(err))
		return nil, err
	}

	period := monthPeriod(req.Month, req.Year)
	laborDays, _, err := countMandays(ctx, s.repo, students, period, billing.LeaveCharged)
	if err != nil {
		s.logger.Error("统计人天失败", zap.Error(err))
		return nil, err
	}
	provisionDays, _, err := countMandays(ctx, s.repo, students, period, billing.LeaveNotCharged)
	if err != nil {
		s.logger.Error("统计人天失败", zap.Error(err))
		return nil, err
	}

	resp := &dto.MonthlyBillingResponse{
		Month:         req.Month,
		Year:          req.Year,
		LaborRate:     tariff.LaborRate,
		ProvisionRate: tariff.ProvisionRate,
		Balances:      make([]dto.MonthlyBalanceResponse, 0, len(students)),
		Bulk:          dto.BulkResult{Requested: len(students)},
	}

	for i, st := range students {
		charge := billing.ChargeByTariff(tariff, laborDays[st.StudentID], provisionDays[st.StudentID])

		bal := &model.MonthlyBalance{
			StudentID:       st.StudentID,
			SemesterID:      &semesterID,
			Month:           req.Month,
			Year:            req.Year,
			LaborDays:       charge.LaborDays,
			ProvisionDays:   charge.ProvisionDays,
			LaborCharge:     charge.LaborCharge,
			ProvisionCharge: charge.ProvisionCharge,
			Balance:         charge.Total,
		}
		bal.Stamp(callerID)

		if err := s.repo.MonthlyBalance.Upsert(ctx, bal); err != nil {
			s.logger.Error("写入月度结余失败",
				zap.String("student_id", st.StudentID),
				zap.Int("month", req.Month),
				zap.Int("year", req.Year),
				zap.Error(err),
			)
			resp.Bulk.AddFailure(i, st.StudentID, err)
			continue
		}
		resp.Bulk.Succeeded++
		resp.Balances = append(resp.Balances, toMonthlyBalanceResponse(bal))
	}

	resp.Audit = s.audit.Record(ctx, AuditEntry{
		UserID:   callerID,
		Action:   ActionMonthlyBilling,
		Entity:   "monthly_balance",
		EntityID: monthKey(req.Month, req.Year),
		New:      resp.Bulk,
	})

	return resp, nil
}

func (s *billingService) ListMonthly(ctx context.Context, filter *dto.MonthFilter) ([]dto.MonthlyBalanceResponse, error) {
	balances, err := s.repo.MonthlyBalance.List(ctx, filter.Month, filter.Year, filter.StudentID)
	if err != nil {
		s.logger.Error("查询月度结余失败", zap.Error(err))
		return nil, err
	}

	result := make([]dto.MonthlyBalanceResponse, 0, len(balances))
	for i := range balances {
		result = append(result, toMonthlyBalanceResponse(&balances[i]))
	}
	return result, nil
}

// ── 内部辅助方法 ──

func toBillResponse(fs *model.FeeStructure) dto.BillResponse {
	resp := dto.BillResponse{
		StudentID:           fs.StudentID,
		Mandays:             fs.Mandays,
		PerDayRate:          fs.PerDayRate,
		GrossAmount:         fs.GrossAmount,
		Adjustments:         fs.Adjustments,
		CarryForwardApplied: fs.CarryForwardApplied,
		FinalAmount:         fs.FinalAmount,
		IsMando:             fs.IsMando,
	}
	if fs.Student != nil {
		resp.RollNo = fs.Student.RollNo
		resp.Name = fs.Student.Name
		resp.Hostel = fs.Student.Hostel
	}
	return resp
}

func toMonthlyBalanceResponse(b *model.MonthlyBalance) dto.MonthlyBalanceResponse {
	return dto.MonthlyBalanceResponse{
		StudentID:       b.StudentID,
		SemesterID:      b.SemesterID,
		Month:           b.Month,
		Year:            b.Year,
		LaborDays:       b.LaborDays,
		ProvisionDays:   b.ProvisionDays,
		LaborCharge:     b.LaborCharge,
		ProvisionCharge: b.ProvisionCharge,
		Balance:         b.Balance,
	}
}

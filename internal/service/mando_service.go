package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"hostel-mess/backend/config"
	"hostel-mess/backend/internal/billing"
	"hostel-mess/backend/internal/dto"
	"hostel-mess/backend/internal/model"
	"hostel-mess/backend/internal/repository"
	pkgerrors "hostel-mess/backend/pkg/errors"
)

// ── Mando 模块业务错误 ──

var (
	ErrMandoBudgetNegative = fmt.Errorf("%w: Mando 预算不能为负数", pkgerrors.ErrValidation)
)

// PreviewCache 预览结果缓存（redis 实现见 pkg/redis）
// 为 nil 时每次直接计算
type PreviewCache interface {
	GetJSON(ctx context.Context, key string, dest interface{}) (bool, error)
	SetJSON(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	Delete(ctx context.Context, keys ...string) error
}

const allocationCacheTTL = 5 * time.Minute

func allocationCacheKey(semesterID string) string {
	return "mando:allocation:" + semesterID
}

// MandoService Mando 预算业务接口
// 预算检查只做提示，不拦截、不截断任何账单
type MandoService interface {
	GetBudget(ctx context.Context, semesterID string) (*dto.MandoBudgetResponse, error)
	UpdateBudget(ctx context.Context, req *dto.UpdateMandoBudgetRequest, callerID string) (*dto.UpdateMandoBudgetResponse, error)
	Allocation(ctx context.Context, semesterID string) (*dto.MandoAllocationDTO, error)
}

type mandoService struct {
	cfg    *config.Config
	repo   *repository.Repository
	cache  PreviewCache
	audit  AuditRecorder
	logger *zap.Logger
}

func newMandoService(cfg *config.Config, repo *repository.Repository, cache PreviewCache, audit AuditRecorder, logger *zap.Logger) *mandoService {
	return &mandoService{cfg: cfg, repo: repo, cache: cache, audit: audit, logger: logger}
}

// NewMandoService 创建 MandoService 实例；cache 可为 nil
func NewMandoService(cfg *config.Config, repo *repository.Repository, cache PreviewCache, audit AuditRecorder, logger *zap.Logger) MandoService {
	return newMandoService(cfg, repo, cache, audit, logger)
}

// ────────────────────── Budget ──────────────────────

func (s *mandoService) GetBudget(ctx context.Context, semesterID string) (*dto.MandoBudgetResponse, error) {
	if _, err := loadSemester(ctx, s.repo, semesterID); err != nil {
		return nil, err
	}
	budget, err := s.resolveBudget(ctx, semesterID)
	if err != nil {
		return nil, err
	}
	return &budget, nil
}

// resolveBudget 学期预算；未单独配置时取配置文件默认值
func (s *mandoService) resolveBudget(ctx context.Context, semesterID string) (dto.MandoBudgetResponse, error) {
	b, err := s.repo.MandoBudget.GetBySemester(ctx, semesterID)
	if err == nil {
		return toMandoBudgetResponse(b, false), nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		s.logger.Error("查询 Mando 预算失败", zap.String("semester_id", semesterID), zap.Error(err))
		return dto.MandoBudgetResponse{}, err
	}

	def := &model.MandoBudget{
		SemesterID:  semesterID,
		BoysAmount:  decimal.NewFromFloat(s.cfg.Mando.BoysAmount),
		GirlsAmount: decimal.NewFromFloat(s.cfg.Mando.GirlsAmount),
		TotalAmount: decimal.NewFromFloat(s.cfg.Mando.TotalAmount),
		PerMealRate: decimal.NewFromFloat(s.cfg.Mando.PerMealRate),
	}
	return toMandoBudgetResponse(def, true), nil
}

func (s *mandoService) UpdateBudget(ctx context.Context, req *dto.UpdateMandoBudgetRequest, callerID string) (*dto.UpdateMandoBudgetResponse, error) {
	for _, d := range []decimal.Decimal{req.BoysAmount, req.GirlsAmount, req.TotalAmount, req.PerMealRate} {
		if d.IsNegative() {
			return nil, ErrMandoBudgetNegative
		}
	}
	if _, err := loadSemester(ctx, s.repo, req.SemesterID); err != nil {
		return nil, err
	}

	before, err := s.resolveBudget(ctx, req.SemesterID)
	if err != nil {
		return nil, err
	}

	budget := &model.MandoBudget{
		SemesterID:  req.SemesterID,
		BoysAmount:  req.BoysAmount,
		GirlsAmount: req.GirlsAmount,
		TotalAmount: req.TotalAmount,
		PerMealRate: req.PerMealRate,
	}
	budget.Stamp(callerID)
	budget.UpdatedAt = time.Now()

	if err := s.repo.MandoBudget.Upsert(ctx, budget); err != nil {
		s.logger.Error("保存 Mando 预算失败", zap.String("semester_id", req.SemesterID), zap.Error(err))
		return nil, err
	}
	s.invalidate(ctx, req.SemesterID)

	after := toMandoBudgetResponse(budget, false)
	outcome := s.audit.Record(ctx, AuditEntry{
		UserID:   callerID,
		Action:   ActionMandoBudgetSet,
		Entity:   "mando_budget",
		EntityID: req.SemesterID,
		Old:      before,
		New:      after,
	})

	return &dto.UpdateMandoBudgetResponse{Budget: after, Audit: outcome}, nil
}

// ────────────────────── Allocation ──────────────────────

// Allocation 按已生成的学期账单汇总 Mando 学生应计额
func (s *mandoService) Allocation(ctx context.Context, semesterID string) (*dto.MandoAllocationDTO, error) {
	semester, err := loadSemester(ctx, s.repo, semesterID)
	if err != nil {
		return nil, err
	}

	key := allocationCacheKey(semesterID)
	if s.cache != nil {
		var cached dto.MandoAllocationDTO
		hit, err := s.cache.GetJSON(ctx, key, &cached)
		if err != nil {
			s.logger.Warn("读取分摊缓存失败", zap.String("semester_id", semesterID), zap.Error(err))
		} else if hit {
			return &cached, nil
		}
	}

	structures, err := s.repo.FeeStructure.ListBySemester(ctx, semesterID)
	if err != nil {
		s.logger.Error("查询学期账单失败", zap.String("semester_id", semesterID), zap.Error(err))
		return nil, err
	}

	period := semesterPeriod(semester)
	meals, err := s.repo.MealEntry.CountMealsByStudent(ctx, period.From, period.To)
	if err != nil {
		s.logger.Error("统计餐次失败", zap.String("semester_id", semesterID), zap.Error(err))
		return nil, err
	}

	var charges []billing.MandoCharge
	for _, fs := range structures {
		if !fs.IsMando || fs.Student == nil {
			continue
		}
		charges = append(charges, billing.MandoCharge{
			Hostel: billing.Hostel(fs.Student.Hostel),
			Gross:  fs.GrossAmount,
			Meals:  meals[fs.StudentID],
		})
	}

	alloc, err := s.allocate(ctx, semesterID, charges)
	if err != nil {
		return nil, err
	}

	if s.cache != nil {
		if err := s.cache.SetJSON(ctx, key, alloc, allocationCacheTTL); err != nil {
			s.logger.Warn("写入分摊缓存失败", zap.String("semester_id", semesterID), zap.Error(err))
		}
	}
	return alloc, nil
}

func (s *mandoService) allocate(ctx context.Context, semesterID string, charges []billing.MandoCharge) (*dto.MandoAllocationDTO, error) {
	budget, err := s.resolveBudget(ctx, semesterID)
	if err != nil {
		return nil, err
	}

	a := billing.Allocate(charges, billing.Budget{
		Boys:        budget.BoysAmount,
		Girls:       budget.GirlsAmount,
		Total:       budget.TotalAmount,
		PerMealRate: budget.PerMealRate,
	})

	return &dto.MandoAllocationDTO{
		SemesterID:     semesterID,
		Budget:         budget,
		BoysCoverage:   a.BoysCoverage,
		GirlsCoverage:  a.GirlsCoverage,
		TotalCoverage:  a.TotalCoverage,
		BoysStudents:   a.BoysStudents,
		GirlsStudents:  a.GirlsStudents,
		MealCount:      a.MealCount,
		MealEstimate:   a.MealEstimate,
		BoysWithin:     a.BoysWithin,
		GirlsWithin:    a.GirlsWithin,
		TotalWithin:    a.TotalWithin,
		IsWithinBudget: a.IsWithinBudget,
	}, nil
}

func (s *mandoService) invalidate(ctx context.Context, semesterID string) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Delete(ctx, allocationCacheKey(semesterID)); err != nil {
		s.logger.Warn("清除分摊缓存失败", zap.String("semester_id", semesterID), zap.Error(err))
	}
}

func toMandoBudgetResponse(b *model.MandoBudget, isDefault bool) dto.MandoBudgetResponse {
	return dto.MandoBudgetResponse{
		SemesterID:  b.SemesterID,
		BoysAmount:  b.BoysAmount,
		GirlsAmount: b.GirlsAmount,
		TotalAmount: b.TotalAmount,
		PerMealRate: b.PerMealRate,
		IsDefault:   isDefault,
	}
}

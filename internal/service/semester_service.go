package service

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"hostel-mess/backend/internal/dto"
	"hostel-mess/backend/internal/model"
	"hostel-mess/backend/internal/repository"
	pkgerrors "hostel-mess/backend/pkg/errors"
)

// ── 学期模块业务错误 ──

var (
	ErrSemesterNotFound    = fmt.Errorf("%w: 学期不存在", pkgerrors.ErrNotFound)
	ErrSemesterDateInvalid = fmt.Errorf("%w: 学期结束日期必须晚于开始日期", pkgerrors.ErrValidation)
	ErrSemesterOverlap     = fmt.Errorf("%w: 学期计费周期与已有学期重叠", pkgerrors.ErrValidation)
)

// SemesterService 学期业务接口（学期即计费周期）
type SemesterService interface {
	Create(ctx context.Context, req *dto.CreateSemesterRequest, callerID string) (*dto.SemesterResponse, error)
	GetByID(ctx context.Context, id string) (*dto.SemesterResponse, error)
	GetCurrent(ctx context.Context) (*dto.SemesterResponse, error)
	GetByDate(ctx context.Context, day string) (*dto.SemesterResponse, error)
	List(ctx context.Context) ([]dto.SemesterResponse, error)
	Activate(ctx context.Context, id string, callerID string) error
}

type semesterService struct {
	repo   *repository.Repository
	logger *zap.Logger
}

// NewSemesterService 创建 SemesterService 实例
func NewSemesterService(repo *repository.Repository, logger *zap.Logger) SemesterService {
	return &semesterService{repo: repo, logger: logger}
}

// ────────────────────── Create ──────────────────────

func (s *semesterService) Create(ctx context.Context, req *dto.CreateSemesterRequest, callerID string) (*dto.SemesterResponse, error) {
	startDate, err := parseDate(req.StartDate)
	if err != nil {
		return nil, ErrSemesterDateInvalid
	}
	endDate, err := parseDate(req.EndDate)
	if err != nil {
		return nil, ErrSemesterDateInvalid
	}
	if !endDate.After(startDate) {
		return nil, ErrSemesterDateInvalid
	}

	// 同一天只能归属一个计费周期，否则按日期定位学期会产生歧义
	overlapping, err := s.repo.Semester.CountOverlapping(ctx, startDate, endDate)
	if err != nil {
		s.logger.Error("检查学期重叠失败", zap.Error(err))
		return nil, err
	}
	if overlapping > 0 {
		return nil, ErrSemesterOverlap
	}

	semester := &model.Semester{
		Name:      req.Name,
		StartDate: startDate,
		EndDate:   endDate,
		IsActive:  false,
	}
	semester.Stamp(callerID)

	if err := s.repo.Semester.Create(ctx, semester); err != nil {
		s.logger.Error("创建学期失败", zap.Error(err))
		return nil, err
	}

	return s.toSemesterResponse(semester), nil
}

// ────────────────────── GetByID ──────────────────────

func (s *semesterService) GetByID(ctx context.Context, id string) (*dto.SemesterResponse, error) {
	semester, err := loadSemester(ctx, s.repo, id)
	if err != nil {
		if !errors.Is(err, ErrSemesterNotFound) {
			s.logger.Error("查询学期失败", zap.String("id", id), zap.Error(err))
		}
		return nil, err
	}

	return s.toSemesterResponse(semester), nil
}

// ────────────────────── GetCurrent ──────────────────────

func (s *semesterService) GetCurrent(ctx context.Context) (*dto.SemesterResponse, error) {
	semester, err := s.repo.Semester.GetCurrent(ctx)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrSemesterNotFound
		}
		s.logger.Error("查询当前学期失败", zap.Error(err))
		return nil, err
	}

	return s.toSemesterResponse(semester), nil
}

// ────────────────────── GetByDate ──────────────────────

// GetByDate 返回计费周期覆盖指定日期的学期
func (s *semesterService) GetByDate(ctx context.Context, day string) (*dto.SemesterResponse, error) {
	d, err := parseDate(day)
	if err != nil {
		return nil, err
	}

	semester, err := s.repo.Semester.GetByDate(ctx, d)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrSemesterNotFound
		}
		s.logger.Error("按日期查询学期失败", zap.String("date", day), zap.Error(err))
		return nil, err
	}

	return s.toSemesterResponse(semester), nil
}

// ────────────────────── List ──────────────────────

func (s *semesterService) List(ctx context.Context) ([]dto.SemesterResponse, error) {
	semesters, err := s.repo.Semester.List(ctx)
	if err != nil {
		s.logger.Error("列出学期失败", zap.Error(err))
		return nil, err
	}

	result := make([]dto.SemesterResponse, 0, len(semesters))
	for i := range semesters {
		result = append(result, *s.toSemesterResponse(&semesters[i]))
	}

	return result, nil
}

// ────────────────────── Activate ──────────────────────

func (s *semesterService) Activate(ctx context.Context, id string, callerID string) error {
	semester, err := loadSemester(ctx, s.repo, id)
	if err != nil {
		if !errors.Is(err, ErrSemesterNotFound) {
			s.logger.Error("查询学期失败", zap.String("id", id), zap.Error(err))
		}
		return err
	}

	// ClearActive + Update 在同一事务内
	tx, err := s.repo.BeginTx(ctx)
	if err != nil {
		s.logger.Error("开启事务失败", zap.Error(err))
		return err
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

	if err := txRepo.Semester.ClearActive(ctx); err != nil {
		if tx != nil {
			tx.Rollback()
		}
		s.logger.Error("清除活动学期失败", zap.Error(err))
		return err
	}

	semester.IsActive = true
	semester.Stamp(callerID)

	if err := txRepo.Semester.Update(ctx, semester); err != nil {
		if tx != nil {
			tx.Rollback()
		}
		s.logger.Error("激活学期失败", zap.String("id", id), zap.Error(err))
		return err
	}

	if tx != nil {
		if err := tx.Commit().Error; err != nil {
			s.logger.Error("提交事务失败", zap.Error(err))
			return err
		}
	}

	return nil
}

// ── 内部辅助方法 ──

func (s *semesterService) toSemesterResponse(semester *model.Semester) *dto.SemesterResponse {
	return &dto.SemesterResponse{
		ID:        semester.SemesterID,
		Name:      semester.Name,
		StartDate: semester.StartDate.Format(dto.DateLayout),
		EndDate:   semester.EndDate.Format(dto.DateLayout),
		TotalDays: int(semester.EndDate.Sub(semester.StartDate).Hours()/24) + 1,
		IsActive:  semester.IsActive,
		CreatedAt: semester.CreatedAt.Format(dto.TimeLayout),
		UpdatedAt: semester.UpdatedAt.Format(dto.TimeLayout),
	}
}

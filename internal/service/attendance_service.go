package service

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"hostel-mess/backend/config"
	"hostel-mess/backend/internal/billing"
	"hostel-mess/backend/internal/dto"
	"hostel-mess/backend/internal/model"
	"hostel-mess/backend/internal/repository"
	pkgerrors "hostel-mess/backend/pkg/errors"
)

// ── 考勤模块业务错误 ──

var (
	ErrInvalidAttendanceCode = fmt.Errorf("%w: 考勤代码只能为 P/L/CN/V/C", pkgerrors.ErrValidation)
	ErrBulkTooLarge          = fmt.Errorf("%w: 批量写入行数超过上限", pkgerrors.ErrValidation)
	ErrBulkEmpty             = fmt.Errorf("%w: 批量写入不能为空", pkgerrors.ErrValidation)
)

// AttendanceService 考勤业务接口
//
// 表格编辑器每个单元格发起一次 Mark/RecordMeal 请求，失败时由前端回滚；
// BulkMark 逐行独立 upsert，单行失败只计数不中断。
type AttendanceService interface {
	Mark(ctx context.Context, req *dto.MarkAttendanceRequest, callerID string) (*dto.AttendanceResult, error)
	RecordMeal(ctx context.Context, req *dto.MealEntryRequest, callerID string) (*dto.MealEntryResult, error)
	BulkMark(ctx context.Context, req *dto.BulkAttendanceRequest, callerID string) (*dto.BulkAttendanceResponse, error)
	List(ctx context.Context, filter *dto.AttendanceFilter) ([]dto.AttendanceResponse, error)
	Mandays(ctx context.Context, filter *dto.MandaysFilter) (*dto.MandaysResponse, error)
}

type attendanceService struct {
	cfg    *config.Config
	repo   *repository.Repository
	audit  AuditRecorder
	logger *zap.Logger
}

// NewAttendanceService 创建 AttendanceService 实例
func NewAttendanceService(cfg *config.Config, repo *repository.Repository, audit AuditRecorder, logger *zap.Logger) AttendanceService {
	return &attendanceService{cfg: cfg, repo: repo, audit: audit, logger: logger}
}

// ────────────────────── Mark ──────────────────────

func (s *attendanceService) Mark(ctx context.Context, req *dto.MarkAttendanceRequest, callerID string) (*dto.AttendanceResult, error) {
	rec, err := s.upsertMark(ctx, req, callerID, nil)
	if err != nil {
		return nil, err
	}

	resp := toAttendanceResponse(rec)
	outcome := s.audit.Record(ctx, AuditEntry{
		UserID:   callerID,
		Action:   ActionAttendanceMark,
		Entity:   "attendance",
		EntityID: rec.AttendanceID,
		New:      resp,
	})

	return &dto.AttendanceResult{Record: resp, Audit: outcome}, nil
}

// upsertMark 校验并写入一格考勤；known 用于批量时复用已查询的学生
func (s *attendanceService) upsertMark(ctx context.Context, req *dto.MarkAttendanceRequest, callerID string, known map[string]bool) (*model.AttendanceRecord, error) {
	date, err := parseDate(req.Date)
	if err != nil {
		return nil, err
	}

	var code *string
	if req.Code != nil {
		c, err := billing.ParseCode(*req.Code)
		if err != nil {
			return nil, ErrInvalidAttendanceCode
		}
		v := string(c)
		code = &v
	}

	if known == nil || !known[req.StudentID] {
		if _, err := loadStudent(ctx, s.repo, req.StudentID); err != nil {
			return nil, err
		}
		if known != nil {
			known[req.StudentID] = true
		}
	}

	rec := &model.AttendanceRecord{
		StudentID: req.StudentID,
		Date:      date,
		Code:      code,
	}
	rec.Stamp(callerID)

	if err := s.repo.Attendance.Upsert(ctx, rec); err != nil {
		s.logger.Error("写入考勤失败",
			zap.String("student_id", req.StudentID),
			zap.String("date", req.Date),
			zap.Error(err),
		)
		return nil, err
	}
	return rec, nil
}

// ────────────────────── RecordMeal ──────────────────────

func (s *attendanceService) RecordMeal(ctx context.Context, req *dto.MealEntryRequest, callerID string) (*dto.MealEntryResult, error) {
	date, err := parseDate(req.Date)
	if err != nil {
		return nil, err
	}
	if _, err := loadStudent(ctx, s.repo, req.StudentID); err != nil {
		if !errors.Is(err, ErrStudentNotFound) && !errors.Is(err, ErrStudentIDRequired) {
			s.logger.Error("查询学生失败", zap.String("student_id", req.StudentID), zap.Error(err))
		}
		return nil, err
	}

	entry := &model.MealEntry{
		StudentID: req.StudentID,
		Date:      date,
		Breakfast: req.Breakfast,
		Lunch:     req.Lunch,
		Dinner:    req.Dinner,
		Present:   req.Present,
	}
	entry.Stamp(callerID)

	if err := s.repo.MealEntry.Upsert(ctx, entry); err != nil {
		s.logger.Error("写入餐次失败",
			zap.String("student_id", req.StudentID),
			zap.String("date", req.Date),
			zap.Error(err),
		)
		return nil, err
	}

	resp := dto.MealEntryResponse{
		ID:        entry.MealEntryID,
		StudentID: entry.StudentID,
		Date:      entry.Date.Format(dto.DateLayout),
		Breakfast: entry.Breakfast,
		Lunch:     entry.Lunch,
		Dinner:    entry.Dinner,
		Present:   entry.Present,
	}
	outcome := s.audit.Record(ctx, AuditEntry{
		UserID:   callerID,
		Action:   ActionMealEntry,
		Entity:   "meal_entry",
		EntityID: entry.MealEntryID,
		New:      resp,
	})

	return &dto.MealEntryResult{Record: resp, Audit: outcome}, nil
}

// ────────────────────── BulkMark ──────────────────────

func (s *attendanceService) BulkMark(ctx context.Context, req *dto.BulkAttendanceRequest, callerID string) (*dto.BulkAttendanceResponse, error) {
	if len(req.Entries) == 0 {
		return nil, ErrBulkEmpty
	}
	if len(req.Entries) > s.cfg.Billing.BulkMaxRows {
		return nil, ErrBulkTooLarge
	}

	result := dto.BulkResult{Requested: len(req.Entries)}
	known := make(map[string]bool)

	for i := range req.Entries {
		entry := &req.Entries[i]
		if _, err := s.upsertMark(ctx, entry, callerID, known); err != nil {
			result.AddFailure(i, entry.StudentID, err)
			continue
		}
		result.Succeeded++
	}

	if result.Failed > 0 {
		s.logger.Warn("批量考勤部分失败",
			zap.Int("requested", result.Requested),
			zap.Int("failed", result.Failed),
		)
	}

	outcome := s.audit.Record(ctx, AuditEntry{
		UserID:   callerID,
		Action:   ActionAttendanceBulk,
		Entity:   "attendance",
		EntityID: "bulk",
		New:      result,
	})

	return &dto.BulkAttendanceResponse{Bulk: result, Audit: outcome}, nil
}

// ────────────────────── List ──────────────────────

func (s *attendanceService) List(ctx context.Context, filter *dto.AttendanceFilter) ([]dto.AttendanceResponse, error) {
	period, err := s.resolvePeriod(ctx, filter)
	if err != nil {
		return nil, err
	}

	records, err := s.repo.Attendance.List(ctx, repository.AttendanceQuery{
		StudentID: filter.StudentID,
		From:      period.From,
		To:        period.To,
	})
	if err != nil {
		s.logger.Error("查询考勤失败", zap.Error(err))
		return nil, err
	}

	result := make([]dto.AttendanceResponse, 0, len(records))
	for i := range records {
		result = append(result, toAttendanceResponse(&records[i]))
	}
	return result, nil
}

// resolvePeriod from/to 优先；否则取学期起止日期
func (s *attendanceService) resolvePeriod(ctx context.Context, filter *dto.AttendanceFilter) (Period, error) {
	switch {
	case filter.From != "" && filter.To != "":
		return parseRange(filter.From, filter.To)
	case filter.From != "" || filter.To != "":
		return Period{}, ErrInvalidFilter
	case filter.SemesterID != "":
		semester, err := loadSemester(ctx, s.repo, filter.SemesterID)
		if err != nil {
			return Period{}, err
		}
		return semesterPeriod(semester), nil
	default:
		return Period{}, ErrInvalidFilter
	}
}

// ────────────────────── Mandays ──────────────────────

func (s *attendanceService) Mandays(ctx context.Context, filter *dto.MandaysFilter) (*dto.MandaysResponse, error) {
	policy, err := resolvePolicy(filter.LeavePolicy, s.cfg.Billing.LeavePolicy)
	if err != nil {
		return nil, err
	}

	semester, err := loadSemester(ctx, s.repo, filter.SemesterID)
	if err != nil {
		return nil, err
	}

	var students []model.Student
	if filter.StudentID != "" {
		st, err := loadStudent(ctx, s.repo, filter.StudentID)
		if err != nil {
			return nil, err
		}
		students = []model.Student{*st}
	} else {
		students, err = s.repo.Student.ListBillable(ctx)
		if err != nil {
			s.logger.Error("查询计费学生失败", zap.Error(err))
			return nil, err
		}
	}

	perStudent, total, err := countMandays(ctx, s.repo, students, semesterPeriod(semester), policy)
	if err != nil {
		s.logger.Error("统计人天失败", zap.Error(err))
		return nil, err
	}

	resp := &dto.MandaysResponse{
		SemesterID:   semester.SemesterID,
		LeavePolicy:  string(policy),
		TotalMandays: total,
		Students:     make([]dto.StudentMandays, 0, len(students)),
	}
	for _, st := range students {
		resp.Students = append(resp.Students, dto.StudentMandays{
			StudentID: st.StudentID,
			Mandays:   perStudent[st.StudentID],
		})
	}
	return resp, nil
}

func toAttendanceResponse(rec *model.AttendanceRecord) dto.AttendanceResponse {
	return dto.AttendanceResponse{
		ID:        rec.AttendanceID,
		StudentID: rec.StudentID,
		Date:      rec.Date.Format(dto.DateLayout),
		Code:      rec.Code,
		UpdatedAt: rec.UpdatedAt.Format(dto.TimeLayout),
	}
}

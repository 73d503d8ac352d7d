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

// ── 学生模块业务错误 ──

var (
	ErrStudentNotActive = fmt.Errorf("%w: 仅在住学生可办理退宿", pkgerrors.ErrValidation)
)

// StudentService 学生业务接口
// 学生的增删改由外部系统维护，本服务只读取并处理退宿
type StudentService interface {
	List(ctx context.Context, filter *dto.StudentFilter) ([]dto.StudentResponse, error)
	Vacate(ctx context.Context, id string, req *dto.VacateStudentRequest, callerID string) (*dto.VacateStudentResponse, error)
}

type studentService struct {
	repo   *repository.Repository
	audit  AuditRecorder
	logger *zap.Logger
}

// NewStudentService 创建 StudentService 实例
func NewStudentService(repo *repository.Repository, audit AuditRecorder, logger *zap.Logger) StudentService {
	return &studentService{repo: repo, audit: audit, logger: logger}
}

func (s *studentService) List(ctx context.Context, filter *dto.StudentFilter) ([]dto.StudentResponse, error) {
	students, err := s.repo.Student.List(ctx, repository.StudentQuery{
		Hostel:  filter.Hostel,
		Status:  filter.Status,
		IsMando: filter.IsMando,
	})
	if err != nil {
		s.logger.Error("列出学生失败", zap.Error(err))
		return nil, err
	}

	result := make([]dto.StudentResponse, 0, len(students))
	for i := range students {
		result = append(result, toStudentResponse(&students[i]))
	}
	return result, nil
}

// Vacate 退宿：状态置为 VACATE 并记录退宿日，退宿日之后的考勤不再计费
func (s *studentService) Vacate(ctx context.Context, id string, req *dto.VacateStudentRequest, callerID string) (*dto.VacateStudentResponse, error) {
	leaveDate, err := parseDate(req.LeaveDate)
	if err != nil {
		return nil, err
	}

	student, err := loadStudent(ctx, s.repo, id)
	if err != nil {
		if !errors.Is(err, ErrStudentNotFound) {
			s.logger.Error("查询学生失败", zap.String("id", id), zap.Error(err))
		}
		return nil, err
	}
	if student.Status != model.StudentStatusActive {
		return nil, ErrStudentNotActive
	}

	before := toStudentResponse(student)

	if err := s.repo.Student.UpdateStatus(ctx, id, model.StudentStatusVacate, &leaveDate, callerID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrStudentNotFound
		}
		s.logger.Error("更新学生状态失败", zap.String("id", id), zap.Error(err))
		return nil, err
	}

	student.Status = model.StudentStatusVacate
	student.LeaveDate = &leaveDate
	after := toStudentResponse(student)

	outcome := s.audit.Record(ctx, AuditEntry{
		UserID:   callerID,
		Action:   ActionStudentVacate,
		Entity:   "student",
		EntityID: id,
		Old:      before,
		New:      after,
	})

	return &dto.VacateStudentResponse{Student: after, Audit: outcome}, nil
}

func toStudentResponse(st *model.Student) dto.StudentResponse {
	return dto.StudentResponse{
		ID:        st.StudentID,
		RollNo:    st.RollNo,
		Name:      st.Name,
		Hostel:    st.Hostel,
		Year:      st.Year,
		IsMando:   st.IsMando,
		Status:    st.Status,
		LeaveDate: formatDatePtr(st.LeaveDate),
	}
}

package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"hostel-mess/backend/internal/billing"
	"hostel-mess/backend/internal/dto"
	"hostel-mess/backend/internal/model"
	"hostel-mess/backend/internal/repository"
	pkgerrors "hostel-mess/backend/pkg/errors"
)

// ── 通用业务错误 ──

var (
	ErrInvalidDate        = fmt.Errorf("%w: 日期格式应为 YYYY-MM-DD", pkgerrors.ErrValidation)
	ErrInvalidDateRange   = fmt.Errorf("%w: 起始日期不能晚于结束日期", pkgerrors.ErrValidation)
	ErrInvalidFilter      = fmt.Errorf("%w: 需提供 semester_id 或完整的 from/to", pkgerrors.ErrValidation)
	ErrInvalidAmount      = fmt.Errorf("%w: 金额无效", pkgerrors.ErrValidation)
	ErrInvalidLeavePolicy = fmt.Errorf("%w: 请假策略只能为 CHARGED 或 NOT_CHARGED", pkgerrors.ErrValidation)
	ErrStudentIDRequired  = fmt.Errorf("%w: student_id 不能为空", pkgerrors.ErrValidation)
	ErrSemesterIDRequired = fmt.Errorf("%w: semester_id 不能为空", pkgerrors.ErrValidation)
	ErrStudentNotFound    = fmt.Errorf("%w: 学生不存在", pkgerrors.ErrNotFound)
)

// Period 闭区间日期范围
type Period struct {
	From time.Time
	To   time.Time
}

func semesterPeriod(s *model.Semester) Period {
	return Period{From: s.StartDate, To: s.EndDate}
}

func monthPeriod(month, year int) Period {
	from := time.Date(year, time.Month(month), 1, 0, 0, 0, 0, time.UTC)
	return Period{From: from, To: from.AddDate(0, 1, -1)}
}

func parseDate(s string) (time.Time, error) {
	t, err := time.Parse(dto.DateLayout, s)
	if err != nil {
		return time.Time{}, ErrInvalidDate
	}
	return t, nil
}

func parseRange(from, to string) (Period, error) {
	f, err := parseDate(from)
	if err != nil {
		return Period{}, err
	}
	t, err := parseDate(to)
	if err != nil {
		return Period{}, err
	}
	if f.After(t) {
		return Period{}, ErrInvalidDateRange
	}
	return Period{From: f, To: t}, nil
}

// parseAmount 解析查询参数中的金额；空串视为 0，负数拒绝
func parseAmount(s string) (decimal.Decimal, error) {
	if s == "" {
		return decimal.Zero, nil
	}
	d, err := decimal.NewFromString(s)
	if err != nil || d.IsNegative() {
		return decimal.Zero, ErrInvalidAmount
	}
	return d, nil
}

func resolvePolicy(raw, fallback string) (billing.LeavePolicy, error) {
	if raw == "" {
		raw = fallback
	}
	p, err := billing.ParseLeavePolicy(raw)
	if err != nil {
		return "", ErrInvalidLeavePolicy
	}
	return p, nil
}

func loadSemester(ctx context.Context, repo *repository.Repository, id string) (*model.Semester, error) {
	if id == "" {
		return nil, ErrSemesterIDRequired
	}
	semester, err := repo.Semester.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrSemesterNotFound
		}
		return nil, err
	}
	return semester, nil
}

func loadStudent(ctx context.Context, repo *repository.Repository, id string) (*model.Student, error) {
	if id == "" {
		return nil, ErrStudentIDRequired
	}
	student, err := repo.Student.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrStudentNotFound
		}
		return nil, err
	}
	return student, nil
}

// countMandays 统计区间内每名学生的计费人天
// 退宿日之后的考勤不计入；未出现在 students 中的记录忽略
func countMandays(ctx context.Context, repo *repository.Repository, students []model.Student, period Period, policy billing.LeavePolicy) (map[string]int, int, error) {
	q := repository.AttendanceQuery{From: period.From, To: period.To}
	if len(students) == 1 {
		q.StudentID = students[0].StudentID
	}
	records, err := repo.Attendance.List(ctx, q)
	if err != nil {
		return nil, 0, err
	}

	byStudent := make(map[string]*model.Student, len(students))
	for i := range students {
		byStudent[students[i].StudentID] = &students[i]
	}

	marks := make(map[string][]billing.Mark, len(students))
	for _, r := range records {
		st, ok := byStudent[r.StudentID]
		if !ok || !billing.WithinStay(r.Date, st.LeaveDate) {
			continue
		}
		var code *billing.Code
		if r.Code != nil {
			c := billing.Code(*r.Code)
			code = &c
		}
		marks[r.StudentID] = append(marks[r.StudentID], billing.Mark{Date: r.Date, Code: code})
	}

	result := make(map[string]int, len(students))
	total := 0
	for _, st := range students {
		n := billing.Mandays(marks[st.StudentID], policy)
		result[st.StudentID] = n
		total += n
	}
	return result, total, nil
}

// buildPool 汇总学期支出并计算净支出池
func buildPool(ctx context.Context, repo *repository.Repository, period Period, adj billing.PoolAdjustments) (billing.Pool, error) {
	total, err := repo.Expense.SumInRange(ctx, period.From, period.To)
	if err != nil {
		return billing.Pool{}, err
	}
	return billing.NewPool(total, adj), nil
}

func toPoolResponse(semesterID string, period Period, p billing.Pool) dto.PoolResponse {
	return dto.PoolResponse{
		SemesterID:    semesterID,
		PeriodStart:   period.From.Format(dto.DateLayout),
		PeriodEnd:     period.To.Format(dto.DateLayout),
		TotalExpenses: p.TotalExpenses,
		PendingCost:   p.PendingCost,
		Advances:      p.Advances,
		CarryForward:  p.CarryForward,
		NetPool:       p.Net,
		NegativePool:  p.Negative(),
	}
}

func formatDatePtr(t *time.Time) *string {
	if t == nil {
		return nil
	}
	s := t.Format(dto.DateLayout)
	return &s
}

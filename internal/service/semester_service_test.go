package service

import (
	"context"
	"errors"
	"testing"

	"hostel-mess/backend/internal/dto"
)

// ── Create 测试 ──

func TestSemesterService_Create_Success(t *testing.T) {
	env := newTestEnv()
	svc := env.service().Semester

	result, err := svc.Create(context.Background(), &dto.CreateSemesterRequest{
		Name:      "2024-25 奇数学期",
		StartDate: "2024-07-01",
		EndDate:   "2024-12-15",
	}, "admin-001")
	if err != nil {
		t.Fatalf("Create 应成功: %v", err)
	}
	if result.Name != "2024-25 奇数学期" {
		t.Errorf("期望Name=2024-25 奇数学期，实际=%s", result.Name)
	}
	if result.IsActive {
		t.Error("新创建学期不应默认激活")
	}
	if result.StartDate != "2024-07-01" || result.EndDate != "2024-12-15" {
		t.Errorf("日期不符: %s ~ %s", result.StartDate, result.EndDate)
	}
}

func TestSemesterService_Create_InvalidDate(t *testing.T) {
	env := newTestEnv()
	svc := env.service().Semester

	tests := []struct {
		name  string
		start string
		end   string
	}{
		{"结束早于开始", "2024-12-15", "2024-07-01"},
		{"开始等于结束", "2024-07-01", "2024-07-01"},
		{"日期格式错误", "2024/07/01", "2024-12-15"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Create(context.Background(), &dto.CreateSemesterRequest{Name: "测试学期", StartDate: tt.start, EndDate: tt.end}, "admin-001")
			if !errors.Is(err, ErrSemesterDateInvalid) {
				t.Errorf("期望 ErrSemesterDateInvalid，实际: %v", err)
			}
		})
	}
}

// ── Query 测试 ──

func TestSemesterService_GetByID_NotFound(t *testing.T) {
	env := newTestEnv()
	svc := env.service().Semester

	_, err := svc.GetByID(context.Background(), "nonexistent")
	if !errors.Is(err, ErrSemesterNotFound) {
		t.Errorf("期望 ErrSemesterNotFound，实际: %v", err)
	}
}

func TestSemesterService_GetCurrent_None(t *testing.T) {
	env := newTestEnv()
	env.addSemester("sem-1", date(2024, 7, 1), date(2024, 12, 15))
	svc := env.service().Semester

	_, err := svc.GetCurrent(context.Background())
	if !errors.Is(err, ErrSemesterNotFound) {
		t.Errorf("无活动学期时期望 ErrSemesterNotFound，实际: %v", err)
	}
}

// ── Activate 测试 ──

func TestSemesterService_Activate(t *testing.T) {
	env := newTestEnv()
	env.addSemester("sem-1", date(2024, 7, 1), date(2024, 12, 15))
	env.addSemester("sem-2", date(2024, 12, 16), date(2025, 5, 31))
	svc := env.service().Semester
	ctx := context.Background()

	if err := svc.Activate(ctx, "sem-1", "admin-001"); err != nil {
		t.Fatalf("Activate 应成功: %v", err)
	}
	if err := svc.Activate(ctx, "sem-2", "admin-001"); err != nil {
		t.Fatalf("Activate 应成功: %v", err)
	}

	if env.semesters.semesters["sem-1"].IsActive {
		t.Error("激活新学期后旧学期应取消激活")
	}
	current, err := svc.GetCurrent(ctx)
	if err != nil {
		t.Fatalf("GetCurrent 应成功: %v", err)
	}
	if current.ID != "sem-2" {
		t.Errorf("期望当前学期=sem-2，实际=%s", current.ID)
	}

	list, err := svc.List(ctx)
	if err != nil || len(list) != 2 {
		t.Errorf("期望 2 个学期，实际=%d err=%v", len(list), err)
	}
}

func TestSemesterService_Activate_NotFound(t *testing.T) {
	env := newTestEnv()
	svc := env.service().Semester

	if err := svc.Activate(context.Background(), "nonexistent", "admin-001"); !errors.Is(err, ErrSemesterNotFound) {
		t.Errorf("期望 ErrSemesterNotFound，实际: %v", err)
	}
}

func TestSemesterService_Create_Overlap(t *testing.T) {
	env := newTestEnv()
	env.addSemester("sem-1", date(2024, 7, 1), date(2024, 12, 15))
	svc := env.service().Semester
	ctx := context.Background()

	tests := []struct {
		name    string
		start   string
		end     string
		wantErr error
	}{
		{"尾部重叠", "2024-12-01", "2025-05-31", ErrSemesterOverlap},
		{"首日与旧学期末日相同", "2024-12-15", "2025-05-31", ErrSemesterOverlap},
		{"完全包含", "2024-06-01", "2025-01-31", ErrSemesterOverlap},
		{"紧接旧学期", "2024-12-16", "2025-05-31", nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Create(ctx, &dto.CreateSemesterRequest{Name: tt.name, StartDate: tt.start, EndDate: tt.end}, "admin-001")
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("期望 %v，实际: %v", tt.wantErr, err)
			}
		})
	}
}

// ── GetByDate 测试 ──

func TestSemesterService_GetByDate(t *testing.T) {
	env := newTestEnv()
	env.addSemester("sem-1", date(2024, 7, 1), date(2024, 12, 15))
	env.addSemester("sem-2", date(2024, 12, 16), date(2025, 5, 31))
	svc := env.service().Semester
	ctx := context.Background()

	tests := []struct {
		name    string
		day     string
		wantID  string
		wantErr error
	}{
		{"学期首日", "2024-07-01", "sem-1", nil},
		{"学期末日", "2024-12-15", "sem-1", nil},
		{"下一学期首日", "2024-12-16", "sem-2", nil},
		{"不在任何学期内", "2025-06-01", "", ErrSemesterNotFound},
		{"日期格式错误", "2024/09/01", "", ErrInvalidDate},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := svc.GetByDate(ctx, tt.day)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("期望 %v，实际: %v", tt.wantErr, err)
			}
			if err == nil && got.ID != tt.wantID {
				t.Errorf("期望学期=%s，实际=%s", tt.wantID, got.ID)
			}
		})
	}
}

func TestSemesterService_TotalDays(t *testing.T) {
	env := newTestEnv()
	env.addSemester("sem-1", date(2024, 7, 1), date(2024, 12, 15))
	svc := env.service().Semester

	got, err := svc.GetByID(context.Background(), "sem-1")
	if err != nil {
		t.Fatalf("GetByID 应成功: %v", err)
	}
	// 7/1 ~ 12/15 含首尾共 168 天
	if got.TotalDays != 168 {
		t.Errorf("期望 TotalDays=168，实际=%d", got.TotalDays)
	}
}

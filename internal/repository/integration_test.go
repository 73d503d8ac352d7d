//go:build integration

package repository_test

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"hostel-mess/backend/internal/model"
	"hostel-mess/backend/internal/repository"
	"hostel-mess/backend/pkg/database"
)

// ═══════════════════════════════════════════════════════════
// Test Setup
// ═══════════════════════════════════════════════════════════

var testDB *gorm.DB

func TestMain(m *testing.M) {
	dsn := os.Getenv("TEST_DATABASE_DSN")
	if dsn == "" {
		dsn = "host=localhost port=5433 user=hostel_mess password=hostel_mess_password dbname=hostel_mess_test sslmode=disable TimeZone=Asia/Kolkata"
	}

	var err error
	testDB, err = gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "无法连接测试数据库: %v\n", err)
		os.Exit(1)
	}

	// 使用与生产一致的嵌入式迁移，唯一约束是 upsert 的前提
	sqlDB, err := testDB.DB()
	if err != nil {
		fmt.Fprintf(os.Stderr, "获取 sql.DB 失败: %v\n", err)
		os.Exit(1)
	}
	if err := database.RunMigrations(sqlDB, zap.NewNop()); err != nil {
		fmt.Fprintf(os.Stderr, "迁移失败: %v\n", err)
		os.Exit(1)
	}

	os.Exit(m.Run())
}

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// setupTestData 创建一个学期与一名学生，返回清理函数
func setupTestData(t *testing.T) (semester *model.Semester, student *model.Student, cleanup func()) {
	t.Helper()
	ctx := context.Background()
	suffix := time.Now().UnixNano()

	semester = &model.Semester{
		Name:      fmt.Sprintf("测试学期-%d", suffix),
		StartDate: date(2024, time.August, 1),
		EndDate:   date(2024, time.December, 31),
	}
	if err := testDB.WithContext(ctx).Create(semester).Error; err != nil {
		t.Fatalf("创建学期失败: %v", err)
	}

	student = &model.Student{
		RollNo: fmt.Sprintf("R%d", suffix),
		Name:   "测试学生",
		Hostel: model.HostelBoys,
		Year:   2,
		Status: model.StudentStatusActive,
	}
	if err := testDB.WithContext(ctx).Create(student).Error; err != nil {
		t.Fatalf("创建学生失败: %v", err)
	}

	cleanup = func() {
		sid, semID := student.StudentID, semester.SemesterID
		testDB.Exec("DELETE FROM attendance_records WHERE student_id = ?", sid)
		testDB.Exec("DELETE FROM meal_entries WHERE student_id = ?", sid)
		testDB.Exec("DELETE FROM monthly_balances WHERE student_id = ?", sid)
		testDB.Exec("DELETE FROM fee_records WHERE student_id = ?", sid)
		testDB.Exec("DELETE FROM fee_structures WHERE student_id = ?", sid)
		testDB.Exec("DELETE FROM monthly_rates WHERE semester_id = ?", semID)
		testDB.Exec("DELETE FROM students WHERE student_id = ?", sid)
		testDB.Exec("DELETE FROM semesters WHERE semester_id = ?", semID)
	}
	return semester, student, cleanup
}

// ═══════════════════════════════════════════════════════════
// Test: Transaction
// ═══════════════════════════════════════════════════════════

func TestTransaction_Rollback(t *testing.T) {
	repo := repository.NewRepository(testDB)
	ctx := context.Background()

	tx, err := repo.BeginTx(ctx)
	if err != nil {
		t.Fatalf("BeginTx 失败: %v", err)
	}
	txRepo := repo.WithTx(tx)

	sem := &model.Semester{
		Name:      fmt.Sprintf("回滚学期-%d", time.Now().UnixNano()),
		StartDate: date(2025, time.January, 1),
		EndDate:   date(2025, time.May, 31),
	}
	if err := txRepo.Semester.Create(ctx, sem); err != nil {
		tx.Rollback()
		t.Fatalf("事务内创建学期失败: %v", err)
	}

	tx.Rollback()

	_, err = repo.Semester.GetByID(ctx, sem.SemesterID)
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		testDB.Exec("DELETE FROM semesters WHERE semester_id = ?", sem.SemesterID)
		t.Fatalf("期望回滚后查不到学期，实际 err=%v", err)
	}
}

func TestTransaction_Commit(t *testing.T) {
	repo := repository.NewRepository(testDB)
	ctx := context.Background()

	tx, err := repo.BeginTx(ctx)
	if err != nil {
		t.Fatalf("BeginTx 失败: %v", err)
	}
	txRepo := repo.WithTx(tx)

	sem := &model.Semester{
		Name:      fmt.Sprintf("提交学期-%d", time.Now().UnixNano()),
		StartDate: date(2025, time.January, 1),
		EndDate:   date(2025, time.May, 31),
	}
	if err := txRepo.Semester.Create(ctx, sem); err != nil {
		tx.Rollback()
		t.Fatalf("事务内创建学期失败: %v", err)
	}
	if err := tx.Commit().Error; err != nil {
		t.Fatalf("Commit 失败: %v", err)
	}
	defer testDB.Exec("DELETE FROM semesters WHERE semester_id = ?", sem.SemesterID)

	found, err := repo.Semester.GetByID(ctx, sem.SemesterID)
	if err != nil {
		t.Fatalf("提交后查询学期失败: %v", err)
	}
	if found.Name != sem.Name {
		t.Errorf("名称不匹配: expected %s, got %s", sem.Name, found.Name)
	}
}

func TestSemester_GetByDateAndOverlap(t *testing.T) {
	repo := repository.NewRepository(testDB)
	ctx := context.Background()

	tx, err := repo.BeginTx(ctx)
	if err != nil {
		t.Fatalf("BeginTx 失败: %v", err)
	}
	defer tx.Rollback()
	txRepo := repo.WithTx(tx)

	sem := &model.Semester{
		Name:      fmt.Sprintf("定位学期-%d", time.Now().UnixNano()),
		StartDate: date(2091, time.July, 1),
		EndDate:   date(2091, time.December, 15),
	}
	if err := txRepo.Semester.Create(ctx, sem); err != nil {
		t.Fatalf("创建学期失败: %v", err)
	}

	found, err := txRepo.Semester.GetByDate(ctx, date(2091, time.December, 15))
	if err != nil || found.SemesterID != sem.SemesterID {
		t.Fatalf("末日应落在学期内: got=%v err=%v", found, err)
	}
	if _, err := txRepo.Semester.GetByDate(ctx, date(2091, time.December, 16)); !errors.Is(err, gorm.ErrRecordNotFound) {
		t.Errorf("学期外日期期望 ErrRecordNotFound，实际 err=%v", err)
	}

	n, err := txRepo.Semester.CountOverlapping(ctx, date(2091, time.December, 15), date(2092, time.May, 31))
	if err != nil || n != 1 {
		t.Errorf("首尾相接应计为重叠: n=%d err=%v", n, err)
	}
	n, err = txRepo.Semester.CountOverlapping(ctx, date(2091, time.December, 16), date(2092, time.May, 31))
	if err != nil || n != 0 {
		t.Errorf("紧接的周期不应重叠: n=%d err=%v", n, err)
	}
}

// ═══════════════════════════════════════════════════════════
// Test: Upsert 唯一键
// ═══════════════════════════════════════════════════════════

func TestAttendance_UpsertOverwrites(t *testing.T) {
	_, student, cleanup := setupTestData(t)
	defer cleanup()

	repo := repository.NewRepository(testDB)
	ctx := context.Background()
	day := date(2024, time.September, 2)

	p, l := "P", "L"
	if err := repo.Attendance.Upsert(ctx, &model.AttendanceRecord{StudentID: student.StudentID, Date: day, Code: &p}); err != nil {
		t.Fatalf("首次写入失败: %v", err)
	}
	if err := repo.Attendance.Upsert(ctx, &model.AttendanceRecord{StudentID: student.StudentID, Date: day, Code: &l}); err != nil {
		t.Fatalf("覆盖写入失败: %v", err)
	}

	records, err := repo.Attendance.List(ctx, repository.AttendanceQuery{StudentID: student.StudentID, From: day, To: day})
	if err != nil {
		t.Fatalf("List 失败: %v", err)
	}
	if len(records) != 1 {
		t.Fatalf("期望同一天只有 1 行，实际 %d", len(records))
	}
	if records[0].Code == nil || *records[0].Code != "L" {
		t.Errorf("期望代码被覆盖为 L，实际 %v", records[0].Code)
	}

	// 清空单元格
	if err := repo.Attendance.Upsert(ctx, &model.AttendanceRecord{StudentID: student.StudentID, Date: day}); err != nil {
		t.Fatalf("清空失败: %v", err)
	}
	records, _ = repo.Attendance.List(ctx, repository.AttendanceQuery{StudentID: student.StudentID, From: day, To: day})
	if len(records) != 1 || records[0].Code != nil {
		t.Errorf("期望代码被清空，实际 %+v", records)
	}
}

func TestMealEntry_CountMealsByStudent(t *testing.T) {
	_, student, cleanup := setupTestData(t)
	defer cleanup()

	repo := repository.NewRepository(testDB)
	ctx := context.Background()

	entries := []model.MealEntry{
		{StudentID: student.StudentID, Date: date(2024, time.October, 1), Breakfast: true, Lunch: true, Present: true},
		{StudentID: student.StudentID, Date: date(2024, time.October, 2), Dinner: true, Present: true},
		// 同日再次写入覆盖而非累加
		{StudentID: student.StudentID, Date: date(2024, time.October, 2), Lunch: true, Dinner: true, Present: true},
	}
	for i := range entries {
		if err := repo.MealEntry.Upsert(ctx, &entries[i]); err != nil {
			t.Fatalf("写入餐次失败: %v", err)
		}
	}

	counts, err := repo.MealEntry.CountMealsByStudent(ctx, date(2024, time.October, 1), date(2024, time.October, 31))
	if err != nil {
		t.Fatalf("统计失败: %v", err)
	}
	if counts[student.StudentID] != 4 {
		t.Errorf("期望 4 餐，实际 %d", counts[student.StudentID])
	}
}

func TestMonthlyRate_UpdateByMonthAcrossSemesters(t *testing.T) {
	semA, _, cleanupA := setupTestData(t)
	defer cleanupA()
	semB, _, cleanupB := setupTestData(t)
	defer cleanupB()

	repo := repository.NewRepository(testDB)
	ctx := context.Background()

	// 使用不常见的年份避免与其他数据冲突
	const month, year = 12, 2091
	for _, sem := range []*model.Semester{semA, semB} {
		rate := &model.MonthlyRate{SemesterID: sem.SemesterID, Month: month, Year: year, LaborRate: decimal.NewFromInt(10), ProvisionRate: decimal.NewFromInt(20)}
		if err := repo.MonthlyRate.Create(ctx, rate); err != nil {
			t.Fatalf("创建月单价失败: %v", err)
		}
	}
	other := &model.MonthlyRate{SemesterID: semA.SemesterID, Month: 11, Year: year, LaborRate: decimal.NewFromInt(10), ProvisionRate: decimal.NewFromInt(20)}
	if err := repo.MonthlyRate.Create(ctx, other); err != nil {
		t.Fatalf("创建月单价失败: %v", err)
	}

	n, err := repo.MonthlyRate.UpdateByMonth(ctx, month, year, decimal.RequireFromString("12.5"), decimal.RequireFromString("22.75"), "tester")
	if err != nil {
		t.Fatalf("UpdateByMonth 失败: %v", err)
	}
	if n != 2 {
		t.Errorf("期望更新 2 行，实际 %d", n)
	}

	rates, _ := repo.MonthlyRate.ListByMonth(ctx, month, year)
	for _, r := range rates {
		if !r.LaborRate.Equal(decimal.RequireFromString("12.5")) || !r.ProvisionRate.Equal(decimal.RequireFromString("22.75")) {
			t.Errorf("学期 %s 单价未同步: %s/%s", r.SemesterID, r.LaborRate, r.ProvisionRate)
		}
	}

	untouched, _ := repo.MonthlyRate.ListByMonth(ctx, 11, year)
	if len(untouched) != 1 || !untouched[0].LaborRate.Equal(decimal.NewFromInt(10)) {
		t.Errorf("其他月份不应被修改: %+v", untouched)
	}
}

func TestMonthlyBalance_UpsertIgnoresSemester(t *testing.T) {
	semA, student, cleanup := setupTestData(t)
	defer cleanup()
	semB, _, cleanupB := setupTestData(t)
	defer cleanupB()

	repo := repository.NewRepository(testDB)
	ctx := context.Background()

	const month, year = 12, 2092
	first := &model.MonthlyBalance{StudentID: student.StudentID, SemesterID: &semA.SemesterID, Month: month, Year: year, LaborDays: 10, Balance: decimal.NewFromInt(100)}
	if err := repo.MonthlyBalance.Upsert(ctx, first); err != nil {
		t.Fatalf("首次写入失败: %v", err)
	}
	second := &model.MonthlyBalance{StudentID: student.StudentID, SemesterID: &semB.SemesterID, Month: month, Year: year, LaborDays: 12, Balance: decimal.NewFromInt(80)}
	if err := repo.MonthlyBalance.Upsert(ctx, second); err != nil {
		t.Fatalf("跨学期覆盖失败: %v", err)
	}

	count, err := repo.MonthlyBalance.CountByMonth(ctx, month, year)
	if err != nil {
		t.Fatalf("CountByMonth 失败: %v", err)
	}
	if count != 1 {
		t.Errorf("期望 1 行，实际 %d", count)
	}

	balances, _ := repo.MonthlyBalance.List(ctx, month, year, student.StudentID)
	if len(balances) != 1 || balances[0].LaborDays != 12 || *balances[0].SemesterID != semB.SemesterID {
		t.Errorf("期望被第二学期覆盖，实际 %+v", balances)
	}
}

func TestFeeRecord_UpsertAndList(t *testing.T) {
	semester, student, cleanup := setupTestData(t)
	defer cleanup()

	repo := repository.NewRepository(testDB)
	ctx := context.Background()

	rec := &model.FeeRecord{
		StudentID:  student.StudentID,
		SemesterID: semester.SemesterID,
		TotalDue:   decimal.NewFromInt(500),
		AmountPaid: decimal.NewFromInt(200),
		Balance:    decimal.NewFromInt(300),
	}
	if err := repo.FeeRecord.Upsert(ctx, rec); err != nil {
		t.Fatalf("写入台账失败: %v", err)
	}

	rec.AmountPaid = decimal.NewFromInt(500)
	rec.Balance = decimal.Zero
	rec.PaymentMode = "UPI"
	if err := repo.FeeRecord.Upsert(ctx, rec); err != nil {
		t.Fatalf("覆盖台账失败: %v", err)
	}

	got, err := repo.FeeRecord.GetByStudentAndSemester(ctx, student.StudentID, semester.SemesterID)
	if err != nil {
		t.Fatalf("查询台账失败: %v", err)
	}
	if !got.Balance.IsZero() || got.PaymentMode != "UPI" {
		t.Errorf("期望 balance=0 mode=UPI，实际 %s %s", got.Balance, got.PaymentMode)
	}

	list, total, err := repo.FeeRecord.List(ctx, semester.SemesterID, "", 0, 10)
	if err != nil {
		t.Fatalf("List 失败: %v", err)
	}
	if total != 1 || len(list) != 1 {
		t.Errorf("期望 1 条，实际 total=%d len=%d", total, len(list))
	}
}

func TestFeeRecord_AddPaymentConcurrent(t *testing.T) {
	semester, student, cleanup := setupTestData(t)
	defer cleanup()

	repo := repository.NewRepository(testDB)
	ctx := context.Background()
	amount := decimal.NewFromInt(50)

	const payers = 4
	var wg sync.WaitGroup
	errs := make(chan error, payers)
	for i := 0; i < payers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			// 每个调用方都按“尚无台账”准备开立值
			rec := &model.FeeRecord{
				StudentID:   student.StudentID,
				SemesterID:  semester.SemesterID,
				TotalDue:    decimal.NewFromInt(500),
				AmountPaid:  amount,
				Balance:     decimal.NewFromInt(450),
				PaymentMode: "cash",
			}
			errs <- repo.FeeRecord.AddPayment(ctx, rec, amount, nil)
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		if err != nil {
			t.Fatalf("AddPayment 失败: %v", err)
		}
	}

	got, err := repo.FeeRecord.GetByStudentAndSemester(ctx, student.StudentID, semester.SemesterID)
	if err != nil {
		t.Fatalf("查询台账失败: %v", err)
	}
	if !got.AmountPaid.Equal(decimal.NewFromInt(200)) || !got.Balance.Equal(decimal.NewFromInt(300)) {
		t.Errorf("期望 amount_paid=200 balance=300，实际 %s/%s", got.AmountPaid, got.Balance)
	}
}

func TestFeeRecord_AddPaymentOverride(t *testing.T) {
	semester, student, cleanup := setupTestData(t)
	defer cleanup()

	repo := repository.NewRepository(testDB)
	ctx := context.Background()

	first := &model.FeeRecord{StudentID: student.StudentID, SemesterID: semester.SemesterID, TotalDue: decimal.NewFromInt(500), AmountPaid: decimal.NewFromInt(100), Balance: decimal.NewFromInt(400)}
	if err := repo.FeeRecord.AddPayment(ctx, first, decimal.NewFromInt(100), nil); err != nil {
		t.Fatalf("首笔付款失败: %v", err)
	}

	override := decimal.NewFromInt(7)
	second := &model.FeeRecord{StudentID: student.StudentID, SemesterID: semester.SemesterID, TotalDue: decimal.NewFromInt(999), PaymentMode: "upi"}
	if err := repo.FeeRecord.AddPayment(ctx, second, decimal.NewFromInt(50), &override); err != nil {
		t.Fatalf("带修正付款失败: %v", err)
	}
	// RETURNING 回填最新行
	if !second.AmountPaid.Equal(decimal.NewFromInt(150)) || !second.Balance.Equal(override) || !second.BalanceOverridden {
		t.Errorf("期望 150/7/overridden，实际 %+v", second)
	}
	if !second.TotalDue.Equal(decimal.NewFromInt(500)) {
		t.Errorf("应收额应保持开立值 500，实际 %s", second.TotalDue)
	}
}

// ═══════════════════════════════════════════════════════════
// Test: 学生状态
// ═══════════════════════════════════════════════════════════

func TestStudent_VacateStaysBillable(t *testing.T) {
	_, student, cleanup := setupTestData(t)
	defer cleanup()

	repo := repository.NewRepository(testDB)
	ctx := context.Background()

	leave := date(2024, time.November, 15)
	if err := repo.Student.UpdateStatus(ctx, student.StudentID, model.StudentStatusVacate, &leave, "warden"); err != nil {
		t.Fatalf("退宿失败: %v", err)
	}

	got, err := repo.Student.GetByID(ctx, student.StudentID)
	if err != nil {
		t.Fatalf("查询学生失败: %v", err)
	}
	if got.Status != model.StudentStatusVacate || got.LeaveDate == nil {
		t.Errorf("期望 VACATE 且有离宿日期，实际 %+v", got)
	}

	billable, _ := repo.Student.ListBillable(ctx)
	found := false
	for _, s := range billable {
		if s.StudentID == student.StudentID {
			found = true
		}
	}
	if !found {
		t.Error("退宿学生仍应参与计费")
	}
}

func TestStudent_UpdateStatusNotFound(t *testing.T) {
	repo := repository.NewRepository(testDB)
	err := repo.Student.UpdateStatus(context.Background(), "00000000-0000-0000-0000-000000000000", model.StudentStatusVacate, nil, "warden")
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		t.Errorf("期望 ErrRecordNotFound，实际 %v", err)
	}
}

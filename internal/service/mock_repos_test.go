package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"hostel-mess/backend/config"
	"hostel-mess/backend/internal/billing"
	"hostel-mess/backend/internal/model"
	"hostel-mess/backend/internal/repository"
)

var errMockDB = errors.New("mock: 数据库写入失败")

func date(y, m, d int) time.Time {
	return time.Date(y, time.Month(m), d, 0, 0, 0, 0, time.UTC)
}

func dateKey(t time.Time) string {
	return t.Format("2006-01-02")
}

// ── Mock SemesterRepository ──

type mockSemesterRepo struct {
	semesters map[string]*model.Semester
}

func newMockSemesterRepo() *mockSemesterRepo {
	return &mockSemesterRepo{semesters: make(map[string]*model.Semester)}
}

func (m *mockSemesterRepo) Create(_ context.Context, semester *model.Semester) error {
	if semester.SemesterID == "" {
		semester.SemesterID = "sem-" + semester.Name
	}
	m.semesters[semester.SemesterID] = semester
	return nil
}

func (m *mockSemesterRepo) GetByID(_ context.Context, id string) (*model.Semester, error) {
	if s, ok := m.semesters[id]; ok {
		return s, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockSemesterRepo) GetCurrent(_ context.Context) (*model.Semester, error) {
	for _, s := range m.semesters {
		if s.IsActive {
			return s, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockSemesterRepo) GetByDate(_ context.Context, day time.Time) (*model.Semester, error) {
	var found *model.Semester
	for _, s := range m.semesters {
		if s.StartDate.After(day) || s.EndDate.Before(day) {
			continue
		}
		if found == nil || s.StartDate.After(found.StartDate) {
			found = s
		}
	}
	if found == nil {
		return nil, gorm.ErrRecordNotFound
	}
	return found, nil
}

func (m *mockSemesterRepo) CountOverlapping(_ context.Context, from, to time.Time) (int64, error) {
	var count int64
	for _, s := range m.semesters {
		if !s.StartDate.After(to) && !s.EndDate.Before(from) {
			count++
		}
	}
	return count, nil
}

func (m *mockSemesterRepo) List(_ context.Context) ([]model.Semester, error) {
	var result []model.Semester
	for _, s := range m.semesters {
		result = append(result, *s)
	}
	return result, nil
}

func (m *mockSemesterRepo) Update(_ context.Context, semester *model.Semester) error {
	m.semesters[semester.SemesterID] = semester
	return nil
}

func (m *mockSemesterRepo) ClearActive(_ context.Context) error {
	for _, s := range m.semesters {
		s.IsActive = false
	}
	return nil
}

// ── Mock StudentRepository ──

type mockStudentRepo struct {
	students map[string]*model.Student
}

func newMockStudentRepo() *mockStudentRepo {
	return &mockStudentRepo{students: make(map[string]*model.Student)}
}

func (m *mockStudentRepo) add(st *model.Student) {
	if st.Status == "" {
		st.Status = model.StudentStatusActive
	}
	m.students[st.StudentID] = st
}

func (m *mockStudentRepo) GetByID(_ context.Context, id string) (*model.Student, error) {
	if s, ok := m.students[id]; ok {
		cp := *s
		return &cp, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockStudentRepo) List(_ context.Context, q repository.StudentQuery) ([]model.Student, error) {
	var result []model.Student
	for _, s := range m.sorted() {
		if q.Hostel != "" && s.Hostel != q.Hostel {
			continue
		}
		if q.Status != "" && s.Status != q.Status {
			continue
		}
		if q.IsMando != nil && s.IsMando != *q.IsMando {
			continue
		}
		result = append(result, s)
	}
	return result, nil
}

func (m *mockStudentRepo) ListBillable(_ context.Context) ([]model.Student, error) {
	var result []model.Student
	for _, s := range m.sorted() {
		if s.Status == model.StudentStatusActive || s.Status == model.StudentStatusVacate {
			result = append(result, s)
		}
	}
	return result, nil
}

func (m *mockStudentRepo) UpdateStatus(_ context.Context, id, status string, leaveDate *time.Time, updatedBy string) error {
	s, ok := m.students[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	s.Status = status
	s.LeaveDate = leaveDate
	s.UpdatedBy = &updatedBy
	return nil
}

func (m *mockStudentRepo) sorted() []model.Student {
	result := make([]model.Student, 0, len(m.students))
	for _, s := range m.students {
		result = append(result, *s)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].RollNo < result[j].RollNo })
	return result
}

// ── Mock AttendanceRepository ──

type mockAttendanceRepo struct {
	records map[string]*model.AttendanceRecord // "student|date"
	failFor map[string]bool                    // student_id → Upsert 返回错误
	seq     int
}

func newMockAttendanceRepo() *mockAttendanceRepo {
	return &mockAttendanceRepo{
		records: make(map[string]*model.AttendanceRecord),
		failFor: make(map[string]bool),
	}
}

func (m *mockAttendanceRepo) mark(studentID string, d time.Time, code string) {
	var c *string
	if code != "" {
		c = &code
	}
	_ = m.Upsert(context.Background(), &model.AttendanceRecord{StudentID: studentID, Date: d, Code: c})
}

func (m *mockAttendanceRepo) Upsert(_ context.Context, rec *model.AttendanceRecord) error {
	if m.failFor[rec.StudentID] {
		return errMockDB
	}
	key := rec.StudentID + "|" + dateKey(rec.Date)
	if existing, ok := m.records[key]; ok {
		rec.AttendanceID = existing.AttendanceID
	} else {
		m.seq++
		rec.AttendanceID = fmt.Sprintf("att-%d", m.seq)
	}
	cp := *rec
	m.records[key] = &cp
	return nil
}

func (m *mockAttendanceRepo) List(_ context.Context, q repository.AttendanceQuery) ([]model.AttendanceRecord, error) {
	var result []model.AttendanceRecord
	for _, r := range m.records {
		if q.StudentID != "" && r.StudentID != q.StudentID {
			continue
		}
		if r.Date.Before(q.From) || r.Date.After(q.To) {
			continue
		}
		result = append(result, *r)
	}
	sort.Slice(result, func(i, j int) bool {
		if result[i].StudentID != result[j].StudentID {
			return result[i].StudentID < result[j].StudentID
		}
		return result[i].Date.Before(result[j].Date)
	})
	return result, nil
}

// ── Mock MealEntryRepository ──

type mockMealEntryRepo struct {
	entries map[string]*model.MealEntry
	seq     int
}

func newMockMealEntryRepo() *mockMealEntryRepo {
	return &mockMealEntryRepo{entries: make(map[string]*model.MealEntry)}
}

func (m *mockMealEntryRepo) Upsert(_ context.Context, entry *model.MealEntry) error {
	key := entry.StudentID + "|" + dateKey(entry.Date)
	if existing, ok := m.entries[key]; ok {
		entry.MealEntryID = existing.MealEntryID
	} else {
		m.seq++
		entry.MealEntryID = fmt.Sprintf("meal-%d", m.seq)
	}
	cp := *entry
	m.entries[key] = &cp
	return nil
}

func (m *mockMealEntryRepo) CountMealsByStudent(_ context.Context, from, to time.Time) (map[string]int, error) {
	out := make(map[string]int)
	for _, e := range m.entries {
		if e.Date.Before(from) || e.Date.After(to) {
			continue
		}
		out[e.StudentID] += e.MealCount()
	}
	return out, nil
}

// ── Mock ExpenseRepository ──

type mockExpenseRepo struct {
	expenses []model.Expense
}

func newMockExpenseRepo() *mockExpenseRepo {
	return &mockExpenseRepo{}
}

func (m *mockExpenseRepo) Create(_ context.Context, expense *model.Expense) error {
	expense.ExpenseID = fmt.Sprintf("exp-%d", len(m.expenses)+1)
	m.expenses = append(m.expenses, *expense)
	return nil
}

func (m *mockExpenseRepo) List(_ context.Context, q repository.ExpenseQuery) ([]model.Expense, error) {
	var result []model.Expense
	for _, e := range m.expenses {
		if e.Date.Before(q.From) || e.Date.After(q.To) {
			continue
		}
		if q.Type != "" && e.Type != q.Type {
			continue
		}
		result = append(result, e)
	}
	return result, nil
}

func (m *mockExpenseRepo) SumInRange(_ context.Context, from, to time.Time) (decimal.Decimal, error) {
	total := decimal.Zero
	for _, e := range m.expenses {
		if e.Date.Before(from) || e.Date.After(to) {
			continue
		}
		total = total.Add(e.Amount)
	}
	return total, nil
}

// ── Mock MonthlyRateRepository ──

type mockMonthlyRateRepo struct {
	rates []*model.MonthlyRate
}

func newMockMonthlyRateRepo() *mockMonthlyRateRepo {
	return &mockMonthlyRateRepo{}
}

func (m *mockMonthlyRateRepo) Create(_ context.Context, rate *model.MonthlyRate) error {
	for _, r := range m.rates {
		if r.Month == rate.Month && r.Year == rate.Year && r.SemesterID == rate.SemesterID {
			return errors.New("mock: duplicate key")
		}
	}
	if rate.MonthlyRateID == "" {
		rate.MonthlyRateID = fmt.Sprintf("rate-%d", len(m.rates)+1)
	}
	cp := *rate
	m.rates = append(m.rates, &cp)
	return nil
}

func (m *mockMonthlyRateRepo) ListByMonth(_ context.Context, month, year int) ([]model.MonthlyRate, error) {
	var result []model.MonthlyRate
	for _, r := range m.rates {
		if r.Month == month && r.Year == year {
			result = append(result, *r)
		}
	}
	return result, nil
}

func (m *mockMonthlyRateRepo) UpdateByMonth(_ context.Context, month, year int, laborRate, provisionRate decimal.Decimal, updatedBy string) (int64, error) {
	var n int64
	for _, r := range m.rates {
		if r.Month == month && r.Year == year {
			r.LaborRate = laborRate
			r.ProvisionRate = provisionRate
			r.UpdatedBy = &updatedBy
			n++
		}
	}
	return n, nil
}

// ── Mock MonthlyBalanceRepository ──

type mockMonthlyBalanceRepo struct {
	balances map[string]*model.MonthlyBalance // "student|month|year"
	seq      int
}

func newMockMonthlyBalanceRepo() *mockMonthlyBalanceRepo {
	return &mockMonthlyBalanceRepo{balances: make(map[string]*model.MonthlyBalance)}
}

func (m *mockMonthlyBalanceRepo) Upsert(_ context.Context, bal *model.MonthlyBalance) error {
	key := fmt.Sprintf("%s|%d|%d", bal.StudentID, bal.Month, bal.Year)
	if existing, ok := m.balances[key]; ok {
		bal.MonthlyBalanceID = existing.MonthlyBalanceID
	} else {
		m.seq++
		bal.MonthlyBalanceID = fmt.Sprintf("bal-%d", m.seq)
	}
	cp := *bal
	m.balances[key] = &cp
	return nil
}

func (m *mockMonthlyBalanceRepo) List(_ context.Context, month, year int, studentID string) ([]model.MonthlyBalance, error) {
	var result []model.MonthlyBalance
	for _, b := range m.balances {
		if b.Month != month || b.Year != year {
			continue
		}
		if studentID != "" && b.StudentID != studentID {
			continue
		}
		result = append(result, *b)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].StudentID < result[j].StudentID })
	return result, nil
}

func (m *mockMonthlyBalanceRepo) CountByMonth(_ context.Context, month, year int) (int64, error) {
	var n int64
	for _, b := range m.balances {
		if b.Month == month && b.Year == year {
			n++
		}
	}
	return n, nil
}

// ── Mock FeeStructureRepository ──

type mockFeeStructureRepo struct {
	structures map[string]*model.FeeStructure // "student|semester"
	students   *mockStudentRepo
	failFor    map[string]bool
	seq        int
}

func newMockFeeStructureRepo(students *mockStudentRepo) *mockFeeStructureRepo {
	return &mockFeeStructureRepo{
		structures: make(map[string]*model.FeeStructure),
		students:   students,
		failFor:    make(map[string]bool),
	}
}

func (m *mockFeeStructureRepo) Upsert(_ context.Context, fs *model.FeeStructure) error {
	if m.failFor[fs.StudentID] {
		return errMockDB
	}
	key := fs.StudentID + "|" + fs.SemesterID
	if existing, ok := m.structures[key]; ok {
		fs.FeeStructureID = existing.FeeStructureID
	} else {
		m.seq++
		fs.FeeStructureID = fmt.Sprintf("fs-%d", m.seq)
	}
	cp := *fs
	cp.Student = nil
	m.structures[key] = &cp
	return nil
}

func (m *mockFeeStructureRepo) GetByStudentAndSemester(_ context.Context, studentID, semesterID string) (*model.FeeStructure, error) {
	if fs, ok := m.structures[studentID+"|"+semesterID]; ok {
		cp := *fs
		return &cp, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockFeeStructureRepo) ListBySemester(_ context.Context, semesterID string) ([]model.FeeStructure, error) {
	var result []model.FeeStructure
	for _, fs := range m.structures {
		if fs.SemesterID != semesterID {
			continue
		}
		cp := *fs
		if st, ok := m.students.students[fs.StudentID]; ok {
			stCopy := *st
			cp.Student = &stCopy
		}
		result = append(result, cp)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].StudentID < result[j].StudentID })
	return result, nil
}

// ── Mock FeeRecordRepository ──

// mockFeeRecordRepo 每条语句在锁内执行，模拟数据库逐条串行化
type mockFeeRecordRepo struct {
	mu      sync.Mutex
	records map[string]*model.FeeRecord
	seq     int
}

func newMockFeeRecordRepo() *mockFeeRecordRepo {
	return &mockFeeRecordRepo{records: make(map[string]*model.FeeRecord)}
}

func (m *mockFeeRecordRepo) GetByStudentAndSemester(_ context.Context, studentID, semesterID string) (*model.FeeRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if r, ok := m.records[studentID+"|"+semesterID]; ok {
		cp := *r
		return &cp, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockFeeRecordRepo) GetForUpdate(ctx context.Context, studentID, semesterID string) (*model.FeeRecord, error) {
	return m.GetByStudentAndSemester(ctx, studentID, semesterID)
}

// AddPayment 冲突时在当前行上累加，与 ON CONFLICT 分支一致
func (m *mockFeeRecordRepo) AddPayment(_ context.Context, rec *model.FeeRecord, amount decimal.Decimal, override *decimal.Decimal) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	key := rec.StudentID + "|" + rec.SemesterID
	if existing, ok := m.records[key]; ok {
		cur := toLedgerEntry(existing)
		next := billing.ApplyPayment(&cur, existing.TotalDue, amount, rec.PaymentMode, override)
		cp := *existing
		cp.AmountPaid = next.AmountPaid
		cp.Balance = next.Balance
		cp.BalanceOverridden = next.BalanceOverridden
		cp.PaymentMode = next.PaymentMode
		cp.PaymentDate = rec.PaymentDate
		cp.UpdatedBy = rec.UpdatedBy
		m.records[key] = &cp
		*rec = cp
		return nil
	}
	m.seq++
	rec.FeeRecordID = fmt.Sprintf("fr-%d", m.seq)
	cp := *rec
	m.records[key] = &cp
	return nil
}

func (m *mockFeeRecordRepo) Upsert(_ context.Context, rec *model.FeeRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	key := rec.StudentID + "|" + rec.SemesterID
	if existing, ok := m.records[key]; ok {
		rec.FeeRecordID = existing.FeeRecordID
	} else {
		m.seq++
		rec.FeeRecordID = fmt.Sprintf("fr-%d", m.seq)
	}
	cp := *rec
	m.records[key] = &cp
	return nil
}

func (m *mockFeeRecordRepo) List(_ context.Context, semesterID, studentID string, offset, limit int) ([]model.FeeRecord, int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var all []model.FeeRecord
	for _, r := range m.records {
		if semesterID != "" && r.SemesterID != semesterID {
			continue
		}
		if studentID != "" && r.StudentID != studentID {
			continue
		}
		all = append(all, *r)
	}
	sort.Slice(all, func(i, j int) bool { return all[i].FeeRecordID < all[j].FeeRecordID })
	total := int64(len(all))
	if offset >= len(all) {
		return nil, total, nil
	}
	end := offset + limit
	if end > len(all) {
		end = len(all)
	}
	return all[offset:end], total, nil
}

// ── Mock BillingRunRepository ──

type mockBillingRunRepo struct {
	runs map[string]*model.BillingRun
	err  error // 非 nil 时 Upsert 失败
}

func newMockBillingRunRepo() *mockBillingRunRepo {
	return &mockBillingRunRepo{runs: make(map[string]*model.BillingRun)}
}

func (m *mockBillingRunRepo) Upsert(_ context.Context, run *model.BillingRun) error {
	if m.err != nil {
		return m.err
	}
	cp := *run
	m.runs[run.SemesterID] = &cp
	return nil
}

func (m *mockBillingRunRepo) GetBySemester(_ context.Context, semesterID string) (*model.BillingRun, error) {
	if r, ok := m.runs[semesterID]; ok {
		return r, nil
	}
	return nil, gorm.ErrRecordNotFound
}

// ── Mock MandoBudgetRepository ──

type mockMandoBudgetRepo struct {
	budgets map[string]*model.MandoBudget
	err     error // 非 nil 时 GetBySemester 失败
}

func newMockMandoBudgetRepo() *mockMandoBudgetRepo {
	return &mockMandoBudgetRepo{budgets: make(map[string]*model.MandoBudget)}
}

func (m *mockMandoBudgetRepo) GetBySemester(_ context.Context, semesterID string) (*model.MandoBudget, error) {
	if m.err != nil {
		return nil, m.err
	}
	if b, ok := m.budgets[semesterID]; ok {
		return b, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockMandoBudgetRepo) Upsert(_ context.Context, budget *model.MandoBudget) error {
	cp := *budget
	m.budgets[budget.SemesterID] = &cp
	return nil
}

// ── Mock AuditLogRepository ──

type mockAuditLogRepo struct {
	mu   sync.Mutex
	logs []model.AuditLog
	err  error // 非 nil 时 Create 失败
}

func newMockAuditLogRepo() *mockAuditLogRepo {
	return &mockAuditLogRepo{}
}

func (m *mockAuditLogRepo) Create(_ context.Context, log *model.AuditLog) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.logs = append(m.logs, *log)
	return nil
}

func (m *mockAuditLogRepo) List(_ context.Context, entity, entityID string, offset, limit int) ([]model.AuditLog, int64, error) {
	var all []model.AuditLog
	for _, l := range m.logs {
		if entity != "" && l.Entity != entity {
			continue
		}
		if entityID != "" && l.EntityID != entityID {
			continue
		}
		all = append(all, l)
	}
	total := int64(len(all))
	if offset >= len(all) {
		return nil, total, nil
	}
	end := offset + limit
	if end > len(all) {
		end = len(all)
	}
	return all[offset:end], total, nil
}

func (m *mockAuditLogRepo) last() model.AuditLog {
	return m.logs[len(m.logs)-1]
}

// ── Mock PreviewCache ──

type mockCache struct {
	data    map[string][]byte
	deletes int
}

func newMockCache() *mockCache {
	return &mockCache{data: make(map[string][]byte)}
}

func (c *mockCache) GetJSON(_ context.Context, key string, dest interface{}) (bool, error) {
	raw, ok := c.data[key]
	if !ok {
		return false, nil
	}
	return true, json.Unmarshal(raw, dest)
}

func (c *mockCache) SetJSON(_ context.Context, key string, value interface{}, _ time.Duration) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	c.data[key] = raw
	return nil
}

func (c *mockCache) Delete(_ context.Context, keys ...string) error {
	for _, k := range keys {
		delete(c.data, k)
		c.deletes++
	}
	return nil
}

// ── 测试环境 ──

type testEnv struct {
	cfg        *config.Config
	repo       *repository.Repository
	semesters  *mockSemesterRepo
	students   *mockStudentRepo
	attendance *mockAttendanceRepo
	meals      *mockMealEntryRepo
	expenses   *mockExpenseRepo
	rates      *mockMonthlyRateRepo
	balances   *mockMonthlyBalanceRepo
	structures *mockFeeStructureRepo
	records    *mockFeeRecordRepo
	runs       *mockBillingRunRepo
	budgets    *mockMandoBudgetRepo
	audits     *mockAuditLogRepo
	cache      *mockCache
	logger     *zap.Logger
}

func newTestEnv() *testEnv {
	students := newMockStudentRepo()
	env := &testEnv{
		cfg: &config.Config{
			Billing: config.BillingConfig{LeavePolicy: "NOT_CHARGED", BulkMaxRows: 100},
			Mando:   config.MandoConfig{BoysAmount: 58200, GirlsAmount: 30000, TotalAmount: 88200, PerMealRate: 35},
		},
		semesters:  newMockSemesterRepo(),
		students:   students,
		attendance: newMockAttendanceRepo(),
		meals:      newMockMealEntryRepo(),
		expenses:   newMockExpenseRepo(),
		rates:      newMockMonthlyRateRepo(),
		balances:   newMockMonthlyBalanceRepo(),
		structures: newMockFeeStructureRepo(students),
		records:    newMockFeeRecordRepo(),
		runs:       newMockBillingRunRepo(),
		budgets:    newMockMandoBudgetRepo(),
		audits:     newMockAuditLogRepo(),
		cache:      newMockCache(),
		logger:     zap.NewNop(),
	}
	env.repo = &repository.Repository{
		Semester:       env.semesters,
		Student:        env.students,
		Attendance:     env.attendance,
		MealEntry:      env.meals,
		Expense:        env.expenses,
		MonthlyRate:    env.rates,
		MonthlyBalance: env.balances,
		FeeStructure:   env.structures,
		FeeRecord:      env.records,
		BillingRun:     env.runs,
		MandoBudget:    env.budgets,
		AuditLog:       env.audits,
	}
	return env
}

func (e *testEnv) service() *Service {
	return NewService(e.cfg, e.repo, e.cache, e.logger)
}

func (e *testEnv) addSemester(id string, from, to time.Time) {
	e.semesters.semesters[id] = &model.Semester{SemesterID: id, Name: id, StartDate: from, EndDate: to}
}

func (e *testEnv) addStudent(id, hostel string, isMando bool) {
	e.students.add(&model.Student{StudentID: id, RollNo: id, Name: "学生" + id, Hostel: hostel, Year: 2, IsMando: isMando})
}

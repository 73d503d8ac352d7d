package dto

// ── 考勤模块 DTO ──

// MarkAttendanceRequest 单格考勤写入（表格编辑器每格一次请求）
// Code 为 null 表示清空该格
type MarkAttendanceRequest struct {
	StudentID string  `json:"student_id" binding:"required"`
	Date      string  `json:"date"       binding:"required"`
	Code      *string `json:"code"       binding:"omitempty,oneof=P L CN V C"`
}

// MealEntryRequest 单日餐次写入
type MealEntryRequest struct {
	StudentID string `json:"student_id" binding:"required"`
	Date      string `json:"date"       binding:"required"`
	Breakfast bool   `json:"breakfast"`
	Lunch     bool   `json:"lunch"`
	Dinner    bool   `json:"dinner"`
	Present   bool   `json:"present"`
}

// BulkAttendanceRequest 批量考勤写入
type BulkAttendanceRequest struct {
	Entries []MarkAttendanceRequest `json:"entries" binding:"required,min=1,dive"`
}

// AttendanceFilter 考勤查询条件
// semester_id 与 from/to 至少提供一种；同时提供时以 from/to 为准
type AttendanceFilter struct {
	SemesterID string `form:"semester_id"`
	StudentID  string `form:"student_id"`
	From       string `form:"from"`
	To         string `form:"to"`
}

// MandaysFilter 人天统计条件
type MandaysFilter struct {
	SemesterID  string `form:"semester_id"  binding:"required"`
	StudentID   string `form:"student_id"`
	LeavePolicy string `form:"leave_policy" binding:"omitempty,oneof=CHARGED NOT_CHARGED"`
}

// AttendanceResponse 考勤记录响应
type AttendanceResponse struct {
	ID        string  `json:"id"`
	StudentID string  `json:"student_id"`
	Date      string  `json:"date"`
	Code      *string `json:"code"`
	UpdatedAt string  `json:"updated_at"`
}

// MealEntryResponse 餐次记录响应
type MealEntryResponse struct {
	ID        string `json:"id"`
	StudentID string `json:"student_id"`
	Date      string `json:"date"`
	Breakfast bool   `json:"breakfast"`
	Lunch     bool   `json:"lunch"`
	Dinner    bool   `json:"dinner"`
	Present   bool   `json:"present"`
}

// StudentMandays 单个学生人天
type StudentMandays struct {
	StudentID string `json:"student_id"`
	Mandays   int    `json:"mandays"`
}

// MandaysResponse 人天统计响应
type MandaysResponse struct {
	SemesterID   string           `json:"semester_id"`
	LeavePolicy  string           `json:"leave_policy"`
	TotalMandays int              `json:"total_mandays"`
	Students     []StudentMandays `json:"students"`
}

// AttendanceResult 单格写入结果
type AttendanceResult struct {
	Record AttendanceResponse `json:"record"`
	Audit  AuditOutcome       `json:"audit"`
}

// MealEntryResult 餐次写入结果
type MealEntryResult struct {
	Record MealEntryResponse `json:"record"`
	Audit  AuditOutcome      `json:"audit"`
}

// BulkAttendanceResponse 批量写入结果
type BulkAttendanceResponse struct {
	Bulk  BulkResult   `json:"bulk"`
	Audit AuditOutcome `json:"audit"`
}

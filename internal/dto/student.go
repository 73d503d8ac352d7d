package dto

// ── 学生模块 DTO ──

// StudentFilter 学生列表过滤条件
type StudentFilter struct {
	Hostel  string `form:"hostel"   binding:"omitempty,oneof=Boys Girls"`
	Status  string `form:"status"   binding:"omitempty,oneof=ACTIVE VACATE INACTIVE"`
	IsMando *bool  `form:"is_mando"`
}

// VacateStudentRequest 退宿请求
type VacateStudentRequest struct {
	LeaveDate string `json:"leave_date" binding:"required"`
}

// StudentResponse 学生信息响应
type StudentResponse struct {
	ID        string  `json:"id"`
	RollNo    string  `json:"roll_no"`
	Name      string  `json:"name"`
	Hostel    string  `json:"hostel"`
	Year      int     `json:"year"`
	IsMando   bool    `json:"is_mando"`
	Status    string  `json:"status"`
	LeaveDate *string `json:"leave_date,omitempty"`
}

// VacateStudentResponse 退宿结果
type VacateStudentResponse struct {
	Student StudentResponse `json:"student"`
	Audit   AuditOutcome    `json:"audit"`
}

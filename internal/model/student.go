package model

import "time"

// 宿舍楼
const (
	HostelBoys  = "Boys"
	HostelGirls = "Girls"
)

// 学生状态
const (
	StudentStatusActive   = "ACTIVE"
	StudentStatusVacate   = "VACATE"
	StudentStatusInactive = "INACTIVE"
)

// Student 学生表，对应 students
// 身份字段不可变；Status/LeaveDate 仅由退宿操作修改
type Student struct {
	StudentID string     `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"student_id"`
	RollNo    string     `gorm:"type:varchar(32);not null;uniqueIndex"           json:"roll_no"`
	Name      string     `gorm:"type:varchar(100);not null"                      json:"name"`
	Hostel    string     `gorm:"type:varchar(10);not null"                       json:"hostel"` // Boys | Girls
	Year      int        `gorm:"type:smallint;not null"                          json:"year"`
	IsMando   bool       `gorm:"not null;default:false"                          json:"is_mando"`
	Status    string     `gorm:"type:varchar(10);not null;default:'ACTIVE'"      json:"status"` // ACTIVE | VACATE | INACTIVE
	LeaveDate *time.Time `gorm:"type:date"                                       json:"leave_date,omitempty"`
	BaseModel
}

// TableName 指定表名
func (Student) TableName() string { return "students" }

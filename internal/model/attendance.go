package model

import "time"

// AttendanceRecord 考勤表，对应 attendance_records
// (student_id, date) 唯一；Code 为 nil 表示单元格被清空
type AttendanceRecord struct {
	AttendanceID string    `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"attendance_id"`
	StudentID    string    `gorm:"type:uuid;not null"                             json:"student_id"`
	Date         time.Time `gorm:"type:date;not null"                             json:"date"`
	Code         *string   `gorm:"type:varchar(2)"                                json:"code"` // P | L | CN | V | C
	BaseModel
}

// TableName 指定表名
func (AttendanceRecord) TableName() string { return "attendance_records" }

// MealEntry 餐次记录表，对应 meal_entries，(student_id, date) 唯一
type MealEntry struct {
	MealEntryID string    `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"meal_entry_id"`
	StudentID   string    `gorm:"type:uuid;not null"                             json:"student_id"`
	Date        time.Time `gorm:"type:date;not null"                             json:"date"`
	Breakfast   bool      `gorm:"not null;default:false"                         json:"breakfast"`
	Lunch       bool      `gorm:"not null;default:false"                         json:"lunch"`
	Dinner      bool      `gorm:"not null;default:false"                         json:"dinner"`
	Present     bool      `gorm:"not null;default:false"                         json:"present"`
	BaseModel
}

// TableName 指定表名
func (MealEntry) TableName() string { return "meal_entries" }

// MealCount 当日用餐次数
func (m *MealEntry) MealCount() int {
	n := 0
	for _, b := range []bool{m.Breakfast, m.Lunch, m.Dinner} {
		if b {
			n++
		}
	}
	return n
}

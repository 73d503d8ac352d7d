package model

import (
	"time"

	"gorm.io/datatypes"
)

// AuditLog 操作审计表，对应 audit_logs（纯追加）
type AuditLog struct {
	AuditLogID string         `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"audit_log_id"`
	UserID     string         `gorm:"type:varchar(64);not null"                      json:"user_id"`
	Action     string         `gorm:"type:varchar(50);not null"                      json:"action"`
	Entity     string         `gorm:"type:varchar(50);not null"                      json:"entity"`
	EntityID   string         `gorm:"type:varchar(100);not null"                     json:"entity_id"`
	OldData    datatypes.JSON `gorm:"type:jsonb"                                     json:"old_data,omitempty"`
	NewData    datatypes.JSON `gorm:"type:jsonb"                                     json:"new_data,omitempty"`
	CreatedAt  time.Time      `gorm:"not null;default:CURRENT_TIMESTAMP"             json:"created_at"`
}

// TableName 指定表名
func (AuditLog) TableName() string { return "audit_logs" }

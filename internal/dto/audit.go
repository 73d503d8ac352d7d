package dto

import "encoding/json"

// ── 审计模块 DTO ──

// AuditLogFilter 审计日志查询条件
type AuditLogFilter struct {
	Entity   string `form:"entity"`
	EntityID string `form:"entity_id"`
	PaginationRequest
}

// AuditLogResponse 审计日志
type AuditLogResponse struct {
	ID        string          `json:"id"`
	UserID    string          `json:"user_id"`
	Action    string          `json:"action"`
	Entity    string          `json:"entity"`
	EntityID  string          `json:"entity_id"`
	OldData   json.RawMessage `json:"old_data,omitempty"`
	NewData   json.RawMessage `json:"new_data,omitempty"`
	CreatedAt string          `json:"created_at"`
}

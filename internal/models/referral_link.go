package models

import (
	"time"

	"gorm.io/gorm"
)

// ReferralLink 推广链接表
type ReferralLink struct {
	ID          uint           `gorm:"primarykey" json:"id"`                                      // 主键
	Code        string         `gorm:"type:varchar(32);not null;uniqueIndex" json:"code"`         // 推广码（区分大小写的不透明标识）
	OwnerUserID uint           `gorm:"not null;index" json:"owner_user_id"`                       // 归属大使用户ID
	LinkType    string         `gorm:"type:varchar(20);not null;default:'general'" json:"link_type"` // 链接类型
	IsActive    bool           `gorm:"not null;default:true;index" json:"is_active"`              // 是否启用
	ClickCount  int64          `gorm:"not null;default:0" json:"click_count"`                     // 累计点击数（仅单调递增）
	CreatedAt   time.Time      `gorm:"index" json:"created_at"`                                   // 创建时间
	UpdatedAt   time.Time      `json:"updated_at"`                                                // 更新时间
	DeletedAt   gorm.DeletedAt `gorm:"index" json:"-"`                                            // 软删除时间

	Owner User `gorm:"foreignKey:OwnerUserID" json:"owner,omitempty"` // 归属用户
}

// TableName 指定表名
func (ReferralLink) TableName() string {
	return "referral_links"
}

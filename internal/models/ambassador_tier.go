package models

import "time"

// AmbassadorTier 大使佣金等级表（每个大使一行）
type AmbassadorTier struct {
	ID                 uint      `gorm:"primarykey" json:"id"`                                   // 主键
	UserID             uint      `gorm:"not null;uniqueIndex" json:"user_id"`                    // 大使用户ID
	CurrentTier        string    `gorm:"type:varchar(20);not null;default:'bronze'" json:"current_tier"` // 当前等级
	MonthlyConversions int64     `gorm:"not null;default:0" json:"monthly_conversions"`          // 本月转化数（月初由定时任务清零）
	CreatedAt          time.Time `json:"created_at"`                                             // 创建时间
	UpdatedAt          time.Time `gorm:"index" json:"updated_at"`                                // 更新时间

	User User `gorm:"foreignKey:UserID" json:"user,omitempty"` // 大使用户
}

// TableName 指定表名
func (AmbassadorTier) TableName() string {
	return "ambassador_tiers"
}

package models

import (
	"time"

	"gorm.io/gorm"
)

// Earning 转化收益记录表
type Earning struct {
	ID               uint           `gorm:"primarykey" json:"id"`                                                                        // 主键
	AmbassadorUserID uint           `gorm:"not null;index;index:idx_earning_order_unique,unique" json:"ambassador_user_id"`              // 大使用户ID
	ReferralVisitID  *uint          `gorm:"index" json:"referral_visit_id,omitempty"`                                                    // 归因访问记录ID（仅 Cookie 归因时为空）
	OrderRef         string         `gorm:"type:varchar(64);not null;index:idx_earning_order_unique,unique" json:"order_ref"`            // 订单/订阅标识（去重键）
	OrderAmount      Money          `gorm:"type:decimal(20,2);not null;default:0" json:"order_amount"`                                   // 订单金额
	CommissionRate   Money          `gorm:"type:decimal(10,2);not null;default:0" json:"commission_rate"`                                // 佣金比例（百分比）
	BoostApplied     Money          `gorm:"type:decimal(10,2);not null;default:0" json:"boost_applied"`                                  // 活动加成金额
	Amount           Money          `gorm:"type:decimal(20,2);not null;default:0" json:"amount"`                                         // 佣金金额
	Status           string         `gorm:"type:varchar(20);not null;index" json:"status"`                                               // 收益状态
	CreatedAt        time.Time      `gorm:"index" json:"created_at"`                                                                     // 创建时间
	UpdatedAt        time.Time      `gorm:"index" json:"updated_at"`                                                                     // 更新时间
	DeletedAt        gorm.DeletedAt `gorm:"index" json:"-"`                                                                              // 软删除时间

	Ambassador    User           `gorm:"foreignKey:AmbassadorUserID" json:"ambassador,omitempty"`    // 大使用户
	ReferralVisit *ReferralVisit `gorm:"foreignKey:ReferralVisitID" json:"referral_visit,omitempty"` // 归因访问记录
}

// TableName 指定表名
func (Earning) TableName() string {
	return "earnings"
}

package models

import "time"

// ReferralVisit 推广访问记录表
type ReferralVisit struct {
	ID             uint      `gorm:"primarykey" json:"id"`                                                          // 主键
	ReferralLinkID uint      `gorm:"not null;index;index:idx_referral_visit_dedupe" json:"referral_link_id"`        // 推广链接ID
	VisitorIPHash  string    `gorm:"type:varchar(64);not null;index;index:idx_referral_visit_dedupe" json:"visitor_ip_hash"` // 访客IP的HMAC摘要（不存明文IP）
	UserAgent      string    `gorm:"type:varchar(512)" json:"user_agent"`                                           // 客户端UA（已截断）
	LandingPageURL string    `gorm:"type:varchar(512)" json:"landing_page_url"`                                     // 落地页地址
	Referrer       string    `gorm:"type:varchar(1024)" json:"referrer"`                                            // 来源地址
	CountryCode    string    `gorm:"type:varchar(8)" json:"country_code,omitempty"`                                 // 国家代码
	StateCode      string    `gorm:"type:varchar(8)" json:"state_code,omitempty"`                                   // 州/省代码
	ScreenSize     string    `gorm:"type:varchar(32)" json:"screen_size,omitempty"`                                 // 屏幕分辨率
	Language       string    `gorm:"type:varchar(16)" json:"language,omitempty"`                                    // 浏览器语言
	Converted      bool      `gorm:"not null;default:false;index" json:"converted"`                                 // 是否已转化（只允许 false -> true）
	VisitedAt      time.Time `gorm:"index;not null;default:CURRENT_TIMESTAMP" json:"visited_at"`                    // 访问时间

	ReferralLink ReferralLink `gorm:"foreignKey:ReferralLinkID" json:"referral_link,omitempty"` // 推广链接
}

// TableName 指定表名
func (ReferralVisit) TableName() string {
	return "referral_visits"
}

package constants

// 用户状态
const (
	UserStatusActive   = "active"
	UserStatusDisabled = "disabled"
)

// 推广链接类型
const (
	ReferralLinkTypeGeneral  = "general"
	ReferralLinkTypeCampaign = "campaign"
)

// 佣金收益状态
const (
	EarningStatusPending  = "pending"
	EarningStatusApproved = "approved"
	EarningStatusPaid     = "paid"
)

// 大使佣金等级
const (
	TierBronze = "bronze"
	TierSilver = "silver"
	TierGold   = "gold"
)

// 审计动作
const (
	AuditActionImpersonateStart = "impersonate_start"
	AuditActionImpersonateStop  = "impersonate_stop"
)

// 队列与任务标识
const (
	QueueDefault             = "default"
	TaskConversionNotify     = "referral:conversion_notify"
	TaskTierChangeNotify     = "referral:tier_change_notify"
	TaskMonthlyTierRollover  = "referral:monthly_tier_rollover"
	TaskVelocityCounterReset = "referral:velocity_counter_reset"
)

// 访问频控计数键前缀
const (
	RateLimitPrefixReferralVisit = "rl:referral_visit"
)

// 设置键
const (
	SettingKeyAffiliateConfig = "affiliate_config"
	SettingKeySiteConfig      = "site_config"
)

// 归因 Cookie 默认值
const (
	DefaultAttributionCookieName = "magabit_ref"
	DefaultCookieMaxAgeDays      = 30
	DefaultAttributionWindowDays = 365
)

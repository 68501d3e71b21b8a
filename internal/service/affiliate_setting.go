package service

import (
	"fmt"
	"math"

	"github.com/magabit/ambassador/internal/constants"
	"github.com/magabit/ambassador/internal/models"
)

const (
	affiliateRatePercentMin       = 0
	affiliateRatePercentMax       = 100
	affiliateTierThresholdMax     = 1000000
	affiliateCookieMaxAgeDaysMax  = 365
	affiliateAttributionWindowMax = 3650
	affiliateBoostAmountMax       = 100000
)

// AffiliateSetting 推广佣金配置
type AffiliateSetting struct {
	SilverThreshold       int     `json:"silver_threshold"`
	GoldThreshold         int     `json:"gold_threshold"`
	BronzeRatePercent     float64 `json:"bronze_rate_percent"`
	SilverRatePercent     float64 `json:"silver_rate_percent"`
	GoldRatePercent       float64 `json:"gold_rate_percent"`
	CampaignBoostEnabled  bool    `json:"campaign_boost_enabled"`
	CampaignBoostAmount   float64 `json:"campaign_boost_amount"`
	CookieMaxAgeDays      int     `json:"cookie_max_age_days"`
	AttributionWindowDays int     `json:"attribution_window_days"`
}

// AffiliateDefaultSetting 默认推广佣金配置
func AffiliateDefaultSetting() AffiliateSetting {
	return NormalizeAffiliateSetting(AffiliateSetting{
		SilverThreshold:       10,
		GoldThreshold:         25,
		BronzeRatePercent:     20,
		SilverRatePercent:     25,
		GoldRatePercent:       30,
		CampaignBoostEnabled:  false,
		CampaignBoostAmount:   0,
		CookieMaxAgeDays:      constants.DefaultCookieMaxAgeDays,
		AttributionWindowDays: constants.DefaultAttributionWindowDays,
	})
}

// NormalizeAffiliateSetting 归一化推广佣金配置
func NormalizeAffiliateSetting(setting AffiliateSetting) AffiliateSetting {
	setting.BronzeRatePercent = clampAffiliateRate(setting.BronzeRatePercent)
	setting.SilverRatePercent = clampAffiliateRate(setting.SilverRatePercent)
	setting.GoldRatePercent = clampAffiliateRate(setting.GoldRatePercent)

	if setting.SilverThreshold < 0 {
		setting.SilverThreshold = 0
	}
	if setting.SilverThreshold > affiliateTierThresholdMax {
		setting.SilverThreshold = affiliateTierThresholdMax
	}
	if setting.GoldThreshold < 0 {
		setting.GoldThreshold = 0
	}
	if setting.GoldThreshold > affiliateTierThresholdMax {
		setting.GoldThreshold = affiliateTierThresholdMax
	}

	setting.CampaignBoostAmount = roundAffiliateDecimal(setting.CampaignBoostAmount)
	if setting.CampaignBoostAmount < 0 {
		setting.CampaignBoostAmount = 0
	}
	if setting.CampaignBoostAmount > affiliateBoostAmountMax {
		setting.CampaignBoostAmount = affiliateBoostAmountMax
	}

	if setting.CookieMaxAgeDays <= 0 {
		setting.CookieMaxAgeDays = constants.DefaultCookieMaxAgeDays
	}
	if setting.CookieMaxAgeDays > affiliateCookieMaxAgeDaysMax {
		setting.CookieMaxAgeDays = affiliateCookieMaxAgeDaysMax
	}
	if setting.AttributionWindowDays <= 0 {
		setting.AttributionWindowDays = constants.DefaultAttributionWindowDays
	}
	if setting.AttributionWindowDays > affiliateAttributionWindowMax {
		setting.AttributionWindowDays = affiliateAttributionWindowMax
	}
	return setting
}

// ValidateAffiliateSetting 校验推广佣金配置
func ValidateAffiliateSetting(setting AffiliateSetting) error {
	normalized := NormalizeAffiliateSetting(setting)
	if normalized.SilverThreshold < 1 {
		return fmt.Errorf("%w: 白银等级门槛必须大于 0", ErrAffiliateConfigInvalid)
	}
	if normalized.GoldThreshold <= normalized.SilverThreshold {
		return fmt.Errorf("%w: 黄金等级门槛必须大于白银等级门槛", ErrAffiliateConfigInvalid)
	}
	if normalized.BronzeRatePercent > normalized.SilverRatePercent ||
		normalized.SilverRatePercent > normalized.GoldRatePercent {
		return fmt.Errorf("%w: 高等级返佣比例不能低于低等级", ErrAffiliateConfigInvalid)
	}
	if normalized.CampaignBoostEnabled && normalized.CampaignBoostAmount <= 0 {
		return fmt.Errorf("%w: 活动加成金额必须大于 0", ErrAffiliateConfigInvalid)
	}
	return nil
}

// RateForTier 按等级取返佣比例
func (s AffiliateSetting) RateForTier(tier string) float64 {
	switch tier {
	case constants.TierGold:
		return s.GoldRatePercent
	case constants.TierSilver:
		return s.SilverRatePercent
	default:
		return s.BronzeRatePercent
	}
}

// Thresholds 提取等级门槛
func (s AffiliateSetting) Thresholds() TierThresholds {
	return TierThresholds{
		Silver: s.SilverThreshold,
		Gold:   s.GoldThreshold,
	}
}

// AffiliateSettingToMap 将推广佣金配置转换为 settings 存储结构
func AffiliateSettingToMap(setting AffiliateSetting) map[string]interface{} {
	normalized := NormalizeAffiliateSetting(setting)
	return map[string]interface{}{
		"silver_threshold":        normalized.SilverThreshold,
		"gold_threshold":          normalized.GoldThreshold,
		"bronze_rate_percent":     normalized.BronzeRatePercent,
		"silver_rate_percent":     normalized.SilverRatePercent,
		"gold_rate_percent":       normalized.GoldRatePercent,
		"campaign_boost_enabled":  normalized.CampaignBoostEnabled,
		"campaign_boost_amount":   normalized.CampaignBoostAmount,
		"cookie_max_age_days":     normalized.CookieMaxAgeDays,
		"attribution_window_days": normalized.AttributionWindowDays,
	}
}

func affiliateSettingFromJSON(raw models.JSON, fallback AffiliateSetting) AffiliateSetting {
	result := fallback

	if v, ok := raw["silver_threshold"]; ok {
		if parsed, err := parseSettingInt(v); err == nil {
			result.SilverThreshold = parsed
		}
	}
	if v, ok := raw["gold_threshold"]; ok {
		if parsed, err := parseSettingInt(v); err == nil {
			result.GoldThreshold = parsed
		}
	}
	if v, ok := raw["bronze_rate_percent"]; ok {
		if parsed, err := parseSettingFloat(v); err == nil {
			result.BronzeRatePercent = parsed
		}
	}
	if v, ok := raw["silver_rate_percent"]; ok {
		if parsed, err := parseSettingFloat(v); err == nil {
			result.SilverRatePercent = parsed
		}
	}
	if v, ok := raw["gold_rate_percent"]; ok {
		if parsed, err := parseSettingFloat(v); err == nil {
			result.GoldRatePercent = parsed
		}
	}
	if v, ok := raw["campaign_boost_enabled"]; ok {
		result.CampaignBoostEnabled = parseSettingBool(v)
	}
	if v, ok := raw["campaign_boost_amount"]; ok {
		if parsed, err := parseSettingFloat(v); err == nil {
			result.CampaignBoostAmount = parsed
		}
	}
	if v, ok := raw["cookie_max_age_days"]; ok {
		if parsed, err := parseSettingInt(v); err == nil {
			result.CookieMaxAgeDays = parsed
		}
	}
	if v, ok := raw["attribution_window_days"]; ok {
		if parsed, err := parseSettingInt(v); err == nil {
			result.AttributionWindowDays = parsed
		}
	}

	return NormalizeAffiliateSetting(result)
}

func normalizeAffiliateSettingMap(value map[string]interface{}) models.JSON {
	setting := affiliateSettingFromJSON(models.JSON(value), AffiliateDefaultSetting())
	return models.JSON(AffiliateSettingToMap(setting))
}

// GetAffiliateSetting 获取推广佣金设置（优先 settings，空时回退默认）
func (s *SettingService) GetAffiliateSetting() (AffiliateSetting, error) {
	fallback := AffiliateDefaultSetting()
	if s == nil {
		return fallback, nil
	}

	value, err := s.GetByKey(constants.SettingKeyAffiliateConfig)
	if err != nil {
		return fallback, err
	}
	if value == nil {
		return fallback, nil
	}
	return affiliateSettingFromJSON(value, fallback), nil
}

// UpdateAffiliateSetting 更新推广佣金设置
func (s *SettingService) UpdateAffiliateSetting(setting AffiliateSetting) (AffiliateSetting, error) {
	normalized := NormalizeAffiliateSetting(setting)
	if err := ValidateAffiliateSetting(normalized); err != nil {
		return AffiliateDefaultSetting(), err
	}
	if _, err := s.Update(constants.SettingKeyAffiliateConfig, AffiliateSettingToMap(normalized)); err != nil {
		return AffiliateDefaultSetting(), err
	}
	return normalized, nil
}

func clampAffiliateRate(value float64) float64 {
	value = roundAffiliateDecimal(value)
	if value < affiliateRatePercentMin {
		return affiliateRatePercentMin
	}
	if value > affiliateRatePercentMax {
		return affiliateRatePercentMax
	}
	return value
}

func roundAffiliateDecimal(value float64) float64 {
	return math.Round(value*100) / 100
}

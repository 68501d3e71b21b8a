package service

import "github.com/magabit/ambassador/internal/constants"

// TierThresholds 等级晋升门槛（按当月转化数）
type TierThresholds struct {
	Silver int
	Gold   int
}

// TierProgress 等级进度（按需计算，不落库）
type TierProgress struct {
	CurrentTier        string `json:"current_tier"`
	NextTier           string `json:"next_tier"`
	MonthlyConversions int    `json:"monthly_conversions"`
	ConversionsToNext  int    `json:"conversions_to_next"`
	NextTierThreshold  int    `json:"next_tier_threshold"`
	ProgressPercent    int    `json:"progress_percent"`
}

// TierForConversions 按当月转化数计算应处等级。
// 取门槛不超过转化数的最高等级，青铜为保底。
func TierForConversions(monthlyConversions int, thresholds TierThresholds) string {
	if monthlyConversions < 0 {
		monthlyConversions = 0
	}
	if thresholds.Gold > 0 && monthlyConversions >= thresholds.Gold {
		return constants.TierGold
	}
	if thresholds.Silver > 0 && monthlyConversions >= thresholds.Silver {
		return constants.TierSilver
	}
	return constants.TierBronze
}

// BuildTierProgress 计算等级进度
func BuildTierProgress(monthlyConversions int, thresholds TierThresholds) TierProgress {
	if monthlyConversions < 0 {
		monthlyConversions = 0
	}
	current := TierForConversions(monthlyConversions, thresholds)
	progress := TierProgress{
		CurrentTier:        current,
		MonthlyConversions: monthlyConversions,
	}
	switch current {
	case constants.TierBronze:
		progress.NextTier = constants.TierSilver
		progress.NextTierThreshold = thresholds.Silver
	case constants.TierSilver:
		progress.NextTier = constants.TierGold
		progress.NextTierThreshold = thresholds.Gold
	default:
		// 已达最高等级，进度视为满格
		progress.ProgressPercent = 100
		return progress
	}
	remaining := progress.NextTierThreshold - monthlyConversions
	if remaining < 0 {
		remaining = 0
	}
	progress.ConversionsToNext = remaining
	if progress.NextTierThreshold > 0 {
		percent := monthlyConversions * 100 / progress.NextTierThreshold
		if percent > 100 {
			percent = 100
		}
		progress.ProgressPercent = percent
	} else {
		progress.ProgressPercent = 100
	}
	return progress
}

package service

import "github.com/shopspring/decimal"

// CampaignBoost 活动加成
type CampaignBoost struct {
	Enabled bool
	Amount  decimal.Decimal
}

// CalculateCommission 计算单笔转化佣金。
// 金额按 基础金额 * 比例 / 100 取 2 位小数，再叠加启用的固定加成。
func CalculateCommission(orderAmount, ratePercent decimal.Decimal, boost CampaignBoost) decimal.Decimal {
	base := orderAmount.Round(2)
	if base.LessThanOrEqual(decimal.Zero) {
		base = decimal.Zero
	}
	rate := ratePercent.Round(2)
	if rate.LessThan(decimal.Zero) {
		rate = decimal.Zero
	}

	amount := base.Mul(rate).Div(decimal.NewFromInt(100)).Round(2)
	if boost.Enabled {
		boostAmount := boost.Amount.Round(2)
		if boostAmount.GreaterThan(decimal.Zero) {
			amount = amount.Add(boostAmount).Round(2)
		}
	}
	if amount.LessThan(decimal.Zero) {
		return decimal.Zero
	}
	return amount
}

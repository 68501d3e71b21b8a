package service

import (
	"testing"

	"github.com/shopspring/decimal"
)

func TestCalculateCommissionBasic(t *testing.T) {
	amount := CalculateCommission(decimal.NewFromInt(100), decimal.NewFromInt(30), CampaignBoost{})
	if amount.StringFixed(2) != "30.00" {
		t.Fatalf("expected 30.00, got %s", amount.StringFixed(2))
	}
}

func TestCalculateCommissionWithBoost(t *testing.T) {
	boost := CampaignBoost{Enabled: true, Amount: decimal.NewFromInt(5)}
	amount := CalculateCommission(decimal.NewFromInt(100), decimal.NewFromInt(30), boost)
	if amount.StringFixed(2) != "35.00" {
		t.Fatalf("expected 35.00, got %s", amount.StringFixed(2))
	}
}

func TestCalculateCommissionRounding(t *testing.T) {
	amount := CalculateCommission(decimal.NewFromFloat(29.99), decimal.NewFromInt(30), CampaignBoost{})
	if amount.StringFixed(2) != "9.00" {
		t.Fatalf("expected 9.00, got %s", amount.StringFixed(2))
	}
}

func TestCalculateCommissionDisabledBoostIgnored(t *testing.T) {
	boost := CampaignBoost{Enabled: false, Amount: decimal.NewFromInt(5)}
	amount := CalculateCommission(decimal.NewFromInt(50), decimal.NewFromInt(20), boost)
	if amount.StringFixed(2) != "10.00" {
		t.Fatalf("expected 10.00, got %s", amount.StringFixed(2))
	}
}

func TestCalculateCommissionZeroOrder(t *testing.T) {
	amount := CalculateCommission(decimal.Zero, decimal.NewFromInt(30), CampaignBoost{})
	if !amount.IsZero() {
		t.Fatalf("expected zero commission, got %s", amount.StringFixed(2))
	}

	withBoost := CalculateCommission(decimal.Zero, decimal.NewFromInt(30), CampaignBoost{Enabled: true, Amount: decimal.NewFromInt(5)})
	if withBoost.StringFixed(2) != "5.00" {
		t.Fatalf("expected boost-only 5.00, got %s", withBoost.StringFixed(2))
	}
}

func TestCalculateCommissionNegativeRateClamped(t *testing.T) {
	amount := CalculateCommission(decimal.NewFromInt(100), decimal.NewFromInt(-10), CampaignBoost{})
	if !amount.IsZero() {
		t.Fatalf("expected zero commission for negative rate, got %s", amount.StringFixed(2))
	}
}

package service

import (
	"errors"
	"testing"

	"github.com/magabit/ambassador/internal/models"
)

type mockSettingRepo struct {
	store map[string]models.JSON
}

func newMockSettingRepo() *mockSettingRepo {
	return &mockSettingRepo{store: map[string]models.JSON{}}
}

func (m *mockSettingRepo) GetByKey(key string) (*models.Setting, error) {
	value, ok := m.store[key]
	if !ok {
		return nil, nil
	}
	return &models.Setting{Key: key, ValueJSON: value}, nil
}

func (m *mockSettingRepo) Upsert(key string, value models.JSON) (*models.Setting, error) {
	m.store[key] = value
	return &models.Setting{Key: key, ValueJSON: value}, nil
}

func TestAffiliateDefaultSetting(t *testing.T) {
	setting := AffiliateDefaultSetting()
	if setting.SilverThreshold != 10 || setting.GoldThreshold != 25 {
		t.Fatalf("unexpected default thresholds: %+v", setting)
	}
	if setting.BronzeRatePercent != 20 || setting.SilverRatePercent != 25 || setting.GoldRatePercent != 30 {
		t.Fatalf("unexpected default rates: %+v", setting)
	}
	if setting.CampaignBoostEnabled {
		t.Fatal("expected boost disabled by default")
	}
	if setting.CookieMaxAgeDays != 30 || setting.AttributionWindowDays != 365 {
		t.Fatalf("unexpected default windows: %+v", setting)
	}
}

func TestNormalizeAffiliateSettingClamps(t *testing.T) {
	setting := NormalizeAffiliateSetting(AffiliateSetting{
		SilverThreshold:       -5,
		GoldThreshold:         10,
		BronzeRatePercent:     -1,
		SilverRatePercent:     25.567,
		GoldRatePercent:       150,
		CampaignBoostAmount:   -3,
		CookieMaxAgeDays:      0,
		AttributionWindowDays: 99999,
	})
	if setting.SilverThreshold != 0 {
		t.Fatalf("expected silver threshold clamped to 0, got %d", setting.SilverThreshold)
	}
	if setting.BronzeRatePercent != 0 {
		t.Fatalf("expected bronze rate clamped to 0, got %v", setting.BronzeRatePercent)
	}
	if setting.SilverRatePercent != 25.57 {
		t.Fatalf("expected silver rate rounded to 25.57, got %v", setting.SilverRatePercent)
	}
	if setting.GoldRatePercent != 100 {
		t.Fatalf("expected gold rate clamped to 100, got %v", setting.GoldRatePercent)
	}
	if setting.CampaignBoostAmount != 0 {
		t.Fatalf("expected boost amount clamped to 0, got %v", setting.CampaignBoostAmount)
	}
	if setting.CookieMaxAgeDays != 30 {
		t.Fatalf("expected cookie max age fallback 30, got %d", setting.CookieMaxAgeDays)
	}
	if setting.AttributionWindowDays != 3650 {
		t.Fatalf("expected attribution window clamped to 3650, got %d", setting.AttributionWindowDays)
	}
}

func TestValidateAffiliateSetting(t *testing.T) {
	valid := AffiliateDefaultSetting()
	if err := ValidateAffiliateSetting(valid); err != nil {
		t.Fatalf("expected default setting valid, got %v", err)
	}

	invalidThreshold := valid
	invalidThreshold.GoldThreshold = valid.SilverThreshold
	if err := ValidateAffiliateSetting(invalidThreshold); !errors.Is(err, ErrAffiliateConfigInvalid) {
		t.Fatalf("expected threshold order error, got %v", err)
	}

	invalidRates := valid
	invalidRates.SilverRatePercent = valid.BronzeRatePercent - 1
	if err := ValidateAffiliateSetting(invalidRates); !errors.Is(err, ErrAffiliateConfigInvalid) {
		t.Fatalf("expected rate order error, got %v", err)
	}

	invalidBoost := valid
	invalidBoost.CampaignBoostEnabled = true
	invalidBoost.CampaignBoostAmount = 0
	if err := ValidateAffiliateSetting(invalidBoost); !errors.Is(err, ErrAffiliateConfigInvalid) {
		t.Fatalf("expected boost amount error, got %v", err)
	}
}

func TestRateForTier(t *testing.T) {
	setting := AffiliateDefaultSetting()
	if setting.RateForTier("bronze") != 20 {
		t.Fatalf("unexpected bronze rate: %v", setting.RateForTier("bronze"))
	}
	if setting.RateForTier("silver") != 25 {
		t.Fatalf("unexpected silver rate: %v", setting.RateForTier("silver"))
	}
	if setting.RateForTier("gold") != 30 {
		t.Fatalf("unexpected gold rate: %v", setting.RateForTier("gold"))
	}
	if setting.RateForTier("unknown") != 20 {
		t.Fatalf("unknown tier should fall back to bronze rate, got %v", setting.RateForTier("unknown"))
	}
}

func TestGetAffiliateSettingFallsBackToDefault(t *testing.T) {
	svc := NewSettingService(newMockSettingRepo())
	setting, err := svc.GetAffiliateSetting()
	if err != nil {
		t.Fatalf("get affiliate setting failed: %v", err)
	}
	if setting != AffiliateDefaultSetting() {
		t.Fatalf("expected default setting, got %+v", setting)
	}
}

func TestUpdateAffiliateSettingRoundTrip(t *testing.T) {
	svc := NewSettingService(newMockSettingRepo())
	updated, err := svc.UpdateAffiliateSetting(AffiliateSetting{
		SilverThreshold:       5,
		GoldThreshold:         12,
		BronzeRatePercent:     10,
		SilverRatePercent:     15,
		GoldRatePercent:       22.5,
		CampaignBoostEnabled:  true,
		CampaignBoostAmount:   2.5,
		CookieMaxAgeDays:      7,
		AttributionWindowDays: 90,
	})
	if err != nil {
		t.Fatalf("update affiliate setting failed: %v", err)
	}
	if updated.GoldRatePercent != 22.5 {
		t.Fatalf("expected gold rate 22.5, got %v", updated.GoldRatePercent)
	}

	loaded, err := svc.GetAffiliateSetting()
	if err != nil {
		t.Fatalf("reload affiliate setting failed: %v", err)
	}
	if loaded != updated {
		t.Fatalf("expected reloaded setting %+v, got %+v", updated, loaded)
	}
}

func TestUpdateAffiliateSettingRejectsInvalid(t *testing.T) {
	svc := NewSettingService(newMockSettingRepo())
	_, err := svc.UpdateAffiliateSetting(AffiliateSetting{
		SilverThreshold:   10,
		GoldThreshold:     10,
		BronzeRatePercent: 20,
		SilverRatePercent: 25,
		GoldRatePercent:   30,
	})
	if !errors.Is(err, ErrAffiliateConfigInvalid) {
		t.Fatalf("expected config invalid error, got %v", err)
	}
}

package service

import (
	"fmt"
	"testing"
	"time"

	"github.com/magabit/ambassador/internal/constants"
	"github.com/magabit/ambassador/internal/models"
	"github.com/magabit/ambassador/internal/repository"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
)

func setupTierServiceTest(t *testing.T) (*TierService, *SettingService, *gorm.DB) {
	t.Helper()

	dsn := fmt.Sprintf("file:tier_service_%d?mode=memory&cache=shared", time.Now().UnixNano())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite failed: %v", err)
	}
	if err := db.AutoMigrate(&models.AmbassadorTier{}); err != nil {
		t.Fatalf("auto migrate failed: %v", err)
	}

	settingSvc := NewSettingService(newMockSettingRepo())
	return NewTierService(repository.NewTierRepository(db), settingSvc), settingSvc, db
}

func TestRecordConversionCreatesRow(t *testing.T) {
	svc, _, db := setupTierServiceTest(t)

	result, err := svc.RecordConversion(42)
	if err != nil {
		t.Fatalf("record conversion failed: %v", err)
	}
	if result.Changed {
		t.Fatalf("single conversion below threshold should not change tier: %+v", result)
	}
	if result.CurrentTier != constants.TierBronze || result.MonthlyConversions != 1 {
		t.Fatalf("unexpected result: %+v", result)
	}

	var row models.AmbassadorTier
	if err := db.Where("user_id = ?", 42).First(&row).Error; err != nil {
		t.Fatalf("load tier row failed: %v", err)
	}
	if row.MonthlyConversions != 1 || row.CurrentTier != constants.TierBronze {
		t.Fatalf("unexpected tier row: %+v", row)
	}
}

func TestRecordConversionPromotesAtThreshold(t *testing.T) {
	svc, settingSvc, _ := setupTierServiceTest(t)

	setting := AffiliateDefaultSetting()
	setting.SilverThreshold = 2
	setting.GoldThreshold = 3
	if _, err := settingSvc.UpdateAffiliateSetting(setting); err != nil {
		t.Fatalf("update setting failed: %v", err)
	}

	if _, err := svc.RecordConversion(7); err != nil {
		t.Fatalf("first conversion failed: %v", err)
	}
	second, err := svc.RecordConversion(7)
	if err != nil {
		t.Fatalf("second conversion failed: %v", err)
	}
	if !second.Changed || second.PreviousTier != constants.TierBronze || second.CurrentTier != constants.TierSilver {
		t.Fatalf("expected bronze -> silver, got %+v", second)
	}
	third, err := svc.RecordConversion(7)
	if err != nil {
		t.Fatalf("third conversion failed: %v", err)
	}
	if !third.Changed || third.CurrentTier != constants.TierGold {
		t.Fatalf("expected silver -> gold, got %+v", third)
	}
	fourth, err := svc.RecordConversion(7)
	if err != nil {
		t.Fatalf("fourth conversion failed: %v", err)
	}
	if fourth.Changed || fourth.CurrentTier != constants.TierGold {
		t.Fatalf("gold should be stable, got %+v", fourth)
	}
}

func TestCurrentTierDefaultsToBronze(t *testing.T) {
	svc, _, _ := setupTierServiceTest(t)

	tier, err := svc.CurrentTier(99)
	if err != nil {
		t.Fatalf("current tier failed: %v", err)
	}
	if tier != constants.TierBronze {
		t.Fatalf("expected bronze for unknown user, got %s", tier)
	}
}

func TestMonthlyRolloverResetsAll(t *testing.T) {
	svc, settingSvc, db := setupTierServiceTest(t)

	setting := AffiliateDefaultSetting()
	setting.SilverThreshold = 1
	setting.GoldThreshold = 2
	if _, err := settingSvc.UpdateAffiliateSetting(setting); err != nil {
		t.Fatalf("update setting failed: %v", err)
	}
	if _, err := svc.RecordConversion(11); err != nil {
		t.Fatalf("record conversion failed: %v", err)
	}
	if _, err := svc.RecordConversion(12); err != nil {
		t.Fatalf("record conversion failed: %v", err)
	}

	affected, err := svc.MonthlyRollover(time.Now())
	if err != nil {
		t.Fatalf("monthly rollover failed: %v", err)
	}
	if affected != 2 {
		t.Fatalf("expected 2 rows reset, got %d", affected)
	}

	var rows []models.AmbassadorTier
	if err := db.Find(&rows).Error; err != nil {
		t.Fatalf("load tier rows failed: %v", err)
	}
	for _, row := range rows {
		if row.MonthlyConversions != 0 || row.CurrentTier != constants.TierBronze {
			t.Fatalf("expected reset row, got %+v", row)
		}
	}

	// 重复执行无副作用
	if _, err := svc.MonthlyRollover(time.Now()); err != nil {
		t.Fatalf("repeat rollover failed: %v", err)
	}

	tier, err := svc.CurrentTier(11)
	if err != nil {
		t.Fatalf("current tier failed: %v", err)
	}
	if tier != constants.TierBronze {
		t.Fatalf("expected bronze after rollover, got %s", tier)
	}
}

func TestProgressReflectsMonthlyConversions(t *testing.T) {
	svc, _, _ := setupTierServiceTest(t)

	if _, err := svc.RecordConversion(21); err != nil {
		t.Fatalf("record conversion failed: %v", err)
	}
	progress, err := svc.Progress(21)
	if err != nil {
		t.Fatalf("progress failed: %v", err)
	}
	if progress.CurrentTier != constants.TierBronze || progress.MonthlyConversions != 1 {
		t.Fatalf("unexpected progress: %+v", progress)
	}
	if progress.NextTier != constants.TierSilver || progress.ConversionsToNext != 9 {
		t.Fatalf("expected 9 conversions to silver, got %+v", progress)
	}
}

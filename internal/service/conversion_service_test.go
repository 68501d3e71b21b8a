package service

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/magabit/ambassador/internal/constants"
	"github.com/magabit/ambassador/internal/models"
	"github.com/magabit/ambassador/internal/repository"

	"github.com/glebarez/sqlite"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

const conversionTestSecret = "conversion-test-secret"

func setupConversionServiceTest(t *testing.T) (*ConversionService, *SettingService, *gorm.DB) {
	t.Helper()

	dsn := fmt.Sprintf("file:conversion_service_%d?mode=memory&cache=shared", time.Now().UnixNano())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite failed: %v", err)
	}
	if err := db.AutoMigrate(
		&models.User{},
		&models.ReferralLink{},
		&models.ReferralVisit{},
		&models.Earning{},
		&models.AmbassadorTier{},
	); err != nil {
		t.Fatalf("auto migrate failed: %v", err)
	}

	settingSvc := NewSettingService(newMockSettingRepo())
	tierSvc := NewTierService(repository.NewTierRepository(db), settingSvc)
	svc := NewConversionService(
		repository.NewReferralLinkRepository(db),
		repository.NewReferralVisitRepository(db),
		repository.NewEarningRepository(db),
		tierSvc,
		settingSvc,
		nil,
		conversionTestSecret,
	)
	return svc, settingSvc, db
}

func createConversionTestLink(t *testing.T, db *gorm.DB, code, linkType string, active bool) (models.ReferralLink, models.User) {
	t.Helper()

	owner := models.User{
		Email:       fmt.Sprintf("owner-%s@example.com", code),
		DisplayName: "tester",
		Status:      constants.UserStatusActive,
	}
	if err := db.Create(&owner).Error; err != nil {
		t.Fatalf("create owner failed: %v", err)
	}
	link := models.ReferralLink{
		Code:        code,
		OwnerUserID: owner.ID,
		LinkType:    linkType,
		IsActive:    active,
	}
	if err := db.Create(&link).Error; err != nil {
		t.Fatalf("create link failed: %v", err)
	}
	if !active {
		// gorm skips zero-value fields with a default tag on Create, so
		// IsActive=false must be persisted explicitly.
		if err := db.Model(&link).Update("is_active", false).Error; err != nil {
			t.Fatalf("deactivate link failed: %v", err)
		}
	}
	return link, owner
}

func createConversionTestVisit(t *testing.T, db *gorm.DB, linkID uint, clientIP string, visitedAt time.Time) models.ReferralVisit {
	t.Helper()

	visit := models.ReferralVisit{
		ReferralLinkID: linkID,
		VisitorIPHash:  HashVisitorIP(conversionTestSecret, clientIP),
		VisitedAt:      visitedAt,
	}
	if err := db.Create(&visit).Error; err != nil {
		t.Fatalf("create visit failed: %v", err)
	}
	return visit
}

func TestAttributeWithCodeAndVisit(t *testing.T) {
	svc, _, db := setupConversionServiceTest(t)
	link, _ := createConversionTestLink(t, db, "TEST123", constants.ReferralLinkTypeGeneral, true)
	visit := createConversionTestVisit(t, db, link.ID, "10.0.0.1", time.Now().Add(-time.Hour))

	result, err := svc.Attribute(ConversionInput{
		ReferralCode: "TEST123",
		ClientIP:     "10.0.0.1",
		OrderRef:     "sub_123",
		OrderAmount:  decimal.NewFromFloat(29.99),
	})
	if err != nil {
		t.Fatalf("attribute failed: %v", err)
	}
	if !result.Attributed || result.Duplicate {
		t.Fatalf("expected fresh attribution, got %+v", result)
	}
	if result.Earning == nil || result.Earning.ID == 0 {
		t.Fatalf("expected persisted earning, got %+v", result.Earning)
	}
	// 青铜 20%：29.99 * 0.2 = 6.00
	if result.Earning.Amount.String() != "6.00" {
		t.Fatalf("expected commission 6.00, got %s", result.Earning.Amount.String())
	}
	if result.Earning.Status != constants.EarningStatusPending {
		t.Fatalf("expected pending status, got %s", result.Earning.Status)
	}
	if result.Earning.ReferralVisitID == nil || *result.Earning.ReferralVisitID != visit.ID {
		t.Fatalf("expected earning bound to visit %d, got %+v", visit.ID, result.Earning.ReferralVisitID)
	}

	var reloadedVisit models.ReferralVisit
	if err := db.First(&reloadedVisit, visit.ID).Error; err != nil {
		t.Fatalf("reload visit failed: %v", err)
	}
	if !reloadedVisit.Converted {
		t.Fatal("expected visit marked converted")
	}

	var tierRow models.AmbassadorTier
	if err := db.Where("user_id = ?", link.OwnerUserID).First(&tierRow).Error; err != nil {
		t.Fatalf("load tier row failed: %v", err)
	}
	if tierRow.MonthlyConversions != 1 {
		t.Fatalf("expected 1 monthly conversion, got %d", tierRow.MonthlyConversions)
	}
}

func TestAttributeDuplicateOrderRef(t *testing.T) {
	svc, _, db := setupConversionServiceTest(t)
	createConversionTestLink(t, db, "DUPL1234", constants.ReferralLinkTypeGeneral, true)

	input := ConversionInput{
		ReferralCode: "DUPL1234",
		ClientIP:     "10.0.0.2",
		OrderRef:     "order-dup-1",
		OrderAmount:  decimal.NewFromInt(100),
	}
	first, err := svc.Attribute(input)
	if err != nil {
		t.Fatalf("first attribute failed: %v", err)
	}
	second, err := svc.Attribute(input)
	if err != nil {
		t.Fatalf("second attribute failed: %v", err)
	}
	if !second.Duplicate {
		t.Fatal("expected duplicate conversion")
	}
	if second.Earning.ID != first.Earning.ID {
		t.Fatalf("expected same earning %d, got %d", first.Earning.ID, second.Earning.ID)
	}

	var count int64
	if err := db.Model(&models.Earning{}).Count(&count).Error; err != nil {
		t.Fatalf("count earnings failed: %v", err)
	}
	if count != 1 {
		t.Fatalf("expected single earning row, got %d", count)
	}
}

func TestAttributeSelfConversionSkipped(t *testing.T) {
	svc, _, db := setupConversionServiceTest(t)
	_, owner := createConversionTestLink(t, db, "SELF1234", constants.ReferralLinkTypeGeneral, true)

	result, err := svc.Attribute(ConversionInput{
		ReferralCode: "SELF1234",
		BuyerUserID:  owner.ID,
		OrderRef:     "order-self-1",
		OrderAmount:  decimal.NewFromInt(50),
	})
	if err != nil {
		t.Fatalf("attribute failed: %v", err)
	}
	if result.Attributed {
		t.Fatal("expected self conversion not attributed")
	}

	var count int64
	if err := db.Model(&models.Earning{}).Count(&count).Error; err != nil {
		t.Fatalf("count earnings failed: %v", err)
	}
	if count != 0 {
		t.Fatalf("expected no earning for self conversion, got %d", count)
	}
}

func TestAttributeInvalidCode(t *testing.T) {
	svc, _, db := setupConversionServiceTest(t)
	createConversionTestLink(t, db, "GONE1234", constants.ReferralLinkTypeGeneral, false)

	_, err := svc.Attribute(ConversionInput{
		ReferralCode: "UNKNOWN1",
		OrderRef:     "order-x",
		OrderAmount:  decimal.NewFromInt(10),
	})
	if !errors.Is(err, ErrInvalidCode) {
		t.Fatalf("expected invalid code for unknown code, got %v", err)
	}

	_, err = svc.Attribute(ConversionInput{
		ReferralCode: "GONE1234",
		OrderRef:     "order-y",
		OrderAmount:  decimal.NewFromInt(10),
	})
	if !errors.Is(err, ErrInvalidCode) {
		t.Fatalf("expected invalid code for inactive link, got %v", err)
	}
}

func TestAttributeNoAttribution(t *testing.T) {
	svc, _, _ := setupConversionServiceTest(t)

	_, err := svc.Attribute(ConversionInput{
		ClientIP:    "10.0.9.9",
		OrderRef:    "order-none",
		OrderAmount: decimal.NewFromInt(10),
	})
	if !errors.Is(err, ErrNoAttribution) {
		t.Fatalf("expected no attribution, got %v", err)
	}
}

func TestAttributeByVisitorHashWithoutCode(t *testing.T) {
	svc, _, db := setupConversionServiceTest(t)
	link, _ := createConversionTestLink(t, db, "HASH1234", constants.ReferralLinkTypeGeneral, true)
	createConversionTestVisit(t, db, link.ID, "10.0.3.7", time.Now().Add(-2*time.Hour))

	result, err := svc.Attribute(ConversionInput{
		ClientIP:    "10.0.3.7",
		OrderRef:    "order-hash-1",
		OrderAmount: decimal.NewFromInt(100),
	})
	if err != nil {
		t.Fatalf("attribute failed: %v", err)
	}
	if !result.Attributed {
		t.Fatal("expected attribution via visitor hash")
	}
	if result.Earning.AmbassadorUserID != link.OwnerUserID {
		t.Fatalf("expected ambassador %d, got %d", link.OwnerUserID, result.Earning.AmbassadorUserID)
	}
}

func TestAttributeValidatesInput(t *testing.T) {
	svc, _, _ := setupConversionServiceTest(t)

	if _, err := svc.Attribute(ConversionInput{OrderAmount: decimal.NewFromInt(10)}); !errors.Is(err, ErrOrderRefRequired) {
		t.Fatalf("expected order ref required, got %v", err)
	}
	if _, err := svc.Attribute(ConversionInput{
		OrderRef:    "order-neg",
		OrderAmount: decimal.NewFromInt(-1),
	}); !errors.Is(err, ErrOrderAmountInvalid) {
		t.Fatalf("expected order amount invalid, got %v", err)
	}
}

func TestAttributeCampaignBoost(t *testing.T) {
	svc, settingSvc, db := setupConversionServiceTest(t)
	createConversionTestLink(t, db, "CAMP1234", constants.ReferralLinkTypeCampaign, true)
	createConversionTestLink(t, db, "GENL1234", constants.ReferralLinkTypeGeneral, true)

	setting := AffiliateDefaultSetting()
	setting.CampaignBoostEnabled = true
	setting.CampaignBoostAmount = 5
	if _, err := settingSvc.UpdateAffiliateSetting(setting); err != nil {
		t.Fatalf("update setting failed: %v", err)
	}

	boosted, err := svc.Attribute(ConversionInput{
		ReferralCode: "CAMP1234",
		OrderRef:     "order-boost-1",
		OrderAmount:  decimal.NewFromInt(100),
	})
	if err != nil {
		t.Fatalf("campaign attribute failed: %v", err)
	}
	// 100 * 20% + 5 加成
	if boosted.Earning.Amount.String() != "25.00" {
		t.Fatalf("expected boosted commission 25.00, got %s", boosted.Earning.Amount.String())
	}
	if boosted.Earning.BoostApplied.String() != "5.00" {
		t.Fatalf("expected boost applied 5.00, got %s", boosted.Earning.BoostApplied.String())
	}

	// 加成是全局开关，普通链接同样生效
	general, err := svc.Attribute(ConversionInput{
		ReferralCode: "GENL1234",
		OrderRef:     "order-boost-2",
		OrderAmount:  decimal.NewFromInt(100),
	})
	if err != nil {
		t.Fatalf("general attribute failed: %v", err)
	}
	if general.Earning.Amount.String() != "25.00" {
		t.Fatalf("expected boosted commission 25.00 on general link, got %s", general.Earning.Amount.String())
	}
	if general.Earning.BoostApplied.String() != "5.00" {
		t.Fatalf("expected boost applied 5.00, got %s", general.Earning.BoostApplied.String())
	}

	setting.CampaignBoostEnabled = false
	setting.CampaignBoostAmount = 0
	if _, err := settingSvc.UpdateAffiliateSetting(setting); err != nil {
		t.Fatalf("disable boost failed: %v", err)
	}
	plain, err := svc.Attribute(ConversionInput{
		ReferralCode: "GENL1234",
		OrderRef:     "order-boost-3",
		OrderAmount:  decimal.NewFromInt(100),
	})
	if err != nil {
		t.Fatalf("attribute without boost failed: %v", err)
	}
	if plain.Earning.Amount.String() != "20.00" {
		t.Fatalf("expected plain commission 20.00, got %s", plain.Earning.Amount.String())
	}
	if plain.Earning.BoostApplied.String() != "0.00" {
		t.Fatalf("expected no boost applied, got %s", plain.Earning.BoostApplied.String())
	}
}

func TestAttributePromotesTier(t *testing.T) {
	svc, settingSvc, db := setupConversionServiceTest(t)
	createConversionTestLink(t, db, "TIER1234", constants.ReferralLinkTypeGeneral, true)

	setting := AffiliateDefaultSetting()
	setting.SilverThreshold = 1
	setting.GoldThreshold = 2
	if _, err := settingSvc.UpdateAffiliateSetting(setting); err != nil {
		t.Fatalf("update setting failed: %v", err)
	}

	first, err := svc.Attribute(ConversionInput{
		ReferralCode: "TIER1234",
		OrderRef:     "order-tier-1",
		OrderAmount:  decimal.NewFromInt(100),
	})
	if err != nil {
		t.Fatalf("first attribute failed: %v", err)
	}
	if !first.TierChanged || first.CurrentTier != constants.TierSilver {
		t.Fatalf("expected promotion to silver, got %+v", first)
	}
	// 晋升前仍按青铜费率计佣
	if first.Earning.Amount.String() != "20.00" {
		t.Fatalf("expected bronze-rate commission 20.00, got %s", first.Earning.Amount.String())
	}

	second, err := svc.Attribute(ConversionInput{
		ReferralCode: "TIER1234",
		OrderRef:     "order-tier-2",
		OrderAmount:  decimal.NewFromInt(100),
	})
	if err != nil {
		t.Fatalf("second attribute failed: %v", err)
	}
	if !second.TierChanged || second.CurrentTier != constants.TierGold {
		t.Fatalf("expected promotion to gold, got %+v", second)
	}
	// 第二笔按已到手的白银费率计佣
	if second.Earning.Amount.String() != "25.00" {
		t.Fatalf("expected silver-rate commission 25.00, got %s", second.Earning.Amount.String())
	}
}

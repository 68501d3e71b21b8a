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
	"gorm.io/gorm"
)

func setupVisitServiceTest(t *testing.T, opts VisitServiceOptions) (*VisitService, *gorm.DB) {
	t.Helper()

	dsn := fmt.Sprintf("file:visit_service_%d?mode=memory&cache=shared", time.Now().UnixNano())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite failed: %v", err)
	}
	if err := db.AutoMigrate(&models.User{}, &models.ReferralLink{}, &models.ReferralVisit{}); err != nil {
		t.Fatalf("auto migrate failed: %v", err)
	}

	if opts.IPHashSecret == "" {
		opts.IPHashSecret = "visit-test-secret"
	}
	settingSvc := NewSettingService(newMockSettingRepo())
	svc := NewVisitService(
		repository.NewReferralLinkRepository(db),
		repository.NewReferralVisitRepository(db),
		settingSvc,
		opts,
	)
	return svc, db
}

func createVisitTestLink(t *testing.T, db *gorm.DB, code string, active bool) models.ReferralLink {
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
		LinkType:    constants.ReferralLinkTypeGeneral,
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
	return link
}

func TestRecordVisitUnknownCode(t *testing.T) {
	svc, _ := setupVisitServiceTest(t, VisitServiceOptions{})

	_, err := svc.RecordVisit(VisitRecordInput{Code: "NOPE1234", ClientIP: "10.0.0.1"})
	if !errors.Is(err, ErrLinkNotFound) {
		t.Fatalf("expected link not found, got %v", err)
	}
}

func TestRecordVisitInactiveLink(t *testing.T) {
	svc, db := setupVisitServiceTest(t, VisitServiceOptions{})
	createVisitTestLink(t, db, "DEAD1234", false)

	_, err := svc.RecordVisit(VisitRecordInput{Code: "DEAD1234", ClientIP: "10.0.0.1"})
	if !errors.Is(err, ErrLinkInactive) {
		t.Fatalf("expected link inactive, got %v", err)
	}
}

func TestRecordVisitCreatesVisitAndCookie(t *testing.T) {
	svc, db := setupVisitServiceTest(t, VisitServiceOptions{CookieName: "test_ref"})
	link := createVisitTestLink(t, db, "TEST123", true)

	result, err := svc.RecordVisit(VisitRecordInput{
		Code:           "TEST123",
		ClientIP:       "10.0.0.1",
		UserAgent:      "test-agent",
		LandingPageURL: "https://example.com/landing",
		CountryCode:    "us",
		StateCode:      "ca",
	})
	if err != nil {
		t.Fatalf("record visit failed: %v", err)
	}
	if result.Duplicate {
		t.Fatal("first visit should not be duplicate")
	}
	if result.Visit == nil || result.Visit.ID == 0 {
		t.Fatalf("expected persisted visit, got %+v", result.Visit)
	}
	if result.Visit.VisitorIPHash == "" || result.Visit.VisitorIPHash == "10.0.0.1" {
		t.Fatalf("expected hashed visitor ip, got %q", result.Visit.VisitorIPHash)
	}
	if result.Visit.CountryCode != "US" || result.Visit.StateCode != "CA" {
		t.Fatalf("expected uppercased geo codes, got %s/%s", result.Visit.CountryCode, result.Visit.StateCode)
	}
	if result.Cookie.Name != "test_ref" || result.Cookie.Code != "TEST123" {
		t.Fatalf("unexpected cookie: %+v", result.Cookie)
	}
	if result.Cookie.MaxAge != 30*24*3600 {
		t.Fatalf("expected cookie max age 30d, got %d", result.Cookie.MaxAge)
	}

	var reloaded models.ReferralLink
	if err := db.First(&reloaded, link.ID).Error; err != nil {
		t.Fatalf("reload link failed: %v", err)
	}
	if reloaded.ClickCount != 1 {
		t.Fatalf("expected click count 1, got %d", reloaded.ClickCount)
	}
}

func TestRecordVisitDedupeWindow(t *testing.T) {
	svc, db := setupVisitServiceTest(t, VisitServiceOptions{})
	link := createVisitTestLink(t, db, "DUPE1234", true)

	first, err := svc.RecordVisit(VisitRecordInput{Code: "DUPE1234", ClientIP: "10.0.0.9"})
	if err != nil {
		t.Fatalf("first visit failed: %v", err)
	}
	second, err := svc.RecordVisit(VisitRecordInput{Code: "DUPE1234", ClientIP: "10.0.0.9"})
	if err != nil {
		t.Fatalf("second visit failed: %v", err)
	}
	if !second.Duplicate {
		t.Fatal("expected duplicate within dedupe window")
	}
	if second.Visit.ID != first.Visit.ID {
		t.Fatalf("expected existing visit %d, got %d", first.Visit.ID, second.Visit.ID)
	}

	var visitCount int64
	if err := db.Model(&models.ReferralVisit{}).Where("referral_link_id = ?", link.ID).Count(&visitCount).Error; err != nil {
		t.Fatalf("count visits failed: %v", err)
	}
	if visitCount != 1 {
		t.Fatalf("expected 1 visit row, got %d", visitCount)
	}

	var reloaded models.ReferralLink
	if err := db.First(&reloaded, link.ID).Error; err != nil {
		t.Fatalf("reload link failed: %v", err)
	}
	if reloaded.ClickCount != 1 {
		t.Fatalf("duplicate visit should not increment click count, got %d", reloaded.ClickCount)
	}
}

func TestRecordVisitVelocityLimit(t *testing.T) {
	svc, db := setupVisitServiceTest(t, VisitServiceOptions{VelocityMaxVisits: 3})
	createVisitTestLink(t, db, "FAST1234", true)

	for i := 0; i < 3; i++ {
		if _, err := svc.RecordVisit(VisitRecordInput{
			Code:     "FAST1234",
			ClientIP: fmt.Sprintf("10.0.1.%d", i+1),
		}); err != nil {
			t.Fatalf("visit %d failed: %v", i+1, err)
		}
	}

	_, err := svc.RecordVisit(VisitRecordInput{Code: "FAST1234", ClientIP: "10.0.1.99"})
	if !errors.Is(err, ErrRateLimited) {
		t.Fatalf("expected rate limited, got %v", err)
	}
}

func TestRecordVisitTruncatesUserAgent(t *testing.T) {
	svc, db := setupVisitServiceTest(t, VisitServiceOptions{UserAgentMaxLen: 16})
	createVisitTestLink(t, db, "LONGUA12", true)

	longUA := "Mozilla/5.0 (compatible; very-long-agent-string)"
	result, err := svc.RecordVisit(VisitRecordInput{Code: "LONGUA12", ClientIP: "10.0.2.1", UserAgent: longUA})
	if err != nil {
		t.Fatalf("record visit failed: %v", err)
	}
	if len([]rune(result.Visit.UserAgent)) != 16 {
		t.Fatalf("expected user agent truncated to 16 runes, got %d", len([]rune(result.Visit.UserAgent)))
	}
}

func TestHashVisitorIPStable(t *testing.T) {
	first := HashVisitorIP("secret", "10.0.0.1")
	second := HashVisitorIP("secret", "10.0.0.1")
	if first == "" || first != second {
		t.Fatalf("expected stable non-empty hash, got %q / %q", first, second)
	}
	if HashVisitorIP("other-secret", "10.0.0.1") == first {
		t.Fatal("expected different secret to produce different hash")
	}
	if HashVisitorIP("secret", "") != "" {
		t.Fatal("expected empty hash for empty ip")
	}
}

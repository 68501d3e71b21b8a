package service

import (
	"strings"
	"time"

	"github.com/magabit/ambassador/internal/constants"
	"github.com/magabit/ambassador/internal/logger"
	"github.com/magabit/ambassador/internal/models"
	"github.com/magabit/ambassador/internal/repository"
)

const (
	visitDedupeWindowDefault   = 24 * time.Hour
	visitVelocityMaxDefault    = 10
	visitVelocityWindowDefault = time.Hour
	visitUserAgentMaxDefault   = 512
)

// VisitService 推广访问业务服务
type VisitService struct {
	linkRepo       repository.ReferralLinkRepository
	visitRepo      repository.ReferralVisitRepository
	settingService *SettingService

	cookieName      string
	ipHashSecret    string
	dedupeWindow    time.Duration
	velocityMax     int
	velocityWindow  time.Duration
	userAgentMaxLen int
}

// VisitServiceOptions 访问服务参数
type VisitServiceOptions struct {
	CookieName            string
	IPHashSecret          string
	VisitDedupeHours      int
	VelocityMaxVisits     int
	VelocityWindowSeconds int
	UserAgentMaxLen       int
}

// NewVisitService 创建访问服务
func NewVisitService(
	linkRepo repository.ReferralLinkRepository,
	visitRepo repository.ReferralVisitRepository,
	settingService *SettingService,
	opts VisitServiceOptions,
) *VisitService {
	dedupeWindow := visitDedupeWindowDefault
	if opts.VisitDedupeHours > 0 {
		dedupeWindow = time.Duration(opts.VisitDedupeHours) * time.Hour
	}
	velocityMax := visitVelocityMaxDefault
	if opts.VelocityMaxVisits > 0 {
		velocityMax = opts.VelocityMaxVisits
	}
	velocityWindow := visitVelocityWindowDefault
	if opts.VelocityWindowSeconds > 0 {
		velocityWindow = time.Duration(opts.VelocityWindowSeconds) * time.Second
	}
	userAgentMaxLen := visitUserAgentMaxDefault
	if opts.UserAgentMaxLen > 0 {
		userAgentMaxLen = opts.UserAgentMaxLen
	}
	cookieName := strings.TrimSpace(opts.CookieName)
	if cookieName == "" {
		cookieName = constants.DefaultAttributionCookieName
	}
	return &VisitService{
		linkRepo:        linkRepo,
		visitRepo:       visitRepo,
		settingService:  settingService,
		cookieName:      cookieName,
		ipHashSecret:    opts.IPHashSecret,
		dedupeWindow:    dedupeWindow,
		velocityMax:     velocityMax,
		velocityWindow:  velocityWindow,
		userAgentMaxLen: userAgentMaxLen,
	}
}

// VisitRecordInput 访问记录输入
type VisitRecordInput struct {
	Code           string
	ClientIP       string
	UserAgent      string
	LandingPageURL string
	Referrer       string
	CountryCode    string
	StateCode      string
	ScreenSize     string
	Language       string
}

// AttributionCookie 归因 Cookie 下发指令
type AttributionCookie struct {
	Name   string
	Code   string
	MaxAge int
}

// VisitRecordResult 访问记录结果
type VisitRecordResult struct {
	Visit     *models.ReferralVisit
	Duplicate bool
	Cookie    AttributionCookie
}

// RecordVisit 记录一次推广访问。
// 去重窗口内的重复访问返回已有记录且不增加点击；超出频控上限直接拒绝。
func (s *VisitService) RecordVisit(input VisitRecordInput) (*VisitRecordResult, error) {
	if s == nil || s.linkRepo == nil || s.visitRepo == nil {
		return nil, ErrNotFound
	}
	code := strings.TrimSpace(input.Code)
	if code == "" {
		return nil, ErrLinkNotFound
	}

	link, err := s.linkRepo.GetByCode(code)
	if err != nil {
		return nil, err
	}
	if link == nil {
		return nil, ErrLinkNotFound
	}
	if !link.IsActive {
		return nil, ErrLinkInactive
	}

	setting, err := s.settingService.GetAffiliateSetting()
	if err != nil {
		return nil, err
	}
	cookie := AttributionCookie{
		Name:   s.cookieName,
		Code:   link.Code,
		MaxAge: setting.CookieMaxAgeDays * 24 * 3600,
	}

	now := time.Now()
	ipHash := HashVisitorIP(s.ipHashSecret, input.ClientIP)
	if ipHash != "" {
		existing, err := s.visitRepo.GetRecentByLinkAndVisitor(link.ID, ipHash, now.Add(-s.dedupeWindow))
		if err != nil {
			return nil, err
		}
		if existing != nil {
			return &VisitRecordResult{
				Visit:     existing,
				Duplicate: true,
				Cookie:    cookie,
			}, nil
		}
	}

	recent, err := s.visitRepo.CountByLinkSince(link.ID, now.Add(-s.velocityWindow))
	if err != nil {
		return nil, err
	}
	if recent >= int64(s.velocityMax) {
		logger.Warnw("referral_visit_velocity_exceeded",
			"link_id", link.ID,
			"recent_visits", recent,
			"max_visits", s.velocityMax,
		)
		return nil, ErrRateLimited
	}

	visit := &models.ReferralVisit{
		ReferralLinkID: link.ID,
		VisitorIPHash:  ipHash,
		UserAgent:      truncateRunes(strings.TrimSpace(input.UserAgent), s.userAgentMaxLen),
		LandingPageURL: strings.TrimSpace(input.LandingPageURL),
		Referrer:       strings.TrimSpace(input.Referrer),
		CountryCode:    strings.ToUpper(strings.TrimSpace(input.CountryCode)),
		StateCode:      strings.ToUpper(strings.TrimSpace(input.StateCode)),
		ScreenSize:     strings.TrimSpace(input.ScreenSize),
		Language:       strings.TrimSpace(input.Language),
		VisitedAt:      now,
	}
	if err := s.visitRepo.Create(visit); err != nil {
		return nil, err
	}
	if err := s.linkRepo.IncrementClickCount(link.ID); err != nil {
		logger.Errorw("referral_click_increment_failed", "link_id", link.ID, "error", err)
	}

	return &VisitRecordResult{
		Visit:  visit,
		Cookie: cookie,
	}, nil
}

func truncateRunes(text string, maxRuneCount int) string {
	if text == "" || maxRuneCount <= 0 {
		return text
	}
	runes := []rune(text)
	if len(runes) <= maxRuneCount {
		return text
	}
	return string(runes[:maxRuneCount])
}

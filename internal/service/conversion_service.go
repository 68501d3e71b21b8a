package service

import (
	"strings"
	"time"

	"github.com/magabit/ambassador/internal/constants"
	"github.com/magabit/ambassador/internal/logger"
	"github.com/magabit/ambassador/internal/models"
	"github.com/magabit/ambassador/internal/queue"
	"github.com/magabit/ambassador/internal/repository"

	"github.com/hibiken/asynq"
	"github.com/shopspring/decimal"
)

// ConversionService 转化归因业务服务
type ConversionService struct {
	linkRepo       repository.ReferralLinkRepository
	visitRepo      repository.ReferralVisitRepository
	earningRepo    repository.EarningRepository
	tierService    *TierService
	settingService *SettingService
	queueClient    *queue.Client

	ipHashSecret string
}

// NewConversionService 创建转化归因服务
func NewConversionService(
	linkRepo repository.ReferralLinkRepository,
	visitRepo repository.ReferralVisitRepository,
	earningRepo repository.EarningRepository,
	tierService *TierService,
	settingService *SettingService,
	queueClient *queue.Client,
	ipHashSecret string,
) *ConversionService {
	return &ConversionService{
		linkRepo:       linkRepo,
		visitRepo:      visitRepo,
		earningRepo:    earningRepo,
		tierService:    tierService,
		settingService: settingService,
		queueClient:    queueClient,
		ipHashSecret:   ipHashSecret,
	}
}

// ConversionInput 转化归因输入
type ConversionInput struct {
	ReferralCode string
	ClientIP     string
	BuyerUserID  uint
	OrderRef     string
	OrderAmount  decimal.Decimal
}

// ConversionResult 转化归因结果
type ConversionResult struct {
	Attributed  bool            `json:"attributed"`
	Duplicate   bool            `json:"duplicate"`
	Earning     *models.Earning `json:"earning,omitempty"`
	TierChanged bool            `json:"tier_changed"`
	CurrentTier string          `json:"current_tier,omitempty"`
}

// Attribute 处理一次转化事件。
// 归因顺序：显式/Cookie 推广码优先，其次按访客摘要在归因窗口内回溯最近一次有效访问。
// 同一大使对同一订单标识只产生一笔收益，命中唯一索引时按已有记录软成功返回。
func (s *ConversionService) Attribute(input ConversionInput) (*ConversionResult, error) {
	if s == nil || s.linkRepo == nil || s.earningRepo == nil {
		return nil, ErrNotFound
	}
	orderRef := strings.TrimSpace(input.OrderRef)
	if orderRef == "" {
		return nil, ErrOrderRefRequired
	}
	if input.OrderAmount.LessThan(decimal.Zero) {
		return nil, ErrOrderAmountInvalid
	}

	setting, err := s.settingService.GetAffiliateSetting()
	if err != nil {
		return nil, err
	}

	link, visit, err := s.resolveAttribution(input, setting)
	if err != nil {
		return nil, err
	}
	if link == nil {
		return nil, ErrNoAttribution
	}
	if input.BuyerUserID > 0 && link.OwnerUserID == input.BuyerUserID {
		logger.Infow("referral_self_conversion_skipped",
			"buyer_user_id", input.BuyerUserID,
			"link_id", link.ID,
			"order_ref", orderRef,
		)
		return &ConversionResult{Attributed: false}, nil
	}

	existing, err := s.earningRepo.GetByAmbassadorAndOrderRef(link.OwnerUserID, orderRef)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return &ConversionResult{
			Attributed: true,
			Duplicate:  true,
			Earning:    existing,
		}, nil
	}

	tier, err := s.tierService.CurrentTier(link.OwnerUserID)
	if err != nil {
		return nil, err
	}
	rate := decimal.NewFromFloat(setting.RateForTier(tier)).Round(2)
	// 活动加成是全局设置开关，对所有链接类型生效。
	boost := CampaignBoost{}
	if setting.CampaignBoostEnabled {
		boost = CampaignBoost{
			Enabled: true,
			Amount:  decimal.NewFromFloat(setting.CampaignBoostAmount).Round(2),
		}
	}
	amount := CalculateCommission(input.OrderAmount, rate, boost)

	earning := &models.Earning{
		AmbassadorUserID: link.OwnerUserID,
		OrderRef:         orderRef,
		OrderAmount:      models.NewMoneyFromDecimal(input.OrderAmount),
		CommissionRate:   models.NewMoneyFromDecimal(rate),
		Amount:           models.NewMoneyFromDecimal(amount),
		Status:           constants.EarningStatusPending,
	}
	if boost.Enabled {
		earning.BoostApplied = models.NewMoneyFromDecimal(boost.Amount)
	} else {
		earning.BoostApplied = models.NewMoneyFromDecimal(decimal.Zero)
	}
	if visit != nil {
		visitID := visit.ID
		earning.ReferralVisitID = &visitID
	}

	if err := s.earningRepo.Create(earning); err != nil {
		if !isUniqueViolation(err) {
			return nil, err
		}
		// 并发写入撞唯一索引，回查已有记录并按重复转化处理。
		existing, lookupErr := s.earningRepo.GetByAmbassadorAndOrderRef(link.OwnerUserID, orderRef)
		if lookupErr != nil {
			return nil, lookupErr
		}
		if existing == nil {
			return nil, err
		}
		return &ConversionResult{
			Attributed: true,
			Duplicate:  true,
			Earning:    existing,
		}, nil
	}

	if visit != nil && s.visitRepo != nil {
		if _, err := s.visitRepo.MarkConverted(visit.ID); err != nil {
			logger.Errorw("referral_visit_mark_converted_failed",
				"visit_id", visit.ID,
				"earning_id", earning.ID,
				"error", err,
			)
		}
	}

	result := &ConversionResult{
		Attributed:  true,
		Earning:     earning,
		CurrentTier: tier,
	}
	tierResult, err := s.tierService.RecordConversion(link.OwnerUserID)
	if err != nil {
		// 等级重算失败不回滚收益，下一次转化全量重算时自愈。
		logger.Errorw("ambassador_tier_recompute_failed",
			"ambassador_user_id", link.OwnerUserID,
			"earning_id", earning.ID,
			"error", err,
		)
	} else {
		result.TierChanged = tierResult.Changed
		result.CurrentTier = tierResult.CurrentTier
	}

	s.enqueueNotifications(earning, tierResult)
	return result, nil
}

func (s *ConversionService) resolveAttribution(input ConversionInput, setting AffiliateSetting) (*models.ReferralLink, *models.ReferralVisit, error) {
	window := time.Duration(setting.AttributionWindowDays) * 24 * time.Hour
	since := time.Now().Add(-window)

	code := strings.TrimSpace(input.ReferralCode)
	if code != "" {
		link, err := s.linkRepo.GetByCode(code)
		if err != nil {
			return nil, nil, err
		}
		if link == nil || !link.IsActive {
			logger.Warnw("referral_conversion_code_rejected",
				"code_present", true,
				"code_known", link != nil,
			)
			return nil, nil, ErrInvalidCode
		}

		var visit *models.ReferralVisit
		if s.visitRepo != nil {
			ipHash := HashVisitorIP(s.ipHashSecret, input.ClientIP)
			if ipHash != "" {
				found, err := s.visitRepo.GetRecentByLinkAndVisitor(link.ID, ipHash, since)
				if err != nil {
					return nil, nil, err
				}
				if found != nil && !found.Converted {
					visit = found
				}
			}
		}
		return link, visit, nil
	}

	if s.visitRepo == nil {
		return nil, nil, nil
	}
	ipHash := HashVisitorIP(s.ipHashSecret, input.ClientIP)
	if ipHash == "" {
		return nil, nil, nil
	}
	visit, err := s.visitRepo.GetLatestByVisitor(ipHash, since)
	if err != nil {
		return nil, nil, err
	}
	if visit == nil {
		return nil, nil, nil
	}
	link, err := s.linkRepo.GetByID(visit.ReferralLinkID)
	if err != nil {
		return nil, nil, err
	}
	if link == nil || !link.IsActive {
		return nil, nil, nil
	}
	return link, visit, nil
}

func (s *ConversionService) enqueueNotifications(earning *models.Earning, tierResult TierChangeResult) {
	if s.queueClient == nil || !s.queueClient.Enabled() || earning == nil {
		return
	}
	if err := s.queueClient.EnqueueConversionNotify(queue.ConversionNotifyPayload{
		AmbassadorUserID: earning.AmbassadorUserID,
		EarningID:        earning.ID,
		OrderRef:         earning.OrderRef,
		Amount:           earning.Amount.String(),
	}, asynq.MaxRetry(5)); err != nil {
		logger.Errorw("conversion_notify_enqueue_failed", "earning_id", earning.ID, "error", err)
	}
	if tierResult.Changed {
		if err := s.queueClient.EnqueueTierChangeNotify(queue.TierChangeNotifyPayload{
			AmbassadorUserID: earning.AmbassadorUserID,
			PreviousTier:     tierResult.PreviousTier,
			CurrentTier:      tierResult.CurrentTier,
		}, asynq.MaxRetry(5)); err != nil {
			logger.Errorw("tier_change_notify_enqueue_failed",
				"ambassador_user_id", earning.AmbassadorUserID,
				"error", err,
			)
		}
	}
}

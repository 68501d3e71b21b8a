package service

import (
	"crypto/rand"
	"math/big"
	"strings"
	"time"

	"github.com/magabit/ambassador/internal/constants"
	"github.com/magabit/ambassador/internal/models"
	"github.com/magabit/ambassador/internal/repository"
)

const referralCodeLength = 8

// AmbassadorService 大使业务服务
type AmbassadorService struct {
	linkRepo    repository.ReferralLinkRepository
	visitRepo   repository.ReferralVisitRepository
	earningRepo repository.EarningRepository
	userRepo    repository.UserRepository
	tierService *TierService
}

// NewAmbassadorService 创建大使服务
func NewAmbassadorService(
	linkRepo repository.ReferralLinkRepository,
	visitRepo repository.ReferralVisitRepository,
	earningRepo repository.EarningRepository,
	userRepo repository.UserRepository,
	tierService *TierService,
) *AmbassadorService {
	return &AmbassadorService{
		linkRepo:    linkRepo,
		visitRepo:   visitRepo,
		earningRepo: earningRepo,
		userRepo:    userRepo,
		tierService: tierService,
	}
}

// AmbassadorDashboard 大使中心数据
type AmbassadorDashboard struct {
	ClickCount       int64        `json:"click_count"`
	ConversionCount  int64        `json:"conversion_count"`
	Tier             TierProgress `json:"tier"`
	PendingEarnings  models.Money `json:"pending_earnings"`
	ApprovedEarnings models.Money `json:"approved_earnings"`
	PaidEarnings     models.Money `json:"paid_earnings"`
	TotalEarnings    models.Money `json:"total_earnings"`
}

// CreateLink 为大使创建推广链接
func (s *AmbassadorService) CreateLink(userID uint, rawLinkType string) (*models.ReferralLink, error) {
	if userID == 0 || s == nil || s.linkRepo == nil || s.userRepo == nil {
		return nil, ErrNotFound
	}
	linkType := strings.TrimSpace(rawLinkType)
	if linkType == "" {
		linkType = constants.ReferralLinkTypeGeneral
	}
	if linkType != constants.ReferralLinkTypeGeneral && linkType != constants.ReferralLinkTypeCampaign {
		return nil, ErrLinkTypeInvalid
	}

	user, err := s.userRepo.GetByID(userID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, ErrNotFound
	}
	if strings.TrimSpace(user.Status) == constants.UserStatusDisabled {
		return nil, ErrUserDisabled
	}

	const maxRetry = 8
	for i := 0; i < maxRetry; i++ {
		code, genErr := generateReferralCode()
		if genErr != nil {
			return nil, genErr
		}
		link := &models.ReferralLink{
			Code:        code,
			OwnerUserID: userID,
			LinkType:    linkType,
			IsActive:    true,
		}
		if err := s.linkRepo.Create(link); err != nil {
			if isUniqueViolation(err) {
				continue
			}
			return nil, err
		}
		return link, nil
	}
	return nil, ErrLinkCodeExhausted
}

// ListLinks 查询大使自己的推广链接
func (s *AmbassadorService) ListLinks(userID uint) ([]models.ReferralLink, error) {
	if userID == 0 || s == nil || s.linkRepo == nil {
		return []models.ReferralLink{}, nil
	}
	return s.linkRepo.ListByOwner(userID)
}

// DeactivateLink 大使停用自己的推广链接
func (s *AmbassadorService) DeactivateLink(userID, linkID uint) (*models.ReferralLink, error) {
	if userID == 0 || linkID == 0 || s == nil || s.linkRepo == nil {
		return nil, ErrNotFound
	}
	link, err := s.linkRepo.GetByID(linkID)
	if err != nil {
		return nil, err
	}
	if link == nil || link.OwnerUserID != userID {
		return nil, ErrNotFound
	}
	if !link.IsActive {
		return link, nil
	}
	if err := s.linkRepo.SetActive(linkID, false, time.Now()); err != nil {
		return nil, err
	}
	return s.linkRepo.GetByID(linkID)
}

// AdminDeactivateLink 管理端停用推广链接
func (s *AmbassadorService) AdminDeactivateLink(linkID uint) (*models.ReferralLink, error) {
	if linkID == 0 || s == nil || s.linkRepo == nil {
		return nil, ErrNotFound
	}
	link, err := s.linkRepo.GetByID(linkID)
	if err != nil {
		return nil, err
	}
	if link == nil {
		return nil, ErrNotFound
	}
	if !link.IsActive {
		return link, nil
	}
	if err := s.linkRepo.SetActive(linkID, false, time.Now()); err != nil {
		return nil, err
	}
	return s.linkRepo.GetByID(linkID)
}

// AdminListLinks 管理端查询推广链接
func (s *AmbassadorService) AdminListLinks(filter repository.ReferralLinkListFilter) ([]models.ReferralLink, int64, error) {
	if s == nil || s.linkRepo == nil {
		return []models.ReferralLink{}, 0, nil
	}
	return s.linkRepo.List(filter)
}

// GetDashboard 获取大使中心数据
func (s *AmbassadorService) GetDashboard(userID uint) (AmbassadorDashboard, error) {
	dashboard := AmbassadorDashboard{
		PendingEarnings:  models.ZeroMoney(),
		ApprovedEarnings: models.ZeroMoney(),
		PaidEarnings:     models.ZeroMoney(),
		TotalEarnings:    models.ZeroMoney(),
	}
	if userID == 0 || s == nil {
		return dashboard, nil
	}

	if s.visitRepo != nil {
		clicks, err := s.visitRepo.CountByOwner(userID)
		if err != nil {
			return dashboard, err
		}
		dashboard.ClickCount = clicks
	}
	if s.earningRepo != nil {
		conversions, err := s.earningRepo.CountByAmbassador(userID)
		if err != nil {
			return dashboard, err
		}
		dashboard.ConversionCount = conversions

		pending, err := s.earningRepo.SumByAmbassador(userID, []string{constants.EarningStatusPending})
		if err != nil {
			return dashboard, err
		}
		approved, err := s.earningRepo.SumByAmbassador(userID, []string{constants.EarningStatusApproved})
		if err != nil {
			return dashboard, err
		}
		paid, err := s.earningRepo.SumByAmbassador(userID, []string{constants.EarningStatusPaid})
		if err != nil {
			return dashboard, err
		}
		dashboard.PendingEarnings = models.NewMoneyFromDecimal(pending)
		dashboard.ApprovedEarnings = models.NewMoneyFromDecimal(approved)
		dashboard.PaidEarnings = models.NewMoneyFromDecimal(paid)
		dashboard.TotalEarnings = dashboard.PendingEarnings.
			Add(dashboard.ApprovedEarnings).
			Add(dashboard.PaidEarnings)
	}

	progress, err := s.tierService.Progress(userID)
	if err != nil {
		return dashboard, err
	}
	dashboard.Tier = progress
	return dashboard, nil
}

// ListEarnings 查询大使自己的收益记录
func (s *AmbassadorService) ListEarnings(userID uint, page, pageSize int, status string) ([]models.Earning, int64, error) {
	if userID == 0 || s == nil || s.earningRepo == nil {
		return []models.Earning{}, 0, nil
	}
	return s.earningRepo.List(repository.EarningListFilter{
		Page:             page,
		PageSize:         pageSize,
		AmbassadorUserID: userID,
		Status:           strings.TrimSpace(status),
	})
}

// AdminListEarnings 管理端查询收益记录
func (s *AmbassadorService) AdminListEarnings(filter repository.EarningListFilter) ([]models.Earning, int64, error) {
	if s == nil || s.earningRepo == nil {
		return []models.Earning{}, 0, nil
	}
	return s.earningRepo.List(filter)
}

// UpdateEarningStatus 管理端流转收益状态（pending -> approved -> paid）
func (s *AmbassadorService) UpdateEarningStatus(earningID uint, rawStatus string) (*models.Earning, error) {
	if earningID == 0 || s == nil || s.earningRepo == nil {
		return nil, ErrNotFound
	}
	nextStatus := strings.TrimSpace(rawStatus)
	if nextStatus != constants.EarningStatusApproved && nextStatus != constants.EarningStatusPaid {
		return nil, ErrEarningStatusInvalid
	}

	earning, err := s.earningRepo.GetByID(earningID)
	if err != nil {
		return nil, err
	}
	if earning == nil {
		return nil, ErrNotFound
	}
	if earning.Status == nextStatus {
		return earning, nil
	}
	allowed := (earning.Status == constants.EarningStatusPending && nextStatus == constants.EarningStatusApproved) ||
		(earning.Status == constants.EarningStatusApproved && nextStatus == constants.EarningStatusPaid)
	if !allowed {
		return nil, ErrEarningStatusInvalid
	}
	if err := s.earningRepo.UpdateStatus(earningID, nextStatus, time.Now()); err != nil {
		return nil, err
	}
	return s.earningRepo.GetByID(earningID)
}

func generateReferralCode() (string, error) {
	const alphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"
	var builder strings.Builder
	builder.Grow(referralCodeLength)
	max := big.NewInt(int64(len(alphabet)))
	for i := 0; i < referralCodeLength; i++ {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", err
		}
		builder.WriteByte(alphabet[n.Int64()])
	}
	return builder.String(), nil
}

package service

import (
	"time"

	"github.com/magabit/ambassador/internal/constants"
	"github.com/magabit/ambassador/internal/models"
	"github.com/magabit/ambassador/internal/repository"

	"gorm.io/gorm"
)

// TierService 大使等级业务服务
type TierService struct {
	tierRepo       repository.TierRepository
	settingService *SettingService
}

// NewTierService 创建等级服务
func NewTierService(tierRepo repository.TierRepository, settingService *SettingService) *TierService {
	return &TierService{
		tierRepo:       tierRepo,
		settingService: settingService,
	}
}

// TierChangeResult 等级重算结果
type TierChangeResult struct {
	Changed            bool
	PreviousTier       string
	CurrentTier        string
	MonthlyConversions int
}

// RecordConversion 记录一次转化并重算等级。
// 在事务内对等级行加锁，自增当月转化数后按门槛全量重算，避免并发转化丢失计数。
func (s *TierService) RecordConversion(userID uint) (TierChangeResult, error) {
	result := TierChangeResult{
		PreviousTier: constants.TierBronze,
		CurrentTier:  constants.TierBronze,
	}
	if userID == 0 || s == nil || s.tierRepo == nil {
		return result, ErrNotFound
	}

	setting, err := s.settingService.GetAffiliateSetting()
	if err != nil {
		return result, err
	}
	thresholds := setting.Thresholds()

	err = s.tierRepo.Transaction(func(tx *gorm.DB) error {
		repoTx := s.tierRepo.WithTx(tx)
		row, err := repoTx.GetByUserIDForUpdate(userID)
		if err != nil {
			return err
		}
		if row == nil {
			row = &models.AmbassadorTier{
				UserID:             userID,
				CurrentTier:        constants.TierBronze,
				MonthlyConversions: 0,
			}
			if err := repoTx.Create(row); err != nil {
				if !isUniqueViolation(err) {
					return err
				}
				row, err = repoTx.GetByUserIDForUpdate(userID)
				if err != nil {
					return err
				}
				if row == nil {
					return ErrNotFound
				}
			}
		}

		previous := row.CurrentTier
		if previous == "" {
			previous = constants.TierBronze
		}
		row.MonthlyConversions++
		row.CurrentTier = TierForConversions(int(row.MonthlyConversions), thresholds)
		row.UpdatedAt = time.Now()
		if err := repoTx.Update(row); err != nil {
			return err
		}

		result.PreviousTier = previous
		result.CurrentTier = row.CurrentTier
		result.MonthlyConversions = int(row.MonthlyConversions)
		result.Changed = previous != row.CurrentTier
		return nil
	})
	if err != nil {
		return TierChangeResult{
			PreviousTier: constants.TierBronze,
			CurrentTier:  constants.TierBronze,
		}, err
	}
	return result, nil
}

// CurrentTier 查询用户当前等级（无记录时视为青铜）
func (s *TierService) CurrentTier(userID uint) (string, error) {
	if userID == 0 || s == nil || s.tierRepo == nil {
		return constants.TierBronze, nil
	}
	row, err := s.tierRepo.GetByUserID(userID)
	if err != nil {
		return constants.TierBronze, err
	}
	if row == nil || row.CurrentTier == "" {
		return constants.TierBronze, nil
	}
	return row.CurrentTier, nil
}

// Progress 查询用户等级进度
func (s *TierService) Progress(userID uint) (TierProgress, error) {
	setting, err := s.settingService.GetAffiliateSetting()
	if err != nil {
		return TierProgress{}, err
	}
	thresholds := setting.Thresholds()

	monthly := 0
	if userID > 0 && s.tierRepo != nil {
		row, err := s.tierRepo.GetByUserID(userID)
		if err != nil {
			return TierProgress{}, err
		}
		if row != nil {
			monthly = int(row.MonthlyConversions)
		}
	}
	return BuildTierProgress(monthly, thresholds), nil
}

// MonthlyRollover 月初等级重置。
// 当月转化数清零后所有等级按门槛重算，全部落回青铜；重复执行无副作用。
func (s *TierService) MonthlyRollover(now time.Time) (int64, error) {
	if s == nil || s.tierRepo == nil {
		return 0, nil
	}
	return s.tierRepo.ResetAllMonthly(constants.TierBronze, now)
}

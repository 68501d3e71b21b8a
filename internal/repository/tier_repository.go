package repository

import (
	"errors"
	"time"

	"github.com/magabit/ambassador/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// TierRepository 大使等级数据访问接口
type TierRepository interface {
	Transaction(fn func(tx *gorm.DB) error) error
	WithTx(tx *gorm.DB) TierRepository

	GetByUserID(userID uint) (*models.AmbassadorTier, error)
	GetByUserIDForUpdate(userID uint) (*models.AmbassadorTier, error)
	Create(tier *models.AmbassadorTier) error
	Update(tier *models.AmbassadorTier) error
	ResetAllMonthly(tier string, now time.Time) (int64, error)
}

// GormTierRepository GORM 等级仓储
type GormTierRepository struct {
	db *gorm.DB
}

// NewTierRepository 创建等级仓储
func NewTierRepository(db *gorm.DB) *GormTierRepository {
	return &GormTierRepository{db: db}
}

// WithTx 绑定事务
func (r *GormTierRepository) WithTx(tx *gorm.DB) TierRepository {
	if tx == nil {
		return r
	}
	return &GormTierRepository{db: tx}
}

// Transaction 执行事务
func (r *GormTierRepository) Transaction(fn func(tx *gorm.DB) error) error {
	if fn == nil {
		return nil
	}
	return r.db.Transaction(fn)
}

// GetByUserID 按用户ID获取等级记录
func (r *GormTierRepository) GetByUserID(userID uint) (*models.AmbassadorTier, error) {
	if userID == 0 {
		return nil, nil
	}
	var tier models.AmbassadorTier
	if err := r.db.Where("user_id = ?", userID).First(&tier).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &tier, nil
}

// GetByUserIDForUpdate 按用户ID锁定等级记录（事务内使用，避免并发丢失计数）
func (r *GormTierRepository) GetByUserIDForUpdate(userID uint) (*models.AmbassadorTier, error) {
	if userID == 0 {
		return nil, nil
	}
	var tier models.AmbassadorTier
	if err := r.db.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("user_id = ?", userID).First(&tier).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &tier, nil
}

// Create 创建等级记录
func (r *GormTierRepository) Create(tier *models.AmbassadorTier) error {
	return r.db.Create(tier).Error
}

// Update 更新等级记录
func (r *GormTierRepository) Update(tier *models.AmbassadorTier) error {
	return r.db.Save(tier).Error
}

// ResetAllMonthly 月初批量清零所有大使的月度转化数并重置等级（可重复触发）
func (r *GormTierRepository) ResetAllMonthly(tier string, now time.Time) (int64, error) {
	result := r.db.Model(&models.AmbassadorTier{}).
		Where("monthly_conversions > 0 OR current_tier <> ?", tier).
		Updates(map[string]interface{}{
			"monthly_conversions": 0,
			"current_tier":        tier,
			"updated_at":          now,
		})
	if result.Error != nil {
		return 0, result.Error
	}
	return result.RowsAffected, nil
}

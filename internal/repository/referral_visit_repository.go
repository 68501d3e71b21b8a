package repository

import (
	"errors"
	"strings"
	"time"

	"github.com/magabit/ambassador/internal/models"

	"gorm.io/gorm"
)

// ReferralVisitRepository 推广访问记录数据访问接口
type ReferralVisitRepository interface {
	WithTx(tx *gorm.DB) ReferralVisitRepository

	Create(visit *models.ReferralVisit) error
	GetByID(id uint) (*models.ReferralVisit, error)
	GetRecentByLinkAndVisitor(linkID uint, visitorIPHash string, since time.Time) (*models.ReferralVisit, error)
	CountByLinkSince(linkID uint, since time.Time) (int64, error)
	GetLatestByVisitor(visitorIPHash string, since time.Time) (*models.ReferralVisit, error)
	MarkConverted(id uint) (bool, error)
	CountByOwner(ownerUserID uint) (int64, error)
}

// GormReferralVisitRepository GORM 推广访问仓储
type GormReferralVisitRepository struct {
	db *gorm.DB
}

// NewReferralVisitRepository 创建推广访问仓储
func NewReferralVisitRepository(db *gorm.DB) *GormReferralVisitRepository {
	return &GormReferralVisitRepository{db: db}
}

// WithTx 绑定事务
func (r *GormReferralVisitRepository) WithTx(tx *gorm.DB) ReferralVisitRepository {
	if tx == nil {
		return r
	}
	return &GormReferralVisitRepository{db: tx}
}

// Create 创建访问记录
func (r *GormReferralVisitRepository) Create(visit *models.ReferralVisit) error {
	return r.db.Create(visit).Error
}

// GetByID 按ID获取访问记录
func (r *GormReferralVisitRepository) GetByID(id uint) (*models.ReferralVisit, error) {
	if id == 0 {
		return nil, nil
	}
	var visit models.ReferralVisit
	if err := r.db.First(&visit, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &visit, nil
}

// GetRecentByLinkAndVisitor 查询去重窗口内同链接同访客的最近访问
func (r *GormReferralVisitRepository) GetRecentByLinkAndVisitor(linkID uint, visitorIPHash string, since time.Time) (*models.ReferralVisit, error) {
	hash := strings.TrimSpace(visitorIPHash)
	if linkID == 0 || hash == "" {
		return nil, nil
	}
	var visit models.ReferralVisit
	err := r.db.Where("referral_link_id = ? AND visitor_ip_hash = ? AND visited_at >= ?", linkID, hash, since).
		Order("visited_at DESC, id DESC").
		First(&visit).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &visit, nil
}

// CountByLinkSince 统计链接在窗口内的访问数（频控依据）
func (r *GormReferralVisitRepository) CountByLinkSince(linkID uint, since time.Time) (int64, error) {
	if linkID == 0 {
		return 0, nil
	}
	var total int64
	if err := r.db.Model(&models.ReferralVisit{}).
		Where("referral_link_id = ? AND visited_at >= ?", linkID, since).
		Count(&total).Error; err != nil {
		return 0, err
	}
	return total, nil
}

// GetLatestByVisitor 查询访客在归因窗口内最近一次对应有效链接的访问
func (r *GormReferralVisitRepository) GetLatestByVisitor(visitorIPHash string, since time.Time) (*models.ReferralVisit, error) {
	hash := strings.TrimSpace(visitorIPHash)
	if hash == "" {
		return nil, nil
	}
	var visit models.ReferralVisit
	err := r.db.Model(&models.ReferralVisit{}).
		Joins("JOIN referral_links rl ON rl.id = referral_visits.referral_link_id").
		Where("referral_visits.visitor_ip_hash = ? AND referral_visits.visited_at >= ? AND rl.is_active = ?", hash, since, true).
		Order("referral_visits.visited_at DESC, referral_visits.id DESC").
		Preload("ReferralLink").
		First(&visit).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &visit, nil
}

// MarkConverted 标记访问已转化（仅允许 false -> true，一次生效）
func (r *GormReferralVisitRepository) MarkConverted(id uint) (bool, error) {
	if id == 0 {
		return false, nil
	}
	result := r.db.Model(&models.ReferralVisit{}).
		Where("id = ? AND converted = ?", id, false).
		UpdateColumn("converted", true)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

// CountByOwner 统计大使名下链接的总访问数
func (r *GormReferralVisitRepository) CountByOwner(ownerUserID uint) (int64, error) {
	if ownerUserID == 0 {
		return 0, nil
	}
	var total int64
	if err := r.db.Model(&models.ReferralVisit{}).
		Joins("JOIN referral_links rl ON rl.id = referral_visits.referral_link_id").
		Where("rl.owner_user_id = ?", ownerUserID).
		Count(&total).Error; err != nil {
		return 0, err
	}
	return total, nil
}

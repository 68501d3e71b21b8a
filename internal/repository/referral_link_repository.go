package repository

import (
	"errors"
	"strings"
	"time"

	"github.com/magabit/ambassador/internal/models"

	"gorm.io/gorm"
)

// ReferralLinkRepository 推广链接数据访问接口
type ReferralLinkRepository interface {
	Transaction(fn func(tx *gorm.DB) error) error
	WithTx(tx *gorm.DB) ReferralLinkRepository

	GetByID(id uint) (*models.ReferralLink, error)
	GetByCode(code string) (*models.ReferralLink, error)
	Create(link *models.ReferralLink) error
	IncrementClickCount(id uint) error
	SetActive(id uint, active bool, updatedAt time.Time) error
	List(filter ReferralLinkListFilter) ([]models.ReferralLink, int64, error)
	ListByOwner(ownerUserID uint) ([]models.ReferralLink, error)
}

// GormReferralLinkRepository GORM 推广链接仓储
type GormReferralLinkRepository struct {
	db *gorm.DB
}

// NewReferralLinkRepository 创建推广链接仓储
func NewReferralLinkRepository(db *gorm.DB) *GormReferralLinkRepository {
	return &GormReferralLinkRepository{db: db}
}

// WithTx 绑定事务
func (r *GormReferralLinkRepository) WithTx(tx *gorm.DB) ReferralLinkRepository {
	if tx == nil {
		return r
	}
	return &GormReferralLinkRepository{db: tx}
}

// Transaction 执行事务
func (r *GormReferralLinkRepository) Transaction(fn func(tx *gorm.DB) error) error {
	if fn == nil {
		return nil
	}
	return r.db.Transaction(fn)
}

// GetByID 按ID获取推广链接
func (r *GormReferralLinkRepository) GetByID(id uint) (*models.ReferralLink, error) {
	if id == 0 {
		return nil, nil
	}
	var link models.ReferralLink
	if err := r.db.First(&link, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &link, nil
}

// GetByCode 按推广码获取链接（推广码区分大小写）
func (r *GormReferralLinkRepository) GetByCode(code string) (*models.ReferralLink, error) {
	trimmed := strings.TrimSpace(code)
	if trimmed == "" {
		return nil, nil
	}
	var link models.ReferralLink
	if err := r.db.Where("code = ?", trimmed).First(&link).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &link, nil
}

// Create 创建推广链接
func (r *GormReferralLinkRepository) Create(link *models.ReferralLink) error {
	return r.db.Create(link).Error
}

// IncrementClickCount 原子自增点击计数（单条 UPDATE，避免并发丢失更新）
func (r *GormReferralLinkRepository) IncrementClickCount(id uint) error {
	if id == 0 {
		return nil
	}
	return r.db.Model(&models.ReferralLink{}).
		Where("id = ?", id).
		UpdateColumn("click_count", gorm.Expr("click_count + ?", 1)).Error
}

// SetActive 启用/停用推广链接
func (r *GormReferralLinkRepository) SetActive(id uint, active bool, updatedAt time.Time) error {
	if id == 0 {
		return nil
	}
	return r.db.Model(&models.ReferralLink{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"is_active":  active,
			"updated_at": updatedAt,
		}).Error
}

// List 查询推广链接列表
func (r *GormReferralLinkRepository) List(filter ReferralLinkListFilter) ([]models.ReferralLink, int64, error) {
	query := r.db.Model(&models.ReferralLink{}).Preload("Owner")
	if filter.OwnerUserID != 0 {
		query = query.Where("referral_links.owner_user_id = ?", filter.OwnerUserID)
	}
	if linkType := strings.TrimSpace(filter.LinkType); linkType != "" {
		query = query.Where("referral_links.link_type = ?", linkType)
	}
	if filter.IsActive != nil {
		query = query.Where("referral_links.is_active = ?", *filter.IsActive)
	}
	if keyword := strings.TrimSpace(filter.Keyword); keyword != "" {
		like := "%" + keyword + "%"
		query = query.
			Joins("LEFT JOIN users ON users.id = referral_links.owner_user_id").
			Where("(users.email LIKE ? OR users.display_name LIKE ? OR referral_links.code LIKE ?)", like, like, like)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	query = applyPagination(query, filter.Page, filter.PageSize)

	var rows []models.ReferralLink
	if err := query.Order("referral_links.id desc").Find(&rows).Error; err != nil {
		return nil, 0, err
	}
	return rows, total, nil
}

// ListByOwner 查询用户的全部推广链接
func (r *GormReferralLinkRepository) ListByOwner(ownerUserID uint) ([]models.ReferralLink, error) {
	if ownerUserID == 0 {
		return []models.ReferralLink{}, nil
	}
	var rows []models.ReferralLink
	if err := r.db.Where("owner_user_id = ?", ownerUserID).Order("id desc").Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

package repository

import (
	"errors"
	"strings"
	"time"

	"github.com/magabit/ambassador/internal/models"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// EarningRepository 收益数据访问接口
type EarningRepository interface {
	Transaction(fn func(tx *gorm.DB) error) error
	WithTx(tx *gorm.DB) EarningRepository

	GetByID(id uint) (*models.Earning, error)
	GetByAmbassadorAndOrderRef(ambassadorUserID uint, orderRef string) (*models.Earning, error)
	Create(earning *models.Earning) error
	UpdateStatus(id uint, status string, updatedAt time.Time) error
	List(filter EarningListFilter) ([]models.Earning, int64, error)
	CountByAmbassador(ambassadorUserID uint) (int64, error)
	CountByAmbassadorSince(ambassadorUserID uint, since time.Time) (int64, error)
	SumByAmbassador(ambassadorUserID uint, statuses []string) (decimal.Decimal, error)
}

// GormEarningRepository GORM 收益仓储
type GormEarningRepository struct {
	db *gorm.DB
}

// NewEarningRepository 创建收益仓储
func NewEarningRepository(db *gorm.DB) *GormEarningRepository {
	return &GormEarningRepository{db: db}
}

// WithTx 绑定事务
func (r *GormEarningRepository) WithTx(tx *gorm.DB) EarningRepository {
	if tx == nil {
		return r
	}
	return &GormEarningRepository{db: tx}
}

// Transaction 执行事务
func (r *GormEarningRepository) Transaction(fn func(tx *gorm.DB) error) error {
	if fn == nil {
		return nil
	}
	return r.db.Transaction(fn)
}

// GetByID 按ID获取收益记录
func (r *GormEarningRepository) GetByID(id uint) (*models.Earning, error) {
	if id == 0 {
		return nil, nil
	}
	var earning models.Earning
	if err := r.db.Preload("Ambassador").First(&earning, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &earning, nil
}

// GetByAmbassadorAndOrderRef 按去重键查询收益记录
func (r *GormEarningRepository) GetByAmbassadorAndOrderRef(ambassadorUserID uint, orderRef string) (*models.Earning, error) {
	ref := strings.TrimSpace(orderRef)
	if ambassadorUserID == 0 || ref == "" {
		return nil, nil
	}
	var earning models.Earning
	if err := r.db.Where("ambassador_user_id = ? AND order_ref = ?", ambassadorUserID, ref).
		First(&earning).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &earning, nil
}

// Create 创建收益记录（唯一索引兜底并发重复投递）
func (r *GormEarningRepository) Create(earning *models.Earning) error {
	return r.db.Create(earning).Error
}

// UpdateStatus 更新收益状态
func (r *GormEarningRepository) UpdateStatus(id uint, status string, updatedAt time.Time) error {
	if id == 0 {
		return nil
	}
	return r.db.Model(&models.Earning{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"status":     strings.TrimSpace(status),
			"updated_at": updatedAt,
		}).Error
}

// List 查询收益列表
func (r *GormEarningRepository) List(filter EarningListFilter) ([]models.Earning, int64, error) {
	query := r.db.Model(&models.Earning{}).Preload("Ambassador")
	if filter.AmbassadorUserID != 0 {
		query = query.Where("earnings.ambassador_user_id = ?", filter.AmbassadorUserID)
	}
	if ref := strings.TrimSpace(filter.OrderRef); ref != "" {
		query = query.Where("earnings.order_ref LIKE ?", "%"+ref+"%")
	}
	if status := strings.TrimSpace(filter.Status); status != "" {
		query = query.Where("earnings.status = ?", status)
	}
	if filter.CreatedFrom != nil {
		query = query.Where("earnings.created_at >= ?", *filter.CreatedFrom)
	}
	if filter.CreatedTo != nil {
		query = query.Where("earnings.created_at <= ?", *filter.CreatedTo)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	query = applyPagination(query, filter.Page, filter.PageSize)

	var rows []models.Earning
	if err := query.Order("earnings.id desc").Find(&rows).Error; err != nil {
		return nil, 0, err
	}
	return rows, total, nil
}

// CountByAmbassador 统计大使累计转化数
func (r *GormEarningRepository) CountByAmbassador(ambassadorUserID uint) (int64, error) {
	if ambassadorUserID == 0 {
		return 0, nil
	}
	var total int64
	if err := r.db.Model(&models.Earning{}).
		Where("ambassador_user_id = ?", ambassadorUserID).
		Count(&total).Error; err != nil {
		return 0, err
	}
	return total, nil
}

// CountByAmbassadorSince 统计大使自某时间起的转化数
func (r *GormEarningRepository) CountByAmbassadorSince(ambassadorUserID uint, since time.Time) (int64, error) {
	if ambassadorUserID == 0 {
		return 0, nil
	}
	var total int64
	if err := r.db.Model(&models.Earning{}).
		Where("ambassador_user_id = ? AND created_at >= ?", ambassadorUserID, since).
		Count(&total).Error; err != nil {
		return 0, err
	}
	return total, nil
}

// SumByAmbassador 汇总大使指定状态的佣金金额
func (r *GormEarningRepository) SumByAmbassador(ambassadorUserID uint, statuses []string) (decimal.Decimal, error) {
	if ambassadorUserID == 0 || len(statuses) == 0 {
		return decimal.Zero, nil
	}
	var row struct {
		Total decimal.Decimal `gorm:"column:total"`
	}
	if err := r.db.Model(&models.Earning{}).
		Where("ambassador_user_id = ? AND status IN ?", ambassadorUserID, statuses).
		Select("COALESCE(SUM(amount), 0) AS total").
		Scan(&row).Error; err != nil {
		return decimal.Zero, err
	}
	return row.Total.Round(2), nil
}

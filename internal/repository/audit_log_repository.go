package repository

import (
	"strings"

	"github.com/magabit/ambassador/internal/models"

	"gorm.io/gorm"
)

// AuditLogRepository 审计日志数据访问接口
type AuditLogRepository interface {
	Create(item *models.AuditLog) error
	List(filter AuditLogListFilter) ([]models.AuditLog, int64, error)
}

// GormAuditLogRepository GORM 审计日志仓储
type GormAuditLogRepository struct {
	db *gorm.DB
}

// NewAuditLogRepository 创建审计日志仓储
func NewAuditLogRepository(db *gorm.DB) *GormAuditLogRepository {
	return &GormAuditLogRepository{db: db}
}

// Create 写入审计日志
func (r *GormAuditLogRepository) Create(item *models.AuditLog) error {
	return r.db.Create(item).Error
}

// List 查询审计日志
func (r *GormAuditLogRepository) List(filter AuditLogListFilter) ([]models.AuditLog, int64, error) {
	query := r.db.Model(&models.AuditLog{})
	if filter.OperatorAdminID != 0 {
		query = query.Where("operator_admin_id = ?", filter.OperatorAdminID)
	}
	if filter.TargetUserID != 0 {
		query = query.Where("target_user_id = ?", filter.TargetUserID)
	}
	if action := strings.TrimSpace(filter.Action); action != "" {
		query = query.Where("action = ?", action)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	query = applyPagination(query, filter.Page, filter.PageSize)

	var rows []models.AuditLog
	if err := query.Order("id desc").Find(&rows).Error; err != nil {
		return nil, 0, err
	}
	return rows, total, nil
}

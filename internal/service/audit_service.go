package service

import (
	"strings"
	"time"

	"github.com/magabit/ambassador/internal/constants"
	"github.com/magabit/ambassador/internal/models"
	"github.com/magabit/ambassador/internal/repository"
)

// AuditService 管理操作审计服务
type AuditService struct {
	repo     repository.AuditLogRepository
	userRepo repository.UserRepository
}

// NewAuditService 创建审计服务
func NewAuditService(repo repository.AuditLogRepository, userRepo repository.UserRepository) *AuditService {
	return &AuditService{
		repo:     repo,
		userRepo: userRepo,
	}
}

// ImpersonationInput 代登录操作输入
type ImpersonationInput struct {
	OperatorAdminID uint
	TargetUserID    uint
	RequestID       string
	Reason          string
}

// StartImpersonation 记录管理员代登录开始
func (s *AuditService) StartImpersonation(input ImpersonationInput) (*models.AuditLog, error) {
	return s.recordImpersonation(constants.AuditActionImpersonateStart, input)
}

// StopImpersonation 记录管理员代登录结束
func (s *AuditService) StopImpersonation(input ImpersonationInput) (*models.AuditLog, error) {
	return s.recordImpersonation(constants.AuditActionImpersonateStop, input)
}

func (s *AuditService) recordImpersonation(action string, input ImpersonationInput) (*models.AuditLog, error) {
	if s == nil || s.repo == nil {
		return nil, ErrNotFound
	}
	if input.OperatorAdminID == 0 || input.TargetUserID == 0 {
		return nil, ErrAuditTargetInvalid
	}
	if s.userRepo != nil {
		target, err := s.userRepo.GetByID(input.TargetUserID)
		if err != nil {
			return nil, err
		}
		if target == nil {
			return nil, ErrAuditTargetInvalid
		}
	}

	targetID := input.TargetUserID
	detail := models.JSON{}
	if reason := strings.TrimSpace(input.Reason); reason != "" {
		detail["reason"] = reason
	}
	item := &models.AuditLog{
		OperatorAdminID: input.OperatorAdminID,
		TargetUserID:    &targetID,
		Action:          action,
		RequestID:       strings.TrimSpace(input.RequestID),
		DetailJSON:      detail,
		CreatedAt:       time.Now(),
	}
	if err := s.repo.Create(item); err != nil {
		return nil, err
	}
	return item, nil
}

// ListLogs 管理端查询审计日志
func (s *AuditService) ListLogs(filter repository.AuditLogListFilter) ([]models.AuditLog, int64, error) {
	if s == nil || s.repo == nil {
		return []models.AuditLog{}, 0, nil
	}
	return s.repo.List(filter)
}

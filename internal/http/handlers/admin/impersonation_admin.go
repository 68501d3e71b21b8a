package admin

import (
	"errors"
	"strconv"
	"strings"

	"github.com/magabit/ambassador/internal/http/response"
	"github.com/magabit/ambassador/internal/repository"
	"github.com/magabit/ambassador/internal/service"

	"github.com/gin-gonic/gin"
)

// ImpersonationRequest 代登录操作请求
type ImpersonationRequest struct {
	TargetUserID uint   `json:"target_user_id" binding:"required"`
	Reason       string `json:"reason"`
}

// StartImpersonation 开始代登录
func (h *Handler) StartImpersonation(c *gin.Context) {
	adminID, ok := getAdminID(c)
	if !ok {
		return
	}
	if h.AuditService == nil {
		respondError(c, response.CodeInternal, "保存失败", nil)
		return
	}
	var req ImpersonationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "参数错误", err)
		return
	}

	item, err := h.AuditService.StartImpersonation(service.ImpersonationInput{
		OperatorAdminID: adminID,
		TargetUserID:    req.TargetUserID,
		RequestID:       requestID(c),
		Reason:          req.Reason,
	})
	if err != nil {
		switch {
		case errors.Is(err, service.ErrAuditTargetInvalid):
			respondError(c, response.CodeBadRequest, "操作目标用户无效", nil)
		default:
			respondError(c, response.CodeInternal, "保存失败", err)
		}
		return
	}
	response.Success(c, item)
}

// StopImpersonation 结束代登录
func (h *Handler) StopImpersonation(c *gin.Context) {
	adminID, ok := getAdminID(c)
	if !ok {
		return
	}
	if h.AuditService == nil {
		respondError(c, response.CodeInternal, "保存失败", nil)
		return
	}
	var req ImpersonationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "参数错误", err)
		return
	}

	item, err := h.AuditService.StopImpersonation(service.ImpersonationInput{
		OperatorAdminID: adminID,
		TargetUserID:    req.TargetUserID,
		RequestID:       requestID(c),
		Reason:          req.Reason,
	})
	if err != nil {
		switch {
		case errors.Is(err, service.ErrAuditTargetInvalid):
			respondError(c, response.CodeBadRequest, "操作目标用户无效", nil)
		default:
			respondError(c, response.CodeInternal, "保存失败", err)
		}
		return
	}
	response.Success(c, item)
}

// ListAuditLogs 管理端审计日志列表
func (h *Handler) ListAuditLogs(c *gin.Context) {
	if h.AuditService == nil {
		respondError(c, response.CodeInternal, "查询失败", nil)
		return
	}
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))
	page, pageSize = normalizePagination(page, pageSize)
	operatorID, _ := strconv.ParseUint(strings.TrimSpace(c.Query("operator_admin_id")), 10, 64)
	targetID, _ := strconv.ParseUint(strings.TrimSpace(c.Query("target_user_id")), 10, 64)

	rows, total, err := h.AuditService.ListLogs(repository.AuditLogListFilter{
		Page:            page,
		PageSize:        pageSize,
		OperatorAdminID: uint(operatorID),
		TargetUserID:    uint(targetID),
		Action:          strings.TrimSpace(c.Query("action")),
	})
	if err != nil {
		respondError(c, response.CodeInternal, "查询失败", err)
		return
	}
	response.SuccessWithPage(c, rows, response.BuildPagination(page, pageSize, total))
}

func requestID(c *gin.Context) string {
	if value, ok := c.Get("request_id"); ok {
		if id, ok := value.(string); ok {
			return id
		}
	}
	return ""
}

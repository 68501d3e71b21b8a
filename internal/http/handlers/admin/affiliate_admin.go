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

// GetAffiliateSettings 获取推广佣金配置
func (h *Handler) GetAffiliateSettings(c *gin.Context) {
	if h.SettingService == nil {
		respondError(c, response.CodeInternal, "查询失败", nil)
		return
	}
	setting, err := h.SettingService.GetAffiliateSetting()
	if err != nil {
		respondError(c, response.CodeInternal, "查询失败", err)
		return
	}
	response.Success(c, setting)
}

// UpdateAffiliateSettings 更新推广佣金配置
func (h *Handler) UpdateAffiliateSettings(c *gin.Context) {
	if h.SettingService == nil {
		respondError(c, response.CodeInternal, "保存失败", nil)
		return
	}
	var req service.AffiliateSetting
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "参数错误", err)
		return
	}

	setting, err := h.SettingService.UpdateAffiliateSetting(req)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrAffiliateConfigInvalid):
			respondError(c, response.CodeBadRequest, err.Error(), nil)
		default:
			respondError(c, response.CodeInternal, "保存失败", err)
		}
		return
	}
	response.Success(c, setting)
}

// ListReferralLinks 管理端推广链接列表
func (h *Handler) ListReferralLinks(c *gin.Context) {
	if h.AmbassadorService == nil {
		respondError(c, response.CodeInternal, "查询失败", nil)
		return
	}
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))
	page, pageSize = normalizePagination(page, pageSize)
	ownerID, _ := strconv.ParseUint(strings.TrimSpace(c.Query("owner_user_id")), 10, 64)

	filter := repository.ReferralLinkListFilter{
		Page:        page,
		PageSize:    pageSize,
		OwnerUserID: uint(ownerID),
		LinkType:    strings.TrimSpace(c.Query("link_type")),
		Keyword:     strings.TrimSpace(c.Query("keyword")),
	}
	if raw := strings.TrimSpace(c.Query("is_active")); raw != "" {
		active := raw == "1" || strings.EqualFold(raw, "true")
		filter.IsActive = &active
	}

	rows, total, err := h.AmbassadorService.AdminListLinks(filter)
	if err != nil {
		respondError(c, response.CodeInternal, "查询失败", err)
		return
	}
	response.SuccessWithPage(c, rows, response.BuildPagination(page, pageSize, total))
}

// DeactivateReferralLink 管理端停用推广链接
func (h *Handler) DeactivateReferralLink(c *gin.Context) {
	if h.AmbassadorService == nil {
		respondError(c, response.CodeInternal, "保存失败", nil)
		return
	}
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		respondError(c, response.CodeBadRequest, "参数错误", nil)
		return
	}

	link, err := h.AmbassadorService.AdminDeactivateLink(uint(id))
	if err != nil {
		switch {
		case errors.Is(err, service.ErrNotFound):
			respondError(c, response.CodeNotFound, "推广链接不存在", nil)
		default:
			respondError(c, response.CodeInternal, "保存失败", err)
		}
		return
	}
	response.Success(c, link)
}

// ListEarnings 管理端收益列表
func (h *Handler) ListEarnings(c *gin.Context) {
	if h.AmbassadorService == nil {
		respondError(c, response.CodeInternal, "查询失败", nil)
		return
	}
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))
	page, pageSize = normalizePagination(page, pageSize)
	ambassadorID, _ := strconv.ParseUint(strings.TrimSpace(c.Query("ambassador_user_id")), 10, 64)

	rows, total, err := h.AmbassadorService.AdminListEarnings(repository.EarningListFilter{
		Page:             page,
		PageSize:         pageSize,
		AmbassadorUserID: uint(ambassadorID),
		OrderRef:         strings.TrimSpace(c.Query("order_ref")),
		Status:           strings.TrimSpace(c.Query("status")),
	})
	if err != nil {
		respondError(c, response.CodeInternal, "查询失败", err)
		return
	}
	response.SuccessWithPage(c, rows, response.BuildPagination(page, pageSize, total))
}

// EarningStatusRequest 收益状态流转请求
type EarningStatusRequest struct {
	Status string `json:"status" binding:"required"`
}

// UpdateEarningStatus 管理端流转收益状态
func (h *Handler) UpdateEarningStatus(c *gin.Context) {
	if h.AmbassadorService == nil {
		respondError(c, response.CodeInternal, "保存失败", nil)
		return
	}
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		respondError(c, response.CodeBadRequest, "参数错误", nil)
		return
	}
	var req EarningStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "参数错误", err)
		return
	}

	earning, err := h.AmbassadorService.UpdateEarningStatus(uint(id), req.Status)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrNotFound):
			respondError(c, response.CodeNotFound, "收益记录不存在", nil)
		case errors.Is(err, service.ErrEarningStatusInvalid):
			respondError(c, response.CodeBadRequest, "收益状态流转无效", nil)
		default:
			respondError(c, response.CodeInternal, "保存失败", err)
		}
		return
	}
	response.Success(c, earning)
}

package public

import (
	"errors"
	"strconv"
	"strings"

	"github.com/magabit/ambassador/internal/http/response"
	"github.com/magabit/ambassador/internal/service"

	"github.com/gin-gonic/gin"
)

// GetAmbassadorDashboard 获取大使中心数据
func (h *Handler) GetAmbassadorDashboard(c *gin.Context) {
	uid, ok := getUserID(c)
	if !ok {
		return
	}
	if h.AmbassadorService == nil {
		respondError(c, response.CodeInternal, "查询失败", nil)
		return
	}
	data, err := h.AmbassadorService.GetDashboard(uid)
	if err != nil {
		respondError(c, response.CodeInternal, "查询失败", err)
		return
	}
	response.Success(c, data)
}

// CreateLinkRequest 创建推广链接请求
type CreateLinkRequest struct {
	LinkType string `json:"link_type"`
}

// CreateAmbassadorLink 创建推广链接
func (h *Handler) CreateAmbassadorLink(c *gin.Context) {
	uid, ok := getUserID(c)
	if !ok {
		return
	}
	// 请求体可省略，默认创建通用链接；类型合法性由服务层校验。
	var req CreateLinkRequest
	_ = c.ShouldBindJSON(&req)
	if h.AmbassadorService == nil {
		respondError(c, response.CodeInternal, "保存失败", nil)
		return
	}

	link, err := h.AmbassadorService.CreateLink(uid, req.LinkType)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrLinkTypeInvalid):
			respondError(c, response.CodeBadRequest, "推广链接类型无效", nil)
		case errors.Is(err, service.ErrUserDisabled):
			respondError(c, response.CodeForbidden, "用户已被禁用", nil)
		case errors.Is(err, service.ErrNotFound):
			respondError(c, response.CodeNotFound, "用户不存在", nil)
		default:
			respondError(c, response.CodeInternal, "保存失败", err)
		}
		return
	}
	response.Success(c, link)
}

// ListAmbassadorLinks 查询我的推广链接
func (h *Handler) ListAmbassadorLinks(c *gin.Context) {
	uid, ok := getUserID(c)
	if !ok {
		return
	}
	if h.AmbassadorService == nil {
		respondError(c, response.CodeInternal, "查询失败", nil)
		return
	}
	links, err := h.AmbassadorService.ListLinks(uid)
	if err != nil {
		respondError(c, response.CodeInternal, "查询失败", err)
		return
	}
	response.Success(c, links)
}

// DeactivateAmbassadorLink 停用我的推广链接
func (h *Handler) DeactivateAmbassadorLink(c *gin.Context) {
	uid, ok := getUserID(c)
	if !ok {
		return
	}
	linkID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || linkID == 0 {
		respondError(c, response.CodeBadRequest, "参数错误", err)
		return
	}
	if h.AmbassadorService == nil {
		respondError(c, response.CodeInternal, "保存失败", nil)
		return
	}

	link, err := h.AmbassadorService.DeactivateLink(uid, uint(linkID))
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

// ListAmbassadorEarnings 查询我的收益记录
func (h *Handler) ListAmbassadorEarnings(c *gin.Context) {
	uid, ok := getUserID(c)
	if !ok {
		return
	}
	if h.AmbassadorService == nil {
		respondError(c, response.CodeInternal, "查询失败", nil)
		return
	}
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))
	page, pageSize = normalizePagination(page, pageSize)
	status := strings.TrimSpace(c.Query("status"))

	rows, total, err := h.AmbassadorService.ListEarnings(uid, page, pageSize, status)
	if err != nil {
		respondError(c, response.CodeInternal, "查询失败", err)
		return
	}
	response.SuccessWithPage(c, rows, response.BuildPagination(page, pageSize, total))
}

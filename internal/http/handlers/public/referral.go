package public

import (
	"errors"
	"net/http"
	"strings"

	"github.com/magabit/ambassador/internal/http/response"
	"github.com/magabit/ambassador/internal/models"
	"github.com/magabit/ambassador/internal/service"

	"github.com/gin-gonic/gin"
)

// VisitRecordRequest 推广访问上报请求
type VisitRecordRequest struct {
	Code           string `json:"code" binding:"required"`
	LandingPageURL string `json:"landing_page_url"`
	Referrer       string `json:"referrer"`
	CountryCode    string `json:"country_code"`
	StateCode      string `json:"state_code"`
	ScreenSize     string `json:"screen_size"`
	Language       string `json:"language"`
}

// RecordReferralVisit 记录推广访问
func (h *Handler) RecordReferralVisit(c *gin.Context) {
	var req VisitRecordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "参数错误", err)
		return
	}
	if h.VisitService == nil {
		respondError(c, response.CodeInternal, "保存失败", nil)
		return
	}

	result, err := h.VisitService.RecordVisit(service.VisitRecordInput{
		Code:           req.Code,
		ClientIP:       c.ClientIP(),
		UserAgent:      c.GetHeader("User-Agent"),
		LandingPageURL: req.LandingPageURL,
		Referrer:       req.Referrer,
		CountryCode:    req.CountryCode,
		StateCode:      req.StateCode,
		ScreenSize:     req.ScreenSize,
		Language:       req.Language,
	})
	if err != nil {
		switch {
		case errors.Is(err, service.ErrLinkNotFound), errors.Is(err, service.ErrLinkInactive):
			// 未知推广码与已停用推广码对外响应一致，避免探测有效码。
			respondError(c, response.CodeBadRequest, "推广码无效", nil)
		case errors.Is(err, service.ErrRateLimited):
			respondError(c, response.CodeTooManyRequests, "访问过于频繁，请稍后再试", nil)
		default:
			respondError(c, response.CodeInternal, "保存失败", err)
		}
		return
	}

	h.setAttributionCookie(c, result.Cookie)
	response.Success(c, gin.H{
		"visit_id":  result.Visit.ID,
		"duplicate": result.Duplicate,
	})
}

// ConversionRecordRequest 转化上报请求
type ConversionRecordRequest struct {
	ReferralCode string `json:"referral_code"`
	OrderRef     string `json:"order_ref" binding:"required"`
	OrderAmount  string `json:"order_amount" binding:"required"`
	BuyerUserID  uint   `json:"buyer_user_id"`
}

// RecordReferralConversion 记录转化事件
func (h *Handler) RecordReferralConversion(c *gin.Context) {
	var req ConversionRecordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "参数错误", err)
		return
	}
	if h.ConversionService == nil {
		respondError(c, response.CodeInternal, "保存失败", nil)
		return
	}
	amount, err := models.NewMoneyFromString(req.OrderAmount)
	if err != nil {
		respondError(c, response.CodeBadRequest, "订单金额无效", err)
		return
	}

	code := strings.TrimSpace(req.ReferralCode)
	if code == "" {
		code = h.readAttributionCookie(c)
	}

	result, err := h.ConversionService.Attribute(service.ConversionInput{
		ReferralCode: code,
		ClientIP:     c.ClientIP(),
		BuyerUserID:  req.BuyerUserID,
		OrderRef:     req.OrderRef,
		OrderAmount:  amount.Decimal,
	})
	if err != nil {
		switch {
		case errors.Is(err, service.ErrNoAttribution):
			response.Success(c, gin.H{"attributed": false})
		case errors.Is(err, service.ErrInvalidCode):
			respondError(c, response.CodeBadRequest, "推广码无效", nil)
		case errors.Is(err, service.ErrOrderRefRequired):
			respondError(c, response.CodeBadRequest, "订单标识不能为空", nil)
		case errors.Is(err, service.ErrOrderAmountInvalid):
			respondError(c, response.CodeBadRequest, "订单金额无效", nil)
		default:
			respondError(c, response.CodeInternal, "保存失败", err)
		}
		return
	}

	data := gin.H{
		"attributed": result.Attributed,
		"duplicate":  result.Duplicate,
	}
	if result.Earning != nil {
		data["earning_id"] = result.Earning.ID
		data["amount"] = result.Earning.Amount
	}
	if result.Attributed {
		data["tier_changed"] = result.TierChanged
		data["current_tier"] = result.CurrentTier
		h.clearAttributionCookie(c)
	}
	response.Success(c, data)
}

// GetAttribution 查询当前访客的归因状态
func (h *Handler) GetAttribution(c *gin.Context) {
	code := h.readAttributionCookie(c)
	if code == "" {
		response.Success(c, gin.H{})
		return
	}

	expiresIn := 0
	if h.SettingService != nil {
		if setting, err := h.SettingService.GetAffiliateSetting(); err == nil {
			expiresIn = setting.CookieMaxAgeDays * 24 * 3600
		}
	}
	response.Success(c, gin.H{
		"referral_code": code,
		"expires_in":    expiresIn,
	})
}

// ClearAttribution 清除当前访客的归因 Cookie
func (h *Handler) ClearAttribution(c *gin.Context) {
	h.clearAttributionCookie(c)
	response.Success(c, gin.H{"cleared": true})
}

func (h *Handler) setAttributionCookie(c *gin.Context, cookie service.AttributionCookie) {
	if cookie.Name == "" || cookie.Code == "" {
		return
	}
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(cookie.Name, cookie.Code, cookie.MaxAge, "/", h.Config.Referral.CookieDomain, false, true)
}

func (h *Handler) readAttributionCookie(c *gin.Context) string {
	value, err := c.Cookie(h.Config.Referral.CookieName)
	if err != nil {
		return ""
	}
	return strings.TrimSpace(value)
}

func (h *Handler) clearAttributionCookie(c *gin.Context) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(h.Config.Referral.CookieName, "", -1, "/", h.Config.Referral.CookieDomain, false, true)
}

package service

import (
	"errors"
	"strings"
)

// 业务错误定义
var (
	ErrNotFound               = errors.New("记录不存在")
	ErrUserDisabled           = errors.New("用户已被禁用")
	ErrLinkNotFound           = errors.New("推广链接不存在")
	ErrLinkInactive           = errors.New("推广链接已停用")
	ErrRateLimited            = errors.New("访问过于频繁")
	ErrInvalidCode            = errors.New("推广码无效")
	ErrNoAttribution          = errors.New("无可归因的推广记录")
	ErrOrderRefRequired       = errors.New("订单标识不能为空")
	ErrOrderAmountInvalid     = errors.New("订单金额无效")
	ErrLinkCodeExhausted      = errors.New("推广码生成失败")
	ErrLinkTypeInvalid        = errors.New("推广链接类型无效")
	ErrEarningStatusInvalid   = errors.New("收益状态流转无效")
	ErrAffiliateConfigInvalid = errors.New("推广配置无效")
	ErrAuditTargetInvalid     = errors.New("操作目标用户无效")
)

func isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "unique") || strings.Contains(msg, "duplicate")
}

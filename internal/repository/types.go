package repository

import "time"

// ReferralLinkListFilter 查询推广链接列表的过滤条件
type ReferralLinkListFilter struct {
	Page        int
	PageSize    int
	OwnerUserID uint
	LinkType    string
	IsActive    *bool
	Keyword     string
}

// EarningListFilter 查询收益列表的过滤条件
type EarningListFilter struct {
	Page             int
	PageSize         int
	AmbassadorUserID uint
	OrderRef         string
	Status           string
	CreatedFrom      *time.Time
	CreatedTo        *time.Time
}

// AuditLogListFilter 查询审计日志的过滤条件
type AuditLogListFilter struct {
	Page            int
	PageSize        int
	OperatorAdminID uint
	TargetUserID    uint
	Action          string
}

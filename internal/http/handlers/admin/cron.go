package admin

import (
	"time"

	"github.com/magabit/ambassador/internal/cache"
	"github.com/magabit/ambassador/internal/constants"
	"github.com/magabit/ambassador/internal/http/response"

	"github.com/gin-gonic/gin"
)

// ResetRateLimitCounters 清理已过期的访问频控计数。
// 计数键自带 TTL，这里只兜底清理失去过期时间的残留键，重复调用无副作用。
func (h *Handler) ResetRateLimitCounters(c *gin.Context) {
	if !cache.Enabled() {
		response.Success(c, gin.H{"deleted": 0})
		return
	}

	ctx := c.Request.Context()
	client := cache.Client()
	pattern := constants.RateLimitPrefixReferralVisit + ":*"

	var deleted int64
	var cursor uint64
	for {
		keys, next, err := client.Scan(ctx, cursor, pattern, 200).Result()
		if err != nil {
			respondError(c, response.CodeInternal, "清理失败", err)
			return
		}
		for _, key := range keys {
			ttl, err := client.TTL(ctx, key).Result()
			if err != nil {
				continue
			}
			// TTL 为 -1 表示键失去了过期时间，正常计数键不应出现。
			if ttl < 0 {
				if err := client.Del(ctx, key).Err(); err == nil {
					deleted++
				}
			}
		}
		cursor = next
		if cursor == 0 {
			break
		}
	}
	response.Success(c, gin.H{"deleted": deleted})
}

// RunMonthlyRollover 执行月初等级重置
func (h *Handler) RunMonthlyRollover(c *gin.Context) {
	if h.TierService == nil {
		respondError(c, response.CodeInternal, "执行失败", nil)
		return
	}
	affected, err := h.TierService.MonthlyRollover(time.Now())
	if err != nil {
		respondError(c, response.CodeInternal, "执行失败", err)
		return
	}
	response.Success(c, gin.H{"affected": affected})
}

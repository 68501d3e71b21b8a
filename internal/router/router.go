package router

import (
	"github.com/magabit/ambassador/internal/cache"
	"github.com/magabit/ambassador/internal/config"
	"github.com/magabit/ambassador/internal/constants"
	adminhandlers "github.com/magabit/ambassador/internal/http/handlers/admin"
	publichandlers "github.com/magabit/ambassador/internal/http/handlers/public"
	"github.com/magabit/ambassador/internal/logger"
	"github.com/magabit/ambassador/internal/provider"

	"github.com/gin-gonic/gin"
)

// SetupRouter 初始化路由
func SetupRouter(cfg *config.Config, c *provider.Container) *gin.Engine {
	log := logger.L
	if log == nil {
		log = logger.Init(cfg.Server.Mode, cfg.Log.ToLoggerOptions())
	}
	r := gin.New()

	// 初始化 Handler（按前台/后台分组）
	publicHandler := publichandlers.New(c)
	adminHandler := adminhandlers.New(c)
	redisClient := cache.Client()
	// 访问频控键不带缓存前缀，定时清理任务按同一前缀扫描
	visitRule := RateLimitRule{
		Prefix:        constants.RateLimitPrefixReferralVisit,
		WindowSeconds: cfg.Referral.VelocityWindowSeconds,
		MaxRequests:   cfg.Referral.VelocityMaxVisits,
		Message:       "访问过于频繁，请稍后再试",
	}

	// 中间件
	r.Use(gin.Recovery())
	r.Use(RequestIDMiddleware())
	r.Use(LoggerMiddleware(log))
	r.Use(CORSMiddleware(cfg.CORS))

	// API 路由组
	apiV1 := r.Group("/api/v1")
	{
		// 推广归因接口（匿名可访问）
		referral := apiV1.Group("/referral")
		{
			referral.POST("/visits", RateLimitMiddleware(redisClient, visitRule, KeyByIPAndJSONField("code")), publicHandler.RecordReferralVisit)
			referral.POST("/conversions", publicHandler.RecordReferralConversion)
			referral.GET("/attribution", publicHandler.GetAttribution)
			referral.DELETE("/attribution", publicHandler.ClearAttribution)
		}

		// 大使自助接口（需用户鉴权）
		user := apiV1.Group("")
		user.Use(UserJWTAuthMiddleware(cfg.UserJWT.SecretKey, c.UserRepo))
		{
			user.GET("/me/ambassador/dashboard", publicHandler.GetAmbassadorDashboard)
			user.GET("/me/ambassador/links", publicHandler.ListAmbassadorLinks)
			user.POST("/me/ambassador/links", publicHandler.CreateAmbassadorLink)
			user.POST("/me/ambassador/links/:id/deactivate", publicHandler.DeactivateAmbassadorLink)
			user.GET("/me/ambassador/earnings", publicHandler.ListAmbassadorEarnings)
		}

		// 管理员接口
		admin := apiV1.Group("/admin")
		admin.Use(AdminJWTAuthMiddleware(cfg.AdminJWT.SecretKey))
		{
			// 分佣配置与推广管理
			admin.GET("/affiliate/settings", adminHandler.GetAffiliateSettings)
			admin.PUT("/affiliate/settings", adminHandler.UpdateAffiliateSettings)
			admin.GET("/affiliate/links", adminHandler.ListReferralLinks)
			admin.POST("/affiliate/links/:id/deactivate", adminHandler.DeactivateReferralLink)
			admin.GET("/affiliate/earnings", adminHandler.ListEarnings)
			admin.PUT("/affiliate/earnings/:id/status", adminHandler.UpdateEarningStatus)

			// 身份代管审计
			admin.POST("/impersonation/start", adminHandler.StartImpersonation)
			admin.POST("/impersonation/stop", adminHandler.StopImpersonation)
			admin.GET("/audit-logs", adminHandler.ListAuditLogs)
		}
	}

	// 定时触发接口（共享令牌校验）
	cron := r.Group("/cron")
	cron.Use(CronTokenMiddleware(cfg.Cron.Token))
	{
		cron.POST("/rate-limit-reset", adminHandler.ResetRateLimitCounters)
		cron.POST("/monthly-rollover", adminHandler.RunMonthlyRollover)
	}

	// 健康检查
	r.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	return r
}

package provider

import (
	"github.com/magabit/ambassador/internal/cache"
	"github.com/magabit/ambassador/internal/config"
	"github.com/magabit/ambassador/internal/logger"
	"github.com/magabit/ambassador/internal/models"
	"github.com/magabit/ambassador/internal/queue"
	"github.com/magabit/ambassador/internal/repository"
	"github.com/magabit/ambassador/internal/service"
)

// Container 依赖注入容器
type Container struct {
	Config      *config.Config
	QueueClient *queue.Client

	// Repositories
	UserRepo          repository.UserRepository
	ReferralLinkRepo  repository.ReferralLinkRepository
	ReferralVisitRepo repository.ReferralVisitRepository
	EarningRepo       repository.EarningRepository
	TierRepo          repository.TierRepository
	SettingRepo       repository.SettingRepository
	AuditLogRepo      repository.AuditLogRepository

	// Services
	SettingService    *service.SettingService
	VisitService      *service.VisitService
	ConversionService *service.ConversionService
	TierService       *service.TierService
	AmbassadorService *service.AmbassadorService
	AuditService      *service.AuditService
}

// NewContainer 初始化容器
func NewContainer(cfg *config.Config) *Container {
	// 初始化缓存
	if err := cache.InitRedis(&cfg.Redis); err != nil {
		logger.Warnw("provider_init_redis_failed", "error", err)
	}

	// 初始化队列客户端
	var queueClient *queue.Client
	if cfg.Queue.Enabled {
		qc, err := queue.NewClient(&cfg.Queue)
		if err != nil {
			logger.Errorw("provider_init_queue_client_failed", "error", err)
		} else {
			queueClient = qc
		}
	}

	c := &Container{
		Config:      cfg,
		QueueClient: queueClient,
	}

	// 1. 初始化 Repositories
	c.initRepositories()

	// 2. 初始化 Services
	c.initServices()

	return c
}

func (c *Container) initRepositories() {
	db := models.DB
	c.UserRepo = repository.NewUserRepository(db)
	c.ReferralLinkRepo = repository.NewReferralLinkRepository(db)
	c.ReferralVisitRepo = repository.NewReferralVisitRepository(db)
	c.EarningRepo = repository.NewEarningRepository(db)
	c.TierRepo = repository.NewTierRepository(db)
	c.SettingRepo = repository.NewSettingRepository(db)
	c.AuditLogRepo = repository.NewAuditLogRepository(db)
}

func (c *Container) initServices() {
	referral := c.Config.Referral

	c.SettingService = service.NewSettingService(c.SettingRepo)
	c.TierService = service.NewTierService(c.TierRepo, c.SettingService)
	c.VisitService = service.NewVisitService(c.ReferralLinkRepo, c.ReferralVisitRepo, c.SettingService, service.VisitServiceOptions{
		CookieName:            referral.CookieName,
		IPHashSecret:          referral.IPHashSecret,
		VisitDedupeHours:      referral.VisitDedupeHours,
		VelocityMaxVisits:     referral.VelocityMaxVisits,
		VelocityWindowSeconds: referral.VelocityWindowSeconds,
		UserAgentMaxLen:       referral.UserAgentMaxLen,
	})
	c.ConversionService = service.NewConversionService(
		c.ReferralLinkRepo,
		c.ReferralVisitRepo,
		c.EarningRepo,
		c.TierService,
		c.SettingService,
		c.QueueClient,
		referral.IPHashSecret,
	)
	c.AmbassadorService = service.NewAmbassadorService(c.ReferralLinkRepo, c.ReferralVisitRepo, c.EarningRepo, c.UserRepo, c.TierService)
	c.AuditService = service.NewAuditService(c.AuditLogRepo, c.UserRepo)
}

package main

import (
	"github.com/magabit/ambassador/internal/config"
	"github.com/magabit/ambassador/internal/constants"
	"github.com/magabit/ambassador/internal/logger"
	"github.com/magabit/ambassador/internal/models"
	"github.com/magabit/ambassador/internal/service"
)

func main() {
	// 连接数据库
	cfg := config.Load()
	logger.Init(cfg.Server.Mode, cfg.Log.ToLoggerOptions())
	stdLog := logger.StdLogger()
	if err := models.InitDB(cfg.Database.Driver, cfg.Database.DSN, models.DBPoolConfig{
		MaxOpenConns:           cfg.Database.Pool.MaxOpenConns,
		MaxIdleConns:           cfg.Database.Pool.MaxIdleConns,
		ConnMaxLifetimeSeconds: cfg.Database.Pool.ConnMaxLifetimeSeconds,
		ConnMaxIdleTimeSeconds: cfg.Database.Pool.ConnMaxIdleTimeSeconds,
	}); err != nil {
		stdLog.Fatalf("Failed to connect database: %v", err)
	}

	// 自动迁移
	if err := models.AutoMigrate(); err != nil {
		stdLog.Fatalf("Failed to migrate database: %v", err)
	}

	// 添加演示用户
	users := []models.User{
		{Email: "ambassador@example.com", DisplayName: "演示大使", Status: constants.UserStatusActive},
		{Email: "buyer@example.com", DisplayName: "演示买家", Status: constants.UserStatusActive},
	}
	for i := range users {
		var existing models.User
		if err := models.DB.Where("email = ?", users[i].Email).First(&existing).Error; err != nil {
			if err := models.DB.Create(&users[i]).Error; err != nil {
				stdLog.Printf("Failed to create user %s: %v", users[i].Email, err)
			} else {
				stdLog.Printf("Created user: %s (id=%d)", users[i].Email, users[i].ID)
			}
		} else {
			users[i] = existing
			stdLog.Printf("User already exists: %s (id=%d)", existing.Email, existing.ID)
		}
	}
	ambassadorID := users[0].ID

	// 添加演示推广链接
	links := []models.ReferralLink{
		{Code: "TEST123", OwnerUserID: ambassadorID, LinkType: constants.ReferralLinkTypeGeneral, IsActive: true},
		{Code: "CAMP2026", OwnerUserID: ambassadorID, LinkType: constants.ReferralLinkTypeCampaign, IsActive: true},
	}
	for _, link := range links {
		var existing models.ReferralLink
		if err := models.DB.Where("code = ?", link.Code).First(&existing).Error; err != nil {
			if err := models.DB.Create(&link).Error; err != nil {
				stdLog.Printf("Failed to create referral link %s: %v", link.Code, err)
			} else {
				stdLog.Printf("Created referral link: %s", link.Code)
			}
		} else {
			stdLog.Printf("Referral link already exists: %s", link.Code)
		}
	}

	// 初始化分佣配置（已存在则跳过，避免覆盖线上调整）
	var existingSetting models.Setting
	if err := models.DB.Where("key = ?", constants.SettingKeyAffiliateConfig).First(&existingSetting).Error; err != nil {
		setting := models.Setting{
			Key:       constants.SettingKeyAffiliateConfig,
			ValueJSON: models.JSON(service.AffiliateSettingToMap(service.AffiliateDefaultSetting())),
		}
		if err := models.DB.Create(&setting).Error; err != nil {
			stdLog.Printf("Failed to create affiliate config: %v", err)
		} else {
			stdLog.Printf("Created affiliate config with defaults")
		}
	} else {
		stdLog.Printf("Affiliate config already exists")
	}

	stdLog.Printf("Seed finished")
}

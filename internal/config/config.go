package config

import (
	"fmt"
	"strings"

	"github.com/magabit/ambassador/internal/logger"

	"github.com/spf13/viper"
)

// Config 应用配置结构
type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Log      LogConfig      `mapstructure:"log"`
	Database DatabaseConfig `mapstructure:"database"`
	Redis    RedisConfig    `mapstructure:"redis"`
	Queue    QueueConfig    `mapstructure:"queue"`
	CORS     CORSConfig     `mapstructure:"cors"`
	UserJWT  JWTConfig      `mapstructure:"user_jwt"`
	AdminJWT JWTConfig      `mapstructure:"admin_jwt"`
	Referral ReferralConfig `mapstructure:"referral"`
	Cron     CronConfig     `mapstructure:"cron"`
}

// ServerConfig 服务器配置
type ServerConfig struct {
	Host string `mapstructure:"host"`
	Port string `mapstructure:"port"`
	Mode string `mapstructure:"mode"` // debug / release
}

// LogConfig 日志配置
type LogConfig struct {
	Dir        string `mapstructure:"dir"`
	Filename   string `mapstructure:"filename"`
	MaxSizeMB  int    `mapstructure:"max_size_mb"`
	MaxBackups int    `mapstructure:"max_backups"`
	MaxAgeDays int    `mapstructure:"max_age_days"`
	Compress   bool   `mapstructure:"compress"`
}

// ToLoggerOptions 转换为 logger 配置
func (c LogConfig) ToLoggerOptions() logger.Options {
	return logger.Options{
		Dir:        c.Dir,
		Filename:   c.Filename,
		MaxSizeMB:  c.MaxSizeMB,
		MaxBackups: c.MaxBackups,
		MaxAgeDays: c.MaxAgeDays,
		Compress:   c.Compress,
	}
}

// DatabasePoolConfig 数据库连接池配置
type DatabasePoolConfig struct {
	MaxOpenConns           int `mapstructure:"max_open_conns"`
	MaxIdleConns           int `mapstructure:"max_idle_conns"`
	ConnMaxLifetimeSeconds int `mapstructure:"conn_max_lifetime_seconds"`
	ConnMaxIdleTimeSeconds int `mapstructure:"conn_max_idle_time_seconds"`
}

// DatabaseConfig 数据库配置
type DatabaseConfig struct {
	Driver string             `mapstructure:"driver"` // 数据库驱动（sqlite/postgres）
	DSN    string             `mapstructure:"dsn"`    // 数据库连接串
	Pool   DatabasePoolConfig `mapstructure:"pool"`
}

// JWTConfig JWT 配置
type JWTConfig struct {
	SecretKey   string `mapstructure:"secret"`
	ExpireHours int    `mapstructure:"expire_hours"`
}

// RedisConfig Redis 配置
type RedisConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
	Prefix   string `mapstructure:"prefix"`
}

// QueueConfig 异步队列配置
type QueueConfig struct {
	Enabled     bool           `mapstructure:"enabled"`
	Host        string         `mapstructure:"host"`
	Port        int            `mapstructure:"port"`
	Password    string         `mapstructure:"password"`
	DB          int            `mapstructure:"db"`
	Concurrency int            `mapstructure:"concurrency"`
	Queues      map[string]int `mapstructure:"queues"`
}

// CORSConfig 跨域配置
type CORSConfig struct {
	AllowedOrigins   []string `mapstructure:"allowed_origins"`
	AllowedMethods   []string `mapstructure:"allowed_methods"`
	AllowedHeaders   []string `mapstructure:"allowed_headers"`
	AllowCredentials bool     `mapstructure:"allow_credentials"`
	MaxAge           int      `mapstructure:"max_age"`
}

// ReferralConfig 归因与防刷配置
type ReferralConfig struct {
	CookieName            string `mapstructure:"cookie_name"`             // 归因 Cookie 名称
	CookieDomain          string `mapstructure:"cookie_domain"`           // 归因 Cookie 域
	CookieMaxAgeDays      int    `mapstructure:"cookie_max_age_days"`     // Cookie 有效期（短期首触）
	AttributionWindowDays int    `mapstructure:"attribution_window_days"` // 服务端归因回溯窗口（与 Cookie 有效期相互独立）
	VisitDedupeHours      int    `mapstructure:"visit_dedupe_hours"`      // 同链接同IP访问去重窗口
	VelocityMaxVisits     int    `mapstructure:"velocity_max_visits"`     // 单链接滚动窗口内最大访问数
	VelocityWindowSeconds int    `mapstructure:"velocity_window_seconds"` // 访问频控窗口秒数
	IPHashSecret          string `mapstructure:"ip_hash_secret"`          // IP 摘要密钥（HMAC，IP 不可逆存储）
	UserAgentMaxLen       int    `mapstructure:"user_agent_max_len"`      // UA 截断长度
}

// CronConfig 定时触发配置
type CronConfig struct {
	Token string `mapstructure:"token"` // 定时触发接口共享令牌
}

// Load 从 config.yml 加载配置
func Load() *Config {
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")
	viper.AddConfigPath("../")   // 如果从 cmd/server 运行
	viper.AddConfigPath("./etc") // etc 文件夹

	viper.SetDefault("server.host", "0.0.0.0")
	viper.SetDefault("server.port", "8080")
	viper.SetDefault("server.mode", "debug")
	viper.SetDefault("log.dir", "")
	viper.SetDefault("log.filename", "ambassador.log")
	viper.SetDefault("log.max_size_mb", 100)
	viper.SetDefault("log.max_backups", 7)
	viper.SetDefault("log.max_age_days", 30)
	viper.SetDefault("log.compress", true)
	viper.SetDefault("database.driver", "sqlite")
	viper.SetDefault("database.dsn", "./db/ambassador.db")
	viper.SetDefault("database.pool.max_open_conns", 1)
	viper.SetDefault("database.pool.max_idle_conns", 1)
	viper.SetDefault("database.pool.conn_max_lifetime_seconds", 0)
	viper.SetDefault("database.pool.conn_max_idle_time_seconds", 0)
	viper.SetDefault("redis.enabled", true)
	viper.SetDefault("redis.host", "127.0.0.1")
	viper.SetDefault("redis.port", 6379)
	viper.SetDefault("redis.password", "")
	viper.SetDefault("redis.db", 0)
	viper.SetDefault("redis.prefix", "mg")
	viper.SetDefault("queue.enabled", true)
	viper.SetDefault("queue.host", "127.0.0.1")
	viper.SetDefault("queue.port", 6379)
	viper.SetDefault("queue.password", "")
	viper.SetDefault("queue.db", 1)
	viper.SetDefault("queue.concurrency", 10)
	viper.SetDefault("queue.queues", map[string]int{"default": 1})
	viper.SetDefault("cors.allowed_origins", []string{"*"})
	viper.SetDefault("cors.allow_credentials", false)
	viper.SetDefault("cors.max_age", 3600)
	viper.SetDefault("user_jwt.secret", "user-change-me-in-production")
	viper.SetDefault("user_jwt.expire_hours", 24)
	viper.SetDefault("admin_jwt.secret", "admin-change-me-in-production")
	viper.SetDefault("admin_jwt.expire_hours", 24)
	viper.SetDefault("referral.cookie_name", "magabit_ref")
	viper.SetDefault("referral.cookie_domain", "")
	viper.SetDefault("referral.cookie_max_age_days", 30)
	viper.SetDefault("referral.attribution_window_days", 365)
	viper.SetDefault("referral.visit_dedupe_hours", 24)
	viper.SetDefault("referral.velocity_max_visits", 10)
	viper.SetDefault("referral.velocity_window_seconds", 3600)
	viper.SetDefault("referral.ip_hash_secret", "change-me-in-production")
	viper.SetDefault("referral.user_agent_max_len", 512)
	viper.SetDefault("cron.token", "")

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			logger.Warnw("config_file_not_found_use_defaults")
		} else {
			logger.Warnw("config_file_read_failed", "error", err)
		}
	} else {
		logger.Infow("config_file_loaded", "file", viper.ConfigFileUsed())
	}

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		logger.Errorw("config_unmarshal_failed", "error", err)
	}
	normalize(&cfg)
	return &cfg
}

func normalize(cfg *Config) {
	if cfg == nil {
		return
	}
	cfg.Server.Mode = strings.ToLower(strings.TrimSpace(cfg.Server.Mode))
	if cfg.Server.Mode == "" {
		cfg.Server.Mode = "debug"
	}
	if strings.TrimSpace(cfg.Referral.CookieName) == "" {
		cfg.Referral.CookieName = "magabit_ref"
	}
	if cfg.Referral.CookieMaxAgeDays <= 0 {
		cfg.Referral.CookieMaxAgeDays = 30
	}
	if cfg.Referral.AttributionWindowDays <= 0 {
		cfg.Referral.AttributionWindowDays = 365
	}
	if cfg.Referral.VisitDedupeHours <= 0 {
		cfg.Referral.VisitDedupeHours = 24
	}
	if cfg.Referral.VelocityMaxVisits <= 0 {
		cfg.Referral.VelocityMaxVisits = 10
	}
	if cfg.Referral.VelocityWindowSeconds <= 0 {
		cfg.Referral.VelocityWindowSeconds = 3600
	}
	if cfg.Referral.UserAgentMaxLen <= 0 {
		cfg.Referral.UserAgentMaxLen = 512
	}
}

// Addr 返回监听地址
func (c ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%s", c.Host, c.Port)
}

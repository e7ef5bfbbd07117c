package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// 报告组装策略
const (
	AssemblyInterpolate = "interpolate"
	AssemblyEditorial   = "editorial"
)

// 套餐名称
const (
	PlanFree  = "free"
	PlanPro   = "pro"
	PlanElite = "elite"
)

type Config struct {
	Server    ServerConfig          `mapstructure:"server"`
	Log       LogConfig             `mapstructure:"log"`
	Database  DatabaseConfig        `mapstructure:"database"`
	Redis     RedisConfig           `mapstructure:"redis"`
	Auth      AuthConfig            `mapstructure:"auth"`
	Generator GeneratorConfig       `mapstructure:"generator"`
	Report    ReportConfig          `mapstructure:"report"`
	Plans     map[string]PlanConfig `mapstructure:"plans"`
	Payment   PaymentConfig         `mapstructure:"payment"`
	OSS       OSSConfig             `mapstructure:"oss"`
	CORS      CORSConfig            `mapstructure:"cors"`
	Cron      CronConfig            `mapstructure:"cron"`
}

type ServerConfig struct {
	Host string `mapstructure:"host"`
	Port int    `mapstructure:"port"`
	Mode string `mapstructure:"mode"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Pretty bool   `mapstructure:"pretty"`
}

type DatabaseConfig struct {
	Host         string `mapstructure:"host"`
	Port         int    `mapstructure:"port"`
	Username     string `mapstructure:"username"`
	Password     string `mapstructure:"password"`
	Database     string `mapstructure:"database"`
	MaxIdleConns int    `mapstructure:"max_idle_conns"`
	MaxOpenConns int    `mapstructure:"max_open_conns"`
}

type RedisConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
	PoolSize int    `mapstructure:"pool_size"`
}

// AuthConfig 身份平台令牌校验配置，Secret 与 JWKSURL 至少填一个
type AuthConfig struct {
	Secret   string `mapstructure:"secret"`
	JWKSURL  string `mapstructure:"jwks_url"`
	Issuer   string `mapstructure:"issuer"`
	Audience string `mapstructure:"audience"`
}

type GeneratorConfig struct {
	WebhookURL string        `mapstructure:"webhook_url"`
	Timeout    time.Duration `mapstructure:"timeout"`
}

type ReportConfig struct {
	Assembly string `mapstructure:"assembly"` // interpolate, editorial
}

// PlanConfig 套餐配置
type PlanConfig struct {
	DisplayName   string `mapstructure:"display_name"`
	Analyses      int    `mapstructure:"analyses"`
	AmountXOF     int64  `mapstructure:"amount_xof"`
	LygosPriceID  string `mapstructure:"lygos_price_id"`
	StripePriceID string `mapstructure:"stripe_price_id"`
}

type PaymentConfig struct {
	DefaultProvider string        `mapstructure:"default_provider"` // moneroo, lygos, stripe
	FrontendURL     string        `mapstructure:"frontend_url"`
	Moneroo         MonerooConfig `mapstructure:"moneroo"`
	Lygos           LygosConfig   `mapstructure:"lygos"`
	Stripe          StripeConfig  `mapstructure:"stripe"`
}

type MonerooConfig struct {
	BaseURL       string `mapstructure:"base_url"`
	SecretKey     string `mapstructure:"secret_key"`
	WebhookSecret string `mapstructure:"webhook_secret"`
}

type LygosConfig struct {
	BaseURL       string `mapstructure:"base_url"`
	APIKey        string `mapstructure:"api_key"`
	WebhookSecret string `mapstructure:"webhook_secret"`
}

type StripeConfig struct {
	SecretKey     string `mapstructure:"secret_key"`
	WebhookSecret string `mapstructure:"webhook_secret"`
}

type OSSConfig struct {
	Endpoint        string `mapstructure:"endpoint"`
	AccessKeyID     string `mapstructure:"access_key_id"`
	AccessKeySecret string `mapstructure:"access_key_secret"`
	BucketName      string `mapstructure:"bucket_name"`
	CDNDomain       string `mapstructure:"cdn_domain"`
}

type CORSConfig struct {
	AllowedOrigins []string `mapstructure:"allowed_origins"`
	AllowedMethods []string `mapstructure:"allowed_methods"`
	AllowedHeaders []string `mapstructure:"allowed_headers"`
}

type CronConfig struct {
	RecountInterval time.Duration `mapstructure:"recount_interval"`
}

func Load(configPath string) (*Config, error) {
	// 优先尝试读取 config.local.yaml（包含真实密钥，不提交到git）
	dir := filepath.Dir(configPath)
	localConfigPath := filepath.Join(dir, "config.local.yaml")

	if _, err := os.Stat(localConfigPath); err == nil {
		configPath = localConfigPath
	}

	v := viper.New()
	v.SetConfigFile(configPath)
	v.SetConfigType("yaml")
	setDefaults(v)

	// 环境变量覆盖
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	if err := v.ReadInConfig(); err != nil {
		return nil, err
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}
	if len(cfg.Plans) == 0 {
		cfg.Plans = DefaultPlans()
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.mode", "debug")
	v.SetDefault("log.level", "info")
	v.SetDefault("generator.timeout", 120*time.Second)
	v.SetDefault("report.assembly", AssemblyInterpolate)
	v.SetDefault("payment.default_provider", "moneroo")
	v.SetDefault("payment.moneroo.base_url", "https://api.moneroo.io")
	v.SetDefault("payment.lygos.base_url", "https://api.lygosapp.com")
	v.SetDefault("cron.recount_interval", time.Hour)
}

// DefaultPlans 默认套餐：免费 1 次，Pro 30 次，Elite 104 次
func DefaultPlans() map[string]PlanConfig {
	return map[string]PlanConfig{
		PlanFree:  {DisplayName: "Free", Analyses: 1},
		PlanPro:   {DisplayName: "Pro", Analyses: 30},
		PlanElite: {DisplayName: "Elite", Analyses: 104},
	}
}

// Validate 检查启动所必需的配置项
func (c *Config) Validate() error {
	if c.Generator.WebhookURL == "" {
		return errors.New("generator.webhook_url is required")
	}
	switch c.Report.Assembly {
	case "", AssemblyInterpolate, AssemblyEditorial:
	default:
		return fmt.Errorf("unknown report.assembly %q", c.Report.Assembly)
	}
	if c.Auth.Secret == "" && c.Auth.JWKSURL == "" {
		return errors.New("auth.secret or auth.jwks_url is required")
	}
	if _, ok := c.Plans[PlanFree]; !ok {
		return errors.New("plans.free is required")
	}
	return nil
}

// Plan 获取套餐配置，未知套餐回落到 free
func (c *Config) Plan(name string) PlanConfig {
	if p, ok := c.Plans[name]; ok {
		return p
	}
	return c.Plans[PlanFree]
}

// PlanByPriceID 根据支付渠道的价格 ID 反查套餐
func (c *Config) PlanByPriceID(priceID string) (string, bool) {
	if priceID == "" {
		return "", false
	}
	for name, p := range c.Plans {
		if p.LygosPriceID == priceID || p.StripePriceID == priceID {
			return name, true
		}
	}
	return "", false
}

package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/go-sql-driver/mysql"
	"gopkg.in/yaml.v3"
)

const (
	// DefaultConfigPath is used when --config is not provided.
	DefaultConfigPath = "config.yml"

	defaultPort        = 8080
	defaultEnv         = "development"
	defaultDBHost      = "127.0.0.1"
	defaultDBPort      = 3306
	defaultDBUser      = "root"
	defaultDBName      = "campus_api"
	defaultDBCharset   = "utf8mb4"
	defaultRedisURL    = "redis://localhost:6379/0"
	defaultJWTLifetime = 2 * time.Hour
	defaultRenewWindow = 30 * time.Minute
	defaultSmsCodeTTL  = 5 * time.Minute
	defaultSmsCodeLen  = 6
)

// AppConfig holds runtime startup configuration loaded from YAML.
type AppConfig struct {
	Port     int            `yaml:"port"`
	Env      string         `yaml:"env"` // "development" | "production"
	Database DatabaseConfig `yaml:"database"`
	RedisURL string         `yaml:"redis_url"`
	JWT      JWTConfig      `yaml:"jwt"`
	SMS      SMSConfig      `yaml:"sms"`
	Wechat   WechatConfig   `yaml:"wechat"`
	OSS      OSSConfig      `yaml:"oss"`
	AI       AIConfig       `yaml:"ai"`

	AllowedOrigins []string `yaml:"allowed_origins"`
}

type DatabaseConfig struct {
	DSN      string `yaml:"dsn"`
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	Name     string `yaml:"name"`
	Charset  string `yaml:"charset"`
}

type JWTConfig struct {
	Secret      string `yaml:"secret"`
	Lifetime    string `yaml:"lifetime"`     // Go duration string, e.g. "2h"
	RenewWindow string `yaml:"renew_window"` // e.g. "30m"
}

type SMSConfig struct {
	CodeTTL    string `yaml:"code_ttl"` // e.g. "5m"
	CodeLength int    `yaml:"code_length"`
}

type WechatConfig struct {
	AppID     string `yaml:"app_id"`
	AppSecret string `yaml:"app_secret"`
	URL       string `yaml:"url"`
}

type OSSConfig struct {
	Endpoint        string `yaml:"endpoint"`
	Region          string `yaml:"region"`
	Bucket          string `yaml:"bucket"`
	AccessKeyID     string `yaml:"access_key_id"`
	SecretAccessKey string `yaml:"secret_access_key"`
	CustomDomain    string `yaml:"custom_domain"`
	PathStyle       bool   `yaml:"path_style"`
}

// AIProvider configures one upstream chat-completion provider.
type AIProvider struct {
	Name     string `yaml:"name"`
	Type     string `yaml:"type"` // "openai" | "anthropic" | "openai-compatible"
	Model    string `yaml:"model"`
	APIKey   string `yaml:"api_key"`
	Endpoint string `yaml:"endpoint"`
}

type AIConfig struct {
	Providers []AIProvider `yaml:"providers"`
}

// Load reads the YAML config at path and applies defaults.
func Load(path string) (*AppConfig, error) {
	cfg := &AppConfig{}
	data, err := os.ReadFile(path)
	if err != nil {
		if !os.IsNotExist(err) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	} else if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	cfg.applyDefaults()
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *AppConfig) applyDefaults() {
	if c.Port == 0 {
		c.Port = defaultPort
	}
	if c.Env == "" {
		c.Env = defaultEnv
	}
	if c.RedisURL == "" {
		c.RedisURL = defaultRedisURL
	}
	if c.Database.Host == "" {
		c.Database.Host = defaultDBHost
	}
	if c.Database.Port == 0 {
		c.Database.Port = defaultDBPort
	}
	if c.Database.User == "" {
		c.Database.User = defaultDBUser
	}
	if c.Database.Name == "" {
		c.Database.Name = defaultDBName
	}
	if c.Database.Charset == "" {
		c.Database.Charset = defaultDBCharset
	}
	if strings.TrimSpace(c.JWT.Lifetime) == "" {
		c.JWT.Lifetime = defaultJWTLifetime.String()
	}
	if strings.TrimSpace(c.JWT.RenewWindow) == "" {
		c.JWT.RenewWindow = defaultRenewWindow.String()
	}
	if strings.TrimSpace(c.SMS.CodeTTL) == "" {
		c.SMS.CodeTTL = defaultSmsCodeTTL.String()
	}
	if c.SMS.CodeLength <= 0 {
		c.SMS.CodeLength = defaultSmsCodeLen
	}
	if c.Wechat.URL == "" {
		c.Wechat.URL = "https://api.weixin.qq.com/sns/jscode2session"
	}
}

func (c *AppConfig) validate() error {
	if strings.TrimSpace(c.JWT.Secret) == "" {
		return fmt.Errorf("jwt.secret is required")
	}
	lifetime, err := time.ParseDuration(c.JWT.Lifetime)
	if err != nil || lifetime <= 0 {
		return fmt.Errorf("jwt.lifetime is not a valid duration: %q", c.JWT.Lifetime)
	}
	renew, err := time.ParseDuration(c.JWT.RenewWindow)
	if err != nil || renew <= 0 {
		return fmt.Errorf("jwt.renew_window is not a valid duration: %q", c.JWT.RenewWindow)
	}
	if renew >= lifetime {
		return fmt.Errorf("jwt.renew_window must be shorter than jwt.lifetime")
	}
	if _, err := time.ParseDuration(c.SMS.CodeTTL); err != nil {
		return fmt.Errorf("sms.code_ttl is not a valid duration: %q", c.SMS.CodeTTL)
	}
	return nil
}

// TokenLifetime parses jwt.lifetime. Falls back to the default when unset
// or invalid; validate rejects invalid values at load time.
func (c *AppConfig) TokenLifetime() time.Duration {
	return parseDurationOr(c.JWT.Lifetime, defaultJWTLifetime)
}

// TokenRenewWindow parses jwt.renew_window.
func (c *AppConfig) TokenRenewWindow() time.Duration {
	return parseDurationOr(c.JWT.RenewWindow, defaultRenewWindow)
}

// SmsCodeTTL parses sms.code_ttl.
func (c *AppConfig) SmsCodeTTL() time.Duration {
	return parseDurationOr(c.SMS.CodeTTL, defaultSmsCodeTTL)
}

func parseDurationOr(raw string, fallback time.Duration) time.Duration {
	d, err := time.ParseDuration(raw)
	if err != nil || d <= 0 {
		return fallback
	}
	return d
}

// DSN returns the MySQL DSN, assembling one from the host/port fields when
// database.dsn is not set explicitly.
func (c *AppConfig) DSN() string {
	if c.Database.DSN != "" {
		return c.Database.DSN
	}
	mc := mysql.NewConfig()
	mc.User = c.Database.User
	mc.Passwd = c.Database.Password
	mc.Net = "tcp"
	mc.Addr = fmt.Sprintf("%s:%d", c.Database.Host, c.Database.Port)
	mc.DBName = c.Database.Name
	mc.ParseTime = true
	mc.Loc = time.Local
	mc.Params = map[string]string{"charset": c.Database.Charset}
	return mc.FormatDSN()
}

// IsDev reports whether the app runs in development mode.
func (c *AppConfig) IsDev() bool { return c.Env != "production" }

package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config aggregates application settings that may be sourced from files or environment variables.
type Config struct {
	API      APIConfig      `mapstructure:"api"`
	Database DatabaseConfig `mapstructure:"database"`
	Redis    RedisConfig    `mapstructure:"redis"`
	MinIO    MinIOConfig    `mapstructure:"minio"`
	Auth     AuthConfig     `mapstructure:"auth"`
	Export   ExportConfig   `mapstructure:"export"`
	Payment  PaymentConfig  `mapstructure:"payment"`
	Clamd    ClamdConfig    `mapstructure:"clamd"`
	Worker   WorkerConfig   `mapstructure:"worker"`
}

// APIConfig contains HTTP server settings.
type APIConfig struct {
	Port              int    `mapstructure:"port"`
	CookieDomain      string `mapstructure:"cookie_domain"`
	SessionCookieName string `mapstructure:"session_cookie_name"`
}

// DatabaseConfig contains connection options for PostgreSQL.
type DatabaseConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Name     string `mapstructure:"name"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	SSLMode  string `mapstructure:"sslmode"`
}

// RedisConfig 包含 Redis 连接配置。
type RedisConfig struct {
	Host string `mapstructure:"host"`
	Port int    `mapstructure:"port"`
}

// Addr 返回 host:port 形式的地址。
func (r RedisConfig) Addr() string {
	return fmt.Sprintf("%s:%d", r.Host, r.Port)
}

// MinIOConfig contains connection options for MinIO/S3-compatible storage.
type MinIOConfig struct {
	Endpoint         string `mapstructure:"endpoint"`
	PublicEndpoint   string `mapstructure:"public_endpoint"`
	AccessKeyID      string `mapstructure:"access_key_id"`
	SecretAccessKey  string `mapstructure:"secret_access_key"`
	UseSSL           bool   `mapstructure:"use_ssl"`
	Bucket           string `mapstructure:"bucket"`
	Region           string `mapstructure:"region"`
	AutoCreateBucket bool   `mapstructure:"auto_create_bucket"`
}

// AuthConfig 描述会话令牌的签名密钥与有效期。
type AuthConfig struct {
	PrivateKeyPath        string        `mapstructure:"private_key_path"`
	PublicKeyPath         string        `mapstructure:"public_key_path"`
	AccessTokenTTL        time.Duration `mapstructure:"access_token_ttl"`
	RefreshTokenTTL       time.Duration `mapstructure:"refresh_token_ttl"`
	LoginRateLimitPerHour int           `mapstructure:"login_rate_limit_per_hour"`
	LoginLockThreshold    int           `mapstructure:"login_lock_threshold"`
	LoginLockTTL          time.Duration `mapstructure:"login_lock_ttl"`
}

// ExportConfig controls the headless capture pipeline.
type ExportConfig struct {
	// Backend selects the headless engine: "rod" or "chromedp".
	Backend string `mapstructure:"backend"`
	// Mode selects what the browser loads: "inline" renders in-process and sets the
	// document content, "route" navigates to the render-only route.
	Mode          string `mapstructure:"mode"`
	RenderBaseURL string `mapstructure:"render_base_url"`
	BrowserBin    string `mapstructure:"browser_bin"`
	// BrowserWSURL attaches to a running Chromium instead of launching one.
	BrowserWSURL       string        `mapstructure:"browser_ws_url"`
	MarkerTimeout      time.Duration `mapstructure:"marker_timeout"`
	NavigationTimeout  time.Duration `mapstructure:"navigation_timeout"`
	AutomationSecret   string        `mapstructure:"automation_secret"`
	PreviewRedirectURL string        `mapstructure:"preview_redirect_url"`
}

// PaymentConfig 描述支付网关签名密钥与解锁规则。
type PaymentConfig struct {
	KeySecret        string `mapstructure:"key_secret"`
	AmountMinor      int64  `mapstructure:"amount_minor"`
	Currency         string `mapstructure:"currency"`
	RequireForExport bool   `mapstructure:"require_for_export"`
}

// ClamdConfig points to the clamd daemon used to scan uploads. Empty address disables scanning.
type ClamdConfig struct {
	Addr string `mapstructure:"addr"`
}

// WorkerConfig controls the preview worker. MetricsPort 0 disables the metrics listener.
type WorkerConfig struct {
	Concurrency int `mapstructure:"concurrency"`
	MetricsPort int `mapstructure:"metrics_port"`
}

// DSN builds a lib/pq compatible connection string.
func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		d.Host,
		d.Port,
		d.User,
		d.Password,
		d.Name,
		d.SSLMode,
	)
}

// ReadKeys 读取 PEM 格式的私钥与公钥。
func (a AuthConfig) ReadKeys() (privatePEM, publicPEM []byte, err error) {
	privatePEM, err = os.ReadFile(a.PrivateKeyPath)
	if err != nil {
		return nil, nil, fmt.Errorf("read private key %q: %w", a.PrivateKeyPath, err)
	}
	publicPEM, err = os.ReadFile(a.PublicKeyPath)
	if err != nil {
		return nil, nil, fmt.Errorf("read public key %q: %w", a.PublicKeyPath, err)
	}
	return privatePEM, publicPEM, nil
}

// Load reads configuration solely from environment variables (with optional defaults).
func Load() (*Config, error) {
	v := viper.New()
	setDefaults(v)
	v.AutomaticEnv()

	if err := bindEnv(v); err != nil {
		return nil, fmt.Errorf("bind env: %w", err)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	cfg.Export.Backend = strings.ToLower(strings.TrimSpace(cfg.Export.Backend))
	cfg.Export.Mode = strings.ToLower(strings.TrimSpace(cfg.Export.Mode))

	if err := validate(cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// LoadDatabase reads only the database section, for tools that do not need the full stack.
func LoadDatabase() (DatabaseConfig, error) {
	v := viper.New()
	setDefaults(v)
	v.AutomaticEnv()
	if err := bindEnv(v); err != nil {
		return DatabaseConfig{}, fmt.Errorf("bind env: %w", err)
	}

	// UnmarshalKey 不会合并 BindEnv 的覆盖，必须整体 Unmarshal。
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return DatabaseConfig{}, fmt.Errorf("unmarshal database config: %w", err)
	}
	return cfg.Database, cfg.Database.validate()
}

// MustLoad wraps Load and panics on failure.
func MustLoad() *Config {
	cfg, err := Load()
	if err != nil {
		panic(err)
	}
	return cfg
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("api.port", 8080)
	v.SetDefault("api.session_cookie_name", "session")
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.name", "resumestudio")
	v.SetDefault("database.user", "resumestudio")
	v.SetDefault("database.password", "resumestudio")
	v.SetDefault("database.sslmode", "disable")
	v.SetDefault("redis.host", "localhost")
	v.SetDefault("redis.port", 6379)
	v.SetDefault("minio.endpoint", "localhost:9000")
	v.SetDefault("minio.public_endpoint", "http://localhost:9000")
	v.SetDefault("minio.use_ssl", false)
	v.SetDefault("minio.bucket", "resumes")
	v.SetDefault("minio.auto_create_bucket", true)
	v.SetDefault("auth.private_key_path", "keys/private.pem")
	v.SetDefault("auth.public_key_path", "keys/public.pem")
	v.SetDefault("auth.access_token_ttl", 24*time.Hour)
	v.SetDefault("auth.refresh_token_ttl", 7*24*time.Hour)
	v.SetDefault("auth.login_rate_limit_per_hour", 10)
	v.SetDefault("auth.login_lock_threshold", 5)
	v.SetDefault("auth.login_lock_ttl", 15*time.Minute)
	v.SetDefault("export.backend", "rod")
	v.SetDefault("export.mode", "inline")
	v.SetDefault("export.render_base_url", "http://localhost:8080")
	v.SetDefault("export.marker_timeout", 30*time.Second)
	v.SetDefault("export.navigation_timeout", 30*time.Second)
	v.SetDefault("payment.amount_minor", 9900)
	v.SetDefault("payment.currency", "INR")
	v.SetDefault("payment.require_for_export", false)
	v.SetDefault("worker.concurrency", 2)
	v.SetDefault("worker.metrics_port", 9091)
}

func bindEnv(v *viper.Viper) error {
	mappings := map[string]string{
		"api.port":                       "API_PORT",
		"api.cookie_domain":              "API_COOKIE_DOMAIN",
		"api.session_cookie_name":        "API_SESSION_COOKIE_NAME",
		"database.host":                  "DATABASE_HOST",
		"database.port":                  "DATABASE_PORT",
		"database.name":                  "POSTGRES_DB",
		"database.user":                  "POSTGRES_USER",
		"database.password":              "POSTGRES_PASSWORD",
		"database.sslmode":               "DATABASE_SSLMODE",
		"redis.host":                     "REDIS_HOST",
		"redis.port":                     "REDIS_PORT",
		"minio.endpoint":                 "MINIO_ENDPOINT",
		"minio.public_endpoint":          "MINIO_PUBLIC_ENDPOINT",
		"minio.access_key_id":            "MINIO_ACCESS_KEY_ID",
		"minio.secret_access_key":        "MINIO_SECRET_ACCESS_KEY",
		"minio.use_ssl":                  "MINIO_USE_SSL",
		"minio.bucket":                   "MINIO_BUCKET",
		"minio.region":                   "MINIO_REGION",
		"minio.auto_create_bucket":       "MINIO_AUTO_CREATE_BUCKET",
		"auth.private_key_path":          "AUTH_PRIVATE_KEY_PATH",
		"auth.public_key_path":           "AUTH_PUBLIC_KEY_PATH",
		"auth.access_token_ttl":          "AUTH_ACCESS_TOKEN_TTL",
		"auth.refresh_token_ttl":         "AUTH_REFRESH_TOKEN_TTL",
		"auth.login_rate_limit_per_hour": "AUTH_LOGIN_RATE_LIMIT_PER_HOUR",
		"auth.login_lock_threshold":      "AUTH_LOGIN_LOCK_THRESHOLD",
		"auth.login_lock_ttl":            "AUTH_LOGIN_LOCK_TTL",
		"export.backend":                 "EXPORT_BACKEND",
		"export.mode":                    "EXPORT_MODE",
		"export.render_base_url":         "EXPORT_RENDER_BASE_URL",
		"export.browser_bin":             "EXPORT_BROWSER_BIN",
		"export.browser_ws_url":          "EXPORT_BROWSER_WS_URL",
		"export.marker_timeout":          "EXPORT_MARKER_TIMEOUT",
		"export.navigation_timeout":      "EXPORT_NAVIGATION_TIMEOUT",
		"export.automation_secret":       "EXPORT_AUTOMATION_SECRET",
		"export.preview_redirect_url":    "EXPORT_PREVIEW_REDIRECT_URL",
		"payment.key_secret":             "PAYMENT_KEY_SECRET",
		"payment.amount_minor":           "PAYMENT_AMOUNT_MINOR",
		"payment.currency":               "PAYMENT_CURRENCY",
		"payment.require_for_export":     "PAYMENT_REQUIRE_FOR_EXPORT",
		"clamd.addr":                     "CLAMD_ADDR",
		"worker.concurrency":             "WORKER_CONCURRENCY",
		"worker.metrics_port":            "WORKER_METRICS_PORT",
	}

	for key, env := range mappings {
		if err := v.BindEnv(key, env); err != nil {
			return fmt.Errorf("bind %s to %s: %w", key, env, err)
		}
	}

	return nil
}

func (d DatabaseConfig) validate() error {
	switch {
	case d.Host == "":
		return errors.New("database host is required")
	case d.Port <= 0:
		return errors.New("database port must be positive")
	case d.Name == "":
		return errors.New("database name is required")
	case d.User == "":
		return errors.New("database user is required")
	case d.Password == "":
		return errors.New("database password is required")
	case d.SSLMode == "":
		return errors.New("database sslmode is required")
	}
	return nil
}

func validate(cfg Config) error {
	if cfg.API.Port <= 0 {
		return errors.New("api port must be positive")
	}
	if strings.TrimSpace(cfg.API.SessionCookieName) == "" {
		return errors.New("session cookie name is required")
	}
	if err := cfg.Database.validate(); err != nil {
		return err
	}
	if cfg.Redis.Host == "" {
		return errors.New("redis host is required")
	}
	if cfg.Redis.Port <= 0 {
		return errors.New("redis port must be positive")
	}
	if cfg.MinIO.Endpoint == "" {
		return errors.New("minio endpoint is required")
	}
	if cfg.MinIO.AccessKeyID == "" {
		return errors.New("minio access key id is required")
	}
	if cfg.MinIO.SecretAccessKey == "" {
		return errors.New("minio secret access key is required")
	}
	if cfg.MinIO.Bucket == "" {
		return errors.New("minio bucket is required")
	}
	if cfg.Auth.AccessTokenTTL <= 0 {
		return errors.New("auth access token ttl must be positive")
	}
	switch cfg.Export.Backend {
	case "rod", "chromedp":
	default:
		return fmt.Errorf("export backend %q is not supported", cfg.Export.Backend)
	}
	switch cfg.Export.Mode {
	case "inline":
	case "route":
		if strings.TrimSpace(cfg.Export.RenderBaseURL) == "" {
			return errors.New("export render base url is required in route mode")
		}
		if strings.TrimSpace(cfg.Export.AutomationSecret) == "" {
			return errors.New("export automation secret is required in route mode")
		}
	default:
		return fmt.Errorf("export mode %q is not supported", cfg.Export.Mode)
	}
	if cfg.Export.MarkerTimeout <= 0 {
		return errors.New("export marker timeout must be positive")
	}
	if cfg.Worker.Concurrency <= 0 {
		return errors.New("worker concurrency must be positive")
	}
	if cfg.Payment.RequireForExport && strings.TrimSpace(cfg.Payment.KeySecret) == "" {
		return errors.New("payment key secret is required when exports are gated")
	}
	return nil
}

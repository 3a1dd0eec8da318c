package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/spf13/viper"
)

// EnvPrefix prefixes every environment override, e.g. QD_API_BASE_URL
const EnvPrefix = "QD"

// Config holds all application configuration
type Config struct {
	App         AppConfig
	API         APIConfig
	Auth        AuthConfig
	Store       StoreConfig
	Idempotency IdempotencyConfig
	Log         LogConfig
	Server      ServerConfig
	Printing    PrintingConfig
	Lifecycle   LifecycleConfig
}

// AppConfig holds application-specific settings
type AppConfig struct {
	Name string
	Env  string
}

// APIConfig holds settings for the remote ERP backend
type APIConfig struct {
	BaseURL       string
	Timeout       time.Duration
	MaxRetries    int // 0 disables retries
	RetryDelay    time.Duration
	RateLimit     float64 // requests per second; 0 disables
	RateBurst     int
	TLSSkipVerify bool
	UserAgent     string
}

// AuthConfig holds the bearer token used when none is passed per request
type AuthConfig struct {
	Token string
}

// StoreConfig selects the local store holding the token and fallback orders
type StoreConfig struct {
	Driver string // badger, sqlite, memory
	Path   string
}

// IdempotencyConfig configures the store guarding duplicate conversions
type IdempotencyConfig struct {
	Driver string // memory, redis
	TTL    time.Duration
	Redis  RedisConfig
}

// RedisConfig holds Redis connection settings
type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
}

// LogConfig holds logging configuration
type LogConfig struct {
	Level  string // debug, info, warn, error
	Format string // json, console
	Output string // stdout, stderr, or file path
}

// ServerConfig holds settings for the `serve` HTTP server
type ServerConfig struct {
	Port             string
	ReadTimeout      time.Duration
	WriteTimeout     time.Duration
	CORSAllowOrigins []string
}

// PrintingConfig holds document rendering and storage settings
type PrintingConfig struct {
	ChromeURL string // remote Chrome DevTools URL; empty launches a local browser
	NoSandbox bool
	Timeout   time.Duration
	Storage   string // filesystem, s3
	OutputDir string
	S3        S3Config
}

// S3Config holds S3-compatible object storage settings
type S3Config struct {
	Bucket          string
	Region          string
	Endpoint        string
	AccessKeyID     string
	SecretAccessKey string
	UsePathStyle    bool
	PresignExpiry   time.Duration
}

// LifecycleConfig holds the commercial defaults of locally synthesized orders
type LifecycleConfig struct {
	MarginPercent float64
	LeadTimeWeeks int
	PaymentTerms  string
	DeadlineDays  int
}

// DefaultDir returns the per-user configuration and data directory
func DefaultDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".quotedesk"
	}
	return filepath.Join(home, ".config", "quotedesk")
}

// SetDefaults registers built-in defaults on v
func SetDefaults(v *viper.Viper) {
	v.SetDefault("app.name", "quotedesk")
	v.SetDefault("app.env", "development")

	v.SetDefault("api.base_url", "http://localhost:8080/api/v1")
	v.SetDefault("api.timeout", 30*time.Second)
	v.SetDefault("api.max_retries", 0)
	v.SetDefault("api.retry_delay", 500*time.Millisecond)
	v.SetDefault("api.rate_limit", 0)
	v.SetDefault("api.rate_burst", 0)
	v.SetDefault("api.tls_skip_verify", false)
	v.SetDefault("api.user_agent", "quotedesk/1.0")

	v.SetDefault("store.driver", "badger")
	v.SetDefault("store.path", filepath.Join(DefaultDir(), "data"))

	v.SetDefault("idempotency.driver", "memory")
	v.SetDefault("idempotency.ttl", 10*time.Minute)
	v.SetDefault("idempotency.redis.host", "localhost")
	v.SetDefault("idempotency.redis.port", 6379)
	v.SetDefault("idempotency.redis.db", 0)

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "console")
	v.SetDefault("log.output", "stderr")

	v.SetDefault("server.port", "8090")
	v.SetDefault("server.read_timeout", 15*time.Second)
	v.SetDefault("server.write_timeout", 60*time.Second)

	v.SetDefault("printing.timeout", 30*time.Second)
	v.SetDefault("printing.no_sandbox", false)
	v.SetDefault("printing.storage", "filesystem")
	v.SetDefault("printing.output_dir", filepath.Join(DefaultDir(), "documents"))
	v.SetDefault("printing.s3.region", "us-east-1")
	v.SetDefault("printing.s3.presign_expiry", 15*time.Minute)

	v.SetDefault("lifecycle.margin_percent", 20)
	v.SetDefault("lifecycle.lead_time_weeks", 2)
	v.SetDefault("lifecycle.payment_terms", "Net 30")
	v.SetDefault("lifecycle.deadline_days", 30)
}

// Load loads configuration into v and builds a Config.
// Priority (highest to lowest):
// 1. Values already set on v (e.g. bound command line flags)
// 2. Environment variables with QD_ prefix (e.g. QD_AUTH_TOKEN)
// 3. The config file at path, or quotedesk.toml in . or the user config dir
// 4. Built-in defaults
func Load(v *viper.Viper, path string) (*Config, error) {
	if v == nil {
		v = viper.New()
	}
	SetDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("quotedesk")
		v.SetConfigType("toml")
		v.AddConfigPath(".")
		v.AddConfigPath(DefaultDir())
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	cfg := &Config{
		App: AppConfig{
			Name: v.GetString("app.name"),
			Env:  v.GetString("app.env"),
		},
		API: APIConfig{
			BaseURL:       strings.TrimRight(v.GetString("api.base_url"), "/"),
			Timeout:       v.GetDuration("api.timeout"),
			MaxRetries:    v.GetInt("api.max_retries"),
			RetryDelay:    v.GetDuration("api.retry_delay"),
			RateLimit:     v.GetFloat64("api.rate_limit"),
			RateBurst:     v.GetInt("api.rate_burst"),
			TLSSkipVerify: v.GetBool("api.tls_skip_verify"),
			UserAgent:     v.GetString("api.user_agent"),
		},
		Auth: AuthConfig{
			Token: v.GetString("auth.token"),
		},
		Store: StoreConfig{
			Driver: strings.ToLower(v.GetString("store.driver")),
			Path:   v.GetString("store.path"),
		},
		Idempotency: IdempotencyConfig{
			Driver: strings.ToLower(v.GetString("idempotency.driver")),
			TTL:    v.GetDuration("idempotency.ttl"),
			Redis: RedisConfig{
				Host:     v.GetString("idempotency.redis.host"),
				Port:     v.GetInt("idempotency.redis.port"),
				Password: v.GetString("idempotency.redis.password"),
				DB:       v.GetInt("idempotency.redis.db"),
			},
		},
		Log: LogConfig{
			Level:  v.GetString("log.level"),
			Format: v.GetString("log.format"),
			Output: v.GetString("log.output"),
		},
		Server: ServerConfig{
			Port:             v.GetString("server.port"),
			ReadTimeout:      v.GetDuration("server.read_timeout"),
			WriteTimeout:     v.GetDuration("server.write_timeout"),
			CORSAllowOrigins: v.GetStringSlice("server.cors_allow_origins"),
		},
		Printing: PrintingConfig{
			ChromeURL: v.GetString("printing.chrome_url"),
			NoSandbox: v.GetBool("printing.no_sandbox"),
			Timeout:   v.GetDuration("printing.timeout"),
			Storage:   strings.ToLower(v.GetString("printing.storage")),
			OutputDir: v.GetString("printing.output_dir"),
			S3: S3Config{
				Bucket:          v.GetString("printing.s3.bucket"),
				Region:          v.GetString("printing.s3.region"),
				Endpoint:        v.GetString("printing.s3.endpoint"),
				AccessKeyID:     v.GetString("printing.s3.access_key_id"),
				SecretAccessKey: v.GetString("printing.s3.secret_access_key"),
				UsePathStyle:    v.GetBool("printing.s3.use_path_style"),
				PresignExpiry:   v.GetDuration("printing.s3.presign_expiry"),
			},
		},
		Lifecycle: LifecycleConfig{
			MarginPercent: v.GetFloat64("lifecycle.margin_percent"),
			LeadTimeWeeks: v.GetInt("lifecycle.lead_time_weeks"),
			PaymentTerms:  v.GetString("lifecycle.payment_terms"),
			DeadlineDays:  v.GetInt("lifecycle.deadline_days"),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate performs validation on the configuration
func (c *Config) Validate() error {
	var errs []error

	u, err := url.Parse(c.API.BaseURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		errs = append(errs, fmt.Errorf("api.base_url must be an absolute http(s) URL, got %q", c.API.BaseURL))
	}
	if c.API.Timeout <= 0 {
		errs = append(errs, errors.New("api.timeout must be positive"))
	}
	if c.API.MaxRetries < 0 {
		errs = append(errs, errors.New("api.max_retries must not be negative"))
	}
	if c.API.RateLimit < 0 || c.API.RateBurst < 0 {
		errs = append(errs, errors.New("api.rate_limit and api.rate_burst must not be negative"))
	}

	switch c.Store.Driver {
	case "memory":
	case "badger", "sqlite":
		if c.Store.Path == "" {
			errs = append(errs, fmt.Errorf("store.path is required for the %s driver", c.Store.Driver))
		}
	default:
		errs = append(errs, fmt.Errorf("store.driver must be badger, sqlite or memory, got %q", c.Store.Driver))
	}

	switch c.Idempotency.Driver {
	case "memory":
	case "redis":
		if c.Idempotency.Redis.Host == "" || c.Idempotency.Redis.Port <= 0 {
			errs = append(errs, errors.New("idempotency.redis host and port are required for the redis driver"))
		}
	default:
		errs = append(errs, fmt.Errorf("idempotency.driver must be memory or redis, got %q", c.Idempotency.Driver))
	}
	if c.Idempotency.TTL <= 0 {
		errs = append(errs, errors.New("idempotency.ttl must be positive"))
	}

	switch c.Printing.Storage {
	case "filesystem":
		if c.Printing.OutputDir == "" {
			errs = append(errs, errors.New("printing.output_dir is required for filesystem storage"))
		}
	case "s3":
		if c.Printing.S3.Bucket == "" {
			errs = append(errs, errors.New("printing.s3.bucket is required for s3 storage"))
		}
	default:
		errs = append(errs, fmt.Errorf("printing.storage must be filesystem or s3, got %q", c.Printing.Storage))
	}

	if c.Lifecycle.MarginPercent < 0 || c.Lifecycle.MarginPercent >= 100 {
		errs = append(errs, errors.New("lifecycle.margin_percent must be in [0, 100)"))
	}
	if c.Lifecycle.LeadTimeWeeks < 0 || c.Lifecycle.DeadlineDays < 0 {
		errs = append(errs, errors.New("lifecycle lead time and deadline must not be negative"))
	}

	return errors.Join(errs...)
}

// Addr returns the host:port of the Redis server
func (r RedisConfig) Addr() string {
	return fmt.Sprintf("%s:%d", r.Host, r.Port)
}

// Margin returns the configured margin as a decimal
func (l LifecycleConfig) Margin() decimal.Decimal {
	return decimal.NewFromFloat(l.MarginPercent)
}

// IsProduction reports whether the app runs in production
func (a AppConfig) IsProduction() bool {
	return a.Env == "production"
}

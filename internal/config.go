package internal

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
	"github.com/spf13/viper"
)

const devJWTSecret = "dev-secret-change-in-production"

type Config struct {
	Env      string
	LogLevel string
	Port     uint16
	Store    StoreConfig
	Auth     AuthConfig
	CORS     CORSConfig
	Events   EventsConfig
	Cache    CacheConfig
	Payment  PaymentConfig
	Checkout CheckoutConfig
	Email    EmailConfig
	Storage  StorageConfig
	Sentry   SentryConfig
	Worker   WorkerConfig
}

// StoreConfig selects and configures the document store.
// Driver "memory" keeps everything in process and is meant for local runs.
type StoreConfig struct {
	Driver   string
	MongoURI string
	Database string
	Timeout  time.Duration
}

type AuthConfig struct {
	JWTSecret   string
	TokenTTL    time.Duration
	AdminEmails []string
}

type CORSConfig struct {
	AllowedOrigins []string
}

// EventsConfig configures the order-created event bus.
// An empty NATSURL selects the in-process bus.
type EventsConfig struct {
	NATSURL string
}

// CacheConfig configures event dedup keys and the catalog cache.
// An empty RedisAddr selects the in-memory cache.
type CacheConfig struct {
	RedisAddr  string
	CatalogTTL time.Duration
}

// PaymentConfig holds gateway verification secrets.
// Without a key secret receipts are accepted unverified.
type PaymentConfig struct {
	KeySecret     string
	WebhookSecret string
	Timeout       time.Duration
}

type CheckoutConfig struct {
	TotalTolerance decimal.Decimal
}

// SentryConfig holds configuration for Sentry error tracking
type SentryConfig struct {
	DSN              string
	Enabled          bool
	Environment      string
	Release          string
	SampleRate       float64
	TracesSampleRate float64
	Debug            bool
}

type EmailConfig struct {
	Host     string
	Port     uint16
	Username string
	Password string
	From     string
	FromName string
}

type StorageConfig struct {
	Provider      string // "local" or "r2"
	LocalPath     string
	LocalURL      string
	R2AccountID   string
	R2AccessKeyID string
	R2SecretKey   string
	R2BucketName  string
	R2PublicURL   string
}

// WorkerConfig controls the order-history repair sweep.
type WorkerConfig struct {
	RepairInterval time.Duration
	RepairGrace    time.Duration
}

var defaults = map[string]any{
	"ENV":                       "dev",
	"LOG_LEVEL":                 "info",
	"PORT":                      5000,
	"STORE_DRIVER":              "mongo",
	"MONGO_URI":                 "mongodb://localhost:27017",
	"MONGO_DATABASE":            "balaguruva",
	"STORE_TIMEOUT":             "5s",
	"JWT_SECRET":                devJWTSecret,
	"JWT_TTL":                   "1h",
	"ADMIN_EMAILS":              "",
	"CORS_ORIGINS":              "http://localhost:3000",
	"NATS_URL":                  "",
	"REDIS_ADDR":                "",
	"CATALOG_CACHE_TTL":         "1m",
	"RAZORPAY_KEY_SECRET":       "",
	"RAZORPAY_WEBHOOK_SECRET":   "",
	"GATEWAY_TIMEOUT":           "10s",
	"TOTAL_TOLERANCE":           "0.01",
	"SMTP_HOST":                 "localhost",
	"SMTP_PORT":                 1025,
	"SMTP_USERNAME":             "",
	"SMTP_PASSWORD":             "",
	"SMTP_FROM":                 "orders@balaguruva.local",
	"EMAIL_FROM_NAME":           "Balaguruva Cookware",
	"STORAGE_PROVIDER":          "local",
	"LOCAL_STORAGE_PATH":        "./uploads",
	"LOCAL_STORAGE_URL":         "/uploads",
	"R2_ACCOUNT_ID":             "",
	"R2_ACCESS_KEY_ID":          "",
	"R2_SECRET_ACCESS_KEY":      "",
	"R2_BUCKET_NAME":            "",
	"R2_PUBLIC_URL":             "",
	"SENTRY_DSN":                "",
	"SENTRY_ENABLED":            false,
	"SENTRY_ENVIRONMENT":        "development",
	"SENTRY_RELEASE":            "",
	"SENTRY_SAMPLE_RATE":        1.0,
	"SENTRY_TRACES_SAMPLE_RATE": 0.0,
	"SENTRY_DEBUG":              false,
	"HISTORY_REPAIR_INTERVAL":   "1m",
	"HISTORY_REPAIR_GRACE":      "2m",
}

func NewConfig() (*Config, error) {
	loadDotEnv()

	v := viper.New()
	v.AutomaticEnv()
	for key, value := range defaults {
		v.SetDefault(key, value)
	}

	return configFrom(v)
}

// loadDotEnv loads .env from the current directory, then walks up at most
// two parents.
func loadDotEnv() {
	if err := godotenv.Load(); err == nil {
		return
	}
	dir, _ := os.Getwd()
	for i := 0; i < 2; i++ {
		dir = filepath.Join(dir, "..")
		if err := godotenv.Load(filepath.Join(dir, ".env")); err == nil {
			return
		}
	}
	slog.Default().Warn("Warning: .env file not found, using environment variables and defaults")
}

func configFrom(v *viper.Viper) (*Config, error) {
	tolerance, err := decimal.NewFromString(v.GetString("TOTAL_TOLERANCE"))
	if err != nil || tolerance.IsNegative() {
		return nil, fmt.Errorf("TOTAL_TOLERANCE must be a non-negative decimal, got %q", v.GetString("TOTAL_TOLERANCE"))
	}

	cfg := &Config{
		Env:      v.GetString("ENV"),
		LogLevel: v.GetString("LOG_LEVEL"),
		Port:     uint16(v.GetUint("PORT")),
		Store: StoreConfig{
			Driver:   strings.ToLower(v.GetString("STORE_DRIVER")),
			MongoURI: v.GetString("MONGO_URI"),
			Database: v.GetString("MONGO_DATABASE"),
			Timeout:  v.GetDuration("STORE_TIMEOUT"),
		},
		Auth: AuthConfig{
			JWTSecret:   v.GetString("JWT_SECRET"),
			TokenTTL:    v.GetDuration("JWT_TTL"),
			AdminEmails: splitCSV(strings.ToLower(v.GetString("ADMIN_EMAILS"))),
		},
		CORS: CORSConfig{
			AllowedOrigins: splitCSV(v.GetString("CORS_ORIGINS")),
		},
		Events: EventsConfig{
			NATSURL: v.GetString("NATS_URL"),
		},
		Cache: CacheConfig{
			RedisAddr:  v.GetString("REDIS_ADDR"),
			CatalogTTL: v.GetDuration("CATALOG_CACHE_TTL"),
		},
		Payment: PaymentConfig{
			KeySecret:     v.GetString("RAZORPAY_KEY_SECRET"),
			WebhookSecret: v.GetString("RAZORPAY_WEBHOOK_SECRET"),
			Timeout:       v.GetDuration("GATEWAY_TIMEOUT"),
		},
		Checkout: CheckoutConfig{
			TotalTolerance: tolerance,
		},
		Email: EmailConfig{
			Host:     v.GetString("SMTP_HOST"),
			Port:     uint16(v.GetUint("SMTP_PORT")),
			Username: v.GetString("SMTP_USERNAME"),
			Password: v.GetString("SMTP_PASSWORD"),
			From:     v.GetString("SMTP_FROM"),
			FromName: v.GetString("EMAIL_FROM_NAME"),
		},
		Storage: StorageConfig{
			Provider:      v.GetString("STORAGE_PROVIDER"),
			LocalPath:     v.GetString("LOCAL_STORAGE_PATH"),
			LocalURL:      v.GetString("LOCAL_STORAGE_URL"),
			R2AccountID:   v.GetString("R2_ACCOUNT_ID"),
			R2AccessKeyID: v.GetString("R2_ACCESS_KEY_ID"),
			R2SecretKey:   v.GetString("R2_SECRET_ACCESS_KEY"),
			R2BucketName:  v.GetString("R2_BUCKET_NAME"),
			R2PublicURL:   v.GetString("R2_PUBLIC_URL"),
		},
		Sentry: SentryConfig{
			DSN:              v.GetString("SENTRY_DSN"),
			Enabled:          v.GetBool("SENTRY_ENABLED"), // Disabled by default for development
			Environment:      v.GetString("SENTRY_ENVIRONMENT"),
			Release:          v.GetString("SENTRY_RELEASE"),
			SampleRate:       v.GetFloat64("SENTRY_SAMPLE_RATE"),
			TracesSampleRate: v.GetFloat64("SENTRY_TRACES_SAMPLE_RATE"),
			Debug:            v.GetBool("SENTRY_DEBUG"),
		},
		Worker: WorkerConfig{
			RepairInterval: v.GetDuration("HISTORY_REPAIR_INTERVAL"),
			RepairGrace:    v.GetDuration("HISTORY_REPAIR_GRACE"),
		},
	}

	// Validate env
	validEnv := cfg.Env == "dev" || cfg.Env == "prod"
	if !validEnv {
		slog.Default().Warn("Invalid environment. Using default: prod", slog.String("env", cfg.Env))
		cfg.Env = "prod"
	}

	// Validate log level
	validLevel := cfg.LogLevel == "info" || cfg.LogLevel == "debug" || cfg.LogLevel == "warn" || cfg.LogLevel == "error"
	if !validLevel {
		slog.Default().Warn("Invalid log level. Using default: info", slog.String("value", cfg.LogLevel))
		cfg.LogLevel = "info"
	}

	if cfg.Store.Driver != "mongo" && cfg.Store.Driver != "memory" {
		return nil, fmt.Errorf("STORE_DRIVER must be mongo or memory, got %q", cfg.Store.Driver)
	}

	if cfg.Env == "prod" && cfg.Auth.JWTSecret == devJWTSecret {
		return nil, fmt.Errorf("JWT_SECRET must be set in production environment")
	}

	// Validate R2 configuration in production
	if cfg.Env == "prod" && cfg.Storage.Provider == "r2" {
		if cfg.Storage.R2AccountID == "" {
			return nil, fmt.Errorf("R2_ACCOUNT_ID required when using R2 storage in production")
		}
		if cfg.Storage.R2AccessKeyID == "" || cfg.Storage.R2SecretKey == "" {
			return nil, fmt.Errorf("R2 credentials required when using R2 storage in production")
		}
		if cfg.Storage.R2BucketName == "" {
			return nil, fmt.Errorf("R2_BUCKET_NAME required when using R2 storage in production")
		}
	}

	return cfg, nil
}

func splitCSV(s string) []string {
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if t := strings.TrimSpace(p); t != "" {
			out = append(out, t)
		}
	}
	return out
}

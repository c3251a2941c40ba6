package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all application configuration
type Config struct {
	Server    ServerConfig
	Database  DatabaseConfig
	Auth      AuthConfig
	Logging   LoggingConfig
	Quota     QuotaConfig
	Upload    UploadConfig
	Storage   StorageConfig
	AI        AIConfig
	Billing   BillingConfig
	Retention RetentionConfig
}

// ServerConfig contains HTTP server configuration
type ServerConfig struct {
	Host            string
	Port            int
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	ShutdownTimeout time.Duration
	FrontendURL     string
	Environment     string
	RequestsPerSec  float64
	RequestBurst    int
}

// DatabaseConfig contains database configuration
type DatabaseConfig struct {
	Driver          string // sqlite, postgres or pgx
	Host            string
	Port            int
	Name            string
	User            string
	Password        string
	SSLMode         string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
	// For SQLite
	Path string
}

// AuthConfig contains authentication configuration
type AuthConfig struct {
	JWTSecret          string
	AccessTokenExpiry  time.Duration
	RefreshTokenExpiry time.Duration
	BCryptCost         int
}

// LoggingConfig contains logging configuration
type LoggingConfig struct {
	Level      string
	Format     string // json or console
	OutputPath string
}

// QuotaConfig contains the daily generation quota settings
type QuotaConfig struct {
	FreeDailyLimit int
	PlanCacheTTL   time.Duration
	PlanCacheSize  int
}

// UploadConfig contains upload limits
type UploadConfig struct {
	FreeMaxBytes int64
	ProMaxBytes  int64
	Timeout      time.Duration
}

// StorageConfig contains object storage configuration
type StorageConfig struct {
	Backend string // s3, gcs or supabase
	Bucket  string
	// S3 and S3-compatible endpoints
	Region          string
	Endpoint        string
	AccessKeyID     string
	SecretAccessKey string
	PublicBaseURL   string
	// GCS, empty for application default credentials
	GCSCredentialsJSON string
	// Supabase
	SupabaseURL string
	SupabaseKey string
}

// AIConfig contains alt text generation configuration
type AIConfig struct {
	Provider      string // openai or gemini
	OpenAIAPIKey  string
	OpenAIBaseURL string
	Model         string
	MaxTokens     int
	GeminiAPIKey  string
	GeminiBaseURL string
	GeminiModel   string
}

// BillingConfig contains payment provider configuration
type BillingConfig struct {
	StripeSecretKey     string
	StripeWebhookSecret string
	StripeProPriceID    string
	ProMonthlyPrice     int64 // cents
	Currency            string
	SuccessURL          string
	CancelURL           string
	PortalReturnURL     string
	DemoUpgradeEnabled  bool
}

// RetentionConfig contains the cleanup schedule
type RetentionConfig struct {
	Schedule          string
	UsageDays         int
	WebhookEventsDays int
}

// Load loads configuration from environment variables
func Load() (*Config, error) {
	// Load .env file if it exists (ignore errors as it's optional)
	_ = godotenv.Load()

	frontendURL := getEnv("FRONTEND_URL", "http://localhost:5173")

	cfg := &Config{
		Server: ServerConfig{
			Host:            getEnv("SERVER_HOST", "0.0.0.0"),
			Port:            getEnvAsInt("SERVER_PORT", 8080),
			ReadTimeout:     getEnvAsDuration("SERVER_READ_TIMEOUT", 15*time.Second),
			WriteTimeout:    getEnvAsDuration("SERVER_WRITE_TIMEOUT", 60*time.Second),
			ShutdownTimeout: getEnvAsDuration("SERVER_SHUTDOWN_TIMEOUT", 30*time.Second),
			FrontendURL:     frontendURL,
			Environment:     getEnv("ENVIRONMENT", "development"),
			RequestsPerSec:  getEnvAsFloat("SERVER_RATE_LIMIT_RPS", 50),
			RequestBurst:    getEnvAsInt("SERVER_RATE_LIMIT_BURST", 100),
		},
		Database: DatabaseConfig{
			Driver:          getEnv("DB_DRIVER", "sqlite"),
			Host:            getEnv("DB_HOST", "localhost"),
			Port:            getEnvAsInt("DB_PORT", 5432),
			Name:            getEnv("DB_NAME", "altseo"),
			User:            getEnv("DB_USER", ""),
			Password:        getEnv("DB_PASSWORD", ""),
			SSLMode:         getEnv("DB_SSLMODE", "disable"),
			MaxOpenConns:    getEnvAsInt("DB_MAX_OPEN_CONNS", 25),
			MaxIdleConns:    getEnvAsInt("DB_MAX_IDLE_CONNS", 5),
			ConnMaxLifetime: getEnvAsDuration("DB_CONN_MAX_LIFETIME", 5*time.Minute),
			Path:            getEnv("DB_PATH", "./altseo.db"),
		},
		Auth: AuthConfig{
			JWTSecret:          getEnv("JWT_SECRET", ""),
			AccessTokenExpiry:  getEnvAsDuration("JWT_ACCESS_EXPIRY", 15*time.Minute),
			RefreshTokenExpiry: getEnvAsDuration("JWT_REFRESH_EXPIRY", 7*24*time.Hour),
			BCryptCost:         getEnvAsInt("BCRYPT_COST", 12),
		},
		Logging: LoggingConfig{
			Level:      getEnv("LOG_LEVEL", "info"),
			Format:     getEnv("LOG_FORMAT", "json"),
			OutputPath: getEnv("LOG_OUTPUT", "stdout"),
		},
		Quota: QuotaConfig{
			FreeDailyLimit: getEnvAsInt("QUOTA_FREE_DAILY_LIMIT", 5),
			PlanCacheTTL:   getEnvAsDuration("PLAN_CACHE_TTL", 30*time.Second),
			PlanCacheSize:  getEnvAsInt("PLAN_CACHE_SIZE", 10000),
		},
		Upload: UploadConfig{
			FreeMaxBytes: getEnvAsInt64("UPLOAD_FREE_MAX_BYTES", 5*1024*1024),
			ProMaxBytes:  getEnvAsInt64("UPLOAD_PRO_MAX_BYTES", 20*1024*1024),
			Timeout:      getEnvAsDuration("UPLOAD_TIMEOUT", 30*time.Second),
		},
		Storage: StorageConfig{
			Backend:         getEnv("STORAGE_BACKEND", "s3"),
			Bucket:          getEnv("STORAGE_BUCKET", "altseo-images"),
			Region:          getEnv("S3_REGION", "us-east-1"),
			Endpoint:        getEnv("S3_ENDPOINT", ""),
			AccessKeyID:     getEnv("S3_ACCESS_KEY_ID", ""),
			SecretAccessKey: getEnv("S3_SECRET_ACCESS_KEY", ""),
			PublicBaseURL:   getEnv("STORAGE_PUBLIC_BASE_URL", ""),
			SupabaseURL:     getEnv("SUPABASE_URL", ""),
			SupabaseKey:     getEnv("SUPABASE_SERVICE_KEY", ""),

			GCSCredentialsJSON: getEnv("GCS_CREDENTIALS_JSON", ""),
		},
		AI: AIConfig{
			Provider:      getEnv("AI_PROVIDER", "openai"),
			OpenAIAPIKey:  getEnv("OPENAI_API_KEY", ""),
			OpenAIBaseURL: getEnv("OPENAI_BASE_URL", ""),
			Model:         getEnv("OPENAI_MODEL", "gpt-4o-mini"),
			MaxTokens:     getEnvAsInt("AI_MAX_TOKENS", 120),
			GeminiAPIKey:  getEnv("GEMINI_API_KEY", ""),
			GeminiBaseURL: getEnv("GEMINI_BASE_URL", ""),
			GeminiModel:   getEnv("GEMINI_MODEL", "gemini-2.0-flash"),
		},
		Billing: BillingConfig{
			StripeSecretKey:     getEnv("STRIPE_SECRET_KEY", ""),
			StripeWebhookSecret: getEnv("STRIPE_WEBHOOK_SECRET", ""),
			StripeProPriceID:    getEnv("STRIPE_PRO_PRICE_ID", ""),
			ProMonthlyPrice:     getEnvAsInt64("PRO_MONTHLY_PRICE_CENTS", 900),
			Currency:            getEnv("BILLING_CURRENCY", "usd"),
			SuccessURL:          getEnv("BILLING_SUCCESS_URL", strings.TrimRight(frontendURL, "/")+"/billing/success"),
			CancelURL:           getEnv("BILLING_CANCEL_URL", strings.TrimRight(frontendURL, "/")+"/billing"),
			PortalReturnURL:     getEnv("BILLING_PORTAL_RETURN_URL", strings.TrimRight(frontendURL, "/")+"/billing"),
			DemoUpgradeEnabled:  getEnvAsBool("BILLING_DEMO_UPGRADE", false),
		},
		Retention: RetentionConfig{
			Schedule:          getEnv("RETENTION_SCHEDULE", "0 3 * * *"),
			UsageDays:         getEnvAsInt("USAGE_RETENTION_DAYS", 90),
			WebhookEventsDays: getEnvAsInt("WEBHOOK_RETENTION_DAYS", 30),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.Auth.JWTSecret == "" {
		return fmt.Errorf("JWT_SECRET must be set")
	}
	if c.Server.Environment == "production" && len(c.Auth.JWTSecret) < 32 {
		return fmt.Errorf("JWT_SECRET must be at least 32 characters in production")
	}

	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", c.Server.Port)
	}

	switch c.Database.Driver {
	case "sqlite", "postgres", "pgx":
	default:
		return fmt.Errorf("unsupported database driver: %s", c.Database.Driver)
	}

	switch c.Storage.Backend {
	case "s3", "gcs":
	case "supabase":
		if c.Storage.SupabaseURL == "" || c.Storage.SupabaseKey == "" {
			return fmt.Errorf("SUPABASE_URL and SUPABASE_SERVICE_KEY are required for the supabase storage backend")
		}
	default:
		return fmt.Errorf("unsupported storage backend: %s", c.Storage.Backend)
	}

	switch c.AI.Provider {
	case "", "openai", "gemini":
	default:
		return fmt.Errorf("unsupported AI provider: %s", c.AI.Provider)
	}

	if c.Quota.FreeDailyLimit < 0 {
		return fmt.Errorf("QUOTA_FREE_DAILY_LIMIT must not be negative")
	}
	if c.Upload.FreeMaxBytes <= 0 || c.Upload.ProMaxBytes < c.Upload.FreeMaxBytes {
		return fmt.Errorf("upload limits must be positive and the pro limit must not be below the free limit")
	}

	if c.Server.Environment == "production" && c.Billing.DemoUpgradeEnabled {
		return fmt.Errorf("BILLING_DEMO_UPGRADE must not be enabled in production")
	}

	return nil
}

// DSN builds the connection string for the configured driver
func (c DatabaseConfig) DSN() string {
	if c.Driver == "sqlite" {
		return c.Path
	}
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Name, c.SSLMode,
	)
}

// Helper functions

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}

func getEnvAsInt64(key string, defaultValue int64) int64 {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.ParseInt(valueStr, 10, 64)
	if err != nil {
		return defaultValue
	}
	return value
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.ParseFloat(valueStr, 64)
	if err != nil {
		return defaultValue
	}
	return value
}

func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.ParseBool(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := time.ParseDuration(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}

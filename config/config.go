package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Store backends.
const (
	BackendMemory   = "memory"
	BackendPostgres = "postgres"
	BackendRedis    = "redis"
)

// Config holds application configuration loaded from environment.
type Config struct {
	Server    ServerConfig
	Store     StoreConfig
	Database  DatabaseConfig
	Redis     RedisConfig
	JWT       JWTConfig
	AWS       AWSConfig
	Auth      AuthConfig
	Palette   PaletteConfig
	Lifecycle LifecycleConfig
	Links     LinksConfig
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port               string
	ReadTimeout        int
	WriteTimeout       int
	CORSAllowedOrigins string // comma-separated, or "*" for all
}

// StoreConfig selects where the event collection lives.
type StoreConfig struct {
	Backend string // memory | postgres | redis
	// Broadcast enables the Redis change channel between instances.
	Broadcast bool
}

// DatabaseConfig holds PostgreSQL connection settings.
type DatabaseConfig struct {
	URL      string // if set, used as-is (e.g. postgres://localhost:5432/colorvibe?sslmode=disable)
	Host     string
	Port     string
	User     string
	Password string
	DBName   string
	SSLMode  string
}

// RedisConfig holds Redis connection settings.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// JWTConfig holds JWT signing and validation settings.
type JWTConfig struct {
	Secret      string
	ExpireHours int
}

// AWSConfig holds AWS credentials and the share-code bucket.
type AWSConfig struct {
	Region               string
	AccessKeyID          string
	SecretAccessKey      string
	QRBucket             string // empty disables share uploads
	QRPublicRead         bool
	PresignExpireMinutes int
}

// AuthConfig holds identity provider settings. Empty client ids select the demo accounts.
type AuthConfig struct {
	GoogleClientID string
	GoogleIssuer   string
	FacebookAppID  string
	FacebookGraph  string
}

// PaletteConfig holds the color suggestion API settings. Empty key disables suggestions.
type PaletteConfig struct {
	APIKey  string
	Model   string
	BaseURL string
	Timeout time.Duration
}

// LifecycleConfig holds the retention sweep settings.
type LifecycleConfig struct {
	CleanupSchedule string // cron spec for cmd/worker
}

// LinksConfig holds the public URL event links point at.
type LinksConfig struct {
	PublicBaseURL string
}

// DSN returns the PostgreSQL connection string.
// If DatabaseConfig.URL is set (e.g. DATABASE_URL env), it is used as-is; otherwise built from components.
func (c DatabaseConfig) DSN() string {
	if c.URL != "" {
		return c.URL
	}
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%s/%s?sslmode=%s",
		c.User, c.Password, c.Host, c.Port, c.DBName, c.SSLMode,
	)
}

// Load reads configuration from environment, with optional .env file.
func Load() (*Config, error) {
	_ = godotenv.Load()      // .env
	_ = godotenv.Load("env") // env (no leading dot)

	cfg := &Config{
		Server: ServerConfig{
			Port:               getEnv("PORT", "8080"),
			ReadTimeout:        getEnvInt("READ_TIMEOUT_SEC", 30),
			WriteTimeout:       getEnvInt("WRITE_TIMEOUT_SEC", 30),
			CORSAllowedOrigins: getEnv("CORS_ALLOWED_ORIGINS", "*"),
		},
		Store: StoreConfig{
			Backend:   strings.ToLower(getEnv("STORE_BACKEND", BackendPostgres)),
			Broadcast: getEnvBool("STORE_BROADCAST", true),
		},
		Database: DatabaseConfig{
			URL:      getEnv("DATABASE_URL", ""),
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnv("DB_PORT", "5432"),
			User:     getEnv("DB_USER", "postgres"),
			Password: getEnv("DB_PASSWORD", "postgres"),
			DBName:   getEnv("DB_NAME", "colorvibe"),
			SSLMode:  getEnv("DB_SSLMODE", "disable"),
		},
		Redis: RedisConfig{
			Addr:     getEnv("REDIS_ADDR", "localhost:6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvInt("REDIS_DB", 0),
		},
		JWT: JWTConfig{
			Secret:      getEnv("JWT_SECRET", "change-me-in-production"),
			ExpireHours: getEnvInt("JWT_EXPIRE_HOURS", 24),
		},
		AWS: AWSConfig{
			Region:               getEnv("AWS_REGION", "us-east-1"),
			AccessKeyID:          getEnv("AWS_ACCESS_KEY_ID", ""),
			SecretAccessKey:      getEnv("AWS_SECRET_ACCESS_KEY", ""),
			QRBucket:             getEnv("AWS_S3_QR_BUCKET", ""),
			QRPublicRead:         getEnvBool("AWS_S3_QR_PUBLIC_READ", false),
			PresignExpireMinutes: getEnvInt("AWS_PRESIGN_EXPIRE_MINUTES", 60),
		},
		Auth: AuthConfig{
			GoogleClientID: getEnv("GOOGLE_CLIENT_ID", ""),
			GoogleIssuer:   getEnv("GOOGLE_ISSUER", "https://accounts.google.com"),
			FacebookAppID:  getEnv("FACEBOOK_APP_ID", ""),
			FacebookGraph:  getEnv("FACEBOOK_GRAPH_URL", "https://graph.facebook.com"),
		},
		Palette: PaletteConfig{
			APIKey:  getEnv("GEMINI_API_KEY", ""),
			Model:   getEnv("GEMINI_MODEL", "gemini-2.5-flash"),
			BaseURL: getEnv("GEMINI_BASE_URL", ""),
			Timeout: time.Duration(getEnvInt("GEMINI_TIMEOUT_SEC", 15)) * time.Second,
		},
		Lifecycle: LifecycleConfig{
			CleanupSchedule: getEnv("CLEANUP_SCHEDULE", "@every 1h"),
		},
		Links: LinksConfig{
			PublicBaseURL: getEnv("PUBLIC_BASE_URL", "http://localhost:3000/"),
		},
	}
	switch cfg.Store.Backend {
	case BackendMemory, BackendPostgres, BackendRedis:
	default:
		return nil, fmt.Errorf("STORE_BACKEND must be memory, postgres or redis, got %q", cfg.Store.Backend)
	}
	return cfg, nil
}

func getEnvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

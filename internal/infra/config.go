package infra

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

const (
	CacheBackendMemory   = "memory"
	CacheBackendFile     = "file"
	CacheBackendPostgres = "postgres"
)

// Config represents application configuration loaded from environment variables.
type Config struct {
	AppEnv             string
	Port               string
	DonationAPIBaseURL string
	GatewayTimeout     time.Duration
	ServerLocation     *time.Location
	CacheBackend       string
	CachePath          string
	CacheTable         string
	DatabaseURL        string
	DBMaxConns         int
	AnnouncementKey    string
	DefaultAuthor      string
	HTTPReadTimeout    time.Duration
	HTTPWriteTimeout   time.Duration
	HTTPIdleTimeout    time.Duration
	ShutdownTimeout    time.Duration
	RateLimitPerMin    int
	CORSAllowedOrigins []string
}

// LoadConfig loads configuration from environment variables and applies defaults where needed.
func LoadConfig() (*Config, error) {
	cfg := &Config{
		AppEnv:             getEnv("APP_ENV", "development"),
		Port:               getEnv("PORT", "8090"),
		DonationAPIBaseURL: strings.TrimRight(getEnv("DONATION_API_BASE_URL", "http://localhost:8080/api"), "/"),
		GatewayTimeout:     time.Second * time.Duration(getEnvInt("GATEWAY_TIMEOUT_SECONDS", 10)),
		CacheBackend:       strings.ToLower(getEnv("CACHE_BACKEND", CacheBackendMemory)),
		CachePath:          getEnv("CACHE_PATH", "./data/cache"),
		CacheTable:         getEnv("CACHE_TABLE", "client_kv"),
		DatabaseURL:        os.Getenv("DATABASE_URL"),
		DBMaxConns:         getEnvInt("DB_MAX_CONNS", 4),
		AnnouncementKey:    getEnv("ANNOUNCEMENT_CACHE_KEY", "adminAnnouncements"),
		DefaultAuthor:      getEnv("ANNOUNCEMENT_DEFAULT_AUTHOR", "Administrator"),
		HTTPReadTimeout:    time.Second * time.Duration(getEnvInt("HTTP_READ_TIMEOUT_SECONDS", 15)),
		HTTPWriteTimeout:   time.Second * time.Duration(getEnvInt("HTTP_WRITE_TIMEOUT_SECONDS", 30)),
		HTTPIdleTimeout:    time.Second * time.Duration(getEnvInt("HTTP_IDLE_TIMEOUT_SECONDS", 60)),
		ShutdownTimeout:    time.Second * time.Duration(getEnvInt("SHUTDOWN_TIMEOUT_SECONDS", 15)),
		RateLimitPerMin:    getEnvInt("RATE_LIMIT_PER_MINUTE", 120),
		CORSAllowedOrigins: splitList(os.Getenv("CORS_ALLOWED_ORIGINS")),
	}

	loc, err := time.LoadLocation(getEnv("SERVER_TIMEZONE", "UTC"))
	if err != nil {
		return nil, fmt.Errorf("SERVER_TIMEZONE: %w", err)
	}
	cfg.ServerLocation = loc

	switch cfg.CacheBackend {
	case CacheBackendMemory, CacheBackendFile:
	case CacheBackendPostgres:
		if cfg.DatabaseURL == "" {
			return nil, fmt.Errorf("DATABASE_URL is required when CACHE_BACKEND=postgres")
		}
	default:
		return nil, fmt.Errorf("unsupported CACHE_BACKEND %q", cfg.CacheBackend)
	}

	if cfg.GatewayTimeout <= 0 {
		return nil, fmt.Errorf("GATEWAY_TIMEOUT_SECONDS must be positive")
	}
	if cfg.ShutdownTimeout <= 0 {
		return nil, fmt.Errorf("SHUTDOWN_TIMEOUT_SECONDS must be positive")
	}

	return cfg, nil
}

func getEnv(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return fallback
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if v := strings.TrimSpace(part); v != "" {
			out = append(out, v)
		}
	}
	return out
}

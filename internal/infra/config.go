package infra

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config represents application configuration loaded from environment variables.
type Config struct {
	AppEnv            string
	Port              string
	DatabaseURL       string
	RedisURL          string
	JWTSecret         string
	AccessTokenTTL    time.Duration
	RefreshTokenTTL   time.Duration
	UpstreamAPIKey    string
	UpstreamBaseURL   string
	UpstreamModel     string
	GeoIPDBPath       string
	CORSOrigins       []string
	DefaultLocale     string
	HTTPReadTimeout   time.Duration
	HTTPWriteTimeout  time.Duration
	HTTPIdleTimeout   time.Duration
	DefaultDailyLimit int
	LoginRatePerMin   int
}

// LoadConfig loads configuration from environment variables and applies defaults where needed.
func LoadConfig() (*Config, error) {
	cfg := &Config{
		AppEnv:            getEnv("APP_ENV", "development"),
		Port:              getEnv("PORT", "8080"),
		DatabaseURL:       os.Getenv("DATABASE_URL"),
		RedisURL:          getEnv("REDIS_URL", "redis://localhost:6379/0"),
		JWTSecret:         os.Getenv("JWT_SECRET"),
		AccessTokenTTL:    time.Second * time.Duration(getEnvInt("ACCESS_TOKEN_TTL_SECONDS", 3600)),
		RefreshTokenTTL:   time.Second * time.Duration(getEnvInt("REFRESH_TOKEN_TTL_SECONDS", 2592000)),
		UpstreamAPIKey:    os.Getenv("PERPLEXITY_API_KEY"),
		UpstreamBaseURL:   getEnv("PERPLEXITY_BASE_URL", "https://api.perplexity.ai"),
		UpstreamModel:     getEnv("PERPLEXITY_MODEL", "llama-3.1-sonar-large-128k-online"),
		GeoIPDBPath:       os.Getenv("GEOIP_DB_PATH"),
		CORSOrigins:       splitCSV(getEnv("CORS_ORIGINS", "http://localhost:3000")),
		DefaultLocale:     getEnv("DEFAULT_LOCALE", "ar"),
		HTTPReadTimeout:   time.Second * time.Duration(getEnvInt("HTTP_READ_TIMEOUT_SECONDS", 15)),
		HTTPWriteTimeout:  time.Second * time.Duration(getEnvInt("HTTP_WRITE_TIMEOUT_SECONDS", 30)),
		HTTPIdleTimeout:   time.Second * time.Duration(getEnvInt("HTTP_IDLE_TIMEOUT_SECONDS", 60)),
		DefaultDailyLimit: getEnvInt("DEFAULT_DAILY_API_LIMIT", 50),
		LoginRatePerMin:   getEnvInt("LOGIN_RATE_PER_MINUTE", 10),
	}

	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is required")
	}

	if cfg.JWTSecret == "" {
		return nil, fmt.Errorf("JWT_SECRET is required")
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

func splitCSV(v string) []string {
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

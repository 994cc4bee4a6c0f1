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
	AppEnv         string
	Port           string
	JWTSecret      string
	JWTExpiry      time.Duration
	RefreshExpiry  time.Duration
	StoragePath    string
	GeoIPDBPath    string
	AllowedOrigins []string

	OpenAIAPIKey      string
	OpenAIModel       string
	OpenAIBaseURL     string
	RunwayAPIKey      string
	StableVideoAPIKey string

	DefaultImageProvider string
	DefaultVideoProvider string
	ImageFallbacks       []string
	VideoFallbacks       []string

	MaxConcurrent    int
	MaxRetries       int
	QueuePollEvery   time.Duration
	DispatchDelay    time.Duration
	ProgressInterval time.Duration

	HTTPReadTimeout  time.Duration
	HTTPWriteTimeout time.Duration
	HTTPIdleTimeout  time.Duration
	RateLimitPerMin  int
}

// LoadConfig loads configuration from environment variables and applies defaults where needed.
func LoadConfig() (*Config, error) {
	cfg := &Config{
		AppEnv:         getEnv("APP_ENV", "development"),
		Port:           getEnv("PORT", "8080"),
		JWTSecret:      os.Getenv("JWT_SECRET"),
		JWTExpiry:      getEnvDuration("JWT_EXPIRES_IN", 24*time.Hour),
		RefreshExpiry:  getEnvDuration("REFRESH_EXPIRES_IN", 7*24*time.Hour),
		StoragePath:    getEnv("STORAGE_PATH", "./storage"),
		GeoIPDBPath:    os.Getenv("GEOIP_DB_PATH"),
		AllowedOrigins: getEnvList("ALLOWED_ORIGINS", []string{"http://localhost:3000"}),

		OpenAIAPIKey:      os.Getenv("OPENAI_API_KEY"),
		OpenAIModel:       getEnv("OPENAI_MODEL", "dall-e-3"),
		OpenAIBaseURL:     getEnv("OPENAI_BASE_URL", "https://api.openai.com/v1"),
		RunwayAPIKey:      os.Getenv("RUNWAY_API_KEY"),
		StableVideoAPIKey: os.Getenv("STABLE_VIDEO_API_KEY"),

		DefaultImageProvider: getEnv("DEFAULT_IMAGE_PROVIDER", "openai"),
		DefaultVideoProvider: getEnv("DEFAULT_VIDEO_PROVIDER", "runway"),
		ImageFallbacks:       getEnvList("IMAGE_FALLBACK_PROVIDERS", []string{"midjourney", "stablediffusion"}),
		VideoFallbacks:       getEnvList("VIDEO_FALLBACK_PROVIDERS", []string{"stablevideo"}),

		MaxConcurrent:    getEnvInt("QUEUE_MAX_CONCURRENT", 3),
		MaxRetries:       getEnvInt("QUEUE_MAX_RETRIES", 3),
		QueuePollEvery:   getEnvDuration("QUEUE_POLL_INTERVAL", 2*time.Second),
		DispatchDelay:    getEnvDuration("QUEUE_DISPATCH_DELAY", 200*time.Millisecond),
		ProgressInterval: getEnvDuration("QUEUE_PROGRESS_INTERVAL", 3*time.Second),

		HTTPReadTimeout:  time.Second * time.Duration(getEnvInt("HTTP_READ_TIMEOUT_SECONDS", 15)),
		HTTPWriteTimeout: time.Second * time.Duration(getEnvInt("HTTP_WRITE_TIMEOUT_SECONDS", 30)),
		HTTPIdleTimeout:  time.Second * time.Duration(getEnvInt("HTTP_IDLE_TIMEOUT_SECONDS", 60)),
		RateLimitPerMin:  getEnvInt("RATE_LIMIT_PER_MINUTE", 30),
	}

	if cfg.JWTSecret == "" {
		return nil, fmt.Errorf("JWT_SECRET is required")
	}

	if cfg.MaxConcurrent <= 0 {
		return nil, fmt.Errorf("QUEUE_MAX_CONCURRENT must be positive")
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

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}

func getEnvList(key string, fallback []string) []string {
	v, ok := os.LookupEnv(key)
	if !ok || strings.TrimSpace(v) == "" {
		return fallback
	}
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	if len(out) == 0 {
		return fallback
	}
	return out
}

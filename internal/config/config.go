package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"newsagg/internal/models"

	"github.com/joho/godotenv"
)

// SourceConfig represents configuration for a single news provider.
type SourceConfig struct {
	APIKey  string
	BaseURL string
	Enabled bool
}

// SecurityConfig represents security configuration
type SecurityConfig struct {
	EnableRateLimit       bool
	RateLimitPerSecond    float64
	RateLimitBurst        int
	EnableCORS            bool
	AllowedOrigins        []string
	EnableSecurityHeaders bool
	MaxRequestSize        int64
	EnableRequestID       bool
}

type Config struct {
	Port              int
	DataDir           string
	CacheTTL          time.Duration
	FetchInterval     time.Duration
	CleanupInterval   time.Duration
	RetentionDays     int
	ArticlesPerSource int
	ProviderTimeout   time.Duration
	DefaultPageSize   int
	MaxPageSize       int
	JWTSecret         string
	JWTTTL            time.Duration
	EnableSwagger     bool
	Sources           map[models.Source]SourceConfig
	Security          SecurityConfig
}

func Load() *Config {
	// Pick up a local .env when present; real env vars win.
	_ = godotenv.Load()

	return &Config{
		Port:              getEnvAsInt("PORT", 8080),
		DataDir:           getEnv("DATA_DIR", "./data"),
		CacheTTL:          getEnvAsDuration("CACHE_TTL", 15*time.Minute),
		FetchInterval:     getEnvAsDuration("FETCH_INTERVAL", time.Hour),
		CleanupInterval:   getEnvAsDuration("CLEANUP_INTERVAL", 24*time.Hour),
		RetentionDays:     getEnvAsInt("RETENTION_DAYS", 30),
		ArticlesPerSource: getEnvAsInt("ARTICLES_PER_SOURCE", 100),
		ProviderTimeout:   getEnvAsDuration("PROVIDER_TIMEOUT", 30*time.Second),
		DefaultPageSize:   getEnvAsInt("DEFAULT_PAGE_SIZE", 15),
		MaxPageSize:       getEnvAsInt("MAX_PAGE_SIZE", 100),
		JWTSecret:         getEnv("JWT_SECRET", ""),
		JWTTTL:            getEnvAsDuration("JWT_TTL", 24*time.Hour),
		EnableSwagger:     getEnvAsBool("ENABLE_SWAGGER", true),
		Sources:           loadSourcesFromEnv(),
		Security:          loadSecurityConfig(),
	}
}

func loadSourcesFromEnv() map[models.Source]SourceConfig {
	return map[models.Source]SourceConfig{
		models.SourceNewsAPI: {
			APIKey:  getEnv("NEWSAPI_KEY", ""),
			BaseURL: getEnv("NEWSAPI_BASE_URL", "https://newsapi.org/v2"),
			Enabled: getEnvAsBool("NEWSAPI_ENABLED", true),
		},
		models.SourceGuardian: {
			APIKey:  getEnv("GUARDIAN_API_KEY", ""),
			BaseURL: getEnv("GUARDIAN_BASE_URL", "https://content.guardianapis.com"),
			Enabled: getEnvAsBool("GUARDIAN_ENABLED", true),
		},
		models.SourceNYTimes: {
			APIKey:  getEnv("NYTIMES_API_KEY", ""),
			BaseURL: getEnv("NYTIMES_BASE_URL", "https://api.nytimes.com/svc"),
			Enabled: getEnvAsBool("NYTIMES_ENABLED", true),
		},
	}
}

func loadSecurityConfig() SecurityConfig {
	return SecurityConfig{
		EnableRateLimit:       getEnvAsBool("ENABLE_RATE_LIMIT", true),
		RateLimitPerSecond:    getEnvAsFloat("RATE_LIMIT_PER_SECOND", 10.0),
		RateLimitBurst:        getEnvAsInt("RATE_LIMIT_BURST", 20),
		EnableCORS:            getEnvAsBool("ENABLE_CORS", true),
		AllowedOrigins:        getEnvAsStringSlice("ALLOWED_ORIGINS", []string{"*"}),
		EnableSecurityHeaders: getEnvAsBool("ENABLE_SECURITY_HEADERS", true),
		MaxRequestSize:        getEnvAsInt64("MAX_REQUEST_SIZE", 10<<20), // 10MB
		EnableRequestID:       getEnvAsBool("ENABLE_REQUEST_ID", true),
	}
}

// EnabledSources returns the sources toggled on in configuration.
func (c *Config) EnabledSources() []models.Source {
	var enabled []models.Source
	for _, src := range models.Sources() {
		if c.Sources[src].Enabled {
			enabled = append(enabled, src)
		}
	}
	return enabled
}

func getEnv(key string, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

func getEnvAsInt(key string, defaultVal int) int {
	if val := os.Getenv(key); val != "" {
		if intVal, err := strconv.Atoi(val); err == nil {
			return intVal
		}
	}
	return defaultVal
}

func getEnvAsInt64(key string, defaultVal int64) int64 {
	if val := os.Getenv(key); val != "" {
		if intVal, err := strconv.ParseInt(val, 10, 64); err == nil {
			return intVal
		}
	}
	return defaultVal
}

func getEnvAsDuration(key string, defaultVal time.Duration) time.Duration {
	if val := os.Getenv(key); val != "" {
		if duration, err := time.ParseDuration(val); err == nil {
			return duration
		}
	}
	return defaultVal
}

func getEnvAsBool(key string, defaultVal bool) bool {
	if val := os.Getenv(key); val != "" {
		if boolVal, err := strconv.ParseBool(val); err == nil {
			return boolVal
		}
	}
	return defaultVal
}

func getEnvAsFloat(key string, defaultVal float64) float64 {
	if val := os.Getenv(key); val != "" {
		if floatVal, err := strconv.ParseFloat(val, 64); err == nil {
			return floatVal
		}
	}
	return defaultVal
}

func getEnvAsStringSlice(key string, defaultVal []string) []string {
	if val := os.Getenv(key); val != "" {
		parts := strings.Split(val, ",")
		for i := range parts {
			parts[i] = strings.TrimSpace(parts[i])
		}
		return parts
	}
	return defaultVal
}

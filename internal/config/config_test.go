package config

import (
	"os"
	"testing"
	"time"

	"newsagg/internal/models"
)

func TestLoadDefaults(t *testing.T) {
	clearEnv(t)

	cfg := Load()

	if cfg.Port != 8080 {
		t.Errorf("Expected default port 8080, got %d", cfg.Port)
	}
	if cfg.FetchInterval != time.Hour {
		t.Errorf("Expected default fetch interval 1h, got %v", cfg.FetchInterval)
	}
	if cfg.CleanupInterval != 24*time.Hour {
		t.Errorf("Expected default cleanup interval 24h, got %v", cfg.CleanupInterval)
	}
	if cfg.RetentionDays != 30 {
		t.Errorf("Expected default retention of 30 days, got %d", cfg.RetentionDays)
	}
	if cfg.DefaultPageSize != 15 {
		t.Errorf("Expected default page size 15, got %d", cfg.DefaultPageSize)
	}
	if cfg.MaxPageSize != 100 {
		t.Errorf("Expected max page size 100, got %d", cfg.MaxPageSize)
	}
	if cfg.ArticlesPerSource != 100 {
		t.Errorf("Expected 100 articles per source, got %d", cfg.ArticlesPerSource)
	}
	if cfg.ProviderTimeout != 30*time.Second {
		t.Errorf("Expected provider timeout 30s, got %v", cfg.ProviderTimeout)
	}
}

func TestLoadSourceBlocks(t *testing.T) {
	clearEnv(t)
	os.Setenv("NEWSAPI_KEY", "key-a")
	os.Setenv("GUARDIAN_API_KEY", "key-b")
	os.Setenv("GUARDIAN_ENABLED", "false")
	os.Setenv("NYTIMES_BASE_URL", "https://nyt.example.com/svc")
	defer clearEnv(t)

	cfg := Load()

	newsapi := cfg.Sources[models.SourceNewsAPI]
	if newsapi.APIKey != "key-a" {
		t.Errorf("Expected newsapi key 'key-a', got %q", newsapi.APIKey)
	}
	if !newsapi.Enabled {
		t.Error("Expected newsapi to be enabled by default")
	}

	guardian := cfg.Sources[models.SourceGuardian]
	if guardian.APIKey != "key-b" {
		t.Errorf("Expected guardian key 'key-b', got %q", guardian.APIKey)
	}
	if guardian.Enabled {
		t.Error("Expected guardian to be disabled via env")
	}

	nytimes := cfg.Sources[models.SourceNYTimes]
	if nytimes.BaseURL != "https://nyt.example.com/svc" {
		t.Errorf("Unexpected nytimes base URL: %q", nytimes.BaseURL)
	}
}

func TestEnabledSources(t *testing.T) {
	clearEnv(t)
	os.Setenv("NEWSAPI_ENABLED", "false")
	defer clearEnv(t)

	cfg := Load()
	enabled := cfg.EnabledSources()

	if len(enabled) != 2 {
		t.Fatalf("Expected 2 enabled sources, got %d", len(enabled))
	}
	for _, src := range enabled {
		if src == models.SourceNewsAPI {
			t.Error("Expected newsapi to be excluded from enabled sources")
		}
	}
}

func TestEnvOverrides(t *testing.T) {
	clearEnv(t)
	os.Setenv("PORT", "9090")
	os.Setenv("FETCH_INTERVAL", "30m")
	os.Setenv("RETENTION_DAYS", "7")
	os.Setenv("RATE_LIMIT_PER_SECOND", "2.5")
	os.Setenv("ALLOWED_ORIGINS", "https://a.example.com, https://b.example.com")
	defer clearEnv(t)

	cfg := Load()

	if cfg.Port != 9090 {
		t.Errorf("Expected port 9090, got %d", cfg.Port)
	}
	if cfg.FetchInterval != 30*time.Minute {
		t.Errorf("Expected fetch interval 30m, got %v", cfg.FetchInterval)
	}
	if cfg.RetentionDays != 7 {
		t.Errorf("Expected retention 7 days, got %d", cfg.RetentionDays)
	}
	if cfg.Security.RateLimitPerSecond != 2.5 {
		t.Errorf("Expected rate limit 2.5, got %f", cfg.Security.RateLimitPerSecond)
	}
	if len(cfg.Security.AllowedOrigins) != 2 || cfg.Security.AllowedOrigins[1] != "https://b.example.com" {
		t.Errorf("Unexpected allowed origins: %v", cfg.Security.AllowedOrigins)
	}
}

func TestInvalidEnvValuesFallBack(t *testing.T) {
	clearEnv(t)
	os.Setenv("PORT", "not-a-number")
	os.Setenv("FETCH_INTERVAL", "soon")
	os.Setenv("NEWSAPI_ENABLED", "maybe")
	defer clearEnv(t)

	cfg := Load()

	if cfg.Port != 8080 {
		t.Errorf("Expected fallback port 8080, got %d", cfg.Port)
	}
	if cfg.FetchInterval != time.Hour {
		t.Errorf("Expected fallback fetch interval 1h, got %v", cfg.FetchInterval)
	}
	if !cfg.Sources[models.SourceNewsAPI].Enabled {
		t.Error("Expected fallback newsapi enabled=true")
	}
}

func clearEnv(t *testing.T) {
	t.Helper()
	keys := []string{
		"PORT", "DATA_DIR", "CACHE_TTL", "FETCH_INTERVAL", "CLEANUP_INTERVAL",
		"RETENTION_DAYS", "ARTICLES_PER_SOURCE", "PROVIDER_TIMEOUT",
		"DEFAULT_PAGE_SIZE", "MAX_PAGE_SIZE", "JWT_SECRET", "JWT_TTL",
		"ENABLE_SWAGGER", "NEWSAPI_KEY", "NEWSAPI_BASE_URL", "NEWSAPI_ENABLED",
		"GUARDIAN_API_KEY", "GUARDIAN_BASE_URL", "GUARDIAN_ENABLED",
		"NYTIMES_API_KEY", "NYTIMES_BASE_URL", "NYTIMES_ENABLED",
		"ENABLE_RATE_LIMIT", "RATE_LIMIT_PER_SECOND", "RATE_LIMIT_BURST",
		"ENABLE_CORS", "ALLOWED_ORIGINS", "ENABLE_SECURITY_HEADERS",
		"MAX_REQUEST_SIZE", "ENABLE_REQUEST_ID",
	}
	for _, key := range keys {
		os.Unsetenv(key)
	}
}

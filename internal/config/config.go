package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all service settings. It is loaded once at startup from
// environment variables and treated as immutable afterwards.
type Config struct {
	// Server
	Port    string
	BaseURL string

	// Database
	DBPath string

	// Logging
	LogLevel  string
	LogFormat string

	// Platform API (catalog, checkout, verification, download)
	PlatformURL     string
	WebappID        string
	PlatformTimeout time.Duration

	// Hosts that mark a request's referrer as platform-hosted preview.
	PlatformReferrerHosts []string

	// Purchase verification fan-out
	VerifyConcurrency int
	VerifyRatePerSec  float64

	// Cookies
	CookieSecure bool
}

// Load reads the configuration from environment variables. BOOKSTALL_WEBAPP_ID
// is required; everything else has a sensible default.
func Load() (*Config, error) {
	cfg := &Config{
		Port:              envOr("BOOKSTALL_PORT", "8080"),
		DBPath:            envOr("BOOKSTALL_DB_PATH", "bookstall.db"),
		LogLevel:          os.Getenv("BOOKSTALL_LOG_LEVEL"),
		LogFormat:         os.Getenv("BOOKSTALL_LOG_FORMAT"),
		PlatformURL:       envOr("BOOKSTALL_PLATFORM_URL", "http://localhost:3000"),
		WebappID:          os.Getenv("BOOKSTALL_WEBAPP_ID"),
		PlatformTimeout:   envDuration("BOOKSTALL_PLATFORM_TIMEOUT", 15*time.Second),
		VerifyConcurrency: envInt("BOOKSTALL_VERIFY_CONCURRENCY", 4),
		VerifyRatePerSec:  envFloat("BOOKSTALL_VERIFY_RATE", 0),
		CookieSecure:      envBool("BOOKSTALL_COOKIE_SECURE", false),
	}

	if cfg.WebappID == "" {
		return nil, fmt.Errorf("missing required environment variable: BOOKSTALL_WEBAPP_ID")
	}

	cfg.BaseURL = envOr("BOOKSTALL_BASE_URL", "http://localhost:"+cfg.Port)

	hosts := envOr("BOOKSTALL_PLATFORM_REFERRER_HOSTS", "builtbyme.ai")
	for _, h := range strings.Split(hosts, ",") {
		if h = strings.TrimSpace(h); h != "" {
			cfg.PlatformReferrerHosts = append(cfg.PlatformReferrerHosts, h)
		}
	}

	return cfg, nil
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}

func envFloat(key string, fallback float64) float64 {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return fallback
	}
	return f
}

func envBool(key string, fallback bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return fallback
	}
	return b
}

func envDuration(key string, fallback time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return fallback
	}
	return d
}

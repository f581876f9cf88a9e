package config

import (
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
	DriverMemory   = "memory"
)

type Config struct {
	// Ledger storage
	LedgerDriver string
	DatabaseURL  string
	SQLitePath   string

	// Discord Bot (disabled when the token is empty)
	DiscordToken string

	// Discord OAuth2
	DiscordClientID     string
	DiscordClientSecret string
	DiscordRedirectURI  string

	// Web Server
	WebBind      string
	WebUIBaseURL string

	// Session; the protected API refuses every request while it is empty
	JWTSecret string

	// Fallback parser (OpenAI-compatible endpoint, Ollama by default)
	LLMEnabled bool
	LLMBaseURL string
	LLMModel   string
	LLMAPIKey  string
	LLMTimeout time.Duration

	VocabularyFile string
	LogLevel       string
}

func Load() (*Config, error) {
	// Load environment variables from .env if present (non-fatal if missing)
	_ = godotenv.Load()

	cfg := &Config{
		LedgerDriver:        strings.ToLower(getEnvDefault("LEDGER_DRIVER", DriverSQLite)),
		DatabaseURL:         os.Getenv("DATABASE_URL"),
		SQLitePath:          getEnvDefault("SQLITE_PATH", "loanbot.db"),
		DiscordToken:        os.Getenv("DISCORD_TOKEN"),
		WebBind:             getEnvDefault("WEB_BIND", "0.0.0.0:3000"),
		DiscordClientID:     os.Getenv("DISCORD_CLIENT_ID"),
		DiscordClientSecret: os.Getenv("DISCORD_CLIENT_SECRET"),
		DiscordRedirectURI:  getEnvDefault("DISCORD_REDIRECT_URI", "http://localhost:3000/api/auth/callback"),
		JWTSecret:           os.Getenv("JWT_SECRET"),
		LLMBaseURL:          getEnvDefault("LLM_BASE_URL", "http://localhost:11434/v1"),
		LLMModel:            getEnvDefault("LLM_MODEL", "llama3.2:3b"),
		LLMAPIKey:           getEnvDefault("LLM_API_KEY", "ollama"),
		VocabularyFile:      os.Getenv("VOCABULARY_FILE"),
		LogLevel:            strings.ToLower(getEnvDefault("LOG_LEVEL", "info")),
	}

	// Extract base URL from redirect URI
	cfg.WebUIBaseURL = extractBaseURL(cfg.DiscordRedirectURI)

	enabled, err := strconv.ParseBool(getEnvDefault("LLM_ENABLED", "true"))
	if err != nil {
		return nil, fmt.Errorf("LLM_ENABLED must be a boolean: %w", err)
	}
	cfg.LLMEnabled = enabled

	timeout, err := time.ParseDuration(getEnvDefault("LLM_TIMEOUT", "30s"))
	if err != nil {
		return nil, fmt.Errorf("LLM_TIMEOUT must be a duration: %w", err)
	}
	if timeout <= 0 {
		return nil, fmt.Errorf("LLM_TIMEOUT must be positive")
	}
	cfg.LLMTimeout = timeout

	if cfg.OAuthEnabled() && cfg.JWTSecret == "" {
		return nil, fmt.Errorf("JWT_SECRET is required when Discord login is configured")
	}

	switch cfg.LedgerDriver {
	case DriverPostgres:
		if cfg.DatabaseURL == "" {
			return nil, fmt.Errorf("DATABASE_URL is required when LEDGER_DRIVER=postgres")
		}
	case DriverSQLite, DriverMemory:
	default:
		return nil, fmt.Errorf("unknown LEDGER_DRIVER %q", cfg.LedgerDriver)
	}

	return cfg, nil
}

// OAuthEnabled reports whether Discord login is configured for the web API.
func (c *Config) OAuthEnabled() bool {
	return c.DiscordClientID != "" && c.DiscordClientSecret != ""
}

func getEnvDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func extractBaseURL(redirectURI string) string {
	// e.g., "http://localhost:3000/api/auth/callback" -> "http://localhost:3000"
	parsed, err := url.Parse(redirectURI)
	if err != nil || parsed.Scheme == "" || parsed.Host == "" {
		return "http://localhost:3000"
	}

	return fmt.Sprintf("%s://%s", parsed.Scheme, parsed.Host)
}

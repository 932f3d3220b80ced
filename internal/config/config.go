package config

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"debatefloor/internal/secrets"
)

// AuthMode represents the authentication mode for the Data API
type AuthMode string

const (
	AuthModeNone   AuthMode = "none"
	AuthModeBearer AuthMode = "bearer"
	AuthModeAPIKey AuthMode = "api_key"
)

// Config holds all application configuration
type Config struct {
	// Environment
	Environment string
	LogLevel    string

	// HTTP server
	ServerPort   int
	ReadTimeout  time.Duration
	WriteTimeout time.Duration

	// Database
	DatabaseDSN         string
	DatabaseMaxConns    int
	DatabaseMaxIdleTime time.Duration

	// Gamma API (market metadata)
	GammaAPIBaseURL string
	GammaAPIRPS     float64

	// Data API (trades, holders, positions)
	DataAPIBaseURL      string
	DataAPIAuthMode     AuthMode
	DataAPIBearerToken  string
	DataAPIAPIKey       string
	DataAPIExtraHeaders map[string]string
	DataAPIRPS          float64

	// CLOB API (price history)
	CLOBAPIBaseURL string
	CLOBAPIRPS     float64

	// Gemini LLM
	GeminiAPIKey      string
	GeminiModel       string
	GeminiTemperature float64

	// Web search (Tavily)
	TavilyAPIKey string

	// NewsAPI
	NewsAPIKey            string
	NewsArticlesPerMarket int

	// Trader flow aggregation
	TraderFlowTopN       int
	TraderFlowLookback   time.Duration
	TraderFlowTradeLimit int
	EnrichmentWorkers    int

	// Wallet stats cache
	StatsCacheTTL time.Duration

	// Market refresher
	RefreshInterval       time.Duration
	TopMarketsLimit       int
	NewsRetentionDays     int
	SnapshotRetentionDays int

	// Whale notices
	WhaleTradeUSD    float64
	WhaleLookbackHrs int

	// Alerts
	AlertMode     string // log, discord, smtp (comma-separated)
	DiscordWebURL string
	SMTPHost      string
	SMTPPort      int
	SMTPUser      string
	SMTPPassword  string
	SMTPFrom      string
	SMTPTo        []string
}

// Load reads configuration from environment variables
func Load() (*Config, error) {
	cfg := &Config{
		Environment:           getEnv("ENVIRONMENT", "production"),
		LogLevel:              getEnv("LOG_LEVEL", "info"),
		ServerPort:            getEnvInt("SERVER_PORT", 8000),
		ReadTimeout:           getEnvDuration("SERVER_READ_TIMEOUT", 15*time.Second),
		WriteTimeout:          getEnvDuration("SERVER_WRITE_TIMEOUT", 120*time.Second),
		DatabaseDSN:           secrets.Optional("DATABASE_DSN", "debatefloor:debatefloor@tcp(mysql:3306)/debatefloor?parseTime=true"),
		DatabaseMaxConns:      getEnvInt("DATABASE_MAX_CONNS", 25),
		DatabaseMaxIdleTime:   time.Duration(getEnvInt("DATABASE_MAX_IDLE_TIME_MINS", 5)) * time.Minute,
		GammaAPIBaseURL:       getEnv("GAMMA_API_BASE_URL", "https://gamma-api.polymarket.com"),
		GammaAPIRPS:           getEnvFloat("GAMMA_API_RPS", 5.0),
		DataAPIBaseURL:        getEnv("DATA_API_BASE_URL", "https://data-api.polymarket.com"),
		DataAPIAuthMode:       AuthMode(getEnv("DATA_API_AUTH_MODE", "none")),
		DataAPIBearerToken:    secrets.Optional("DATA_API_BEARER_TOKEN", ""),
		DataAPIAPIKey:         secrets.Optional("DATA_API_API_KEY", ""),
		DataAPIRPS:            getEnvFloat("DATA_API_RPS", 2.0),
		CLOBAPIBaseURL:        getEnv("CLOB_API_BASE_URL", "https://clob.polymarket.com"),
		CLOBAPIRPS:            getEnvFloat("CLOB_API_RPS", 5.0),
		GeminiAPIKey:          secrets.Optional("GEMINI_API_KEY", ""),
		GeminiModel:           getEnv("GEMINI_MODEL", "gemini-2.5-flash-lite"),
		GeminiTemperature:     getEnvFloat("GEMINI_TEMPERATURE", 0.2),
		TavilyAPIKey:          secrets.Optional("TAVILY_API_KEY", ""),
		NewsAPIKey:            secrets.Optional("NEWS_API_KEY", ""),
		NewsArticlesPerMarket: getEnvInt("NEWS_ARTICLES_PER_MARKET", 10),
		TraderFlowTopN:        getEnvInt("TRADER_FLOW_TOP_N", 5),
		TraderFlowLookback:    getEnvDuration("TRADER_FLOW_LOOKBACK", 7*24*time.Hour),
		TraderFlowTradeLimit:  getEnvInt("TRADER_FLOW_TRADE_LIMIT", 500),
		EnrichmentWorkers:     getEnvInt("ENRICHMENT_WORKERS", 8),
		StatsCacheTTL:         getEnvDuration("STATS_CACHE_TTL", 300*time.Second),
		RefreshInterval:       getEnvDuration("REFRESH_INTERVAL", 15*time.Minute),
		TopMarketsLimit:       getEnvInt("TOP_MARKETS_LIMIT", 20),
		NewsRetentionDays:     getEnvInt("NEWS_RETENTION_DAYS", 7),
		SnapshotRetentionDays: getEnvInt("SNAPSHOT_RETENTION_DAYS", 30),
		WhaleTradeUSD:         getEnvFloat("WHALE_TRADE_USD", 10000.0),
		WhaleLookbackHrs:      getEnvInt("WHALE_LOOKBACK_HRS", 48),
		AlertMode:             getEnv("ALERT_MODE", "log"),
		DiscordWebURL:         secrets.Optional("DISCORD_WEBHOOK_URL", ""),
		SMTPHost:              getEnv("SMTP_HOST", ""),
		SMTPPort:              getEnvInt("SMTP_PORT", 587),
		SMTPUser:              getEnv("SMTP_USER", ""),
		SMTPPassword:          secrets.Optional("SMTP_PASSWORD", ""),
		SMTPFrom:              getEnv("SMTP_FROM", "debatefloor@example.com"),
	}

	// Parse SMTP_TO (comma-separated)
	smtpTo := getEnv("SMTP_TO", "")
	if smtpTo != "" {
		cfg.SMTPTo = parseCSV(smtpTo)
	}

	// Parse extra headers JSON
	extraHeadersJSON := getEnv("DATA_API_EXTRA_HEADERS", "{}")
	if err := json.Unmarshal([]byte(extraHeadersJSON), &cfg.DataAPIExtraHeaders); err != nil {
		return nil, fmt.Errorf("invalid DATA_API_EXTRA_HEADERS JSON: %w", err)
	}

	// Validate
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks configuration for errors
func (c *Config) Validate() error {
	if c.DatabaseDSN == "" {
		return fmt.Errorf("DATABASE_DSN is required")
	}

	if c.GeminiAPIKey == "" {
		return fmt.Errorf("GEMINI_API_KEY is required")
	}

	if c.GeminiTemperature < 0 || c.GeminiTemperature > 2 {
		return fmt.Errorf("GEMINI_TEMPERATURE must be in [0, 2], got %v", c.GeminiTemperature)
	}

	if c.ServerPort <= 0 || c.ServerPort > 65535 {
		return fmt.Errorf("SERVER_PORT must be a valid port, got %d", c.ServerPort)
	}

	if c.TopMarketsLimit <= 0 {
		return fmt.Errorf("TOP_MARKETS_LIMIT must be positive, got %d", c.TopMarketsLimit)
	}

	if c.WhaleTradeUSD <= 0 {
		return fmt.Errorf("WHALE_TRADE_USD must be positive, got %v", c.WhaleTradeUSD)
	}

	// Validate auth mode
	switch c.DataAPIAuthMode {
	case AuthModeNone:
		// No validation needed
	case AuthModeBearer:
		if c.DataAPIBearerToken == "" {
			return fmt.Errorf("DATA_API_BEARER_TOKEN is required when AUTH_MODE is bearer")
		}
	case AuthModeAPIKey:
		if c.DataAPIAPIKey == "" {
			return fmt.Errorf("DATA_API_API_KEY is required when AUTH_MODE is api_key")
		}
	default:
		return fmt.Errorf("invalid DATA_API_AUTH_MODE: %s (must be none, bearer, or api_key)", c.DataAPIAuthMode)
	}

	// Validate alert mode (comma-separated list)
	modes := strings.Split(c.AlertMode, ",")
	hasDiscord := false
	hasSMTP := false

	for _, mode := range modes {
		mode = strings.TrimSpace(mode)
		switch mode {
		case "log", "discord", "smtp":
			if mode == "discord" {
				hasDiscord = true
			}
			if mode == "smtp" {
				hasSMTP = true
			}
		default:
			return fmt.Errorf("invalid ALERT_MODE value: %s (valid values: log, discord, smtp)", mode)
		}
	}

	if hasDiscord && c.DiscordWebURL == "" {
		return fmt.Errorf("DISCORD_WEBHOOK_URL is required when discord is in ALERT_MODE")
	}

	if hasSMTP && c.SMTPHost == "" {
		return fmt.Errorf("SMTP_HOST is required when smtp is in ALERT_MODE")
	}

	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatVal, err := strconv.ParseFloat(value, 64); err == nil {
			return floatVal
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}

func parseCSV(s string) []string {
	var result []string
	for _, item := range strings.Split(s, ",") {
		if trimmed := strings.TrimSpace(item); trimmed != "" {
			result = append(result, trimmed)
		}
	}
	return result
}

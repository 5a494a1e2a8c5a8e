// Package config loads process-wide settings from the environment (.env via
// godotenv) the way the rest of the ambient stack expects: a single Config
// struct built once at startup, no package-level globals read directly by
// business logic.
package config

import (
	"os"
	"strconv"
	"strings"
)

// Config holds the process-wide settings read from the environment.
// Trading-specific defaults that vary per strategy live in
// config.RiskDefaults (risk.go), loaded separately from an optional YAML file.
type Config struct {
	// Exchange (C1)
	ExchangeAPIKey    string
	ExchangeAPISecret string
	UseTestnet        bool

	// News + LLM (C3)
	LLMAPIKey  string
	NewsAPIKey string

	// Trading loop defaults (C6), overridable per bot
	CheckIntervalSeconds int
	DefaultSLPct         float64
	DefaultTPPct         float64
	MinConfidence        float64

	// Dashboard (C7 external surface)
	APIServerPort int
	JWTSecret     string

	// Notifications (out of scope collaborator, optional)
	NotifierTelegramToken string
	NotifierChatID        int64

	// Database
	DBType     string // sqlite or postgres
	DBPath     string
	DBHost     string
	DBPort     int
	DBUser     string
	DBPassword string
	DBName     string
	DBSSLMode  string
}

// Load reads the Config from the process environment, applying the defaults
// named in §6. godotenv.Load should be called by main before Load so a local
// .env file is honored; Load itself never touches the filesystem.
func Load() *Config {
	cfg := &Config{
		CheckIntervalSeconds: 900,
		DefaultSLPct:         0.03,
		DefaultTPPct:         0.05,
		MinConfidence:        0.70,
		APIServerPort:        8080,
		DBType:               "sqlite",
		DBPath:               "data/spotpilot.db",
		DBHost:               "localhost",
		DBPort:               5432,
		DBUser:               "postgres",
		DBName:               "spotpilot",
		DBSSLMode:            "disable",
	}

	cfg.ExchangeAPIKey = os.Getenv("EXCHANGE_API_KEY")
	cfg.ExchangeAPISecret = os.Getenv("EXCHANGE_API_SECRET")
	cfg.UseTestnet = envBool("USE_TESTNET", false)

	cfg.LLMAPIKey = os.Getenv("LLM_API_KEY")
	cfg.NewsAPIKey = os.Getenv("NEWS_API_KEY")

	cfg.CheckIntervalSeconds = envInt("CHECK_INTERVAL_SECONDS", cfg.CheckIntervalSeconds)
	cfg.DefaultSLPct = envFloat("DEFAULT_SL_PCT", cfg.DefaultSLPct)
	cfg.DefaultTPPct = envFloat("DEFAULT_TP_PCT", cfg.DefaultTPPct)
	cfg.MinConfidence = envFloat("MIN_CONFIDENCE", cfg.MinConfidence)

	cfg.APIServerPort = envInt("API_SERVER_PORT", cfg.APIServerPort)
	cfg.JWTSecret = os.Getenv("JWT_SECRET")
	if cfg.JWTSecret == "" {
		cfg.JWTSecret = "change-me-in-production"
	}

	cfg.NotifierTelegramToken = os.Getenv("NOTIFIER_TELEGRAM_TOKEN")
	if v := os.Getenv("NOTIFIER_CHAT_ID"); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			cfg.NotifierChatID = n
		}
	}

	if v := os.Getenv("DB_TYPE"); v != "" {
		cfg.DBType = strings.ToLower(v)
	}
	if v := os.Getenv("DB_PATH"); v != "" {
		cfg.DBPath = v
	}
	if v := os.Getenv("DB_HOST"); v != "" {
		cfg.DBHost = v
	}
	cfg.DBPort = envInt("DB_PORT", cfg.DBPort)
	if v := os.Getenv("DB_USER"); v != "" {
		cfg.DBUser = v
	}
	cfg.DBPassword = os.Getenv("DB_PASSWORD")
	if v := os.Getenv("DB_NAME"); v != "" {
		cfg.DBName = v
	}
	if v := os.Getenv("DB_SSLMODE"); v != "" {
		cfg.DBSSLMode = v
	}

	return cfg
}

func envBool(key string, def bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	return strings.ToLower(v) == "true"
}

func envInt(key string, def int) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}

func envFloat(key string, def float64) float64 {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return def
	}
	return f
}

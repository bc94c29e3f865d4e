package config

import (
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const defaultSQLiteConnection = "./data/gritto.db?_pragma=foreign_keys(1)&_pragma=journal_mode(WAL)"

type Config struct {
	// Application
	AppName string
	AppEnv  string
	Port    string

	// Database (optional driver switch via ENV, default: sqlite)
	DBDriver     string
	DBConnection string

	// Security
	JWTSecret string
	JWTExpiry time.Duration

	// Reasoning engine (agent service)
	AgentBaseURL           string
	AgentAppName           string
	AgentTimeout           time.Duration
	AgentPreferredLanguage string

	// Planning
	DefaultAvailableHours float64

	// HTTP
	CORSAllowedOrigins []string
	MessageRateLimit   int
	MessageRateWindow  time.Duration

	// Observability (optional)
	SentryDSN      string
	MetricsEnabled bool
}

func Load() *Config {
	// Load .env file if it exists
	err := godotenv.Load()
	if err != nil {
		slog.Info("no .env file found, using environment variables")
	}

	cfg := &Config{
		// Application
		AppName: envString("APP_NAME", "Gritto"),
		AppEnv:  envRequired("APP_ENV"), // Required: 'development' or 'production'
		Port:    envString("PORT", "8080"),

		// Database
		DBDriver:     envString("DB_DRIVER", "sqlite"),
		DBConnection: envString("DB_CONNECTION", defaultSQLiteConnection),

		// Security
		JWTSecret: envRequired("JWT_SECRET"),
		JWTExpiry: envDuration("JWT_EXPIRY", 168*time.Hour), // 7 days

		// Reasoning engine
		AgentBaseURL:           envRequired("AGENT_BASE_URL"),
		AgentAppName:           envString("AGENT_APP_NAME", "goal_planning_agent"),
		AgentTimeout:           envDuration("AGENT_TIMEOUT", 90*time.Second),
		AgentPreferredLanguage: envString("AGENT_PREFERRED_LANGUAGE", "en"),

		// Planning
		DefaultAvailableHours: envFloat("DEFAULT_AVAILABLE_HOURS", 40),

		// HTTP
		CORSAllowedOrigins: envList("CORS_ALLOWED_ORIGINS", []string{"http://localhost:5173"}),
		MessageRateLimit:   envInt("MESSAGE_RATE_LIMIT", 30),
		MessageRateWindow:  envDuration("MESSAGE_RATE_WINDOW", time.Minute),

		// Observability
		SentryDSN:      envString("SENTRY_DSN", ""),
		MetricsEnabled: envBool("METRICS_ENABLED", true),
	}

	if cfg.DefaultAvailableHours < 0 || cfg.DefaultAvailableHours > 168 {
		slog.Warn("config DEFAULT_AVAILABLE_HOURS out of range, using 40", "value", cfg.DefaultAvailableHours)
		cfg.DefaultAvailableHours = 40
	}

	return cfg
}

// Database reads only the store settings, for tools that run without the
// engine or auth configuration.
func Database() (driver, connection string) {
	_ = godotenv.Load()
	return envString("DB_DRIVER", "sqlite"), envString("DB_CONNECTION", defaultSQLiteConnection)
}

func envString(key, def string) string {
	value := os.Getenv(key)
	if value == "" {
		value = def
	}
	return value
}

func envInt(key string, def int) int {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		slog.Warn("config invalid int, using default", "key", key, "value", v, "default", def)
		return def
	}
	return n
}

func envFloat(key string, def float64) float64 {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return def
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		slog.Warn("config invalid float, using default", "key", key, "value", v, "default", def)
		return def
	}
	return f
}

func envBool(key string, def bool) bool {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		slog.Warn("config invalid bool, using default", "key", key, "value", v, "default", def)
		return def
	}
	return b
}

func envDuration(key string, def time.Duration) time.Duration {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		slog.Warn("config invalid duration, using default", "key", key, "value", v, "default", def)
		return def
	}
	return d
}

func envList(key string, def []string) []string {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	var out []string
	for _, item := range strings.Split(v, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}

func envRequired(key string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	slog.Error("config required env var missing", "key", key)
	os.Exit(1)
	return ""
}

func (c *Config) IsDevelopment() bool {
	return c.AppEnv == "development"
}

func (c *Config) IsProduction() bool {
	return c.AppEnv == "production"
}

// Sanitized returns a copy of the config with secrets removed, safe to log.
func (c *Config) Sanitized() *Config {
	return &Config{
		AppName:                c.AppName,
		AppEnv:                 c.AppEnv,
		Port:                   c.Port,
		DBDriver:               c.DBDriver,
		AgentBaseURL:           c.AgentBaseURL,
		AgentAppName:           c.AgentAppName,
		AgentTimeout:           c.AgentTimeout,
		AgentPreferredLanguage: c.AgentPreferredLanguage,
		DefaultAvailableHours:  c.DefaultAvailableHours,
		CORSAllowedOrigins:     c.CORSAllowedOrigins,
		MessageRateLimit:       c.MessageRateLimit,
		MessageRateWindow:      c.MessageRateWindow,
		MetricsEnabled:         c.MetricsEnabled,
	}
}

package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

type PostgresConfig struct {
	Host     string
	Port     string
	DB       string
	Username string
	Password string
	SSLMode  string
	MaxConns int32
	MinConns int32
}

type RepositoriesConfig struct {
	Postgres PostgresConfig
}

type GeminiConfig struct {
	APIKey      string
	TextModel   string
	SpeechModel string
	Voice       string
}

type RateLimitConfig struct {
	AILimit    int
	AIWindow   time.Duration
	AuthLimit  int
	AuthWindow time.Duration
}

// LedgerConfig selects where rate limit ledgers are persisted.
// Driver is one of postgres, sqlite, redis or memory.
type LedgerConfig struct {
	Driver     string
	SQLitePath string
	RedisURL   string
	KeyPrefix  string
}

type JWTConfig struct {
	SecretKey string
	TTL       time.Duration
	Issuer    string
}

type ObservabilityConfig struct {
	ServiceName string
	MetricsAddr string
	PprofAddr   string
	OTLPHost    string
}

type Config struct {
	Repositories  RepositoriesConfig
	Gemini        GeminiConfig
	RateLimit     RateLimitConfig
	Ledger        LedgerConfig
	JWT           JWTConfig
	Observability ObservabilityConfig
	ServerPort    string
	LogLevel      string
}

func Load() (*Config, error) {
	cfg := &Config{
		Repositories: RepositoriesConfig{
			Postgres: PostgresConfig{
				Host:     getEnvOrDefault("POSTGRES_HOST", "localhost"),
				Port:     getEnvOrDefault("POSTGRES_PORT", "5454"),
				DB:       getEnvOrDefault("POSTGRES_DB", "kanso"),
				Username: getEnvOrDefault("POSTGRES_USER", "postgres"),
				Password: getEnvOrDefault("POSTGRES_PASSWORD", ""),
				SSLMode:  getEnvOrDefault("POSTGRES_SSLMODE", "disable"),
				MaxConns: int32(getEnvInt("POSTGRES_MAX_CONNS", 30)),
				MinConns: int32(getEnvInt("POSTGRES_MIN_CONNS", 5)),
			},
		},
		Gemini: GeminiConfig{
			APIKey:      getEnvOrDefault("GEMINI_API_KEY", ""),
			TextModel:   getEnvOrDefault("GEMINI_TEXT_MODEL", "gemini-3-flash-preview"),
			SpeechModel: getEnvOrDefault("GEMINI_SPEECH_MODEL", "gemini-2.5-flash-preview-tts"),
			Voice:       getEnvOrDefault("GEMINI_VOICE", "Kore"),
		},
		RateLimit: RateLimitConfig{
			AILimit:    getEnvInt("RATE_LIMIT_AI_REQUESTS", 10),
			AIWindow:   getEnvDuration("RATE_LIMIT_AI_WINDOW", time.Minute),
			AuthLimit:  getEnvInt("RATE_LIMIT_AUTH_ATTEMPTS", 5),
			AuthWindow: getEnvDuration("RATE_LIMIT_AUTH_WINDOW", 5*time.Minute),
		},
		Ledger: LedgerConfig{
			Driver:     getEnvOrDefault("LEDGER_DRIVER", "postgres"),
			SQLitePath: getEnvOrDefault("LEDGER_SQLITE_PATH", "data/ledger.db"),
			RedisURL:   getEnvOrDefault("LEDGER_REDIS_URL", "redis://localhost:6379/0"),
			KeyPrefix:  getEnvOrDefault("LEDGER_KEY_PREFIX", "kanso_rl_"),
		},
		JWT: JWTConfig{
			SecretKey: getEnvOrDefault("JWT_SECRET_KEY", ""),
			TTL:       getEnvDuration("JWT_TTL", 24*time.Hour),
			Issuer:    getEnvOrDefault("JWT_ISSUER", "kanso"),
		},
		Observability: ObservabilityConfig{
			ServiceName: getEnvOrDefault("OTEL_SERVICE_NAME", "kanso"),
			MetricsAddr: getEnvOrDefault("METRICS_ADDR", ":9092"),
			PprofAddr:   getEnvOrDefault("PPROF_ADDR", ":6060"),
			OTLPHost:    getEnvOrDefault("OTEL_EXPORTER_OTLP_HOST", "otel-collector:4318"),
		},
		ServerPort: getEnvOrDefault("SERVER_PORT", "8091"),
		LogLevel:   getEnvOrDefault("LOG_LEVEL", "info"),
	}

	if cfg.Repositories.Postgres.Password == "" {
		return nil, fmt.Errorf("POSTGRES_PASSWORD environment variable is required")
	}
	if cfg.JWT.SecretKey == "" {
		return nil, fmt.Errorf("JWT_SECRET_KEY environment variable is required")
	}
	switch cfg.Ledger.Driver {
	case "postgres", "sqlite", "redis", "memory":
	default:
		return nil, fmt.Errorf("unsupported LEDGER_DRIVER %q", cfg.Ledger.Driver)
	}

	return cfg, nil
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.Atoi(value); err == nil && n > 0 {
			return n
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil && d > 0 {
			return d
		}
	}
	return defaultValue
}

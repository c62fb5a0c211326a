package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/joho/godotenv"
	"go.uber.org/zap/zapcore"

	"github.com/liveclass/polling/internal/session"
)

// PersistMode selects how polls and votes reach the database.
type PersistMode string

const (
	// PersistDirect writes from an in-process goroutine.
	PersistDirect PersistMode = "direct"
	// PersistQueue enqueues jobs to Redis for a worker to apply.
	PersistQueue PersistMode = "queue"
)

// Config holds application configuration loaded from environment.
type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Redis    RedisConfig
	Poll     PollConfig
	Persist  PersistConfig
	Chat     ChatConfig
	Log      LogConfig
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port               string
	ReadTimeout        int
	WriteTimeout       int
	CORSAllowedOrigins []string // "*" or a list of origins; empty allows all
}

// DatabaseConfig holds PostgreSQL connection settings.
type DatabaseConfig struct {
	URL      string // if set, used as-is (e.g. postgres://localhost:5432/polling?sslmode=disable)
	Host     string
	Port     string
	User     string
	Password string
	DBName   string
	SSLMode  string
	MaxConns int
}

// RedisConfig holds Redis connection settings.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// PollConfig holds poll creation defaults.
type PollConfig struct {
	DefaultTimerSeconds int
	MaxTimerSeconds     int
	ReplacePolicy       session.ReplacePolicy
}

// PersistConfig controls the async persistence boundary.
type PersistConfig struct {
	Mode           PersistMode
	Buffer         int
	Timeout        time.Duration
	EmbeddedWorker bool // queue mode: also run the job processor inside the server
}

// ChatConfig holds the optional chat word filter.
type ChatConfig struct {
	CensoredWords []string
	CensorChar    rune
}

// LogConfig holds logger settings.
type LogConfig struct {
	Level zapcore.Level
}

// DSN returns the PostgreSQL connection string.
// If DatabaseConfig.URL is set (e.g. DATABASE_URL env), it is used as-is; otherwise built from components.
func (c DatabaseConfig) DSN() string {
	if c.URL != "" {
		return c.URL
	}
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%s/%s?sslmode=%s",
		c.User, c.Password, c.Host, c.Port, c.DBName, c.SSLMode,
	)
}

// SessionOptions converts the poll settings to coordinator options.
func (c PollConfig) SessionOptions() session.Options {
	return session.Options{
		DefaultTimerSeconds: c.DefaultTimerSeconds,
		MaxTimerSeconds:     c.MaxTimerSeconds,
		ReplacePolicy:       c.ReplacePolicy,
	}
}

// Load reads configuration from environment, with optional .env file.
func Load() (*Config, error) {
	_ = godotenv.Load()      // .env
	_ = godotenv.Load("env") // env (no leading dot)

	policy, err := session.ParseReplacePolicy(getEnv("POLL_REPLACE_POLICY", string(session.ReplaceGuarded)))
	if err != nil {
		return nil, err
	}
	mode, err := parsePersistMode(getEnv("PERSIST_MODE", string(PersistDirect)))
	if err != nil {
		return nil, err
	}
	level, err := zapcore.ParseLevel(getEnv("LOG_LEVEL", "info"))
	if err != nil {
		return nil, fmt.Errorf("invalid LOG_LEVEL: %w", err)
	}
	censorChar, _ := utf8.DecodeRuneInString(getEnv("CHAT_CENSOR_CHAR", "*"))

	cfg := &Config{
		Server: ServerConfig{
			Port:               getEnv("PORT", "8080"),
			ReadTimeout:        getEnvInt("READ_TIMEOUT_SEC", 30),
			WriteTimeout:       getEnvInt("WRITE_TIMEOUT_SEC", 30),
			CORSAllowedOrigins: splitTrim(getEnv("CORS_ALLOWED_ORIGINS", "http://localhost:5173,http://localhost:3000"), ","),
		},
		Database: DatabaseConfig{
			URL:      getEnv("DATABASE_URL", ""),
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnv("DB_PORT", "5432"),
			User:     getEnv("DB_USER", "postgres"),
			Password: getEnv("DB_PASSWORD", "postgres"),
			DBName:   getEnv("DB_NAME", "polling"),
			SSLMode:  getEnv("DB_SSLMODE", "disable"),
			MaxConns: getEnvInt("DB_MAX_CONNS", 10),
		},
		Redis: RedisConfig{
			Addr:     getEnv("REDIS_ADDR", "localhost:6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvInt("REDIS_DB", 0),
		},
		Poll: PollConfig{
			DefaultTimerSeconds: getEnvInt("POLL_DEFAULT_TIMER_SEC", 60),
			MaxTimerSeconds:     getEnvInt("POLL_MAX_TIMER_SEC", 600),
			ReplacePolicy:       policy,
		},
		Persist: PersistConfig{
			Mode:           mode,
			Buffer:         getEnvInt("PERSIST_BUFFER", 1024),
			Timeout:        time.Duration(getEnvInt("PERSIST_TIMEOUT_SEC", 5)) * time.Second,
			EmbeddedWorker: getEnvBool("PERSIST_EMBEDDED_WORKER", true),
		},
		Chat: ChatConfig{
			CensoredWords: splitTrim(getEnv("CHAT_CENSORED_WORDS", ""), ","),
			CensorChar:    censorChar,
		},
		Log: LogConfig{
			Level: level,
		},
	}
	if cfg.Poll.MaxTimerSeconds > 0 && cfg.Poll.DefaultTimerSeconds > cfg.Poll.MaxTimerSeconds {
		return nil, fmt.Errorf("POLL_DEFAULT_TIMER_SEC (%d) exceeds POLL_MAX_TIMER_SEC (%d)",
			cfg.Poll.DefaultTimerSeconds, cfg.Poll.MaxTimerSeconds)
	}
	return cfg, nil
}

func parsePersistMode(s string) (PersistMode, error) {
	switch PersistMode(strings.ToLower(s)) {
	case PersistDirect:
		return PersistDirect, nil
	case PersistQueue:
		return PersistQueue, nil
	default:
		return "", fmt.Errorf("unknown PERSIST_MODE %q", s)
	}
}

func getEnvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}

func splitTrim(s, sep string) []string {
	if s == "" {
		return nil
	}
	var out []string
	for _, v := range strings.Split(s, sep) {
		if t := strings.TrimSpace(v); t != "" {
			out = append(out, t)
		}
	}
	return out
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

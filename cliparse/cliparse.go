package cliparse

import (
	"errors"
	"flag"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Port         int
	DatabaseURL  string
	DatabaseType string
	AdminKeySalt string

	CaptchaRounds  int
	CaptchaWorkers int
	Watermark      string

	RedisURL   string
	SessionTTL time.Duration

	KafkaBrokers []string
	KafkaTopic   string

	LogLevel  string
	LogFormat string
}

// ParseFlags loads .env, parses flags and fills unset values from the environment
func ParseFlags(args []string) (Config, error) {
	var cfg Config

	// A missing .env is fine; a malformed one is not
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return Config{}, fmt.Errorf("failed to load .env: %w", err)
	}

	flags := flag.NewFlagSet("pollgate", flag.ContinueOnError)

	// Network and storage (can be CLI args or env)
	flags.IntVar(&cfg.Port, "p", 0, "Server port")
	flags.StringVar(&cfg.DatabaseURL, "d", "", "Database URL")
	flags.StringVar(&cfg.DatabaseType, "t", "", "Database type (sqlite or postgres)")
	flags.StringVar(&cfg.RedisURL, "redis", "", "Redis URL for challenge sessions (empty keeps them in memory)")

	// Secrets (prefer env variables, but allow CLI for dev)
	flags.StringVar(&cfg.AdminKeySalt, "admin-salt", "", "Admin key salt (prefer env)")

	// Challenge tuning
	flags.IntVar(&cfg.CaptchaRounds, "rounds", 0, "Puzzles a voter must solve before the vote is recorded")
	flags.IntVar(&cfg.CaptchaWorkers, "workers", 0, "Concurrent puzzle renderers")

	var kafkaBrokers string
	flags.StringVar(&kafkaBrokers, "kafka", "", "Comma-separated Kafka brokers for vote publication")

	if err := flags.Parse(args); err != nil {
		return Config{}, err
	}

	// Fall back to environment variables
	var err error
	if cfg.Port, err = intFromEnv(cfg.Port, "PORT", 3318); err != nil {
		return Config{}, err
	}

	if cfg.DatabaseType == "" {
		cfg.DatabaseType = os.Getenv("DATABASE_TYPE")
		if cfg.DatabaseType == "" {
			cfg.DatabaseType = "sqlite"
		}
	}
	if cfg.DatabaseType != "sqlite" && cfg.DatabaseType != "postgres" {
		return Config{}, fmt.Errorf("unsupported database type %q", cfg.DatabaseType)
	}

	if cfg.DatabaseURL == "" {
		cfg.DatabaseURL = os.Getenv("DATABASE_URL")
	}
	if cfg.DatabaseURL == "" {
		if cfg.DatabaseType == "postgres" {
			return Config{}, errors.New("database URL required (use -d or DATABASE_URL env)")
		}
		cfg.DatabaseURL = "pollgate.db"
	}

	// Secrets - MUST be provided
	if cfg.AdminKeySalt == "" {
		cfg.AdminKeySalt = os.Getenv("ADMIN_KEY_SALT")
	}
	if cfg.AdminKeySalt == "" {
		return Config{}, errors.New("ADMIN_KEY_SALT required")
	}

	if cfg.CaptchaRounds, err = intFromEnv(cfg.CaptchaRounds, "CAPTCHA_ROUNDS", 3); err != nil {
		return Config{}, err
	}
	if cfg.CaptchaRounds < 1 {
		return Config{}, errors.New("CAPTCHA_ROUNDS must be at least 1")
	}
	if cfg.CaptchaWorkers, err = intFromEnv(cfg.CaptchaWorkers, "CAPTCHA_WORKERS", 8); err != nil {
		return Config{}, err
	}
	if cfg.CaptchaWorkers < 1 {
		return Config{}, errors.New("CAPTCHA_WORKERS must be at least 1")
	}

	cfg.Watermark = envOr("CAPTCHA_WATERMARK", "@pollgate")

	if cfg.RedisURL == "" {
		cfg.RedisURL = os.Getenv("REDIS_URL")
	}
	if ttl := os.Getenv("SESSION_TTL"); ttl != "" {
		d, err := time.ParseDuration(ttl)
		if err != nil || d < 0 {
			return Config{}, errors.New("invalid SESSION_TTL env variable")
		}
		cfg.SessionTTL = d
	}

	if kafkaBrokers == "" {
		kafkaBrokers = os.Getenv("KAFKA_BROKERS")
	}
	cfg.KafkaBrokers = splitList(kafkaBrokers)
	cfg.KafkaTopic = envOr("KAFKA_TOPIC", "poll-votes")

	cfg.LogLevel = envOr("LOG_LEVEL", "info")
	cfg.LogFormat = envOr("LOG_FORMAT", "auto")

	return cfg, nil
}

func intFromEnv(current int, key string, def int) (int, error) {
	if current != 0 {
		return current, nil
	}
	raw := os.Getenv(key)
	if raw == "" {
		return def, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s env variable", key)
	}
	return v, nil
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

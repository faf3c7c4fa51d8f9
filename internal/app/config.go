package app

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/joeshaw/envdecode"

	"github.com/yungbote/healthlog-backend/internal/data/db"
)

const defaultJWTSecret = "defaultsecret"

const (
	LLMProviderOpenAI  = "openai"
	LLMProviderBedrock = "bedrock"
	LLMProviderNone    = "none"
)

type Config struct {
	Port        string `env:"PORT,default=8080"`
	LogMode     string `env:"LOG_MODE,default=development"`
	ServiceName string `env:"OTEL_SERVICE_NAME,default=healthlog"`
	Environment string `env:"APP_ENV,default=development"`
	Version     string `env:"APP_VERSION,default=dev"`

	DBDriver         string `env:"DB_DRIVER,default=postgres"`
	SQLitePath       string `env:"SQLITE_PATH,default=healthlog.db"`
	PostgresHost     string `env:"POSTGRES_HOST,default=localhost"`
	PostgresPort     string `env:"POSTGRES_PORT,default=5432"`
	PostgresUser     string `env:"POSTGRES_USER,default=postgres"`
	PostgresPassword string `env:"POSTGRES_PASSWORD"`
	PostgresName     string `env:"POSTGRES_NAME,default=healthlog"`

	JWTSecretKey   string        `env:"JWT_SECRET_KEY,default=defaultsecret"`
	AccessTokenTTL time.Duration `env:"ACCESS_TOKEN_TTL,default=1h"`
	AllowedOrigins string        `env:"CORS_ALLOWED_ORIGINS"`

	LLMProvider string `env:"LLM_PROVIDER,default=openai"`

	UpstreamTimeout time.Duration `env:"INGEST_UPSTREAM_TIMEOUT,default=30s"`
	UpstreamRPS     float64       `env:"INGEST_UPSTREAM_RPS,default=0"`
	RateLimit       int           `env:"INGEST_RATE_LIMIT,default=100"`
	RateWindow      time.Duration `env:"INGEST_RATE_WINDOW,default=1m"`
	SweepInterval   time.Duration `env:"INGEST_SWEEP_INTERVAL,default=1m"`
	FuzzyThreshold  float64       `env:"INGEST_FUZZY_THRESHOLD,default=0.8"`
	MinCalories     float64       `env:"INGEST_MIN_CALORIES,default=1"`
	Timezone        string        `env:"INGEST_TIMEZONE,default=UTC"`
	ReferenceDir    string        `env:"REFERENCE_DATA_DIR"`

	RedisAddr     string `env:"REDIS_ADDR"`
	RedisPassword string `env:"REDIS_PASSWORD"`
	RedisDB       int    `env:"REDIS_DB,default=0"`
}

// LoadConfig decodes Config from the environment and validates it.
func LoadConfig() (Config, error) {
	var cfg Config
	if err := envdecode.Decode(&cfg); err != nil && !errors.Is(err, envdecode.ErrNoTargetFieldsAreSet) {
		return Config{}, fmt.Errorf("decode env: %w", err)
	}
	cfg.LLMProvider = strings.ToLower(strings.TrimSpace(cfg.LLMProvider))
	return cfg, cfg.validate()
}

func (c Config) validate() error {
	switch c.LLMProvider {
	case LLMProviderOpenAI, LLMProviderBedrock, LLMProviderNone:
	default:
		return fmt.Errorf("LLM_PROVIDER %q: want openai, bedrock or none", c.LLMProvider)
	}
	if c.JWTSecretKey == "" || (c.JWTSecretKey == defaultJWTSecret && c.Environment != "development") {
		return fmt.Errorf("JWT_SECRET_KEY must be set outside development")
	}
	if c.RateLimit <= 0 || c.RateWindow <= 0 {
		return fmt.Errorf("INGEST_RATE_LIMIT and INGEST_RATE_WINDOW must be positive")
	}
	if c.FuzzyThreshold <= 0 || c.FuzzyThreshold > 1 {
		return fmt.Errorf("INGEST_FUZZY_THRESHOLD must be in (0, 1]")
	}
	if _, err := time.LoadLocation(c.Timezone); err != nil {
		return fmt.Errorf("INGEST_TIMEZONE: %w", err)
	}
	return nil
}

func (c Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

func (c Config) Origins() []string {
	var out []string
	for _, o := range strings.Split(c.AllowedOrigins, ",") {
		if o = strings.TrimSpace(o); o != "" {
			out = append(out, o)
		}
	}
	return out
}

func (c Config) DB() db.Config {
	return db.Config{
		Driver:           c.DBDriver,
		SQLitePath:       c.SQLitePath,
		PostgresHost:     c.PostgresHost,
		PostgresPort:     c.PostgresPort,
		PostgresUser:     c.PostgresUser,
		PostgresPassword: c.PostgresPassword,
		PostgresName:     c.PostgresName,
	}
}

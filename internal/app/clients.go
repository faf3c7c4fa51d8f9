package app

import (
	"context"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/yungbote/healthlog-backend/internal/ingestion/extractor"
	"github.com/yungbote/healthlog-backend/internal/platform/bedrock"
	"github.com/yungbote/healthlog-backend/internal/platform/logger"
	"github.com/yungbote/healthlog-backend/internal/platform/openai"
)

type Clients struct {
	Completer extractor.Completer
	Redis     *goredis.Client
}

func wireClients(ctx context.Context, log *logger.Logger, cfg Config) Clients {
	log.Info("Wiring clients...")
	return Clients{
		Completer: wireCompleter(ctx, log, cfg),
		Redis:     wireRedis(ctx, log, cfg),
	}
}

// wireCompleter never fails: a missing or broken backend becomes an
// Unavailable completer so ingestion reports 503 instead of blocking startup.
func wireCompleter(ctx context.Context, log *logger.Logger, cfg Config) extractor.Completer {
	switch cfg.LLMProvider {
	case LLMProviderOpenAI:
		c, err := openai.NewClient(log, openai.OptionsFromEnv())
		if err != nil {
			log.Warn("OpenAI completer unavailable", "error", err)
			return extractor.Unavailable{Reason: err.Error()}
		}
		return c
	case LLMProviderBedrock:
		c, err := bedrock.NewFromDefaultConfig(ctx, log, bedrock.OptionsFromEnv())
		if err != nil {
			log.Warn("Bedrock completer unavailable", "error", err)
			return extractor.Unavailable{Reason: err.Error()}
		}
		return c
	default:
		return extractor.Unavailable{Reason: "LLM_PROVIDER=none"}
	}
}

func wireRedis(ctx context.Context, log *logger.Logger, cfg Config) *goredis.Client {
	if cfg.RedisAddr == "" {
		return nil
	}
	rdb := goredis.NewClient(&goredis.Options{
		Addr:        cfg.RedisAddr,
		Password:    cfg.RedisPassword,
		DB:          cfg.RedisDB,
		DialTimeout: 5 * time.Second,
	})
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		log.Warn("Redis unreachable; admission state stays in process", "addr", cfg.RedisAddr, "error", err)
		_ = rdb.Close()
		return nil
	}
	return rdb
}

package app

import (
	"context"
	"fmt"
	"sync"

	"gorm.io/gorm"

	"github.com/yungbote/healthlog-backend/internal/data/db"
	"github.com/yungbote/healthlog-backend/internal/data/repos"
	"github.com/yungbote/healthlog-backend/internal/http"
	"github.com/yungbote/healthlog-backend/internal/observability"
	"github.com/yungbote/healthlog-backend/internal/platform/logger"
)

type App struct {
	Log      *logger.Logger
	DB       *gorm.DB
	Server   *http.Server
	Cfg      Config
	Repos    repos.Set
	Services Services
	Clients  Clients

	otelShutdown func(context.Context) error
	cancel       context.CancelFunc
	wg           sync.WaitGroup
}

func New(ctx context.Context) (*App, error) {
	cfg, err := LoadConfig()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	log, err := logger.New(cfg.LogMode)
	if err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}

	otelShutdown := observability.InitOTel(ctx, log, observability.OtelConfig{
		ServiceName: cfg.ServiceName,
		Environment: cfg.Environment,
		Version:     cfg.Version,
	})
	metrics := observability.Init(log)

	theDB, err := db.Open(log, cfg.DB())
	if err != nil {
		log.Sync()
		return nil, fmt.Errorf("open database: %w", err)
	}
	if err := db.Migrate(theDB); err != nil {
		log.Sync()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	clients := wireClients(ctx, log, cfg)
	reposet := wireRepos(theDB, log)
	serviceset, err := wireServices(theDB, log, cfg, reposet, clients)
	if err != nil {
		log.Sync()
		return nil, err
	}
	handlerset := wireHandlers(log, cfg, serviceset)
	middleware := wireMiddleware(log, serviceset)
	router := wireRouter(log, cfg, serviceset, handlerset, middleware, metrics)

	return &App{
		Log:          log,
		DB:           theDB,
		Server:       &http.Server{Engine: router},
		Cfg:          cfg,
		Repos:        reposet,
		Services:     serviceset,
		Clients:      clients,
		otelShutdown: otelShutdown,
	}, nil
}

// Start launches background workers tied to the app lifetime.
func (a *App) Start(ctx context.Context) {
	if a == nil || a.cancel != nil {
		return
	}
	ctx, cancel := context.WithCancel(ctx)
	a.cancel = cancel

	if a.Services.LocalLimiter != nil {
		a.wg.Add(1)
		go func() {
			defer a.wg.Done()
			a.Services.LocalLimiter.RunSweeper(ctx, a.Cfg.SweepInterval)
		}()
	}
}

// Run serves HTTP until ctx is cancelled.
func (a *App) Run(ctx context.Context) error {
	if a == nil || a.Server == nil {
		return fmt.Errorf("app not initialized")
	}
	addr := ":" + a.Cfg.Port
	a.Log.Info("HTTP server listening", "addr", addr, "llm_provider", a.Cfg.LLMProvider, "db_driver", a.Cfg.DBDriver)
	return a.Server.Run(ctx, addr)
}

func (a *App) Close() {
	if a == nil {
		return
	}
	if a.cancel != nil {
		a.cancel()
		a.cancel = nil
	}
	a.wg.Wait()
	if a.Clients.Redis != nil {
		_ = a.Clients.Redis.Close()
	}
	if a.otelShutdown != nil {
		_ = a.otelShutdown(context.Background())
	}
	if sqlDB, err := a.DB.DB(); err == nil {
		_ = sqlDB.Close()
	}
	if a.Log != nil {
		a.Log.Sync()
	}
}

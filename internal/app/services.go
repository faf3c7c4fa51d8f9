package app

import (
	"fmt"

	"gorm.io/gorm"

	"github.com/yungbote/healthlog-backend/internal/data/repos"
	"github.com/yungbote/healthlog-backend/internal/ingestion/admission"
	"github.com/yungbote/healthlog-backend/internal/ingestion/catalog"
	"github.com/yungbote/healthlog-backend/internal/ingestion/pipeline"
	"github.com/yungbote/healthlog-backend/internal/platform/logger"
	"github.com/yungbote/healthlog-backend/internal/services"
)

type Services struct {
	Auth     services.AuthService
	Foods    services.FoodService
	FoodLogs services.FoodLogService
	Metrics  services.MetricService

	Activities services.ActivityService

	Ingest       *pipeline.Orchestrator
	LocalLimiter *admission.LocalLimiter
	Limiter      admission.Limiter
}

func wireServices(db *gorm.DB, log *logger.Logger, cfg Config, reposet repos.Set, clients Clients) (Services, error) {
	log.Info("Wiring services...")

	ref, err := catalog.LoadReferenceData(cfg.ReferenceDir)
	if err != nil {
		return Services{}, fmt.Errorf("load reference data: %w", err)
	}
	loc := cfg.Location()

	writer := pipeline.NewLogWriter(log, db, reposet.FoodItems, reposet.FoodLogs, ref.Units)
	resolver := catalog.NewResolver(log, reposet.FoodItems, catalog.ResolverOptions{Threshold: cfg.FuzzyThreshold})
	synth := catalog.NewSynthesizer(log, reposet.FoodItems, ref, catalog.SynthesizerOptions{MinCalories: cfg.MinCalories})
	orchestrator := pipeline.NewOrchestrator(log, clients.Completer, resolver, synth, writer, pipeline.Config{
		UpstreamTimeout: cfg.UpstreamTimeout,
		UpstreamRPS:     cfg.UpstreamRPS,
		Location:        loc,
	})

	local := admission.NewLocalLimiter()
	var limiter admission.Limiter = local
	if clients.Redis != nil {
		limiter = admission.NewRedisLimiter(clients.Redis, local, log)
	}

	foods := services.NewFoodService(log, reposet.FoodItems, ref.Units)
	return Services{
		Auth:         services.NewAuthService(log, cfg.JWTSecretKey, cfg.AccessTokenTTL),
		Foods:        foods,
		FoodLogs:     services.NewFoodLogService(log, foods, reposet.FoodLogs, writer, loc),
		Metrics:      services.NewMetricService(log, reposet.MetricLogs),
		Activities:   services.NewActivityService(log, reposet.ActivityTypes, reposet.ActivityLogs),
		Ingest:       orchestrator,
		LocalLimiter: local,
		Limiter:      limiter,
	}, nil
}

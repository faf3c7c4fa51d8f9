package app

import (
	"github.com/gin-gonic/gin"

	"github.com/yungbote/healthlog-backend/internal/http"
	httpH "github.com/yungbote/healthlog-backend/internal/http/handlers"
	httpMW "github.com/yungbote/healthlog-backend/internal/http/middleware"
	"github.com/yungbote/healthlog-backend/internal/observability"
	"github.com/yungbote/healthlog-backend/internal/platform/logger"
)

type Middleware struct {
	Auth *httpMW.AuthMiddleware
}

type Handlers struct {
	Health  *httpH.HealthHandler
	Auth    *httpH.AuthHandler
	Ingest  *httpH.IngestHandler
	Food    *httpH.FoodHandler
	FoodLog *httpH.FoodLogHandler
	Metric  *httpH.MetricHandler

	Activity *httpH.ActivityHandler
}

func wireHandlers(log *logger.Logger, cfg Config, services Services) Handlers {
	log.Info("Wiring handlers...")
	loc := cfg.Location()
	return Handlers{
		Health:  httpH.NewHealthHandler(),
		Auth:    httpH.NewAuthHandler(),
		Ingest:  httpH.NewIngestHandler(services.Ingest),
		Food:    httpH.NewFoodHandler(services.Foods),
		FoodLog: httpH.NewFoodLogHandler(services.FoodLogs, loc),
		Metric:  httpH.NewMetricHandler(services.Metrics, loc),

		Activity: httpH.NewActivityHandler(services.Activities, loc),
	}
}

func wireMiddleware(log *logger.Logger, services Services) Middleware {
	log.Info("Wiring middleware...")
	return Middleware{
		Auth: httpMW.NewAuthMiddleware(log, services.Auth),
	}
}

func wireRouter(log *logger.Logger, cfg Config, services Services, handlers Handlers, middleware Middleware, metrics *observability.Metrics) *gin.Engine {
	return http.NewRouter(http.RouterConfig{
		Log:            log,
		ServiceName:    cfg.ServiceName,
		AllowedOrigins: cfg.Origins(),
		Metrics:        metrics,
		AuthMiddleware: middleware.Auth,
		IngestLimiter:  services.Limiter,
		IngestLimit:    cfg.RateLimit,
		IngestWindow:   cfg.RateWindow,
		HealthHandler:  handlers.Health,
		AuthHandler:    handlers.Auth,
		IngestHandler:  handlers.Ingest,
		FoodHandler:    handlers.Food,
		FoodLogHandler: handlers.FoodLog,
		MetricHandler:  handlers.Metric,

		ActivityHandler: handlers.Activity,
	})
}

package http

import (
	"time"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	httpH "github.com/yungbote/healthlog-backend/internal/http/handlers"
	httpMW "github.com/yungbote/healthlog-backend/internal/http/middleware"
	"github.com/yungbote/healthlog-backend/internal/ingestion/admission"
	"github.com/yungbote/healthlog-backend/internal/observability"
	"github.com/yungbote/healthlog-backend/internal/platform/logger"
)

type RouterConfig struct {
	Log            *logger.Logger
	ServiceName    string
	AllowedOrigins []string
	Metrics        *observability.Metrics

	AuthMiddleware *httpMW.AuthMiddleware
	IngestLimiter  admission.Limiter
	IngestLimit    int
	IngestWindow   time.Duration

	HealthHandler  *httpH.HealthHandler
	AuthHandler    *httpH.AuthHandler
	IngestHandler  *httpH.IngestHandler
	FoodHandler    *httpH.FoodHandler
	FoodLogHandler *httpH.FoodLogHandler
	MetricHandler  *httpH.MetricHandler

	ActivityHandler *httpH.ActivityHandler
}

func NewRouter(cfg RouterConfig) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	if cfg.ServiceName != "" {
		r.Use(otelgin.Middleware(cfg.ServiceName))
	}
	r.Use(httpMW.AttachTraceContext())
	r.Use(httpMW.RequestLogger(cfg.Log))
	r.Use(httpMW.Metrics(cfg.Metrics))
	r.Use(httpMW.CORS(cfg.AllowedOrigins...))

	// Health
	if cfg.HealthHandler != nil {
		r.GET("/healthcheck", cfg.HealthHandler.HealthCheck)
	}
	if cfg.Metrics != nil {
		r.GET("/metrics", gin.WrapF(cfg.Metrics.WriteHTTP))
	}

	api := r.Group("/api")
	protected := api.Group("/")
	{
		// Middleware
		if cfg.AuthMiddleware != nil {
			protected.Use(cfg.AuthMiddleware.RequireAuth())
		}

		if cfg.AuthHandler != nil {
			protected.GET("/me", cfg.AuthHandler.Me)
		}

		// Ingestion
		if cfg.IngestHandler != nil {
			chain := []gin.HandlerFunc{}
			if cfg.IngestLimiter != nil {
				chain = append(chain, admission.RateLimit(cfg.IngestLimiter, cfg.IngestLimit, cfg.IngestWindow))
			}
			chain = append(chain, cfg.IngestHandler.Ingest)
			protected.POST("/ingest", chain...)
		}

		// Food catalog
		if cfg.FoodHandler != nil {
			protected.GET("/foods", cfg.FoodHandler.List)
			protected.POST("/foods", cfg.FoodHandler.Create)
			protected.GET("/foods/:id", cfg.FoodHandler.Get)
			protected.PATCH("/foods/:id", cfg.FoodHandler.Update)
			protected.DELETE("/foods/:id", cfg.FoodHandler.Delete)
		}

		// Food logs
		if cfg.FoodLogHandler != nil {
			protected.GET("/food-logs", cfg.FoodLogHandler.List)
			protected.POST("/food-logs", cfg.FoodLogHandler.Create)
			protected.GET("/food-logs/summary", cfg.FoodLogHandler.Summary)
			protected.GET("/food-logs/:id", cfg.FoodLogHandler.Get)
			protected.DELETE("/food-logs/:id", cfg.FoodLogHandler.Delete)
		}

		// Metrics
		if cfg.MetricHandler != nil {
			protected.GET("/metrics", cfg.MetricHandler.List)
			protected.POST("/metrics", cfg.MetricHandler.Create)
			protected.GET("/metrics/aggregate", cfg.MetricHandler.Aggregate)
			protected.DELETE("/metrics/:id", cfg.MetricHandler.Delete)
		}

		// Activities
		if cfg.ActivityHandler != nil {
			protected.GET("/activities", cfg.ActivityHandler.ListTypes)
			protected.POST("/activities", cfg.ActivityHandler.CreateType)
			protected.GET("/activities/:id", cfg.ActivityHandler.GetType)
			protected.DELETE("/activities/:id", cfg.ActivityHandler.DeleteType)

			protected.GET("/activity-logs", cfg.ActivityHandler.ListLogs)
			protected.POST("/activity-logs", cfg.ActivityHandler.CreateLog)
			protected.GET("/activity-logs/totals", cfg.ActivityHandler.Totals)
			protected.GET("/activity-logs/:id", cfg.ActivityHandler.GetLog)
			protected.DELETE("/activity-logs/:id", cfg.ActivityHandler.DeleteLog)
		}
	}

	return r
}

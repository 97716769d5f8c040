package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/logaudit/internal/ai"
	"github.com/logaudit/internal/config"
	"github.com/logaudit/internal/state"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

// RouterConfig carries the dependencies of the HTTP API.
type RouterConfig struct {
	Machine        *state.Machine
	Analyzer       state.Analyzer
	AIClient       ai.Client
	Gatherer       prometheus.Gatherer
	RateLimit      config.RateLimitConfig
	MaxUploadBytes int64
	Logger         *zap.Logger
}

// NewRouter builds the gin engine with middleware and all routes.
func NewRouter(cfg RouterConfig) *gin.Engine {
	router := gin.New()

	// Apply middleware
	router.Use(RecoveryMiddleware(cfg.Logger))
	router.Use(RequestIDMiddleware())
	router.Use(LoggingMiddleware(cfg.Logger))
	router.Use(CORSMiddleware())
	router.Use(MetricsMiddleware())

	analysisHandler := NewAnalysisHandler(cfg.Machine, cfg.Analyzer, cfg.MaxUploadBytes, cfg.Logger)
	healthHandler := NewHealthHandler(cfg.Logger)
	readyHandler := NewReadyHandler(cfg.AIClient, cfg.Logger)

	// Register routes
	router.GET("/health", healthHandler.Handle)
	router.GET("/ready", readyHandler.Handle)
	if cfg.Gatherer != nil {
		router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(cfg.Gatherer, promhttp.HandlerOpts{})))
	}

	// API v1 routes
	v1 := router.Group("/api/v1")
	{
		v1.POST("/analyses",
			RateLimitMiddleware(cfg.RateLimit.RequestsPerSecond, cfg.RateLimit.Burst, cfg.Logger),
			analysisHandler.Submit,
		)

		analysis := v1.Group("/analysis")
		analysis.GET("", analysisHandler.Current)
		analysis.GET("/severity-counts", analysisHandler.SeverityCounts)
		analysis.GET("/severity-chart", analysisHandler.SeverityChart)
		analysis.GET("/timeline", analysisHandler.Timeline)
		analysis.GET("/threats", analysisHandler.Threats)
		analysis.GET("/logs", analysisHandler.Logs)
	}

	return router
}

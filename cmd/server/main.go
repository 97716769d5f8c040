// Log Audit Service - Server Entry Point
//
// Accepts raw log text over HTTP, has an AI service structure and audit it,
// and serves the validated result through summary, filter and chart views.
package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os/signal"
	"regexp"
	"syscall"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/logaudit/internal/ai"
	"github.com/logaudit/internal/config"
	"github.com/logaudit/internal/handler"
	"github.com/logaudit/internal/logger"
	"github.com/logaudit/internal/metrics"
	"github.com/logaudit/internal/service"
	"github.com/logaudit/internal/state"
	"github.com/logaudit/pkg/sanitizer"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

func main() {
	// Load .env file if it exists (development)
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}

	zapLogger, err := logger.New(cfg.Development, cfg.LogLevel)
	if err != nil {
		log.Fatalf("failed to initialize logger: %v", err)
	}
	defer zapLogger.Sync()

	zapLogger.Info("starting log audit service",
		zap.Bool("development", cfg.Development),
		zap.String("port", cfg.Server.Port),
		zap.String("ai_provider", string(cfg.AI.Provider)),
		zap.String("ai_model", cfg.AI.Model),
		zap.Bool("mock_mode", cfg.AI.MockMode),
		zap.Int("max_log_chars", cfg.Processing.MaxLogChars),
		zap.Bool("redact_secrets", cfg.Processing.RedactSecrets),
		zap.Bool("redact_pii", cfg.Processing.RedactPII),
	)

	if err := run(cfg, zapLogger); err != nil {
		zapLogger.Fatal("server failed", zap.Error(err))
	}

	zapLogger.Info("server stopped")
}

func run(cfg *config.Config, zapLogger *zap.Logger) error {
	signalCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	if err := metrics.Register(registry); err != nil {
		return err
	}

	aiClient, err := ai.NewClient(&cfg.AI, zapLogger)
	if err != nil {
		return err
	}

	var patterns []*regexp.Regexp
	if cfg.Processing.RedactSecrets {
		patterns = sanitizer.DefaultPatterns()
		if cfg.Processing.RedactPII {
			patterns = append(patterns, sanitizer.PIIPatterns()...)
		}
	}
	logSanitizer := sanitizer.NewWithPatterns(cfg.Processing.MaxLogChars, patterns)

	analyzerSvc := service.NewAnalyzer(
		aiClient,
		logSanitizer,
		service.AnalyzerConfig{
			Timeout: cfg.AI.Timeout,
		},
		zapLogger,
	)

	if !cfg.Development {
		gin.SetMode(gin.ReleaseMode)
	}

	router := handler.NewRouter(handler.RouterConfig{
		Machine:        state.NewMachine(zapLogger),
		Analyzer:       analyzerSvc,
		AIClient:       aiClient,
		Gatherer:       registry,
		RateLimit:      cfg.Server.RateLimit,
		MaxUploadBytes: cfg.Processing.MaxUploadBytes,
		Logger:         zapLogger,
	})

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	group, ctx := errgroup.WithContext(signalCtx)

	group.Go(func() error {
		zapLogger.Info("server listening", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	group.Go(func() error {
		<-ctx.Done()
		zapLogger.Info("shutting down server...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			zapLogger.Error("server forced to shutdown", zap.Error(err))
			return err
		}
		return nil
	})

	return group.Wait()
}

package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/logaudit/internal/ai"
	"go.uber.org/zap"
)

const readinessTimeout = 5 * time.Second

// HealthHandler handles health check requests.
type HealthHandler struct {
	logger *zap.Logger
}

// NewHealthHandler creates a new HealthHandler.
func NewHealthHandler(logger *zap.Logger) *HealthHandler {
	return &HealthHandler{
		logger: logger.Named("health_handler"),
	}
}

// Handle processes GET /health requests.
func (h *HealthHandler) Handle(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "healthy",
		"time":   time.Now().UTC().Format(time.RFC3339),
	})
}

// ReadyHandler reports whether the AI service can be reached.
type ReadyHandler struct {
	client ai.Client
	logger *zap.Logger
}

// NewReadyHandler creates a new ReadyHandler.
func NewReadyHandler(client ai.Client, logger *zap.Logger) *ReadyHandler {
	return &ReadyHandler{
		client: client,
		logger: logger.Named("ready_handler"),
	}
}

// Handle processes GET /ready requests.
func (h *ReadyHandler) Handle(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), readinessTimeout)
	defer cancel()

	if err := h.client.HealthCheck(ctx); err != nil {
		h.logger.Warn("AI service not ready", zap.Error(err))
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"status": "unavailable",
			"error":  err.Error(),
			"time":   time.Now().UTC().Format(time.RFC3339),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status": "ready",
		"time":   time.Now().UTC().Format(time.RFC3339),
	})
}

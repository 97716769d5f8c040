// Package handler contains HTTP handlers for the API.
package handler

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/logaudit/internal/domain"
	"github.com/logaudit/internal/state"
	"github.com/logaudit/internal/view"
	"go.uber.org/zap"
)

// uploadField is the multipart form field carrying a log file.
const uploadField = "file"

// advisoryExtensions are the file types the UI offers. Others are still accepted.
var advisoryExtensions = map[string]bool{
	".log":  true,
	".txt":  true,
	".csv":  true,
	".json": true,
}

var errNoResult = errors.New("no successful analysis available")

// AnalysisHandler submits analyses and serves views of the current result.
type AnalysisHandler struct {
	machine        *state.Machine
	analyzer       state.Analyzer
	maxUploadBytes int64
	logger         *zap.Logger
}

// NewAnalysisHandler creates a new AnalysisHandler.
func NewAnalysisHandler(machine *state.Machine, analyzer state.Analyzer, maxUploadBytes int64, logger *zap.Logger) *AnalysisHandler {
	return &AnalysisHandler{
		machine:        machine,
		analyzer:       analyzer,
		maxUploadBytes: maxUploadBytes,
		logger:         logger.Named("analysis_handler"),
	}
}

// Submit processes POST /api/v1/analyses. The body is either JSON
// {"log": "..."} or a multipart form with a "file" field.
//
// Responds 200 with the snapshot when the analysis succeeded, 422 when it
// failed, and 409 when a newer submission superseded it.
func (h *AnalysisHandler) Submit(c *gin.Context) {
	startTime := time.Now()
	logger := h.logger.With(zap.String("request_id", c.GetString(requestIDKey)))

	if h.maxUploadBytes > 0 {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.maxUploadBytes)
	}

	text, err := h.readLog(c, logger)
	if err != nil {
		status := http.StatusBadRequest
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			status = http.StatusRequestEntityTooLarge
		}
		logger.Warn("invalid request body", zap.Error(err))
		c.JSON(status, errorBody("invalid request body: "+err.Error()))
		return
	}

	// The run must finish even if this client goes away; only the AI
	// timeout bounds it. A newer submission makes its outcome stale.
	ctx := context.WithoutCancel(c.Request.Context())
	snap, applied := state.Run(ctx, h.machine, h.analyzer, text)

	logger.Info("analysis request finished",
		zap.Bool("applied", applied),
		zap.String("phase", string(snap.Phase)),
		zap.Uint64("generation", snap.Generation),
		zap.Duration("duration", time.Since(startTime)),
	)

	switch {
	case !applied:
		c.JSON(http.StatusConflict, snap)
	case snap.Phase == state.PhaseSuccess:
		c.JSON(http.StatusOK, snap)
	default:
		c.JSON(http.StatusUnprocessableEntity, snap)
	}
}

func (h *AnalysisHandler) readLog(c *gin.Context, logger *zap.Logger) (string, error) {
	if strings.HasPrefix(c.ContentType(), "multipart/") {
		fileHeader, err := c.FormFile(uploadField)
		if err != nil {
			return "", fmt.Errorf("reading %q form field: %w", uploadField, err)
		}

		ext := strings.ToLower(filepath.Ext(fileHeader.Filename))
		if !advisoryExtensions[ext] {
			logger.Warn("unexpected file extension, analysing anyway",
				zap.String("filename", fileHeader.Filename),
			)
		}

		f, err := fileHeader.Open()
		if err != nil {
			return "", fmt.Errorf("opening upload: %w", err)
		}
		defer f.Close()

		data, err := io.ReadAll(f)
		if err != nil {
			return "", fmt.Errorf("reading upload: %w", err)
		}
		return strings.ToValidUTF8(string(data), "\uFFFD"), nil
	}

	var req domain.AnalysisRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		return "", err
	}
	return req.Log, nil
}

// Current processes GET /api/v1/analysis.
func (h *AnalysisHandler) Current(c *gin.Context) {
	c.JSON(http.StatusOK, h.machine.Snapshot())
}

// SeverityCounts processes GET /api/v1/analysis/severity-counts.
func (h *AnalysisHandler) SeverityCounts(c *gin.Context) {
	result, ok := h.currentResult(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, gin.H{"counts": view.SeverityCounts(result.ParsedLogs)})
}

// SeverityChart processes GET /api/v1/analysis/severity-chart.
func (h *AnalysisHandler) SeverityChart(c *gin.Context) {
	result, ok := h.currentResult(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, gin.H{"points": view.SeverityChart(result.ParsedLogs)})
}

// Timeline processes GET /api/v1/analysis/timeline.
func (h *AnalysisHandler) Timeline(c *gin.Context) {
	result, ok := h.currentResult(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, gin.H{"points": view.Timeline(result.ParsedLogs)})
}

// Threats processes GET /api/v1/analysis/threats.
func (h *AnalysisHandler) Threats(c *gin.Context) {
	result, ok := h.currentResult(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"summary": view.ThreatSummary(result.SecurityThreats),
		"threats": result.SecurityThreats,
	})
}

// Logs processes GET /api/v1/analysis/logs?q=&severity=.
func (h *AnalysisHandler) Logs(c *gin.Context) {
	sev, err := view.ParseSeverityQuery(c.Query("severity"))
	if err != nil {
		c.JSON(http.StatusBadRequest, errorBody(err.Error()))
		return
	}

	result, ok := h.currentResult(c)
	if !ok {
		return
	}

	entries := view.Filter(result.ParsedLogs, c.Query("q"), sev)
	c.JSON(http.StatusOK, gin.H{
		"entries": entries,
		"shown":   len(entries),
		"total":   len(result.ParsedLogs),
		"label":   fmt.Sprintf("Showing %d of %d entries", len(entries), len(result.ParsedLogs)),
	})
}

// currentResult writes 409 and reports false unless the machine is in Success.
func (h *AnalysisHandler) currentResult(c *gin.Context) (*domain.AnalysisResult, bool) {
	snap := h.machine.Snapshot()
	if snap.Phase != state.PhaseSuccess || snap.Result == nil {
		body := errorBody(errNoResult.Error())
		body["phase"] = snap.Phase
		c.JSON(http.StatusConflict, body)
		return nil, false
	}
	return snap.Result, true
}

func errorBody(msg string) gin.H {
	return gin.H{
		"success": false,
		"error":   msg,
	}
}

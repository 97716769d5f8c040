// Package state holds the lifecycle of the current analysis.
//
// Only the most recently started analysis may publish its outcome: every
// Begin mints a new generation token and Resolve discards outcomes whose
// token is no longer current.
package state

import (
	"context"
	"sync"
	"time"

	"github.com/logaudit/internal/domain"
	"github.com/logaudit/internal/metrics"
	"go.uber.org/zap"
)

// Phase is the lifecycle stage of the current analysis.
type Phase string

const (
	PhaseIdle    Phase = "idle"
	PhaseLoading Phase = "loading"
	PhaseSuccess Phase = "success"
	PhaseFailure Phase = "failure"
)

// Token identifies one analysis run.
type Token uint64

// Snapshot is a read-only view of the machine at one instant.
type Snapshot struct {
	Phase      Phase                  `json:"phase"`
	Generation uint64                 `json:"generation"`
	Result     *domain.AnalysisResult `json:"result,omitempty"`
	Error      string                 `json:"error,omitempty"`
	UpdatedAt  time.Time              `json:"updatedAt"`
}

// Analyzer runs one analysis.
type Analyzer interface {
	Analyze(ctx context.Context, logText string) (*domain.AnalysisResult, error)
}

// Machine tracks Idle, Loading, Success and Failure.
type Machine struct {
	mu         sync.Mutex
	phase      Phase
	generation uint64
	result     *domain.AnalysisResult
	errMsg     string
	updatedAt  time.Time
	now        func() time.Time
	logger     *zap.Logger
}

// NewMachine creates a machine in the Idle phase.
func NewMachine(logger *zap.Logger) *Machine {
	return &Machine{
		phase:     PhaseIdle,
		updatedAt: time.Now(),
		now:       time.Now,
		logger:    logger.Named("state"),
	}
}

// Begin starts a new analysis from any phase, clearing the previous
// result and error, and returns the token the outcome must present.
func (m *Machine) Begin() Token {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.generation++
	m.phase = PhaseLoading
	m.result = nil
	m.errMsg = ""
	m.updatedAt = m.now()

	m.logger.Debug("analysis started", zap.Uint64("generation", m.generation))

	return Token(m.generation)
}

// Resolve applies the outcome of the run identified by token. A nil err
// moves to Success with result; otherwise to Failure with the error text.
// It reports false and changes nothing when a newer run has begun.
func (m *Machine) Resolve(token Token, result *domain.AnalysisResult, err error) bool {
	_, applied := m.resolve(token, result, err)
	return applied
}

func (m *Machine) resolve(token Token, result *domain.AnalysisResult, err error) (Snapshot, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if uint64(token) != m.generation || m.phase != PhaseLoading {
		metrics.StaleResolution()
		m.logger.Debug("stale outcome discarded",
			zap.Uint64("token", uint64(token)),
			zap.Uint64("generation", m.generation),
		)
		return m.snapshotLocked(), false
	}

	if err != nil {
		m.phase = PhaseFailure
		m.result = nil
		m.errMsg = err.Error()
		m.logger.Info("analysis failed",
			zap.Uint64("generation", m.generation),
			zap.String("kind", string(domain.KindOf(err))),
		)
	} else {
		m.phase = PhaseSuccess
		m.result = result
		m.errMsg = ""
	}
	m.updatedAt = m.now()

	return m.snapshotLocked(), true
}

// Snapshot returns the current state. The result is shared, not copied;
// it is never mutated after validation.
func (m *Machine) Snapshot() Snapshot {
	m.mu.Lock()
	defer m.mu.Unlock()

	return m.snapshotLocked()
}

func (m *Machine) snapshotLocked() Snapshot {
	return Snapshot{
		Phase:      m.phase,
		Generation: m.generation,
		Result:     m.result,
		Error:      m.errMsg,
		UpdatedAt:  m.updatedAt,
	}
}

// Run begins a run on m, analyzes text and resolves the outcome. It returns
// the snapshot taken right after resolution and whether this run's outcome
// was applied. When it was not, the snapshot shows the newer run.
func Run(ctx context.Context, m *Machine, analyzer Analyzer, text string) (Snapshot, bool) {
	token := m.Begin()
	result, err := analyzer.Analyze(ctx, text)
	return m.resolve(token, result, err)
}

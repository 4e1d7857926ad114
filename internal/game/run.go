// Package game defines the explicit run handle threaded through the pipeline.
// All per-run mutable state (gauges, event history, RNG stream, progress)
// hangs off a RunContext; there is no package-level state anywhere in the
// core.
package game

import (
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"ghostpatch/internal/compile"
	"ghostpatch/internal/meter"
	"ghostpatch/internal/rng"
)

// RunConfig describes how to start a run.
type RunConfig struct {
	Seed              int64 // 0 means seed from the clock
	InitialStability  int
	InitialInsight    int
	SkillLevel        int // 0..100
	StartRoom         string
	TerminalRoom      string
	RequiredAnomalies []string
	HistoryLimit      int
}

// RunContext is one game run: its gauges, its single RNG stream, its event
// chain history and its world progress.
type RunContext struct {
	ID      string
	Gauge   *meter.Gauge
	RNG     *rng.Stream
	History *compile.History

	mu          sync.RWMutex
	skillLevel  int
	currentRoom string
	terminal    string
	required    map[string]bool // anomaly id -> resolved
}

// NewRun creates a RunContext from config.
func NewRun(cfg RunConfig, logger *zap.Logger) *RunContext {
	stream := rng.NewFromClock()
	if cfg.Seed != 0 {
		stream = rng.New(cfg.Seed)
	}

	required := make(map[string]bool, len(cfg.RequiredAnomalies))
	for _, id := range cfg.RequiredAnomalies {
		required[id] = false
	}

	return &RunContext{
		ID:          uuid.NewString(),
		Gauge:       meter.NewGauge(meter.State{Stability: cfg.InitialStability, Insight: cfg.InitialInsight}, logger),
		RNG:         stream,
		History:     compile.NewHistory(cfg.HistoryLimit),
		skillLevel:  cfg.SkillLevel,
		currentRoom: cfg.StartRoom,
		terminal:    cfg.TerminalRoom,
		required:    required,
	}
}

// SkillLevel returns the player's skill for risk scoring.
func (r *RunContext) SkillLevel() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.skillLevel
}

// SetSkillLevel updates the player's skill, clamped to [0,100].
func (r *RunContext) SetSkillLevel(level int) {
	if level < 0 {
		level = 0
	}
	if level > 100 {
		level = 100
	}
	r.mu.Lock()
	r.skillLevel = level
	r.mu.Unlock()
}

// MoveTo records the player's current room. Navigation rules live outside the
// core; this only tracks position for the victory check.
func (r *RunContext) MoveTo(room string) {
	r.mu.Lock()
	r.currentRoom = room
	r.mu.Unlock()
}

// CurrentRoom returns the player's position.
func (r *RunContext) CurrentRoom() string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.currentRoom
}

// MarkResolved records that an anomaly has been dealt with.
func (r *RunContext) MarkResolved(anomalyID string) {
	r.mu.Lock()
	if _, tracked := r.required[anomalyID]; tracked {
		r.required[anomalyID] = true
	}
	r.mu.Unlock()
}

// Resolved reports whether a required anomaly has been dealt with.
func (r *RunContext) Resolved(anomalyID string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.required[anomalyID]
}

// Progress snapshots the run-level facts game-over evaluation needs.
func (r *RunContext) Progress() meter.Progress {
	r.mu.RLock()
	defer r.mu.RUnlock()

	allResolved := true
	for _, done := range r.required {
		if !done {
			allResolved = false
			break
		}
	}
	return meter.Progress{
		InTerminalRoom:   r.terminal != "" && r.currentRoom == r.terminal,
		RequiredResolved: allResolved,
	}
}

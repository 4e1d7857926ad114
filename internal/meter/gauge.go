// Package meter owns the two bounded gauges for a game run. Every mutation
// funnels through ApplyEffects, which clamps, records history and fires
// threshold hooks as one atomic transaction.
package meter

import (
	"sync"
	"time"

	"go.uber.org/zap"

	"ghostpatch/internal/effect"
)

// State is a snapshot of the two gauges.
type State struct {
	Stability int `json:"stability"`
	Insight   int `json:"insight"`
}

// Record is one applied mutation in a run's history.
type Record struct {
	Timestamp       time.Time    `json:"timestamp"`
	Requested       effect.Delta `json:"requested"`
	Applied         effect.Delta `json:"applied"`
	Before          State        `json:"before"`
	After           State        `json:"after"`
	Note            string       `json:"note"`
	EthicsViolation bool         `json:"ethics_violation,omitempty"`
}

// StabilityCriticalLevel is the downward-crossing alarm threshold.
const StabilityCriticalLevel = 20

// insightMilestones are the upward-crossing levels, in firing order.
var insightMilestones = [3]int{25, 50, 75}

// Gauge owns stability and insight for the lifetime of one run.
type Gauge struct {
	mu      sync.Mutex
	state   State
	history []Record
	hooks   []Hook
	outcome *Outcome
	logger  *zap.Logger
}

// NewGauge creates a Gauge at the given initial state, clamped to bounds.
func NewGauge(initial State, logger *zap.Logger) *Gauge {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Gauge{
		state: State{
			Stability: effect.ClampGauge(initial.Stability),
			Insight:   effect.ClampGauge(initial.Insight),
		},
		logger: logger.Named("meter"),
	}
}

// OnThreshold registers a hook. Hooks fire synchronously inside ApplyEffects
// and must not call back into the gauge.
func (g *Gauge) OnThreshold(h Hook) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.hooks = append(g.hooks, h)
}

// ApplyEffects applies a total delta: read, clamp, write, record, then fire
// threshold hooks, all under one lock so a crossing fires exactly once.
func (g *Gauge) ApplyEffects(total effect.Delta, note string) (applied effect.Delta, after State) {
	g.mu.Lock()
	defer g.mu.Unlock()

	before := g.state
	newStability, newInsight, applied := effect.Aggregate(before.Stability, before.Insight, total)
	g.state = State{Stability: newStability, Insight: newInsight}

	g.history = append(g.history, Record{
		Timestamp: time.Now(),
		Requested: total,
		Applied:   applied,
		Before:    before,
		After:     g.state,
		Note:      note,
	})

	g.logger.Debug("Effects applied",
		zap.String("note", note),
		zap.Int("stability", g.state.Stability),
		zap.Int("insight", g.state.Insight),
		zap.Int("applied_stability", applied.Stability),
		zap.Int("applied_insight", applied.Insight))

	g.fireCrossings(before, g.state)
	return applied, g.state
}

// fireCrossings emits threshold events for this single update. Callers hold
// the lock; re-crossing noise within one update cannot double-fire because
// each crossing is judged from the single before/after pair.
func (g *Gauge) fireCrossings(before, after State) {
	if before.Stability > StabilityCriticalLevel && after.Stability <= StabilityCriticalLevel {
		g.emit(StabilityCritical{Previous: before.Stability, New: after.Stability})
	}
	for _, level := range insightMilestones {
		if before.Insight < level && after.Insight >= level {
			g.emit(InsightMilestone{Level: level, Previous: before.Insight, New: after.Insight})
		}
	}
}

func (g *Gauge) emit(ev ThresholdEvent) {
	g.logger.Info("Threshold crossed", zap.String("kind", ev.Kind()))
	for _, h := range g.hooks {
		h(ev)
	}
}

// RecordEthicsViolation marks the run's history with a violation; the mark is
// permanent and feeds game-over evaluation.
func (g *Gauge) RecordEthicsViolation(note string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.history = append(g.history, Record{
		Timestamp:       time.Now(),
		Before:          g.state,
		After:           g.state,
		Note:            note,
		EthicsViolation: true,
	})
	g.logger.Warn("Ethics violation recorded", zap.String("note", note))
}

// State returns the current gauge snapshot.
func (g *Gauge) State() State {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.state
}

// History returns a copy of the run's mutation history.
func (g *Gauge) History() []Record {
	g.mu.Lock()
	defer g.mu.Unlock()
	out := make([]Record, len(g.history))
	copy(out, g.history)
	return out
}

// RestoreHistory replaces the history log, used when rehydrating a run from a
// snapshot. The current state is set to the given snapshot.
func (g *Gauge) RestoreHistory(state State, history []Record) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.state = State{
		Stability: effect.ClampGauge(state.Stability),
		Insight:   effect.ClampGauge(state.Insight),
	}
	g.history = make([]Record, len(history))
	copy(g.history, history)
}

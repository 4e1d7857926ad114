package meter

import (
	"go.uber.org/zap"

	"ghostpatch/internal/effect"
)

// Outcome is a terminal run result. Derived, never mutated directly; once a
// run ends its outcome is immutable.
type Outcome string

const (
	OutcomeKernelPanic    Outcome = "kernel_panic"
	OutcomeMoralInversion Outcome = "moral_inversion"
	OutcomeVictory        Outcome = "victory"
)

// Victory gauge floors.
const (
	victoryMinStability = 50
	victoryMinInsight   = 60
)

// Progress carries the run-level facts game-over evaluation needs beyond the
// gauges themselves.
type Progress struct {
	InTerminalRoom   bool
	RequiredResolved bool
}

// CheckGameOver evaluates the terminal conditions in strict precedence:
// kernel panic, then moral inversion, then victory. The first match wins and
// is recorded; re-evaluation after a run has ended returns the recorded
// outcome unchanged with no side effects.
func (g *Gauge) CheckGameOver(p Progress) (Outcome, bool) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.outcome != nil {
		return *g.outcome, true
	}

	var outcome Outcome
	switch {
	case g.state.Stability <= 0:
		outcome = OutcomeKernelPanic
	case g.hasEthicsViolation():
		outcome = OutcomeMoralInversion
	case p.InTerminalRoom && p.RequiredResolved &&
		g.state.Stability >= victoryMinStability && g.state.Insight >= victoryMinInsight:
		outcome = OutcomeVictory
	default:
		return "", false
	}

	g.outcome = &outcome
	g.logger.Info("Run ended",
		zap.String("outcome", string(outcome)),
		zap.Int("stability", g.state.Stability),
		zap.Int("insight", g.state.Insight))
	return outcome, true
}

// Outcome returns the recorded terminal result, if the run has ended.
func (g *Gauge) Outcome() (Outcome, bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.outcome == nil {
		return "", false
	}
	return *g.outcome, true
}

func (g *Gauge) hasEthicsViolation() bool {
	for _, r := range g.history {
		if r.EthicsViolation {
			return true
		}
	}
	return false
}

// RiskBand labels for predictions.
const (
	RiskBandHigh   = "high"
	RiskBandMedium = "medium"
	RiskBandLow    = "low"
)

// Prediction is the non-mutating preview of a hypothetical delta.
type Prediction struct {
	After    State
	Applied  effect.Delta
	RiskBand string
	GameOver bool
}

// PredictEffects previews what a hypothetical delta would do without touching
// gauge state, history or hooks.
func (g *Gauge) PredictEffects(hypothetical effect.Delta) Prediction {
	g.mu.Lock()
	defer g.mu.Unlock()

	newStability, newInsight, applied := effect.Aggregate(g.state.Stability, g.state.Insight, hypothetical)
	band := RiskBandLow
	switch {
	case newStability < 20:
		band = RiskBandHigh
	case newStability < 40:
		band = RiskBandMedium
	}

	return Prediction{
		After:    State{Stability: newStability, Insight: newInsight},
		Applied:  applied,
		RiskBand: band,
		GameOver: g.outcome != nil || newStability <= 0,
	}
}

package meter

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ghostpatch/internal/effect"
)

func TestCheckGameOverKernelPanic(t *testing.T) {
	g := NewGauge(State{Stability: 5, Insight: 90}, nil)
	g.ApplyEffects(effect.Delta{Stability: -10}, "collapse")

	outcome, over := g.CheckGameOver(Progress{InTerminalRoom: true, RequiredResolved: true})
	require.True(t, over)
	assert.Equal(t, OutcomeKernelPanic, outcome)
}

func TestCheckGameOverPrecedence(t *testing.T) {
	// Kernel panic beats moral inversion even with a violation on record.
	g := NewGauge(State{Stability: 0, Insight: 90}, nil)
	g.RecordEthicsViolation("cut corners")

	outcome, over := g.CheckGameOver(Progress{InTerminalRoom: true, RequiredResolved: true})
	require.True(t, over)
	assert.Equal(t, OutcomeKernelPanic, outcome)

	// Moral inversion beats victory when gauges would otherwise qualify.
	g = NewGauge(State{Stability: 80, Insight: 80}, nil)
	g.RecordEthicsViolation("cut corners")

	outcome, over = g.CheckGameOver(Progress{InTerminalRoom: true, RequiredResolved: true})
	require.True(t, over)
	assert.Equal(t, OutcomeMoralInversion, outcome)
}

func TestCheckGameOverVictoryGating(t *testing.T) {
	cases := []struct {
		name     string
		state    State
		progress Progress
		over     bool
	}{
		{"all conditions met", State{50, 60}, Progress{true, true}, true},
		{"stability below floor", State{49, 90}, Progress{true, true}, false},
		{"insight below floor", State{90, 59}, Progress{true, true}, false},
		{"not in terminal room", State{90, 90}, Progress{false, true}, false},
		{"required unresolved", State{90, 90}, Progress{true, false}, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			g := NewGauge(tc.state, nil)
			outcome, over := g.CheckGameOver(tc.progress)
			assert.Equal(t, tc.over, over)
			if tc.over {
				assert.Equal(t, OutcomeVictory, outcome)
			}
		})
	}
}

func TestOutcomeImmutableOnceSet(t *testing.T) {
	g := NewGauge(State{Stability: 80, Insight: 80}, nil)

	outcome, over := g.CheckGameOver(Progress{InTerminalRoom: true, RequiredResolved: true})
	require.True(t, over)
	require.Equal(t, OutcomeVictory, outcome)

	// Even after the gauges drop to panic territory, the recorded outcome
	// stands.
	g.ApplyEffects(effect.Delta{Stability: -100}, "post-mortem")
	outcome, over = g.CheckGameOver(Progress{})
	require.True(t, over)
	assert.Equal(t, OutcomeVictory, outcome)

	got, ok := g.Outcome()
	require.True(t, ok)
	assert.Equal(t, OutcomeVictory, got)
}

func TestCheckGameOverNoMatch(t *testing.T) {
	g := NewGauge(State{Stability: 60, Insight: 30}, nil)
	_, over := g.CheckGameOver(Progress{})
	assert.False(t, over)
	_, ok := g.Outcome()
	assert.False(t, ok)
}

func TestPredictEffectsIsPure(t *testing.T) {
	g := NewGauge(State{Stability: 45, Insight: 10}, nil)
	events := collectEvents(g)

	pred := g.PredictEffects(effect.Delta{Stability: -30, Insight: 20})

	assert.Equal(t, State{Stability: 15, Insight: 30}, pred.After)
	assert.Equal(t, effect.Delta{Stability: -30, Insight: 20}, pred.Applied)
	assert.Equal(t, RiskBandHigh, pred.RiskBand)
	assert.False(t, pred.GameOver)

	// No state change, no history, no hooks.
	assert.Equal(t, State{Stability: 45, Insight: 10}, g.State())
	assert.Empty(t, g.History())
	assert.Empty(t, *events)
}

func TestPredictEffectsBands(t *testing.T) {
	g := NewGauge(State{Stability: 50, Insight: 50}, nil)

	assert.Equal(t, RiskBandLow, g.PredictEffects(effect.Delta{}).RiskBand)
	assert.Equal(t, RiskBandMedium, g.PredictEffects(effect.Delta{Stability: -11}).RiskBand)
	assert.Equal(t, RiskBandHigh, g.PredictEffects(effect.Delta{Stability: -31}).RiskBand)

	collapse := g.PredictEffects(effect.Delta{Stability: -50})
	assert.True(t, collapse.GameOver)
}

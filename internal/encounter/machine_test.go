package encounter

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ghostpatch/internal/anomaly"
	"ghostpatch/internal/compile"
	"ghostpatch/internal/game"
	"ghostpatch/internal/meter"
	"ghostpatch/internal/services"
)

const testCatalogYAML = `anomalies:
  - id: weeping-handle
    name: The Weeping Handle
    severity: 4
    smell: leak
    required: true
    rooms: [boiler-room]
    fix_patterns:
      - type: close_resource
        base_risk: 0.3
        base_stability_effect: 8
        base_insight_effect: 4
  - id: whispering-banner
    name: The Whispering Banner
    severity: 9
    smell: injection
    required: false
    rooms: [lobby]
    fix_patterns:
      - type: sanitize_input
        base_risk: 0.6
        base_stability_effect: 12
        base_insight_effect: 6
`

func writeTestCatalog(t *testing.T) *anomaly.Catalog {
	t.Helper()
	path := filepath.Join(t.TempDir(), "anomalies.yaml")
	require.NoError(t, os.WriteFile(path, []byte(testCatalogYAML), 0o644))
	catalog, err := anomaly.LoadCatalog(path, nil)
	require.NoError(t, err)
	return catalog
}

func newTestMachine(t *testing.T) (*Machine, *game.RunContext) {
	t.Helper()
	catalog := writeTestCatalog(t)
	run := game.NewRun(game.RunConfig{
		Seed:              1,
		InitialStability:  80,
		InitialInsight:    10,
		SkillLevel:        50,
		StartRoom:         "lobby",
		TerminalRoom:      "boiler-room",
		RequiredAnomalies: catalog.RequiredIDs(),
	}, nil)

	engineCfg := compile.DefaultConfig()
	engineCfg.Stochastic = false

	m := NewMachine(run, Config{
		Catalog: catalog,
		Engine:  engineCfg,
	})
	return m, run
}

func TestStartEncounterAtMostOneActive(t *testing.T) {
	m, _ := newTestMachine(t)

	first, err := m.StartEncounter("weeping-handle")
	require.NoError(t, err)
	assert.Equal(t, StateInDialogue, first.State)

	second, err := m.StartEncounter("weeping-handle")
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID, "active session must be resumed, not duplicated")
}

func TestStartEncounterUnknownAnomaly(t *testing.T) {
	m, _ := newTestMachine(t)
	_, err := m.StartEncounter("phantom-socket")
	assert.ErrorIs(t, err, ErrUnknownAnomaly)
}

func TestStartEncounterAfterRunOver(t *testing.T) {
	m, run := newTestMachine(t)

	run.Gauge.RecordEthicsViolation("forced shutdown")
	_, over := run.Gauge.CheckGameOver(meter.Progress{})
	require.True(t, over)

	_, err := m.StartEncounter("weeping-handle")
	assert.ErrorIs(t, err, ErrRunOver)
}

func TestOpenSessionCannotActAfterRunOver(t *testing.T) {
	m, run := newTestMachine(t)
	s, err := m.StartEncounter("weeping-handle")
	require.NoError(t, err)
	_, err = m.SubmitIntent(context.Background(), s.ID, "patch the leak")
	require.NoError(t, err)

	// The run ends out from under the still-reviewing session.
	run.Gauge.RecordEthicsViolation("forced shutdown")
	_, over := run.Gauge.CheckGameOver(meter.Progress{})
	require.True(t, over)

	before := run.Gauge.State()
	_, err = m.ResolveAction(context.Background(), s.ID, ActionApply)
	assert.ErrorIs(t, err, ErrRunOver)
	assert.Equal(t, before, run.Gauge.State(), "ended run's gauges must stay put")

	_, err = m.SubmitIntent(context.Background(), s.ID, "try again")
	assert.ErrorIs(t, err, ErrRunOver)
}

func TestSubmitIntentPipeline(t *testing.T) {
	m, _ := newTestMachine(t)
	s, err := m.StartEncounter("weeping-handle")
	require.NoError(t, err)

	change, err := m.SubmitIntent(context.Background(), s.ID, "carefully close and release the leaking handle")
	require.NoError(t, err)

	assert.Equal(t, StateReviewingPatch, s.State)
	require.NotNil(t, s.Intent)
	assert.Equal(t, "weeping-handle", change.AnomalyID)
	assert.NotEmpty(t, change.DiffText)
	assert.NotEmpty(t, change.Description)
	assert.GreaterOrEqual(t, change.RiskScore, 0.0)
	assert.LessOrEqual(t, change.RiskScore, 1.0)
	assert.NotEmpty(t, s.Narration.Content, "fallback narrator must produce content")
}

func TestSubmitIntentInvalidState(t *testing.T) {
	m, _ := newTestMachine(t)
	_, err := m.SubmitIntent(context.Background(), "no-such-session", "fix it")
	assert.ErrorIs(t, err, ErrUnknownSession)
}

func TestPreviewDoesNotMutate(t *testing.T) {
	m, run := newTestMachine(t)
	s, err := m.StartEncounter("weeping-handle")
	require.NoError(t, err)
	_, err = m.SubmitIntent(context.Background(), s.ID, "quick patch for the leak")
	require.NoError(t, err)

	before := run.Gauge.State()
	pred, err := m.Preview(s.ID)
	require.NoError(t, err)

	assert.Equal(t, before, run.Gauge.State(), "preview must not move the gauges")
	assert.NotZero(t, pred.After)
	assert.Equal(t, StateReviewingPatch, s.State)
}

func TestPreviewWithoutChange(t *testing.T) {
	m, _ := newTestMachine(t)
	s, err := m.StartEncounter("weeping-handle")
	require.NoError(t, err)
	_, err = m.Preview(s.ID)
	assert.ErrorIs(t, err, ErrState)
}

func TestResolveQuestionKeepsStabilityAndGrowsInsight(t *testing.T) {
	m, run := newTestMachine(t)
	s, err := m.StartEncounter("weeping-handle")
	require.NoError(t, err)
	_, err = m.SubmitIntent(context.Background(), s.ID, "what is really leaking here")
	require.NoError(t, err)

	before := run.Gauge.State()
	res, err := m.ResolveAction(context.Background(), s.ID, ActionQuestion)
	require.NoError(t, err)

	assert.Equal(t, StateCompleted, s.State)
	require.NotNil(t, res.Chain)
	after := run.Gauge.State()
	assert.Equal(t, res.Gauges, after)
	assert.Greater(t, after.Insight, before.Insight, "questioning must grow insight")
	assert.False(t, res.GameOver)
	assert.False(t, res.Failed)
}

func TestResolveRefactorMarksResolved(t *testing.T) {
	m, run := newTestMachine(t)
	s, err := m.StartEncounter("weeping-handle")
	require.NoError(t, err)
	_, err = m.SubmitIntent(context.Background(), s.ID, "refactor the handle lifecycle end to end")
	require.NoError(t, err)

	_, err = m.ResolveAction(context.Background(), s.ID, ActionRefactor)
	require.NoError(t, err)
	assert.True(t, run.Resolved("weeping-handle"))
}

func TestResolveActionRequiresReviewingState(t *testing.T) {
	m, _ := newTestMachine(t)
	s, err := m.StartEncounter("weeping-handle")
	require.NoError(t, err)

	_, err = m.ResolveAction(context.Background(), s.ID, ActionApply)
	assert.ErrorIs(t, err, ErrState)
}

func TestResolveInvalidChangeFailsSessionWithoutGaugeMovement(t *testing.T) {
	m, run := newTestMachine(t)
	s, err := m.StartEncounter("weeping-handle")
	require.NoError(t, err)
	_, err = m.SubmitIntent(context.Background(), s.ID, "patch the leak")
	require.NoError(t, err)

	s.Change.DiffText = ""
	before := run.Gauge.State()

	_, err = m.ResolveAction(context.Background(), s.ID, ActionApply)
	require.Error(t, err)
	assert.Equal(t, StateFailed, s.State)
	assert.Equal(t, before, run.Gauge.State(), "invalid change must leave the gauges untouched")
}

type failingNarrator struct{}

func (failingNarrator) Generate(context.Context, services.NarrationRequest) (services.Narration, error) {
	return services.Narration{}, errors.New("model unavailable")
}

func TestNarratorFailureDegradesToFallback(t *testing.T) {
	catalog := writeTestCatalog(t)
	run := game.NewRun(game.RunConfig{
		Seed:              1,
		InitialStability:  80,
		InitialInsight:    10,
		SkillLevel:        50,
		RequiredAnomalies: catalog.RequiredIDs(),
	}, nil)

	engineCfg := compile.DefaultConfig()
	engineCfg.Stochastic = false
	m := NewMachine(run, Config{
		Catalog:  catalog,
		Engine:   engineCfg,
		Narrator: failingNarrator{},
	})

	s, err := m.StartEncounter("weeping-handle")
	require.NoError(t, err)
	_, err = m.SubmitIntent(context.Background(), s.ID, "seal the leak")
	require.NoError(t, err)

	assert.NotEmpty(t, s.Narration.Content, "fallback narration must fill in for the failed narrator")
}

func TestNewEncounterAfterTerminalSession(t *testing.T) {
	m, _ := newTestMachine(t)
	s, err := m.StartEncounter("weeping-handle")
	require.NoError(t, err)
	_, err = m.SubmitIntent(context.Background(), s.ID, "what is this leak")
	require.NoError(t, err)
	_, err = m.ResolveAction(context.Background(), s.ID, ActionQuestion)
	require.NoError(t, err)

	next, err := m.StartEncounter("weeping-handle")
	require.NoError(t, err)
	assert.NotEqual(t, s.ID, next.ID, "a completed session must not be resumed")
}

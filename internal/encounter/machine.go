package encounter

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"ghostpatch/internal/anomaly"
	"ghostpatch/internal/compile"
	"ghostpatch/internal/effect"
	"ghostpatch/internal/game"
	"ghostpatch/internal/intent"
	"ghostpatch/internal/meter"
	"ghostpatch/internal/patch"
	"ghostpatch/internal/risk"
	"ghostpatch/internal/services"
	"ghostpatch/internal/store"
)

// lintRuleset is the ruleset the encounter pipeline asks the lint
// collaborator to run over generated diffs.
const lintRuleset = "haunt"

var (
	// ErrRunOver is returned once the run has a recorded terminal outcome.
	ErrRunOver = errors.New("run has ended")
	// ErrUnknownAnomaly is returned for ids missing from the catalog.
	ErrUnknownAnomaly = errors.New("unknown anomaly")
	// ErrUnknownSession is returned for session ids the machine is not tracking.
	ErrUnknownSession = errors.New("unknown session")
	// ErrState is returned when an operation is invalid in the session's state.
	ErrState = errors.New("invalid session state")
)

// Config wires the machine's collaborators. Catalog is required; nil
// collaborators fall back to their local implementations, a nil store
// disables persistence.
type Config struct {
	Catalog  *anomaly.Catalog
	Engine   compile.Config
	Narrator services.Narrator
	Linter   services.Linter
	Applier  services.DiffApplier
	Cues     *services.CueQueue
	Store    *store.Store
	Logger   *zap.Logger
}

// Machine drives encounter sessions for one run.
type Machine struct {
	mu        sync.Mutex
	byAnomaly map[string]*Session // latest session per anomaly
	byID      map[string]*Session

	run        *game.RunContext
	catalog    *anomaly.Catalog
	classifier *intent.Classifier
	scorer     *risk.Scorer
	calculator *effect.Calculator
	builder    *patch.Builder
	engine     *compile.Engine
	narrator   services.Narrator
	linter     services.Linter
	applier    services.DiffApplier
	cues       *services.CueQueue
	store      *store.Store
	logger     *zap.Logger
}

// NewMachine creates the encounter machine for a run.
func NewMachine(run *game.RunContext, cfg Config) *Machine {
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	narrator := cfg.Narrator
	if narrator == nil {
		narrator = services.FallbackNarrator{}
	}
	linter := cfg.Linter
	if linter == nil {
		linter = services.NewRegexLinter(logger)
	}
	applier := cfg.Applier
	if applier == nil {
		applier = services.NewLocalDiffApplier(nil, logger)
	}

	return &Machine{
		byAnomaly:  make(map[string]*Session),
		byID:       make(map[string]*Session),
		run:        run,
		catalog:    cfg.Catalog,
		classifier: intent.NewClassifier(logger),
		scorer:     risk.NewScorer(logger),
		calculator: effect.NewCalculator(logger),
		builder:    patch.NewBuilder(logger),
		engine:     compile.NewEngine(cfg.Engine, run.RNG, run.History, logger),
		narrator:   narrator,
		linter:     linter,
		applier:    applier,
		cues:       cfg.Cues,
		store:      cfg.Store,
		logger:     logger.Named("encounter"),
	}
}

// StartEncounter opens (or resumes) the session for an anomaly. If a
// non-terminal session already exists it is returned unchanged rather than
// duplicated.
func (m *Machine) StartEncounter(anomalyID string) (*Session, error) {
	if _, over := m.run.Gauge.Outcome(); over {
		return nil, ErrRunOver
	}
	if _, ok := m.catalog.Get(anomalyID); !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownAnomaly, anomalyID)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if existing, ok := m.byAnomaly[anomalyID]; ok && !existing.State.Terminal() {
		m.logger.Debug("Resuming active encounter",
			zap.String("anomaly", anomalyID), zap.String("session", existing.ID))
		return existing, nil
	}

	s := newSession(anomalyID)
	s.advance(StateInDialogue)
	m.byAnomaly[anomalyID] = s
	m.byID[s.ID] = s

	m.logger.Info("Encounter started",
		zap.String("anomaly", anomalyID), zap.String("session", s.ID))
	m.persistSnapshot(s)
	return s, nil
}

// Get returns a tracked session by id.
func (m *Machine) Get(sessionID string) (*Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.byID[sessionID]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownSession, sessionID)
	}
	return s, nil
}

// SubmitIntent runs the generation pipeline for the player's free-text repair
// statement and leaves the session reviewing the produced change.
func (m *Machine) SubmitIntent(ctx context.Context, sessionID, text string) (*patch.Change, error) {
	if _, over := m.run.Gauge.Outcome(); over {
		return nil, ErrRunOver
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	s, ok := m.byID[sessionID]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownSession, sessionID)
	}
	if s.State != StateInDialogue && s.State != StateReviewingPatch {
		return nil, fmt.Errorf("%w: cannot submit intent in %s", ErrState, s.State)
	}
	target, ok := m.catalog.Get(s.AnomalyID)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownAnomaly, s.AnomalyID)
	}

	s.advance(StateGeneratingPatch)

	analysis := m.classifier.Classify(text, target)
	riskScore := m.scorer.Score(target, analysis, m.run.SkillLevel())
	expected := m.calculator.Base(target, analysis, riskScore)
	change := m.builder.Build(target, analysis, riskScore, expected)

	// The collaborators run concurrently; narrator failure degrades to the
	// local fallback, lint failure to an empty passing report.
	narration, lint := m.consultCollaborators(ctx, target, text, s, change)

	s.Intent = &analysis
	s.Change = change
	s.Narration = narration
	s.Lint = lint
	s.advance(StateReviewingPatch)

	m.logger.Info("Change generated",
		zap.String("session", s.ID),
		zap.String("change", change.ID),
		zap.Float64("risk", riskScore),
		zap.String("approach", string(analysis.Approach)))

	m.persistSnapshot(s)
	return change, nil
}

func (m *Machine) consultCollaborators(ctx context.Context, target *anomaly.Anomaly, text string, s *Session, change *patch.Change) (services.Narration, services.LintReport) {
	req := services.NarrationRequest{
		AnomalyName:  target.Name,
		Smell:        target.Smell,
		PlayerText:   text,
		SessionState: string(s.State),
	}

	var narration services.Narration
	var lint services.LintReport

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		n, err := m.narrator.Generate(gctx, req)
		if err != nil {
			m.logger.Warn("Narrator failed, using fallback", zap.Error(err))
			n = services.FallbackNarration(req)
		}
		narration = n
		return nil
	})
	g.Go(func() error {
		report, err := m.linter.Run(gctx, change.DiffText, lintRuleset)
		if err != nil {
			m.logger.Warn("Lint collaborator failed", zap.Error(err))
			report = services.LintReport{Passed: true}
		}
		lint = report
		return nil
	})
	_ = g.Wait() // both branches recover locally

	return narration, lint
}

// Preview returns the non-mutating gauge prediction for the session's current
// change.
func (m *Machine) Preview(sessionID string) (meter.Prediction, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	s, ok := m.byID[sessionID]
	if !ok {
		return meter.Prediction{}, fmt.Errorf("%w: %s", ErrUnknownSession, sessionID)
	}
	if s.Change == nil {
		return meter.Prediction{}, fmt.Errorf("%w: no change to preview", ErrState)
	}
	return m.run.Gauge.PredictEffects(s.Change.Expected), nil
}

// Resolution is the full result of resolving a player action.
type Resolution struct {
	Action      Action
	Failed      bool
	Partial     bool
	Chain       *compile.Chain
	Applied     effect.Delta
	Gauges      meter.State
	ApplyResult *services.ApplyResult
	Outcome     meter.Outcome
	GameOver    bool
}

// ResolveAction branches on the player's chosen action, simulates the
// consequences and applies them to the gauges. A structurally invalid change
// fails the session and leaves the gauges untouched.
func (m *Machine) ResolveAction(ctx context.Context, sessionID string, action Action) (*Resolution, error) {
	if _, over := m.run.Gauge.Outcome(); over {
		return nil, ErrRunOver
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	s, ok := m.byID[sessionID]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownSession, sessionID)
	}
	if s.State != StateReviewingPatch {
		return nil, fmt.Errorf("%w: cannot act in %s", ErrState, s.State)
	}
	if s.Change == nil {
		// A restored reviewing session has no in-memory change; the player
		// must re-state their intent first.
		return nil, fmt.Errorf("%w: no change to act on", ErrState)
	}

	if err := s.Change.Validate(); err != nil {
		s.advance(StateFailed)
		m.logger.Warn("Change rejected as structurally invalid",
			zap.String("session", s.ID), zap.Error(err))
		m.persistSnapshot(s)
		return nil, err
	}

	s.advance(StateApplyingPatch)

	outcome := resolveActionEffects(action, s.Change, m.run.RNG)
	flags := risk.ScanDiff(s.Change.DiffText)

	gauges := m.run.Gauge.State()
	chain := m.engine.Evaluate(compile.Input{
		Risk:        s.Change.RiskScore,
		Security:    flags.Security,
		Performance: flags.Performance,
		Expected:    outcome.Effects,
		Stability:   gauges.Stability,
		Insight:     gauges.Insight,
	})

	total := outcome.Effects.Add(chain.TotalEffects)
	applied, after := m.run.Gauge.ApplyEffects(total, outcome.Note)

	res := &Resolution{
		Action:  action,
		Failed:  outcome.Failed,
		Partial: outcome.Partial,
		Chain:   chain,
		Applied: applied,
		Gauges:  after,
	}

	if action == ActionApply && !outcome.Failed {
		result, err := m.applier.Apply(ctx, s.Change.DiffText, s.AnomalyID)
		if err != nil {
			m.logger.Warn("Diff applier failed", zap.Error(err))
		} else {
			res.ApplyResult = &result
		}
	}

	if (action == ActionApply && !outcome.Failed) || action == ActionRefactor {
		m.run.MarkResolved(s.AnomalyID)
	}

	m.emitCues(action, outcome, chain)

	s.Chain = chain
	s.advance(StateCompleted)

	if out, over := m.run.Gauge.CheckGameOver(m.run.Progress()); over {
		res.Outcome = out
		res.GameOver = true
		if m.store != nil {
			if err := m.store.RecordOutcome(m.run.ID, out); err != nil {
				m.logger.Warn("Failed to persist outcome", zap.Error(err))
			}
		}
	}

	if m.store != nil {
		if err := m.store.SaveChain(m.run.ID, chain); err != nil {
			m.logger.Warn("Failed to persist chain", zap.Error(err))
		}
	}
	m.persistSnapshot(s)

	m.logger.Info("Action resolved",
		zap.String("session", s.ID),
		zap.String("action", string(action)),
		zap.Bool("failed", outcome.Failed),
		zap.Int("stability", after.Stability),
		zap.Int("insight", after.Insight),
		zap.Bool("game_over", res.GameOver))

	return res, nil
}

func (m *Machine) emitCues(action Action, outcome actionOutcome, chain *compile.Chain) {
	if m.cues == nil {
		return
	}
	switch {
	case outcome.Failed:
		m.cues.Enqueue(services.CueSound, "patch_backfire")
	case action == ActionQuestion:
		m.cues.Enqueue(services.CueSound, "insight_chime")
	default:
		m.cues.Enqueue(services.CueSound, "patch_resolve")
	}
	if chain.CascadeDepth > 0 {
		m.cues.Enqueue(services.CueVisual, "cascade_flicker")
	}
}

// persistSnapshot saves the session's snapshot if a store is attached.
// Persistence failures are warnings, never fatal to the pipeline.
func (m *Machine) persistSnapshot(s *Session) {
	if m.store == nil {
		return
	}
	snap := store.Snapshot{
		SessionID: s.ID,
		RunID:     m.run.ID,
		AnomalyID: s.AnomalyID,
		State:     string(s.State),
		Gauges:    m.run.Gauge.State(),
		History:   m.run.Gauge.History(),
	}
	if err := m.store.SaveSnapshot(snap); err != nil {
		m.logger.Warn("Failed to persist snapshot", zap.Error(err))
	}
}

// Restore rebuilds a session shell from a snapshot and rehydrates the run's
// gauge state. Restoring over an active session for the same anomaly is
// rejected.
func (m *Machine) Restore(snap store.Snapshot) (*Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if existing, ok := m.byAnomaly[snap.AnomalyID]; ok && !existing.State.Terminal() {
		return nil, fmt.Errorf("%w: anomaly %s already has an active session", ErrState, snap.AnomalyID)
	}

	s := &Session{
		ID:        snap.SessionID,
		AnomalyID: snap.AnomalyID,
		State:     State(snap.State),
	}
	m.run.Gauge.RestoreHistory(snap.Gauges, snap.History)
	m.byAnomaly[s.AnomalyID] = s
	m.byID[s.ID] = s

	m.logger.Info("Session restored",
		zap.String("session", s.ID), zap.String("state", string(s.State)))
	return s, nil
}

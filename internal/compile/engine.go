package compile

import (
	"math"

	"go.uber.org/zap"

	"ghostpatch/internal/effect"
	"ghostpatch/internal/rng"
)

// Config tunes the event engine. The numeric values here are balance
// constants; change them only deliberately.
type Config struct {
	Stochastic       bool    `yaml:"stochastic"`
	BaseProbability  float64 `yaml:"base_probability"`
	CascadeThreshold float64 `yaml:"cascade_threshold"`
	MaxCascadeDepth  int     `yaml:"max_cascade_depth"`
}

// DefaultConfig returns the stock tuning.
func DefaultConfig() Config {
	return Config{
		Stochastic:       true,
		BaseProbability:  0.3,
		CascadeThreshold: 0.7,
		MaxCascadeDepth:  3,
	}
}

// Input is everything an evaluation pass needs: the scored risk, the diff
// scan flags, the change's expected effects and the current gauge values.
type Input struct {
	Risk        float64
	Security    bool
	Performance bool
	Expected    effect.Delta
	Stability   int
	Insight     int
}

// Engine produces one event chain per evaluation. The deterministic pass is
// pure; the stochastic and cascade passes draw from the injected stream.
type Engine struct {
	cfg     Config
	rng     *rng.Stream
	history *History
	logger  *zap.Logger
}

// NewEngine creates an Engine writing chains into the given history log.
func NewEngine(cfg Config, stream *rng.Stream, history *History, logger *zap.Logger) *Engine {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Engine{cfg: cfg, rng: stream, history: history, logger: logger.Named("compile")}
}

// Evaluate runs the three passes and returns the finished chain. The chain is
// also appended to the engine's history log.
func (e *Engine) Evaluate(in Input) *Chain {
	chain := newChain()

	e.deterministicPass(chain, in)
	if e.cfg.Stochastic {
		e.stochasticPass(chain, in)
	}
	e.cascadePass(chain, in)

	if e.history != nil {
		e.history.Append(chain)
	}

	e.logger.Debug("Evaluation complete",
		zap.String("chain", chain.ID),
		zap.Int("events", len(chain.Events)),
		zap.Int("cascades", chain.CascadeDepth),
		zap.Int("stability_delta", chain.TotalEffects.Stability),
		zap.Int("insight_delta", chain.TotalEffects.Insight))

	return chain
}

// deterministicPass always fires; its events depend only on the input.
func (e *Engine) deterministicPass(chain *Chain, in Input) {
	chain.append(newEvent(EventSuccess, "patch compiled",
		effect.Delta{Stability: 2, Insight: 1}, true, false))

	if in.Risk > 0.6 {
		chain.append(newEvent(EventWarning, "compiler warning: unstable references",
			effect.Delta{
				Stability: -int(math.Floor(in.Risk * 5)),
				Insight:   int(math.Floor(in.Risk * 2)),
			}, true, false))
	}
	if in.Security {
		chain.append(newEvent(EventSecurityViolation, "dangerous construct in patch",
			effect.Delta{Stability: -10, Insight: 3}, true, false))
	}
	if in.Performance {
		chain.append(newEvent(EventPerformanceImpact, "patch degrades hot path",
			effect.Delta{Stability: -2, Insight: 1}, true, false))
	}
}

// stochasticPool holds the flavor events the main stochastic draw samples
// from, uniformly.
var stochasticPool = []struct {
	t    EventType
	desc string
	eff  effect.Delta
}{
	{EventWarning, "intermittent warning surfaced", effect.Delta{Stability: -3, Insight: 1}},
	{EventSuccess, "unexpected clean pass", effect.Delta{Stability: 2, Insight: 1}},
	{EventError, "transient build error", effect.Delta{Stability: -8, Insight: 2}},
	{EventPerformanceImpact, "sporadic slowdown observed", effect.Delta{Stability: -2, Insight: 1}},
}

func (e *Engine) stochasticPass(chain *Chain, in Input) {
	// Main draw: more likely at high risk and low stability.
	p := e.cfg.BaseProbability * (1 + in.Risk) / math.Max(0.1, float64(in.Stability)/100)
	if e.rng.Float64() < p {
		pick := stochasticPool[e.rng.IntN(len(stochasticPool))]
		chain.append(newEvent(pick.t, pick.desc, pick.eff, false, false))
	}

	// Low stability makes the build fragile: a heavy, cascade-prone error
	// whose magnitude tracks the change's expected effects with +/-30% variance.
	if in.Stability < 30 && e.rng.Float64() < 0.4 {
		f := e.rng.Range(0.7, 1.3)
		eff := effect.Delta{
			Stability: -int(math.Round(math.Abs(float64(in.Expected.Stability)) * f)),
			Insight:   int(math.Round(math.Abs(float64(in.Expected.Insight)) * f * 0.5)),
		}
		chain.append(newEvent(EventError, "fragile build collapsed under the patch", eff, false, false))
	}

	// High insight occasionally surfaces a discovery.
	if in.Insight > 70 && e.rng.Float64() < 0.3 {
		chain.append(newEvent(EventSuccess, "discovery: hidden invariant understood",
			effect.Delta{Stability: 5, Insight: 3}, false, false))
	}
}

// cascadePass synthesizes secondary errors from high-risk primary events
// under low stability. The configured max depth is a hard stop: once reached,
// no further cascade events are added to the chain.
func (e *Engine) cascadePass(chain *Chain, in Input) {
	primaries := make([]Event, len(chain.Events))
	copy(primaries, chain.Events)

	for _, ev := range primaries {
		if ev.Cascade {
			continue
		}
		if chain.CascadeDepth >= e.cfg.MaxCascadeDepth {
			e.logger.Debug("Cascade depth limit reached", zap.String("chain", chain.ID))
			break
		}

		eventRisk := baseRisk(ev.Type) / math.Max(0.1, float64(in.Stability)/100)
		if ev.Effects.Stability < 0 {
			eventRisk += math.Abs(float64(ev.Effects.Stability)) / 20
		}
		eventRisk = math.Min(1, math.Max(0, eventRisk))

		if eventRisk > e.cfg.CascadeThreshold && in.Stability < 50 {
			chain.append(newEvent(EventError, "cascade failure: "+ev.Description,
				effect.Delta{
					Stability: int(math.Round(float64(ev.Effects.Stability) * 0.6)),
					Insight:   int(math.Round(float64(ev.Effects.Insight) * 0.6)),
				}, false, true))
		}
	}
}

package effect

import (
	"math"

	"go.uber.org/zap"

	"ghostpatch/internal/anomaly"
	"ghostpatch/internal/intent"
)

// Stock deltas for anomalies that carry no fix pattern.
const (
	defaultStabilityEffect = 10
	defaultInsightEffect   = 5
)

// Calculator derives the base gauge deltas a proposed change is expected to
// produce, before event simulation. All scaling happens in float space;
// rounding to integers is the final step.
type Calculator struct {
	logger *zap.Logger
}

// NewCalculator creates a Calculator. A nil logger disables logging.
func NewCalculator(logger *zap.Logger) *Calculator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Calculator{logger: logger.Named("effect")}
}

// Base computes the expected gauge deltas for repairing the anomaly with the
// analyzed intent at the given risk. Deterministic.
func (c *Calculator) Base(target *anomaly.Anomaly, ia intent.Analysis, risk float64) Delta {
	stability := float64(defaultStabilityEffect)
	insight := float64(defaultInsightEffect)
	if fp, ok := target.PrimaryFix(); ok {
		stability = float64(fp.BaseStabilityEffect)
		insight = float64(fp.BaseInsightEffect)
	}

	// Approach scaling.
	switch ia.Approach {
	case intent.ApproachQuickFix:
		stability *= 0.8
		insight *= 0.6
	case intent.ApproachRefactor:
		stability *= 1.3
		insight *= 1.5
	case intent.ApproachSecurityFix:
		stability *= 1.1
		insight *= 1.3
	case intent.ApproachOptimization:
		stability *= 1.2
		insight *= 1.1
	case intent.ApproachStandard:
		// unscaled
	}

	// Risk scaling: risky changes pay off less, safe ones a little more.
	switch {
	case risk > 0.7:
		stability *= 1 - (risk-0.7)*2
		insight *= 0.9
	case risk < 0.3:
		stability *= 1.2
		insight *= 1.1
	}

	// Complexity scaling.
	switch ia.Complexity {
	case intent.ComplexitySimple:
		stability *= 0.8
		insight *= 0.7
	case intent.ComplexityModerate:
		// unscaled
	case intent.ComplexityComplex:
		stability *= 1.2
		insight *= 1.4
	case intent.ComplexityAdvanced:
		stability *= 1.4
		insight *= 1.8
	}

	d := Delta{
		Stability: int(math.Round(stability)),
		Insight:   int(math.Round(insight)),
	}

	c.logger.Debug("Base effects calculated",
		zap.String("anomaly", target.ID),
		zap.Float64("risk", risk),
		zap.Int("stability", d.Stability),
		zap.Int("insight", d.Insight))

	return d
}

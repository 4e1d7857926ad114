// Package risk scores a proposed repair and pattern-scans its diff text.
// The numeric score feeds effect calculation and the action failure rolls;
// the scan flags feed event generation only.
package risk

import (
	"math"

	"go.uber.org/zap"

	"ghostpatch/internal/anomaly"
	"ghostpatch/internal/intent"
)

// Scorer computes the risk of evaluating a proposed change.
type Scorer struct {
	logger *zap.Logger
}

// NewScorer creates a Scorer. A nil logger disables logging.
func NewScorer(logger *zap.Logger) *Scorer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Scorer{logger: logger.Named("risk")}
}

// Score computes risk in [0,1] from anomaly severity, the intent analysis and
// the player's skill level (0..100). Fully deterministic.
func (s *Scorer) Score(target *anomaly.Anomaly, ia intent.Analysis, skillLevel int) float64 {
	risk := 0.5 + float64(target.Severity)/20

	risk *= complexityMultiplier(ia.Complexity)
	risk *= approachMultiplier(ia.Approach)
	risk *= skillFactor(skillLevel)
	risk *= 2 - ia.Confidence

	clamped := math.Min(1, math.Max(0, risk))

	s.logger.Debug("Risk scored",
		zap.String("anomaly", target.ID),
		zap.Int("severity", target.Severity),
		zap.String("approach", string(ia.Approach)),
		zap.Float64("confidence", ia.Confidence),
		zap.Int("skill", skillLevel),
		zap.Float64("risk", clamped))

	return clamped
}

func complexityMultiplier(c intent.Complexity) float64 {
	switch c {
	case intent.ComplexitySimple:
		return 0.8
	case intent.ComplexityModerate:
		return 1.0
	case intent.ComplexityComplex:
		return 1.3
	case intent.ComplexityAdvanced:
		return 1.6
	default:
		return 1.0
	}
}

func approachMultiplier(a intent.Approach) float64 {
	switch a {
	case intent.ApproachQuickFix:
		return 1.2
	case intent.ApproachStandard:
		return 1.0
	case intent.ApproachRefactor:
		return 1.4
	case intent.ApproachSecurityFix:
		return 0.8
	case intent.ApproachOptimization:
		return 1.1
	default:
		return 1.0
	}
}

// skillFactor rewards skill but never below a 0.7 floor.
func skillFactor(skillLevel int) float64 {
	return math.Max(0.7, 1.2-float64(skillLevel)/100)
}

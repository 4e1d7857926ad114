package risk

import (
	"math"
	"testing"

	"ghostpatch/internal/anomaly"
	"ghostpatch/internal/intent"
)

func anomalyWithSeverity(sev int) *anomaly.Anomaly {
	return &anomaly.Anomaly{
		ID:       "a",
		Name:     "A",
		Severity: sev,
		Smell:    anomaly.SmellLegacy,
		Rooms:    []string{"lab"},
	}
}

// Regression fixture: severity 7, refactor at confidence 0.7, moderate
// complexity, skill 50. The raw product 0.85*1.0*1.4*0.7*1.3 exceeds 1 and
// must clamp.
func TestScoreRefactorFixture(t *testing.T) {
	s := NewScorer(nil)
	ia := intent.Analysis{
		Approach:   intent.ApproachRefactor,
		Confidence: 0.7,
		Complexity: intent.ComplexityModerate,
	}

	got := s.Score(anomalyWithSeverity(7), ia, 50)
	if rounded := math.Round(got*100) / 100; rounded != 1.00 {
		t.Errorf("risk = %.4f (rounded %.2f), want 1.00", got, rounded)
	}
}

// Second fixture inside the open interval: severity 3, quick fix at
// confidence 0.9, simple, skill 80 -> 0.65*0.8*1.2*0.7*1.1 = 0.48.
func TestScoreQuickFixFixture(t *testing.T) {
	s := NewScorer(nil)
	ia := intent.Analysis{
		Approach:   intent.ApproachQuickFix,
		Confidence: 0.9,
		Complexity: intent.ComplexitySimple,
	}

	got := s.Score(anomalyWithSeverity(3), ia, 80)
	if rounded := math.Round(got*100) / 100; rounded != 0.48 {
		t.Errorf("risk = %.4f (rounded %.2f), want 0.48", got, rounded)
	}
}

func TestScoreAlwaysInUnitInterval(t *testing.T) {
	s := NewScorer(nil)

	approaches := []intent.Approach{
		intent.ApproachQuickFix, intent.ApproachStandard, intent.ApproachRefactor,
		intent.ApproachSecurityFix, intent.ApproachOptimization,
	}
	complexities := []intent.Complexity{
		intent.ComplexitySimple, intent.ComplexityModerate,
		intent.ComplexityComplex, intent.ComplexityAdvanced,
	}

	for sev := 1; sev <= 10; sev++ {
		for _, ap := range approaches {
			for _, cx := range complexities {
				for _, conf := range []float64{0, 0.3, 0.6, 1.0} {
					for _, skill := range []int{0, 50, 100} {
						ia := intent.Analysis{Approach: ap, Confidence: conf, Complexity: cx}
						got := s.Score(anomalyWithSeverity(sev), ia, skill)
						if got < 0 || got > 1 {
							t.Fatalf("risk %f out of [0,1] for sev=%d ap=%s cx=%s conf=%f skill=%d",
								got, sev, ap, cx, conf, skill)
						}
					}
				}
			}
		}
	}
}

func TestScoreDeterministic(t *testing.T) {
	s := NewScorer(nil)
	ia := intent.Analysis{
		Approach:   intent.ApproachStandard,
		Confidence: 0.75,
		Complexity: intent.ComplexityComplex,
	}
	a := anomalyWithSeverity(6)

	first := s.Score(a, ia, 40)
	for i := 0; i < 10; i++ {
		if got := s.Score(a, ia, 40); got != first {
			t.Fatalf("score varied across identical inputs: %f != %f", got, first)
		}
	}
}

func TestSkillFactorFloor(t *testing.T) {
	if got := skillFactor(100); got != 0.7 {
		t.Errorf("skillFactor(100) = %f, want floor 0.7", got)
	}
	if got := skillFactor(0); got != 1.2 {
		t.Errorf("skillFactor(0) = %f, want 1.2", got)
	}
}

// Package intent turns the player's free-text repair statement into a
// structured analysis: approach, complexity, urgency and a confidence score.
// Classification is pure keyword matching over closed enums; no model calls.
package intent

import (
	"strings"

	"go.uber.org/zap"

	"ghostpatch/internal/anomaly"
)

// Approach is the repair strategy the player is signalling.
type Approach string

const (
	ApproachQuickFix     Approach = "quick_fix"
	ApproachStandard     Approach = "standard"
	ApproachRefactor     Approach = "refactor"
	ApproachSecurityFix  Approach = "security_fix"
	ApproachOptimization Approach = "optimization"
)

// Complexity is the estimated size of the repair.
type Complexity string

const (
	ComplexitySimple   Complexity = "simple"
	ComplexityModerate Complexity = "moderate"
	ComplexityComplex  Complexity = "complex"
	ComplexityAdvanced Complexity = "advanced"
)

// Urgency is how hard the player is pushing.
type Urgency string

const (
	UrgencyLow    Urgency = "low"
	UrgencyMedium Urgency = "medium"
	UrgencyHigh   Urgency = "high"
)

// Analysis is the classifier output. Created once per intent submission and
// never mutated afterwards.
type Analysis struct {
	Approach        Approach
	Confidence      float64 // 0..1
	Complexity      Complexity
	Urgency         Urgency
	MatchedKeywords []string
}

// approachKeywords is checked in declaration order; a later matching set
// overrides the approach of an earlier one, each matching set adds confidence.
var approachKeywords = []struct {
	approach Approach
	words    []string
}{
	{ApproachQuickFix, []string{"quick", "fast", "simple", "temporary", "hotfix"}},
	{ApproachRefactor, []string{"refactor", "restructure", "redesign", "clean up", "improve"}},
	{ApproachSecurityFix, []string{"secure", "safe", "protect", "validate", "sanitize"}},
	{ApproachOptimization, []string{"optimize", "performance", "faster", "efficient", "speed up"}},
}

const (
	baseConfidence     = 0.5
	matchBonus         = 0.2
	fallbackConfidence = 0.6
)

// Classifier performs free-text intent classification.
type Classifier struct {
	logger *zap.Logger
}

// NewClassifier creates a Classifier. A nil logger disables logging.
func NewClassifier(logger *zap.Logger) *Classifier {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Classifier{logger: logger.Named("intent")}
}

// Classify analyzes the raw intent text against the target anomaly.
func (c *Classifier) Classify(text string, target *anomaly.Anomaly) Analysis {
	lower := strings.ToLower(text)

	analysis := Analysis{
		Approach:   ApproachStandard,
		Confidence: baseConfidence,
		Complexity: classifyComplexity(lower),
		Urgency:    classifyUrgency(lower),
	}

	for _, set := range approachKeywords {
		matched := false
		for _, w := range set.words {
			if strings.Contains(lower, w) {
				analysis.MatchedKeywords = append(analysis.MatchedKeywords, w)
				matched = true
			}
		}
		if matched {
			analysis.Approach = set.approach
			analysis.Confidence += matchBonus
		}
	}
	if analysis.Confidence > 1.0 {
		analysis.Confidence = 1.0
	}

	// Very short statements are vague, long ones carry real signal.
	tokens := len(strings.Fields(text))
	switch {
	case tokens < 3:
		analysis.Confidence *= 0.7
	case tokens > 10:
		analysis.Confidence *= 1.2
	}
	if analysis.Confidence > 1.0 {
		analysis.Confidence = 1.0
	}

	// Low-confidence reads defer to the smell category's stock approach.
	if analysis.Confidence < fallbackConfidence {
		analysis.Approach = DefaultApproach(target.Smell)
		analysis.Confidence = fallbackConfidence
	}

	c.logger.Debug("Intent classified",
		zap.String("anomaly", target.ID),
		zap.String("approach", string(analysis.Approach)),
		zap.Float64("confidence", analysis.Confidence),
		zap.String("complexity", string(analysis.Complexity)),
		zap.String("urgency", string(analysis.Urgency)))

	return analysis
}

// DefaultApproach maps a smell category to its stock repair approach, used
// when classification confidence is too low to trust the text.
func DefaultApproach(smell anomaly.SmellCategory) Approach {
	switch smell {
	case anomaly.SmellInjection:
		return ApproachSecurityFix
	case anomaly.SmellHotLoop:
		return ApproachOptimization
	case anomaly.SmellLegacy:
		return ApproachRefactor
	case anomaly.SmellDeadCode:
		return ApproachQuickFix
	case anomaly.SmellLeak, anomaly.SmellRace:
		return ApproachStandard
	default:
		return ApproachStandard
	}
}

func classifyComplexity(lower string) Complexity {
	switch {
	case containsAny(lower, "simple", "quick", "basic"):
		return ComplexitySimple
	case containsAny(lower, "complex", "advanced", "comprehensive"):
		return ComplexityAdvanced
	case containsAny(lower, "refactor", "restructure"):
		return ComplexityComplex
	default:
		return ComplexityModerate
	}
}

func classifyUrgency(lower string) Urgency {
	switch {
	case containsAny(lower, "urgent", "critical", "immediately"):
		return UrgencyHigh
	case containsAny(lower, "when possible", "eventually"):
		return UrgencyLow
	default:
		return UrgencyMedium
	}
}

func containsAny(s string, subs ...string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}

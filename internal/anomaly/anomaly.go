// Package anomaly defines the defect entities the player hunts and the
// content catalog they are loaded from. Anomaly content is immutable once
// loaded; the catalog hands out read-only views.
package anomaly

import "fmt"

// SmellCategory is the closed set of code-smell families an anomaly can
// belong to. The category drives the default repair approach when intent
// classification is low-confidence.
type SmellCategory string

const (
	SmellLeak      SmellCategory = "leak"      // resource/memory leaks
	SmellRace      SmellCategory = "race"      // races and ordering hazards
	SmellDeadCode  SmellCategory = "deadcode"  // unreachable or vestigial code
	SmellInjection SmellCategory = "injection" // unsanitized input paths
	SmellHotLoop   SmellCategory = "hotloop"   // busy loops, runaway timers
	SmellLegacy    SmellCategory = "legacy"    // tangled legacy structure
)

// ParseSmell validates a raw string against the closed category set.
func ParseSmell(s string) (SmellCategory, error) {
	switch SmellCategory(s) {
	case SmellLeak, SmellRace, SmellDeadCode, SmellInjection, SmellHotLoop, SmellLegacy:
		return SmellCategory(s), nil
	default:
		return "", fmt.Errorf("unknown smell category %q", s)
	}
}

// FixPattern describes one known way to repair an anomaly, with its base risk
// and base gauge effects before any intent/risk scaling.
type FixPattern struct {
	Type                string  `yaml:"type"`
	BaseRisk            float64 `yaml:"base_risk"`
	BaseStabilityEffect int     `yaml:"base_stability_effect"`
	BaseInsightEffect   int     `yaml:"base_insight_effect"`
}

// Anomaly is a single defect entity. Content data, never mutated after load.
type Anomaly struct {
	ID          string        `yaml:"id"`
	Name        string        `yaml:"name"`
	Severity    int           `yaml:"severity"` // 1..10
	Smell       SmellCategory `yaml:"smell"`
	FixPatterns []FixPattern  `yaml:"fix_patterns"`
	Rooms       []string      `yaml:"rooms"`
	Required    bool          `yaml:"required"` // counts toward the victory condition
}

// PrimaryFix returns the anomaly's first fix pattern, if any. Effect
// calculation falls back to stock deltas when an anomaly carries none.
func (a *Anomaly) PrimaryFix() (FixPattern, bool) {
	if len(a.FixPatterns) == 0 {
		return FixPattern{}, false
	}
	return a.FixPatterns[0], true
}

// Validate checks the content invariants enforced at catalog load time.
func (a *Anomaly) Validate() error {
	if a.ID == "" {
		return fmt.Errorf("anomaly missing id")
	}
	if a.Name == "" {
		return fmt.Errorf("anomaly %s: missing name", a.ID)
	}
	if a.Severity < 1 || a.Severity > 10 {
		return fmt.Errorf("anomaly %s: severity %d out of range [1,10]", a.ID, a.Severity)
	}
	if _, err := ParseSmell(string(a.Smell)); err != nil {
		return fmt.Errorf("anomaly %s: %w", a.ID, err)
	}
	if len(a.Rooms) == 0 {
		return fmt.Errorf("anomaly %s: not placed in any room", a.ID)
	}
	for i, fp := range a.FixPatterns {
		if fp.BaseRisk < 0 || fp.BaseRisk > 1 {
			return fmt.Errorf("anomaly %s: fix pattern %d base risk %f out of range [0,1]", a.ID, i, fp.BaseRisk)
		}
	}
	return nil
}

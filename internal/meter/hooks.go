package meter

// ThresholdEvent is the closed union of threshold-crossing notifications.
// Each kind carries a fixed field set; consumers switch on the concrete type.
type ThresholdEvent interface {
	// Kind returns a stable name for logging and cue routing.
	Kind() string
}

// StabilityCritical fires only on the downward crossing into the critical
// band (previous > 20, new <= 20).
type StabilityCritical struct {
	Previous int
	New      int
}

// Kind implements ThresholdEvent.
func (StabilityCritical) Kind() string { return "stability_critical" }

// InsightMilestone fires only on the upward crossing of one of the fixed
// insight levels (previous < Level <= new).
type InsightMilestone struct {
	Level    int
	Previous int
	New      int
}

// Kind implements ThresholdEvent.
func (m InsightMilestone) Kind() string {
	switch m.Level {
	case 25:
		return "insight_threshold_25"
	case 50:
		return "insight_threshold_50"
	case 75:
		return "insight_threshold_75"
	default:
		return "insight_threshold"
	}
}

// Hook receives threshold events. Hooks run synchronously inside the gauge
// transaction and must not call back into the gauge.
type Hook func(ThresholdEvent)

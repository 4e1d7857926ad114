// Package effect defines the gauge delta type and the two numeric stages that
// surround event simulation: the calculator (anomaly + intent + risk -> base
// deltas) and the aggregator (deltas + current gauges -> clamped new gauges).
package effect

// Delta is a signed change to the two gauges.
type Delta struct {
	Stability int `json:"stability"`
	Insight   int `json:"insight"`
}

// Add returns the component-wise sum of two deltas.
func (d Delta) Add(o Delta) Delta {
	return Delta{Stability: d.Stability + o.Stability, Insight: d.Insight + o.Insight}
}

// IsZero reports whether the delta changes nothing.
func (d Delta) IsZero() bool {
	return d.Stability == 0 && d.Insight == 0
}

// Gauge bounds.
const (
	GaugeMin = 0
	GaugeMax = 100
)

// ClampGauge bounds a gauge value to [GaugeMin, GaugeMax].
func ClampGauge(v int) int {
	if v < GaugeMin {
		return GaugeMin
	}
	if v > GaugeMax {
		return GaugeMax
	}
	return v
}

// Aggregate applies a total delta to the current gauges and returns the
// clamped new values plus the delta actually experienced after clamping.
// Because the applied delta is derived from the clamped result, repeated
// over-application is idempotent at the gauge boundary.
func Aggregate(stability, insight int, total Delta) (newStability, newInsight int, applied Delta) {
	newStability = ClampGauge(stability + total.Stability)
	newInsight = ClampGauge(insight + total.Insight)
	applied = Delta{
		Stability: newStability - stability,
		Insight:   newInsight - insight,
	}
	return newStability, newInsight, applied
}

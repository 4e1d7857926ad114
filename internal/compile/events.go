// Package compile simulates the consequences of evaluating a proposed change:
// a deterministic pass, a stochastic pass, and a bounded cascade pass, all
// feeding one event chain per evaluation.
package compile

import (
	"time"

	"github.com/google/uuid"

	"ghostpatch/internal/effect"
)

// EventType is the closed set of compile event kinds.
type EventType string

const (
	EventSuccess           EventType = "success"
	EventWarning           EventType = "warning"
	EventError             EventType = "error"
	EventSecurityViolation EventType = "security_violation"
	EventPerformanceImpact EventType = "performance_impact"
)

// Event is a single discrete consequence. Append-only once created.
type Event struct {
	ID            string       `json:"id"`
	Type          EventType    `json:"type"`
	Timestamp     time.Time    `json:"timestamp"`
	Description   string       `json:"description"`
	Effects       effect.Delta `json:"effects"`
	Deterministic bool         `json:"deterministic"`
	Cascade       bool         `json:"cascade"`
}

// Chain is the ordered list of events from one evaluation pass plus its
// aggregate effects.
type Chain struct {
	ID           string       `json:"id"`
	CreatedAt    time.Time    `json:"created_at"`
	Events       []Event      `json:"events"`
	TotalEffects effect.Delta `json:"total_effects"`
	CascadeDepth int          `json:"cascade_depth"` // count of cascade-tagged events
}

func newChain() *Chain {
	return &Chain{
		ID:        uuid.NewString(),
		CreatedAt: time.Now(),
	}
}

func (c *Chain) append(ev Event) {
	c.Events = append(c.Events, ev)
	c.TotalEffects = c.TotalEffects.Add(ev.Effects)
	if ev.Cascade {
		c.CascadeDepth++
	}
}

func newEvent(t EventType, desc string, eff effect.Delta, deterministic, cascade bool) Event {
	return Event{
		ID:            uuid.NewString(),
		Type:          t,
		Timestamp:     time.Now(),
		Description:   desc,
		Effects:       eff,
		Deterministic: deterministic,
		Cascade:       cascade,
	}
}

// baseRisk is the per-type propensity of an event to trigger a cascade.
func baseRisk(t EventType) float64 {
	switch t {
	case EventError:
		return 0.8
	case EventSecurityViolation:
		return 0.9
	case EventWarning:
		return 0.4
	case EventPerformanceImpact:
		return 0.5
	case EventSuccess:
		return 0.1
	default:
		return 0.1
	}
}

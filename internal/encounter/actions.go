package encounter

import (
	"fmt"
	"math"

	"ghostpatch/internal/effect"
	"ghostpatch/internal/intent"
	"ghostpatch/internal/patch"
	"ghostpatch/internal/rng"
)

// Action is the player's choice over a reviewed patch.
type Action string

const (
	ActionApply    Action = "apply"    // use the patch as generated
	ActionRefactor Action = "refactor" // take the careful path; never fails
	ActionQuestion Action = "question" // interrogate instead of changing
	ActionReject   Action = "reject"   // walk away from the patch
)

// ParseAction validates a raw action string.
func ParseAction(s string) (Action, error) {
	switch Action(s) {
	case ActionApply, ActionRefactor, ActionQuestion, ActionReject:
		return Action(s), nil
	default:
		return "", fmt.Errorf("unknown action %q", s)
	}
}

// actionOutcome is the action-adjusted effect set fed into event simulation.
type actionOutcome struct {
	Effects effect.Delta
	Failed  bool // apply botched outright
	Partial bool // apply landed with a degraded stability payoff
	Note    string
}

// resolveActionEffects branches on the player's action. The numeric constants
// here are balance-critical; treat any edit as a balance change.
func resolveActionEffects(action Action, ch *patch.Change, stream *rng.Stream) actionOutcome {
	risk := ch.RiskScore
	eff := ch.Expected

	switch action {
	case ActionApply:
		if risk > 0.8 {
			failureChance := (risk - 0.8) * 5
			if stream.Float64() < failureChance {
				return actionOutcome{
					Effects: effect.Delta{
						Stability: -abs(eff.Stability),
						Insight:   int(math.Round(float64(eff.Insight) * 0.3)),
					},
					Failed: true,
					Note:   "apply backfired",
				}
			}
		} else if risk > 0.6 {
			partialChance := (risk - 0.6) * 2.5
			if stream.Float64() < partialChance {
				eff.Stability = int(math.Round(float64(eff.Stability) * 0.7))
				return actionOutcome{Effects: eff, Partial: true, Note: "apply landed roughly"}
			}
		}
		return actionOutcome{Effects: eff, Note: "apply"}

	case ActionRefactor:
		eff.Insight += 5
		if ch.Complexity == intent.ComplexityAdvanced && stream.Float64() < 0.3 {
			eff.Insight += 10
		}
		return actionOutcome{Effects: eff, Note: "refactor"}

	case ActionQuestion:
		return actionOutcome{
			Effects: effect.Delta{
				Stability: 0,
				Insight:   int(math.Floor(15 + risk*10)),
			},
			Note: "question",
		}

	case ActionReject:
		eff = effect.Delta{Stability: -2, Insight: 3}
		if risk > 0.7 {
			eff.Insight += 5
		}
		return actionOutcome{Effects: eff, Note: "reject"}

	default:
		return actionOutcome{Note: "noop"}
	}
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}

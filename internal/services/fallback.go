package services

import (
	"context"

	"ghostpatch/internal/anomaly"
)

// fallbackLines are the deterministic narration templates used when the
// remote narrator is absent or failing.
var fallbackLines = map[anomaly.SmellCategory]Narration{
	anomaly.SmellLeak: {
		Content: "Something drips steadily in the walls of the module. Each open handle hums, refusing to let go.",
		Hints:   []string{"Look for what is acquired but never released."},
	},
	anomaly.SmellRace: {
		Content: "Two reflections of the same function reach for the cache at once. Neither sees the other move.",
		Hints:   []string{"The check and the act must be one motion."},
	},
	anomaly.SmellDeadCode: {
		Content: "A corridor of code stretches past the return, swept by no execution. Dust settles on unreachable branches.",
		Hints:   []string{"Follow the early return; what lies beyond it never runs."},
	},
	anomaly.SmellInjection: {
		Content: "The banner whispers back whatever name it is fed, markup and all. Something crafted waits to be spoken.",
		Hints:   []string{"Treat every name as text, never as markup."},
	},
	anomaly.SmellHotLoop: {
		Content: "The fans spin up as the loop tightens. The spirit circles the same condition, faster and faster.",
		Hints:   []string{"Give the thread back; poll, don't spin."},
	},
	anomaly.SmellLegacy: {
		Content: "Nested conditionals coil over each other like roots through an old floor. Somewhere under them is a simple table.",
		Hints:   []string{"Count the branches, then count the distinct outcomes."},
	},
}

// FallbackNarrator produces deterministic local narration. Always succeeds.
type FallbackNarrator struct{}

// Generate implements Narrator without any external call.
func (FallbackNarrator) Generate(_ context.Context, req NarrationRequest) (Narration, error) {
	return FallbackNarration(req), nil
}

// FallbackNarration returns the stock narration for a request's smell.
func FallbackNarration(req NarrationRequest) Narration {
	if n, ok := fallbackLines[req.Smell]; ok {
		return n
	}
	return Narration{Content: "The anomaly flickers at the edge of the stack trace, waiting."}
}

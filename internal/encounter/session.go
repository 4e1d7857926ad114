// Package encounter orchestrates anomaly-encounter sessions: the state
// machine from first dialogue through patch review to the player's chosen
// action, driving the classification/scoring/simulation pipeline.
package encounter

import (
	"time"

	"github.com/google/uuid"

	"ghostpatch/internal/compile"
	"ghostpatch/internal/intent"
	"ghostpatch/internal/patch"
	"ghostpatch/internal/services"
)

// State is the session lifecycle position.
type State string

const (
	StateNotStarted      State = "not_started"
	StateInDialogue      State = "in_dialogue"
	StateGeneratingPatch State = "generating_patch"
	StateReviewingPatch  State = "reviewing_patch"
	StateApplyingPatch   State = "applying_patch"
	StateCompleted       State = "completed"
	StateFailed          State = "failed"
)

// Terminal reports whether the session can no longer advance. Failed is
// reached only on structurally invalid input; risk-driven setbacks stay
// inside Completed with penalty effects.
func (s State) Terminal() bool {
	return s == StateCompleted || s == StateFailed
}

// Session is one encounter with one anomaly. At most one non-terminal session
// exists per anomaly at any time; the machine enforces that.
type Session struct {
	ID        string
	AnomalyID string
	State     State
	CreatedAt time.Time
	UpdatedAt time.Time

	// Pipeline artifacts for the current pass.
	Intent    *intent.Analysis
	Change    *patch.Change
	Chain     *compile.Chain
	Narration services.Narration
	Lint      services.LintReport
}

func newSession(anomalyID string) *Session {
	now := time.Now()
	return &Session{
		ID:        uuid.NewString(),
		AnomalyID: anomalyID,
		State:     StateNotStarted,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

func (s *Session) advance(to State) {
	s.State = to
	s.UpdatedAt = time.Now()
}

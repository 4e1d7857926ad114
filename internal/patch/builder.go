package patch

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/sergi/go-diff/diffmatchpatch"
	"go.uber.org/zap"

	"ghostpatch/internal/anomaly"
	"ghostpatch/internal/effect"
	"ghostpatch/internal/intent"
)

// Builder assembles generated changes from the smell's fix template, the
// intent analysis and the scored risk.
type Builder struct {
	dmp    *diffmatchpatch.DiffMatchPatch
	logger *zap.Logger
}

// NewBuilder creates a Builder. A nil logger disables logging.
func NewBuilder(logger *zap.Logger) *Builder {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Builder{
		dmp:    diffmatchpatch.New(),
		logger: logger.Named("patch"),
	}
}

// Build creates the change for repairing the anomaly. The diff text is the
// patch between the template's before/after pair; narration content from the
// content collaborator is layered on by the caller.
func (b *Builder) Build(target *anomaly.Anomaly, ia intent.Analysis, risk float64, expected effect.Delta) *Change {
	tpl := templateFor(target.Smell)

	patches := b.dmp.PatchMake(tpl.before, tpl.after)
	diffText := fmt.Sprintf("--- %s\n+++ %s\n%s", tpl.path, tpl.path, b.dmp.PatchToText(patches))

	ch := &Change{
		ID:               uuid.NewString(),
		AnomalyID:        target.ID,
		DiffText:         diffText,
		Description:      tpl.description,
		Explanation:      tpl.explanation,
		RiskScore:        risk,
		Expected:         expected,
		Complexity:       ia.Complexity,
		Impact:           impactFor(risk, ia.Complexity),
		Alternatives:     alternativesFor(target, ia.Approach),
		EducationalNotes: append([]string(nil), tpl.notes...),
	}

	b.logger.Debug("Change built",
		zap.String("change", ch.ID),
		zap.String("anomaly", target.ID),
		zap.Float64("risk", risk),
		zap.String("impact", string(ch.Impact)))

	return ch
}

// impactFor labels blast radius from risk and complexity.
func impactFor(risk float64, c intent.Complexity) Impact {
	switch {
	case risk > 0.8 || c == intent.ComplexityAdvanced:
		return ImpactSystemWide
	case risk > 0.6 || c == intent.ComplexityComplex:
		return ImpactSignificant
	case risk > 0.4:
		return ImpactModerate
	case c == intent.ComplexitySimple:
		return ImpactMinimal
	default:
		return ImpactLocalized
	}
}

// alternativesFor lists the anomaly's other fix patterns as alternative
// strategies, skipping the one the approach already points at.
func alternativesFor(target *anomaly.Anomaly, approach intent.Approach) []string {
	var out []string
	for _, fp := range target.FixPatterns {
		if fp.Type == string(approach) {
			continue
		}
		out = append(out, fmt.Sprintf("%s (base risk %.2f)", fp.Type, fp.BaseRisk))
	}
	return out
}

// Package patch builds and validates generated changes: the structured fix
// proposals the player reviews before acting.
package patch

import (
	"fmt"

	"ghostpatch/internal/effect"
	"ghostpatch/internal/intent"
)

// Impact is the blast-radius label attached to a change.
type Impact string

const (
	ImpactMinimal     Impact = "minimal"
	ImpactLocalized   Impact = "localized"
	ImpactModerate    Impact = "moderate"
	ImpactSignificant Impact = "significant"
	ImpactSystemWide  Impact = "system_wide"
)

// Change is a generated fix proposal. Owned by its encounter session until
// applied or discarded.
type Change struct {
	ID               string            `json:"id"`
	AnomalyID        string            `json:"anomaly_id"`
	DiffText         string            `json:"diff_text"`
	Description      string            `json:"description"`
	Explanation      string            `json:"explanation"`
	RiskScore        float64           `json:"risk_score"` // 0..1
	Expected         effect.Delta      `json:"expected_effects"`
	Complexity       intent.Complexity `json:"complexity"`
	Impact           Impact            `json:"impact"`
	Alternatives     []string          `json:"alternatives,omitempty"`
	EducationalNotes []string          `json:"educational_notes,omitempty"`
}

// ValidationError reports a structurally invalid change. It blocks apply and
// leaves the gauges untouched.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid change: %s %s", e.Field, e.Reason)
}

// Validate checks structural validity. Risk or effect values out of range are
// clamped elsewhere, never rejected here.
func (c *Change) Validate() error {
	if c.DiffText == "" {
		return &ValidationError{Field: "diff_text", Reason: "is empty"}
	}
	if c.Description == "" {
		return &ValidationError{Field: "description", Reason: "is empty"}
	}
	return nil
}

// Package services holds the collaborators the core orchestrates but does not
// own: diff application, lint, narrative content generation and the
// fire-and-forget cue queue. Each has a local implementation so the core
// degrades deterministically when a remote collaborator is absent or failing.
package services

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/sergi/go-diff/diffmatchpatch"
	"go.uber.org/zap"
)

// ApplyResult is the outcome of applying a diff to a target.
type ApplyResult struct {
	Success bool
	Errors  []string
}

// DiffApplier applies a change's diff text to a target. Retry and timeout
// policy belong to the implementation, never to the core.
type DiffApplier interface {
	Apply(ctx context.Context, diffText, targetID string) (ApplyResult, error)
}

// LocalDiffApplier applies patch text against an in-memory file set. It is
// the deterministic stand-in for the real workspace service.
type LocalDiffApplier struct {
	mu     sync.Mutex
	files  map[string]string
	dmp    *diffmatchpatch.DiffMatchPatch
	logger *zap.Logger
}

// NewLocalDiffApplier creates an applier over the given files (targetID ->
// content). Missing targets apply against empty content.
func NewLocalDiffApplier(files map[string]string, logger *zap.Logger) *LocalDiffApplier {
	if files == nil {
		files = make(map[string]string)
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LocalDiffApplier{
		files:  files,
		dmp:    diffmatchpatch.New(),
		logger: logger.Named("diffapply"),
	}
}

// Apply parses the patch text and applies it to the target's content.
func (a *LocalDiffApplier) Apply(ctx context.Context, diffText, targetID string) (ApplyResult, error) {
	if err := ctx.Err(); err != nil {
		return ApplyResult{}, err
	}

	patches, err := a.dmp.PatchFromText(stripFileHeader(diffText))
	if err != nil {
		return ApplyResult{Success: false, Errors: []string{fmt.Sprintf("parse diff: %v", err)}}, nil
	}
	if len(patches) == 0 {
		return ApplyResult{Success: false, Errors: []string{"diff contains no hunks"}}, nil
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	next, applied := a.dmp.PatchApply(patches, a.files[targetID])
	result := ApplyResult{Success: true}
	for i, ok := range applied {
		if !ok {
			result.Success = false
			result.Errors = append(result.Errors, fmt.Sprintf("hunk %d did not apply", i))
		}
	}
	if result.Success {
		a.files[targetID] = next
	}

	a.logger.Debug("Diff applied",
		zap.String("target", targetID),
		zap.Bool("success", result.Success),
		zap.Int("hunks", len(patches)))

	return result, nil
}

// Content returns the current content for a target, for tests and previews.
func (a *LocalDiffApplier) Content(targetID string) string {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.files[targetID]
}

// stripFileHeader drops the ---/+++ file header lines the patch builder
// prepends; the patch codec only understands hunk text.
func stripFileHeader(diffText string) string {
	lines := strings.Split(diffText, "\n")
	i := 0
	for i < len(lines) && (strings.HasPrefix(lines[i], "--- ") || strings.HasPrefix(lines[i], "+++ ")) {
		i++
	}
	return strings.Join(lines[i:], "\n")
}

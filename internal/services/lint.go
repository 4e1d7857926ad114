package services

import (
	"context"
	"regexp"
	"strings"

	"go.uber.org/zap"
)

// LintIssue is a single finding from the lint collaborator.
type LintIssue struct {
	Line     int
	Severity string // "error" or "warning"
	Message  string
}

// LintReport is the lint collaborator's verdict.
type LintReport struct {
	Passed bool
	Issues []LintIssue
}

// Linter runs a ruleset over code. Findings are simulation inputs only; this
// is not static analysis.
type Linter interface {
	Run(ctx context.Context, code, ruleset string) (LintReport, error)
}

// lintRule is one regex rule in a ruleset.
type lintRule struct {
	pattern  *regexp.Regexp
	severity string
	message  string
}

// Stock rulesets, keyed by name. The "haunt" set mirrors the hazard patterns
// the risk scanner flags so lint findings and simulated events agree.
var lintRulesets = map[string][]lintRule{
	"haunt": {
		{regexp.MustCompile(`(?i)\beval\s*\(`), "error", "dynamic code execution"},
		{regexp.MustCompile(`(?i)\.innerHTML\s*=`), "error", "unsafe DOM write"},
		{regexp.MustCompile(`(?i)document\.write\s*\(`), "error", "unsafe DOM write"},
		{regexp.MustCompile(`while\s*\(\s*true\s*\)`), "warning", "busy loop"},
		{regexp.MustCompile(`(?i)var\s+`), "warning", "prefer const/let"},
		{regexp.MustCompile(`(?i)==[^=]`), "warning", "loose equality"},
	},
}

// RegexLinter is the local ruleset implementation.
type RegexLinter struct {
	logger *zap.Logger
}

// NewRegexLinter creates the local linter.
func NewRegexLinter(logger *zap.Logger) *RegexLinter {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RegexLinter{logger: logger.Named("lint")}
}

// Run applies the named ruleset line by line. Unknown rulesets pass trivially.
func (l *RegexLinter) Run(ctx context.Context, code, ruleset string) (LintReport, error) {
	if err := ctx.Err(); err != nil {
		return LintReport{}, err
	}

	rules, ok := lintRulesets[ruleset]
	if !ok {
		return LintReport{Passed: true}, nil
	}

	report := LintReport{Passed: true}
	for i, line := range strings.Split(code, "\n") {
		for _, r := range rules {
			if r.pattern.MatchString(line) {
				report.Issues = append(report.Issues, LintIssue{
					Line:     i + 1,
					Severity: r.severity,
					Message:  r.message,
				})
				if r.severity == "error" {
					report.Passed = false
				}
			}
		}
	}

	l.logger.Debug("Lint complete",
		zap.String("ruleset", ruleset),
		zap.Bool("passed", report.Passed),
		zap.Int("issues", len(report.Issues)))

	return report, nil
}

package risk

import "regexp"

// ScanResult carries the pattern-scan flags for a diff. These are simulation
// inputs, not a static analysis verdict: a set flag means the diff text
// contains a construct the event engine treats as hazardous.
type ScanResult struct {
	Security    bool
	Performance bool
}

// Dangerous construct patterns. Matched against raw diff text.
var securityPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)\beval\s*\(`),
	regexp.MustCompile(`(?i)new\s+Function\s*\(`),
	regexp.MustCompile(`(?i)\.innerHTML\s*=`),
	regexp.MustCompile(`(?i)document\.write\s*\(`),
	regexp.MustCompile(`(?i)javascript:`),
	regexp.MustCompile(`(?i)\bon(click|load|error|mouseover)\s*=`),
}

// Busy-loop, unbounded-timer and large-allocation patterns.
var performancePatterns = []*regexp.Regexp{
	regexp.MustCompile(`while\s*\(\s*true\s*\)`),
	regexp.MustCompile(`for\s*\(\s*;\s*;\s*\)`),
	regexp.MustCompile(`(?i)setInterval\s*\([^,)]*,\s*[0-9]\s*\)`),
	regexp.MustCompile(`(?i)new\s+Array\s*\(\s*[0-9]{7,}`),
	regexp.MustCompile(`(?i)setTimeout\s*\([^,)]*\)\s*;?\s*//\s*no\s*clear`),
}

// ScanDiff pattern-scans diff text for security and performance hazards.
func ScanDiff(diffText string) ScanResult {
	var res ScanResult
	for _, p := range securityPatterns {
		if p.MatchString(diffText) {
			res.Security = true
			break
		}
	}
	for _, p := range performancePatterns {
		if p.MatchString(diffText) {
			res.Performance = true
			break
		}
	}
	return res
}

// Package parser turns Karate console output into an output.Result.
//
// Parsing is a best-effort, single forward pass. Malformed or unexpected
// input never produces an error; anything that does not match simply
// leaves the corresponding field at its zero value.
package parser

import (
	"errors"
	"math"
	"regexp"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/zinc-sig/kaas/internal/output"
)

// Summary lines printed by Karate at the end of a run, e.g.
//
//	scenarios:  2 | passed:  1 | failed:  1 | time: 1.2345
//	features:   1 | skipped:  0 | efficiency: 0.52
//	elapsed:   2.31 | threads:    1 | thread time: 1.20
var (
	scenariosRegex = regexp.MustCompile(`(?i)scenarios:\s*(\d+)\s*\|\s*passed:\s*(\d+)\s*\|\s*failed:\s*(\d+)`)
	featuresRegex  = regexp.MustCompile(`(?i)features:\s*(\d+)\s*\|\s*skipped:\s*(\d+)`)
	elapsedRegex   = regexp.MustCompile(`(?i)elapsed:\s*([\d.]+)`)
)

// Markers that identify output worth parsing even when the engine exited
// with a non-zero status.
const (
	markerTestFailures = "there are test failures"
	markerScenarios    = "scenarios:"
)

// Parse extracts summary counts and per-step details from consoleText.
// featureContent is the script that produced the output and is carried
// into the result unchanged.
func Parse(consoleText, featureContent string) *output.Result {
	result := output.NewResult(featureContent)

	parseSummary(consoleText, result)
	result.Steps = parseSteps(consoleText)

	return result
}

// HasResults reports whether text looks like the output of a run that got
// far enough to report results.
func HasResults(text string) bool {
	return strings.Contains(text, markerTestFailures) || strings.Contains(text, markerScenarios)
}

func parseSummary(text string, result *output.Result) {
	if m := scenariosRegex.FindStringSubmatch(text); m != nil {
		result.Scenarios.Total = atoi(m[1])
		result.Scenarios.Passed = atoi(m[2])
		result.Scenarios.Failed = atoi(m[3])
	}

	if m := featuresRegex.FindStringSubmatch(text); m != nil {
		result.Features.Total = atoi(m[1])
	}

	if m := elapsedRegex.FindStringSubmatch(text); m != nil {
		result.ElapsedMillis = parseElapsed(m[1])
	}
}

func parseSteps(text string) []output.Step {
	st := newState()

	for _, raw := range strings.Split(text, "\n") {
		line := strings.TrimSpace(raw)
		if line == "" {
			continue
		}
		classify(st, line)
	}

	st.finalizeStep()
	return st.steps
}

// parseElapsed reads the leading number of s the way a lenient float parser
// would: "12.5.3" reads as 12.5, a bare "." as 0.
func parseElapsed(s string) float64 {
	if first := strings.IndexByte(s, '.'); first >= 0 {
		if second := strings.IndexByte(s[first+1:], '.'); second >= 0 {
			s = s[:first+1+second]
		}
	}
	s = strings.TrimSuffix(s, ".")
	if s == "" {
		return 0
	}

	d, err := decimal.NewFromString(s)
	if err != nil {
		return 0
	}
	f := d.InexactFloat64()
	if math.IsInf(f, 0) || math.IsNaN(f) {
		return 0
	}
	return f
}

// atoi parses a run of digits. Values too large for an int saturate at
// math.MaxInt so an oversized failure count still reads as a failure.
func atoi(s string) int {
	n, err := strconv.Atoi(s)
	if err != nil && !errors.Is(err, strconv.ErrRange) {
		return 0
	}
	return n
}

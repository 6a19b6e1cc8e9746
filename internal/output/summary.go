package output

import (
	"github.com/shopspring/decimal"
)

// Summary status values
const (
	SummaryPassed = "passed"
	SummaryFailed = "failed"
	SummaryError  = "error"
)

// Summary is the compact projection of an execution kept by history
// consumers and sent alongside webhook payloads.
type Summary struct {
	Status        string  `json:"status"`
	Scenarios     int     `json:"scenarios"`
	Passed        int     `json:"passed"`
	Failed        int     `json:"failed"`
	PassRate      float64 `json:"passRate"`
	ElapsedMillis float64 `json:"elapsedMillis"`
	FailedSteps   int     `json:"failedSteps"`

	ScenarioNames []string `json:"scenarioNames,omitempty"`
	Tags          []string `json:"tags,omitempty"`
}

// Summarize builds a Summary. A run that produced no scenarios at all and
// was not successful is reported as an error rather than a failure.
func Summarize(result *Result, success bool) *Summary {
	if result == nil {
		result = NewResult("")
	}

	s := &Summary{
		Scenarios:     result.Scenarios.Total,
		Passed:        result.Scenarios.Passed,
		Failed:        result.Scenarios.Failed,
		PassRate:      PassRate(result.Scenarios.Passed, result.Scenarios.Total),
		ElapsedMillis: result.ElapsedMillis,
		FailedSteps:   len(result.FailedSteps()),
	}

	switch {
	case success:
		s.Status = SummaryPassed
	case result.Scenarios.Total == 0 && len(result.Steps) == 0:
		s.Status = SummaryError
	default:
		s.Status = SummaryFailed
	}
	return s
}

// PassRate returns passed/total as a percentage rounded to two places.
// A zero total yields 0.
func PassRate(passed, total int) float64 {
	if total <= 0 {
		return 0
	}
	rate := decimal.NewFromInt(int64(passed)).
		Mul(decimal.NewFromInt(100)).
		DivRound(decimal.NewFromInt(int64(total)), 2)
	return rate.InexactFloat64()
}

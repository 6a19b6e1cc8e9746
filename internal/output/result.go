package output

import "encoding/json"

// Step status values
const (
	StatusPassed  = "passed"
	StatusFailed  = "failed"
	StatusSkipped = "skipped"
)

// Result is the structured form of one Karate console run.
// Wire names follow the payload the web client already consumes.
type Result struct {
	Scenarios      ScenarioCounts `json:"scenarios"`
	Features       FeatureCounts  `json:"features"`
	ElapsedMillis  float64        `json:"time"`
	FeatureContent string         `json:"featureContent"`
	Steps          []Step         `json:"steps"`
}

type ScenarioCounts struct {
	Total  int `json:"total"`
	Passed int `json:"passed"`
	Failed int `json:"failed"`
}

// FeatureCounts only ever carries the total; Passed stays nil.
type FeatureCounts struct {
	Total   int  `json:"total"`
	Passed  *int `json:"passed,omitempty"`
	Skipped int  `json:"skipped"`
}

// Step is one Given/When/Then line recognized in the console output
type Step struct {
	Line     int           `json:"line"`
	Keyword  string        `json:"keyword"`
	Text     string        `json:"text"`
	Status   string        `json:"status"`
	Logs     []string      `json:"logs,omitempty"`
	Error    string        `json:"error,omitempty"`
	Request  *HTTPRequest  `json:"request,omitempty"`
	Response *HTTPResponse `json:"response,omitempty"`
}

type HTTPRequest struct {
	Method  string            `json:"method"`
	URL     string            `json:"url"`
	Headers map[string]string `json:"headers"`
	Body    json.RawMessage   `json:"body,omitempty"`
}

type HTTPResponse struct {
	Status  int               `json:"status"`
	Headers map[string]string `json:"headers"`
	Body    json.RawMessage   `json:"body,omitempty"`
	Time    *int64            `json:"time,omitempty"` // milliseconds
}

// NewResult returns an all-zero result carrying the script text
func NewResult(featureContent string) *Result {
	return &Result{
		FeatureContent: featureContent,
		Steps:          []Step{},
	}
}

// Success reports whether no scenario failed
func (r *Result) Success() bool {
	return r.Scenarios.Failed == 0
}

// FailedSteps returns the steps whose status is failed, in order
func (r *Result) FailedSteps() []Step {
	var failed []Step
	for _, s := range r.Steps {
		if s.Status == StatusFailed {
			failed = append(failed, s)
		}
	}
	return failed
}

package output

// ExecuteRequest is the body of POST /karate/execute
type ExecuteRequest struct {
	Feature string         `json:"feature"`
	Config  map[string]any `json:"config,omitempty"`
}

// ParseRequest is the body of POST /karate/parse
type ParseRequest struct {
	ConsoleText string `json:"consoleText"`
	Feature     string `json:"feature"`
}

// ExecutionResponse is returned for every execution, passing or not.
type ExecutionResponse struct {
	Success     bool              `json:"success"`
	Output      *Result           `json:"output"`
	RawOutput   string            `json:"rawOutput"`
	ExecutionID string            `json:"executionId,omitempty"`
	Outline     []ScenarioOutline `json:"outline,omitempty"`
	FailedLines []int             `json:"failedLines,omitempty"`
	Summary     *Summary          `json:"summary,omitempty"`

	// Delivery status (only in local output, not sent to webhook)
	WebhookSent  bool   `json:"webhook_sent,omitempty"`
	WebhookError string `json:"webhook_error,omitempty"`
}

type Versions struct {
	Karate string `json:"karate"`
	Java   string `json:"java"`
}

// ScenarioOutline is one scenario of the submitted script with the
// status of each of its steps as observed in the run.
type ScenarioOutline struct {
	Name   string        `json:"name"`
	Line   int           `json:"line"`
	Tags   []string      `json:"tags,omitempty"`
	Status string        `json:"status"`
	Steps  []OutlineStep `json:"steps"`
}

type OutlineStep struct {
	Keyword string `json:"keyword"`
	Text    string `json:"text"`
	Line    int    `json:"line"`
	Status  string `json:"status"`
	Error   string `json:"error,omitempty"`
}

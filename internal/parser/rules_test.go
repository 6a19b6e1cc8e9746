package parser

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zinc-sig/kaas/internal/output"
)

// withStep, withRequest and withResponse build parser states for
// classifying a single line in isolation.
func withStep() *state {
	st := newState()
	st.openStep("Given", "something")
	return st
}

func withRequest() *state {
	st := withStep()
	applyRequest(st, "> GET /things")
	return st
}

func withResponse() *state {
	st := withRequest()
	applyResponse(st, "< 200")
	return st
}

func TestClassify(t *testing.T) {
	tests := []struct {
		name  string
		state func() *state
		line  string
		want  string
	}{
		{"step keyword", newState, "When method GET", ruleStep},
		{"step keyword lower case", newState, "then status 200", ruleStep},
		{"keyword without text", newState, "Given", ruleLog},
		{"step beats fail marker", withStep, "Then match error == null", ruleStep},
		{"check mark", withStep, "✓ passed", rulePass},
		{"pass beats fail", withStep, "0 passed, 1 failed", rulePass},
		{"cross mark", withStep, "× boom", ruleFail},
		{"match failed", withStep, "match failed: $.id", ruleFail},
		{"error word", withStep, "java error occurred", ruleFail},
		{"fail beats skip", withStep, "failed-assertion", ruleFail},
		{"hyphen counts as skip", withStep, "2024-01-01 log", ruleSkip},
		{"skipped word", withStep, "scenario skipped", ruleSkip},
		{"request line", withStep, "> PATCH /users/1", ruleRequest},
		{"request with unknown verb is a header", withStep, "> OPTIONS: /x", ruleHeader},
		{"response line", withRequest, "< 404", ruleResponse},
		{"timing with response", withResponse, "response time in milliseconds: 17", ruleTiming},
		{"timing without response", withRequest, "response time in milliseconds: 17", ruleLog},
		{"request header", withRequest, "> Accept: */*", ruleHeader},
		{"unattributed header", withStep, "< Server: jetty", ruleHeader},
		{"json object", withResponse, `{"ok":true}`, ruleJSON},
		{"json array", withRequest, `[1,2,3]`, ruleJSON},
		{"json without exchange", withStep, `{"ok":true}`, ruleJSON},
		{"broken json", withResponse, `{"ok":`, ruleLog},
		{"plain text", withStep, "print hello", ruleLog},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, classify(tt.state(), tt.line))
		})
	}
}

func TestRuleOrder(t *testing.T) {
	var names []string
	for _, r := range rules {
		names = append(names, r.name)
	}

	assert.Equal(t, []string{
		ruleStep, rulePass, ruleFail, ruleSkip, ruleRequest,
		ruleResponse, ruleTiming, ruleHeader, ruleJSON, ruleLog,
	}, names)
}

func TestIndicatorsWithoutOpenStep(t *testing.T) {
	st := newState()

	for _, line := range []string{"✓ passed", "× failed", "a-b"} {
		classify(st, line)
	}
	st.finalizeStep()

	assert.Empty(t, st.steps)
	assert.Nil(t, st.logs)
}

func TestFinalizeStep(t *testing.T) {
	st := withResponse()
	applyLog(st, "note")
	st.finalizeStep()

	require.Len(t, st.steps, 1)
	step := st.steps[0]
	assert.Equal(t, 1, step.Line)
	assert.Equal(t, []string{"note"}, step.Logs)
	require.NotNil(t, step.Request)
	require.NotNil(t, step.Response)
	assert.Nil(t, st.current)

	// finalizing twice must not duplicate the step
	st.finalizeStep()
	assert.Len(t, st.steps, 1)
}

func TestOpenStepResetsExchange(t *testing.T) {
	st := withResponse()
	applyLog(st, "note")

	next := st.openStep("When", "next")

	assert.Equal(t, 2, next.Line)
	assert.Equal(t, output.StatusPassed, next.Status)
	assert.Nil(t, st.request)
	assert.Nil(t, st.response)
	assert.Nil(t, st.logs)
}

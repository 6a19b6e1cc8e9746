package parser

import (
	"github.com/zinc-sig/kaas/internal/output"
)

// state accumulates steps during a single forward pass over console lines.
// At most one request and one response are open at a time, and both belong
// to the open step.
type state struct {
	current  *output.Step
	logs     []string
	request  *output.HTTPRequest
	response *output.HTTPResponse
	steps    []output.Step
}

func newState() *state {
	return &state{steps: []output.Step{}}
}

// finalizeStep pushes the open step, if any, with whatever logs and HTTP
// exchange were collected for it. Steps are never revisited afterwards.
func (st *state) finalizeStep() {
	if st.current == nil {
		return
	}

	step := *st.current
	if len(st.logs) > 0 {
		step.Logs = st.logs
	}
	if st.request != nil {
		step.Request = st.request
	}
	if st.response != nil {
		step.Response = st.response
	}

	st.steps = append(st.steps, step)
	st.current = nil
}

// openStep finalizes the previous step and starts a new one, clearing the
// per-step accumulators.
func (st *state) openStep(keyword, text string) *output.Step {
	st.finalizeStep()

	st.current = &output.Step{
		Line:    len(st.steps) + 1,
		Keyword: keyword,
		Text:    text,
		Status:  output.StatusPassed,
	}
	st.logs = nil
	st.request = nil
	st.response = nil
	return st.current
}

func (st *state) setStatus(status string) {
	if st.current != nil {
		st.current.Status = status
	}
}

// fail marks the open step failed. The first failure line sticks.
func (st *state) fail(line string) {
	if st.current == nil {
		return
	}
	st.current.Status = output.StatusFailed
	if st.current.Error == "" {
		st.current.Error = line
	}
}

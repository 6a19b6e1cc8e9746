package parser

import (
	"encoding/json"
	"errors"
	"regexp"
	"strconv"
	"strings"

	"github.com/zinc-sig/kaas/internal/output"
)

var (
	stepRegex         = regexp.MustCompile(`(?i)^(Given|When|Then|And|But)\s+(.+)`)
	requestRegex      = regexp.MustCompile(`^>\s*(GET|POST|PUT|DELETE|PATCH)\s+(.+)`)
	responseRegex     = regexp.MustCompile(`^<\s*(\d+)`)
	responseTimeRegex = regexp.MustCompile(`response time in milliseconds:\s*(\d+)`)
	headerRegex       = regexp.MustCompile(`^[><]\s*([^:]+):\s*(.+)`)
)

// Rule names, in evaluation order
const (
	ruleStep     = "step"
	rulePass     = "pass"
	ruleFail     = "fail"
	ruleSkip     = "skip"
	ruleRequest  = "request"
	ruleResponse = "response"
	ruleTiming   = "timing"
	ruleHeader   = "header"
	ruleJSON     = "json"
	ruleLog      = "log"
)

// rule consumes a line when apply returns true. Rules that decline let the
// line fall through to the next one.
type rule struct {
	name  string
	apply func(st *state, line string) bool
}

// rules is evaluated top to bottom and the first rule that consumes a line
// wins. The pass, fail and skip indicators are plain substring checks, so
// their order decides lines like "0 passed, 1 failed".
var rules = []rule{
	{ruleStep, applyStep},
	{rulePass, applyPass},
	{ruleFail, applyFail},
	{ruleSkip, applySkip},
	{ruleRequest, applyRequest},
	{ruleResponse, applyResponse},
	{ruleTiming, applyTiming},
	{ruleHeader, applyHeader},
	{ruleJSON, applyJSON},
	{ruleLog, applyLog},
}

// classify runs line through the rules and returns the name of the rule
// that consumed it.
func classify(st *state, line string) string {
	for _, r := range rules {
		if r.apply(st, line) {
			return r.name
		}
	}
	return ruleLog
}

func applyStep(st *state, line string) bool {
	m := stepRegex.FindStringSubmatch(line)
	if m == nil {
		return false
	}

	step := st.openStep(m[1], m[2])
	if strings.Contains(line, "skipped") {
		step.Status = output.StatusSkipped
	}
	return true
}

func applyPass(st *state, line string) bool {
	if !strings.Contains(line, "✓") && !strings.Contains(line, "passed") {
		return false
	}
	st.setStatus(output.StatusPassed)
	return true
}

func applyFail(st *state, line string) bool {
	// "failed" also covers Karate's "match failed" lines
	if !strings.Contains(line, "×") &&
		!strings.Contains(line, "failed") &&
		!strings.Contains(line, "error") {
		return false
	}
	st.fail(line)
	return true
}

// applySkip treats any line containing a hyphen as a skip marker, so URLs,
// dates and header names with "-" end up here as well. Known limitation;
// results produced so far depend on it.
func applySkip(st *state, line string) bool {
	if !strings.Contains(line, "-") && !strings.Contains(line, "skipped") {
		return false
	}
	st.setStatus(output.StatusSkipped)
	return true
}

func applyRequest(st *state, line string) bool {
	m := requestRegex.FindStringSubmatch(line)
	if m == nil {
		return false
	}
	st.request = &output.HTTPRequest{
		Method:  m[1],
		URL:     m[2],
		Headers: map[string]string{},
	}
	return true
}

func applyResponse(st *state, line string) bool {
	m := responseRegex.FindStringSubmatch(line)
	if m == nil {
		return false
	}
	st.response = &output.HTTPResponse{
		Status:  atoi(m[1]),
		Headers: map[string]string{},
	}
	return true
}

// applyTiming only consumes the line while a response is open
func applyTiming(st *state, line string) bool {
	if st.response == nil {
		return false
	}
	m := responseTimeRegex.FindStringSubmatch(line)
	if m == nil {
		return false
	}
	// oversized values saturate at math.MaxInt64
	ms, err := strconv.ParseInt(m[1], 10, 64)
	if err != nil && !errors.Is(err, strconv.ErrRange) {
		return false
	}
	st.response.Time = &ms
	return true
}

// applyHeader consumes any header-shaped line, attributed or not
func applyHeader(st *state, line string) bool {
	m := headerRegex.FindStringSubmatch(line)
	if m == nil {
		return false
	}

	name := strings.TrimSpace(m[1])
	value := strings.TrimSpace(m[2])
	switch {
	case line[0] == '>' && st.request != nil:
		st.request.Headers[name] = value
	case line[0] == '<' && st.response != nil:
		st.response.Headers[name] = value
	}
	return true
}

// applyJSON attaches a strict JSON line to the open response, else the
// open request. Invalid JSON falls through to the log.
func applyJSON(st *state, line string) bool {
	if !strings.HasPrefix(line, "{") && !strings.HasPrefix(line, "[") {
		return false
	}
	if !json.Valid([]byte(line)) {
		return false
	}

	body := json.RawMessage(line)
	switch {
	case st.response != nil:
		st.response.Body = body
	case st.request != nil:
		st.request.Body = body
	}
	return true
}

func applyLog(st *state, line string) bool {
	st.logs = append(st.logs, line)
	return true
}

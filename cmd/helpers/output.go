package helpers

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/zinc-sig/kaas/internal/output"
)

// Output formats
const (
	FormatJSON  = "json"
	FormatTable = "table"
)

const maxCellWidth = 80

// ValidateFormat rejects unknown --format values
func ValidateFormat(format string) error {
	switch format {
	case FormatJSON, FormatTable:
		return nil
	default:
		return fmt.Errorf("invalid format %q: expected %s or %s", format, FormatJSON, FormatTable)
	}
}

// OutputJSON marshals and prints v as one line of JSON
func OutputJSON(w io.Writer, v any) error {
	jsonOutput, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to marshal JSON output: %w", err)
	}

	_, err = fmt.Fprintln(w, string(jsonOutput))
	return err
}

// WriteResponse prints an execution response in the requested format
func WriteResponse(w io.Writer, resp *output.ExecutionResponse, format string) error {
	if format != FormatTable {
		return OutputJSON(w, resp)
	}

	summary := resp.Summary
	if summary == nil {
		summary = output.Summarize(resp.Output, resp.Success)
	}

	t := newTable(w)
	t.SetTitle("Execution %s", resp.ExecutionID)
	t.AppendHeader(table.Row{"LINE", "STEP", "STATUS", "ERROR"})
	for _, step := range resp.Output.Steps {
		t.AppendRow(table.Row{
			step.Line,
			truncate(step.Keyword + " " + step.Text),
			colorStatus(step.Status),
			truncate(step.Error),
		})
	}
	t.AppendFooter(table.Row{
		"",
		fmt.Sprintf("scenarios: %d | passed: %d | failed: %d", summary.Scenarios, summary.Passed, summary.Failed),
		colorStatus(summary.Status),
		fmt.Sprintf("%.2f%% in %.0f ms", summary.PassRate, summary.ElapsedMillis),
	})
	t.Render()

	if len(resp.Output.Steps) == 0 && !resp.Success {
		_, err := fmt.Fprintln(w, strings.TrimSpace(resp.RawOutput))
		return err
	}
	return nil
}

// WriteVersions prints the engine versions in the requested format
func WriteVersions(w io.Writer, v output.Versions, format string) error {
	if format != FormatTable {
		return OutputJSON(w, v)
	}

	t := newTable(w)
	t.AppendHeader(table.Row{"COMPONENT", "VERSION"})
	t.AppendRow(table.Row{"karate", v.Karate})
	t.AppendRow(table.Row{"java", v.Java})
	t.Render()
	return nil
}

func newTable(w io.Writer) table.Writer {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleRounded)
	t.Style().Format.Footer = text.FormatDefault
	return t
}

func colorStatus(status string) string {
	switch status {
	case output.StatusPassed:
		return text.FgGreen.Sprint(status)
	case output.StatusFailed, output.SummaryError:
		return text.FgRed.Sprint(status)
	default:
		return text.FgHiBlack.Sprint(status)
	}
}

func truncate(s string) string {
	s = strings.TrimSpace(strings.ReplaceAll(s, "\n", " "))
	if len(s) > maxCellWidth {
		return s[:maxCellWidth-3] + "..."
	}
	return s
}

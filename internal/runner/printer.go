package runner

import (
	"fmt"
	"io"
	"sort"
	"strings"
)

const (
	bannerLine = "========================================"
	ruleLine   = "----------------------------------------"
)

// ExecutionDetails describes one feature run for the verbose banner
type ExecutionDetails struct {
	Feature string
	Config  *Config
	Options Options
}

// PrintPreExecution prints what is about to run
func PrintPreExecution(w io.Writer, details *ExecutionDetails) {
	header := "Karate Execution Details"
	if details.Config.DryRun {
		header = "Karate Execution Details (DRY RUN)"
	}

	fmt.Fprintln(w, bannerLine)
	fmt.Fprintln(w, header)
	fmt.Fprintln(w, bannerLine)
	fmt.Fprintf(w, "Command:  %s\n", FormatCommand(details.Config.Command, details.Config.Args))
	fmt.Fprintf(w, "Feature:  %s\n", details.Feature)
	if details.Options.ConfigDir != "" {
		fmt.Fprintf(w, "Config:   %s\n", details.Options.ConfigDir)
	}
	if details.Options.Threads > 1 {
		fmt.Fprintf(w, "Threads:  %d\n", details.Options.Threads)
	}
	if details.Options.Tags != "" {
		fmt.Fprintf(w, "Tags:     %s\n", details.Options.Tags)
	}
	if len(details.Options.Env) > 0 {
		keys := make([]string, 0, len(details.Options.Env))
		for k := range details.Options.Env {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		fmt.Fprintf(w, "Env:      %s\n", strings.Join(keys, ", "))
	}
	if details.Config.Timeout > 0 {
		fmt.Fprintf(w, "Timeout:  %s\n", details.Config.Timeout)
	}
	fmt.Fprintln(w, ruleLine)

	if details.Config.DryRun {
		fmt.Fprintln(w, "[DRY RUN] Karate would be executed here")
	} else {
		fmt.Fprintln(w, "Karate Output:")
	}
	fmt.Fprintln(w, ruleLine)
}

// PrintPostExecution prints how the run ended
func PrintPostExecution(w io.Writer, result *Result, dryRun bool) {
	fmt.Fprintln(w, ruleLine)
	if dryRun {
		fmt.Fprintln(w, "Execution Results (DRY RUN - Simulated):")
	} else {
		fmt.Fprintln(w, "Execution Results:")
	}
	fmt.Fprintln(w, ruleLine)
	fmt.Fprintf(w, "Status:         %s\n", result.Status)
	fmt.Fprintf(w, "Exit Code:      %d\n", result.ExitCode)
	fmt.Fprintf(w, "Execution Time: %d ms\n", result.ExecutionTime)
	fmt.Fprintln(w, bannerLine)
}

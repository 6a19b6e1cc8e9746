package runner

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"syscall"
	"time"
)

// Status represents the execution status of a command
type Status string

const (
	StatusSuccess Status = "success"
	StatusFailed  Status = "failed"
	StatusTimeout Status = "timeout"
)

const waitDelay = 2 * time.Second

type Config struct {
	Command    string
	Args       []string
	Dir        string
	Env        []string // full environment; nil inherits the current process
	StdoutFile string   // optional copy of stdout on disk
	StderrFile string   // optional copy of stderr on disk
	Verbose    bool     // mirror stderr to the terminal
	Timeout    time.Duration
	DryRun     bool
}

type Result struct {
	Command       string
	Status        Status
	ExitCode      int
	ExecutionTime int64 // milliseconds
	Stdout        string
	Stderr        string
}

// Output returns stdout, or stderr when stdout is empty
func (r *Result) Output() string {
	if strings.TrimSpace(r.Stdout) != "" {
		return r.Stdout
	}
	return r.Stderr
}

// Execute runs the command and captures its output. A non-zero exit is not
// an error; only failing to start the command is.
func Execute(ctx context.Context, config *Config) (*Result, error) {
	fullCommand := FormatCommand(config.Command, config.Args)

	if config.DryRun {
		return &Result{
			Command: fullCommand,
			Status:  StatusSuccess,
		}, nil
	}

	if config.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, config.Timeout)
		defer cancel()
	}

	cmd := exec.CommandContext(ctx, config.Command, config.Args...)
	cmd.Dir = config.Dir
	cmd.Env = config.Env
	// the JVM may leave children holding the output pipes after a kill
	cmd.WaitDelay = waitDelay

	var stdout, stderr bytes.Buffer
	stdoutWriters := []io.Writer{&stdout}
	stderrWriters := []io.Writer{&stderr}

	if config.StdoutFile != "" {
		f, err := createOutputFile(config.StdoutFile)
		if err != nil {
			return nil, err
		}
		defer func() { _ = f.Close() }()
		stdoutWriters = append(stdoutWriters, f)
	}
	if config.StderrFile != "" {
		f, err := createOutputFile(config.StderrFile)
		if err != nil {
			return nil, err
		}
		defer func() { _ = f.Close() }()
		stderrWriters = append(stderrWriters, f)
	}
	if config.Verbose {
		stderrWriters = append(stderrWriters, os.Stderr)
	}

	cmd.Stdout = io.MultiWriter(stdoutWriters...)
	cmd.Stderr = io.MultiWriter(stderrWriters...)

	startTime := time.Now()
	err := cmd.Run()
	executionTime := time.Since(startTime).Milliseconds()

	result := &Result{
		Command:       fullCommand,
		Status:        StatusSuccess,
		ExecutionTime: executionTime,
		Stdout:        stdout.String(),
		Stderr:        stderr.String(),
	}

	if errors.Is(ctx.Err(), context.DeadlineExceeded) {
		result.Status = StatusTimeout
		result.ExitCode = -1
		return result, nil
	}

	if err != nil {
		var exitError *exec.ExitError
		if !errors.As(err, &exitError) {
			return nil, fmt.Errorf("failed to start command: %w", err)
		}
		result.Status = StatusFailed
		result.ExitCode = 1
		if status, ok := exitError.Sys().(syscall.WaitStatus); ok && status.ExitStatus() > 0 {
			result.ExitCode = status.ExitStatus()
		}
	}

	return result, nil
}

// FormatCommand renders a command line for display, quoting arguments
// that contain whitespace.
func FormatCommand(command string, args []string) string {
	parts := make([]string, 0, len(args)+1)
	parts = append(parts, command)
	for _, arg := range args {
		if arg == "" || strings.ContainsAny(arg, " \t\n") {
			arg = fmt.Sprintf("%q", arg)
		}
		parts = append(parts, arg)
	}
	return strings.Join(parts, " ")
}

func createOutputFile(path string) (*os.File, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create directory for %s: %w", path, err)
		}
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("failed to create output file %s: %w", path, err)
	}
	return f, nil
}

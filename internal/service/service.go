// Package service runs Karate features and turns their console output into
// execution responses.
package service

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/singleflight"

	contextparser "github.com/zinc-sig/kaas/internal/context"
	"github.com/zinc-sig/kaas/internal/output"
	"github.com/zinc-sig/kaas/internal/parser"
	"github.com/zinc-sig/kaas/internal/runner"
	"github.com/zinc-sig/kaas/internal/script"
	"github.com/zinc-sig/kaas/internal/upload"
	"github.com/zinc-sig/kaas/internal/workspace"
)

const unknownError = "Unknown error"

// Options configures a Service. Only Engine is required.
type Options struct {
	Engine          runner.Engine
	Timeout         time.Duration
	WorkDir         string         // parent of the per-run temp dirs
	Defaults        map[string]any // karate config applied under each request's config
	FallbackVersion string
	VersionTTL      time.Duration

	// CLI mode
	DryRun  bool
	Verbose bool
	Printer io.Writer // receives execution banners when set

	Runner   CommandRunner
	Notifier Notifier
	Archiver Archiver
	Logger   *slog.Logger
	Now      func() time.Time
	NewID    func() string
}

type Service struct {
	opts   Options
	logger *slog.Logger

	versionGroup singleflight.Group
	versionMu    sync.Mutex
	versions     *output.Versions
	versionsAt   time.Time
}

// New creates a Service, filling unset collaborators with defaults
func New(opts Options) *Service {
	if opts.Runner == nil {
		opts.Runner = ExecRunner{}
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.NewID == nil {
		opts.NewID = NewExecutionID
	}
	if opts.FallbackVersion == "" {
		opts.FallbackVersion = runner.DefaultKarateVersion
	}
	return &Service{
		opts:   opts,
		logger: opts.Logger.With("component", "service"),
	}
}

// NewExecutionID returns the first 8 characters of a random UUID
func NewExecutionID() string {
	return uuid.NewString()[:8]
}

// Execute runs req.Feature and reports the outcome. It never fails: errors
// end up in the response's RawOutput with Success false.
func (s *Service) Execute(ctx context.Context, req output.ExecuteRequest) *output.ExecutionResponse {
	id := s.opts.NewID()
	log := s.logger.With("execution_id", id)
	start := s.opts.Now()

	ws := workspace.New(s.opts.WorkDir)
	defer func() {
		log.Debug("cleaning up workspace", "dirs", ws.Dirs())
		if err := ws.Cleanup(); err != nil {
			log.Warn("failed to clean up workspace", "error", err)
		}
	}()

	config := contextparser.MergeDeep(s.opts.Defaults, req.Config)
	opts, resp := s.run(ctx, log, ws, req.Feature, config)
	resp.ExecutionID = id

	s.enrich(resp, req.Feature, opts.Tags)

	log.Info("execution finished",
		"success", resp.Success,
		"scenarios", resp.Output.Scenarios.Total,
		"failed", resp.Output.Scenarios.Failed,
		"duration", s.opts.Now().Sub(start))

	s.archive(ctx, log, resp, req.Feature)
	s.notify(ctx, log, resp)
	return resp
}

// run writes the workspace files, runs the engine and interprets the result
func (s *Service) run(ctx context.Context, log *slog.Logger, ws *workspace.Workspace, feature string, config map[string]any) (runner.Options, *output.ExecutionResponse) {
	opts, err := runner.OptionsFromConfig(config)
	if err != nil {
		return opts, failure(feature, err.Error())
	}
	if err := script.ValidateTags(opts.Tags); err != nil {
		return opts, failure(feature, err.Error())
	}
	opts.Timeout = s.opts.Timeout
	opts.Verbose = s.opts.Verbose

	featurePath, err := ws.WriteFeature(feature)
	if err != nil {
		return opts, failure(feature, err.Error())
	}
	if len(config) > 0 {
		dir, err := ws.WriteConfig(config)
		if err != nil {
			return opts, failure(feature, err.Error())
		}
		opts.ConfigDir = dir
	}

	cmd := s.opts.Engine.Command(featurePath, opts)
	cmd.DryRun = s.opts.DryRun
	if s.opts.Printer != nil {
		runner.PrintPreExecution(s.opts.Printer, &runner.ExecutionDetails{Feature: featurePath, Config: cmd, Options: opts})
	}

	log.Debug("running karate", "command", runner.FormatCommand(cmd.Command, cmd.Args))
	result, err := s.opts.Runner.Run(ctx, cmd)
	if err != nil {
		log.Error("failed to run karate", "error", err)
	} else if s.opts.Printer != nil {
		runner.PrintPostExecution(s.opts.Printer, result, s.opts.DryRun)
	}

	return opts, interpret(feature, result, err)
}

// interpret maps a finished run to a response. A non-zero exit still
// yields a parsed result when the output carries Karate's summary.
func interpret(feature string, result *runner.Result, runErr error) *output.ExecutionResponse {
	if runErr == nil && result.Status == runner.StatusSuccess {
		parsed := parser.Parse(result.Stdout, feature)
		return &output.ExecutionResponse{
			Success:   parsed.Success(),
			Output:    parsed,
			RawOutput: result.Stdout,
		}
	}

	if runErr == nil {
		text := result.Output()
		if parser.HasResults(text) {
			return &output.ExecutionResponse{
				Success:   false,
				Output:    parser.Parse(text, feature),
				RawOutput: text,
			}
		}
	}

	return failure(feature, fallbackOutput(result, runErr))
}

// fallbackOutput picks stderr, then stdout, then the error message
func fallbackOutput(result *runner.Result, runErr error) string {
	if result != nil {
		if strings.TrimSpace(result.Stderr) != "" {
			return result.Stderr
		}
		if strings.TrimSpace(result.Stdout) != "" {
			return result.Stdout
		}
	}
	if runErr != nil {
		return runErr.Error()
	}
	if result != nil {
		switch result.Status {
		case runner.StatusTimeout:
			return fmt.Sprintf("Command timed out: %s", result.Command)
		case runner.StatusFailed:
			return fmt.Sprintf("Command failed with exit code %d: %s", result.ExitCode, result.Command)
		}
	}
	return unknownError
}

func failure(feature, rawOutput string) *output.ExecutionResponse {
	if rawOutput == "" {
		rawOutput = unknownError
	}
	return &output.ExecutionResponse{
		Success:   false,
		Output:    output.NewResult(feature),
		RawOutput: rawOutput,
	}
}

// Parse builds a response from console text captured elsewhere
func (s *Service) Parse(req output.ParseRequest) *output.ExecutionResponse {
	parsed := parser.Parse(req.ConsoleText, req.Feature)
	resp := &output.ExecutionResponse{
		Success:     parser.HasResults(req.ConsoleText) && parsed.Success(),
		Output:      parsed,
		RawOutput:   req.ConsoleText,
		ExecutionID: s.opts.NewID(),
	}
	s.enrich(resp, req.Feature, "")
	return resp
}

// enrich attaches the script outline, failed lines and summary
func (s *Service) enrich(resp *output.ExecutionResponse, feature, tags string) {
	var names []string
	if strings.TrimSpace(feature) != "" {
		outline, err := script.Outline(feature, resp.Output.Steps, tags)
		if err != nil {
			s.logger.Debug("feature outline unavailable", "execution_id", resp.ExecutionID, "error", err)
		} else {
			resp.Outline = outline
			names = script.ScenarioNames(outline)
		}
		resp.FailedLines = script.FailedLines(feature, resp.Output.Steps)
	}

	resp.Summary = output.Summarize(resp.Output, resp.Success)
	resp.Summary.ScenarioNames = names
	resp.Summary.Tags = script.Tags(feature)
}

func (s *Service) archive(ctx context.Context, log *slog.Logger, resp *output.ExecutionResponse, feature string) {
	if s.opts.Archiver == nil || s.opts.DryRun {
		return
	}

	result, err := json.MarshalIndent(resp, "", "  ")
	if err != nil {
		log.Warn("failed to marshal result for archive", "error", err)
		return
	}

	remotes, err := s.opts.Archiver.Archive(ctx, resp.ExecutionID, []upload.Artifact{
		{Name: upload.RawOutputName, Data: []byte(resp.RawOutput)},
		{Name: upload.ResultName, Data: result},
		{Name: upload.FeatureName, Data: []byte(feature)},
	})
	if err != nil {
		log.Warn("failed to archive execution", "error", err)
		return
	}
	log.Debug("execution archived", "objects", remotes)
}

func (s *Service) notify(ctx context.Context, log *slog.Logger, resp *output.ExecutionResponse) {
	if s.opts.Notifier == nil || s.opts.DryRun {
		return
	}

	if err := s.opts.Notifier.Send(ctx, resp); err != nil {
		log.Warn("failed to send webhook", "error", err)
		resp.WebhookError = err.Error()
		return
	}
	resp.WebhookSent = true
}

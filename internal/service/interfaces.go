//go:generate mockgen -source=interfaces.go -destination=interface_mock.go -package=service
package service

import (
	"context"

	"github.com/zinc-sig/kaas/internal/runner"
	"github.com/zinc-sig/kaas/internal/upload"
)

type (
	// CommandRunner runs one subprocess to completion
	CommandRunner interface {
		Run(ctx context.Context, config *runner.Config) (*runner.Result, error)
	}
	// Notifier delivers an execution response to an external endpoint
	Notifier interface {
		Send(ctx context.Context, payload any) error
	}
	// Archiver stores the artifacts of one execution
	Archiver interface {
		Archive(ctx context.Context, executionID string, artifacts []upload.Artifact) ([]string, error)
	}
)

// ExecRunner runs commands as local processes
type ExecRunner struct{}

func (ExecRunner) Run(ctx context.Context, config *runner.Config) (*runner.Result, error) {
	return runner.Execute(ctx, config)
}

// ProviderArchiver archives through an upload provider
type ProviderArchiver struct {
	Provider upload.Provider
}

func (a ProviderArchiver) Archive(ctx context.Context, executionID string, artifacts []upload.Artifact) ([]string, error) {
	return upload.Archive(ctx, a.Provider, executionID, artifacts)
}

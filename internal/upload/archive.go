package upload

import (
	"bytes"
	"context"
	"fmt"
	"path"

	"golang.org/x/sync/errgroup"
)

// Artifact names stored for every execution
const (
	RawOutputName = "rawOutput.txt"
	ResultName    = "result.json"
	FeatureName   = "temp.feature"
)

const maxParallelUploads = 3

// Artifact is one in-memory file to archive
type Artifact struct {
	Name string
	Data []byte
}

// Archive uploads artifacts below <executionID>/ and returns the remote
// paths in artifact order. Empty artifacts are skipped.
func Archive(ctx context.Context, provider Provider, executionID string, artifacts []Artifact) ([]string, error) {
	if provider == nil {
		return nil, nil
	}
	if executionID == "" {
		return nil, fmt.Errorf("execution id is required for archiving")
	}

	remotes := make([]string, len(artifacts))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(maxParallelUploads)

	for i, artifact := range artifacts {
		if len(artifact.Data) == 0 {
			continue
		}
		remote := path.Join(executionID, artifact.Name)
		remotes[i] = remote
		g.Go(func() error {
			if err := provider.Upload(ctx, bytes.NewReader(artifact.Data), remote); err != nil {
				return fmt.Errorf("failed to upload %s: %w", remote, err)
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	uploaded := remotes[:0]
	for _, r := range remotes {
		if r != "" {
			uploaded = append(uploaded, r)
		}
	}
	return uploaded, nil
}

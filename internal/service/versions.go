package service

import (
	"context"

	"golang.org/x/sync/errgroup"

	"github.com/zinc-sig/kaas/internal/output"
	"github.com/zinc-sig/kaas/internal/runner"
)

const versionsKey = "versions"

// Versions reports the Karate and Java versions. Lookups are cached for
// VersionTTL and concurrent callers share a single lookup.
func (s *Service) Versions(ctx context.Context) output.Versions {
	if v, ok := s.cachedVersions(); ok {
		return v
	}

	v, _, _ := s.versionGroup.Do(versionsKey, func() (any, error) {
		versions := s.lookupVersions(ctx)

		s.versionMu.Lock()
		s.versions = &versions
		s.versionsAt = s.opts.Now()
		s.versionMu.Unlock()

		return versions, nil
	})
	return v.(output.Versions)
}

func (s *Service) cachedVersions() (output.Versions, bool) {
	s.versionMu.Lock()
	defer s.versionMu.Unlock()

	if s.versions == nil || s.opts.VersionTTL <= 0 {
		return output.Versions{}, false
	}
	if s.opts.Now().Sub(s.versionsAt) >= s.opts.VersionTTL {
		return output.Versions{}, false
	}
	return *s.versions, true
}

func (s *Service) lookupVersions(ctx context.Context) output.Versions {
	versions := output.Versions{
		Java:   runner.ParseJavaVersion(""),
		Karate: s.opts.FallbackVersion,
	}

	var g errgroup.Group
	g.Go(func() error {
		// java -version prints to stderr
		if text, ok := s.capture(ctx, s.opts.Engine.JavaVersionCommand()); ok {
			versions.Java = runner.ParseJavaVersion(text)
		}
		return nil
	})
	g.Go(func() error {
		if text, ok := s.capture(ctx, s.opts.Engine.KarateVersionCommand()); ok {
			versions.Karate = runner.ParseKarateVersion(text, s.opts.FallbackVersion)
		}
		return nil
	})
	_ = g.Wait()

	s.logger.Debug("resolved versions", "java", versions.Java, "karate", versions.Karate)
	return versions
}

// capture returns stdout followed by stderr of cmd, whatever its exit code
func (s *Service) capture(ctx context.Context, cmd *runner.Config) (string, bool) {
	result, err := s.opts.Runner.Run(ctx, cmd)
	if err != nil {
		s.logger.Warn("version lookup failed", "command", runner.FormatCommand(cmd.Command, cmd.Args), "error", err)
		return "", false
	}
	return result.Stdout + "\n" + result.Stderr, true
}

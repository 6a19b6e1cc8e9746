package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"sort"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/zinc-sig/kaas/cmd/config"
	"github.com/zinc-sig/kaas/cmd/helpers"
	"github.com/zinc-sig/kaas/internal/output"
	"github.com/zinc-sig/kaas/internal/runner"
	"github.com/zinc-sig/kaas/internal/service"
	"github.com/zinc-sig/kaas/internal/watch"
	"github.com/zinc-sig/kaas/internal/webhook"
)

var errFeaturesFailed = errors.New("one or more features failed")

var (
	runKarate  config.KarateConfig
	runEngine  config.EngineConfig
	runCommon  config.CommonFlags
	runWebhook config.WebhookConfig
	runUpload  config.UploadConfig
	runWatch   bool
	runStrict  bool

	runWebhookConfig *webhook.Config
	runRetryConfig   *webhook.RetryConfig
)

var runCmd = &cobra.Command{
	Use:   "run [flags] <feature|dir>...",
	Short: "Run feature files locally with structured output",
	Long: `Run one or more Karate feature files through the local Karate jar and print
one result per feature. Directories are searched for *.feature files.

The Karate config is built from KAAS_KARATE_CONFIG* environment variables,
--config-file, --config and --config-kv, in increasing precedence.
--threads, --tags and --env are applied last.`,
	Example: `  kaas run features/posts.feature
  kaas run --tags '@smoke' --threads 4 features/
  kaas run --config-kv baseUrl=http://localhost:8080 --format table posts.feature
  kaas run --watch --format table posts.feature
  kaas run --dry-run -v posts.feature`,
	Args: cobra.MinimumNArgs(1),
	PreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		if runCommon.Timeout, err = helpers.ParseTimeout(runCommon.TimeoutStr); err != nil {
			return err
		}
		if err := helpers.ValidateFormat(runCommon.Format); err != nil {
			return err
		}
		runWebhookConfig, runRetryConfig, err = helpers.ParseWebhookConfigToInternal(&runWebhook)
		return err
	},
	RunE: runCommand,
}

func runCommand(cmd *cobra.Command, args []string) error {
	features, err := helpers.ExpandFeatures(args)
	if err != nil {
		return err
	}

	karateConf, err := helpers.BuildKarateConfig(&runKarate)
	if err != nil {
		return err
	}

	stderr := cmd.ErrOrStderr()
	showBanners := runCommon.Verbose || runCommon.DryRun
	if showBanners {
		helpers.PrintConfigInfo(stderr, karateConf, runCommon.DryRun)
	}

	ctx := cmd.Context()
	if runWatch {
		var stop context.CancelFunc
		ctx, stop = signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
		defer stop()
	}

	logger := slog.Default()
	opts := service.Options{
		Engine:   runner.Engine{Java: runEngine.Java, Jar: runEngine.Jar},
		Timeout:  runCommon.Timeout,
		WorkDir:  runEngine.WorkDir,
		DryRun:   runCommon.DryRun,
		Verbose:  runCommon.Verbose,
		Notifier: helpers.NewNotifier(runWebhookConfig, runRetryConfig, logger),
		Logger:   logger,
	}
	if showBanners {
		opts.Printer = stderr
	}

	if runUpload.Provider != "" && !runCommon.DryRun {
		uploadConf, err := helpers.BuildUploadConfig(&runUpload)
		if err != nil {
			return err
		}
		archiver, provider, err := helpers.SetupArchiver(ctx, runUpload.Provider, uploadConf)
		if err != nil {
			return err
		}
		if runCommon.Verbose {
			helpers.PrintUploadInfo(stderr, provider, uploadConf)
		}
		opts.Archiver = archiver
	}

	svc := service.New(opts)
	out := cmd.OutOrStdout()

	ok, err := runFeatures(ctx, svc, out, features, karateConf)
	if err != nil {
		return err
	}

	if runWatch {
		return watch.Watch(ctx, watch.Config{
			Files:  features,
			Logger: logger,
			OnChange: func(ctx context.Context, changed []string) {
				sort.Strings(changed)
				if _, err := runFeatures(ctx, svc, out, changed, karateConf); err != nil {
					logger.Error("failed to re-run features", "error", err)
				}
			},
		})
	}

	if runStrict && !ok {
		return errFeaturesFailed
	}
	return nil
}

// runFeatures executes each feature in order and prints its result. It
// reports whether every feature succeeded.
func runFeatures(ctx context.Context, svc *service.Service, w io.Writer, features []string, karateConf map[string]any) (bool, error) {
	allPassed := true
	for _, path := range features {
		content, err := helpers.ReadInput(path, nil)
		if err != nil {
			return false, err
		}

		resp := svc.Execute(ctx, output.ExecuteRequest{Feature: content, Config: karateConf})
		if !resp.Success {
			allPassed = false
		}
		if err := helpers.WriteResponse(w, resp, runCommon.Format); err != nil {
			return false, fmt.Errorf("failed to write result for %s: %w", path, err)
		}
	}
	return allPassed, nil
}

func init() {
	helpers.SetupKarateFlags(runCmd, &runKarate)
	helpers.SetupEngineFlags(runCmd, &runEngine)
	helpers.SetupCommonFlags(runCmd, &runCommon)
	helpers.SetupWebhookFlags(runCmd, &runWebhook)
	helpers.SetupUploadFlags(runCmd, &runUpload)

	runCmd.Flags().BoolVarP(&runWatch, "watch", "w", false, "Re-run features when they change")
	runCmd.Flags().BoolVar(&runStrict, "strict", false, "Exit with status 1 when any feature fails")
}

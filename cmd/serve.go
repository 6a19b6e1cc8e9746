package cmd

import (
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/zinc-sig/kaas/cmd/helpers"
	appconfig "github.com/zinc-sig/kaas/internal/config"
	"github.com/zinc-sig/kaas/internal/runner"
	"github.com/zinc-sig/kaas/internal/server"
	"github.com/zinc-sig/kaas/internal/service"
)

var (
	serveConfigFile string
	serveAddr       string
	serveJava       string
	serveJar        string
	serveTimeoutStr string
)

var serveCmd = &cobra.Command{
	Use:   "serve [--config-file kaas.yaml]",
	Short: "Serve the Karate execution HTTP API",
	Long: `Serve the HTTP API:

  POST /karate/execute   run a feature and return the parsed result
  POST /karate/parse     parse console output captured elsewhere
  GET  /karate/versions  Karate and Java versions
  GET  /karate/health    liveness probe
  GET  /karate/info      service banner

Settings come from the YAML config file; flags override it. The PORT
environment variable overrides the listen port.`,
	Example: `  kaas serve
  kaas serve --config-file kaas.yaml
  kaas serve --addr 127.0.0.1:8080 --jar /opt/karate/karate.jar`,
	Args: cobra.NoArgs,
	RunE: serveCommand,
}

func serveCommand(cmd *cobra.Command, args []string) error {
	cfg, err := appconfig.Load(serveConfigFile)
	if err != nil {
		return err
	}
	if serveAddr != "" {
		cfg.Server.ListenAddr = serveAddr
	}
	if serveJava != "" {
		cfg.Engine.Java = serveJava
	}
	if serveJar != "" {
		cfg.Engine.Jar = serveJar
	}
	if serveTimeoutStr != "" {
		if cfg.Engine.Timeout, err = helpers.ParseTimeout(serveTimeoutStr); err != nil {
			return err
		}
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger := slog.Default()
	opts := service.Options{
		Engine:          runner.Engine{Java: cfg.Engine.Java, Jar: cfg.Engine.Jar},
		Timeout:         cfg.Engine.Timeout,
		WorkDir:         cfg.Engine.WorkDir,
		Defaults:        cfg.Defaults,
		FallbackVersion: cfg.Engine.FallbackVersion,
		VersionTTL:      cfg.Engine.VersionTTL,
		Logger:          logger,
	}

	webhookConfig, retryConfig, err := helpers.WebhookFromConfig(cfg.Webhook)
	if err != nil {
		return fmt.Errorf("invalid webhook config: %w", err)
	}
	opts.Notifier = helpers.NewNotifier(webhookConfig, retryConfig, logger)

	archiver, provider, err := helpers.SetupArchiver(ctx, cfg.Upload.Provider, cfg.Upload.Config)
	if err != nil {
		return err
	}
	if provider != nil {
		opts.Archiver = archiver
		logger.Info("archiving executions", "provider", provider.Name())
	}

	handler := server.NewHandler(server.Config{
		Service:      service.New(opts),
		CORSOrigins:  cfg.Server.CORSOrigins,
		MaxBodyBytes: cfg.Server.MaxBodyBytes,
		Logger:       logger,
	})
	return server.ListenAndServe(ctx, cfg.Server.ListenAddr, handler, logger)
}

func init() {
	serveCmd.Flags().StringVarP(&serveConfigFile, "config-file", "c", "", "Path to the YAML server configuration")
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "Listen address (default from config, "+appconfig.DefaultListenAddr+")")
	serveCmd.Flags().StringVar(&serveJava, "java", "", "Java executable (overrides config)")
	serveCmd.Flags().StringVar(&serveJar, "jar", "", "Path to the Karate standalone jar (overrides config)")
	serveCmd.Flags().StringVarP(&serveTimeoutStr, "timeout", "t", "", "Per-execution timeout (overrides config)")
}

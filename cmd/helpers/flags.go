package helpers

import (
	"github.com/spf13/cobra"
	"github.com/zinc-sig/kaas/cmd/config"
	appconfig "github.com/zinc-sig/kaas/internal/config"
)

// SetupKarateFlags adds the flags that make up a run's Karate config
func SetupKarateFlags(cmd *cobra.Command, cfg *config.KarateConfig) {
	cmd.Flags().StringVar(&cfg.JSON, "config", "", "Karate config as JSON string")
	cmd.Flags().StringArrayVar(&cfg.KV, "config-kv", nil, "Karate config key=value pairs (can be used multiple times)")
	cmd.Flags().StringVar(&cfg.File, "config-file", "", "Path to JSON or YAML file containing Karate config")
	cmd.Flags().IntVarP(&cfg.Threads, "threads", "T", 0, "Number of Karate threads")
	cmd.Flags().StringVar(&cfg.Tags, "tags", "", "Tag expression selecting scenarios (e.g. '@smoke and not @slow')")
	cmd.Flags().StringArrayVar(&cfg.Env, "env", nil, "Environment KEY=VALUE for the Karate process (can be used multiple times)")
}

// SetupEngineFlags adds the flags that locate java and the Karate jar
func SetupEngineFlags(cmd *cobra.Command, cfg *config.EngineConfig) {
	cmd.Flags().StringVar(&cfg.Java, "java", appconfig.DefaultJava, "Java executable")
	cmd.Flags().StringVar(&cfg.Jar, "jar", appconfig.DefaultJar, "Path to the Karate standalone jar")
	cmd.Flags().StringVar(&cfg.WorkDir, "work-dir", "", "Directory for per-run temporary files (default: system temp)")
}

// SetupUploadFlags adds upload-related flags to a command
func SetupUploadFlags(cmd *cobra.Command, cfg *config.UploadConfig) {
	cmd.Flags().StringVar(&cfg.Provider, "upload-provider", "", "Upload provider type (e.g., minio)")
	cmd.Flags().StringVar(&cfg.Config, "upload-config", "", "Upload configuration as JSON string")
	cmd.Flags().StringArrayVar(&cfg.ConfigKV, "upload-config-kv", nil, "Upload config key=value pairs (can be used multiple times)")
	cmd.Flags().StringVar(&cfg.ConfigFile, "upload-config-file", "", "Path to JSON file containing upload configuration")
}

// SetupCommonFlags adds commonly used flags to a command
func SetupCommonFlags(cmd *cobra.Command, flags *config.CommonFlags) {
	cmd.Flags().BoolVarP(&flags.Verbose, "verbose", "v", false, "Show execution banners and Karate stderr on the terminal")
	cmd.Flags().BoolVar(&flags.DryRun, "dry-run", false, "Show what would be executed without running Karate")
	cmd.Flags().StringVarP(&flags.TimeoutStr, "timeout", "t", "", "Timeout duration (e.g., 30s, 2m, 500ms)")
	SetupFormatFlag(cmd, &flags.Format)
}

// SetupFormatFlag adds the --format flag
func SetupFormatFlag(cmd *cobra.Command, format *string) {
	cmd.Flags().StringVarP(format, "format", "f", FormatJSON, "Output format: json, table")
}

// SetupWebhookFlags adds webhook-related flags to a command
func SetupWebhookFlags(cmd *cobra.Command, cfg *config.WebhookConfig) {
	// Direct configuration flags
	cmd.Flags().StringVar(&cfg.URL, "webhook-url", "", "Webhook URL to send results to")
	cmd.Flags().StringVar(&cfg.Method, "webhook-method", "POST", "HTTP method to use: GET, POST, PUT, PATCH, DELETE")
	cmd.Flags().StringVar(&cfg.AuthType, "webhook-auth-type", "none", "Authentication type: none, bearer, api-key")
	cmd.Flags().StringVar(&cfg.AuthToken, "webhook-auth-token", "", "Authentication token (use with --webhook-auth-type)")
	cmd.Flags().IntVar(&cfg.Retries, "webhook-retries", 3, "Maximum webhook retry attempts (0 = no retries)")
	cmd.Flags().StringVar(&cfg.RetryDelay, "webhook-retry-delay", "1s", "Initial delay between webhook retries")
	cmd.Flags().StringVar(&cfg.Timeout, "webhook-timeout", "30s", "Total timeout for webhook including retries")

	// Alternative configuration methods
	cmd.Flags().StringVar(&cfg.Config, "webhook-config", "", "Webhook configuration as JSON string")
	cmd.Flags().StringArrayVar(&cfg.ConfigKV, "webhook-config-kv", nil, "Webhook config key=value pairs (can be used multiple times)")
	cmd.Flags().StringVar(&cfg.ConfigFile, "webhook-config-file", "", "Path to JSON file containing webhook configuration")
}

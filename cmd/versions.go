package cmd

import (
	"log/slog"

	"github.com/spf13/cobra"
	"github.com/zinc-sig/kaas/cmd/config"
	"github.com/zinc-sig/kaas/cmd/helpers"
	"github.com/zinc-sig/kaas/internal/runner"
	"github.com/zinc-sig/kaas/internal/service"
)

var (
	versionsEngine config.EngineConfig
	versionsFormat string
)

var versionsCmd = &cobra.Command{
	Use:   "versions",
	Short: "Print the Karate and Java versions",
	Example: `  kaas versions
  kaas versions --jar /opt/karate/karate.jar --format table`,
	Args: cobra.NoArgs,
	PreRunE: func(cmd *cobra.Command, args []string) error {
		return helpers.ValidateFormat(versionsFormat)
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		svc := service.New(service.Options{
			Engine: runner.Engine{Java: versionsEngine.Java, Jar: versionsEngine.Jar},
			Logger: slog.Default(),
		})
		return helpers.WriteVersions(cmd.OutOrStdout(), svc.Versions(cmd.Context()), versionsFormat)
	},
}

func init() {
	helpers.SetupEngineFlags(versionsCmd, &versionsEngine)
	helpers.SetupFormatFlag(versionsCmd, &versionsFormat)
}

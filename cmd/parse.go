package cmd

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"
	"github.com/zinc-sig/kaas/cmd/helpers"
	"github.com/zinc-sig/kaas/internal/output"
	"github.com/zinc-sig/kaas/internal/service"
)

var (
	parseInputFile  string
	parseScriptFile string
	parseFormat     string
)

var parseCmd = &cobra.Command{
	Use:   "parse -i <console.txt> [-s <feature>]",
	Short: "Parse captured Karate console output",
	Long: `Parse Karate console output captured from an earlier run and print the
structured result. Pass the feature that produced it with --script to get
the scenario outline and failed lines as well.

Use '-' as the input to read from stdin.`,
	Example: `  kaas parse -i karate.log
  kaas parse -i karate.log -s posts.feature --format table
  java -jar karate.jar posts.feature | kaas parse -i - -s posts.feature`,
	Args: cobra.NoArgs,
	PreRunE: func(cmd *cobra.Command, args []string) error {
		return helpers.ValidateFormat(parseFormat)
	},
	RunE: parseCommand,
}

func parseCommand(cmd *cobra.Command, args []string) error {
	if parseInputFile == "" {
		return fmt.Errorf("required flag 'input' not set")
	}

	consoleText, err := helpers.ReadInput(parseInputFile, cmd.InOrStdin())
	if err != nil {
		return err
	}

	var script string
	if parseScriptFile != "" {
		if script, err = helpers.ReadInput(parseScriptFile, cmd.InOrStdin()); err != nil {
			return err
		}
	}

	svc := service.New(service.Options{Logger: slog.Default()})
	resp := svc.Parse(output.ParseRequest{ConsoleText: consoleText, Feature: script})
	return helpers.WriteResponse(cmd.OutOrStdout(), resp, parseFormat)
}

func init() {
	parseCmd.Flags().StringVarP(&parseInputFile, "input", "i", "", "Console output to parse, '-' for stdin (required)")
	parseCmd.Flags().StringVarP(&parseScriptFile, "script", "s", "", "Feature file that produced the output")
	helpers.SetupFormatFlag(parseCmd, &parseFormat)

	_ = parseCmd.MarkFlagRequired("input")
}

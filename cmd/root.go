package cmd

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/schemagate/schemagate/cmd/check"
	"github.com/schemagate/schemagate/internal/logger"
	"github.com/schemagate/schemagate/internal/version"
)

var Debug bool

var RootCmd = &cobra.Command{
	Use:   "schemagate",
	Short: "Schema comparison gate for database deployments",
	Long: fmt.Sprintf(`schemagate compares two database schemas and classifies every
structural discrepancy as a blocking error or an advisory warning, so a
deployment pipeline can decide whether a change is safe to promote.

Version: %s@%s %s %s

Commands:
  check     Compare an expected schema against an actual one
  version   Show version information

Use "schemagate [command] --help" for more information about a command.`,
		version.App(), version.GetGitCommit(), version.Platform(), version.GetBuildDate()),
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		setupLogger()
	},
}

func init() {
	RootCmd.PersistentFlags().BoolVar(&Debug, "debug", false, "Enable debug logging")
	RootCmd.AddCommand(check.CheckCmd)
	RootCmd.AddCommand(VersionCmd)
}

func setupLogger() {
	level := slog.LevelInfo
	if Debug {
		level = slog.LevelDebug
	}

	opts := &slog.HandlerOptions{
		Level: level,
	}

	handler := slog.NewTextHandler(os.Stderr, opts)
	logger.SetGlobal(slog.New(handler), Debug)
}

func Execute() {
	if err := RootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/schemagate/schemagate/internal/version"
)

var VersionCmd = &cobra.Command{
	Use:   "version",
	Short: "Show version information",
	Long:  "Display the version number of schemagate",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("schemagate v%s@%s %s %s\n",
			version.App(), version.GetGitCommit(), version.Platform(), version.GetBuildDate())
	},
}

package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

var (
	DelayctlVersion, DelayctlCommit, DelayctlDate string
)

var versionCommand = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Long:  "Display version, commit hash, build date, and other build information",
	Run: func(cmd *cobra.Command, args []string) {
		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "delayctl version: %s\n", orUnknown(DelayctlVersion))
		fmt.Fprintf(out, "Commit: %s\n", orUnknown(DelayctlCommit))
		fmt.Fprintf(out, "Built: %s\n", orUnknown(DelayctlDate))
	},
}

func orUnknown(s string) string {
	if s == "" {
		return "unknown"
	}
	return s
}

func init() {
	rootCommand.AddCommand(versionCommand)
}

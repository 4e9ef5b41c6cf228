package cli

import (
	"github.com/spf13/cobra"
)

var sleepCommand = &cobra.Command{
	Use:     "sleep <duration|milliseconds>",
	GroupID: "delays",
	Short:   "Block for a fixed duration without cancellation",
	Long: `Blocks for the given duration. Unlike 'delay', the wait ignores --timeout
and is not cancelled gracefully; a signal terminates the process outright.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		d, err := parseDuration(args[0])
		if err != nil {
			return err
		}
		calc.DelaySync(d)
		return nil
	},
}

func init() {
	rootCommand.AddCommand(sleepCommand)
}

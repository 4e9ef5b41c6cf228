package cli

import (
	"github.com/spf13/cobra"
)

var rangeCommand = &cobra.Command{
	Use:     "range <min> <max>",
	GroupID: "delays",
	Short:   "Wait for a random duration within a range",
	Long: `Waits for a random whole number of milliseconds in [min, max], both ends
included. A negative min counts as zero; when max is not above min the wait
is exactly min.`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		minDelay, err := parseDuration(args[0])
		if err != nil {
			return err
		}
		maxDelay, err := parseDuration(args[1])
		if err != nil {
			return err
		}

		ctx, cancel := commandContext(cmd)
		defer cancel()
		return finish(calc.DelayRandomRange(ctx, minDelay, maxDelay))
	},
}

func init() {
	rootCommand.AddCommand(rangeCommand)
}

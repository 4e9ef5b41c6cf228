package cli

import (
	"github.com/spf13/cobra"
)

var secondsCommand = &cobra.Command{
	Use:     "seconds <seconds>",
	GroupID: "delays",
	Short:   "Wait for a fractional number of seconds",
	Long: `Waits for the given number of seconds, truncated to whole milliseconds
(e.g. 0.0019 waits 1ms). Zero, negative or NaN values return immediately.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		seconds, err := parseSeconds(args[0])
		if err != nil {
			return err
		}

		ctx, cancel := commandContext(cmd)
		defer cancel()
		return finish(calc.DelaySeconds(ctx, seconds))
	},
}

func init() {
	rootCommand.AddCommand(secondsCommand)
}

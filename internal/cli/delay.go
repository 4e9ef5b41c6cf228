package cli

import (
	"github.com/spf13/cobra"
)

var delayCommand = &cobra.Command{
	Use:     "delay <duration|milliseconds>",
	GroupID: "delays",
	Short:   "Wait for a fixed duration",
	Long: `Waits for the given duration. A bare integer is read as milliseconds,
anything else as a Go duration such as "1.5s" or "2m". Zero or negative
durations return immediately.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := commandContext(cmd)
		defer cancel()

		if ms, ok := parseMillis(args[0]); ok {
			return finish(calc.DelayMillis(ctx, ms))
		}

		d, err := parseDuration(args[0])
		if err != nil {
			return err
		}
		return finish(calc.Delay(ctx, d))
	},
}

func init() {
	rootCommand.AddCommand(delayCommand)
}

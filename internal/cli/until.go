package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

var untilCron string

var untilCommand = &cobra.Command{
	Use:     "until [timestamp]",
	GroupID: "delays",
	Short:   "Wait until a timestamp or the next cron activation",
	Long: `Waits until the given timestamp (RFC 3339, or 'YYYY-MM-DD HH:MM:SS' read as
UTC). A timestamp that has already passed returns immediately.

With --cron, waits until the next activation of a standard five-field cron
expression evaluated in UTC instead.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		target, err := resolveTarget(args, untilCron, clock.Now())
		if err != nil {
			return err
		}

		ctx, cancel := commandContext(cmd)
		defer cancel()
		return finish(calc.DelayUntil(ctx, target))
	},
}

// resolveTarget picks the wait target from exactly one of a positional
// timestamp or a cron expression.
func resolveTarget(args []string, cronExpr string, now time.Time) (time.Time, error) {
	switch {
	case len(args) == 1 && cronExpr != "":
		return time.Time{}, fmt.Errorf("%w: give either a timestamp or --cron, not both", errInvalidArgument)
	case len(args) == 1:
		return parseTarget(args[0])
	case cronExpr != "":
		return nextActivation(cronExpr, now)
	default:
		return time.Time{}, fmt.Errorf("%w: a timestamp or --cron is required", errInvalidArgument)
	}
}

func init() {
	rootCommand.AddCommand(untilCommand)
	untilCommand.Flags().StringVar(&untilCron, "cron", "", "Wait for the next activation of this cron expression (UTC)")
}

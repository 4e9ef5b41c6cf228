package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/aravindh-murugesan/delayctl-go/internal/config"
	"github.com/aravindh-murugesan/delayctl-go/internal/delay"
)

var (
	backoffFrom     int
	backoffAttempts int
)

var backoffCommand = &cobra.Command{
	Use:     "backoff",
	GroupID: "delays",
	Short:   "Wait through a sequence of exponential backoff attempts",
	Long: `Waits min(max, base * 2^attempt) for each attempt in turn, starting at
--from. Attempt 0 (or below) waits for the base. Large attempts saturate at
--max. Run with --attempts 1 and an explicit --from to wait a single step,
e.g. from a shell retry loop that tracks its own attempt counter.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if backoffAttempts < 0 {
			return fmt.Errorf("%w: --attempts must not be negative", errInvalidArgument)
		}

		ctx, cancel := commandContext(cmd)
		defer cancel()

		for i := 0; i < backoffAttempts; i++ {
			attempt := backoffFrom + i
			if err := calc.DelayWithBackoff(ctx, attempt, cfg.Backoff.Base, cfg.Backoff.Max); err != nil {
				return finish(err)
			}
		}

		logger.Debug("Backoff sequence completed",
			"from", backoffFrom,
			"attempts", backoffAttempts)
		return nil
	},
}

func init() {
	rootCommand.AddCommand(backoffCommand)
	flags := backoffCommand.Flags()
	flags.IntVar(&backoffFrom, "from", 0, "First attempt number")
	flags.IntVar(&backoffAttempts, "attempts", 1, "Number of consecutive attempts to wait through")
	flags.Duration("base", delay.DefaultBackoffBase, "Wait for attempt 0")
	flags.Duration("max", delay.DefaultBackoffMax, "Cap on any single wait")
	_ = v.BindPFlag(config.KeyBackoffBase, flags.Lookup("base"))
	_ = v.BindPFlag(config.KeyBackoffMax, flags.Lookup("max"))
}

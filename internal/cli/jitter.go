package cli

import (
	"github.com/spf13/cobra"

	"github.com/aravindh-murugesan/delayctl-go/internal/config"
	"github.com/aravindh-murugesan/delayctl-go/internal/delay"
)

var jitterCommand = &cobra.Command{
	Use:     "jitter <base>",
	GroupID: "delays",
	Short:   "Wait for a base duration plus random jitter",
	Long: `Waits for base plus a random extra of up to factor*base, in whole
milliseconds. Factors above 1 are treated as 1; a factor of 0 or less, or a
non-positive base, disables jitter. Use --seed for reproducible waits.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		base, err := parseDuration(args[0])
		if err != nil {
			return err
		}

		ctx, cancel := commandContext(cmd)
		defer cancel()
		return finish(calc.DelayWithJitter(ctx, base, cfg.Jitter.Factor))
	},
}

func init() {
	rootCommand.AddCommand(jitterCommand)
	jitterCommand.Flags().Float64("factor", delay.DefaultJitterFactor, "Maximum jitter as a fraction of the base")
	_ = v.BindPFlag(config.KeyJitterFactor, jitterCommand.Flags().Lookup("factor"))
}

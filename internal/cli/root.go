package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/aravindh-murugesan/delayctl-go/internal/config"
	"github.com/aravindh-murugesan/delayctl-go/internal/delay"
	"github.com/aravindh-murugesan/delayctl-go/internal/logging"
)

var (
	cfgFile string

	v     = viper.New()
	clock = clockwork.NewRealClock()

	// Resolved once per invocation in PersistentPreRunE.
	cfg    config.Config
	logger *slog.Logger
	calc   *delay.Calculator
)

var rootCommand = &cobra.Command{
	Use:          "delayctl",
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		// 'version' and 'help' need no configuration.
		if cmd.Name() == "version" || cmd.Name() == "help" {
			return nil
		}
		return setup(cmd)
	},
	Short: "delayctl: cancellable, logged delays for scripts and schedulers",
	Long: `delayctl waits. It offers fixed delays, blocking sleeps, jittered delays,
exponential backoff, fractional seconds, waiting until a timestamp or the next
cron activation, and random waits within a range.

Every wait is logged before it starts and, except for 'sleep', is cancelled by
SIGINT/SIGTERM or by the global --timeout.`,
}

func Execute() error {
	return rootCommand.Execute()
}

func init() {
	rootCommand.AddGroup(&cobra.Group{ID: "delays", Title: "Delays"})

	flags := rootCommand.PersistentFlags()
	flags.StringVar(&cfgFile, "config", "", "Path to a YAML, JSON or TOML config file")
	flags.String("log-level", "info", "Logging level (debug, info, warn, error)")
	flags.String("log-format", logging.FormatText, "Logging format (text, json)")
	flags.Int64("seed", 0, "Seed for reproducible random delays (0 = unseeded)")
	flags.Duration("timeout", 0, "Cancel the command after this long (0 = no limit)")

	// Flags override config file and DELAYCTL_* env vars.
	_ = v.BindPFlag(config.KeyLogLevel, flags.Lookup("log-level"))
	_ = v.BindPFlag(config.KeyLogFormat, flags.Lookup("log-format"))
	_ = v.BindPFlag(config.KeySeed, flags.Lookup("seed"))
	_ = v.BindPFlag(config.KeyTimeout, flags.Lookup("timeout"))
}

// setup loads the configuration and builds the logger and calculator shared
// by every command.
func setup(cmd *cobra.Command) error {
	loaded, err := config.Load(v, cfgFile)
	if err != nil {
		return err
	}
	cfg = loaded

	logger = logging.Setup(cmd.ErrOrStderr(), cfg.LogLevel, cfg.LogFormat).With(
		"run_id", uuid.NewString(),
		"command", cmd.Name(),
	)

	random := delay.DefaultSource()
	if cfg.Seed != 0 {
		random = delay.NewSeededSource(cfg.Seed)
	}

	calc = delay.New(
		delay.WithLogger(logger),
		delay.WithRandom(random),
		delay.WithClock(clock),
	)
	logger.Debug("Configuration loaded",
		"config_file", cfgFile,
		"seed", cfg.Seed,
		"timeout", cfg.Timeout)
	return nil
}

// commandContext is cancelled by SIGINT/SIGTERM and, when configured, by the
// global timeout.
func commandContext(cmd *cobra.Command) (context.Context, context.CancelFunc) {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	if cfg.Timeout <= 0 {
		return ctx, stop
	}

	ctx, cancel := context.WithTimeoutCause(ctx, cfg.Timeout,
		fmt.Errorf("timeout of %s reached", cfg.Timeout))
	return ctx, func() {
		cancel()
		stop()
	}
}

// finish reports a cancelled delay as a warning. The error is still returned
// so the process exits non-zero.
func finish(err error) error {
	if delay.IsCanceled(err) {
		logger.Warn("Delay cancelled before completion", "error", err)
	}
	return err
}

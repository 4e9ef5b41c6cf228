package cli

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/go-co-op/gocron-ui/server"
	"github.com/go-co-op/gocron/v2"
	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/aravindh-murugesan/delayctl-go/internal/config"
)

var daemonCommand = &cobra.Command{
	Use:   "daemon",
	Short: "Release splayed ticks on a cron schedule",
	Long: `Runs until interrupted. On every activation of the cron schedule it waits
a random splay within [splay-min, splay-max] and then logs a released tick, so
many hosts sharing one schedule do not fire in lockstep. An optional
dashboard shows the scheduled job.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		banner := fmt.Sprintf("delayctl - Daemon Mode \n\nVersion: %s\nBuild Date: %s",
			orUnknown(DelayctlVersion), orUnknown(DelayctlDate))
		fmt.Fprintln(cmd.OutOrStdout(), bannerStyle.Render(banner))

		ctx, cancel := commandContext(cmd)
		defer cancel()

		dlog := logger.With("component", "daemon")

		s, err := gocron.NewScheduler(
			gocron.WithClock(clock),
			gocron.WithLocation(time.UTC),
		)
		if err != nil {
			return fmt.Errorf("failed to create scheduler: %w", err)
		}

		// Declared first so the task closure can report the next run.
		var tickJob gocron.Job

		tickJob, err = s.NewJob(
			gocron.CronJob(cfg.Daemon.Schedule, false),
			gocron.NewTask(func() {
				releaseTick(ctx, dlog, tickJob)
			}),
			gocron.WithName("Splayed tick"),
			gocron.WithSingletonMode(gocron.LimitModeReschedule),
		)
		if err != nil {
			return fmt.Errorf("failed to schedule tick job: %w", err)
		}

		s.Start()
		dlog.Info("Scheduler started",
			"schedule", cfg.Daemon.Schedule,
			"splay_min", cfg.Daemon.SplayMin,
			"splay_max", cfg.Daemon.SplayMax)

		if nextRun, err := tickJob.NextRun(); err == nil {
			dlog.Info("Job scheduled",
				"job_name", tickJob.Name(),
				"job_id", tickJob.ID(),
				"next_run", nextRun.Format(time.RFC3339))
		}

		if cfg.Daemon.BindAddress != "" {
			go serveDashboard(ctx, s, dlog)
		}

		// Block until a signal or the global timeout.
		<-ctx.Done()

		dlog.Warn("Shutting down scheduler", "cause", context.Cause(ctx))
		return s.Shutdown()
	},
}

// releaseTick waits out the splay and logs the tick. Ticks abandoned by
// shutdown are logged but not treated as failures.
func releaseTick(ctx context.Context, dlog *slog.Logger, job gocron.Job) {
	tickLog := dlog.With("tick_id", uuid.NewString())

	err := calc.WithLogger(tickLog).DelayRandomRange(ctx, cfg.Daemon.SplayMin, cfg.Daemon.SplayMax)
	if err != nil {
		tickLog.Warn("Tick abandoned during splay", "error", err)
		return
	}

	attrs := []any{"released_at", clock.Now().UTC().Format(time.RFC3339)}
	if job != nil {
		if nextRun, err := job.NextRun(); err == nil {
			attrs = append(attrs, "next_run", nextRun.Format(time.RFC3339))
		}
	}
	tickLog.Info("Tick released", attrs...)
}

func serveDashboard(ctx context.Context, s gocron.Scheduler, dlog *slog.Logger) {
	_, portText, err := net.SplitHostPort(cfg.Daemon.BindAddress)
	if err != nil {
		dlog.Error("Invalid dashboard address", "address", cfg.Daemon.BindAddress, "error", err)
		return
	}
	port, err := strconv.Atoi(portText)
	if err != nil {
		dlog.Error("Invalid dashboard port", "address", cfg.Daemon.BindAddress, "error", err)
		return
	}

	ui := server.NewServer(s, port, server.WithTitle("delayctl - Scheduler Dashboard"))
	srv := &http.Server{
		Addr:              cfg.Daemon.BindAddress,
		Handler:           ui.Router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	dlog.Info("Scheduler dashboard started", "address", cfg.Daemon.BindAddress)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		dlog.Error("Failed to start dashboard server", "error", err)
	}
}

func init() {
	rootCommand.AddCommand(daemonCommand)
	flags := daemonCommand.Flags()
	flags.String("schedule", "*/10 * * * *", "Cron schedule for ticks (UTC)")
	flags.Duration("splay-min", 0, "Shortest splay before a tick is released")
	flags.Duration("splay-max", 30*time.Second, "Longest splay before a tick is released")
	flags.String("bind-address", "", "Address for the scheduler dashboard (empty disables it)")
	_ = v.BindPFlag(config.KeyDaemonSched, flags.Lookup("schedule"))
	_ = v.BindPFlag(config.KeySplayMin, flags.Lookup("splay-min"))
	_ = v.BindPFlag(config.KeySplayMax, flags.Lookup("splay-max"))
	_ = v.BindPFlag(config.KeyDaemonAddress, flags.Lookup("bind-address"))
}

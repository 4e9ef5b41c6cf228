// Package delay computes wait durations for common delay strategies (fixed,
// jittered, exponential backoff, fractional seconds, until a timestamp and
// within a random range) and performs those waits cancellably.
//
// Degenerate input is never an error: negative durations, non-positive
// attempts, out-of-range jitter factors and empty or inverted ranges are
// normalised and the call completes with a sensible, possibly zero, wait.
// The only failure outcome is cancellation, reported as an error wrapping
// ErrCanceled.
package delay

import (
	"context"
	"log/slog"
	"time"

	"github.com/jonboulle/clockwork"
)

// Log messages, one per strategy, so log readers can tell the paths apart.
const (
	msgDelaying       = "Delaying"
	msgBlocking       = "Delaying (blocking)"
	msgJitter         = "Delaying with jitter"
	msgBackoff        = "Delaying with backoff"
	msgUntil          = "Delaying until"
	msgUntilPassed    = "Target time already passed"
	msgRandomDuration = "Delaying for random duration"
)

// Calculator performs delays. It holds only its collaborators, never
// per-call state, so one Calculator may serve any number of concurrent
// calls as long as its logger and random source are concurrency-safe.
type Calculator struct {
	logger *slog.Logger
	random RandomSource
	clock  clockwork.Clock
}

// Option configures a Calculator.
type Option func(*Calculator)

// WithLogger sets the logger that receives one Info record per delay. A nil
// logger disables logging.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Calculator) {
		c.logger = logger
	}
}

// WithRandom sets the random source used by jitter and random ranges.
func WithRandom(r RandomSource) Option {
	return func(c *Calculator) {
		c.random = r
	}
}

// WithClock sets the clock used to read the current time and to wait.
func WithClock(clock clockwork.Clock) Option {
	return func(c *Calculator) {
		c.clock = clock
	}
}

// New returns a Calculator using the real clock, DefaultSource and no
// logging unless overridden by opts.
func New(opts ...Option) *Calculator {
	c := &Calculator{}
	for _, opt := range opts {
		opt(c)
	}
	if c.logger == nil {
		c.logger = discardLogger()
	}
	if c.random == nil {
		c.random = DefaultSource()
	}
	if c.clock == nil {
		c.clock = clockwork.NewRealClock()
	}
	return c
}

// WithLogger returns a copy of c that logs to logger instead. A nil logger
// yields a copy that does not log.
func (c *Calculator) WithLogger(logger *slog.Logger) *Calculator {
	cp := *c
	cp.logger = logger
	if cp.logger == nil {
		cp.logger = discardLogger()
	}
	return &cp
}

func discardLogger() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}

// wait is the single suspension point shared by every cancellable strategy.
// A context that is already done wins even when d is zero.
func (c *Calculator) wait(ctx context.Context, d time.Duration) error {
	if ctx.Err() != nil {
		return canceled(ctx)
	}
	if d <= 0 {
		return nil
	}

	timer := c.clock.NewTimer(d)
	defer timer.Stop()

	select {
	case <-timer.Chan():
		return nil
	case <-ctx.Done():
		return canceled(ctx)
	}
}

// delay logs msg with attrs and then waits for d. Logging always precedes
// the wait so the record describes the wait that follows, even if that wait
// is later cancelled.
func (c *Calculator) delay(ctx context.Context, msg string, d time.Duration, attrs ...any) error {
	c.logger.InfoContext(ctx, msg, attrs...)
	return c.wait(ctx, d)
}

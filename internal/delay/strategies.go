package delay

import (
	"context"
	"time"
)

// Delay waits for d. Non-positive durations return immediately.
func (c *Calculator) Delay(ctx context.Context, d time.Duration) error {
	return c.delay(ctx, msgDelaying, Clamp(d), "seconds", d.Seconds())
}

// DelayMillis waits for ms milliseconds. Non-positive values return
// immediately.
func (c *Calculator) DelayMillis(ctx context.Context, ms int64) error {
	return c.delay(ctx, msgDelaying, millis(ms), "seconds", float64(ms)/1000)
}

// DelaySync blocks the calling goroutine for d. It cannot be cancelled, so
// keep it out of code paths that must stay responsive.
func (c *Calculator) DelaySync(d time.Duration) {
	d = Clamp(d)
	c.logger.Info(msgBlocking, "seconds", d.Seconds())
	if d > 0 {
		c.clock.Sleep(d)
	}
}

// DelayWithJitter waits for base plus up to factor*base of random extra; see
// JitterDuration. With a non-positive base or factor it behaves exactly like
// Delay(ctx, base).
func (c *Calculator) DelayWithJitter(ctx context.Context, base time.Duration, factor float64) error {
	if base <= 0 || !(factor > 0) {
		return c.Delay(ctx, base)
	}
	d := JitterDuration(base, factor, c.random)
	return c.delay(ctx, msgJitter, d, "seconds", d.Seconds(), "jitter_factor", min(factor, 1))
}

// DelayWithDefaultJitter is DelayWithJitter with DefaultJitterFactor.
func (c *Calculator) DelayWithDefaultJitter(ctx context.Context, base time.Duration) error {
	return c.DelayWithJitter(ctx, base, DefaultJitterFactor)
}

// DelayWithBackoff waits for the exponential backoff of attempt; see
// BackoffDuration. Callers own the attempt counter and retry loop.
func (c *Calculator) DelayWithBackoff(ctx context.Context, attempt int, base, maxDelay time.Duration) error {
	d := BackoffDuration(attempt, base, maxDelay)
	return c.delay(ctx, msgBackoff, d, "seconds", d.Seconds(), "attempt", attempt)
}

// DelayWithDefaultBackoff is DelayWithBackoff with DefaultBackoffBase and
// DefaultBackoffMax.
func (c *Calculator) DelayWithDefaultBackoff(ctx context.Context, attempt int) error {
	return c.DelayWithBackoff(ctx, attempt, DefaultBackoffBase, DefaultBackoffMax)
}

// DelaySeconds waits for a fractional number of seconds; see SecondsDuration.
// The logged value is the seconds as given.
func (c *Calculator) DelaySeconds(ctx context.Context, seconds float64) error {
	return c.delay(ctx, msgDelaying, SecondsDuration(seconds), "seconds", seconds)
}

// DelayUntil waits until target. The current time is read once, before the
// wait; a target that is not in the future returns without waiting.
func (c *Calculator) DelayUntil(ctx context.Context, target time.Time) error {
	target = target.UTC()
	remaining := UntilDuration(target, c.clock.Now().UTC())

	if remaining <= 0 {
		return c.delay(ctx, msgUntilPassed, 0,
			"target", target,
			"remaining_seconds", remaining.Seconds())
	}
	return c.delay(ctx, msgUntil, Clamp(remaining),
		"target", target,
		"remaining_seconds", remaining.Seconds())
}

// DelayRandomRange waits for a random duration in [minDelay, maxDelay]; see
// RandomRangeDuration.
func (c *Calculator) DelayRandomRange(ctx context.Context, minDelay, maxDelay time.Duration) error {
	d := RandomRangeDuration(minDelay, maxDelay, c.random)
	return c.delay(ctx, msgRandomDuration, d, "seconds", d.Seconds())
}

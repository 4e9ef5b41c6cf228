package delay

import (
	"math"
	"time"
)

const (
	// MaxWaitMillis is the longest wait, in milliseconds, that is ever handed
	// to a timer. It is the largest millisecond count a time.Duration holds.
	MaxWaitMillis int64 = math.MaxInt64 / int64(time.Millisecond)

	// MaxWait is MaxWaitMillis expressed as a time.Duration.
	MaxWait = time.Duration(MaxWaitMillis) * time.Millisecond

	DefaultJitterFactor = 0.5
	DefaultBackoffBase  = time.Second
	DefaultBackoffMax   = 30 * time.Second

	// Shifting past this would leave no headroom in an int64 millisecond count.
	maxShift = 62
)

// Clamp bounds d to [0, MaxWait]. Every duration handed to a timer goes
// through Clamp first.
func Clamp(d time.Duration) time.Duration {
	if d <= 0 {
		return 0
	}
	if d > MaxWait {
		return MaxWait
	}
	return d
}

// millis converts a millisecond count to a clamped time.Duration.
func millis(ms int64) time.Duration {
	if ms <= 0 {
		return 0
	}
	if ms > MaxWaitMillis {
		ms = MaxWaitMillis
	}
	return time.Duration(ms) * time.Millisecond
}

// JitterDuration returns base plus a random extra of up to factor*base,
// floored to whole milliseconds:
//
//	base + floor(r.Float64() * baseMs * clamp(factor, 0, 1)) ms
//
// A non-positive base or factor (including NaN) disables jitter and returns
// the clamped base unchanged.
func JitterDuration(base time.Duration, factor float64, r RandomSource) time.Duration {
	base = Clamp(base)
	if base == 0 || !(factor > 0) {
		return base
	}
	factor = min(factor, 1)

	extraMs := int64(math.Floor(r.Float64() * float64(base.Milliseconds()) * factor))
	extra := millis(extraMs)
	if extra > MaxWait-base {
		return MaxWait
	}
	return base + extra
}

// BackoffDuration returns min(maxDelay, base * 2^attempt) at millisecond
// granularity. base and maxDelay are raised to at least 1ms. Attempts <= 0
// yield min(base, maxDelay). The doubling saturates at maxDelay instead of
// overflowing, however large attempt is.
func BackoffDuration(attempt int, base, maxDelay time.Duration) time.Duration {
	baseMs := max(base.Milliseconds(), 1)
	maxMs := min(max(maxDelay.Milliseconds(), 1), MaxWaitMillis)

	if attempt <= 0 {
		return millis(min(baseMs, maxMs))
	}
	if attempt > maxShift || baseMs > maxMs>>attempt {
		return millis(maxMs)
	}
	return millis(baseMs << attempt)
}

// SecondsDuration converts fractional seconds to a wait, truncating toward
// zero at millisecond granularity and saturating at MaxWait. NaN and
// non-positive input yield zero.
func SecondsDuration(seconds float64) time.Duration {
	if math.IsNaN(seconds) || seconds <= 0 {
		return 0
	}
	ms := math.Trunc(seconds * 1000)
	if ms >= float64(MaxWaitMillis) {
		return MaxWait
	}
	return millis(int64(ms))
}

// UntilDuration returns how long remains from now until target. The result
// is negative or zero when target is not in the future.
func UntilDuration(target, now time.Time) time.Duration {
	return target.Sub(now)
}

// RandomRangeDuration picks a wait in [minDelay, maxDelay], both ends
// inclusive, at millisecond granularity. A negative minDelay is treated as
// zero. When the range is empty or inverted the normalised minDelay is
// returned without consulting r.
func RandomRangeDuration(minDelay, maxDelay time.Duration, r RandomSource) time.Duration {
	minMs := max(minDelay.Milliseconds(), 0)
	maxMs := maxDelay.Milliseconds()

	span := maxMs - minMs
	if span <= 0 {
		return millis(minMs)
	}
	return millis(minMs + r.Int64N(span+1))
}

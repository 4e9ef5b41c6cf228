package cli

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/aravindh-murugesan/delayctl-go/internal/delay"
)

var errInvalidArgument = errors.New("invalid argument")

// parseMillis reports whether s is a bare integer and, if so, its value.
func parseMillis(s string) (int64, bool) {
	ms, err := strconv.ParseInt(s, 10, 64)
	return ms, err == nil
}

// parseDuration accepts a Go duration ("1.5s", "250ms") or a bare integer
// number of milliseconds. Bare integers beyond the longest possible wait are
// saturated rather than overflowed.
func parseDuration(s string) (time.Duration, error) {
	if ms, ok := parseMillis(s); ok {
		switch {
		case ms > delay.MaxWaitMillis:
			return delay.MaxWait, nil
		case ms < -delay.MaxWaitMillis:
			return -delay.MaxWait, nil
		}
		return time.Duration(ms) * time.Millisecond, nil
	}

	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, fmt.Errorf("%w: %q is neither milliseconds nor a duration", errInvalidArgument, s)
	}
	return d, nil
}

func parseSeconds(s string) (float64, error) {
	seconds, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %q is not a number of seconds", errInvalidArgument, s)
	}
	return seconds, nil
}

// Accepted timestamp layouts; layouts without a zone are read as UTC.
var targetLayouts = []string{
	time.RFC3339Nano,
	time.DateTime,
	"2006-01-02T15:04:05",
}

func parseTarget(s string) (time.Time, error) {
	for _, layout := range targetLayouts {
		if t, err := time.ParseInLocation(layout, s, time.UTC); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("%w: %q is not an RFC 3339 or 'YYYY-MM-DD HH:MM:SS' timestamp", errInvalidArgument, s)
}

// nextActivation returns the first activation of a standard cron expression
// strictly after now, evaluated in UTC.
func nextActivation(expr string, now time.Time) (time.Time, error) {
	schedule, err := cron.ParseStandard(expr)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: cron expression %q: %w", errInvalidArgument, expr, err)
	}
	return schedule.Next(now.UTC()), nil
}

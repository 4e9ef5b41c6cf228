package delay

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var epoch = time.Date(2026, 10, 16, 12, 0, 0, 0, time.UTC)

// syncBuffer lets the delaying goroutine and the test share a log sink.
type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) records(t *testing.T) []map[string]any {
	t.Helper()
	b.mu.Lock()
	defer b.mu.Unlock()

	var out []map[string]any
	sc := bufio.NewScanner(bytes.NewReader(b.buf.Bytes()))
	for sc.Scan() {
		rec := map[string]any{}
		require.NoError(t, json.Unmarshal(sc.Bytes(), &rec))
		out = append(out, rec)
	}
	return out
}

func newTestCalculator(opts ...Option) (*Calculator, *clockwork.FakeClock, *syncBuffer) {
	clock := clockwork.NewFakeClockAt(epoch)
	logs := &syncBuffer{}
	logger := slog.New(slog.NewJSONHandler(logs, nil))

	base := []Option{WithClock(clock), WithLogger(logger), WithRandom(fixedSource{f: 0.5, n: 37})}
	return New(append(base, opts...)...), clock, logs
}

func blockUntil(t *testing.T, clock *clockwork.FakeClock, waiters int) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, clock.BlockUntilContext(ctx, waiters), "delay never started waiting")
}

func receive(t *testing.T, ch <-chan error) error {
	t.Helper()
	select {
	case err := <-ch:
		return err
	case <-time.After(5 * time.Second):
		t.Fatal("delay did not return")
		return nil
	}
}

func assertPending(t *testing.T, ch <-chan error) {
	t.Helper()
	select {
	case err := <-ch:
		t.Fatalf("delay returned early with %v", err)
	default:
	}
}

func TestCalculator_DelayWaitsForFullDuration(t *testing.T) {
	calc, clock, _ := newTestCalculator()

	done := make(chan error, 1)
	go func() { done <- calc.Delay(context.Background(), 2*time.Second) }()

	blockUntil(t, clock, 1)
	clock.Advance(2*time.Second - time.Millisecond)
	assertPending(t, done)

	clock.Advance(time.Millisecond)
	assert.NoError(t, receive(t, done))
}

func TestCalculator_NonPositiveDurationsReturnImmediately(t *testing.T) {
	calc, _, _ := newTestCalculator()
	ctx := context.Background()

	assert.NoError(t, calc.Delay(ctx, 0))
	assert.NoError(t, calc.Delay(ctx, -time.Hour))
	assert.NoError(t, calc.DelayMillis(ctx, -5))
	assert.NoError(t, calc.DelaySeconds(ctx, -1.5))
	assert.NoError(t, calc.DelayWithJitter(ctx, -time.Second, 0.5))
	assert.NoError(t, calc.DelayRandomRange(ctx, 0, 0))
	assert.NoError(t, calc.DelayRandomRange(ctx, -time.Second, -2*time.Second))
}

func TestCalculator_PreCancelledContext(t *testing.T) {
	calc, _, _ := newTestCalculator()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	tests := []struct {
		name string
		run  func() error
	}{
		{name: "delay", run: func() error { return calc.Delay(ctx, time.Second) }},
		{name: "zero delay", run: func() error { return calc.Delay(ctx, 0) }},
		{name: "negative millis", run: func() error { return calc.DelayMillis(ctx, -10) }},
		{name: "jitter", run: func() error { return calc.DelayWithJitter(ctx, time.Second, 0.5) }},
		{name: "backoff", run: func() error { return calc.DelayWithDefaultBackoff(ctx, 2) }},
		{name: "zero seconds", run: func() error { return calc.DelaySeconds(ctx, 0) }},
		{name: "until passed target", run: func() error { return calc.DelayUntil(ctx, epoch.Add(-time.Second)) }},
		{name: "until future target", run: func() error { return calc.DelayUntil(ctx, epoch.Add(time.Hour)) }},
		{name: "zero span range", run: func() error { return calc.DelayRandomRange(ctx, 0, 0) }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.run()
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrCanceled)
			assert.ErrorIs(t, err, context.Canceled)
			assert.True(t, IsCanceled(err))
		})
	}
}

func TestCalculator_CancelledMidWait(t *testing.T) {
	calc, clock, _ := newTestCalculator()
	cause := errors.New("shutting down")
	ctx, cancel := context.WithCancelCause(context.Background())

	done := make(chan error, 1)
	go func() { done <- calc.DelayWithDefaultBackoff(ctx, 3) }()

	blockUntil(t, clock, 1)
	clock.Advance(time.Second)
	assertPending(t, done)

	cancel(cause)
	err := receive(t, done)
	assert.ErrorIs(t, err, ErrCanceled)
	assert.ErrorIs(t, err, cause)
}

func TestCalculator_DeadlineExceeded(t *testing.T) {
	calc, _, _ := newTestCalculator()
	ctx, cancel := context.WithDeadline(context.Background(), time.Now().Add(-time.Second))
	defer cancel()

	err := calc.DelaySeconds(ctx, 10)
	assert.ErrorIs(t, err, ErrCanceled)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestCalculator_DelayUntil(t *testing.T) {
	t.Run("passed target returns without waiting", func(t *testing.T) {
		calc, _, logs := newTestCalculator()

		require.NoError(t, calc.DelayUntil(context.Background(), epoch.Add(-time.Second)))

		recs := logs.records(t)
		require.Len(t, recs, 1)
		assert.Equal(t, msgUntilPassed, recs[0]["msg"])
		assert.InDelta(t, -1.0, recs[0]["remaining_seconds"], 1e-9)
	})

	t.Run("now is treated as passed", func(t *testing.T) {
		calc, _, logs := newTestCalculator()

		require.NoError(t, calc.DelayUntil(context.Background(), epoch))
		assert.Equal(t, msgUntilPassed, logs.records(t)[0]["msg"])
	})

	t.Run("future target waits for the remainder", func(t *testing.T) {
		calc, clock, logs := newTestCalculator()
		target := epoch.Add(90 * time.Second).In(time.FixedZone("UTC-3", -3*60*60))

		done := make(chan error, 1)
		go func() { done <- calc.DelayUntil(context.Background(), target) }()

		blockUntil(t, clock, 1)
		clock.Advance(89 * time.Second)
		assertPending(t, done)
		clock.Advance(time.Second)
		require.NoError(t, receive(t, done))

		recs := logs.records(t)
		require.Len(t, recs, 1)
		assert.Equal(t, msgUntil, recs[0]["msg"])
		assert.InDelta(t, 90.0, recs[0]["remaining_seconds"], 1e-9)
		assert.Equal(t, "2026-10-16T12:01:30Z", recs[0]["target"])
	})
}

func TestCalculator_LogsBeforeWaiting(t *testing.T) {
	// A cancelled context still produces the log record, since logging
	// happens before the wait is attempted.
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	tests := []struct {
		name        string
		run         func(c *Calculator) error
		wantMsg     string
		wantSeconds float64
		wantAttempt any
	}{
		{name: "span", run: func(c *Calculator) error { return c.Delay(ctx, 1500*time.Millisecond) }, wantMsg: msgDelaying, wantSeconds: 1.5},
		{name: "millis", run: func(c *Calculator) error { return c.DelayMillis(ctx, 250) }, wantMsg: msgDelaying, wantSeconds: 0.25},
		{name: "jitter", run: func(c *Calculator) error { return c.DelayWithJitter(ctx, time.Second, 0.5) }, wantMsg: msgJitter, wantSeconds: 1.25},
		{name: "default jitter", run: func(c *Calculator) error { return c.DelayWithDefaultJitter(ctx, 2*time.Second) }, wantMsg: msgJitter, wantSeconds: 2.5},
		{name: "jitter disabled by factor", run: func(c *Calculator) error { return c.DelayWithJitter(ctx, time.Second, 0) }, wantMsg: msgDelaying, wantSeconds: 1},
		{name: "jitter disabled by base", run: func(c *Calculator) error { return c.DelayWithJitter(ctx, 0, 0.5) }, wantMsg: msgDelaying, wantSeconds: 0},
		{name: "backoff", run: func(c *Calculator) error { return c.DelayWithBackoff(ctx, 3, time.Second, 30*time.Second) }, wantMsg: msgBackoff, wantSeconds: 8, wantAttempt: float64(3)},
		{name: "saturated backoff", run: func(c *Calculator) error { return c.DelayWithDefaultBackoff(ctx, 40) }, wantMsg: msgBackoff, wantSeconds: 30, wantAttempt: float64(40)},
		{name: "seconds logs the input", run: func(c *Calculator) error { return c.DelaySeconds(ctx, 2.5004) }, wantMsg: msgDelaying, wantSeconds: 2.5004},
		{name: "random range", run: func(c *Calculator) error { return c.DelayRandomRange(ctx, 100*time.Millisecond, 200*time.Millisecond) }, wantMsg: msgRandomDuration, wantSeconds: 0.137},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			calc, _, logs := newTestCalculator()

			err := tt.run(calc)
			require.ErrorIs(t, err, ErrCanceled)

			recs := logs.records(t)
			require.Len(t, recs, 1)
			assert.Equal(t, "INFO", recs[0]["level"])
			assert.Equal(t, tt.wantMsg, recs[0]["msg"])
			assert.InDelta(t, tt.wantSeconds, recs[0]["seconds"], 1e-9)
			assert.Equal(t, tt.wantAttempt, recs[0]["attempt"])
		})
	}
}

func TestCalculator_DelaySync(t *testing.T) {
	calc, clock, logs := newTestCalculator()

	calc.DelaySync(-time.Second)

	done := make(chan struct{})
	go func() {
		calc.DelaySync(2 * time.Second)
		close(done)
	}()

	blockUntil(t, clock, 1)
	clock.Advance(2 * time.Second)

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("blocking delay did not return")
	}

	recs := logs.records(t)
	require.Len(t, recs, 2)
	for _, rec := range recs {
		assert.Equal(t, msgBlocking, rec["msg"])
	}
	assert.InDelta(t, 0.0, recs[0]["seconds"], 1e-9)
	assert.InDelta(t, 2.0, recs[1]["seconds"], 1e-9)
}

func TestCalculator_OptionalLogger(t *testing.T) {
	clock := clockwork.NewFakeClockAt(epoch)
	quiet := New(WithClock(clock), WithLogger(nil), WithRandom(nil))
	require.NoError(t, quiet.Delay(context.Background(), 0))

	logs := &syncBuffer{}
	loud := quiet.WithLogger(slog.New(slog.NewJSONHandler(logs, nil)))
	require.NoError(t, loud.DelayRandomRange(context.Background(), 0, 0))
	require.Len(t, logs.records(t), 1)

	// quiet keeps its discard logger, and detaching loud again is safe.
	require.NoError(t, quiet.DelayMillis(context.Background(), 0))
	require.NoError(t, loud.WithLogger(nil).DelayMillis(context.Background(), 0))
	assert.Len(t, logs.records(t), 1)
}

func TestCalculator_LoggerDoesNotChangeDurations(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	silent, _, _ := newTestCalculator(WithLogger(nil))
	logged, _, logs := newTestCalculator()

	require.ErrorIs(t, silent.DelayWithJitter(ctx, time.Second, 0.5), ErrCanceled)
	require.ErrorIs(t, logged.DelayWithJitter(ctx, time.Second, 0.5), ErrCanceled)
	assert.InDelta(t, JitterDuration(time.Second, 0.5, fixedSource{f: 0.5}).Seconds(), logs.records(t)[0]["seconds"], 1e-9)
}

func TestCalculator_ConcurrentDelays(t *testing.T) {
	calc, clock, _ := newTestCalculator(WithRandom(NewSeededSource(99)))
	const n = 20

	done := make(chan error, n)
	for i := 0; i < n; i++ {
		go func() {
			done <- calc.DelayRandomRange(context.Background(), 500*time.Millisecond, time.Second)
		}()
	}

	blockUntil(t, clock, n)
	clock.Advance(time.Second)

	for i := 0; i < n; i++ {
		assert.NoError(t, receive(t, done))
	}
}

package delay

import (
	"context"
	"errors"
	"fmt"
)

// ErrCanceled marks a wait that was aborted by its context rather than
// completed. The returned error also wraps the context's cause, so both
// errors.Is(err, ErrCanceled) and errors.Is(err, context.Canceled) hold.
var ErrCanceled = errors.New("delay canceled")

func canceled(ctx context.Context) error {
	return fmt.Errorf("%w: %w", ErrCanceled, context.Cause(ctx))
}

// IsCanceled reports whether err is the outcome of a cancelled wait.
func IsCanceled(err error) bool {
	return errors.Is(err, ErrCanceled)
}

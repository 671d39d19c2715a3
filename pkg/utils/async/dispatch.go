package async

import (
	"context"

	"github.com/m-mizutani/goerr/v2"

	"github.com/docket-labs/docket/pkg/utils/logging"
)

// Dispatch executes a handler function asynchronously in a new goroutine.
// It creates a background context (detached from the request's lifetime,
// since the triggering write has already committed) and handles errors and
// panics.
func Dispatch(ctx context.Context, handler func(ctx context.Context) error) {
	// Preserve the request's logger on the detached context
	bgCtx := context.Background()
	if logger := logging.From(ctx); logger != nil {
		bgCtx = logging.With(bgCtx, logger)
	}

	go func() {
		defer func() {
			if r := recover(); r != nil {
				logging.From(bgCtx).Error("panic in async handler", "panic", r)
			}
		}()

		if err := handler(bgCtx); err != nil {
			logging.From(bgCtx).Error("async handler failed", "error", goerr.Unwrap(err))
		}
	}()
}

package async

import (
	"context"
	"sync"

	"github.com/Octonove/octo-user-copy/pkg/utils/errutil"
	"github.com/Octonove/octo-user-copy/pkg/utils/logging"
	"github.com/m-mizutani/goerr/v2"
)

// Dispatcher runs fire-and-forget handlers in their own goroutines. The
// handlers get a fresh context that keeps the caller's logger but not its
// cancellation, so work triggered by a finished HTTP request still completes.
// Wait blocks until every dispatched handler returned.
type Dispatcher struct {
	wg sync.WaitGroup
}

// Dispatch executes handler asynchronously. Errors and panics are logged.
func (d *Dispatcher) Dispatch(ctx context.Context, name string, handler func(ctx context.Context) error) {
	bgCtx := logging.With(context.Background(), logging.From(ctx).With("task", name))

	d.wg.Add(1)
	go func() {
		defer d.wg.Done()
		defer func() {
			if r := recover(); r != nil {
				_ = errutil.Handle(bgCtx, goerr.New("panic in async handler", goerr.V("panic", r)), "async handler panicked")
			}
		}()

		if err := handler(bgCtx); err != nil {
			_ = errutil.Handle(bgCtx, err, "async handler failed")
		}
	}()
}

// Wait blocks until all dispatched handlers have returned.
func (d *Dispatcher) Wait() {
	d.wg.Wait()
}

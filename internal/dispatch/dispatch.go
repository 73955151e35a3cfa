// Package dispatch fans a finalized order out to the notification and
// persistence sinks. Both calls run in the background after finalize
// commits; their failures are reported on a status channel and logged, but
// never roll back the order or its number.
package dispatch

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/xenking/pizza-shop/internal/domain/order"
	"github.com/xenking/pizza-shop/internal/notify"
)

// Sink operation names carried on Result.
const (
	OpNotify  = "notify"
	OpPersist = "persist"
)

// Result is the outcome of one sink call. Err is nil on success.
type Result struct {
	Op  string
	Err error
}

// Dispatcher owns the post-finalize side effects.
type Dispatcher struct {
	store    order.Store
	notifier notify.Notifier
	timeout  time.Duration
	lg       *zap.Logger
	wg       sync.WaitGroup
}

// New creates a Dispatcher. timeout bounds each sink call; an overrun is
// reported as that sink's failure.
func New(store order.Store, notifier notify.Notifier, timeout time.Duration, lg *zap.Logger) *Dispatcher {
	return &Dispatcher{
		store:    store,
		notifier: notifier,
		timeout:  timeout,
		lg:       lg,
	}
}

// Dispatch persists rec and sends the confirmation email concurrently. It
// returns immediately; the caller does not wait for the sinks before
// confirming the order number to the customer.
//
// The returned channel receives one Result per sink and is closed when both
// complete. The channel is buffered, so an uninterested caller may discard
// it without leaking goroutines.
//
// Sink calls intentionally run on fresh contexts: the record is already
// committed, so a cancelled request must not abort delivery or persistence.
func (d *Dispatcher) Dispatch(rec *order.Record) <-chan Result {
	results := make(chan Result, 2)

	var pending sync.WaitGroup
	run := func(op string, fn func(ctx context.Context) error) {
		d.wg.Add(1)
		pending.Add(1)
		go func() {
			defer d.wg.Done()
			defer pending.Done()

			ctx, cancel := context.WithTimeout(context.Background(), d.timeout)
			defer cancel()

			err := fn(ctx)
			if err != nil {
				d.lg.Warn("Sink failed",
					zap.String("op", op),
					zap.String("order_number", rec.Number),
					zap.Error(err),
				)
			}
			results <- Result{Op: op, Err: err}
		}()
	}

	run(OpPersist, func(ctx context.Context) error {
		return d.store.Save(ctx, rec)
	})
	run(OpNotify, func(ctx context.Context) error {
		return d.notifier.Send(ctx, rec.CustomerEmail, rec)
	})

	go func() {
		pending.Wait()
		close(results)
	}()

	return results
}

// Wait blocks until all in-flight dispatches have completed. Called during
// graceful shutdown so committed orders are not dropped.
func (d *Dispatcher) Wait() {
	d.wg.Wait()
}

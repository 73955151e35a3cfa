package order

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/go-faster/errors"
)

// ErrEmptyOrder is returned when finalization is attempted with no
// selections.
var ErrEmptyOrder = errors.New("order has no items")

// InvalidCustomerInfoError indicates a missing required customer field at
// finalize time.
type InvalidCustomerInfoError struct {
	Field string
}

func (e *InvalidCustomerInfoError) Error() string {
	return fmt.Sprintf("customer %s is required", e.Field)
}

// Finalizer turns a ready Builder into an immutable Record. The order number
// allocator is injected so deployments can choose between an in-memory
// counter and a durable database sequence.
type Finalizer struct {
	seq Sequence
	now func() time.Time
}

// NewFinalizer creates a Finalizer using the given sequence allocator.
func NewFinalizer(seq Sequence) *Finalizer {
	return &Finalizer{seq: seq, now: time.Now}
}

// Finalize validates the builder and customer details, allocates the next
// order number, snapshots the current summary and total into a Record, and
// resets the builder to empty.
//
// The operation never partially applies: all validation runs before the
// sequence is touched, so a rejected finalize allocates no number and leaves
// the builder untouched. On success the counter advances exactly once.
func (f *Finalizer) Finalize(ctx context.Context, b *Builder, customerName, customerEmail string) (*Record, error) {
	if b.IsEmpty() {
		return nil, ErrEmptyOrder
	}
	if strings.TrimSpace(customerName) == "" {
		return nil, &InvalidCustomerInfoError{Field: "name"}
	}
	if strings.TrimSpace(customerEmail) == "" {
		return nil, &InvalidCustomerInfoError{Field: "email"}
	}

	n, err := f.seq.Next(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "allocate order number")
	}

	rec := &Record{
		Number:        FormatNumber(n),
		CustomerName:  customerName,
		CustomerEmail: customerEmail,
		CreatedAt:     f.now(),
		Groups:        b.Groups(),
		Total:         b.Total(),
	}
	b.reset()

	return rec, nil
}

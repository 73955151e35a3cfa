package order

import (
	"context"
	"fmt"
	"sync"
)

// Sequence allocates order numbers. Next must be atomic and serializable:
// two concurrent calls never return the same value, and values increase
// monotonically without reuse.
type Sequence interface {
	Next(ctx context.Context) (int64, error)
}

// FormatNumber renders a sequence value as a customer-facing order number,
// e.g. 1 -> "PS-000001".
func FormatNumber(n int64) string {
	return fmt.Sprintf("PS-%06d", n)
}

// MemorySequence is a mutex-protected in-memory Sequence. It is suitable for
// single-process deployments; pair it with a durable store scan at startup
// so numbers survive restarts.
type MemorySequence struct {
	mu   sync.Mutex
	last int64
}

// NewMemorySequence returns a MemorySequence that continues after last.
// Pass 0 for a fresh counter starting at 1.
func NewMemorySequence(last int64) *MemorySequence {
	return &MemorySequence{last: last}
}

// Next returns the next order number. It never fails.
func (s *MemorySequence) Next(_ context.Context) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.last++
	return s.last, nil
}

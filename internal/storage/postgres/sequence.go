package postgres

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/go-faster/errors"

	"github.com/xenking/pizza-shop/internal/domain/order"
)

var _ order.Sequence = (*Sequence)(nil)

// Sequence implements order.Sequence on a PostgreSQL sequence, giving
// durable, gap-free-on-success order numbers that are safe under concurrent
// finalizations across processes.
type Sequence struct {
	pool *pgxpool.Pool
}

// NewSequence returns a Sequence that uses the given pool.
func NewSequence(pool *pgxpool.Pool) *Sequence {
	return &Sequence{pool: pool}
}

// Next allocates the next order number.
func (s *Sequence) Next(ctx context.Context) (int64, error) {
	var n int64
	err := s.pool.QueryRow(ctx, `SELECT nextval('order_number_seq')`).Scan(&n)
	if err != nil {
		return 0, errors.Wrap(err, "nextval order_number_seq")
	}
	return n, nil
}

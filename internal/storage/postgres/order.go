package postgres

import (
	"context"
	"encoding/json"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/go-faster/errors"

	"github.com/xenking/pizza-shop/internal/domain/order"
)

var _ order.Store = (*OrderStore)(nil)

// OrderStore implements order.Store backed by PostgreSQL.
type OrderStore struct {
	pool *pgxpool.Pool
}

// NewOrderStore returns an OrderStore that uses the given pool.
func NewOrderStore(pool *pgxpool.Pool) *OrderStore {
	return &OrderStore{pool: pool}
}

type itemGroupJSON struct {
	Item     string   `json:"item"`
	Lines    []string `json:"lines"`
	Subtotal string   `json:"subtotal"`
}

const upsertOrder = `
INSERT INTO orders (number, customer_name, customer_email, items, total, created_at)
VALUES ($1, $2, $3, $4, $5, $6)
ON CONFLICT (number) DO UPDATE SET
    customer_name  = EXCLUDED.customer_name,
    customer_email = EXCLUDED.customer_email,
    items          = EXCLUDED.items,
    total          = EXCLUDED.total,
    created_at     = EXCLUDED.created_at
`

// Save upserts the order. The grouped line items are serialized to JSON for
// storage in the JSONB column; writing the same order number again
// overwrites the existing row.
func (s *OrderStore) Save(ctx context.Context, rec *order.Record) error {
	groups := make([]itemGroupJSON, len(rec.Groups))
	for i, g := range rec.Groups {
		groups[i] = itemGroupJSON{
			Item:     g.Item,
			Lines:    g.Lines,
			Subtotal: g.Subtotal.StringFixed(2),
		}
	}
	itemsJSON, err := json.Marshal(groups)
	if err != nil {
		return errors.Wrapf(err, "marshal items for order %s", rec.Number)
	}

	_, err = s.pool.Exec(ctx, upsertOrder,
		rec.Number,
		rec.CustomerName,
		rec.CustomerEmail,
		itemsJSON,
		rec.Total,
		rec.CreatedAt,
	)
	if err != nil {
		return errors.Wrapf(err, "save order %s", rec.Number)
	}
	return nil
}

// Package file persists finalized orders as one JSON document per order in
// a local directory.
package file

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/go-faster/errors"
	"github.com/go-faster/jx"

	"github.com/xenking/pizza-shop/internal/domain/order"
)

var _ order.Store = (*Store)(nil)

// Store writes each order to <dir>/order_<number>.json. Saving the same
// order number again overwrites the previous file, so retries are
// idempotent.
type Store struct {
	dir string
}

// NewStore creates the orders directory if needed and returns a Store.
func NewStore(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, errors.Wrapf(err, "create orders directory %s", dir)
	}
	return &Store{dir: dir}, nil
}

// Save writes the order document. The write goes to a temp file first and is
// renamed into place, so readers never observe a partial document.
func (s *Store) Save(ctx context.Context, rec *order.Record) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	data := encodeRecord(rec)
	path := filepath.Join(s.dir, fmt.Sprintf("order_%s.json", rec.Number))
	tmp := path + ".tmp"

	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return errors.Wrapf(err, "write order %s", rec.Number)
	}
	if err := os.Rename(tmp, path); err != nil {
		return errors.Wrapf(err, "commit order %s", rec.Number)
	}
	return nil
}

// LastNumber scans the orders directory and returns the highest order
// sequence value already written, or 0 when the directory holds no orders.
// Used to seed the in-memory sequence so numbers survive restarts.
func (s *Store) LastNumber() (int64, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return 0, errors.Wrapf(err, "read orders directory %s", s.dir)
	}

	var last int64
	for _, e := range entries {
		name := e.Name()
		if !strings.HasPrefix(name, "order_PS-") || !strings.HasSuffix(name, ".json") {
			continue
		}
		digits := strings.TrimSuffix(strings.TrimPrefix(name, "order_PS-"), ".json")
		n, err := strconv.ParseInt(digits, 10, 64)
		if err != nil {
			continue
		}
		if n > last {
			last = n
		}
	}
	return last, nil
}

func encodeRecord(rec *order.Record) []byte {
	var e jx.Encoder
	e.SetIdent(2)
	e.Obj(func(e *jx.Encoder) {
		e.Field("order_number", func(e *jx.Encoder) { e.Str(rec.Number) })
		e.Field("customer_name", func(e *jx.Encoder) { e.Str(rec.CustomerName) })
		e.Field("customer_email", func(e *jx.Encoder) { e.Str(rec.CustomerEmail) })
		e.Field("date", func(e *jx.Encoder) { e.Str(rec.CreatedAt.Format("2006-01-02 15:04:05")) })
		e.Field("items", func(e *jx.Encoder) {
			e.Arr(func(e *jx.Encoder) {
				for _, g := range rec.Groups {
					e.Obj(func(e *jx.Encoder) {
						e.Field("item", func(e *jx.Encoder) { e.Str(g.Item) })
						e.Field("lines", func(e *jx.Encoder) {
							e.Arr(func(e *jx.Encoder) {
								for _, line := range g.Lines {
									e.Str(line)
								}
							})
						})
						e.Field("subtotal", func(e *jx.Encoder) { e.Str(g.Subtotal.StringFixed(2)) })
					})
				}
			})
		})
		e.Field("total", func(e *jx.Encoder) { e.Str(rec.Total.StringFixed(2)) })
	})
	return e.Bytes()
}

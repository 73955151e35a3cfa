package order

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// ItemGroup holds the display lines and subtotal for one item name within an
// order summary.
type ItemGroup struct {
	Item     string
	Lines    []string
	Subtotal decimal.Decimal
}

// Record is the immutable snapshot of a finalized order. Once created it
// shares no state with the builder it came from.
type Record struct {
	Number        string
	CustomerName  string
	CustomerEmail string
	CreatedAt     time.Time
	Groups        []ItemGroup
	Total         decimal.Decimal
}

// Receipt renders the order body handed to the notification and persistence
// sinks: one block per item with its size/quantity lines, then the total.
func (r *Record) Receipt() string {
	var sb strings.Builder
	for _, g := range r.Groups {
		sb.WriteString(g.Item)
		sb.WriteString(": ")
		sb.WriteString(strings.Join(g.Lines, "\n"))
		sb.WriteByte('\n')
	}
	fmt.Fprintf(&sb, "\nTotal Price: $%s", r.Total.StringFixed(2))
	return sb.String()
}

// Store is the persistence sink contract. Save must be durable and
// idempotent under retry: saving the same order number again overwrites the
// previous write instead of duplicating it.
type Store interface {
	Save(ctx context.Context, rec *Record) error
}

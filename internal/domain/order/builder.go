// Package order implements the order-building and pricing state machine:
// a per-session accumulator of line-item selections against the catalog,
// and the finalizer that turns a ready accumulator into an immutable record.
package order

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/xenking/pizza-shop/internal/domain/catalog"
)

// InvalidQuantityError indicates a selection with a quantity below 1.
type InvalidQuantityError struct {
	Item     string
	Size     string
	Quantity int
}

func (e *InvalidQuantityError) Error() string {
	return fmt.Sprintf("quantity must be at least 1 for %s %s, got %d", e.Size, e.Item, e.Quantity)
}

// SelectionKey identifies one line item within an order. Item and size form
// a genuine composite key; they are never concatenated.
type SelectionKey struct {
	Item string
	Size string
}

// Selection is one chosen line item. UnitPrice is copied from the catalog at
// selection time, so a finalized order is insulated from later menu changes.
type Selection struct {
	Item      string
	Size      string
	UnitPrice decimal.Decimal
	Quantity  int
}

// Subtotal returns UnitPrice multiplied by Quantity, exact.
func (s Selection) Subtotal() decimal.Decimal {
	return s.UnitPrice.Mul(decimal.NewFromInt(int64(s.Quantity)))
}

// Builder accumulates line-item selections for a single order session.
// It starts empty, moves between empty and accumulating via Select/Deselect,
// and is reset back to empty by a successful Finalize.
//
// A Builder is not safe for concurrent use; callers confine it to one
// session and serialize access.
type Builder struct {
	menu       *catalog.Catalog
	selections map[SelectionKey]Selection
	sequence   []SelectionKey // keys in first-selected order
}

// NewBuilder returns an empty Builder reading prices from menu.
func NewBuilder(menu *catalog.Catalog) *Builder {
	return &Builder{
		menu:       menu,
		selections: make(map[SelectionKey]Selection),
	}
}

// Select inserts or replaces the line item for (item, size) with the given
// quantity. Selecting an existing key updates its quantity in place rather
// than adding a second entry.
//
// It returns a catalog.UnknownEntryError when the catalog has no such
// item/size, or an InvalidQuantityError when qty < 1. On error the builder
// is unchanged.
func (b *Builder) Select(item, size string, qty int) error {
	price, err := b.menu.Price(item, size)
	if err != nil {
		return err
	}
	if qty < 1 {
		return &InvalidQuantityError{Item: item, Size: size, Quantity: qty}
	}

	key := SelectionKey{Item: item, Size: size}
	if _, ok := b.selections[key]; !ok {
		b.sequence = append(b.sequence, key)
	}
	b.selections[key] = Selection{
		Item:      item,
		Size:      size,
		UnitPrice: price,
		Quantity:  qty,
	}
	return nil
}

// Deselect removes the line item for (item, size). Removing an absent key is
// a no-op, not an error.
func (b *Builder) Deselect(item, size string) {
	key := SelectionKey{Item: item, Size: size}
	if _, ok := b.selections[key]; !ok {
		return
	}
	delete(b.selections, key)
	for i, k := range b.sequence {
		if k == key {
			b.sequence = append(b.sequence[:i], b.sequence[i+1:]...)
			break
		}
	}
}

// Total returns the exact sum of unit price times quantity over all current
// selections. An empty builder totals zero. The value is computed on every
// call and is never stored stale.
func (b *Builder) Total() decimal.Decimal {
	total := decimal.Zero
	for _, key := range b.sequence {
		total = total.Add(b.selections[key].Subtotal())
	}
	return total
}

// IsEmpty reports whether the builder has no selections.
func (b *Builder) IsEmpty() bool {
	return len(b.selections) == 0
}

// Groups returns the current selections grouped by item name, in
// first-selected order. Each group carries one display line per size,
// formatted as "<Size> x <qty>: $<subtotal>", and the item's subtotal.
//
// Groups is a pure read: it builds fresh slices on every call and never
// mutates the builder.
func (b *Builder) Groups() []ItemGroup {
	var groups []ItemGroup
	index := make(map[string]int) // item name -> position in groups

	for _, key := range b.sequence {
		sel := b.selections[key]
		sub := sel.Subtotal()
		line := fmt.Sprintf("%s x %d: $%s", sel.Size, sel.Quantity, sub.StringFixed(2))

		i, ok := index[sel.Item]
		if !ok {
			i = len(groups)
			index[sel.Item] = i
			groups = append(groups, ItemGroup{Item: sel.Item, Subtotal: decimal.Zero})
		}
		groups[i].Lines = append(groups[i].Lines, line)
		groups[i].Subtotal = groups[i].Subtotal.Add(sub)
	}
	return groups
}

// reset returns the builder to its initial empty state, ready for the next
// order. Called by Finalize after a record has been snapshotted.
func (b *Builder) reset() {
	b.selections = make(map[SelectionKey]Selection)
	b.sequence = nil
}

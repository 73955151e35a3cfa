package order

import (
	"math/rand"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xenking/pizza-shop/internal/domain/catalog"
)

func testMenu(t *testing.T) *catalog.Catalog {
	t.Helper()
	c, err := catalog.New([]catalog.Category{
		{
			Name: "Pizzas",
			Items: []catalog.MenuItem{
				{
					Name: "Cheese Pizza",
					Sizes: []catalog.SizeOption{
						{Label: "Small", Price: decimal.RequireFromString("6.50")},
						{Label: "Medium", Price: decimal.RequireFromString("9.25")},
					},
				},
				{
					Name: "Pepperoni Pizza",
					Sizes: []catalog.SizeOption{
						{Label: "Small", Price: decimal.RequireFromString("7.00")},
					},
				},
			},
		},
		{
			Name: "Drinks",
			Items: []catalog.MenuItem{
				{
					Name:  "Coke",
					Sizes: []catalog.SizeOption{{Label: "Small", Price: decimal.RequireFromString("1.00")}},
				},
			},
		},
	})
	require.NoError(t, err)
	return c
}

func TestBuilder_SelectAndTotal(t *testing.T) {
	b := NewBuilder(testMenu(t))

	assert.True(t, b.IsEmpty())
	assert.True(t, b.Total().IsZero())

	require.NoError(t, b.Select("Cheese Pizza", "Small", 2))
	assert.False(t, b.IsEmpty())
	assert.True(t, decimal.RequireFromString("13.00").Equal(b.Total()))

	require.NoError(t, b.Select("Cheese Pizza", "Medium", 1))
	assert.True(t, decimal.RequireFromString("22.25").Equal(b.Total()))
}

func TestBuilder_SelectReplacesQuantity(t *testing.T) {
	b := NewBuilder(testMenu(t))

	require.NoError(t, b.Select("Cheese Pizza", "Small", 2))
	require.NoError(t, b.Select("Cheese Pizza", "Small", 5))

	groups := b.Groups()
	require.Len(t, groups, 1)
	require.Len(t, groups[0].Lines, 1)
	assert.Equal(t, "Small x 5: $32.50", groups[0].Lines[0])
	assert.True(t, decimal.RequireFromString("32.50").Equal(b.Total()))
}

func TestBuilder_SelectUnknownEntry(t *testing.T) {
	b := NewBuilder(testMenu(t))
	require.NoError(t, b.Select("Cheese Pizza", "Small", 1))
	before := b.Total()

	err := b.Select("Calzone", "Small", 1)
	var ueErr *catalog.UnknownEntryError
	require.ErrorAs(t, err, &ueErr)

	err = b.Select("Cheese Pizza", "Family", 1)
	require.ErrorAs(t, err, &ueErr)

	// Builder state unchanged.
	assert.True(t, before.Equal(b.Total()))
	assert.Len(t, b.Groups(), 1)
}

func TestBuilder_SelectInvalidQuantity(t *testing.T) {
	b := NewBuilder(testMenu(t))

	err := b.Select("Cheese Pizza", "Small", 0)
	var iqErr *InvalidQuantityError
	require.ErrorAs(t, err, &iqErr)
	assert.Equal(t, 0, iqErr.Quantity)

	err = b.Select("Cheese Pizza", "Small", -3)
	require.ErrorAs(t, err, &iqErr)

	assert.True(t, b.IsEmpty())
}

func TestBuilder_Deselect(t *testing.T) {
	b := NewBuilder(testMenu(t))
	require.NoError(t, b.Select("Cheese Pizza", "Small", 2))
	require.NoError(t, b.Select("Coke", "Small", 1))

	b.Deselect("Cheese Pizza", "Small")
	assert.True(t, decimal.RequireFromString("1.00").Equal(b.Total()))

	// Absent key is a no-op.
	b.Deselect("Cheese Pizza", "Small")
	b.Deselect("Calzone", "Small")
	assert.True(t, decimal.RequireFromString("1.00").Equal(b.Total()))

	b.Deselect("Coke", "Small")
	assert.True(t, b.IsEmpty())
	assert.True(t, b.Total().IsZero())
}

func TestBuilder_GroupsFirstSelectedOrder(t *testing.T) {
	b := NewBuilder(testMenu(t))
	require.NoError(t, b.Select("Coke", "Small", 1))
	require.NoError(t, b.Select("Cheese Pizza", "Small", 2))
	require.NoError(t, b.Select("Cheese Pizza", "Medium", 1))
	require.NoError(t, b.Select("Pepperoni Pizza", "Small", 1))

	groups := b.Groups()
	require.Len(t, groups, 3)

	assert.Equal(t, "Coke", groups[0].Item)
	assert.Equal(t, []string{"Small x 1: $1.00"}, groups[0].Lines)

	assert.Equal(t, "Cheese Pizza", groups[1].Item)
	assert.Equal(t, []string{"Small x 2: $13.00", "Medium x 1: $9.25"}, groups[1].Lines)
	assert.True(t, decimal.RequireFromString("22.25").Equal(groups[1].Subtotal))

	assert.Equal(t, "Pepperoni Pizza", groups[2].Item)
}

func TestBuilder_GroupsRestartable(t *testing.T) {
	b := NewBuilder(testMenu(t))
	require.NoError(t, b.Select("Cheese Pizza", "Small", 2))

	first := b.Groups()
	second := b.Groups()
	assert.Equal(t, first, second)

	// Mutating a returned group does not touch the builder.
	first[0].Lines[0] = "tampered"
	assert.Equal(t, "Small x 2: $13.00", b.Groups()[0].Lines[0])
}

// TestBuilder_TotalMatchesSelections drives the builder through random
// select/deselect sequences and checks that Total always equals the sum of
// the line subtotals, exactly.
func TestBuilder_TotalMatchesSelections(t *testing.T) {
	menu := testMenu(t)
	keys := []SelectionKey{
		{Item: "Cheese Pizza", Size: "Small"},
		{Item: "Cheese Pizza", Size: "Medium"},
		{Item: "Pepperoni Pizza", Size: "Small"},
		{Item: "Coke", Size: "Small"},
	}

	rng := rand.New(rand.NewSource(1))
	b := NewBuilder(menu)

	for range 500 {
		key := keys[rng.Intn(len(keys))]
		if rng.Intn(4) == 0 {
			b.Deselect(key.Item, key.Size)
		} else {
			require.NoError(t, b.Select(key.Item, key.Size, 1+rng.Intn(9)))
		}

		want := decimal.Zero
		for _, g := range b.Groups() {
			want = want.Add(g.Subtotal)
		}
		require.True(t, want.Equal(b.Total()), "total %s != sum of subtotals %s", b.Total(), want)
	}
}

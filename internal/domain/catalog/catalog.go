// Package catalog holds the static menu: categories, items, size variants
// and prices. The catalog is loaded once at process start and never mutated.
package catalog

import (
	"encoding/json"
	"fmt"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
)

// UnknownEntryError indicates a requested item/size pair does not exist in
// the catalog.
type UnknownEntryError struct {
	Item string
	Size string
}

func (e *UnknownEntryError) Error() string {
	return fmt.Sprintf("menu has no %q in size %q", e.Item, e.Size)
}

// SizeOption is a single size variant of a menu item with its unit price.
type SizeOption struct {
	Label string          `json:"label"`
	Price decimal.Decimal `json:"price"`
}

// MenuItem is a purchasable item. Image is an optional reference to the
// item's picture; Sizes always holds at least one entry.
type MenuItem struct {
	Name  string       `json:"name"`
	Image string       `json:"image,omitempty"`
	Sizes []SizeOption `json:"sizes"`
}

// Category groups menu items under a display heading.
type Category struct {
	Name  string     `json:"name"`
	Items []MenuItem `json:"items"`
}

type priceKey struct {
	item string
	size string
}

// Catalog is the immutable menu. Lookups go through a composite
// (item, size) index built at load time.
type Catalog struct {
	categories []Category
	prices     map[priceKey]decimal.Decimal
}

// New validates the given categories and builds a Catalog.
//
// Invariants enforced: category names are unique, item names are unique
// across the whole menu (selection addresses items by name and size, without
// category), every item has at least one size, and all prices are
// non-negative.
func New(categories []Category) (*Catalog, error) {
	prices := make(map[priceKey]decimal.Decimal)
	seenCategories := make(map[string]struct{}, len(categories))
	itemCategory := make(map[string]string)

	for _, c := range categories {
		if c.Name == "" {
			return nil, errors.New("category with empty name")
		}
		if _, ok := seenCategories[c.Name]; ok {
			return nil, errors.Errorf("duplicate category %q", c.Name)
		}
		seenCategories[c.Name] = struct{}{}

		for _, item := range c.Items {
			if item.Name == "" {
				return nil, errors.Errorf("category %q has an item with empty name", c.Name)
			}
			if prev, ok := itemCategory[item.Name]; ok {
				if prev == c.Name {
					return nil, errors.Errorf("duplicate item %q in category %q", item.Name, c.Name)
				}
				return nil, errors.Errorf("item %q appears in categories %q and %q; item names must be unique across the menu", item.Name, prev, c.Name)
			}
			itemCategory[item.Name] = c.Name

			if len(item.Sizes) == 0 {
				return nil, errors.Errorf("item %q has no sizes", item.Name)
			}
			for _, s := range item.Sizes {
				if s.Label == "" {
					return nil, errors.Errorf("item %q has a size with empty label", item.Name)
				}
				if s.Price.IsNegative() {
					return nil, errors.Errorf("item %q size %q has negative price %s", item.Name, s.Label, s.Price)
				}
				key := priceKey{item: item.Name, size: s.Label}
				if _, ok := prices[key]; ok {
					return nil, errors.Errorf("duplicate size %q for item %q", s.Label, item.Name)
				}
				prices[key] = s.Price
			}
		}
	}

	return &Catalog{categories: categories, prices: prices}, nil
}

// Load decodes a JSON menu document and builds a validated Catalog.
func Load(data []byte) (*Catalog, error) {
	var categories []Category
	if err := json.Unmarshal(data, &categories); err != nil {
		return nil, errors.Wrap(err, "parse menu JSON")
	}
	return New(categories)
}

// Categories returns the menu categories in display order. Callers must not
// mutate the returned slice.
func (c *Catalog) Categories() []Category {
	return c.categories
}

// Price returns the unit price for the given item and size. It returns an
// UnknownEntryError when no such entry exists.
func (c *Catalog) Price(item, size string) (decimal.Decimal, error) {
	p, ok := c.prices[priceKey{item: item, size: size}]
	if !ok {
		return decimal.Decimal{}, &UnknownEntryError{Item: item, Size: size}
	}
	return p, nil
}

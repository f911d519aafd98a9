package engine

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

var (
	ErrInsufficientFunds = errors.New("insufficient funds")
	ErrUnknownItem       = errors.New("unknown shop item")
	ErrGameOver          = errors.New("game is over")
)

// Item is something that can be bought in the shop.
type Item string

const (
	ItemMovePotion     Item = "move_potion"
	ItemStrengthPotion Item = "strength_potion"
	ItemFancyPotion    Item = "fancy_potion"
)

// ParseItem accepts item names and the single-letter potion symbols.
func ParseItem(s string) (Item, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "move_potion", "move", "m":
		return ItemMovePotion, nil
	case "strength_potion", "strength", "s":
		return ItemStrengthPotion, nil
	case "fancy_potion", "fancy", "f":
		return ItemFancyPotion, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownItem, s)
}

// Kind returns the potion entity whose effect the item grants.
func (i Item) Kind() EntityKind {
	switch i {
	case ItemMovePotion:
		return MovePotion
	case ItemStrengthPotion:
		return StrengthPotion
	case ItemFancyPotion:
		return FancyPotion
	}
	return ""
}

// Catalog maps shop items to prices. It is fixed once a game is built.
type Catalog map[Item]int

// DefaultCatalog returns the stock shop prices.
func DefaultCatalog() Catalog {
	return Catalog{
		ItemStrengthPotion: 5,
		ItemMovePotion:     5,
		ItemFancyPotion:    10,
	}
}

// Price returns the price of item and whether the shop sells it.
func (c Catalog) Price(item Item) (int, bool) {
	p, ok := c[item]
	return p, ok
}

// Copy returns an independent copy of the catalog.
func (c Catalog) Copy() Catalog {
	out := make(Catalog, len(c))
	for k, v := range c {
		out[k] = v
	}
	return out
}

// CatalogEntry is a priced item.
type CatalogEntry struct {
	Item  Item `json:"item"`
	Price int  `json:"price"`
}

// Items returns the catalog sorted by price, then name.
func (c Catalog) Items() []CatalogEntry {
	out := make([]CatalogEntry, 0, len(c))
	for item, price := range c {
		out = append(out, CatalogEntry{Item: item, Price: price})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Price != out[j].Price {
			return out[i].Price < out[j].Price
		}
		return out[i].Item < out[j].Item
	})
	return out
}

// Purchase debits the item's price and applies its effect, or changes nothing.
func Purchase(item Item, stats *PlayerStats, catalog Catalog, rules Rules) (Effect, error) {
	price, ok := catalog.Price(item)
	if !ok || item.Kind() == "" {
		return Effect{}, fmt.Errorf("%w: %s", ErrUnknownItem, item)
	}
	if stats.Money < price {
		return Effect{}, fmt.Errorf("%w: %s costs %d, have %d", ErrInsufficientFunds, item, price, stats.Money)
	}
	effect := rules.Effect(item.Kind())
	stats.Money -= price
	stats.Apply(effect)
	return effect, nil
}

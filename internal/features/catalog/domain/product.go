package domain

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

var (
	// ErrProductNotFound is returned when a referenced product does not exist.
	ErrProductNotFound = errors.New("product not found")
	// ErrUnknownSize is returned when a size label is not stocked for the product.
	ErrUnknownSize = errors.New("size not offered for product")
	// ErrNegativeStock is returned when a stock edit would leave a counter below zero.
	ErrNegativeStock = errors.New("stock cannot be negative")
	// ErrInvalidQuantity is returned for line quantities below one.
	ErrInvalidQuantity = errors.New("quantity must be at least 1")
)

// Product is a sellable item with per-size stock counters.
type Product struct {
	// ID is the product identifier.
	ID string `json:"id"`
	// SKU is the unique stock keeping unit.
	SKU string `json:"sku"`
	// Name is the display name.
	Name string `json:"name"`
	// OfferPrice is the price actually charged.
	OfferPrice decimal.Decimal `json:"offerPrice"`
	// ActualPrice is the list price shown struck through.
	ActualPrice decimal.Decimal `json:"actualPrice"`
	// Sizes maps size label (e.g. "M") to available units. Never negative.
	Sizes map[string]int `json:"sizes"`
	// UpdatedAt is the last stock or price change.
	UpdatedAt time.Time `json:"updatedAt"`
}

// Available returns the units on hand for size and whether the size exists.
func (p *Product) Available(size string) (int, bool) {
	n, ok := p.Sizes[size]
	return n, ok
}

// StockLine is one (product, size, quantity) request against the ledger.
type StockLine struct {
	ProductID string `json:"productId"`
	Size      string `json:"size"`
	Quantity  int    `json:"quantity"`
}

// MergeLines folds duplicate (product, size) lines into one, keeping first-seen order.
func MergeLines(lines []StockLine) []StockLine {
	index := make(map[string]int, len(lines))
	merged := make([]StockLine, 0, len(lines))
	for _, l := range lines {
		key := l.ProductID + "\x00" + l.Size
		if i, ok := index[key]; ok {
			merged[i].Quantity += l.Quantity
			continue
		}
		index[key] = len(merged)
		merged = append(merged, l)
	}
	return merged
}

// ProductIDs returns the distinct product ids referenced by lines.
func ProductIDs(lines []StockLine) []string {
	seen := make(map[string]struct{}, len(lines))
	ids := make([]string, 0, len(lines))
	for _, l := range lines {
		if _, ok := seen[l.ProductID]; ok {
			continue
		}
		seen[l.ProductID] = struct{}{}
		ids = append(ids, l.ProductID)
	}
	return ids
}

// ValidSizeLabel rejects labels that cannot be used as a stored map key.
func ValidSizeLabel(size string) bool {
	s := strings.TrimSpace(size)
	return s != "" && s == size && !strings.ContainsAny(size, ".$")
}

// InsufficientStockError names the first line that cannot be satisfied.
type InsufficientStockError struct {
	ProductID string `json:"productId"`
	SKU       string `json:"sku"`
	Size      string `json:"size"`
	Requested int    `json:"requested"`
	Available int    `json:"available"`
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("insufficient stock for %s size %s: requested %d, available %d",
		e.SKU, e.Size, e.Requested, e.Available)
}

package domain

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"
)

// FreeGift is a promotional item unlocked by regular cart spend.
type FreeGift struct {
	// ID is the storage identifier.
	ID string `json:"id"`
	// SKU identifies the gift product.
	SKU string `json:"sku"`
	// MinBilling is the regular subtotal needed to claim the gift.
	MinBilling decimal.Decimal `json:"minBilling"`
	// Price is what the customer pays for the gift, often zero.
	Price decimal.Decimal `json:"price"`
	// IsActive hides retired gifts.
	IsActive bool `json:"isActive"`
	// CreatedAt breaks ties between equal thresholds.
	CreatedAt time.Time `json:"createdAt"`
}

// GiftProgress tells the cart how far it is from the next gift.
type GiftProgress struct {
	Gift      FreeGift        `json:"gift"`
	Remaining decimal.Decimal `json:"remaining"`
}

// SortGifts orders gifts by ascending threshold. Equal thresholds put the most
// recently created last, then SKU descending, so the last eligible entry is the winner.
func SortGifts(gifts []FreeGift) []FreeGift {
	out := make([]FreeGift, len(gifts))
	copy(out, gifts)
	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if !a.MinBilling.Equal(b.MinBilling) {
			return a.MinBilling.LessThan(b.MinBilling)
		}
		if !a.CreatedAt.Equal(b.CreatedAt) {
			return a.CreatedAt.Before(b.CreatedAt)
		}
		return a.SKU > b.SKU
	})
	return out
}

// UnlockedGift returns the highest-threshold active gift with MinBilling <= regularSubtotal.
// Ties go to the most recently created gift, then to the lowest SKU.
func UnlockedGift(gifts []FreeGift, regularSubtotal decimal.Decimal) *FreeGift {
	var unlocked *FreeGift
	for _, g := range SortGifts(gifts) {
		if !g.IsActive || g.MinBilling.GreaterThan(regularSubtotal) {
			continue
		}
		g := g
		unlocked = &g
	}
	return unlocked
}

// NextGift returns the lowest-threshold active gift still locked, with the amount left to spend.
func NextGift(gifts []FreeGift, regularSubtotal decimal.Decimal) *GiftProgress {
	for _, g := range SortGifts(gifts) {
		if g.IsActive && g.MinBilling.GreaterThan(regularSubtotal) {
			return &GiftProgress{Gift: g, Remaining: g.MinBilling.Sub(regularSubtotal)}
		}
	}
	return nil
}

package domain

import (
	"errors"
	"fmt"
	"strings"
	"time"

	catalog "storefront-checkout/internal/features/catalog/domain"

	"github.com/shopspring/decimal"
)

var (
	// ErrEmptyCart is returned when no lines were submitted.
	ErrEmptyCart = errors.New("cart is empty")
	// ErrInvalidLine is returned for malformed cart lines.
	ErrInvalidLine = errors.New("invalid cart line")
)

// Reasons reported for invalid gift lines.
const (
	GiftReasonNotAGift   = "not_a_gift"
	GiftReasonLocked     = "locked"
	GiftReasonQuantity   = "quantity_must_be_one"
	GiftReasonDuplicate  = "duplicate_gift"
	GiftReasonSuperseded = "superseded"
)

// CartLine is client supplied and never trusted for price.
type CartLine struct {
	ProductID string `json:"productId"`
	Size      string `json:"size"`
	Quantity  int    `json:"quantity"`
	IsGift    bool   `json:"isGift"`
}

// StockLines converts cart lines to ledger lines.
func StockLines(lines []CartLine) []catalog.StockLine {
	out := make([]catalog.StockLine, 0, len(lines))
	for _, l := range lines {
		out = append(out, catalog.StockLine{ProductID: l.ProductID, Size: l.Size, Quantity: l.Quantity})
	}
	return out
}

// QuoteLine is a priced cart line.
type QuoteLine struct {
	ProductID string          `json:"productId"`
	SKU       string          `json:"sku"`
	Name      string          `json:"name"`
	Size      string          `json:"size"`
	Quantity  int             `json:"quantity"`
	UnitPrice decimal.Decimal `json:"unitPrice"`
	LineTotal decimal.Decimal `json:"lineTotal"`
	IsGift    bool            `json:"isGift"`
}

// InvalidGift flags a gift line that cannot be checked out as is.
type InvalidGift struct {
	ProductID  string          `json:"productId"`
	SKU        string          `json:"sku"`
	Reason     string          `json:"reason"`
	MinBilling decimal.Decimal `json:"minBilling"`
}

// InvalidGiftError blocks checkout until the flagged gift lines are removed.
type InvalidGiftError struct {
	Lines []InvalidGift `json:"lines"`
}

func (e *InvalidGiftError) Error() string {
	skus := make([]string, 0, len(e.Lines))
	for _, l := range e.Lines {
		skus = append(skus, l.SKU+" ("+l.Reason+")")
	}
	return "invalid gift lines: " + strings.Join(skus, ", ")
}

// Quote is the output of Calculate. It is a pure value.
type Quote struct {
	RegularSubtotal decimal.Decimal `json:"regularSubtotal"`
	GiftTotal       decimal.Decimal `json:"giftTotal"`
	Subtotal        decimal.Decimal `json:"subtotal"`
	Discount        decimal.Decimal `json:"discount"`
	Total           decimal.Decimal `json:"total"`
	Coupon          *Coupon         `json:"coupon,omitempty"`
	Lines           []QuoteLine     `json:"lines"`
	InvalidGifts    []InvalidGift   `json:"invalidGifts,omitempty"`
	UnlockedGift    *FreeGift       `json:"unlockedGift,omitempty"`
	NextGift        *GiftProgress   `json:"nextGift,omitempty"`
}

// Input gathers everything Calculate needs.
type Input struct {
	Lines []CartLine
	// Products are keyed by product id.
	Products map[string]*catalog.Product
	// Coupon is nil when no code was entered. CouponCode is set when a code
	// was entered but no coupon matched it.
	Coupon     *Coupon
	CouponCode string
	Gifts      []FreeGift
	Now        time.Time
}

// Calculate prices a cart. Invalid gift lines are excluded from totals and
// reported in InvalidGifts. An inapplicable coupon is an error, never silently dropped.
func Calculate(in Input) (Quote, error) {
	if len(in.Lines) == 0 {
		return Quote{}, ErrEmptyCart
	}

	giftsBySKU := make(map[string]FreeGift, len(in.Gifts))
	for _, g := range in.Gifts {
		if !g.IsActive {
			continue
		}
		if cur, ok := giftsBySKU[g.SKU]; !ok || g.CreatedAt.After(cur.CreatedAt) {
			giftsBySKU[g.SKU] = g
		}
	}

	q := Quote{
		RegularSubtotal: decimal.Zero,
		GiftTotal:       decimal.Zero,
		Discount:        decimal.Zero,
		Lines:           make([]QuoteLine, 0, len(in.Lines)),
	}

	var giftLines []CartLine
	for _, l := range in.Lines {
		if err := validateLine(l, in.Products); err != nil {
			return Quote{}, err
		}
		if l.IsGift {
			giftLines = append(giftLines, l)
			continue
		}
		p := in.Products[l.ProductID]
		lineTotal := p.OfferPrice.Mul(decimal.NewFromInt(int64(l.Quantity)))
		q.RegularSubtotal = q.RegularSubtotal.Add(lineTotal)
		q.Lines = append(q.Lines, QuoteLine{
			ProductID: p.ID,
			SKU:       p.SKU,
			Name:      p.Name,
			Size:      l.Size,
			Quantity:  l.Quantity,
			UnitPrice: p.OfferPrice,
			LineTotal: lineTotal,
		})
	}

	// Only the unlocked gift can be claimed. Lower tiers are superseded once a
	// higher threshold is reached.
	unlocked := UnlockedGift(in.Gifts, q.RegularSubtotal)
	claimed := make(map[string]bool)
	for _, l := range giftLines {
		p := in.Products[l.ProductID]
		g, ok := giftsBySKU[p.SKU]
		switch {
		case !ok:
			q.InvalidGifts = append(q.InvalidGifts, InvalidGift{ProductID: p.ID, SKU: p.SKU, Reason: GiftReasonNotAGift})
			continue
		case l.Quantity != 1:
			q.InvalidGifts = append(q.InvalidGifts, InvalidGift{ProductID: p.ID, SKU: p.SKU, Reason: GiftReasonQuantity, MinBilling: g.MinBilling})
			continue
		case claimed[g.SKU]:
			q.InvalidGifts = append(q.InvalidGifts, InvalidGift{ProductID: p.ID, SKU: p.SKU, Reason: GiftReasonDuplicate, MinBilling: g.MinBilling})
			continue
		case q.RegularSubtotal.LessThan(g.MinBilling):
			q.InvalidGifts = append(q.InvalidGifts, InvalidGift{ProductID: p.ID, SKU: p.SKU, Reason: GiftReasonLocked, MinBilling: g.MinBilling})
			continue
		case unlocked != nil && unlocked.SKU != g.SKU:
			q.InvalidGifts = append(q.InvalidGifts, InvalidGift{ProductID: p.ID, SKU: p.SKU, Reason: GiftReasonSuperseded, MinBilling: g.MinBilling})
			continue
		}

		claimed[g.SKU] = true
		q.GiftTotal = q.GiftTotal.Add(g.Price)
		q.Lines = append(q.Lines, QuoteLine{
			ProductID: p.ID,
			SKU:       p.SKU,
			Name:      p.Name,
			Size:      l.Size,
			Quantity:  1,
			UnitPrice: g.Price,
			LineTotal: g.Price,
			IsGift:    true,
		})
	}

	q.Subtotal = q.RegularSubtotal.Add(q.GiftTotal)
	q.UnlockedGift = unlocked
	q.NextGift = NextGift(in.Gifts, q.RegularSubtotal)

	if in.Coupon == nil && in.CouponCode != "" {
		return Quote{}, &CouponError{Code: NormalizeCode(in.CouponCode), Reason: CouponReasonNotFound}
	}
	if c := in.Coupon; c != nil {
		if c.Expired(in.Now) {
			return Quote{}, &CouponError{Code: c.Code, Reason: CouponReasonExpired}
		}
		if q.Subtotal.LessThan(c.MinBilling) {
			min := c.MinBilling
			return Quote{}, &CouponError{Code: c.Code, Reason: CouponReasonBelowMinBilling, MinBilling: &min}
		}
		q.Discount = c.Discount(q.RegularSubtotal, q.Subtotal)
		q.Coupon = c
	}

	q.Total = q.Subtotal.Sub(q.Discount)
	if q.Total.IsNegative() {
		q.Total = decimal.Zero
	}
	return q, nil
}

func validateLine(l CartLine, products map[string]*catalog.Product) error {
	if l.ProductID == "" {
		return fmt.Errorf("%w: productId is required", ErrInvalidLine)
	}
	if l.Quantity < 1 {
		return fmt.Errorf("%w: quantity must be at least 1 for %s", ErrInvalidLine, l.ProductID)
	}
	if l.Size == "" {
		return fmt.Errorf("%w: size is required for %s", ErrInvalidLine, l.ProductID)
	}
	p, ok := products[l.ProductID]
	if !ok {
		return fmt.Errorf("%w: %s", catalog.ErrProductNotFound, l.ProductID)
	}
	if _, ok := p.Available(l.Size); !ok {
		return fmt.Errorf("%w: %s size %s", catalog.ErrUnknownSize, p.SKU, l.Size)
	}
	return nil
}

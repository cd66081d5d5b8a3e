package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"storefront-checkout/internal/core/config"
	"storefront-checkout/internal/core/database"
	"storefront-checkout/internal/core/logger"
	catalog "storefront-checkout/internal/features/catalog/domain"
	"storefront-checkout/internal/features/checkout/domain"
	"storefront-checkout/internal/features/checkout/ports"
	orders "storefront-checkout/internal/features/orders/domain"
	pricing "storefront-checkout/internal/features/pricing/domain"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	codeAttempts = 5
	// createAttempts retries the whole transaction when a code collides at insert time.
	createAttempts = 3
)

// Dependencies wires a CheckoutService.
type Dependencies struct {
	Pricer   ports.Pricer
	Ledger   ports.StockLedger
	Orders   ports.OrderStore
	Tx       database.TxRunner
	Gateway  ports.PaymentGateway
	Intents  ports.IntentStore
	Notifier ports.Notifier
	Config   config.CheckoutConfig
	// KeyID is the gateway public key handed to clients.
	KeyID string
}

// CheckoutService is the only way orders come into existence. It prices the
// cart on the server, reserves stock and persists the order in one transaction.
type CheckoutService struct {
	pricer   ports.Pricer
	ledger   ports.StockLedger
	orders   ports.OrderStore
	tx       database.TxRunner
	gateway  ports.PaymentGateway
	intents  ports.IntentStore
	notifier ports.Notifier
	cfg      config.CheckoutConfig
	keyID    string
	now      func() time.Time
	newCode  func() (string, error)
}

// NewCheckoutService creates a new instance of CheckoutService.
func NewCheckoutService(d Dependencies) *CheckoutService {
	return &CheckoutService{
		pricer:   d.Pricer,
		ledger:   d.Ledger,
		orders:   d.Orders,
		tx:       d.Tx,
		gateway:  d.Gateway,
		intents:  d.Intents,
		notifier: d.Notifier,
		cfg:      d.Config,
		keyID:    d.KeyID,
		now:      func() time.Time { return time.Now().UTC() },
		newCode:  orders.NewOrderCode,
	}
}

// PlaceOrder creates a cash on delivery order: unpaid and pending.
func (s *CheckoutService) PlaceOrder(ctx context.Context, userID string, req domain.CheckoutRequest) (*orders.Order, error) {
	if strings.TrimSpace(req.AddressID) == "" {
		return nil, domain.ErrMissingAddress
	}

	draft := orders.Order{
		UserID:        userID,
		AddressID:     req.AddressID,
		Status:        orders.StatusPending,
		PaymentStatus: orders.PaymentUnpaid,
		PaymentMethod: orders.PaymentMethodCOD,
	}
	order, reserved, err := s.create(ctx, draft, req.Products, req.CouponCode, nil)
	if err != nil {
		return nil, err
	}

	logger.Named("checkout").Info("Order placed",
		zap.String("order_code", order.OrderCode),
		zap.String("user_id", userID),
		zap.String("total", order.TotalAmount.String()),
		zap.String("payment_method", string(order.PaymentMethod)),
	)
	s.broadcast(ctx, order, reserved)
	return order, nil
}

// CreatePaymentIntent prices the cart, checks stock without reserving it and
// opens a gateway order for the server total. The cart is cached so the
// verification can be priced again from the same lines.
func (s *CheckoutService) CreatePaymentIntent(ctx context.Context, userID string, req domain.CheckoutRequest) (*domain.PaymentIntent, error) {
	if strings.TrimSpace(req.AddressID) == "" {
		return nil, domain.ErrMissingAddress
	}

	quote, err := s.pricer.PriceForCheckout(ctx, req.Products, req.CouponCode)
	if err != nil {
		return nil, err
	}
	if _, err := s.ledger.Check(ctx, stockLines(quote)); err != nil {
		return nil, err
	}

	amount := domain.ToPaise(quote.Total)
	if amount <= 0 {
		return nil, domain.ErrNothingToCharge
	}

	gw, err := s.gateway.CreateOrder(ctx, amount, s.cfg.Currency, uuid.NewString()[:32])
	if err != nil {
		return nil, &domain.GatewayError{Op: "create order", Err: err}
	}

	intent := domain.Intent{
		GatewayOrderID: gw.ID,
		UserID:         userID,
		AmountPaise:    amount,
		Currency:       s.cfg.Currency,
		Lines:          req.Products,
		CouponCode:     req.CouponCode,
		AddressID:      req.AddressID,
		CreatedAt:      s.now(),
	}
	l := logger.Named("checkout")
	// Verification falls back to the gateway when the intent is missing.
	if err := s.intents.Save(ctx, intent, s.cfg.PaymentIntentTTL); err != nil {
		l.Warn("Failed to cache payment intent", zap.String("gateway_order_id", gw.ID), zap.Error(err))
	}

	l.Info("Payment intent created",
		zap.String("gateway_order_id", gw.ID),
		zap.String("user_id", userID),
		zap.Int64("amount", amount),
	)
	return &domain.PaymentIntent{
		OrderID:  gw.ID,
		Amount:   amount,
		Currency: s.cfg.Currency,
		KeyID:    s.keyID,
		Total:    quote.Total,
	}, nil
}

// VerifyPayment turns a signed gateway callback into a paid order. The cart is
// priced and reserved again inside the transaction and the result must equal
// what the customer paid. A retried callback returns the order created by the
// first one without touching stock.
func (s *CheckoutService) VerifyPayment(ctx context.Context, userID string, req domain.VerifyRequest) (*orders.Order, bool, error) {
	if req.GatewayOrderID == "" || req.GatewayPaymentID == "" || req.Signature == "" {
		return nil, false, domain.ErrMissingPaymentFields
	}
	if !s.gateway.VerifySignature(req.GatewayOrderID, req.GatewayPaymentID, req.Signature) {
		return nil, false, &domain.SignatureError{GatewayOrderID: req.GatewayOrderID}
	}

	if existing, err := s.existing(ctx, userID, req.GatewayPaymentID); existing != nil || err != nil {
		return existing, existing != nil, err
	}

	l := logger.Named("checkout")
	intent, err := s.intents.Get(ctx, req.GatewayOrderID)
	if err != nil {
		if !errors.Is(err, domain.ErrIntentNotFound) {
			l.Warn("Failed to read payment intent", zap.String("gateway_order_id", req.GatewayOrderID), zap.Error(err))
		}
		intent = nil
	}
	if intent != nil && intent.UserID != userID {
		return nil, false, domain.ErrIntentOwner
	}

	paid, err := s.paidAmount(ctx, req.GatewayOrderID, intent)
	if err != nil {
		return nil, false, err
	}

	lines, coupon, address := req.Products, req.CouponCode, req.AddressID
	if len(lines) == 0 && intent != nil {
		lines, coupon = intent.Lines, intent.CouponCode
	}
	if address == "" && intent != nil {
		address = intent.AddressID
	}
	if strings.TrimSpace(address) == "" {
		return nil, false, domain.ErrMissingAddress
	}

	draft := orders.Order{
		UserID:        userID,
		AddressID:     address,
		Status:        orders.StatusPending,
		PaymentStatus: orders.PaymentPaid,
		PaymentMethod: orders.PaymentMethodOnline,
		Payment: &orders.Payment{
			GatewayOrderID:   req.GatewayOrderID,
			GatewayPaymentID: req.GatewayPaymentID,
		},
	}
	order, reserved, err := s.create(ctx, draft, lines, coupon, func(q *pricing.Quote) error {
		if expected := domain.ToPaise(q.Total); expected != paid {
			return &domain.AmountMismatchError{ExpectedPaise: expected, PaidPaise: paid}
		}
		return nil
	})
	if errors.Is(err, orders.ErrDuplicatePayment) {
		// A concurrent callback for the same payment won the insert.
		existing, gerr := s.existing(ctx, userID, req.GatewayPaymentID)
		if gerr != nil || existing == nil {
			return nil, false, fmt.Errorf("checkout: duplicate payment lookup failed: %w", err)
		}
		return existing, true, nil
	}
	if err != nil {
		var mismatch *domain.AmountMismatchError
		if errors.As(err, &mismatch) {
			l.Error("Captured payment does not match cart total",
				zap.String("gateway_order_id", req.GatewayOrderID),
				zap.String("gateway_payment_id", req.GatewayPaymentID),
				zap.Int64("paid", mismatch.PaidPaise),
				zap.Int64("expected", mismatch.ExpectedPaise),
			)
		}
		return nil, false, err
	}

	if err := s.intents.Delete(ctx, req.GatewayOrderID); err != nil {
		l.Warn("Failed to delete payment intent", zap.String("gateway_order_id", req.GatewayOrderID), zap.Error(err))
	}

	l.Info("Payment verified",
		zap.String("order_code", order.OrderCode),
		zap.String("user_id", userID),
		zap.String("gateway_payment_id", req.GatewayPaymentID),
		zap.Int64("amount", paid),
	)
	s.broadcast(ctx, order, reserved)
	return order, false, nil
}

// create prices, reserves and persists draft in one transaction bounded by the
// checkout timeout. check, when set, can veto the quote before stock is touched.
func (s *CheckoutService) create(ctx context.Context, draft orders.Order, lines []pricing.CartLine, coupon string, check func(*pricing.Quote) error) (*orders.Order, []*catalog.Product, error) {
	if s.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.cfg.Timeout)
		defer cancel()
	}

	var (
		order    *orders.Order
		reserved []*catalog.Product
		err      error
	)
	for attempt := 1; attempt <= createAttempts; attempt++ {
		err = s.tx.WithinTx(ctx, func(ctx context.Context) error {
			quote, err := s.pricer.PriceForCheckout(ctx, lines, coupon)
			if err != nil {
				return err
			}
			if check != nil {
				if err := check(quote); err != nil {
					return err
				}
			}

			products, err := s.ledger.Reserve(ctx, stockLines(quote))
			if err != nil {
				return err
			}

			code, err := s.uniqueCode(ctx)
			if err != nil {
				return err
			}

			o := draft
			fill(&o, quote, code, s.now())
			if err := s.orders.Create(ctx, &o); err != nil {
				return err
			}
			if err := s.pricer.RecordUsage(ctx, quote, o.ID, o.UserID); err != nil {
				return err
			}

			order, reserved = &o, products
			return nil
		})
		if !errors.Is(err, orders.ErrDuplicateOrderCode) {
			break
		}
	}
	if err != nil {
		return nil, nil, err
	}
	return order, reserved, nil
}

func (s *CheckoutService) uniqueCode(ctx context.Context) (string, error) {
	for i := 0; i < codeAttempts; i++ {
		code, err := s.newCode()
		if err != nil {
			return "", fmt.Errorf("checkout: failed to generate order code: %w", err)
		}
		taken, err := s.orders.CodeExists(ctx, code)
		if err != nil {
			return "", err
		}
		if !taken {
			return code, nil
		}
	}
	return "", domain.ErrCodeExhausted
}

// existing returns the order already created for paymentID, or nil.
func (s *CheckoutService) existing(ctx context.Context, userID, paymentID string) (*orders.Order, error) {
	o, err := s.orders.GetByPaymentID(ctx, paymentID)
	if errors.Is(err, orders.ErrOrderNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if o.UserID != userID {
		return nil, domain.ErrIntentOwner
	}
	return o, nil
}

// paidAmount prefers the cached intent and asks the gateway otherwise.
func (s *CheckoutService) paidAmount(ctx context.Context, gatewayOrderID string, intent *domain.Intent) (int64, error) {
	if intent != nil {
		return intent.AmountPaise, nil
	}
	gw, err := s.gateway.FetchOrder(ctx, gatewayOrderID)
	if err != nil {
		return 0, &domain.GatewayError{Op: "fetch order", Err: err}
	}
	return gw.Amount, nil
}

func (s *CheckoutService) broadcast(ctx context.Context, order *orders.Order, reserved []*catalog.Product) {
	if s.notifier == nil {
		return
	}
	s.notifier.OrderCreated(ctx, order)
	for _, p := range reserved {
		s.notifier.StockUpdated(ctx, p)
	}
}

func fill(o *orders.Order, q *pricing.Quote, code string, now time.Time) {
	o.OrderCode = code
	o.Products = make([]orders.OrderLine, 0, len(q.Lines))
	for _, l := range q.Lines {
		o.Products = append(o.Products, orders.OrderLine{
			ProductID: l.ProductID,
			SKU:       l.SKU,
			Name:      l.Name,
			Size:      l.Size,
			Quantity:  l.Quantity,
			Price:     l.UnitPrice,
			IsGift:    l.IsGift,
		})
	}
	o.Subtotal = q.Subtotal
	o.Discount = q.Discount
	o.TotalAmount = q.Total
	if q.Coupon != nil {
		o.CouponCode = q.Coupon.Code
	}
	o.CreatedAt = now
	o.UpdatedAt = now
}

func stockLines(q *pricing.Quote) []catalog.StockLine {
	out := make([]catalog.StockLine, 0, len(q.Lines))
	for _, l := range q.Lines {
		out = append(out, catalog.StockLine{ProductID: l.ProductID, Size: l.Size, Quantity: l.Quantity})
	}
	return out
}

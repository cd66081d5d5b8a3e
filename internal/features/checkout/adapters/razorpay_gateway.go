package adapters

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"net/http"
	"net/url"
	"strings"
	"time"

	"storefront-checkout/internal/core/breaker"
	"storefront-checkout/internal/core/httpclient"
	"storefront-checkout/internal/core/logger"
	"storefront-checkout/internal/features/checkout/domain"

	"go.uber.org/zap"
)

const razorpayTimeout = 15 * time.Second

// RazorpayGateway implements ports.PaymentGateway against the Razorpay Orders API.
type RazorpayGateway struct {
	baseURL   string
	keyID     string
	keySecret string
	client    *http.Client
	breaker   *breaker.Breaker
	logger    *zap.Logger
}

// NewRazorpayGateway creates a gateway client. Calls are authenticated with the key pair.
func NewRazorpayGateway(baseURL, keyID, keySecret string) *RazorpayGateway {
	return &RazorpayGateway{
		baseURL:   strings.TrimRight(baseURL, "/"),
		keyID:     keyID,
		keySecret: keySecret,
		client:    httpclient.NewClient("razorpay", razorpayTimeout),
		breaker:   breaker.New("razorpay", breaker.Settings{IsClientError: isClientError}),
		logger:    logger.Named("razorpay"),
	}
}

// razorpayOrder is the subset of the order entity we read.
type razorpayOrder struct {
	ID         string `json:"id"`
	Amount     int64  `json:"amount"`
	AmountPaid int64  `json:"amount_paid"`
	Currency   string `json:"currency"`
	Receipt    string `json:"receipt"`
	Status     string `json:"status"`
}

type createOrderRequest struct {
	Amount   int64  `json:"amount"`
	Currency string `json:"currency"`
	Receipt  string `json:"receipt"`
}

// CreateOrder registers an amount in paise.
func (g *RazorpayGateway) CreateOrder(ctx context.Context, amountPaise int64, currency, receipt string) (*domain.GatewayOrder, error) {
	var out razorpayOrder
	err := g.breaker.Do(func() error {
		return httpclient.DoJSON(ctx, g.client, httpclient.Request{
			Method:   http.MethodPost,
			URL:      g.baseURL + "/v1/orders",
			User:     g.keyID,
			Password: g.keySecret,
			Body:     createOrderRequest{Amount: amountPaise, Currency: currency, Receipt: receipt},
		}, &out)
	})
	if err != nil {
		return nil, err
	}

	g.logger.Debug("Gateway order created", zap.String("gateway_order_id", out.ID), zap.Int64("amount", out.Amount))
	return toDomain(out), nil
}

// FetchOrder reads a gateway order back.
func (g *RazorpayGateway) FetchOrder(ctx context.Context, gatewayOrderID string) (*domain.GatewayOrder, error) {
	var out razorpayOrder
	err := g.breaker.Do(func() error {
		return httpclient.DoJSON(ctx, g.client, httpclient.Request{
			Method:   http.MethodGet,
			URL:      g.baseURL + "/v1/orders/" + url.PathEscape(gatewayOrderID),
			User:     g.keyID,
			Password: g.keySecret,
		}, &out)
	})
	if err != nil {
		return nil, err
	}
	return toDomain(out), nil
}

// VerifySignature checks the HMAC-SHA256 of "order_id|payment_id" keyed with the key secret.
func (g *RazorpayGateway) VerifySignature(gatewayOrderID, paymentID, signature string) bool {
	got, err := hex.DecodeString(strings.TrimSpace(signature))
	if err != nil {
		return false
	}
	return hmac.Equal(got, g.sign(gatewayOrderID, paymentID))
}

func (g *RazorpayGateway) sign(gatewayOrderID, paymentID string) []byte {
	mac := hmac.New(sha256.New, []byte(g.keySecret))
	mac.Write([]byte(gatewayOrderID + "|" + paymentID))
	return mac.Sum(nil)
}

func toDomain(o razorpayOrder) *domain.GatewayOrder {
	return &domain.GatewayOrder{
		ID:       o.ID,
		Amount:   o.Amount,
		Currency: o.Currency,
		Receipt:  o.Receipt,
		Status:   o.Status,
	}
}

// isClientError keeps bad requests from tripping the breaker.
func isClientError(err error) bool {
	var se *httpclient.StatusError
	return errors.As(err, &se) && se.StatusCode >= 400 && se.StatusCode < 500 && se.StatusCode != http.StatusTooManyRequests
}

package adapter

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"storefront-checkout/internal/core/breaker"
	"storefront-checkout/internal/core/httpclient"
	"storefront-checkout/internal/core/logger"
	"storefront-checkout/internal/features/shipping/domain"

	"go.uber.org/zap"
)

const (
	shiprocketTimeout = 20 * time.Second
	// tokenLifetime is kept below the ten days Shiprocket tokens are valid for.
	tokenLifetime = 9 * 24 * time.Hour
)

// ShiprocketAdapter implements ports.Carrier against the Shiprocket REST API.
type ShiprocketAdapter struct {
	baseURL        string
	email          string
	password       string
	pickupLocation string
	client         *http.Client
	breaker        *breaker.Breaker
	logger         *zap.Logger
	now            func() time.Time

	mu      sync.Mutex
	token   string
	expires time.Time
}

// NewShiprocketAdapter creates a carrier client that logs in on first use.
func NewShiprocketAdapter(baseURL, email, password, pickupLocation string) *ShiprocketAdapter {
	return &ShiprocketAdapter{
		baseURL:        strings.TrimRight(baseURL, "/"),
		email:          email,
		password:       password,
		pickupLocation: pickupLocation,
		client:         httpclient.NewClient("shiprocket", shiprocketTimeout),
		breaker:        breaker.New("shiprocket", breaker.Settings{IsClientError: isClientError}),
		logger:         logger.Named("shiprocket"),
		now:            time.Now,
	}
}

type loginResponse struct {
	Token string `json:"token"`
}

type orderItem struct {
	Name         string `json:"name"`
	SKU          string `json:"sku"`
	Units        int    `json:"units"`
	SellingPrice string `json:"selling_price"`
}

// adhocOrder is the create order body. Billing and shipping are the same address.
type adhocOrder struct {
	OrderID             string      `json:"order_id"`
	OrderDate           string      `json:"order_date"`
	PickupLocation      string      `json:"pickup_location"`
	BillingCustomerName string      `json:"billing_customer_name"`
	BillingLastName     string      `json:"billing_last_name"`
	BillingAddress      string      `json:"billing_address"`
	BillingAddress2     string      `json:"billing_address_2,omitempty"`
	BillingCity         string      `json:"billing_city"`
	BillingPincode      string      `json:"billing_pincode"`
	BillingState        string      `json:"billing_state"`
	BillingCountry      string      `json:"billing_country"`
	BillingEmail        string      `json:"billing_email,omitempty"`
	BillingPhone        string      `json:"billing_phone"`
	ShippingIsBilling   bool        `json:"shipping_is_billing"`
	OrderItems          []orderItem `json:"order_items"`
	PaymentMethod       string      `json:"payment_method"`
	SubTotal            string      `json:"sub_total"`
	TotalDiscount       string      `json:"total_discount"`
	Length              float64     `json:"length"`
	Breadth             float64     `json:"breadth"`
	Height              float64     `json:"height"`
	Weight              float64     `json:"weight"`
}

type adhocResponse struct {
	OrderID    int64  `json:"order_id"`
	ShipmentID int64  `json:"shipment_id"`
	Status     string `json:"status"`
}

type assignRequest struct {
	ShipmentID string `json:"shipment_id"`
}

type assignResponse struct {
	AWBAssignStatus int `json:"awb_assign_status"`
	Response        struct {
		Data struct {
			AWBCode     string `json:"awb_code"`
			CourierName string `json:"courier_name"`
		} `json:"data"`
	} `json:"response"`
	Message string `json:"message"`
}

type labelRequest struct {
	ShipmentID []string `json:"shipment_id"`
}

type labelResponse struct {
	LabelCreated int    `json:"label_created"`
	LabelURL     string `json:"label_url"`
	Response     string `json:"response"`
}

// CreateShipment registers an adhoc order and returns the shipment id.
func (a *ShiprocketAdapter) CreateShipment(ctx context.Context, req domain.ShipmentRequest) (string, error) {
	body := a.adhocOrder(req)

	var out adhocResponse
	if err := a.call(ctx, http.MethodPost, "/v1/external/orders/create/adhoc", body, &out); err != nil {
		return "", err
	}
	if out.ShipmentID == 0 {
		return "", fmt.Errorf("carrier returned no shipment id (status %q)", out.Status)
	}

	id := strconv.FormatInt(out.ShipmentID, 10)
	a.logger.Info("Shipment created", zap.String("order_code", req.OrderCode), zap.String("shipment_id", id))
	return id, nil
}

// AssignAWB lets the carrier pick the recommended courier.
func (a *ShiprocketAdapter) AssignAWB(ctx context.Context, shipmentID string) (*domain.Assignment, error) {
	var out assignResponse
	if err := a.call(ctx, http.MethodPost, "/v1/external/courier/assign/awb", assignRequest{ShipmentID: shipmentID}, &out); err != nil {
		return nil, err
	}
	if out.AWBAssignStatus != 1 || out.Response.Data.AWBCode == "" {
		msg := out.Message
		if msg == "" {
			msg = "awb not assigned"
		}
		return nil, errors.New(msg)
	}
	return &domain.Assignment{AWB: out.Response.Data.AWBCode, Courier: out.Response.Data.CourierName}, nil
}

// GenerateLabel returns the label PDF URL.
func (a *ShiprocketAdapter) GenerateLabel(ctx context.Context, shipmentID string) (string, error) {
	var out labelResponse
	if err := a.call(ctx, http.MethodPost, "/v1/external/courier/generate/label", labelRequest{ShipmentID: []string{shipmentID}}, &out); err != nil {
		return "", err
	}
	if out.LabelCreated != 1 || out.LabelURL == "" {
		return "", fmt.Errorf("label not created: %s", out.Response)
	}
	return out.LabelURL, nil
}

func (a *ShiprocketAdapter) adhocOrder(req domain.ShipmentRequest) adhocOrder {
	first, last := splitName(req.Address.Name)
	country := req.Address.Country
	if country == "" {
		country = "India"
	}
	method := "Prepaid"
	if req.CashOnDelivery {
		method = "COD"
	}

	items := make([]orderItem, 0, len(req.Items))
	for _, it := range req.Items {
		items = append(items, orderItem{
			Name:         it.Name,
			SKU:          it.SKU,
			Units:        it.Units,
			SellingPrice: it.Price.StringFixed(2),
		})
	}

	return adhocOrder{
		OrderID:             req.OrderCode,
		OrderDate:           req.OrderDate.Format("2006-01-02 15:04"),
		PickupLocation:      a.pickupLocation,
		BillingCustomerName: first,
		BillingLastName:     last,
		BillingAddress:      req.Address.Line1,
		BillingAddress2:     req.Address.Line2,
		BillingCity:         req.Address.City,
		BillingPincode:      req.Address.Pincode,
		BillingState:        req.Address.State,
		BillingCountry:      country,
		BillingEmail:        req.Address.Email,
		BillingPhone:        req.Address.Phone,
		ShippingIsBilling:   true,
		OrderItems:          items,
		PaymentMethod:       method,
		SubTotal:            req.Total.StringFixed(2),
		TotalDiscount:       req.Discount.StringFixed(2),
		Length:              req.Parcel.LengthCm,
		Breadth:             req.Parcel.BreadthCm,
		Height:              req.Parcel.HeightCm,
		Weight:              req.Parcel.WeightKg,
	}
}

// call sends an authenticated request. A 401 drops the cached token and the
// request is retried once with a fresh login.
func (a *ShiprocketAdapter) call(ctx context.Context, method, path string, body, out interface{}) error {
	return a.breaker.Do(func() error {
		for attempt := 0; ; attempt++ {
			token, err := a.authToken(ctx)
			if err != nil {
				return err
			}
			err = httpclient.DoJSON(ctx, a.client, httpclient.Request{
				Method:  method,
				URL:     a.baseURL + path,
				Headers: map[string]string{"Authorization": "Bearer " + token},
				Body:    body,
			}, out)

			var se *httpclient.StatusError
			if attempt == 0 && errors.As(err, &se) && se.StatusCode == http.StatusUnauthorized {
				a.logger.Info("Token rejected, logging in again")
				a.invalidate(token)
				continue
			}
			return err
		}
	})
}

func (a *ShiprocketAdapter) authToken(ctx context.Context) (string, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.token != "" && a.now().Before(a.expires) {
		return a.token, nil
	}

	var out loginResponse
	err := httpclient.DoJSON(ctx, a.client, httpclient.Request{
		Method: http.MethodPost,
		URL:    a.baseURL + "/v1/external/auth/login",
		Body:   map[string]string{"email": a.email, "password": a.password},
	}, &out)
	if err != nil {
		return "", fmt.Errorf("carrier login failed: %w", err)
	}
	if out.Token == "" {
		return "", errors.New("carrier login returned no token")
	}

	a.token = out.Token
	a.expires = a.now().Add(tokenLifetime)
	a.logger.Debug("Logged in to carrier")
	return a.token, nil
}

// invalidate forgets token unless another caller already replaced it.
func (a *ShiprocketAdapter) invalidate(token string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.token == token {
		a.token = ""
	}
}

func splitName(full string) (string, string) {
	parts := strings.Fields(full)
	if len(parts) < 2 {
		return strings.TrimSpace(full), ""
	}
	return strings.Join(parts[:len(parts)-1], " "), parts[len(parts)-1]
}

// isClientError keeps rejected bookings from tripping the breaker. A 401 is
// retried inside the call and counts as a failure if it persists.
func isClientError(err error) bool {
	var se *httpclient.StatusError
	if !errors.As(err, &se) {
		return false
	}
	return se.StatusCode >= 400 && se.StatusCode < 500 &&
		se.StatusCode != http.StatusUnauthorized && se.StatusCode != http.StatusTooManyRequests
}

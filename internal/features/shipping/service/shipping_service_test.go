package service

import (
	"context"
	"errors"
	"testing"

	catalog "storefront-checkout/internal/features/catalog/domain"
	catalogservice "storefront-checkout/internal/features/catalog/service"
	orders "storefront-checkout/internal/features/orders/domain"
	orderservice "storefront-checkout/internal/features/orders/service"
	"storefront-checkout/internal/features/shipping/domain"
	"storefront-checkout/internal/testutil/memstore"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeCarrier struct {
	createErr error
	assignErr error
	labelErr  error
	created   int
	assigned  []string
	requests  []domain.ShipmentRequest
}

func (f *fakeCarrier) CreateShipment(ctx context.Context, req domain.ShipmentRequest) (string, error) {
	if f.createErr != nil {
		return "", f.createErr
	}
	f.created++
	f.requests = append(f.requests, req)
	return "ship-1", nil
}

func (f *fakeCarrier) AssignAWB(ctx context.Context, shipmentID string) (*domain.Assignment, error) {
	f.assigned = append(f.assigned, shipmentID)
	if f.assignErr != nil {
		return nil, f.assignErr
	}
	return &domain.Assignment{AWB: "AWB123", Courier: "Delhivery"}, nil
}

func (f *fakeCarrier) GenerateLabel(ctx context.Context, shipmentID string) (string, error) {
	if f.labelErr != nil {
		return "", f.labelErr
	}
	return "https://labels.example/" + shipmentID + ".pdf", nil
}

type fixture struct {
	store   *memstore.Store
	carrier *fakeCarrier
	svc     *ShippingService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	store := memstore.New()
	store.Products().Seed(&catalog.Product{ID: "tee", SKU: "TEE-BLK", OfferPrice: decimal.NewFromInt(600), Sizes: map[string]int{"M": 3}})
	orderSvc := orderservice.NewOrderService(store.Orders(), store, catalogservice.NewLedger(store.Products()), nil)
	carrier := &fakeCarrier{}
	return &fixture{store: store, carrier: carrier, svc: NewShippingService(carrier, orderSvc)}
}

func (f *fixture) seed(status orders.Status) *orders.Order {
	return f.store.Orders().Seed(&orders.Order{
		OrderCode:     "ORD-SHIP0001",
		UserID:        "u1",
		Status:        status,
		PaymentStatus: orders.PaymentPaid,
		Products:      []orders.OrderLine{{ProductID: "tee", SKU: "TEE-BLK", Name: "Black Tee", Size: "M", Quantity: 1, Price: decimal.NewFromInt(600)}},
		TotalAmount:   decimal.NewFromInt(600),
		Version:       1,
	})
}

func (f *fixture) reload(t *testing.T, id string) *orders.Order {
	t.Helper()
	o, err := f.store.Orders().GetByID(context.Background(), id)
	require.NoError(t, err)
	return o
}

var address = domain.Address{Name: "Asha", Phone: "9999999999", Line1: "12 MG Road", City: "Pune", State: "MH", Pincode: "411001"}

func TestShippingService_Book(t *testing.T) {
	f := newFixture(t)
	o := f.seed(orders.StatusProcessing)

	res, err := f.svc.Book(context.Background(), domain.BookRequest{OrderID: "ORD-SHIP0001", Address: address})
	require.NoError(t, err)
	assert.Empty(t, res.Warning)
	assert.Equal(t, "AWB123", res.AWB)
	assert.Equal(t, "https://labels.example/ship-1.pdf", res.LabelURL)
	assert.Equal(t, orders.StatusShipped, res.Order.Status)

	stored := f.reload(t, o.ID)
	assert.Equal(t, "AWB123", stored.TrackingID)
	assert.Equal(t, "ship-1", stored.ShipmentID)
	assert.Equal(t, "Delhivery", stored.Courier)

	require.Len(t, f.carrier.requests, 1)
	assert.False(t, f.carrier.requests[0].CashOnDelivery)
	assert.Equal(t, "ORD-SHIP0001", f.carrier.requests[0].OrderCode)
}

func TestShippingService_Book_PartialThenRetry(t *testing.T) {
	f := newFixture(t)
	o := f.seed(orders.StatusPending)
	f.carrier.assignErr = errors.New("no courier serviceable")

	res, err := f.svc.Book(context.Background(), domain.BookRequest{OrderID: o.ID, Address: address})
	require.NoError(t, err)
	assert.Contains(t, res.Warning, "courier assignment failed")
	assert.Equal(t, "ship-1", res.ShipmentID)

	stored := f.reload(t, o.ID)
	assert.Equal(t, orders.StatusPending, stored.Status)
	assert.Equal(t, "ship-1", stored.ShipmentID)
	assert.Empty(t, stored.TrackingID)

	f.carrier.assignErr = nil
	res, err = f.svc.Book(context.Background(), domain.BookRequest{OrderID: o.ID, Address: address})
	require.NoError(t, err)
	assert.Equal(t, orders.StatusShipped, res.Order.Status)
	assert.Equal(t, 1, f.carrier.created)
	assert.Equal(t, []string{"ship-1", "ship-1"}, f.carrier.assigned)
}

func TestShippingService_Book_LabelFailureIsWarning(t *testing.T) {
	f := newFixture(t)
	o := f.seed(orders.StatusProcessing)
	f.carrier.labelErr = errors.New("label service down")

	res, err := f.svc.Book(context.Background(), domain.BookRequest{OrderID: o.ID, Address: address})
	require.NoError(t, err)
	assert.Contains(t, res.Warning, "label generation failed")
	assert.Equal(t, orders.StatusShipped, f.reload(t, o.ID).Status)
}

func TestShippingService_Book_Failures(t *testing.T) {
	f := newFixture(t)
	o := f.seed(orders.StatusPending)

	_, err := f.svc.Book(context.Background(), domain.BookRequest{OrderID: o.ID})
	assert.ErrorIs(t, err, domain.ErrInvalidAddress)

	f.carrier.createErr = errors.New("502 from carrier")
	_, err = f.svc.Book(context.Background(), domain.BookRequest{OrderID: o.ID, Address: address})
	var ube *domain.UpstreamBookingError
	require.ErrorAs(t, err, &ube)
	assert.Equal(t, "create shipment", ube.Step)
	stored := f.reload(t, o.ID)
	assert.Equal(t, orders.StatusPending, stored.Status)
	assert.Empty(t, stored.ShipmentID)

	delivered := f.store.Orders().Seed(&orders.Order{OrderCode: "ORD-DONE0001", Status: orders.StatusDelivered, Version: 1})
	_, err = f.svc.Book(context.Background(), domain.BookRequest{OrderID: delivered.ID, Address: address})
	var ste *orders.StateTransitionError
	assert.ErrorAs(t, err, &ste)

	_, err = f.svc.Book(context.Background(), domain.BookRequest{OrderID: "ORD-MISSING1", Address: address})
	assert.ErrorIs(t, err, orders.ErrOrderNotFound)
}

func shippedOrder(t *testing.T, f *fixture) *orders.Order {
	t.Helper()
	o := f.seed(orders.StatusProcessing)
	_, err := f.svc.Book(context.Background(), domain.BookRequest{OrderID: o.ID, Address: address})
	require.NoError(t, err)
	return o
}

func TestShippingService_HandleWebhook_Idempotent(t *testing.T) {
	f := newFixture(t)
	o := shippedOrder(t, f)
	ev := domain.WebhookEvent{AWB: "AWB123", CurrentStatus: "DELIVERED", Timestamp: "23 05 2023 11:43:52"}

	for i := 0; i < 3; i++ {
		res, err := f.svc.HandleWebhook(context.Background(), ev)
		require.NoError(t, err)
		assert.Equal(t, orders.StatusDelivered, res.Status)
		if i == 0 {
			assert.Equal(t, domain.OutcomeApplied, res.Outcome)
		} else {
			assert.Equal(t, domain.OutcomeDuplicate, res.Outcome)
		}
	}

	stored := f.reload(t, o.ID)
	assert.Equal(t, orders.StatusDelivered, stored.Status)
	assert.Len(t, stored.TrackingHistory, 1)
}

func TestShippingService_HandleWebhook_RTOThenDelivered(t *testing.T) {
	f := newFixture(t)
	o := shippedOrder(t, f)
	ctx := context.Background()

	res, err := f.svc.HandleWebhook(ctx, domain.WebhookEvent{AWB: "AWB123", CurrentStatus: "RTO", Timestamp: "2023-05-23 11:00:00"})
	require.NoError(t, err)
	assert.Equal(t, orders.StatusReturned, res.Status)

	p, err := f.store.Products().GetByID(ctx, "tee")
	require.NoError(t, err)
	assert.Equal(t, 4, p.Sizes["M"])

	_, err = f.svc.HandleWebhook(ctx, domain.WebhookEvent{AWB: "AWB123", CurrentStatus: "Delivered", Timestamp: "2023-05-24 11:00:00"})
	var ste *orders.StateTransitionError
	require.ErrorAs(t, err, &ste)
	assert.Equal(t, string(orders.StatusReturned), ste.From)
	assert.Equal(t, string(orders.StatusDelivered), ste.To)

	stored := f.reload(t, o.ID)
	assert.Equal(t, orders.StatusReturned, stored.Status)
	assert.Len(t, stored.TrackingHistory, 1, "a rejected push leaves no trace")
}

func TestShippingService_HandleWebhook_Edges(t *testing.T) {
	f := newFixture(t)
	o := shippedOrder(t, f)
	ctx := context.Background()

	res, err := f.svc.HandleWebhook(ctx, domain.WebhookEvent{AWB: "AWB123", CurrentStatus: "Reached Destination Hub", Timestamp: "2023-05-23 08:00:00"})
	require.NoError(t, err)
	assert.Equal(t, domain.OutcomeApplied, res.Outcome)
	stored := f.reload(t, o.ID)
	assert.Equal(t, orders.StatusShipped, stored.Status)
	assert.Len(t, stored.TrackingHistory, 1)

	_, err = f.svc.HandleWebhook(ctx, domain.WebhookEvent{AWB: "NOPE", CurrentStatus: "Delivered"})
	assert.ErrorIs(t, err, orders.ErrOrderNotFound)

	_, err = f.svc.HandleWebhook(ctx, domain.WebhookEvent{CurrentStatus: "Delivered"})
	assert.ErrorIs(t, err, domain.ErrMissingAWB)
}

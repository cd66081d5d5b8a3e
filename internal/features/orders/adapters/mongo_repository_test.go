package adapters

import (
	"context"
	"errors"
	"testing"
	"time"

	"storefront-checkout/internal/features/orders/domain"
	"storefront-checkout/internal/features/orders/ports"
	"storefront-checkout/internal/testutil/mongotest"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func sampleOrder(code string) *domain.Order {
	at := time.Date(2026, 4, 2, 8, 0, 0, 0, time.UTC)
	return &domain.Order{
		OrderCode: code,
		UserID:    "u1",
		Products: []domain.OrderLine{
			{ProductID: "p1", SKU: "TEE", Size: "M", Quantity: 2, Price: decimal.RequireFromString("599.50")},
			{ProductID: "p2", SKU: "TOTE", Size: "OS", Quantity: 1, Price: decimal.Zero, IsGift: true},
		},
		Subtotal:      decimal.RequireFromString("1199.00"),
		Discount:      decimal.RequireFromString("100.00"),
		CouponCode:    "SOUL10",
		TotalAmount:   decimal.RequireFromString("1099.00"),
		Status:        domain.StatusDelivered,
		PaymentStatus: domain.PaymentPaid,
		PaymentMethod: domain.PaymentMethodOnline,
		Payment:       &domain.Payment{GatewayOrderID: "order_1", GatewayPaymentID: "pay_" + code},
		AddressID:     "addr-1",
		Exchange: &domain.Exchange{
			State:       domain.ExchangePending,
			Items:       []domain.ExchangeItem{{ProductID: "p1", FromSize: "M", ToSize: "L", Quantity: 1}},
			RequestedAt: at,
			UpdatedAt:   at,
		},
		TrackingHistory: []domain.TrackingEvent{{Status: "Delivered", Location: "Pune", Timestamp: at}},
		CreatedAt:       at,
	}
}

func TestOrderDocument_RoundTrip(t *testing.T) {
	o := sampleOrder("ORD-AAAA2222")
	doc := toDocument(o)
	doc.ID = primitive.NewObjectID()

	got := doc.toDomain()
	assert.Equal(t, doc.ID.Hex(), got.ID)
	assert.True(t, got.TotalAmount.Equal(o.TotalAmount))
	assert.True(t, got.Products[0].Price.Equal(o.Products[0].Price))
	assert.Equal(t, o.Exchange.Items, got.Exchange.Items)
	assert.Equal(t, o.TrackingHistory, got.TrackingHistory)
	assert.Equal(t, o.Payment, got.Payment)
}

func TestDuplicateReason(t *testing.T) {
	assert.Equal(t, domain.ErrDuplicatePayment, duplicateReason(errors.New("E11000 index: gatewayPaymentId_unique")))
	assert.Equal(t, domain.ErrDuplicateOrderCode, duplicateReason(errors.New("E11000 index: orderCode_unique")))
}

func TestMongoOrderRepository_Integration(t *testing.T) {
	db, _ := mongotest.Open(t)
	repo := NewMongoOrderRepository(db)
	ctx := context.Background()

	o := sampleOrder("ORD-BBBB3333")
	require.NoError(t, repo.Create(ctx, o))
	require.NotEmpty(t, o.ID)
	assert.Equal(t, int64(1), o.Version)

	t.Run("UniqueIndexes", func(t *testing.T) {
		dupCode := sampleOrder("ORD-BBBB3333")
		dupCode.Payment.GatewayPaymentID = "pay_other"
		assert.ErrorIs(t, repo.Create(ctx, dupCode), domain.ErrDuplicateOrderCode)

		dupPay := sampleOrder("ORD-CCCC4444")
		dupPay.Payment.GatewayPaymentID = o.Payment.GatewayPaymentID
		assert.ErrorIs(t, repo.Create(ctx, dupPay), domain.ErrDuplicatePayment)

		cod := sampleOrder("ORD-DDDD5555")
		cod.Payment = nil
		require.NoError(t, repo.Create(ctx, cod))
		cod2 := sampleOrder("ORD-EEEE6666")
		cod2.Payment = nil
		require.NoError(t, repo.Create(ctx, cod2), "orders without payment ids do not collide")
	})

	t.Run("Lookups", func(t *testing.T) {
		got, err := repo.GetByPaymentID(ctx, o.Payment.GatewayPaymentID)
		require.NoError(t, err)
		assert.Equal(t, o.ID, got.ID)

		exists, err := repo.CodeExists(ctx, "ORD-BBBB3333")
		require.NoError(t, err)
		assert.True(t, exists)

		_, err = repo.GetByTrackingID(ctx, "NOPE")
		assert.ErrorIs(t, err, domain.ErrOrderNotFound)
	})

	t.Run("OptimisticUpdate", func(t *testing.T) {
		a, err := repo.GetByID(ctx, o.ID)
		require.NoError(t, err)
		b, err := repo.GetByID(ctx, o.ID)
		require.NoError(t, err)

		a.TrackingID = "AWB1"
		require.NoError(t, repo.Update(ctx, a))
		assert.Equal(t, int64(2), a.Version)

		b.Courier = "late writer"
		assert.ErrorIs(t, repo.Update(ctx, b), domain.ErrVersionConflict)

		got, err := repo.GetByTrackingID(ctx, "AWB1")
		require.NoError(t, err)
		assert.Empty(t, got.Courier)
	})

	t.Run("ListByUser", func(t *testing.T) {
		list, err := repo.ListByUser(ctx, "u1", ports.ListFilter{Status: domain.StatusDelivered, Limit: 2})
		require.NoError(t, err)
		assert.Len(t, list, 2)
	})
}

package database

import (
	"context"
	"errors"
	"fmt"
	"time"

	"storefront-checkout/internal/core/logger"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"
)

// Collection names shared by the repositories.
const (
	CollectionProducts     = "products"
	CollectionOrders       = "orders"
	CollectionCoupons      = "coupons"
	CollectionCouponUsages = "coupon_usages"
	CollectionFreeGifts    = "free_gifts"
)

type indexSpec struct {
	collection string
	model      mongo.IndexModel
}

func indexSpecs() []indexSpec {
	exists := func(field string) bson.M {
		return bson.M{field: bson.M{"$exists": true, "$type": "string"}}
	}

	return []indexSpec{
		{CollectionProducts, mongo.IndexModel{
			Keys:    bson.D{{Key: "sku", Value: 1}},
			Options: options.Index().SetName("sku_unique").SetUnique(true),
		}},
		{CollectionOrders, mongo.IndexModel{
			Keys:    bson.D{{Key: "orderCode", Value: 1}},
			Options: options.Index().SetName("orderCode_unique").SetUnique(true),
		}},
		{CollectionOrders, mongo.IndexModel{
			Keys: bson.D{{Key: "payment.gatewayPaymentId", Value: 1}},
			Options: options.Index().
				SetName("gatewayPaymentId_unique").
				SetUnique(true).
				SetPartialFilterExpression(exists("payment.gatewayPaymentId")),
		}},
		{CollectionOrders, mongo.IndexModel{
			Keys: bson.D{{Key: "trackingId", Value: 1}},
			Options: options.Index().
				SetName("trackingId_unique").
				SetUnique(true).
				SetPartialFilterExpression(exists("trackingId")),
		}},
		{CollectionOrders, mongo.IndexModel{
			Keys:    bson.D{{Key: "userId", Value: 1}, {Key: "createdAt", Value: -1}},
			Options: options.Index().SetName("userId_createdAt_index"),
		}},
		{CollectionCoupons, mongo.IndexModel{
			Keys:    bson.D{{Key: "code", Value: 1}},
			Options: options.Index().SetName("code_unique").SetUnique(true),
		}},
		{CollectionCouponUsages, mongo.IndexModel{
			Keys:    bson.D{{Key: "couponId", Value: 1}, {Key: "orderId", Value: 1}},
			Options: options.Index().SetName("coupon_order_unique").SetUnique(true),
		}},
		{CollectionFreeGifts, mongo.IndexModel{
			Keys:    bson.D{{Key: "isActive", Value: 1}, {Key: "minBilling", Value: -1}},
			Options: options.Index().SetName("active_minBilling_index"),
		}},
	}
}

// legacyIndexes were replaced by a unique index on the same keys and must be
// dropped before it can be created.
var legacyIndexes = []struct{ collection, name string }{
	{CollectionOrders, "trackingId_index"},
}

// EnsureIndexes creates every index the repositories rely on. Unique indexes
// back order code uniqueness, single-use payment ids, one order per carrier
// AWB and coupon usage.
func EnsureIndexes(ctx context.Context, db *mongo.Database) error {
	ctx, cancel := context.WithTimeout(ctx, 15*time.Second)
	defer cancel()

	l := logger.Named("database")
	for _, legacy := range legacyIndexes {
		if _, err := db.Collection(legacy.collection).Indexes().DropOne(ctx, legacy.name); err != nil && !indexMissing(err) {
			return fmt.Errorf("failed to drop index %s on %s: %w", legacy.name, legacy.collection, err)
		}
	}
	for _, spec := range indexSpecs() {
		name, err := db.Collection(spec.collection).Indexes().CreateOne(ctx, spec.model)
		if err != nil {
			return fmt.Errorf("failed to create index on %s: %w", spec.collection, err)
		}
		l.Debug("Index ensured", zap.String("collection", spec.collection), zap.String("index", name))
	}
	return nil
}

// indexMissing reports whether a drop failed only because the index or its
// collection does not exist.
func indexMissing(err error) bool {
	var cmdErr mongo.CommandError
	if errors.As(err, &cmdErr) {
		return cmdErr.Code == 26 || cmdErr.Code == 27
	}
	return false
}

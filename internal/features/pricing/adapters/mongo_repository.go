package adapters

import (
	"context"
	"errors"
	"fmt"
	"time"

	"storefront-checkout/internal/core/database"
	"storefront-checkout/internal/features/pricing/domain"

	"github.com/shopspring/decimal"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type couponDocument struct {
	ID          primitive.ObjectID    `bson:"_id,omitempty"`
	Code        string                `bson:"code"`
	Type        string                `bson:"type"`
	Value       primitive.Decimal128  `bson:"value"`
	MinBilling  primitive.Decimal128  `bson:"minBilling"`
	MaxDiscount *primitive.Decimal128 `bson:"maxDiscount,omitempty"`
	Expiry      *time.Time            `bson:"expiry,omitempty"`
	IsVisible   bool                  `bson:"isVisible"`
	CreatedAt   time.Time             `bson:"createdAt"`
}

func (d couponDocument) toDomain() domain.Coupon {
	c := domain.Coupon{
		ID:         d.ID.Hex(),
		Code:       d.Code,
		Type:       domain.CouponType(d.Type),
		Value:      database.FromDecimal128(d.Value),
		MinBilling: database.FromDecimal128(d.MinBilling),
		Expiry:     d.Expiry,
		IsVisible:  d.IsVisible,
		CreatedAt:  d.CreatedAt,
	}
	if d.MaxDiscount != nil {
		max := database.FromDecimal128(*d.MaxDiscount)
		c.MaxDiscount = &max
	}
	return c
}

func couponFromDomain(c *domain.Coupon) couponDocument {
	doc := couponDocument{
		Code:       domain.NormalizeCode(c.Code),
		Type:       string(c.Type),
		Value:      database.ToDecimal128(c.Value),
		MinBilling: database.ToDecimal128(c.MinBilling),
		Expiry:     c.Expiry,
		IsVisible:  c.IsVisible,
		CreatedAt:  c.CreatedAt,
	}
	if c.MaxDiscount != nil {
		max := database.ToDecimal128(*c.MaxDiscount)
		doc.MaxDiscount = &max
	}
	if doc.CreatedAt.IsZero() {
		doc.CreatedAt = time.Now().UTC()
	}
	return doc
}

// MongoCouponRepository implements ports.CouponRepository and ports.CouponUsageLedger.
type MongoCouponRepository struct {
	coupons *mongo.Collection
	usages  *mongo.Collection
}

// NewMongoCouponRepository creates a repository over db.
func NewMongoCouponRepository(db *mongo.Database) *MongoCouponRepository {
	return &MongoCouponRepository{
		coupons: db.Collection(database.CollectionCoupons),
		usages:  db.Collection(database.CollectionCouponUsages),
	}
}

// Insert stores a coupon under its normalised code. Used for seeding.
func (r *MongoCouponRepository) Insert(ctx context.Context, c *domain.Coupon) error {
	res, err := r.coupons.InsertOne(ctx, couponFromDomain(c))
	if err != nil {
		return fmt.Errorf("failed to insert coupon %s: %w", c.Code, err)
	}
	c.ID = res.InsertedID.(primitive.ObjectID).Hex()
	return nil
}

func (r *MongoCouponRepository) GetByCode(ctx context.Context, code string) (*domain.Coupon, error) {
	var doc couponDocument
	err := r.coupons.FindOne(ctx, bson.M{"code": domain.NormalizeCode(code)}).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrCouponNotFound
		}
		return nil, fmt.Errorf("failed to get coupon: %w", err)
	}
	c := doc.toDomain()
	return &c, nil
}

func (r *MongoCouponRepository) ListVisible(ctx context.Context) ([]domain.Coupon, error) {
	opts := options.Find().SetSort(bson.D{{Key: "code", Value: 1}})
	cursor, err := r.coupons.Find(ctx, bson.M{"isVisible": true}, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to list coupons: %w", err)
	}

	var docs []couponDocument
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("failed to decode coupons: %w", err)
	}

	out := make([]domain.Coupon, 0, len(docs))
	for _, d := range docs {
		out = append(out, d.toDomain())
	}
	return out, nil
}

type usageDocument struct {
	CouponID string               `bson:"couponId"`
	Code     string               `bson:"code"`
	OrderID  string               `bson:"orderId"`
	UserID   string               `bson:"userId"`
	Savings  primitive.Decimal128 `bson:"savings"`
	At       time.Time            `bson:"at"`
}

func (r *MongoCouponRepository) Record(ctx context.Context, u domain.CouponUsage) error {
	_, err := r.usages.InsertOne(ctx, usageDocument{
		CouponID: u.CouponID,
		Code:     u.Code,
		OrderID:  u.OrderID,
		UserID:   u.UserID,
		Savings:  database.ToDecimal128(u.Savings),
		At:       u.At,
	})
	if err != nil {
		if database.IsDuplicateKey(err) {
			return domain.ErrUsageRecorded
		}
		return fmt.Errorf("failed to record coupon usage: %w", err)
	}
	return nil
}

// CountUsages returns how many orders have used the coupon.
func (r *MongoCouponRepository) CountUsages(ctx context.Context, couponID string) (int64, error) {
	n, err := r.usages.CountDocuments(ctx, bson.M{"couponId": couponID})
	if err != nil {
		return 0, fmt.Errorf("failed to count coupon usages: %w", err)
	}
	return n, nil
}

type giftDocument struct {
	ID         primitive.ObjectID   `bson:"_id,omitempty"`
	SKU        string               `bson:"sku"`
	MinBilling primitive.Decimal128 `bson:"minBilling"`
	Price      primitive.Decimal128 `bson:"price"`
	IsActive   bool                 `bson:"isActive"`
	CreatedAt  time.Time            `bson:"createdAt"`
}

// MongoGiftRepository implements ports.GiftRepository on the free_gifts collection.
type MongoGiftRepository struct {
	collection *mongo.Collection
}

// NewMongoGiftRepository creates a repository over db.
func NewMongoGiftRepository(db *mongo.Database) *MongoGiftRepository {
	return &MongoGiftRepository{collection: db.Collection(database.CollectionFreeGifts)}
}

// Insert stores a gift. Used for seeding.
func (r *MongoGiftRepository) Insert(ctx context.Context, g *domain.FreeGift) error {
	if g.CreatedAt.IsZero() {
		g.CreatedAt = time.Now().UTC()
	}
	res, err := r.collection.InsertOne(ctx, giftDocument{
		SKU:        g.SKU,
		MinBilling: database.ToDecimal128(g.MinBilling),
		Price:      database.ToDecimal128(g.Price),
		IsActive:   g.IsActive,
		CreatedAt:  g.CreatedAt,
	})
	if err != nil {
		return fmt.Errorf("failed to insert gift %s: %w", g.SKU, err)
	}
	g.ID = res.InsertedID.(primitive.ObjectID).Hex()
	return nil
}

func (r *MongoGiftRepository) ListActive(ctx context.Context) ([]domain.FreeGift, error) {
	cursor, err := r.collection.Find(ctx, bson.M{"isActive": true})
	if err != nil {
		return nil, fmt.Errorf("failed to list gifts: %w", err)
	}

	var docs []giftDocument
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("failed to decode gifts: %w", err)
	}

	out := make([]domain.FreeGift, 0, len(docs))
	for _, d := range docs {
		price := database.FromDecimal128(d.Price)
		if price.IsNegative() {
			price = decimal.Zero
		}
		out = append(out, domain.FreeGift{
			ID:         d.ID.Hex(),
			SKU:        d.SKU,
			MinBilling: database.FromDecimal128(d.MinBilling),
			Price:      price,
			IsActive:   d.IsActive,
			CreatedAt:  d.CreatedAt,
		})
	}
	return out, nil
}

package adapters

import (
	"context"
	"errors"
	"fmt"
	"time"

	"storefront-checkout/internal/core/database"
	"storefront-checkout/internal/features/catalog/domain"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type productDocument struct {
	ID          primitive.ObjectID   `bson:"_id,omitempty"`
	SKU         string               `bson:"sku"`
	Name        string               `bson:"name"`
	OfferPrice  primitive.Decimal128 `bson:"offerPrice"`
	ActualPrice primitive.Decimal128 `bson:"actualPrice"`
	Sizes       map[string]int       `bson:"sizes"`
	UpdatedAt   time.Time            `bson:"updatedAt"`
}

func (d productDocument) toDomain() *domain.Product {
	sizes := d.Sizes
	if sizes == nil {
		sizes = map[string]int{}
	}
	return &domain.Product{
		ID:          d.ID.Hex(),
		SKU:         d.SKU,
		Name:        d.Name,
		OfferPrice:  database.FromDecimal128(d.OfferPrice),
		ActualPrice: database.FromDecimal128(d.ActualPrice),
		Sizes:       sizes,
		UpdatedAt:   d.UpdatedAt,
	}
}

// MongoProductRepository implements ports.ProductRepository on the products collection.
// Counter changes are single-document conditional updates, so they are atomic
// even outside a transaction.
type MongoProductRepository struct {
	collection *mongo.Collection
}

// NewMongoProductRepository creates a repository over db.
func NewMongoProductRepository(db *mongo.Database) *MongoProductRepository {
	return &MongoProductRepository{collection: db.Collection(database.CollectionProducts)}
}

// Insert stores a new product and fills in its id. Used for seeding.
func (r *MongoProductRepository) Insert(ctx context.Context, p *domain.Product) error {
	doc := productDocument{
		SKU:         p.SKU,
		Name:        p.Name,
		OfferPrice:  database.ToDecimal128(p.OfferPrice),
		ActualPrice: database.ToDecimal128(p.ActualPrice),
		Sizes:       p.Sizes,
		UpdatedAt:   time.Now().UTC(),
	}
	res, err := r.collection.InsertOne(ctx, doc)
	if err != nil {
		return fmt.Errorf("failed to insert product %s: %w", p.SKU, err)
	}
	p.ID = res.InsertedID.(primitive.ObjectID).Hex()
	p.UpdatedAt = doc.UpdatedAt
	return nil
}

func (r *MongoProductRepository) GetByID(ctx context.Context, id string) (*domain.Product, error) {
	oid, ok := database.ObjectID(id)
	if !ok {
		return nil, domain.ErrProductNotFound
	}

	var doc productDocument
	if err := r.collection.FindOne(ctx, bson.M{"_id": oid}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrProductNotFound
		}
		return nil, fmt.Errorf("failed to get product: %w", err)
	}
	return doc.toDomain(), nil
}

func (r *MongoProductRepository) GetByIDs(ctx context.Context, ids []string) (map[string]*domain.Product, error) {
	out := make(map[string]*domain.Product, len(ids))
	oids := database.ObjectIDs(ids)
	if len(oids) == 0 {
		return out, nil
	}

	cursor, err := r.collection.Find(ctx, bson.M{"_id": bson.M{"$in": oids}})
	if err != nil {
		return nil, fmt.Errorf("failed to find products: %w", err)
	}
	defer cursor.Close(ctx)

	for cursor.Next(ctx) {
		var doc productDocument
		if err := cursor.Decode(&doc); err != nil {
			return nil, fmt.Errorf("failed to decode product: %w", err)
		}
		p := doc.toDomain()
		out[p.ID] = p
	}
	if err := cursor.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate products: %w", err)
	}
	return out, nil
}

func (r *MongoProductRepository) DecrementSize(ctx context.Context, id, size string, qty int) (bool, error) {
	oid, ok := database.ObjectID(id)
	if !ok {
		return false, nil
	}

	field := sizeField(size)
	filter := bson.M{"_id": oid, field: bson.M{"$gte": qty}}
	update := bson.M{
		"$inc": bson.M{field: -qty},
		"$set": bson.M{"updatedAt": time.Now().UTC()},
	}

	res, err := r.collection.UpdateOne(ctx, filter, update)
	if err != nil {
		return false, fmt.Errorf("failed to decrement stock: %w", err)
	}
	return res.ModifiedCount == 1, nil
}

func (r *MongoProductRepository) IncrementSize(ctx context.Context, id, size string, qty int) error {
	oid, ok := database.ObjectID(id)
	if !ok {
		return domain.ErrProductNotFound
	}

	field := sizeField(size)
	filter := bson.M{"_id": oid, field: bson.M{"$exists": true}}
	update := bson.M{
		"$inc": bson.M{field: qty},
		"$set": bson.M{"updatedAt": time.Now().UTC()},
	}

	res, err := r.collection.UpdateOne(ctx, filter, update)
	if err != nil {
		return fmt.Errorf("failed to increment stock: %w", err)
	}
	if res.MatchedCount == 0 {
		return r.missing(ctx, oid)
	}
	return nil
}

func (r *MongoProductRepository) SetSize(ctx context.Context, id, size string, count int) error {
	oid, ok := database.ObjectID(id)
	if !ok {
		return domain.ErrProductNotFound
	}

	update := bson.M{"$set": bson.M{
		sizeField(size): count,
		"updatedAt":     time.Now().UTC(),
	}}
	res, err := r.collection.UpdateOne(ctx, bson.M{"_id": oid}, update, options.Update().SetUpsert(false))
	if err != nil {
		return fmt.Errorf("failed to set stock: %w", err)
	}
	if res.MatchedCount == 0 {
		return domain.ErrProductNotFound
	}
	return nil
}

// missing tells an absent product apart from an absent size.
func (r *MongoProductRepository) missing(ctx context.Context, oid primitive.ObjectID) error {
	n, err := r.collection.CountDocuments(ctx, bson.M{"_id": oid})
	if err != nil {
		return fmt.Errorf("failed to check product: %w", err)
	}
	if n == 0 {
		return domain.ErrProductNotFound
	}
	return domain.ErrUnknownSize
}

func sizeField(size string) string {
	return "sizes." + size
}

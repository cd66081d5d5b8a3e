package adapters

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"storefront-checkout/internal/core/database"
	"storefront-checkout/internal/features/orders/domain"
	"storefront-checkout/internal/features/orders/ports"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type orderLineDocument struct {
	ProductID string               `bson:"productId"`
	SKU       string               `bson:"sku"`
	Name      string               `bson:"name"`
	Size      string               `bson:"size"`
	Quantity  int                  `bson:"quantity"`
	Price     primitive.Decimal128 `bson:"price"`
	IsGift    bool                 `bson:"isGift"`
}

type paymentDocument struct {
	GatewayOrderID   string `bson:"gatewayOrderId"`
	GatewayPaymentID string `bson:"gatewayPaymentId"`
}

type refundDocument struct {
	Reference  string               `bson:"reference"`
	Amount     primitive.Decimal128 `bson:"amount"`
	Note       string               `bson:"note,omitempty"`
	RefundedAt time.Time            `bson:"refundedAt"`
}

type exchangeItemDocument struct {
	ProductID string `bson:"productId"`
	FromSize  string `bson:"fromSize"`
	ToSize    string `bson:"toSize"`
	Quantity  int    `bson:"quantity"`
}

type exchangeDocument struct {
	State       string                 `bson:"state"`
	Items       []exchangeItemDocument `bson:"items"`
	Reason      string                 `bson:"reason,omitempty"`
	Note        string                 `bson:"note,omitempty"`
	RequestedAt time.Time              `bson:"requestedAt"`
	UpdatedAt   time.Time              `bson:"updatedAt"`
}

type trackingDocument struct {
	Status    string    `bson:"status"`
	Location  string    `bson:"location,omitempty"`
	Timestamp time.Time `bson:"timestamp"`
}

type orderDocument struct {
	ID              primitive.ObjectID   `bson:"_id,omitempty"`
	OrderCode       string               `bson:"orderCode"`
	UserID          string               `bson:"userId"`
	Products        []orderLineDocument  `bson:"products"`
	Subtotal        primitive.Decimal128 `bson:"subtotal"`
	Discount        primitive.Decimal128 `bson:"discount"`
	CouponCode      string               `bson:"couponCode,omitempty"`
	TotalAmount     primitive.Decimal128 `bson:"totalAmount"`
	Status          string               `bson:"status"`
	PaymentStatus   string               `bson:"paymentStatus"`
	PaymentMethod   string               `bson:"paymentMethod"`
	Payment         *paymentDocument     `bson:"payment,omitempty"`
	TrackingID      string               `bson:"trackingId,omitempty"`
	ShipmentID      string               `bson:"shipmentId,omitempty"`
	Courier         string               `bson:"courier,omitempty"`
	LabelURL        string               `bson:"labelUrl,omitempty"`
	AddressID       string               `bson:"addressId"`
	RefundDetails   *refundDocument      `bson:"refundDetails,omitempty"`
	Exchange        *exchangeDocument    `bson:"exchange,omitempty"`
	TrackingHistory []trackingDocument   `bson:"trackingHistory,omitempty"`
	CreatedAt       time.Time            `bson:"createdAt"`
	UpdatedAt       time.Time            `bson:"updatedAt"`
	Version         int64                `bson:"version"`
}

func toDocument(o *domain.Order) orderDocument {
	doc := orderDocument{
		OrderCode:     o.OrderCode,
		UserID:        o.UserID,
		Products:      make([]orderLineDocument, 0, len(o.Products)),
		Subtotal:      database.ToDecimal128(o.Subtotal),
		Discount:      database.ToDecimal128(o.Discount),
		CouponCode:    o.CouponCode,
		TotalAmount:   database.ToDecimal128(o.TotalAmount),
		Status:        string(o.Status),
		PaymentStatus: string(o.PaymentStatus),
		PaymentMethod: string(o.PaymentMethod),
		TrackingID:    o.TrackingID,
		ShipmentID:    o.ShipmentID,
		Courier:       o.Courier,
		LabelURL:      o.LabelURL,
		AddressID:     o.AddressID,
		CreatedAt:     o.CreatedAt,
		UpdatedAt:     o.UpdatedAt,
		Version:       o.Version,
	}
	for _, l := range o.Products {
		doc.Products = append(doc.Products, orderLineDocument{
			ProductID: l.ProductID,
			SKU:       l.SKU,
			Name:      l.Name,
			Size:      l.Size,
			Quantity:  l.Quantity,
			Price:     database.ToDecimal128(l.Price),
			IsGift:    l.IsGift,
		})
	}
	if o.Payment != nil {
		doc.Payment = &paymentDocument{GatewayOrderID: o.Payment.GatewayOrderID, GatewayPaymentID: o.Payment.GatewayPaymentID}
	}
	if r := o.RefundDetails; r != nil {
		doc.RefundDetails = &refundDocument{Reference: r.Reference, Amount: database.ToDecimal128(r.Amount), Note: r.Note, RefundedAt: r.RefundedAt}
	}
	if e := o.Exchange; e != nil {
		doc.Exchange = &exchangeDocument{
			State:       string(e.State),
			Items:       make([]exchangeItemDocument, 0, len(e.Items)),
			Reason:      e.Reason,
			Note:        e.Note,
			RequestedAt: e.RequestedAt,
			UpdatedAt:   e.UpdatedAt,
		}
		for _, it := range e.Items {
			doc.Exchange.Items = append(doc.Exchange.Items, exchangeItemDocument(it))
		}
	}
	for _, t := range o.TrackingHistory {
		doc.TrackingHistory = append(doc.TrackingHistory, trackingDocument(t))
	}
	return doc
}

func (d orderDocument) toDomain() *domain.Order {
	o := &domain.Order{
		ID:            d.ID.Hex(),
		OrderCode:     d.OrderCode,
		UserID:        d.UserID,
		Products:      make([]domain.OrderLine, 0, len(d.Products)),
		Subtotal:      database.FromDecimal128(d.Subtotal),
		Discount:      database.FromDecimal128(d.Discount),
		CouponCode:    d.CouponCode,
		TotalAmount:   database.FromDecimal128(d.TotalAmount),
		Status:        domain.Status(d.Status),
		PaymentStatus: domain.PaymentStatus(d.PaymentStatus),
		PaymentMethod: domain.PaymentMethod(d.PaymentMethod),
		TrackingID:    d.TrackingID,
		ShipmentID:    d.ShipmentID,
		Courier:       d.Courier,
		LabelURL:      d.LabelURL,
		AddressID:     d.AddressID,
		CreatedAt:     d.CreatedAt,
		UpdatedAt:     d.UpdatedAt,
		Version:       d.Version,
	}
	for _, l := range d.Products {
		o.Products = append(o.Products, domain.OrderLine{
			ProductID: l.ProductID,
			SKU:       l.SKU,
			Name:      l.Name,
			Size:      l.Size,
			Quantity:  l.Quantity,
			Price:     database.FromDecimal128(l.Price),
			IsGift:    l.IsGift,
		})
	}
	if d.Payment != nil {
		o.Payment = &domain.Payment{GatewayOrderID: d.Payment.GatewayOrderID, GatewayPaymentID: d.Payment.GatewayPaymentID}
	}
	if r := d.RefundDetails; r != nil {
		o.RefundDetails = &domain.RefundDetails{Reference: r.Reference, Amount: database.FromDecimal128(r.Amount), Note: r.Note, RefundedAt: r.RefundedAt}
	}
	if e := d.Exchange; e != nil {
		o.Exchange = &domain.Exchange{
			State:       domain.ExchangeState(e.State),
			Items:       make([]domain.ExchangeItem, 0, len(e.Items)),
			Reason:      e.Reason,
			Note:        e.Note,
			RequestedAt: e.RequestedAt,
			UpdatedAt:   e.UpdatedAt,
		}
		for _, it := range e.Items {
			o.Exchange.Items = append(o.Exchange.Items, domain.ExchangeItem(it))
		}
	}
	for _, t := range d.TrackingHistory {
		o.TrackingHistory = append(o.TrackingHistory, domain.TrackingEvent(t))
	}
	return o
}

// MongoOrderRepository implements ports.OrderRepository on the orders collection.
type MongoOrderRepository struct {
	collection *mongo.Collection
}

// NewMongoOrderRepository creates a repository over db.
func NewMongoOrderRepository(db *mongo.Database) *MongoOrderRepository {
	return &MongoOrderRepository{collection: db.Collection(database.CollectionOrders)}
}

func (r *MongoOrderRepository) Create(ctx context.Context, o *domain.Order) error {
	now := time.Now().UTC()
	if o.CreatedAt.IsZero() {
		o.CreatedAt = now
	}
	o.UpdatedAt = now
	o.Version = 1

	res, err := r.collection.InsertOne(ctx, toDocument(o))
	if err != nil {
		if database.IsDuplicateKey(err) {
			return duplicateReason(err)
		}
		return fmt.Errorf("failed to insert order: %w", err)
	}
	o.ID = res.InsertedID.(primitive.ObjectID).Hex()
	return nil
}

func (r *MongoOrderRepository) GetByID(ctx context.Context, id string) (*domain.Order, error) {
	oid, ok := database.ObjectID(id)
	if !ok {
		return nil, domain.ErrOrderNotFound
	}
	return r.findOne(ctx, bson.M{"_id": oid})
}

func (r *MongoOrderRepository) GetByCode(ctx context.Context, code string) (*domain.Order, error) {
	return r.findOne(ctx, bson.M{"orderCode": code})
}

func (r *MongoOrderRepository) GetByPaymentID(ctx context.Context, paymentID string) (*domain.Order, error) {
	if paymentID == "" {
		return nil, domain.ErrOrderNotFound
	}
	return r.findOne(ctx, bson.M{"payment.gatewayPaymentId": paymentID})
}

func (r *MongoOrderRepository) GetByTrackingID(ctx context.Context, trackingID string) (*domain.Order, error) {
	if trackingID == "" {
		return nil, domain.ErrOrderNotFound
	}
	return r.findOne(ctx, bson.M{"trackingId": trackingID})
}

func (r *MongoOrderRepository) CodeExists(ctx context.Context, code string) (bool, error) {
	n, err := r.collection.CountDocuments(ctx, bson.M{"orderCode": code}, options.Count().SetLimit(1))
	if err != nil {
		return false, fmt.Errorf("failed to check order code: %w", err)
	}
	return n > 0, nil
}

func (r *MongoOrderRepository) ListByUser(ctx context.Context, userID string, filter ports.ListFilter) ([]domain.Order, error) {
	q := bson.M{"userId": userID}
	if filter.Status != "" {
		q["status"] = string(filter.Status)
	}
	return r.find(ctx, q, filter)
}

func (r *MongoOrderRepository) List(ctx context.Context, filter ports.ListFilter) ([]domain.Order, error) {
	q := bson.M{}
	if filter.Status != "" {
		q["status"] = string(filter.Status)
	}
	return r.find(ctx, q, filter)
}

func (r *MongoOrderRepository) Update(ctx context.Context, o *domain.Order) error {
	oid, ok := database.ObjectID(o.ID)
	if !ok {
		return domain.ErrOrderNotFound
	}

	doc := toDocument(o)
	doc.ID = oid
	doc.Version = o.Version + 1

	res, err := r.collection.ReplaceOne(ctx, bson.M{"_id": oid, "version": o.Version}, doc)
	if err != nil {
		if database.IsDuplicateKey(err) {
			return duplicateReason(err)
		}
		return fmt.Errorf("failed to update order: %w", err)
	}
	if res.MatchedCount == 0 {
		n, err := r.collection.CountDocuments(ctx, bson.M{"_id": oid})
		if err != nil {
			return fmt.Errorf("failed to check order: %w", err)
		}
		if n == 0 {
			return domain.ErrOrderNotFound
		}
		return domain.ErrVersionConflict
	}
	o.Version = doc.Version
	return nil
}

func (r *MongoOrderRepository) findOne(ctx context.Context, filter bson.M) (*domain.Order, error) {
	var doc orderDocument
	if err := r.collection.FindOne(ctx, filter).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrOrderNotFound
		}
		return nil, fmt.Errorf("failed to get order: %w", err)
	}
	return doc.toDomain(), nil
}

func (r *MongoOrderRepository) find(ctx context.Context, q bson.M, filter ports.ListFilter) ([]domain.Order, error) {
	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}, {Key: "_id", Value: -1}})
	if filter.Limit > 0 {
		opts.SetLimit(int64(filter.Limit))
	}
	if filter.Offset > 0 {
		opts.SetSkip(int64(filter.Offset))
	}

	cursor, err := r.collection.Find(ctx, q, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to list orders: %w", err)
	}

	var docs []orderDocument
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("failed to decode orders: %w", err)
	}

	out := make([]domain.Order, 0, len(docs))
	for _, d := range docs {
		out = append(out, *d.toDomain())
	}
	return out, nil
}

// duplicateReason tells which unique index rejected the write.
func duplicateReason(err error) error {
	msg := err.Error()
	switch {
	case strings.Contains(msg, "gatewayPaymentId"):
		return domain.ErrDuplicatePayment
	case strings.Contains(msg, "trackingId"):
		return domain.ErrDuplicateTracking
	}
	return domain.ErrDuplicateOrderCode
}

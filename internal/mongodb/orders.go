package mongodb

import (
	"context"
	"errors"
	"time"

	"github.com/dukerupert/balaguruva/internal/domain"
	"github.com/shopspring/decimal"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type orderItemDoc struct {
	ProductID       string          `bson:"productId,omitempty"`
	Name            string          `bson:"name"`
	MRP             decimal.Decimal `bson:"mrp"`
	DiscountedPrice decimal.Decimal `bson:"discountedPrice"`
	Quantity        int             `bson:"quantity"`
	Image           string          `bson:"image"`
}

type shippingInfoDoc struct {
	FullName     string `bson:"fullName"`
	AddressLine1 string `bson:"addressLine1"`
	City         string `bson:"city"`
	PostalCode   string `bson:"postalCode"`
}

type paymentResultDoc struct {
	ID             string `bson:"id"`
	Status         string `bson:"status"`
	UpdateTime     string `bson:"update_time"`
	EmailAddress   string `bson:"email_address"`
	GatewayOrderID string `bson:"gateway_order_id,omitempty"`
	Signature      string `bson:"signature,omitempty"`
}

type orderDoc struct {
	ID             primitive.ObjectID  `bson:"_id,omitempty"`
	User           *primitive.ObjectID `bson:"user,omitempty"`
	UserEmail      string              `bson:"userEmail"`
	UserName       string              `bson:"userName"`
	OrderItems     []orderItemDoc      `bson:"orderItems"`
	ShippingInfo   shippingInfoDoc     `bson:"shippingInfo"`
	DeliveryMethod string              `bson:"deliveryMethod"`
	PaymentMethod  string              `bson:"paymentMethod"`
	PaymentStatus  string              `bson:"paymentStatus"`
	PaymentResult  *paymentResultDoc   `bson:"paymentResult,omitempty"`
	Subtotal       decimal.Decimal     `bson:"subtotal"`
	DeliveryPrice  decimal.Decimal     `bson:"deliveryPrice"`
	TotalPrice     decimal.Decimal     `bson:"totalPrice"`
	OrderStatus    string              `bson:"orderStatus"`
	OrderReference string              `bson:"orderReference"`
	Notes          string              `bson:"notes,omitempty"`
	HistoryPending bool                `bson:"historyPending"`
	CreatedAt      time.Time           `bson:"createdAt"`
	UpdatedAt      time.Time           `bson:"updatedAt"`
}

func mapOrderToDoc(o *domain.Order) orderDoc {
	doc := orderDoc{
		UserEmail:      o.UserEmail,
		UserName:       o.UserName,
		ShippingInfo:   shippingInfoDoc(o.ShippingInfo),
		DeliveryMethod: string(o.DeliveryMethod),
		PaymentMethod:  string(o.PaymentMethod),
		PaymentStatus:  string(o.PaymentStatus),
		Subtotal:       o.Subtotal,
		DeliveryPrice:  o.DeliveryPrice,
		TotalPrice:     o.TotalPrice,
		OrderStatus:    string(o.OrderStatus),
		OrderReference: o.OrderReference,
		Notes:          o.Notes,
		HistoryPending: o.HistoryPending,
		CreatedAt:      o.CreatedAt,
		UpdatedAt:      o.UpdatedAt,
	}
	if oid, ok := objectID(o.UserID); ok {
		doc.User = &oid
	}
	for _, item := range o.Items {
		doc.OrderItems = append(doc.OrderItems, orderItemDoc(item))
	}
	if o.PaymentResult != nil {
		pr := paymentResultDoc(*o.PaymentResult)
		doc.PaymentResult = &pr
	}
	return doc
}

func mapOrderToDomain(d *orderDoc) domain.Order {
	o := domain.Order{
		ID:             d.ID.Hex(),
		UserEmail:      d.UserEmail,
		UserName:       d.UserName,
		Items:          make([]domain.OrderItem, 0, len(d.OrderItems)),
		ShippingInfo:   domain.ShippingInfo(d.ShippingInfo),
		DeliveryMethod: domain.DeliveryMethod(d.DeliveryMethod),
		PaymentMethod:  domain.PaymentMethod(d.PaymentMethod),
		PaymentStatus:  domain.PaymentStatus(d.PaymentStatus),
		Subtotal:       d.Subtotal,
		DeliveryPrice:  d.DeliveryPrice,
		TotalPrice:     d.TotalPrice,
		OrderStatus:    domain.OrderStatus(d.OrderStatus),
		OrderReference: d.OrderReference,
		Notes:          d.Notes,
		HistoryPending: d.HistoryPending,
		CreatedAt:      d.CreatedAt,
		UpdatedAt:      d.UpdatedAt,
	}
	if d.User != nil {
		o.UserID = d.User.Hex()
	}
	for _, item := range d.OrderItems {
		o.Items = append(o.Items, domain.OrderItem(item))
	}
	if d.PaymentResult != nil {
		pr := domain.PaymentResult(*d.PaymentResult)
		o.PaymentResult = &pr
	}
	return o
}

// OrderStore implements domain.OrderStore using MongoDB.
type OrderStore struct {
	db   *DB
	coll *mongo.Collection
}

var _ domain.OrderStore = (*OrderStore)(nil)

func NewOrderStore(db *DB) *OrderStore {
	return &OrderStore{db: db, coll: db.collection(ordersCollection)}
}

var newestFirst = bson.D{{Key: "createdAt", Value: -1}}

func (s *OrderStore) Create(ctx context.Context, o *domain.Order) error {
	const op = "mongodb.order.create"
	ctx, cancel := s.db.withTimeout(ctx)
	defer cancel()

	res, err := s.coll.InsertOne(ctx, mapOrderToDoc(o))
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return domain.Conflict(op, "Order reference already exists")
		}
		return translate(err, op, "order", o.OrderReference)
	}
	o.ID = res.InsertedID.(primitive.ObjectID).Hex()
	return nil
}

func (s *OrderStore) GetByID(ctx context.Context, id string) (*domain.Order, error) {
	const op = "mongodb.order.get"
	oid, ok := objectID(id)
	if !ok {
		return nil, domain.NotFound(op, "order", id)
	}
	return s.findOne(ctx, op, bson.M{"_id": oid}, id)
}

func (s *OrderStore) GetByReference(ctx context.Context, reference string) (*domain.Order, error) {
	return s.findOne(ctx, "mongodb.order.get_by_reference", bson.M{"orderReference": reference}, reference)
}

func (s *OrderStore) findOne(ctx context.Context, op string, filter bson.M, key string) (*domain.Order, error) {
	ctx, cancel := s.db.withTimeout(ctx)
	defer cancel()

	var doc orderDoc
	if err := s.coll.FindOne(ctx, filter).Decode(&doc); err != nil {
		return nil, translate(err, op, "order", key)
	}
	o := mapOrderToDomain(&doc)
	return &o, nil
}

func (s *OrderStore) GetByIDs(ctx context.Context, ids []string) ([]domain.Order, error) {
	oids := objectIDs(ids)
	if len(oids) == 0 {
		return []domain.Order{}, nil
	}
	return s.find(ctx, "mongodb.order.get_by_ids", bson.M{"_id": bson.M{"$in": oids}}, options.Find().SetSort(newestFirst))
}

func (s *OrderStore) ListForUser(ctx context.Context, userID, email string) ([]domain.Order, error) {
	or := bson.A{}
	if oid, ok := objectID(userID); ok {
		or = append(or, bson.M{"user": oid})
	}
	if email != "" {
		or = append(or, bson.M{"userEmail": domain.NormalizeEmail(email)})
	}
	if len(or) == 0 {
		return []domain.Order{}, nil
	}
	return s.find(ctx, "mongodb.order.list_for_user", bson.M{"$or": or}, options.Find().SetSort(newestFirst))
}

func (s *OrderStore) List(ctx context.Context) ([]domain.Order, error) {
	return s.find(ctx, "mongodb.order.list", bson.M{}, options.Find().SetSort(newestFirst))
}

func (s *OrderStore) ListHistoryPending(ctx context.Context, before time.Time, limit int) ([]domain.Order, error) {
	filter := bson.M{
		"historyPending": true,
		"user":           bson.M{"$exists": true},
		"createdAt":      bson.M{"$lt": before},
	}
	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: 1}})
	if limit > 0 {
		opts.SetLimit(int64(limit))
	}
	return s.find(ctx, "mongodb.order.list_history_pending", filter, opts)
}

func (s *OrderStore) find(ctx context.Context, op string, filter bson.M, opts *options.FindOptions) ([]domain.Order, error) {
	ctx, cancel := s.db.withTimeout(ctx)
	defer cancel()

	cur, err := s.coll.Find(ctx, filter, opts)
	if err != nil {
		return nil, translate(err, op, "orders", "")
	}
	defer cur.Close(ctx)

	var docs []orderDoc
	if err := cur.All(ctx, &docs); err != nil {
		return nil, translate(err, op, "orders", "")
	}

	out := make([]domain.Order, 0, len(docs))
	for i := range docs {
		out = append(out, mapOrderToDomain(&docs[i]))
	}
	return out, nil
}

// UpdateStatus is a compare-and-set on the (orderStatus, paymentStatus) pair.
func (s *OrderStore) UpdateStatus(ctx context.Context, id string, expect, next domain.StatusPair, at time.Time) error {
	const op = "mongodb.order.update_status"
	oid, ok := objectID(id)
	if !ok {
		return domain.NotFound(op, "order", id)
	}

	filter := bson.M{
		"_id":           oid,
		"orderStatus":   string(expect.OrderStatus),
		"paymentStatus": string(expect.PaymentStatus),
	}
	update := bson.M{"$set": bson.M{
		"orderStatus":   string(next.OrderStatus),
		"paymentStatus": string(next.PaymentStatus),
		"updatedAt":     at,
	}}
	return s.compareAndSet(ctx, op, oid, filter, update, id)
}

func (s *OrderStore) UpdatePayment(ctx context.Context, id string, expect, next domain.PaymentStatus, receipt *domain.PaymentResult, at time.Time) error {
	const op = "mongodb.order.update_payment"
	oid, ok := objectID(id)
	if !ok {
		return domain.NotFound(op, "order", id)
	}

	set := bson.M{"paymentStatus": string(next), "updatedAt": at}
	if receipt != nil {
		set["paymentResult"] = paymentResultDoc(*receipt)
	}
	filter := bson.M{"_id": oid, "paymentStatus": string(expect)}
	return s.compareAndSet(ctx, op, oid, filter, bson.M{"$set": set}, id)
}

func (s *OrderStore) compareAndSet(ctx context.Context, op string, oid primitive.ObjectID, filter, update bson.M, id string) error {
	ctx, cancel := s.db.withTimeout(ctx)
	defer cancel()

	res, err := s.coll.UpdateOne(ctx, filter, update)
	if err != nil {
		return translate(err, op, "order", id)
	}
	if res.MatchedCount > 0 {
		return nil
	}

	err = s.coll.FindOne(ctx, bson.M{"_id": oid}, options.FindOne().SetProjection(bson.M{"_id": 1})).Err()
	if errors.Is(err, mongo.ErrNoDocuments) {
		return domain.NotFound(op, "order", id)
	}
	if err != nil {
		return translate(err, op, "order", id)
	}
	return domain.Conflict(op, "Order was modified concurrently")
}

func (s *OrderStore) MarkHistoryLinked(ctx context.Context, id string) error {
	const op = "mongodb.order.mark_linked"
	oid, ok := objectID(id)
	if !ok {
		return domain.NotFound(op, "order", id)
	}

	ctx, cancel := s.db.withTimeout(ctx)
	defer cancel()

	res, err := s.coll.UpdateOne(ctx, bson.M{"_id": oid}, bson.M{"$set": bson.M{"historyPending": false}})
	if err != nil {
		return translate(err, op, "order", id)
	}
	if res.MatchedCount == 0 {
		return domain.NotFound(op, "order", id)
	}
	return nil
}

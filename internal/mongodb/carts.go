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

// upsertAttempts bounds the retry when two requests race to create the same cart.
const upsertAttempts = 3

type cartLineDoc struct {
	ProductID       string          `bson:"productId"`
	Name            string          `bson:"name,omitempty"`
	Image           string          `bson:"image,omitempty"`
	MRP             decimal.Decimal `bson:"mrp"`
	DiscountedPrice decimal.Decimal `bson:"discountedPrice"`
	Quantity        int             `bson:"quantity"`
}

type cartDoc struct {
	ID        primitive.ObjectID `bson:"_id,omitempty"`
	UserKey   string             `bson:"userKey"`
	Items     []cartLineDoc      `bson:"items"`
	UpdatedAt time.Time          `bson:"updatedAt"`
}

func mapCartToDomain(d *cartDoc) *domain.Cart {
	c := domain.EmptyCart(d.UserKey)
	c.UpdatedAt = d.UpdatedAt
	for _, l := range d.Items {
		c.Items = append(c.Items, domain.CartLine(l))
	}
	return c
}

func mapCartLineToDoc(l domain.CartLine) cartLineDoc {
	return cartLineDoc(l)
}

// CartStore implements domain.CartStore using MongoDB. Every mutation is a
// single findAndModify against the cart document keyed by userKey.
type CartStore struct {
	db   *DB
	coll *mongo.Collection
}

var _ domain.CartStore = (*CartStore)(nil)

func NewCartStore(db *DB) *CartStore {
	return &CartStore{db: db, coll: db.collection(cartsCollection)}
}

var returnAfter = options.FindOneAndUpdate().SetReturnDocument(options.After)

func (s *CartStore) Get(ctx context.Context, userKey string) (*domain.Cart, error) {
	ctx, cancel := s.db.withTimeout(ctx)
	defer cancel()

	var doc cartDoc
	err := s.coll.FindOne(ctx, bson.M{"userKey": userKey}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, domain.ErrCartNotFound
	}
	if err != nil {
		return nil, translate(err, "mongodb.cart.get", "cart", userKey)
	}
	return mapCartToDomain(&doc), nil
}

// AddLine increments the matching line in place, or pushes a new line
// (creating the cart) when no line for the product exists.
func (s *CartStore) AddLine(ctx context.Context, userKey string, line domain.CartLine) (*domain.Cart, error) {
	return s.upsertLine(ctx, "mongodb.cart.add_line", userKey, line, "$inc")
}

// MergeLine raises the matching line to at least line.Quantity, or pushes it.
func (s *CartStore) MergeLine(ctx context.Context, userKey string, line domain.CartLine) (*domain.Cart, error) {
	return s.upsertLine(ctx, "mongodb.cart.merge_line", userKey, line, "$max")
}

func (s *CartStore) upsertLine(ctx context.Context, op, userKey string, line domain.CartLine, quantityOp string) (*domain.Cart, error) {
	ctx, cancel := s.db.withTimeout(ctx)
	defer cancel()

	for attempt := 0; attempt < upsertAttempts; attempt++ {
		now := time.Now().UTC()

		var doc cartDoc
		err := s.coll.FindOneAndUpdate(ctx,
			bson.M{"userKey": userKey, "items.productId": line.ProductID},
			bson.M{
				quantityOp: bson.M{"items.$.quantity": line.Quantity},
				"$set":     bson.M{"updatedAt": now},
			},
			returnAfter,
		).Decode(&doc)
		if err == nil {
			return mapCartToDomain(&doc), nil
		}
		if !errors.Is(err, mongo.ErrNoDocuments) {
			return nil, translate(err, op, "cart", userKey)
		}

		// No line for the product yet. The $ne guard stops a concurrent push
		// of the same product from producing a duplicate line.
		err = s.coll.FindOneAndUpdate(ctx,
			bson.M{"userKey": userKey, "items.productId": bson.M{"$ne": line.ProductID}},
			bson.M{
				"$push": bson.M{"items": mapCartLineToDoc(line)},
				"$set":  bson.M{"updatedAt": now},
			},
			options.FindOneAndUpdate().SetReturnDocument(options.After).SetUpsert(true),
		).Decode(&doc)
		if err == nil {
			return mapCartToDomain(&doc), nil
		}
		// A duplicate key means the cart exists and gained the line between
		// the two updates; the increment will match on the next attempt.
		if !mongo.IsDuplicateKeyError(err) {
			return nil, translate(err, op, "cart", userKey)
		}
	}

	return nil, domain.Unavailable(errors.New("cart upsert contention"), op, "cart is being modified concurrently")
}

func (s *CartStore) SetQuantity(ctx context.Context, userKey, productID string, quantity int) (*domain.Cart, error) {
	const op = "mongodb.cart.set_quantity"
	ctx, cancel := s.db.withTimeout(ctx)
	defer cancel()

	var doc cartDoc
	err := s.coll.FindOneAndUpdate(ctx,
		bson.M{"userKey": userKey, "items.productId": productID},
		bson.M{"$set": bson.M{"items.$.quantity": quantity, "updatedAt": time.Now().UTC()}},
		returnAfter,
	).Decode(&doc)
	if err == nil {
		return mapCartToDomain(&doc), nil
	}
	if !errors.Is(err, mongo.ErrNoDocuments) {
		return nil, translate(err, op, "cart", userKey)
	}

	n, err := s.coll.CountDocuments(ctx, bson.M{"userKey": userKey})
	if err != nil {
		return nil, translate(err, op, "cart", userKey)
	}
	if n == 0 {
		return nil, domain.ErrCartNotFound
	}
	return nil, domain.ErrCartItemNotFound
}

func (s *CartStore) RemoveLine(ctx context.Context, userKey, productID string) (*domain.Cart, error) {
	ctx, cancel := s.db.withTimeout(ctx)
	defer cancel()

	var doc cartDoc
	err := s.coll.FindOneAndUpdate(ctx,
		bson.M{"userKey": userKey},
		bson.M{
			"$pull": bson.M{"items": bson.M{"productId": productID}},
			"$set":  bson.M{"updatedAt": time.Now().UTC()},
		},
		returnAfter,
	).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, domain.ErrCartNotFound
	}
	if err != nil {
		return nil, translate(err, "mongodb.cart.remove_line", "cart", userKey)
	}
	return mapCartToDomain(&doc), nil
}

func (s *CartStore) Replace(ctx context.Context, userKey string, lines []domain.CartLine) (*domain.Cart, error) {
	ctx, cancel := s.db.withTimeout(ctx)
	defer cancel()

	items := make([]cartLineDoc, 0, len(lines))
	for _, l := range lines {
		items = append(items, mapCartLineToDoc(l))
	}

	var doc cartDoc
	err := s.coll.FindOneAndUpdate(ctx,
		bson.M{"userKey": userKey},
		bson.M{"$set": bson.M{"items": items, "updatedAt": time.Now().UTC()}},
		options.FindOneAndUpdate().SetReturnDocument(options.After).SetUpsert(true),
	).Decode(&doc)
	if err != nil {
		return nil, translate(err, "mongodb.cart.replace", "cart", userKey)
	}
	return mapCartToDomain(&doc), nil
}

func (s *CartStore) Delete(ctx context.Context, userKey string) error {
	ctx, cancel := s.db.withTimeout(ctx)
	defer cancel()

	_, err := s.coll.DeleteOne(ctx, bson.M{"userKey": userKey})
	return translate(err, "mongodb.cart.delete", "cart", userKey)
}

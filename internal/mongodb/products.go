package mongodb

import (
	"context"
	"time"

	"github.com/dukerupert/balaguruva/internal/domain"
	"github.com/shopspring/decimal"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type productDoc struct {
	ID              primitive.ObjectID `bson:"_id,omitempty"`
	Name            string             `bson:"name"`
	Description     string             `bson:"description"`
	MRP             decimal.Decimal    `bson:"mrp"`
	Discount        decimal.Decimal    `bson:"discount"`
	DiscountedPrice decimal.Decimal    `bson:"discountedPrice"`
	Category        string             `bson:"category,omitempty"`
	Image           string             `bson:"image,omitempty"`
	Stock           int                `bson:"stock"`
	CreatedAt       time.Time          `bson:"createdAt"`
}

func mapProductToDomain(d *productDoc) domain.Product {
	return domain.Product{
		ID:              d.ID.Hex(),
		Name:            d.Name,
		Description:     d.Description,
		MRP:             d.MRP,
		Discount:        d.Discount,
		DiscountedPrice: d.DiscountedPrice,
		Category:        d.Category,
		Image:           d.Image,
		Stock:           d.Stock,
		CreatedAt:       d.CreatedAt,
	}
}

// ProductStore implements domain.ProductStore using MongoDB.
type ProductStore struct {
	db   *DB
	coll *mongo.Collection
}

var _ domain.ProductStore = (*ProductStore)(nil)

func NewProductStore(db *DB) *ProductStore {
	return &ProductStore{db: db, coll: db.collection(productsCollection)}
}

func (s *ProductStore) List(ctx context.Context) ([]domain.Product, error) {
	const op = "mongodb.product.list"
	ctx, cancel := s.db.withTimeout(ctx)
	defer cancel()

	cur, err := s.coll.Find(ctx, bson.M{}, options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}}))
	if err != nil {
		return nil, translate(err, op, "products", "")
	}
	defer cur.Close(ctx)

	var docs []productDoc
	if err := cur.All(ctx, &docs); err != nil {
		return nil, translate(err, op, "products", "")
	}

	out := make([]domain.Product, 0, len(docs))
	for i := range docs {
		out = append(out, mapProductToDomain(&docs[i]))
	}
	return out, nil
}

func (s *ProductStore) GetByID(ctx context.Context, id string) (*domain.Product, error) {
	const op = "mongodb.product.get"
	oid, ok := objectID(id)
	if !ok {
		return nil, domain.NotFound(op, "product", id)
	}

	ctx, cancel := s.db.withTimeout(ctx)
	defer cancel()

	var doc productDoc
	if err := s.coll.FindOne(ctx, bson.M{"_id": oid}).Decode(&doc); err != nil {
		return nil, translate(err, op, "product", id)
	}
	p := mapProductToDomain(&doc)
	return &p, nil
}

func (s *ProductStore) Create(ctx context.Context, p *domain.Product) error {
	const op = "mongodb.product.create"
	ctx, cancel := s.db.withTimeout(ctx)
	defer cancel()

	doc := productDoc{
		Name:            p.Name,
		Description:     p.Description,
		MRP:             p.MRP,
		Discount:        p.Discount,
		DiscountedPrice: p.DiscountedPrice,
		Category:        p.Category,
		Image:           p.Image,
		Stock:           p.Stock,
		CreatedAt:       p.CreatedAt,
	}
	res, err := s.coll.InsertOne(ctx, doc)
	if err != nil {
		return translate(err, op, "product", p.Name)
	}
	p.ID = res.InsertedID.(primitive.ObjectID).Hex()
	return nil
}

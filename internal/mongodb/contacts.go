package mongodb

import (
	"context"
	"time"

	"github.com/dukerupert/balaguruva/internal/domain"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type contactDoc struct {
	ID        primitive.ObjectID `bson:"_id,omitempty"`
	Name      string             `bson:"name"`
	Email     string             `bson:"email"`
	Phone     string             `bson:"phone"`
	Subject   string             `bson:"subject"`
	Message   string             `bson:"message"`
	Status    string             `bson:"status"`
	CreatedAt time.Time          `bson:"createdAt"`
}

// ContactStore implements domain.ContactStore using MongoDB. Expiry is
// handled by the TTL index on createdAt; List also filters so documents
// awaiting the TTL sweep are not returned.
type ContactStore struct {
	db   *DB
	coll *mongo.Collection
}

var _ domain.ContactStore = (*ContactStore)(nil)

func NewContactStore(db *DB) *ContactStore {
	return &ContactStore{db: db, coll: db.collection(contactsCollection)}
}

func (s *ContactStore) Create(ctx context.Context, c *domain.Contact) error {
	ctx, cancel := s.db.withTimeout(ctx)
	defer cancel()

	doc := contactDoc{
		Name:      c.Name,
		Email:     c.Email,
		Phone:     c.Phone,
		Subject:   c.Subject,
		Message:   c.Message,
		Status:    c.Status,
		CreatedAt: c.CreatedAt,
	}
	res, err := s.coll.InsertOne(ctx, doc)
	if err != nil {
		return translate(err, "mongodb.contact.create", "contact", c.Email)
	}
	c.ID = res.InsertedID.(primitive.ObjectID).Hex()
	return nil
}

func (s *ContactStore) List(ctx context.Context) ([]domain.Contact, error) {
	const op = "mongodb.contact.list"
	ctx, cancel := s.db.withTimeout(ctx)
	defer cancel()

	filter := bson.M{"createdAt": bson.M{"$gt": time.Now().Add(-domain.ContactRetention)}}
	cur, err := s.coll.Find(ctx, filter, options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}}))
	if err != nil {
		return nil, translate(err, op, "contacts", "")
	}
	defer cur.Close(ctx)

	var docs []contactDoc
	if err := cur.All(ctx, &docs); err != nil {
		return nil, translate(err, op, "contacts", "")
	}

	out := make([]domain.Contact, 0, len(docs))
	for _, d := range docs {
		out = append(out, domain.Contact{
			ID:        d.ID.Hex(),
			Name:      d.Name,
			Email:     d.Email,
			Phone:     d.Phone,
			Subject:   d.Subject,
			Message:   d.Message,
			Status:    d.Status,
			CreatedAt: d.CreatedAt,
		})
	}
	return out, nil
}

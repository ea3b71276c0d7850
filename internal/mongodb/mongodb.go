// Package mongodb implements the domain stores on MongoDB.
//
// Prices are stored as Decimal128 through a registry codec for
// shopspring/decimal. Uniqueness (user email, cart key, order reference) is
// enforced by indexes created in EnsureIndexes.
package mongodb

import (
	"context"
	"fmt"
	"time"

	"github.com/dukerupert/balaguruva/internal/domain"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

const (
	usersCollection    = "users"
	productsCollection = "products"
	cartsCollection    = "carts"
	ordersCollection   = "orders"
	contactsCollection = "contacts"
)

// DB wraps a connected client and the storefront database.
type DB struct {
	client  *mongo.Client
	db      *mongo.Database
	timeout time.Duration
}

// Connect dials uri and pings the primary. timeout bounds every store call
// made through the returned DB.
func Connect(ctx context.Context, uri, database string, timeout time.Duration) (*DB, error) {
	opts := options.Client().
		ApplyURI(uri).
		SetRegistry(newRegistry()).
		SetTimeout(timeout)

	client, err := mongo.Connect(ctx, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to MongoDB: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	if err := client.Ping(pingCtx, readpref.Primary()); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("failed to ping MongoDB: %w", err)
	}

	return &DB{client: client, db: client.Database(database), timeout: timeout}, nil
}

// Close disconnects the client.
func (d *DB) Close(ctx context.Context) error {
	return d.client.Disconnect(ctx)
}

// Ping reports whether the primary answers.
func (d *DB) Ping(ctx context.Context) error {
	ctx, cancel := d.withTimeout(ctx)
	defer cancel()
	return d.client.Ping(ctx, readpref.Primary())
}

func (d *DB) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if d.timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, d.timeout)
}

func (d *DB) collection(name string) *mongo.Collection {
	return d.db.Collection(name)
}

// EnsureIndexes creates the unique and TTL indexes the stores rely on.
func (d *DB) EnsureIndexes(ctx context.Context) error {
	indexes := map[string][]mongo.IndexModel{
		usersCollection: {
			{Keys: bson.D{{Key: "email", Value: 1}}, Options: options.Index().SetUnique(true)},
		},
		productsCollection: {
			{Keys: bson.D{{Key: "createdAt", Value: -1}}},
		},
		cartsCollection: {
			{Keys: bson.D{{Key: "userKey", Value: 1}}, Options: options.Index().SetUnique(true)},
		},
		ordersCollection: {
			{Keys: bson.D{{Key: "orderReference", Value: 1}}, Options: options.Index().SetUnique(true)},
			{Keys: bson.D{{Key: "user", Value: 1}, {Key: "createdAt", Value: -1}}},
			{Keys: bson.D{{Key: "userEmail", Value: 1}, {Key: "createdAt", Value: -1}}},
			{
				Keys:    bson.D{{Key: "historyPending", Value: 1}, {Key: "createdAt", Value: 1}},
				Options: options.Index().SetPartialFilterExpression(bson.M{"historyPending": true}),
			},
		},
		contactsCollection: {
			{
				Keys:    bson.D{{Key: "createdAt", Value: 1}},
				Options: options.Index().SetExpireAfterSeconds(int32(domain.ContactRetention / time.Second)),
			},
		},
	}

	for name, models := range indexes {
		if _, err := d.collection(name).Indexes().CreateMany(ctx, models); err != nil {
			return fmt.Errorf("failed to create %s indexes: %w", name, err)
		}
	}
	return nil
}

// Stores returns one store per collection.
func (d *DB) Stores() (*UserStore, *ProductStore, *CartStore, *OrderStore, *ContactStore) {
	return NewUserStore(d), NewProductStore(d), NewCartStore(d), NewOrderStore(d), NewContactStore(d)
}

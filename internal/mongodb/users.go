package mongodb

import (
	"context"
	"errors"
	"time"

	"github.com/dukerupert/balaguruva/internal/domain"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type userDoc struct {
	ID           primitive.ObjectID    `bson:"_id,omitempty"`
	Email        string                `bson:"email"`
	PasswordHash string                `bson:"password,omitempty"`
	GoogleID     string                `bson:"googleId,omitempty"`
	Name         string                `bson:"name,omitempty"`
	Phone        string                `bson:"phone,omitempty"`
	Address      string                `bson:"address,omitempty"`
	ProfileImage string                `bson:"profileImage,omitempty"`
	Preferences  domain.Preferences    `bson:"preferences"`
	Wishlist     []domain.WishlistItem `bson:"wishlist"`
	OrderHistory []primitive.ObjectID  `bson:"orderHistory"`
	CreatedAt    time.Time             `bson:"createdAt"`
	LastLogin    time.Time             `bson:"lastLogin"`
	LastUpdated  *time.Time            `bson:"lastUpdated,omitempty"`
}

func mapUserToDomain(d *userDoc) *domain.User {
	wishlist := d.Wishlist
	if wishlist == nil {
		wishlist = []domain.WishlistItem{}
	}
	return &domain.User{
		ID:           d.ID.Hex(),
		Email:        d.Email,
		PasswordHash: d.PasswordHash,
		GoogleID:     d.GoogleID,
		Name:         d.Name,
		Phone:        d.Phone,
		Address:      d.Address,
		ProfileImage: d.ProfileImage,
		Preferences:  d.Preferences,
		Wishlist:     wishlist,
		OrderHistory: hexIDs(d.OrderHistory),
		CreatedAt:    d.CreatedAt,
		LastLogin:    d.LastLogin,
		LastUpdated:  d.LastUpdated,
	}
}

// UserStore implements domain.UserStore using MongoDB.
type UserStore struct {
	db   *DB
	coll *mongo.Collection
}

// Compile-time check to ensure UserStore implements domain.UserStore.
var _ domain.UserStore = (*UserStore)(nil)

func NewUserStore(db *DB) *UserStore {
	return &UserStore{db: db, coll: db.collection(usersCollection)}
}

func (s *UserStore) Create(ctx context.Context, u *domain.User) error {
	const op = "mongodb.user.create"
	ctx, cancel := s.db.withTimeout(ctx)
	defer cancel()

	doc := userDoc{
		Email:        domain.NormalizeEmail(u.Email),
		PasswordHash: u.PasswordHash,
		GoogleID:     u.GoogleID,
		Name:         u.Name,
		Phone:        u.Phone,
		Address:      u.Address,
		ProfileImage: u.ProfileImage,
		Preferences:  u.Preferences,
		Wishlist:     []domain.WishlistItem{},
		OrderHistory: []primitive.ObjectID{},
		CreatedAt:    u.CreatedAt,
		LastLogin:    u.LastLogin,
	}

	res, err := s.coll.InsertOne(ctx, doc)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return domain.Conflict(op, "User already exists")
		}
		return translate(err, op, "user", doc.Email)
	}

	u.ID = res.InsertedID.(primitive.ObjectID).Hex()
	u.Email = doc.Email
	u.Wishlist = []domain.WishlistItem{}
	u.OrderHistory = []string{}
	return nil
}

func (s *UserStore) GetByID(ctx context.Context, id string) (*domain.User, error) {
	const op = "mongodb.user.get"
	oid, ok := objectID(id)
	if !ok {
		return nil, domain.NotFound(op, "user", id)
	}
	return s.findOne(ctx, op, bson.M{"_id": oid}, id)
}

func (s *UserStore) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	email = domain.NormalizeEmail(email)
	return s.findOne(ctx, "mongodb.user.get_by_email", bson.M{"email": email}, email)
}

func (s *UserStore) findOne(ctx context.Context, op string, filter bson.M, key string) (*domain.User, error) {
	ctx, cancel := s.db.withTimeout(ctx)
	defer cancel()

	var doc userDoc
	if err := s.coll.FindOne(ctx, filter).Decode(&doc); err != nil {
		return nil, translate(err, op, "user", key)
	}
	return mapUserToDomain(&doc), nil
}

func (s *UserStore) Update(ctx context.Context, u *domain.User) error {
	const op = "mongodb.user.update"
	oid, ok := objectID(u.ID)
	if !ok {
		return domain.NotFound(op, "user", u.ID)
	}

	ctx, cancel := s.db.withTimeout(ctx)
	defer cancel()

	set := bson.M{
		"name":         u.Name,
		"phone":        u.Phone,
		"address":      u.Address,
		"profileImage": u.ProfileImage,
		"preferences":  u.Preferences,
		"lastLogin":    u.LastLogin,
	}
	unset := bson.M{}
	if u.PasswordHash != "" {
		set["password"] = u.PasswordHash
	} else {
		unset["password"] = ""
	}
	if u.GoogleID != "" {
		set["googleId"] = u.GoogleID
	}
	if u.LastUpdated != nil {
		set["lastUpdated"] = *u.LastUpdated
	}

	update := bson.M{"$set": set}
	if len(unset) > 0 {
		update["$unset"] = unset
	}

	res, err := s.coll.UpdateOne(ctx, bson.M{"_id": oid}, update)
	if err != nil {
		return translate(err, op, "user", u.ID)
	}
	if res.MatchedCount == 0 {
		return domain.NotFound(op, "user", u.ID)
	}
	return nil
}

func (s *UserStore) Delete(ctx context.Context, id string) error {
	const op = "mongodb.user.delete"
	oid, ok := objectID(id)
	if !ok {
		return domain.NotFound(op, "user", id)
	}

	ctx, cancel := s.db.withTimeout(ctx)
	defer cancel()

	res, err := s.coll.DeleteOne(ctx, bson.M{"_id": oid})
	if err != nil {
		return translate(err, op, "user", id)
	}
	if res.DeletedCount == 0 {
		return domain.NotFound(op, "user", id)
	}
	return nil
}

func (s *UserStore) AppendOrderHistory(ctx context.Context, userID string, orderIDs ...string) error {
	const op = "mongodb.user.append_history"
	oid, ok := objectID(userID)
	if !ok {
		return domain.NotFound(op, "user", userID)
	}

	ctx, cancel := s.db.withTimeout(ctx)
	defer cancel()

	update := bson.M{"$addToSet": bson.M{"orderHistory": bson.M{"$each": objectIDs(orderIDs)}}}
	res, err := s.coll.UpdateOne(ctx, bson.M{"_id": oid}, update)
	if err != nil {
		return translate(err, op, "user", userID)
	}
	if res.MatchedCount == 0 {
		return domain.NotFound(op, "user", userID)
	}
	return nil
}

// AddWishlistItem pushes only when no entry for the product exists, so two
// concurrent adds of the same product leave one entry.
func (s *UserStore) AddWishlistItem(ctx context.Context, userID string, item domain.WishlistItem) ([]domain.WishlistItem, error) {
	const op = "mongodb.wishlist.add"
	oid, ok := objectID(userID)
	if !ok {
		return nil, domain.NotFound(op, "user", userID)
	}

	filter := bson.M{"_id": oid, "wishlist.productId": bson.M{"$ne": item.ProductID}}
	update := bson.M{"$push": bson.M{"wishlist": item}}

	list, err := s.updateWishlist(ctx, op, filter, update, userID)
	if errors.Is(err, errNoMatch) {
		return nil, domain.Conflict(op, "Item already in wishlist")
	}
	return list, err
}

func (s *UserStore) RemoveWishlistItem(ctx context.Context, userID, productID string) ([]domain.WishlistItem, error) {
	const op = "mongodb.wishlist.remove"
	oid, ok := objectID(userID)
	if !ok {
		return nil, domain.NotFound(op, "user", userID)
	}

	filter := bson.M{"_id": oid, "wishlist.productId": productID}
	update := bson.M{"$pull": bson.M{"wishlist": bson.M{"productId": productID}}}

	list, err := s.updateWishlist(ctx, op, filter, update, userID)
	if errors.Is(err, errNoMatch) {
		return nil, domain.NotFound(op, "wishlist item", productID)
	}
	return list, err
}

func (s *UserStore) ClearWishlist(ctx context.Context, userID string) error {
	const op = "mongodb.wishlist.clear"
	oid, ok := objectID(userID)
	if !ok {
		return domain.NotFound(op, "user", userID)
	}

	ctx, cancel := s.db.withTimeout(ctx)
	defer cancel()

	res, err := s.coll.UpdateOne(ctx, bson.M{"_id": oid}, bson.M{"$set": bson.M{"wishlist": []domain.WishlistItem{}}})
	if err != nil {
		return translate(err, op, "user", userID)
	}
	if res.MatchedCount == 0 {
		return domain.NotFound(op, "user", userID)
	}
	return nil
}

// errNoMatch reports that the user exists but the conditional filter did not match.
var errNoMatch = errors.New("conditional update matched no document")

func (s *UserStore) updateWishlist(ctx context.Context, op string, filter, update bson.M, userID string) ([]domain.WishlistItem, error) {
	ctx, cancel := s.db.withTimeout(ctx)
	defer cancel()

	opts := options.FindOneAndUpdate().
		SetReturnDocument(options.After).
		SetProjection(bson.M{"wishlist": 1})

	var doc userDoc
	err := s.coll.FindOneAndUpdate(ctx, filter, update, opts).Decode(&doc)
	if err == nil {
		if doc.Wishlist == nil {
			return []domain.WishlistItem{}, nil
		}
		return doc.Wishlist, nil
	}
	if !errors.Is(err, mongo.ErrNoDocuments) {
		return nil, translate(err, op, "user", userID)
	}

	n, err := s.coll.CountDocuments(ctx, bson.M{"_id": filter["_id"]})
	if err != nil {
		return nil, translate(err, op, "user", userID)
	}
	if n == 0 {
		return nil, domain.NotFound(op, "user", userID)
	}
	return nil, errNoMatch
}

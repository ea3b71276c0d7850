package domain

import (
	"context"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// =============================================================================
// USER DOMAIN TYPES
// =============================================================================

// Preferences holds the user's notification and display settings.
type Preferences struct {
	Notifications bool `json:"notifications" bson:"notifications"`
	Newsletter    bool `json:"newsletter" bson:"newsletter"`
	DarkMode      bool `json:"darkMode" bson:"darkMode"`
}

// DefaultPreferences returns the settings applied to new accounts.
func DefaultPreferences() Preferences {
	return Preferences{Notifications: true}
}

// WishlistItem is a product snapshot saved to a user's wishlist.
type WishlistItem struct {
	ProductID   string          `json:"productId" bson:"productId"`
	Name        string          `json:"name" bson:"name"`
	Price       decimal.Decimal `json:"price" bson:"price"`
	Image       string          `json:"image,omitempty" bson:"image,omitempty"`
	Description string          `json:"description,omitempty" bson:"description,omitempty"`
	Category    string          `json:"category,omitempty" bson:"category,omitempty"`
	AddedAt     time.Time       `json:"addedAt" bson:"addedAt"`
}

// User is a storefront account.
//
// Email is unique across users and stored lowercase. A user without a
// PasswordHash authenticates externally and must carry a GoogleID.
type User struct {
	ID           string         `json:"_id"`
	Email        string         `json:"email"`
	PasswordHash string         `json:"-"`
	GoogleID     string         `json:"-"`
	Name         string         `json:"name,omitempty"`
	Phone        string         `json:"phone,omitempty"`
	Address      string         `json:"address,omitempty"`
	ProfileImage string         `json:"profileImage,omitempty"`
	Preferences  Preferences    `json:"preferences"`
	Wishlist     []WishlistItem `json:"wishlist"`
	OrderHistory []string       `json:"orderHistory"`
	CreatedAt    time.Time      `json:"createdAt"`
	LastLogin    time.Time      `json:"lastLogin"`
	LastUpdated  *time.Time     `json:"lastUpdated,omitempty"`
}

// HasPassword reports whether the account can authenticate with a password.
func (u *User) HasPassword() bool {
	return u.PasswordHash != ""
}

// IsExternal reports whether the account authenticates through Google.
func (u *User) IsExternal() bool {
	return u.GoogleID != ""
}

// HasWishlistItem reports whether productID is already on the wishlist.
func (u *User) HasWishlistItem(productID string) bool {
	for _, item := range u.Wishlist {
		if item.ProductID == productID {
			return true
		}
	}
	return false
}

// NormalizeEmail lowercases and trims an email address so it can be used as
// an identity key.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// UserStore persists user records.
type UserStore interface {
	// Create inserts the user and assigns its ID.
	// Returns ECONFLICT if the email is already registered.
	Create(ctx context.Context, u *User) error

	// GetByID returns ENOTFOUND when no user has the id (including malformed ids).
	GetByID(ctx context.Context, id string) (*User, error)

	// GetByEmail returns ENOTFOUND when no user has the email.
	GetByEmail(ctx context.Context, email string) (*User, error)

	// Update persists profile, credential and timestamp fields.
	// Wishlist and order history are only changed through their own methods.
	Update(ctx context.Context, u *User) error

	// Delete removes the user record. Returns ENOTFOUND if absent.
	Delete(ctx context.Context, id string) error

	// AppendOrderHistory adds order ids to the user's history without
	// duplicating ids already present.
	AppendOrderHistory(ctx context.Context, userID string, orderIDs ...string) error

	// AddWishlistItem appends the item unless its product is already present,
	// in which case ECONFLICT is returned and the wishlist is unchanged.
	AddWishlistItem(ctx context.Context, userID string, item WishlistItem) ([]WishlistItem, error)

	// RemoveWishlistItem returns ENOTFOUND if the product is not on the wishlist.
	RemoveWishlistItem(ctx context.Context, userID, productID string) ([]WishlistItem, error)

	// ClearWishlist empties the wishlist.
	ClearWishlist(ctx context.Context, userID string) error
}

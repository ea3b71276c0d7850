// Package memory implements the domain stores in process memory.
//
// Every mutation runs under a single mutex per store, giving the same
// atomicity the document store provides per operation. Values are copied on
// the way in and out so callers never share state with the store.
package memory

import (
	"sort"
	"time"

	"github.com/dukerupert/balaguruva/internal/domain"
	"github.com/google/uuid"
)

// Store bundles one instance of every store.
type Store struct {
	Users    *UserStore
	Products *ProductStore
	Carts    *CartStore
	Orders   *OrderStore
	Contacts *ContactStore
}

// New returns an empty Store.
func New() *Store {
	return &Store{
		Users:    NewUserStore(),
		Products: NewProductStore(),
		Carts:    NewCartStore(),
		Orders:   NewOrderStore(),
		Contacts: NewContactStore(),
	}
}

var now = func() time.Time { return time.Now().UTC() }

func newID() string {
	return uuid.NewString()
}

func cloneOrder(o *domain.Order) *domain.Order {
	c := *o
	c.Items = append([]domain.OrderItem(nil), o.Items...)
	if o.PaymentResult != nil {
		pr := *o.PaymentResult
		c.PaymentResult = &pr
	}
	return &c
}

func cloneUser(u *domain.User) *domain.User {
	c := *u
	c.Wishlist = append([]domain.WishlistItem{}, u.Wishlist...)
	c.OrderHistory = append([]string{}, u.OrderHistory...)
	if u.LastUpdated != nil {
		t := *u.LastUpdated
		c.LastUpdated = &t
	}
	return &c
}

func cloneCart(c *domain.Cart) *domain.Cart {
	out := *c
	out.Items = append([]domain.CartLine{}, c.Items...)
	return &out
}

func sortOrdersNewestFirst(orders []domain.Order) {
	sort.SliceStable(orders, func(i, j int) bool {
		return orders[i].CreatedAt.After(orders[j].CreatedAt)
	})
}

package service

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/dukerupert/balaguruva/internal/auth"
	"github.com/dukerupert/balaguruva/internal/billing"
	"github.com/dukerupert/balaguruva/internal/cache"
	"github.com/dukerupert/balaguruva/internal/domain"
	"github.com/dukerupert/balaguruva/internal/events"
	"github.com/dukerupert/balaguruva/internal/memory"
	"github.com/dukerupert/balaguruva/internal/shipping"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func dec(s string) *decimal.Decimal {
	d := decimal.RequireFromString(s)
	return &d
}

// recordingBus captures published envelopes.
type recordingBus struct {
	mu         sync.Mutex
	published  []events.Envelope
	PublishErr error
}

func (b *recordingBus) Publish(ctx context.Context, subject string, env events.Envelope) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.PublishErr != nil {
		return b.PublishErr
	}
	b.published = append(b.published, env)
	return nil
}

func (b *recordingBus) Subscribe(subject string, h events.Handler) error { return nil }
func (b *recordingBus) Close() error                                      { return nil }

func (b *recordingBus) Published() []events.Envelope {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]events.Envelope(nil), b.published...)
}

type fixture struct {
	store    *memory.Store
	bus      *recordingBus
	verifier *billing.MockVerifier

	identity IdentityResolver
	products ProductService
	carts    CartService
	checkout CheckoutService
	orders   OrderService
	users    UserService
	wishlist WishlistService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	logger := discardLogger()
	st := memory.New()
	f := &fixture{
		store:    st,
		bus:      &recordingBus{},
		verifier: &billing.MockVerifier{},
	}

	f.identity = NewIdentityResolver(st.Users)
	f.products = NewProductService(st.Products, cache.NewMemory(), time.Minute, logger)
	f.carts = NewCartService(st.Carts, f.products, f.identity, logger)
	f.checkout = NewCheckoutService(st.Orders, st.Carts, f.products, f.identity,
		shipping.NewFlatRateProvider(shipping.DefaultRates), f.verifier, f.bus,
		CheckoutOptions{TotalTolerance: decimal.RequireFromString("0.01"), PaymentTimeout: time.Second},
		logger)
	f.orders = NewOrderService(st.Orders, st.Users, logger)
	f.users = NewUserService(st.Users, st.Orders, st.Carts, auth.NewHasher(4),
		auth.NewTokens("test-secret", time.Hour), nil, logger)
	f.wishlist = NewWishlistService(st.Users, logger)
	return f
}

// seedPan adds the catalog product P1: "Pan", mrp 1000, price 800.
func (f *fixture) seedPan(t *testing.T) domain.Product {
	t.Helper()
	p := domain.Product{
		ID:              "P1",
		Name:            "Pan",
		MRP:             decimal.NewFromInt(1000),
		Discount:        decimal.NewFromInt(20),
		DiscountedPrice: decimal.NewFromInt(800),
		Image:           "pan.jpg",
		Stock:           10,
	}
	require.NoError(t, f.store.Products.Create(context.Background(), &p))
	return p
}

func (f *fixture) seedUser(t *testing.T, email string) *domain.User {
	t.Helper()
	u := &domain.User{Email: email, Preferences: domain.DefaultPreferences(), CreatedAt: time.Now().UTC()}
	require.NoError(t, f.store.Users.Create(context.Background(), u))
	return u
}

func asUser(u *domain.User) context.Context {
	return domain.NewContextWithPrincipal(context.Background(), &domain.Principal{UserID: u.ID, Email: u.Email})
}

func asAdmin() context.Context {
	return domain.NewContextWithPrincipal(context.Background(), &domain.Principal{UserID: "admin", Email: "admin@x.com", Admin: true})
}

package service

import (
	"context"
	"log/slog"
	"strings"

	"github.com/dukerupert/balaguruva/internal/domain"
	"github.com/dukerupert/balaguruva/internal/telemetry"
	"github.com/dukerupert/balaguruva/internal/validation"
	"github.com/shopspring/decimal"
)

// CartService reconciles the client-held cart with the persisted one.
//
// Every method takes the identifier the client sent (user id, email or guest
// key) and resolves it through IdentityResolver.CartKey. When the request is
// authenticated the resolved key must belong to the caller.
type CartService interface {
	// Get returns the persisted cart, or an empty one when none exists.
	Get(ctx context.Context, userKey string) (*domain.Cart, error)

	// Load returns the persisted cart joined to the live catalog. Lines whose
	// product no longer exists are dropped and logged, not reported.
	Load(ctx context.Context, userKey string) (*domain.EnrichedCart, error)

	// Add increments the product's line by the given quantity or appends it.
	Add(ctx context.Context, userKey string, item CartItemInput) (*domain.Cart, error)

	// Remove filters out the product's line. Returns ErrCartNotFound when no
	// cart exists; removing an absent product succeeds.
	Remove(ctx context.Context, userKey, productID string) (*domain.Cart, error)

	// UpdateQuantity overwrites a line's quantity, clamped to at least 1.
	UpdateQuantity(ctx context.Context, userKey, productID string, quantity int) (*domain.Cart, error)

	// Sync replaces the persisted lines with the client's list.
	Sync(ctx context.Context, userKey string, lines []SyncLine) (*domain.Cart, error)

	// Merge folds client-held lines into the persisted cart, keeping the
	// larger quantity per product.
	Merge(ctx context.Context, userKey string, items []CartItemInput) (*domain.EnrichedCart, error)

	// Clear deletes the cart. Clearing an absent cart succeeds.
	Clear(ctx context.Context, userKey string) error
}

// CartItemInput is a product snapshot sent by the client when adding to the cart.
type CartItemInput struct {
	ProductID       string           `json:"productId" validate:"notblank"`
	Name            string           `json:"name" validate:"notblank"`
	Image           string           `json:"image" validate:"notblank"`
	MRP             *decimal.Decimal `json:"mrp" validate:"required,gte=0"`
	DiscountedPrice *decimal.Decimal `json:"discountedPrice" validate:"required,gte=0"`
	Quantity        int              `json:"quantity" validate:"required,gte=1"`
}

func (in CartItemInput) line() domain.CartLine {
	return domain.CartLine{
		ProductID:       strings.TrimSpace(in.ProductID),
		Name:            in.Name,
		Image:           in.Image,
		MRP:             *in.MRP,
		DiscountedPrice: *in.DiscountedPrice,
		Quantity:        in.Quantity,
	}
}

// SyncLine is one entry of a bulk cart replacement.
type SyncLine struct {
	ProductID string `json:"productId" validate:"notblank"`
	Quantity  int    `json:"quantity" validate:"gte=1"`
}

type syncInput struct {
	Items []SyncLine `json:"items" validate:"dive"`
}

type mergeInput struct {
	Items []CartItemInput `json:"items" validate:"dive"`
}

// catalog is the read side of ProductService used for enrichment.
type catalog interface {
	ListProducts(ctx context.Context) ([]domain.Product, error)
}

type cartService struct {
	carts    domain.CartStore
	catalog  catalog
	identity IdentityResolver
	logger   *slog.Logger
}

// NewCartService creates a new CartService instance
func NewCartService(carts domain.CartStore, catalog catalog, identity IdentityResolver, logger *slog.Logger) CartService {
	return &cartService{
		carts:    carts,
		catalog:  catalog,
		identity: identity,
		logger:   logger,
	}
}

// key resolves the client identifier and checks it against the caller.
func (s *cartService) key(ctx context.Context, op, userKey string) (string, error) {
	key, err := s.identity.CartKey(ctx, userKey)
	if err != nil {
		return "", domain.WithOp(err, op)
	}

	p := domain.PrincipalFromContext(ctx)
	if p != nil && !p.Admin && !p.Owns(key, key) {
		return "", domain.WithOp(ErrCartNotYours, op)
	}
	return key, nil
}

func (s *cartService) Get(ctx context.Context, userKey string) (*domain.Cart, error) {
	const op = "cart.get"

	key, err := s.key(ctx, op, userKey)
	if err != nil {
		return nil, err
	}

	cart, err := s.carts.Get(ctx, key)
	if err != nil {
		if domain.IsCode(err, domain.ENOTFOUND) {
			return domain.EmptyCart(key), nil
		}
		return nil, domain.WithOp(err, op)
	}
	return cart, nil
}

func (s *cartService) Load(ctx context.Context, userKey string) (*domain.EnrichedCart, error) {
	cart, err := s.Get(ctx, userKey)
	if err != nil {
		return nil, err
	}
	return s.enrich(ctx, "load", cart)
}

func (s *cartService) enrich(ctx context.Context, operation string, cart *domain.Cart) (*domain.EnrichedCart, error) {
	out := &domain.EnrichedCart{UserKey: cart.UserKey, Items: []domain.EnrichedLine{}, Subtotal: decimal.Zero}
	if len(cart.Items) == 0 {
		return out, nil
	}

	products, err := s.catalog.ListProducts(ctx)
	if err != nil {
		return nil, domain.WithOp(err, "cart."+operation)
	}
	byID := make(map[string]*domain.Product, len(products))
	for i := range products {
		byID[products[i].ID] = &products[i]
	}

	for _, line := range cart.Items {
		p, ok := byID[line.ProductID]
		if !ok {
			out.Dropped++
			s.logger.WarnContext(ctx, "dropping cart line for unknown product",
				"user_key", cart.UserKey,
				"product_id", line.ProductID,
			)
			continue
		}
		out.Items = append(out.Items, domain.EnrichedLine{
			ID:              p.ID,
			Name:            p.Name,
			Image:           p.Image,
			MRP:             p.MRP,
			DiscountedPrice: p.DiscountedPrice,
			Quantity:        line.Quantity,
		})
		out.Subtotal = out.Subtotal.Add(p.DiscountedPrice.Mul(decimal.NewFromInt(int64(line.Quantity))))
	}

	if out.Dropped > 0 && telemetry.Business != nil {
		telemetry.Business.CartOrphansDropped.WithLabelValues(operation).Add(float64(out.Dropped))
	}
	return out, nil
}

func (s *cartService) Add(ctx context.Context, userKey string, item CartItemInput) (*domain.Cart, error) {
	const op = "cart.add"

	if err := validation.Struct(op, item); err != nil {
		return nil, err
	}
	key, err := s.key(ctx, op, userKey)
	if err != nil {
		return nil, err
	}

	cart, err := s.carts.AddLine(ctx, key, item.line())
	if err != nil {
		return nil, domain.WithOp(err, op)
	}

	if telemetry.Business != nil {
		telemetry.Business.CartItemsAdded.WithLabelValues("add").Inc()
	}
	return cart, nil
}

func (s *cartService) Remove(ctx context.Context, userKey, productID string) (*domain.Cart, error) {
	const op = "cart.remove"

	if strings.TrimSpace(productID) == "" {
		return nil, domain.NewValidationError(op, "productId", "is required")
	}
	key, err := s.key(ctx, op, userKey)
	if err != nil {
		return nil, err
	}

	cart, err := s.carts.RemoveLine(ctx, key, strings.TrimSpace(productID))
	if err != nil {
		return nil, domain.WithOp(err, op)
	}

	if telemetry.Business != nil {
		telemetry.Business.CartItemsRemoved.WithLabelValues().Inc()
	}
	return cart, nil
}

func (s *cartService) UpdateQuantity(ctx context.Context, userKey, productID string, quantity int) (*domain.Cart, error) {
	const op = "cart.update_quantity"

	if strings.TrimSpace(productID) == "" {
		return nil, domain.NewValidationError(op, "productId", "is required")
	}
	key, err := s.key(ctx, op, userKey)
	if err != nil {
		return nil, err
	}

	cart, err := s.carts.SetQuantity(ctx, key, strings.TrimSpace(productID), max(quantity, 1))
	if err != nil {
		return nil, domain.WithOp(err, op)
	}

	if telemetry.Business != nil {
		telemetry.Business.CartQuantityUpdates.WithLabelValues().Inc()
	}
	return cart, nil
}

func (s *cartService) Sync(ctx context.Context, userKey string, lines []SyncLine) (*domain.Cart, error) {
	const op = "cart.sync"

	if err := validation.Struct(op, syncInput{Items: lines}); err != nil {
		return nil, err
	}
	key, err := s.key(ctx, op, userKey)
	if err != nil {
		return nil, err
	}

	existing, err := s.carts.Get(ctx, key)
	if err != nil {
		if !domain.IsCode(err, domain.ENOTFOUND) {
			return nil, domain.WithOp(err, op)
		}
		existing = domain.EmptyCart(key)
	}

	// Sum duplicates, keeping first-seen order.
	quantities := make(map[string]int, len(lines))
	order := make([]string, 0, len(lines))
	for _, l := range lines {
		id := strings.TrimSpace(l.ProductID)
		if _, seen := quantities[id]; !seen {
			order = append(order, id)
		}
		quantities[id] += l.Quantity
	}

	var byID map[string]domain.Product
	next := make([]domain.CartLine, 0, len(order))
	dropped := 0
	for _, id := range order {
		if line, ok := existing.Line(id); ok {
			line.Quantity = quantities[id]
			next = append(next, line)
			continue
		}

		if byID == nil {
			products, err := s.catalog.ListProducts(ctx)
			if err != nil {
				return nil, domain.WithOp(err, op)
			}
			byID = make(map[string]domain.Product, len(products))
			for _, p := range products {
				byID[p.ID] = p
			}
		}
		p, ok := byID[id]
		if !ok {
			dropped++
			s.logger.WarnContext(ctx, "dropping synced cart line for unknown product",
				"user_key", key,
				"product_id", id,
			)
			continue
		}
		next = append(next, domain.CartLine{
			ProductID:       p.ID,
			Name:            p.Name,
			Image:           p.Image,
			MRP:             p.MRP,
			DiscountedPrice: p.DiscountedPrice,
			Quantity:        quantities[id],
		})
	}

	cart, err := s.carts.Replace(ctx, key, next)
	if err != nil {
		return nil, domain.WithOp(err, op)
	}

	if telemetry.Business != nil {
		telemetry.Business.CartSyncs.WithLabelValues().Inc()
		if dropped > 0 {
			telemetry.Business.CartOrphansDropped.WithLabelValues("sync").Add(float64(dropped))
		}
	}
	return cart, nil
}

func (s *cartService) Merge(ctx context.Context, userKey string, items []CartItemInput) (*domain.EnrichedCart, error) {
	const op = "cart.merge"

	if err := validation.Struct(op, mergeInput{Items: items}); err != nil {
		return nil, err
	}
	key, err := s.key(ctx, op, userKey)
	if err != nil {
		return nil, err
	}

	cart, err := s.carts.Get(ctx, key)
	if err != nil {
		if !domain.IsCode(err, domain.ENOTFOUND) {
			return nil, domain.WithOp(err, op)
		}
		cart = domain.EmptyCart(key)
	}

	for _, item := range items {
		cart, err = s.carts.MergeLine(ctx, key, item.line())
		if err != nil {
			return nil, domain.WithOp(err, op)
		}
	}

	if telemetry.Business != nil && len(items) > 0 {
		telemetry.Business.CartItemsAdded.WithLabelValues("merge").Add(float64(len(items)))
	}
	return s.enrich(ctx, "load", cart)
}

func (s *cartService) Clear(ctx context.Context, userKey string) error {
	const op = "cart.clear"

	key, err := s.key(ctx, op, userKey)
	if err != nil {
		return err
	}
	if err := s.carts.Delete(ctx, key); err != nil {
		return domain.WithOp(err, op)
	}

	if telemetry.Business != nil {
		telemetry.Business.CartCleared.WithLabelValues("user").Inc()
	}
	return nil
}

package service

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/dukerupert/balaguruva/internal/cache"
	"github.com/dukerupert/balaguruva/internal/domain"
	"github.com/dukerupert/balaguruva/internal/validation"
	"github.com/shopspring/decimal"
)

// ProductService provides business logic for catalog operations
type ProductService interface {
	// ListProducts returns the catalog newest first, served from the cache
	// when it is warm.
	ListProducts(ctx context.Context) ([]domain.Product, error)

	GetProduct(ctx context.Context, id string) (*domain.Product, error)

	// CreateProduct derives the discounted price from mrp and discount and
	// invalidates the cached catalog.
	CreateProduct(ctx context.Context, input CreateProductInput) (*domain.Product, error)
}

// CreateProductInput is the admin payload for a new catalog entry.
type CreateProductInput struct {
	Name        string           `json:"name" validate:"notblank"`
	Description string           `json:"description"`
	MRP         *decimal.Decimal `json:"mrp" validate:"required,gt=0"`
	Discount    *decimal.Decimal `json:"discount" validate:"omitempty,gte=0,lte=100"`
	Category    string           `json:"category"`
	Image       string           `json:"image"`
	Stock       int              `json:"stock" validate:"gte=0"`
}

type productService struct {
	products domain.ProductStore
	cache    cache.Cache
	ttl      time.Duration
	logger   *slog.Logger
}

// NewProductService creates a new ProductService instance
func NewProductService(products domain.ProductStore, c cache.Cache, ttl time.Duration, logger *slog.Logger) ProductService {
	if ttl <= 0 {
		ttl = cache.TTLCatalog
	}
	return &productService{products: products, cache: c, ttl: ttl, logger: logger}
}

func (s *productService) ListProducts(ctx context.Context) ([]domain.Product, error) {
	var products []domain.Product
	err := cache.GetJSON(ctx, s.cache, cache.KeyCatalog, &products)
	if err == nil {
		return products, nil
	}
	if !errors.Is(err, cache.ErrMiss) {
		s.logger.WarnContext(ctx, "catalog cache read failed", "error", err)
	}

	products, err = s.products.List(ctx)
	if err != nil {
		return nil, domain.WithOp(err, "product.list")
	}

	if err := cache.SetJSON(ctx, s.cache, cache.KeyCatalog, products, s.ttl); err != nil {
		s.logger.WarnContext(ctx, "catalog cache write failed", "error", err)
	}
	return products, nil
}

func (s *productService) GetProduct(ctx context.Context, id string) (*domain.Product, error) {
	p, err := s.products.GetByID(ctx, id)
	if err != nil {
		if domain.IsCode(err, domain.ENOTFOUND) {
			return nil, domain.WithOp(ErrProductNotFound, "product.get")
		}
		return nil, domain.WithOp(err, "product.get")
	}
	return p, nil
}

func (s *productService) CreateProduct(ctx context.Context, input CreateProductInput) (*domain.Product, error) {
	const op = "product.create"

	if err := validation.Struct(op, input); err != nil {
		return nil, err
	}

	discount := decimal.Zero
	if input.Discount != nil {
		discount = *input.Discount
	}

	p := &domain.Product{
		Name:            strings.TrimSpace(input.Name),
		Description:     input.Description,
		MRP:             *input.MRP,
		Discount:        discount,
		DiscountedPrice: domain.DiscountedPriceFor(*input.MRP, discount),
		Category:        input.Category,
		Image:           input.Image,
		Stock:           input.Stock,
		CreatedAt:       time.Now().UTC(),
	}
	if err := s.products.Create(ctx, p); err != nil {
		return nil, domain.WithOp(err, op)
	}

	if err := s.cache.Delete(ctx, cache.KeyCatalog); err != nil {
		s.logger.WarnContext(ctx, "catalog cache invalidation failed", "error", err)
	}
	return p, nil
}

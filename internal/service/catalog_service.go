package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"dhaba-pos/internal/models"
	"dhaba-pos/internal/util"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

const (
	cacheKeyProducts = "products"
	cacheKeyCompany  = "company"
)

// CatalogService serves products, rooms and company settings. Products and
// company settings are cached in Redis; rooms are always read live because
// table occupancy changes with every KOT.
type CatalogService struct {
	store    CatalogStore
	cache    Cache
	cacheTTL time.Duration
	defaults models.CompanyConfig
	logger   *zap.Logger
}

// NewCatalogService creates a new catalog service. cache may be nil.
func NewCatalogService(store CatalogStore, cache Cache, cacheTTL time.Duration, defaults models.CompanyConfig) *CatalogService {
	return &CatalogService{
		store:    store,
		cache:    cache,
		cacheTTL: cacheTTL,
		defaults: defaults,
		logger:   util.Named("catalog"),
	}
}

// CreateProductRequest represents a request to add a menu item
type CreateProductRequest struct {
	Name        string           `json:"name" binding:"required,max=120"`
	Price       *decimal.Decimal `json:"price" binding:"required"`
	Category    string           `json:"category" binding:"required,max=60"`
	IsAvailable *bool            `json:"isAvailable"`
}

// UpdateCompanyRequest represents a request to change the company settings
type UpdateCompanyRequest struct {
	Name            string          `json:"name" binding:"required"`
	Address         string          `json:"address"`
	Phone           string          `json:"phone"`
	Email           string          `json:"email" binding:"omitempty,email"`
	TaxRate         decimal.Decimal `json:"taxRate"`
	DiscountDefault decimal.Decimal `json:"discountDefault"`
}

// Products returns the full catalog, from cache when possible
func (s *CatalogService) Products(ctx context.Context) ([]models.Product, error) {
	ctx, span := util.StartSpan(ctx, "CatalogService.Products")
	defer span.End()

	var products []models.Product
	if s.cacheGet(ctx, cacheKeyProducts, &products) {
		return products, nil
	}

	products, err := s.store.ListProducts(ctx)
	if err != nil {
		return nil, util.SpanError(span, fmt.Errorf("failed to list products: %w", err))
	}
	s.cacheSet(ctx, cacheKeyProducts, products)
	return products, nil
}

// FreshProducts reads the catalog from the database, bypassing the cache
func (s *CatalogService) FreshProducts(ctx context.Context) ([]models.Product, error) {
	products, err := s.store.ListProducts(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list products: %w", err)
	}
	return products, nil
}

// CreateProduct adds a menu item and drops the cached catalog
func (s *CatalogService) CreateProduct(ctx context.Context, req *CreateProductRequest) (*models.Product, error) {
	ctx, span := util.StartSpan(ctx, "CatalogService.CreateProduct")
	defer span.End()

	if req.Price == nil {
		return nil, invalid("price", "is required")
	}
	price := req.Price.Round(2)
	if !price.IsPositive() {
		return nil, invalid("price", "must be greater than zero")
	}

	product := &models.Product{
		Name:        strings.TrimSpace(req.Name),
		Price:       price,
		Category:    strings.TrimSpace(req.Category),
		IsAvailable: req.IsAvailable == nil || *req.IsAvailable,
	}
	if err := s.store.CreateProduct(ctx, product); err != nil {
		return nil, util.SpanError(span, fmt.Errorf("failed to create product: %w", err))
	}

	s.invalidate(ctx, cacheKeyProducts)
	s.logger.Info("Product created", zap.Int64("product_id", product.ID), zap.String("name", product.Name))
	return product, nil
}

// Rooms returns active rooms with live table occupancy
func (s *CatalogService) Rooms(ctx context.Context) ([]models.Room, error) {
	ctx, span := util.StartSpan(ctx, "CatalogService.Rooms")
	defer span.End()

	rooms, err := s.store.ListRooms(ctx)
	if err != nil {
		return nil, util.SpanError(span, fmt.Errorf("failed to list rooms: %w", err))
	}
	return rooms, nil
}

// CompanyConfig returns the company settings. When none are stored the
// configured defaults are used.
func (s *CatalogService) CompanyConfig(ctx context.Context) (models.CompanyConfig, error) {
	var cfg models.CompanyConfig
	if s.cacheGet(ctx, cacheKeyCompany, &cfg) {
		return cfg, nil
	}

	stored, err := s.store.GetCompanyConfig(ctx)
	if errors.Is(err, ErrNotFound) {
		return s.defaults, nil
	}
	if err != nil {
		return models.CompanyConfig{}, fmt.Errorf("failed to load company settings: %w", err)
	}
	s.cacheSet(ctx, cacheKeyCompany, stored)
	return *stored, nil
}

// UpdateCompanyConfig replaces the company settings
func (s *CatalogService) UpdateCompanyConfig(ctx context.Context, req *UpdateCompanyRequest) (*models.CompanyConfig, error) {
	ctx, span := util.StartSpan(ctx, "CatalogService.UpdateCompanyConfig")
	defer span.End()

	if req.TaxRate.IsNegative() || req.TaxRate.GreaterThan(hundred) {
		return nil, invalid("taxRate", "must be between 0 and 100")
	}
	if req.DiscountDefault.IsNegative() || req.DiscountDefault.GreaterThan(hundred) {
		return nil, invalid("discountDefault", "must be between 0 and 100")
	}

	cfg := &models.CompanyConfig{
		Name:            strings.TrimSpace(req.Name),
		Address:         req.Address,
		Phone:           req.Phone,
		Email:           req.Email,
		TaxRate:         req.TaxRate,
		DiscountDefault: req.DiscountDefault,
	}
	if err := s.store.UpsertCompanyConfig(ctx, cfg); err != nil {
		return nil, util.SpanError(span, fmt.Errorf("failed to save company settings: %w", err))
	}

	s.invalidate(ctx, cacheKeyCompany)
	s.logger.Info("Company settings updated",
		zap.String("tax_rate", cfg.TaxRate.String()),
		zap.String("discount_default", cfg.DiscountDefault.String()))
	return cfg, nil
}

var hundred = decimal.NewFromInt(100)

func (s *CatalogService) cacheGet(ctx context.Context, key string, v interface{}) bool {
	if s.cache == nil {
		return false
	}
	if err := s.cache.GetJSON(ctx, key, v); err != nil {
		return false
	}
	return true
}

func (s *CatalogService) cacheSet(ctx context.Context, key string, v interface{}) {
	if s.cache == nil {
		return
	}
	if err := s.cache.SetJSON(ctx, key, v, s.cacheTTL); err != nil {
		s.logger.Warn("Failed to cache value", zap.String("key", key), zap.Error(err))
	}
}

func (s *CatalogService) invalidate(ctx context.Context, keys ...string) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Invalidate(ctx, keys...); err != nil {
		s.logger.Warn("Failed to invalidate cache", zap.Strings("keys", keys), zap.Error(err))
	}
}

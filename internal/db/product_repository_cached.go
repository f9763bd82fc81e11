package db

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/nkashyap/storefront/internal/cache"
	"github.com/nkashyap/storefront/internal/models"
)

// CachedProductRepository caches reads in Redis. Cache entries are
// best-effort: any failure falls through to Postgres. Stock events
// from the fan-out invalidate entries so connected storefronts and
// fresh fetches agree.
type CachedProductRepository struct {
	repo   *ProductRepository
	cache  *cache.RedisCache
	logger *zap.Logger
}

func NewCachedProductRepository(repo *ProductRepository, cache *cache.RedisCache, logger *zap.Logger) *CachedProductRepository {
	return &CachedProductRepository{
		repo:   repo,
		cache:  cache,
		logger: logger,
	}
}

func productKey(id int) string {
	return fmt.Sprintf("product:%d", id)
}

func allProductsKey() string {
	return "products:all"
}

// GetAll returns all products (with caching)
func (r *CachedProductRepository) GetAll(ctx context.Context) ([]models.Product, error) {
	var products []models.Product
	err := r.cache.Get(ctx, allProductsKey(), &products)
	if err == nil {
		return products, nil
	}

	products, err = r.repo.GetAll(ctx)
	if err != nil {
		return nil, err
	}

	if err := r.cache.Set(ctx, allProductsKey(), products); err != nil {
		r.logger.Warn("failed to cache product list", zap.Error(err))
	}

	return products, nil
}

// GetByID returns a single product (with caching)
func (r *CachedProductRepository) GetByID(ctx context.Context, id int) (*models.Product, error) {
	var product models.Product
	err := r.cache.Get(ctx, productKey(id), &product)
	if err == nil {
		return &product, nil
	}
	if !errors.Is(err, redis.Nil) {
		r.logger.Warn("cache read failed", zap.Error(err))
	}

	p, err := r.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if err := r.cache.Set(ctx, productKey(id), p); err != nil {
		r.logger.Warn("failed to cache product", zap.Int("product_id", id), zap.Error(err))
	}

	return p, nil
}

// Create inserts a new product and invalidates the list cache.
func (r *CachedProductRepository) Create(ctx context.Context, req models.CreateProductRequest) (*models.Product, error) {
	product, err := r.repo.Create(ctx, req)
	if err != nil {
		return nil, err
	}

	r.invalidate(ctx, allProductsKey())
	return product, nil
}

// Update edits a product and invalidates both caches.
func (r *CachedProductRepository) Update(ctx context.Context, id int, req models.UpdateProductRequest) (*models.Product, error) {
	product, err := r.repo.Update(ctx, id, req)
	if err != nil {
		return nil, err
	}

	r.invalidate(ctx, productKey(id), allProductsKey())
	return product, nil
}

// Delete removes a product and invalidates both caches.
func (r *CachedProductRepository) Delete(ctx context.Context, id int) error {
	if err := r.repo.Delete(ctx, id); err != nil {
		return err
	}

	r.invalidate(ctx, productKey(id), allProductsKey())
	return nil
}

// InvalidateProduct drops the cached entries for one product. Called
// when a stock change event is observed, so cached stock figures
// never outlive the ledger write that made them stale.
func (r *CachedProductRepository) InvalidateProduct(ctx context.Context, id int) {
	r.invalidate(ctx, productKey(id), allProductsKey())
}

func (r *CachedProductRepository) Count(ctx context.Context) (int, error) {
	return r.repo.Count(ctx)
}

func (r *CachedProductRepository) invalidate(ctx context.Context, keys ...string) {
	if err := r.cache.Delete(ctx, keys...); err != nil {
		r.logger.Warn("failed to invalidate cache", zap.Strings("keys", keys), zap.Error(err))
	}
}

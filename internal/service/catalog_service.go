package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"marketnet/config"
	"marketnet/internal/models"
	"marketnet/internal/store"
	"marketnet/internal/util"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

const (
	defaultPageSize = 10
	maxPageSize     = 100
)

// CatalogStore is the persistence the catalog needs
type CatalogStore interface {
	ListCollections(ctx context.Context) ([]models.Collection, error)
	GetCollection(ctx context.Context, id int64) (*models.Collection, error)
	CreateCollection(ctx context.Context, c *models.Collection) error
	UpdateCollection(ctx context.Context, c *models.Collection) error
	DeleteCollection(ctx context.Context, id int64) error

	ListProducts(ctx context.Context, f models.ProductFilter) ([]models.Product, error)
	GetProduct(ctx context.Context, id int64) (*models.Product, error)
	CreateProduct(ctx context.Context, p *models.Product) error
	UpdateProduct(ctx context.Context, p *models.Product) error
	DeleteProduct(ctx context.Context, id int64) error

	ListPromotions(ctx context.Context) ([]models.Promotion, error)
	CreatePromotion(ctx context.Context, p *models.Promotion) error
	SetProductPromotions(ctx context.Context, productID int64, promotionIDs []int64) error
	ListProductPromotions(ctx context.Context, productID int64) ([]models.Promotion, error)

	ListReviews(ctx context.Context, productID int64) ([]models.Review, error)
	CreateReview(ctx context.Context, r *models.Review) error
}

// ProductCache is a read-through cache of single products. Reads fill it
// with FillProduct, which never replaces an entry; writers replace entries
// with SetProduct or InvalidateProduct.
type ProductCache interface {
	GetProduct(ctx context.Context, id int64) (*models.Product, bool, error)
	FillProduct(ctx context.Context, p *models.Product) (bool, error)
	SetProduct(ctx context.Context, p *models.Product) error
	InvalidateProduct(ctx context.Context, id int64) error
}

// Publisher hands committed domain events to their subscribers
type Publisher interface {
	Publish(ctx context.Context, event models.Event) int
}

// CollectionInput is the writable part of a collection
type CollectionInput struct {
	Title             string `json:"title" binding:"required,max=255"`
	FeaturedProductID *int64 `json:"featured_product_id"`
}

// ProductInput is the writable part of a product
type ProductInput struct {
	Title        string          `json:"title" binding:"required,max=255"`
	Slug         string          `json:"slug" binding:"required"`
	Description  string          `json:"description"`
	UnitPrice    decimal.Decimal `json:"unit_price"`
	Inventory    int             `json:"inventory"`
	CollectionID int64           `json:"collection_id" binding:"required"`
}

// CatalogService handles collections, products, promotions and reviews
type CatalogService struct {
	store    CatalogStore
	cache    ProductCache
	bus      Publisher
	business config.BusinessConfig
	logger   *zap.Logger
}

// NewCatalogService creates a catalog service. cache may be nil.
func NewCatalogService(store CatalogStore, cache ProductCache, bus Publisher, business config.BusinessConfig) *CatalogService {
	return &CatalogService{
		store:    store,
		cache:    cache,
		bus:      bus,
		business: business,
		logger:   util.GetLogger(),
	}
}

// PriceWithTax returns the unit price including the configured tax rate
func (s *CatalogService) PriceWithTax(p *models.Product) decimal.Decimal {
	return p.UnitPrice.Mul(decimal.NewFromInt(1).Add(s.business.TaxRate)).Round(s.business.PriceDecimalPlaces)
}

func (s *CatalogService) ListCollections(ctx context.Context) ([]models.Collection, error) {
	ctx, span := util.StartSpan(ctx, "CatalogService.ListCollections")
	defer span.End()

	return s.store.ListCollections(ctx)
}

func (s *CatalogService) GetCollection(ctx context.Context, id int64) (*models.Collection, error) {
	ctx, span := util.StartSpan(ctx, "CatalogService.GetCollection")
	defer span.End()

	collection, err := s.store.GetCollection(ctx, id)
	if errors.Is(err, store.ErrNotFound) {
		return nil, ErrNotFound
	}
	return collection, err
}

// CreateCollection creates a collection. A featured product must exist.
func (s *CatalogService) CreateCollection(ctx context.Context, in CollectionInput) (*models.Collection, error) {
	ctx, span := util.StartSpan(ctx, "CatalogService.CreateCollection")
	defer span.End()

	if err := s.validateCollection(ctx, in); err != nil {
		return nil, err
	}

	collection := &models.Collection{Title: strings.TrimSpace(in.Title), FeaturedProductID: in.FeaturedProductID}
	err := s.store.CreateCollection(ctx, collection)
	if errors.Is(err, store.ErrProductNotFound) {
		return nil, invalid("featured_product_id", "no such product")
	}
	if err != nil {
		util.RecordError(span, err)
		return nil, fmt.Errorf("failed to create collection: %w", err)
	}

	s.logger.Info("Collection created", zap.Int64("collection_id", collection.ID))
	return collection, nil
}

// UpdateCollection replaces the title and featured product
func (s *CatalogService) UpdateCollection(ctx context.Context, id int64, in CollectionInput) (*models.Collection, error) {
	ctx, span := util.StartSpan(ctx, "CatalogService.UpdateCollection")
	defer span.End()

	if err := s.validateCollection(ctx, in); err != nil {
		return nil, err
	}

	collection := &models.Collection{ID: id, Title: strings.TrimSpace(in.Title), FeaturedProductID: in.FeaturedProductID}
	err := s.store.UpdateCollection(ctx, collection)
	switch {
	case errors.Is(err, store.ErrNotFound):
		return nil, ErrNotFound
	case errors.Is(err, store.ErrProductNotFound):
		return nil, invalid("featured_product_id", "no such product")
	case err != nil:
		util.RecordError(span, err)
		return nil, fmt.Errorf("failed to update collection: %w", err)
	}

	return s.GetCollection(ctx, id)
}

func (s *CatalogService) validateCollection(ctx context.Context, in CollectionInput) error {
	if strings.TrimSpace(in.Title) == "" {
		return invalid("title", "must not be blank")
	}
	if in.FeaturedProductID == nil {
		return nil
	}
	_, err := s.store.GetProduct(ctx, *in.FeaturedProductID)
	if errors.Is(err, store.ErrProductNotFound) {
		return invalid("featured_product_id", "no such product")
	}
	return err
}

// DeleteCollection deletes a collection that holds no products
func (s *CatalogService) DeleteCollection(ctx context.Context, id int64) error {
	ctx, span := util.StartSpan(ctx, "CatalogService.DeleteCollection")
	defer span.End()

	err := s.store.DeleteCollection(ctx, id)
	switch {
	case errors.Is(err, store.ErrNotFound):
		return ErrNotFound
	case errors.Is(err, store.ErrHasDependents):
		return conflict("collection cannot be deleted because it includes one or more products")
	case err != nil:
		util.RecordError(span, err)
		return fmt.Errorf("failed to delete collection: %w", err)
	}

	s.logger.Info("Collection deleted", zap.Int64("collection_id", id))
	s.bus.Publish(ctx, &models.ObjectDeletedEvent{
		BaseEvent: models.NewBaseEvent(models.EventTypeObjectDeleted),
		Kind:      models.KindCollection,
		ObjectID:  id,
	})
	return nil
}

// ListProducts returns one page of products, ordered by id
func (s *CatalogService) ListProducts(ctx context.Context, f models.ProductFilter) ([]models.Product, error) {
	ctx, span := util.StartSpan(ctx, "CatalogService.ListProducts")
	defer span.End()

	if f.Limit <= 0 {
		f.Limit = defaultPageSize
	}
	if f.Limit > maxPageSize {
		f.Limit = maxPageSize
	}
	if f.Offset < 0 {
		f.Offset = 0
	}
	f.Search = strings.TrimSpace(f.Search)

	return s.store.ListProducts(ctx, f)
}

// GetProduct reads through the product cache. Cache failures fall back to the store.
func (s *CatalogService) GetProduct(ctx context.Context, id int64) (*models.Product, error) {
	ctx, span := util.StartSpan(ctx, "CatalogService.GetProduct")
	defer span.End()

	if s.cache != nil {
		cached, ok, err := s.cache.GetProduct(ctx, id)
		switch {
		case err != nil:
			util.ProductCacheRequestsTotal.WithLabelValues("error").Inc()
			s.logger.Warn("Product cache read failed", zap.Int64("product_id", id), zap.Error(err))
		case ok:
			util.ProductCacheRequestsTotal.WithLabelValues("hit").Inc()
			return cached, nil
		default:
			util.ProductCacheRequestsTotal.WithLabelValues("miss").Inc()
		}
	}

	product, err := s.store.GetProduct(ctx, id)
	if errors.Is(err, store.ErrProductNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	if s.cache != nil {
		if _, err := s.cache.FillProduct(ctx, product); err != nil {
			s.logger.Warn("Product cache write failed", zap.Int64("product_id", id), zap.Error(err))
		}
	}
	return product, nil
}

// CreateProduct validates and stores a product
func (s *CatalogService) CreateProduct(ctx context.Context, in ProductInput) (*models.Product, error) {
	ctx, span := util.StartSpan(ctx, "CatalogService.CreateProduct")
	defer span.End()

	product, err := s.buildProduct(ctx, in)
	if err != nil {
		return nil, err
	}

	err = s.store.CreateProduct(ctx, product)
	if errors.Is(err, store.ErrNotFound) {
		return nil, invalid("collection_id", "no such collection")
	}
	if err != nil {
		util.RecordError(span, err)
		return nil, fmt.Errorf("failed to create product: %w", err)
	}

	s.logger.Info("Product created", zap.Int64("product_id", product.ID))
	return product, nil
}

// UpdateProduct replaces every editable field and writes the result through to the cache
func (s *CatalogService) UpdateProduct(ctx context.Context, id int64, in ProductInput) (*models.Product, error) {
	ctx, span := util.StartSpan(ctx, "CatalogService.UpdateProduct")
	defer span.End()

	product, err := s.buildProduct(ctx, in)
	if err != nil {
		return nil, err
	}
	product.ID = id

	err = s.store.UpdateProduct(ctx, product)
	switch {
	case errors.Is(err, store.ErrProductNotFound):
		return nil, ErrNotFound
	case errors.Is(err, store.ErrNotFound):
		return nil, invalid("collection_id", "no such collection")
	case err != nil:
		util.RecordError(span, err)
		return nil, fmt.Errorf("failed to update product: %w", err)
	}

	s.refresh(ctx, product)
	return product, nil
}

// buildProduct normalizes the price to the configured precision and checks
// every field before anything is written.
func (s *CatalogService) buildProduct(ctx context.Context, in ProductInput) (*models.Product, error) {
	if strings.TrimSpace(in.Title) == "" {
		return nil, invalid("title", "must not be blank")
	}
	if strings.TrimSpace(in.Slug) == "" {
		return nil, invalid("slug", "must not be blank")
	}

	price := in.UnitPrice.Round(s.business.PriceDecimalPlaces)
	if price.LessThan(s.business.MinUnitPrice) {
		return nil, invalid("unit_price", fmt.Sprintf("must be at least %s", s.business.MinUnitPrice))
	}
	if in.Inventory < 0 {
		return nil, invalid("inventory", "must not be negative")
	}

	_, err := s.store.GetCollection(ctx, in.CollectionID)
	if errors.Is(err, store.ErrNotFound) {
		return nil, invalid("collection_id", "no such collection")
	}
	if err != nil {
		return nil, err
	}

	return &models.Product{
		Title:        strings.TrimSpace(in.Title),
		Slug:         strings.TrimSpace(in.Slug),
		Description:  in.Description,
		UnitPrice:    price,
		Inventory:    in.Inventory,
		CollectionID: in.CollectionID,
	}, nil
}

// DeleteProduct deletes a product that no order or cart references
func (s *CatalogService) DeleteProduct(ctx context.Context, id int64) error {
	ctx, span := util.StartSpan(ctx, "CatalogService.DeleteProduct")
	defer span.End()

	err := s.store.DeleteProduct(ctx, id)
	switch {
	case errors.Is(err, store.ErrProductNotFound):
		return ErrNotFound
	case errors.Is(err, store.ErrHasDependents):
		return conflict("product cannot be deleted because it is associated with an order item")
	case err != nil:
		util.RecordError(span, err)
		return fmt.Errorf("failed to delete product: %w", err)
	}

	s.invalidate(ctx, id)
	s.logger.Info("Product deleted", zap.Int64("product_id", id))
	s.bus.Publish(ctx, &models.ObjectDeletedEvent{
		BaseEvent: models.NewBaseEvent(models.EventTypeObjectDeleted),
		Kind:      models.KindProduct,
		ObjectID:  id,
	})
	return nil
}

func (s *CatalogService) refresh(ctx context.Context, product *models.Product) {
	if s.cache == nil {
		return
	}
	if err := s.cache.SetProduct(ctx, product); err != nil {
		s.logger.Warn("Product cache write failed", zap.Int64("product_id", product.ID), zap.Error(err))
		s.invalidate(ctx, product.ID)
	}
}

func (s *CatalogService) invalidate(ctx context.Context, id int64) {
	if s.cache == nil {
		return
	}
	if err := s.cache.InvalidateProduct(ctx, id); err != nil {
		s.logger.Warn("Product cache invalidation failed", zap.Int64("product_id", id), zap.Error(err))
	}
}

func (s *CatalogService) ListPromotions(ctx context.Context) ([]models.Promotion, error) {
	return s.store.ListPromotions(ctx)
}

func (s *CatalogService) CreatePromotion(ctx context.Context, description string, discount float64) (*models.Promotion, error) {
	if strings.TrimSpace(description) == "" {
		return nil, invalid("description", "must not be blank")
	}
	if discount < 0 {
		return nil, invalid("discount", "must not be negative")
	}

	promotion := &models.Promotion{Description: strings.TrimSpace(description), Discount: discount}
	if err := s.store.CreatePromotion(ctx, promotion); err != nil {
		return nil, fmt.Errorf("failed to create promotion: %w", err)
	}
	return promotion, nil
}

// SetProductPromotions replaces the promotions attached to a product
func (s *CatalogService) SetProductPromotions(ctx context.Context, productID int64, promotionIDs []int64) ([]models.Promotion, error) {
	if _, err := s.GetProduct(ctx, productID); err != nil {
		return nil, err
	}

	err := s.store.SetProductPromotions(ctx, productID, promotionIDs)
	if errors.Is(err, store.ErrNotFound) {
		return nil, invalid("promotion_ids", "no such promotion")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to set promotions: %w", err)
	}
	return s.store.ListProductPromotions(ctx, productID)
}

func (s *CatalogService) ListProductPromotions(ctx context.Context, productID int64) ([]models.Promotion, error) {
	if _, err := s.GetProduct(ctx, productID); err != nil {
		return nil, err
	}
	return s.store.ListProductPromotions(ctx, productID)
}

// ListReviews lists the reviews of an existing product
func (s *CatalogService) ListReviews(ctx context.Context, productID int64) ([]models.Review, error) {
	if _, err := s.GetProduct(ctx, productID); err != nil {
		return nil, err
	}
	return s.store.ListReviews(ctx, productID)
}

// CreateReview adds a review to a product
func (s *CatalogService) CreateReview(ctx context.Context, productID int64, name, description string) (*models.Review, error) {
	if strings.TrimSpace(name) == "" {
		return nil, invalid("name", "must not be blank")
	}

	review := &models.Review{ProductID: productID, Name: strings.TrimSpace(name), Description: description}
	err := s.store.CreateReview(ctx, review)
	if errors.Is(err, store.ErrProductNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to create review: %w", err)
	}
	return review, nil
}

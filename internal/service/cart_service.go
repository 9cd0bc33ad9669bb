package service

import (
	"context"
	"errors"
	"fmt"

	"marketnet/internal/models"
	"marketnet/internal/store"
	"marketnet/internal/util"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// CartStore is the persistence carts need
type CartStore interface {
	CreateCart(ctx context.Context) (*models.Cart, error)
	GetCart(ctx context.Context, id uuid.UUID) (*models.Cart, error)
	DeleteCart(ctx context.Context, id uuid.UUID) error
	ListCartLines(ctx context.Context, cartID uuid.UUID) ([]models.CartLine, error)
	GetCartLine(ctx context.Context, cartID uuid.UUID, itemID int64) (*models.CartLine, error)
	UpsertCartItem(ctx context.Context, cartID uuid.UUID, productID int64, quantity int) (*models.CartItem, error)
	UpdateCartItemQuantity(ctx context.Context, cartID uuid.UUID, itemID int64, quantity int) error
	DeleteCartItem(ctx context.Context, cartID uuid.UUID, itemID int64) error
	GetProduct(ctx context.Context, id int64) (*models.Product, error)
}

// CartView is a cart with its lines priced at current product prices
type CartView struct {
	Cart       models.Cart
	Lines      []models.CartLine
	TotalPrice decimal.Decimal
}

// CartService handles anonymous carts
type CartService struct {
	store  CartStore
	logger *zap.Logger
}

// NewCartService creates a new cart service
func NewCartService(store CartStore) *CartService {
	return &CartService{store: store, logger: util.GetLogger()}
}

// CreateCart creates an empty cart with a fresh random id
func (s *CartService) CreateCart(ctx context.Context) (*models.Cart, error) {
	ctx, span := util.StartSpan(ctx, "CartService.CreateCart")
	defer span.End()

	cart, err := s.store.CreateCart(ctx)
	if err != nil {
		util.RecordError(span, err)
		return nil, fmt.Errorf("failed to create cart: %w", err)
	}

	util.CartsCreatedTotal.Inc()
	return cart, nil
}

// GetCart returns the cart and its lines
func (s *CartService) GetCart(ctx context.Context, id uuid.UUID) (*CartView, error) {
	ctx, span := util.StartSpan(ctx, "CartService.GetCart")
	defer span.End()

	cart, err := s.store.GetCart(ctx, id)
	if errors.Is(err, store.ErrCartNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	lines, err := s.store.ListCartLines(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to list cart items: %w", err)
	}

	total := decimal.Zero
	for _, line := range lines {
		total = total.Add(line.TotalPrice())
	}
	return &CartView{Cart: *cart, Lines: lines, TotalPrice: total}, nil
}

// DeleteCart removes a cart and its items
func (s *CartService) DeleteCart(ctx context.Context, id uuid.UUID) error {
	err := s.store.DeleteCart(ctx, id)
	if errors.Is(err, store.ErrCartNotFound) {
		return ErrNotFound
	}
	return err
}

// ListItems returns the lines of an existing cart
func (s *CartService) ListItems(ctx context.Context, cartID uuid.UUID) ([]models.CartLine, error) {
	view, err := s.GetCart(ctx, cartID)
	if err != nil {
		return nil, err
	}
	return view.Lines, nil
}

// GetItem returns one line of a cart
func (s *CartService) GetItem(ctx context.Context, cartID uuid.UUID, itemID int64) (*models.CartLine, error) {
	line, err := s.store.GetCartLine(ctx, cartID, itemID)
	if errors.Is(err, store.ErrNotFound) {
		return nil, ErrNotFound
	}
	return line, err
}

// AddItem adds quantity of a product to a cart. Adding a product already in
// the cart increases the existing line instead of creating a second one, and
// the merged quantity is held to the product's inventory.
func (s *CartService) AddItem(ctx context.Context, cartID uuid.UUID, productID int64, quantity int) (*models.CartLine, error) {
	ctx, span := util.StartSpan(ctx, "CartService.AddItem")
	defer span.End()

	if quantity < 1 {
		return nil, invalid("quantity", "must be at least 1")
	}

	_, err := s.store.GetCart(ctx, cartID)
	if errors.Is(err, store.ErrCartNotFound) {
		return nil, invalid("cart_id", "no such cart")
	}
	if err != nil {
		return nil, err
	}

	product, err := s.store.GetProduct(ctx, productID)
	if errors.Is(err, store.ErrProductNotFound) {
		return nil, invalid("product_id", "no such product")
	}
	if err != nil {
		return nil, err
	}
	if quantity > product.Inventory {
		return nil, invalid("quantity", fmt.Sprintf("only %d in stock", product.Inventory))
	}

	item, err := s.store.UpsertCartItem(ctx, cartID, productID, quantity)
	switch {
	case errors.Is(err, store.ErrCartNotFound):
		return nil, invalid("cart_id", "no such cart")
	case errors.Is(err, store.ErrProductNotFound):
		return nil, invalid("product_id", "no such product")
	case errors.Is(err, store.ErrInsufficientStock):
		return nil, invalid("quantity", fmt.Sprintf("only %d in stock", product.Inventory))
	case err != nil:
		util.RecordError(span, err)
		return nil, fmt.Errorf("failed to add cart item: %w", err)
	}

	util.CartItemsUpsertedTotal.Inc()
	s.logger.Debug("Cart item upserted",
		zap.String("cart_id", cartID.String()),
		zap.Int64("product_id", productID),
		zap.Int("quantity", item.Quantity))

	return &models.CartLine{
		ID:           item.ID,
		CartID:       item.CartID,
		ProductID:    item.ProductID,
		ProductTitle: product.Title,
		UnitPrice:    product.UnitPrice,
		Quantity:     item.Quantity,
	}, nil
}

// UpdateItem sets the quantity of an existing line
func (s *CartService) UpdateItem(ctx context.Context, cartID uuid.UUID, itemID int64, quantity int) (*models.CartLine, error) {
	ctx, span := util.StartSpan(ctx, "CartService.UpdateItem")
	defer span.End()

	if quantity < 1 {
		return nil, invalid("quantity", "must be at least 1")
	}

	line, err := s.GetItem(ctx, cartID, itemID)
	if err != nil {
		return nil, err
	}

	product, err := s.store.GetProduct(ctx, line.ProductID)
	if err != nil {
		return nil, err
	}
	if quantity > product.Inventory {
		return nil, invalid("quantity", fmt.Sprintf("only %d in stock", product.Inventory))
	}

	err = s.store.UpdateCartItemQuantity(ctx, cartID, itemID, quantity)
	if errors.Is(err, store.ErrNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to update cart item: %w", err)
	}

	line.Quantity = quantity
	return line, nil
}

// RemoveItem deletes one line from a cart
func (s *CartService) RemoveItem(ctx context.Context, cartID uuid.UUID, itemID int64) error {
	err := s.store.DeleteCartItem(ctx, cartID, itemID)
	if errors.Is(err, store.ErrNotFound) {
		return ErrNotFound
	}
	return err
}

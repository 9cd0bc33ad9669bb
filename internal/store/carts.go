package store

import (
	"context"
	"database/sql"
	"errors"

	"marketnet/internal/models"

	"github.com/google/uuid"
)

const cartLineColumns = `
	SELECT ci.id, ci.cart_id, ci.product_id, p.title AS product_title, p.unit_price, ci.quantity
	FROM cart_items ci
	JOIN products p ON p.id = ci.product_id`

// CreateCart inserts a cart with a fresh random id
func (s *Store) CreateCart(ctx context.Context) (*models.Cart, error) {
	cart := &models.Cart{ID: uuid.New()}
	err := s.db.GetContext(ctx, &cart.CreatedAt,
		"INSERT INTO carts (id) VALUES ($1) RETURNING created_at", cart.ID)
	if err != nil {
		return nil, err
	}
	return cart, nil
}

// GetCart retrieves a cart by ID
func (s *Store) GetCart(ctx context.Context, id uuid.UUID) (*models.Cart, error) {
	var cart models.Cart
	err := s.db.GetContext(ctx, &cart, "SELECT id, created_at FROM carts WHERE id = $1", id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrCartNotFound
	}
	if err != nil {
		return nil, err
	}
	return &cart, nil
}

// DeleteCart deletes a cart and, by cascade, its items
func (s *Store) DeleteCart(ctx context.Context, id uuid.UUID) error {
	res, err := s.db.ExecContext(ctx, "DELETE FROM carts WHERE id = $1", id)
	if err != nil {
		return err
	}
	if err := expectOneRow(res); err != nil {
		return ErrCartNotFound
	}
	return nil
}

// CountCartItems counts the lines in a cart
func (s *Store) CountCartItems(ctx context.Context, cartID uuid.UUID) (int, error) {
	var count int
	err := s.db.GetContext(ctx, &count, "SELECT COUNT(*) FROM cart_items WHERE cart_id = $1", cartID)
	return count, err
}

// ListCartLines retrieves cart items joined with live product prices
func (s *Store) ListCartLines(ctx context.Context, cartID uuid.UUID) ([]models.CartLine, error) {
	lines := []models.CartLine{}
	err := s.db.SelectContext(ctx, &lines,
		cartLineColumns+" WHERE ci.cart_id = $1 ORDER BY ci.id", cartID)
	return lines, err
}

// GetCartLine retrieves one item of a cart
func (s *Store) GetCartLine(ctx context.Context, cartID uuid.UUID, itemID int64) (*models.CartLine, error) {
	var line models.CartLine
	err := s.db.GetContext(ctx, &line,
		cartLineColumns+" WHERE ci.cart_id = $1 AND ci.id = $2", cartID, itemID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &line, nil
}

// UpsertCartItem adds quantity to the (cart, product) row, creating it if absent.
// A single statement, so concurrent adds of the same product never produce two rows.
// The merge is skipped when the summed quantity would exceed the product's
// inventory, which surfaces as ErrInsufficientStock.
func (s *Store) UpsertCartItem(ctx context.Context, cartID uuid.UUID, productID int64, quantity int) (*models.CartItem, error) {
	query := `
		INSERT INTO cart_items (cart_id, product_id, quantity)
		VALUES ($1, $2, $3)
		ON CONFLICT (cart_id, product_id)
		DO UPDATE SET quantity = cart_items.quantity + EXCLUDED.quantity
		WHERE cart_items.quantity + EXCLUDED.quantity <=
			(SELECT inventory FROM products WHERE id = EXCLUDED.product_id)
		RETURNING id, cart_id, product_id, quantity`

	var item models.CartItem
	err := s.db.GetContext(ctx, &item, query, cartID, productID, quantity)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrInsufficientStock
	}
	if isForeignKeyViolation(err) {
		switch violatedConstraint(err) {
		case constraintCartItemCart:
			return nil, ErrCartNotFound
		case constraintCartItemProduct:
			return nil, ErrProductNotFound
		}
	}
	if err != nil {
		return nil, err
	}
	return &item, nil
}

// UpdateCartItemQuantity sets the quantity of one cart item
func (s *Store) UpdateCartItemQuantity(ctx context.Context, cartID uuid.UUID, itemID int64, quantity int) error {
	res, err := s.db.ExecContext(ctx,
		"UPDATE cart_items SET quantity = $1 WHERE cart_id = $2 AND id = $3",
		quantity, cartID, itemID)
	if err != nil {
		return err
	}
	return expectOneRow(res)
}

// DeleteCartItem removes one item from a cart
func (s *Store) DeleteCartItem(ctx context.Context, cartID uuid.UUID, itemID int64) error {
	res, err := s.db.ExecContext(ctx,
		"DELETE FROM cart_items WHERE cart_id = $1 AND id = $2", cartID, itemID)
	if err != nil {
		return err
	}
	return expectOneRow(res)
}

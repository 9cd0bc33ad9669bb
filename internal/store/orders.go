package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"marketnet/internal/models"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

// PlaceOrder converts a cart into an order for the customer in one transaction:
// the order row, one order item per cart item carrying the product's current
// unit price, and the deletion of the cart. Nothing persists on failure.
func (s *Store) PlaceOrder(ctx context.Context, cartID uuid.UUID, customerID int64) (*models.Order, []models.OrderItem, error) {
	order := &models.Order{}
	var items []models.OrderItem

	err := s.inTx(ctx, func(tx *sqlx.Tx) error {
		var locked uuid.UUID
		err := tx.GetContext(ctx, &locked, "SELECT id FROM carts WHERE id = $1 FOR UPDATE", cartID)
		if errors.Is(err, sql.ErrNoRows) {
			return ErrCartNotFound
		}
		if err != nil {
			return fmt.Errorf("failed to lock cart: %w", err)
		}

		var lines int
		if err := tx.GetContext(ctx, &lines,
			"SELECT COUNT(*) FROM cart_items WHERE cart_id = $1", cartID); err != nil {
			return fmt.Errorf("failed to count cart items: %w", err)
		}
		if lines == 0 {
			return ErrCartEmpty
		}

		if err := tx.GetContext(ctx, order, `
			INSERT INTO orders (customer_id, payment_status)
			VALUES ($1, $2)
			RETURNING id, customer_id, payment_status, placed_at`,
			customerID, models.PaymentStatusPending); err != nil {
			return fmt.Errorf("failed to create order: %w", err)
		}

		if err := tx.SelectContext(ctx, &items, `
			INSERT INTO order_items (order_id, product_id, quantity, unit_price)
			SELECT $1, ci.product_id, ci.quantity, p.unit_price
			FROM cart_items ci
			JOIN products p ON p.id = ci.product_id
			WHERE ci.cart_id = $2
			ORDER BY ci.id
			RETURNING id, order_id, product_id, quantity, unit_price`,
			order.ID, cartID); err != nil {
			return fmt.Errorf("failed to create order items: %w", err)
		}
		if len(items) != lines {
			return fmt.Errorf("order items mismatch: cart has %d lines, inserted %d", lines, len(items))
		}

		if _, err := tx.ExecContext(ctx, "DELETE FROM carts WHERE id = $1", cartID); err != nil {
			return fmt.Errorf("failed to delete cart: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, nil, err
	}

	return order, items, nil
}

// GetOrder retrieves an order by ID
func (s *Store) GetOrder(ctx context.Context, id int64) (*models.Order, error) {
	var order models.Order
	err := s.db.GetContext(ctx, &order, "SELECT * FROM orders WHERE id = $1", id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &order, nil
}

// ListOrders retrieves all orders, newest first
func (s *Store) ListOrders(ctx context.Context) ([]models.Order, error) {
	orders := []models.Order{}
	err := s.db.SelectContext(ctx, &orders, "SELECT * FROM orders ORDER BY placed_at DESC, id DESC")
	return orders, err
}

// ListOrdersByCustomer retrieves a customer's orders, newest first
func (s *Store) ListOrdersByCustomer(ctx context.Context, customerID int64) ([]models.Order, error) {
	orders := []models.Order{}
	err := s.db.SelectContext(ctx, &orders,
		"SELECT * FROM orders WHERE customer_id = $1 ORDER BY placed_at DESC, id DESC", customerID)
	return orders, err
}

// ListOrderItems retrieves all items for an order
func (s *Store) ListOrderItems(ctx context.Context, orderID int64) ([]models.OrderItem, error) {
	items := []models.OrderItem{}
	err := s.db.SelectContext(ctx, &items,
		"SELECT * FROM order_items WHERE order_id = $1 ORDER BY id", orderID)
	return items, err
}

// UpdateOrderPaymentStatus sets the payment status and returns the updated order.
// The customer reference is never touched.
func (s *Store) UpdateOrderPaymentStatus(ctx context.Context, orderID int64, status string) (*models.Order, error) {
	var order models.Order
	err := s.db.GetContext(ctx, &order, `
		UPDATE orders SET payment_status = $1
		WHERE id = $2
		RETURNING id, customer_id, payment_status, placed_at`,
		status, orderID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &order, nil
}

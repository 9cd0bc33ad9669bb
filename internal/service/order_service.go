package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"marketnet/internal/models"
	"marketnet/internal/store"
	"marketnet/internal/util"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// OrderStore is the persistence orders need
type OrderStore interface {
	GetCart(ctx context.Context, id uuid.UUID) (*models.Cart, error)
	CountCartItems(ctx context.Context, cartID uuid.UUID) (int, error)
	GetCustomerByUserID(ctx context.Context, userID int64) (*models.Customer, error)
	PlaceOrder(ctx context.Context, cartID uuid.UUID, customerID int64) (*models.Order, []models.OrderItem, error)
	GetOrder(ctx context.Context, id int64) (*models.Order, error)
	ListOrders(ctx context.Context) ([]models.Order, error)
	ListOrdersByCustomer(ctx context.Context, customerID int64) ([]models.Order, error)
	ListOrderItems(ctx context.Context, orderID int64) ([]models.OrderItem, error)
	UpdateOrderPaymentStatus(ctx context.Context, orderID int64, status string) (*models.Order, error)
}

// OrderDetail is an order with its items
type OrderDetail struct {
	Order models.Order
	Items []models.OrderItem
}

// TotalPrice sums quantity × snapshot price over the items
func (d *OrderDetail) TotalPrice() decimal.Decimal {
	total := decimal.Zero
	for _, item := range d.Items {
		total = total.Add(item.UnitPrice.Mul(decimal.NewFromInt(int64(item.Quantity))))
	}
	return total
}

// OrderService handles order placement and payment status
type OrderService struct {
	store  OrderStore
	bus    Publisher
	logger *zap.Logger
}

// NewOrderService creates a new order service
func NewOrderService(store OrderStore, bus Publisher) *OrderService {
	return &OrderService{store: store, bus: bus, logger: util.GetLogger()}
}

// PlaceOrder converts the cart into an order for the caller's customer.
// The cart is consumed, so placing the same cart twice fails the second time.
func (s *OrderService) PlaceOrder(ctx context.Context, cartID uuid.UUID, userID int64) (*OrderDetail, error) {
	ctx, span := util.StartSpan(ctx, "OrderService.PlaceOrder")
	defer span.End()

	if _, err := s.store.GetCart(ctx, cartID); err != nil {
		if errors.Is(err, store.ErrCartNotFound) {
			util.OrderPlacementFailuresTotal.WithLabelValues("no_such_cart").Inc()
			return nil, invalid("cart_id", "no such cart")
		}
		return nil, err
	}

	count, err := s.store.CountCartItems(ctx, cartID)
	if err != nil {
		return nil, fmt.Errorf("failed to count cart items: %w", err)
	}
	if count == 0 {
		util.OrderPlacementFailuresTotal.WithLabelValues("empty_cart").Inc()
		return nil, invalid("cart_id", "cart is empty")
	}

	customer, err := s.store.GetCustomerByUserID(ctx, userID)
	if errors.Is(err, store.ErrNotFound) {
		util.OrderPlacementFailuresTotal.WithLabelValues("customer_missing").Inc()
		s.logger.Error("Identity has no customer profile", zap.Int64("user_id", userID))
		return nil, ErrCustomerMissing
	}
	if err != nil {
		return nil, err
	}

	start := time.Now()
	order, items, err := s.store.PlaceOrder(ctx, cartID, customer.ID)
	util.OrderPlacementLatency.Observe(time.Since(start).Seconds())

	switch {
	case errors.Is(err, store.ErrCartNotFound):
		util.OrderPlacementFailuresTotal.WithLabelValues("no_such_cart").Inc()
		return nil, invalid("cart_id", "no such cart")
	case errors.Is(err, store.ErrCartEmpty):
		util.OrderPlacementFailuresTotal.WithLabelValues("empty_cart").Inc()
		return nil, invalid("cart_id", "cart is empty")
	case err != nil:
		util.OrderPlacementFailuresTotal.WithLabelValues("db_error").Inc()
		util.RecordError(span, err)
		return nil, fmt.Errorf("failed to place order: %w", err)
	}

	util.OrdersPlacedTotal.Inc()
	s.logger.Info("Order placed",
		zap.Int64("order_id", order.ID),
		zap.Int64("customer_id", customer.ID),
		zap.String("cart_id", cartID.String()),
		zap.Int("items", len(items)))

	s.bus.Publish(ctx, &models.OrderPlacedEvent{
		BaseEvent: models.NewBaseEvent(models.EventTypeOrderPlaced),
		Order:     *order,
		CartID:    cartID,
		Items:     items,
	})

	return &OrderDetail{Order: *order, Items: items}, nil
}

// GetOrder returns an order to its owner or to staff. Other callers see
// ErrNotFound.
func (s *OrderService) GetOrder(ctx context.Context, orderID int64, caller Caller) (*OrderDetail, error) {
	ctx, span := util.StartSpan(ctx, "OrderService.GetOrder")
	defer span.End()

	order, err := s.store.GetOrder(ctx, orderID)
	if errors.Is(err, store.ErrNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	if !caller.IsStaff {
		customer, err := s.store.GetCustomerByUserID(ctx, caller.UserID)
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrNotFound
		}
		if err != nil {
			return nil, err
		}
		if customer.ID != order.CustomerID {
			return nil, ErrNotFound
		}
	}

	return s.withItems(ctx, *order)
}

// ListOrders returns every order for staff and the caller's own orders otherwise
func (s *OrderService) ListOrders(ctx context.Context, caller Caller) ([]OrderDetail, error) {
	ctx, span := util.StartSpan(ctx, "OrderService.ListOrders")
	defer span.End()

	var orders []models.Order
	if caller.IsStaff {
		all, err := s.store.ListOrders(ctx)
		if err != nil {
			return nil, err
		}
		orders = all
	} else {
		customer, err := s.store.GetCustomerByUserID(ctx, caller.UserID)
		if errors.Is(err, store.ErrNotFound) {
			return []OrderDetail{}, nil
		}
		if err != nil {
			return nil, err
		}
		own, err := s.store.ListOrdersByCustomer(ctx, customer.ID)
		if err != nil {
			return nil, err
		}
		orders = own
	}

	details := make([]OrderDetail, 0, len(orders))
	for _, order := range orders {
		detail, err := s.withItems(ctx, order)
		if err != nil {
			return nil, err
		}
		details = append(details, *detail)
	}
	return details, nil
}

func (s *OrderService) withItems(ctx context.Context, order models.Order) (*OrderDetail, error) {
	items, err := s.store.ListOrderItems(ctx, order.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to list items of order %d: %w", order.ID, err)
	}
	return &OrderDetail{Order: order, Items: items}, nil
}

// UpdatePaymentStatus moves an order to any payment status and notifies
// subscribers with the updated order.
func (s *OrderService) UpdatePaymentStatus(ctx context.Context, orderID int64, status string) (*OrderDetail, error) {
	ctx, span := util.StartSpan(ctx, "OrderService.UpdatePaymentStatus")
	defer span.End()

	if !models.ValidPaymentStatus(status) {
		return nil, invalid("payment_status", fmt.Sprintf("%q is not a payment status", status))
	}

	previous, err := s.store.GetOrder(ctx, orderID)
	if errors.Is(err, store.ErrNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	order, err := s.store.UpdateOrderPaymentStatus(ctx, orderID, status)
	if errors.Is(err, store.ErrNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		util.RecordError(span, err)
		return nil, fmt.Errorf("failed to update order %d: %w", orderID, err)
	}

	util.OrderStatusUpdatesTotal.WithLabelValues(status).Inc()
	s.logger.Info("Order payment status updated",
		zap.Int64("order_id", order.ID),
		zap.String("from", previous.PaymentStatus),
		zap.String("to", order.PaymentStatus))

	s.bus.Publish(ctx, &models.OrderUpdatedEvent{
		BaseEvent:      models.NewBaseEvent(models.EventTypeOrderUpdated),
		Order:          *order,
		PreviousStatus: previous.PaymentStatus,
	})

	return s.withItems(ctx, *order)
}

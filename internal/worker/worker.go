package worker

import (
	"context"

	"marketnet/internal/broker"
	"marketnet/internal/models"
	"marketnet/internal/util"

	"go.uber.org/zap"
)

// CustomerLookup resolves the customer an order belongs to
type CustomerLookup interface {
	GetCustomer(ctx context.Context, id int64) (*models.Customer, error)
}

// NotificationWorker consumes domain events from the broker and notifies
// customers about their orders.
type NotificationWorker struct {
	consumer     *broker.Consumer
	eventHandler *broker.EventHandler
	customers    CustomerLookup
	logger       *zap.Logger
}

// NewNotificationWorker creates a new notification worker
func NewNotificationWorker(consumer *broker.Consumer, customers CustomerLookup) *NotificationWorker {
	w := &NotificationWorker{
		consumer:  consumer,
		customers: customers,
		logger:    util.GetLogger(),
	}

	w.eventHandler = broker.NewEventHandler()
	w.eventHandler.OnOrderPlaced(w.handleOrderPlaced)
	w.eventHandler.OnOrderUpdated(w.handleOrderUpdated)
	return w
}

// Start consumes until ctx is cancelled
func (w *NotificationWorker) Start(ctx context.Context) error {
	w.logger.Info("Starting notification worker")
	return w.consumer.StartConsuming(ctx, w.eventHandler.HandleMessage)
}

// Stop stops the worker
func (w *NotificationWorker) Stop() error {
	w.logger.Info("Stopping notification worker")
	return w.consumer.Close()
}

func (w *NotificationWorker) handleOrderPlaced(ctx context.Context, event *models.OrderPlacedEvent) error {
	w.logger.Info("Order placed notification",
		zap.Int64("order_id", event.Order.ID),
		zap.Int64("customer_id", event.Order.CustomerID),
		zap.Int("items", len(event.Items)))
	return nil
}

// handleOrderUpdated tells the order's customer about the new payment status.
// Delivery is a log line; there is no mail transport.
func (w *NotificationWorker) handleOrderUpdated(ctx context.Context, event *models.OrderUpdatedEvent) error {
	fields := []zap.Field{
		zap.Int64("order_id", event.Order.ID),
		zap.Int64("customer_id", event.Order.CustomerID),
		zap.String("previous_status", event.PreviousStatus),
		zap.String("payment_status", event.Order.PaymentStatus),
	}

	customer, err := w.customers.GetCustomer(ctx, event.Order.CustomerID)
	if err != nil {
		w.logger.Warn("Order customer not found for notification", append(fields, zap.Error(err))...)
		return nil
	}

	w.logger.Info("Notifying customer of order update", append(fields, zap.Int64("user_id", customer.UserID))...)
	return nil
}

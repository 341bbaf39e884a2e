package worker

import (
	"context"

	"storefront-service/internal/broker"
	"storefront-service/internal/models"
	"storefront-service/internal/util"

	"go.uber.org/zap"
)

// NotificationWorker consumes storefront events and hands them to the
// confirmation side channel. Today that channel is the log; the order
// itself never depends on this worker.
type NotificationWorker struct {
	consumer     *broker.Consumer
	eventHandler *broker.EventHandler
	logger       *zap.Logger
}

// NewNotificationWorker creates a new notification worker
func NewNotificationWorker(consumer *broker.Consumer) *NotificationWorker {
	w := &NotificationWorker{
		consumer: consumer,
		logger:   util.GetLogger(),
	}

	eventHandler := broker.NewEventHandler()
	eventHandler.OnOrderPlaced(w.handleOrderPlaced)
	eventHandler.OnContactReceived(w.handleContactReceived)
	w.eventHandler = eventHandler

	return w
}

// Start starts the worker
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
	w.logger.Info("Order confirmation",
		zap.Int64("order_id", event.OrderID),
		zap.Int64("user_id", event.UserID),
		zap.String("email", event.Email),
		zap.Int("items", event.ItemCount),
		zap.String("total", event.Total.String()))

	util.OrderNotificationsTotal.WithLabelValues("sent").Inc()
	return nil
}

func (w *NotificationWorker) handleContactReceived(ctx context.Context, event *models.ContactReceivedEvent) error {
	w.logger.Info("Contact message received",
		zap.Int64("contact_id", event.ContactID),
		zap.String("email", event.Email),
		zap.String("subject", event.Subject))
	return nil
}

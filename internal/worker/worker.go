package worker

import (
	"context"
	"fmt"

	"shop-service/internal/broker"
	"shop-service/internal/models"
	"shop-service/internal/store"
	"shop-service/internal/util"

	"go.uber.org/zap"
)

// AuditWorker consumes settlement events and keeps an audit trail.
// Kafka redelivers on consumer failure, so every event is checked
// against the processed-events record before it is counted.
type AuditWorker struct {
	consumer     *broker.Consumer
	eventHandler *broker.EventHandler
	store        store.Store
	logger       *zap.Logger
}

// NewAuditWorker creates a new audit worker
func NewAuditWorker(consumer *broker.Consumer, st store.Store) *AuditWorker {
	w := &AuditWorker{
		consumer: consumer,
		store:    st,
		logger:   util.GetLogger(),
	}

	eventHandler := broker.NewEventHandler()
	eventHandler.OnSettlementSucceeded(w.handleSettlementSucceeded)
	eventHandler.OnSettlementFailed(w.handleSettlementFailed)
	w.eventHandler = eventHandler

	return w
}

// Start starts the worker
func (w *AuditWorker) Start(ctx context.Context) error {
	w.logger.Info("Starting audit worker")
	return w.consumer.StartConsuming(ctx, w.eventHandler.HandleMessage)
}

// Stop stops the worker
func (w *AuditWorker) Stop() error {
	w.logger.Info("Stopping audit worker")
	return w.consumer.Close()
}

func (w *AuditWorker) handleSettlementSucceeded(ctx context.Context, event *models.SettlementSucceededEvent) error {
	fresh, err := w.claimEvent(ctx, event.EventID, event.EventType)
	if err != nil || !fresh {
		return err
	}

	w.logger.Info("Settlement recorded",
		zap.Int64("shop_id", event.ShopID),
		zap.Int64("client_id", event.ClientID),
		zap.String("receipt_id", event.ReceiptID),
		zap.Float64("total", event.Total))
	util.AuditEventsProcessedTotal.WithLabelValues(event.EventType).Inc()
	return nil
}

func (w *AuditWorker) handleSettlementFailed(ctx context.Context, event *models.SettlementFailedEvent) error {
	fresh, err := w.claimEvent(ctx, event.EventID, event.EventType)
	if err != nil || !fresh {
		return err
	}

	w.logger.Warn("Settlement rejection recorded",
		zap.Int64("shop_id", event.ShopID),
		zap.Int64("client_id", event.ClientID),
		zap.Float64("required", event.Required),
		zap.Float64("balance", event.Balance),
		zap.String("reason", event.Reason))
	util.AuditEventsProcessedTotal.WithLabelValues(event.EventType).Inc()
	return nil
}

// claimEvent marks the event processed, reporting whether this delivery
// was the first one.
func (w *AuditWorker) claimEvent(ctx context.Context, eventID, eventType string) (bool, error) {
	processed, err := w.store.IsEventProcessed(ctx, eventID)
	if err != nil {
		return false, fmt.Errorf("failed to check event %s: %w", eventID, err)
	}
	if processed {
		util.AuditEventsDuplicateTotal.Inc()
		w.logger.Debug("Skipping redelivered event", zap.String("event_id", eventID))
		return false, nil
	}
	if err := w.store.MarkEventProcessed(ctx, eventID, eventType); err != nil {
		return false, fmt.Errorf("failed to mark event %s: %w", eventID, err)
	}
	return true, nil
}

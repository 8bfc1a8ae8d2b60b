package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"shop-service/internal/models"
	"shop-service/internal/store"
	"shop-service/internal/util"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// QueueService routes waiting clients to checkouts
type QueueService struct {
	store     store.Store
	publisher EventPublisher
	locker    Locker
	logger    *zap.Logger
}

// NewQueueService creates a new queue service. The publisher and locker
// may be nil; their concerns are then skipped.
func NewQueueService(st store.Store, publisher EventPublisher, locker Locker) *QueueService {
	return &QueueService{
		store:     st,
		publisher: publisher,
		locker:    locker,
		logger:    util.GetLogger(),
	}
}

// QueueClients assigns every shop client with a non-empty cart, not yet
// queued, to the least-loaded checkout. Every checkout must have a
// cashier; a missing cashier fails the whole run before any assignment.
func (s *QueueService) QueueClients(ctx context.Context, shopID int64) (*QueueReport, error) {
	ctx, span := util.StartSpan(ctx, "QueueService.QueueClients")
	defer span.End()

	shop, err := s.store.GetShop(ctx, shopID)
	if errors.Is(err, store.ErrNotFound) {
		util.QueueRunsFailedTotal.WithLabelValues("shop_not_found").Inc()
		return &QueueReport{Status: StatusNotFound, Message: "Shop doesn't exist!"}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load shop: %w", err)
	}

	// Queueing and settlement share one run lock per shop, so the two
	// engines never interleave on the same queues.
	if s.locker != nil {
		lockKey := fmt.Sprintf("shop:%d:run", shopID)
		acquired, err := s.locker.AcquireLock(ctx, lockKey, shopRunLockTTL)
		if err != nil {
			return nil, fmt.Errorf("failed to acquire shop lock: %w", err)
		}
		if !acquired {
			util.QueueRunsFailedTotal.WithLabelValues("run_in_progress").Inc()
			return &QueueReport{Status: StatusPreconditionFailed,
				Message: fmt.Sprintf("Another run is in progress for shop %s!", shop.Name)}, nil
		}
		defer func() {
			if err := s.locker.ReleaseLock(ctx, lockKey); err != nil {
				s.logger.Error("Failed to release shop lock", zap.Error(err))
			}
		}()
	}

	if len(shop.CheckoutIDs) == 0 {
		util.QueueRunsFailedTotal.WithLabelValues("no_checkouts").Inc()
		return &QueueReport{Status: StatusPreconditionFailed, Message: "Shop doesn't have any checkouts!"}, nil
	}

	checkouts := make([]*models.Checkout, 0, len(shop.CheckoutIDs))
	for _, id := range shop.CheckoutIDs {
		checkout, err := s.store.GetCheckout(ctx, id)
		if err != nil {
			return nil, fmt.Errorf("failed to load checkout %d: %w", id, err)
		}
		if checkout.CashierID == 0 {
			util.QueueRunsFailedTotal.WithLabelValues("no_cashier").Inc()
			return &QueueReport{Status: StatusPreconditionFailed,
				Message: "Checkout does not have a cashier assigned to it!"}, nil
		}
		checkouts = append(checkouts, checkout)
	}

	// Queue lengths are tracked locally so assignments made within
	// this run influence later picks.
	queueLen := make([]int, len(checkouts))
	for i, checkout := range checkouts {
		queueLen[i] = len(checkout.QueueIDs)
	}

	report := &QueueReport{Status: StatusOK, Assignments: []Assignment{}}
	for _, clientID := range shop.ClientIDs {
		client, err := s.store.GetClient(ctx, clientID)
		if err != nil {
			return nil, fmt.Errorf("failed to load client %d: %w", clientID, err)
		}
		if len(client.Cart) == 0 || client.CheckoutID != 0 {
			continue
		}

		// Least-loaded wins; ties resolve to the first checkout in
		// the shop's stable ordering.
		best := 0
		for i := 1; i < len(checkouts); i++ {
			if queueLen[i] < queueLen[best] {
				best = i
			}
		}

		chosen := checkouts[best]
		if err := s.store.EnqueueClient(ctx, chosen.ID, clientID); err != nil {
			return nil, fmt.Errorf("failed to enqueue client %d: %w", clientID, err)
		}
		queueLen[best]++

		report.Assignments = append(report.Assignments, Assignment{
			ClientID:   clientID,
			CheckoutID: chosen.ID,
			Ordinal:    best + 1,
		})
		util.ClientsQueuedTotal.Inc()

		s.publishQueued(ctx, shop.ID, clientID, chosen.ID, queueLen[best])
	}

	s.logger.Info("Queueing run completed",
		zap.Int64("shop_id", shopID),
		zap.Int("assigned", len(report.Assignments)))
	return report, nil
}

func (s *QueueService) publishQueued(ctx context.Context, shopID, clientID, checkoutID int64, position int) {
	if s.publisher == nil {
		return
	}
	event := &models.ClientQueuedEvent{
		BaseEvent: models.BaseEvent{
			EventID:   uuid.New().String(),
			EventType: models.EventTypeClientQueued,
			Timestamp: time.Now(),
		},
		ShopID:     shopID,
		ClientID:   clientID,
		CheckoutID: checkoutID,
		Position:   position,
	}
	if err := s.publisher.PublishClientQueued(ctx, event); err != nil {
		s.logger.Error("Failed to publish ClientQueued event", zap.Error(err))
	}
}

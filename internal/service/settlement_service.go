package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"shop-service/internal/models"
	"shop-service/internal/pricing"
	"shop-service/internal/receipt"
	"shop-service/internal/store"
	"shop-service/internal/util"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// shopRunLockTTL bounds the shop run lock shared by the queueing and
// settlement engines.
const shopRunLockTTL = time.Minute

// SettlementService drains checkout queues: it charges each queued
// client, reconciles inventory on failure, emits receipts and detaches
// the client from the shop regardless of outcome.
type SettlementService struct {
	store     store.Store
	emitter   receipt.Emitter
	publisher EventPublisher
	locker    Locker
	logger    *zap.Logger
	now       func() time.Time
}

// NewSettlementService creates a new settlement service. The emitter,
// publisher and locker may be nil; their concerns are then skipped.
func NewSettlementService(st store.Store, emitter receipt.Emitter, publisher EventPublisher, locker Locker) *SettlementService {
	return &SettlementService{
		store:     st,
		emitter:   emitter,
		publisher: publisher,
		locker:    locker,
		logger:    util.GetLogger(),
		now:       time.Now,
	}
}

// Settle processes every queued client of the shop, in checkout order
// then queue order. Persistence errors abort the run; insufficient
// funds is a business outcome, not an error.
func (s *SettlementService) Settle(ctx context.Context, shopID int64) (*SettlementReport, error) {
	ctx, span := util.StartSpan(ctx, "SettlementService.Settle")
	defer span.End()

	start := time.Now()
	defer func() {
		util.SettlementRunLatency.Observe(time.Since(start).Seconds())
	}()

	shop, err := s.store.GetShop(ctx, shopID)
	if errors.Is(err, store.ErrNotFound) {
		return &SettlementReport{Status: StatusNotFound, Message: "Shop doesn't exist!"}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load shop: %w", err)
	}

	if s.locker != nil {
		lockKey := fmt.Sprintf("shop:%d:run", shopID)
		acquired, err := s.locker.AcquireLock(ctx, lockKey, shopRunLockTTL)
		if err != nil {
			return nil, fmt.Errorf("failed to acquire shop lock: %w", err)
		}
		if !acquired {
			return &SettlementReport{Status: StatusPreconditionFailed,
				Message: fmt.Sprintf("Another run is in progress for shop %s!", shop.Name)}, nil
		}
		defer func() {
			if err := s.locker.ReleaseLock(ctx, lockKey); err != nil {
				s.logger.Error("Failed to release shop lock", zap.Error(err))
			}
		}()
	}

	if len(shop.ClientIDs) == 0 {
		return &SettlementReport{Status: StatusPreconditionFailed,
			Message: fmt.Sprintf("No clients in shop %s!", shop.Name)}, nil
	}

	report := &SettlementReport{Status: StatusOK, Outcomes: []SettlementOutcome{}}
	for _, checkoutID := range shop.CheckoutIDs {
		checkout, err := s.store.GetCheckout(ctx, checkoutID)
		if err != nil {
			return nil, fmt.Errorf("failed to load checkout %d: %w", checkoutID, err)
		}

		for _, clientID := range checkout.QueueIDs {
			outcome, err := s.settleClient(ctx, shop, checkout, clientID)
			if err != nil {
				return nil, err
			}
			report.Outcomes = append(report.Outcomes, *outcome)

			if err := s.store.DetachClient(ctx, clientID); err != nil {
				return nil, fmt.Errorf("failed to detach client %d: %w", clientID, err)
			}
		}
	}

	s.logger.Info("Settlement run completed",
		zap.Int64("shop_id", shopID),
		zap.Int("clients", len(report.Outcomes)))
	return report, nil
}

func (s *SettlementService) settleClient(ctx context.Context, shop *models.Shop, checkout *models.Checkout, clientID int64) (*SettlementOutcome, error) {
	client, err := s.store.GetClient(ctx, clientID)
	if err != nil {
		return nil, fmt.Errorf("failed to load client %d: %w", clientID, err)
	}

	now := s.now()
	required := pricing.CartTotal(client.Cart, now)

	if required > client.Money {
		if err := s.restoreInventory(ctx, shop.ID, client.Cart); err != nil {
			return nil, err
		}
		if err := s.store.ClearCart(ctx, clientID); err != nil {
			return nil, fmt.Errorf("failed to clear cart of client %d: %w", clientID, err)
		}
		util.SettlementsInsufficientFundsTotal.Inc()
		s.publishFailed(ctx, shop.ID, client, required)

		return &SettlementOutcome{
			ClientID:   clientID,
			ClientName: client.FirstName,
			CheckoutID: checkout.ID,
			Status:     StatusInsufficientFunds,
			Total:      required,
		}, nil
	}

	// Settled lines carry the discount-adjusted unit price; the cart
	// lines themselves were never mutated.
	settled := make([]models.CartLine, len(client.Cart))
	for i, line := range client.Cart {
		settled[i] = line
		settled[i].UnitPrice = pricing.DiscountedUnitPrice(line, now)
	}

	client.Money -= required
	if err := s.store.SaveClient(ctx, client); err != nil {
		return nil, fmt.Errorf("failed to debit client %d: %w", clientID, err)
	}

	checkout.Earnings += required
	if err := s.store.SaveCheckout(ctx, checkout); err != nil {
		return nil, fmt.Errorf("failed to credit checkout %d: %w", checkout.ID, err)
	}

	if err := s.store.AppendSoldLines(ctx, shop.ID, settled); err != nil {
		return nil, fmt.Errorf("failed to record sold lines: %w", err)
	}

	cashier, err := s.store.GetCashier(ctx, checkout.CashierID)
	if err != nil {
		return nil, fmt.Errorf("failed to load cashier %d: %w", checkout.CashierID, err)
	}

	rcpt := &models.Receipt{
		ID:          uuid.New().String(),
		CashierID:   cashier.ID,
		CashierName: cashier.FullName(),
		IssuedAt:    now,
		Lines:       settled,
		Total:       required,
	}
	if err := s.store.SaveReceipt(ctx, rcpt); err != nil {
		return nil, fmt.Errorf("failed to save receipt: %w", err)
	}

	if err := s.store.ClearCart(ctx, clientID); err != nil {
		return nil, fmt.Errorf("failed to clear cart of client %d: %w", clientID, err)
	}

	emitFailed := false
	if s.emitter != nil {
		if err := s.emitter.Emit(ctx, rcpt); err != nil {
			// Durable sink failures are surfaced but never undo a
			// committed settlement.
			emitFailed = true
			util.ReceiptEmitFailuresTotal.Inc()
			s.logger.Error("Failed to emit receipt",
				zap.String("receipt_id", rcpt.ID),
				zap.Error(err))
		} else {
			util.ReceiptsEmittedTotal.Inc()
		}
	}

	util.SettlementsSucceededTotal.Inc()
	s.publishSucceeded(ctx, shop.ID, client, checkout.ID, rcpt)

	return &SettlementOutcome{
		ClientID:    clientID,
		ClientName:  client.FirstName,
		CheckoutID:  checkout.ID,
		Status:      StatusOK,
		ReceiptID:   rcpt.ID,
		Total:       required,
		ReceiptText: rcpt.Render(),
		EmitFailed:  emitFailed,
	}, nil
}

// restoreInventory returns cart quantities to the matching catalog
// products; lines whose product has vanished are skipped.
func (s *SettlementService) restoreInventory(ctx context.Context, shopID int64, cart []models.CartLine) error {
	for _, line := range cart {
		product, err := s.store.GetProductByName(ctx, shopID, line.Name)
		if errors.Is(err, store.ErrNotFound) {
			continue
		}
		if err != nil {
			return fmt.Errorf("failed to look up product %q: %w", line.Name, err)
		}
		product.Quantity += line.Quantity
		if err := s.store.SaveProduct(ctx, product); err != nil {
			return fmt.Errorf("failed to restore quantity of product %q: %w", line.Name, err)
		}
	}
	return nil
}

func (s *SettlementService) publishSucceeded(ctx context.Context, shopID int64, client *models.Client, checkoutID int64, rcpt *models.Receipt) {
	if s.publisher == nil {
		return
	}
	event := &models.SettlementSucceededEvent{
		BaseEvent: models.BaseEvent{
			EventID:   uuid.New().String(),
			EventType: models.EventTypeSettlementSucceeded,
			Timestamp: time.Now(),
		},
		ShopID:     shopID,
		ClientID:   client.ID,
		CheckoutID: checkoutID,
		ReceiptID:  rcpt.ID,
		Total:      rcpt.Total,
		Lines:      rcpt.Lines,
	}
	if err := s.publisher.PublishSettlementSucceeded(ctx, event); err != nil {
		s.logger.Error("Failed to publish SettlementSucceeded event", zap.Error(err))
	}
}

func (s *SettlementService) publishFailed(ctx context.Context, shopID int64, client *models.Client, required float64) {
	if s.publisher == nil {
		return
	}
	event := &models.SettlementFailedEvent{
		BaseEvent: models.BaseEvent{
			EventID:   uuid.New().String(),
			EventType: models.EventTypeSettlementFailed,
			Timestamp: time.Now(),
		},
		ShopID:   shopID,
		ClientID: client.ID,
		Required: required,
		Balance:  client.Money,
		Reason:   "insufficient_funds",
	}
	if err := s.publisher.PublishSettlementFailed(ctx, event); err != nil {
		s.logger.Error("Failed to publish SettlementFailed event", zap.Error(err))
	}
}

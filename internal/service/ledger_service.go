package service

import (
	"context"
	"fmt"

	"shop-service/internal/store"
	"shop-service/internal/util"

	"go.uber.org/zap"
)

// LedgerService rolls shop finances up into expenses and earnings.
// Read-only; safe to run at any time against committed state.
type LedgerService struct {
	store  store.Store
	logger *zap.Logger
}

// NewLedgerService creates a new ledger service
func NewLedgerService(st store.Store) *LedgerService {
	return &LedgerService{store: st, logger: util.GetLogger()}
}

// AggregateLedger reports expenses (catalog cost plus salaries) and
// earnings (checkout totals) for every shop, in shop order.
func (s *LedgerService) AggregateLedger(ctx context.Context) (*LedgerReport, error) {
	ctx, span := util.StartSpan(ctx, "LedgerService.AggregateLedger")
	defer span.End()

	shops, err := s.store.ListShops(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list shops: %w", err)
	}

	report := &LedgerReport{Entries: []LedgerEntry{}}
	for _, shop := range shops {
		var expenses float64

		products, err := s.store.ListShopProducts(ctx, shop.ID)
		if err != nil {
			return nil, fmt.Errorf("failed to list products of shop %d: %w", shop.ID, err)
		}
		for _, product := range products {
			expenses += product.WholesalePrice * float64(product.Quantity)
		}

		for _, cashierID := range shop.CashierIDs {
			cashier, err := s.store.GetCashier(ctx, cashierID)
			if err != nil {
				return nil, fmt.Errorf("failed to load cashier %d: %w", cashierID, err)
			}
			expenses += cashier.Salary
		}

		var earnings float64
		for _, checkoutID := range shop.CheckoutIDs {
			checkout, err := s.store.GetCheckout(ctx, checkoutID)
			if err != nil {
				return nil, fmt.Errorf("failed to load checkout %d: %w", checkoutID, err)
			}
			earnings += checkout.Earnings
		}

		report.Entries = append(report.Entries, LedgerEntry{
			ShopID:   shop.ID,
			ShopName: shop.Name,
			Expenses: expenses,
			Earnings: earnings,
		})
	}

	s.logger.Debug("Ledger aggregated", zap.Int("shops", len(report.Entries)))
	return report, nil
}

package service

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"shop-service/internal/models"
	"shop-service/internal/receipt"
	"shop-service/internal/store"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type capturingPublisher struct {
	queued    []*models.ClientQueuedEvent
	succeeded []*models.SettlementSucceededEvent
	failed    []*models.SettlementFailedEvent
}

func (p *capturingPublisher) PublishClientQueued(_ context.Context, e *models.ClientQueuedEvent) error {
	p.queued = append(p.queued, e)
	return nil
}

func (p *capturingPublisher) PublishSettlementSucceeded(_ context.Context, e *models.SettlementSucceededEvent) error {
	p.succeeded = append(p.succeeded, e)
	return nil
}

func (p *capturingPublisher) PublishSettlementFailed(_ context.Context, e *models.SettlementFailedEvent) error {
	p.failed = append(p.failed, e)
	return nil
}

type deniedLocker struct{}

func (deniedLocker) AcquireLock(context.Context, string, time.Duration) (bool, error) {
	return false, nil
}
func (deniedLocker) ReleaseLock(context.Context, string) error { return nil }

// seedSettlementShop builds TestShop with one staffed checkout, one
// catalog product (wholesale 10, qty 30) and one queued client holding
// a cart line 10 x 5 that is far from its expiry date.
func seedSettlementShop(t *testing.T, m *store.Memory, clientMoney float64) {
	t.Helper()
	ctx := context.Background()

	require.NoError(t, m.SaveShop(ctx, &models.Shop{ID: 1, Name: "TestShop"}))
	require.NoError(t, m.SaveCashier(ctx, &models.Cashier{ID: 100, FirstName: "Ana", LastName: "Petrova", Salary: 2000, ShopID: 1, CheckoutID: 1}))
	require.NoError(t, m.SaveCheckout(ctx, &models.Checkout{ID: 1, ShopID: 1, CashierID: 100}))
	require.NoError(t, m.SaveProduct(ctx, &models.CatalogProduct{
		ID: 200, ShopID: 1, Name: "rice", WholesalePrice: 10, ClientPrice: 10,
		Category: models.CategoryEdible, ExpireDate: time.Now().AddDate(1, 0, 0), Quantity: 30,
	}))
	require.NoError(t, m.SaveClient(ctx, &models.Client{ID: 300, FirstName: "Ivan", Money: clientMoney, ShopID: 1}))
	require.NoError(t, m.SaveCartLine(ctx, &models.CartLine{
		ClientID: 300, Name: "rice", UnitPrice: 10, Quantity: 5,
		Category: models.CategoryEdible, ExpireDate: time.Now().AddDate(1, 0, 0),
	}))
	require.NoError(t, m.EnqueueClient(ctx, 1, 300))
}

func TestSettleSuccess(t *testing.T) {
	m := store.NewMemory()
	ctx := context.Background()
	seedSettlementShop(t, m, 50)

	dir := t.TempDir()
	emitter, err := receipt.NewFileEmitter(dir)
	require.NoError(t, err)
	publisher := &capturingPublisher{}

	svc := NewSettlementService(m, emitter, publisher, nil)
	report, err := svc.Settle(ctx, 1)
	require.NoError(t, err)
	require.Equal(t, StatusOK, report.Status)

	require.Len(t, report.Outcomes, 1)
	outcome := report.Outcomes[0]
	assert.Equal(t, StatusOK, outcome.Status)
	assert.Equal(t, 50.0, outcome.Total)
	assert.NotEmpty(t, outcome.ReceiptID)
	assert.Contains(t, outcome.ReceiptText, "Total: 50.00")
	assert.False(t, outcome.EmitFailed)

	// Conservation: earnings and balance move by exactly the total.
	checkout, err := m.GetCheckout(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, 50.0, checkout.Earnings)
	assert.Empty(t, checkout.QueueIDs)

	client, err := m.GetClient(ctx, 300)
	require.NoError(t, err)
	assert.Zero(t, client.Money)
	assert.Zero(t, client.ShopID)
	assert.Zero(t, client.CheckoutID)
	assert.Empty(t, client.Cart)

	// Exactly one receipt, holding the settled lines.
	receipts, err := m.ListCashierReceipts(ctx, 100)
	require.NoError(t, err)
	require.Len(t, receipts, 1)
	assert.Equal(t, 50.0, receipts[0].Total)
	require.Len(t, receipts[0].Lines, 1)
	assert.Equal(t, "rice", receipts[0].Lines[0].Name)
	assert.Equal(t, 5, receipts[0].Lines[0].Quantity)

	// Sold history picked up the lines; catalog stays untouched.
	shop, err := m.GetShop(ctx, 1)
	require.NoError(t, err)
	require.Len(t, shop.SoldLines, 1)
	assert.Empty(t, shop.ClientIDs)

	product, err := m.GetProduct(ctx, 200)
	require.NoError(t, err)
	assert.Equal(t, 30, product.Quantity)

	// Durable receipt landed on disk.
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	data, err := os.ReadFile(filepath.Join(dir, entries[0].Name()))
	require.NoError(t, err)
	assert.Contains(t, string(data), "Cashier: Ana Petrova")

	require.Len(t, publisher.succeeded, 1)
	assert.Equal(t, 50.0, publisher.succeeded[0].Total)
	assert.Empty(t, publisher.failed)
}

func TestSettleInsufficientFunds(t *testing.T) {
	m := store.NewMemory()
	ctx := context.Background()
	seedSettlementShop(t, m, 0)
	publisher := &capturingPublisher{}

	svc := NewSettlementService(m, nil, publisher, nil)
	report, err := svc.Settle(ctx, 1)
	require.NoError(t, err)
	require.Equal(t, StatusOK, report.Status)

	require.Len(t, report.Outcomes, 1)
	outcome := report.Outcomes[0]
	assert.Equal(t, StatusInsufficientFunds, outcome.Status)
	assert.Empty(t, outcome.ReceiptID)
	assert.Contains(t, report.Render(), "Client Ivan does not have enough money!")

	// Inventory returned in full.
	product, err := m.GetProduct(ctx, 200)
	require.NoError(t, err)
	assert.Equal(t, 35, product.Quantity)

	// Cart cleared, no receipt, client detached all the same.
	client, err := m.GetClient(ctx, 300)
	require.NoError(t, err)
	assert.Empty(t, client.Cart)
	assert.Zero(t, client.ShopID)
	assert.Zero(t, client.CheckoutID)

	receipts, err := m.ListCashierReceipts(ctx, 100)
	require.NoError(t, err)
	assert.Empty(t, receipts)

	checkout, err := m.GetCheckout(ctx, 1)
	require.NoError(t, err)
	assert.Zero(t, checkout.Earnings)

	require.Len(t, publisher.failed, 1)
	assert.Equal(t, "insufficient_funds", publisher.failed[0].Reason)
}

func TestSettleAppliesExpiryDiscount(t *testing.T) {
	m := store.NewMemory()
	ctx := context.Background()

	now := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	require.NoError(t, m.SaveShop(ctx, &models.Shop{ID: 1, Name: "TestShop"}))
	require.NoError(t, m.SaveCashier(ctx, &models.Cashier{ID: 100, FirstName: "Ana", LastName: "Petrova", ShopID: 1, CheckoutID: 1}))
	require.NoError(t, m.SaveCheckout(ctx, &models.Checkout{ID: 1, ShopID: 1, CashierID: 100}))
	require.NoError(t, m.SaveClient(ctx, &models.Client{ID: 300, FirstName: "Ivan", Money: 100, ShopID: 1}))
	require.NoError(t, m.SaveCartLine(ctx, &models.CartLine{
		ClientID: 300, Name: "yogurt", UnitPrice: 10, Quantity: 2,
		Category: models.CategoryEdible, ExpireDate: now.AddDate(0, 0, 2),
	}))
	require.NoError(t, m.EnqueueClient(ctx, 1, 300))

	svc := NewSettlementService(m, nil, nil, nil)
	svc.now = func() time.Time { return now }

	report, err := svc.Settle(ctx, 1)
	require.NoError(t, err)
	require.Len(t, report.Outcomes, 1)

	// 10 * 0.75 * 2
	assert.InDelta(t, 15.0, report.Outcomes[0].Total, 1e-9)

	receipts, err := m.ListCashierReceipts(ctx, 100)
	require.NoError(t, err)
	require.Len(t, receipts, 1)
	assert.Equal(t, 7.5, receipts[0].Lines[0].UnitPrice)

	client, err := m.GetClient(ctx, 300)
	require.NoError(t, err)
	assert.InDelta(t, 85.0, client.Money, 1e-9)
}

func TestSettleProcessingOrder(t *testing.T) {
	m := store.NewMemory()
	ctx := context.Background()

	require.NoError(t, m.SaveShop(ctx, &models.Shop{ID: 1, Name: "TestShop"}))
	for i := int64(1); i <= 2; i++ {
		require.NoError(t, m.SaveCashier(ctx, &models.Cashier{ID: 100 + i, FirstName: "Ana", LastName: "Petrova", ShopID: 1, CheckoutID: i}))
		require.NoError(t, m.SaveCheckout(ctx, &models.Checkout{ID: i, ShopID: 1, CashierID: 100 + i}))
	}
	for i, checkoutID := range []int64{2, 1, 2} {
		id := int64(300 + i)
		require.NoError(t, m.SaveClient(ctx, &models.Client{ID: id, FirstName: "Ivan", Money: 100, ShopID: 1}))
		require.NoError(t, m.SaveCartLine(ctx, &models.CartLine{
			ClientID: id, Name: "bread", UnitPrice: 1, Quantity: 1,
			Category: models.CategoryEdible, ExpireDate: time.Now().AddDate(1, 0, 0),
		}))
		require.NoError(t, m.EnqueueClient(ctx, checkoutID, id))
	}

	svc := NewSettlementService(m, nil, nil, nil)
	report, err := svc.Settle(ctx, 1)
	require.NoError(t, err)
	require.Len(t, report.Outcomes, 3)

	// Checkout order first, then queue order within each checkout.
	assert.Equal(t, int64(301), report.Outcomes[0].ClientID)
	assert.Equal(t, int64(300), report.Outcomes[1].ClientID)
	assert.Equal(t, int64(302), report.Outcomes[2].ClientID)
}

func TestSettleNoClients(t *testing.T) {
	m := store.NewMemory()
	ctx := context.Background()
	require.NoError(t, m.SaveShop(ctx, &models.Shop{ID: 1, Name: "TestShop"}))

	svc := NewSettlementService(m, nil, nil, nil)
	report, err := svc.Settle(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, StatusPreconditionFailed, report.Status)
	assert.Equal(t, "No clients in shop TestShop!\n", report.Render())
}

func TestSettleShopNotFound(t *testing.T) {
	svc := NewSettlementService(store.NewMemory(), nil, nil, nil)
	report, err := svc.Settle(context.Background(), 42)
	require.NoError(t, err)
	assert.Equal(t, StatusNotFound, report.Status)
}

func TestSettleLockedShop(t *testing.T) {
	m := store.NewMemory()
	ctx := context.Background()
	seedSettlementShop(t, m, 50)

	svc := NewSettlementService(m, nil, nil, deniedLocker{})
	report, err := svc.Settle(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, StatusPreconditionFailed, report.Status)

	// No mutation happened behind the lock refusal.
	client, err := m.GetClient(ctx, 300)
	require.NoError(t, err)
	assert.Equal(t, 50.0, client.Money)
	assert.Len(t, client.Cart, 1)
}

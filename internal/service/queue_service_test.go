package service

import (
	"context"
	"testing"
	"time"

	"shop-service/internal/models"
	"shop-service/internal/store"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seedQueueShop(t *testing.T, m *store.Memory, checkouts int, withCashiers bool) {
	t.Helper()
	ctx := context.Background()

	require.NoError(t, m.SaveShop(ctx, &models.Shop{ID: 1, Name: "TestShop"}))
	for i := 1; i <= checkouts; i++ {
		checkout := &models.Checkout{ID: int64(i), ShopID: 1}
		if withCashiers {
			cashierID := int64(100 + i)
			require.NoError(t, m.SaveCashier(ctx, &models.Cashier{
				ID: cashierID, FirstName: "Ana", LastName: "Petrova", Salary: 2000, ShopID: 1, CheckoutID: int64(i),
			}))
			checkout.CashierID = cashierID
		}
		require.NoError(t, m.SaveCheckout(ctx, checkout))
	}
}

func addShoppingClient(t *testing.T, m *store.Memory, id int64, withCart bool) {
	t.Helper()
	ctx := context.Background()

	require.NoError(t, m.SaveClient(ctx, &models.Client{ID: id, FirstName: "Ivan", Money: 100, ShopID: 1}))
	if withCart {
		require.NoError(t, m.SaveCartLine(ctx, &models.CartLine{
			ClientID: id, Name: "bread", UnitPrice: 2, Quantity: 1,
			Category: models.CategoryEdible, ExpireDate: time.Now().AddDate(0, 1, 0),
		}))
	}
}

func TestQueueClientsLeastLoaded(t *testing.T) {
	m := store.NewMemory()
	ctx := context.Background()
	seedQueueShop(t, m, 3, true)

	// Pre-load queues to lengths [0, 2, 1].
	for i, checkoutID := range []int64{2, 2, 3} {
		id := int64(50 + i)
		addShoppingClient(t, m, id, true)
		require.NoError(t, m.EnqueueClient(ctx, checkoutID, id))
	}
	addShoppingClient(t, m, 60, true)

	svc := NewQueueService(m, nil, nil)
	report, err := svc.QueueClients(ctx, 1)
	require.NoError(t, err)
	require.Equal(t, StatusOK, report.Status)

	require.Len(t, report.Assignments, 1)
	assert.Equal(t, int64(60), report.Assignments[0].ClientID)
	assert.Equal(t, int64(1), report.Assignments[0].CheckoutID)
	assert.Equal(t, 1, report.Assignments[0].Ordinal)
	assert.Equal(t, "Client: 60 assigned to checkout: 1\n", report.Render())
}

func TestQueueClientsTieBreakFirstCheckout(t *testing.T) {
	m := store.NewMemory()
	ctx := context.Background()
	seedQueueShop(t, m, 2, true)

	for i, checkoutID := range []int64{1, 2} {
		id := int64(50 + i)
		addShoppingClient(t, m, id, true)
		require.NoError(t, m.EnqueueClient(ctx, checkoutID, id))
	}
	addShoppingClient(t, m, 60, true)

	svc := NewQueueService(m, nil, nil)
	report, err := svc.QueueClients(ctx, 1)
	require.NoError(t, err)

	require.Len(t, report.Assignments, 1)
	assert.Equal(t, int64(1), report.Assignments[0].CheckoutID)
}

func TestQueueClientsBalancesWithinRun(t *testing.T) {
	m := store.NewMemory()
	ctx := context.Background()
	seedQueueShop(t, m, 2, true)

	for id := int64(60); id < 64; id++ {
		addShoppingClient(t, m, id, true)
	}

	svc := NewQueueService(m, nil, nil)
	report, err := svc.QueueClients(ctx, 1)
	require.NoError(t, err)
	require.Len(t, report.Assignments, 4)

	// Assignments alternate as local queue lengths grow.
	assert.Equal(t, int64(1), report.Assignments[0].CheckoutID)
	assert.Equal(t, int64(2), report.Assignments[1].CheckoutID)
	assert.Equal(t, int64(1), report.Assignments[2].CheckoutID)
	assert.Equal(t, int64(2), report.Assignments[3].CheckoutID)
}

func TestQueueClientsFailFastWithoutCashier(t *testing.T) {
	m := store.NewMemory()
	ctx := context.Background()

	require.NoError(t, m.SaveShop(ctx, &models.Shop{ID: 1, Name: "TestShop"}))
	require.NoError(t, m.SaveCashier(ctx, &models.Cashier{ID: 101, FirstName: "Ana", LastName: "Petrova", ShopID: 1, CheckoutID: 1}))
	require.NoError(t, m.SaveCheckout(ctx, &models.Checkout{ID: 1, ShopID: 1, CashierID: 101}))
	require.NoError(t, m.SaveCheckout(ctx, &models.Checkout{ID: 2, ShopID: 1}))
	addShoppingClient(t, m, 60, true)

	svc := NewQueueService(m, nil, nil)
	report, err := svc.QueueClients(ctx, 1)
	require.NoError(t, err)

	assert.Equal(t, StatusPreconditionFailed, report.Status)
	assert.Empty(t, report.Assignments)

	// Nothing was assigned, not even to the staffed checkout.
	client, err := m.GetClient(ctx, 60)
	require.NoError(t, err)
	assert.Zero(t, client.CheckoutID)
}

func TestQueueClientsSkipsEmptyCartsAndQueued(t *testing.T) {
	m := store.NewMemory()
	ctx := context.Background()
	seedQueueShop(t, m, 1, true)

	addShoppingClient(t, m, 60, false) // empty cart
	addShoppingClient(t, m, 61, true)
	require.NoError(t, m.EnqueueClient(ctx, 1, 61)) // already queued
	addShoppingClient(t, m, 62, true)

	svc := NewQueueService(m, nil, nil)
	report, err := svc.QueueClients(ctx, 1)
	require.NoError(t, err)

	require.Len(t, report.Assignments, 1)
	assert.Equal(t, int64(62), report.Assignments[0].ClientID)
}

func TestQueueClientsLockedShop(t *testing.T) {
	m := store.NewMemory()
	ctx := context.Background()
	seedQueueShop(t, m, 1, true)
	addShoppingClient(t, m, 60, true)

	svc := NewQueueService(m, nil, deniedLocker{})
	report, err := svc.QueueClients(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, StatusPreconditionFailed, report.Status)

	// Nothing was assigned behind the lock refusal.
	client, err := m.GetClient(ctx, 60)
	require.NoError(t, err)
	assert.Zero(t, client.CheckoutID)
}

func TestQueueClientsShopNotFound(t *testing.T) {
	svc := NewQueueService(store.NewMemory(), nil, nil)
	report, err := svc.QueueClients(context.Background(), 42)
	require.NoError(t, err)
	assert.Equal(t, StatusNotFound, report.Status)
}

func TestQueueClientsNoCheckouts(t *testing.T) {
	m := store.NewMemory()
	ctx := context.Background()
	require.NoError(t, m.SaveShop(ctx, &models.Shop{ID: 1, Name: "TestShop"}))

	svc := NewQueueService(m, nil, nil)
	report, err := svc.QueueClients(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, StatusPreconditionFailed, report.Status)
}

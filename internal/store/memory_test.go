package store

import (
	"context"
	"testing"
	"time"

	"shop-service/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryShopMembership(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()

	require.NoError(t, m.SaveShop(ctx, &models.Shop{ID: 1, Name: "Corner"}))
	require.NoError(t, m.SaveCheckout(ctx, &models.Checkout{ID: 10, ShopID: 1}))
	require.NoError(t, m.SaveCheckout(ctx, &models.Checkout{ID: 11, ShopID: 1}))
	require.NoError(t, m.SaveCashier(ctx, &models.Cashier{ID: 20, FirstName: "Ana", LastName: "Petrova", Salary: 2000, ShopID: 1}))
	require.NoError(t, m.SaveClient(ctx, &models.Client{ID: 30, FirstName: "Ivan", Money: 50, ShopID: 1}))

	shop, err := m.GetShop(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, []int64{10, 11}, shop.CheckoutIDs)
	assert.Equal(t, []int64{20}, shop.CashierIDs)
	assert.Equal(t, []int64{30}, shop.ClientIDs)

	// Re-saving must not duplicate membership.
	require.NoError(t, m.SaveCheckout(ctx, &models.Checkout{ID: 10, ShopID: 1, Earnings: 5}))
	shop, err = m.GetShop(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, []int64{10, 11}, shop.CheckoutIDs)
}

func TestMemoryNotFound(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()

	_, err := m.GetShop(ctx, 99)
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = m.GetClient(ctx, 99)
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = m.GetProductByName(ctx, 1, "missing")
	assert.ErrorIs(t, err, ErrNotFound)
	assert.ErrorIs(t, m.DeleteProduct(ctx, 99), ErrNotFound)
}

func TestMemoryQueueOrder(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()

	require.NoError(t, m.SaveCheckout(ctx, &models.Checkout{ID: 1}))
	for id := int64(1); id <= 3; id++ {
		require.NoError(t, m.SaveClient(ctx, &models.Client{ID: id}))
		require.NoError(t, m.EnqueueClient(ctx, 1, id))
	}

	checkout, err := m.GetCheckout(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, []int64{1, 2, 3}, checkout.QueueIDs)

	client, err := m.GetClient(ctx, 2)
	require.NoError(t, err)
	assert.Equal(t, int64(1), client.CheckoutID)
}

func TestMemoryDetachClient(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()

	require.NoError(t, m.SaveShop(ctx, &models.Shop{ID: 1, Name: "Corner"}))
	require.NoError(t, m.SaveCheckout(ctx, &models.Checkout{ID: 10, ShopID: 1}))
	require.NoError(t, m.SaveClient(ctx, &models.Client{ID: 30, ShopID: 1}))
	require.NoError(t, m.EnqueueClient(ctx, 10, 30))

	require.NoError(t, m.DetachClient(ctx, 30))

	client, err := m.GetClient(ctx, 30)
	require.NoError(t, err)
	assert.Zero(t, client.ShopID)
	assert.Zero(t, client.CheckoutID)

	checkout, err := m.GetCheckout(ctx, 10)
	require.NoError(t, err)
	assert.Empty(t, checkout.QueueIDs)

	shop, err := m.GetShop(ctx, 1)
	require.NoError(t, err)
	assert.Empty(t, shop.ClientIDs)
}

func TestMemoryCartLines(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()

	require.NoError(t, m.SaveClient(ctx, &models.Client{ID: 1}))

	line := &models.CartLine{ClientID: 1, Name: "bread", UnitPrice: 2, Quantity: 3, ExpireDate: time.Now()}
	require.NoError(t, m.SaveCartLine(ctx, line))
	assert.NotZero(t, line.ID)

	client, err := m.GetClient(ctx, 1)
	require.NoError(t, err)
	require.Len(t, client.Cart, 1)
	assert.Equal(t, "bread", client.Cart[0].Name)

	require.NoError(t, m.ClearCart(ctx, 1))
	client, err = m.GetClient(ctx, 1)
	require.NoError(t, err)
	assert.Empty(t, client.Cart)
}

func TestMemoryReceipts(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()

	require.NoError(t, m.SaveCashier(ctx, &models.Cashier{ID: 5, FirstName: "Ana", LastName: "Petrova"}))

	receipt := &models.Receipt{
		ID:          "r-1",
		CashierID:   5,
		CashierName: "Ana Petrova",
		IssuedAt:    time.Now(),
		Lines:       []models.CartLine{{Name: "milk", UnitPrice: 3, Quantity: 2}},
		Total:       6,
	}
	require.NoError(t, m.SaveReceipt(ctx, receipt))

	cashier, err := m.GetCashier(ctx, 5)
	require.NoError(t, err)
	assert.Equal(t, []string{"r-1"}, cashier.ReceiptIDs)

	receipts, err := m.ListCashierReceipts(ctx, 5)
	require.NoError(t, err)
	require.Len(t, receipts, 1)
	assert.Equal(t, 6.0, receipts[0].Total)
}

func TestMemoryProcessedEvents(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()

	done, err := m.IsEventProcessed(ctx, "e-1")
	require.NoError(t, err)
	assert.False(t, done)

	require.NoError(t, m.MarkEventProcessed(ctx, "e-1", models.EventTypeSettlementSucceeded))

	done, err = m.IsEventProcessed(ctx, "e-1")
	require.NoError(t, err)
	assert.True(t, done)
}

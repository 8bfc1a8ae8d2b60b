package receipt

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"shop-service/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFileEmitter(t *testing.T) {
	dir := t.TempDir()

	emitter, err := NewFileEmitter(filepath.Join(dir, "receipts"))
	require.NoError(t, err)

	r := &models.Receipt{
		ID:          "abc123",
		CashierID:   1,
		CashierName: "Ana Petrova",
		IssuedAt:    time.Date(2024, 6, 1, 10, 30, 0, 0, time.UTC),
		Lines:       []models.CartLine{{Name: "milk", UnitPrice: 3, Quantity: 2}},
		Total:       6,
	}
	require.NoError(t, emitter.Emit(context.Background(), r))

	data, err := os.ReadFile(filepath.Join(dir, "receipts", "receipt-abc123.txt"))
	require.NoError(t, err)
	assert.Contains(t, string(data), "Cashier: Ana Petrova")
	assert.Contains(t, string(data), "milk x2 @ 3.00 = 6.00")
	assert.Contains(t, string(data), "Total: 6.00")
}

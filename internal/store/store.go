// Package store is the persistence collaborator: per-entity find/save/
// delete operations plus the few queue and history helpers the engines
// need. Postgres backs production, Memory backs tests.
package store

import (
	"context"
	"errors"

	"shop-service/internal/models"
)

// ErrNotFound is returned when an entity does not exist.
var ErrNotFound = errors.New("entity not found")

// Store exposes persistence for every entity kind. Shops are returned
// with their member ID lists resolved in stable insertion order;
// checkouts with their queue in arrival order; clients with their cart.
type Store interface {
	GetShop(ctx context.Context, id int64) (*models.Shop, error)
	GetShopByName(ctx context.Context, name string) (*models.Shop, error)
	ListShops(ctx context.Context) ([]models.Shop, error)
	SaveShop(ctx context.Context, shop *models.Shop) error

	GetCheckout(ctx context.Context, id int64) (*models.Checkout, error)
	SaveCheckout(ctx context.Context, checkout *models.Checkout) error

	GetCashier(ctx context.Context, id int64) (*models.Cashier, error)
	SaveCashier(ctx context.Context, cashier *models.Cashier) error

	GetClient(ctx context.Context, id int64) (*models.Client, error)
	SaveClient(ctx context.Context, client *models.Client) error
	SaveCartLine(ctx context.Context, line *models.CartLine) error
	ClearCart(ctx context.Context, clientID int64) error

	GetProduct(ctx context.Context, id int64) (*models.CatalogProduct, error)
	GetProductByName(ctx context.Context, shopID int64, name string) (*models.CatalogProduct, error)
	ListShopProducts(ctx context.Context, shopID int64) ([]models.CatalogProduct, error)
	SaveProduct(ctx context.Context, product *models.CatalogProduct) error
	DeleteProduct(ctx context.Context, id int64) error

	// EnqueueClient appends the client to the checkout's queue and
	// records the checkout on the client. DetachClient removes the
	// client from its queue and shop membership in one step.
	EnqueueClient(ctx context.Context, checkoutID, clientID int64) error
	DetachClient(ctx context.Context, clientID int64) error

	AppendSoldLines(ctx context.Context, shopID int64, lines []models.CartLine) error

	SaveReceipt(ctx context.Context, receipt *models.Receipt) error
	ListCashierReceipts(ctx context.Context, cashierID int64) ([]models.Receipt, error)

	IsEventProcessed(ctx context.Context, eventID string) (bool, error)
	MarkEventProcessed(ctx context.Context, eventID, eventType string) error
}

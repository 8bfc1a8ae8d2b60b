package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"shop-service/internal/models"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
)

// Postgres is the production Store implementation
type Postgres struct {
	db *sqlx.DB
}

// NewPostgres connects to the database and returns a Store
func NewPostgres(databaseURL string) (*Postgres, error) {
	db, err := sqlx.Connect("postgres", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &Postgres{db: db}, nil
}

// Close closes the database connection
func (p *Postgres) Close() error {
	return p.db.Close()
}

// GetDB returns the underlying database connection
func (p *Postgres) GetDB() *sqlx.DB {
	return p.db
}

// GetShop retrieves a shop with its member ID lists resolved
func (p *Postgres) GetShop(ctx context.Context, id int64) (*models.Shop, error) {
	var shop models.Shop
	err := p.db.GetContext(ctx, &shop, "SELECT id, name FROM shops WHERE id = $1", id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	if err := p.resolveShop(ctx, &shop); err != nil {
		return nil, err
	}
	return &shop, nil
}

// GetShopByName retrieves a shop by its unique name
func (p *Postgres) GetShopByName(ctx context.Context, name string) (*models.Shop, error) {
	var shop models.Shop
	err := p.db.GetContext(ctx, &shop, "SELECT id, name FROM shops WHERE name = $1", name)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	if err := p.resolveShop(ctx, &shop); err != nil {
		return nil, err
	}
	return &shop, nil
}

// ListShops retrieves all shops in insertion order
func (p *Postgres) ListShops(ctx context.Context) ([]models.Shop, error) {
	var shops []models.Shop
	err := p.db.SelectContext(ctx, &shops, "SELECT id, name FROM shops ORDER BY id")
	if err != nil {
		return nil, err
	}
	for i := range shops {
		if err := p.resolveShop(ctx, &shops[i]); err != nil {
			return nil, err
		}
	}
	return shops, nil
}

func (p *Postgres) resolveShop(ctx context.Context, shop *models.Shop) error {
	if err := p.db.SelectContext(ctx, &shop.CheckoutIDs,
		"SELECT id FROM checkouts WHERE shop_id = $1 ORDER BY id", shop.ID); err != nil {
		return fmt.Errorf("failed to resolve shop checkouts: %w", err)
	}
	if err := p.db.SelectContext(ctx, &shop.CashierIDs,
		"SELECT id FROM cashiers WHERE shop_id = $1 ORDER BY id", shop.ID); err != nil {
		return fmt.Errorf("failed to resolve shop cashiers: %w", err)
	}
	if err := p.db.SelectContext(ctx, &shop.ClientIDs,
		"SELECT id FROM clients WHERE shop_id = $1 ORDER BY id", shop.ID); err != nil {
		return fmt.Errorf("failed to resolve shop clients: %w", err)
	}
	if err := p.db.SelectContext(ctx, &shop.SoldLines,
		`SELECT 0 AS id, 0 AS client_id, name, unit_price, category, expire_date, quantity, expired
		 FROM sold_lines WHERE shop_id = $1 ORDER BY sold_lines.id`, shop.ID); err != nil {
		return fmt.Errorf("failed to resolve shop sold lines: %w", err)
	}
	return nil
}

// SaveShop upserts a shop
func (p *Postgres) SaveShop(ctx context.Context, shop *models.Shop) error {
	_, err := p.db.ExecContext(ctx,
		`INSERT INTO shops (id, name) VALUES ($1, $2)
		 ON CONFLICT (id) DO UPDATE SET name = EXCLUDED.name`,
		shop.ID, shop.Name)
	return err
}

// GetProduct retrieves a catalog product by ID
func (p *Postgres) GetProduct(ctx context.Context, id int64) (*models.CatalogProduct, error) {
	var product models.CatalogProduct
	err := p.db.GetContext(ctx, &product, "SELECT * FROM products WHERE id = $1", id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &product, nil
}

// GetProductByName retrieves a shop's catalog product by name
func (p *Postgres) GetProductByName(ctx context.Context, shopID int64, name string) (*models.CatalogProduct, error) {
	var product models.CatalogProduct
	err := p.db.GetContext(ctx, &product,
		"SELECT * FROM products WHERE shop_id = $1 AND name = $2", shopID, name)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &product, nil
}

// ListShopProducts retrieves a shop's catalog in insertion order
func (p *Postgres) ListShopProducts(ctx context.Context, shopID int64) ([]models.CatalogProduct, error) {
	var products []models.CatalogProduct
	err := p.db.SelectContext(ctx, &products,
		"SELECT * FROM products WHERE shop_id = $1 ORDER BY id", shopID)
	return products, err
}

// SaveProduct upserts a catalog product
func (p *Postgres) SaveProduct(ctx context.Context, product *models.CatalogProduct) error {
	_, err := p.db.ExecContext(ctx,
		`INSERT INTO products (id, shop_id, name, wholesale_price, client_price, category, expire_date, quantity, expired)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		 ON CONFLICT (id) DO UPDATE SET
			shop_id = EXCLUDED.shop_id, wholesale_price = EXCLUDED.wholesale_price,
			client_price = EXCLUDED.client_price, category = EXCLUDED.category,
			expire_date = EXCLUDED.expire_date, quantity = EXCLUDED.quantity,
			expired = EXCLUDED.expired`,
		product.ID, product.ShopID, product.Name, product.WholesalePrice, product.ClientPrice,
		product.Category, product.ExpireDate, product.Quantity, product.Expired)
	return err
}

// DeleteProduct removes a catalog product
func (p *Postgres) DeleteProduct(ctx context.Context, id int64) error {
	res, err := p.db.ExecContext(ctx, "DELETE FROM products WHERE id = $1", id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// AppendSoldLines records settled lines in the shop's sold history
func (p *Postgres) AppendSoldLines(ctx context.Context, shopID int64, lines []models.CartLine) error {
	if len(lines) == 0 {
		return nil
	}
	tx, err := p.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	for _, line := range lines {
		_, err := tx.ExecContext(ctx,
			`INSERT INTO sold_lines (shop_id, name, unit_price, category, expire_date, quantity, expired)
			 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
			shopID, line.Name, line.UnitPrice, line.Category, line.ExpireDate, line.Quantity, line.Expired)
		if err != nil {
			return fmt.Errorf("failed to append sold line: %w", err)
		}
	}
	return tx.Commit()
}

// IsEventProcessed checks if an event has been processed
func (p *Postgres) IsEventProcessed(ctx context.Context, eventID string) (bool, error) {
	var exists bool
	err := p.db.GetContext(ctx, &exists,
		"SELECT EXISTS(SELECT 1 FROM processed_events WHERE event_id = $1)", eventID)
	return exists, err
}

// MarkEventProcessed marks an event as processed
func (p *Postgres) MarkEventProcessed(ctx context.Context, eventID, eventType string) error {
	_, err := p.db.ExecContext(ctx,
		"INSERT INTO processed_events (event_id, event_type) VALUES ($1, $2) ON CONFLICT (event_id) DO NOTHING",
		eventID, eventType)
	return err
}

package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"shop-service/internal/models"
)

// Zero-valued shop_id / checkout_id / cashier_id columns mean
// "unassigned"; membership queries only ever match real IDs.

// GetCheckout retrieves a checkout with its queue in arrival order
func (p *Postgres) GetCheckout(ctx context.Context, id int64) (*models.Checkout, error) {
	var checkout models.Checkout
	err := p.db.GetContext(ctx, &checkout,
		"SELECT id, shop_id, earnings, cashier_id FROM checkouts WHERE id = $1", id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	err = p.db.SelectContext(ctx, &checkout.QueueIDs,
		"SELECT id FROM clients WHERE checkout_id = $1 ORDER BY queue_pos", id)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve checkout queue: %w", err)
	}
	return &checkout, nil
}

// SaveCheckout upserts a checkout
func (p *Postgres) SaveCheckout(ctx context.Context, checkout *models.Checkout) error {
	_, err := p.db.ExecContext(ctx,
		`INSERT INTO checkouts (id, shop_id, earnings, cashier_id)
		 VALUES ($1, $2, $3, $4)
		 ON CONFLICT (id) DO UPDATE SET
			shop_id = EXCLUDED.shop_id, earnings = EXCLUDED.earnings,
			cashier_id = EXCLUDED.cashier_id`,
		checkout.ID, checkout.ShopID, checkout.Earnings, checkout.CashierID)
	return err
}

// GetCashier retrieves a cashier with their receipt history
func (p *Postgres) GetCashier(ctx context.Context, id int64) (*models.Cashier, error) {
	var cashier models.Cashier
	err := p.db.GetContext(ctx, &cashier,
		"SELECT id, first_name, last_name, salary, shop_id, checkout_id FROM cashiers WHERE id = $1", id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	err = p.db.SelectContext(ctx, &cashier.ReceiptIDs,
		"SELECT id FROM receipts WHERE cashier_id = $1 ORDER BY issued_at", id)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve cashier receipts: %w", err)
	}
	return &cashier, nil
}

// SaveCashier upserts a cashier
func (p *Postgres) SaveCashier(ctx context.Context, cashier *models.Cashier) error {
	_, err := p.db.ExecContext(ctx,
		`INSERT INTO cashiers (id, first_name, last_name, salary, shop_id, checkout_id)
		 VALUES ($1, $2, $3, $4, $5, $6)
		 ON CONFLICT (id) DO UPDATE SET
			first_name = EXCLUDED.first_name, last_name = EXCLUDED.last_name,
			salary = EXCLUDED.salary, shop_id = EXCLUDED.shop_id,
			checkout_id = EXCLUDED.checkout_id`,
		cashier.ID, cashier.FirstName, cashier.LastName, cashier.Salary,
		cashier.ShopID, cashier.CheckoutID)
	return err
}

// GetClient retrieves a client with their cart resolved
func (p *Postgres) GetClient(ctx context.Context, id int64) (*models.Client, error) {
	var client models.Client
	err := p.db.GetContext(ctx, &client,
		"SELECT id, first_name, money, shop_id, checkout_id FROM clients WHERE id = $1", id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	err = p.db.SelectContext(ctx, &client.Cart,
		"SELECT * FROM cart_lines WHERE client_id = $1 ORDER BY id", id)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve client cart: %w", err)
	}
	return &client, nil
}

// SaveClient upserts a client
func (p *Postgres) SaveClient(ctx context.Context, client *models.Client) error {
	_, err := p.db.ExecContext(ctx,
		`INSERT INTO clients (id, first_name, money, shop_id, checkout_id)
		 VALUES ($1, $2, $3, $4, $5)
		 ON CONFLICT (id) DO UPDATE SET
			first_name = EXCLUDED.first_name, money = EXCLUDED.money,
			shop_id = EXCLUDED.shop_id, checkout_id = EXCLUDED.checkout_id`,
		client.ID, client.FirstName, client.Money, client.ShopID, client.CheckoutID)
	return err
}

// SaveCartLine inserts or updates a cart line
func (p *Postgres) SaveCartLine(ctx context.Context, line *models.CartLine) error {
	if line.ID == 0 {
		return p.db.GetContext(ctx, &line.ID,
			`INSERT INTO cart_lines (client_id, name, unit_price, category, expire_date, quantity, expired)
			 VALUES ($1, $2, $3, $4, $5, $6, $7)
			 RETURNING id`,
			line.ClientID, line.Name, line.UnitPrice, line.Category,
			line.ExpireDate, line.Quantity, line.Expired)
	}
	_, err := p.db.ExecContext(ctx,
		`UPDATE cart_lines SET unit_price = $1, quantity = $2, expired = $3 WHERE id = $4`,
		line.UnitPrice, line.Quantity, line.Expired, line.ID)
	return err
}

// ClearCart removes every line from the client's cart
func (p *Postgres) ClearCart(ctx context.Context, clientID int64) error {
	_, err := p.db.ExecContext(ctx, "DELETE FROM cart_lines WHERE client_id = $1", clientID)
	return err
}

// EnqueueClient appends the client to the checkout's queue
func (p *Postgres) EnqueueClient(ctx context.Context, checkoutID, clientID int64) error {
	res, err := p.db.ExecContext(ctx,
		`UPDATE clients SET checkout_id = $1,
			queue_pos = (SELECT COALESCE(MAX(queue_pos), 0) + 1 FROM clients WHERE checkout_id = $1)
		 WHERE id = $2`,
		checkoutID, clientID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// DetachClient removes the client from its queue and shop membership
func (p *Postgres) DetachClient(ctx context.Context, clientID int64) error {
	res, err := p.db.ExecContext(ctx,
		"UPDATE clients SET shop_id = 0, checkout_id = 0, queue_pos = 0 WHERE id = $1", clientID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// SaveReceipt persists a receipt and its lines
func (p *Postgres) SaveReceipt(ctx context.Context, receipt *models.Receipt) error {
	tx, err := p.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO receipts (id, cashier_id, cashier_name, issued_at, total)
		 VALUES ($1, $2, $3, $4, $5)`,
		receipt.ID, receipt.CashierID, receipt.CashierName, receipt.IssuedAt, receipt.Total)
	if err != nil {
		return fmt.Errorf("failed to save receipt: %w", err)
	}
	for _, line := range receipt.Lines {
		_, err = tx.ExecContext(ctx,
			`INSERT INTO receipt_lines (receipt_id, name, unit_price, category, expire_date, quantity, expired)
			 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
			receipt.ID, line.Name, line.UnitPrice, line.Category,
			line.ExpireDate, line.Quantity, line.Expired)
		if err != nil {
			return fmt.Errorf("failed to save receipt line: %w", err)
		}
	}
	return tx.Commit()
}

// ListCashierReceipts retrieves a cashier's receipts in issue order
func (p *Postgres) ListCashierReceipts(ctx context.Context, cashierID int64) ([]models.Receipt, error) {
	var receipts []models.Receipt
	err := p.db.SelectContext(ctx, &receipts,
		"SELECT id, cashier_id, cashier_name, issued_at, total FROM receipts WHERE cashier_id = $1 ORDER BY issued_at", cashierID)
	if err != nil {
		return nil, err
	}
	for i := range receipts {
		err = p.db.SelectContext(ctx, &receipts[i].Lines,
			`SELECT 0 AS id, 0 AS client_id, name, unit_price, category, expire_date, quantity, expired
			 FROM receipt_lines WHERE receipt_id = $1 ORDER BY receipt_lines.id`, receipts[i].ID)
		if err != nil {
			return nil, fmt.Errorf("failed to resolve receipt lines: %w", err)
		}
	}
	return receipts, nil
}

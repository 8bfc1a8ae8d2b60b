package models

import (
	"fmt"
	"strings"
	"time"
)

// Category classifies a catalog product for pricing purposes
type Category string

const (
	CategoryEdible    Category = "EDIBLE"
	CategoryNonEdible Category = "NON_EDIBLE"
)

// CatalogProduct represents a shop's wholesale inventory record
type CatalogProduct struct {
	ID             int64     `db:"id" json:"id"`
	ShopID         int64     `db:"shop_id" json:"shop_id,omitempty"`
	Name           string    `db:"name" json:"name"`
	WholesalePrice float64   `db:"wholesale_price" json:"wholesale_price"`
	ClientPrice    float64   `db:"client_price" json:"client_price"`
	Category       Category  `db:"category" json:"category"`
	ExpireDate     time.Time `db:"expire_date" json:"expire_date"`
	Quantity       int       `db:"quantity" json:"quantity"`
	Expired        bool      `db:"expired" json:"expired"`
}

// CartLine is a client's in-cart copy of a catalog product. The unit
// price and expiry are snapshotted at add time; later catalog changes
// never reach the cart.
type CartLine struct {
	ID         int64     `db:"id" json:"id"`
	ClientID   int64     `db:"client_id" json:"client_id"`
	Name       string    `db:"name" json:"name"`
	UnitPrice  float64   `db:"unit_price" json:"unit_price"`
	Category   Category  `db:"category" json:"category"`
	ExpireDate time.Time `db:"expire_date" json:"expire_date"`
	Quantity   int       `db:"quantity" json:"quantity"`
	Expired    bool      `db:"expired" json:"expired"`
}

// Client represents a shopping client. ShopID and CheckoutID are zero
// when the client is not inside a shop or queue.
type Client struct {
	ID         int64      `db:"id" json:"id"`
	FirstName  string     `db:"first_name" json:"first_name"`
	Money      float64    `db:"money" json:"money"`
	ShopID     int64      `db:"shop_id" json:"shop_id,omitempty"`
	CheckoutID int64      `db:"checkout_id" json:"checkout_id,omitempty"`
	Cart       []CartLine `db:"-" json:"cart,omitempty"`
}

// Checkout represents a shop checkout with its waiting queue. QueueIDs
// holds client IDs in arrival order.
type Checkout struct {
	ID        int64   `db:"id" json:"id"`
	ShopID    int64   `db:"shop_id" json:"shop_id,omitempty"`
	Earnings  float64 `db:"earnings" json:"earnings"`
	CashierID int64   `db:"cashier_id" json:"cashier_id,omitempty"`
	QueueIDs  []int64 `db:"-" json:"queue_ids,omitempty"`
}

// Cashier represents a checkout operator
type Cashier struct {
	ID         int64    `db:"id" json:"id"`
	FirstName  string   `db:"first_name" json:"first_name"`
	LastName   string   `db:"last_name" json:"last_name"`
	Salary     float64  `db:"salary" json:"salary"`
	ShopID     int64    `db:"shop_id" json:"shop_id,omitempty"`
	CheckoutID int64    `db:"checkout_id" json:"checkout_id,omitempty"`
	ReceiptIDs []string `db:"-" json:"receipt_ids,omitempty"`
}

// FullName returns the cashier's display name
func (c *Cashier) FullName() string {
	return c.FirstName + " " + c.LastName
}

// Shop aggregates checkouts, cashiers, catalog and shopping clients.
// Member entities are referenced by ID; the slices keep insertion order,
// which drives queue tie-breaks and report ordering.
type Shop struct {
	ID          int64      `db:"id" json:"id"`
	Name        string     `db:"name" json:"name"`
	CheckoutIDs []int64    `db:"-" json:"checkout_ids,omitempty"`
	CashierIDs  []int64    `db:"-" json:"cashier_ids,omitempty"`
	ClientIDs   []int64    `db:"-" json:"client_ids,omitempty"`
	SoldLines   []CartLine `db:"-" json:"sold_lines,omitempty"`
}

// Receipt is the immutable record of one successful settlement. It is
// created by the settlement engine and never mutated afterward.
type Receipt struct {
	ID          string     `db:"id" json:"id"`
	CashierID   int64      `db:"cashier_id" json:"cashier_id"`
	CashierName string     `db:"cashier_name" json:"cashier_name"`
	IssuedAt    time.Time  `db:"issued_at" json:"issued_at"`
	Lines       []CartLine `db:"-" json:"lines"`
	Total       float64    `db:"total" json:"total"`
}

// Render returns the human-readable receipt text
func (r *Receipt) Render() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Receipt %s\n", r.ID)
	fmt.Fprintf(&sb, "Cashier: %s\n", r.CashierName)
	fmt.Fprintf(&sb, "Issued: %s\n", r.IssuedAt.Format("2006-01-02 15:04:05"))
	for _, line := range r.Lines {
		fmt.Fprintf(&sb, "%s x%d @ %.2f = %.2f\n",
			line.Name, line.Quantity, line.UnitPrice, line.UnitPrice*float64(line.Quantity))
	}
	fmt.Fprintf(&sb, "Total: %.2f\n", r.Total)
	return sb.String()
}

// ProcessedEvent for consumer idempotency
type ProcessedEvent struct {
	EventID     string    `db:"event_id"`
	EventType   string    `db:"event_type"`
	ProcessedAt time.Time `db:"processed_at"`
}

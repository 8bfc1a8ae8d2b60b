package store

import (
	"context"
	"sync"

	"shop-service/internal/models"
)

// Memory is an in-memory Store used by unit tests and local runs.
// Membership lists keep insertion order, matching the ordering
// guarantees the Postgres implementation gets from its position columns.
type Memory struct {
	mu sync.RWMutex

	shops     map[int64]models.Shop
	shopOrder []int64
	checkouts map[int64]models.Checkout
	cashiers  map[int64]models.Cashier
	clients   map[int64]models.Client
	products  map[int64]models.CatalogProduct
	receipts  map[string]models.Receipt

	shopCheckouts   map[int64][]int64
	shopCashiers    map[int64][]int64
	shopClients     map[int64][]int64
	shopProducts    map[int64][]int64
	shopSold        map[int64][]models.CartLine
	queues          map[int64][]int64
	carts           map[int64][]models.CartLine
	cashierReceipts map[int64][]string
	processed       map[string]string

	nextLineID int64
}

// NewMemory creates an empty in-memory store
func NewMemory() *Memory {
	return &Memory{
		shops:           make(map[int64]models.Shop),
		checkouts:       make(map[int64]models.Checkout),
		cashiers:        make(map[int64]models.Cashier),
		clients:         make(map[int64]models.Client),
		products:        make(map[int64]models.CatalogProduct),
		receipts:        make(map[string]models.Receipt),
		shopCheckouts:   make(map[int64][]int64),
		shopCashiers:    make(map[int64][]int64),
		shopClients:     make(map[int64][]int64),
		shopProducts:    make(map[int64][]int64),
		shopSold:        make(map[int64][]models.CartLine),
		queues:          make(map[int64][]int64),
		carts:           make(map[int64][]models.CartLine),
		cashierReceipts: make(map[int64][]string),
		processed:       make(map[string]string),
	}
}

func contains(ids []int64, id int64) bool {
	for _, v := range ids {
		if v == id {
			return true
		}
	}
	return false
}

func remove(ids []int64, id int64) []int64 {
	out := ids[:0]
	for _, v := range ids {
		if v != id {
			out = append(out, v)
		}
	}
	return out
}

func (m *Memory) shopView(shop models.Shop) *models.Shop {
	shop.CheckoutIDs = append([]int64(nil), m.shopCheckouts[shop.ID]...)
	shop.CashierIDs = append([]int64(nil), m.shopCashiers[shop.ID]...)
	shop.ClientIDs = append([]int64(nil), m.shopClients[shop.ID]...)
	shop.SoldLines = append([]models.CartLine(nil), m.shopSold[shop.ID]...)
	return &shop
}

// GetShop returns a shop with its member ID lists resolved
func (m *Memory) GetShop(_ context.Context, id int64) (*models.Shop, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	shop, ok := m.shops[id]
	if !ok {
		return nil, ErrNotFound
	}
	return m.shopView(shop), nil
}

// GetShopByName returns a shop by its unique name
func (m *Memory) GetShopByName(_ context.Context, name string) (*models.Shop, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, id := range m.shopOrder {
		if m.shops[id].Name == name {
			return m.shopView(m.shops[id]), nil
		}
	}
	return nil, ErrNotFound
}

// ListShops returns all shops in insertion order
func (m *Memory) ListShops(_ context.Context) ([]models.Shop, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	shops := make([]models.Shop, 0, len(m.shopOrder))
	for _, id := range m.shopOrder {
		shops = append(shops, *m.shopView(m.shops[id]))
	}
	return shops, nil
}

// SaveShop upserts a shop's own fields; membership lists are derived
func (m *Memory) SaveShop(_ context.Context, shop *models.Shop) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.shops[shop.ID]; !ok {
		m.shopOrder = append(m.shopOrder, shop.ID)
	}
	m.shops[shop.ID] = models.Shop{ID: shop.ID, Name: shop.Name}
	return nil
}

// GetCheckout returns a checkout with its queue resolved
func (m *Memory) GetCheckout(_ context.Context, id int64) (*models.Checkout, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	checkout, ok := m.checkouts[id]
	if !ok {
		return nil, ErrNotFound
	}
	checkout.QueueIDs = append([]int64(nil), m.queues[id]...)
	return &checkout, nil
}

// SaveCheckout upserts a checkout and records its shop membership
func (m *Memory) SaveCheckout(_ context.Context, checkout *models.Checkout) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	c := *checkout
	c.QueueIDs = nil
	m.checkouts[c.ID] = c
	if c.ShopID != 0 && !contains(m.shopCheckouts[c.ShopID], c.ID) {
		m.shopCheckouts[c.ShopID] = append(m.shopCheckouts[c.ShopID], c.ID)
	}
	return nil
}

// GetCashier returns a cashier with their receipt history resolved
func (m *Memory) GetCashier(_ context.Context, id int64) (*models.Cashier, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	cashier, ok := m.cashiers[id]
	if !ok {
		return nil, ErrNotFound
	}
	cashier.ReceiptIDs = append([]string(nil), m.cashierReceipts[id]...)
	return &cashier, nil
}

// SaveCashier upserts a cashier and records their shop membership
func (m *Memory) SaveCashier(_ context.Context, cashier *models.Cashier) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	c := *cashier
	c.ReceiptIDs = nil
	m.cashiers[c.ID] = c
	if c.ShopID != 0 && !contains(m.shopCashiers[c.ShopID], c.ID) {
		m.shopCashiers[c.ShopID] = append(m.shopCashiers[c.ShopID], c.ID)
	}
	return nil
}

// GetClient returns a client with their cart resolved
func (m *Memory) GetClient(_ context.Context, id int64) (*models.Client, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	client, ok := m.clients[id]
	if !ok {
		return nil, ErrNotFound
	}
	client.Cart = append([]models.CartLine(nil), m.carts[id]...)
	return &client, nil
}

// SaveClient upserts a client and records their shop membership
func (m *Memory) SaveClient(_ context.Context, client *models.Client) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	c := *client
	c.Cart = nil
	m.clients[c.ID] = c
	if c.ShopID != 0 && !contains(m.shopClients[c.ShopID], c.ID) {
		m.shopClients[c.ShopID] = append(m.shopClients[c.ShopID], c.ID)
	}
	return nil
}

// SaveCartLine appends or updates a line in the owning client's cart
func (m *Memory) SaveCartLine(_ context.Context, line *models.CartLine) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if line.ID == 0 {
		m.nextLineID++
		line.ID = m.nextLineID
	}
	cart := m.carts[line.ClientID]
	for i := range cart {
		if cart[i].ID == line.ID {
			cart[i] = *line
			return nil
		}
	}
	m.carts[line.ClientID] = append(cart, *line)
	return nil
}

// ClearCart removes every line from the client's cart
func (m *Memory) ClearCart(_ context.Context, clientID int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.carts, clientID)
	return nil
}

// GetProduct returns a catalog product by ID
func (m *Memory) GetProduct(_ context.Context, id int64) (*models.CatalogProduct, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	product, ok := m.products[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &product, nil
}

// GetProductByName returns a shop's catalog product by name
func (m *Memory) GetProductByName(_ context.Context, shopID int64, name string) (*models.CatalogProduct, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, id := range m.shopProducts[shopID] {
		if p, ok := m.products[id]; ok && p.Name == name {
			return &p, nil
		}
	}
	return nil, ErrNotFound
}

// ListShopProducts returns a shop's catalog in insertion order
func (m *Memory) ListShopProducts(_ context.Context, shopID int64) ([]models.CatalogProduct, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	products := make([]models.CatalogProduct, 0, len(m.shopProducts[shopID]))
	for _, id := range m.shopProducts[shopID] {
		products = append(products, m.products[id])
	}
	return products, nil
}

// SaveProduct upserts a catalog product and records its shop membership
func (m *Memory) SaveProduct(_ context.Context, product *models.CatalogProduct) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.products[product.ID] = *product
	if product.ShopID != 0 && !contains(m.shopProducts[product.ShopID], product.ID) {
		m.shopProducts[product.ShopID] = append(m.shopProducts[product.ShopID], product.ID)
	}
	return nil
}

// DeleteProduct removes a catalog product
func (m *Memory) DeleteProduct(_ context.Context, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	product, ok := m.products[id]
	if !ok {
		return ErrNotFound
	}
	delete(m.products, id)
	if product.ShopID != 0 {
		m.shopProducts[product.ShopID] = remove(m.shopProducts[product.ShopID], id)
	}
	return nil
}

// EnqueueClient appends the client to the checkout queue
func (m *Memory) EnqueueClient(_ context.Context, checkoutID, clientID int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	client, ok := m.clients[clientID]
	if !ok {
		return ErrNotFound
	}
	if _, ok := m.checkouts[checkoutID]; !ok {
		return ErrNotFound
	}
	if !contains(m.queues[checkoutID], clientID) {
		m.queues[checkoutID] = append(m.queues[checkoutID], clientID)
	}
	client.CheckoutID = checkoutID
	m.clients[clientID] = client
	return nil
}

// DetachClient removes the client from its queue and shop membership
func (m *Memory) DetachClient(_ context.Context, clientID int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	client, ok := m.clients[clientID]
	if !ok {
		return ErrNotFound
	}
	if client.CheckoutID != 0 {
		m.queues[client.CheckoutID] = remove(m.queues[client.CheckoutID], clientID)
	}
	if client.ShopID != 0 {
		m.shopClients[client.ShopID] = remove(m.shopClients[client.ShopID], clientID)
	}
	client.CheckoutID = 0
	client.ShopID = 0
	m.clients[clientID] = client
	return nil
}

// AppendSoldLines records settled lines in the shop's sold history
func (m *Memory) AppendSoldLines(_ context.Context, shopID int64, lines []models.CartLine) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.shopSold[shopID] = append(m.shopSold[shopID], lines...)
	return nil
}

// SaveReceipt persists a receipt and appends it to the cashier history
func (m *Memory) SaveReceipt(_ context.Context, receipt *models.Receipt) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	r := *receipt
	r.Lines = append([]models.CartLine(nil), receipt.Lines...)
	m.receipts[r.ID] = r
	m.cashierReceipts[r.CashierID] = append(m.cashierReceipts[r.CashierID], r.ID)
	return nil
}

// ListCashierReceipts returns a cashier's receipts in issue order
func (m *Memory) ListCashierReceipts(_ context.Context, cashierID int64) ([]models.Receipt, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	receipts := make([]models.Receipt, 0, len(m.cashierReceipts[cashierID]))
	for _, id := range m.cashierReceipts[cashierID] {
		receipts = append(receipts, m.receipts[id])
	}
	return receipts, nil
}

// IsEventProcessed checks if an event has been processed
func (m *Memory) IsEventProcessed(_ context.Context, eventID string) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	_, ok := m.processed[eventID]
	return ok, nil
}

// MarkEventProcessed marks an event as processed
func (m *Memory) MarkEventProcessed(_ context.Context, eventID, eventType string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.processed[eventID] = eventType
	return nil
}

package service

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"time"

	"shop-service/internal/models"
	"shop-service/internal/pricing"
	"shop-service/internal/store"
	"shop-service/internal/util"

	"go.uber.org/zap"
)

// AdminService handles entity admission and shop assignment. These are
// single-entity operations with existence checks; the queueing and
// settlement engines only ever see entities admitted here.
type AdminService struct {
	store  store.Store
	rng    *rand.Rand
	logger *zap.Logger
	now    func() time.Time
}

// NewAdminService creates a new admin service. The random source feeds
// cart sampling and is injected so tests can seed it.
func NewAdminService(st store.Store, rng *rand.Rand) *AdminService {
	return &AdminService{
		store:  st,
		rng:    rng,
		logger: util.GetLogger(),
		now:    time.Now,
	}
}

// AddShop admits a shop; names are unique
func (s *AdminService) AddShop(ctx context.Context, shop *models.Shop) (*Result, error) {
	if shop.ID == 0 || shop.Name == "" {
		return invalid("Invalid shop!"), nil
	}
	_, err := s.store.GetShopByName(ctx, shop.Name)
	if err == nil {
		return conflict("Shop %s already exists!", shop.Name), nil
	}
	if !errors.Is(err, store.ErrNotFound) {
		return nil, fmt.Errorf("failed to check shop name: %w", err)
	}
	if err := s.store.SaveShop(ctx, shop); err != nil {
		return nil, fmt.Errorf("failed to save shop: %w", err)
	}
	return ok("Shop added successfully!"), nil
}

// AddCheckout admits a checkout
func (s *AdminService) AddCheckout(ctx context.Context, checkout *models.Checkout) (*Result, error) {
	if checkout.ID == 0 {
		return invalid("Invalid checkout!"), nil
	}
	if _, err := s.store.GetCheckout(ctx, checkout.ID); err == nil {
		return conflict("Checkout with id: %d already exists!", checkout.ID), nil
	} else if !errors.Is(err, store.ErrNotFound) {
		return nil, fmt.Errorf("failed to check checkout: %w", err)
	}
	checkout.ShopID = 0
	checkout.CashierID = 0
	if err := s.store.SaveCheckout(ctx, checkout); err != nil {
		return nil, fmt.Errorf("failed to save checkout: %w", err)
	}
	return ok("Successfully added checkout!"), nil
}

// AddCashier admits a cashier
func (s *AdminService) AddCashier(ctx context.Context, cashier *models.Cashier) (*Result, error) {
	if cashier.ID == 0 || cashier.FirstName == "" || cashier.LastName == "" || cashier.Salary < 0 {
		return invalid("Invalid cashier!"), nil
	}
	if _, err := s.store.GetCashier(ctx, cashier.ID); err == nil {
		return conflict("Cashier with id: %d already exists!", cashier.ID), nil
	} else if !errors.Is(err, store.ErrNotFound) {
		return nil, fmt.Errorf("failed to check cashier: %w", err)
	}
	if err := s.store.SaveCashier(ctx, cashier); err != nil {
		return nil, fmt.Errorf("failed to save cashier: %w", err)
	}
	return ok("Successfully added cashier!"), nil
}

// AddClient admits a client
func (s *AdminService) AddClient(ctx context.Context, client *models.Client) (*Result, error) {
	if client.ID == 0 || client.FirstName == "" || client.Money < 0 {
		return invalid("Invalid client!"), nil
	}
	if existing, err := s.store.GetClient(ctx, client.ID); err == nil {
		return conflict("Client %s already exists!", existing.FirstName), nil
	} else if !errors.Is(err, store.ErrNotFound) {
		return nil, fmt.Errorf("failed to check client: %w", err)
	}
	if err := s.store.SaveClient(ctx, client); err != nil {
		return nil, fmt.Errorf("failed to save client: %w", err)
	}
	return ok("Successfully added client!"), nil
}

// AddProduct admits a catalog product and derives its client price
func (s *AdminService) AddProduct(ctx context.Context, product *models.CatalogProduct) (*Result, error) {
	if product.ID == 0 || product.Name == "" {
		return invalid("Invalid product!"), nil
	}
	if product.WholesalePrice < 0 {
		return invalid("Invalid price!"), nil
	}
	if product.Expired || product.ExpireDate.Before(s.now()) {
		return invalid("Expired product!"), nil
	}
	if _, err := s.store.GetProduct(ctx, product.ID); err == nil {
		return conflict("Product with id: %d already exists!", product.ID), nil
	} else if !errors.Is(err, store.ErrNotFound) {
		return nil, fmt.Errorf("failed to check product: %w", err)
	}

	product.ClientPrice = pricing.ClientPrice(product.WholesalePrice, product.Category)
	product.ShopID = 0
	if err := s.store.SaveProduct(ctx, product); err != nil {
		return nil, fmt.Errorf("failed to save product: %w", err)
	}
	return ok("Successfully added product %s!", product.Name), nil
}

// AssignClientToShop places a client into a shop
func (s *AdminService) AssignClientToShop(ctx context.Context, clientID, shopID int64) (*Result, error) {
	client, err := s.store.GetClient(ctx, clientID)
	if errors.Is(err, store.ErrNotFound) {
		return notFound("Client with id: %d does not exist!", clientID), nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load client: %w", err)
	}
	shop, err := s.store.GetShop(ctx, shopID)
	if errors.Is(err, store.ErrNotFound) {
		return notFound("Shop with id: %d does not exist!", shopID), nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load shop: %w", err)
	}
	if client.ShopID != 0 {
		return conflict("Client %s is already shopping in another shop!", client.FirstName), nil
	}

	client.ShopID = shop.ID
	if err := s.store.SaveClient(ctx, client); err != nil {
		return nil, fmt.Errorf("failed to save client: %w", err)
	}
	return ok("Client %s assigned to shop %s successfully!", client.FirstName, shop.Name), nil
}

// AssignCheckoutToShop places a checkout into a shop
func (s *AdminService) AssignCheckoutToShop(ctx context.Context, checkoutID, shopID int64) (*Result, error) {
	checkout, err := s.store.GetCheckout(ctx, checkoutID)
	if errors.Is(err, store.ErrNotFound) {
		return notFound("Checkout does not exist!"), nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load checkout: %w", err)
	}
	shop, err := s.store.GetShop(ctx, shopID)
	if errors.Is(err, store.ErrNotFound) {
		return notFound("Shop does not exist!"), nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load shop: %w", err)
	}
	if checkout.ShopID != 0 {
		return conflict("Checkout with id: %d is already assigned to a shop!", checkout.ID), nil
	}

	checkout.ShopID = shop.ID
	if err := s.store.SaveCheckout(ctx, checkout); err != nil {
		return nil, fmt.Errorf("failed to save checkout: %w", err)
	}
	return ok("Checkout with id: %d successfully assigned to shop %s!", checkout.ID, shop.Name), nil
}

// AssignCashierToShop places a cashier into a shop
func (s *AdminService) AssignCashierToShop(ctx context.Context, cashierID, shopID int64) (*Result, error) {
	cashier, err := s.store.GetCashier(ctx, cashierID)
	if errors.Is(err, store.ErrNotFound) {
		return notFound("Cashier does not exist!"), nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load cashier: %w", err)
	}
	shop, err := s.store.GetShop(ctx, shopID)
	if errors.Is(err, store.ErrNotFound) {
		return notFound("Shop does not exist!"), nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load shop: %w", err)
	}
	if cashier.ShopID != 0 {
		return conflict("Cashier %s is already assigned to a shop!", cashier.FullName()), nil
	}

	cashier.ShopID = shop.ID
	if err := s.store.SaveCashier(ctx, cashier); err != nil {
		return nil, fmt.Errorf("failed to save cashier: %w", err)
	}
	return ok("Successfully assigned cashier %s to shop %s!", cashier.FullName(), shop.Name), nil
}

// AssignProductToShop stocks a shop's catalog with an admitted product.
// Products past their expiry date are marked expired and removed.
func (s *AdminService) AssignProductToShop(ctx context.Context, productID, shopID int64) (*Result, error) {
	product, err := s.store.GetProduct(ctx, productID)
	if errors.Is(err, store.ErrNotFound) {
		return notFound("Product with id: %d does not exist!", productID), nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load product: %w", err)
	}
	shop, err := s.store.GetShop(ctx, shopID)
	if errors.Is(err, store.ErrNotFound) {
		return notFound("Shop with id: %d does not exist!", shopID), nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load shop: %w", err)
	}

	if product.ExpireDate.Before(s.now()) {
		product.Expired = true
	}
	if product.Expired {
		if err := s.store.DeleteProduct(ctx, productID); err != nil {
			return nil, fmt.Errorf("failed to delete expired product: %w", err)
		}
		return preconditionFailed("Product %s is expired!", product.Name), nil
	}

	if product.ShopID == shop.ID {
		return conflict("Product %s is already in shop %s!", product.Name, shop.Name), nil
	}
	if _, err := s.store.GetProductByName(ctx, shop.ID, product.Name); err == nil {
		return conflict("Product %s is already in shop %s!", product.Name, shop.Name), nil
	} else if !errors.Is(err, store.ErrNotFound) {
		return nil, fmt.Errorf("failed to check product name: %w", err)
	}

	product.ShopID = shop.ID
	if err := s.store.SaveProduct(ctx, product); err != nil {
		return nil, fmt.Errorf("failed to save product: %w", err)
	}
	return ok("Product %s successfully added to shop %s!", product.Name, shop.Name), nil
}

// AssignCashierToCheckout pairs a free cashier with a free checkout of
// the same shop
func (s *AdminService) AssignCashierToCheckout(ctx context.Context, cashierID, checkoutID int64) (*Result, error) {
	cashier, err := s.store.GetCashier(ctx, cashierID)
	if errors.Is(err, store.ErrNotFound) {
		return notFound("Cashier does not exist!"), nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load cashier: %w", err)
	}
	checkout, err := s.store.GetCheckout(ctx, checkoutID)
	if errors.Is(err, store.ErrNotFound) {
		return notFound("Checkout does not exist!"), nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load checkout: %w", err)
	}

	switch {
	case checkout.ShopID == 0 && cashier.ShopID == 0:
		return preconditionFailed("Both checkout and cashier are not assigned to any shop!"), nil
	case checkout.ShopID == 0:
		return preconditionFailed("Checkout is not assigned to any shop!"), nil
	case cashier.ShopID == 0:
		return preconditionFailed("Cashier is not assigned to any shop!"), nil
	case cashier.ShopID != checkout.ShopID:
		return preconditionFailed("Cashier and checkout are in different shops!"), nil
	case cashier.CheckoutID != 0:
		return conflict("Cashier %s is already assigned to another checkout!", cashier.FullName()), nil
	case checkout.CashierID != 0:
		return conflict("Checkout is already assigned to another cashier!"), nil
	}

	cashier.CheckoutID = checkout.ID
	checkout.CashierID = cashier.ID
	if err := s.store.SaveCashier(ctx, cashier); err != nil {
		return nil, fmt.Errorf("failed to save cashier: %w", err)
	}
	if err := s.store.SaveCheckout(ctx, checkout); err != nil {
		return nil, fmt.Errorf("failed to save checkout: %w", err)
	}
	return ok("Successfully added cashier %s to checkout with id: %d!", cashier.FullName(), checkout.ID), nil
}

// AddRandomProductToClient samples a random catalog product and a
// random quantity into the client's cart, snapshotting the client
// price. The catalog quantity is decremented immediately.
func (s *AdminService) AddRandomProductToClient(ctx context.Context, clientID int64) (*Result, error) {
	client, err := s.store.GetClient(ctx, clientID)
	if errors.Is(err, store.ErrNotFound) {
		return notFound("Client not found!"), nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load client: %w", err)
	}
	if client.ShopID == 0 {
		return preconditionFailed("Client is not in any shop!"), nil
	}

	products, err := s.store.ListShopProducts(ctx, client.ShopID)
	if err != nil {
		return nil, fmt.Errorf("failed to list shop products: %w", err)
	}
	if len(products) == 0 {
		return preconditionFailed("Shop catalog is empty!"), nil
	}

	product := products[s.rng.Intn(len(products))]
	for _, line := range client.Cart {
		if line.Name == product.Name {
			return conflict("Client already has product %s in his cart!", product.Name), nil
		}
	}

	requiredQuantity := s.rng.Intn(product.Quantity+3) + 1
	if requiredQuantity > product.Quantity {
		return preconditionFailed("Quantity not enough! Product: %s, required: %d, available: %d",
			product.Name, requiredQuantity, product.Quantity), nil
	}

	line := &models.CartLine{
		ClientID:   clientID,
		Name:       product.Name,
		UnitPrice:  product.ClientPrice,
		Category:   product.Category,
		ExpireDate: product.ExpireDate,
		Quantity:   requiredQuantity,
		Expired:    product.Expired,
	}
	if err := s.store.SaveCartLine(ctx, line); err != nil {
		return nil, fmt.Errorf("failed to save cart line: %w", err)
	}

	product.Quantity -= requiredQuantity
	if err := s.store.SaveProduct(ctx, &product); err != nil {
		return nil, fmt.Errorf("failed to update product quantity: %w", err)
	}

	s.logger.Debug("Cart line added",
		zap.Int64("client_id", clientID),
		zap.String("product", product.Name),
		zap.Int("quantity", requiredQuantity))
	return ok("Successfully added product %s to the client!", product.Name), nil
}

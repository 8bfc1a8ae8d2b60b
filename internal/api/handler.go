package api

import (
	"net/http"
	"strconv"
	"time"

	"shop-service/internal/models"
	"shop-service/internal/service"
	"shop-service/internal/util"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Handler contains HTTP handlers
type Handler struct {
	adminService      *service.AdminService
	queueService      *service.QueueService
	settlementService *service.SettlementService
	ledgerService     *service.LedgerService
}

// NewHandler creates a new HTTP handler
func NewHandler(
	adminService *service.AdminService,
	queueService *service.QueueService,
	settlementService *service.SettlementService,
	ledgerService *service.LedgerService,
) *Handler {
	return &Handler{
		adminService:      adminService,
		queueService:      queueService,
		settlementService: settlementService,
		ledgerService:     ledgerService,
	}
}

// SetupRoutes sets up HTTP routes
func (h *Handler) SetupRoutes(router *gin.Engine) {
	router.Use(gin.Recovery())
	router.Use(prometheusMiddleware())
	router.Use(gin.Logger())

	router.GET("/health", h.healthCheck)
	router.GET("/ready", h.readinessCheck)

	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	v1 := router.Group("/api/v1")
	{
		v1.POST("/shops", h.createShop)
		v1.POST("/checkouts", h.createCheckout)
		v1.POST("/cashiers", h.createCashier)
		v1.POST("/clients", h.createClient)
		v1.POST("/products", h.createProduct)

		v1.POST("/shops/:id/clients/:clientID", h.assignClient)
		v1.POST("/shops/:id/checkouts/:checkoutID", h.assignCheckout)
		v1.POST("/shops/:id/cashiers/:cashierID", h.assignCashier)
		v1.POST("/shops/:id/products/:productID", h.assignProduct)
		v1.POST("/checkouts/:id/cashiers/:cashierID", h.assignCashierToCheckout)

		v1.POST("/clients/:id/cart", h.addRandomProduct)

		v1.POST("/shops/:id/queue", h.queueClients)
		v1.POST("/shops/:id/settle", h.settle)
		v1.GET("/ledger", h.ledger)
	}
}

// healthCheck handles health check requests
func (h *Handler) healthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "healthy",
		"time":   time.Now().Unix(),
	})
}

// readinessCheck handles readiness check requests
func (h *Handler) readinessCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "ready",
		"time":   time.Now().Unix(),
	})
}

// CreateShopRequest is the shop admission payload
type CreateShopRequest struct {
	ID   int64  `json:"id" binding:"required"`
	Name string `json:"name" binding:"required"`
}

// createShop handles shop admission
func (h *Handler) createShop(c *gin.Context) {
	var req CreateShopRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	res, err := h.adminService.AddShop(c.Request.Context(), &models.Shop{ID: req.ID, Name: req.Name})
	respondResult(c, res, err)
}

// CreateCheckoutRequest is the checkout admission payload
type CreateCheckoutRequest struct {
	ID int64 `json:"id" binding:"required"`
}

// createCheckout handles checkout admission
func (h *Handler) createCheckout(c *gin.Context) {
	var req CreateCheckoutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	res, err := h.adminService.AddCheckout(c.Request.Context(), &models.Checkout{ID: req.ID})
	respondResult(c, res, err)
}

// CreateCashierRequest is the cashier admission payload
type CreateCashierRequest struct {
	ID        int64   `json:"id" binding:"required"`
	FirstName string  `json:"first_name" binding:"required"`
	LastName  string  `json:"last_name" binding:"required"`
	Salary    float64 `json:"salary" binding:"min=0"`
}

// createCashier handles cashier admission
func (h *Handler) createCashier(c *gin.Context) {
	var req CreateCashierRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	res, err := h.adminService.AddCashier(c.Request.Context(), &models.Cashier{
		ID:        req.ID,
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Salary:    req.Salary,
	})
	respondResult(c, res, err)
}

// CreateClientRequest is the client admission payload
type CreateClientRequest struct {
	ID        int64   `json:"id" binding:"required"`
	FirstName string  `json:"first_name" binding:"required"`
	Money     float64 `json:"money" binding:"min=0"`
}

// createClient handles client admission
func (h *Handler) createClient(c *gin.Context) {
	var req CreateClientRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	res, err := h.adminService.AddClient(c.Request.Context(), &models.Client{
		ID:        req.ID,
		FirstName: req.FirstName,
		Money:     req.Money,
	})
	respondResult(c, res, err)
}

// CreateProductRequest is the catalog admission payload. The client
// price is derived server-side and must not be supplied.
type CreateProductRequest struct {
	ID             int64           `json:"id" binding:"required"`
	Name           string          `json:"name" binding:"required"`
	WholesalePrice float64         `json:"wholesale_price" binding:"min=0"`
	Category       models.Category `json:"category" binding:"required,oneof=EDIBLE NON_EDIBLE"`
	ExpireDate     time.Time       `json:"expire_date" binding:"required"`
	Quantity       int             `json:"quantity" binding:"min=0"`
}

// createProduct handles catalog product admission
func (h *Handler) createProduct(c *gin.Context) {
	var req CreateProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	res, err := h.adminService.AddProduct(c.Request.Context(), &models.CatalogProduct{
		ID:             req.ID,
		Name:           req.Name,
		WholesalePrice: req.WholesalePrice,
		Category:       req.Category,
		ExpireDate:     req.ExpireDate,
		Quantity:       req.Quantity,
	})
	respondResult(c, res, err)
}

// assignClient places a client into a shop
func (h *Handler) assignClient(c *gin.Context) {
	shopID, clientID, ok := pathIDs(c, "id", "clientID")
	if !ok {
		return
	}
	res, err := h.adminService.AssignClientToShop(c.Request.Context(), clientID, shopID)
	respondResult(c, res, err)
}

// assignCheckout places a checkout into a shop
func (h *Handler) assignCheckout(c *gin.Context) {
	shopID, checkoutID, ok := pathIDs(c, "id", "checkoutID")
	if !ok {
		return
	}
	res, err := h.adminService.AssignCheckoutToShop(c.Request.Context(), checkoutID, shopID)
	respondResult(c, res, err)
}

// assignCashier places a cashier into a shop
func (h *Handler) assignCashier(c *gin.Context) {
	shopID, cashierID, ok := pathIDs(c, "id", "cashierID")
	if !ok {
		return
	}
	res, err := h.adminService.AssignCashierToShop(c.Request.Context(), cashierID, shopID)
	respondResult(c, res, err)
}

// assignProduct stocks a shop's catalog
func (h *Handler) assignProduct(c *gin.Context) {
	shopID, productID, ok := pathIDs(c, "id", "productID")
	if !ok {
		return
	}
	res, err := h.adminService.AssignProductToShop(c.Request.Context(), productID, shopID)
	respondResult(c, res, err)
}

// assignCashierToCheckout pairs a cashier with a checkout
func (h *Handler) assignCashierToCheckout(c *gin.Context) {
	checkoutID, cashierID, ok := pathIDs(c, "id", "cashierID")
	if !ok {
		return
	}
	res, err := h.adminService.AssignCashierToCheckout(c.Request.Context(), cashierID, checkoutID)
	respondResult(c, res, err)
}

// addRandomProduct samples a catalog product into the client's cart
func (h *Handler) addRandomProduct(c *gin.Context) {
	clientID, ok := pathID(c, "id")
	if !ok {
		return
	}
	res, err := h.adminService.AddRandomProductToClient(c.Request.Context(), clientID)
	respondResult(c, res, err)
}

// queueClients runs a queueing pass over the shop
func (h *Handler) queueClients(c *gin.Context) {
	shopID, ok := pathID(c, "id")
	if !ok {
		return
	}

	report, err := h.queueService.QueueClients(c.Request.Context(), shopID)
	if err != nil {
		internalError(c, err)
		return
	}

	c.JSON(statusCode(report.Status), gin.H{
		"report":   report,
		"rendered": report.Render(),
	})
}

// settle runs a settlement pass over the shop
func (h *Handler) settle(c *gin.Context) {
	shopID, ok := pathID(c, "id")
	if !ok {
		return
	}

	report, err := h.settlementService.Settle(c.Request.Context(), shopID)
	if err != nil {
		internalError(c, err)
		return
	}

	c.JSON(statusCode(report.Status), gin.H{
		"report":   report,
		"rendered": report.Render(),
	})
}

// ledger returns the all-shops financial rollup
func (h *Handler) ledger(c *gin.Context) {
	report, err := h.ledgerService.AggregateLedger(c.Request.Context())
	if err != nil {
		internalError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"report":   report,
		"rendered": report.Render(),
	})
}

func pathID(c *gin.Context, name string) (int64, bool) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Invalid " + name,
		})
		return 0, false
	}
	return id, true
}

func pathIDs(c *gin.Context, first, second string) (int64, int64, bool) {
	a, ok := pathID(c, first)
	if !ok {
		return 0, 0, false
	}
	b, ok := pathID(c, second)
	if !ok {
		return 0, 0, false
	}
	return a, b, true
}

func badRequest(c *gin.Context, err error) {
	c.JSON(http.StatusBadRequest, gin.H{
		"error":   "Invalid request body",
		"details": err.Error(),
	})
}

func internalError(c *gin.Context, err error) {
	c.JSON(http.StatusInternalServerError, gin.H{
		"error":   "Operation failed",
		"details": err.Error(),
	})
}

func respondResult(c *gin.Context, res *service.Result, err error) {
	if err != nil {
		internalError(c, err)
		return
	}
	c.JSON(statusCode(res.Status), res)
}

// statusCode maps operation statuses onto HTTP codes
func statusCode(s service.Status) int {
	switch s {
	case service.StatusOK:
		return http.StatusOK
	case service.StatusNotFound:
		return http.StatusNotFound
	case service.StatusConflict:
		return http.StatusConflict
	case service.StatusPreconditionFailed:
		return http.StatusUnprocessableEntity
	case service.StatusInvalid:
		return http.StatusBadRequest
	case service.StatusInsufficientFunds:
		return http.StatusPaymentRequired
	default:
		return http.StatusOK
	}
}

// prometheusMiddleware collects HTTP metrics
func prometheusMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		c.Next()

		duration := time.Since(start).Seconds()
		status := strconv.Itoa(c.Writer.Status())

		util.HTTPRequestDuration.WithLabelValues(
			c.Request.Method,
			c.FullPath(),
			status,
		).Observe(duration)

		util.HTTPRequestsTotal.WithLabelValues(
			c.Request.Method,
			c.FullPath(),
			status,
		).Inc()
	}
}

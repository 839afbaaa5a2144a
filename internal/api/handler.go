package api

import (
	"net/http"
	"strconv"
	"time"

	"marketplace-service/internal/apperr"
	"marketplace-service/internal/service"
	"marketplace-service/internal/util"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Handler contains HTTP handlers
type Handler struct {
	catalogService  *service.CatalogService
	cartService     *service.CartService
	checkoutService *service.CheckoutService
	stockCache      *service.StockCache
}

// NewHandler creates a new HTTP handler
func NewHandler(
	catalogService *service.CatalogService,
	cartService *service.CartService,
	checkoutService *service.CheckoutService,
	stockCache *service.StockCache,
) *Handler {
	return &Handler{
		catalogService:  catalogService,
		cartService:     cartService,
		checkoutService: checkoutService,
		stockCache:      stockCache,
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
		v1.POST("/items", h.addItem)
		v1.GET("/items", h.listItems)
		v1.GET("/items/search", h.findItems)
		v1.DELETE("/items/:title", h.removeItem)
		v1.POST("/items/:title/restock", h.restockItem)
		v1.GET("/stock/:title", h.itemAvailability)

		v1.GET("/cart", h.getCart)
		v1.POST("/cart/items", h.addToCart)
		v1.DELETE("/cart/items", h.removeFromCart)

		v1.POST("/checkout", h.checkout)
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

// addItem handles catalog item creation
func (h *Handler) addItem(c *gin.Context) {
	var req service.AddItemRequest

	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request body",
			"details": err.Error(),
		})
		return
	}

	item, err := h.catalogService.AddItem(c.Request.Context(), req.Title, *req.Price, *req.Stock)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusCreated, item)
}

// listItems handles fetching the full catalog
func (h *Handler) listItems(c *gin.Context) {
	items, err := h.catalogService.ListItems(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, items)
}

// findItems handles title lookups, optionally filtered to in-stock items
func (h *Handler) findItems(c *gin.Context) {
	title := c.Query("title")
	inStock, _ := strconv.ParseBool(c.DefaultQuery("in_stock", "false"))

	items, err := h.catalogService.FindItemsByTitle(c.Request.Context(), title, inStock)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, items)
}

// removeItem handles catalog item deletion, cascading into the cart
func (h *Handler) removeItem(c *gin.Context) {
	if err := h.catalogService.RemoveItem(c.Request.Context(), c.Param("title")); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

type restockRequest struct {
	Quantity int `json:"quantity" binding:"required"`
}

// restockItem handles positive stock adjustments
func (h *Handler) restockItem(c *gin.Context) {
	var req restockRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request body",
			"details": err.Error(),
		})
		return
	}

	item, err := h.catalogService.Restock(c.Request.Context(), c.Param("title"), req.Quantity)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, item)
}

// itemAvailability serves the cached stock count for an item
func (h *Handler) itemAvailability(c *gin.Context) {
	title := c.Param("title")

	stock, err := h.stockCache.Available(c.Request.Context(), title)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"title": title, "stock": stock})
}

// getCart returns the cart, creating it lazily on first access
func (h *Handler) getCart(c *gin.Context) {
	cart, err := h.cartService.GetOrCreateCart(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, cart)
}

type cartLineRequest struct {
	Title    string `json:"title" binding:"required"`
	Quantity int    `json:"quantity" binding:"required"`
}

// addToCart handles adding items to the shopping cart
func (h *Handler) addToCart(c *gin.Context) {
	var req cartLineRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request body",
			"details": err.Error(),
		})
		return
	}

	cart, err := h.cartService.AddItem(c.Request.Context(), req.Title, req.Quantity)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, cart)
}

// removeFromCart handles removing items from the shopping cart
func (h *Handler) removeFromCart(c *gin.Context) {
	var req cartLineRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request body",
			"details": err.Error(),
		})
		return
	}

	cart, err := h.cartService.RemoveItem(c.Request.Context(), req.Title, req.Quantity)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, cart)
}

// checkout handles cart checkout
func (h *Handler) checkout(c *gin.Context) {
	receipt, err := h.checkoutService.Checkout(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, receipt)
}

// writeError maps error kinds to transport status codes
func writeError(c *gin.Context, err error) {
	status := http.StatusInternalServerError

	switch apperr.KindOf(err) {
	case apperr.Validation:
		status = http.StatusBadRequest
	case apperr.Conflict, apperr.InsufficientStock:
		status = http.StatusConflict
	case apperr.NotFound, apperr.Empty:
		status = http.StatusNotFound
	case apperr.Busy:
		status = http.StatusTooManyRequests
		c.Header("Retry-After", "1")
	case apperr.InconsistentState:
		status = http.StatusInternalServerError
	case apperr.StoreUnavailable:
		status = http.StatusServiceUnavailable
	}

	c.JSON(status, gin.H{
		"error": err.Error(),
		"kind":  apperr.KindOf(err).String(),
	})
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

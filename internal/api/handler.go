package api

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"dhaba-pos/internal/realtime"
	"dhaba-pos/internal/service"
	"dhaba-pos/internal/util"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

// Pinger is a dependency checked by the readiness probe
type Pinger interface {
	Ping(ctx context.Context) error
}

// Dependencies are the services and hubs the HTTP layer serves
type Dependencies struct {
	KOTs          *service.KOTService
	Billing       *service.BillingService
	Orders        *service.OrderService
	Catalog       *service.CatalogService
	Revenue       *service.RevenueService
	Inventory     *service.InventoryService
	KitchenHub    *realtime.Hub
	BackOfficeHub *realtime.Hub
	Checks        map[string]Pinger
}

// Handler contains HTTP handlers
type Handler struct {
	kots          *service.KOTService
	billing       *service.BillingService
	orders        *service.OrderService
	catalog       *service.CatalogService
	revenue       *service.RevenueService
	inventory     *service.InventoryService
	kitchenHub    *realtime.Hub
	backOfficeHub *realtime.Hub
	checks        map[string]Pinger
	logger        *zap.Logger
}

// NewHandler creates a new HTTP handler
func NewHandler(deps Dependencies) *Handler {
	useJSONFieldNames()
	return &Handler{
		kots:          deps.KOTs,
		billing:       deps.Billing,
		orders:        deps.Orders,
		catalog:       deps.Catalog,
		revenue:       deps.Revenue,
		inventory:     deps.Inventory,
		kitchenHub:    deps.KitchenHub,
		backOfficeHub: deps.BackOfficeHub,
		checks:        deps.Checks,
		logger:        util.Named("api"),
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

	if h.kitchenHub != nil {
		router.GET("/ws/kitchen", h.serveWS(h.kitchenHub))
	}
	if h.backOfficeHub != nil {
		router.GET("/ws/backoffice", h.serveWS(h.backOfficeHub))
	}

	v1 := router.Group("/api/v1")
	{
		v1.GET("/products", h.listProducts)
		v1.POST("/products", h.createProduct)
		v1.GET("/rooms", h.listRooms)
		v1.GET("/settings/company", h.getCompany)
		v1.PUT("/settings/company", h.updateCompany)

		v1.POST("/kot/add", h.createKOT)
		v1.GET("/kot", h.listKOTs)
		v1.PUT("/kot/:id/status", h.updateKOTStatus)
		v1.DELETE("/kot/:id", h.deleteKOT)
		v1.PUT("/kot/close/:tableId", h.closeTable)

		v1.POST("/bills/preview", h.previewBill)
		v1.POST("/bills/receipt", h.postBillReceipt)
		v1.GET("/bills/:tableId/receipt", h.billReceipt)
		v1.POST("/bills/finalize", h.finalizeBill)

		v1.GET("/orders", h.listOrders)
		v1.GET("/orders/deleted", h.deletedOrders)
		v1.GET("/orders/:id", h.getOrder)
		v1.GET("/orders/:id/receipt", h.orderReceipt)
		v1.DELETE("/orders/:id", h.deleteOrder)

		revenue := v1.Group("/revenue")
		{
			revenue.GET("/total", h.revenueTotal)
			revenue.GET("/daily", h.revenueDaily)
			revenue.GET("/payment-method", h.revenueByPaymentMethod)
			revenue.GET("/discounts", h.revenueDiscounts)
			revenue.GET("/taxes", h.revenueTaxes)
			revenue.GET("/taxes/payment-method", h.revenueTaxesByPaymentMethod)
			revenue.GET("/export", h.exportRevenue)
		}

		inventory := v1.Group("/inventory")
		{
			inventory.GET("", h.listInventory)
			inventory.POST("", h.createInventoryItem)
			inventory.GET("/summary", h.inventorySummary)
			inventory.PUT("/:id", h.updateInventoryItem)
			inventory.DELETE("/:id", h.deleteInventoryItem)
			inventory.POST("/usage", h.recordUsage)
			inventory.GET("/usage/:itemId", h.usageHistory)
			inventory.GET("/usage-statistics", h.usageStatistics)
		}
	}
}

// healthCheck handles health check requests
func (h *Handler) healthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "healthy",
		"time":   time.Now().Unix(),
	})
}

// readinessCheck pings every dependency
func (h *Handler) readinessCheck(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()

	status := http.StatusOK
	deps := gin.H{}
	for name, check := range h.checks {
		if err := check.Ping(ctx); err != nil {
			h.logger.Warn("Readiness check failed", zap.String("dependency", name), zap.Error(err))
			deps[name] = err.Error()
			status = http.StatusServiceUnavailable
			continue
		}
		deps[name] = "ok"
	}

	state := "ready"
	if status != http.StatusOK {
		state = "not ready"
	}
	c.JSON(status, gin.H{
		"status":       state,
		"dependencies": deps,
		"time":         time.Now().Unix(),
	})
}

func pathID(c *gin.Context, name string) (int64, bool) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || id < 1 {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Invalid " + name,
		})
		return 0, false
	}
	return id, true
}

func queryInt(c *gin.Context, name string, def int) (int, bool) {
	raw := c.Query(name)
	if raw == "" {
		return def, true
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid query parameter",
			"details": name + " must be a number",
		})
		return 0, false
	}
	return n, true
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

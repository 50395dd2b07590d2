package api

import (
	"bytes"
	"fmt"
	"net/http"
	"time"

	"dhaba-pos/internal/models"
	"dhaba-pos/internal/service"
	"dhaba-pos/internal/store"

	"github.com/gin-gonic/gin"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// listOrders handles GET /orders?search=&startDate=&endDate=&sort=asc&limit=&offset=
func (h *Handler) listOrders(c *gin.Context) {
	dates, err := service.ParseRevenueFilter(c.Query("startDate"), c.Query("endDate"), "")
	if err != nil {
		h.respondError(c, "Invalid order filter", err)
		return
	}
	limit, ok := queryInt(c, "limit", 100)
	if !ok {
		return
	}
	offset, ok := queryInt(c, "offset", 0)
	if !ok {
		return
	}

	orders, err := h.orders.ListOrders(c.Request.Context(), store.OrderFilter{
		Search:    c.Query("search"),
		StartDate: dates.StartDate,
		EndDate:   dates.EndDate,
		SortAsc:   c.Query("sort") == "asc",
		Limit:     limit,
		Offset:    offset,
	})
	if err != nil {
		h.respondError(c, "Failed to list orders", err)
		return
	}
	c.JSON(http.StatusOK, orders)
}

func (h *Handler) getOrder(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	order, err := h.orders.GetOrder(c.Request.Context(), id)
	if err != nil {
		h.respondError(c, "Order not found", err)
		return
	}
	c.JSON(http.StatusOK, order)
}

func (h *Handler) deleteOrder(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req service.DeleteOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	order, err := h.orders.DeleteOrder(c.Request.Context(), id, &req)
	if err != nil {
		h.respondError(c, "Failed to delete order", err)
		return
	}
	c.JSON(http.StatusOK, order)
}

func (h *Handler) deletedOrders(c *gin.Context) {
	limit, ok := queryInt(c, "limit", 100)
	if !ok {
		return
	}
	orders, err := h.orders.DeletedOrders(c.Request.Context(), limit)
	if err != nil {
		h.respondError(c, "Failed to list deleted orders", err)
		return
	}
	c.JSON(http.StatusOK, orders)
}

func (h *Handler) revenueFilter(c *gin.Context) (models.RevenueFilter, bool) {
	filter, err := service.ParseRevenueFilter(c.Query("startDate"), c.Query("endDate"), c.Query("paymentMethod"))
	if err != nil {
		h.respondError(c, "Invalid revenue filter", err)
		return filter, false
	}
	return filter, true
}

func (h *Handler) revenueTotal(c *gin.Context) {
	filter, ok := h.revenueFilter(c)
	if !ok {
		return
	}
	total, err := h.revenue.Total(c.Request.Context(), filter)
	if err != nil {
		h.respondError(c, "Failed to load revenue", err)
		return
	}
	c.JSON(http.StatusOK, total)
}

func (h *Handler) revenueDaily(c *gin.Context) {
	filter, ok := h.revenueFilter(c)
	if !ok {
		return
	}
	days, err := h.revenue.Daily(c.Request.Context(), filter)
	if err != nil {
		h.respondError(c, "Failed to load daily revenue", err)
		return
	}
	c.JSON(http.StatusOK, days)
}

func (h *Handler) revenueByPaymentMethod(c *gin.Context) {
	filter, ok := h.revenueFilter(c)
	if !ok {
		return
	}
	rows, err := h.revenue.ByPaymentMethod(c.Request.Context(), filter)
	if err != nil {
		h.respondError(c, "Failed to load revenue by payment method", err)
		return
	}
	c.JSON(http.StatusOK, rows)
}

func (h *Handler) revenueDiscounts(c *gin.Context) {
	filter, ok := h.revenueFilter(c)
	if !ok {
		return
	}
	rows, err := h.revenue.Discounts(c.Request.Context(), filter)
	if err != nil {
		h.respondError(c, "Failed to load discount summary", err)
		return
	}
	c.JSON(http.StatusOK, rows)
}

func (h *Handler) revenueTaxes(c *gin.Context) {
	filter, ok := h.revenueFilter(c)
	if !ok {
		return
	}
	rows, err := h.revenue.Taxes(c.Request.Context(), filter)
	if err != nil {
		h.respondError(c, "Failed to load tax summary", err)
		return
	}
	c.JSON(http.StatusOK, rows)
}

func (h *Handler) revenueTaxesByPaymentMethod(c *gin.Context) {
	filter, ok := h.revenueFilter(c)
	if !ok {
		return
	}
	rows, err := h.revenue.TaxesByPaymentMethod(c.Request.Context(), filter)
	if err != nil {
		h.respondError(c, "Failed to load tax summary", err)
		return
	}
	c.JSON(http.StatusOK, rows)
}

// exportRevenue handles GET /revenue/export and streams an XLSX workbook
func (h *Handler) exportRevenue(c *gin.Context) {
	filter, ok := h.revenueFilter(c)
	if !ok {
		return
	}

	var buf bytes.Buffer
	if err := h.revenue.ExportXLSX(c.Request.Context(), filter, &buf); err != nil {
		h.respondError(c, "Failed to export revenue", err)
		return
	}

	name := fmt.Sprintf("revenue-%s.xlsx", time.Now().Format("20060102"))
	c.Header("Content-Disposition", "attachment; filename="+name)
	c.Data(http.StatusOK, xlsxContentType, buf.Bytes())
}

func (h *Handler) listInventory(c *gin.Context) {
	items, err := h.inventory.ListItems(c.Request.Context(), store.InventoryFilter{
		Category: c.Query("category"),
		Search:   c.Query("search"),
		LowStock: c.Query("lowStock") == "true",
	})
	if err != nil {
		h.respondError(c, "Failed to list inventory", err)
		return
	}
	c.JSON(http.StatusOK, items)
}

func (h *Handler) inventorySummary(c *gin.Context) {
	summary, err := h.inventory.Summary(c.Request.Context())
	if err != nil {
		h.respondError(c, "Failed to load inventory summary", err)
		return
	}
	c.JSON(http.StatusOK, summary)
}

func (h *Handler) createInventoryItem(c *gin.Context) {
	var req service.InventoryItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}
	item, err := h.inventory.CreateItem(c.Request.Context(), &req)
	if err != nil {
		h.respondError(c, "Failed to create inventory item", err)
		return
	}
	c.JSON(http.StatusCreated, item)
}

func (h *Handler) updateInventoryItem(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req service.InventoryItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}
	item, err := h.inventory.UpdateItem(c.Request.Context(), id, &req)
	if err != nil {
		h.respondError(c, "Failed to update inventory item", err)
		return
	}
	c.JSON(http.StatusOK, item)
}

func (h *Handler) deleteInventoryItem(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	if err := h.inventory.DeleteItem(c.Request.Context(), id); err != nil {
		h.respondError(c, "Failed to delete inventory item", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"deleted": id})
}

func (h *Handler) recordUsage(c *gin.Context) {
	var req service.RecordUsageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}
	usage, item, err := h.inventory.RecordUsage(c.Request.Context(), &req)
	if err != nil {
		h.respondError(c, "Failed to record usage", err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{
		"usage":    usage,
		"item":     item,
		"lowStock": item.LowStock(),
	})
}

func (h *Handler) usageHistory(c *gin.Context) {
	itemID, ok := pathID(c, "itemId")
	if !ok {
		return
	}
	limit, ok := queryInt(c, "limit", 100)
	if !ok {
		return
	}
	usage, err := h.inventory.UsageHistory(c.Request.Context(), itemID, limit)
	if err != nil {
		h.respondError(c, "Failed to load usage history", err)
		return
	}
	c.JSON(http.StatusOK, usage)
}

func (h *Handler) usageStatistics(c *gin.Context) {
	stats, err := h.inventory.UsageStatistics(c.Request.Context(), c.Query("category"), c.Query("startDate"), c.Query("endDate"))
	if err != nil {
		h.respondError(c, "Failed to load usage statistics", err)
		return
	}
	c.JSON(http.StatusOK, stats)
}

package api

import (
	"net/http"
	"strconv"

	"dhaba-pos/internal/models"
	"dhaba-pos/internal/service"

	"github.com/gin-gonic/gin"
)

// UpdateKOTStatusRequest represents a kitchen status change
type UpdateKOTStatusRequest struct {
	Status models.KOTStatus `json:"status" binding:"required,oneof=pending preparing ready closed"`
}

func (h *Handler) listProducts(c *gin.Context) {
	products, err := h.catalog.Products(c.Request.Context())
	if err != nil {
		h.respondError(c, "Failed to list products", err)
		return
	}
	c.JSON(http.StatusOK, products)
}

func (h *Handler) createProduct(c *gin.Context) {
	var req service.CreateProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	product, err := h.catalog.CreateProduct(c.Request.Context(), &req)
	if err != nil {
		h.respondError(c, "Failed to create product", err)
		return
	}
	c.JSON(http.StatusCreated, product)
}

func (h *Handler) listRooms(c *gin.Context) {
	rooms, err := h.catalog.Rooms(c.Request.Context())
	if err != nil {
		h.respondError(c, "Failed to list rooms", err)
		return
	}
	c.JSON(http.StatusOK, rooms)
}

func (h *Handler) getCompany(c *gin.Context) {
	cfg, err := h.catalog.CompanyConfig(c.Request.Context())
	if err != nil {
		h.respondError(c, "Failed to load company settings", err)
		return
	}
	c.JSON(http.StatusOK, cfg)
}

func (h *Handler) updateCompany(c *gin.Context) {
	var req service.UpdateCompanyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	cfg, err := h.catalog.UpdateCompanyConfig(c.Request.Context(), &req)
	if err != nil {
		h.respondError(c, "Failed to update company settings", err)
		return
	}
	c.JSON(http.StatusOK, cfg)
}

// createKOT handles POST /kot/add
func (h *Handler) createKOT(c *gin.Context) {
	var req service.CreateKOTRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	kot, err := h.kots.CreateKOT(c.Request.Context(), &req)
	if err != nil {
		h.respondError(c, "Failed to create KOT", err)
		return
	}
	c.JSON(http.StatusCreated, kot)
}

// listKOTs handles GET /kot?tableId=&status=
func (h *Handler) listKOTs(c *gin.Context) {
	var tableID int64
	if raw := c.Query("tableId"); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{
				"error":   "Invalid query parameter",
				"details": "tableId must be a number",
			})
			return
		}
		tableID = id
	}

	kots, err := h.kots.ListKOTs(c.Request.Context(), tableID, c.Query("status"))
	if err != nil {
		h.respondError(c, "Failed to list KOTs", err)
		return
	}
	c.JSON(http.StatusOK, kots)
}

func (h *Handler) updateKOTStatus(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req UpdateKOTStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	kot, err := h.kots.UpdateStatus(c.Request.Context(), id, req.Status)
	if err != nil {
		h.respondError(c, "Failed to update KOT status", err)
		return
	}
	c.JSON(http.StatusOK, kot)
}

func (h *Handler) deleteKOT(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	if err := h.kots.DeleteKOT(c.Request.Context(), id); err != nil {
		h.respondError(c, "Failed to delete KOT", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"deleted": id})
}

// closeTable handles PUT /kot/close/:tableId
func (h *Handler) closeTable(c *gin.Context) {
	tableID, ok := pathID(c, "tableId")
	if !ok {
		return
	}
	ids, err := h.kots.CloseTable(c.Request.Context(), tableID)
	if err != nil {
		h.respondError(c, "Failed to close table", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"tableId":   tableID,
		"closedIds": ids,
		"closed":    len(ids),
	})
}

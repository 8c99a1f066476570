package handlers

import (
	"net/http"

	"github.com/Goro-naka/koepon-sub001/internal/middleware"
	"github.com/gin-gonic/gin"
)

type exchangeRequest struct {
	ItemID   uint `json:"item_id" binding:"required"`
	Quantity int  `json:"quantity" binding:"required,gt=0"`
}

// PostExchange redeems medals for an item.
func (h *Handlers) PostExchange(c *gin.Context) {
	var req exchangeRequest
	if err := c.BindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": gin.H{"code": "VALIDATION_ERROR", "message": err.Error()}})
		return
	}

	transaction, err := h.Exchanges.ExecuteExchange(middleware.UserID(c), req.ItemID, req.Quantity)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"transaction": transaction})
}

// GetExchangeHistory returns the caller's exchange transactions.
func (h *Handlers) GetExchangeHistory(c *gin.Context) {
	page := queryInt(c, "page", 1)
	perPage := queryInt(c, "per_page", 20)

	transactions, total, err := h.Exchanges.GetHistory(middleware.UserID(c), page, perPage)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"transactions": transactions,
		"pagination":   gin.H{"page": page, "per_page": perPage, "total": total},
	})
}

// GetInventory returns the caller's granted items.
func (h *Handlers) GetInventory(c *gin.Context) {
	grants, err := h.Exchanges.GetInventory(middleware.UserID(c))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"items": grants})
}

// ListItems returns the catalog entries currently open for exchange.
func (h *Handlers) ListItems(c *gin.Context) {
	items, err := h.Exchanges.ListItems()
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"items": items})
}

// GetItem returns one catalog entry.
func (h *Handlers) GetItem(c *gin.Context) {
	itemID, ok := paramUint(c, "id")
	if !ok {
		return
	}

	item, err := h.Exchanges.GetItem(itemID)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"item": item})
}

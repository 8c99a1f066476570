package handlers

import (
	"net/http"
	"time"

	"github.com/Goro-naka/koepon-sub001/internal/middleware"
	"github.com/Goro-naka/koepon-sub001/internal/models"
	"github.com/gin-gonic/gin"
)

type adjustBalanceRequest struct {
	UserID   uint   `json:"user_id" binding:"required"`
	IssuerID uint   `json:"issuer_id"`
	Amount   int64  `json:"amount" binding:"required"`
	Reason   string `json:"reason" binding:"required"`
}

// AdminAdjustBalance applies a signed, audited balance adjustment.
func (h *Handlers) AdminAdjustBalance(c *gin.Context) {
	var req adjustBalanceRequest
	if err := c.BindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": gin.H{"code": "VALIDATION_ERROR", "message": err.Error()}})
		return
	}

	entry, err := h.Admin.AdjustBalance(middleware.UserID(c), req.UserID, req.IssuerID, req.Amount, req.Reason)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"transaction": entry})
}

// AdminIntegrityCheck replays the ledger against stored balances,
// optionally for one user.
func (h *Handlers) AdminIntegrityCheck(c *gin.Context) {
	var userID *uint
	if id := queryUint(c, "user_id", 0); id != 0 {
		userID = &id
	}

	report, err := h.Admin.IntegrityCheck(userID)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"report": report})
}

type createItemRequest struct {
	IssuerID    uint      `json:"issuer_id" binding:"required"`
	Name        string    `json:"name" binding:"required"`
	Description string    `json:"description"`
	MedalCost   int64     `json:"medal_cost" binding:"required,gt=0"`
	TotalStock  int       `json:"total_stock" binding:"required,gt=0"`
	DailyLimit  int       `json:"daily_limit"`
	UserLimit   int       `json:"user_limit"`
	StartsAt    time.Time `json:"starts_at" binding:"required"`
	EndsAt      time.Time `json:"ends_at" binding:"required"`
}

// AdminCreateItem adds a new exchange item to the catalog.
func (h *Handlers) AdminCreateItem(c *gin.Context) {
	var req createItemRequest
	if err := c.BindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": gin.H{"code": "VALIDATION_ERROR", "message": err.Error()}})
		return
	}

	item := &models.ExchangeItem{
		IssuerID:    req.IssuerID,
		Name:        req.Name,
		Description: req.Description,
		MedalCost:   req.MedalCost,
		TotalStock:  req.TotalStock,
		DailyLimit:  req.DailyLimit,
		UserLimit:   req.UserLimit,
		StartsAt:    req.StartsAt,
		EndsAt:      req.EndsAt,
		IsActive:    true,
	}
	if err := h.Admin.CreateItem(item); err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"item": item})
}

// AdminDeactivateItem soft-deactivates a catalog entry.
func (h *Handlers) AdminDeactivateItem(c *gin.Context) {
	itemID, ok := paramUint(c, "id")
	if !ok {
		return
	}

	if err := h.Admin.DeactivateItem(itemID); err != nil {
		writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

type createGachaRequest struct {
	IssuerID uint   `json:"issuer_id" binding:"required"`
	Name     string `json:"name" binding:"required"`
}

// AdminCreateGacha adds a new gacha.
func (h *Handlers) AdminCreateGacha(c *gin.Context) {
	var req createGachaRequest
	if err := c.BindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": gin.H{"code": "VALIDATION_ERROR", "message": err.Error()}})
		return
	}

	gacha := &models.Gacha{IssuerID: req.IssuerID, Name: req.Name, IsActive: true}
	if err := h.Admin.CreateGacha(gacha); err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"gacha": gacha})
}

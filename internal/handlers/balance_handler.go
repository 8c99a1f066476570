package handlers

import (
	"net/http"

	"github.com/Goro-naka/koepon-sub001/internal/middleware"
	"github.com/Goro-naka/koepon-sub001/internal/models"
	"github.com/gin-gonic/gin"
)

// GetBalance returns the caller's medal balance for an issuer scope
// (the unattributed pool when issuer_id is omitted).
func (h *Handlers) GetBalance(c *gin.Context) {
	userID := middleware.UserID(c)
	issuerID := queryUint(c, "issuer_id", models.PoolIssuerID)

	balance, err := h.Ledger.GetBalance(userID, issuerID)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"user_id":   userID,
		"issuer_id": issuerID,
		"balance":   balance,
	})
}

type transferRequest struct {
	FromIssuerID uint   `json:"from_issuer_id"`
	ToIssuerID   uint   `json:"to_issuer_id"`
	Amount       int64  `json:"amount" binding:"required,gt=0"`
	Reason       string `json:"reason"`
}

// TransferBalance moves the caller's medals between the pool and an
// issuer scope.
func (h *Handlers) TransferBalance(c *gin.Context) {
	var req transferRequest
	if err := c.BindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": gin.H{"code": "VALIDATION_ERROR", "message": err.Error()}})
		return
	}

	entries, err := h.Ledger.TransferToIssuer(middleware.UserID(c), req.FromIssuerID, req.ToIssuerID, req.Amount, req.Reason)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"transactions": entries})
}

// GetLedgerHistory returns the caller's ledger entries, newest first.
func (h *Handlers) GetLedgerHistory(c *gin.Context) {
	page := queryInt(c, "page", 1)
	perPage := queryInt(c, "per_page", 20)

	entries, total, err := h.Ledger.GetHistory(middleware.UserID(c), page, perPage)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"transactions": entries,
		"pagination":   gin.H{"page": page, "per_page": perPage, "total": total},
	})
}

package handlers

import (
	"net/http"

	"github.com/Goro-naka/koepon-sub001/internal/middleware"
	"github.com/gin-gonic/gin"
)

type drawRequest struct {
	GachaID          uint   `json:"gacha_id" binding:"required"`
	Count            int    `json:"count" binding:"required,gt=0"`
	PaymentReference string `json:"payment_reference" binding:"required"`
}

// PostDraw settles a paid draw. Retrying with the same payment reference
// yields PAYMENT_ALREADY_USED; the result stays fetchable by reference.
func (h *Handlers) PostDraw(c *gin.Context) {
	var req drawRequest
	if err := c.BindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": gin.H{"code": "VALIDATION_ERROR", "message": err.Error()}})
		return
	}

	result, err := h.Draws.SettleDraw(c.Request.Context(), middleware.UserID(c), req.GachaID, req.Count, req.PaymentReference)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"draw_result": result})
}

// GetDrawByPaymentReference returns the draw result a payment settled.
func (h *Handlers) GetDrawByPaymentReference(c *gin.Context) {
	result, err := h.Draws.GetResultByPaymentReference(c.Param("paymentRef"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"draw_result": result})
}

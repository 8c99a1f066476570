package handlers

import (
	"net/http"

	"github.com/Goro-naka/koepon-sub001/internal/middleware"
	"github.com/gin-gonic/gin"
)

// RegisterRoutes wires the HTTP surface onto the gin engine.
func RegisterRoutes(r *gin.Engine, h *Handlers, jwtSecret string, limiter *middleware.RateLimiter) {
	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	v1 := r.Group("/api/v1")

	// Public catalog
	public := v1.Group("")
	public.Use(limiter.Middleware())
	public.GET("/items", h.ListItems)
	public.GET("/items/:id", h.GetItem)

	// The limiter runs after auth so the per-user window sees the
	// authenticated identity.
	authed := v1.Group("")
	authed.Use(middleware.RequireAuth(jwtSecret), limiter.Middleware())
	{
		authed.GET("/balance", h.GetBalance)
		authed.POST("/balance/transfer", h.TransferBalance)
		authed.GET("/balance/history", h.GetLedgerHistory)

		authed.POST("/exchanges", h.PostExchange)
		authed.GET("/exchanges", h.GetExchangeHistory)
		authed.GET("/inventory", h.GetInventory)

		authed.POST("/draws", h.PostDraw)
		authed.GET("/draws/:paymentRef", h.GetDrawByPaymentReference)
	}

	admin := v1.Group("/admin")
	admin.Use(middleware.RequireAuth(jwtSecret), middleware.RequireAdmin(), limiter.Middleware())
	{
		admin.POST("/balance-adjustments", h.AdminAdjustBalance)
		admin.GET("/integrity", h.AdminIntegrityCheck)
		admin.POST("/items", h.AdminCreateItem)
		admin.PATCH("/items/:id/deactivate", h.AdminDeactivateItem)
		admin.POST("/gachas", h.AdminCreateGacha)
	}
}

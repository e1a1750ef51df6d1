package api

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/movaapp/mova-backend/internal/api/handler"
	"github.com/movaapp/mova-backend/internal/api/middleware"
)

// setupRouter configures API routes and middleware for the application.
// CorrelationID runs before Logger so every request line carries the id.
func setupRouter(
	logger *slog.Logger,
	r *gin.Engine,
	purchaseHandler *handler.PurchaseHandler,
	walletHandler *handler.WalletHandler,
	transferHandler *handler.TransferHandler,
	settlementHandler *handler.SettlementHandler,
) {
	r.Use(middleware.Recovery(logger))
	r.Use(middleware.CorrelationID())
	r.Use(middleware.Logger(logger))
	r.Use(middleware.Metrics())

	// API v1 endpoints
	v1 := r.Group("/api/v1")
	{
		// VAS purchase operations. Both POST routes must share the :id
		// wildcard name because gin allows only one per segment; on Create
		// the wildcard carries the category.
		purchases := v1.Group("/purchases")
		{
			purchases.POST("/:id", purchaseHandler.Create)
			purchases.GET("/:id", purchaseHandler.GetByID)
			purchases.POST("/:id/requery", purchaseHandler.Requery)
		}

		// Wallet read operations
		wallets := v1.Group("/wallets")
		{
			wallets.GET("/:id", walletHandler.GetByID)
			wallets.GET("/:id/transactions", walletHandler.GetTransactions)
		}

		// Wallet-to-wallet transfers
		v1.POST("/transfers", transferHandler.Create)

		// Trip settlement operations
		trips := v1.Group("/trips")
		{
			trips.POST("/:id/settlement", settlementHandler.Compute)
			trips.GET("/:id/settlement", settlementHandler.Get)
			trips.POST("/:id/settlement/approve", settlementHandler.Approve)
		}
	}

	// Health check endpoint for monitoring
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "timestamp": time.Now().UTC()})
	})

	// Prometheus scrape endpoint
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))
}

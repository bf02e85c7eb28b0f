package api_gateway

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/smartbank-ledger/internal/api_gateway/handler"
	"github.com/smartbank-ledger/internal/api_gateway/middleware"
)

// setupRouter configures API routes and middleware for the application
func setupRouter(
	logger *slog.Logger,
	r *gin.Engine,
	accountHandler *handler.AccountHandler,
	transferHandler *handler.TransferHandler,
	transactionHandler *handler.TransactionHandler,
) {
	r.Use(middleware.Recovery(logger))
	r.Use(middleware.CorrelationID())
	r.Use(middleware.Logger(logger))

	// All v1 endpoints require an authenticated principal.
	v1 := r.Group("/api/v1")
	v1.Use(middleware.Identity())
	{
		// Account operations
		accounts := v1.Group("/accounts")
		{
			accounts.POST("", accountHandler.Open)
			accounts.GET("", accountHandler.List)
			accounts.GET("/:number", accountHandler.Get)
			accounts.GET("/:number/transactions", transactionHandler.ListByAccount)
		}

		// Money movement
		v1.POST("/transfers", transferHandler.Transfer)
		v1.POST("/deposits", transferHandler.Deposit)
		v1.POST("/withdrawals", transferHandler.Withdraw)

		// Audit trail queries
		v1.GET("/transactions/:id", transactionHandler.Get)

		// Back-office routes
		admin := v1.Group("/admin")
		admin.Use(middleware.RequireAdmin())
		{
			admin.GET("/owners/:owner_id/accounts", accountHandler.ListForOwner)
		}
	}

	// Health check endpoint for monitoring
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "timestamp": time.Now().UTC()})
	})
}

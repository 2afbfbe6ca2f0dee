package server

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"gorm.io/gorm"

	"lewa-workshop/config"
	billinghandler "lewa-workshop/internal/services/billing/handler"
	inventoryhandler "lewa-workshop/internal/services/inventory/handler"
	jobcardhandler "lewa-workshop/internal/services/jobcard/handler"
	userhandler "lewa-workshop/internal/services/user/handler"
	"lewa-workshop/internal/database/models"
	"lewa-workshop/internal/middleware"
	"lewa-workshop/internal/workshop"
)

// NewRouter wires the full HTTP surface. redisClient may be nil, which
// disables caching; everything else works the same.
func NewRouter(db *gorm.DB, redisClient *redis.Client, cfg config.Config) *gin.Engine {
	ws := workshop.New(db)
	secret := []byte(cfg.Auth.JWTSecret)
	tokenTTL := time.Duration(cfg.Auth.TokenTTL) * time.Hour

	jobCardHandler := jobcardhandler.NewJobCardHandler(db, ws, redisClient)
	inventoryHandler := inventoryhandler.NewInventoryHandler(db, ws, redisClient)
	userHandler := userhandler.NewUserHandler(db, secret, tokenTTL)
	billingHandler := billinghandler.NewBillingHandler(db)

	router := gin.New()
	router.Use(gin.Logger(), gin.Recovery())
	router.Use(middleware.CORS())
	router.Use(middleware.RateLimit(cfg.Server.RateLimit))

	router.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	v1 := router.Group("/api/v1")

	auth := v1.Group("/auth")
	{
		auth.POST("/register", userHandler.Register)
		auth.POST("/login", userHandler.Login)
	}

	protected := v1.Group("")
	protected.Use(middleware.JWTAuth(secret))

	advisorOrAdmin := middleware.RequireRole(models.RoleServiceAdvisor, models.RoleAdmin)
	partsOrAdmin := middleware.RequireRole(models.RolePartsManager, models.RoleAdmin)

	users := protected.Group("/users")
	{
		users.GET("/mechanics", userHandler.ListMechanics)
		users.GET("/:id", userHandler.GetUser)
	}

	vehicles := protected.Group("/vehicles")
	{
		vehicles.POST("", jobCardHandler.CreateVehicle)
		vehicles.GET("", jobCardHandler.ListVehicles)
		vehicles.GET("/:id", jobCardHandler.GetVehicle)
	}

	jobCards := protected.Group("/job-cards")
	{
		jobCards.POST("", advisorOrAdmin, jobCardHandler.CreateJobCard)
		jobCards.GET("", jobCardHandler.ListJobCards)
		jobCards.GET("/:id", jobCardHandler.GetJobCard)
		jobCards.POST("/:id/assign", advisorOrAdmin, jobCardHandler.AssignJobCard)
		jobCards.POST("/:id/assign-with-parts", advisorOrAdmin, jobCardHandler.AssignWithParts)
		jobCards.PATCH("/:id/status", jobCardHandler.UpdateStatus)
		jobCards.POST("/:id/complete", jobCardHandler.CompleteJobCard)
		jobCards.POST("/:id/invoice", advisorOrAdmin, jobCardHandler.GenerateInvoice)
		jobCards.POST("/:id/request-parts", middleware.RequireRole(models.RoleMechanic), jobCardHandler.RequestParts)
	}

	inventory := protected.Group("/inventory")
	{
		inventory.POST("", partsOrAdmin, inventoryHandler.CreateItem)
		inventory.GET("", inventoryHandler.ListItems)
		inventory.GET("/low-stock", inventoryHandler.ListLowStock)
		inventory.GET("/:id", inventoryHandler.GetItem)
		inventory.PATCH("/:id", partsOrAdmin, inventoryHandler.UpdateItem)
		inventory.POST("/:id/restock", partsOrAdmin, inventoryHandler.RestockItem)
	}

	partsRequests := protected.Group("/parts-requests")
	{
		partsRequests.GET("", inventoryHandler.ListPartsRequests)
		partsRequests.POST("/:id/decide", partsOrAdmin, inventoryHandler.DecidePartsRequest)
	}

	suppliers := protected.Group("/suppliers")
	{
		suppliers.POST("", partsOrAdmin, inventoryHandler.CreateSupplier)
		suppliers.GET("", inventoryHandler.ListSuppliers)
		suppliers.GET("/:id", inventoryHandler.GetSupplier)
	}

	purchaseOrders := protected.Group("/purchase-orders")
	{
		purchaseOrders.POST("", partsOrAdmin, inventoryHandler.CreatePurchaseOrder)
		purchaseOrders.GET("", inventoryHandler.ListPurchaseOrders)
		purchaseOrders.POST("/:id/receive", partsOrAdmin, inventoryHandler.ReceivePurchaseOrder)
	}

	invoices := protected.Group("/invoices")
	{
		invoices.GET("", billingHandler.ListInvoices)
		invoices.GET("/:id", billingHandler.GetInvoice)
	}

	reports := protected.Group("/reports")
	{
		reports.GET("/revenue", advisorOrAdmin, billingHandler.RevenueReport)
	}

	return router
}

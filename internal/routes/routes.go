package routes

import (
	"net/http"
	"time"

	"stock-ledger/internal/auth"
	"stock-ledger/internal/config"
	"stock-ledger/internal/handlers"
	"stock-ledger/internal/middleware"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// NewRouter builds the engine with the global middleware and every route.
func NewRouter(cfg *config.Config, log *zap.Logger) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger(log))

	r.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.AllowedOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization", middleware.RequestIDHeader},
		ExposeHeaders:    []string{"Content-Length", "Content-Disposition", middleware.RequestIDHeader},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	SetupRoutes(r, cfg)
	return r
}

// SetupRoutes registers the public and protected API.
func SetupRoutes(r *gin.Engine, cfg *config.Config) {
	r.GET("/health", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"status": "online"}) })
	r.POST("/login", handlers.Login)

	// --- FEATURE FLAG: Registration ---
	if cfg.AllowRegistration {
		r.POST("/register", handlers.Register)
		zap.L().Warn("registration route is OPEN, disable it in production")
	}

	// --- PROTECTED ROUTES ---
	api := r.Group("/api")
	api.Use(middleware.AuthMiddleware())
	{
		api.GET("/products", handlers.GetProducts)
		api.GET("/products/:id", handlers.GetProduct)
		api.POST("/products", handlers.AddProduct)
		api.PUT("/products/:id", handlers.UpdateProduct)

		api.GET("/purchases", handlers.GetPurchases)
		api.GET("/purchases/:id", handlers.GetPurchase)
		api.POST("/purchases", handlers.CreatePurchase)
		api.PUT("/purchases/:id", handlers.UpdatePurchase)
		api.PUT("/purchases/:id/items/:itemId", handlers.UpdatePurchaseItem)

		api.GET("/sales", handlers.GetSales)
		api.GET("/sales/:id", handlers.GetSale)
		api.POST("/sales", handlers.CreateSale)
		api.PUT("/sales/:id", handlers.UpdateSale)

		api.GET("/deliveries", handlers.GetDeliveries)
		api.PUT("/deliveries/:id", handlers.UpdateDelivery)

		api.GET("/outstanding", handlers.GetOutstanding)
		api.GET("/outstanding/export", handlers.ExportOutstanding)
		api.GET("/outstanding/stream", handlers.StreamOutstanding)

		api.GET("/bills", handlers.GetBills)
		api.POST("/bills", handlers.CreateBill)
		api.GET("/due-dates", handlers.GetDueDates)
		api.PUT("/due-dates/:id", handlers.UpdateDueDate)

		api.GET("/suppliers", handlers.GetSuppliers)
		api.POST("/suppliers", handlers.CreateSupplier)
		api.GET("/warehouses", handlers.GetWarehouses)
		api.POST("/warehouses", handlers.CreateWarehouse)

		// ADMIN ONLY
		admin := api.Group("/")
		admin.Use(middleware.RequireRole(auth.RoleAdmin))
		{
			admin.DELETE("/products/:id", handlers.DeleteProduct)
			admin.GET("/reports", handlers.GetSalesReport)
			admin.GET("/reports/valuation", handlers.GetStockValuation)
			admin.POST("/ask", handlers.AskAI(cfg.GeminiAPIKey))
		}
	}
}

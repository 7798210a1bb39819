package router

import (
	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"
	"layertext-backend/internal/config"
	"layertext-backend/internal/handlers"
	"layertext-backend/internal/middleware"
)

type Handlers struct {
	Health   *handlers.HealthHandler
	Credits  *handlers.CreditsHandler
	Uploads  *handlers.UploadHandler
	Process  *handlers.ProcessHandler
	Payments *handlers.PaymentsHandler
	Exports  *handlers.ExportsHandler
	Webhook  *handlers.WebhookHandler
}

func SetupRoutes(cfg *config.Config, h Handlers, logger *zap.Logger) *gin.Engine {
	router := gin.New()
	router.Use(middleware.RequestLogger(logger))
	router.Use(gin.Recovery())

	// Swagger documentation
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	// Health check (no auth)
	router.GET("/health", h.Health.Health)

	// Webhooks authenticate by signature, not JWT
	router.POST("/api/v1/webhooks/stripe", h.Webhook.HandleStripe)

	api := router.Group("/api/v1")
	api.Use(middleware.AuthMiddleware(cfg))

	// Credits
	api.GET("/credits", h.Credits.GetCredits)
	api.POST("/credits", h.Credits.AddCredits)
	api.GET("/credits/transactions", h.Credits.ListTransactions)

	// Uploads and processing
	api.POST("/uploads", h.Uploads.Upload)
	api.GET("/uploads", h.Uploads.ListUploads)
	api.GET("/uploads/:upload_id", h.Uploads.GetUpload)
	api.POST("/uploads/:upload_id/process", h.Process.Process)
	api.POST("/process", h.Process.Process)

	// Payments
	api.POST("/payments/checkout", h.Payments.CreateCheckout)
	api.GET("/payments", h.Payments.ListPayments)

	// Exports
	api.POST("/exports", h.Exports.CreateExport)
	api.GET("/exports", h.Exports.ListExports)
	api.GET("/exports/stats", h.Exports.GetStats)

	return router
}

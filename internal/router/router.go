package router

import (
	"github.com/gin-gonic/gin"

	"arkival/internal/config"
	"arkival/internal/handler"
	"arkival/internal/middleware"
	"arkival/internal/service"
)

// Setup configures the Gin engine with all routes and middleware.
func Setup(
	cfg *config.Config,
	authSvc service.AuthService,
	authH *handler.AuthHandler,
	collectionH *handler.CollectionHandler,
	assetH *handler.AssetHandler,
	ingestH *handler.IngestHandler,
	mediaH *handler.MediaHandler,
	healthH *handler.HealthHandler,
) *gin.Engine {
	r := gin.New()

	// Global middleware
	r.Use(middleware.Recovery())
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger())
	r.Use(middleware.CORS(cfg.CORS.AllowedOrigins))

	// Health checks
	r.GET("/healthz", healthH.Liveness)
	r.GET("/readyz", healthH.Readiness)

	v1 := r.Group("/api/v1")

	// Public auth routes
	auth := v1.Group("/auth")
	auth.POST("/token", authH.Login)

	// Protected routes - require valid JWT
	protected := v1.Group("")
	protected.Use(middleware.AuthMiddleware(authSvc))

	// Collection routes
	collections := protected.Group("/collections")
	collections.POST("", collectionH.Create)
	collections.GET("", collectionH.List)
	collections.GET("/:id", collectionH.GetByID)
	collections.PUT("/:id/schema", collectionH.UpdateSchema)
	collections.DELETE("/:id", collectionH.Delete)
	collections.GET("/:id/assets", assetH.ListByCollection)

	// Asset routes
	assets := protected.Group("/assets")
	assets.GET("/:id", assetH.GetByID)
	assets.PUT("/:id/metadata", assetH.UpdateMetadata)
	assets.POST("/delete", assetH.Delete)
	assets.POST("/move", assetH.Move)
	assets.POST("/validate-move", assetH.ValidateMove)

	// Ingest session routes
	ingest := protected.Group("/ingest")
	ingest.POST("", ingestH.Start)
	ingest.GET("", ingestH.List)
	ingest.GET("/:id", ingestH.GetByID)
	ingest.GET("/:id/assets", ingestH.ListAssets)
	ingest.PUT("/:id/assets/:importId", ingestH.UpdateMetadata)
	ingest.POST("/:id/commit", ingestH.Commit)
	ingest.POST("/:id/cancel", ingestH.Cancel)

	// Media routes
	media := protected.Group("/media")
	media.GET("/:id", mediaH.GetByID)

	return r
}

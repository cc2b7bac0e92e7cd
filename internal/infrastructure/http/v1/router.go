// Package v1 provides HTTP API version 1.
package v1

import (
	"github.com/gin-gonic/gin"

	"railload/internal/core/security"
	"railload/internal/domain/catalogs/customer"
	"railload/internal/domain/catalogs/material"
	"railload/internal/domain/documents/bol"
	"railload/internal/domain/inventory"
	"railload/internal/domain/railcars"
	"railload/internal/infrastructure/http/v1/handlers"
	"railload/internal/infrastructure/http/v1/middleware"
	"railload/internal/infrastructure/storage/postgres"
	"railload/internal/infrastructure/storage/postgres/catalog_repo"
	"railload/internal/infrastructure/storage/postgres/document_repo"
	"railload/internal/infrastructure/storage/postgres/inventory_repo"
	"railload/pkg/logger"
	"railload/pkg/numerator"
)

// RouterConfig holds router dependencies.
type RouterConfig struct {
	Pool      *postgres.Pool
	TxManager *postgres.TxManager

	Logger *logger.Logger

	// TokenValidator for bearer token validation
	TokenValidator middleware.TokenValidator

	// Flags gates release conversion and completion audit
	Flags security.FeatureFlagProvider

	// Numerator for document and catalog number generation
	Numerator *numerator.Service

	// Auditor stores completion snapshots; nil disables them entirely
	Auditor bol.CompletionAuditor
}

// NewRouter creates and configures the Gin router.
func NewRouter(cfg RouterConfig) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	router := gin.New()

	// Global middleware (order matters)
	router.Use(middleware.Recovery())
	router.Use(middleware.RequestID())
	router.Use(middleware.Logger(cfg.Logger))
	router.Use(middleware.ErrorHandler())

	// Health endpoints (no auth)
	healthHandler := handlers.NewHealthHandler(cfg.Pool)
	health := router.Group("/health")
	{
		health.GET("/live", healthHandler.Live)
		health.GET("/ready", healthHandler.Ready)
		health.GET("/info", healthHandler.Info)
	}

	// Domain wiring. Repos and services are created once; the TxManager is
	// shared so nested service calls join the caller's transaction.
	customerRepo := catalog_repo.NewCustomerRepo(cfg.TxManager)
	customerService := customer.NewService(customerRepo, cfg.TxManager, cfg.Numerator)

	materialRepo := catalog_repo.NewMaterialRepo(cfg.TxManager)
	materialService := material.NewService(materialRepo, cfg.TxManager, cfg.Numerator)

	lotRepo := inventory_repo.NewLotRepo(cfg.TxManager)
	ledger := inventory.NewLedger(lotRepo, cfg.Numerator, cfg.TxManager)
	converter := inventory.NewConverter(lotRepo, cfg.Numerator, cfg.TxManager)

	railcarRepo := catalog_repo.NewRailcarRepo(cfg.TxManager)
	railcarService := railcars.NewService(
		railcarRepo, customerService, converter, cfg.Flags, cfg.TxManager, cfg.Numerator)

	bolRepo := document_repo.NewBolRepo(cfg.TxManager)
	orderRepo := document_repo.NewOrderRepo(cfg.TxManager)
	bolService := bol.NewService(
		bolRepo, orderRepo, ledger, railcarService, cfg.Auditor,
		cfg.Flags, cfg.Numerator, cfg.TxManager)

	baseHandler := handlers.NewBaseHandler()

	// API v1, JWT-protected
	api := router.Group("/api/v1")
	api.Use(middleware.Auth(cfg.TokenValidator))
	{
		customerHandler := handlers.NewCustomerHandler(baseHandler, customerService)
		registerCatalogRoutes(api.Group("/customers"), customerHandler)

		materialHandler := handlers.NewMaterialHandler(baseHandler, materialService)
		registerCatalogRoutes(api.Group("/materials"), materialHandler)

		railcarHandler := handlers.NewRailcarHandler(baseHandler, railcarService)
		railcarGroup := api.Group("/railcars")
		railcarGroup.GET("/shipment-lookup", railcarHandler.ShipmentLookup)
		registerCatalogRoutes(railcarGroup, railcarHandler)
		railcarGroup.POST("/:id/release", railcarHandler.Release)

		lotHandler := handlers.NewLotHandler(baseHandler, ledger)
		lotGroup := api.Group("/lots")
		{
			lotGroup.GET("", lotHandler.List)
			lotGroup.POST("", lotHandler.Create)
			lotGroup.GET("/:id", lotHandler.Get)
			lotGroup.PATCH("/:id", lotHandler.Adjust)
			lotGroup.GET("/:id/allocations", lotHandler.Allocations)
			lotGroup.POST("/:id/archive", lotHandler.Archive)
			lotGroup.DELETE("/:id", lotHandler.Delete)
		}

		bolHandler := handlers.NewBolHandler(baseHandler, bolService)
		bolGroup := api.Group("/bols")
		{
			bolGroup.GET("", bolHandler.List)
			bolGroup.POST("", bolHandler.Create)
			bolGroup.GET("/:id", bolHandler.Get)
			bolGroup.PUT("/:id", bolHandler.Update)
			bolGroup.POST("/:id/complete", bolHandler.Complete)
			bolGroup.DELETE("/:id", bolHandler.Delete)
		}
	}

	return router
}

// catalogRouteHandler is the CRUD surface shared by catalog handlers.
type catalogRouteHandler interface {
	List(c *gin.Context)
	Create(c *gin.Context)
	Get(c *gin.Context)
	Update(c *gin.Context)
	Delete(c *gin.Context)
}

// registerCatalogRoutes registers standard CRUD routes for a catalog.
func registerCatalogRoutes(group *gin.RouterGroup, handler catalogRouteHandler) {
	group.GET("", handler.List)
	group.POST("", handler.Create)
	group.GET("/:id", handler.Get)
	group.PUT("/:id", handler.Update)
	group.DELETE("/:id", handler.Delete)
}

package api

import (
	"context"

	"github.com/gin-gonic/gin"
	"github.com/timmy/applytrack/internal/api/handler"
	"github.com/timmy/applytrack/internal/api/middleware"
	"github.com/timmy/applytrack/internal/config"
	"github.com/timmy/applytrack/internal/logger"
	"github.com/timmy/applytrack/internal/service"
)

// Services bundles what the HTTP layer calls into.
type Services struct {
	Applications *service.ApplicationService
	Analytics    *service.AnalyticsService
	Imports      *service.ImportService
	Catalog      *service.StatusCatalogService
	// Ping checks the database for /health; may be nil.
	Ping func(ctx context.Context) error
}

// RouterConfig holds the HTTP settings of the router.
type RouterConfig struct {
	Mode          string
	CORS          config.CORSConfig
	ActivityLimit int
}

// SetupRouter configures the Gin router with all routes
func SetupRouter(svc *Services, log *logger.Logger, cfg RouterConfig) *gin.Engine {
	switch cfg.Mode {
	case "release":
		gin.SetMode(gin.ReleaseMode)
	case "test":
		gin.SetMode(gin.TestMode)
	default:
		gin.SetMode(gin.DebugMode)
	}

	r := gin.New()

	r.Use(gin.Recovery())
	r.Use(middleware.LoggerMiddleware(log))
	r.Use(middleware.CORS(cfg.CORS))

	healthHandler := handler.NewHealthHandler(svc.Ping)
	applicationHandler := handler.NewApplicationHandler(svc.Applications, cfg.ActivityLimit)
	analyticsHandler := handler.NewAnalyticsHandler(svc.Analytics)
	importHandler := handler.NewImportHandler(svc.Imports)
	statusHandler := handler.NewStatusHandler(svc.Catalog)

	r.GET("/health", healthHandler.Health)

	v1 := r.Group("/api/v1")
	{
		// Applications
		v1.POST("/applications", applicationHandler.Create)
		v1.GET("/applications", applicationHandler.List)
		v1.GET("/applications/:id", applicationHandler.Get)
		v1.PATCH("/applications/:id", applicationHandler.Update)
		v1.DELETE("/applications/:id", applicationHandler.Delete)
		v1.GET("/applications/:id/history", applicationHandler.History)

		// Activity feed
		v1.GET("/history", applicationHandler.Activity)

		// Analytics
		v1.GET("/stats", analyticsHandler.Stats)
		v1.GET("/analytics", analyticsHandler.TimeSeries)

		// Import
		v1.POST("/import", importHandler.ImportRecords)
		v1.POST("/import/sheet", importHandler.ImportSheet)
		v1.GET("/imports", importHandler.ListJobs)

		// Status catalog
		v1.GET("/statuses", statusHandler.List)
		v1.POST("/statuses", statusHandler.Add)
		v1.GET("/statuses/usage", statusHandler.Usage)
		v1.POST("/statuses/reset", statusHandler.Reset)
		v1.POST("/statuses/migrate", statusHandler.Migrate)
		v1.DELETE("/statuses/:label", statusHandler.Remove)
	}

	return r
}

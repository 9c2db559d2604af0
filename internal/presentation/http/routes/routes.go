// Package routes provides HTTP route configuration for the presentation layer.
package routes

import (
	"github.com/gin-gonic/gin"

	"github.com/magnetiq/magnetiq-go/internal/application/container"
	"github.com/magnetiq/magnetiq-go/internal/presentation/http/handlers"
	"github.com/magnetiq/magnetiq-go/internal/presentation/http/middleware"
)

// SetupRoutes configures all HTTP routes and middleware with dependency injection.
func SetupRoutes(container *container.Container) *gin.Engine {
	r := gin.Default()

	r.Use(middleware.CORSMiddleware())

	// Initialize handlers
	captureHandlers := handlers.NewCaptureHandlers(container.CaptureService, container.SessionService, container.Logger, container.PerfTracker)
	downloadHandlers := handlers.NewDownloadHandlers(container.LinkService, container.Logger)
	whitepaperHandlers := handlers.NewWhitepaperHandlers(container.WhitepaperService, container.Logger, container.PerfTracker)
	adminHandlers := handlers.NewAdminHandlers(
		container.AuthService,
		container.SweepService,
		container.LinkService,
		container.ExportService,
		container.DownloadRepository,
		container.Logger,
		container.PerfTracker,
	)
	healthHandlers := handlers.NewHealthHandlers(container.DB)

	// Public download redirect; all failures share one generic 404
	r.GET("/downloads/:token", downloadHandlers.ResolveLink)

	api := r.Group("/api/v1")
	{
		api.GET("/health", healthHandlers.Health)

		api.GET("/whitepapers", whitepaperHandlers.ListWhitepapers)
		api.GET("/whitepapers/:id", whitepaperHandlers.GetWhitepaper)
		api.POST("/whitepapers/:id/download", captureHandlers.SubmitDownload)

		session := api.Group("/session")
		session.Use(middleware.SessionAuthMiddleware())
		{
			session.GET("", captureHandlers.GetSession)
		}

		admin := api.Group("/admin")
		{
			admin.POST("/login", adminHandlers.Login)

			authed := admin.Group("")
			authed.Use(middleware.AdminAuthMiddleware())
			{
				authed.POST("/sweep", adminHandlers.TriggerSweep)
				authed.POST("/links/:token/revoke", adminHandlers.RevokeLink)
				authed.GET("/downloads", adminHandlers.ListDownloads)
				authed.POST("/downloads/:id/export", adminHandlers.RetryExport)
				authed.POST("/whitepapers", whitepaperHandlers.CreateWhitepaper)
				authed.GET("/db/status", healthHandlers.DBStatus)
				authed.GET("/performance", adminHandlers.GetPerformanceStats)
				authed.GET("/log-levels", adminHandlers.GetLogLevels)
				authed.PUT("/log-levels", adminHandlers.SetLogLevel)
			}
		}
	}

	return r
}

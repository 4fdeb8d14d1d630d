package handlers

import "github.com/labstack/echo/v4"

// Register はすべてのルートを登録
func Register(e *echo.Echo, jobs *JobHandler, health *HealthHandler) {
	e.GET("/", Home)
	e.GET("/health", health.Health)
	e.GET("/jobs", jobs.ListPage)

	api := e.Group("/api/jobs")
	api.POST("", jobs.Submit)
	api.GET("", jobs.List)
	api.GET("/stats", jobs.Stats)
	api.GET("/export.xlsx", jobs.Export)
	api.GET("/:id", jobs.Get)
	api.POST("/:id/cancel", jobs.Cancel)
	api.GET("/:id/events", jobs.Events)
	api.GET("/:id/download", jobs.Download)
}

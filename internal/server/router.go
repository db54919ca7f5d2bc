package server

import (
	"github.com/gin-gonic/gin"
)

// RegisterRoutes registers all routes of the platform API.
func RegisterRoutes(router *gin.Engine, api *API) {
	router.Use(RequestLogger(api.logger))

	router.GET("/healthz", api.HealthHandler)

	v1 := router.Group("/api/v1")
	{
		v1.POST("/sync", api.SyncHandler)
		v1.GET("/tasks", api.TasksHandler)
		v1.GET("/projects/:project_id/stats", api.ProjectStatsHandler)
		v1.GET("/artifacts/:id", api.ArtifactHandler)

		chat := v1.Group("/chat")
		{
			chat.POST("/query", api.QueryHandler)
			chat.DELETE("/history/:session_id", api.ClearHistoryHandler)
		}
	}
}

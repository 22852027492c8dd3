package routes

import (
	"geotrek_core/internal/controllers"

	"github.com/gin-gonic/gin"
)

func PathRoutes(r *gin.Engine) {
	paths := r.Group("/paths")
	{
		paths.POST("", controllers.CreatePath)
		paths.GET("", controllers.ListPaths)
		paths.POST("/merge", controllers.MergePaths)
		paths.POST("/locate", controllers.LocatePoint)
		paths.GET("/:id", controllers.GetPath)
		paths.PUT("/:id", controllers.UpdatePath) // geometry changes cascade to topologies
		paths.DELETE("/:id", controllers.DeletePath)
		paths.POST("/:id/split", controllers.SplitPath)
	}
}

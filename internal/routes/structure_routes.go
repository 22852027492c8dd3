package routes

import (
	"geotrek_core/internal/controllers"

	"github.com/gin-gonic/gin"
)

func StructureRoutes(r *gin.Engine) {
	structures := r.Group("/structures")
	{
		structures.POST("", controllers.CreateStructure)
		structures.GET("", controllers.ListStructures)
	}
}

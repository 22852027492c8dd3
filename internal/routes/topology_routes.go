package routes

import (
	"geotrek_core/internal/controllers"

	"github.com/gin-gonic/gin"
)

func TopologyRoutes(r *gin.Engine) {
	topologies := r.Group("/topologies")
	{
		topologies.POST("", controllers.CreateTopology)
		topologies.GET("/:id", controllers.GetTopology)
		topologies.DELETE("/:id", controllers.DeleteTopology)
	}
}

package routes

import (
	"geotrek_core/internal/controllers"

	"github.com/gin-gonic/gin"
)

func WebSocketRoutes(r *gin.Engine) {
	wsRoutes := r.Group("/ws")
	{
		wsRoutes.GET("/cascade", controllers.HandleCascadeWebSocket)
	}
}

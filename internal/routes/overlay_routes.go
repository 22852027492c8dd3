package routes

import (
	"geotrek_core/internal/controllers"

	"github.com/gin-gonic/gin"
)

func OverlayRoutes(r *gin.Engine) {
	treks := r.Group("/treks")
	{
		treks.POST("", controllers.CreateTrek)
		treks.GET("", controllers.ListTreks)
		treks.GET("/:id", controllers.GetTrek)
	}

	interventions := r.Group("/interventions")
	{
		interventions.POST("", controllers.CreateIntervention)
		interventions.GET("", controllers.ListInterventions)
		interventions.GET("/:id", controllers.GetIntervention)
	}

	pois := r.Group("/pois")
	{
		pois.POST("", controllers.CreatePOI)
		pois.GET("", controllers.ListPOIs)
		pois.GET("/:id", controllers.GetPOI)
	}

	landEdges := r.Group("/land-edges")
	{
		landEdges.POST("", controllers.CreateLandEdge)
		landEdges.GET("", controllers.ListLandEdges)
		landEdges.GET("/:id", controllers.GetLandEdge)
	}
}

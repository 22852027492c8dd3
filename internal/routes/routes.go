package routes

import (
	"geotrek_core/internal/controllers"
	"geotrek_core/internal/middleware"

	ginlog "github.com/gin-contrib/logger"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// SetupRouter builds the engine with every route group. Requests are
// logged through logrus; /healthz is left out of the access log.
func SetupRouter() *gin.Engine {
	r := gin.New()
	r.Use(
		middleware.CORS(),
		ginlog.SetLogger(
			ginlog.WithWriter(logrus.StandardLogger().Writer()),
			ginlog.WithSkipPath([]string{"/healthz"}),
		),
		gin.Recovery(),
		middleware.StructureScope(),
	)

	r.GET("/healthz", controllers.Health)
	StructureRoutes(r)
	PathRoutes(r)
	TopologyRoutes(r)
	OverlayRoutes(r)
	WebSocketRoutes(r)

	return r
}

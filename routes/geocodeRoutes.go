package routes

import (
	"issuex/controllers"

	"github.com/gin-gonic/gin"
)

// GeocodeRoutes sets up the geocoding proxy routes
func GeocodeRoutes(r *gin.Engine) {
	geocode := r.Group("/api/geocode")
	{
		geocode.GET("/reverse", controllers.ReverseGeocode)
		geocode.GET("/forward", controllers.ForwardGeocode)
	}
}

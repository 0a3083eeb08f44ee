package http

import (
	"github.com/gin-gonic/gin"
)

// RegisterRoutes registers car and driver routes. Everyone signed in may
// read the fleet; only admins change it.
func RegisterRoutes(g *gin.RouterGroup, h *Handler, authMiddleware, adminMiddleware gin.HandlerFunc) {
	cars := g.Group("/cars")
	cars.Use(authMiddleware)
	{
		cars.GET("", h.ListCars)
		cars.GET("/:id", h.GetCar)
		cars.POST("", adminMiddleware, h.CreateCar)
		cars.PATCH("/:id", adminMiddleware, h.UpdateCar)
		cars.DELETE("/:id", adminMiddleware, h.DeleteCar)
	}

	drivers := g.Group("/drivers")
	drivers.Use(authMiddleware)
	{
		drivers.GET("", h.ListDrivers)
		drivers.GET("/:id", h.GetDriver)
		drivers.POST("", adminMiddleware, h.CreateDriver)
		drivers.PATCH("/:id", adminMiddleware, h.UpdateDriver)
		drivers.DELETE("/:id", adminMiddleware, h.DeleteDriver)
	}
}

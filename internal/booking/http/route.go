package http

import (
	"github.com/gin-gonic/gin"
)

func RegisterRoutes(g *gin.RouterGroup, h *Handler, authMiddleware, adminMiddleware gin.HandlerFunc) {
	group := g.Group("/bookings")

	// === Authenticated Routes ===
	group.Use(authMiddleware)
	{
		group.GET("", h.List)
		group.POST("", h.Create)
		group.POST("/availability", h.Availability)
		group.GET("/:id", h.Get)
		group.PATCH("/:id/status", h.UpdateStatus)
		group.POST("/:id/extend", h.Extend)
	}

	// === Admin Routes ===
	admin := group.Group("", adminMiddleware)
	{
		admin.POST("/maintenance", h.CreateMaintenance)
		admin.PATCH("/:id/expense", h.UpdateExpense)
		admin.DELETE("/:id", h.Delete)
	}
}

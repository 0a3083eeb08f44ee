package http

import "github.com/gin-gonic/gin"

func RegisterRoutes(g *gin.RouterGroup, h *Handler, authMiddleware gin.HandlerFunc) {
	// Called by the LINE platform; authenticated by signature.
	g.POST("/line/webhook", h.Webhook)

	g.POST("/me/line-token", authMiddleware, h.IssueToken)
}

package api

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// SetupRouter builds the gin engine with middleware and routes.
// templatesGlob selects the HTML templates for the page routes; when empty
// (tests), only the JSON API is mounted.
func SetupRouter(h *Handler, logger *zap.Logger, templatesGlob string) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), RequestLogger(logger), CORS())

	if templatesGlob != "" {
		r.LoadHTMLGlob(templatesGlob)
		r.Static("/static", "web/static")
		r.GET("/", h.Home)
		r.GET("/chat", h.ChatPage)
	}

	api := r.Group("/api")
	api.POST("/chat", h.HandleChat)
	api.GET("/conversations", h.GetConversations)
	api.DELETE("/conversations", h.ClearConversations)

	return r
}

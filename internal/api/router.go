package api

import (
	"whatsapp-salesbot/internal/analytics"
	"whatsapp-salesbot/internal/database"
	"whatsapp-salesbot/internal/script"
	"whatsapp-salesbot/internal/ws"

	"github.com/gin-gonic/gin"
)

// NewRouter assembles the read-mostly dashboard API. Writes are limited to
// operator script training; conversation state is only mutated by the bot loop.
func NewRouter(store *database.Store, rulebook *script.Rulebook, reporter *analytics.Reporter, hub *ws.Hub) *gin.Engine {
	router := gin.Default()

	router.Use(corsMiddleware())

	analyticsHandler := NewAnalyticsHandler(reporter)
	contactHandler := NewContactHandler(store)
	scriptHandler := NewScriptHandler(rulebook)

	apiGroup := router.Group("/api")
	{
		apiGroup.GET("/analytics/contacts", analyticsHandler.GetContacts)
		apiGroup.GET("/analytics/scripts", analyticsHandler.GetScripts)
		apiGroup.GET("/contacts", contactHandler.GetContacts)
		apiGroup.GET("/messages", contactHandler.GetMessages)
		apiGroup.POST("/scripts", scriptHandler.TrainScript)
	}

	router.GET("/ws", func(c *gin.Context) {
		hub.ServeWs(c.Writer, c.Request)
	})

	router.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	return router
}

func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Origin, Content-Type, Accept")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}

		c.Next()
	}
}

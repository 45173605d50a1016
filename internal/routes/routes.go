package routes

import (
	"net/http"

	"curaconnect_backend/internal/handlers"
	"curaconnect_backend/internal/logger"
	"curaconnect_backend/ws"

	"github.com/gin-gonic/gin"
)

// RegisterRoutes регистрирует все HTTP и WebSocket маршруты.
func RegisterRoutes(
	ginRouter *gin.Engine,
	appHandlers *handlers.AppHandlers,
	wsHandler *ws.WebSocketHandler,
	authMW gin.HandlerFunc,
) {
	ginRouter.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	api := ginRouter.Group("/api/v1")
	{
		appHandlers.ConnectionHandler.RegisterRoutes(api, authMW)
		appHandlers.FollowHandler.RegisterRoutes(api, authMW)
		appHandlers.MeetingHandler.RegisterRoutes(api, authMW)
		appHandlers.NotificationHandler.RegisterRoutes(api, authMW)
		appHandlers.AdminHandler.RegisterRoutes(api, authMW)
	}

	if wsHandler != nil {
		wsGroup := ginRouter.Group("/ws")
		wsGroup.Use(authMW)
		{
			wsGroup.GET("", wsHandler.ServeWS)
		}
		logger.Info("WebSocket route /ws registered")
	}
}

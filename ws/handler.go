package ws

import (
	"context"
	"net/http"

	"curaconnect_backend/internal/logger"
	"curaconnect_backend/internal/middleware"
	"curaconnect_backend/pkg/apperrors"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

type WebSocketHandler struct {
	Manager  *WebSocketManager
	upgrader websocket.Upgrader
}

// NewWebSocketHandler - allowedOrigins те же, что у CORS; запрос без Origin пропускается
func NewWebSocketHandler(manager *WebSocketManager, allowedOrigins []string) *WebSocketHandler {
	origins := make(map[string]struct{}, len(allowedOrigins))
	for _, o := range allowedOrigins {
		origins[o] = struct{}{}
	}

	return &WebSocketHandler{
		Manager: manager,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				origin := r.Header.Get("Origin")
				if origin == "" {
					return true
				}
				_, ok := origins[origin]
				return ok
			},
		},
	}
}

// ServeWS - пользователь берется из AuthMiddleware
func (h *WebSocketHandler) ServeWS(c *gin.Context) {
	userID := middleware.GetUserID(c)
	if userID == "" {
		apperrors.HandleError(c, apperrors.ErrAuthenticationRequired)
		return
	}

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		logger.CtxWarn(c.Request.Context(), "WebSocket upgrade error", "error", err)
		return
	}

	// Контекст запроса закончится вместе с хендлером, клиенту нужен свой
	ctx := logger.WithUserID(context.Background(), userID)
	ctx = logger.WithRequestID(ctx, logger.GetRequestID(c.Request.Context()))

	client := &Client{
		UserID:  userID,
		Conn:    conn,
		Send:    make(chan any, sendBufferSize),
		Ctx:     ctx,
		Manager: h.Manager,
	}

	if !h.Manager.Register(client) {
		conn.Close()
		return
	}
	logger.CtxInfo(ctx, "WebSocket client connected")

	go client.writePump()
	go client.readPump()
}

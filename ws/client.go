package ws

import (
	"context"
	"encoding/json"
	"time"

	"curaconnect_backend/internal/logger"
	"curaconnect_backend/pkg/apperrors"

	"github.com/gorilla/websocket"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 4096
	sendBufferSize = 64
)

type IncomingWSMessage struct {
	Action string          `json:"action"`
	Data   json.RawMessage `json:"data"`
}

type Client struct {
	UserID string
	Conn   *websocket.Conn
	Send   chan any
	Ctx    context.Context

	Manager *WebSocketManager
}

func (c *Client) readPump() {
	defer func() {
		c.Manager.Unregister(c)
		c.Conn.Close()
	}()

	c.Conn.SetReadLimit(maxMessageSize)
	_ = c.Conn.SetReadDeadline(time.Now().Add(pongWait))
	c.Conn.SetPongHandler(func(string) error {
		return c.Conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, msgBytes, err := c.Conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				logger.CtxWarn(c.Ctx, "WebSocket read error", "error", err)
			}
			return
		}

		var msg IncomingWSMessage
		if err := json.Unmarshal(msgBytes, &msg); err != nil {
			c.reply(OutgoingWSMessage{Event: EventError, Data: "invalid message format"})
			continue
		}

		c.handleMessage(msg)
	}
}

func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.Conn.Close()
	}()

	for {
		select {
		case msg, ok := <-c.Send:
			_ = c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.Conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.Conn.WriteJSON(msg); err != nil {
				logger.CtxWarn(c.Ctx, "WebSocket write error", "error", err)
				return
			}

		case <-ticker.C:
			_ = c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.Conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// handleMessage - действия клиента: ping и mark_read
func (c *Client) handleMessage(msg IncomingWSMessage) {
	switch msg.Action {
	case "ping":
		c.reply(OutgoingWSMessage{Event: EventPong})

	case "mark_read":
		var payload struct {
			NotificationID string `json:"notificationId"`
		}
		if err := json.Unmarshal(msg.Data, &payload); err != nil || payload.NotificationID == "" {
			c.reply(OutgoingWSMessage{Event: EventError, Data: "mark_read requires notificationId"})
			return
		}

		db := c.Manager.db.WithContext(c.Ctx)
		updated, err := c.Manager.notificationService.MarkAsRead(db, c.UserID, payload.NotificationID)
		if err != nil {
			message := "failed to mark notification as read"
			if appErr, ok := apperrors.AsAppError(err); ok && appErr.HTTPCode < 500 {
				message = appErr.Message
			}
			c.reply(OutgoingWSMessage{Event: EventError, Data: message})
			return
		}

		unread, err := c.Manager.notificationService.GetUnreadCount(db, c.UserID)
		if err != nil {
			logger.CtxWithError(c.Ctx, "Failed to load unread count", err)
			return
		}
		// Остальные вкладки пользователя тоже обновляют счетчик
		c.Manager.SendToUser(c.UserID, OutgoingWSMessage{
			Event: EventReadUpdated,
			Data: map[string]any{
				"notificationId": payload.NotificationID,
				"updated":        updated,
				"unreadCount":    unread,
			},
		})

	default:
		c.reply(OutgoingWSMessage{Event: EventError, Data: "unknown action: " + msg.Action})
	}
}

// reply кладет ответ только этому подключению; при полном буфере ответ теряется
func (c *Client) reply(message OutgoingWSMessage) {
	c.Manager.mu.RLock()
	defer c.Manager.mu.RUnlock()

	if _, ok := c.Manager.clients[c.UserID][c]; !ok {
		return
	}
	select {
	case c.Send <- message:
	default:
	}
}

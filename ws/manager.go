package ws

import (
	"context"
	"sync"

	"curaconnect_backend/internal/logger"
	"curaconnect_backend/internal/models"
	"curaconnect_backend/internal/services"

	"gorm.io/gorm"
)

// OutgoingWSMessage - конверт всех сообщений сервер -> клиент
type OutgoingWSMessage struct {
	Event string `json:"event"`
	Data  any    `json:"data,omitempty"`
}

const (
	EventNotification = "notification"
	EventReadUpdated  = "read_updated"
	EventError        = "error"
	EventPong         = "pong"
)

// WebSocketManager держит живые подключения, у одного пользователя их может быть несколько
type WebSocketManager struct {
	clients    map[string]map[*Client]struct{}
	register   chan *Client
	unregister chan *Client
	done       chan struct{}
	mu         sync.RWMutex

	db                  *gorm.DB
	notificationService services.NotificationService
}

func NewWebSocketManager(db *gorm.DB, notificationService services.NotificationService) *WebSocketManager {
	return &WebSocketManager{
		clients:             make(map[string]map[*Client]struct{}),
		register:            make(chan *Client),
		unregister:          make(chan *Client),
		done:                make(chan struct{}),
		db:                  db,
		notificationService: notificationService,
	}
}

// Run владеет регистрацией клиентов, завершается по ctx
func (manager *WebSocketManager) Run(ctx context.Context) {
	defer close(manager.done)

	for {
		select {
		case <-ctx.Done():
			manager.mu.Lock()
			for userID, set := range manager.clients {
				for client := range set {
					close(client.Send)
				}
				delete(manager.clients, userID)
			}
			manager.mu.Unlock()
			logger.Info("WebSocket manager stopped")
			return

		case client := <-manager.register:
			manager.mu.Lock()
			set, ok := manager.clients[client.UserID]
			if !ok {
				set = make(map[*Client]struct{})
				manager.clients[client.UserID] = set
			}
			set[client] = struct{}{}
			total := len(set)
			manager.mu.Unlock()
			logger.Debug("WebSocket client registered", "user_id", client.UserID, "connections", total)

		case client := <-manager.unregister:
			manager.removeClient(client)
		}
	}
}

func (manager *WebSocketManager) removeClient(client *Client) {
	manager.mu.Lock()
	defer manager.mu.Unlock()

	set, ok := manager.clients[client.UserID]
	if !ok {
		return
	}
	if _, ok := set[client]; !ok {
		return
	}
	close(client.Send)
	delete(set, client)
	if len(set) == 0 {
		delete(manager.clients, client.UserID)
	}
	logger.Debug("WebSocket client unregistered", "user_id", client.UserID)
}

// Register/Unregister не блокируются навсегда после остановки Run
func (manager *WebSocketManager) Register(client *Client) bool {
	select {
	case manager.register <- client:
		return true
	case <-manager.done:
		return false
	}
}

func (manager *WebSocketManager) Unregister(client *Client) {
	select {
	case manager.unregister <- client:
	case <-manager.done:
	}
}

// PushNotification реализует services.RealtimePublisher
func (manager *WebSocketManager) PushNotification(recipientID string, notification *models.Notification) {
	manager.SendToUser(recipientID, OutgoingWSMessage{Event: EventNotification, Data: notification})
}

// SendToUser отправляет сообщение во все подключения пользователя.
// Клиент с переполненным буфером отключается.
func (manager *WebSocketManager) SendToUser(userID string, message any) {
	manager.mu.RLock()
	defer manager.mu.RUnlock()

	for client := range manager.clients[userID] {
		select {
		case client.Send <- message:
		default:
			go manager.Unregister(client)
			logger.Warn("WebSocket client dropped: send buffer is full", "user_id", userID)
		}
	}
}

// GetClientCount возвращает количество подключений
func (manager *WebSocketManager) GetClientCount() int {
	manager.mu.RLock()
	defer manager.mu.RUnlock()

	total := 0
	for _, set := range manager.clients {
		total += len(set)
	}
	return total
}

// IsUserConnected проверяет, есть ли у пользователя живое подключение
func (manager *WebSocketManager) IsUserConnected(userID string) bool {
	manager.mu.RLock()
	defer manager.mu.RUnlock()
	return len(manager.clients[userID]) > 0
}

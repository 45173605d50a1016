package services

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"curaconnect_backend/internal/logger"
	"curaconnect_backend/internal/models"
	"curaconnect_backend/internal/repositories"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

const EventNotificationCreated = "notification.created"

// RealtimePublisher доставляет уже закоммиченные уведомления живым подключениям
type RealtimePublisher interface {
	PushNotification(recipientID string, notification *models.Notification)
}

// NotificationDispatcher - единая точка создания уведомлений.
// Enqueue пишет уведомление и outbox-событие в транзакции вызывающего,
// Deliver вызывается после коммита.
type NotificationDispatcher struct {
	notificationRepo repositories.NotificationRepository
	outboxRepo       repositories.OutboxRepository
	unread           *UnreadCounter
	topic            string

	mu       sync.RWMutex
	realtime RealtimePublisher
}

func NewNotificationDispatcher(
	notificationRepo repositories.NotificationRepository,
	outboxRepo repositories.OutboxRepository,
	unread *UnreadCounter,
	topic string,
) *NotificationDispatcher {
	return &NotificationDispatcher{
		notificationRepo: notificationRepo,
		outboxRepo:       outboxRepo,
		unread:           unread,
		topic:            topic,
	}
}

// SetRealtime подключает websocket hub (он создается после сервисов)
func (d *NotificationDispatcher) SetRealtime(p RealtimePublisher) {
	d.mu.Lock()
	d.realtime = p
	d.mu.Unlock()
}

func (d *NotificationDispatcher) Enqueue(tx *gorm.DB, notifications ...*models.Notification) error {
	if len(notifications) == 0 {
		return nil
	}

	if err := d.notificationRepo.CreateBulkNotifications(tx, notifications); err != nil {
		return err
	}

	events := make([]*models.OutboxEvent, 0, len(notifications))
	for _, n := range notifications {
		payload, err := json.Marshal(n)
		if err != nil {
			return fmt.Errorf("marshal outbox payload: %w", err)
		}
		events = append(events, &models.OutboxEvent{
			Topic:       d.topic,
			AggregateID: n.ID,
			EventType:   EventNotificationCreated,
			Payload:     datatypes.JSON(payload),
		})
	}
	return d.outboxRepo.Create(tx, events)
}

// Deliver - best effort, ошибки доставки не влияют на результат операции
func (d *NotificationDispatcher) Deliver(ctx context.Context, notifications ...*models.Notification) {
	d.mu.RLock()
	realtime := d.realtime
	d.mu.RUnlock()

	for _, n := range notifications {
		d.unread.Invalidate(n.RecipientID)
		if realtime != nil {
			realtime.PushNotification(n.RecipientID, n)
		}
	}
	logger.CtxDebug(ctx, "Notifications delivered", "count", len(notifications))
}

// newNotification собирает уведомление; metadata сериализуется в JSON
func newNotification(
	recipientID string,
	senderID *string,
	typ models.NotificationType,
	title, message string,
	metadata map[string]interface{},
) (*models.Notification, error) {
	n := &models.Notification{
		RecipientID: recipientID,
		SenderID:    senderID,
		Type:        typ,
		Title:       title,
		Message:     message,
	}
	if metadata != nil {
		raw, err := json.Marshal(metadata)
		if err != nil {
			return nil, fmt.Errorf("marshal notification metadata: %w", err)
		}
		n.Metadata = datatypes.JSON(raw)
	}
	return n, nil
}

func stringPtr(s string) *string {
	return &s
}

// contextOf достает request context, который DBMiddleware положил в сессию gorm
func contextOf(db *gorm.DB) context.Context {
	if db != nil && db.Statement != nil && db.Statement.Context != nil {
		return db.Statement.Context
	}
	return context.Background()
}

// displayName - имя для текста уведомления; если пользователя нет в базе, берем fallback
func displayName(userRepo repositories.UserRepository, db *gorm.DB, userID, fallback string) string {
	user, err := userRepo.FindByID(db, userID)
	if err != nil {
		return fallback
	}
	return user.DisplayName()
}

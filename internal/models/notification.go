package models

import (
	"encoding/json"
	"time"

	"gorm.io/datatypes"
)

type Notification struct {
	BaseModel
	RecipientID string `gorm:"type:uuid;not null;index:idx_notifications_recipient_read,priority:1" json:"recipientId"`
	// SenderID - типизированная ссылка на контрагента, по ней маршрутизируется ответ
	SenderID *string          `gorm:"type:uuid;index" json:"senderId,omitempty"`
	Type     NotificationType `gorm:"type:varchar(40);not null" json:"type"`
	Title    string           `gorm:"not null" json:"title"`
	Message  string           `gorm:"type:text" json:"message"`
	IsRead   bool             `gorm:"not null;default:false;index:idx_notifications_recipient_read,priority:2" json:"read"`
	ReadAt   *time.Time       `json:"readAt,omitempty"`
	Metadata datatypes.JSON   `json:"metadata,omitempty"`
}

// MetadataMap разбирает metadata в map; битый или пустой JSON дает пустую map
func (n *Notification) MetadataMap() map[string]any {
	out := map[string]any{}
	if len(n.Metadata) == 0 {
		return out
	}
	_ = json.Unmarshal(n.Metadata, &out)
	return out
}

// OutboxEvent пишется в той же транзакции, что и уведомление,
// и позже публикуется воркером во внешний брокер.
type OutboxEvent struct {
	BaseModel
	Topic       string         `gorm:"type:varchar(255);not null" json:"topic"`
	AggregateID string         `gorm:"type:uuid;not null;index" json:"aggregateId"`
	EventType   string         `gorm:"type:varchar(80);not null" json:"eventType"`
	Payload     datatypes.JSON `json:"payload"`
	Status      OutboxStatus   `gorm:"type:varchar(20);not null;default:'pending';index" json:"status"`
	Attempts    int            `gorm:"not null;default:0" json:"attempts"`
	LastError   string         `gorm:"type:text" json:"lastError,omitempty"`
	SentAt      *time.Time     `json:"sentAt,omitempty"`
}

package models

import "time"

// Connection - взаимная связь двух исследователей.
// PairKey не зависит от направления, уникальный индекс по нему
// не дает создать вторую строку для той же пары ни в одном порядке.
type Connection struct {
	BaseModel
	RequesterID string           `gorm:"type:uuid;not null;index" json:"requesterId"`
	RecipientID string           `gorm:"type:uuid;not null;index" json:"recipientId"`
	PairKey     string           `gorm:"type:varchar(80);not null;uniqueIndex" json:"-"`
	Status      ConnectionStatus `gorm:"type:varchar(20);not null;default:'pending'" json:"status"`
	AcceptedAt  *time.Time       `json:"acceptedAt,omitempty"`
}

func ConnectionPairKey(a, b string) string {
	if a > b {
		a, b = b, a
	}
	return a + ":" + b
}

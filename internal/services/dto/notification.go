package dto

import (
	"curaconnect_backend/internal/models"
)

// ---------------- Requests ----------------

type ListNotificationsQuery struct {
	Limit int `form:"limit" json:"limit" validate:"omitempty,min=1"`
}

// UpdateMetadataRequest - metadata заменяется целиком
type UpdateMetadataRequest struct {
	Metadata map[string]interface{} `json:"metadata" validate:"required"`
}

type ReplyRequest struct {
	Message string `json:"message" validate:"required,max=2000"`
}

// ---------------- Responses ----------------

type NotificationListResponse struct {
	Success       bool                  `json:"success"`
	Notifications []models.Notification `json:"notifications"`
	UnreadCount   int64                 `json:"unreadCount"`
}

type UnreadCountResponse struct {
	Success     bool  `json:"success"`
	UnreadCount int64 `json:"unreadCount"`
}

type MarkReadResponse struct {
	Success bool  `json:"success"`
	Updated int64 `json:"updated"`
}

type NotificationResponse struct {
	Success      bool                 `json:"success"`
	Notification *models.Notification `json:"notification"`
}

// ReplyResponse - Delivered=false означает мягкий отказ, Reason объясняет почему
type ReplyResponse struct {
	Success      bool                 `json:"success"`
	Delivered    bool                 `json:"delivered"`
	Reason       string               `json:"reason,omitempty"`
	Notification *models.Notification `json:"notification,omitempty"`
}

// Причины, по которым ответ не доставлен
const (
	ReplyReasonSenderUnknown = "sender_unresolved"
	ReplyReasonSelf          = "sender_is_self"
)

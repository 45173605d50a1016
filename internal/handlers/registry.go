package handlers

import (
	"curaconnect_backend/internal/services"
	"curaconnect_backend/internal/validator"
)

// AppHandlers содержит все хэндлеры приложения.
type AppHandlers struct {
	ConnectionHandler   *ConnectionHandler
	FollowHandler       *FollowHandler
	MeetingHandler      *MeetingHandler
	NotificationHandler *NotificationHandler
	AdminHandler        *AdminHandler
}

func NewAppHandlers(container *services.ServiceContainer, v *validator.Validator) *AppHandlers {
	base := NewBaseHandler(v)
	return &AppHandlers{
		ConnectionHandler:   NewConnectionHandler(base, container.ConnectionService),
		FollowHandler:       NewFollowHandler(base, container.FollowService),
		MeetingHandler:      NewMeetingHandler(base, container.MeetingService),
		NotificationHandler: NewNotificationHandler(base, container.NotificationService),
		AdminHandler:        NewAdminHandler(base, container.FollowService),
	}
}

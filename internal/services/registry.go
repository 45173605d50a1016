package services

import (
	"curaconnect_backend/internal/config"
	"curaconnect_backend/internal/email"
	"curaconnect_backend/internal/repositories"
)

// ServiceContainer содержит все сервисы приложения.
type ServiceContainer struct {
	ConnectionService   ConnectionService
	FollowService       FollowService
	MeetingService      MeetingService
	NotificationService NotificationService
	AdminBroadcaster    AdminBroadcaster
	Dispatcher          *NotificationDispatcher
	EmailService        email.Provider
}

// NewServiceContainer собирает граф сервисов. mailer может быть nil.
func NewServiceContainer(cfg *config.Config, mailer email.Provider) *ServiceContainer {
	userRepo := repositories.NewUserRepository()
	connectionRepo := repositories.NewConnectionRepository()
	followRepo := repositories.NewFollowRepository()
	meetingRepo := repositories.NewMeetingRepository()
	notificationRepo := repositories.NewNotificationRepository()
	outboxRepo := repositories.NewOutboxRepository()

	unread := NewUnreadCounter(notificationRepo, cfg.UnreadCacheTTL())
	dispatcher := NewNotificationDispatcher(notificationRepo, outboxRepo, unread, cfg.Kafka.Topic)
	broadcaster := NewAdminBroadcaster(userRepo, dispatcher, mailer)

	return &ServiceContainer{
		ConnectionService: NewConnectionService(connectionRepo, userRepo, dispatcher),
		FollowService:     NewFollowService(followRepo, userRepo, dispatcher, broadcaster),
		MeetingService:    NewMeetingService(meetingRepo, userRepo, dispatcher, broadcaster),
		NotificationService: NewNotificationService(notificationRepo, userRepo, dispatcher, unread, NotificationSettings{
			DefaultLimit:       cfg.Notifications.ListLimit,
			MaxLimit:           cfg.Notifications.MaxListLimit,
			LegacyNameMatching: cfg.NameMatchingEnabled(),
		}),
		AdminBroadcaster: broadcaster,
		Dispatcher:       dispatcher,
		EmailService:     mailer,
	}
}

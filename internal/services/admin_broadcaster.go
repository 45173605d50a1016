package services

import (
	"context"

	"curaconnect_backend/internal/email"
	"curaconnect_backend/internal/logger"
	"curaconnect_backend/internal/models"
	"curaconnect_backend/internal/repositories"

	"gorm.io/gorm"
)

// AdminNotice - содержимое эскалации, одинаковое для всех администраторов
type AdminNotice struct {
	Type     models.NotificationType
	Title    string
	Message  string
	SenderID *string
	Metadata map[string]interface{}
}

// AdminBroadcast - результат рассылки внутри транзакции, публикуется после коммита
type AdminBroadcast struct {
	Notice        AdminNotice
	Admins        []models.User
	Notifications []*models.Notification
}

// AdminBroadcaster рассылает уведомление каждому пользователю с ролью admin
type AdminBroadcaster interface {
	Broadcast(tx *gorm.DB, notice AdminNotice) (*AdminBroadcast, error)
	Publish(ctx context.Context, broadcast *AdminBroadcast)
}

type adminBroadcaster struct {
	userRepo   repositories.UserRepository
	dispatcher *NotificationDispatcher
	mailer     email.Provider
}

// NewAdminBroadcaster - mailer может быть nil, тогда email эскалация выключена
func NewAdminBroadcaster(
	userRepo repositories.UserRepository,
	dispatcher *NotificationDispatcher,
	mailer email.Provider,
) AdminBroadcaster {
	return &adminBroadcaster{
		userRepo:   userRepo,
		dispatcher: dispatcher,
		mailer:     mailer,
	}
}

func (b *adminBroadcaster) Broadcast(tx *gorm.DB, notice AdminNotice) (*AdminBroadcast, error) {
	admins, err := b.userRepo.FindByRole(tx, models.UserRoleAdmin)
	if err != nil {
		return nil, err
	}

	result := &AdminBroadcast{Notice: notice, Admins: admins}
	if len(admins) == 0 {
		logger.CtxWarn(contextOf(tx), "Admin broadcast has no recipients", "title", notice.Title)
		return result, nil
	}

	for _, admin := range admins {
		n, err := newNotification(admin.ID, notice.SenderID, notice.Type, notice.Title, notice.Message, notice.Metadata)
		if err != nil {
			return nil, err
		}
		result.Notifications = append(result.Notifications, n)
	}

	if err := b.dispatcher.Enqueue(tx, result.Notifications...); err != nil {
		return nil, err
	}
	return result, nil
}

func (b *adminBroadcaster) Publish(ctx context.Context, broadcast *AdminBroadcast) {
	if broadcast == nil || len(broadcast.Notifications) == 0 {
		return
	}

	b.dispatcher.Deliver(ctx, broadcast.Notifications...)

	if b.mailer == nil {
		return
	}

	recipients := make([]string, 0, len(broadcast.Admins))
	for _, admin := range broadcast.Admins {
		if admin.Email != "" {
			recipients = append(recipients, admin.Email)
		}
	}
	data := email.TemplateData{
		"Title":   broadcast.Notice.Title,
		"Message": broadcast.Notice.Message,
		"Details": broadcast.Notice.Metadata,
	}

	// SMTP медленный, запрос его не ждет
	go func() {
		for _, to := range recipients {
			err := b.mailer.SendTemplate([]string{to}, broadcast.Notice.Title, email.TemplateAdminEscalation, data)
			if err != nil {
				logger.CtxWithError(ctx, "Failed to send admin escalation email", err, "to", to)
			}
		}
	}()
}

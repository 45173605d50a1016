package repositories

import (
	"errors"
	"fmt"
	"time"

	"curaconnect_backend/internal/models"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

var (
	ErrNotificationNotFound    = errors.New("notification not found")
	ErrInvalidNotificationData = errors.New("invalid notification data")
)

type NotificationRepository interface {
	CreateBulkNotifications(db *gorm.DB, notifications []*models.Notification) error
	FindRecipientNotification(db *gorm.DB, id, recipientID string) (*models.Notification, error)
	FindRecipientNotifications(db *gorm.DB, recipientID string, limit int) ([]models.Notification, error)
	CountUnread(db *gorm.DB, recipientID string) (int64, error)
	MarkAsRead(db *gorm.DB, id, recipientID string, readAt time.Time) (int64, error)
	MarkAllAsRead(db *gorm.DB, recipientID string, readAt time.Time) (int64, error)
	ReplaceMetadata(db *gorm.DB, id, recipientID string, metadata datatypes.JSON) (int64, error)
}

type NotificationRepositoryImpl struct{}

func NewNotificationRepository() NotificationRepository {
	return &NotificationRepositoryImpl{}
}

func (r *NotificationRepositoryImpl) CreateBulkNotifications(db *gorm.DB, notifications []*models.Notification) error {
	if len(notifications) == 0 {
		return nil
	}
	for _, notification := range notifications {
		if err := r.validateNotification(notification); err != nil {
			return err
		}
	}
	return db.CreateInBatches(notifications, 100).Error
}

// FindRecipientNotification - чужие уведомления не отличимы от несуществующих
func (r *NotificationRepositoryImpl) FindRecipientNotification(db *gorm.DB, id, recipientID string) (*models.Notification, error) {
	if !models.IsUUID(id) {
		return nil, ErrNotificationNotFound
	}
	var notification models.Notification
	err := db.First(&notification, "id = ? AND recipient_id = ?", id, recipientID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotificationNotFound
		}
		return nil, err
	}
	return &notification, nil
}

func (r *NotificationRepositoryImpl) FindRecipientNotifications(db *gorm.DB, recipientID string, limit int) ([]models.Notification, error) {
	var notifications []models.Notification
	err := db.Where("recipient_id = ?", recipientID).
		Order("created_at DESC").
		Limit(limit).
		Find(&notifications).Error
	return notifications, err
}

func (r *NotificationRepositoryImpl) CountUnread(db *gorm.DB, recipientID string) (int64, error) {
	var count int64
	err := db.Model(&models.Notification{}).
		Where("recipient_id = ? AND is_read = ?", recipientID, false).
		Count(&count).Error
	return count, err
}

func (r *NotificationRepositoryImpl) MarkAsRead(db *gorm.DB, id, recipientID string, readAt time.Time) (int64, error) {
	result := db.Model(&models.Notification{}).
		Where("id = ? AND recipient_id = ? AND is_read = ?", id, recipientID, false).
		Updates(map[string]interface{}{
			"is_read": true,
			"read_at": readAt,
		})
	return result.RowsAffected, result.Error
}

func (r *NotificationRepositoryImpl) MarkAllAsRead(db *gorm.DB, recipientID string, readAt time.Time) (int64, error) {
	result := db.Model(&models.Notification{}).
		Where("recipient_id = ? AND is_read = ?", recipientID, false).
		Updates(map[string]interface{}{
			"is_read": true,
			"read_at": readAt,
		})
	return result.RowsAffected, result.Error
}

func (r *NotificationRepositoryImpl) ReplaceMetadata(db *gorm.DB, id, recipientID string, metadata datatypes.JSON) (int64, error) {
	result := db.Model(&models.Notification{}).
		Where("id = ? AND recipient_id = ?", id, recipientID).
		Update("metadata", metadata)
	return result.RowsAffected, result.Error
}

func (r *NotificationRepositoryImpl) validateNotification(notification *models.Notification) error {
	if notification.RecipientID == "" {
		return fmt.Errorf("%w: recipient is required", ErrInvalidNotificationData)
	}
	if notification.Title == "" {
		return fmt.Errorf("%w: title is required", ErrInvalidNotificationData)
	}
	if !notification.Type.IsValid() {
		return fmt.Errorf("%w: unknown type %q", ErrInvalidNotificationData, notification.Type)
	}
	return nil
}

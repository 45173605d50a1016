package repositories

import (
	"time"

	"curaconnect_backend/internal/models"

	"gorm.io/gorm"
)

type OutboxRepository interface {
	Create(db *gorm.DB, events []*models.OutboxEvent) error
	FindPending(db *gorm.DB, limit int) ([]models.OutboxEvent, error)
	MarkSent(db *gorm.DB, id string, sentAt time.Time) error
	MarkAttemptFailed(db *gorm.DB, id string, cause string, maxAttempts int) error
	CountByStatus(db *gorm.DB, status models.OutboxStatus) (int64, error)
	DeleteSentBefore(db *gorm.DB, before time.Time) (int64, error)
}

type OutboxRepositoryImpl struct{}

func NewOutboxRepository() OutboxRepository {
	return &OutboxRepositoryImpl{}
}

func (r *OutboxRepositoryImpl) Create(db *gorm.DB, events []*models.OutboxEvent) error {
	if len(events) == 0 {
		return nil
	}
	for _, event := range events {
		if event.Status == "" {
			event.Status = models.OutboxStatusPending
		}
	}
	return db.CreateInBatches(events, 100).Error
}

// FindPending отдает самые старые события первыми, чтобы сохранить порядок публикации
func (r *OutboxRepositoryImpl) FindPending(db *gorm.DB, limit int) ([]models.OutboxEvent, error) {
	var events []models.OutboxEvent
	err := db.Where("status = ?", models.OutboxStatusPending).
		Order("created_at ASC").
		Limit(limit).
		Find(&events).Error
	return events, err
}

func (r *OutboxRepositoryImpl) MarkSent(db *gorm.DB, id string, sentAt time.Time) error {
	return db.Model(&models.OutboxEvent{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"status":     models.OutboxStatusSent,
			"sent_at":    sentAt,
			"last_error": "",
		}).Error
}

// MarkAttemptFailed увеличивает счетчик попыток; после maxAttempts событие становится failed
func (r *OutboxRepositoryImpl) MarkAttemptFailed(db *gorm.DB, id string, cause string, maxAttempts int) error {
	var event models.OutboxEvent
	if err := db.First(&event, "id = ?", id).Error; err != nil {
		return err
	}

	attempts := event.Attempts + 1
	status := models.OutboxStatusPending
	if attempts >= maxAttempts {
		status = models.OutboxStatusFailed
	}

	return db.Model(&models.OutboxEvent{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"attempts":   attempts,
			"status":     status,
			"last_error": cause,
		}).Error
}

func (r *OutboxRepositoryImpl) CountByStatus(db *gorm.DB, status models.OutboxStatus) (int64, error) {
	var count int64
	err := db.Model(&models.OutboxEvent{}).Where("status = ?", status).Count(&count).Error
	return count, err
}

func (r *OutboxRepositoryImpl) DeleteSentBefore(db *gorm.DB, before time.Time) (int64, error) {
	result := db.Where("status = ? AND sent_at < ?", models.OutboxStatusSent, before).
		Delete(&models.OutboxEvent{})
	return result.RowsAffected, result.Error
}

package repositories

import (
	"errors"
	"time"

	"curaconnect_backend/internal/models"

	"gorm.io/gorm"
)

var ErrMeetingNotFound = errors.New("meeting request not found")

type MeetingRepository interface {
	Create(db *gorm.DB, meeting *models.MeetingRequest) error
	FindByID(db *gorm.DB, id string) (*models.MeetingRequest, error)
	Resolve(db *gorm.DB, id string, status models.MeetingStatus, respondedAt time.Time) (bool, error)
	FindByRequester(db *gorm.DB, requesterID string) ([]models.MeetingRequest, error)
	FindByExpert(db *gorm.DB, expertID string) ([]models.MeetingRequest, error)
}

type MeetingRepositoryImpl struct{}

func NewMeetingRepository() MeetingRepository {
	return &MeetingRepositoryImpl{}
}

func (r *MeetingRepositoryImpl) Create(db *gorm.DB, meeting *models.MeetingRequest) error {
	if meeting.Status == "" {
		meeting.Status = models.MeetingStatusPending
	}
	return db.Create(meeting).Error
}

func (r *MeetingRepositoryImpl) FindByID(db *gorm.DB, id string) (*models.MeetingRequest, error) {
	if !models.IsUUID(id) {
		return nil, ErrMeetingNotFound
	}
	var meeting models.MeetingRequest
	if err := db.First(&meeting, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrMeetingNotFound
		}
		return nil, err
	}
	return &meeting, nil
}

// Resolve переводит PENDING в терминальный статус ровно один раз
func (r *MeetingRepositoryImpl) Resolve(db *gorm.DB, id string, status models.MeetingStatus, respondedAt time.Time) (bool, error) {
	result := db.Model(&models.MeetingRequest{}).
		Where("id = ? AND status = ?", id, models.MeetingStatusPending).
		Updates(map[string]interface{}{
			"status":       status,
			"responded_at": respondedAt,
			"updated_at":   respondedAt,
		})
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

func (r *MeetingRepositoryImpl) FindByRequester(db *gorm.DB, requesterID string) ([]models.MeetingRequest, error) {
	var meetings []models.MeetingRequest
	err := db.Where("requester_id = ?", requesterID).Order("created_at DESC").Find(&meetings).Error
	return meetings, err
}

func (r *MeetingRepositoryImpl) FindByExpert(db *gorm.DB, expertID string) ([]models.MeetingRequest, error) {
	var meetings []models.MeetingRequest
	err := db.Where("expert_id = ?", expertID).Order("created_at DESC").Find(&meetings).Error
	return meetings, err
}

package repositories

import (
	"errors"

	"curaconnect_backend/internal/models"

	"gorm.io/gorm"
)

var ErrFollowExists = errors.New("follow edge already exists")

type FollowRepository interface {
	Create(db *gorm.DB, follow *models.Follow) error
	Exists(db *gorm.DB, followerID, followingID string) (bool, error)
	Delete(db *gorm.DB, followerID, followingID string) (bool, error)
	FindFollowing(db *gorm.DB, followerID string) ([]models.Follow, error)
	FindFollowers(db *gorm.DB, followingID string) ([]models.Follow, error)

	// FollowRequest operations
	CreateRequest(db *gorm.DB, request *models.FollowRequest) error
	FindRequests(db *gorm.DB, status models.FollowRequestStatus, limit, offset int) ([]models.FollowRequest, int64, error)
}

type FollowRepositoryImpl struct{}

func NewFollowRepository() FollowRepository {
	return &FollowRepositoryImpl{}
}

func (r *FollowRepositoryImpl) Create(db *gorm.DB, follow *models.Follow) error {
	if err := db.Create(follow).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return ErrFollowExists
		}
		return err
	}
	return nil
}

func (r *FollowRepositoryImpl) Exists(db *gorm.DB, followerID, followingID string) (bool, error) {
	var count int64
	err := db.Model(&models.Follow{}).
		Where("follower_id = ? AND following_id = ?", followerID, followingID).
		Count(&count).Error
	return count > 0, err
}

// Delete идемпотентен: отсутствие ребра не ошибка, просто false
func (r *FollowRepositoryImpl) Delete(db *gorm.DB, followerID, followingID string) (bool, error) {
	result := db.Where("follower_id = ? AND following_id = ?", followerID, followingID).
		Delete(&models.Follow{})
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

func (r *FollowRepositoryImpl) FindFollowing(db *gorm.DB, followerID string) ([]models.Follow, error) {
	var follows []models.Follow
	err := db.Where("follower_id = ?", followerID).Order("created_at DESC").Find(&follows).Error
	return follows, err
}

func (r *FollowRepositoryImpl) FindFollowers(db *gorm.DB, followingID string) ([]models.Follow, error) {
	var follows []models.Follow
	err := db.Where("following_id = ?", followingID).Order("created_at DESC").Find(&follows).Error
	return follows, err
}

// FollowRequest operations

func (r *FollowRepositoryImpl) CreateRequest(db *gorm.DB, request *models.FollowRequest) error {
	if request.Status == "" {
		request.Status = models.FollowRequestStatusPending
	}
	return db.Create(request).Error
}

func (r *FollowRepositoryImpl) FindRequests(db *gorm.DB, status models.FollowRequestStatus, limit, offset int) ([]models.FollowRequest, int64, error) {
	var requests []models.FollowRequest
	var total int64

	query := db.Model(&models.FollowRequest{})
	if status != "" {
		query = query.Where("status = ?", status)
	}
	if err := query.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	err := query.Session(&gorm.Session{}).Order("created_at DESC").Limit(limit).Offset(offset).Find(&requests).Error
	return requests, total, err
}

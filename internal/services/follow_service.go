package services

import (
	"errors"
	"fmt"
	"strings"

	"curaconnect_backend/internal/logger"
	"curaconnect_backend/internal/models"
	"curaconnect_backend/internal/repositories"
	"curaconnect_backend/internal/services/dto"
	"curaconnect_backend/pkg/apperrors"

	"gorm.io/gorm"
)

type FollowService interface {
	Follow(db *gorm.DB, followerID string, req *dto.FollowRequest) (*dto.FollowResult, error)
	Unfollow(db *gorm.DB, followerID, targetID string) (bool, error)
	ListFollowing(db *gorm.DB, userID string) ([]models.Follow, error)
	ListFollowers(db *gorm.DB, userID string) ([]models.Follow, error)
	IsFollowing(db *gorm.DB, followerID, targetID string) (bool, error)

	// Admin operations
	ListFollowRequests(db *gorm.DB, status models.FollowRequestStatus, page, pageSize int) (*dto.FollowRequestListResponse, error)
}

type followService struct {
	followRepo  repositories.FollowRepository
	userRepo    repositories.UserRepository
	dispatcher  *NotificationDispatcher
	broadcaster AdminBroadcaster
}

func NewFollowService(
	followRepo repositories.FollowRepository,
	userRepo repositories.UserRepository,
	dispatcher *NotificationDispatcher,
	broadcaster AdminBroadcaster,
) FollowService {
	return &followService{
		followRepo:  followRepo,
		userRepo:    userRepo,
		dispatcher:  dispatcher,
		broadcaster: broadcaster,
	}
}

// Follow создает ребро для зарегистрированной цели.
// Незарегистрированная цель превращается в FollowRequest для администраторов.
func (s *followService) Follow(db *gorm.DB, followerID string, req *dto.FollowRequest) (*dto.FollowResult, error) {
	targetID := strings.TrimSpace(req.TargetID)
	if targetID == "" {
		return nil, apperrors.ValidationError(map[string]string{"targetId": "This field is required"})
	}
	if targetID == followerID {
		return nil, apperrors.ErrSelfFollow
	}

	tx := db.Begin()
	if tx.Error != nil {
		return nil, apperrors.InternalError(tx.Error)
	}
	defer tx.Rollback()

	target, err := s.userRepo.FindByID(tx, targetID)
	switch {
	case err == nil:
		return s.followRegistered(db, tx, followerID, target)
	case errors.Is(err, repositories.ErrUserNotFound):
		return s.followExternal(db, tx, followerID, targetID, req)
	default:
		return nil, handleRepositoryError(err)
	}
}

func (s *followService) followRegistered(db, tx *gorm.DB, followerID string, target *models.User) (*dto.FollowResult, error) {
	exists, err := s.followRepo.Exists(tx, followerID, target.ID)
	if err != nil {
		return nil, handleRepositoryError(err)
	}
	if exists {
		return nil, apperrors.ErrAlreadyFollowing
	}

	follow := &models.Follow{FollowerID: followerID, FollowingID: target.ID}
	if err := s.followRepo.Create(tx, follow); err != nil {
		return nil, handleRepositoryError(err)
	}

	followerName := displayName(s.userRepo, tx, followerID, "Someone")
	notification, err := newNotification(
		target.ID,
		stringPtr(followerID),
		models.NotificationTypeNewFollower,
		"New Follower",
		fmt.Sprintf("%s started following you", followerName),
		map[string]interface{}{
			"followerId":   followerID,
			"followerName": followerName,
		},
	)
	if err != nil {
		return nil, apperrors.InternalError(err)
	}
	if err := s.dispatcher.Enqueue(tx, notification); err != nil {
		return nil, handleRepositoryError(err)
	}

	if err := tx.Commit().Error; err != nil {
		return nil, handleRepositoryError(err)
	}

	ctx := contextOf(db)
	logger.CtxInfo(ctx, "Follow created", "follower_id", followerID, "following_id", target.ID)
	s.dispatcher.Deliver(ctx, notification)
	return &dto.FollowResult{Follow: follow}, nil
}

func (s *followService) followExternal(db, tx *gorm.DB, followerID, externalID string, req *dto.FollowRequest) (*dto.FollowResult, error) {
	targetName := strings.TrimSpace(req.TargetName)
	if targetName == "" {
		targetName = externalID
	}

	request := &models.FollowRequest{
		RequesterID: followerID,
		TargetName:  targetName,
		ExternalID:  externalID,
		Message:     strings.TrimSpace(req.Message),
		Status:      models.FollowRequestStatusPending,
	}
	if err := s.followRepo.CreateRequest(tx, request); err != nil {
		return nil, handleRepositoryError(err)
	}

	requesterName := displayName(s.userRepo, tx, followerID, "A user")
	broadcast, err := s.broadcaster.Broadcast(tx, AdminNotice{
		Type:     models.NotificationTypeFollowRequest,
		Title:    "New Follow Request",
		Message:  fmt.Sprintf("%s wants to follow %s, who is not registered yet", requesterName, targetName),
		SenderID: stringPtr(followerID),
		Metadata: map[string]interface{}{
			"followRequestId": request.ID,
			"requesterId":     followerID,
			"requesterName":   requesterName,
			"targetName":      targetName,
			"externalId":      externalID,
			"message":         request.Message,
		},
	})
	if err != nil {
		return nil, handleRepositoryError(err)
	}

	if err := tx.Commit().Error; err != nil {
		return nil, handleRepositoryError(err)
	}

	ctx := contextOf(db)
	logger.CtxInfo(ctx, "Follow request escalated to admins",
		"follow_request_id", request.ID,
		"admins", len(broadcast.Admins),
	)
	s.broadcaster.Publish(ctx, broadcast)
	return &dto.FollowResult{FollowRequest: request, PendingReview: true}, nil
}

// Unfollow идемпотентен: отсутствие ребра - не ошибка
func (s *followService) Unfollow(db *gorm.DB, followerID, targetID string) (bool, error) {
	targetID = strings.TrimSpace(targetID)
	if !models.IsUUID(targetID) {
		return false, nil
	}
	removed, err := s.followRepo.Delete(db, followerID, targetID)
	if err != nil {
		return false, handleRepositoryError(err)
	}
	return removed, nil
}

func (s *followService) ListFollowing(db *gorm.DB, userID string) ([]models.Follow, error) {
	follows, err := s.followRepo.FindFollowing(db, userID)
	if err != nil {
		return nil, handleRepositoryError(err)
	}
	return follows, nil
}

func (s *followService) ListFollowers(db *gorm.DB, userID string) ([]models.Follow, error) {
	follows, err := s.followRepo.FindFollowers(db, userID)
	if err != nil {
		return nil, handleRepositoryError(err)
	}
	return follows, nil
}

func (s *followService) IsFollowing(db *gorm.DB, followerID, targetID string) (bool, error) {
	targetID = strings.TrimSpace(targetID)
	if !models.IsUUID(targetID) {
		return false, nil
	}
	exists, err := s.followRepo.Exists(db, followerID, targetID)
	if err != nil {
		return false, handleRepositoryError(err)
	}
	return exists, nil
}

func (s *followService) ListFollowRequests(db *gorm.DB, status models.FollowRequestStatus, page, pageSize int) (*dto.FollowRequestListResponse, error) {
	requests, total, err := s.followRepo.FindRequests(db, status, pageSize, (page-1)*pageSize)
	if err != nil {
		return nil, handleRepositoryError(err)
	}

	totalPages := int(total) / pageSize
	if int(total)%pageSize > 0 {
		totalPages++
	}

	return &dto.FollowRequestListResponse{
		Success:    true,
		Requests:   requests,
		Total:      total,
		Page:       page,
		PageSize:   pageSize,
		TotalPages: totalPages,
	}, nil
}

package services

import (
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"curaconnect_backend/internal/logger"
	"curaconnect_backend/internal/models"
	"curaconnect_backend/internal/repositories"
	"curaconnect_backend/internal/services/dto"
	"curaconnect_backend/pkg/apperrors"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// MarkAllID - значение :notificationId, означающее "все уведомления"
const MarkAllID = "all"

// legacySenderKeys - ключи metadata, под которыми старые записи хранили отправителя
var legacySenderKeys = []string{"senderId", "sender_id", "fromUserId", "requesterId", "followerId", "userId"}

// leadingNamePattern вытаскивает имя в начале текста: "Dr. Jane Smith wants to connect"
var leadingNamePattern = regexp.MustCompile(`^(?:Dr\.?\s+|Prof\.?\s+)?(\p{Lu}[\p{L}'-]+(?:\s+\p{Lu}[\p{L}'-]+){0,3})`)

type NotificationSettings struct {
	DefaultLimit       int
	MaxLimit           int
	LegacyNameMatching bool
}

type NotificationService interface {
	GetNotifications(db *gorm.DB, recipientID string, limit int) (*dto.NotificationListResponse, error)
	GetNotification(db *gorm.DB, recipientID, notificationID string) (*models.Notification, error)
	GetUnreadCount(db *gorm.DB, recipientID string) (int64, error)
	MarkAsRead(db *gorm.DB, recipientID, notificationID string) (int64, error)
	MarkAllAsRead(db *gorm.DB, recipientID string) (int64, error)
	UpdateMetadata(db *gorm.DB, recipientID, notificationID string, metadata map[string]interface{}) (*models.Notification, error)
	ReplyToNotification(db *gorm.DB, callerID, notificationID string, req *dto.ReplyRequest) (*dto.ReplyResponse, error)
}

type notificationService struct {
	notificationRepo repositories.NotificationRepository
	userRepo         repositories.UserRepository
	dispatcher       *NotificationDispatcher
	unread           *UnreadCounter
	settings         NotificationSettings
}

func NewNotificationService(
	notificationRepo repositories.NotificationRepository,
	userRepo repositories.UserRepository,
	dispatcher *NotificationDispatcher,
	unread *UnreadCounter,
	settings NotificationSettings,
) NotificationService {
	if settings.DefaultLimit <= 0 {
		settings.DefaultLimit = 50
	}
	if settings.MaxLimit <= 0 {
		settings.MaxLimit = 100
	}
	return &notificationService{
		notificationRepo: notificationRepo,
		userRepo:         userRepo,
		dispatcher:       dispatcher,
		unread:           unread,
		settings:         settings,
	}
}

// ---------------- Read operations ----------------

func (s *notificationService) GetNotifications(db *gorm.DB, recipientID string, limit int) (*dto.NotificationListResponse, error) {
	if limit <= 0 {
		limit = s.settings.DefaultLimit
	}
	if limit > s.settings.MaxLimit {
		limit = s.settings.MaxLimit
	}

	notifications, err := s.notificationRepo.FindRecipientNotifications(db, recipientID, limit)
	if err != nil {
		return nil, handleRepositoryError(err)
	}

	unreadCount, err := s.unread.Get(db, recipientID)
	if err != nil {
		return nil, handleRepositoryError(err)
	}

	return &dto.NotificationListResponse{
		Success:       true,
		Notifications: notifications,
		UnreadCount:   unreadCount,
	}, nil
}

func (s *notificationService) GetNotification(db *gorm.DB, recipientID, notificationID string) (*models.Notification, error) {
	notification, err := s.notificationRepo.FindRecipientNotification(db, notificationID, recipientID)
	if err != nil {
		return nil, handleRepositoryError(err)
	}
	return notification, nil
}

func (s *notificationService) GetUnreadCount(db *gorm.DB, recipientID string) (int64, error) {
	count, err := s.unread.Get(db, recipientID)
	if err != nil {
		return 0, handleRepositoryError(err)
	}
	return count, nil
}

// ---------------- Write operations ----------------

// MarkAsRead - чужое уведомление выглядит как несуществующее (404)
func (s *notificationService) MarkAsRead(db *gorm.DB, recipientID, notificationID string) (int64, error) {
	if notificationID == MarkAllID {
		return s.MarkAllAsRead(db, recipientID)
	}

	if _, err := s.notificationRepo.FindRecipientNotification(db, notificationID, recipientID); err != nil {
		return 0, handleRepositoryError(err)
	}

	updated, err := s.notificationRepo.MarkAsRead(db, notificationID, recipientID, time.Now())
	if err != nil {
		return 0, handleRepositoryError(err)
	}
	s.unread.Invalidate(recipientID)
	return updated, nil
}

func (s *notificationService) MarkAllAsRead(db *gorm.DB, recipientID string) (int64, error) {
	updated, err := s.notificationRepo.MarkAllAsRead(db, recipientID, time.Now())
	if err != nil {
		return 0, handleRepositoryError(err)
	}
	s.unread.Invalidate(recipientID)

	logger.CtxDebug(contextOf(db), "Notifications marked as read", "recipient_id", recipientID, "updated", updated)
	return updated, nil
}

// UpdateMetadata заменяет metadata целиком
func (s *notificationService) UpdateMetadata(db *gorm.DB, recipientID, notificationID string, metadata map[string]interface{}) (*models.Notification, error) {
	notification, err := s.notificationRepo.FindRecipientNotification(db, notificationID, recipientID)
	if err != nil {
		return nil, handleRepositoryError(err)
	}

	raw, err := json.Marshal(metadata)
	if err != nil {
		return nil, apperrors.ValidationError(map[string]string{"metadata": "Must be a JSON object"})
	}

	if _, err := s.notificationRepo.ReplaceMetadata(db, notification.ID, recipientID, datatypes.JSON(raw)); err != nil {
		return nil, handleRepositoryError(err)
	}
	notification.Metadata = datatypes.JSON(raw)
	return notification, nil
}

// ReplyToNotification отвечает отправителю исходного уведомления.
// Исходное уведомление помечается прочитанным в любом случае;
// если отправителя определить нельзя или это сам вызывающий, ответ не создается.
func (s *notificationService) ReplyToNotification(db *gorm.DB, callerID, notificationID string, req *dto.ReplyRequest) (*dto.ReplyResponse, error) {
	text := strings.TrimSpace(req.Message)
	if text == "" {
		return nil, apperrors.ValidationError(map[string]string{"message": "This field is required"})
	}

	tx := db.Begin()
	if tx.Error != nil {
		return nil, apperrors.InternalError(tx.Error)
	}
	defer tx.Rollback()

	original, err := s.notificationRepo.FindRecipientNotification(tx, notificationID, callerID)
	if err != nil {
		return nil, handleRepositoryError(err)
	}

	if _, err := s.notificationRepo.MarkAsRead(tx, original.ID, callerID, time.Now()); err != nil {
		return nil, handleRepositoryError(err)
	}

	targetID, err := s.resolveReplyTarget(tx, original)
	if err != nil {
		return nil, handleRepositoryError(err)
	}

	ctx := contextOf(db)
	reason := ""
	switch {
	case targetID == "":
		reason = dto.ReplyReasonSenderUnknown
	case targetID == callerID:
		reason = dto.ReplyReasonSelf
	}
	if reason != "" {
		if err := tx.Commit().Error; err != nil {
			return nil, handleRepositoryError(err)
		}
		s.unread.Invalidate(callerID)
		logger.CtxInfo(ctx, "Reply not delivered", "notification_id", original.ID, "reason", reason)
		return &dto.ReplyResponse{Success: true, Delivered: false, Reason: reason}, nil
	}

	callerName := displayName(s.userRepo, tx, callerID, "Someone")
	reply, err := newNotification(
		targetID,
		stringPtr(callerID),
		models.NotificationTypeReply,
		fmt.Sprintf("Reply from %s", callerName),
		text,
		map[string]interface{}{
			"originalNotificationId": original.ID,
			"originalTitle":          original.Title,
		},
	)
	if err != nil {
		return nil, apperrors.InternalError(err)
	}
	if err := s.dispatcher.Enqueue(tx, reply); err != nil {
		return nil, handleRepositoryError(err)
	}

	if err := tx.Commit().Error; err != nil {
		return nil, handleRepositoryError(err)
	}

	s.unread.Invalidate(callerID)
	logger.CtxInfo(ctx, "Reply delivered", "notification_id", original.ID, "reply_id", reply.ID)
	s.dispatcher.Deliver(ctx, reply)
	return &dto.ReplyResponse{Success: true, Delivered: true, Notification: reply}, nil
}

// resolveReplyTarget: типизированный sender_id, затем старые ключи metadata,
// затем (только если включено) поиск по имени в начале текста.
// Пустая строка - отправитель не определен.
func (s *notificationService) resolveReplyTarget(tx *gorm.DB, n *models.Notification) (string, error) {
	if n.SenderID != nil && *n.SenderID != "" {
		id, err := s.existingUser(tx, *n.SenderID)
		if err != nil || id != "" {
			return id, err
		}
	}

	metadata := n.MetadataMap()
	for _, key := range legacySenderKeys {
		value, ok := metadata[key].(string)
		if !ok || strings.TrimSpace(value) == "" {
			continue
		}
		id, err := s.existingUser(tx, strings.TrimSpace(value))
		if err != nil || id != "" {
			return id, err
		}
	}

	if !s.settings.LegacyNameMatching {
		return "", nil
	}
	return s.matchLeadingName(tx, n.Message)
}

func (s *notificationService) existingUser(tx *gorm.DB, id string) (string, error) {
	user, err := s.userRepo.FindByID(tx, id)
	if err != nil {
		if errors.Is(err, repositories.ErrUserNotFound) {
			return "", nil
		}
		return "", err
	}
	return user.ID, nil
}

// matchLeadingName принимает только однозначное совпадение
func (s *notificationService) matchLeadingName(tx *gorm.DB, message string) (string, error) {
	match := leadingNamePattern.FindStringSubmatch(strings.TrimSpace(message))
	if len(match) < 2 {
		return "", nil
	}

	users, err := s.userRepo.FindByNameFragment(tx, match[1], 2)
	if err != nil {
		return "", err
	}
	if len(users) != 1 {
		return "", nil
	}
	return users[0].ID, nil
}

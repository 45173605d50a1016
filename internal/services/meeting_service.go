package services

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"curaconnect_backend/internal/logger"
	"curaconnect_backend/internal/models"
	"curaconnect_backend/internal/repositories"
	"curaconnect_backend/internal/services/dto"
	"curaconnect_backend/internal/validator"
	"curaconnect_backend/pkg/apperrors"

	"gorm.io/gorm"
)

// Причины эскалации встречи на администраторов
const (
	EscalationExpertUnavailable = "expert_unavailable"
	EscalationExternalExpert    = "external_expert"
)

type MeetingService interface {
	RequestMeeting(db *gorm.DB, requesterID string, req *dto.CreateMeetingRequest) (*models.MeetingRequest, error)
	RespondToMeeting(db *gorm.DB, meetingID, callerID string, req *dto.RespondMeetingRequest) (*models.MeetingRequest, error)
	ListMeetings(db *gorm.DB, userID, mailbox string) ([]models.MeetingRequest, error)
	GetMeeting(db *gorm.DB, meetingID, callerID string, callerRole models.UserRole) (*models.MeetingRequest, error)
}

type meetingService struct {
	meetingRepo repositories.MeetingRepository
	userRepo    repositories.UserRepository
	dispatcher  *NotificationDispatcher
	broadcaster AdminBroadcaster
}

func NewMeetingService(
	meetingRepo repositories.MeetingRepository,
	userRepo repositories.UserRepository,
	dispatcher *NotificationDispatcher,
	broadcaster AdminBroadcaster,
) MeetingService {
	return &meetingService{
		meetingRepo: meetingRepo,
		userRepo:    userRepo,
		dispatcher:  dispatcher,
		broadcaster: broadcaster,
	}
}

// RequestMeeting всегда создает PENDING запрос. Уведомление уходит эксперту,
// если он доступен для встреч, иначе всем администраторам.
func (s *meetingService) RequestMeeting(db *gorm.DB, requesterID string, req *dto.CreateMeetingRequest) (*models.MeetingRequest, error) {
	expertID := strings.TrimSpace(req.ExpertID)
	expertName := strings.TrimSpace(req.ExpertName)
	message := strings.TrimSpace(req.Message)

	if message == "" {
		return nil, apperrors.ValidationError(map[string]string{"message": "This field is required"})
	}
	if expertID == "" && expertName == "" {
		return nil, apperrors.ValidationError(map[string]string{"expertId": "This field is required when expertName is not provided"})
	}
	if _, err := time.Parse(validator.DateLayout, req.PreferredDate); err != nil {
		return nil, apperrors.ErrInvalidPreferredDate
	}
	if expertID != "" && expertID == requesterID {
		return nil, apperrors.ErrSelfMeeting
	}

	tx := db.Begin()
	if tx.Error != nil {
		return nil, apperrors.InternalError(tx.Error)
	}
	defer tx.Rollback()

	var expert *models.User
	if expertID != "" {
		found, err := s.userRepo.FindByID(tx, expertID)
		if err != nil && !errors.Is(err, repositories.ErrUserNotFound) {
			return nil, handleRepositoryError(err)
		}
		expert = found
	}
	if expert != nil && expertName == "" {
		expertName = expert.DisplayName()
	}

	meeting := &models.MeetingRequest{
		RequesterID:   requesterID,
		ExpertID:      expertID,
		ExpertName:    expertName,
		Message:       message,
		PreferredDate: req.PreferredDate,
		PreferredTime: req.PreferredTime,
		Status:        models.MeetingStatusPending,
	}
	if expert != nil && expert.AcceptsMeetings() {
		meeting.RoutedTo = models.MeetingRoutedToExpert
	} else {
		meeting.RoutedTo = models.MeetingRoutedToAdmins
	}

	if err := s.meetingRepo.Create(tx, meeting); err != nil {
		return nil, handleRepositoryError(err)
	}

	requesterName := displayName(s.userRepo, tx, requesterID, "A user")
	summary := fmt.Sprintf("%s would like to meet on %s", requesterName, meeting.PreferredDate)
	if meeting.PreferredTime != nil && *meeting.PreferredTime != "" {
		summary += " at " + *meeting.PreferredTime
	}

	var (
		direct    *models.Notification
		broadcast *AdminBroadcast
	)
	if meeting.RoutedTo == models.MeetingRoutedToExpert {
		n, err := newNotification(
			expert.ID,
			stringPtr(requesterID),
			models.NotificationTypeMeetingRequest,
			"New Meeting Request",
			summary,
			map[string]interface{}{
				"meetingRequestId": meeting.ID,
				"requesterId":      requesterID,
				"requesterName":    requesterName,
			},
		)
		if err != nil {
			return nil, apperrors.InternalError(err)
		}
		if err := s.dispatcher.Enqueue(tx, n); err != nil {
			return nil, handleRepositoryError(err)
		}
		direct = n
	} else {
		notice := s.escalationNotice(meeting, expert, requesterName, summary)
		b, err := s.broadcaster.Broadcast(tx, notice)
		if err != nil {
			return nil, handleRepositoryError(err)
		}
		broadcast = b
	}

	if err := tx.Commit().Error; err != nil {
		return nil, handleRepositoryError(err)
	}

	ctx := contextOf(db)
	logger.CtxInfo(ctx, "Meeting requested",
		"meeting_id", meeting.ID,
		"expert_id", meeting.ExpertID,
		"routed_to", meeting.RoutedTo,
	)
	if direct != nil {
		s.dispatcher.Deliver(ctx, direct)
	} else {
		s.broadcaster.Publish(ctx, broadcast)
	}
	return meeting, nil
}

func (s *meetingService) escalationNotice(meeting *models.MeetingRequest, expert *models.User, requesterName, summary string) AdminNotice {
	isExternal := expert == nil
	title := "Meeting Request (Expert Unavailable)"
	reason := EscalationExpertUnavailable
	if isExternal {
		title = "Meeting Request (External Expert)"
		reason = EscalationExternalExpert
	}

	expertLabel := meeting.ExpertName
	if expertLabel == "" {
		expertLabel = meeting.ExpertID
	}

	return AdminNotice{
		Type:     models.NotificationTypeMeetingRequest,
		Title:    title,
		Message:  fmt.Sprintf("%s with %s", summary, expertLabel),
		SenderID: stringPtr(meeting.RequesterID),
		Metadata: map[string]interface{}{
			"meetingRequestId": meeting.ID,
			"requesterId":      meeting.RequesterID,
			"requesterName":    requesterName,
			"expertId":         meeting.ExpertID,
			"expertName":       meeting.ExpertName,
			"isExternal":       isExternal,
			"reason":           reason,
		},
	}
}

func (s *meetingService) RespondToMeeting(db *gorm.DB, meetingID, callerID string, req *dto.RespondMeetingRequest) (*models.MeetingRequest, error) {
	var (
		status models.MeetingStatus
		typ    models.NotificationType
		title  string
		verb   string
	)
	switch req.Decision {
	case validator.MeetingDecisionAccept:
		status, typ, title, verb = models.MeetingStatusAccepted, models.NotificationTypeMeetingAccepted, "Meeting Request Accepted", "accepted"
	case validator.MeetingDecisionReject:
		status, typ, title, verb = models.MeetingStatusRejected, models.NotificationTypeMeetingRejected, "Meeting Request Declined", "declined"
	default:
		return nil, apperrors.ValidationError(map[string]string{"decision": "Must be one of: accept, reject"})
	}

	tx := db.Begin()
	if tx.Error != nil {
		return nil, apperrors.InternalError(tx.Error)
	}
	defer tx.Rollback()

	meeting, err := s.meetingRepo.FindByID(tx, meetingID)
	if err != nil {
		return nil, handleRepositoryError(err)
	}
	if meeting.ExpertID != callerID {
		return nil, apperrors.ErrNotMeetingExpert
	}
	if meeting.Status.IsTerminal() {
		return nil, apperrors.ErrMeetingAlreadyResolved
	}

	now := time.Now()
	updated, err := s.meetingRepo.Resolve(tx, meeting.ID, status, now)
	if err != nil {
		return nil, handleRepositoryError(err)
	}
	if !updated {
		return nil, apperrors.ErrMeetingAlreadyResolved
	}
	meeting.Status = status
	meeting.RespondedAt = &now
	meeting.UpdatedAt = now

	expertName := displayName(s.userRepo, tx, callerID, "The expert")
	notification, err := newNotification(
		meeting.RequesterID,
		stringPtr(callerID),
		typ,
		title,
		fmt.Sprintf("%s %s your meeting request for %s", expertName, verb, meeting.PreferredDate),
		map[string]interface{}{
			"meetingRequestId": meeting.ID,
			"expertId":         callerID,
			"decision":         req.Decision,
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
	logger.CtxInfo(ctx, "Meeting resolved", "meeting_id", meeting.ID, "status", meeting.Status)
	s.dispatcher.Deliver(ctx, notification)
	return meeting, nil
}

// ListMeetings: sent - запросы вызывающего, received - адресованные ему как эксперту
func (s *meetingService) ListMeetings(db *gorm.DB, userID, mailbox string) ([]models.MeetingRequest, error) {
	var (
		meetings []models.MeetingRequest
		err      error
	)
	if mailbox == validator.MailboxReceived {
		meetings, err = s.meetingRepo.FindByExpert(db, userID)
	} else {
		meetings, err = s.meetingRepo.FindByRequester(db, userID)
	}
	if err != nil {
		return nil, handleRepositoryError(err)
	}
	return meetings, nil
}

func (s *meetingService) GetMeeting(db *gorm.DB, meetingID, callerID string, callerRole models.UserRole) (*models.MeetingRequest, error) {
	meeting, err := s.meetingRepo.FindByID(db, meetingID)
	if err != nil {
		return nil, handleRepositoryError(err)
	}
	if meeting.RequesterID != callerID && meeting.ExpertID != callerID && callerRole != models.UserRoleAdmin {
		return nil, apperrors.ErrMeetingAccessDenied
	}
	return meeting, nil
}

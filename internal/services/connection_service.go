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

type ConnectionService interface {
	RequestConnection(db *gorm.DB, requesterID string, req *dto.CreateConnectionRequest) (*models.Connection, error)
	RespondToConnection(db *gorm.DB, connectionID, callerID string, req *dto.RespondConnectionRequest) (*models.Connection, error)
	ListConnections(db *gorm.DB, userID string, status models.ConnectionStatus) ([]models.Connection, error)
	GetConnectionStatus(db *gorm.DB, userID, otherID string) (*dto.ConnectionStatusResponse, error)
}

type connectionService struct {
	connectionRepo repositories.ConnectionRepository
	userRepo       repositories.UserRepository
	dispatcher     *NotificationDispatcher
}

func NewConnectionService(
	connectionRepo repositories.ConnectionRepository,
	userRepo repositories.UserRepository,
	dispatcher *NotificationDispatcher,
) ConnectionService {
	return &connectionService{
		connectionRepo: connectionRepo,
		userRepo:       userRepo,
		dispatcher:     dispatcher,
	}
}

func (s *connectionService) RequestConnection(db *gorm.DB, requesterID string, req *dto.CreateConnectionRequest) (*models.Connection, error) {
	targetID := strings.TrimSpace(req.TargetUserID)
	if targetID == "" {
		return nil, apperrors.ValidationError(map[string]string{"targetUserId": "This field is required"})
	}
	if targetID == requesterID {
		return nil, apperrors.ErrSelfConnection
	}

	tx := db.Begin()
	if tx.Error != nil {
		return nil, apperrors.InternalError(tx.Error)
	}
	defer tx.Rollback()

	target, err := s.userRepo.FindByID(tx, targetID)
	if err != nil {
		if errors.Is(err, repositories.ErrUserNotFound) {
			return nil, apperrors.ErrConnectionTargetNotFound
		}
		return nil, handleRepositoryError(err)
	}
	if target.Role != models.UserRoleResearcher {
		return nil, apperrors.ErrConnectionTargetNotResearcher
	}

	// Быстрая проверка; гонку двух одновременных запросов закрывает уникальный pair_key
	if _, err := s.connectionRepo.FindByPair(tx, requesterID, targetID); err == nil {
		return nil, apperrors.ErrConnectionExists
	} else if !errors.Is(err, repositories.ErrConnectionNotFound) {
		return nil, handleRepositoryError(err)
	}

	connection := &models.Connection{
		RequesterID: requesterID,
		RecipientID: targetID,
		Status:      models.ConnectionStatusPending,
	}
	if err := s.connectionRepo.Create(tx, connection); err != nil {
		return nil, handleRepositoryError(err)
	}

	requesterName := displayName(s.userRepo, tx, requesterID, "A researcher")
	notification, err := newNotification(
		targetID,
		stringPtr(requesterID),
		models.NotificationTypeConnectionRequest,
		"New Connection Request",
		fmt.Sprintf("%s wants to connect with you", requesterName),
		map[string]interface{}{
			"connectionId":  connection.ID,
			"requesterId":   requesterID,
			"requesterName": requesterName,
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
	logger.CtxInfo(ctx, "Connection requested", "connection_id", connection.ID, "recipient_id", targetID)
	s.dispatcher.Deliver(ctx, notification)
	return connection, nil
}

func (s *connectionService) RespondToConnection(db *gorm.DB, connectionID, callerID string, req *dto.RespondConnectionRequest) (*models.Connection, error) {
	// Отклонения у связей нет, принимаем только accept
	if req.Action != validator.ConnectionActionAccept {
		return nil, apperrors.ErrInvalidConnectionAction
	}

	tx := db.Begin()
	if tx.Error != nil {
		return nil, apperrors.InternalError(tx.Error)
	}
	defer tx.Rollback()

	connection, err := s.connectionRepo.FindByID(tx, connectionID)
	if err != nil {
		return nil, handleRepositoryError(err)
	}
	if connection.RecipientID != callerID {
		return nil, apperrors.ErrNotConnectionRecipient
	}
	if connection.Status == models.ConnectionStatusAccepted {
		return nil, apperrors.ErrConnectionAlreadyAccepted
	}

	now := time.Now()
	updated, err := s.connectionRepo.AcceptPending(tx, connection.ID, now)
	if err != nil {
		return nil, handleRepositoryError(err)
	}
	if !updated {
		return nil, apperrors.ErrConnectionAlreadyAccepted
	}
	connection.Status = models.ConnectionStatusAccepted
	connection.AcceptedAt = &now
	connection.UpdatedAt = now

	recipientName := displayName(s.userRepo, tx, callerID, "A researcher")
	notification, err := newNotification(
		connection.RequesterID,
		stringPtr(callerID),
		models.NotificationTypeConnectionAccepted,
		"Connection Accepted",
		fmt.Sprintf("%s accepted your connection request", recipientName),
		map[string]interface{}{
			"connectionId":  connection.ID,
			"recipientId":   callerID,
			"recipientName": recipientName,
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
	logger.CtxInfo(ctx, "Connection accepted", "connection_id", connection.ID)
	s.dispatcher.Deliver(ctx, notification)
	return connection, nil
}

func (s *connectionService) ListConnections(db *gorm.DB, userID string, status models.ConnectionStatus) ([]models.Connection, error) {
	connections, err := s.connectionRepo.FindForUser(db, userID, status)
	if err != nil {
		return nil, handleRepositoryError(err)
	}
	return connections, nil
}

func (s *connectionService) GetConnectionStatus(db *gorm.DB, userID, otherID string) (*dto.ConnectionStatusResponse, error) {
	resp := &dto.ConnectionStatusResponse{Success: true, Status: dto.ConnectionStateNone}
	if otherID == "" || otherID == userID {
		return resp, nil
	}

	connection, err := s.connectionRepo.FindByPair(db, userID, otherID)
	if err != nil {
		if errors.Is(err, repositories.ErrConnectionNotFound) {
			return resp, nil
		}
		return nil, handleRepositoryError(err)
	}

	resp.Status = string(connection.Status)
	resp.ConnectionID = connection.ID
	if connection.RequesterID == userID {
		resp.Direction = dto.ConnectionDirectionOutgoing
	} else {
		resp.Direction = dto.ConnectionDirectionIncoming
	}
	return resp, nil
}

package services

import (
	"errors"

	"curaconnect_backend/internal/repositories"
	"curaconnect_backend/pkg/apperrors"

	"gorm.io/gorm"
)

// handleRepositoryError переводит sentinel-ошибки репозиториев в AppError.
// Все неизвестное - 500, причина остается только в логе.
func handleRepositoryError(err error) error {
	if err == nil {
		return nil
	}
	if _, ok := apperrors.AsAppError(err); ok {
		return err
	}

	switch {
	case errors.Is(err, repositories.ErrConnectionNotFound):
		return apperrors.ErrConnectionNotFound.WithError(err)
	case errors.Is(err, repositories.ErrMeetingNotFound):
		return apperrors.ErrMeetingNotFound.WithError(err)
	case errors.Is(err, repositories.ErrNotificationNotFound):
		return apperrors.ErrNotificationNotFound.WithError(err)
	case errors.Is(err, repositories.ErrUserNotFound):
		return apperrors.ErrUserNotFound.WithError(err)
	case errors.Is(err, repositories.ErrConnectionExists):
		return apperrors.ErrConnectionExists.WithError(err)
	case errors.Is(err, repositories.ErrFollowExists):
		return apperrors.ErrAlreadyFollowing.WithError(err)
	case errors.Is(err, repositories.ErrInvalidNotificationData):
		return apperrors.ErrInvalidNotificationType.WithError(err)
	case errors.Is(err, gorm.ErrRecordNotFound):
		return apperrors.ErrNotFound(err)
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return apperrors.ErrAlreadyExists(err)
	}
	return apperrors.InternalError(err)
}

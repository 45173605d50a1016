package apperrors

import (
	"net/http"
)

// =========================================================================
// Фабричные ФУНКЦИИ (для оборачивания ошибок репозиториев)
// =========================================================================

// ErrNotFound - фабрика для ошибки "не найдено" (404)
func ErrNotFound(err error) *AppError {
	return Wrap(err, CodeNotFound, "resource", "Resource not found", http.StatusNotFound)
}

// ErrAlreadyExists - фабрика для ошибки "уже существует" (409)
func ErrAlreadyExists(err error) *AppError {
	return Wrap(err, CodeAlreadyExists, "resource", "Resource already exists", http.StatusConflict)
}

// ErrConflict - общая фабрика для конфликтов (409)
func ErrConflict(err error, domain, message string) *AppError {
	return Wrap(err, CodeConflict, domain, message, http.StatusConflict)
}

// ErrInvalidOperation - фабрика для невалидных операций (400)
func ErrInvalidOperation(domain, message string) *AppError {
	return New(CodeInvalidOperation, domain, message, http.StatusBadRequest)
}

// =========================================================================
// Предопределенные ПЕРЕМЕННЫЕ
// =========================================================================

// --- Identity ---

var ErrAuthenticationRequired = New(
	CodeUnauthorized,
	"auth",
	"Authentication required",
	http.StatusUnauthorized,
)

var ErrInvalidToken = New(
	CodeInvalidToken,
	"auth",
	"Invalid or expired token",
	http.StatusUnauthorized,
)

var ErrInsufficientPermissions = New(
	CodeForbidden,
	"auth",
	"Insufficient permissions",
	http.StatusForbidden,
)

var ErrUserNotFound = New(
	CodeNotFound,
	"user",
	"User not found",
	http.StatusNotFound,
)

// --- Connections ---

var ErrSelfConnection = New(
	CodeInvalidOperation,
	"connection",
	"You cannot connect with yourself",
	http.StatusBadRequest,
)

var ErrConnectionTargetNotFound = New(
	CodeNotFound,
	"connection",
	"Target must be a registered user",
	http.StatusNotFound,
)

var ErrConnectionTargetNotResearcher = New(
	CodeInvalidOperation,
	"connection",
	"Connections are only available between researchers",
	http.StatusBadRequest,
)

var ErrConnectionExists = New(
	CodeConflict,
	"connection",
	"A connection between these users already exists",
	http.StatusConflict,
)

var ErrConnectionNotFound = New(
	CodeNotFound,
	"connection",
	"Connection not found",
	http.StatusNotFound,
)

var ErrNotConnectionRecipient = New(
	CodeForbidden,
	"connection",
	"Only the recipient can respond to this connection request",
	http.StatusForbidden,
)

var ErrConnectionAlreadyAccepted = New(
	CodeInvalidStatus,
	"connection",
	"Connection request has already been accepted",
	http.StatusConflict,
)

var ErrInvalidConnectionAction = New(
	CodeValidationFailed,
	"connection",
	"Unsupported action, only 'accept' is allowed",
	http.StatusBadRequest,
)

// --- Follows ---

var ErrSelfFollow = New(
	CodeInvalidOperation,
	"follow",
	"You cannot follow yourself",
	http.StatusBadRequest,
)

var ErrAlreadyFollowing = New(
	CodeConflict,
	"follow",
	"You are already following this user",
	http.StatusConflict,
)

// --- Meetings ---

var ErrSelfMeeting = New(
	CodeInvalidOperation,
	"meeting",
	"You cannot request a meeting with yourself",
	http.StatusBadRequest,
)

var ErrInvalidPreferredDate = New(
	CodeValidationFailed,
	"meeting",
	"preferredDate must be a valid date in YYYY-MM-DD format",
	http.StatusBadRequest,
)

var ErrMeetingNotFound = New(
	CodeNotFound,
	"meeting",
	"Meeting request not found",
	http.StatusNotFound,
)

var ErrNotMeetingExpert = New(
	CodeForbidden,
	"meeting",
	"Only the requested expert can respond to this meeting request",
	http.StatusForbidden,
)

var ErrMeetingAccessDenied = New(
	CodeForbidden,
	"meeting",
	"You are not a participant of this meeting request",
	http.StatusForbidden,
)

var ErrMeetingAlreadyResolved = New(
	CodeInvalidStatus,
	"meeting",
	"Meeting request has already been answered",
	http.StatusConflict,
)

// --- Notifications ---

var ErrNotificationNotFound = New(
	CodeNotFound,
	"notification",
	"Notification not found",
	http.StatusNotFound,
)

var ErrInvalidNotificationType = New(
	CodeValidationFailed,
	"notification",
	"Invalid notification type",
	http.StatusBadRequest,
)

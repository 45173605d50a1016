package auth

import (
	"errors"

	"curaconnect_backend/internal/models"
)

// Разрешения, которые проверяет RequirePermission
const (
	PermConnectionsManage    = "connections:manage"
	PermFollowsManage        = "follows:manage"
	PermMeetingsRequest      = "meetings:request"
	PermMeetingsRespond      = "meetings:respond"
	PermNotificationsRead    = "notifications:read"
	PermFollowRequestsReview = "follow_requests:review"
)

// Permissions - RBAC матрица по ролям
var Permissions = map[models.UserRole][]string{
	models.UserRoleAdmin: {
		PermFollowsManage,
		PermMeetingsRespond,
		PermNotificationsRead,
		PermFollowRequestsReview,
	},
	models.UserRoleResearcher: {
		PermConnectionsManage,
		PermFollowsManage,
		PermMeetingsRequest,
		PermMeetingsRespond,
		PermNotificationsRead,
	},
	models.UserRolePatient: {
		PermFollowsManage,
		PermMeetingsRequest,
		PermNotificationsRead,
	},
}

// HasPermission проверяет есть ли у роли указанное разрешение
func HasPermission(role models.UserRole, permission string) bool {
	permissions, exists := Permissions[role]
	if !exists {
		return false
	}

	for _, p := range permissions {
		if p == permission {
			return true
		}
	}
	return false
}

// CanPerformAction проверяет может ли владелец токена выполнить действие
func CanPerformAction(claims *Claims, permission string) bool {
	return HasPermission(models.UserRole(claims.Role), permission)
}

// IsAdmin проверяет является ли пользователь администратором
func IsAdmin(claims *Claims) bool {
	return models.UserRole(claims.Role) == models.UserRoleAdmin
}

// ValidateRole проверяет валидность роли
func ValidateRole(role string) error {
	if !models.UserRole(role).IsValid() {
		return errors.New("invalid role")
	}
	return nil
}

package middleware

import (
	"strings"

	"curaconnect_backend/internal/auth"
	"curaconnect_backend/internal/config"
	"curaconnect_backend/internal/logger"
	"curaconnect_backend/internal/models"
	"curaconnect_backend/pkg/apperrors"
	"curaconnect_backend/pkg/contextkeys"

	"github.com/gin-gonic/gin"
)

// AuthMiddleware - middleware проверки JWT.
// Токен ищется в cookie (в порядке cfg.JWT.CookieNames), затем в Authorization: Bearer.
func AuthMiddleware(cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenStr := extractToken(c, cfg.JWT.CookieNames)
		if tokenStr == "" {
			apperrors.HandleError(c, apperrors.ErrAuthenticationRequired)
			return
		}

		claims, err := verify(cfg.JWT.Secret, tokenStr)
		if err != nil {
			logger.CtxDebug(c.Request.Context(), "Token rejected", "error", err)
			apperrors.HandleError(c, apperrors.ErrInvalidToken)
			return
		}

		setIdentity(c, claims)
		c.Next()
	}
}

// RoleMiddleware - middleware ограничения по ролям
func RoleMiddleware(requiredRole models.UserRole) gin.HandlerFunc {
	return RequireRoles(requiredRole)
}

// RequireRoles - middleware для проверки нескольких возможных ролей
func RequireRoles(roles ...models.UserRole) gin.HandlerFunc {
	roleSet := make(map[models.UserRole]bool)
	for _, r := range roles {
		roleSet[r] = true
	}

	return func(c *gin.Context) {
		role, ok := GetUserRole(c)
		if !ok {
			apperrors.HandleError(c, apperrors.ErrAuthenticationRequired)
			return
		}
		if !roleSet[role] {
			apperrors.HandleError(c, apperrors.ErrInsufficientPermissions)
			return
		}
		c.Next()
	}
}

// RequirePermission проверяет разрешение по RBAC матрице из пакета auth
func RequirePermission(permission string) gin.HandlerFunc {
	return func(c *gin.Context) {
		role, ok := GetUserRole(c)
		if !ok {
			apperrors.HandleError(c, apperrors.ErrAuthenticationRequired)
			return
		}
		if !auth.HasPermission(role, permission) {
			apperrors.HandleError(c, apperrors.ErrInsufficientPermissions)
			return
		}
		c.Next()
	}
}

// GetUserID извлекает ID пользователя из контекста
func GetUserID(c *gin.Context) string {
	userID, exists := c.Get(contextkeys.UserIDKey)
	if !exists {
		return ""
	}

	id, ok := userID.(string)
	if !ok {
		return ""
	}

	return id
}

// GetUserRole извлекает роль пользователя из контекста
func GetUserRole(c *gin.Context) (models.UserRole, bool) {
	roleVal, exists := c.Get(contextkeys.UserRoleKey)
	if !exists {
		return "", false
	}
	role, ok := roleVal.(models.UserRole)
	return role, ok
}

func extractToken(c *gin.Context, cookieNames []string) string {
	for _, name := range cookieNames {
		if value, err := c.Cookie(name); err == nil && value != "" {
			return value
		}
	}

	authHeader := c.GetHeader("Authorization")
	if strings.HasPrefix(authHeader, "Bearer ") {
		return strings.TrimSpace(strings.TrimPrefix(authHeader, "Bearer "))
	}
	return ""
}

func verify(secret, tokenStr string) (*auth.Claims, error) {
	claims, err := auth.ParseToken(secret, tokenStr)
	if err != nil {
		return nil, err
	}
	if err := auth.ValidateRole(claims.Role); err != nil {
		return nil, err
	}
	return claims, nil
}

func setIdentity(c *gin.Context, claims *auth.Claims) {
	c.Set(contextkeys.UserIDKey, claims.UserID)
	c.Set(contextkeys.UserRoleKey, models.UserRole(claims.Role))
	c.Set(contextkeys.UserEmailKey, claims.Email)

	ctx := logger.WithUserID(c.Request.Context(), claims.UserID)
	c.Request = c.Request.WithContext(ctx)
}

package auth

import (
	"testing"
	"time"

	"curaconnect_backend/internal/models"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const secret = "unit_test_secret"

func TestGenerateAndParseToken(t *testing.T) {
	tok, err := GenerateToken(secret, "user-1", "a@test.com", "researcher", time.Hour)
	require.NoError(t, err)

	claims, err := ParseToken(secret, tok)
	require.NoError(t, err)
	assert.Equal(t, "user-1", claims.UserID)
	assert.Equal(t, "a@test.com", claims.Email)
	assert.Equal(t, "researcher", claims.Role)
	assert.True(t, CanPerformAction(claims, PermConnectionsManage))
	assert.False(t, IsAdmin(claims))
}

func TestParseToken_Rejects(t *testing.T) {
	expired, err := GenerateToken(secret, "user-1", "", "patient", -time.Minute)
	require.NoError(t, err)

	forged, err := GenerateToken("other_secret", "user-1", "", "patient", time.Hour)
	require.NoError(t, err)

	// none-алгоритм не принимаем
	unsigned, err := jwt.NewWithClaims(jwt.SigningMethodNone, Claims{UserID: "user-1"}).SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	noSubject, err := GenerateToken(secret, "", "", "patient", time.Hour)
	require.NoError(t, err)

	for name, tok := range map[string]string{
		"empty":      "",
		"garbage":    "abc.def.ghi",
		"expired":    expired,
		"forged":     forged,
		"unsigned":   unsigned,
		"no user id": noSubject,
	} {
		t.Run(name, func(t *testing.T) {
			_, err := ParseToken(secret, tok)
			assert.ErrorIs(t, err, ErrInvalidToken)
		})
	}
}

func TestMissingSecret(t *testing.T) {
	_, err := GenerateToken("", "user-1", "", "patient", time.Hour)
	assert.ErrorIs(t, err, ErrMissingSecret)

	_, err = ParseToken("", "anything")
	assert.ErrorIs(t, err, ErrMissingSecret)
}

func TestPermissionsMatrix(t *testing.T) {
	assert.True(t, HasPermission(models.UserRoleResearcher, PermConnectionsManage))
	assert.False(t, HasPermission(models.UserRolePatient, PermConnectionsManage))
	assert.False(t, HasPermission(models.UserRoleAdmin, PermConnectionsManage))

	assert.True(t, HasPermission(models.UserRolePatient, PermMeetingsRequest))
	assert.False(t, HasPermission(models.UserRolePatient, PermMeetingsRespond))

	assert.True(t, HasPermission(models.UserRoleAdmin, PermFollowRequestsReview))
	assert.False(t, HasPermission(models.UserRoleResearcher, PermFollowRequestsReview))

	for _, role := range []models.UserRole{models.UserRolePatient, models.UserRoleResearcher, models.UserRoleAdmin} {
		assert.True(t, HasPermission(role, PermNotificationsRead), role)
		assert.NoError(t, ValidateRole(string(role)))
	}
	assert.False(t, HasPermission("guest", PermNotificationsRead))
	assert.Error(t, ValidateRole("guest"))

	assert.True(t, IsAdmin(&Claims{Role: "admin"}))
}

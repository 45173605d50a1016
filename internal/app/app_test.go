package app

import (
	"net/http"
	"testing"

	"curaconnect_backend/internal/models"
	"curaconnect_backend/internal/repositories"
	"curaconnect_backend/internal/services/dto"
	"curaconnect_backend/internal/testutil"
	"curaconnect_backend/pkg/apperrors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHealth(t *testing.T) {
	ts := NewTestServer(t)
	res, body := ts.SendRequest(t, http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusOK, res.StatusCode)
	assert.Contains(t, body, "ok")
	assert.NotEmpty(t, res.Header.Get("X-Request-ID"))
}

func TestAPI_RequiresAuthentication(t *testing.T) {
	ts := NewTestServer(t)

	for _, path := range []string{"/api/v1/notifications", "/api/v1/connections", "/api/v1/follows/following", "/api/v1/meetings", "/api/v1/admin/follow-requests"} {
		res, body := ts.SendRequest(t, http.MethodGet, path, "", nil)
		assert.Equal(t, http.StatusUnauthorized, res.StatusCode, path)
		resp := decode[apperrors.ErrorResponse](t, body)
		assert.False(t, resp.Success)
		assert.Equal(t, apperrors.CodeUnauthorized, resp.Code)
	}

	res, _ := ts.SendRequest(t, http.MethodGet, "/api/v1/notifications", "not-a-token", nil)
	assert.Equal(t, http.StatusUnauthorized, res.StatusCode)
}

func TestConnectionFlow(t *testing.T) {
	ts := NewTestServer(t)
	alice := testutil.CreateResearcher(t, ts.DB, "Alice Moreau", true)
	bob := testutil.CreateResearcher(t, ts.DB, "Bob Lang", true)
	patient := testutil.CreatePatient(t, ts.DB, "Paula Patient")
	aliceToken := testutil.TokenFor(t, ts.Config, alice)
	bobToken := testutil.TokenFor(t, ts.Config, bob)

	// 1. Пациенту связи недоступны
	res, _ := ts.SendRequest(t, http.MethodPost, "/api/v1/connections", testutil.TokenFor(t, ts.Config, patient), map[string]string{"targetUserId": alice.ID})
	assert.Equal(t, http.StatusForbidden, res.StatusCode)

	// 2. Запрос без тела
	res, body := ts.SendRequest(t, http.MethodPost, "/api/v1/connections", aliceToken, map[string]string{})
	assert.Equal(t, http.StatusBadRequest, res.StatusCode)
	assert.Equal(t, apperrors.CodeValidationFailed, decode[apperrors.ErrorResponse](t, body).Code)

	// 3. Запрос связи
	res, body = ts.SendRequest(t, http.MethodPost, "/api/v1/connections", aliceToken, map[string]string{"targetUserId": bob.ID})
	require.Equal(t, http.StatusCreated, res.StatusCode, body)
	created := decode[dto.ConnectionResponse](t, body)
	assert.Equal(t, models.ConnectionStatusPending, created.Connection.Status)

	res, _ = ts.SendRequest(t, http.MethodPost, "/api/v1/connections", bobToken, map[string]string{"targetUserId": alice.ID})
	assert.Equal(t, http.StatusConflict, res.StatusCode)

	// 4. Bob видит уведомление (cookie-аутентификация)
	res, body = ts.SendRequestWithCookie(t, http.MethodGet, "/api/v1/notifications", "auth_token", bobToken, nil)
	require.Equal(t, http.StatusOK, res.StatusCode)
	list := decode[dto.NotificationListResponse](t, body)
	require.Len(t, list.Notifications, 1)
	assert.EqualValues(t, 1, list.UnreadCount)
	assert.Equal(t, models.NotificationTypeConnectionRequest, list.Notifications[0].Type)

	// 5. Только получатель может принять
	path := "/api/v1/connections/" + created.Connection.ID
	res, _ = ts.SendRequest(t, http.MethodPut, path, aliceToken, map[string]string{"action": "accept"})
	assert.Equal(t, http.StatusForbidden, res.StatusCode)

	res, _ = ts.SendRequest(t, http.MethodPut, path, bobToken, map[string]string{"action": "decline"})
	assert.Equal(t, http.StatusBadRequest, res.StatusCode)

	res, body = ts.SendRequest(t, http.MethodPut, path, bobToken, map[string]string{"action": "accept"})
	require.Equal(t, http.StatusOK, res.StatusCode, body)
	assert.Equal(t, models.ConnectionStatusAccepted, decode[dto.ConnectionResponse](t, body).Connection.Status)

	res, _ = ts.SendRequest(t, http.MethodPut, path, bobToken, map[string]string{"action": "accept"})
	assert.Equal(t, http.StatusConflict, res.StatusCode)

	// 6. Статус и список
	res, body = ts.SendRequest(t, http.MethodGet, "/api/v1/connections/status/"+bob.ID, aliceToken, nil)
	require.Equal(t, http.StatusOK, res.StatusCode)
	status := decode[dto.ConnectionStatusResponse](t, body)
	assert.Equal(t, "accepted", status.Status)
	assert.Equal(t, dto.ConnectionDirectionOutgoing, status.Direction)

	res, body = ts.SendRequest(t, http.MethodGet, "/api/v1/connections?status=accepted", aliceToken, nil)
	require.Equal(t, http.StatusOK, res.StatusCode)
	assert.Len(t, decode[dto.ConnectionListResponse](t, body).Connections, 1)

	res, _ = ts.SendRequest(t, http.MethodGet, "/api/v1/connections?status=rejected", aliceToken, nil)
	assert.Equal(t, http.StatusBadRequest, res.StatusCode)
}

func TestFollowFlow(t *testing.T) {
	ts := NewTestServer(t)
	patient := testutil.CreatePatient(t, ts.DB, "Paula Patient")
	researcher := testutil.CreateResearcher(t, ts.DB, "Rita Researcher", true)
	admin := testutil.CreateAdmin(t, ts.DB, "Admin")
	patientToken := testutil.TokenFor(t, ts.Config, patient)
	adminToken := testutil.TokenFor(t, ts.Config, admin)

	res, body := ts.SendRequest(t, http.MethodPost, "/api/v1/follows", patientToken, map[string]string{"targetId": researcher.ID})
	require.Equal(t, http.StatusCreated, res.StatusCode, body)

	res, _ = ts.SendRequest(t, http.MethodPost, "/api/v1/follows", patientToken, map[string]string{"targetId": researcher.ID})
	assert.Equal(t, http.StatusConflict, res.StatusCode)

	res, body = ts.SendRequest(t, http.MethodGet, "/api/v1/follows/"+researcher.ID, patientToken, nil)
	require.Equal(t, http.StatusOK, res.StatusCode)
	assert.True(t, decode[dto.FollowStatusResponse](t, body).IsFollowing)

	// Незарегистрированная цель уходит администраторам
	res, body = ts.SendRequest(t, http.MethodPost, "/api/v1/follows", patientToken, map[string]string{
		"targetId":   "orcid-0000-0003",
		"targetName": "Dr. External",
	})
	require.Equal(t, http.StatusAccepted, res.StatusCode, body)
	pending := decode[dto.PendingFollowResponse](t, body)
	assert.True(t, pending.PendingReview)

	res, _ = ts.SendRequest(t, http.MethodGet, "/api/v1/admin/follow-requests", patientToken, nil)
	assert.Equal(t, http.StatusForbidden, res.StatusCode)

	res, body = ts.SendRequest(t, http.MethodGet, "/api/v1/admin/follow-requests?page=1&page_size=10", adminToken, nil)
	require.Equal(t, http.StatusOK, res.StatusCode, body)
	requests := decode[dto.FollowRequestListResponse](t, body)
	assert.EqualValues(t, 1, requests.Total)
	assert.Equal(t, 10, requests.PageSize)

	res, body = ts.SendRequest(t, http.MethodGet, "/api/v1/notifications/unread-count", adminToken, nil)
	require.Equal(t, http.StatusOK, res.StatusCode)
	assert.EqualValues(t, 1, decode[dto.UnreadCountResponse](t, body).UnreadCount)

	// Unfollow идемпотентен
	res, body = ts.SendRequest(t, http.MethodDelete, "/api/v1/follows/"+researcher.ID, patientToken, nil)
	require.Equal(t, http.StatusOK, res.StatusCode)
	assert.True(t, decode[dto.UnfollowResponse](t, body).Removed)

	res, body = ts.SendRequest(t, http.MethodDelete, "/api/v1/follows/"+researcher.ID, patientToken, nil)
	require.Equal(t, http.StatusOK, res.StatusCode)
	assert.False(t, decode[dto.UnfollowResponse](t, body).Removed)
}

func TestMeetingAndReplyFlow(t *testing.T) {
	ts := NewTestServer(t)
	patient := testutil.CreatePatient(t, ts.DB, "Paula Patient")
	expert := testutil.CreateResearcher(t, ts.DB, "Eva Expert", true)
	patientToken := testutil.TokenFor(t, ts.Config, patient)
	expertToken := testutil.TokenFor(t, ts.Config, expert)

	res, body := ts.SendRequest(t, http.MethodPost, "/api/v1/meetings", patientToken, map[string]string{
		"expertId":      expert.ID,
		"message":       "Can we talk?",
		"preferredDate": "20-11-2026",
	})
	assert.Equal(t, http.StatusBadRequest, res.StatusCode)
	assert.Contains(t, body, "preferredDate")

	res, body = ts.SendRequest(t, http.MethodPost, "/api/v1/meetings", patientToken, map[string]string{
		"expertId":      expert.ID,
		"message":       "Can we talk?",
		"preferredDate": "2026-11-20",
		"preferredTime": "10:00",
	})
	require.Equal(t, http.StatusCreated, res.StatusCode, body)
	meeting := decode[dto.MeetingResponse](t, body).Meeting
	assert.Equal(t, models.MeetingRoutedToExpert, meeting.RoutedTo)

	res, body = ts.SendRequest(t, http.MethodGet, "/api/v1/meetings?role=received", expertToken, nil)
	require.Equal(t, http.StatusOK, res.StatusCode)
	assert.Len(t, decode[dto.MeetingListResponse](t, body).Meetings, 1)

	// Пациент не может отвечать на встречи
	res, _ = ts.SendRequest(t, http.MethodPut, "/api/v1/meetings/"+meeting.ID+"/respond", patientToken, map[string]string{"decision": "accept"})
	assert.Equal(t, http.StatusForbidden, res.StatusCode)

	res, body = ts.SendRequest(t, http.MethodPut, "/api/v1/meetings/"+meeting.ID+"/respond", expertToken, map[string]string{"decision": "accept"})
	require.Equal(t, http.StatusOK, res.StatusCode, body)
	assert.Equal(t, models.MeetingStatusAccepted, decode[dto.MeetingResponse](t, body).Meeting.Status)

	// Пациент отвечает на уведомление о принятии
	res, body = ts.SendRequest(t, http.MethodGet, "/api/v1/notifications", patientToken, nil)
	require.Equal(t, http.StatusOK, res.StatusCode)
	inbox := decode[dto.NotificationListResponse](t, body).Notifications
	require.Len(t, inbox, 1)
	assert.Equal(t, models.NotificationTypeMeetingAccepted, inbox[0].Type)

	res, body = ts.SendRequest(t, http.MethodPost, "/api/v1/notifications/"+inbox[0].ID+"/reply", patientToken, map[string]string{"message": "See you then"})
	require.Equal(t, http.StatusCreated, res.StatusCode, body)
	assert.True(t, decode[dto.ReplyResponse](t, body).Delivered)

	// Ответ помечает исходное уведомление прочитанным
	res, body = ts.SendRequest(t, http.MethodGet, "/api/v1/notifications/unread-count", patientToken, nil)
	require.Equal(t, http.StatusOK, res.StatusCode)
	assert.Zero(t, decode[dto.UnreadCountResponse](t, body).UnreadCount)

	res, body = ts.SendRequest(t, http.MethodPut, "/api/v1/notifications/"+inbox[0].ID+"/read", patientToken, nil)
	require.Equal(t, http.StatusOK, res.StatusCode)
	assert.Zero(t, decode[dto.MarkReadResponse](t, body).Updated)

	res, body = ts.SendRequest(t, http.MethodGet, "/api/v1/notifications", expertToken, nil)
	require.Equal(t, http.StatusOK, res.StatusCode)
	expertInbox := decode[dto.NotificationListResponse](t, body).Notifications
	require.Len(t, expertInbox, 2)

	// Чужое уведомление - 404
	res, _ = ts.SendRequest(t, http.MethodPut, "/api/v1/notifications/"+expertInbox[0].ID+"/read", patientToken, nil)
	assert.Equal(t, http.StatusNotFound, res.StatusCode)

	res, body = ts.SendRequest(t, http.MethodPut, "/api/v1/notifications/read-all", expertToken, nil)
	require.Equal(t, http.StatusOK, res.StatusCode)
	assert.EqualValues(t, 2, decode[dto.MarkReadResponse](t, body).Updated)

	res, body = ts.SendRequest(t, http.MethodPatch, "/api/v1/notifications/"+expertInbox[0].ID+"/metadata", expertToken, map[string]any{
		"metadata": map[string]any{"archived": true},
	})
	require.Equal(t, http.StatusOK, res.StatusCode, body)
	assert.Equal(t, true, decode[dto.NotificationResponse](t, body).Notification.MetadataMap()["archived"])
}

func TestSeedFirstAdmin(t *testing.T) {
	db := testutil.NewTestDB(t)
	cfg := testutil.TestConfig()

	require.NoError(t, seedFirstAdmin(db, cfg), "без email сидирование пропускается")
	count, err := repositories.NewUserRepository().CountByRole(db, models.UserRoleAdmin)
	require.NoError(t, err)
	assert.Zero(t, count)

	cfg.FirstAdmin.Email = "Root@CuraConnect.test"
	require.NoError(t, seedFirstAdmin(db, cfg))
	require.NoError(t, seedFirstAdmin(db, cfg), "повторный запуск не создает дубликат")

	admins, err := repositories.NewUserRepository().FindByRole(db, models.UserRoleAdmin)
	require.NoError(t, err)
	require.Len(t, admins, 1)
	assert.Equal(t, "root@curaconnect.test", admins[0].Email)
	assert.Equal(t, "Platform Administrator", admins[0].Name)
}

func TestMockEmailProvider(t *testing.T) {
	testutil.NewTestDB(t) // глушит логгер
	m := &MockEmailProvider{}
	require.NoError(t, m.SendTemplate([]string{"a@test.com"}, "Subject", "admin_escalation", nil))
	sent := m.Sent()
	require.Len(t, sent, 1)
	assert.Equal(t, "admin_escalation", sent[0].Template)
	assert.NoError(t, m.Validate())
}

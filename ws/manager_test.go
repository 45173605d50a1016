package ws

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"curaconnect_backend/internal/middleware"
	"curaconnect_backend/internal/models"
	"curaconnect_backend/internal/services"
	"curaconnect_backend/internal/services/dto"
	"curaconnect_backend/internal/testutil"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

const allowedOrigin = "http://app.curaconnect.test"

type wsEnv struct {
	server   *httptest.Server
	manager  *WebSocketManager
	db       *gorm.DB
	services *services.ServiceContainer
	token    func(*models.User) string
	cancel   context.CancelFunc
}

func newWSEnv(t *testing.T) *wsEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)

	cfg := testutil.TestConfig()
	db := testutil.NewTestDB(t)
	container := services.NewServiceContainer(cfg, nil)

	manager := NewWebSocketManager(db, container.NotificationService)
	container.Dispatcher.SetRealtime(manager)

	ctx, cancel := context.WithCancel(context.Background())
	go manager.Run(ctx)

	handler := NewWebSocketHandler(manager, []string{allowedOrigin})
	router := gin.New()
	router.GET("/ws", middleware.AuthMiddleware(cfg), handler.ServeWS)

	server := httptest.NewServer(router)
	t.Cleanup(func() {
		cancel()
		server.Close()
	})

	return &wsEnv{
		server:   server,
		manager:  manager,
		db:       db,
		services: container,
		token:    func(u *models.User) string { return testutil.TokenFor(t, cfg, u) },
		cancel:   cancel,
	}
}

func (e *wsEnv) dial(t *testing.T, user *models.User) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(e.server.URL, "http") + "/ws"
	header := http.Header{}
	header.Set("Authorization", "Bearer "+e.token(user))
	header.Set("Origin", allowedOrigin)

	conn, _, err := websocket.DefaultDialer.Dial(url, header)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })

	require.Eventually(t, func() bool { return e.manager.IsUserConnected(user.ID) }, time.Second, 5*time.Millisecond)
	return conn
}

type envelope struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data"`
}

func readEvent(t *testing.T, conn *websocket.Conn) envelope {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	var msg envelope
	require.NoError(t, conn.ReadJSON(&msg))
	return msg
}

func TestWebSocket_PingPong(t *testing.T) {
	env := newWSEnv(t)
	user := testutil.CreatePatient(t, env.db, "Paula Patient")
	conn := env.dial(t, user)

	require.NoError(t, conn.WriteJSON(map[string]any{"action": "ping"}))
	assert.Equal(t, EventPong, readEvent(t, conn).Event)

	require.NoError(t, conn.WriteJSON(map[string]any{"action": "dance"}))
	msg := readEvent(t, conn)
	assert.Equal(t, EventError, msg.Event)
	assert.Contains(t, string(msg.Data), "unknown action")
}

func TestWebSocket_PushesNewNotificationsToEveryConnection(t *testing.T) {
	env := newWSEnv(t)
	researcher := testutil.CreateResearcher(t, env.db, "Rita Researcher", true)
	follower := testutil.CreatePatient(t, env.db, "Paula Patient")

	first := env.dial(t, researcher)
	second := env.dial(t, researcher)
	require.Eventually(t, func() bool { return env.manager.GetClientCount() == 2 }, time.Second, 5*time.Millisecond)

	_, err := env.services.FollowService.Follow(env.db, follower.ID, &dto.FollowRequest{TargetID: researcher.ID})
	require.NoError(t, err)

	for _, conn := range []*websocket.Conn{first, second} {
		msg := readEvent(t, conn)
		assert.Equal(t, EventNotification, msg.Event)

		var n models.Notification
		require.NoError(t, json.Unmarshal(msg.Data, &n))
		assert.Equal(t, researcher.ID, n.RecipientID)
		assert.Equal(t, models.NotificationTypeNewFollower, n.Type)
	}
}

func TestWebSocket_MarkRead(t *testing.T) {
	env := newWSEnv(t)
	researcher := testutil.CreateResearcher(t, env.db, "Rita Researcher", true)
	follower := testutil.CreatePatient(t, env.db, "Paula Patient")

	_, err := env.services.FollowService.Follow(env.db, follower.ID, &dto.FollowRequest{TargetID: researcher.ID})
	require.NoError(t, err)
	notification := testutil.Notifications(t, env.db, researcher.ID)[0]

	conn := env.dial(t, researcher)
	require.NoError(t, conn.WriteJSON(map[string]any{
		"action": "mark_read",
		"data":   map[string]string{"notificationId": notification.ID},
	}))

	msg := readEvent(t, conn)
	require.Equal(t, EventReadUpdated, msg.Event)
	var payload struct {
		NotificationID string `json:"notificationId"`
		Updated        int64  `json:"updated"`
		UnreadCount    int64  `json:"unreadCount"`
	}
	require.NoError(t, json.Unmarshal(msg.Data, &payload))
	assert.Equal(t, notification.ID, payload.NotificationID)
	assert.EqualValues(t, 1, payload.Updated)
	assert.Zero(t, payload.UnreadCount)

	// Чужое уведомление - ошибка, а не чтение
	other := env.dial(t, follower)
	require.NoError(t, other.WriteJSON(map[string]any{
		"action": "mark_read",
		"data":   map[string]string{"notificationId": notification.ID},
	}))
	msg = readEvent(t, other)
	assert.Equal(t, EventError, msg.Event)
	assert.Contains(t, string(msg.Data), "Notification not found")
}

func TestWebSocket_RejectsBadHandshakes(t *testing.T) {
	env := newWSEnv(t)
	user := testutil.CreatePatient(t, env.db, "Paula Patient")
	url := "ws" + strings.TrimPrefix(env.server.URL, "http") + "/ws"

	_, resp, err := websocket.DefaultDialer.Dial(url, nil)
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	header := http.Header{}
	header.Set("Authorization", "Bearer "+env.token(user))
	header.Set("Origin", "http://evil.test")
	_, resp, err = websocket.DefaultDialer.Dial(url, header)
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	assert.False(t, env.manager.IsUserConnected(user.ID))
}

func TestWebSocketManager_StopClosesClients(t *testing.T) {
	env := newWSEnv(t)
	user := testutil.CreatePatient(t, env.db, "Paula Patient")
	conn := env.dial(t, user)

	env.cancel()

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, _, err := conn.ReadMessage()
	assert.Error(t, err, "после остановки manager соединение закрывается")

	assert.False(t, env.manager.Register(&Client{UserID: user.ID, Send: make(chan any, 1), Manager: env.manager}))
	assert.Zero(t, env.manager.GetClientCount())
}

package app

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"curaconnect_backend/internal/config"
	"curaconnect_backend/internal/testutil"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

// TestServer - полноценный роутер поверх in-memory БД
type TestServer struct {
	Server *httptest.Server
	DB     *gorm.DB
	Config *config.Config
}

func NewTestServer(t *testing.T) *TestServer {
	t.Helper()
	gin.SetMode(gin.TestMode)

	cfg := testutil.TestConfig()
	db := testutil.NewTestDB(t)
	server := httptest.NewServer(SetupRouter(cfg, db))
	t.Cleanup(server.Close)

	return &TestServer{Server: server, DB: db, Config: cfg}
}

// SendRequest отправляет JSON запрос с Bearer токеном (если он задан)
func (ts *TestServer) SendRequest(t *testing.T, method, path, token string, body interface{}) (*http.Response, string) {
	t.Helper()
	return ts.send(t, method, path, body, func(req *http.Request) {
		if token != "" {
			req.Header.Set("Authorization", "Bearer "+token)
		}
	})
}

// SendRequestWithCookie - то же, но токен в cookie, как у браузерного клиента
func (ts *TestServer) SendRequestWithCookie(t *testing.T, method, path, cookieName, token string, body interface{}) (*http.Response, string) {
	t.Helper()
	return ts.send(t, method, path, body, func(req *http.Request) {
		req.AddCookie(&http.Cookie{Name: cookieName, Value: token})
	})
}

func (ts *TestServer) send(t *testing.T, method, path string, body interface{}, auth func(*http.Request)) (*http.Response, string) {
	t.Helper()

	var reqBody io.Reader
	if body != nil {
		jsonBody, err := json.Marshal(body)
		require.NoError(t, err, "Ошибка кодирования JSON для запроса")
		reqBody = bytes.NewBuffer(jsonBody)
	}

	req, err := http.NewRequest(method, ts.Server.URL+path, reqBody)
	require.NoError(t, err, "Ошибка создания HTTP-запроса")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	auth(req)

	res, err := ts.Server.Client().Do(req)
	require.NoError(t, err, "Ошибка отправки HTTP-запроса")
	defer res.Body.Close()

	resBody, err := io.ReadAll(res.Body)
	require.NoError(t, err, "Ошибка чтения тела ответа")
	return res, string(resBody)
}

func decode[T any](t *testing.T, body string) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal([]byte(body), &out), body)
	return out
}

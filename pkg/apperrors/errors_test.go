package apperrors

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAppError_CopiesMatchSentinel(t *testing.T) {
	cause := errors.New("duplicate key")
	wrapped := ErrConnectionExists.WithError(cause)

	assert.True(t, errors.Is(wrapped, ErrConnectionExists))
	assert.True(t, errors.Is(wrapped, cause))
	assert.False(t, errors.Is(wrapped, ErrConnectionNotFound))
	assert.Nil(t, ErrConnectionExists.Err, "WithError не меняет предопределенную ошибку")

	detailed := ErrUserNotFound.WithDetails(map[string]string{"id": "x"})
	assert.True(t, errors.Is(fmt.Errorf("lookup: %w", detailed), ErrUserNotFound))
	assert.Nil(t, ErrUserNotFound.Details)
}

func TestHandleError_ResponseShape(t *testing.T) {
	gin.SetMode(gin.TestMode)

	cases := []struct {
		name   string
		err    error
		status int
		code   ErrorCode
		msg    string
	}{
		{"domain error", ErrSelfFollow, http.StatusBadRequest, CodeInvalidOperation, "You cannot follow yourself"},
		{"validation", ValidationError(map[string]string{"message": "This field is required"}), http.StatusBadRequest, CodeValidationFailed, "Validation failed"},
		{"unknown", errors.New("db exploded"), http.StatusInternalServerError, CodeInternalError, "Internal server error"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			c, _ := gin.CreateTestContext(w)
			c.Request = httptest.NewRequest(http.MethodGet, "/", nil)

			HandleError(c, tc.err)

			assert.Equal(t, tc.status, w.Code)
			var resp map[string]any
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
			assert.Equal(t, false, resp["success"])
			assert.Equal(t, string(tc.code), resp["code"])
			assert.Equal(t, tc.msg, resp["error"])
			assert.NotContains(t, w.Body.String(), "db exploded")
		})
	}
}

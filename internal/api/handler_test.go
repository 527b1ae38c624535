package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"storefront-service/internal/models"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func newTestContext(headers map[string]string) (*gin.Context, *httptest.ResponseRecorder) {
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/", nil)
	for k, v := range headers {
		c.Request.Header.Set(k, v)
	}
	return c, w
}

func TestRespondErrorMapping(t *testing.T) {
	cases := []struct {
		name   string
		err    error
		status int
	}{
		{"not found", models.ErrNotFound, http.StatusNotFound},
		{"wrapped not found", errors.New("x"), http.StatusInternalServerError},
		{"unauthorized", models.ErrUnauthorized, http.StatusForbidden},
		{"empty cart", models.ErrEmptyCart, http.StatusBadRequest},
		{"inactive", models.ErrProductInactive, http.StatusConflict},
		{"stock", models.ErrInsufficientStock, http.StatusConflict},
		{"no retry", models.ErrConflictNoRetry, http.StatusConflict},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			c, w := newTestContext(nil)
			respondError(c, tc.err)
			assert.Equal(t, tc.status, w.Code)
		})
	}
}

func TestRespondErrorRejectionDetail(t *testing.T) {
	c, w := newTestContext(nil)

	respondError(c, &models.RejectionDetail{Lines: []models.LineRejection{
		{ProductID: 3, Size: "M", Reason: models.RejectOutOfStock},
		{ProductID: 9, Reason: models.RejectProductInactive},
	}})

	assert.Equal(t, http.StatusConflict, w.Code)

	var body struct {
		Lines []models.LineRejection `json:"lines"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	require.Len(t, body.Lines, 2)
	assert.Equal(t, models.RejectOutOfStock, body.Lines[0].Reason)
}

func TestRespondErrorFieldErrors(t *testing.T) {
	c, w := newTestContext(nil)

	respondError(c, models.FieldErrors{"price": "must be positive"})

	assert.Equal(t, http.StatusBadRequest, w.Code)

	var body struct {
		Fields map[string]string `json:"fields"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "must be positive", body.Fields["price"])
}

func TestCurrentUser(t *testing.T) {
	c, w := newTestContext(map[string]string{"X-User-ID": "42"})
	userID, ok := currentUser(c)
	require.True(t, ok)
	assert.Equal(t, int64(42), userID)

	for _, raw := range []string{"", "abc", "0", "-1"} {
		c, w = newTestContext(map[string]string{"X-User-ID": raw})
		_, ok := currentUser(c)
		assert.False(t, ok, "header %q", raw)
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	}
}

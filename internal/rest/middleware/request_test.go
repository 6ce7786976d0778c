package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	ierr "github.com/sourcingbee/challan/internal/errors"
	"github.com/sourcingbee/challan/internal/types"
)

func newTestRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(RequestIDMiddleware, ErrorHandler())
	return r
}

func TestRequestIDMiddlewarePropagatesHeader(t *testing.T) {
	r := newTestRouter()

	var seen string
	r.GET("/ping", func(c *gin.Context) {
		seen = types.GetRequestID(c.Request.Context())
		c.Status(http.StatusOK)
	})

	req := httptest.NewRequest(http.MethodGet, "/ping", nil)
	req.Header.Set(types.HeaderRequestID, "req-123")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, "req-123", seen)
	assert.Equal(t, "req-123", w.Header().Get(types.HeaderRequestID))
}

func TestRequestIDMiddlewareGeneratesWhenAbsent(t *testing.T) {
	r := newTestRouter()

	var seen string
	r.GET("/ping", func(c *gin.Context) {
		seen = types.GetRequestID(c.Request.Context())
		c.Status(http.StatusOK)
	})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ping", nil))

	assert.NotEmpty(t, seen)
	assert.Equal(t, seen, w.Header().Get(types.HeaderRequestID))
}

func TestErrorResponseCarriesRequestID(t *testing.T) {
	r := newTestRouter()

	r.GET("/boom", func(c *gin.Context) {
		c.Error(ierr.NewError("bad input").
			WithHint("Invalid request format").
			Mark(ierr.ErrValidation))
	})

	req := httptest.NewRequest(http.MethodGet, "/boom", nil)
	req.Header.Set(types.HeaderRequestID, "req-456")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusBadRequest, w.Code)

	var resp ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.False(t, resp.Success)
	assert.Equal(t, "Invalid request format", resp.Error.Display)
	assert.Equal(t, "req-456", resp.Error.RequestID)
}

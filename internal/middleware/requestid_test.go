package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRequestIDMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)

	router := gin.New()
	router.Use(RequestIDMiddleware())
	router.GET("/ping", func(c *gin.Context) {
		c.String(http.StatusOK, RequestID(c))
	})

	t.Run("generates id when absent", func(t *testing.T) {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/ping", nil)
		router.ServeHTTP(w, req)

		id := w.Header().Get(RequestIDHeader)
		require.NotEmpty(t, id)
		assert.Regexp(t, `^req_[0-9A-Za-z]{18}$`, id)
		assert.Equal(t, id, w.Body.String())
	})

	t.Run("honors incoming id", func(t *testing.T) {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/ping", nil)
		req.Header.Set(RequestIDHeader, "req_upstream123")
		router.ServeHTTP(w, req)

		assert.Equal(t, "req_upstream123", w.Header().Get(RequestIDHeader))
		assert.Equal(t, "req_upstream123", w.Body.String())
	})
}

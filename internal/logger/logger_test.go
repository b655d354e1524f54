package logger

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/contractportal/portal/internal/config"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestInitUsesConfiguredLevel(t *testing.T) {
	l, err := Init(config.LogConfig{Level: "debug", Format: "json"})
	require.NoError(t, err)
	require.NotNil(t, l)
	assert.True(t, l.Core().Enabled(zap.DebugLevel))

	l, err = Init(config.LogConfig{Level: "warn"})
	require.NoError(t, err)
	assert.False(t, l.Core().Enabled(zap.InfoLevel))
	assert.Same(t, l, zap.L())
}

func TestInitConsoleFormatDefaultsToDebug(t *testing.T) {
	l, err := Init(config.LogConfig{Format: "console"})
	require.NoError(t, err)
	assert.True(t, l.Core().Enabled(zap.DebugLevel))
}

func TestInitRejectsUnknownLevel(t *testing.T) {
	_, err := Init(config.LogConfig{Level: "chatty"})
	assert.Error(t, err)
}

func TestMiddlewareSetsCorrelationID(t *testing.T) {
	gin.SetMode(gin.TestMode)

	r := gin.New()
	r.Use(Middleware())
	r.GET("/ping", func(c *gin.Context) {
		id := CorrelationID(c)
		if id == "" {
			c.AbortWithStatus(http.StatusInternalServerError)
			return
		}
		c.Status(http.StatusOK)
	})

	req, _ := http.NewRequest(http.MethodGet, "/ping", nil)
	rr := httptest.NewRecorder()

	r.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.NotEmpty(t, rr.Header().Get(CorrelationIDHeader))
}

func TestMiddlewareKeepsIncomingCorrelationID(t *testing.T) {
	gin.SetMode(gin.TestMode)

	var fromCtx string
	r := gin.New()
	r.Use(Middleware())
	r.GET("/ping", func(c *gin.Context) {
		fromCtx, _ = c.Request.Context().Value(ctxKey{}).(string)
		c.Status(http.StatusOK)
	})

	req, _ := http.NewRequest(http.MethodGet, "/ping", nil)
	req.Header.Set(CorrelationIDHeader, "abc-123")
	rr := httptest.NewRecorder()

	r.ServeHTTP(rr, req)

	assert.Equal(t, "abc-123", rr.Header().Get(CorrelationIDHeader))
	assert.Equal(t, "abc-123", fromCtx)
}

func TestFromContextAddsCorrelationField(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	restore := zap.ReplaceGlobals(zap.New(core))
	defer restore()

	FromContext(WithCorrelationID(context.Background(), "xyz")).Info("hello")

	entries := logs.All()
	require.Len(t, entries, 1)
	assert.Equal(t, "xyz", entries[0].ContextMap()["correlation_id"])
}

package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestRecovery_PanicBecomesInternalError(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	eng := gin.New()
	eng.Use(TraceID(), Recovery(zap.New(core)))
	eng.GET("/boom", func(c *gin.Context) { panic("kaboom") })

	w := httptest.NewRecorder()
	eng.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/boom", nil))
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Contains(t, w.Body.String(), "INTERNAL_ERROR")

	entries := logs.FilterMessage("panic recovered").All()
	if assert.Len(t, entries, 1) {
		fields := entries[0].ContextMap()
		assert.Equal(t, w.Header().Get(TraceIDHeader), fields["trace_id"])
		assert.Equal(t, http.MethodGet, fields["method"])
		assert.Contains(t, fields["stack"], "recovery")
	}
}

func TestLogger_Levels(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	eng := gin.New()
	eng.Use(TraceID(), Logger(zap.New(core), "/health"))
	eng.GET("/health", func(c *gin.Context) { c.Status(http.StatusOK) })
	eng.GET("/fail", func(c *gin.Context) { c.Status(http.StatusServiceUnavailable) })
	eng.GET("/ok", func(c *gin.Context) { c.Status(http.StatusOK) })

	for _, p := range []string{"/health", "/fail", "/ok"} {
		eng.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, p, nil))
	}
	all := logs.All()
	if assert.Len(t, all, 3) {
		assert.Equal(t, zapcore.DebugLevel, all[0].Level)
		assert.Equal(t, zapcore.WarnLevel, all[1].Level)
		assert.Equal(t, zapcore.InfoLevel, all[2].Level)
		assert.Equal(t, "/ok", all[2].ContextMap()["path"])
	}
}

package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestRequestIDIsPropagated(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(RequestID())
	r.GET("/ping", func(c *gin.Context) {
		c.String(http.StatusOK, c.GetString(ContextRequestID))
	})

	req := httptest.NewRequest(http.MethodGet, "/ping", nil)
	req.Header.Set("X-Request-ID", "req-123")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if got := w.Header().Get("X-Request-ID"); got != "req-123" {
		t.Errorf("expected echoed request id, got %q", got)
	}
	if w.Body.String() != "req-123" {
		t.Errorf("expected request id in context, got %q", w.Body.String())
	}

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ping", nil))
	if w.Header().Get("X-Request-ID") == "" {
		t.Errorf("expected a generated request id")
	}
}

func TestRequestLoggerLevels(t *testing.T) {
	gin.SetMode(gin.TestMode)
	core, logs := observer.New(zapcore.DebugLevel)

	r := gin.New()
	r.Use(RequestID(), RequestLogger(zap.New(core)))
	r.GET("/ok", func(c *gin.Context) { c.Status(http.StatusOK) })
	r.GET("/bad", func(c *gin.Context) { c.Status(http.StatusBadRequest) })
	r.GET("/boom", func(c *gin.Context) { c.Status(http.StatusInternalServerError) })

	want := map[string]zapcore.Level{
		"/ok":   zapcore.InfoLevel,
		"/bad":  zapcore.WarnLevel,
		"/boom": zapcore.ErrorLevel,
	}
	for path, level := range want {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))

		entries := logs.TakeAll()
		if len(entries) != 1 {
			t.Fatalf("%s: expected one log entry, got %d", path, len(entries))
		}
		if entries[0].Level != level {
			t.Errorf("%s: expected level %s, got %s", path, level, entries[0].Level)
		}
		if entries[0].ContextMap()["path"] != path {
			t.Errorf("%s: path field missing: %v", path, entries[0].ContextMap())
		}
	}
}

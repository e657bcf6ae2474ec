package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	gantry "github.com/gantrykit/gantry"
	"github.com/gantrykit/gantry/logger"
)

// recordingLogger captures log messages for assertions.
type recordingLogger struct {
	mu       sync.Mutex
	messages []string
}

func (l *recordingLogger) record(msg string) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.messages = append(l.messages, msg)
}

func (l *recordingLogger) has(msg string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	for _, m := range l.messages {
		if strings.Contains(m, msg) {
			return true
		}
	}

	return false
}

func (l *recordingLogger) Debug(msg string, fields ...logger.Field) { l.record(msg) }
func (l *recordingLogger) Info(msg string, fields ...logger.Field)  { l.record(msg) }
func (l *recordingLogger) Warn(msg string, fields ...logger.Field)  { l.record(msg) }
func (l *recordingLogger) Error(msg string, fields ...logger.Field) { l.record(msg) }
func (l *recordingLogger) Fatal(msg string, fields ...logger.Field) { l.record(msg) }

func (l *recordingLogger) Debugf(template string, args ...interface{}) { l.record(template) }
func (l *recordingLogger) Infof(template string, args ...interface{})  { l.record(template) }
func (l *recordingLogger) Warnf(template string, args ...interface{})  { l.record(template) }
func (l *recordingLogger) Errorf(template string, args ...interface{}) { l.record(template) }
func (l *recordingLogger) Fatalf(template string, args ...interface{}) { l.record(template) }

func (l *recordingLogger) With(fields ...logger.Field) logger.Logger     { return l }
func (l *recordingLogger) WithContext(ctx context.Context) logger.Logger { return l }
func (l *recordingLogger) Named(name string) logger.Logger               { return l }
func (l *recordingLogger) Sync() error                                   { return nil }

func newRouterWith(t *testing.T, mw ...gantry.Middleware) gantry.Router {
	t.Helper()

	cfg := gantry.DefaultAppConfig()
	cfg.Logger = logger.NewNoop()
	cfg.Banner = false
	cfg.MetricsEnabled = false

	r := gantry.New(cfg).Router()
	r.Use(mw...)

	return r
}

func TestRecoveryConvertsPanicTo500(t *testing.T) {
	log := &recordingLogger{}
	r := newRouterWith(t, Recovery(log))

	require.NoError(t, r.GET("/panic", func(ctx gantry.Context) error {
		panic("boom")
	}))
	require.NoError(t, r.GET("/fine", func(ctx gantry.Context) error {
		return ctx.String(http.StatusOK, "ok")
	}))

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/panic", nil))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Contains(t, rec.Body.String(), "INTERNAL_ERROR")
	assert.True(t, log.has("panic recovered"))

	// The dispatch loop survives the panic.
	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/fine", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestRequestIDGeneratesAndEchoes(t *testing.T) {
	r := newRouterWith(t, RequestID())

	require.NoError(t, r.GET("/id", func(ctx gantry.Context) error {
		return ctx.String(http.StatusOK, GetRequestID(ctx))
	}))

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/id", nil))

	id := rec.Header().Get("X-Request-ID")
	require.NotEmpty(t, id)
	assert.Equal(t, id, rec.Body.String())
}

func TestRequestIDKeepsInboundHeader(t *testing.T) {
	r := newRouterWith(t, RequestID())

	require.NoError(t, r.GET("/id", func(ctx gantry.Context) error {
		return ctx.String(http.StatusOK, GetRequestID(ctx))
	}))

	req := httptest.NewRequest(http.MethodGet, "/id", nil)
	req.Header.Set("X-Request-ID", "abc-123")

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	assert.Equal(t, "abc-123", rec.Header().Get("X-Request-ID"))
	assert.Equal(t, "abc-123", rec.Body.String())
}

func TestLoggingLogsCompletionAndFailure(t *testing.T) {
	log := &recordingLogger{}
	r := newRouterWith(t, Logging(log))

	require.NoError(t, r.GET("/ok", func(ctx gantry.Context) error {
		return ctx.String(http.StatusOK, "ok")
	}))
	require.NoError(t, r.GET("/bad", func(ctx gantry.Context) error {
		return assert.AnError
	}))

	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/ok", nil))
	assert.True(t, log.has("request completed"))

	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/bad", nil))
	assert.True(t, log.has("request failed"))
}

func TestLoggingExcludesProbePaths(t *testing.T) {
	log := &recordingLogger{}
	r := newRouterWith(t, LoggingWithConfig(log, LoggingConfig{ExcludePaths: []string{"/quiet"}}))

	require.NoError(t, r.GET("/quiet", func(ctx gantry.Context) error {
		return ctx.NoContent(http.StatusNoContent)
	}))

	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/quiet", nil))
	assert.False(t, log.has("request completed"))
}

func TestTimeoutAnswers504(t *testing.T) {
	slow := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-time.After(time.Second):
			w.WriteHeader(http.StatusOK)
		case <-r.Context().Done():
		}
	})

	wrapped := Timeout(20*time.Millisecond, nil)(slow)

	rec := httptest.NewRecorder()
	wrapped.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/slow", nil))

	assert.Equal(t, http.StatusGatewayTimeout, rec.Code)
	assert.Contains(t, rec.Body.String(), "GATEWAY_TIMEOUT")
}

func TestTimeoutPassesFastRequests(t *testing.T) {
	fast := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte("done"))
	})

	wrapped := Timeout(time.Second, nil)(fast)

	rec := httptest.NewRecorder()
	wrapped.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/fast", nil))

	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, "done", rec.Body.String())
}

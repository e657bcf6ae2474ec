package middleware

import (
	"context"
	"maps"
	"net/http"
	"sync"
	"time"

	gantry "github.com/gantrykit/gantry"
	"github.com/gantrykit/gantry/logger"
)

// bufferedResponseWriter holds the whole response until flush, so a handler
// goroutine that loses the timeout race never writes over the 504.
type bufferedResponseWriter struct {
	http.ResponseWriter

	mu      sync.Mutex
	header  http.Header
	code    int
	body    []byte
	flushed bool
}

func newBufferedResponseWriter(w http.ResponseWriter) *bufferedResponseWriter {
	return &bufferedResponseWriter{
		ResponseWriter: w,
		header:         make(http.Header),
		code:           http.StatusOK,
	}
}

func (w *bufferedResponseWriter) Header() http.Header {
	return w.header
}

func (w *bufferedResponseWriter) WriteHeader(code int) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if !w.flushed {
		w.code = code
	}
}

func (w *bufferedResponseWriter) Write(data []byte) (int, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if !w.flushed {
		w.body = append(w.body, data...)

		return len(data), nil
	}

	return w.ResponseWriter.Write(data)
}

func (w *bufferedResponseWriter) flush() {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.flushed {
		return
	}

	maps.Copy(w.ResponseWriter.Header(), w.header)
	w.ResponseWriter.WriteHeader(w.code)

	if len(w.body) > 0 {
		_, _ = w.ResponseWriter.Write(w.body)
	}

	w.flushed = true
}

// Timeout enforces a deadline on request handling, answering 504 when the
// handler overruns. It wraps http.Handler rather than gantry.Handler
// because the handler must run in its own goroutine; apply it around the
// router, not on individual routes.
func Timeout(duration time.Duration, log gantry.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx, cancel := context.WithTimeout(r.Context(), duration)
			defer cancel()

			buffered := newBufferedResponseWriter(w)

			done := make(chan struct{})

			go func() {
				defer close(done)

				next.ServeHTTP(buffered, r.WithContext(ctx))
			}()

			select {
			case <-done:
				buffered.flush()
			case <-ctx.Done():
				if log != nil {
					log.Warn("request timed out",
						logger.String("method", r.Method),
						logger.String("path", r.URL.Path),
						logger.Duration("timeout", duration),
					)
				}

				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusGatewayTimeout)
				_, _ = w.Write([]byte(`{"code":"GATEWAY_TIMEOUT","message":"request timed out"}`))
			}
		})
	}
}

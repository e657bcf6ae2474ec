package shared

import "time"

// Metrics receives dispatch instrumentation from the router. The concrete
// collector lives in the observability package; the router only sees this
// interface so it carries no prometheus dependency of its own.
type Metrics interface {
	RequestStarted(method, pattern string)
	RequestCompleted(method, pattern string, status int, elapsed time.Duration)
}

// NoopMetrics discards all instrumentation.
type NoopMetrics struct{}

func (NoopMetrics) RequestStarted(method, pattern string) {}

func (NoopMetrics) RequestCompleted(method, pattern string, status int, elapsed time.Duration) {}

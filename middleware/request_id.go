package middleware

import (
	"github.com/google/uuid"

	gantry "github.com/gantrykit/gantry"
)

const requestIDHeader = "X-Request-ID"

const requestIDValue = "request_id"

// RequestID tags every request with an ID: the inbound X-Request-ID header
// when present, a fresh UUID otherwise. The ID is echoed on the response
// and stored in the dispatch context for log correlation.
func RequestID() gantry.Middleware {
	return func(next gantry.Handler) gantry.Handler {
		return func(ctx gantry.Context) error {
			id := ctx.Header(requestIDHeader)
			if id == "" {
				id = uuid.New().String()
			}

			ctx.SetHeader(requestIDHeader, id)
			ctx.Set(requestIDValue, id)

			return next(ctx)
		}
	}
}

// GetRequestID returns the request ID set by RequestID, empty if absent.
func GetRequestID(ctx gantry.Context) string {
	id, _ := ctx.Get(requestIDValue).(string)

	return id
}

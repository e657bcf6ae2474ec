// Package middleware ships the stock dispatch middleware: panic recovery,
// request IDs, request logging and a timeout wrapper.
package middleware

import (
	"fmt"
	"net/http"
	"runtime/debug"

	gantry "github.com/gantrykit/gantry"
	"github.com/gantrykit/gantry/logger"
)

// Recovery converts handler panics into 500 envelopes so one bad request
// cannot take down the dispatch loop.
func Recovery(log gantry.Logger) gantry.Middleware {
	return func(next gantry.Handler) gantry.Handler {
		return func(ctx gantry.Context) (err error) {
			defer func() {
				if recovered := recover(); recovered != nil {
					log.Error("panic recovered",
						logger.String("path", ctx.Request().URL.Path),
						logger.Any("panic", recovered),
						logger.String("stack", string(debug.Stack())),
					)

					err = ctx.JSON(http.StatusInternalServerError, map[string]any{
						"code":    "INTERNAL_ERROR",
						"message": fmt.Sprintf("panic: %v", recovered),
					})
				}
			}()

			return next(ctx)
		}
	}
}

package gantry

import (
	"github.com/gantrykit/gantry/logger"
)

// Logger is the structured logging interface used across the framework.
type Logger = logger.Logger

// Field is one structured log field.
type Field = logger.Field

// F creates a log field from any value.
func F(key string, value any) Field {
	return logger.Any(key, value)
}

// Package testing provides helpers for testing gantry applications.
package testing

import (
	gantry "github.com/gantrykit/gantry"
	"github.com/gantrykit/gantry/logger"
)

// NewTestApp creates an app configured for tests: silent logger, no banner,
// no metrics collector.
func NewTestApp(name string) gantry.App {
	cfg := gantry.DefaultAppConfig()
	cfg.Name = name
	cfg.Logger = logger.NewNoop()
	cfg.Banner = false
	cfg.MetricsEnabled = false

	return gantry.New(cfg)
}

// NewTestAppWithConfig creates a test app with full config control. A noop
// logger is supplied when none is set.
func NewTestAppWithConfig(cfg gantry.AppConfig) gantry.App {
	if cfg.Logger == nil {
		cfg.Logger = logger.NewNoop()
	}

	cfg.Banner = false

	return gantry.New(cfg)
}

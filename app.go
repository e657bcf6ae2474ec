package gantry

import (
	"context"
	"os"
	"time"

	"github.com/gantrykit/gantry/observability"
)

// App is the application runtime: it owns the container, the module
// registry and loader, the router and the ambient services, and drives
// them through a common lifecycle.
type App interface {
	// Container returns the dependency-injection container.
	Container() Container

	// Router returns the HTTP router.
	Router() Router

	// Config returns the configuration manager.
	Config() *ConfigManager

	// Logger returns the application logger.
	Logger() Logger

	// Metrics returns the metrics collector, nil when disabled.
	Metrics() *observability.Metrics

	// RegisterModule registers a module descriptor. Modules load on Start,
	// in registration order, imports first.
	RegisterModule(m Module) error

	// RegisterHook registers a lifecycle hook.
	RegisterHook(phase LifecyclePhase, hook LifecycleHook, opts LifecycleHookOptions) error

	// RegisterHookFn registers a hook with default options.
	RegisterHookFn(phase LifecyclePhase, name string, hook LifecycleHook) error

	// LoadedModules returns loaded module names in load order.
	LoadedModules() []string

	// Start loads all registered modules and starts the container.
	Start(ctx context.Context) error

	// Stop tears the application down in reverse order.
	Stop(ctx context.Context) error

	// Run starts the app and the HTTP server, blocking until a shutdown
	// signal arrives.
	Run() error

	// Health reports aggregate service health.
	Health(ctx context.Context) HealthReport

	Name() string
	Environment() string
	StartTime() time.Time
	Uptime() time.Duration
}

// AppConfig configures an application.
type AppConfig struct {
	Name        string
	Version     string
	Description string
	Environment string // development, staging, production

	// Components; defaults are created when nil.
	Logger        Logger
	ConfigManager *ConfigManager

	// RouterOptions lets callers select an adapter or inject middleware
	// plumbing; the app always wires its own container, logger and metrics.
	RouterOptions []RouterOption

	// Observability
	MetricsEnabled   bool
	MetricsNamespace string
	Tracing          observability.TracingConfig

	// Server
	HTTPAddress string        // default ":8080"
	HTTPTimeout time.Duration // default 30s

	// Shutdown
	ShutdownTimeout time.Duration // default 30s
	ShutdownSignals []os.Signal   // default SIGINT, SIGTERM

	// Banner controls the startup banner on Run.
	Banner bool
}

// DefaultAppConfig returns a development-oriented default configuration.
func DefaultAppConfig() AppConfig {
	return AppConfig{
		Name:            "gantry-app",
		Version:         "0.1.0",
		Description:     "Gantry application",
		Environment:     "development",
		HTTPAddress:     ":8080",
		HTTPTimeout:     30 * time.Second,
		ShutdownTimeout: 30 * time.Second,
		MetricsEnabled:  true,
		Banner:          true,
	}
}

// New creates an App from the config, filling defaults for anything unset.
func New(config AppConfig) App {
	return newApp(config)
}

package gantry

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"runtime"
	"sync"
	"syscall"
	"time"

	"github.com/gantrykit/gantry/errors"
	"github.com/gantrykit/gantry/internal/config"
	"github.com/gantrykit/gantry/internal/di"
	"github.com/gantrykit/gantry/internal/module"
	"github.com/gantrykit/gantry/internal/router"
	"github.com/gantrykit/gantry/logger"
	"github.com/gantrykit/gantry/observability"
)

type app struct {
	config AppConfig

	container di.Container
	registry  *module.Registry
	loader    *module.Loader
	router    router.Router
	configMgr *ConfigManager
	logger    Logger
	metrics   *observability.Metrics
	tracing   *observability.Tracing
	lifecycle *lifecycleManager

	httpServer *http.Server
	startTime  time.Time
	started    bool
	mu         sync.Mutex
}

func newApp(cfg AppConfig) *app {
	defaults := DefaultAppConfig()

	if cfg.Name == "" {
		cfg.Name = defaults.Name
	}

	if cfg.Environment == "" {
		cfg.Environment = defaults.Environment
	}

	if cfg.HTTPAddress == "" {
		cfg.HTTPAddress = defaults.HTTPAddress
	}

	if cfg.HTTPTimeout == 0 {
		cfg.HTTPTimeout = defaults.HTTPTimeout
	}

	if cfg.ShutdownTimeout == 0 {
		cfg.ShutdownTimeout = defaults.ShutdownTimeout
	}

	if len(cfg.ShutdownSignals) == 0 {
		cfg.ShutdownSignals = []os.Signal{syscall.SIGINT, syscall.SIGTERM}
	}

	log := cfg.Logger
	if log == nil {
		if cfg.Environment == "production" {
			log = logger.NewProduction()
		} else {
			log = logger.NewDevelopment()
		}
	}

	configMgr := cfg.ConfigManager
	if configMgr == nil {
		configMgr = config.NewManager(log,
			config.NewDotenvSource(".env", "GANTRY", true),
			config.NewEnvSource("GANTRY"),
		)
	}

	var metrics *observability.Metrics
	if cfg.MetricsEnabled {
		metrics = observability.NewMetrics(cfg.MetricsNamespace)
	}

	container := di.New()

	routerOpts := append([]RouterOption{}, cfg.RouterOptions...)
	routerOpts = append(routerOpts,
		router.WithContainer(container),
		router.WithLogger(log.Named("router")),
	)

	if metrics != nil {
		routerOpts = append(routerOpts, router.WithMetrics(metrics))
	}

	r := router.New(routerOpts...)

	registry := module.NewRegistry()

	a := &app{
		config:    cfg,
		container: container,
		registry:  registry,
		loader:    module.NewLoader(registry, container, r, log),
		router:    r,
		configMgr: configMgr,
		logger:    log,
		metrics:   metrics,
		lifecycle: newLifecycleManager(log),
	}

	return a
}

func (a *app) Container() Container {
	return a.container
}

func (a *app) Router() Router {
	return a.router
}

func (a *app) Config() *ConfigManager {
	return a.configMgr
}

func (a *app) Logger() Logger {
	return a.logger
}

func (a *app) Metrics() *observability.Metrics {
	return a.metrics
}

func (a *app) RegisterModule(m Module) error {
	return a.registry.Register(m)
}

func (a *app) RegisterHook(phase LifecyclePhase, hook LifecycleHook, opts LifecycleHookOptions) error {
	return a.lifecycle.register(phase, hook, opts)
}

func (a *app) RegisterHookFn(phase LifecyclePhase, name string, hook LifecycleHook) error {
	return a.lifecycle.register(phase, hook, LifecycleHookOptions{Name: name})
}

func (a *app) LoadedModules() []string {
	return a.loader.Loaded()
}

// Start loads every registered module in order, starts the container's
// singletons, and wires the built-in endpoints. Module loading completes
// before the server accepts traffic, so the route table and bindings are
// read-only at request time.
func (a *app) Start(ctx context.Context) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.started {
		return errors.ErrContainerStarted()
	}

	a.startTime = time.Now()

	a.logger.Info("starting application",
		logger.String("name", a.config.Name),
		logger.String("environment", a.config.Environment),
	)

	if err := a.configMgr.Load(); err != nil {
		return err
	}

	tracing, err := observability.NewTracing(ctx, a.config.Tracing)
	if err != nil {
		return errors.ErrLifecycleError("tracing init", err)
	}

	a.tracing = tracing

	if err := a.lifecycle.execute(ctx, PhaseBeforeLoad, a); err != nil {
		return err
	}

	if err := a.loader.LoadAll(); err != nil {
		return err
	}

	if err := a.container.Start(ctx); err != nil {
		return err
	}

	if err := a.setupBuiltinEndpoints(); err != nil {
		return err
	}

	if err := a.lifecycle.execute(ctx, PhaseAfterLoad, a); err != nil {
		return err
	}

	a.started = true

	a.logger.Info("application started",
		logger.Int("modules", len(a.loader.Loaded())),
		logger.Int("routes", len(a.router.Routes())),
	)

	return nil
}

// Stop tears down in reverse order: hooks, container services, tracing.
func (a *app) Stop(ctx context.Context) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if !a.started {
		return nil
	}

	a.logger.Info("stopping application")

	if err := a.lifecycle.execute(ctx, PhaseBeforeStop, a); err != nil {
		a.logger.Warn("before-stop hooks failed", logger.Err(err))
	}

	if err := a.container.Stop(ctx); err != nil {
		a.logger.Error("container stop failed", logger.Err(err))
	}

	if a.tracing != nil {
		if err := a.tracing.Shutdown(ctx); err != nil {
			a.logger.Error("tracing shutdown failed", logger.Err(err))
		}
	}

	a.started = false

	if err := a.lifecycle.execute(ctx, PhaseAfterStop, a); err != nil {
		a.logger.Warn("after-stop hooks failed", logger.Err(err))
	}

	a.logger.Info("application stopped")

	return nil
}

// Run starts the application and the HTTP server, then blocks until a
// shutdown signal or a server error.
func (a *app) Run() error {
	if err := a.Start(context.Background()); err != nil {
		return fmt.Errorf("starting app: %w", err)
	}

	a.httpServer = &http.Server{
		Addr:         a.config.HTTPAddress,
		Handler:      a.router.Handler(),
		ReadTimeout:  a.config.HTTPTimeout,
		WriteTimeout: a.config.HTTPTimeout,
		IdleTimeout:  a.config.HTTPTimeout * 2,
	}

	if a.config.Banner {
		a.printBanner()
	}

	if err := a.lifecycle.execute(context.Background(), PhaseBeforeRun, a); err != nil {
		return err
	}

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, a.config.ShutdownSignals...)

	errChan := make(chan error, 1)

	go func() {
		if err := a.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errChan <- err
		}
	}()

	go func() {
		if err := a.lifecycle.execute(context.Background(), PhaseAfterRun, a); err != nil {
			a.logger.Warn("after-run hooks failed", logger.Err(err))
		}
	}()

	select {
	case err := <-errChan:
		return fmt.Errorf("http server: %w", err)
	case sig := <-shutdown:
		a.logger.Info("shutdown signal received", logger.String("signal", sig.String()))
	}

	return a.gracefulShutdown()
}

func (a *app) gracefulShutdown() error {
	ctx, cancel := context.WithTimeout(context.Background(), a.config.ShutdownTimeout)
	defer cancel()

	a.logger.Info("graceful shutdown", logger.Duration("timeout", a.config.ShutdownTimeout))

	if a.httpServer != nil {
		if err := a.httpServer.Shutdown(ctx); err != nil {
			a.logger.Error("http server shutdown failed", logger.Err(err))
		}
	}

	return a.Stop(ctx)
}

func (a *app) Health(ctx context.Context) HealthReport {
	return buildHealthReport(ctx, a.container)
}

func (a *app) Name() string {
	return a.config.Name
}

func (a *app) Environment() string {
	return a.config.Environment
}

func (a *app) StartTime() time.Time {
	return a.startTime
}

func (a *app) Uptime() time.Duration {
	if a.startTime.IsZero() {
		return 0
	}

	return time.Since(a.startTime)
}

// appInfo is the payload of the /_/info endpoint.
type appInfo struct {
	Name        string    `json:"name"`
	Version     string    `json:"version"`
	Description string    `json:"description,omitempty"`
	Environment string    `json:"environment"`
	GoVersion   string    `json:"go_version"`
	StartTime   time.Time `json:"start_time"`
	Uptime      string    `json:"uptime"`
	Modules     []string  `json:"modules"`
	Routes      int       `json:"routes"`
	Bindings    int       `json:"bindings"`
}

// moduleInfo is one entry of the /_/modules endpoint.
type moduleInfo struct {
	Name        string   `json:"name"`
	Imports     []string `json:"imports,omitempty"`
	Exports     []string `json:"exports,omitempty"`
	Providers   int      `json:"providers"`
	Controllers int      `json:"controllers"`
}

// setupBuiltinEndpoints registers the /_/ diagnostic surface.
func (a *app) setupBuiltinEndpoints() error {
	if err := a.router.GET("/_/health", a.handleHealth); err != nil {
		return err
	}

	if err := a.router.GET("/_/health/live", a.handleHealthLive); err != nil {
		return err
	}

	if err := a.router.GET("/_/health/ready", a.handleHealthReady); err != nil {
		return err
	}

	if err := a.router.GET("/_/info", a.handleInfo); err != nil {
		return err
	}

	if err := a.router.GET("/_/routes", a.handleRoutes); err != nil {
		return err
	}

	if err := a.router.GET("/_/modules", a.handleModules); err != nil {
		return err
	}

	if a.metrics != nil {
		if err := a.router.Mount("/_/metrics", a.metrics.Handler()); err != nil {
			return err
		}
	}

	return nil
}

func (a *app) handleHealth(ctx Context) error {
	report := buildHealthReport(ctx.Context(), a.container)

	status := http.StatusOK
	if report.Status != HealthStatusHealthy {
		status = http.StatusServiceUnavailable
	}

	return ctx.JSON(status, report)
}

func (a *app) handleHealthLive(ctx Context) error {
	return ctx.JSON(http.StatusOK, map[string]string{"status": "alive"})
}

func (a *app) handleHealthReady(ctx Context) error {
	a.mu.Lock()
	ready := a.started
	a.mu.Unlock()

	if !ready {
		return ctx.JSON(http.StatusServiceUnavailable, map[string]string{"status": "starting"})
	}

	return ctx.JSON(http.StatusOK, map[string]string{"status": "ready"})
}

func (a *app) handleInfo(ctx Context) error {
	return ctx.JSON(http.StatusOK, appInfo{
		Name:        a.config.Name,
		Version:     a.config.Version,
		Description: a.config.Description,
		Environment: a.config.Environment,
		GoVersion:   runtime.Version(),
		StartTime:   a.startTime,
		Uptime:      a.Uptime().String(),
		Modules:     a.loader.Loaded(),
		Routes:      len(a.router.Routes()),
		Bindings:    len(a.container.Identifiers()),
	})
}

func (a *app) handleRoutes(ctx Context) error {
	return ctx.JSON(http.StatusOK, a.router.Routes())
}

func (a *app) handleModules(ctx Context) error {
	loaded := a.loader.Loaded()

	infos := make([]moduleInfo, 0, len(loaded))
	for _, name := range loaded {
		desc, ok := a.registry.Get(name)
		if !ok {
			continue
		}

		infos = append(infos, moduleInfo{
			Name:        desc.Name,
			Imports:     desc.Imports,
			Exports:     desc.Exports,
			Providers:   len(desc.Providers),
			Controllers: len(desc.Controllers),
		})
	}

	return ctx.JSON(http.StatusOK, infos)
}

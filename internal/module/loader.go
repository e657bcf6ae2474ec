package module

import (
	"fmt"
	"slices"
	"strings"
	"sync"

	"github.com/gantrykit/gantry/errors"
	"github.com/gantrykit/gantry/internal/di"
	"github.com/gantrykit/gantry/internal/router"
	"github.com/gantrykit/gantry/logger"
)

// Loader turns a module graph into container bindings and route entries.
// Loading is idempotent: a module reached twice through a diamond-shaped
// import graph is processed once, and its provider constructors run once.
type Loader struct {
	registry  *Registry
	container di.Container
	router    router.Router
	logger    logger.Logger

	loaded  map[string]bool
	order   []string
	loading []string

	mu sync.Mutex
}

// NewLoader creates a loader over a registry, container and router.
func NewLoader(registry *Registry, container di.Container, r router.Router, log logger.Logger) *Loader {
	if log == nil {
		log = logger.NewNoop()
	}

	return &Loader{
		registry:  registry,
		container: container,
		router:    r,
		logger:    log.Named("loader"),
		loaded:    make(map[string]bool),
	}
}

// Load loads a module and, recursively, everything it imports. Imports are
// processed before the module's own providers and controllers, so imported
// services are bound by the time dependent constructors run. A provider
// failure aborts the load; the container may retain a broken singleton
// marker and the process should restart rather than retry.
func (l *Loader) Load(name string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	return l.load(name)
}

// LoadAll loads every registered module in registration order.
func (l *Loader) LoadAll() error {
	for _, name := range l.registry.Names() {
		if err := l.Load(name); err != nil {
			return err
		}
	}

	return nil
}

// Loaded returns module names in the order they finished loading. Imported
// modules appear before their importers.
func (l *Loader) Loaded() []string {
	l.mu.Lock()
	defer l.mu.Unlock()

	return slices.Clone(l.order)
}

func (l *Loader) load(name string) error {
	if l.loaded[name] {
		return nil
	}

	// A module currently on the loading stack importing itself, directly
	// or transitively, cannot be ordered.
	if slices.Contains(l.loading, name) {
		cycle := append(slices.Clone(l.loading), name)

		return errors.ErrInvalidModuleDescriptor(name,
			"import cycle: "+strings.Join(cycle, " -> "))
	}

	desc, ok := l.registry.Get(name)
	if !ok {
		return errors.ErrModuleNotFound(name)
	}

	l.loading = append(l.loading, name)
	defer func() {
		l.loading = l.loading[:len(l.loading)-1]
	}()

	for _, imported := range desc.Imports {
		if err := l.load(imported); err != nil {
			return err
		}
	}

	for _, provider := range desc.Providers {
		if err := l.loadProvider(desc.Name, provider); err != nil {
			return err
		}
	}

	for _, ctor := range desc.Controllers {
		if err := l.loadController(desc.Name, ctor); err != nil {
			return err
		}
	}

	l.loaded[name] = true
	l.order = append(l.order, name)

	l.logger.Debug("module loaded",
		logger.String("module", name),
		logger.Int("providers", len(desc.Providers)),
		logger.Int("controllers", len(desc.Controllers)),
	)

	return nil
}

// loadProvider binds a provider and eagerly resolves it once, so
// constructor-time side effects (hook registration, listener wiring) happen
// at boot rather than at first use.
func (l *Loader) loadProvider(moduleName string, provider Provider) error {
	key := provider.Key
	if key == "" {
		derived, err := di.ConstructorKey(provider.Constructor)
		if err != nil {
			return errors.ErrInvalidModuleDescriptor(moduleName, err.Error())
		}

		key = derived
	}

	err := l.container.Bind(key, provider.Constructor, di.WithLifetime(provider.Lifetime))
	if err != nil {
		return errors.ErrInvalidModuleDescriptor(moduleName, err.Error())
	}

	if _, err := l.container.Resolve(key); err != nil {
		return errors.ErrProviderInitFailed(moduleName, key, err)
	}

	return nil
}

// loadController binds a controller transient, resolves one instance for
// route introspection, and registers its routes. Dispatch resolves a fresh
// instance per request; the introspection instance is discarded.
func (l *Loader) loadController(moduleName string, ctor any) error {
	identifier, err := di.ConstructorKey(ctor)
	if err != nil {
		return errors.ErrInvalidModuleDescriptor(moduleName, err.Error())
	}

	err = l.container.Bind(identifier, ctor, di.WithLifetime(di.Transient))
	if err != nil {
		return errors.ErrInvalidModuleDescriptor(moduleName, err.Error())
	}

	instance, err := l.container.Resolve(identifier)
	if err != nil {
		return errors.ErrProviderInitFailed(moduleName, identifier, err)
	}

	ctrl, ok := instance.(router.Controller)
	if !ok {
		return errors.ErrInvalidModuleDescriptor(moduleName,
			fmt.Sprintf("controller '%s' does not declare routes", identifier))
	}

	if err := l.router.RegisterController(identifier, ctrl); err != nil {
		return errors.ErrInvalidModuleDescriptor(moduleName, err.Error())
	}

	return nil
}

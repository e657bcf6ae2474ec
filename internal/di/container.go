package di

import (
	"context"
	"fmt"
	"slices"
	"sync"

	"github.com/gantrykit/gantry/errors"
	"github.com/gantrykit/gantry/internal/shared"
)

// container implements Container.
type container struct {
	bindings   map[string]*binding
	order      []string // registration order, FIFO for start ordering
	contextual map[string]map[string]contextualTarget
	started    bool
	mu         sync.RWMutex
}

// resolution tracks one recursive Resolve invocation: the chain of
// identifiers currently being built and the scope, if any, that requested it.
type resolution struct {
	path  []string
	scope *scopeImpl
}

func (r *resolution) child(identifier string) *resolution {
	path := make([]string, len(r.path), len(r.path)+1)
	copy(path, r.path)

	return &resolution{path: append(path, identifier), scope: r.scope}
}

func (r *resolution) consumer() string {
	if len(r.path) == 0 {
		return ""
	}

	return r.path[len(r.path)-1]
}

// chainContainer is the container view handed to producer functions and
// constructors. Its Resolve continues the current resolution chain, so cycle
// detection and contextual overrides work through factories too.
type chainContainer struct {
	*container
	res *resolution
}

func (cc chainContainer) Resolve(identifier string) (any, error) {
	return cc.container.resolve(identifier, cc.res)
}

func newContainer() *container {
	return &container{
		bindings:   make(map[string]*binding),
		contextual: make(map[string]map[string]contextualTarget),
	}
}

// Bind registers or replaces a binding. Last registration wins, replacing any
// previous binding and its cached instance.
func (c *container) Bind(identifier string, factory any, opts ...BindOption) error {
	options := &bindOptions{lifetime: Singleton}
	for _, opt := range opts {
		opt(options)
	}

	if factory == nil {
		return errors.ErrInvalidFactory(identifier, "factory cannot be nil")
	}

	if identifier == "" {
		derived, err := ConstructorKey(factory)
		if err != nil {
			return err
		}

		identifier = derived
	}

	var (
		b   *binding
		err error
	)

	switch f := factory.(type) {
	case Factory:
		b = newFactoryBinding(identifier, f, options.lifetime)
	case func(Container) (any, error):
		b = newFactoryBinding(identifier, f, options.lifetime)
	default:
		b, err = newConstructorBinding(identifier, factory, options.lifetime)
		if err != nil {
			return err
		}
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if _, exists := c.bindings[identifier]; !exists {
		c.order = append(c.order, identifier)
	}

	c.bindings[identifier] = b

	return nil
}

// BindInstance registers a pre-built value as a resolved singleton.
func (c *container) BindInstance(identifier string, value any) error {
	if identifier == "" {
		return errors.ErrInvalidFactory(identifier, "identifier cannot be empty")
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if _, exists := c.bindings[identifier]; !exists {
		c.order = append(c.order, identifier)
	}

	c.bindings[identifier] = newInstanceBinding(identifier, value)

	return nil
}

// Resolve returns the instance bound to identifier.
func (c *container) Resolve(identifier string) (any, error) {
	return c.resolve(identifier, &resolution{})
}

// resolve walks the binding graph for one resolution chain.
func (c *container) resolve(identifier string, res *resolution) (any, error) {
	if res == nil {
		res = &resolution{}
	}

	// Contextual substitution first: only while building the recorded consumer.
	if consumer := res.consumer(); consumer != "" {
		if target, ok := c.contextualFor(consumer, identifier); ok {
			if target.factory != nil {
				return target.factory(chainContainer{container: c, res: res})
			}

			identifier = target.identifier
		}
	}

	c.mu.RLock()
	b := c.bindings[identifier]
	c.mu.RUnlock()

	if b == nil {
		return nil, errors.ErrBindingNotFound(identifier)
	}

	// Cycle detection before recursing; unbounded recursion is the failure
	// mode otherwise.
	if slices.Contains(res.path, identifier) {
		cycle := make([]string, len(res.path), len(res.path)+1)
		copy(cycle, res.path)

		return nil, errors.ErrCircularDependency(append(cycle, identifier))
	}

	switch b.lifetime {
	case Singleton:
		return c.resolveSingleton(b, res)
	case Request:
		if res.scope == nil {
			return nil, fmt.Errorf("request-scoped binding '%s' must be resolved from a scope", identifier)
		}

		return res.scope.resolveScoped(b, res)
	default:
		return b.produce(c, res.child(b.identifier))
	}
}

// resolveSingleton returns the cached instance, creating it at most once.
func (c *container) resolveSingleton(b *binding, res *resolution) (any, error) {
	// Fast path: already resolved (read lock)
	b.mu.RLock()
	if b.state == StateResolved {
		instance := b.instance
		b.mu.RUnlock()

		return instance, nil
	}
	b.mu.RUnlock()

	// Slow path: create under the binding lock. Same-chain re-entrancy was
	// already rejected by the path check, so this cannot self-deadlock.
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.state == StateResolved {
		return b.instance, nil
	}

	b.state = StateResolving

	instance, err := b.produce(c, res.child(b.identifier))
	if err != nil {
		// Leave the binding marked unresolved; the failed boot aborts anyway.
		b.state = StateUnresolved

		return nil, err
	}

	b.instance = instance
	b.state = StateResolved

	return instance, nil
}

// Bound reports whether a binding exists for identifier.
func (c *container) Bound(identifier string) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()

	_, exists := c.bindings[identifier]

	return exists
}

// Resolved reports whether a singleton binding holds a cached instance.
func (c *container) Resolved(identifier string) bool {
	c.mu.RLock()
	b := c.bindings[identifier]
	c.mu.RUnlock()

	if b == nil {
		return false
	}

	b.mu.RLock()
	defer b.mu.RUnlock()

	return b.state == StateResolved
}

// Identifiers returns all bound identifiers in registration order.
func (c *container) Identifiers() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return slices.Clone(c.order)
}

// Inspect returns diagnostic information about a binding.
func (c *container) Inspect(identifier string) BindingInfo {
	c.mu.RLock()
	b := c.bindings[identifier]
	c.mu.RUnlock()

	if b == nil {
		return BindingInfo{Identifier: identifier}
	}

	return b.info()
}

// BeginScope creates a scope for request-lifetime bindings.
func (c *container) BeginScope() Scope {
	return newScope(c)
}

// Start resolves singleton bindings in dependency order and starts instances
// implementing shared.Starter. On failure, already started instances are
// stopped in reverse order.
func (c *container) Start(ctx context.Context) error {
	c.mu.Lock()
	if c.started {
		c.mu.Unlock()

		return errors.ErrContainerStarted()
	}

	graph := NewDependencyGraph()
	for _, name := range c.order {
		graph.AddNode(name, c.bindings[name].dependencies)
	}
	c.mu.Unlock()

	order, err := graph.TopologicalSort()
	if err != nil {
		return err
	}

	for i, name := range order {
		if err := c.startBinding(ctx, name); err != nil {
			c.stopBindings(ctx, order[:i])

			return errors.ErrLifecycleError("start of '"+name+"'", err)
		}
	}

	c.mu.Lock()
	c.started = true
	c.mu.Unlock()

	return nil
}

// Stop stops started instances in reverse dependency order.
func (c *container) Stop(ctx context.Context) error {
	c.mu.Lock()
	if !c.started {
		c.mu.Unlock()

		return nil
	}

	graph := NewDependencyGraph()
	for _, name := range c.order {
		graph.AddNode(name, c.bindings[name].dependencies)
	}
	c.mu.Unlock()

	order, err := graph.TopologicalSort()
	if err != nil {
		return err
	}

	var firstErr error

	for i := len(order) - 1; i >= 0; i-- {
		if err := c.stopBinding(ctx, order[i]); err != nil && firstErr == nil {
			firstErr = errors.ErrLifecycleError("stop of '"+order[i]+"'", err)
		}
	}

	c.mu.Lock()
	c.started = false
	c.mu.Unlock()

	return firstErr
}

// Health checks all resolved singletons implementing shared.HealthChecker.
func (c *container) Health(ctx context.Context) error {
	for identifier, err := range c.HealthReport(ctx) {
		if err != nil {
			return errors.ErrLifecycleError("health check of '"+identifier+"'", err)
		}
	}

	return nil
}

// HealthReport returns per-identifier health results for resolved singletons
// exposing a health check.
func (c *container) HealthReport(ctx context.Context) map[string]error {
	c.mu.RLock()
	names := slices.Clone(c.order)
	bindings := make([]*binding, 0, len(names))

	for _, name := range names {
		bindings = append(bindings, c.bindings[name])
	}
	c.mu.RUnlock()

	report := make(map[string]error)

	for _, b := range bindings {
		b.mu.RLock()
		instance := b.instance
		resolved := b.state == StateResolved
		b.mu.RUnlock()

		if !resolved || b.lifetime != Singleton {
			continue
		}

		if checker, ok := instance.(shared.HealthChecker); ok {
			report[b.identifier] = checker.Health(ctx)
		}
	}

	return report
}

// When begins a contextual binding for the given consumer.
func (c *container) When(consumer string) *ContextualBinding {
	return &ContextualBinding{container: c, consumer: consumer}
}

func (c *container) startBinding(ctx context.Context, name string) error {
	c.mu.RLock()
	b := c.bindings[name]
	c.mu.RUnlock()

	if b.lifetime != Singleton {
		return nil
	}

	instance, err := c.Resolve(name)
	if err != nil {
		return err
	}

	if starter, ok := instance.(shared.Starter); ok {
		if err := starter.Start(ctx); err != nil {
			return err
		}

		b.mu.Lock()
		b.started = true
		b.mu.Unlock()
	}

	return nil
}

func (c *container) stopBinding(ctx context.Context, name string) error {
	c.mu.RLock()
	b := c.bindings[name]
	c.mu.RUnlock()

	b.mu.RLock()
	instance := b.instance
	started := b.started
	b.mu.RUnlock()

	if !started || instance == nil {
		return nil
	}

	if stopper, ok := instance.(shared.Stopper); ok {
		if err := stopper.Stop(ctx); err != nil {
			return err
		}
	}

	b.mu.Lock()
	b.started = false
	b.mu.Unlock()

	return nil
}

// stopBindings stops multiple bindings in reverse order (rollback path).
func (c *container) stopBindings(ctx context.Context, names []string) {
	for i := len(names) - 1; i >= 0; i-- {
		_ = c.stopBinding(ctx, names[i])
	}
}

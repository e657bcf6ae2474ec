package di

import (
	"context"
	"reflect"

	"github.com/gantrykit/gantry/errors"
)

// Lifetime controls how long a resolved instance lives.
type Lifetime int

const (
	// Singleton bindings are resolved once and cached for the container lifetime.
	Singleton Lifetime = iota

	// Transient bindings produce a fresh instance on every resolution.
	Transient

	// Request bindings are cached per scope, typically one scope per HTTP request.
	Request
)

func (l Lifetime) String() string {
	switch l {
	case Singleton:
		return "singleton"
	case Transient:
		return "transient"
	case Request:
		return "request"
	default:
		return "unknown"
	}
}

// BindingState tracks a binding through resolution. Resolving exists only
// during the recursive call stack of one Resolve invocation; observing it
// again on the same path is the circular-dependency trigger.
type BindingState int

const (
	StateUnresolved BindingState = iota
	StateResolving
	StateResolved
)

func (s BindingState) String() string {
	switch s {
	case StateUnresolved:
		return "unresolved"
	case StateResolving:
		return "resolving"
	case StateResolved:
		return "resolved"
	default:
		return "unknown"
	}
}

// Factory is a user-supplied producer function. It receives a container view
// that continues the current resolution chain, so cycle detection and
// contextual overrides keep working through producer functions.
type Factory func(c Container) (any, error)

// Container maps identifiers to constructible values, honoring scope rules
// and contextual overrides. Bindings are registered during boot and treated
// as read-only at request time.
type Container interface {
	// Bind registers or replaces a binding. Last registration wins; re-binding
	// an identifier drops any cached instance. The factory is either a
	// constructor function whose parameters are introspected and recursively
	// resolved, or a Factory producer. An empty identifier derives the key
	// from the constructor's result type.
	Bind(identifier string, factory any, opts ...BindOption) error

	// BindInstance registers a pre-built value as a resolved singleton.
	BindInstance(identifier string, value any) error

	// Resolve returns the instance bound to identifier, building it and its
	// dependencies as needed.
	Resolve(identifier string) (any, error)

	// Bound reports whether a binding exists for identifier.
	Bound(identifier string) bool

	// Resolved reports whether a singleton binding has a cached instance.
	Resolved(identifier string) bool

	// When begins a contextual binding: while building consumer, a needed
	// identifier can be substituted with a different target.
	When(consumer string) *ContextualBinding

	// BeginScope creates a scope for request-lifetime bindings.
	BeginScope() Scope

	// Start resolves all singleton bindings in dependency order and calls
	// Start on instances implementing shared.Starter. Rolls back on failure.
	Start(ctx context.Context) error

	// Stop calls Stop on started instances in reverse dependency order.
	Stop(ctx context.Context) error

	// Health checks all resolved singletons implementing shared.HealthChecker.
	Health(ctx context.Context) error

	// HealthReport returns per-identifier health results for resolved
	// singletons that expose a health check.
	HealthReport(ctx context.Context) map[string]error

	// Inspect returns diagnostic information about a binding.
	Inspect(identifier string) BindingInfo

	// Identifiers returns all bound identifiers in registration order.
	Identifiers() []string
}

// Scope caches request-lifetime instances for the duration of one dispatch.
type Scope interface {
	// Resolve resolves through the parent container, caching Request-lifetime
	// instances in this scope.
	Resolve(identifier string) (any, error)

	// End discards the scope. Scoped instances implementing shared.Stopper
	// are stopped.
	End()
}

// BindingInfo contains diagnostic information about a binding.
type BindingInfo struct {
	Identifier   string   `json:"identifier"`
	Type         string   `json:"type,omitempty"`
	Lifetime     string   `json:"lifetime"`
	State        string   `json:"state"`
	Dependencies []string `json:"dependencies,omitempty"`
	Started      bool     `json:"started"`
}

type bindOptions struct {
	lifetime Lifetime
}

// BindOption configures a binding at registration time.
type BindOption func(*bindOptions)

// WithLifetime sets the binding's lifetime. Default is Singleton.
func WithLifetime(l Lifetime) BindOption {
	return func(o *bindOptions) {
		o.lifetime = l
	}
}

// New creates an empty container.
func New() Container {
	return newContainer()
}

// TypeKey derives the canonical identifier for a type: its package path
// joined with the type name. Pointer types share the key of their element.
func TypeKey[T any]() string {
	return typeKeyOf(reflect.TypeFor[T]())
}

// TypeKeyFor derives the canonical identifier for an already-reflected type.
func TypeKeyFor(t reflect.Type) string {
	return typeKeyOf(t)
}

func typeKeyOf(t reflect.Type) string {
	for t.Kind() == reflect.Ptr {
		t = t.Elem()
	}

	if t.PkgPath() != "" {
		return t.PkgPath() + "." + t.Name()
	}

	return t.Name()
}

// ConstructorKey derives the identifier a constructor binds under when no
// explicit key is given: the type key of its first result.
func ConstructorKey(ctor any) (string, error) {
	t := reflect.TypeOf(ctor)
	if t == nil || t.Kind() != reflect.Func {
		return "", errors.ErrInvalidFactory("", "constructor must be a function")
	}

	if t.NumOut() == 0 {
		return "", errors.ErrInvalidFactory("", "constructor must return a value")
	}

	return typeKeyOf(t.Out(0)), nil
}

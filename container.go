package gantry

import (
	"github.com/gantrykit/gantry/errors"
	"github.com/gantrykit/gantry/internal/di"
)

// Container is the dependency-injection container.
type Container = di.Container

// Scope caches request-lifetime instances for one dispatch.
type Scope = di.Scope

// Factory is a producer function bound into the container.
type Factory = di.Factory

// Lifetime controls how long resolved instances live.
type Lifetime = di.Lifetime

const (
	Singleton = di.Singleton
	Transient = di.Transient
	Request   = di.Request
)

// BindingInfo describes a binding for diagnostics.
type BindingInfo = di.BindingInfo

// BindOption configures a binding at registration time.
type BindOption = di.BindOption

// WithLifetime sets a binding's lifetime.
func WithLifetime(l Lifetime) BindOption {
	return di.WithLifetime(l)
}

// NewContainer creates an empty container, independent of any App.
func NewContainer() Container {
	return di.New()
}

// TypeKey derives the canonical container identifier for a type.
func TypeKey[T any]() string {
	return di.TypeKey[T]()
}

// Resolve resolves a typed value from a container. The identifier defaults
// to the type key of T.
func Resolve[T any](c Container, identifier ...string) (T, error) {
	key := TypeKey[T]()
	if len(identifier) > 0 {
		key = identifier[0]
	}

	value, err := c.Resolve(key)
	if err != nil {
		var zero T

		return zero, err
	}

	typed, ok := value.(T)
	if !ok {
		var zero T

		return zero, errors.ErrBindingNotFound(key)
	}

	return typed, nil
}

// MustResolve resolves a typed value and panics on failure. Boot-time use
// only.
func MustResolve[T any](c Container, identifier ...string) T {
	value, err := Resolve[T](c, identifier...)
	if err != nil {
		panic(err)
	}

	return value
}

// Package module implements declarative application modules: descriptors
// bundle providers, controllers and imports, and the loader walks the import
// graph turning descriptors into container bindings and route entries.
package module

import (
	"github.com/gantrykit/gantry/internal/di"
)

// Provider declares one service binding contributed by a module. The
// constructor's parameters are resolved from the container; a zero Key
// derives the identifier from the constructor's result type.
type Provider struct {
	Key         string
	Constructor any
	Lifetime    di.Lifetime
}

// Provide declares a singleton provider with a derived identifier.
func Provide(constructor any) Provider {
	return Provider{Constructor: constructor}
}

// ProvideNamed declares a singleton provider under an explicit identifier.
func ProvideNamed(key string, constructor any) Provider {
	return Provider{Key: key, Constructor: constructor}
}

// ProvideTransient declares a provider resolved fresh on every use.
func ProvideTransient(constructor any) Provider {
	return Provider{Constructor: constructor, Lifetime: di.Transient}
}

// Descriptor is a module's declarative metadata. Immutable once registered;
// the loader reads it exactly once per module.
//
// Controllers holds constructor functions; each controller type must
// implement router.Controller so its routes can be introspected at load.
// Exports is advisory metadata surfaced by inspection endpoints; the
// container remains one flat namespace.
type Descriptor struct {
	Name        string
	Imports     []string
	Providers   []Provider
	Controllers []any
	Exports     []string
}

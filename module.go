package gantry

import (
	"github.com/gantrykit/gantry/internal/module"
)

// Module is a declarative unit of composition: providers, controllers,
// imported modules and exported identifiers.
type Module = module.Descriptor

// Provider declares one service binding contributed by a module.
type Provider = module.Provider

// Provide declares a singleton provider with a derived identifier.
func Provide(constructor any) Provider {
	return module.Provide(constructor)
}

// ProvideNamed declares a singleton provider under an explicit identifier.
func ProvideNamed(key string, constructor any) Provider {
	return module.ProvideNamed(key, constructor)
}

// ProvideTransient declares a provider resolved fresh on every use.
func ProvideTransient(constructor any) Provider {
	return module.ProvideTransient(constructor)
}

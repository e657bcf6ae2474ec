package module

import (
	"slices"
	"sync"

	"github.com/gantrykit/gantry/errors"
)

// Registry holds module descriptors keyed by name. One registry per
// application; never ambient, so tests build isolated graphs.
type Registry struct {
	descriptors map[string]Descriptor
	order       []string
	mu          sync.RWMutex
}

// NewRegistry creates an empty descriptor registry.
func NewRegistry() *Registry {
	return &Registry{
		descriptors: make(map[string]Descriptor),
	}
}

// Register validates and stores a descriptor. Registering the same name
// twice is a configuration error, not an override.
func (r *Registry) Register(d Descriptor) error {
	if d.Name == "" {
		return errors.ErrInvalidModuleDescriptor("(unnamed)", "module name is empty")
	}

	for _, p := range d.Providers {
		if p.Constructor == nil {
			return errors.ErrInvalidModuleDescriptor(d.Name, "provider has a nil constructor")
		}
	}

	for _, ctrl := range d.Controllers {
		if ctrl == nil {
			return errors.ErrInvalidModuleDescriptor(d.Name, "controller entry is nil")
		}
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.descriptors[d.Name]; exists {
		return errors.ErrInvalidModuleDescriptor(d.Name, "module registered twice")
	}

	r.descriptors[d.Name] = d
	r.order = append(r.order, d.Name)

	return nil
}

// Get returns a descriptor by name.
func (r *Registry) Get(name string) (Descriptor, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	d, ok := r.descriptors[name]

	return d, ok
}

// Names returns registered module names in registration order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return slices.Clone(r.order)
}

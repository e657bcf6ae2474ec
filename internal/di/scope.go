package di

import (
	"context"
	"sync"

	"github.com/gantrykit/gantry/errors"
	"github.com/gantrykit/gantry/internal/shared"
)

// scopeImpl caches Request-lifetime instances for one dispatch.
type scopeImpl struct {
	container *container
	instances map[string]any
	order     []string
	ended     bool
	mu        sync.Mutex
}

func newScope(c *container) *scopeImpl {
	return &scopeImpl{
		container: c,
		instances: make(map[string]any),
	}
}

// Resolve resolves through the parent container, caching Request-lifetime
// instances in this scope.
func (s *scopeImpl) Resolve(identifier string) (any, error) {
	s.mu.Lock()
	ended := s.ended
	s.mu.Unlock()

	if ended {
		return nil, errors.ErrScopeEnded()
	}

	return s.container.resolve(identifier, &resolution{scope: s})
}

// resolveScoped returns the scope-cached instance for a Request binding,
// creating it on first use within this scope.
func (s *scopeImpl) resolveScoped(b *binding, res *resolution) (any, error) {
	s.mu.Lock()
	if s.ended {
		s.mu.Unlock()

		return nil, errors.ErrScopeEnded()
	}

	if instance, ok := s.instances[b.identifier]; ok {
		s.mu.Unlock()

		return instance, nil
	}
	s.mu.Unlock()

	instance, err := b.produce(s.container, res.child(b.identifier))
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	// Another resolution on the same scope may have won the race.
	if cached, ok := s.instances[b.identifier]; ok {
		return cached, nil
	}

	s.instances[b.identifier] = instance
	s.order = append(s.order, b.identifier)

	return instance, nil
}

// End discards the scope, stopping scoped instances in reverse creation order.
func (s *scopeImpl) End() {
	s.mu.Lock()
	if s.ended {
		s.mu.Unlock()

		return
	}

	s.ended = true
	instances := s.instances
	order := s.order
	s.instances = nil
	s.order = nil
	s.mu.Unlock()

	for i := len(order) - 1; i >= 0; i-- {
		if stopper, ok := instances[order[i]].(shared.Stopper); ok {
			_ = stopper.Stop(context.Background())
		}
	}
}

package di

import (
	"fmt"
	"reflect"
	"sync"

	"github.com/gantrykit/gantry/errors"
)

// binding is the registered recipe for producing a value for an identifier.
type binding struct {
	identifier   string
	lifetime     Lifetime
	produce      func(c *container, res *resolution) (any, error)
	dependencies []string
	resultType   reflect.Type

	state    BindingState
	instance any
	started  bool
	mu       sync.RWMutex
}

var (
	containerType = reflect.TypeFor[Container]()
	errorType     = reflect.TypeFor[error]()
)

// newFactoryBinding wraps a producer function. Dependencies are unknown until
// the producer runs, so the binding carries none.
func newFactoryBinding(identifier string, factory Factory, lifetime Lifetime) *binding {
	return &binding{
		identifier: identifier,
		lifetime:   lifetime,
		produce: func(c *container, res *resolution) (any, error) {
			return factory(chainContainer{container: c, res: res})
		},
	}
}

// newInstanceBinding wraps a pre-built value. Resolution is a pure lookup.
func newInstanceBinding(identifier string, value any) *binding {
	return &binding{
		identifier: identifier,
		lifetime:   Singleton,
		state:      StateResolved,
		instance:   value,
		resultType: reflect.TypeOf(value),
	}
}

// constructorParam describes one introspected constructor parameter.
type constructorParam struct {
	typ reflect.Type
	key string // type key, empty for container and primitive params
}

// newConstructorBinding introspects a constructor function. Each non-primitive
// parameter becomes a dependency resolved recursively by type key; primitive
// parameters receive their zero value when unbound; a Container parameter
// receives the resolving container.
func newConstructorBinding(identifier string, ctor any, lifetime Lifetime) (*binding, error) {
	fnValue := reflect.ValueOf(ctor)
	fnType := fnValue.Type()

	if fnType.Kind() != reflect.Func {
		return nil, errors.ErrInvalidFactory(identifier, fmt.Sprintf("expected a function, got %s", fnType.Kind()))
	}

	switch fnType.NumOut() {
	case 1:
		if fnType.Out(0) == errorType {
			return nil, errors.ErrInvalidFactory(identifier, "constructor must return a value, not only an error")
		}
	case 2:
		if fnType.Out(1) != errorType {
			return nil, errors.ErrInvalidFactory(identifier, "second return value must be error")
		}
	default:
		return nil, errors.ErrInvalidFactory(identifier, "constructor must return (T) or (T, error)")
	}

	params := make([]constructorParam, fnType.NumIn())
	deps := make([]string, 0, fnType.NumIn())

	for i := range fnType.NumIn() {
		in := fnType.In(i)
		p := constructorParam{typ: in}

		switch {
		case in == containerType:
			// injected directly, not a graph edge
		case isPrimitive(in):
			// unbound primitives default to their zero value
		default:
			p.key = typeKeyOf(in)
			deps = append(deps, p.key)
		}

		params[i] = p
	}

	b := &binding{
		identifier:   identifier,
		lifetime:     lifetime,
		dependencies: deps,
		resultType:   fnType.Out(0),
	}
	b.produce = func(c *container, res *resolution) (any, error) {
		args := make([]reflect.Value, len(params))

		for i, p := range params {
			switch {
			case p.typ == containerType:
				args[i] = reflect.ValueOf(chainContainer{container: c, res: res})
			case p.key == "":
				args[i] = reflect.Zero(p.typ)
			default:
				dep, err := c.resolve(p.key, res)
				if err != nil {
					if errors.IsBindingNotFound(err) {
						return nil, errors.ErrUnresolvableDependency(
							fmt.Sprintf("%s (parameter %d, %s)", p.key, i, p.typ), identifier)
					}

					return nil, err
				}

				depValue := reflect.ValueOf(dep)
				if !depValue.Type().AssignableTo(p.typ) {
					return nil, errors.ErrInvalidFactory(identifier,
						fmt.Sprintf("binding '%s' produced %s, parameter %d wants %s", p.key, depValue.Type(), i, p.typ))
				}

				args[i] = depValue
			}
		}

		out := fnValue.Call(args)
		if len(out) == 2 && !out[1].IsNil() {
			return nil, out[1].Interface().(error)
		}

		return out[0].Interface(), nil
	}

	return b, nil
}

// isPrimitive reports whether a type counts as a default-valued parameter
// rather than a resolvable dependency.
func isPrimitive(t reflect.Type) bool {
	switch t.Kind() {
	case reflect.Bool, reflect.String,
		reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Float32, reflect.Float64:
		return true
	default:
		return false
	}
}

func (b *binding) info() BindingInfo {
	b.mu.RLock()
	defer b.mu.RUnlock()

	typeName := ""
	if b.resultType != nil {
		typeName = b.resultType.String()
	} else if b.instance != nil {
		typeName = fmt.Sprintf("%T", b.instance)
	}

	return BindingInfo{
		Identifier:   b.identifier,
		Type:         typeName,
		Lifetime:     b.lifetime.String(),
		State:        b.state.String(),
		Dependencies: b.dependencies,
		Started:      b.started,
	}
}

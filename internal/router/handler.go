package router

import (
	"fmt"
	"net/http"
	"reflect"

	"github.com/gantrykit/gantry/errors"
	"github.com/gantrykit/gantry/internal/di"
)

var (
	contextType = reflect.TypeFor[Context]()
	errorType   = reflect.TypeFor[error]()
)

var errNoScope = errors.New("no container wired into the router")

type paramKind int

const (
	paramContext paramKind = iota
	paramService
	paramRequest
)

type paramSpec struct {
	kind paramKind
	typ  reflect.Type
	key  string // service type key
}

// signature is the analyzed shape of a handler function or controller method.
type signature struct {
	params       []paramSpec
	returnsValue bool
}

// analyzeSignature validates and classifies a handler signature. Supported
// shapes, after skipping the receiver for bound methods:
//
//	func(ctx Context) error
//	func(ctx Context) (T, error)
//	func(ctx Context, req *R) (T, error)
//	func(ctx Context, svc S) error
//	func(ctx Context, svc S) (T, error)
//	func(ctx Context, svc S, req *R) (T, error)
//
// The last parameter, when a pointer to struct, is the request object bound
// from path/query/header/body tags; any other extra parameter is a service
// resolved from the container by type key.
func analyzeSignature(ft reflect.Type, offset int) (*signature, error) {
	if ft.NumIn() <= offset || ft.In(offset) != contextType {
		return nil, fmt.Errorf("handler must take Context as its first parameter, got %v", ft)
	}

	sig := &signature{}

	switch ft.NumOut() {
	case 1:
		if ft.Out(0) != errorType {
			return nil, fmt.Errorf("handler with one result must return error, got %v", ft)
		}
	case 2:
		if ft.Out(1) != errorType {
			return nil, fmt.Errorf("handler's second result must be error, got %v", ft)
		}

		sig.returnsValue = true
	default:
		return nil, fmt.Errorf("handler must return error or (T, error), got %v", ft)
	}

	sig.params = append(sig.params, paramSpec{kind: paramContext})

	for i := offset + 1; i < ft.NumIn(); i++ {
		in := ft.In(i)

		last := i == ft.NumIn()-1
		if last && in.Kind() == reflect.Ptr && in.Elem().Kind() == reflect.Struct && sig.returnsValue {
			sig.params = append(sig.params, paramSpec{kind: paramRequest, typ: in})

			continue
		}

		sig.params = append(sig.params, paramSpec{kind: paramService, typ: in, key: di.TypeKeyFor(in)})
	}

	return sig, nil
}

// convertHandler converts any supported handler shape to Handler.
func convertHandler(handler any) (Handler, error) {
	switch h := handler.(type) {
	case Handler:
		return h, nil
	case func(Context) error:
		return h, nil
	case http.Handler:
		return func(ctx Context) error {
			h.ServeHTTP(ctx.Response(), ctx.Request())

			return nil
		}, nil
	case func(http.ResponseWriter, *http.Request):
		return func(ctx Context) error {
			h(ctx.Response(), ctx.Request())

			return nil
		}, nil
	}

	fnValue := reflect.ValueOf(handler)
	if !fnValue.IsValid() || fnValue.Kind() != reflect.Func {
		return nil, fmt.Errorf("unsupported handler type %T", handler)
	}

	sig, err := analyzeSignature(fnValue.Type(), 0)
	if err != nil {
		return nil, err
	}

	return func(ctx Context) error {
		return invoke(ctx, sig, nil, fnValue)
	}, nil
}

// methodHandler builds the dispatch closure for a controller route: resolve
// a fresh controller instance from the container, then invoke the named
// method. Signature analysis and method lookup happen once, at registration.
func methodHandler(identifier, methodName string, controllerType reflect.Type) (Handler, error) {
	method, ok := controllerType.MethodByName(methodName)
	if !ok {
		return nil, fmt.Errorf("type %s has no method %s", controllerType, methodName)
	}

	sig, err := analyzeSignature(method.Type, 1)
	if err != nil {
		return nil, fmt.Errorf("method %s.%s: %w", controllerType, methodName, err)
	}

	return func(ctx Context) error {
		instance, err := ctx.Resolve(identifier)
		if err != nil {
			return fmt.Errorf("resolving controller '%s': %w", identifier, err)
		}

		receiver := reflect.ValueOf(instance)
		if !receiver.Type().AssignableTo(controllerType) {
			return fmt.Errorf("controller '%s' resolved to %s, want %s", identifier, receiver.Type(), controllerType)
		}

		return invoke(ctx, sig, []reflect.Value{receiver}, method.Func)
	}, nil
}

// invoke builds the argument list for an analyzed signature and dispatches
// the call, encoding the result per the handler shape.
func invoke(ctx Context, sig *signature, receiver []reflect.Value, fn reflect.Value) error {
	args := make([]reflect.Value, 0, len(receiver)+len(sig.params))
	args = append(args, receiver...)

	for _, p := range sig.params {
		switch p.kind {
		case paramContext:
			args = append(args, reflect.ValueOf(ctx))
		case paramService:
			service, err := ctx.Resolve(p.key)
			if err != nil {
				return fmt.Errorf("resolving handler service '%s': %w", p.key, err)
			}

			serviceValue := reflect.ValueOf(service)
			if !serviceValue.Type().AssignableTo(p.typ) {
				return fmt.Errorf("service '%s' resolved to %s, want %s", p.key, serviceValue.Type(), p.typ)
			}

			args = append(args, serviceValue)
		case paramRequest:
			request := reflect.New(p.typ.Elem())
			if err := ctx.BindRequest(request.Interface()); err != nil {
				return err
			}

			args = append(args, request)
		}
	}

	out := fn.Call(args)

	if !sig.returnsValue {
		if err, ok := out[0].Interface().(error); ok && err != nil {
			return err
		}

		return nil
	}

	if err, ok := out[1].Interface().(error); ok && err != nil {
		return err
	}

	result := out[0]
	if isNilable(result.Kind()) && result.IsNil() {
		return ctx.NoContent(http.StatusNoContent)
	}

	return ctx.JSON(http.StatusOK, result.Interface())
}

func isNilable(k reflect.Kind) bool {
	switch k {
	case reflect.Ptr, reflect.Interface, reflect.Slice, reflect.Map, reflect.Chan, reflect.Func:
		return true
	default:
		return false
	}
}

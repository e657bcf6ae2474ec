package router

import (
	"context"

	"github.com/gantrykit/gantry/internal/di"
	"github.com/gantrykit/gantry/internal/shared"
	"github.com/gantrykit/gantry/logger"
)

// Handler is the request handler signature all handler shapes convert to.
type Handler func(ctx Context) error

// Middleware wraps a Handler.
type Middleware func(next Handler) Handler

// Route is a controller's declarative route annotation: an HTTP method, a
// sub-path relative to the controller prefix, and the name of the exported
// controller method that handles it.
type Route struct {
	Method  string
	Path    string
	Handler string
}

// Controller declares routes handled by methods of the implementing type.
// Controllers are bound transient: every request gets a fresh instance.
type Controller interface {
	Routes() []Route
}

// ControllerWithPrefix adds a path prefix shared by all of a controller's routes.
type ControllerWithPrefix interface {
	Prefix() string
}

// ControllerWithMiddleware adds middleware shared by all of a controller's routes.
type ControllerWithMiddleware interface {
	Middleware() []Middleware
}

// RouteEntry describes one registered route. Built at load time, immutable
// afterward, read on every request.
type RouteEntry struct {
	Method     string `json:"method"`
	Pattern    string `json:"pattern"`
	Controller string `json:"controller,omitempty"`
	Handler    string `json:"handler,omitempty"`
	Name       string `json:"name,omitempty"`
}

// RouteOption configures a route at registration time.
type RouteOption func(*routeConfig)

type routeConfig struct {
	name       string
	middleware []Middleware
	controller string
	handler    string
}

// WithName names a route for diagnostics.
func WithName(name string) RouteOption {
	return func(cfg *routeConfig) {
		cfg.name = name
	}
}

// WithMiddleware attaches route-level middleware, run after group middleware.
func WithMiddleware(mw ...Middleware) RouteOption {
	return func(cfg *routeConfig) {
		cfg.middleware = append(cfg.middleware, mw...)
	}
}

// withDispatchTarget records the controller identifier and method name a
// route dispatches to. Set by controller registration.
func withDispatchTarget(controller, handler string) RouteOption {
	return func(cfg *routeConfig) {
		cfg.controller = controller
		cfg.handler = handler
	}
}

// RouterOption configures a router at construction time.
type RouterOption func(*routerConfig)

type routerConfig struct {
	adapter   Adapter
	container di.Container
	logger    logger.Logger
	metrics   shared.Metrics
}

// WithAdapter selects the HTTP matching engine. Default is the native tree.
func WithAdapter(a Adapter) RouterOption {
	return func(cfg *routerConfig) {
		cfg.adapter = a
	}
}

// WithContainer sets the container used to resolve controllers and services.
func WithContainer(c di.Container) RouterOption {
	return func(cfg *routerConfig) {
		cfg.container = c
	}
}

// WithLogger sets the dispatch logger.
func WithLogger(l logger.Logger) RouterOption {
	return func(cfg *routerConfig) {
		cfg.logger = l
	}
}

// WithMetrics sets the dispatch instrumentation sink.
func WithMetrics(m shared.Metrics) RouterOption {
	return func(cfg *routerConfig) {
		cfg.metrics = m
	}
}

// paramsKey carries matched path parameters through the request context,
// set by whichever adapter matched the route.
type paramsKey struct{}

// WithParams stores matched path parameters in a request context.
func WithParams(ctx context.Context, params map[string]string) context.Context {
	return context.WithValue(ctx, paramsKey{}, params)
}

// ParamsFromContext extracts matched path parameters from a request context.
func ParamsFromContext(ctx context.Context) map[string]string {
	params, _ := ctx.Value(paramsKey{}).(map[string]string)

	return params
}

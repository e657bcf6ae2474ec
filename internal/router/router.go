package router

import (
	"net/http"
	"reflect"
	"slices"
	"sync"
	"time"

	gerrors "github.com/gantrykit/gantry/errors"
	"github.com/gantrykit/gantry/internal/di"
	"github.com/gantrykit/gantry/internal/shared"
	"github.com/gantrykit/gantry/logger"
)

// Router owns the route table. Routes are registered during module loading
// and the table is read-only afterward; dispatch takes no locks beyond the
// container's own discipline.
type Router interface {
	GET(path string, handler any, opts ...RouteOption) error
	POST(path string, handler any, opts ...RouteOption) error
	PUT(path string, handler any, opts ...RouteOption) error
	DELETE(path string, handler any, opts ...RouteOption) error
	PATCH(path string, handler any, opts ...RouteOption) error
	OPTIONS(path string, handler any, opts ...RouteOption) error
	HEAD(path string, handler any, opts ...RouteOption) error

	// Handle registers a handler for an explicit method.
	Handle(method, path string, handler any, opts ...RouteOption) error

	// Mount attaches a raw http.Handler subtree, bypassing handler
	// conversion and middleware.
	Mount(path string, handler http.Handler) error

	// Group creates a sub-router sharing the route table, with an extended
	// prefix and an independent middleware chain seeded from this one.
	Group(prefix string) Router

	// Use appends middleware applied to routes registered through this
	// router or its later groups.
	Use(mw ...Middleware)

	// RegisterController introspects a controller instance for its route
	// annotations and registers a dispatch closure per route. The instance
	// itself is only used for introspection; dispatch resolves a fresh
	// instance from the container by identifier on every request.
	RegisterController(identifier string, ctrl Controller) error

	// Routes returns the registered route table.
	Routes() []RouteEntry

	// Handler returns the router as an http.Handler.
	Handler() http.Handler

	http.Handler
}

// routerImpl implements Router. Groups share the routes slice and mutex
// with their parent; prefix and middleware are per-group.
type routerImpl struct {
	adapter   Adapter
	container di.Container
	logger    logger.Logger
	metrics   shared.Metrics

	routes     *[]RouteEntry
	middleware []Middleware
	prefix     string

	mu *sync.RWMutex
}

// New creates a router.
func New(opts ...RouterOption) Router {
	cfg := &routerConfig{}
	for _, opt := range opts {
		opt(cfg)
	}

	if cfg.adapter == nil {
		cfg.adapter = NewTreeAdapter()
	}

	if cfg.logger == nil {
		cfg.logger = logger.NewNoop()
	}

	routes := make([]RouteEntry, 0)

	return &routerImpl{
		adapter:   cfg.adapter,
		container: cfg.container,
		logger:    cfg.logger,
		metrics:   cfg.metrics,
		routes:    &routes,
		mu:        &sync.RWMutex{},
	}
}

func (r *routerImpl) GET(path string, handler any, opts ...RouteOption) error {
	return r.Handle(http.MethodGet, path, handler, opts...)
}

func (r *routerImpl) POST(path string, handler any, opts ...RouteOption) error {
	return r.Handle(http.MethodPost, path, handler, opts...)
}

func (r *routerImpl) PUT(path string, handler any, opts ...RouteOption) error {
	return r.Handle(http.MethodPut, path, handler, opts...)
}

func (r *routerImpl) DELETE(path string, handler any, opts ...RouteOption) error {
	return r.Handle(http.MethodDelete, path, handler, opts...)
}

func (r *routerImpl) PATCH(path string, handler any, opts ...RouteOption) error {
	return r.Handle(http.MethodPatch, path, handler, opts...)
}

func (r *routerImpl) OPTIONS(path string, handler any, opts ...RouteOption) error {
	return r.Handle(http.MethodOptions, path, handler, opts...)
}

func (r *routerImpl) HEAD(path string, handler any, opts ...RouteOption) error {
	return r.Handle(http.MethodHead, path, handler, opts...)
}

// Handle registers a route (all registration funnels through here).
func (r *routerImpl) Handle(method, path string, handler any, opts ...RouteOption) error {
	cfg := &routeConfig{}
	for _, opt := range opts {
		opt(cfg)
	}

	converted, err := convertHandler(handler)
	if err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	fullPath := joinPath(r.prefix, path)

	// Router middleware first, then route middleware, applied innermost-last
	// so execution order is registration order.
	combined := slices.Clone(r.middleware)
	combined = append(combined, cfg.middleware...)

	final := converted
	for i := len(combined) - 1; i >= 0; i-- {
		final = combined[i](final)
	}

	r.adapter.Handle(method, fullPath, r.toHTTP(final, method, fullPath))

	*r.routes = append(*r.routes, RouteEntry{
		Method:     method,
		Pattern:    fullPath,
		Controller: cfg.controller,
		Handler:    cfg.handler,
		Name:       cfg.name,
	})

	return nil
}

// Mount attaches an http.Handler subtree.
func (r *routerImpl) Mount(path string, handler http.Handler) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	fullPath := joinPath(r.prefix, path)
	r.adapter.Mount(fullPath, handler)

	*r.routes = append(*r.routes, RouteEntry{Method: "*", Pattern: fullPath})

	return nil
}

// Group creates a sub-router with an extended prefix. Routes land in the
// shared table; middleware added to the group does not leak back.
func (r *routerImpl) Group(prefix string) Router {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return &routerImpl{
		adapter:    r.adapter,
		container:  r.container,
		logger:     r.logger,
		metrics:    r.metrics,
		routes:     r.routes,
		middleware: slices.Clone(r.middleware),
		prefix:     joinPath(r.prefix, prefix),
		mu:         r.mu,
	}
}

// Use appends middleware. Applied at registration time, so it only covers
// routes registered afterward through this router or its groups.
func (r *routerImpl) Use(mw ...Middleware) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.middleware = append(r.middleware, mw...)
}

// RegisterController registers a dispatch closure for each of the
// controller's declared routes.
func (r *routerImpl) RegisterController(identifier string, ctrl Controller) error {
	group := r

	if prefixed, ok := ctrl.(ControllerWithPrefix); ok {
		group = r.Group(prefixed.Prefix()).(*routerImpl)
	}

	if mc, ok := ctrl.(ControllerWithMiddleware); ok {
		group = group.Group("").(*routerImpl)
		group.Use(mc.Middleware()...)
	}

	controllerType := reflect.TypeOf(ctrl)

	for _, route := range ctrl.Routes() {
		handler, err := methodHandler(identifier, route.Handler, controllerType)
		if err != nil {
			return err
		}

		err = group.Handle(route.Method, route.Path, handler,
			withDispatchTarget(identifier, route.Handler))
		if err != nil {
			return err
		}
	}

	return nil
}

// Routes returns a copy of the route table.
func (r *routerImpl) Routes() []RouteEntry {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return slices.Clone(*r.routes)
}

// ServeHTTP implements http.Handler by delegating to the adapter, which
// matched routes already carry converted handlers and middleware.
func (r *routerImpl) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	r.adapter.ServeHTTP(w, req)
}

func (r *routerImpl) Handler() http.Handler {
	return r
}

// toHTTP wraps a Handler into an http.Handler: begin a request scope, build
// the dispatch context, run, and convert errors at the boundary into
// response envelopes so the dispatch loop survives handler failures.
func (r *routerImpl) toHTTP(h Handler, method, pattern string) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		start := time.Now()

		if r.metrics != nil {
			r.metrics.RequestStarted(method, pattern)
		}

		var scope di.Scope
		if r.container != nil {
			scope = r.container.BeginScope()
		}

		ctx := newContext(w, req, scope)
		defer ctx.finish()

		if err := h(ctx); err != nil {
			r.writeError(ctx, err)
		}

		if r.metrics != nil {
			status := ctx.StatusCode()
			if status == 0 {
				status = http.StatusOK
			}

			r.metrics.RequestCompleted(method, pattern, status, time.Since(start))
		}
	})
}

// writeError converts a handler error into a response envelope.
func (r *routerImpl) writeError(ctx *requestContext, err error) {
	r.logger.Error("handler error",
		logger.String("method", ctx.request.Method),
		logger.String("path", ctx.request.URL.Path),
		logger.Err(err),
	)

	// Headers already sent; nothing more to write.
	if ctx.StatusCode() != 0 {
		return
	}

	code := gerrors.CodeInternalError
	message := err.Error()

	var structured *gerrors.Error
	if gerrors.As(err, &structured) {
		code = structured.Code
		message = structured.Message
	}

	_ = ctx.JSON(gerrors.HTTPStatus(err), map[string]any{
		"code":    code,
		"message": message,
	})
}

// joinPath concatenates prefix and path, normalizing slashes.
func joinPath(prefix, path string) string {
	switch {
	case prefix == "":
		return path
	case path == "" || path == "/":
		return prefix
	}

	if prefix[len(prefix)-1] == '/' {
		prefix = prefix[:len(prefix)-1]
	}

	if path[0] != '/' {
		path = "/" + path
	}

	return prefix + path
}

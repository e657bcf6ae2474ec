package gantry

import (
	"github.com/gantrykit/gantry/internal/router"
)

// Context is the per-request dispatch context.
type Context = router.Context

// Handler is the request handler signature.
type Handler = router.Handler

// Middleware wraps a Handler.
type Middleware = router.Middleware

// Route is a controller's declarative route annotation.
type Route = router.Route

// Controller declares routes handled by methods of the implementing type.
type Controller = router.Controller

// ControllerWithPrefix adds a shared path prefix to a controller's routes.
type ControllerWithPrefix = router.ControllerWithPrefix

// ControllerWithMiddleware adds shared middleware to a controller's routes.
type ControllerWithMiddleware = router.ControllerWithMiddleware

// Router owns the route table.
type Router = router.Router

// RouteEntry describes one registered route.
type RouteEntry = router.RouteEntry

// RouteOption configures a route at registration time.
type RouteOption = router.RouteOption

// RouterOption configures a router at construction time.
type RouterOption = router.RouterOption

// Adapter is the HTTP matching engine behind the router.
type Adapter = router.Adapter

// WithName names a route for diagnostics.
var WithName = router.WithName

// WithMiddleware attaches route-level middleware.
var WithMiddleware = router.WithMiddleware

// WithAdapter selects the matching engine backing the router.
var WithAdapter = router.WithAdapter

// NewTreeAdapter creates the native match-tree adapter (default).
var NewTreeAdapter = router.NewTreeAdapter

// NewBunRouterAdapter creates a bunrouter-backed adapter.
var NewBunRouterAdapter = router.NewBunRouterAdapter

// NewChiAdapter creates a chi-backed adapter.
var NewChiAdapter = router.NewChiAdapter

// NewHTTPRouterAdapter creates an httprouter-backed adapter.
var NewHTTPRouterAdapter = router.NewHTTPRouterAdapter

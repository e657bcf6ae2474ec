package router

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gantrykit/gantry/errors"
	"github.com/gantrykit/gantry/internal/di"
)

type greeter struct {
	greeting string
}

func newGreeter() *greeter {
	return &greeter{greeting: "hello"}
}

func (g *greeter) Greet(name string) string {
	return g.greeting + ", " + name
}

type greetController struct {
	svc *greeter
}

func newGreetController(svc *greeter) *greetController {
	return &greetController{svc: svc}
}

func (c *greetController) Routes() []Route {
	return []Route{
		{Method: http.MethodGet, Path: "/greet/{name}", Handler: "Greet"},
		{Method: http.MethodGet, Path: "/greetings", Handler: "List"},
	}
}

func (c *greetController) Greet(ctx Context) error {
	return ctx.String(http.StatusOK, c.svc.Greet(ctx.Param("name")))
}

func (c *greetController) List(ctx Context) ([]string, error) {
	return []string{"hello", "hola"}, nil
}

type prefixedController struct{}

func (c *prefixedController) Prefix() string { return "/api/v1" }

func (c *prefixedController) Routes() []Route {
	return []Route{{Method: http.MethodGet, Path: "/status", Handler: "Status"}}
}

func (c *prefixedController) Status(ctx Context) error {
	return ctx.String(http.StatusOK, "ok")
}

func serve(r Router, method, target string, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	return rec
}

func TestRouterDispatch(t *testing.T) {
	r := New()

	err := r.GET("/ping", func(ctx Context) error {
		return ctx.String(http.StatusOK, "pong")
	})
	require.NoError(t, err)

	rec := serve(r, http.MethodGet, "/ping", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "pong", rec.Body.String())
}

func TestRouterPathParams(t *testing.T) {
	r := New()

	require.NoError(t, r.GET("/users/{id}/posts/{post}", func(ctx Context) error {
		return ctx.String(http.StatusOK, ctx.Param("id")+":"+ctx.Param("post"))
	}))

	rec := serve(r, http.MethodGet, "/users/7/posts/42", "")
	assert.Equal(t, "7:42", rec.Body.String())
}

func TestRouterNotFoundEnvelope(t *testing.T) {
	r := New()

	rec := serve(r, http.MethodGet, "/nope", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var envelope map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &envelope))
	assert.Equal(t, errors.CodeRouteNotFound, envelope["code"])
	assert.Contains(t, envelope["message"], "/nope")
}

func TestRouterErrorEnvelope(t *testing.T) {
	r := New()

	require.NoError(t, r.GET("/boom", func(ctx Context) error {
		return errors.New("kaput")
	}))

	rec := serve(r, http.MethodGet, "/boom", "")
	assert.Equal(t, http.StatusInternalServerError, rec.Code)

	var envelope map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &envelope))
	assert.Equal(t, errors.CodeInternalError, envelope["code"])
	assert.Equal(t, "kaput", envelope["message"])
}

func TestRouterStructuredErrorEnvelope(t *testing.T) {
	r := New()

	require.NoError(t, r.GET("/invalid", func(ctx Context) error {
		return errors.ErrValidationError("name", nil)
	}))

	rec := serve(r, http.MethodGet, "/invalid", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	var envelope map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &envelope))
	assert.Equal(t, errors.CodeValidationError, envelope["code"])
}

func TestRouterHandlerPanicsDoNotKillEnvelope(t *testing.T) {
	// Panics are the recovery middleware's job; a handler error after a
	// partial write must not produce a second envelope on top of it.
	r := New()

	require.NoError(t, r.GET("/partial", func(ctx Context) error {
		_ = ctx.String(http.StatusAccepted, "partial")

		return errors.New("too late")
	}))

	rec := serve(r, http.MethodGet, "/partial", "")
	assert.Equal(t, http.StatusAccepted, rec.Code)
	assert.Equal(t, "partial", rec.Body.String())
}

func TestRouterGroupPrefix(t *testing.T) {
	r := New()
	api := r.Group("/api")
	v1 := api.Group("/v1")

	require.NoError(t, v1.GET("/health", func(ctx Context) error {
		return ctx.String(http.StatusOK, "up")
	}))

	rec := serve(r, http.MethodGet, "/api/v1/health", "")
	assert.Equal(t, "up", rec.Body.String())

	routes := r.Routes()
	require.Len(t, routes, 1)
	assert.Equal(t, "/api/v1/health", routes[0].Pattern)
}

func TestRouterMiddlewareOrder(t *testing.T) {
	r := New()

	var order []string
	mw := func(name string) Middleware {
		return func(next Handler) Handler {
			return func(ctx Context) error {
				order = append(order, name)

				return next(ctx)
			}
		}
	}

	r.Use(mw("outer"))
	g := r.Group("/g")
	g.Use(mw("group"))

	require.NoError(t, g.GET("/x", func(ctx Context) error {
		order = append(order, "handler")

		return ctx.NoContent(http.StatusNoContent)
	}, WithMiddleware(mw("route"))))

	serve(r, http.MethodGet, "/g/x", "")
	assert.Equal(t, []string{"outer", "group", "route", "handler"}, order)
}

func TestRouterGroupMiddlewareDoesNotLeak(t *testing.T) {
	r := New()

	var hits int
	g := r.Group("/g")
	g.Use(func(next Handler) Handler {
		return func(ctx Context) error {
			hits++

			return next(ctx)
		}
	})

	require.NoError(t, r.GET("/plain", func(ctx Context) error {
		return ctx.NoContent(http.StatusNoContent)
	}))

	serve(r, http.MethodGet, "/plain", "")
	assert.Zero(t, hits)
}

func TestRouterServiceInjection(t *testing.T) {
	c := di.New()
	require.NoError(t, c.Bind("", newGreeter))

	r := New(WithContainer(c))

	require.NoError(t, r.GET("/hello/{name}", func(ctx Context, svc *greeter) error {
		return ctx.String(http.StatusOK, svc.Greet(ctx.Param("name")))
	}))

	rec := serve(r, http.MethodGet, "/hello/ada", "")
	assert.Equal(t, "hello, ada", rec.Body.String())
}

func TestRouterValueHandlerEncodesJSON(t *testing.T) {
	r := New()

	require.NoError(t, r.GET("/nums", func(ctx Context) ([]int, error) {
		return []int{1, 2, 3}, nil
	}))

	rec := serve(r, http.MethodGet, "/nums", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, "[1,2,3]", rec.Body.String())
}

func TestRouterNilValueMeansNoContent(t *testing.T) {
	r := New()

	require.NoError(t, r.GET("/nothing", func(ctx Context) (*greeter, error) {
		return nil, nil
	}))

	rec := serve(r, http.MethodGet, "/nothing", "")
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Empty(t, rec.Body.String())
}

type createItemRequest struct {
	Name  string `json:"name" validate:"required"`
	Count int    `json:"count"`
	Shelf string `path:"shelf"`
	Sort  string `query:"sort" default:"asc"`
}

func TestRouterRequestBinding(t *testing.T) {
	r := New()

	require.NoError(t, r.POST("/shelves/{shelf}/items", func(ctx Context, req *createItemRequest) (map[string]any, error) {
		return map[string]any{
			"name":  req.Name,
			"count": req.Count,
			"shelf": req.Shelf,
			"sort":  req.Sort,
		}, nil
	}))

	rec := serve(r, http.MethodPost, "/shelves/a1/items", `{"name":"bolt","count":4}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var out map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	assert.Equal(t, "bolt", out["name"])
	assert.Equal(t, float64(4), out["count"])
	assert.Equal(t, "a1", out["shelf"])
	assert.Equal(t, "asc", out["sort"])
}

func TestRouterRequestValidationFailure(t *testing.T) {
	r := New()

	require.NoError(t, r.POST("/shelves/{shelf}/items", func(ctx Context, req *createItemRequest) (map[string]any, error) {
		return nil, nil
	}))

	rec := serve(r, http.MethodPost, "/shelves/a1/items", `{"count":4}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	var envelope map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &envelope))
	assert.Equal(t, errors.CodeValidationError, envelope["code"])
}

func TestRouterRegisterController(t *testing.T) {
	c := di.New()
	require.NoError(t, c.Bind("", newGreeter))

	ident := di.TypeKey[greetController]()
	require.NoError(t, c.Bind(ident, newGreetController, di.WithLifetime(di.Transient)))

	introspect, err := c.Resolve(ident)
	require.NoError(t, err)

	r := New(WithContainer(c))
	require.NoError(t, r.RegisterController(ident, introspect.(Controller)))

	rec := serve(r, http.MethodGet, "/greet/lin", "")
	assert.Equal(t, "hello, lin", rec.Body.String())

	rec = serve(r, http.MethodGet, "/greetings", "")
	assert.JSONEq(t, `["hello","hola"]`, rec.Body.String())

	routes := r.Routes()
	require.Len(t, routes, 2)
	assert.Equal(t, ident, routes[0].Controller)
	assert.Equal(t, "Greet", routes[0].Handler)
}

func TestRouterRegisterControllerWithPrefix(t *testing.T) {
	c := di.New()

	ident := di.TypeKey[prefixedController]()
	require.NoError(t, c.Bind(ident, func() *prefixedController {
		return &prefixedController{}
	}, di.WithLifetime(di.Transient)))

	r := New(WithContainer(c))
	require.NoError(t, r.RegisterController(ident, &prefixedController{}))

	rec := serve(r, http.MethodGet, "/api/v1/status", "")
	assert.Equal(t, "ok", rec.Body.String())
}

func TestRouterRegisterControllerUnknownMethod(t *testing.T) {
	r := New()

	err := r.RegisterController("x", routesOnly{routes: []Route{
		{Method: http.MethodGet, Path: "/x", Handler: "Missing"},
	}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no method Missing")
}

type routesOnly struct {
	routes []Route
}

func (r routesOnly) Routes() []Route { return r.routes }

func TestRouterMount(t *testing.T) {
	r := New()

	require.NoError(t, r.Mount("/debug", http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("mounted:" + req.URL.Path))
	})))

	rec := serve(r, http.MethodGet, "/debug/vars", "")
	assert.Equal(t, "mounted:/debug/vars", rec.Body.String())
}

func TestRouterStdHandlerShapes(t *testing.T) {
	r := New()

	require.NoError(t, r.GET("/std", func(w http.ResponseWriter, req *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	}))

	rec := serve(r, http.MethodGet, "/std", "")
	assert.Equal(t, http.StatusTeapot, rec.Code)
}

func TestRouterRejectsBadHandler(t *testing.T) {
	r := New()

	err := r.GET("/bad", 42)
	require.Error(t, err)

	err = r.GET("/bad2", func(name string) error { return nil })
	require.Error(t, err)
}

package gantry

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gantrykit/gantry/logger"
)

type pingController struct{}

func newPingController() *pingController {
	return &pingController{}
}

func (c *pingController) Routes() []Route {
	return []Route{{Method: http.MethodGet, Path: "/ping", Handler: "Ping"}}
}

func (c *pingController) Ping(ctx Context) error {
	return ctx.String(http.StatusOK, "pong")
}

type counterService struct {
	calls *int
}

type userController struct{}

func newUserController() *userController {
	return &userController{}
}

func (c *userController) Prefix() string { return "/users" }

func (c *userController) Routes() []Route {
	return []Route{
		{Method: http.MethodGet, Path: "/me", Handler: "Me"},
		{Method: http.MethodGet, Path: "/{id}", Handler: "Show"},
	}
}

func (c *userController) Me(ctx Context) error {
	return ctx.String(http.StatusOK, "me")
}

func (c *userController) Show(ctx Context) error {
	return ctx.String(http.StatusOK, "user:"+ctx.Param("id"))
}

func newTestApp(t *testing.T) App {
	t.Helper()

	cfg := DefaultAppConfig()
	cfg.Logger = logger.NewNoop()
	cfg.Banner = false
	cfg.MetricsEnabled = false

	return New(cfg)
}

func get(t *testing.T, a App, path string) *httptest.ResponseRecorder {
	t.Helper()

	rec := httptest.NewRecorder()
	a.Router().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))

	return rec
}

func TestAppEndToEndPing(t *testing.T) {
	a := newTestApp(t)

	require.NoError(t, a.RegisterModule(Module{
		Name:        "root",
		Controllers: []any{newPingController},
	}))
	require.NoError(t, a.Start(t.Context()))

	defer func() { require.NoError(t, a.Stop(t.Context())) }()

	rec := get(t, a, "/ping")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "pong", rec.Body.String())
}

func TestAppDiamondImport(t *testing.T) {
	a := newTestApp(t)

	var constructions int
	require.NoError(t, a.RegisterModule(Module{
		Name: "shared",
		Providers: []Provider{Provide(func() *counterService {
			constructions++

			return &counterService{calls: &constructions}
		})},
	}))
	require.NoError(t, a.RegisterModule(Module{Name: "left", Imports: []string{"shared"}}))
	require.NoError(t, a.RegisterModule(Module{Name: "right", Imports: []string{"shared"}}))
	require.NoError(t, a.RegisterModule(Module{
		Name:        "root",
		Imports:     []string{"left", "right"},
		Controllers: []any{newPingController},
	}))

	require.NoError(t, a.Start(t.Context()))

	defer func() { require.NoError(t, a.Stop(t.Context())) }()

	assert.Equal(t, 1, constructions)
	assert.Equal(t, []string{"shared", "left", "right", "root"}, a.LoadedModules())
}

func TestAppRoutePrecedence(t *testing.T) {
	a := newTestApp(t)

	require.NoError(t, a.RegisterModule(Module{
		Name:        "users",
		Controllers: []any{newUserController},
	}))
	require.NoError(t, a.Start(t.Context()))

	defer func() { require.NoError(t, a.Stop(t.Context())) }()

	rec := get(t, a, "/users/me")
	assert.Equal(t, "me", rec.Body.String(), "literal must beat the parameter route")

	rec = get(t, a, "/users/42")
	assert.Equal(t, "user:42", rec.Body.String())
}

func TestAppStartTwice(t *testing.T) {
	a := newTestApp(t)

	require.NoError(t, a.Start(t.Context()))

	defer func() { require.NoError(t, a.Stop(t.Context())) }()

	require.Error(t, a.Start(t.Context()))
}

func TestAppBuiltinEndpoints(t *testing.T) {
	a := newTestApp(t)

	require.NoError(t, a.RegisterModule(Module{
		Name:        "root",
		Controllers: []any{newPingController},
		Exports:     []string{"ping"},
	}))
	require.NoError(t, a.Start(t.Context()))

	defer func() { require.NoError(t, a.Stop(t.Context())) }()

	rec := get(t, a, "/_/health")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"status":"healthy"`)

	rec = get(t, a, "/_/health/live")
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = get(t, a, "/_/health/ready")
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = get(t, a, "/_/routes")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"/ping"`)

	rec = get(t, a, "/_/modules")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"root"`)
	assert.Contains(t, rec.Body.String(), `"ping"`)

	rec = get(t, a, "/_/info")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"gantry-app"`)
}

func TestAppMetricsEndpoint(t *testing.T) {
	cfg := DefaultAppConfig()
	cfg.Logger = logger.NewNoop()
	cfg.Banner = false
	cfg.MetricsNamespace = "apptest"

	a := New(cfg)

	require.NoError(t, a.RegisterModule(Module{
		Name:        "root",
		Controllers: []any{newPingController},
	}))
	require.NoError(t, a.Start(t.Context()))

	defer func() { require.NoError(t, a.Stop(t.Context())) }()

	get(t, a, "/ping")

	rec := get(t, a, "/_/metrics")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "apptest_http_requests_total")
}

func TestAppResolveGeneric(t *testing.T) {
	a := newTestApp(t)

	var n int
	require.NoError(t, a.RegisterModule(Module{
		Name:      "svc",
		Providers: []Provider{Provide(func() *counterService { return &counterService{calls: &n} })},
	}))
	require.NoError(t, a.Start(t.Context()))

	defer func() { require.NoError(t, a.Stop(t.Context())) }()

	svc, err := Resolve[*counterService](a.Container())
	require.NoError(t, err)
	assert.NotNil(t, svc)

	_, err = Resolve[*userController](a.Container(), "missing")
	require.Error(t, err)
}

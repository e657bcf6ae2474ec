package module

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gantrykit/gantry/errors"
	"github.com/gantrykit/gantry/internal/di"
	"github.com/gantrykit/gantry/internal/router"
)

type clock struct {
	constructions *int
}

func newClockConstructor(counter *int) any {
	return func() *clock {
		*counter++

		return &clock{constructions: counter}
	}
}

type pingController struct{}

func newPingController() *pingController {
	return &pingController{}
}

func (c *pingController) Routes() []router.Route {
	return []router.Route{
		{Method: http.MethodGet, Path: "/ping", Handler: "Ping"},
	}
}

func (c *pingController) Ping(ctx router.Context) error {
	return ctx.String(http.StatusOK, "pong")
}

type notAController struct{}

func newNotAController() *notAController {
	return &notAController{}
}

func newLoaderFixture(t *testing.T) (*Registry, di.Container, router.Router, *Loader) {
	t.Helper()

	registry := NewRegistry()
	container := di.New()
	r := router.New(router.WithContainer(container))
	loader := NewLoader(registry, container, r, nil)

	return registry, container, r, loader
}

func TestLoadRegistersProvidersAndRoutes(t *testing.T) {
	registry, container, r, loader := newLoaderFixture(t)

	var constructions int
	require.NoError(t, registry.Register(Descriptor{
		Name:        "root",
		Providers:   []Provider{Provide(newClockConstructor(&constructions))},
		Controllers: []any{newPingController},
	}))

	require.NoError(t, loader.Load("root"))

	assert.True(t, container.Bound(di.TypeKey[clock]()))
	assert.Equal(t, 1, constructions, "provider must be eagerly resolved at load")

	routes := r.Routes()
	require.Len(t, routes, 1)
	assert.Equal(t, "/ping", routes[0].Pattern)
	assert.Equal(t, di.TypeKey[pingController](), routes[0].Controller)
}

func TestLoadEndToEndPing(t *testing.T) {
	registry, _, r, loader := newLoaderFixture(t)

	require.NoError(t, registry.Register(Descriptor{
		Name:        "root",
		Controllers: []any{newPingController},
	}))
	require.NoError(t, loader.Load("root"))

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/ping", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "pong", rec.Body.String())
}

func TestLoadIsIdempotent(t *testing.T) {
	registry, _, r, loader := newLoaderFixture(t)

	var constructions int
	require.NoError(t, registry.Register(Descriptor{
		Name:        "root",
		Providers:   []Provider{Provide(newClockConstructor(&constructions))},
		Controllers: []any{newPingController},
	}))

	require.NoError(t, loader.Load("root"))
	require.NoError(t, loader.Load("root"))
	require.NoError(t, loader.Load("root"))

	assert.Equal(t, 1, constructions)
	assert.Len(t, r.Routes(), 1)
	assert.Equal(t, []string{"root"}, loader.Loaded())
}

func TestDiamondImportLoadsSharedModuleOnce(t *testing.T) {
	registry, _, _, loader := newLoaderFixture(t)

	var constructions int
	require.NoError(t, registry.Register(Descriptor{
		Name:      "shared",
		Providers: []Provider{Provide(newClockConstructor(&constructions))},
	}))
	require.NoError(t, registry.Register(Descriptor{Name: "left", Imports: []string{"shared"}}))
	require.NoError(t, registry.Register(Descriptor{Name: "right", Imports: []string{"shared"}}))
	require.NoError(t, registry.Register(Descriptor{Name: "root", Imports: []string{"left", "right"}}))

	require.NoError(t, loader.Load("root"))

	assert.Equal(t, 1, constructions)
	assert.Equal(t, []string{"shared", "left", "right", "root"}, loader.Loaded())
}

func TestImportsLoadBeforeImporter(t *testing.T) {
	registry, _, _, loader := newLoaderFixture(t)

	// The importer's provider depends on a service the imported module
	// binds; load order is what makes the constructor resolvable.
	require.NoError(t, registry.Register(Descriptor{
		Name:      "base",
		Providers: []Provider{Provide(func() *clock { n := 0; return &clock{constructions: &n} })},
	}))
	require.NoError(t, registry.Register(Descriptor{
		Name:    "app",
		Imports: []string{"base"},
		Providers: []Provider{Provide(func(c *clock) *pingController {
			return &pingController{}
		})},
	}))

	require.NoError(t, loader.Load("app"))
	assert.Equal(t, []string{"base", "app"}, loader.Loaded())
}

func TestLoadUnknownModule(t *testing.T) {
	_, _, _, loader := newLoaderFixture(t)

	err := loader.Load("ghost")
	require.Error(t, err)
	assert.True(t, errors.IsModuleNotFound(err))
}

func TestLoadUnknownImport(t *testing.T) {
	registry, _, _, loader := newLoaderFixture(t)

	require.NoError(t, registry.Register(Descriptor{Name: "root", Imports: []string{"ghost"}}))

	err := loader.Load("root")
	require.Error(t, err)
	assert.True(t, errors.IsModuleNotFound(err))
}

func TestLoadImportCycle(t *testing.T) {
	registry, _, _, loader := newLoaderFixture(t)

	require.NoError(t, registry.Register(Descriptor{Name: "a", Imports: []string{"b"}}))
	require.NoError(t, registry.Register(Descriptor{Name: "b", Imports: []string{"a"}}))

	err := loader.Load("a")
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrInvalidModuleDescriptorSentinel))
	assert.Contains(t, err.Error(), "a -> b -> a")
}

func TestProviderFailureAbortsLoad(t *testing.T) {
	registry, _, r, loader := newLoaderFixture(t)

	require.NoError(t, registry.Register(Descriptor{
		Name: "broken",
		Providers: []Provider{Provide(func() (*clock, error) {
			return nil, errors.New("db unreachable")
		})},
		Controllers: []any{newPingController},
	}))

	err := loader.Load("broken")
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrProviderInitFailedSentinel))
	assert.Contains(t, err.Error(), "broken")

	// Aborted load: the module is not marked loaded and no routes were
	// registered after the failing provider.
	assert.Empty(t, loader.Loaded())
	assert.Empty(t, r.Routes())
}

func TestControllerWithoutRoutesIsInvalid(t *testing.T) {
	registry, _, _, loader := newLoaderFixture(t)

	require.NoError(t, registry.Register(Descriptor{
		Name:        "bad",
		Controllers: []any{newNotAController},
	}))

	err := loader.Load("bad")
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrInvalidModuleDescriptorSentinel))
}

func TestNamedProvider(t *testing.T) {
	registry, container, _, loader := newLoaderFixture(t)

	require.NoError(t, registry.Register(Descriptor{
		Name: "named",
		Providers: []Provider{ProvideNamed("app.clock", func() *clock {
			n := 0

			return &clock{constructions: &n}
		})},
	}))

	require.NoError(t, loader.Load("named"))
	assert.True(t, container.Bound("app.clock"))
	assert.False(t, container.Bound(di.TypeKey[clock]()))
}

func TestRegistryValidation(t *testing.T) {
	registry := NewRegistry()

	err := registry.Register(Descriptor{})
	require.Error(t, err)

	err = registry.Register(Descriptor{Name: "m", Providers: []Provider{{}}})
	require.Error(t, err)

	require.NoError(t, registry.Register(Descriptor{Name: "m"}))
	err = registry.Register(Descriptor{Name: "m"})
	require.Error(t, err)

	assert.Equal(t, []string{"m"}, registry.Names())
}

func TestLoadAll(t *testing.T) {
	registry, _, _, loader := newLoaderFixture(t)

	require.NoError(t, registry.Register(Descriptor{Name: "one"}))
	require.NoError(t, registry.Register(Descriptor{Name: "two", Imports: []string{"one"}}))

	require.NoError(t, loader.LoadAll())
	assert.Equal(t, []string{"one", "two"}, loader.Loaded())
}

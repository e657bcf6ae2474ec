package router

import (
	"net/http"
	"strings"

	"github.com/uptrace/bunrouter"
)

// bunAdapter backs the router with bunrouter. Note that bunrouter applies
// its own precedence rules, which agree with the native tree for the common
// literal-vs-placeholder cases.
type bunAdapter struct {
	router *bunrouter.Router
}

// NewBunRouterAdapter creates a bunrouter-backed adapter.
func NewBunRouterAdapter() Adapter {
	r := bunrouter.New(
		bunrouter.WithNotFoundHandler(func(w http.ResponseWriter, req bunrouter.Request) error {
			writeNotFound(w, req.Request)

			return nil
		}),
	)

	return &bunAdapter{router: r}
}

func (a *bunAdapter) Handle(method, path string, handler http.Handler) {
	a.router.Handle(method, toColonPattern(path), func(w http.ResponseWriter, req bunrouter.Request) error {
		params := req.Params().Map()
		handler.ServeHTTP(w, req.Request.WithContext(WithParams(req.Context(), params)))

		return nil
	})
}

func (a *bunAdapter) Mount(path string, handler http.Handler) {
	pattern := strings.TrimSuffix(path, "/*")

	h := func(w http.ResponseWriter, req bunrouter.Request) error {
		handler.ServeHTTP(w, req.Request)

		return nil
	}

	for _, method := range allMethods {
		a.router.Handle(method, pattern, h)
		a.router.Handle(method, pattern+"/*path", h)
	}
}

func (a *bunAdapter) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	a.router.ServeHTTP(w, r)
}

func (a *bunAdapter) Close() error {
	return nil
}

// toColonPattern rewrites {name} placeholders into bunrouter's :name form
// and gives anonymous wildcards the name bunrouter requires.
func toColonPattern(path string) string {
	segments := strings.Split(path, "/")
	for i, s := range segments {
		switch {
		case strings.HasPrefix(s, "{") && strings.HasSuffix(s, "}"):
			segments[i] = ":" + s[1:len(s)-1]
		case s == "*":
			segments[i] = "*path"
		}
	}

	return strings.Join(segments, "/")
}

package router

import (
	"net/http"
	"strings"

	"github.com/julienschmidt/httprouter"
)

// hrAdapter backs the router with httprouter. httprouter forbids a literal
// and a placeholder in the same position, so it only suits route tables
// that never mix the two; the native tree has no such restriction.
type hrAdapter struct {
	router *httprouter.Router
}

// NewHTTPRouterAdapter creates an httprouter-backed adapter.
func NewHTTPRouterAdapter() Adapter {
	r := httprouter.New()
	r.NotFound = http.HandlerFunc(writeNotFound)
	r.MethodNotAllowed = http.HandlerFunc(writeNotFound)

	return &hrAdapter{router: r}
}

func (a *hrAdapter) Handle(method, path string, handler http.Handler) {
	a.router.Handle(method, toColonPattern(path), func(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
		params := make(map[string]string, len(ps))
		for _, p := range ps {
			params[p.Key] = strings.TrimPrefix(p.Value, "/")
		}

		handler.ServeHTTP(w, r.WithContext(WithParams(r.Context(), params)))
	})
}

func (a *hrAdapter) Mount(path string, handler http.Handler) {
	pattern := strings.TrimSuffix(path, "/*")

	for _, method := range allMethods {
		a.router.Handler(method, pattern, handler)
		a.router.Handler(method, pattern+"/*path", handler)
	}
}

func (a *hrAdapter) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	a.router.ServeHTTP(w, r)
}

func (a *hrAdapter) Close() error {
	return nil
}

package router

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
)

// chiAdapter backs the router with chi for hosts that already run a chi
// middleware stack.
type chiAdapter struct {
	mux *chi.Mux
}

// NewChiAdapter creates a chi-backed adapter.
func NewChiAdapter() Adapter {
	mux := chi.NewRouter()
	mux.NotFound(writeNotFound)
	mux.MethodNotAllowed(writeNotFound)

	return &chiAdapter{mux: mux}
}

func (a *chiAdapter) Handle(method, path string, handler http.Handler) {
	wildcard := wildcardNameOf(path)

	a.mux.Method(method, toBracePattern(path), http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rctx := chi.RouteContext(r.Context())

		params := make(map[string]string, len(rctx.URLParams.Keys))
		for i, key := range rctx.URLParams.Keys {
			if key == "*" && wildcard != "" {
				key = wildcard
			}

			params[key] = rctx.URLParams.Values[i]
		}

		handler.ServeHTTP(w, r.WithContext(WithParams(r.Context(), params)))
	}))
}

func (a *chiAdapter) Mount(path string, handler http.Handler) {
	a.mux.Mount(strings.TrimSuffix(path, "/*"), handler)
}

func (a *chiAdapter) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	a.mux.ServeHTTP(w, r)
}

func (a *chiAdapter) Close() error {
	return nil
}

// toBracePattern rewrites :name placeholders into chi's {name} form and
// collapses named wildcards into chi's anonymous "*".
func toBracePattern(path string) string {
	segments := strings.Split(path, "/")
	for i, s := range segments {
		switch {
		case strings.HasPrefix(s, ":"):
			segments[i] = "{" + s[1:] + "}"
		case strings.HasPrefix(s, "*"):
			segments[i] = "*"
		}
	}

	return strings.Join(segments, "/")
}

// wildcardNameOf extracts the capture name of a trailing named wildcard.
func wildcardNameOf(path string) string {
	segments := splitPath(path)
	if len(segments) == 0 {
		return ""
	}

	last := segments[len(segments)-1]
	if name, ok := wildcardSegment(last); ok && name != "*" {
		return name
	}

	return ""
}

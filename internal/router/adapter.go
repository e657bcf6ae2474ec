package router

import (
	"net/http"
	"strings"

	"github.com/gantrykit/gantry/errors"
)

// Adapter is the HTTP matching engine behind the router. The native tree
// adapter is the default because the framework pins exact precedence and
// tie-break semantics; bunrouter, chi and httprouter adapters remain
// selectable for hosts standardized on those engines.
type Adapter interface {
	// Handle registers a handler for (method, path pattern). The adapter
	// must expose matched path parameters via WithParams on the request
	// context before invoking the handler.
	Handle(method, path string, handler http.Handler)

	// Mount registers a raw http.Handler subtree for all methods.
	Mount(path string, handler http.Handler)

	// ServeHTTP dispatches a request.
	ServeHTTP(w http.ResponseWriter, r *http.Request)

	// Close releases adapter resources.
	Close() error
}

// treeAdapter is the native engine.
type treeAdapter struct {
	tree     *tree
	notFound http.Handler
}

// NewTreeAdapter creates the native match-tree adapter (default).
func NewTreeAdapter() Adapter {
	return &treeAdapter{
		tree:     newTree(),
		notFound: http.HandlerFunc(writeNotFound),
	}
}

func (a *treeAdapter) Handle(method, path string, handler http.Handler) {
	a.tree.add(method, path, handler)
}

func (a *treeAdapter) Mount(path string, handler http.Handler) {
	pattern := strings.TrimSuffix(path, "/*")

	for _, method := range allMethods {
		a.tree.add(method, pattern, handler)
		a.tree.add(method, pattern+"/*", handler)
	}
}

func (a *treeAdapter) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	route, params, ok := a.tree.match(r.Method, r.URL.Path)
	if !ok {
		a.notFound.ServeHTTP(w, r)

		return
	}

	route.handler.ServeHTTP(w, r.WithContext(WithParams(r.Context(), params)))
}

func (a *treeAdapter) Close() error {
	return nil
}

var allMethods = []string{
	http.MethodGet,
	http.MethodPost,
	http.MethodPut,
	http.MethodDelete,
	http.MethodPatch,
	http.MethodOptions,
	http.MethodHead,
}

// writeNotFound emits the client-facing envelope for a route miss.
// Recoverable at the request level; the dispatch loop is unaffected.
func writeNotFound(w http.ResponseWriter, r *http.Request) {
	err := errors.ErrRouteNotFound(r.Method, r.URL.Path)

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusNotFound)

	_ = json.NewEncoder(w).Encode(map[string]any{
		"code":    errors.CodeRouteNotFound,
		"message": err.Message,
	})
}

package router

import (
	"context"
	"net/http"
	"sync"

	jsoniter "github.com/json-iterator/go"

	"github.com/gantrykit/gantry/internal/di"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// Context is the per-request dispatch context: the matched route's path
// parameters, the request and response, a value bag, and a container scope.
// Created at match time, discarded after the response; never shared across
// requests.
type Context interface {
	// Context returns the underlying request context.
	Context() context.Context

	// Request returns the inbound request.
	Request() *http.Request

	// Response returns the response writer.
	Response() http.ResponseWriter

	// Param returns a matched path parameter by name.
	Param(name string) string

	// Params returns all matched path parameters.
	Params() map[string]string

	// Query returns a query-string value by name.
	Query(name string) string

	// Header returns a request header value by name.
	Header(name string) string

	// SetHeader sets a response header.
	SetHeader(name, value string)

	// Bind decodes the request body into v.
	Bind(v any) error

	// BindRequest binds a request struct from all sources (path, query,
	// header, body tags) and validates it.
	BindRequest(v any) error

	// JSON writes a JSON response with the given status.
	JSON(status int, v any) error

	// String writes a plain-text response with the given status.
	String(status int, s string) error

	// NoContent writes an empty response with the given status.
	NoContent(status int) error

	// StatusCode returns the status written so far, 0 if none.
	StatusCode() int

	// Resolve resolves an identifier through the request scope, so
	// request-lifetime bindings are cached for this dispatch.
	Resolve(identifier string) (any, error)

	// Set stores a request-local value.
	Set(key string, value any)

	// Get returns a request-local value, nil if absent.
	Get(key string) any
}

// requestContext implements Context.
type requestContext struct {
	request  *http.Request
	response *statusRecorder
	params   map[string]string
	scope    di.Scope

	values map[string]any
	mu     sync.RWMutex
}

// newContext creates the dispatch context for one request. The scope may be
// nil when no container is wired; Resolve then fails cleanly.
func newContext(w http.ResponseWriter, r *http.Request, scope di.Scope) *requestContext {
	return &requestContext{
		request:  r,
		response: newStatusRecorder(w),
		params:   ParamsFromContext(r.Context()),
		scope:    scope,
	}
}

func (c *requestContext) Context() context.Context {
	return c.request.Context()
}

func (c *requestContext) Request() *http.Request {
	return c.request
}

func (c *requestContext) Response() http.ResponseWriter {
	return c.response
}

func (c *requestContext) Param(name string) string {
	return c.params[name]
}

func (c *requestContext) Params() map[string]string {
	return c.params
}

func (c *requestContext) Query(name string) string {
	return c.request.URL.Query().Get(name)
}

func (c *requestContext) Header(name string) string {
	return c.request.Header.Get(name)
}

func (c *requestContext) SetHeader(name, value string) {
	c.response.Header().Set(name, value)
}

func (c *requestContext) Bind(v any) error {
	if c.request.Body == nil {
		return nil
	}

	return json.NewDecoder(c.request.Body).Decode(v)
}

func (c *requestContext) JSON(status int, v any) error {
	c.response.Header().Set("Content-Type", "application/json")
	c.response.WriteHeader(status)

	return json.NewEncoder(c.response).Encode(v)
}

func (c *requestContext) String(status int, s string) error {
	c.response.Header().Set("Content-Type", "text/plain; charset=utf-8")
	c.response.WriteHeader(status)

	_, err := c.response.Write([]byte(s))

	return err
}

func (c *requestContext) NoContent(status int) error {
	c.response.WriteHeader(status)

	return nil
}

func (c *requestContext) StatusCode() int {
	return c.response.status
}

func (c *requestContext) Resolve(identifier string) (any, error) {
	if c.scope == nil {
		return nil, errNoScope
	}

	return c.scope.Resolve(identifier)
}

func (c *requestContext) Set(key string, value any) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.values == nil {
		c.values = make(map[string]any)
	}

	c.values[key] = value
}

func (c *requestContext) Get(key string) any {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return c.values[key]
}

// finish releases per-request resources.
func (c *requestContext) finish() {
	if c.scope != nil {
		c.scope.End()
	}
}

// statusRecorder captures the written status code so dispatch logging and
// metrics can report it.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func newStatusRecorder(w http.ResponseWriter) *statusRecorder {
	return &statusRecorder{ResponseWriter: w}
}

func (r *statusRecorder) WriteHeader(status int) {
	if r.status == 0 {
		r.status = status
	}

	r.ResponseWriter.WriteHeader(status)
}

func (r *statusRecorder) Write(b []byte) (int, error) {
	if r.status == 0 {
		r.status = http.StatusOK
	}

	return r.ResponseWriter.Write(b)
}

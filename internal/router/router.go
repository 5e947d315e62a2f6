// Package router implements the API's ordered route table. Routes are matched
// by a linear scan in registration order and the first match wins. There is
// no specificity scoring, so more specific patterns must be registered before
// general ones that would shadow them.
package router

import (
	"encoding/json"
	"net/http"
	"strings"
	"sync"

	"github.com/rosterapi/roster/internal/model"
)

// Params holds the path parameter values extracted from a matched pattern, in
// the order the placeholders appear.
type Params []string

// HandlerFunc is the signature for route handlers. Path parameters are passed
// positionally.
type HandlerFunc func(w http.ResponseWriter, r *http.Request, params Params)

// Middleware wraps a handler. Registered middleware run in registration
// order ahead of dispatch; a middleware short-circuits by writing a response
// and not calling next.
type Middleware func(next http.Handler) http.Handler

type route struct {
	method   string
	pattern  string
	segments []string
	handler  HandlerFunc
}

// Router is an ordered (method, pattern, handler) table behind a middleware
// chain. Register everything at startup; the table is immutable once serving.
type Router struct {
	basePath   string
	routes     []route
	middleware []Middleware

	once  sync.Once
	chain http.Handler
}

// New creates a Router that strips basePath from incoming request paths
// before matching, mirroring how the API is mounted under a prefix.
func New(basePath string) *Router {
	return &Router{basePath: strings.TrimSuffix(basePath, "/")}
}

// Use appends middleware to the pipeline. Order matters: the first registered
// middleware runs first.
func (rt *Router) Use(mw ...Middleware) {
	rt.middleware = append(rt.middleware, mw...)
}

// Handle registers a route. Patterns mix literal segments with {name}
// placeholders, each matching exactly one non-empty path segment. Placeholder
// names are not checked against the handler's expectations; a mismatch shows
// up when the handler reads its params.
func (rt *Router) Handle(method, pattern string, handler HandlerFunc) {
	rt.routes = append(rt.routes, route{
		method:   strings.ToUpper(method),
		pattern:  pattern,
		segments: splitPath(pattern),
		handler:  handler,
	})
}

// ServeHTTP composes the middleware chain on first use and serves through it.
func (rt *Router) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	rt.once.Do(func() {
		var h http.Handler = http.HandlerFunc(rt.dispatch)
		for i := len(rt.middleware) - 1; i >= 0; i-- {
			h = rt.middleware[i](h)
		}
		rt.chain = h
	})
	rt.chain.ServeHTTP(w, r)
}

// dispatch scans the route table in registration order and invokes the first
// route whose method and pattern match the full path.
func (rt *Router) dispatch(w http.ResponseWriter, r *http.Request) {
	path := strings.TrimPrefix(r.URL.Path, rt.basePath)
	if path == "" {
		path = "/"
	}
	segments := splitPath(path)

	for i := range rt.routes {
		rte := &rt.routes[i]
		if rte.method != r.Method {
			continue
		}
		if params, ok := match(rte.segments, segments); ok {
			rte.handler(w, r, params)
			return
		}
	}

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(http.StatusNotFound)
	json.NewEncoder(w).Encode(model.NewError(http.StatusNotFound, "Endpoint not found"))
}

// match compares a pattern against a concrete path segment by segment. Both
// are anchored: segment counts must be equal. A {name} placeholder matches
// any single non-empty segment and its value is appended to params.
func match(pattern, path []string) (Params, bool) {
	if len(pattern) != len(path) {
		return nil, false
	}

	var params Params
	for i, seg := range pattern {
		if isPlaceholder(seg) {
			if path[i] == "" {
				return nil, false
			}
			params = append(params, path[i])
			continue
		}
		if seg != path[i] {
			return nil, false
		}
	}
	return params, true
}

func isPlaceholder(seg string) bool {
	return len(seg) > 2 && seg[0] == '{' && seg[len(seg)-1] == '}'
}

// splitPath splits a path into segments, treating the root path as empty.
// Only the leading slash is stripped: a trailing slash yields an empty final
// segment, so "/students/" does not match a "/students" route.
func splitPath(p string) []string {
	p = strings.TrimPrefix(p, "/")
	if p == "" {
		return nil
	}
	return strings.Split(p, "/")
}

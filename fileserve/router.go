package fileserve

import (
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/baxromumarov/pollen"
)

// Handler produces the response to a request as a task.
type Handler func(Request) pollen.Task[*Response]

// MatchKind selects how a [Route] compares paths.
type MatchKind int

const (
	// Exact matches the path literally.
	Exact MatchKind = iota
	// Prefix matches any path starting with Route.Path.
	Prefix
)

// Route binds a method and path pattern to a handler.
type Route struct {
	Method  string
	Path    string
	Match   MatchKind
	Handler Handler
}

func (r Route) matches(method, path string) bool {
	if r.Method != method {
		return false
	}
	if r.Match == Prefix {
		return strings.HasPrefix(path, r.Path)
	}
	return path == r.Path
}

// Router dispatches requests over an immutable, ordered route table. The
// first matching route wins.
//
// Any handler failure, including a panic, is replaced by the not-found
// handler's response; if that fails too, a fixed 404 is served. A task
// returned by [Router.Serve] therefore always resolves to a response.
type Router struct {
	routes   []Route
	fallback Handler
	notFound Handler
	log      *slog.Logger
}

// RouterOption configures a [Router].
type RouterOption func(*Router)

// WithFallback sets the handler for requests no route matches. It
// defaults to the not-found handler.
func WithFallback(h Handler) RouterOption {
	return func(r *Router) { r.fallback = h }
}

// WithNotFound sets the handler that replaces failed responses. It
// defaults to a fixed 404.
func WithNotFound(h Handler) RouterOption {
	return func(r *Router) { r.notFound = h }
}

// WithRouterLogger sets the logger for substituted responses.
func WithRouterLogger(l *slog.Logger) RouterOption {
	return func(r *Router) { r.log = l }
}

// NewRouter builds a router over a copy of routes.
// Panics if any route has a nil handler.
func NewRouter(routes []Route, opts ...RouterOption) *Router {
	for i, rt := range routes {
		if rt.Handler == nil {
			panic(fmt.Sprintf("fileserve: route %d (%s %s) has nil handler", i, rt.Method, rt.Path))
		}
	}
	r := &Router{
		routes:   append([]Route(nil), routes...),
		notFound: staticNotFound,
		log:      slog.Default(),
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.fallback == nil {
		r.fallback = r.notFound
	}
	return r
}

// Route returns the handler for method and path.
func (r *Router) Route(method, path string) Handler {
	for _, rt := range r.routes {
		if rt.matches(method, path) {
			return rt.Handler
		}
	}
	return r.fallback
}

// Serve dispatches req and returns a task that always resolves to a
// response.
func (r *Router) Serve(req Request) pollen.Task[*Response] {
	h := r.Route(req.Method(), req.Path())
	return pollen.OrElse(invoke(h, req), func(err error) pollen.Task[*Response] {
		r.log.Debug("handler failed, serving not found",
			"method", req.Method(), "path", req.Path(), "error", err)
		return pollen.OrElse(invoke(r.notFound, req), func(err error) pollen.Task[*Response] {
			r.log.Warn("not found handler failed, serving fixed 404",
				"path", req.Path(), "error", err)
			return pollen.Value(notFoundResponse())
		})
	})
}

// deferred calls a handler on first poll so that both building and
// polling its task are covered by panic recovery.
type deferred struct {
	h   Handler
	req Request
	t   pollen.Task[*Response]
}

func invoke(h Handler, req Request) pollen.Task[*Response] {
	return pollen.CatchPanic[*Response](&deferred{h: h, req: req})
}

func (d *deferred) Poll(w *pollen.Waker) pollen.Poll[*Response] {
	if d.t == nil {
		d.t = d.h(d.req)
	}
	p := d.t.Poll(w)
	if p.IsReady() && p.Err() == nil && p.Value() == nil {
		return pollen.Fail[*Response](errNoResponse)
	}
	return p
}

func (d *deferred) Close() {
	if d.t != nil {
		pollen.Drop(d.t)
	}
}

const notFoundBody = "404 Not Found\n"

func notFoundResponse() *Response {
	return NewResponse().
		WithStatus(http.StatusNotFound).
		WithHeader("Content-Type", DefaultContentType).
		WithBody([]byte(notFoundBody))
}

func staticNotFound(Request) pollen.Task[*Response] {
	return pollen.Value(notFoundResponse())
}

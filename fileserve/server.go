package fileserve

import (
	"io"
	"io/fs"
	"log/slog"
	"net/http"
	"os"

	"github.com/baxromumarov/pollen"
)

// Default page names, relative to the served root.
const (
	DefaultIndexPage         = "index.html"
	DefaultNotFoundPage      = "not_found.html"
	DefaultInvalidMethodPage = "invalid_method.html"
)

// FileServer serves files from an [fs.FS]. Reads run off the polling
// goroutines, on fresh goroutines or on a [pollen.BlockingPool].
type FileServer struct {
	fsys fs.FS
	pool *pollen.BlockingPool
	sem  *pollen.Semaphore
	log  *slog.Logger

	indexPage         string
	notFoundPage      string
	invalidMethodPage string
}

// Option configures a [FileServer].
type Option func(*FileServer)

// WithBlockingPool reads files on p instead of one goroutine per read.
func WithBlockingPool(p *pollen.BlockingPool) Option {
	return func(s *FileServer) { s.pool = p }
}

// WithMaxInFlight caps concurrent file reads at n. Further requests wait
// for a permit without blocking their executor.
// Panics if n <= 0.
func WithMaxInFlight(n int) Option {
	sem := pollen.NewSemaphore(n)
	return func(s *FileServer) { s.sem = sem }
}

// WithLogger sets the logger. The default is [slog.Default].
func WithLogger(l *slog.Logger) Option {
	return func(s *FileServer) { s.log = l }
}

// WithPages overrides the index, not-found and invalid-method page names.
// Empty names keep the defaults.
func WithPages(index, notFound, invalidMethod string) Option {
	return func(s *FileServer) {
		if index != "" {
			s.indexPage = index
		}
		if notFound != "" {
			s.notFoundPage = notFound
		}
		if invalidMethod != "" {
			s.invalidMethodPage = invalidMethod
		}
	}
}

// New returns a FileServer for fsys.
func New(fsys fs.FS, opts ...Option) *FileServer {
	s := &FileServer{
		fsys:              fsys,
		log:               slog.Default(),
		indexPage:         DefaultIndexPage,
		notFoundPage:      DefaultNotFoundPage,
		invalidMethodPage: DefaultInvalidMethodPage,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// NewDir returns a FileServer for the directory tree at root.
func NewDir(root string, opts ...Option) *FileServer {
	return New(os.DirFS(root), opts...)
}

// SendFile returns a task delivering the file at raw, which is sanitized
// before use.
func (s *FileServer) SendFile(raw string) *FileTask {
	return newFileTask(s, raw, http.StatusOK)
}

// ServeFile handles GET for any path.
func (s *FileServer) ServeFile(req Request) pollen.Task[*Response] {
	return s.SendFile(req.Path())
}

// ServeIndex handles GET /.
func (s *FileServer) ServeIndex(Request) pollen.Task[*Response] {
	return s.SendFile(s.indexPage)
}

// NotFound delivers the not-found page with status 404. It fails if the
// page cannot be read; the router then serves its fixed 404.
func (s *FileServer) NotFound(Request) pollen.Task[*Response] {
	return newFileTask(s, s.notFoundPage, http.StatusNotFound)
}

// MethodNotAllowed delivers the invalid-method page with status 405. It
// fails if the page cannot be read, sending the router down its not-found
// chain.
func (s *FileServer) MethodNotAllowed(Request) pollen.Task[*Response] {
	return newFileTask(s, s.invalidMethodPage, http.StatusMethodNotAllowed)
}

// Routes returns the file-serving route table: GET / serves the index
// page and any other GET serves the named file.
func (s *FileServer) Routes() []Route {
	return []Route{
		{Method: http.MethodGet, Path: "/", Match: Exact, Handler: s.ServeIndex},
		{Method: http.MethodGet, Path: "/", Match: Prefix, Handler: s.ServeFile},
	}
}

// Router returns a router over extra followed by [FileServer.Routes].
// Unmatched requests get the invalid-method page, and failures the
// not-found page.
func (s *FileServer) Router(extra ...Route) *Router {
	routes := append(append([]Route(nil), extra...), s.Routes()...)
	return NewRouter(routes,
		WithFallback(s.MethodNotAllowed),
		WithNotFound(s.NotFound),
		WithRouterLogger(s.log),
	)
}

// Echo responds with the request body. The body is read on a worker
// goroutine.
func Echo(req Request) pollen.Task[*Response] {
	body := req.Body()
	read := pollen.SpawnBlocking(func() ([]byte, error) { return io.ReadAll(body) })
	return pollen.Map(read, func(b []byte) *Response {
		return NewResponse().
			WithHeader("Content-Type", "application/octet-stream").
			WithBody(b)
	})
}

// EchoRoute is POST /echo served by [Echo].
func EchoRoute() Route {
	return Route{Method: http.MethodPost, Path: "/echo", Match: Exact, Handler: Echo}
}

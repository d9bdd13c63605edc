package fileserve

import (
	"io"
	"net/http"
	"strconv"
)

// Request is the read-only view of an incoming request the router needs.
type Request interface {
	Method() string
	Path() string
	Body() io.Reader
}

type request struct {
	method string
	path   string
	body   io.Reader
}

// NewRequest builds a [Request]. A nil body reads as empty.
func NewRequest(method, path string, body io.Reader) Request {
	if body == nil {
		body = http.NoBody
	}
	return &request{method: method, path: path, body: body}
}

// FromHTTP adapts a parsed *http.Request.
func FromHTTP(r *http.Request) Request {
	return NewRequest(r.Method, r.URL.Path, r.Body)
}

func (r *request) Method() string  { return r.method }
func (r *request) Path() string    { return r.path }
func (r *request) Body() io.Reader { return r.body }

// Response is a status code, header set and in-memory body.
type Response struct {
	Status int
	Header http.Header
	Body   []byte
}

// NewResponse returns an empty 200 response.
func NewResponse() *Response {
	return &Response{Status: http.StatusOK, Header: make(http.Header)}
}

// WithStatus sets the status code.
func (r *Response) WithStatus(code int) *Response {
	r.Status = code
	return r
}

// WithHeader sets a header, replacing earlier values.
func (r *Response) WithHeader(key, value string) *Response {
	r.Header.Set(key, value)
	return r
}

// WithBody sets the body and its Content-Length.
func (r *Response) WithBody(b []byte) *Response {
	r.Body = b
	r.Header.Set("Content-Length", strconv.Itoa(len(b)))
	return r
}

// ContentType returns the Content-Type header.
func (r *Response) ContentType() string { return r.Header.Get("Content-Type") }

// Write sends r through w. Its error is the only failure that escapes
// the router: the peer could not be written to.
func (r *Response) Write(w http.ResponseWriter) error {
	h := w.Header()
	for k, vs := range r.Header {
		h[k] = append([]string(nil), vs...)
	}
	w.WriteHeader(r.Status)
	_, err := w.Write(r.Body)
	return err
}

package fileserve

import (
	"context"
	"fmt"
	"io/fs"
	"net/http"
	"strings"
	"sync/atomic"
	"testing"
	"testing/fstest"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/baxromumarov/pollen"
)

func site() fstest.MapFS {
	return fstest.MapFS{
		"index.html":      {Data: []byte("hello")},
		"style.css":       {Data: []byte("body{}")},
		"docs/guide.txt":  {Data: []byte("read me")},
		"not_found.html":  {Data: []byte("<h1>missing</h1>")},
		"images/logo.png": {Data: []byte{0x89, 'P', 'N', 'G'}},
	}
}

func run[T any](t *testing.T, task pollen.Task[T]) (T, error) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return pollen.BlockOn(ctx, task)
}

func TestServeIndex(t *testing.T) {
	r := New(site(), WithLogger(quiet)).Router()

	resp := serve(t, r, http.MethodGet, "/")
	assert.Equal(t, http.StatusOK, resp.Status)
	assert.Equal(t, "text/html", resp.ContentType())
	assert.Equal(t, "hello", string(resp.Body))
	assert.Equal(t, "5", resp.Header.Get("Content-Length"))
}

func TestServeFiles(t *testing.T) {
	r := New(site(), WithLogger(quiet)).Router()

	tests := []struct {
		path, ct, body string
	}{
		{path: "/style.css", ct: "text/css", body: "body{}"},
		{path: "/docs/guide.txt", ct: "text/plain", body: "read me"},
		{path: "/docs/../docs/./guide.txt", ct: "text/plain", body: "read me"},
		{path: `/docs\guide.txt`, ct: "text/plain", body: "read me"},
		{path: "/images/logo.png", ct: "image/png", body: "\x89PNG"},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			resp := serve(t, r, http.MethodGet, tt.path)
			assert.Equal(t, http.StatusOK, resp.Status)
			assert.Equal(t, tt.ct, resp.ContentType())
			assert.Equal(t, tt.body, string(resp.Body))
		})
	}
}

func TestMissingFileServesNotFoundPage(t *testing.T) {
	r := New(site(), WithLogger(quiet)).Router()

	for _, path := range []string{"/nope.html", "/../../etc/passwd", "/docs"} {
		resp := serve(t, r, http.MethodGet, path)
		assert.Equal(t, http.StatusNotFound, resp.Status, path)
		assert.Equal(t, "<h1>missing</h1>", string(resp.Body), path)
		assert.Equal(t, "text/html", resp.ContentType(), path)
	}
}

func TestMissingNotFoundPage(t *testing.T) {
	fsys := site()
	delete(fsys, "not_found.html")
	r := New(fsys, WithLogger(quiet)).Router()

	resp := serve(t, r, http.MethodGet, "/nope.html")
	assert.Equal(t, http.StatusNotFound, resp.Status)
	assert.Equal(t, notFoundBody, string(resp.Body))
}

func TestUnsupportedMethod(t *testing.T) {
	fsys := site()
	delete(fsys, "not_found.html")
	r := New(fsys, WithLogger(quiet)).Router()

	resp := serve(t, r, http.MethodPut, "/index.html")
	assert.Equal(t, http.StatusNotFound, resp.Status, "no invalid-method page")
	assert.Equal(t, notFoundBody, string(resp.Body))

	fsys["invalid_method.html"] = &fstest.MapFile{Data: []byte("bad method")}
	r = New(fsys, WithLogger(quiet)).Router()

	resp = serve(t, r, http.MethodPut, "/index.html")
	assert.Equal(t, http.StatusMethodNotAllowed, resp.Status)
	assert.Equal(t, "bad method", string(resp.Body))
}

func TestCustomPages(t *testing.T) {
	fsys := fstest.MapFS{
		"home.htm": {Data: []byte("home")},
		"404.txt":  {Data: []byte("gone")},
	}
	r := New(fsys, WithLogger(quiet), WithPages("home.htm", "404.txt", "")).Router()

	assert.Equal(t, "home", string(serve(t, r, http.MethodGet, "/").Body))

	resp := serve(t, r, http.MethodGet, "/x")
	assert.Equal(t, http.StatusNotFound, resp.Status)
	assert.Equal(t, "gone", string(resp.Body))
}

func TestFileTaskStates(t *testing.T) {
	srv := New(site(), WithLogger(quiet))

	ft := srv.SendFile("/index.html")
	assert.Equal(t, StateRequested, ft.State())
	resp, err := run[*Response](t, ft)
	require.NoError(t, err)
	assert.Equal(t, StateDelivered, ft.State())
	assert.Equal(t, "index.html", ft.Path().String())

	again := ft.Poll(pollen.NoopWaker())
	assert.Same(t, resp, again.Value(), "terminal task repeats its outcome")

	ft = srv.SendFile("/missing.txt")
	_, err = run[*Response](t, ft)
	assert.ErrorIs(t, err, ErrFileMissing)
	assert.NotErrorIs(t, err, ErrIoFailure)
	assert.Equal(t, StateFileMissing, ft.State())

	var fe *FileError
	require.ErrorAs(t, err, &fe)
	assert.Equal(t, FileMissing, fe.Kind)
	assert.Equal(t, "missing.txt", fe.Path)

	ft = srv.SendFile("/docs")
	_, err = run[*Response](t, ft)
	assert.ErrorIs(t, err, ErrIoFailure)
	assert.ErrorIs(t, err, ErrIsDirectory)
	assert.Equal(t, StateIoFailure, ft.State())

	ft = srv.SendFile("/./")
	_, err = run[*Response](t, ft)
	assert.ErrorIs(t, err, ErrIoFailure, "the root is a directory")
	assert.True(t, ft.Path().IsEmpty())
}

func TestFileStateStrings(t *testing.T) {
	assert.Equal(t, "delivered", StateDelivered.String())
	assert.Equal(t, "unknown", FileState(99).String())
	assert.False(t, StateDispatched.Terminal())
	assert.True(t, StateFileMissing.Terminal())
}

type deniedFS struct{}

func (deniedFS) Open(name string) (fs.File, error) {
	return nil, &fs.PathError{Op: "open", Path: name, Err: fs.ErrPermission}
}

func TestPermissionDenied(t *testing.T) {
	srv := New(deniedFS{}, WithLogger(quiet))

	ft := srv.SendFile("/secret.txt")
	_, err := run[*Response](t, ft)
	assert.ErrorIs(t, err, ErrPermissionDenied)
	assert.ErrorIs(t, err, ErrIoFailure)
	assert.ErrorIs(t, err, fs.ErrPermission)
	assert.Equal(t, StateIoFailure, ft.State())

	resp := serve(t, srv.Router(), http.MethodGet, "/secret.txt")
	assert.Equal(t, http.StatusNotFound, resp.Status)
	assert.Equal(t, notFoundBody, string(resp.Body))
}

// slowFS records how many Opens run at once.
type slowFS struct {
	fstest.MapFS
	cur, peak atomic.Int32
}

func (s *slowFS) Open(name string) (fs.File, error) {
	n := s.cur.Add(1)
	defer s.cur.Add(-1)
	for {
		p := s.peak.Load()
		if n <= p || s.peak.CompareAndSwap(p, n) {
			break
		}
	}
	time.Sleep(5 * time.Millisecond)
	return s.MapFS.Open(name)
}

func manyFiles(n int) fstest.MapFS {
	fsys := fstest.MapFS{}
	for i := range n {
		fsys[fmt.Sprintf("f%d.txt", i)] = &fstest.MapFile{Data: []byte(fmt.Sprintf("body %d", i))}
	}
	return fsys
}

func TestConcurrentFilesKeepTheirBodies(t *testing.T) {
	const n = 16
	fsys := &slowFS{MapFS: manyFiles(n)}
	pool := pollen.NewBlockingPool(4)
	defer pool.Close()

	srv := New(fsys, WithLogger(quiet), WithBlockingPool(pool), WithMaxInFlight(2))
	r := srv.Router()

	tasks := make([]pollen.Task[*Response], n)
	for i := range tasks {
		tasks[i] = r.Serve(NewRequest(http.MethodGet, fmt.Sprintf("/f%d.txt", i), nil))
	}

	x := pollen.NewWorkerExecutor(4)
	defer x.Close()
	h := pollen.Spawn(x, "files", pollen.JoinAll(tasks...))

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	resps, err := h.Wait(ctx)
	require.NoError(t, err)

	for i, resp := range resps {
		assert.Equal(t, http.StatusOK, resp.Status)
		assert.Equal(t, fmt.Sprintf("body %d", i), string(resp.Body))
	}
	assert.LessOrEqual(t, fsys.peak.Load(), int32(2))
	assert.Equal(t, int64(n), pool.Stats().Submitted)
}

func TestEcho(t *testing.T) {
	r := New(site(), WithLogger(quiet)).Router(EchoRoute())

	resp, err := run(t, r.Serve(NewRequest(http.MethodPost, "/echo", strings.NewReader("ping"))))
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.Status)
	assert.Equal(t, "application/octet-stream", resp.ContentType())
	assert.Equal(t, "ping", string(resp.Body))

	resp, err = run(t, Echo(NewRequest(http.MethodPost, "/echo", nil)))
	require.NoError(t, err)
	assert.Empty(t, resp.Body)
}

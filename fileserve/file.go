package fileserve

import (
	"io"
	"sync/atomic"

	"github.com/baxromumarov/pollen"
)

// FileState is a step in a [FileTask]'s lifecycle.
type FileState int32

const (
	StateRequested FileState = iota
	StateSanitizing
	StateDispatched
	StateDelivered
	StateFileMissing
	StateIoFailure
)

func (s FileState) String() string {
	switch s {
	case StateRequested:
		return "requested"
	case StateSanitizing:
		return "sanitizing"
	case StateDispatched:
		return "dispatched"
	case StateDelivered:
		return "delivered"
	case StateFileMissing:
		return "file missing"
	case StateIoFailure:
		return "i/o failure"
	default:
		return "unknown"
	}
}

// Terminal reports whether s is a final state.
func (s FileState) Terminal() bool { return s >= StateDelivered }

// FileTask delivers one file as a [Response].
//
// The task moves Requested → Sanitizing → Dispatched and ends in exactly
// one of Delivered, FileMissing or IoFailure. Reading happens on a worker
// goroutine that owns the open file; the task only holds the receiving end
// of the result. Once terminal, every poll returns the same outcome.
type FileTask struct {
	srv    *FileServer
	raw    string
	status int
	state  atomic.Int32

	path    SanitizedPath
	permit  pollen.Task[struct{}]
	holding bool
	read    pollen.Task[[]byte]
	out     pollen.Poll[*Response]
}

func newFileTask(srv *FileServer, raw string, status int) *FileTask {
	return &FileTask{srv: srv, raw: raw, status: status}
}

// State returns the current lifecycle state. Safe to call concurrently.
func (t *FileTask) State() FileState { return FileState(t.state.Load()) }

// Path returns the sanitized path once the task has left Requested.
func (t *FileTask) Path() SanitizedPath { return t.path }

func (t *FileTask) setState(s FileState) { t.state.Store(int32(s)) }

// Poll implements [pollen.Task]. It fails with a [*FileError] when the
// file cannot be delivered.
func (t *FileTask) Poll(w *pollen.Waker) pollen.Poll[*Response] {
	if t.State().Terminal() {
		return t.out
	}
	if t.State() == StateRequested {
		t.setState(StateSanitizing)
		t.path = Sanitize(t.raw)
		t.setState(StateDispatched)
	}

	if t.read == nil {
		if sem := t.srv.sem; sem != nil && !t.holding {
			if t.permit == nil {
				t.permit = sem.Acquire()
			}
			if t.permit.Poll(w).IsPending() {
				return pollen.Pending[*Response]()
			}
			t.permit, t.holding = nil, true
		}
		t.read = t.srv.dispatch(t.path)
	}

	p := t.read.Poll(w)
	if p.IsPending() {
		return pollen.Pending[*Response]()
	}
	t.read = nil
	t.release()

	body, err := p.Result()
	if err != nil {
		fe := classify(t.path.Name(), err)
		t.out = pollen.Fail[*Response](fe)
		if fe.Kind == FileMissing {
			t.setState(StateFileMissing)
		} else {
			t.setState(StateIoFailure)
		}
		t.srv.log.Debug("file not delivered", "path", t.path.String(), "kind", fe.Kind.String(), "error", fe.Err)
		return t.out
	}

	t.out = pollen.Ready(NewResponse().
		WithStatus(t.status).
		WithHeader("Content-Type", ContentType(t.path)).
		WithBody(body))
	t.setState(StateDelivered)
	t.srv.log.Debug("file delivered", "path", t.path.String(), "bytes", len(body), "status", t.status)
	return t.out
}

// Close abandons the task. A read already on a worker finishes and its
// result is discarded.
func (t *FileTask) Close() {
	if t.permit != nil {
		pollen.Drop(t.permit)
		t.permit = nil
	}
	if t.read != nil {
		pollen.Drop(t.read)
		t.read = nil
	}
	t.release()
}

func (t *FileTask) release() {
	if t.holding {
		t.holding = false
		t.srv.sem.Release()
	}
}

// dispatch starts reading p on a worker.
func (s *FileServer) dispatch(p SanitizedPath) pollen.Task[[]byte] {
	read := func() ([]byte, error) { return s.readFile(p) }
	if s.pool != nil {
		return pollen.Offload(s.pool, read)
	}
	return pollen.SpawnBlocking(read)
}

// readFile opens p read-only and reads it to the end. It runs on a worker
// goroutine, never inside Poll.
func (s *FileServer) readFile(p SanitizedPath) ([]byte, error) {
	name := p.Name()
	f, err := s.fsys.Open(name)
	if err != nil {
		return nil, classify(name, err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return nil, classify(name, err)
	}
	if info.IsDir() {
		return nil, &FileError{Kind: IoFailure, Path: name, Err: ErrIsDirectory}
	}
	data, err := io.ReadAll(f)
	if err != nil {
		return nil, classify(name, err)
	}
	return data, nil
}

package fileserve

import (
	"errors"
	"fmt"
	"io/fs"
)

var (
	// ErrFileMissing matches a [*FileError] for a path that does not exist.
	ErrFileMissing = errors.New("fileserve: file missing")

	// ErrIoFailure matches any [*FileError] other than a missing file,
	// including permission failures.
	ErrIoFailure = errors.New("fileserve: i/o failure")

	// ErrPermissionDenied matches a [*FileError] caused by missing permissions.
	ErrPermissionDenied = errors.New("fileserve: permission denied")

	// ErrIsDirectory is the cause recorded when a path names a directory.
	ErrIsDirectory = errors.New("fileserve: is a directory")

	errNoResponse = errors.New("fileserve: handler resolved without a response")
)

// FileErrorKind classifies a failed file read.
type FileErrorKind int

const (
	FileMissing FileErrorKind = iota + 1
	PermissionDenied
	IoFailure
)

func (k FileErrorKind) String() string {
	switch k {
	case FileMissing:
		return "file missing"
	case PermissionDenied:
		return "permission denied"
	case IoFailure:
		return "i/o failure"
	default:
		return "unknown"
	}
}

// FileError reports why a file could not be delivered.
type FileError struct {
	Kind FileErrorKind
	Path string
	Err  error
}

func (e *FileError) Error() string {
	return fmt.Sprintf("fileserve: %s %q: %v", e.Kind, e.Path, e.Err)
}

func (e *FileError) Unwrap() error { return e.Err }

// Is matches the package sentinels by kind.
func (e *FileError) Is(target error) bool {
	switch target {
	case ErrFileMissing:
		return e.Kind == FileMissing
	case ErrPermissionDenied:
		return e.Kind == PermissionDenied
	case ErrIoFailure:
		return e.Kind != FileMissing
	}
	return false
}

func classify(name string, err error) *FileError {
	var fe *FileError
	if errors.As(err, &fe) {
		return fe
	}
	kind := IoFailure
	switch {
	case errors.Is(err, fs.ErrNotExist):
		kind = FileMissing
	case errors.Is(err, fs.ErrPermission):
		kind = PermissionDenied
	}
	return &FileError{Kind: kind, Path: name, Err: err}
}
